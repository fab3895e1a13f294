// Package qscmd implements the command-interpretation layer of the host
// link: a byte-at-a-time state machine that consumes the host->target
// direction of the same wire the trace package frames for the opposite
// direction, and turns it into structured Command values (reset, peek,
// poke, tick-rate set, global/local/AO filter set, synthetic-event
// injection). It is deliberately a separate package from trace, matching
// the framing/semantics split the rewrite calls for: trace knows nothing
// about command bytes, and Parser knows nothing about trace's Hook/Sink.
package qscmd

import (
	"errors"

	"github.com/joeycumines/qactive/trace"
)

var (
	errShortFrame     = errors.New("qscmd: frame ended before command was complete")
	errUnknownCommand = errors.New("qscmd: unrecognized command ID")
	errBadChecksum    = errors.New("qscmd: bad checksum")
)

// State is a step in the command-interpretation state machine, named
// after the wire's receive-side states (reproduced from the kept original
// sources, WAIT4_* renamed to WAIT_*).
type State int

const (
	WaitSeq State = iota
	WaitRec
	WaitCmdID
	WaitTickRate
	WaitPeekAddrLo
	WaitPeekAddrHi
	WaitPeekLen
	WaitPokeAddrLo
	WaitPokeAddrHi
	WaitPokeLen
	WaitPokeData
	WaitGlbFilterLen
	WaitGlbFilterData
	WaitLocFilterID
	WaitLocFilterAddrLo
	WaitLocFilterAddrHi
	WaitAOFilterPrio
	WaitEvtPrio
	WaitEvtSigLo
	WaitEvtSigHi
	WaitEvtLen
	WaitEvtPar
	WaitFrame
	ErrorState
)

// CommandID identifies the kind of a parsed Command — the record ID the
// receive-side FSM branches on once it reads WaitCmdID.
type CommandID byte

const (
	CmdReset CommandID = iota
	CmdInfo
	CmdTickRate
	CmdPeek
	CmdPoke
	CmdGlbFilter
	CmdLocFilter
	CmdAOFilter
	CmdEvent
)

// Command is a fully parsed, checksum-validated host->target command.
type Command struct {
	ID       CommandID
	TickRate byte
	Addr     uint16
	Len      byte
	Data     []byte
	FilterID byte
	Priority int
	Signal   int
}

// Parser is a single-frame-at-a-time command decoder. It is not safe for
// concurrent use — one Parser per host link.
type Parser struct {
	state    State
	escaped  bool
	chksum   byte
	seq      byte
	needed   int
	buf      []byte
	cmd      Command
}

// New constructs a Parser ready to consume bytes via Feed.
func New() *Parser {
	return &Parser{state: WaitSeq}
}

// Feed consumes one raw (possibly stuffed) wire byte. It returns a
// completed, checksum-validated Command once a full frame has been
// received, or an error if framing or checksum validation fails — in
// either case the Parser resets to WaitSeq, ready for the next frame. A
// trace.FrameByte always resynchronizes the parser, matching the
// original receiver's behavior of treating an unexpected frame delimiter
// as "start of a new frame" rather than a fatal error.
func (p *Parser) Feed(raw byte) (*Command, error) {
	if raw == trace.FrameByte {
		wasMidFrame := p.state != WaitSeq && p.state != WaitFrame
		p.reset()
		if wasMidFrame {
			return nil, errShortFrame
		}
		return nil, nil
	}

	if p.escaped {
		raw ^= trace.EscXOR
		p.escaped = false
	} else if raw == trace.EscByte {
		p.escaped = true
		return nil, nil
	}

	p.chksum += raw

	switch p.state {
	case WaitSeq:
		p.seq = raw
		p.state = WaitRec

	case WaitRec:
		p.cmd = Command{ID: CommandID(raw)}
		switch CommandID(raw) {
		case CmdReset, CmdInfo:
			p.state = WaitFrame
		case CmdTickRate:
			p.state = WaitTickRate
		case CmdPeek:
			p.state = WaitPeekAddrLo
		case CmdPoke:
			p.state = WaitPokeAddrLo
		case CmdGlbFilter:
			p.state = WaitGlbFilterLen
		case CmdLocFilter:
			p.state = WaitLocFilterID
		case CmdAOFilter:
			p.state = WaitAOFilterPrio
		case CmdEvent:
			p.state = WaitEvtPrio
		default:
			p.state = ErrorState
			return nil, errUnknownCommand
		}

	case WaitTickRate:
		p.cmd.TickRate = raw
		p.state = WaitFrame

	case WaitPeekAddrLo:
		p.cmd.Addr = uint16(raw)
		p.state = WaitPeekAddrHi
	case WaitPeekAddrHi:
		p.cmd.Addr |= uint16(raw) << 8
		p.state = WaitPeekLen
	case WaitPeekLen:
		p.cmd.Len = raw
		p.state = WaitFrame

	case WaitPokeAddrLo:
		p.cmd.Addr = uint16(raw)
		p.state = WaitPokeAddrHi
	case WaitPokeAddrHi:
		p.cmd.Addr |= uint16(raw) << 8
		p.state = WaitPokeLen
	case WaitPokeLen:
		p.cmd.Len = raw
		p.needed = int(raw)
		p.buf = p.buf[:0]
		if p.needed == 0 {
			p.state = WaitFrame
		} else {
			p.state = WaitPokeData
		}
	case WaitPokeData:
		p.buf = append(p.buf, raw)
		if len(p.buf) >= p.needed {
			p.cmd.Data = append([]byte{}, p.buf...)
			p.state = WaitFrame
		}

	case WaitGlbFilterLen:
		p.cmd.Len = raw
		p.needed = int(raw)
		p.buf = p.buf[:0]
		if p.needed == 0 {
			p.state = WaitFrame
		} else {
			p.state = WaitGlbFilterData
		}
	case WaitGlbFilterData:
		p.buf = append(p.buf, raw)
		if len(p.buf) >= p.needed {
			p.cmd.Data = append([]byte{}, p.buf...)
			p.state = WaitFrame
		}

	case WaitLocFilterID:
		p.cmd.FilterID = raw
		p.state = WaitLocFilterAddrLo
	case WaitLocFilterAddrLo:
		p.cmd.Addr = uint16(raw)
		p.state = WaitLocFilterAddrHi
	case WaitLocFilterAddrHi:
		p.cmd.Addr |= uint16(raw) << 8
		p.state = WaitFrame

	case WaitAOFilterPrio:
		p.cmd.Priority = int(raw)
		p.state = WaitFrame

	case WaitEvtPrio:
		p.cmd.Priority = int(raw)
		p.state = WaitEvtSigLo
	case WaitEvtSigLo:
		p.cmd.Signal = int(raw)
		p.state = WaitEvtSigHi
	case WaitEvtSigHi:
		p.cmd.Signal |= int(raw) << 8
		p.state = WaitEvtLen
	case WaitEvtLen:
		p.cmd.Len = raw
		p.needed = int(raw)
		p.buf = p.buf[:0]
		if p.needed == 0 {
			p.state = WaitFrame
		} else {
			p.state = WaitEvtPar
		}
	case WaitEvtPar:
		p.buf = append(p.buf, raw)
		if len(p.buf) >= p.needed {
			p.cmd.Data = append([]byte{}, p.buf...)
			p.state = WaitFrame
		}

	case WaitFrame:
		// The checksum byte arrives here and completes the frame: p.chksum
		// now sums every unstuffed byte including the checksum, so a good
		// frame reads GoodChksum. The closing trace.FrameByte that follows
		// hits the early-return branch at the top of Feed with the parser
		// already back in WaitSeq.
		if p.chksum != trace.GoodChksum {
			p.reset()
			return nil, errBadChecksum
		}
		cmd := p.cmd
		p.reset()
		return &cmd, nil

	case ErrorState:
		// discard bytes until the next frame delimiter resyncs us.

	default:
		p.state = ErrorState
	}

	return nil, nil
}

func (p *Parser) reset() {
	p.state = WaitSeq
	p.escaped = false
	p.chksum = 0
	p.seq = 0
	p.needed = 0
	p.buf = p.buf[:0]
	p.cmd = Command{}
}
