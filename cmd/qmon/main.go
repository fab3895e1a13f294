// Command qmon is an interactive host console for a running qactive
// target, modeled on QP's qspy host utility: it sends host->target
// commands (reset, info, tick-rate set, peek/poke, AO filter set) in the
// wire format the trace/qscmd command layer decodes, and
// prints decoded target->host trace frames as they arrive.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	goprompt "github.com/joeycumines/go-prompt"
	istrings "github.com/joeycumines/go-prompt/strings"
	"github.com/joeycumines/qactive/trace"
	"github.com/joeycumines/qactive/trace/qscmd"
)

func main() {
	addr := flag.String("addr", "", "host:port of the target's trace link (TCP); empty prints commands to stdout instead of sending them")
	flag.Parse()

	console, err := newConsole(*addr)
	if err != nil {
		fmt.Fprintln(os.Stderr, "qmon:", err)
		os.Exit(1)
	}
	defer console.Close()

	go console.readTraceFrames()

	p := goprompt.New(console.execute, console.complete,
		goprompt.WithPrefix("qmon> "),
		goprompt.WithTitle("qmon"),
	)
	p.Run()
}

type console struct {
	conn net.Conn
	out  *bufio.Writer
	seq  byte
}

func newConsole(addr string) (*console, error) {
	c := &console{}
	if addr == "" {
		c.out = bufio.NewWriter(os.Stdout)
		return c, nil
	}
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	c.conn = conn
	c.out = bufio.NewWriter(conn)
	return c, nil
}

func (c *console) Close() {
	c.out.Flush()
	if c.conn != nil {
		c.conn.Close()
	}
}

// readTraceFrames prints decoded target->host records as they arrive.
// When there's no live connection (dry-run/stdout mode) it has nothing to
// read from and returns immediately.
func (c *console) readTraceFrames() {
	if c.conn == nil {
		return
	}
	r := bufio.NewReader(c.conn)
	var body []byte
	inFrame := false
	for {
		b, err := r.ReadByte()
		if err != nil {
			return
		}
		if b == trace.FrameByte {
			if inFrame && len(body) > 0 {
				if seq, rec, payload, err := trace.Decode(body); err == nil {
					fmt.Printf("<- seq=%d rec=%d payload=% x\n", seq, rec, payload)
				} else {
					fmt.Fprintln(os.Stderr, "qmon: frame error:", err)
				}
			}
			body = body[:0]
			inFrame = true
			continue
		}
		if inFrame {
			body = append(body, b)
		}
	}
}

func (c *console) send(id qscmd.CommandID, payload []byte) {
	c.seq++
	framed := trace.Encode(c.seq, byte(id), payload)
	c.out.Write(framed)
	c.out.Flush()
}

// execute parses one line of operator input into a command and sends it.
func (c *console) execute(line string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}

	switch strings.ToLower(fields[0]) {
	case "reset":
		c.send(qscmd.CmdReset, nil)

	case "info":
		c.send(qscmd.CmdInfo, nil)

	case "tick":
		rate, err := parseByte(fields, 1)
		if err != nil {
			fmt.Fprintln(os.Stderr, "qmon:", err)
			return
		}
		c.send(qscmd.CmdTickRate, []byte{rate})

	case "peek":
		addr, length, err := parseAddrLen(fields)
		if err != nil {
			fmt.Fprintln(os.Stderr, "qmon:", err)
			return
		}
		c.send(qscmd.CmdPeek, []byte{byte(addr), byte(addr >> 8), length})

	case "poke":
		if len(fields) < 3 {
			fmt.Fprintln(os.Stderr, "qmon: usage: poke <addr> <hex bytes...>")
			return
		}
		addr, err := strconv.ParseUint(fields[1], 0, 16)
		if err != nil {
			fmt.Fprintln(os.Stderr, "qmon:", err)
			return
		}
		data := make([]byte, 0, len(fields)-2)
		for _, f := range fields[2:] {
			v, err := strconv.ParseUint(f, 16, 8)
			if err != nil {
				fmt.Fprintln(os.Stderr, "qmon:", err)
				return
			}
			data = append(data, byte(v))
		}
		payload := append([]byte{byte(addr), byte(addr >> 8), byte(len(data))}, data...)
		c.send(qscmd.CmdPoke, payload)

	case "aofilter":
		prio, err := parseByte(fields, 1)
		if err != nil {
			fmt.Fprintln(os.Stderr, "qmon:", err)
			return
		}
		c.send(qscmd.CmdAOFilter, []byte{prio})

	case "help":
		fmt.Println("commands: reset, info, tick <rate>, peek <addr> <len>, poke <addr> <hex bytes...>, aofilter <priority>")

	default:
		fmt.Fprintf(os.Stderr, "qmon: unrecognized command %q (try 'help')\n", fields[0])
	}
}

// complete offers the fixed command set as suggestions. It doesn't narrow
// by the in-progress word — go-prompt's own fuzzy/prefix matching in the
// renderer handles that narrowing against whatever this returns.
func (c *console) complete(d goprompt.Document) ([]goprompt.Suggest, istrings.RuneNumber, istrings.RuneNumber) {
	suggestions := []goprompt.Suggest{
		{Text: "reset", Description: "reset the target"},
		{Text: "info", Description: "request target build info"},
		{Text: "tick", Description: "set the tick rate: tick <rate>"},
		{Text: "peek", Description: "read target memory: peek <addr> <len>"},
		{Text: "poke", Description: "write target memory: poke <addr> <hex bytes...>"},
		{Text: "aofilter", Description: "restrict tracing to one AO: aofilter <priority>"},
		{Text: "help", Description: "list commands"},
	}
	return suggestions, 0, 0
}

func parseByte(fields []string, idx int) (byte, error) {
	if len(fields) <= idx {
		return 0, fmt.Errorf("missing argument")
	}
	v, err := strconv.ParseUint(fields[idx], 0, 8)
	if err != nil {
		return 0, err
	}
	return byte(v), nil
}

func parseAddrLen(fields []string) (addr uint64, length byte, err error) {
	if len(fields) < 3 {
		return 0, 0, fmt.Errorf("usage: peek <addr> <len>")
	}
	addr, err = strconv.ParseUint(fields[1], 0, 16)
	if err != nil {
		return 0, 0, err
	}
	l, err := strconv.ParseUint(fields[2], 0, 8)
	if err != nil {
		return 0, 0, err
	}
	return addr, byte(l), nil
}
