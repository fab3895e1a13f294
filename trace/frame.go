package trace

import "errors"

// Frame delimiter and escape constants, reproduced verbatim from the
// original QS wire format (qs_pkg.h's QS_FRAME/QS_ESC/QS_ESC_XOR/
// QS_GOOD_CHKSUM literals).
const (
	frameByte  byte = 0x7E
	escByte    byte = 0x7D
	escXOR     byte = 0x20
	goodChksum byte = 0xFF
)

// Exported aliases of the wire constants above, for the command
// interpretation layer (package qscmd), which runs its own byte-level
// unstuffing on the host->target direction of the same link.
const (
	FrameByte  = frameByte
	EscByte    = escByte
	EscXOR     = escXOR
	GoodChksum = goodChksum
)

// ErrBadChecksum is returned by Decode when a frame's checksum byte does
// not reconcile with the sum of its preceding bytes.
var ErrBadChecksum = errors.New("trace: bad checksum")

// ErrShortFrame is returned by Decode when a frame is too short to contain
// a sequence number, a record ID, and a checksum byte.
var ErrShortFrame = errors.New("trace: short frame")

// Encode builds a complete, byte-stuffed, checksummed frame: the leading
// and trailing frameByte delimiters bracket the stuffed seq, recordID,
// payload and checksum bytes. seq and recordID are not stuffed against
// each other semantically — they're simply the first two logical bytes
// of the payload stream the checksum covers.
func Encode(seq byte, recordID byte, payload []byte) []byte {
	sum := seq + recordID
	for _, b := range payload {
		sum += b
	}
	chk := goodChksum ^ sum

	out := make([]byte, 0, 2+2*(2+len(payload)+1))
	out = append(out, frameByte)
	out = appendStuffed(out, seq)
	out = appendStuffed(out, recordID)
	for _, b := range payload {
		out = appendStuffed(out, b)
	}
	out = appendStuffed(out, chk)
	out = append(out, frameByte)
	return out
}

func appendStuffed(dst []byte, b byte) []byte {
	if b == frameByte || b == escByte {
		return append(dst, escByte, b^escXOR)
	}
	return append(dst, b)
}

// Decode unstuffs and validates a single frame's body — raw must exclude
// the leading and trailing frameByte delimiters. It returns the sequence
// number, record ID, and payload, or ErrBadChecksum / ErrShortFrame.
func Decode(raw []byte) (seq byte, recordID byte, payload []byte, err error) {
	unstuffed := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		b := raw[i]
		if b == escByte {
			i++
			if i >= len(raw) {
				return 0, 0, nil, ErrShortFrame
			}
			unstuffed = append(unstuffed, raw[i]^escXOR)
			continue
		}
		unstuffed = append(unstuffed, b)
	}

	if len(unstuffed) < 3 {
		return 0, 0, nil, ErrShortFrame
	}

	body := unstuffed[:len(unstuffed)-1]
	chk := unstuffed[len(unstuffed)-1]

	var sum byte
	for _, b := range body {
		sum += b
	}
	if sum+chk != goodChksum {
		return 0, 0, nil, ErrBadChecksum
	}

	return body[0], body[1], body[2:], nil
}
