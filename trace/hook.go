package trace

import "github.com/joeycumines/qactive"

// RecordID identifies the semantic content of a trace frame's payload, the
// wire equivalent of the original QS record-ID enumeration (QS_QEP_TRAN,
// QS_QF_TICK, and so on) narrowed to the events qactive.TraceHook exposes.
type RecordID byte

const (
	RecordDispatch RecordID = iota + 1
	RecordTransition
	RecordPost
	RecordPublish
	RecordTick
	RecordExhausted
)

// Sink receives already-framed trace bytes. Writer (writer.go) is the
// batched, io.Writer-backed implementation; tests may substitute a simpler
// one.
type Sink interface {
	Write(frame []byte) error
}

// Hook adapts kernel activity (qactive.TraceHook) into framed records on a
// Sink, subject to a Filter's accept/reject decision per record. It
// implements qactive.TraceHook directly, so it can be passed straight to
// qactive.WithTraceHook.
type Hook struct {
	sink   Sink
	filter *Filter
	seq    byte
}

// NewHook constructs a Hook writing accepted records to sink. A nil filter
// accepts everything.
func NewHook(sink Sink, filter *Filter) *Hook {
	return &Hook{sink: sink, filter: filter}
}

func (h *Hook) emit(rec RecordID, payload []byte) {
	if h.filter != nil && !h.filter.Allow(rec) {
		return
	}
	h.write(rec, payload)
}

func (h *Hook) emitForAO(rec RecordID, priority int, payload []byte) {
	if h.filter != nil && !h.filter.AllowAO(rec, priority) {
		return
	}
	h.write(rec, payload)
}

func (h *Hook) write(rec RecordID, payload []byte) {
	h.seq++
	_ = h.sink.Write(Encode(h.seq, byte(rec), payload))
}

func (h *Hook) OnDispatch(priority int, signal int) {
	h.emitForAO(RecordDispatch, priority, encodeInts(priority, signal))
}

func (h *Hook) OnTransition(priority int, source, target string) {
	payload := encodeInts(priority)
	payload = append(payload, byte(len(source)))
	payload = append(payload, source...)
	payload = append(payload, byte(len(target)))
	payload = append(payload, target...)
	h.emitForAO(RecordTransition, priority, payload)
}

func (h *Hook) OnPost(priority int, signal int, lifo bool) {
	b := byte(0)
	if lifo {
		b = 1
	}
	payload := encodeInts(priority, signal)
	payload = append(payload, b)
	h.emitForAO(RecordPost, priority, payload)
}

func (h *Hook) OnPublish(signal int, subscriberCount int) {
	h.emit(RecordPublish, encodeInts(signal, subscriberCount))
}

func (h *Hook) OnTick(rate int, expired int) {
	h.emit(RecordTick, encodeInts(rate, expired))
}

func (h *Hook) OnExhausted(err error) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	h.emit(RecordExhausted, []byte(msg))
}

var _ qactive.TraceHook = (*Hook)(nil)

// encodeInts packs a small list of ints as big-endian 32-bit fields — the
// wire format doesn't need to be compact, just stable and easy to decode
// on the host side.
func encodeInts(vals ...int) []byte {
	out := make([]byte, 0, 4*len(vals))
	for _, v := range vals {
		u := uint32(v)
		out = append(out, byte(u>>24), byte(u>>16), byte(u>>8), byte(u))
	}
	return out
}
