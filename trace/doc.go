// Package trace implements the host-side tracing wire format: a
// byte-stuffed, checksummed frame encoding (frame.go), a hook that turns
// kernel activity into frames (hook.go), a global/local/AO filter with a
// per-record-ID rate cap (filter.go), and a batched writer over an
// io.Writer sink (writer.go).
//
// This is layer 1 only — framing and filtering. Command interpretation
// (parsing host-to-target commands off the same wire) lives in the
// sibling package trace/qscmd, kept separate per the framing/semantics
// split the rewrite makes explicit.
package trace
