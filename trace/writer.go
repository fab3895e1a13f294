package trace

import (
	"context"
	"io"
	"time"

	"github.com/joeycumines/go-microbatch"
)

// Writer is a Sink that batches framed records before handing them to an
// underlying io.Writer, using microbatch.Batcher's size/interval-triggered
// flush exactly as its own example does for a downstream sink — the
// natural fit for a byte-oriented trace link where a syscall per frame
// would dominate the cost of tracing itself.
type Writer struct {
	batcher *microbatch.Batcher[[]byte]
}

// NewWriter constructs a Writer flushing batches of up to maxSize frames,
// or every flushInterval, whichever comes first, to out. A batch is
// written to out as a single concatenated Write call.
func NewWriter(out io.Writer, maxSize int, flushInterval time.Duration) *Writer {
	w := &Writer{}
	w.batcher = microbatch.NewBatcher(&microbatch.BatcherConfig{
		MaxSize:       maxSize,
		FlushInterval: flushInterval,
	}, func(ctx context.Context, frames [][]byte) error {
		var batch []byte
		for _, f := range frames {
			batch = append(batch, f...)
		}
		_, err := out.Write(batch)
		return err
	})
	return w
}

// Write submits frame for batched delivery. It blocks only long enough to
// join the current or next batch, not for that batch's flush — callers on
// the dispatch-adjacent hot path (see hook.go) don't stall waiting for I/O.
func (w *Writer) Write(frame []byte) error {
	_, err := w.batcher.Submit(context.Background(), frame)
	return err
}

// Close stops accepting new frames and waits for any in-flight batch to
// finish writing.
func (w *Writer) Close(ctx context.Context) error {
	return w.batcher.Shutdown(ctx)
}

var _ Sink = (*Writer)(nil)
