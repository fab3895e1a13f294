package trace

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"
)

func Test_Writer_FlushesOnMaxSize(t *testing.T) {
	var buf syncBuffer
	w := NewWriter(&buf, 2, time.Hour)

	if err := w.Write([]byte{0x7E, 1, 2, 0x7E}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Write([]byte{0x7E, 3, 4, 0x7E}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for buf.Len() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	if err := w.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}

	want := []byte{0x7E, 1, 2, 0x7E, 0x7E, 3, 4, 0x7E}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Fatalf("got % x want % x", buf.Bytes(), want)
	}
}

func Test_Writer_FlushesOnInterval(t *testing.T) {
	var buf syncBuffer
	w := NewWriter(&buf, 100, 10*time.Millisecond)

	if err := w.Write([]byte{0xAA}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for buf.Len() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	if err := w.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if !bytes.Equal(buf.Bytes(), []byte{0xAA}) {
		t.Fatalf("got % x want [AA]", buf.Bytes())
	}
}

// syncBuffer is a minimal concurrency-safe io.Writer for tests — the
// batcher's flush runs on its own goroutine, racing with the test's read
// of the buffer contents without this.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Len()
}

func (b *syncBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]byte{}, b.buf.Bytes()...)
}
