package qactive

import (
	"runtime"
	"sync/atomic"
)

// goroutineID returns the calling goroutine's id, parsed out of the runtime
// stack trace header ("goroutine 123 [running]:..."). It is the same
// technique used to detect thread affinity in a single-goroutine reactor;
// here it backs isKernelThread instead of a fast-path dispatch check.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	var id uint64
	for i := len("goroutine "); i < n; i++ {
		if buf[i] >= '0' && buf[i] <= '9' {
			id = id*10 + uint64(buf[i]-'0')
		} else {
			break
		}
	}
	return id
}

// A plain mutex models the "interrupts disabled" critical region spec §5 requires
// around every scheduler mutation: ready-set, registry, queue head/tail,
// reference counters, pool free lists, and wheel links. There is no real
// interrupt controller in a goroutine-based port, so the region is a plain
// mutex acquired for the shortest possible span; no such mutex is held
// while calling into application handlers, matching the spec's bound on
// critical sections.
//
// isrNesting additionally tracks ISR-context nesting per spec §4.5 and §5:
// a per-kernel nesting counter, incremented on ISR entry by the BSP and
// decremented on exit. onReady reads it: a post made while it is non-zero
// only flips a ready bit and wakes the kernel's Run loop instead of
// invoking schedule() directly. Exit itself does not run the scheduler.
type isrNesting struct {
	depth atomic.Int32
}

// Enter increments the nesting counter on ISR entry.
func (n *isrNesting) Enter() int32 { return n.depth.Add(1) }

// Exit decrements the nesting counter on ISR exit, returning the new depth.
func (n *isrNesting) Exit() int32 { return n.depth.Add(-1) }

// Depth returns the current nesting depth; zero means thread context.
func (n *isrNesting) Depth() int32 { return n.depth.Load() }

// InISR reports whether the calling context is nested inside at least one
// ISR entry.
func (n *isrNesting) InISR() bool { return n.depth.Load() > 0 }
