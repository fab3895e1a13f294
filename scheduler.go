package qactive

import (
	"sync"
	"sync/atomic"
)

// scheduler is the embeddable ready-set + registry half of Kernel, split
// into its own file per spec §4.5. It is not exported on its own; Kernel
// composes it directly (see kernel.go) the way go-eventloop composes Loop
// from its state machine and registry fields rather than via interface
// indirection.
type scheduler struct {
	mu              sync.Mutex
	readySet        PrioSet
	registry        [MaxPriority + 1]*AO
	ceiling         int
	runningPriority int
	scheduling      boolFlag
}

// boolFlag is a tiny atomic bool guarding schedule()'s same-goroutine
// reentrancy check — it is read from arbitrary poster goroutines and
// written only from the kernel's own goroutine.
type boolFlag struct{ v atomic.Bool }

func (f *boolFlag) set(b bool) { f.v.Store(b) }
func (f *boolFlag) get() bool  { return f.v.Load() }

// onReady is invoked by a Queue the instant it transitions from empty to
// non-empty, per spec §4.5: set priority's ready bit; if the caller is the
// kernel's own goroutine (thread context) and not already inside a
// dispatch step, and priority exceeds the currently running AO's, drive
// the scheduler inline. Otherwise (ISR context, or a nested post from
// within a handler already being dispatched) only the bit is set — the
// scheduler re-evaluates find_max at the end of the current RTC step, or
// the kernel's Run loop is woken from Idle.
func (k *Kernel) onReady(priority int) {
	k.mu.Lock()
	k.readySet.Insert(priority)
	running := k.runningPriority
	k.mu.Unlock()

	if k.isKernelThread() && !k.isr.InISR() && !k.scheduling.get() && priority > running {
		k.schedule()
		return
	}
	k.wake()
}

// findMax returns the highest ready priority strictly above the current
// ceiling (spec §4.10: priorities at or below ceiling are "effectively
// blocked" without being removed from the ready set), or ok=false if
// nothing schedulable is ready.
func (k *Kernel) findMax() (int, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	p, ok := k.readySet.FindMax()
	if ok && p <= k.ceiling {
		return 0, false
	}
	return p, ok
}

// schedule runs the scheduler to quiescence, per spec §4.5: repeatedly pick
// the highest ready priority, run exactly one dispatch step on it, recycle
// the event, and re-evaluate. Exactly one AO ever runs at a time; this is
// non-preemptive within a step and preemptive only between steps.
func (k *Kernel) schedule() {
	if k.scheduling.get() {
		return // already running on this goroutine; let the active call finish
	}
	k.scheduling.set(true)
	defer k.scheduling.set(false)

	for {
		p, ok := k.findMax()
		if !ok {
			return
		}
		k.dispatchOne(p)
	}
}

// dispatchOne pops one event from priority p's AO, dispatches it, recycles
// it, and removes p from the ready set if its queue is now empty.
func (k *Kernel) dispatchOne(p int) {
	k.mu.Lock()
	ao := k.registry[p]
	k.mu.Unlock()
	if ao == nil {
		k.mu.Lock()
		k.readySet.Remove(p)
		k.mu.Unlock()
		return
	}

	qe, ok := ao.queue.Get()
	if !ok {
		k.mu.Lock()
		k.readySet.Remove(p)
		k.mu.Unlock()
		return
	}

	k.mu.Lock()
	k.runningPriority = p
	k.mu.Unlock()

	k.hook.OnDispatch(p, int(qe.Evt.Sig))
	before := ao.hsm.Current()
	ao.hsm.Dispatch(qe.Evt)
	if after := ao.hsm.Current(); after != before {
		k.hook.OnTransition(p, before.Name, after.Name)
	}
	k.gc(qe)

	k.mu.Lock()
	k.runningPriority = 0
	if ao.queue.IsEmpty() {
		k.readySet.Remove(p)
	}
	k.mu.Unlock()
}

// gc releases qe back to the event manager, a no-op without one configured
// (e.g. an all-static-event AO needs no Manager).
func (k *Kernel) gc(qe QueuedEvent) {
	if k.mgr == nil || qe.Evt == nil {
		return
	}
	k.mgr.Gc(qe.Evt, qe.Block)
}
