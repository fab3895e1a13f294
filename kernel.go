package qactive

import (
	"context"
	"sync"
	"sync/atomic"
)

// Kernel is the fixed-priority preemptive scheduler of spec §4.5: a
// registry of active objects indexed by priority, a ready-set bitmap, and
// a single goroutine that owns run-to-completion dispatch — mirroring
// go-eventloop's single-goroutine-owns-the-loop model, generalized from
// one FIFO to a priority-ordered fan of them.
type Kernel struct {
	scheduler

	state        *FastState
	isr          isrNesting
	mgr          *Manager
	pubsub       *PubSub
	wheel        *Wheel
	hook         TraceHook
	logger       Logger
	maxPriority  int
	maxNestDepth int
	id           int64

	loopGoroutine atomic.Uint64
	wakeCh        chan struct{}
	kernelDone    chan struct{}
	stopOnce      sync.Once
	onIdle        func()
}

var kernelIDSeq atomic.Int64

// NewKernel constructs a Kernel. Priorities 1..MaxPriority (or the value
// from WithMaxPriority) are available for AO.Start.
func NewKernel(opts ...KernelOption) *Kernel {
	cfg := resolveKernelOptions(opts)
	k := &Kernel{
		state:        NewFastState(),
		pubsub:       NewPubSub(),
		wheel:        NewWheel(),
		hook:         cfg.hook,
		logger:       cfg.logger,
		maxPriority:  cfg.maxPriority,
		maxNestDepth: cfg.maxNestDepth,
		id:           kernelIDSeq.Add(1),
		wakeCh:       make(chan struct{}, 1),
		kernelDone:   make(chan struct{}),
	}
	if k.hook == nil {
		k.hook = noopTraceHook{}
	}
	return k
}

// ID returns a process-unique identifier for this kernel, used in log
// entries and trace frames.
func (k *Kernel) ID() int64 { return k.id }

// MaxPriority returns the highest assignable AO priority.
func (k *Kernel) MaxPriority() int { return k.maxPriority }

// SetManager attaches the event-memory manager used to release dynamic
// events once dispatched. An AO posting only static events needs none.
func (k *Kernel) SetManager(mgr *Manager) { k.mgr = mgr }

// Wheel returns the kernel's time-event wheel (spec §4.8), for Arm/Disarm/
// Rearm calls against timers that post into this kernel's AOs.
func (k *Kernel) Wheel() *Wheel { return k.wheel }

// TickX advances rate's wheel by one tick, per spec §4.8, and reports the
// expiry count to the configured TraceHook. It is meant to be called from
// the BSP's clock-tick ISR, wrapped in ISR().Enter()/Exit().
func (k *Kernel) TickX(rate int) {
	expired := k.wheel.TickX(rate)
	k.hook.OnTick(rate, expired)
}

// SetOnIdle registers the BSP idle hook (spec §6's OnIdle), invoked from
// the kernel's own goroutine whenever the ready-set empties out, before
// Run blocks waiting for the next Post/Publish/TickX.
func (k *Kernel) SetOnIdle(fn func()) { k.onIdle = fn }

// ISR returns the nesting counter the BSP's interrupt entry/exit hooks
// must bump around ISR-context callbacks, per spec §4.5/§5.
func (k *Kernel) ISR() *isrNesting { return &k.isr }

// isKernelThread reports whether the calling goroutine is the one
// currently (or most recently) executing Run/RunUntilIdle — our proxy for
// the embedded target's notion of "thread context" where there is only
// one call stack.
func (k *Kernel) isKernelThread() bool {
	id := k.loopGoroutine.Load()
	return id != 0 && id == goroutineID()
}

func (k *Kernel) wake() {
	select {
	case k.wakeCh <- struct{}{}:
	default:
	}
}

// RunUntilIdle drains the ready-set to quiescence on the calling
// goroutine, without installing a persistent Run loop. It is the
// synchronous single-step entry point suited to tests and to hosted
// tools that pump the kernel manually rather than dedicating a goroutine
// to it.
func (k *Kernel) RunUntilIdle() {
	k.loopGoroutine.Store(goroutineID())
	k.schedule()
}

// Run drives the kernel's scheduler loop on the calling goroutine until
// ctx is cancelled or Shutdown completes, per spec §4.5/§6: dispatch to
// quiescence, invoke the idle hook, then block for the next wakeup.
// Run must not be called reentrantly from within the kernel's own
// goroutine, and only one goroutine may run it at a time.
func (k *Kernel) Run(ctx context.Context) error {
	if k.isKernelThread() {
		return ErrReentrantRun
	}
	if !k.state.TryTransition(StateAwake, StateRunning) {
		switch k.state.Load() {
		case StateTerminated, StateTerminating:
			return ErrKernelTerminated
		default:
			return ErrKernelAlreadyRunning
		}
	}
	k.loopGoroutine.Store(goroutineID())
	defer close(k.kernelDone)

	for {
		k.schedule()

		if k.state.Load() == StateTerminating {
			k.state.Store(StateTerminated)
			return nil
		}

		k.state.TryTransition(StateRunning, StateIdle)
		if k.onIdle != nil {
			k.onIdle()
		}

		select {
		case <-ctx.Done():
			k.state.Store(StateTerminated)
			return ctx.Err()
		case <-k.wakeCh:
		}

		if k.state.Load() == StateTerminating {
			k.state.Store(StateTerminated)
			return nil
		}
		k.state.TryTransition(StateIdle, StateRunning)
	}
}

// Shutdown requests an orderly stop, per spec §4.5: the kernel finishes
// its current run-to-completion step, then transitions to Terminated
// without dispatching further. Shutdown blocks until Run has returned or
// ctx is cancelled. Calling Shutdown before Run is ever called terminates
// the kernel immediately.
func (k *Kernel) Shutdown(ctx context.Context) error {
	var alreadyDone bool
	k.stopOnce.Do(func() {
		for {
			cur := k.state.Load()
			if cur == StateTerminated {
				alreadyDone = true
				return
			}
			if cur == StateAwake {
				if k.state.TryTransition(StateAwake, StateTerminated) {
					alreadyDone = true
					return
				}
				continue
			}
			if k.state.TransitionAny([]KernelState{StateRunning, StateIdle}, StateTerminating) {
				k.wake()
				return
			}
		}
	})
	if alreadyDone {
		return nil
	}
	select {
	case <-k.kernelDone:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// State returns the kernel's current run state.
func (k *Kernel) State() KernelState { return k.state.Load() }

// RaiseCeiling raises the scheduler's effective priority ceiling to at
// least newCeiling and returns the previous value, per spec §4.10's
// priority-ceiling protocol; RestoreCeiling must be called with the
// returned value to unwind it.
func (k *Kernel) RaiseCeiling(newCeiling int) int {
	k.mu.Lock()
	saved := k.ceiling
	if newCeiling > k.ceiling {
		k.ceiling = newCeiling
	}
	k.mu.Unlock()
	return saved
}

// RestoreCeiling restores a ceiling previously returned by RaiseCeiling
// and re-evaluates the ready-set, since priorities the ceiling had been
// blocking may now be schedulable.
func (k *Kernel) RestoreCeiling(saved int) {
	k.mu.Lock()
	k.ceiling = saved
	k.mu.Unlock()
	if k.isKernelThread() {
		k.schedule()
	} else {
		k.wake()
	}
}
