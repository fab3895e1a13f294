// Package qactive implements the core of a real-time framework for
// event-driven embedded systems, built around the active-object (AO)
// computing model: a fixed set of concurrent AOs, each owning a private
// event queue and a hierarchical state machine (HSM), scheduled
// preemptively by fixed priority and connected by well-defined event
// routing, memory, and timing guarantees.
//
// # Architecture
//
// A [Kernel] owns the ready-set ([PrioSet]), the priority-indexed AO
// registry, and the pool [Manager]. Each [AO] binds a priority, an
// [HSM], and a [Queue]. Application logic lives entirely in HSM event
// handlers ([StateHandler]); the kernel provides run-to-completion
// dispatch, event memory, publish-subscribe routing, a time-event
// wheel, and a priority-ceiling mutex.
//
// # Concurrency model
//
// Exactly one goroutine — whichever calls [Kernel.Run] or
// [Kernel.RunUntilIdle] — plays "thread context": it owns dispatch and is
// the only caller permitted to progress an HSM inline. Any other
// goroutine (and any BSP tick source) is effectively "ISR context": it
// may call [AO.Post], [Kernel.Publish], and [Wheel.TickX], but those
// calls only flip a ready bit and wake the kernel goroutine rather than
// dispatching inline. This mirrors the hardware interrupt/thread split of
// the embedded target this core is modeled on, using goroutine identity
// and mutexes instead of a real preemptive scheduler and critical-section
// macros.
//
// # Usage
//
//	k := qactive.NewKernel(qactive.WithLogger(qactive.NewStderrLogger(qactive.LevelInfo)))
//	mgr := qactive.NewManager(qactive.NewPool(storage16, 16), qactive.NewPool(storage64, 64))
//	k.SetManager(mgr)
//
//	ao := qactive.NewAO(myHSM)
//	if err := ao.Start(k, 10, 16, nil); err != nil {
//	    log.Fatal(err)
//	}
//
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//	go k.Run(ctx)
//
// # Error taxonomy
//
// Per the design's three-tier error model: [AssertError] for fatal
// precondition violations (raised as a panic; no BSP assert hook is called),
// [NoMemoryError] / [QueueFullError] for margin-governed resource
// exhaustion (returned to the caller, never thrown across a handler
// boundary), and soft framing errors on the optional trace wire (see
// package trace).
package qactive
