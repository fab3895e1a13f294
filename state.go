package qactive

import (
	"sync/atomic"
)

// KernelState is the run state of a Kernel.
//
// State machine:
//
//	StateAwake (0) → StateRunning (3)        [Run()]
//	StateRunning (3) → StateIdle (2)         [no AO ready, BSP.OnIdle]
//	StateRunning (3) → StateTerminating (4)  [Shutdown()]
//	StateIdle (2) → StateRunning (3)         [Post/Publish/TickX wakes the kernel]
//	StateIdle (2) → StateTerminating (4)     [Shutdown()]
//	StateTerminating (4) → StateTerminated (1) [shutdown complete]
//	StateTerminated (1) → (terminal)
//
// Use TryTransition (CAS) for the reversible Running/Idle states; use Store
// only for the one-way slide into Terminating/Terminated.
type KernelState uint64

const (
	// StateAwake: the kernel has been constructed but Run has not been
	// called.
	StateAwake KernelState = 0
	// StateTerminated: Shutdown has completed; the kernel will not dispatch
	// again.
	StateTerminated KernelState = 1
	// StateIdle: the ready-set is empty and the kernel has called the BSP's
	// OnIdle hook; it resumes on the next Post/Publish/TickX.
	StateIdle KernelState = 2
	// StateRunning: the kernel is actively dispatching events.
	StateRunning KernelState = 3
	// StateTerminating: Shutdown has been requested but the current
	// run-to-completion step has not yet observed it.
	StateTerminating KernelState = 4
)

// String returns a human-readable representation of the state.
func (s KernelState) String() string {
	switch s {
	case StateAwake:
		return "Awake"
	case StateRunning:
		return "Running"
	case StateIdle:
		return "Idle"
	case StateTerminating:
		return "Terminating"
	case StateTerminated:
		return "Terminated"
	default:
		return "Unknown"
	}
}

// FastState is a lock-free state machine with cache-line padding, avoiding
// false sharing with neighboring fields on the Kernel struct.
type FastState struct { // betteralign:ignore
	_ [64]byte      // cache line padding (before value)
	v atomic.Uint64 // state value
	_ [56]byte      // pad to complete cache line (64 - 8 = 56)
}

// NewFastState creates a new state machine in the Awake state.
func NewFastState() *FastState {
	s := &FastState{}
	s.v.Store(uint64(StateAwake))
	return s
}

// Load returns the current state atomically.
func (s *FastState) Load() KernelState {
	return KernelState(s.v.Load())
}

// Store atomically stores a new state, bypassing transition validation. Only
// safe for the one-way Terminating/Terminated slide.
func (s *FastState) Store(state KernelState) {
	s.v.Store(uint64(state))
}

// TryTransition attempts to atomically move from one state to another,
// returning true on success.
func (s *FastState) TryTransition(from, to KernelState) bool {
	return s.v.CompareAndSwap(uint64(from), uint64(to))
}

// TransitionAny attempts to transition from any of validFrom to to, trying
// each candidate in order until one CAS succeeds.
func (s *FastState) TransitionAny(validFrom []KernelState, to KernelState) bool {
	for _, from := range validFrom {
		if s.v.CompareAndSwap(uint64(from), uint64(to)) {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the kernel has fully shut down.
func (s *FastState) IsTerminal() bool {
	return s.Load() == StateTerminated
}

// IsRunning reports whether the kernel is actively dispatching or idle
// (i.e. has an active Run loop, as opposed to not-yet-started or shut down).
func (s *FastState) IsRunning() bool {
	state := s.Load()
	return state == StateRunning || state == StateIdle
}

// CanAcceptWork reports whether Post/Publish/TickX may be called — true in
// every state except Terminating/Terminated.
func (s *FastState) CanAcceptWork() bool {
	state := s.Load()
	return state == StateAwake || state == StateRunning || state == StateIdle
}
