package qactive

import "testing"

func Test_FastState_NewFastState(t *testing.T) {
	s := NewFastState()
	if s.Load() != StateAwake {
		t.Errorf("expected initial state Awake, got %v", s.Load())
	}
}

func Test_FastState_Load_AllStates(t *testing.T) {
	tests := []struct {
		name  string
		state KernelState
	}{
		{"Awake", StateAwake},
		{"Terminated", StateTerminated},
		{"Idle", StateIdle},
		{"Running", StateRunning},
		{"Terminating", StateTerminating},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := NewFastState()
			s.Store(tc.state)
			if s.Load() != tc.state {
				t.Errorf("expected %v, got %v", tc.state, s.Load())
			}
		})
	}
}

func Test_FastState_TryTransition(t *testing.T) {
	s := NewFastState()
	if !s.TryTransition(StateAwake, StateRunning) {
		t.Fatalf("expected Awake -> Running to succeed")
	}
	if s.TryTransition(StateAwake, StateRunning) {
		t.Fatalf("expected a second Awake -> Running to fail (state already Running)")
	}
	if !s.TryTransition(StateRunning, StateIdle) {
		t.Fatalf("expected Running -> Idle to succeed")
	}
}

func Test_FastState_TransitionAny(t *testing.T) {
	s := NewFastState()
	s.Store(StateIdle)
	if !s.TransitionAny([]KernelState{StateRunning, StateIdle}, StateTerminating) {
		t.Fatalf("expected Idle -> Terminating via TransitionAny to succeed")
	}
	if s.Load() != StateTerminating {
		t.Fatalf("expected state Terminating, got %v", s.Load())
	}
}

func Test_FastState_IsTerminalIsRunningCanAcceptWork(t *testing.T) {
	s := NewFastState()

	s.Store(StateAwake)
	if s.IsTerminal() || s.IsRunning() || !s.CanAcceptWork() {
		t.Fatalf("Awake: unexpected predicate results")
	}

	s.Store(StateRunning)
	if s.IsTerminal() || !s.IsRunning() || !s.CanAcceptWork() {
		t.Fatalf("Running: unexpected predicate results")
	}

	s.Store(StateIdle)
	if s.IsTerminal() || !s.IsRunning() || !s.CanAcceptWork() {
		t.Fatalf("Idle: unexpected predicate results")
	}

	s.Store(StateTerminating)
	if s.IsTerminal() || s.IsRunning() || s.CanAcceptWork() {
		t.Fatalf("Terminating: unexpected predicate results")
	}

	s.Store(StateTerminated)
	if !s.IsTerminal() || s.IsRunning() || s.CanAcceptWork() {
		t.Fatalf("Terminated: unexpected predicate results")
	}
}
