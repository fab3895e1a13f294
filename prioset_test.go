package qactive

import "testing"

func Test_PrioSet_InsertFindMax(t *testing.T) {
	var s PrioSet
	if _, ok := s.FindMax(); ok {
		t.Fatalf("expected empty set to report ok=false")
	}

	s.Insert(5)
	s.Insert(40)
	s.Insert(1)
	s.Insert(64)

	if p, ok := s.FindMax(); !ok || p != 64 {
		t.Fatalf("FindMax: got (%d, %v), want (64, true)", p, ok)
	}

	s.Remove(64)
	if p, ok := s.FindMax(); !ok || p != 40 {
		t.Fatalf("FindMax after remove: got (%d, %v), want (40, true)", p, ok)
	}
}

func Test_PrioSet_IsSet(t *testing.T) {
	var s PrioSet
	tests := []int{1, 2, 31, 32, 33, 34, 63, 64}
	for _, p := range tests {
		if s.IsSet(p) {
			t.Fatalf("priority %d set before insert", p)
		}
		s.Insert(p)
		if !s.IsSet(p) {
			t.Fatalf("priority %d not set after insert", p)
		}
		s.Remove(p)
		if s.IsSet(p) {
			t.Fatalf("priority %d still set after remove", p)
		}
	}
}

func Test_PrioSet_IsEmpty(t *testing.T) {
	var s PrioSet
	if !s.IsEmpty() {
		t.Fatalf("new set should be empty")
	}
	s.Insert(1)
	if s.IsEmpty() {
		t.Fatalf("set with one member should not be empty")
	}
	s.Remove(1)
	if !s.IsEmpty() {
		t.Fatalf("set should be empty after removing its only member")
	}
}

func Test_PrioSet_OutOfRangePanics(t *testing.T) {
	tests := []int{0, -1, 65, 100}
	for _, p := range tests {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("priority %d: expected panic", p)
				}
			}()
			var s PrioSet
			s.Insert(p)
		}()
	}
}

func Test_PrioSet_FindMaxAcrossHalves(t *testing.T) {
	var s PrioSet
	s.Insert(32)
	s.Insert(33)
	if p, ok := s.FindMax(); !ok || p != 33 {
		t.Fatalf("FindMax: got (%d, %v), want (33, true)", p, ok)
	}
	s.Remove(33)
	if p, ok := s.FindMax(); !ok || p != 32 {
		t.Fatalf("FindMax: got (%d, %v), want (32, true)", p, ok)
	}
}
