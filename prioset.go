package qactive

import "math/bits"

// PrioSet is a bit-indexed ready-set over priorities 1..MaxPriority (64).
// Insert, Remove, and FindMax are all O(1): a single compare-and-no-branch
// bit operation plus a leading-zero count, never a scan.
//
// The 64 priority slots are split into two uint32 halves — priorities
// 33..64 in hi, 1..32 in lo — rather than a single uint64, mirroring the
// two-level index spec.md's history notes describe for targets without a
// native 64-bit bit-scan instruction. bits.LeadingZeros32 gives the same
// O(1) find-max either half needs.
type PrioSet struct {
	hi uint32 // priorities 33..64, bit (p-33) from the LSB
	lo uint32 // priorities 1..32, bit (p-1) from the LSB
}

// Insert marks priority p ready. p must be in [1, MaxPriority].
func (s *PrioSet) Insert(p int) {
	if p < 1 || p > MaxPriority {
		panic(&AssertError{Module: "prioset", Location: p, Message: "priority out of range"})
	}
	if p > 32 {
		s.hi |= 1 << uint(p-33)
	} else {
		s.lo |= 1 << uint(p-1)
	}
}

// Remove clears priority p's ready bit. Removing an already-clear bit is a
// no-op.
func (s *PrioSet) Remove(p int) {
	if p < 1 || p > MaxPriority {
		panic(&AssertError{Module: "prioset", Location: p, Message: "priority out of range"})
	}
	if p > 32 {
		s.hi &^= 1 << uint(p-33)
	} else {
		s.lo &^= 1 << uint(p-1)
	}
}

// IsSet reports whether priority p is currently ready.
func (s *PrioSet) IsSet(p int) bool {
	if p < 1 || p > MaxPriority {
		return false
	}
	if p > 32 {
		return s.hi&(1<<uint(p-33)) != 0
	}
	return s.lo&(1<<uint(p-1)) != 0
}

// IsEmpty reports whether no priority is ready.
func (s *PrioSet) IsEmpty() bool {
	return s.hi == 0 && s.lo == 0
}

// FindMax returns the highest ready priority and true, or (0, false) if the
// set is empty.
func (s *PrioSet) FindMax() (int, bool) {
	if s.hi != 0 {
		return 64 - bits.LeadingZeros32(s.hi), true
	}
	if s.lo != 0 {
		return 32 - bits.LeadingZeros32(s.lo), true
	}
	return 0, false
}
