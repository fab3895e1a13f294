//go:build linux

package bsp

import (
	"testing"
	"time"
)

func Test_PosixBSP_TicksAndWakesIdle(t *testing.T) {
	ticks := 0
	p, err := NewPosixBSP(5*time.Millisecond, func() { ticks++ })
	if err != nil {
		t.Fatalf("NewPosixBSP: %v", err)
	}
	if err := p.OnStartup(); err != nil {
		t.Fatalf("OnStartup: %v", err)
	}
	defer p.OnCleanup()

	p.OnIdle() // blocks until the first tick wakes it

	if ticks == 0 {
		t.Fatalf("expected at least one tick before OnIdle returned")
	}
}

func Test_NoOpBSP_OnAssertPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected OnAssert to panic")
		}
	}()
	NoOpBSP{}.OnAssert("mod", 1)
}
