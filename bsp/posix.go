//go:build linux

package bsp

import (
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// PosixBSP is a hosted BSP reference implementation for development and
// tests off real hardware. Its idle-wait and clock-tick delivery are both
// built on the same self-pipe (eventfd) technique go-eventloop's wake
// pipe uses to break a poller out of a blocking wait — repurposed here
// from "wake the I/O poller" to "deliver a synthetic clock tick and
// idle-wake signal to a hosted AO kernel." OnClockTick is invoked once
// per period from a dedicated goroutine; OnIdle blocks on the same fd
// until the next tick or an explicit Wake.
type PosixBSP struct {
	NoOpBSP

	tickFn func()
	period time.Duration

	wakeFd      int
	wakeWriteFd int

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewPosixBSP constructs a PosixBSP that invokes tickFn once per period.
// tickFn is expected to call the bound Kernel's TickX (wrapped in
// Kernel.ISR().Enter()/Exit()); NewPosixBSP doesn't import qactive itself
// to avoid a dependency cycle between the core and its BSP demos.
func NewPosixBSP(period time.Duration, tickFn func()) (*PosixBSP, error) {
	fd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		return nil, err
	}
	return &PosixBSP{tickFn: tickFn, period: period, wakeFd: fd, wakeWriteFd: fd}, nil
}

// OnStartup launches the periodic ticker goroutine.
func (p *PosixBSP) OnStartup() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return nil
	}
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.running = true
	go p.run()
	return nil
}

func (p *PosixBSP) run() {
	defer close(p.doneCh)
	ticker := time.NewTicker(p.period)
	defer ticker.Stop()
	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.tickFn()
			p.wake()
		}
	}
}

// OnCleanup stops the ticker goroutine and closes the wake fd.
func (p *PosixBSP) OnCleanup() {
	p.mu.Lock()
	running := p.running
	p.running = false
	p.mu.Unlock()
	if running {
		close(p.stopCh)
		<-p.doneCh
	}
	_ = unix.Close(p.wakeFd)
}

// OnIdle blocks until the next tick (or an explicit Wake), draining the
// eventfd's counter so repeated idle calls don't spuriously return
// without a fresh signal.
func (p *PosixBSP) OnIdle() {
	var buf [8]byte
	for {
		_, err := unix.Read(p.wakeFd, buf[:])
		if err == nil || err != unix.EAGAIN {
			return
		}
		// Non-blocking fd with nothing pending: wait briefly then retry.
		// A production integration would instead register the fd with
		// epoll/kqueue; this reference demo keeps the dependency surface
		// to golang.org/x/sys/unix alone.
		time.Sleep(time.Millisecond)
	}
}

// Wake unblocks a pending OnIdle call without waiting for the next tick.
func (p *PosixBSP) Wake() {
	p.wake()
}

func (p *PosixBSP) wake() {
	var buf [8]byte
	buf[7] = 1
	_, _ = unix.Write(p.wakeWriteFd, buf[:])
}
