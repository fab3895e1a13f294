package qactive

import "sync"

// TimeEvent is one entry on a Wheel's per-rate list, per spec §4.8: a
// countdown counter, an optional reload interval for periodic events, and
// the (signal, target) pair posted on expiry.
type TimeEvent struct {
	sig    Signal
	target *AO
	margin int

	counter int32
	reload  int32

	armed         bool
	pendingDisarm bool
	next          *TimeEvent
}

// NewTimeEvent declares a time event that posts sig to target on expiry,
// using margin for the post (NoMargin is the common choice: a timeout
// that can't be delivered is a programming error worth a fatal assert).
func NewTimeEvent(sig Signal, target *AO, margin int) *TimeEvent {
	return &TimeEvent{sig: sig, target: target, margin: margin}
}

// Wheel holds one singly-linked armed list per tick rate, per spec §4.8.
// Unlinking a disarmed entry is deferred to the end of the current TickX
// walk rather than performed by Disarm directly, so Disarm is safe to call
// from any context — including from within a handler running as part of
// the very walk that would otherwise be mutating the list it's iterating.
type Wheel struct {
	mu    sync.Mutex
	heads map[int]*TimeEvent
}

// NewWheel constructs an empty wheel.
func NewWheel() *Wheel {
	return &Wheel{heads: make(map[int]*TimeEvent)}
}

// Arm schedules te on rate's list to expire after nTicks ticks, reloading
// to interval ticks if interval > 0 (a periodic event), per spec §4.8.
// nTicks must be positive; te must be disarmed or pending-disarm.
func (w *Wheel) Arm(te *TimeEvent, rate int, nTicks, interval int32) {
	if nTicks <= 0 {
		panic(&AssertError{Module: "timer", Message: "arm requires n_ticks > 0"})
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if te.armed && !te.pendingDisarm {
		panic(&AssertError{Module: "timer", Message: "arm called on an already-armed time event"})
	}
	te.counter = nTicks
	te.reload = interval
	te.pendingDisarm = false
	if !te.armed {
		head := w.heads[rate]
		te.next = head
		w.heads[rate] = te
		te.armed = true
	}
}

// Disarm cancels te. If te is currently linked into a wheel's list, the
// actual unlink is deferred to the next TickX walk on that rate to avoid
// mutating the list during iteration; Disarm is idempotent and safe from
// any context, including ISR context, per spec §5.
func (w *Wheel) Disarm(te *TimeEvent) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !te.armed {
		return
	}
	te.pendingDisarm = true
}

// Rearm refreshes an armed time event's countdown without re-linking it.
func (w *Wheel) Rearm(te *TimeEvent, nTicks int32) {
	if nTicks <= 0 {
		panic(&AssertError{Module: "timer", Message: "rearm requires n_ticks > 0"})
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if !te.armed || te.pendingDisarm {
		panic(&AssertError{Module: "timer", Message: "rearm called on a disarmed time event"})
	}
	te.counter = nTicks
}

// TickX advances rate by one tick, per spec §4.8: walk the list head to
// tail, decrementing each live entry's counter; an entry reaching zero
// posts (sig -> target) then either reloads (periodic) or is marked
// pending-disarm (one-shot). Nodes marked pending-disarm — whether from
// this walk's own one-shot expirations or from a Disarm call — are
// excised only after the walk completes, preserving list-head-first
// posting order for entries that expire on the same tick. TickX is meant
// to run from ISR context and must not be called reentrantly for the
// same rate.
func (w *Wheel) TickX(rate int) (expired int) {
	w.mu.Lock()
	head := w.heads[rate]
	w.mu.Unlock()

	for te := head; te != nil; te = te.next {
		if te.pendingDisarm {
			continue
		}
		te.counter--
		if te.counter > 0 {
			continue
		}
		expired++
		evt := NewStaticEvent(te.sig)
		te.target.Post(&evt, nil, te.margin)
		if te.reload > 0 {
			te.counter = te.reload
		} else {
			te.pendingDisarm = true
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.heads[rate] = excisePendingDisarm(w.heads[rate])
	return expired
}

func excisePendingDisarm(head *TimeEvent) *TimeEvent {
	for head != nil && head.pendingDisarm {
		head.armed = false
		head.pendingDisarm = false
		head = head.next
	}
	if head == nil {
		return nil
	}
	for cur := head; cur.next != nil; {
		if cur.next.pendingDisarm {
			dead := cur.next
			cur.next = dead.next
			dead.armed = false
			dead.pendingDisarm = false
			dead.next = nil
		} else {
			cur = cur.next
		}
	}
	return head
}
