package qactive

import "testing"

func evt(sig Signal) QueuedEvent {
	e := NewStaticEvent(sig)
	return QueuedEvent{Evt: &e}
}

// Test_Queue_S2MarginBehaviour exercises spec scenario S2: capacity-3
// queue (a ring of 2 plus the front slot), post e1,e2,e3 FIFO then e4
// with margin=0 is fatal.
func Test_Queue_S2MarginBehaviour(t *testing.T) {
	q := NewQueue(2, nil)
	for i, sig := range []Signal{SignalUser, SignalUser + 1, SignalUser + 2} {
		if ok, err := q.Post(evt(sig), NoMargin); !ok || err != nil {
			t.Fatalf("post %d: got (%v, %v)", i, ok, err)
		}
	}

	func() {
		defer func() {
			if recover() == nil {
				t.Fatalf("expected fatal assert on margin=0 overflow")
			}
		}()
		q.Post(evt(SignalUser+3), NoMargin)
	}()
}

func Test_Queue_MarginOneReturnsFalse(t *testing.T) {
	q := NewQueue(3, nil)
	for _, sig := range []Signal{SignalUser, SignalUser + 1, SignalUser + 2} {
		if ok, err := q.Post(evt(sig), NoMargin); !ok || err != nil {
			t.Fatalf("unexpected post failure: %v %v", ok, err)
		}
	}
	nFreeBefore := q.NFree()
	ok, err := q.Post(evt(SignalUser+3), 1)
	if ok {
		t.Fatalf("expected Post to fail under margin=1")
	}
	if err == nil {
		t.Fatalf("expected a QueueFullError")
	}
	if q.NFree() != nFreeBefore {
		t.Fatalf("failed post must not touch the queue: NFree changed from %d to %d", nFreeBefore, q.NFree())
	}
}

func Test_Queue_FIFOOrder(t *testing.T) {
	q := NewQueue(4, nil)
	sigs := []Signal{10, 11, 12, 13}
	for _, s := range sigs {
		if ok, err := q.Post(evt(s), NoMargin); !ok || err != nil {
			t.Fatalf("post %d: %v %v", s, ok, err)
		}
	}
	for _, want := range sigs {
		got, ok := q.Get()
		if !ok {
			t.Fatalf("expected an event, queue reported empty")
		}
		if got.Evt.Sig != want {
			t.Fatalf("FIFO order violated: got sig %d, want %d", got.Evt.Sig, want)
		}
	}
	if !q.IsEmpty() {
		t.Fatalf("queue should be empty after draining all posts")
	}
}

func Test_Queue_PostLIFOPrecedesRingButNotInFlight(t *testing.T) {
	q := NewQueue(4, nil)
	q.Post(evt(1), NoMargin)
	q.Post(evt(2), NoMargin)

	first, _ := q.Get() // simulate in-flight dispatch of sig 1
	if first.Evt.Sig != 1 {
		t.Fatalf("expected to dispatch sig 1 first, got %d", first.Evt.Sig)
	}

	q.PostLIFO(evt(99)) // urgent self-post while sig 1 is in flight

	next, _ := q.Get()
	if next.Evt.Sig != 99 {
		t.Fatalf("LIFO post should be dispatched next, got sig %d", next.Evt.Sig)
	}
	last, _ := q.Get()
	if last.Evt.Sig != 2 {
		t.Fatalf("originally queued sig 2 should follow the LIFO post, got %d", last.Evt.Sig)
	}
}

func Test_Queue_OnReadyFiresOnlyOnEmptyToNonEmptyTransition(t *testing.T) {
	fired := 0
	q := NewQueue(4, func() { fired++ })

	q.Post(evt(1), NoMargin)
	if fired != 1 {
		t.Fatalf("expected onReady to fire once on first post, fired=%d", fired)
	}
	q.Post(evt(2), NoMargin)
	if fired != 1 {
		t.Fatalf("onReady must not fire again while queue stays non-empty, fired=%d", fired)
	}

	q.Get()
	q.Get()
	if !q.IsEmpty() {
		t.Fatalf("queue should be drained")
	}

	q.Post(evt(3), NoMargin)
	if fired != 2 {
		t.Fatalf("expected onReady to fire again on empty->non-empty transition, fired=%d", fired)
	}
}
