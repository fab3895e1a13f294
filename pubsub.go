package qactive

import "sync"

// PubSub is the publish-subscribe router of spec §4.9: each signal has an
// independent set of subscriber priorities, built on the same PrioSet bit
// index the scheduler's ready-set uses, so recording a subscriber and
// iterating them in highest-to-lowest fan-out order are both O(1)-ish
// bit operations rather than a scan over a subscriber slice.
type PubSub struct {
	mu   sync.Mutex
	subs map[Signal]*PrioSet
}

// NewPubSub constructs an empty router.
func NewPubSub() *PubSub {
	return &PubSub{subs: make(map[Signal]*PrioSet)}
}

// Subscribe adds priority to sig's subscriber set.
func (p *PubSub) Subscribe(sig Signal, priority int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.subs[sig]
	if !ok {
		s = &PrioSet{}
		p.subs[sig] = s
	}
	s.Insert(priority)
}

// Unsubscribe removes priority from sig's subscriber set.
func (p *PubSub) Unsubscribe(sig Signal, priority int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if s, ok := p.subs[sig]; ok {
		s.Remove(priority)
	}
}

// UnsubscribeAll removes priority from every signal's subscriber set, used
// by AO.Stop to tear down a terminating AO's subscriptions.
func (p *PubSub) UnsubscribeAll(priority int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, s := range p.subs {
		s.Remove(priority)
	}
}

// subscribers returns a snapshot of sig's subscriber priorities, highest
// first, per spec §4.9's fan-out order.
func (p *PubSub) subscribers(sig Signal) []int {
	p.mu.Lock()
	s, ok := p.subs[sig]
	var snapshot PrioSet
	if ok {
		snapshot = *s
	}
	p.mu.Unlock()
	if !ok {
		return nil
	}
	var out []int
	for {
		prio, more := snapshot.FindMax()
		if !more {
			break
		}
		out = append(out, prio)
		snapshot.Remove(prio)
	}
	return out
}

// Publish delivers e to every AO subscribed to e's signal, highest
// priority first, per spec §4.9. Each subscriber receives an independent
// reference (Manager.NewRef is called once per delivered subscriber, in
// addition to whatever ref the publisher already held for e itself); a
// subscriber whose queue rejects the post under margin is skipped without
// aborting the fan-out to the rest. Publish itself runs with interrupts
// (the kernel's critical section) held only long enough to snapshot the
// subscriber list — it never calls into a handler.
func (k *Kernel) Publish(e *Event, block []byte, margin int) {
	subs := k.pubsub.subscribers(e.Sig)
	k.hook.OnPublish(int(e.Sig), len(subs))
	for _, prio := range subs {
		k.mu.Lock()
		ao := k.registry[prio]
		k.mu.Unlock()
		if ao == nil || !ao.started {
			continue
		}
		ao.Post(e, block, margin)
	}
}
