package qactive

// AO is an active object: the composite of a priority, an event queue, an
// HSM, and a subscription set, per spec §3/§4.6. Priority uniquely
// identifies an AO within its Kernel's registry for the AO's lifetime.
type AO struct {
	priority int
	hsm      *HSM
	queue    *Queue
	kernel   *Kernel
	started  bool
}

// NewAO constructs an AO around hsm. The AO is not yet schedulable — call
// Start to bind it to a Kernel, priority, and queue.
func NewAO(hsm *HSM) *AO {
	return &AO{hsm: hsm}
}

// Priority returns the AO's registered priority, or 0 if not started.
func (ao *AO) Priority() int { return ao.priority }

// HSM returns the AO's state machine.
func (ao *AO) HSM() *HSM { return ao.hsm }

// Start binds ao to kernel at priority, allocating its queue with capacity
// queueLen, registers it in the scheduler, and runs its HSM's Init step
// with initEvent, per spec §4.6. After Start returns, the AO is eligible
// to receive events.
func (ao *AO) Start(kernel *Kernel, priority int, queueLen int, initEvent *Event) error {
	if priority < 1 || priority > kernel.maxPriority {
		return ErrPriorityRange
	}
	if kernel.registry[priority] != nil {
		return ErrPriorityTaken
	}

	ao.priority = priority
	ao.kernel = kernel
	ao.queue = NewQueue(queueLen, func() { kernel.onReady(priority) })
	kernel.registry[priority] = ao
	ao.started = true

	ao.hsm.Init(initEvent)
	return nil
}

// Stop removes ao from the scheduler per spec §4.6, handing every event
// still in its queue to the event manager for release and clearing its
// subscriptions.
func (ao *AO) Stop() {
	if !ao.started {
		return
	}
	for _, qe := range ao.queue.Drain() {
		ao.kernel.gc(qe)
	}
	ao.kernel.pubsub.UnsubscribeAll(ao.priority)
	ao.kernel.registry[ao.priority] = nil
	ao.kernel.readySet.Remove(ao.priority)
	ao.started = false
}

// Post enqueues e FIFO to ao's queue, applying margin per spec §4.3/§4.7: a
// dynamic event's reference count is incremented on a successful post
// (spec §4.7's "increment the counter before releasing the event reference
// to the receiver"). sender context governs whether schedule() may run
// inline (spec §4.5): thread-context posts that raise a strictly higher
// priority than the currently running AO trigger an immediate schedule().
func (ao *AO) Post(e *Event, block []byte, margin int) (bool, error) {
	if !ao.started {
		panic(&AssertError{Module: "ao", Message: "post to a stopped AO"})
	}
	ao.kernel.mgr.NewRef(e)
	ok, err := ao.queue.Post(QueuedEvent{Evt: e, Block: block}, margin)
	if !ok {
		ao.kernel.mgr.Gc(e, block) // undo the speculative ref on rejection
		ao.kernel.hook.OnExhausted(err)
		return false, err
	}
	ao.kernel.hook.OnPost(ao.priority, int(e.Sig), false)
	return true, nil
}

// PostLIFO places e at the front of ao's queue, per spec §4.3, for urgent
// self-posts (defer/recall chief among them).
func (ao *AO) PostLIFO(e *Event, block []byte) {
	ao.kernel.mgr.NewRef(e)
	ao.queue.PostLIFO(QueuedEvent{Evt: e, Block: block})
	ao.kernel.hook.OnPost(ao.priority, int(e.Sig), true)
}

// Subscribe adds ao to sig's subscriber set on kernel's PubSub router.
func (ao *AO) Subscribe(sig Signal) { ao.kernel.pubsub.Subscribe(sig, ao.priority) }

// Unsubscribe removes ao from sig's subscriber set.
func (ao *AO) Unsubscribe(sig Signal) { ao.kernel.pubsub.Unsubscribe(sig, ao.priority) }

// UnsubscribeAll clears ao from every signal's subscriber set.
func (ao *AO) UnsubscribeAll() { ao.kernel.pubsub.UnsubscribeAll(ao.priority) }
