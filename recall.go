package qactive

// DeferQueue is the defer/recall escrow of spec §4.11: a plain Queue
// repurposed as a holding area an AO can stash an event in when it isn't
// ready to process it yet, and later pull back for priority redelivery.
type DeferQueue struct {
	store *Queue
	mgr   *Manager
}

// NewDeferQueue builds an escrow of capacity slots, releasing events
// through mgr when they're ultimately discarded (e.g. the owning AO
// stops with deferred events still outstanding).
func NewDeferQueue(capacity int, mgr *Manager) *DeferQueue {
	return &DeferQueue{store: NewQueue(capacity, nil), mgr: mgr}
}

// Defer posts e FIFO into the escrow with a new reference, per spec
// §4.11, so it survives independently of whatever reference the caller's
// own dispatch step is holding.
func (d *DeferQueue) Defer(e *Event, block []byte, margin int) (bool, error) {
	d.mgr.NewRef(e)
	ok, err := d.store.Post(QueuedEvent{Evt: e, Block: block}, margin)
	if !ok {
		d.mgr.Gc(e, block)
	}
	return ok, err
}

// Recall pops the oldest deferred event and LIFO-posts it to self, so it
// is the next event self's HSM dispatches — ahead of anything already
// queued but after whatever handler is currently in flight — per spec
// §4.11. The escrow's own reference is released once self's queue holds
// its own. Recall reports false if the escrow is empty.
func (d *DeferQueue) Recall(self *AO) bool {
	qe, ok := d.store.Get()
	if !ok {
		return false
	}
	self.PostLIFO(qe.Evt, qe.Block)
	d.mgr.DeleteRef(qe.Evt, qe.Block)
	return true
}

// Drain empties the escrow, releasing every event's reference — used when
// the owning AO stops for good.
func (d *DeferQueue) Drain() {
	for _, qe := range d.store.Drain() {
		d.mgr.Gc(qe.Evt, qe.Block)
	}
}
