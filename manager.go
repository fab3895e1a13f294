package qactive

import "sort"

// Manager is the event manager of spec §4.7: it owns an ordered set of
// Pools and implements New/Gc/NewRef/DeleteRef — pool selection,
// construction, and reference-counted release.
type Manager struct {
	pools []*Pool
}

// NewManager builds a Manager over pools, sorted ascending by block size so
// New can select the smallest pool whose block size fits a request.
func NewManager(pools ...*Pool) *Manager {
	sorted := make([]*Pool, len(pools))
	copy(sorted, pools)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].BlockSize() < sorted[j].BlockSize() })
	return &Manager{pools: sorted}
}

// Pools returns the manager's pools, ascending by block size.
func (m *Manager) Pools() []*Pool { return m.pools }

// New allocates a dynamic event of at least size bytes, selecting the
// smallest pool whose block size accommodates it, applying margin, and
// stamping the returned event's header with the chosen pool's 1-based
// index and the given signal. Reference count starts at zero per spec
// §4.7 — it is incremented by whichever Post/Publish call first hands the
// event to a receiver. If the chosen pool is exhausted, New panics with
// *AssertError when margin is NoMargin and otherwise returns a
// *NoMemoryError carrying that pool's 1-based index.
func (m *Manager) New(size int, margin int, sig Signal) (*Event, []byte, error) {
	for i, pool := range m.pools {
		if pool.BlockSize() < size {
			continue
		}
		block, err := pool.Get(margin)
		if err != nil {
			if nm, ok := err.(*NoMemoryError); ok {
				nm.PoolIndex = i + 1
			}
			if margin == NoMargin {
				panic(&AssertError{Module: "manager", Message: err.Error()})
			}
			return nil, nil, err
		}
		return &Event{Sig: sig, PoolID: i + 1, RefCtr: 0}, block, nil
	}
	panic(&AssertError{Module: "manager", Message: "no pool large enough for requested event size"})
}

// Gc releases e per spec §4.7: a no-op for pool-static events; otherwise
// decrements RefCtr and, on reaching zero, returns block to its
// originating pool.
func (m *Manager) Gc(e *Event, block []byte) {
	if !e.IsDynamic() {
		return
	}
	e.RefCtr--
	if e.RefCtr < 0 {
		panic(&AssertError{Module: "manager", Message: "reference count underflow"})
	}
	if e.RefCtr == 0 {
		m.poolFor(e).Put(block)
	}
}

// NewRef takes a reference beyond the normal receive lifetime (spec §4.7),
// used by defer/recall and by anything that must outlive the current
// dispatch step. DeleteRef is the matching release; the caller owns
// pairing them.
func (m *Manager) NewRef(e *Event) {
	if !e.IsDynamic() {
		return
	}
	e.RefCtr++
}

// DeleteRef releases a reference taken by NewRef.
func (m *Manager) DeleteRef(e *Event, block []byte) {
	m.Gc(e, block)
}

func (m *Manager) poolFor(e *Event) *Pool {
	if e.PoolID < 1 || e.PoolID > len(m.pools) {
		panic(&AssertError{Module: "manager", Message: "event references an unknown pool"})
	}
	return m.pools[e.PoolID-1]
}
