package qactive

import "testing"

func Test_Manager_SelectsSmallestSufficientPool(t *testing.T) {
	small := NewPool(make([]byte, 4*16), 16)
	large := NewPool(make([]byte, 4*64), 64)
	mgr := NewManager(large, small) // deliberately out of order

	e, block, err := mgr.New(20, 0, SignalUser)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if e.PoolID != 2 {
		t.Fatalf("expected the 64-byte pool (index 2) to be chosen for a 20-byte request, got pool %d", e.PoolID)
	}
	if len(block) != 64 {
		t.Fatalf("expected a 64-byte block, got %d", len(block))
	}
	if small.NFree() != 4 {
		t.Fatalf("16-byte pool should be untouched, NFree=%d", small.NFree())
	}
}

func Test_Manager_GcReturnsBlockAtZeroRefs(t *testing.T) {
	pool := NewPool(make([]byte, 2*16), 16)
	mgr := NewManager(pool)

	e, block, err := mgr.New(8, 0, SignalUser)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	mgr.NewRef(e) // receiver 1
	mgr.NewRef(e) // receiver 2
	if pool.NFree() != 1 {
		t.Fatalf("expected one block in use, NFree=%d", pool.NFree())
	}

	mgr.Gc(e, block)
	if pool.NFree() != 1 {
		t.Fatalf("block should not return to pool while refs remain")
	}
	mgr.Gc(e, block)
	if pool.NFree() != 2 {
		t.Fatalf("block should return to pool once refs reach zero, NFree=%d", pool.NFree())
	}
}

func Test_Manager_GcIsNoOpForStaticEvents(t *testing.T) {
	pool := NewPool(make([]byte, 16), 16)
	mgr := NewManager(pool)
	e := NewStaticEvent(SignalUser)
	mgr.Gc(&e, nil) // must not panic despite nil block
	if pool.NFree() != 1 {
		t.Fatalf("static event gc must not touch any pool")
	}
}
