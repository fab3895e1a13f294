package qactive

import (
	"fmt"
	"unsafe"
)

const noFree = -1

// Pool is a fixed-block-size allocator, the building block behind dynamic
// event storage (spec §4.2). Blocks are identified by index rather than by
// raw pointer — a deliberate departure from the source's "free list woven
// through block storage" pointer-chasing technique, grounded instead on
// the indirect-index pooling pattern used throughout
// hayabusa-cloud-iobuf (Get/Put by index, Value(index) for zero-copy
// access) — idiomatic in Go, where weaving a linked list through a raw
// []byte would require unsafe pointer arithmetic for no benefit.
type Pool struct {
	blockSize int
	nTot      int
	nFree     int
	minFree   int
	freeHead  int32
	next      []int32
	storage   []byte
}

// NewPool partitions storage into blocks of blockSize bytes (rounding
// storage length down to a whole number of blocks) and threads every block
// onto the free list, tail-to-head, so the first Get returns block 0.
func NewPool(storage []byte, blockSize int) *Pool {
	if blockSize <= 0 {
		panic(&AssertError{Module: "pool", Message: "block size must be positive"})
	}
	nTot := len(storage) / blockSize
	p := &Pool{
		blockSize: blockSize,
		nTot:      nTot,
		nFree:     nTot,
		minFree:   nTot,
		freeHead:  noFree,
		next:      make([]int32, nTot),
		storage:   storage,
	}
	for i := nTot - 1; i >= 0; i-- {
		p.next[i] = p.freeHead
		p.freeHead = int32(i)
	}
	return p
}

// BlockSize returns the pool's fixed block size in bytes.
func (p *Pool) BlockSize() int { return p.blockSize }

// NFree returns the number of blocks currently available.
func (p *Pool) NFree() int { return p.nFree }

// NTot returns the pool's total block capacity.
func (p *Pool) NTot() int { return p.nTot }

// MinFree returns the low-watermark of NFree ever observed, the minimum
// free-block count the event manager tracks per spec §4.2.
func (p *Pool) MinFree() int { return p.minFree }

// Get allocates a block, enforcing the margin policy from spec §4.7: if
// NFree > margin the block is returned; otherwise NoMemoryError is returned
// (margin == 0 meaning "any exhaustion is fatal" is the caller's
// responsibility to escalate, matching post()'s NO_MARGIN convention).
func (p *Pool) Get(margin int) ([]byte, error) {
	if p.nFree <= margin {
		return nil, &NoMemoryError{BlockSize: p.blockSize}
	}
	idx := p.freeHead
	if idx == noFree {
		return nil, &NoMemoryError{BlockSize: p.blockSize}
	}
	p.freeHead = p.next[idx]
	p.nFree--
	if p.nFree < p.minFree {
		p.minFree = p.nFree
	}
	start := int(idx) * p.blockSize
	return p.storage[start : start+p.blockSize : start+p.blockSize], nil
}

// Put returns a block, identified by its address within storage, to the
// free list. Asserts on an address outside the pool's range and on a
// double-free (nFree would exceed nTot).
func (p *Pool) Put(block []byte) {
	off := blockOffset(p.storage, block)
	if off < 0 || off%p.blockSize != 0 {
		panic(&AssertError{Module: "pool", Message: fmt.Sprintf("block not owned by this pool (size %d)", p.blockSize)})
	}
	idx := int32(off / p.blockSize)
	if p.nFree >= p.nTot {
		panic(&AssertError{Module: "pool", Message: "double free detected"})
	}
	p.next[idx] = p.freeHead
	p.freeHead = idx
	p.nFree++
}

// blockOffset returns block's byte offset within storage, or -1 if block
// does not point into storage (or storage is empty).
func blockOffset(storage, block []byte) int {
	if len(storage) == 0 || len(block) == 0 {
		return -1
	}
	storageAddr := uintptr(unsafe.Pointer(&storage[0]))
	blockAddr := uintptr(unsafe.Pointer(&block[0]))
	if blockAddr < storageAddr {
		return -1
	}
	off := int(blockAddr - storageAddr)
	if off >= len(storage) {
		return -1
	}
	return off
}
