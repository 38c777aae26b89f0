package qdmasim

import (
	"sync/atomic"

	"github.com/en751221/qdma/hw/dmamem"
)

// FaultyMem wraps an Allocator and fails a configured number of upcoming operations.
type FaultyMem struct {
	dmamem.Allocator
	failCoherent atomic.Int32
	failAlloc    atomic.Int32
	failMap      atomic.Int32
}

var _ dmamem.Allocator = (*FaultyMem)(nil)

// NewFaultyMem wraps an Allocator.
func NewFaultyMem(inner dmamem.Allocator) *FaultyMem {
	return &FaultyMem{Allocator: inner}
}

// FailCoherent causes the next n AllocCoherent calls to fail.
func (m *FaultyMem) FailCoherent(n int) {
	m.failCoherent.Store(int32(n))
}

// FailAlloc causes the next n Alloc calls to fail.
func (m *FaultyMem) FailAlloc(n int) {
	m.failAlloc.Store(int32(n))
}

// FailMap causes the next n Map calls to fail.
func (m *FaultyMem) FailMap(n int) {
	m.failMap.Store(int32(n))
}

func take(c *atomic.Int32) bool {
	for {
		n := c.Load()
		if n <= 0 {
			return false
		}
		if c.CompareAndSwap(n, n-1) {
			return true
		}
	}
}

// AllocCoherent implements dmamem.Allocator.
func (m *FaultyMem) AllocCoherent(size int) (*dmamem.Block, dmamem.PhysAddr, error) {
	if take(&m.failCoherent) {
		return nil, 0, dmamem.ErrNoMemory
	}
	return m.Allocator.AllocCoherent(size)
}

// Alloc implements dmamem.Allocator.
func (m *FaultyMem) Alloc(size int) (*dmamem.Block, error) {
	if take(&m.failAlloc) {
		return nil, dmamem.ErrNoMemory
	}
	return m.Allocator.Alloc(size)
}

// Map implements dmamem.Allocator.
func (m *FaultyMem) Map(b *dmamem.Block, dir dmamem.Direction) (dmamem.PhysAddr, error) {
	if take(&m.failMap) {
		return 0, dmamem.ErrNotMapped
	}
	return m.Allocator.Map(b, dir)
}
