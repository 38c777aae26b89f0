package mmio

import (
	"sync"
)

// SimHook intercepts a register access on a simulated register file.
// For writes, v is the written value and the return value is stored.
// For reads, v is the stored value and the return value is returned to the reader.
type SimHook func(off, v uint32) uint32

// Sim is a simulated register file.
// All accesses are serialized, which gives Write32 the ordering required by Registers.
type Sim struct {
	mu      sync.Mutex
	regs    map[uint32]uint32
	writes  map[uint32][]uint32
	onWrite map[uint32]SimHook
	onRead  map[uint32]SimHook
}

var _ Registers = (*Sim)(nil)

// NewSim creates a simulated register file where every register reads as zero.
func NewSim() *Sim {
	return &Sim{
		regs:    map[uint32]uint32{},
		writes:  map[uint32][]uint32{},
		onWrite: map[uint32]SimHook{},
		onRead:  map[uint32]SimHook{},
	}
}

// Read32 implements Registers.
func (s *Sim) Read32(off uint32) uint32 {
	s.mu.Lock()
	v, h := s.regs[off], s.onRead[off]
	s.mu.Unlock()
	if h != nil {
		v = h(off, v)
	}
	return v
}

// Write32 implements Registers.
// Write hooks run outside the lock, so a hook may access other registers.
func (s *Sim) Write32(off uint32, v uint32) {
	s.mu.Lock()
	s.writes[off] = append(s.writes[off], v)
	h := s.onWrite[off]
	s.mu.Unlock()

	if h != nil {
		v = h(off, v)
	}

	s.mu.Lock()
	s.regs[off] = v
	s.mu.Unlock()
}

// Peek returns a stored register value without invoking hooks.
func (s *Sim) Peek(off uint32) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.regs[off]
}

// Poke stores a register value without invoking hooks or recording history.
func (s *Sim) Poke(off, v uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.regs[off] = v
}

// OnWrite installs a write hook on a register.
// Passing nil removes the hook.
func (s *Sim) OnWrite(off uint32, h SimHook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h == nil {
		delete(s.onWrite, off)
	} else {
		s.onWrite[off] = h
	}
}

// OnRead installs a read hook on a register.
// Passing nil removes the hook.
func (s *Sim) OnRead(off uint32, h SimHook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h == nil {
		delete(s.onRead, off)
	} else {
		s.onRead[off] = h
	}
}

// Writes returns the history of values written to a register.
func (s *Sim) Writes(off uint32) []uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]uint32(nil), s.writes[off]...)
}

// ResetHistory clears write history of all registers.
func (s *Sim) ResetHistory() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes = map[uint32][]uint32{}
}
