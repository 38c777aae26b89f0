// Package dmamem provides memory that a DMA engine can address.
package dmamem

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// PhysAddr is a 32-bit bus address as seen by the device.
type PhysAddr uint32

// Direction is the DMA direction of a streaming mapping.
type Direction int

// Direction values.
const (
	ToDevice Direction = iota
	FromDevice
	Bidirectional
)

func (dir Direction) String() string {
	switch dir {
	case ToDevice:
		return "to-device"
	case FromDevice:
		return "from-device"
	}
	return "bidirectional"
}

// Error conditions.
var (
	ErrNoMemory    = errors.New("DMA memory exhausted")
	ErrNotMapped   = errors.New("block is not mapped")
	ErrBadAddress  = errors.New("address is outside DMA memory")
	ErrForeignFree = errors.New("block does not belong to this heap")
)

// Block is an allocation of DMA memory.
type Block struct {
	// Bytes is the usable memory.
	Bytes []byte

	heap     *Heap
	off      int
	coherent bool
}

// Allocator allocates and maps DMA memory.
type Allocator interface {
	// AllocCoherent allocates zeroed memory visible to both CPU and device.
	AllocCoherent(size int) (*Block, PhysAddr, error)
	// FreeCoherent releases memory from AllocCoherent.
	FreeCoherent(b *Block)

	// Alloc allocates a packet buffer.
	Alloc(size int) (*Block, error)
	// Free releases a packet buffer.
	Free(b *Block)

	// Map makes a packet buffer visible to the device.
	Map(b *Block, dir Direction) (PhysAddr, error)
	// Unmap revokes device visibility of a packet buffer.
	Unmap(b *Block, dir Direction)
}

// Stats counts outstanding allocations.
type Stats struct {
	Coherent int `json:"coherent"`
	Buffers  int `json:"buffers"`
	Mapped   int `json:"mapped"`
	FreeSize int `json:"freeSize"`
}

func (st Stats) String() string {
	return fmt.Sprintf("coherent=%d buffers=%d mapped=%d free=%dB", st.Coherent, st.Buffers, st.Mapped, st.FreeSize)
}

type span struct {
	off, size int
}

// Align is the alignment of every allocation.
const Align = 64

// Heap is a first-fit allocator over a contiguous memory area.
// An allocation never crosses a page boundary, so that its physical address range is contiguous.
type Heap struct {
	mu       sync.Mutex
	mem      []byte
	pageSize int
	phys     func(off int) PhysAddr
	free     []span
	live     map[int]*Block
	mapped   map[int]Direction
	closer   func() error
}

var _ Allocator = (*Heap)(nil)

func newHeap(mem []byte, pageSize int, phys func(off int) PhysAddr) *Heap {
	if pageSize <= 0 {
		pageSize = len(mem)
	}
	return &Heap{
		mem:      mem,
		pageSize: pageSize,
		phys:     phys,
		free:     []span{{0, len(mem)}},
		live:     map[int]*Block{},
		mapped:   map[int]Direction{},
	}
}

func (h *Heap) alloc(size int, coherent bool) (*Block, error) {
	if size <= 0 || size > h.pageSize {
		return nil, fmt.Errorf("%w: size %d", ErrNoMemory, size)
	}
	rounded := (size + Align - 1) &^ (Align - 1)

	h.mu.Lock()
	defer h.mu.Unlock()
	for i, sp := range h.free {
		off := sp.off
		if (off%h.pageSize)+rounded > h.pageSize {
			off = (off/h.pageSize + 1) * h.pageSize
		}
		if off+rounded > sp.off+sp.size {
			continue
		}
		h.carve(i, off, rounded)
		b := &Block{
			Bytes:    h.mem[off : off+size : off+size],
			heap:     h,
			off:      off,
			coherent: coherent,
		}
		clear(b.Bytes)
		h.live[off] = b
		return b, nil
	}
	return nil, fmt.Errorf("%w: size %d", ErrNoMemory, size)
}

// carve removes [off, off+size) from free span i.
func (h *Heap) carve(i, off, size int) {
	sp := h.free[i]
	var repl []span
	if off > sp.off {
		repl = append(repl, span{sp.off, off - sp.off})
	}
	if end, spEnd := off+size, sp.off+sp.size; end < spEnd {
		repl = append(repl, span{end, spEnd - end})
	}
	h.free = append(h.free[:i], append(repl, h.free[i+1:]...)...)
}

func (h *Heap) release(b *Block) {
	if b == nil {
		return
	}
	if b.heap != h {
		panic(ErrForeignFree)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.live[b.off] != b {
		panic(fmt.Errorf("dmamem: double free at offset %d", b.off))
	}
	delete(h.live, b.off)
	delete(h.mapped, b.off)

	size := (len(b.Bytes) + Align - 1) &^ (Align - 1)
	h.free = append(h.free, span{b.off, size})
	sort.Slice(h.free, func(i, j int) bool { return h.free[i].off < h.free[j].off })
	merged := h.free[:1]
	for _, sp := range h.free[1:] {
		last := &merged[len(merged)-1]
		if last.off+last.size == sp.off {
			last.size += sp.size
		} else {
			merged = append(merged, sp)
		}
	}
	h.free = merged
	b.heap = nil
}

// AllocCoherent implements Allocator.
func (h *Heap) AllocCoherent(size int) (*Block, PhysAddr, error) {
	b, e := h.alloc(size, true)
	if e != nil {
		return nil, 0, e
	}
	return b, h.phys(b.off), nil
}

// FreeCoherent implements Allocator.
func (h *Heap) FreeCoherent(b *Block) {
	h.release(b)
}

// Alloc implements Allocator.
func (h *Heap) Alloc(size int) (*Block, error) {
	return h.alloc(size, false)
}

// Free implements Allocator.
func (h *Heap) Free(b *Block) {
	h.release(b)
}

// Map implements Allocator.
// Heap memory is always device visible, so Map only records the mapping and returns the bus address.
func (h *Heap) Map(b *Block, dir Direction) (PhysAddr, error) {
	if b == nil || b.heap != h {
		return 0, ErrForeignFree
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.mapped[b.off] = dir
	return h.phys(b.off), nil
}

// Unmap implements Allocator.
func (h *Heap) Unmap(b *Block, dir Direction) {
	if b == nil || b.heap != h {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.mapped, b.off)
}

// Resolve returns the memory at a bus address.
// It is used by device models that need to follow descriptor pointers.
func (h *Heap) Resolve(addr PhysAddr, n int) ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for off := 0; off < len(h.mem); off += h.pageSize {
		base := h.phys(off)
		if addr < base || uint64(addr)+uint64(n) > uint64(base)+uint64(h.pageSize) {
			continue
		}
		start := off + int(addr-base)
		if start+n > len(h.mem) {
			break
		}
		return h.mem[start : start+n : start+n], nil
	}
	return nil, fmt.Errorf("%w: 0x%08x+%d", ErrBadAddress, addr, n)
}

// Stats returns outstanding allocation counts.
func (h *Heap) Stats() (st Stats) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, b := range h.live {
		if b.coherent {
			st.Coherent++
		} else {
			st.Buffers++
		}
	}
	st.Mapped = len(h.mapped)
	for _, sp := range h.free {
		st.FreeSize += sp.size
	}
	return
}

// Close releases the memory area.
// Outstanding blocks become invalid.
func (h *Heap) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.live = map[int]*Block{}
	h.mapped = map[int]Direction{}
	if h.closer != nil {
		e := h.closer()
		h.closer = nil
		return e
	}
	return nil
}

// NewSimHeap creates a heap in ordinary memory with bus addresses starting at base.
func NewSimHeap(size int, base PhysAddr) *Heap {
	return newHeap(make([]byte, size), 0, func(off int) PhysAddr { return base + PhysAddr(off) })
}
