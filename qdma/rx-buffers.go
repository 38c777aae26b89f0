package qdma

import (
	"fmt"
	"sync"

	"github.com/en751221/qdma/hw/dmamem"
	"github.com/en751221/qdma/qdma/desc"
)

// rxBuf is an RX buffer mapped for device writes.
type rxBuf struct {
	blk  *dmamem.Block
	phys dmamem.PhysAddr
}

// rxBuffers is the pool of pre-mapped replacement RX buffers.
// Dispatch takes from the pool without allocating; RefillRxSpares tops it up from a non-interrupt context.
type rxBuffers struct {
	mu     sync.Mutex
	size   int
	target int
	spares []rxBuf
}

func (rb *rxBuffers) init(mem dmamem.Allocator, cfg Config) error {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	rb.size = cfg.RxBufferSize
	rb.target = cfg.RxSpares
	if cfg.RxInlineAlloc {
		rb.target = 0
	}
	_, e := rb.refillLocked(mem)
	return e
}

// allocMapped allocates an RX buffer and maps it FromDevice.
func (rb *rxBuffers) allocMapped(mem dmamem.Allocator, size int) (b rxBuf, e error) {
	if b.blk, e = mem.Alloc(size); e != nil {
		return rxBuf{}, fmt.Errorf("%w: RX buffer %v", ErrBufferAlloc, e)
	}
	if b.phys, e = mem.Map(b.blk, dmamem.FromDevice); e != nil {
		mem.Free(b.blk)
		return rxBuf{}, fmt.Errorf("%w: RX buffer map %v", ErrBufferAlloc, e)
	}
	return b, nil
}

// take removes one spare, or returns false if the pool is empty.
func (rb *rxBuffers) take() (b rxBuf, ok bool) {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	n := len(rb.spares)
	if n == 0 {
		return rxBuf{}, false
	}
	b, rb.spares = rb.spares[n-1], rb.spares[:n-1]
	return b, true
}

func (rb *rxBuffers) refillLocked(mem dmamem.Allocator) (n int, e error) {
	for len(rb.spares) < rb.target {
		b, e := rb.allocMapped(mem, rb.size)
		if e != nil {
			return n, e
		}
		rb.spares = append(rb.spares, b)
		n++
	}
	return n, nil
}

func (rb *rxBuffers) refill(mem dmamem.Allocator) (int, error) {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.refillLocked(mem)
}

func (rb *rxBuffers) count() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return len(rb.spares)
}

func (rb *rxBuffers) free(mem dmamem.Allocator) {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	for _, b := range rb.spares {
		mem.Unmap(b.blk, dmamem.FromDevice)
		mem.Free(b.blk)
	}
	rb.spares = nil
	rb.target = 0
}

// RefillRxSpares tops up the replacement RX buffer pool.
// It must not be called from a context that cannot allocate; Run calls it after each interrupt batch.
// It returns the number of buffers added.
func (e *Engine) RefillRxSpares() (int, error) {
	if !e.running.Load() {
		return 0, ErrClosed
	}
	return e.rxbuf.refill(e.mem)
}

// rxDefaults resets the hardware-visible fields of a posted RX descriptor.
func (e *Engine) rxDefaults(d *desc.Desc) {
	d.ClearPayload()
	d.SetDone(false)
	d.SetDropped(false)
	d.SetPktLen(uint16(e.cfg.RxExpectedLen))
}
