package qdma

import (
	"encoding/binary"
	"fmt"

	"github.com/en751221/qdma/hw/dmamem"
	"github.com/en751221/qdma/hw/mmio"
	"github.com/en751221/qdma/qdma/csr"
)

// irqQueue is the TX completion queue.
// Hardware appends completed TX indices; software overwrites drained entries with IrqEntryEmpty.
type irqQueue struct {
	blk   *dmamem.Block
	depth int
	order binary.ByteOrder
}

func (q *irqQueue) init(regs mmio.Registers, mem dmamem.Allocator, cfg Config) (e error) {
	q.depth, q.order = cfg.IrqQueueDepth, cfg.byteOrder()
	var phys dmamem.PhysAddr
	if q.blk, phys, e = mem.AllocCoherent(q.depth * 4); e != nil {
		return fmt.Errorf("%w: completion queue %v", ErrBufferAlloc, e)
	}
	for i := range q.depth {
		q.put(i, csr.IrqEntryEmpty)
	}
	regs.Write32(csr.IrqBase, uint32(phys))
	regs.Write32(csr.IrqCfg, uint32(q.depth))
	return nil
}

func (q *irqQueue) get(i int) uint32 {
	return q.order.Uint32(q.blk.Bytes[i*4:])
}

func (q *irqQueue) put(i int, v uint32) {
	q.order.PutUint32(q.blk.Bytes[i*4:], v)
}

// drain consumes the entries reported by IRQ_STATUS.
// It returns the drained entry values, which are informational only: TX reclamation happens during submission.
func (q *irqQueue) drain(regs mmio.Registers) (n int, entries []uint32) {
	st := regs.Read32(csr.IrqStatus)
	head, n := int(csr.IrqHead(st)), int(csr.IrqLen(st))
	for i := range n {
		j := (head + i) % q.depth
		if v := q.get(j); v != csr.IrqEntryEmpty {
			entries = append(entries, v)
		}
		q.put(j, csr.IrqEntryEmpty)
	}
	regs.Write32(csr.IrqClearLen, uint32(n)&csr.IrqClearMask)
	return n, entries
}

func (q *irqQueue) snapshot() []uint32 {
	if q.blk == nil {
		return nil
	}
	list := make([]uint32, q.depth)
	for i := range list {
		list[i] = q.get(i)
	}
	return list
}

func (q *irqQueue) free(mem dmamem.Allocator) {
	if q.blk != nil {
		mem.FreeCoherent(q.blk)
	}
	*q = irqQueue{}
}
