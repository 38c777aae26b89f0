package qdma

import (
	"encoding/binary"
	"fmt"

	"github.com/en751221/qdma/hw/dmamem"
	"github.com/en751221/qdma/qdma/desc"
)

// ring is one descriptor ring and its buffer binding table.
// Slot i of the binding table holds the buffer referenced by descriptor i.
type ring struct {
	kind  desc.Kind
	mem   []byte
	base  dmamem.PhysAddr
	codec desc.Codec
	bufs  []*dmamem.Block
}

func newRing(kind desc.Kind, mem []byte, base dmamem.PhysAddr, order binary.ByteOrder) ring {
	return ring{
		kind:  kind,
		mem:   mem,
		base:  base,
		codec: desc.Codec{Kind: kind, Order: order},
		bufs:  make([]*dmamem.Block, len(mem)/desc.Size),
	}
}

func (r *ring) Len() int {
	return len(r.bufs)
}

func (r *ring) slot(i int) []byte {
	if i < 0 || i >= len(r.bufs) {
		panic(fmt.Errorf("%s ring index %d out of range [0,%d)", r.kind, i, len(r.bufs)))
	}
	return r.mem[i*desc.Size : (i+1)*desc.Size]
}

func (r *ring) Load(i int) desc.Desc {
	return r.codec.Load(r.slot(i))
}

func (r *ring) Store(i int, d *desc.Desc) {
	r.codec.Store(r.slot(i), d)
}

func (r *ring) Update(i int, f func(d *desc.Desc)) desc.Desc {
	d := r.Load(i)
	f(&d)
	r.Store(i, &d)
	return d
}

func (r *ring) Bound(i int) *dmamem.Block {
	r.slot(i)
	return r.bufs[i]
}

func (r *ring) bind(i int, b *dmamem.Block) {
	r.slot(i)
	if r.bufs[i] != nil {
		panic(fmt.Errorf("%s ring slot %d is already bound", r.kind, i))
	}
	r.bufs[i] = b
}

func (r *ring) unbind(i int) (b *dmamem.Block) {
	r.slot(i)
	b, r.bufs[i] = r.bufs[i], nil
	return b
}

// Occupancy returns the number of bound slots.
func (r *ring) Occupancy() (n int) {
	for _, b := range r.bufs {
		if b != nil {
			n++
		}
	}
	return n
}

func (r *ring) snapshot() []desc.Desc {
	list := make([]desc.Desc, r.Len())
	for i := range list {
		list[i] = r.Load(i)
	}
	return list
}

func (r *ring) direction() dmamem.Direction {
	if r.kind == desc.KindRx {
		return dmamem.FromDevice
	}
	return dmamem.ToDevice
}

// release unmaps and frees every bound buffer.
func (r *ring) release(mem dmamem.Allocator) {
	for i := range r.bufs {
		if b := r.unbind(i); b != nil {
			mem.Unmap(b, r.direction())
			mem.Free(b)
		}
	}
}

// ringStore owns the contiguous descriptor region shared by the TX and RX rings.
type ringStore struct {
	blk *dmamem.Block
	tx  ring
	rx  ring
}

func (rs *ringStore) alloc(mem dmamem.Allocator, cfg Config) error {
	nTx, nRx := cfg.TxRingLen, cfg.RxRingLen
	blk, phys, e := mem.AllocCoherent((nTx + nRx) * desc.Size)
	if e != nil {
		return fmt.Errorf("%w: descriptor ring %v", ErrBufferAlloc, e)
	}
	clear(blk.Bytes)
	rs.blk = blk
	order := cfg.byteOrder()
	rs.tx = newRing(desc.KindTx, blk.Bytes[:nTx*desc.Size], phys, order)
	rs.rx = newRing(desc.KindRx, blk.Bytes[nTx*desc.Size:], phys+dmamem.PhysAddr(nTx*desc.Size), order)
	return nil
}

// linkTx links TX slot i to slot (i+1) mod N.
func (rs *ringStore) linkTx() {
	n := rs.tx.Len()
	for i := range n {
		rs.tx.Update(i, func(d *desc.Desc) { d.SetNextIdx(uint16((i + 1) % n)) })
	}
}

func (rs *ringStore) free(mem dmamem.Allocator) {
	if rs.blk == nil {
		return
	}
	rs.tx.release(mem)
	rs.rx.release(mem)
	mem.FreeCoherent(rs.blk)
	*rs = ringStore{}
}
