package qdmasim

import (
	"fmt"

	"github.com/en751221/qdma/hw/dmamem"
	"github.com/en751221/qdma/qdma/csr"
	"github.com/en751221/qdma/qdma/desc"
)

// postRx tracks RX_CPU_IDX writes.
// A value of at least the ring length posts every slot; otherwise the written slot is posted.
func (d *Device) postRx(_, v uint32) uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := d.rxLen()
	if len(d.rxReady) != n {
		d.rxReady = make([]bool, n)
	}
	if int(v) >= n {
		for i := range d.rxReady {
			d.rxReady[i] = true
		}
	} else {
		d.rxReady[v] = true
	}
	return v
}

// InjectRx receives a frame into the RX slot at the hardware index.
// meta, if not nil, sets receive metadata in the descriptor.
// It returns the slot that was filled.
func (d *Device) InjectRx(frame []byte, meta func(rx desc.RxView)) (slot int, e error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.dmaEnabled(csr.GlbRxDmaEn) {
		return -1, ErrNotEnabled
	}
	if d.intStatus&csr.IntRx0Done != 0 {
		return -1, ErrRxPending
	}

	slot = d.rxDma
	if slot >= len(d.rxReady) || !d.rxReady[slot] {
		d.raise(csr.IntNoRx0CpuDscp)
		return -1, ErrNoRxDesc
	}

	b, e := d.slot(csr.RxDscpBase, slot)
	if e != nil {
		return -1, e
	}
	dd := d.rxCodec().Load(b)
	if len(frame) > int(dd.PktLen()) {
		return -1, fmt.Errorf("%w: %d > %d", ErrTooLong, len(frame), dd.PktLen())
	}
	buf, e := d.Mem.Resolve(dmamem.PhysAddr(dd.PktAddr()), len(frame))
	if e != nil {
		return -1, e
	}
	copy(buf, frame)

	dd.SetPktLen(uint16(len(frame)))
	dd.SetDone(true)
	if meta != nil {
		meta(dd.Rx())
	}
	d.rxCodec().Store(b, &dd)

	d.rxReady[slot] = false
	d.rxDma = (slot + 1) % len(d.rxReady)
	d.raise(csr.IntRx0Done)
	return slot, nil
}

func (d *Device) rxCodec() desc.Codec {
	return desc.Codec{Kind: desc.KindRx, Order: d.order}
}
