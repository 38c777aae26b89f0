package qdmasim

import (
	"bytes"

	"github.com/en751221/qdma/hw/dmamem"
	"github.com/en751221/qdma/qdma/csr"
	"github.com/en751221/qdma/qdma/desc"
	"go.uber.org/zap"
)

func (d *Device) kickTx(_, v uint32) uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.txHold {
		d.processTx(int(v))
	}
	return v
}

// processTx transmits slots from the hardware index up to cpu, following next-index links.
// Caller holds mu.
func (d *Device) processTx(cpu int) {
	if !d.dmaEnabled(csr.GlbTxDmaEn) {
		return
	}
	var completed uint32
	for guard := 0; d.txDma != cpu && guard <= int(desc.NextIdx.Max()); guard++ {
		b, e := d.slot(csr.TxDscpBase, d.txDma)
		if e != nil {
			d.logger.Warn("TX descriptor unreachable", zap.Int("slot", d.txDma), zap.Error(e))
			return
		}
		dd := d.txCodec().Load(b)
		if dd.Done() {
			break
		}

		frame, e := d.Mem.Resolve(dmamem.PhysAddr(dd.PktAddr()), int(dd.PktLen()))
		if e != nil {
			d.logger.Warn("TX buffer unreachable", zap.Int("slot", d.txDma), zap.Error(e))
			dd.SetDropped(true)
		} else {
			d.sent = append(d.sent, TxRecord{Slot: d.txDma, Frame: bytes.Clone(frame), Desc: dd})
		}
		dd.SetDone(true)
		d.txCodec().Store(b, &dd)
		completed |= csr.IntTx0Done
		completed |= d.complete(uint32(d.txDma))
		d.txDma = int(dd.NextIdx())
	}
	if completed != 0 {
		d.raise(completed)
	}
}

// complete appends an entry to the completion queue and returns IntIrqFull if the queue became full.
// Caller holds mu.
func (d *Device) complete(entry uint32) uint32 {
	depth := int(d.Regs.Peek(csr.IrqCfg) & csr.IrqHeadMask)
	if depth == 0 || d.irqLen >= depth {
		return csr.IntIrqFull
	}
	if b, e := d.Mem.Resolve(dmamem.PhysAddr(d.Regs.Peek(csr.IrqBase)+uint32(4*((d.irqHead+d.irqLen)%depth))), 4); e == nil {
		d.order.PutUint32(b, entry)
	}
	if d.irqLen++; d.irqLen == depth {
		return csr.IntIrqFull
	}
	return 0
}

func (d *Device) clearLen(_, v uint32) uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := min(int(v&csr.IrqClearMask), d.irqLen)
	if depth := int(d.Regs.Peek(csr.IrqCfg) & csr.IrqHeadMask); depth > 0 {
		d.irqHead = (d.irqHead + n) % depth
	}
	d.irqLen -= n
	return v
}

// SetTxHold pauses or resumes TX processing.
// Resuming transmits every slot up to TX_CPU_IDX.
func (d *Device) SetTxHold(hold bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.txHold = hold
	if !hold {
		d.processTx(int(d.Regs.Peek(csr.TxCpuIdx)))
	}
}

// SetIrqQueue overrides the completion queue position.
func (d *Device) SetIrqQueue(head, n int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.irqHead, d.irqLen = head, n
}

// Sent returns transmitted frames and clears the record.
func (d *Device) Sent() (list []TxRecord) {
	d.mu.Lock()
	defer d.mu.Unlock()
	list, d.sent = d.sent, nil
	return list
}

func (d *Device) txCodec() desc.Codec {
	return desc.Codec{Kind: desc.KindTx, Order: d.order}
}
