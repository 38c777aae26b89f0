package qdma

import (
	"github.com/en751221/qdma/hw/dmamem"
	"github.com/en751221/qdma/qdma/csr"
	"github.com/en751221/qdma/qdma/desc"
	"go.uber.org/zap"
)

// rxCompletedSlot returns the slot most recently completed by hardware.
// The hardware index points one slot past its last completion.
func rxCompletedSlot(hwIdx uint32, n int) int {
	return (int(hwIdx%uint32(n)) + n - 1) % n
}

// replacement obtains a mapped buffer to rebind into a completed RX slot.
// Caller holds irqMu.
func (e *Engine) replacement() (b rxBuf, ok bool) {
	if b, ok = e.rxbuf.take(); ok {
		return b, true
	}
	if !e.cfg.RxInlineAlloc {
		e.cnt.rxSpareMisses.Add(1)
		return rxBuf{}, false
	}
	b, err := e.rxbuf.allocMapped(e.mem, e.cfg.RxBufferSize)
	if err != nil {
		e.logger.Debug("RX inline allocation failed", zap.Error(err))
		return rxBuf{}, false
	}
	return b, true
}

// receive completes one RX slot and delivers its frame.
// The done flag is not required: some completions arrive without the write-back.
// Caller holds irqMu.
func (e *Engine) receive() (slot int, delivered bool) {
	r := &e.rings.rx
	slot = rxCompletedSlot(e.regs.Read32(csr.RxDmaIdx), r.Len())
	d := r.Load(slot)
	if !d.Done() {
		e.cnt.rxNotDone.Add(1)
	}

	repl, ok := e.replacement()
	if !ok {
		r.Update(slot, func(d *desc.Desc) {
			e.rxDefaults(d)
			d.SetDropped(true)
		})
		e.regs.Write32(csr.RxCpuIdx, uint32(slot))
		e.cnt.rxDropped.Add(1)
		e.cnt.rxAllocErrors.Add(1)
		evtRxDrop.Emit(e.emitter, slot)
		return slot, false
	}

	old := r.unbind(slot)
	e.mem.Unmap(old, dmamem.FromDevice)
	r.bind(slot, repl.blk)
	r.Update(slot, func(d *desc.Desc) {
		e.rxDefaults(d)
		d.SetPktAddr(uint32(repl.phys))
	})
	e.regs.Write32(csr.RxCpuIdx, uint32(slot))

	f := &RxFrame{
		Data: old.Bytes[:min(int(d.PktLen()), len(old.Bytes))],
		Slot: slot,
		Desc: d,
		mem:  e.mem,
		blk:  old,
	}
	e.cnt.rxFrames.Add(1)
	e.cnt.rxOctets.Add(uint64(len(f.Data)))
	e.receiver.DeliverFrame(f)
	return slot, true
}
