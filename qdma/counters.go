package qdma

import (
	"fmt"
	"sync/atomic"
)

// Counters contains engine counters.
type Counters struct {
	TxFrames         uint64 `json:"txFrames"`         // frames published to hardware
	TxOctets         uint64 `json:"txOctets"`         // octets published, including padding
	TxDropped        uint64 `json:"txDropped"`        // submissions rejected
	TxAllocErrors    uint64 `json:"txAllocErrors"`    // submissions rejected due to DMA memory
	TxReclaimed      uint64 `json:"txReclaimed"`      // buffers released by lazy reclaim
	TxReclaimNotDone uint64 `json:"txReclaimNotDone"` // reclaimed buffers whose done flag was clear
	TxReclaimStale   uint64 `json:"txReclaimStale"`   // buffers still bound to the submission slot

	RxFrames      uint64 `json:"rxFrames"`      // frames delivered
	RxOctets      uint64 `json:"rxOctets"`      // octets delivered
	RxDropped     uint64 `json:"rxDropped"`     // completions not delivered
	RxAllocErrors uint64 `json:"rxAllocErrors"` // replacement buffer unavailable
	RxSpareMisses uint64 `json:"rxSpareMisses"` // spare pool empty during dispatch
	RxNotDone     uint64 `json:"rxNotDone"`     // completions whose done flag was clear

	Interrupts uint64 `json:"interrupts"` // Dispatch invocations while running
	Spurious   uint64 `json:"spurious"`   // Dispatch with no enabled status bit
	IrqDrains  uint64 `json:"irqDrains"`  // completion queue drains
	IrqEntries uint64 `json:"irqEntries"` // completion queue entries drained
	IrqFull    uint64 `json:"irqFull"`    // completion queue full conditions
	NoRxDesc   uint64 `json:"noRxDesc"`   // no free RX descriptor conditions
	NoTxDesc   uint64 `json:"noTxDesc"`   // no free TX descriptor conditions
	HwfwdLow   uint64 `json:"hwfwdLow"`   // forwarding pool low conditions
	HwfwdEmpty uint64 `json:"hwfwdEmpty"` // forwarding pool empty conditions
}

func (cnt Counters) String() string {
	return fmt.Sprintf("tx %dP %dB %dD %dE reclaim %d (%d not-done, %d stale), rx %dP %dB %dD %dE, irq %d (%d spurious, %d drains %d entries)",
		cnt.TxFrames, cnt.TxOctets, cnt.TxDropped, cnt.TxAllocErrors, cnt.TxReclaimed, cnt.TxReclaimNotDone, cnt.TxReclaimStale,
		cnt.RxFrames, cnt.RxOctets, cnt.RxDropped, cnt.RxAllocErrors,
		cnt.Interrupts, cnt.Spurious, cnt.IrqDrains, cnt.IrqEntries)
}

type counters struct {
	txFrames, txOctets, txDropped, txAllocErrors      atomic.Uint64
	txReclaimed, txReclaimNotDone, txReclaimStale     atomic.Uint64
	rxFrames, rxOctets, rxDropped, rxAllocErrors      atomic.Uint64
	rxSpareMisses, rxNotDone                          atomic.Uint64
	interrupts, spurious, irqDrains, irqEntries       atomic.Uint64
	irqFull, noRxDesc, noTxDesc, hwfwdLow, hwfwdEmpty atomic.Uint64
}

func (c *counters) read() Counters {
	return Counters{
		TxFrames:         c.txFrames.Load(),
		TxOctets:         c.txOctets.Load(),
		TxDropped:        c.txDropped.Load(),
		TxAllocErrors:    c.txAllocErrors.Load(),
		TxReclaimed:      c.txReclaimed.Load(),
		TxReclaimNotDone: c.txReclaimNotDone.Load(),
		TxReclaimStale:   c.txReclaimStale.Load(),
		RxFrames:         c.rxFrames.Load(),
		RxOctets:         c.rxOctets.Load(),
		RxDropped:        c.rxDropped.Load(),
		RxAllocErrors:    c.rxAllocErrors.Load(),
		RxSpareMisses:    c.rxSpareMisses.Load(),
		RxNotDone:        c.rxNotDone.Load(),
		Interrupts:       c.interrupts.Load(),
		Spurious:         c.spurious.Load(),
		IrqDrains:        c.irqDrains.Load(),
		IrqEntries:       c.irqEntries.Load(),
		IrqFull:          c.irqFull.Load(),
		NoRxDesc:         c.noRxDesc.Load(),
		NoTxDesc:         c.noTxDesc.Load(),
		HwfwdLow:         c.hwfwdLow.Load(),
		HwfwdEmpty:       c.hwfwdEmpty.Load(),
	}
}
