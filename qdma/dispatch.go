package qdma

import (
	"strings"

	"github.com/en751221/qdma/core/logging"
	"github.com/en751221/qdma/qdma/csr"
	"go.uber.org/zap"
)

// conditionBits are informational INT_STATUS bits that are counted and acknowledged without further service.
const conditionBits = csr.IntNoRx0CpuDscp | csr.IntNoTx0CpuDscp | csr.IntIrqFull | csr.IntHwfwdDscpLow | csr.IntHwfwdDscpEmpty

// DispatchResult describes one Dispatch invocation.
type DispatchResult struct {
	Status uint32 // INT_STATUS before service
	Mask   uint32 // INT_MASK
	Acked  uint32 // bits written back to INT_STATUS

	RxSlot      int  // completed RX slot, or -1 if RX0_DONE was not serviced
	RxDelivered bool // whether a frame was delivered from RxSlot

	Drained int      // completion queue entries drained
	Entries []uint32 // non-empty completion queue entries

	// Pending indicates an enabled status bit remained set after acknowledgement.
	Pending bool
}

// StatusString formats INT_STATUS bit names.
func StatusString(v uint32) string {
	var names []string
	for bit := uint32(1); bit != 0; bit <<= 1 {
		if v&bit == 0 {
			continue
		}
		if name, ok := csr.IntNames[bit]; ok {
			names = append(names, name)
		} else {
			names = append(names, logging.Hex(bit).String())
		}
	}
	return strings.Join(names, "|")
}

// Dispatch services one interrupt.
// RX completion has priority; otherwise a TX completion or a full completion queue drains the completion queue.
// Dispatch never allocates memory unless Config.RxInlineAlloc is set.
// If the engine is not running, Dispatch does nothing.
func (e *Engine) Dispatch() (res DispatchResult) {
	res.RxSlot = -1
	e.irqMu.Lock()
	defer e.irqMu.Unlock()
	if !e.running.Load() {
		return
	}
	e.cnt.interrupts.Add(1)

	regs := e.regs
	res.Mask = regs.Read32(csr.IntMask)
	res.Status = regs.Read32(csr.IntStatus)
	if res.Status&res.Mask == 0 {
		e.cnt.spurious.Add(1)
	}

	var serviced uint32
	switch {
	case res.Status&csr.IntRx0Done != 0:
		res.RxSlot, res.RxDelivered = e.receive()
		serviced |= csr.IntRx0Done
	case res.Status&(csr.IntTx0Done|csr.IntIrqFull) != 0:
		res.Drained, res.Entries = e.irqq.drain(regs)
		e.cnt.irqDrains.Add(1)
		e.cnt.irqEntries.Add(uint64(res.Drained))
		serviced |= res.Status & (csr.IntTx0Done | csr.IntIrqFull)
	}
	e.countConditions(res.Status)

	res.Acked = (serviced | res.Status&conditionBits) & res.Mask
	if res.Acked != 0 {
		regs.Write32(csr.IntStatus, res.Acked)
	}
	res.Pending = regs.Read32(csr.IntStatus)&res.Mask != 0

	if ce := e.logger.Check(zap.DebugLevel, "dispatch"); ce != nil {
		ce.Write(
			zap.String("status", StatusString(res.Status)),
			logging.Hex32("mask", res.Mask),
			logging.Hex32("acked", res.Acked),
			zap.Int("rx-slot", res.RxSlot),
			zap.Int("drained", res.Drained),
			zap.Bool("pending", res.Pending),
		)
	}
	return res
}

func (e *Engine) countConditions(status uint32) {
	if status&csr.IntIrqFull != 0 {
		e.cnt.irqFull.Add(1)
	}
	if status&csr.IntNoRx0CpuDscp != 0 {
		e.cnt.noRxDesc.Add(1)
	}
	if status&csr.IntNoTx0CpuDscp != 0 {
		e.cnt.noTxDesc.Add(1)
	}
	if status&csr.IntHwfwdDscpLow != 0 {
		e.cnt.hwfwdLow.Add(1)
	}
	if status&csr.IntHwfwdDscpEmpty != 0 {
		e.cnt.hwfwdEmpty.Add(1)
	}
}
