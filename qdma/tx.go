package qdma

import (
	"fmt"

	"github.com/en751221/qdma/hw/dmamem"
	"github.com/en751221/qdma/qdma/csr"
	"github.com/en751221/qdma/qdma/desc"
	"go.uber.org/zap"
)

// txReclaimDepth is the number of slots after the submission slot reclaimed on each submission.
const txReclaimDepth = 2

// TxOptions contains per-frame TX descriptor settings.
type TxOptions struct {
	Fport   desc.Fport `json:"fport,omitempty"`
	Channel uint8      `json:"channel,omitempty"`
	Queue   uint8      `json:"queue,omitempty"`

	Ico bool `json:"ico,omitempty"` // IPv4 header checksum
	Uco bool `json:"uco,omitempty"` // UDP checksum
	Tco bool `json:"tco,omitempty"` // TCP checksum
	Sco bool `json:"sco,omitempty"` // SCTP checksum

	VlanEn   bool          `json:"vlanEn,omitempty"`
	VlanType desc.VlanType `json:"vlanType,omitempty"`
	VlanTag  uint16        `json:"vlanTag,omitempty"`

	SpTag   uint16 `json:"spTag,omitempty"`
	UdfPmap uint8  `json:"udfPmap,omitempty"`
	Oam     bool   `json:"oam,omitempty"`
}

// DefaultTxOptions returns options that send to the LAN forwarding port without offloads.
func DefaultTxOptions() TxOptions {
	return TxOptions{Fport: desc.FportLAN}
}

func (opts TxOptions) apply(d *desc.Desc) {
	tx := d.Tx()
	tx.SetFport(opts.Fport)
	tx.SetChannel(opts.Channel)
	tx.SetQueue(opts.Queue)
	tx.SetIco(opts.Ico)
	tx.SetUco(opts.Uco)
	tx.SetTco(opts.Tco)
	tx.SetSco(opts.Sco)
	tx.SetVlanEn(opts.VlanEn)
	tx.SetVlanType(opts.VlanType)
	tx.SetVlanTag(opts.VlanTag)
	tx.SetSpTag(opts.SpTag)
	tx.SetUdfPmap(opts.UdfPmap)
	tx.SetOam(opts.Oam)
}

// transmit submits one frame.
// Caller holds mu.
func (e *Engine) transmit(frame []byte, opts TxOptions) error {
	if !e.running.Load() {
		e.cnt.txDropped.Add(1)
		return ErrClosed
	}
	if len(frame) == 0 || len(frame) > int(desc.PktLen.Max()) {
		e.cnt.txDropped.Add(1)
		return fmt.Errorf("%w: frame length %d", ErrInvalidConfig, len(frame))
	}

	r := &e.rings.tx
	idx := int(e.regs.Read32(csr.TxCpuIdx)) % r.Len()
	if stale := r.unbind(idx); stale != nil {
		e.cnt.txReclaimStale.Add(1)
		e.mem.Unmap(stale, dmamem.ToDevice)
		e.mem.Free(stale)
	}

	blk, phys, err := e.txBuffer(frame)
	if err != nil {
		e.cnt.txAllocErrors.Add(1)
		e.cnt.txDropped.Add(1)
		e.logger.Debug("TX buffer unavailable", zap.Int("slot", idx), zap.Error(err))
		return err
	}

	d := r.Update(idx, func(d *desc.Desc) {
		d.SetPktAddr(uint32(phys))
		d.SetPktLen(uint16(len(blk.Bytes)))
		d.SetDone(false)
		d.ClearPayload()
		opts.apply(d)
	})
	r.bind(idx, blk)

	e.reclaimTx(idx, int(d.NextIdx())%r.Len())

	e.regs.Write32(csr.TxCpuIdx, uint32(d.NextIdx()))
	e.cnt.txFrames.Add(1)
	e.cnt.txOctets.Add(uint64(len(blk.Bytes)))
	return nil
}

// txBuffer copies a frame into a DMA buffer padded to the minimum frame length, and maps it ToDevice.
func (e *Engine) txBuffer(frame []byte) (blk *dmamem.Block, phys dmamem.PhysAddr, err error) {
	if blk, err = e.mem.Alloc(max(len(frame), desc.MinFrameLen)); err != nil {
		return nil, 0, fmt.Errorf("%w: TX buffer %v", ErrBufferAlloc, err)
	}
	n := copy(blk.Bytes, frame)
	clear(blk.Bytes[n:])
	if phys, err = e.mem.Map(blk, dmamem.ToDevice); err != nil {
		e.mem.Free(blk)
		return nil, 0, fmt.Errorf("%w: TX buffer map %v", ErrBufferAlloc, err)
	}
	return blk, phys, nil
}

// reclaimTx releases buffers bound to the slots following the submission slot in link order.
func (e *Engine) reclaimTx(self, next int) {
	r := &e.rings.tx
	for i := 0; i < txReclaimDepth && next != self; i++ {
		d := r.Load(next)
		if b := r.unbind(next); b != nil {
			if !d.Done() {
				e.cnt.txReclaimNotDone.Add(1)
			}
			e.mem.Unmap(b, dmamem.ToDevice)
			e.mem.Free(b)
			e.cnt.txReclaimed.Add(1)
			d.SetPktAddr(0)
		}
		d.SetDone(false)
		r.Store(next, &d)
		next = int(d.NextIdx()) % r.Len()
	}
}
