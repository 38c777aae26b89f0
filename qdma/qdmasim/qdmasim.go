// Package qdmasim models the QDMA block on a simulated register file and DMA heap.
//
// The model follows descriptor rings in DMA memory: it transmits TX slots when TX_CPU_IDX advances,
// fills RX slots on InjectRx, and appends TX completions to the completion queue.
// Device implements qdma.IrqSource.
package qdmasim

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/en751221/qdma/core/logging"
	"github.com/en751221/qdma/hw/dmamem"
	"github.com/en751221/qdma/hw/mmio"
	"github.com/en751221/qdma/qdma/csr"
	"github.com/en751221/qdma/qdma/desc"
	"go.uber.org/zap"
)

var logger = logging.New("qdmasim")

// Error conditions.
var (
	ErrNotEnabled = errors.New("DMA is not enabled")
	ErrNoRxDesc   = errors.New("no RX descriptor owned by hardware")
	ErrRxPending  = errors.New("previous RX completion not acknowledged")
	ErrTooLong    = errors.New("frame exceeds posted RX length")
)

// Config contains Device options.
type Config struct {
	// MemSize is the DMA heap size.
	MemSize int
	// MemBase is the bus address of the DMA heap.
	MemBase dmamem.PhysAddr
	// DescLittleEndian must match qdma.Config.DescLittleEndian.
	DescLittleEndian bool

	// LmgrStuck keeps the line manager start bit set.
	LmgrStuck bool
	// DmaBusyStuck keeps the DMA busy bits set after DMA is disabled.
	DmaBusyStuck bool
}

func (cfg *Config) applyDefaults() {
	if cfg.MemSize <= 0 {
		cfg.MemSize = 1 << 20
	}
	if cfg.MemBase == 0 {
		cfg.MemBase = 0x10000000
	}
}

// TxRecord is a frame transmitted by the model.
type TxRecord struct {
	Slot  int
	Frame []byte
	Desc  desc.Desc
}

// Device is a simulated QDMA block.
type Device struct {
	// Regs is the QDMA register block.
	Regs *mmio.Sim
	// Mem is the DMA heap.
	Mem *dmamem.Heap

	cfg    Config
	order  binary.ByteOrder
	logger *zap.Logger

	mu        sync.Mutex
	intStatus uint32
	txDma     int
	rxDma     int
	irqHead   int
	irqLen    int
	rxReady   []bool
	txHold    bool
	sent      []TxRecord
	irqCount  uint32
	enabled   bool
	irq       chan struct{}
}

// New creates a Device.
func New(cfg Config) *Device {
	cfg.applyDefaults()
	d := &Device{
		Regs:   mmio.NewSim(),
		Mem:    dmamem.NewSimHeap(cfg.MemSize, cfg.MemBase),
		cfg:    cfg,
		order:  binary.BigEndian,
		logger: logger,
		irq:    make(chan struct{}, 1),
	}
	if cfg.DescLittleEndian {
		d.order = binary.LittleEndian
	}

	r := d.Regs
	r.OnRead(csr.IntStatus, func(uint32, uint32) uint32 { return d.locked(func() uint32 { return d.intStatus }) })
	r.OnWrite(csr.IntStatus, func(_, v uint32) uint32 {
		return d.locked(func() uint32 {
			d.intStatus &^= v
			return d.intStatus
		})
	})
	r.OnRead(csr.IrqStatus, func(uint32, uint32) uint32 {
		return d.locked(func() uint32 { return uint32(d.irqHead) | uint32(d.irqLen)<<csr.IrqLenShift })
	})
	r.OnWrite(csr.IrqClearLen, d.clearLen)
	r.OnWrite(csr.IrqCfg, func(_, v uint32) uint32 {
		return d.locked(func() uint32 {
			d.irqHead, d.irqLen = 0, 0
			return v
		})
	})
	r.OnRead(csr.TxDmaIdx, func(uint32, uint32) uint32 { return d.locked(func() uint32 { return uint32(d.txDma) }) })
	r.OnWrite(csr.TxDmaIdx, func(_, v uint32) uint32 {
		return d.locked(func() uint32 {
			d.txDma = int(v)
			return v
		})
	})
	r.OnRead(csr.RxDmaIdx, func(uint32, uint32) uint32 { return d.locked(func() uint32 { return uint32(d.rxDma) }) })
	r.OnWrite(csr.RxDmaIdx, func(_, v uint32) uint32 {
		return d.locked(func() uint32 {
			d.rxDma = int(v)
			return v
		})
	})
	r.OnWrite(csr.RxCpuIdx, d.postRx)
	r.OnWrite(csr.TxCpuIdx, d.kickTx)
	r.OnWrite(csr.LmgrInitCfg, func(_, v uint32) uint32 {
		if !cfg.LmgrStuck {
			v &^= csr.LmgrStart
		}
		return v
	})
	r.OnWrite(csr.GlbCfg, func(_, v uint32) uint32 {
		if cfg.DmaBusyStuck {
			return v | csr.GlbTxDmaBusy | csr.GlbRxDmaBusy
		}
		return v &^ (csr.GlbTxDmaBusy | csr.GlbRxDmaBusy)
	})
	return d
}

func (d *Device) locked(f func() uint32) uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return f()
}

func (d *Device) rxLen() int {
	return int(d.Regs.Peek(csr.RxRingCfg))
}

// slot resolves a descriptor in DMA memory.
func (d *Device) slot(baseReg uint32, i int) ([]byte, error) {
	return d.Mem.Resolve(dmamem.PhysAddr(d.Regs.Peek(baseReg)+uint32(i*desc.Size)), desc.Size)
}

// raise sets status bits and signals an interrupt if any enabled bit is set.
// Caller holds mu.
func (d *Device) raise(bits uint32) {
	d.intStatus |= bits
	if d.enabled && d.intStatus&d.Regs.Peek(csr.IntMask) != 0 {
		d.enabled = false
		d.irqCount++
		select {
		case d.irq <- struct{}{}:
		default:
		}
	}
}

// Raise sets status bits, such as forwarding pool conditions.
func (d *Device) Raise(bits uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.raise(bits)
}

// IntStatus returns INT_STATUS.
func (d *Device) IntStatus() uint32 {
	return d.locked(func() uint32 { return d.intStatus })
}

// Enable implements qdma.IrqSource.
func (d *Device) Enable() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.enabled = true
	d.raise(0)
	return nil
}

// Wait implements qdma.IrqSource.
func (d *Device) Wait(ctx context.Context) (uint32, error) {
	select {
	case <-ctx.Done():
		return d.IrqCount(), ctx.Err()
	case <-d.irq:
		return d.IrqCount(), nil
	}
}

// IrqCount returns the number of interrupts signaled.
func (d *Device) IrqCount() uint32 {
	return d.locked(func() uint32 { return d.irqCount })
}

func (d *Device) dmaEnabled(bit uint32) bool {
	return d.Regs.Peek(csr.GlbCfg)&bit != 0
}

func (d *Device) String() string {
	return fmt.Sprintf("qdmasim(mem=%08x+%d)", uint32(d.cfg.MemBase), d.cfg.MemSize)
}
