package qdma

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/en751221/qdma/core/emission"
	"github.com/en751221/qdma/core/logging"
	"github.com/en751221/qdma/hw/dmamem"
	"github.com/en751221/qdma/hw/mmio"
	"github.com/en751221/qdma/qdma/csr"
	"github.com/en751221/qdma/qdma/desc"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Engine is a QDMA descriptor-ring engine instance.
//
// Locking: mu serializes TX submission, port open/close, and bring-up/teardown.
// irqMu serializes Dispatch and RX ring access.
// When both are needed, mu is acquired first.
type Engine struct {
	cfg      Config
	regs     mmio.Registers
	mem      dmamem.Allocator
	receiver Receiver
	logger   *zap.Logger
	emitter  *emission.Emitter
	cnt      counters

	mu      sync.Mutex
	ports   [MaxPorts]*Port
	refs    int
	running atomic.Bool

	irqMu sync.Mutex
	rings ringStore
	hwfwd hwfwdPool
	irqq  irqQueue
	rxbuf rxBuffers
}

// New creates an Engine.
// regs is the QDMA register block; mem provides DMA memory; receiver accepts received frames and may be nil.
// Hardware is not touched until the first port is opened.
func New(cfg Config, regs mmio.Registers, mem dmamem.Allocator, receiver Receiver) (*Engine, error) {
	cfg.ApplyDefaults()
	if e := cfg.Validate(); e != nil {
		return nil, e
	}
	if receiver == nil {
		receiver = discardReceiver{}
	}
	e := &Engine{
		cfg:      cfg,
		regs:     regs,
		mem:      mem,
		receiver: receiver,
		logger:   logger,
		emitter:  emission.NewEmitter(),
	}
	return e, nil
}

// Config returns the effective configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Running reports whether the rings are up.
func (e *Engine) Running() bool {
	return e.running.Load()
}

// Counters returns a snapshot of engine counters.
func (e *Engine) Counters() Counters {
	return e.cnt.read()
}

// AddPort registers a logical port.
// id must be in [0, MaxPorts) and not already registered.
func (e *Engine) AddPort(id int) (*Port, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if id < 0 || id >= MaxPorts {
		return nil, fmt.Errorf("%w: port %d out of range [0,%d)", ErrInvalidConfig, id, MaxPorts)
	}
	if e.ports[id] != nil {
		return nil, fmt.Errorf("%w: port %d already exists", ErrInvalidConfig, id)
	}
	p := &Port{e: e, id: id, opts: DefaultTxOptions()}
	e.ports[id] = p
	return p, nil
}

// Port returns a registered port, or nil.
func (e *Engine) Port(id int) *Port {
	e.mu.Lock()
	defer e.mu.Unlock()
	if id < 0 || id >= MaxPorts {
		return nil
	}
	return e.ports[id]
}

// acquire brings the rings up on the first reference.
// Caller holds mu.
func (e *Engine) acquire() error {
	if e.refs == 0 {
		if err := e.bringUp(); err != nil {
			return err
		}
	}
	e.refs++
	return nil
}

// release tears the rings down on the last reference.
// Caller holds mu.
func (e *Engine) release() error {
	if e.refs--; e.refs > 0 {
		return nil
	}
	return e.tearDown()
}

// bringUp programs the engine.
// On failure, all DMA memory is released and GLB_CFG is left disabled.
func (e *Engine) bringUp() (err error) {
	e.irqMu.Lock()
	defer e.irqMu.Unlock()

	regs, cfg := e.regs, e.cfg
	regs.Write32(csr.GlbCfg, 0)

	defer func() {
		if err != nil {
			e.freeMemory()
			e.logger.Error("bring-up failed", zap.Error(err))
		}
	}()

	if err = e.rings.alloc(e.mem, cfg); err != nil {
		return err
	}
	regs.Write32(csr.TxDscpBase, uint32(e.rings.tx.base))
	regs.Write32(csr.RxDscpBase, uint32(e.rings.rx.base))
	regs.Write32(csr.RxRingCfg, uint32(e.rings.rx.Len()))
	regs.Write32(csr.RxRingThr, 0)

	if err = e.irqq.init(regs, e.mem, cfg); err != nil {
		return err
	}
	if err = e.hwfwd.init(regs, e.mem, cfg); err != nil {
		return err
	}

	e.rings.linkTx()
	regs.Write32(csr.TxCpuIdx, 0)
	regs.Write32(csr.TxDmaIdx, 0)

	if err = e.rxbuf.init(e.mem, cfg); err != nil {
		return err
	}
	for i := range e.rings.rx.Len() {
		if err = e.postRx(i); err != nil {
			return err
		}
	}
	regs.Write32(csr.RxCpuIdx, 0)
	regs.Write32(csr.RxDmaIdx, 0)
	regs.Write32(csr.RxCpuIdx, uint32(e.rings.rx.Len()))

	regs.Write32(csr.TxDelayIntCfg, 0)
	regs.Write32(csr.RxDelayIntCfg, 0)
	regs.Write32(csr.GlbCfg, cfg.glbCfg())
	regs.Write32(csr.IntMask, cfg.IntMask)

	e.running.Store(true)
	e.logger.Info("rings up",
		zap.Int("tx", e.rings.tx.Len()),
		zap.Int("rx", e.rings.rx.Len()),
		logging.Hex32("tx-base", uint32(e.rings.tx.base)),
		logging.Hex32("rx-base", uint32(e.rings.rx.base)),
		logging.Hex32("glb-cfg", cfg.glbCfg()),
		zap.Bool("rx-inline-alloc", cfg.RxInlineAlloc),
	)
	if cfg.RxInlineAlloc {
		e.logger.Warn("RX replacement buffers are allocated inside Dispatch")
	}
	evtStateChange.Emit(e.emitter, true)
	return nil
}

// postRx binds a fresh buffer to RX slot i and resets its descriptor.
func (e *Engine) postRx(i int) error {
	b, err := e.rxbuf.allocMapped(e.mem, e.cfg.RxBufferSize)
	if err != nil {
		return err
	}
	e.rings.rx.bind(i, b.blk)
	e.rings.rx.Update(i, func(d *desc.Desc) {
		e.rxDefaults(d)
		d.SetPktAddr(uint32(b.phys))
	})
	return nil
}

// tearDown stops DMA and releases all memory.
// Memory is released even if the busy bits do not clear.
func (e *Engine) tearDown() (err error) {
	e.irqMu.Lock()
	defer e.irqMu.Unlock()

	e.running.Store(false)
	regs := e.regs
	regs.Write32(csr.IntMask, 0)
	mmio.Clear(regs, csr.GlbCfg, csr.GlbTxWbDone|csr.GlbRxDmaEn|csr.GlbTxDmaEn)
	if _, perr := mmio.Poll(regs, "GLB_CFG", csr.GlbCfg, csr.GlbTxDmaBusy|csr.GlbRxDmaBusy, 0, e.cfg.StopPoll); perr != nil {
		err = multierr.Append(err, fmt.Errorf("stop DMA: %w", perr))
	}

	e.freeMemory()
	if err != nil {
		e.logger.Warn("rings down with errors", zap.Error(err))
	} else {
		e.logger.Info("rings down")
	}
	evtStateChange.Emit(e.emitter, false)
	return err
}

func (e *Engine) freeMemory() {
	e.rings.free(e.mem)
	e.rxbuf.free(e.mem)
	e.irqq.free(e.mem)
	e.hwfwd.free(e.mem)
}

// Close closes every open port.
func (e *Engine) Close() (err error) {
	e.mu.Lock()
	ports := e.ports
	e.mu.Unlock()
	for _, p := range ports {
		if p != nil {
			err = multierr.Append(err, p.Close())
		}
	}
	return err
}
