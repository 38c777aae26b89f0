package qdma

import (
	"fmt"
	"io"
	"strings"

	"github.com/en751221/qdma/qdma/csr"
	"github.com/en751221/qdma/qdma/desc"
)

// RegisterValue is a named register reading.
type RegisterValue struct {
	Name   string `json:"name"`
	Offset uint32 `json:"offset"`
	Value  uint32 `json:"value"`
}

var snapshotRegisters = []struct {
	name string
	off  uint32
}{
	{"GLB_CFG", csr.GlbCfg},
	{"TX_DSCP_BASE", csr.TxDscpBase},
	{"RX_DSCP_BASE", csr.RxDscpBase},
	{"TX_CPU_IDX", csr.TxCpuIdx},
	{"TX_DMA_IDX", csr.TxDmaIdx},
	{"RX_CPU_IDX", csr.RxCpuIdx},
	{"RX_DMA_IDX", csr.RxDmaIdx},
	{"HWFWD_DSCP_BASE", csr.HwfwdDscpBase},
	{"HWFWD_BUFF_BASE", csr.HwfwdBuffBase},
	{"LMGR_INIT_CFG", csr.LmgrInitCfg},
	{"INT_STATUS", csr.IntStatus},
	{"INT_MASK", csr.IntMask},
	{"IRQ_BASE", csr.IrqBase},
	{"IRQ_CFG", csr.IrqCfg},
	{"IRQ_STATUS", csr.IrqStatus},
	{"RX_RING_CFG", csr.RxRingCfg},
}

// Snapshot is a read-only view of engine state for diagnostics.
type Snapshot struct {
	Running   bool            `json:"running"`
	Registers []RegisterValue `json:"registers"`
	Tx        []desc.Desc     `json:"-"`
	Rx        []desc.Desc     `json:"-"`
	TxBound   int             `json:"txBound"`
	RxBound   int             `json:"rxBound"`
	RxSpares  int             `json:"rxSpares"`
	IrqQueue  []uint32        `json:"irqQueue"`
	Counters  Counters        `json:"counters"`
}

// Register returns a register value by name.
func (s Snapshot) Register(name string) (v uint32, ok bool) {
	for _, r := range s.Registers {
		if r.Name == name {
			return r.Value, true
		}
	}
	return 0, false
}

// TxLines returns formatted TX descriptors.
func (s Snapshot) TxLines() []string {
	return formatDescs(s.Tx, desc.KindTx)
}

// RxLines returns formatted RX descriptors.
func (s Snapshot) RxLines() []string {
	return formatDescs(s.Rx, desc.KindRx)
}

func formatDescs(list []desc.Desc, kind desc.Kind) (lines []string) {
	for i := range list {
		lines = append(lines, list[i].Format(kind))
	}
	return lines
}

// WriteTo writes a text dump of both rings.
func (s Snapshot) WriteTo(w io.Writer) (int64, error) {
	var b strings.Builder
	section := func(kind desc.Kind, cpu, dma string, lines []string) {
		c, _ := s.Register(cpu)
		h, _ := s.Register(dma)
		fmt.Fprintf(&b, "QDMA %s Descriptors driver_idx=%d hardware_idx=%d\n", kind, c, h)
		for i, line := range lines {
			fmt.Fprintf(&b, "  %d %s\n", i, line)
		}
	}
	section(desc.KindRx, "RX_CPU_IDX", "RX_DMA_IDX", s.RxLines())
	section(desc.KindTx, "TX_CPU_IDX", "TX_DMA_IDX", s.TxLines())
	n, e := io.WriteString(w, b.String())
	return int64(n), e
}

// Snapshot captures engine state.
// It does not modify ring or descriptor state.
func (e *Engine) Snapshot() (s Snapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.irqMu.Lock()
	defer e.irqMu.Unlock()
	s.Running = e.running.Load()
	for _, r := range snapshotRegisters {
		s.Registers = append(s.Registers, RegisterValue{Name: r.name, Offset: r.off, Value: e.regs.Read32(r.off)})
	}
	if e.rings.blk != nil {
		s.Tx, s.TxBound = e.rings.tx.snapshot(), e.rings.tx.Occupancy()
		s.Rx, s.RxBound = e.rings.rx.snapshot(), e.rings.rx.Occupancy()
	}
	s.RxSpares = e.rxbuf.count()
	s.IrqQueue = e.irqq.snapshot()
	s.Counters = e.cnt.read()
	return s
}
