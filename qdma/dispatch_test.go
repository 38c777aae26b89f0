package qdma_test

import (
	"encoding/binary"
	"testing"

	"github.com/en751221/qdma/core/testenv"
	"github.com/en751221/qdma/hw/dmamem"
	"github.com/en751221/qdma/qdma"
	"github.com/en751221/qdma/qdma/csr"
	"github.com/en751221/qdma/qdma/qdmasim"
)

func TestDispatchNotRunning(t *testing.T) {
	assert, _ := makeAR(t)
	fx := newFixture(t, qdma.Config{}, qdmasim.Config{})

	fx.Dev.Raise(csr.IntRx0Done)
	res := fx.E.Dispatch()
	assert.Equal(-1, res.RxSlot)
	assert.Zero(res.Status)
	assert.Zero(res.Acked)
	assert.Zero(fx.E.Counters().Interrupts)
	assert.Empty(fx.Dev.Regs.Writes(csr.IntStatus))
}

func TestDispatchSpurious(t *testing.T) {
	assert, _ := makeAR(t)
	fx := newFixture(t, qdma.Config{}, qdmasim.Config{})
	fx.Open(0)

	res := fx.E.Dispatch()
	assert.Zero(res.Status)
	assert.EqualValues(csr.IntDefaultMask, res.Mask)
	assert.Zero(res.Acked)
	assert.False(res.Pending)
	assert.Empty(fx.Dev.Regs.Writes(csr.IntStatus))

	cnt := fx.E.Counters()
	assert.EqualValues(1, cnt.Interrupts)
	assert.EqualValues(1, cnt.Spurious)
}

func TestDispatchTxMasked(t *testing.T) {
	assert, require := makeAR(t)
	fx := newFixture(t, qdma.Config{}, qdmasim.Config{})
	p := fx.Open(0)

	require.NoError(p.Transmit(testenv.RandFrame(64), nil))
	assert.EqualValues(csr.IntTx0Done, fx.Dev.IntStatus())

	res := fx.E.Dispatch()
	assert.Equal(1, res.Drained)
	assert.Equal([]uint32{0}, res.Entries)
	assert.Zero(res.Acked)
	assert.False(res.Pending)
	assert.EqualValues(csr.IntTx0Done, fx.Dev.IntStatus())
	assert.Equal([]uint32{1}, fx.Dev.Regs.Writes(csr.IrqClearLen))

	cnt := fx.E.Counters()
	assert.EqualValues(1, cnt.Spurious)
	assert.EqualValues(1, cnt.IrqDrains)
	assert.EqualValues(1, cnt.IrqEntries)

	s := fx.E.Snapshot()
	assert.EqualValues(csr.IrqEntryEmpty, s.IrqQueue[0])
	v, _ := s.Register("IRQ_STATUS")
	assert.EqualValues(1, csr.IrqHead(v))
	assert.Zero(csr.IrqLen(v))
}

func TestDispatchPriority(t *testing.T) {
	assert, require := makeAR(t)
	fx := newFixture(t, qdma.Config{IntMask: csr.IntDefaultMask | csr.IntTx0Done}, qdmasim.Config{})
	p := fx.Open(0)

	require.NoError(p.Transmit(testenv.RandFrame(64), nil))
	require.NoError(p.Transmit(testenv.RandFrame(64), nil))
	_, e := fx.Dev.InjectRx(testenv.RandFrame(64), nil)
	require.NoError(e)

	res := fx.E.Dispatch()
	assert.EqualValues(csr.IntRx0Done|csr.IntTx0Done, res.Status)
	assert.Equal(0, res.RxSlot)
	assert.True(res.RxDelivered)
	assert.Zero(res.Drained)
	assert.EqualValues(csr.IntRx0Done, res.Acked)
	assert.True(res.Pending)

	res = fx.E.Dispatch()
	assert.EqualValues(csr.IntTx0Done, res.Status)
	assert.Equal(-1, res.RxSlot)
	assert.Equal(2, res.Drained)
	assert.Equal([]uint32{0, 1}, res.Entries)
	assert.EqualValues(csr.IntTx0Done, res.Acked)
	assert.False(res.Pending)
	assert.Zero(fx.Dev.IntStatus())

	assert.Zero(fx.E.Counters().Spurious)
}

func TestDispatchConditions(t *testing.T) {
	assert, _ := makeAR(t)
	fx := newFixture(t, qdma.Config{}, qdmasim.Config{})
	fx.Open(0)

	fx.Dev.Raise(csr.IntHwfwdDscpLow | csr.IntNoTx0CpuDscp | csr.IntHwfwdDscpEmpty)
	res := fx.E.Dispatch()
	assert.EqualValues(csr.IntHwfwdDscpLow|csr.IntNoTx0CpuDscp|csr.IntHwfwdDscpEmpty, res.Acked)
	assert.Equal(-1, res.RxSlot)
	assert.Zero(res.Drained)
	assert.False(res.Pending)
	assert.Zero(fx.Dev.IntStatus())
	assert.Equal("NO_TX0_CPU_DSCP|HWFWD_DSCP_EMPTY|HWFWD_DSCP_LOW", qdma.StatusString(res.Status))

	fx.Dev.Raise(csr.IntNoRx0CpuDscp)
	fx.E.Dispatch()

	cnt := fx.E.Counters()
	assert.EqualValues(1, cnt.HwfwdLow)
	assert.EqualValues(1, cnt.HwfwdEmpty)
	assert.EqualValues(1, cnt.NoTxDesc)
	assert.EqualValues(1, cnt.NoRxDesc)
	assert.Zero(cnt.IrqFull)
	assert.Zero(cnt.IrqDrains)
}

func TestDispatchDrainWrap(t *testing.T) {
	assert, require := makeAR(t)
	const depth = 4095
	fx := newFixture(t, qdma.Config{IrqQueueDepth: depth}, qdmasim.Config{})
	fx.Open(0)

	base := dmamem.PhysAddr(fx.Dev.Regs.Peek(csr.IrqBase))
	put := func(i int, v uint32) {
		b, e := fx.Dev.Mem.Resolve(base+dmamem.PhysAddr(4*i), 4)
		require.NoError(e)
		binary.BigEndian.PutUint32(b, v)
	}
	put(4000, 7)
	put(4094, 8)
	put(10, 9)
	put(300, 5)

	fx.Dev.SetIrqQueue(4000, 200)
	fx.Dev.Raise(csr.IntIrqFull)
	res := fx.E.Dispatch()
	assert.Equal(200, res.Drained)
	assert.Equal([]uint32{7, 8, 9}, res.Entries)
	assert.EqualValues(csr.IntIrqFull, res.Acked)
	assert.Equal([]uint32{72}, fx.Dev.Regs.Writes(csr.IrqClearLen))

	s := fx.E.Snapshot()
	require.Len(s.IrqQueue, depth)
	assert.EqualValues(csr.IrqEntryEmpty, s.IrqQueue[4000])
	assert.EqualValues(csr.IrqEntryEmpty, s.IrqQueue[4094])
	assert.EqualValues(csr.IrqEntryEmpty, s.IrqQueue[10])
	assert.EqualValues(5, s.IrqQueue[300])

	cnt := fx.E.Counters()
	assert.EqualValues(1, cnt.IrqFull)
	assert.EqualValues(200, cnt.IrqEntries)
}

func TestStatusString(t *testing.T) {
	assert, _ := makeAR(t)
	assert.Equal("", qdma.StatusString(0))
	assert.Equal("TX0_DONE|RX0_DONE", qdma.StatusString(csr.IntRx0Done|csr.IntTx0Done))
	assert.Equal("RX0_DONE|0x80000000", qdma.StatusString(csr.IntRx0Done|1<<31))
}
