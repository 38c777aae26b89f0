package qdma_test

import (
	"testing"

	"github.com/en751221/qdma/hw/mmio"
	"github.com/en751221/qdma/qdma"
	"github.com/en751221/qdma/qdma/csr"
	"github.com/en751221/qdma/qdma/qdmasim"
)

func TestBringUp(t *testing.T) {
	assert, require := makeAR(t)
	fx := newFixture(t, qdma.Config{}, qdmasim.Config{})
	regs := fx.Dev.Regs

	p := fx.Open(0)
	assert.True(fx.E.Running())
	assert.True(p.IsOpen())

	assert.EqualValues(0x1C080075, regs.Peek(csr.GlbCfg))
	assert.EqualValues(csr.IntDefaultMask, regs.Peek(csr.IntMask))
	assert.Equal([]uint32{0x00140000, 0x00140008, 0x80140008}, regs.Writes(csr.LmgrInitCfg))
	assert.EqualValues(0x00140008, regs.Peek(csr.LmgrInitCfg))
	assert.Equal([]uint32{0, 1}, regs.Writes(csr.HwfwdDscpCfg))
	assert.EqualValues(20, regs.Peek(csr.IrqCfg))
	assert.EqualValues(4, regs.Peek(csr.RxRingCfg))
	assert.Equal([]uint32{0, 4}, regs.Writes(csr.RxCpuIdx))
	assert.Equal([]uint32{0}, regs.Writes(csr.TxCpuIdx))
	assert.Equal(regs.Peek(csr.TxDscpBase)+4*32, regs.Peek(csr.RxDscpBase))

	s := fx.E.Snapshot()
	assert.True(s.Running)
	assert.Equal(0, s.TxBound)
	assert.Equal(4, s.RxBound)
	assert.Equal(4, s.RxSpares)
	require.Len(s.Tx, 4)
	for i, d := range s.Tx {
		assert.EqualValues((i+1)%4, d.NextIdx(), "slot %d", i)
	}
	require.Len(s.Rx, 4)
	for i, d := range s.Rx {
		assert.EqualValues(1518, d.PktLen(), "slot %d", i)
		assert.False(d.Done(), "slot %d", i)
		assert.NotZero(d.PktAddr(), "slot %d", i)
	}
	require.Len(s.IrqQueue, 20)
	for _, v := range s.IrqQueue {
		assert.EqualValues(csr.IrqEntryEmpty, v)
	}

	st := fx.Dev.Mem.Stats()
	assert.Equal(4, st.Coherent)
	assert.Equal(8, st.Buffers)
	assert.Equal(8, st.Mapped)

	require.NoError(p.Close())
	assert.False(fx.E.Running())
	assert.False(p.IsOpen())
	assert.Zero(regs.Peek(csr.GlbCfg) & (csr.GlbTxDmaEn | csr.GlbRxDmaEn | csr.GlbTxWbDone))
	assert.Zero(regs.Peek(csr.IntMask))

	st = fx.Dev.Mem.Stats()
	assert.Zero(st.Coherent)
	assert.Zero(st.Buffers)
	assert.Zero(st.Mapped)
}

func TestLittleEndian(t *testing.T) {
	assert, _ := makeAR(t)
	fx := newFixture(t, qdma.Config{DescLittleEndian: true, TxRingLen: 8}, qdmasim.Config{})
	fx.Open(0)

	s := fx.E.Snapshot()
	for i, d := range s.Tx {
		assert.EqualValues((i+1)%8, d.NextIdx(), "slot %d", i)
	}
	assert.NoError(fx.E.Port(0).Transmit(make([]byte, 64), nil))
	assert.Len(fx.Dev.Sent(), 1)
}

func TestPorts(t *testing.T) {
	assert, require := makeAR(t)
	fx := newFixture(t, qdma.Config{}, qdmasim.Config{})
	regs := fx.Dev.Regs

	_, e := fx.E.AddPort(qdma.MaxPorts)
	assert.ErrorIs(e, qdma.ErrInvalidConfig)
	_, e = fx.E.AddPort(-1)
	assert.ErrorIs(e, qdma.ErrInvalidConfig)

	p0 := fx.Port(0)
	_, e = fx.E.AddPort(0)
	assert.ErrorIs(e, qdma.ErrInvalidConfig)
	p1 := fx.Port(1)
	assert.Same(p1, fx.E.Port(1))
	assert.Nil(fx.E.Port(5))
	assert.Equal(1, p1.ID())

	assert.ErrorIs(p0.Transmit(make([]byte, 60), nil), qdma.ErrClosed)
	assert.EqualValues(1, fx.E.Counters().TxDropped)

	require.NoError(p0.Open())
	require.NoError(p0.Open())
	require.NoError(p1.Open())
	assert.Len(regs.Writes(csr.TxDscpBase), 1)

	require.NoError(p0.Close())
	assert.True(fx.E.Running())
	assert.ErrorIs(p0.Transmit(make([]byte, 60), nil), qdma.ErrClosed)
	assert.NoError(p1.Transmit(make([]byte, 60), nil))

	require.NoError(p1.Close())
	assert.False(fx.E.Running())
	assert.NoError(p1.Close())

	require.NoError(p1.Open())
	assert.Len(regs.Writes(csr.TxDscpBase), 2)
}

func TestHwfwdTimeout(t *testing.T) {
	assert, require := makeAR(t)
	fx := newFixture(t, qdma.Config{}, qdmasim.Config{LmgrStuck: true})

	p := fx.Port(0)
	e := p.Open()
	require.Error(e)
	assert.ErrorIs(e, qdma.ErrHardwareTimeout)
	var te *mmio.TimeoutError
	require.ErrorAs(e, &te)
	assert.Equal(100, te.Tries)
	assert.EqualValues(csr.LmgrInitCfg, te.Off)

	assert.False(fx.E.Running())
	assert.False(p.IsOpen())
	assert.Zero(fx.Dev.Regs.Peek(csr.GlbCfg))
	assert.Zero(fx.Dev.Regs.Peek(csr.IntMask))

	st := fx.Dev.Mem.Stats()
	assert.Zero(st.Coherent)
	assert.Zero(st.Buffers)
	assert.Zero(st.Mapped)
	assert.Zero(fx.E.Dispatch().Status)
}

func TestBringUpAllocFailure(t *testing.T) {
	assert, _ := makeAR(t)
	fx := newFixture(t, qdma.Config{}, qdmasim.Config{})
	p := fx.Port(0)

	fx.Mem.FailCoherent(1)
	assert.ErrorIs(p.Open(), qdma.ErrBufferAlloc)
	assert.False(fx.E.Running())

	fx.Mem.FailAlloc(1)
	assert.ErrorIs(p.Open(), qdma.ErrBufferAlloc)
	assert.False(fx.E.Running())
	assert.Zero(fx.Dev.Mem.Stats().Buffers)

	fx.Mem.FailMap(1)
	assert.ErrorIs(p.Open(), qdma.ErrBufferAlloc)
	assert.False(fx.E.Running())
	st := fx.Dev.Mem.Stats()
	assert.Zero(st.Coherent)
	assert.Zero(st.Buffers)
	assert.Zero(st.Mapped)

	assert.NoError(p.Open())
	assert.True(fx.E.Running())
}

func TestStopTimeout(t *testing.T) {
	assert, require := makeAR(t)
	fx := newFixture(t, qdma.Config{StopPoll: mmio.PollConfig{Iterations: 3}}, qdmasim.Config{DmaBusyStuck: true})

	p := fx.Open(0)
	e := p.Close()
	require.Error(e)
	assert.ErrorIs(e, qdma.ErrHardwareTimeout)
	assert.False(fx.E.Running())
	assert.False(p.IsOpen())

	st := fx.Dev.Mem.Stats()
	assert.Zero(st.Coherent)
	assert.Zero(st.Buffers)
}

func TestStateEvents(t *testing.T) {
	assert, require := makeAR(t)
	fx := newFixture(t, qdma.Config{}, qdmasim.Config{})

	var states []bool
	cancel := fx.E.OnStateChange(func(up bool) { states = append(states, up) })
	p := fx.Open(0)
	require.NoError(p.Close())
	assert.Equal([]bool{true, false}, states)

	cancel.Close()
	require.NoError(p.Open())
	assert.Len(states, 2)
}
