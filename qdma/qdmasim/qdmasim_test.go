package qdmasim_test

import (
	"context"
	"testing"
	"time"

	"github.com/en751221/qdma/core/testenv"
	"github.com/en751221/qdma/hw/dmamem"
	"github.com/en751221/qdma/qdma/csr"
	"github.com/en751221/qdma/qdma/qdmasim"
)

var makeAR = testenv.MakeAR

func TestRegisters(t *testing.T) {
	assert, _ := makeAR(t)
	d := qdmasim.New(qdmasim.Config{})
	r := d.Regs

	r.Write32(csr.LmgrInitCfg, csr.LmgrStart|0x140008)
	assert.EqualValues(0x140008, r.Read32(csr.LmgrInitCfg))

	r.Write32(csr.GlbCfg, csr.GlbTxDmaEn|csr.GlbTxDmaBusy)
	assert.EqualValues(csr.GlbTxDmaEn, r.Read32(csr.GlbCfg))

	d.Raise(csr.IntRx0Done | csr.IntHwfwdDscpLow)
	r.Write32(csr.IntStatus, csr.IntRx0Done)
	assert.EqualValues(csr.IntHwfwdDscpLow, r.Read32(csr.IntStatus))
	assert.EqualValues(csr.IntHwfwdDscpLow, d.IntStatus())

	r.Write32(csr.IrqCfg, 20)
	d.SetIrqQueue(18, 5)
	st := r.Read32(csr.IrqStatus)
	assert.EqualValues(18, csr.IrqHead(st))
	assert.EqualValues(5, csr.IrqLen(st))
	r.Write32(csr.IrqClearLen, 3)
	st = r.Read32(csr.IrqStatus)
	assert.EqualValues(1, csr.IrqHead(st))
	assert.EqualValues(2, csr.IrqLen(st))
	r.Write32(csr.IrqClearLen, 9)
	assert.Zero(csr.IrqLen(r.Read32(csr.IrqStatus)))
}

func TestStuck(t *testing.T) {
	assert, _ := makeAR(t)
	d := qdmasim.New(qdmasim.Config{LmgrStuck: true, DmaBusyStuck: true})
	r := d.Regs

	r.Write32(csr.LmgrInitCfg, csr.LmgrStart)
	assert.EqualValues(csr.LmgrStart, r.Read32(csr.LmgrInitCfg))
	r.Write32(csr.GlbCfg, 0)
	assert.EqualValues(csr.GlbTxDmaBusy|csr.GlbRxDmaBusy, r.Read32(csr.GlbCfg))
}

func TestInterrupt(t *testing.T) {
	assert, require := makeAR(t)
	d := qdmasim.New(qdmasim.Config{})
	d.Regs.Write32(csr.IntMask, csr.IntRx0Done)

	d.Raise(csr.IntTx0Done)
	require.NoError(d.Enable())
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, e := d.Wait(ctx)
	assert.ErrorIs(e, context.DeadlineExceeded)

	d.Raise(csr.IntRx0Done)
	n, e := d.Wait(context.Background())
	require.NoError(e)
	assert.EqualValues(1, n)

	d.Raise(csr.IntRx0Done)
	assert.EqualValues(1, d.IrqCount())
	require.NoError(d.Enable())
	assert.EqualValues(2, d.IrqCount())
}

func TestInjectRxErrors(t *testing.T) {
	assert, _ := makeAR(t)
	d := qdmasim.New(qdmasim.Config{})
	r := d.Regs

	_, e := d.InjectRx(testenv.RandFrame(64), nil)
	assert.ErrorIs(e, qdmasim.ErrNotEnabled)

	r.Write32(csr.RxRingCfg, 2)
	r.Write32(csr.GlbCfg, csr.GlbRxDmaEn)
	_, e = d.InjectRx(testenv.RandFrame(64), nil)
	assert.ErrorIs(e, qdmasim.ErrNoRxDesc)
	assert.EqualValues(csr.IntNoRx0CpuDscp, d.IntStatus())
}

func TestFaultyMem(t *testing.T) {
	assert, require := makeAR(t)
	d := qdmasim.New(qdmasim.Config{MemSize: 1 << 16})
	m := qdmasim.NewFaultyMem(d.Mem)

	m.FailCoherent(1)
	_, _, e := m.AllocCoherent(64)
	assert.ErrorIs(e, dmamem.ErrNoMemory)
	c, _, e := m.AllocCoherent(64)
	require.NoError(e)
	m.FreeCoherent(c)

	m.FailAlloc(2)
	_, e = m.Alloc(64)
	assert.ErrorIs(e, dmamem.ErrNoMemory)
	_, e = m.Alloc(64)
	assert.ErrorIs(e, dmamem.ErrNoMemory)
	b, e := m.Alloc(64)
	require.NoError(e)

	m.FailMap(1)
	_, e = m.Map(b, dmamem.ToDevice)
	assert.ErrorIs(e, dmamem.ErrNotMapped)
	_, e = m.Map(b, dmamem.ToDevice)
	assert.NoError(e)
	m.Unmap(b, dmamem.ToDevice)
	m.Free(b)

	st := d.Mem.Stats()
	assert.Zero(st.Coherent)
	assert.Zero(st.Buffers)
	assert.Zero(st.Mapped)
}
