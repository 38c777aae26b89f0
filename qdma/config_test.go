package qdma_test

import (
	"testing"

	"github.com/en751221/qdma/hw/mmio"
	"github.com/en751221/qdma/qdma"
	"github.com/en751221/qdma/qdma/csr"
	"github.com/en751221/qdma/qdma/qdmasim"
)

func TestConfigDefaults(t *testing.T) {
	assert, _ := makeAR(t)

	var cfg qdma.Config
	cfg.ApplyDefaults()
	assert.Equal(csr.DefaultTxRingLen, cfg.TxRingLen)
	assert.Equal(csr.DefaultRxRingLen, cfg.RxRingLen)
	assert.Equal(2000, cfg.RxBufferSize)
	assert.Equal(1518, cfg.RxExpectedLen)
	assert.Equal(4, cfg.RxSpares)
	assert.Equal(csr.DefaultHwfwdDescs, cfg.HwfwdDescs)
	assert.Equal(csr.DefaultIrqQueueDepth, cfg.IrqQueueDepth)
	assert.Equal(128, cfg.BurstSize)
	assert.EqualValues(csr.LmgrDefaultValue, cfg.LmgrInitValue)
	assert.Equal(100, cfg.LmgrPoll.Iterations)
	assert.EqualValues(csr.IntDefaultMask, cfg.IntMask)
	assert.NoError(cfg.Validate())

	cfg = qdma.Config{StopPoll: mmio.PollConfig{Iterations: 3}, IntMask: csr.IntRx0Done}
	cfg.ApplyDefaults()
	assert.Equal(3, cfg.StopPoll.Iterations)
	assert.Zero(cfg.StopPoll.Interval)
	assert.EqualValues(csr.IntRx0Done, cfg.IntMask)
}

func TestConfigValidate(t *testing.T) {
	assert, _ := makeAR(t)
	dev := qdmasim.New(qdmasim.Config{})

	for i, cfg := range []qdma.Config{
		{TxRingLen: 1},
		{RxRingLen: 5000},
		{RxBufferSize: 100},
		{RxExpectedLen: 20},
		{IrqQueueDepth: 5000},
		{BurstSize: 48},
	} {
		_, e := qdma.New(cfg, dev.Regs, dev.Mem, nil)
		assert.ErrorIs(e, qdma.ErrInvalidConfig, "%d", i)
	}

	e, err := qdma.New(qdma.Config{TxRingLen: 16, BurstSize: 32}, dev.Regs, dev.Mem, nil)
	assert.NoError(err)
	assert.Equal(16, e.Config().TxRingLen)
	assert.Empty(dev.Regs.Writes(csr.GlbCfg))
}
