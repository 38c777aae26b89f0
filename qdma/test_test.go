package qdma_test

import (
	"sync"
	"testing"

	"github.com/en751221/qdma/core/testenv"
	"github.com/en751221/qdma/qdma"
	"github.com/en751221/qdma/qdma/qdmasim"
	"github.com/stretchr/testify/require"
)

var makeAR = testenv.MakeAR

type fixture struct {
	t   testing.TB
	Dev *qdmasim.Device
	Mem *qdmasim.FaultyMem
	E   *qdma.Engine

	mu  sync.Mutex
	rx  []*qdma.RxFrame
	rxC chan *qdma.RxFrame
}

func newFixture(t testing.TB, cfg qdma.Config, simCfg qdmasim.Config) *fixture {
	fx := &fixture{
		t:   t,
		rxC: make(chan *qdma.RxFrame, 64),
	}
	simCfg.DescLittleEndian = cfg.DescLittleEndian
	fx.Dev = qdmasim.New(simCfg)
	fx.Mem = qdmasim.NewFaultyMem(fx.Dev.Mem)

	e, err := qdma.New(cfg, fx.Dev.Regs, fx.Mem, qdma.ReceiverFunc(fx.deliver))
	require.NoError(t, err)
	fx.E = e
	t.Cleanup(func() { e.Close() })
	return fx
}

func (fx *fixture) deliver(f *qdma.RxFrame) {
	fx.mu.Lock()
	fx.rx = append(fx.rx, f)
	fx.mu.Unlock()
	select {
	case fx.rxC <- f:
	default:
	}
}

// Received returns and clears delivered frames.
func (fx *fixture) Received() (list []*qdma.RxFrame) {
	fx.mu.Lock()
	defer fx.mu.Unlock()
	list, fx.rx = fx.rx, nil
	return list
}

func (fx *fixture) Port(id int) *qdma.Port {
	p, err := fx.E.AddPort(id)
	require.NoError(fx.t, err)
	return p
}

func (fx *fixture) Open(id int) *qdma.Port {
	p := fx.Port(id)
	require.NoError(fx.t, p.Open())
	return p
}
