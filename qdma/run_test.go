package qdma_test

import (
	"context"
	"testing"
	"time"

	"github.com/en751221/qdma/core/testenv"
	"github.com/en751221/qdma/qdma"
	"github.com/en751221/qdma/qdma/qdmasim"
)

func TestRun(t *testing.T) {
	assert, require := makeAR(t)
	fx := newFixture(t, qdma.Config{}, qdmasim.Config{})
	fx.Open(0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- fx.E.Run(ctx, fx.Dev) }()

	for i := range 6 {
		frame := testenv.RandFrame(100 + i)
		require.Eventually(func() bool {
			_, e := fx.Dev.InjectRx(frame, nil)
			return e == nil
		}, time.Second, time.Millisecond, "%d", i)

		select {
		case f := <-fx.rxC:
			assert.Equal(frame, f.Data, "%d", i)
			f.Release()
		case <-time.After(time.Second):
			require.FailNow("frame not delivered", "%d", i)
		}
	}

	assert.Eventually(func() bool { return fx.E.Snapshot().RxSpares == 4 }, time.Second, time.Millisecond)
	assert.NotZero(fx.Dev.IrqCount())

	cancel()
	select {
	case e := <-done:
		assert.NoError(e)
	case <-time.After(time.Second):
		require.FailNow("Run did not return")
	}
	assert.EqualValues(6, fx.E.Counters().RxFrames)
}
