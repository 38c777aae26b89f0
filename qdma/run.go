package qdma

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// IrqSource delivers hardware interrupts.
// *uio.Device and *qdmasim.Device implement this interface.
type IrqSource interface {
	// Enable re-arms the interrupt line.
	Enable() error
	// Wait blocks until an interrupt arrives or ctx is cancelled, and returns the cumulative interrupt count.
	Wait(ctx context.Context) (uint32, error)
}

// DispatchBudget is the maximum number of Dispatch calls per interrupt in Run.
const DispatchBudget = 16

// Run services interrupts from src until ctx is cancelled.
// After each interrupt it calls Dispatch while an enabled status bit remains pending, then refills RX spares.
func (e *Engine) Run(ctx context.Context, src IrqSource) error {
	for {
		if err := src.Enable(); err != nil {
			return err
		}
		count, err := src.Wait(ctx)
		switch {
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return nil
		case err != nil:
			return err
		}

		for i := 0; i < DispatchBudget; i++ {
			if res := e.Dispatch(); !res.Pending {
				break
			}
		}

		if !e.running.Load() {
			continue
		}
		if n, err := e.RefillRxSpares(); err != nil {
			e.logger.Warn("RX spare refill failed", zap.Uint32("irq-count", count), zap.Error(err))
		} else if n > 0 {
			e.logger.Debug("RX spares refilled", zap.Int("added", n))
		}
	}
}
