package qdma

import (
	"sync"

	"github.com/en751221/qdma/hw/dmamem"
	"github.com/en751221/qdma/qdma/desc"
)

// RxFrame is a received frame.
// Data is only valid until Release is called.
type RxFrame struct {
	// Data is the frame, trimmed to the length reported by hardware.
	Data []byte
	// Slot is the RX ring index the frame was received on.
	Slot int
	// Desc is a copy of the completed descriptor.
	Desc desc.Desc

	mem     dmamem.Allocator
	blk     *dmamem.Block
	release sync.Once
}

// Meta returns the receive metadata written by hardware.
func (f *RxFrame) Meta() desc.RxView {
	return f.Desc.Rx()
}

// Release returns the buffer to DMA memory.
// Calling it more than once has no effect.
func (f *RxFrame) Release() {
	f.release.Do(func() {
		f.Data = nil
		f.mem.Free(f.blk)
	})
}

// Receiver accepts received frames.
type Receiver interface {
	// DeliverFrame is invoked from Dispatch for each received frame.
	// The receiver owns the frame and must eventually call f.Release.
	DeliverFrame(f *RxFrame)
}

// ReceiverFunc adapts a function to Receiver.
type ReceiverFunc func(f *RxFrame)

// DeliverFrame implements Receiver.
func (fn ReceiverFunc) DeliverFrame(f *RxFrame) {
	fn(f)
}

type discardReceiver struct{}

func (discardReceiver) DeliverFrame(f *RxFrame) {
	f.Release()
}
