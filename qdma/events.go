package qdma

import (
	"io"

	"github.com/en751221/qdma/core/emission"
)

const (
	evtStateChange = emission.Event[bool]("StateChange")
	evtRxDrop      = emission.Event[int]("RxDrop")
)

// OnStateChange registers a callback invoked after the rings come up or go down.
// The callback runs with engine locks held and must not call back into the Engine.
// Returns an io.Closer that cancels the callback registration.
func (e *Engine) OnStateChange(cb func(up bool)) io.Closer {
	return evtStateChange.On(e.emitter, cb)
}

// OnRxDrop registers a callback invoked when a received frame is dropped because no replacement buffer was available.
// slot is the RX ring index that was recycled.
func (e *Engine) OnRxDrop(cb func(slot int)) io.Closer {
	return evtRxDrop.On(e.emitter, cb)
}
