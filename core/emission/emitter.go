// Package emission provides an event emitter with typed events.
// Registrations are cancelled through io.Closer.
package emission

import (
	"io"

	chuckpreslar_emission "github.com/chuckpreslar/emission"
)

// Emitter dispatches events to registered listeners.
type Emitter struct {
	inner *chuckpreslar_emission.Emitter
}

// NewEmitter creates an Emitter.
func NewEmitter() *Emitter {
	return &Emitter{inner: chuckpreslar_emission.NewEmitter()}
}

// On registers a listener function for an event name.
// The returned io.Closer cancels the registration; closing it twice has no effect.
func (emitter *Emitter) On(event, listener any) io.Closer {
	emitter.inner.On(event, listener)
	return canceler{emitter.inner, event, listener}
}

// Emit invokes listeners of an event synchronously, in registration order.
func (emitter *Emitter) Emit(event any, args ...any) {
	emitter.inner.EmitSync(event, args...)
}

// Listeners returns the number of listeners registered for an event.
func (emitter *Emitter) Listeners(event any) int {
	return emitter.inner.GetListenerCount(event)
}

type canceler struct {
	emitter  *chuckpreslar_emission.Emitter
	event    any
	listener any
}

func (c canceler) Close() error {
	c.emitter.Off(c.event, c.listener)
	return nil
}

// Event is an event name bound to its argument type.
type Event[T any] string

// On registers a typed listener on emitter.
func (evt Event[T]) On(emitter *Emitter, listener func(T)) io.Closer {
	return emitter.On(string(evt), listener)
}

// Emit invokes typed listeners on emitter.
func (evt Event[T]) Emit(emitter *Emitter, arg T) {
	emitter.Emit(string(evt), arg)
}
