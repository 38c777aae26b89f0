package emission_test

import (
	"testing"

	"github.com/en751221/qdma/core/emission"
	"github.com/en751221/qdma/core/testenv"
)

func TestOnCancel(t *testing.T) {
	assert, _ := testenv.MakeAR(t)

	var slots []int
	nB := 0
	fA := func(slot int) { slots = append(slots, slot) }
	fB := func(int) { nB++ }

	emitter := emission.NewEmitter()
	cA := emitter.On("drop", fA)
	cB := emitter.On("drop", fB)
	assert.Equal(2, emitter.Listeners("drop"))

	emitter.Emit("drop", 3)
	assert.Equal([]int{3}, slots)
	assert.Equal(1, nB)

	assert.NoError(cA.Close())
	emitter.Emit("drop", 4)
	assert.Equal([]int{3}, slots)
	assert.Equal(2, nB)

	assert.NoError(cA.Close())
	assert.NoError(cB.Close())
	emitter.Emit("drop", 5)
	assert.Equal([]int{3}, slots)
	assert.Equal(2, nB)
	assert.Zero(emitter.Listeners("drop"))
}

func TestTypedEvent(t *testing.T) {
	assert, _ := testenv.MakeAR(t)

	const evtUp = emission.Event[bool]("up")
	emitter := emission.NewEmitter()

	var states []bool
	c := evtUp.On(emitter, func(up bool) { states = append(states, up) })
	evtUp.Emit(emitter, true)
	evtUp.Emit(emitter, false)
	assert.Equal([]bool{true, false}, states)

	assert.NoError(c.Close())
	evtUp.Emit(emitter, true)
	assert.Len(states, 2)
}
