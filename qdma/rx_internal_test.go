package qdma

import (
	"testing"

	"github.com/en751221/qdma/core/testenv"
)

func TestRxCompletedSlot(t *testing.T) {
	assert, _ := testenv.MakeAR(t)
	assert.Equal(1, rxCompletedSlot(2, 4))
	assert.Equal(3, rxCompletedSlot(0, 4))
	assert.Equal(0, rxCompletedSlot(1, 4))
	assert.Equal(3, rxCompletedSlot(4, 4))
	assert.Equal(6, rxCompletedSlot(15, 8))
}
