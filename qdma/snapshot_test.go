package qdma_test

import (
	"strings"
	"testing"

	"github.com/en751221/qdma/core/testenv"
	"github.com/en751221/qdma/qdma"
	"github.com/en751221/qdma/qdma/qdmasim"
)

func TestSnapshotDump(t *testing.T) {
	assert, require := makeAR(t)
	fx := newFixture(t, qdma.Config{}, qdmasim.Config{})
	p := fx.Open(0)

	var b strings.Builder
	_, e := fx.E.Snapshot().WriteTo(&b)
	require.NoError(e)
	lines := strings.Split(strings.TrimSuffix(b.String(), "\n"), "\n")
	require.Len(lines, 10)
	assert.Equal("QDMA RX Descriptors driver_idx=4 hardware_idx=0", lines[0])
	assert.True(strings.HasPrefix(lines[1], "  0 len=1518\taddr="))
	assert.True(strings.HasSuffix(lines[1], " crsn=0 sport=0 ppe=0"))
	assert.Equal("QDMA TX Descriptors driver_idx=0 hardware_idx=0", lines[5])
	assert.Equal("  0 len=0\taddr=00000000 next=1 fport=0", lines[6])
	assert.Equal("  3 len=0\taddr=00000000 next=0 fport=0", lines[9])

	require.NoError(p.Transmit(testenv.RandFrame(42), nil))
	s := fx.E.Snapshot()
	b.Reset()
	_, e = s.WriteTo(&b)
	require.NoError(e)
	lines = strings.Split(b.String(), "\n")
	assert.Equal("QDMA TX Descriptors driver_idx=1 hardware_idx=1", lines[5])
	assert.True(strings.HasPrefix(lines[6], "  0 len=60\taddr="))
	assert.True(strings.HasSuffix(lines[6], " next=1 DONE fport=1"))

	v, ok := s.Register("TX_CPU_IDX")
	assert.True(ok)
	assert.EqualValues(1, v)
	_, ok = s.Register("NO_SUCH_REG")
	assert.False(ok)
	assert.Len(s.TxLines(), 4)
	assert.Len(s.RxLines(), 4)
	assert.EqualValues(1, s.Counters.TxFrames)
}

func TestSnapshotClosed(t *testing.T) {
	assert, _ := makeAR(t)
	fx := newFixture(t, qdma.Config{}, qdmasim.Config{})

	s := fx.E.Snapshot()
	assert.False(s.Running)
	assert.Nil(s.Tx)
	assert.Nil(s.Rx)
	assert.Nil(s.IrqQueue)
	assert.Zero(s.RxSpares)
	assert.Len(s.Registers, 16)
}
