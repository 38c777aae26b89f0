package dmamem_test

import (
	"testing"

	"github.com/en751221/qdma/core/testenv"
	"github.com/en751221/qdma/hw/dmamem"
)

var makeAR = testenv.MakeAR

func TestAllocFree(t *testing.T) {
	assert, require := makeAR(t)

	h := dmamem.NewSimHeap(4096, 0x10000000)
	defer h.Close()

	ring, phys, e := h.AllocCoherent(256)
	require.NoError(e)
	assert.Len(ring.Bytes, 256)
	assert.Equal(dmamem.PhysAddr(0x10000000), phys)

	buf, e := h.Alloc(2000)
	require.NoError(e)
	assert.Len(buf.Bytes, 2000)
	bufPhys, e := h.Map(buf, dmamem.FromDevice)
	require.NoError(e)
	assert.Equal(dmamem.PhysAddr(0x10000100), bufPhys)

	st := h.Stats()
	assert.Equal(1, st.Coherent)
	assert.Equal(1, st.Buffers)
	assert.Equal(1, st.Mapped)

	_, e = h.Alloc(2000)
	assert.ErrorIs(e, dmamem.ErrNoMemory)

	h.Unmap(buf, dmamem.FromDevice)
	h.Free(buf)
	h.FreeCoherent(ring)
	st = h.Stats()
	assert.Equal(dmamem.Stats{FreeSize: 4096}, st)

	// coalesced free list admits a full-size allocation again
	all, e := h.Alloc(4096)
	require.NoError(e)
	h.Free(all)
}

func TestAllocZeroed(t *testing.T) {
	assert, require := makeAR(t)

	h := dmamem.NewSimHeap(1024, 0x2000)
	b, e := h.Alloc(128)
	require.NoError(e)
	for i := range b.Bytes {
		b.Bytes[i] = 0xEE
	}
	h.Free(b)

	b, e = h.Alloc(128)
	require.NoError(e)
	assert.Equal(make([]byte, 128), b.Bytes)
	assert.Panics(func() {
		h.Free(b)
		h.Free(b)
	})
}

func TestResolve(t *testing.T) {
	assert, require := makeAR(t)

	h := dmamem.NewSimHeap(1024, 0x2000)
	b, e := h.Alloc(64)
	require.NoError(e)
	phys, e := h.Map(b, dmamem.ToDevice)
	require.NoError(e)
	copy(b.Bytes, "hello")

	p, e := h.Resolve(phys, 5)
	require.NoError(e)
	assert.Equal("hello", string(p))

	_, e = h.Resolve(0x1000, 4)
	assert.ErrorIs(e, dmamem.ErrBadAddress)
	_, e = h.Resolve(0x2000+1022, 4)
	assert.ErrorIs(e, dmamem.ErrBadAddress)
}

func TestForeignBlock(t *testing.T) {
	assert, require := makeAR(t)

	h1 := dmamem.NewSimHeap(1024, 0)
	h2 := dmamem.NewSimHeap(1024, 0)
	b, e := h1.Alloc(64)
	require.NoError(e)
	_, e = h2.Map(b, dmamem.ToDevice)
	assert.ErrorIs(e, dmamem.ErrForeignFree)
	assert.Panics(func() { h2.Free(b) })
}
