// Package mmio provides access to memory-mapped device registers.
package mmio

// Registers provides 32-bit access to a block of device registers.
// Offsets are in octets relative to the start of the block.
//
// Write32 must order all earlier memory writes, including writes to DMA memory, before the register write.
type Registers interface {
	Read32(off uint32) uint32
	Write32(off uint32, v uint32)
}

// Set sets bits in a register with a read-modify-write sequence.
func Set(r Registers, off, bits uint32) {
	r.Write32(off, r.Read32(off)|bits)
}

// Clear clears bits in a register with a read-modify-write sequence.
func Clear(r Registers, off, bits uint32) {
	r.Write32(off, r.Read32(off)&^bits)
}

// Update replaces the bits selected by mask with value.
func Update(r Registers, off, mask, value uint32) {
	r.Write32(off, r.Read32(off)&^mask|value&mask)
}

type window struct {
	r    Registers
	base uint32
}

func (w window) Read32(off uint32) uint32 {
	return w.r.Read32(w.base + off)
}

func (w window) Write32(off uint32, v uint32) {
	w.r.Write32(w.base+off, v)
}

// Sub returns a view of a register sub-block starting at base.
func Sub(r Registers, base uint32) Registers {
	if w, ok := r.(window); ok {
		return window{w.r, w.base + base}
	}
	return window{r, base}
}
