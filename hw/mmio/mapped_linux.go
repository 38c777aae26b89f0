package mmio

import (
	"fmt"
	"math/bits"
	"os"
	"sync/atomic"
	"unsafe"

	"go.uber.org/multierr"
	"golang.org/x/sys/unix"
)

// Mapped is a register block mapped from a device file, such as /dev/uioN or /dev/mem.
//
// Accesses are 32-bit atomic loads and stores.
// On supported architectures an atomic store is a full memory barrier, so earlier writes to DMA memory become visible before the register write.
type Mapped struct {
	mem  []byte
	swap bool
	file *os.File
}

var _ Registers = (*Mapped)(nil)

// Map maps size octets at offset of a device file.
// If swap is true, register values are byte-swapped, for a device whose register endianness differs from the CPU.
func Map(filename string, offset int64, size int, swap bool) (m *Mapped, e error) {
	if offset%int64(os.Getpagesize()) != 0 {
		return nil, fmt.Errorf("mmio.Map(%s): offset 0x%x is not page aligned", filename, offset)
	}
	m = &Mapped{swap: swap}
	if m.file, e = os.OpenFile(filename, os.O_RDWR|os.O_SYNC, 0); e != nil {
		return nil, fmt.Errorf("mmio.Map(%s): %w", filename, e)
	}
	if m.mem, e = unix.Mmap(int(m.file.Fd()), offset, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED); e != nil {
		m.file.Close()
		return nil, fmt.Errorf("mmio.Map(%s) mmap: %w", filename, e)
	}
	return m, nil
}

func (m *Mapped) ptr(off uint32) *uint32 {
	_ = m.mem[off+3]
	return (*uint32)(unsafe.Pointer(&m.mem[off]))
}

// Read32 implements Registers.
func (m *Mapped) Read32(off uint32) uint32 {
	v := atomic.LoadUint32(m.ptr(off))
	if m.swap {
		v = bits.ReverseBytes32(v)
	}
	return v
}

// Write32 implements Registers.
func (m *Mapped) Write32(off uint32, v uint32) {
	if m.swap {
		v = bits.ReverseBytes32(v)
	}
	atomic.StoreUint32(m.ptr(off), v)
}

// Len returns the size of the mapping.
func (m *Mapped) Len() int {
	return len(m.mem)
}

// Close unmaps the register block.
func (m *Mapped) Close() (e error) {
	if m.mem != nil {
		e = unix.Munmap(m.mem)
		m.mem = nil
	}
	return multierr.Append(e, m.file.Close())
}
