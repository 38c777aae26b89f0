package dmamem

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"

	"golang.org/x/sys/unix"
)

// HugepageSize is the size of a huge page used by NewHugepageHeap.
const HugepageSize = 2 << 20

// NewHugepageHeap creates a heap backed by locked huge pages.
// Bus addresses are physical addresses read from /proc/self/pagemap, which requires CAP_SYS_ADMIN.
func NewHugepageHeap(size int) (h *Heap, e error) {
	size = (size + HugepageSize - 1) &^ (HugepageSize - 1)
	mem, e := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_SHARED|unix.MAP_ANONYMOUS|unix.MAP_HUGETLB|unix.MAP_LOCKED|unix.MAP_POPULATE)
	if e != nil {
		return nil, fmt.Errorf("mmap hugepages: %w", e)
	}
	defer func() {
		if e != nil {
			unix.Munmap(mem)
		}
	}()

	pages, e := readPagemap(mem)
	if e != nil {
		return nil, e
	}

	h = newHeap(mem, HugepageSize, func(off int) PhysAddr {
		return PhysAddr(pages[off/HugepageSize] + uint64(off%HugepageSize))
	})
	h.closer = func() error { return unix.Munmap(mem) }
	return h, nil
}

func readPagemap(mem []byte) (pages []uint64, e error) {
	f, e := os.Open("/proc/self/pagemap")
	if e != nil {
		return nil, e
	}
	defer f.Close()

	pageSize := uint64(os.Getpagesize())
	for off := 0; off < len(mem); off += HugepageSize {
		mem[off] = 0 // fault the page in

		var b [8]byte
		vpn := uint64(uintptrOf(mem[off:])) / pageSize
		if _, e = f.ReadAt(b[:], int64(vpn*8)); e != nil {
			return nil, fmt.Errorf("pagemap read: %w", e)
		}
		v := binary.LittleEndian.Uint64(b[:])
		if v&(1<<63) == 0 {
			return nil, fmt.Errorf("pagemap: page at offset %d not present", off)
		}
		pfn := v & (1<<55 - 1)
		if pfn == 0 {
			return nil, fmt.Errorf("pagemap: PFN hidden, CAP_SYS_ADMIN required")
		}
		phys := pfn * pageSize
		if phys+HugepageSize > math.MaxUint32 {
			return nil, fmt.Errorf("pagemap: physical address 0x%x beyond 32-bit DMA range", phys)
		}
		pages = append(pages, phys)
	}
	return pages, nil
}
