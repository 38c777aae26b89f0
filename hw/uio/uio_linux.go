// Package uio accesses a device bound to the Linux userspace I/O framework.
package uio

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/en751221/qdma/core/logging"
	"github.com/en751221/qdma/hw/mmio"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

var logger = logging.New("uio")

// Device is an open /dev/uioN device.
type Device struct {
	minor int
	file  *os.File
	count uint32
}

// Open opens /dev/uioN.
func Open(minor int) (d *Device, e error) {
	d = &Device{minor: minor}
	filename := fmt.Sprintf("/dev/uio%d", minor)
	if d.file, e = os.OpenFile(filename, os.O_RDWR, 0); e != nil {
		return nil, fmt.Errorf("uio.Open %w", e)
	}
	logger.Info("device opened", zap.String("path", filename), zap.String("name", d.Name()))
	return d, nil
}

func (d *Device) sysfs(rel ...string) string {
	return filepath.Join(append([]string{"/sys/class/uio", fmt.Sprintf("uio%d", d.minor)}, rel...)...)
}

func readSysfsHex(filename string) (uint64, error) {
	b, e := os.ReadFile(filename)
	if e != nil {
		return 0, e
	}
	return strconv.ParseUint(strings.TrimPrefix(strings.TrimSpace(string(b)), "0x"), 16, 64)
}

// Name returns the driver name reported by sysfs.
func (d *Device) Name() string {
	b, _ := os.ReadFile(d.sysfs("name"))
	return strings.TrimSpace(string(b))
}

// Map maps memory region index of the device.
// swap selects byte-swapped register access.
func (d *Device) Map(index int, swap bool) (*mmio.Mapped, error) {
	size, e := readSysfsHex(d.sysfs("maps", fmt.Sprintf("map%d", index), "size"))
	if e != nil {
		return nil, fmt.Errorf("uio map%d size %w", index, e)
	}
	return mmio.Map(d.file.Name(), int64(index*os.Getpagesize()), int(size), swap)
}

// Enable unmasks the device interrupt line.
// It must be called after each interrupt, because the kernel masks the line until userspace acknowledges it.
func (d *Device) Enable() error {
	var b [4]byte
	binary.NativeEndian.PutUint32(b[:], 1)
	_, e := d.file.Write(b[:])
	return e
}

// Wait blocks until an interrupt occurs or ctx is cancelled.
// It returns the cumulative interrupt count.
func (d *Device) Wait(ctx context.Context) (uint32, error) {
	fds := []unix.PollFd{{Fd: int32(d.file.Fd()), Events: unix.POLLIN}}
	for {
		if e := ctx.Err(); e != nil {
			return d.count, e
		}
		n, e := unix.Poll(fds, int((100 * time.Millisecond).Milliseconds()))
		if errors.Is(e, unix.EINTR) || n == 0 {
			continue
		}
		if e != nil {
			return d.count, fmt.Errorf("uio poll %w", e)
		}

		var b [4]byte
		if _, e = d.file.Read(b[:]); e != nil {
			return d.count, fmt.Errorf("uio read %w", e)
		}
		count := binary.NativeEndian.Uint32(b[:])
		if missed := count - d.count - 1; d.count != 0 && missed > 0 && missed < 1<<31 {
			logger.Debug("interrupts coalesced", zap.Uint32("missed", missed))
		}
		d.count = count
		return count, nil
	}
}

// Close closes the device.
func (d *Device) Close() error {
	return d.file.Close()
}
