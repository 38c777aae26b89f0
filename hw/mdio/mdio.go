// Package mdio accesses Ethernet PHY registers through the frame engine's indirect access register.
//
// Each access waits for the previous one to finish, issues the command, and waits for completion.
// Waits are bounded by a PollConfig and fail with an error wrapping mmio.ErrTimeout.
package mdio

import (
	"errors"
	"fmt"
	"sync"

	"github.com/en751221/qdma/core/logging"
	"github.com/en751221/qdma/hw/mmio"
	"github.com/en751221/qdma/qdma/csr"
	"go.uber.org/zap"
)

var logger = logging.New("mdio")

// Address limits of Clause 22.
const (
	MaxPhyAddr = 31
	MaxReg     = 31
)

// Standard registers read by Probe.
const (
	RegBmcr   = 0
	RegBmsr   = 1
	RegPhyID1 = 2
	RegPhyID2 = 3
)

// ErrAddress indicates a PHY address or register number out of range.
var ErrAddress = errors.New("MDIO address out of range")

// DefaultPoll bounds each wait to one second, polling every 10 to 20 microseconds.
var DefaultPoll = mmio.PollConfig{
	Timeout:     1000,
	Interval:    10,
	MaxInterval: 20,
}

// Bus is an MDIO bus.
type Bus struct {
	mu     sync.Mutex
	regs   mmio.Registers
	poll   mmio.PollConfig
	logger *zap.Logger
}

// New creates a Bus.
// fe is the frame engine register block that contains PHY_IAC.
// A zero poll uses DefaultPoll.
func New(fe mmio.Registers, poll mmio.PollConfig) *Bus {
	if poll == (mmio.PollConfig{}) {
		poll = DefaultPoll
	}
	return &Bus{
		regs:   fe,
		poll:   poll,
		logger: logger,
	}
}

func checkAddr(phy, reg int) error {
	if phy < 0 || phy > MaxPhyAddr || reg < 0 || reg > MaxReg {
		return fmt.Errorf("%w: phy %d reg %d", ErrAddress, phy, reg)
	}
	return nil
}

func (b *Bus) wait() (uint32, error) {
	return mmio.Poll(b.regs, "PHY_IAC", csr.PhyIac, csr.PhyIacAccess, 0, b.poll)
}

// exec runs one command and returns PHY_IAC after completion.
// Caller holds mu.
func (b *Bus) exec(cmd uint32) (uint32, error) {
	if _, e := b.wait(); e != nil {
		return 0, e
	}
	b.regs.Write32(csr.PhyIac, csr.PhyIacAccess|csr.PhyIacStart|cmd)
	return b.wait()
}

func command(phy, reg int) uint32 {
	return uint32(reg)<<csr.PhyIacRegShift | uint32(phy)<<csr.PhyIacAddrShift
}

// Read reads a PHY register.
func (b *Bus) Read(phy, reg int) (uint16, error) {
	if e := checkAddr(phy, reg); e != nil {
		return 0, e
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	v, e := b.exec(csr.PhyIacRead | command(phy, reg))
	if e != nil {
		b.logger.Error("MDIO read timeout", zap.Int("phy", phy), zap.Int("reg", reg), zap.Error(e))
		return 0, fmt.Errorf("read phy %d reg %d: %w", phy, reg, e)
	}
	return uint16(v & csr.PhyIacDataMask), nil
}

// Write writes a PHY register.
func (b *Bus) Write(phy, reg int, value uint16) error {
	if e := checkAddr(phy, reg); e != nil {
		return e
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, e := b.exec(csr.PhyIacWrite | command(phy, reg) | uint32(value)); e != nil {
		b.logger.Error("MDIO write timeout", zap.Int("phy", phy), zap.Int("reg", reg), zap.Error(e))
		return fmt.Errorf("write phy %d reg %d: %w", phy, reg, e)
	}
	return nil
}

// PHY describes a PHY found by Probe.
type PHY struct {
	Addr int    `json:"addr"`
	ID   uint32 `json:"id"`
}

func (p PHY) String() string {
	return fmt.Sprintf("phy%d(%08x)", p.Addr, p.ID)
}

// Probe scans every PHY address and returns those with a valid identifier.
// It stops at the first bus error.
func (b *Bus) Probe() ([]PHY, error) {
	var list []PHY
	for addr := 0; addr <= MaxPhyAddr; addr++ {
		id1, e := b.Read(addr, RegPhyID1)
		if e != nil {
			return list, e
		}
		id2, e := b.Read(addr, RegPhyID2)
		if e != nil {
			return list, e
		}
		id := uint32(id1)<<16 | uint32(id2)
		if id == 0 || id == 0xFFFFFFFF {
			continue
		}
		list = append(list, PHY{Addr: addr, ID: id})
	}
	return list, nil
}
