package mdio_test

import (
	"testing"

	"github.com/en751221/qdma/core/testenv"
	"github.com/en751221/qdma/hw/mdio"
	"github.com/en751221/qdma/hw/mmio"
	"github.com/en751221/qdma/qdma/csr"
)

var makeAR = testenv.MakeAR

// phySim emulates PHYs behind PHY_IAC.
type phySim struct {
	regs  map[[2]int]uint16
	stuck bool
	cmds  []uint32
}

func newPhySim(r *mmio.Sim) *phySim {
	p := &phySim{regs: map[[2]int]uint16{}}
	r.OnWrite(csr.PhyIac, func(_, v uint32) uint32 {
		p.cmds = append(p.cmds, v)
		if p.stuck {
			return v
		}
		reg := int(v>>csr.PhyIacRegShift) & mdio.MaxReg
		phy := int(v>>csr.PhyIacAddrShift) & mdio.MaxPhyAddr
		key := [2]int{phy, reg}
		switch {
		case v&csr.PhyIacRead != 0:
			d, ok := p.regs[key]
			if !ok {
				d = 0xFFFF
			}
			return uint32(d)
		case v&csr.PhyIacWrite != 0:
			p.regs[key] = uint16(v & csr.PhyIacDataMask)
		}
		return 0
	})
	return p
}

func TestReadWrite(t *testing.T) {
	assert, require := makeAR(t)
	r := mmio.NewSim()
	p := newPhySim(r)
	bus := mdio.New(r, mmio.PollConfig{Iterations: 5})

	require.NoError(bus.Write(5, mdio.RegBmcr, 0x1340))
	assert.Equal(uint16(0x1340), p.regs[[2]int{5, 0}])
	assert.Equal([]uint32{0x80051340 | 5<<csr.PhyIacAddrShift}, p.cmds)

	v, e := bus.Read(5, mdio.RegBmcr)
	require.NoError(e)
	assert.Equal(uint16(0x1340), v)
	assert.EqualValues(0x80090000|5<<csr.PhyIacAddrShift, p.cmds[1])

	_, e = bus.Read(32, 0)
	assert.ErrorIs(e, mdio.ErrAddress)
	assert.ErrorIs(bus.Write(0, 32, 0), mdio.ErrAddress)
	assert.Len(p.cmds, 2)
}

func TestTimeout(t *testing.T) {
	assert, _ := makeAR(t)
	r := mmio.NewSim()
	p := newPhySim(r)
	bus := mdio.New(r, mmio.PollConfig{Iterations: 3})

	p.stuck = true
	_, e := bus.Read(1, mdio.RegBmsr)
	assert.ErrorIs(e, mmio.ErrTimeout)
	var te *mmio.TimeoutError
	assert.ErrorAs(e, &te)
	assert.Equal(3, te.Tries)
	assert.Len(p.cmds, 1)

	e = bus.Write(1, mdio.RegBmcr, 0)
	assert.ErrorIs(e, mmio.ErrTimeout)
	assert.Len(p.cmds, 1)
}

func TestProbe(t *testing.T) {
	assert, require := makeAR(t)
	r := mmio.NewSim()
	p := newPhySim(r)
	p.regs[[2]int{1, mdio.RegPhyID1}] = 0x03A2
	p.regs[[2]int{1, mdio.RegPhyID2}] = 0x9461
	p.regs[[2]int{4, mdio.RegPhyID1}] = 0
	p.regs[[2]int{4, mdio.RegPhyID2}] = 0
	p.regs[[2]int{9, mdio.RegPhyID1}] = 0x001C
	p.regs[[2]int{9, mdio.RegPhyID2}] = 0xC916
	bus := mdio.New(r, mmio.PollConfig{})

	list, e := bus.Probe()
	require.NoError(e)
	require.Len(list, 2)
	assert.Equal(mdio.PHY{Addr: 1, ID: 0x03A29461}, list[0])
	assert.Equal(mdio.PHY{Addr: 9, ID: 0x001CC916}, list[1])
	assert.Equal("phy9(001cc916)", list[1].String())
	assert.Len(p.cmds, 64)
}
