// Package gdma programs GDMA1 forwarding, the switch CPU ports, and the station MAC address of the frame engine.
package gdma

import (
	"fmt"
	"net"

	"github.com/en751221/qdma/core/logging"
	"github.com/en751221/qdma/hw/mmio"
	"go.uber.org/zap"
)

var logger = logging.New("gdma")

// Register offsets relative to the frame engine.
const (
	Gdma1MacAdrL = 0x0508
	Gdma1MacAdrH = 0x050C
	GswSmacCr0   = 0xB0E4
	GswSmacCr1   = 0xB0E8
	Gdma1FwdCfg  = 0x0500
	GswMfc       = 0x8010
)

// GswPmcr returns the offset of the switch port MAC control register of a port.
func GswPmcr(port int) uint32 {
	return 0xB000 + uint32(port)*0x100
}

// Bring-up values.
const (
	Gdma1FwdCfgDefault = 0xC0000000
	GswPmcrDefault     = 0x0009E30B
	GswMfcDefault      = 0xFF<<24 | 0xFF<<16 | 0xFF<<8 | 1<<7 | 6<<4
)

// CPU-facing switch ports forced up by Configure.
var CPUPorts = []int{5, 6}

// Configure enables GDMA1 forwarding, forces the CPU-facing switch ports up,
// and floods unknown frames to the CPU port.
// It must precede QDMA initialization.
func Configure(fe mmio.Registers) {
	fe.Write32(Gdma1FwdCfg, Gdma1FwdCfgDefault)
	for _, port := range CPUPorts {
		fe.Write32(GswPmcr(port), GswPmcrDefault)
	}
	fe.Write32(GswMfc, GswMfcDefault)
	logger.Info("frame engine forwarding configured", zap.Ints("cpu-ports", CPUPorts))
}

func split(mac net.HardwareAddr) (lo, hi uint32) {
	lo = uint32(mac[2])<<24 | uint32(mac[3])<<16 | uint32(mac[4])<<8 | uint32(mac[5])
	hi = uint32(mac[0])<<8 | uint32(mac[1])
	return
}

// SetMAC writes mac into the GDMA1 and switch MAC address registers.
func SetMAC(fe mmio.Registers, mac net.HardwareAddr) error {
	if len(mac) != 6 {
		return fmt.Errorf("gdma.SetMAC: %v is not an EUI-48 address", mac)
	}
	lo, hi := split(mac)
	fe.Write32(Gdma1MacAdrL, lo)
	fe.Write32(Gdma1MacAdrH, hi)
	fe.Write32(GswSmacCr0, lo)
	fe.Write32(GswSmacCr1, hi)
	logger.Info("MAC address programmed", zap.Stringer("mac", mac))
	return nil
}

// MAC reads the GDMA1 MAC address.
func MAC(fe mmio.Registers) net.HardwareAddr {
	lo, hi := fe.Read32(Gdma1MacAdrL), fe.Read32(Gdma1MacAdrH)
	return net.HardwareAddr{byte(hi >> 8), byte(hi), byte(lo >> 24), byte(lo >> 16), byte(lo >> 8), byte(lo)}
}
