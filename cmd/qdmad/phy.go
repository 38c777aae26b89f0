package main

import (
	"fmt"

	"github.com/en751221/qdma/hw/mdio"
	"github.com/en751221/qdma/hw/mmio"
	"github.com/en751221/qdma/hw/uio"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
)

type phyFlags struct {
	uio, feMap int
	regSwap    bool
	phy, reg   int
	value      int
}

// withBus opens the frame engine and runs f on its MDIO bus.
func (pf *phyFlags) withBus(f func(bus *mdio.Bus) error) (e error) {
	dev, e := uio.Open(pf.uio)
	if e != nil {
		return e
	}
	defer func() { e = multierr.Append(e, dev.Close()) }()

	fe, e := dev.Map(pf.feMap, pf.regSwap)
	if e != nil {
		return e
	}
	defer func() { e = multierr.Append(e, fe.Close()) }()

	return f(mdio.New(fe, mmio.PollConfig{}))
}

func init() {
	var pf phyFlags
	deviceFlags := []cli.Flag{
		&cli.IntFlag{Name: "uio", Usage: "UIO device minor number", Destination: &pf.uio},
		&cli.IntFlag{Name: "map", Usage: "frame engine map index", Destination: &pf.feMap},
		&cli.BoolFlag{Name: "regswap", Usage: "byte-swapped register access", Destination: &pf.regSwap},
	}
	addrFlags := []cli.Flag{
		&cli.IntFlag{Name: "phy", Usage: "PHY address", Required: true, Destination: &pf.phy},
		&cli.IntFlag{Name: "reg", Usage: "register number", Required: true, Destination: &pf.reg},
	}

	defineCommand(&cli.Command{
		Category: "diagnostics",
		Name:     "phy",
		Usage:    "Access Ethernet PHY registers over MDIO.",
		Flags:    deviceFlags,
		Subcommands: []*cli.Command{
			{
				Name:  "probe",
				Usage: "List PHYs that respond on the bus.",
				Action: func(c *cli.Context) error {
					return pf.withBus(func(bus *mdio.Bus) error {
						phys, e := bus.Probe()
						for _, phy := range phys {
							fmt.Println(phy)
						}
						return e
					})
				},
			},
			{
				Name:  "read",
				Usage: "Read a PHY register.",
				Flags: addrFlags,
				Action: func(c *cli.Context) error {
					return pf.withBus(func(bus *mdio.Bus) error {
						v, e := bus.Read(pf.phy, pf.reg)
						if e != nil {
							return e
						}
						fmt.Printf("0x%04x\n", v)
						return nil
					})
				},
			},
			{
				Name:  "write",
				Usage: "Write a PHY register.",
				Flags: append(append([]cli.Flag{}, addrFlags...),
					&cli.IntFlag{Name: "value", Usage: "16-bit value", Required: true, Destination: &pf.value}),
				Action: func(c *cli.Context) error {
					if pf.value < 0 || pf.value > 0xFFFF {
						return cli.Exit(fmt.Sprintf("value 0x%x exceeds 16 bits", pf.value), 2)
					}
					return pf.withBus(func(bus *mdio.Bus) error {
						return bus.Write(pf.phy, pf.reg, uint16(pf.value))
					})
				},
			},
		},
	})
}
