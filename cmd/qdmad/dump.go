package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/en751221/qdma/core/gqlclient"
	"github.com/urfave/cli/v2"
)

const snapshotQuery = `
	query {
		qdma {
			running
			txBound
			rxBound
			rxSpares
			registers { name offset value }
			tx
			rx
			irqQueue
			counters {
				txFrames txOctets txDropped txAllocErrors txReclaimed txReclaimNotDone txReclaimStale
				rxFrames rxOctets rxDropped rxAllocErrors rxSpareMisses rxNotDone
				interrupts spurious irqDrains irqEntries irqFull noRxDesc noTxDesc hwfwdLow hwfwdEmpty
			}
		}
	}
`

type remoteRegister struct {
	Name   string `json:"name"`
	Offset uint32 `json:"offset"`
	Value  string `json:"value"`
}

// remoteSnapshot is a snapshot as rendered by the GraphQL server.
type remoteSnapshot struct {
	Running   bool             `json:"running"`
	TxBound   int              `json:"txBound"`
	RxBound   int              `json:"rxBound"`
	RxSpares  int              `json:"rxSpares"`
	Registers []remoteRegister `json:"registers"`
	Tx        []string         `json:"tx"`
	Rx        []string         `json:"rx"`
	IrqQueue  []string         `json:"irqQueue"`
	Counters  map[string]any   `json:"counters"`
}

func (s remoteSnapshot) register(name string) uint64 {
	for _, r := range s.Registers {
		if r.Name == name {
			v, _ := strconv.ParseUint(r.Value, 0, 32)
			return v
		}
	}
	return 0
}

// writeRings writes both rings in the same layout as qdma.Snapshot.WriteTo.
func (s remoteSnapshot) writeRings(w io.Writer) {
	section := func(kind, cpu, dma string, lines []string) {
		fmt.Fprintf(w, "QDMA %s Descriptors driver_idx=%d hardware_idx=%d\n", kind, s.register(cpu), s.register(dma))
		for i, line := range lines {
			fmt.Fprintf(w, "  %d %s\n", i, line)
		}
	}
	section("RX", "RX_CPU_IDX", "RX_DMA_IDX", s.Rx)
	section("TX", "TX_CPU_IDX", "TX_DMA_IDX", s.Tx)
}

func (s remoteSnapshot) writeRegisters(w io.Writer) {
	for _, r := range s.Registers {
		fmt.Fprintf(w, "%-16s 0x%03x %s\n", r.Name, r.Offset, r.Value)
	}
}

func (s remoteSnapshot) writeIrqQueue(w io.Writer) {
	var live []string
	for i, v := range s.IrqQueue {
		if v != "0xffffffff" {
			live = append(live, fmt.Sprintf("%d:%s", i, v))
		}
	}
	fmt.Fprintf(w, "IRQ queue depth=%d pending=[%s]\n", len(s.IrqQueue), strings.Join(live, " "))
}

func init() {
	var gqlserver string
	var asJSON, registers bool
	defineCommand(&cli.Command{
		Category: "diagnostics",
		Name:     "dump",
		Usage:    "Dump descriptor rings of a running daemon.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "gqlserver",
				Usage:       "GraphQL endpoint `URI`",
				Value:       "http://" + DefaultGqlListen + "/",
				Destination: &gqlserver,
			},
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "print JSON",
				Destination: &asJSON,
			},
			&cli.BoolFlag{
				Name:        "registers",
				Usage:       "include registers and completion queue",
				Destination: &registers,
			},
		},
		Action: func(c *cli.Context) error {
			client, e := gqlclient.New(gqlclient.Config{HTTPUri: gqlserver})
			if e != nil {
				return cli.Exit(e, 2)
			}
			defer client.Close()

			var s *remoteSnapshot
			if e = client.Do(c.Context, snapshotQuery, nil, "qdma", &s); e != nil {
				return cli.Exit(e, 1)
			}
			if s == nil {
				return cli.Exit("QDMA engine not available", 1)
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(s)
			}
			fmt.Printf("running=%t tx_bound=%d rx_bound=%d rx_spares=%d\n", s.Running, s.TxBound, s.RxBound, s.RxSpares)
			s.writeRings(os.Stdout)
			if registers {
				s.writeRegisters(os.Stdout)
				s.writeIrqQueue(os.Stdout)
			}
			return nil
		},
	})
}
