package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/en751221/qdma/core/yamlflag"
	"github.com/en751221/qdma/hw/mmio"
	"github.com/en751221/qdma/netif"
	"github.com/en751221/qdma/qdma"
	"github.com/en751221/qdma/qdma/qdmasim"
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var errSelftestMismatch = errors.New("received frame differs from transmitted frame")

// selftestFrame builds a UDP datagram whose payload carries the sequence number.
func selftestFrame(port, seq int) []byte {
	eth := layers.Ethernet{
		SrcMAC:       net.HardwareAddr{0x02, 0, 0, 0, 0, byte(port + 1)},
		DstMAC:       net.HardwareAddr{0x02, 0, 0, 0, 0, 0xFF},
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := layers.IPv4{
		Version:  4,
		TTL:      64,
		Protocol: layers.IPProtocolUDP,
		SrcIP:    net.IPv4(192, 168, 1, byte(port+1)),
		DstIP:    net.IPv4(192, 168, 1, 254),
	}
	udp := layers.UDP{SrcPort: 6363, DstPort: layers.UDPPort(6363 + port)}
	udp.SetNetworkLayerForChecksum(&ip)

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	payload := gopacket.Payload(fmt.Sprintf("qdma selftest port=%d seq=%d", port, seq))
	if e := gopacket.SerializeLayers(buf, opts, &eth, &ip, &udp, payload); e != nil {
		logger.Panic("gopacket.SerializeLayers", zap.Error(e))
	}
	return buf.Bytes()
}

// selftestReceiver compares received frames with an expected sequence.
type selftestReceiver struct {
	mu       sync.Mutex
	expected [][]byte
	total    int
	received int
	matched  int
	errs     error
	done     chan struct{}
}

func (r *selftestReceiver) DeliverFrame(f *qdma.RxFrame) {
	defer f.Release()
	r.mu.Lock()
	defer r.mu.Unlock()

	logger.Debug("selftest RX", zap.Int("slot", f.Slot), zap.String("frame", netif.Summary(f.Data)))
	switch {
	case len(r.expected) == 0:
		r.errs = multierr.Append(r.errs, fmt.Errorf("unexpected frame %s", netif.Summary(f.Data)))
		return
	case !bytes.Equal(r.expected[0], f.Data):
		r.errs = multierr.Append(r.errs, fmt.Errorf("%w: %s", errSelftestMismatch, netif.Summary(f.Data)))
	default:
		r.matched++
	}
	r.expected = r.expected[1:]
	if r.received++; r.received == r.total {
		close(r.done)
	}
}

func (r *selftestReceiver) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.received
}

func (r *selftestReceiver) expect(frame []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.expected = append(r.expected, frame)
}

// selftestInjectPoll bounds the wait for the engine to acknowledge the previous RX completion.
var selftestInjectPoll = mmio.PollConfig{Timeout: 1000, Interval: 20, MaxInterval: 1000}

const selftestTimeout = 5 * time.Second

// loopback feeds every transmitted frame back into the RX ring.
func loopback(dev *qdmasim.Device, sent []qdmasim.TxRecord, r *selftestReceiver) error {
	for _, rec := range sent {
		frame := rec.Frame[:rec.Desc.PktLen()]
		r.expect(frame)
		var e error
		_, _, ok := mmio.Until(selftestInjectPoll, func() (uint32, bool) {
			_, e = dev.InjectRx(frame, nil)
			return 0, !errors.Is(e, qdmasim.ErrRxPending) && !errors.Is(e, qdmasim.ErrNoRxDesc)
		})
		if !ok || e != nil {
			return fmt.Errorf("inject slot %d: %w", rec.Slot, e)
		}
	}
	return nil
}

func runSelftest(ctx context.Context, cfg qdma.Config, nFrames int) (cnt qdma.Counters, e error) {
	dev := qdmasim.New(qdmasim.Config{MemSize: 4 << 20, DescLittleEndian: cfg.DescLittleEndian})
	recv := &selftestReceiver{total: nFrames, done: make(chan struct{})}
	eng, e := qdma.New(cfg, dev.Regs, dev.Mem, recv)
	if e != nil {
		return cnt, e
	}
	defer eng.Close()

	var ports []*qdma.Port
	for id := range qdma.MaxPorts {
		p, e := eng.AddPort(id)
		if e != nil {
			return cnt, e
		}
		if e = p.Open(); e != nil {
			return cnt, e
		}
		ports = append(ports, p)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	runErr := make(chan error, 1)
	go func() { runErr <- eng.Run(ctx, dev) }()

	for seq := range nFrames {
		port := seq % len(ports)
		if e = ports[port].Transmit(selftestFrame(port, seq), nil); e != nil {
			return eng.Counters(), fmt.Errorf("transmit %d: %w", seq, e)
		}
		if e = loopback(dev, dev.Sent(), recv); e != nil {
			return eng.Counters(), e
		}
	}

	if nFrames > 0 {
		select {
		case <-recv.done:
		case <-time.After(selftestTimeout):
			return eng.Counters(), fmt.Errorf("%d frames not received", nFrames-recv.count())
		case <-ctx.Done():
			return eng.Counters(), ctx.Err()
		case e = <-runErr:
			return eng.Counters(), e
		}
	}
	cancel()
	if e = <-runErr; e != nil {
		return eng.Counters(), e
	}

	eng.Snapshot().WriteTo(os.Stdout)
	recv.mu.Lock()
	defer recv.mu.Unlock()
	if recv.matched != nFrames {
		e = multierr.Append(recv.errs, fmt.Errorf("matched %d of %d frames", recv.matched, nFrames))
	}
	return eng.Counters(), e
}

func init() {
	var cfg qdma.Config
	var nFrames int
	defineCommand(&cli.Command{
		Category: "diagnostics",
		Name:     "selftest",
		Usage:    "Exercise the engine against the simulated QDMA block.",
		Flags: []cli.Flag{
			&cli.GenericFlag{
				Name:  "qdma",
				Usage: "QDMA engine configuration (YAML or @filename)",
				Value: yamlflag.New(&cfg),
			},
			&cli.IntFlag{
				Name:        "frames",
				Aliases:     []string{"n"},
				Usage:       "number of frames to loop back",
				Value:       64,
				Destination: &nFrames,
			},
		},
		Action: func(c *cli.Context) error {
			cnt, e := runSelftest(c.Context, cfg, nFrames)
			fmt.Println(cnt)
			if e != nil {
				return cli.Exit(e, 1)
			}
			fmt.Println("selftest OK")
			return nil
		},
	})
}
