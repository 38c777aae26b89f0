package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"

	"github.com/en751221/qdma/core/gqlserver"
	"github.com/en751221/qdma/hw/dmamem"
	"github.com/en751221/qdma/hw/gdma"
	"github.com/en751221/qdma/hw/mdio"
	"github.com/en751221/qdma/hw/mmio"
	"github.com/en751221/qdma/hw/uio"
	"github.com/en751221/qdma/metrics"
	"github.com/en751221/qdma/netif"
	"github.com/en751221/qdma/qdma"
	"github.com/en751221/qdma/qdma/csr"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

func init() {
	var doc map[string]any
	defineCommand(&cli.Command{
		Name:  "run",
		Usage: "Run the bridge daemon.",
		Flags: []cli.Flag{configFlag(&doc)},
		Action: func(c *cli.Context) error {
			cfg, e := parseConfig(doc)
			if e != nil {
				return cli.Exit(e, 2)
			}
			return runDaemon(c.Context, cfg)
		},
	})
}

// bridge holds resources of a running bridge.
type bridge struct {
	cfg  Config
	dev  *uio.Device
	fe   *mmio.Mapped
	heap *dmamem.Heap
	sw   netif.Switch
	eng  *qdma.Engine
	taps []*netif.Tap
	http []*http.Server
}

func (d *bridge) open() (e error) {
	if d.dev, e = uio.Open(d.cfg.Uio); e != nil {
		return e
	}
	if d.fe, e = d.dev.Map(d.cfg.FrameEngineMap, d.cfg.RegSwap); e != nil {
		return e
	}
	if d.heap, e = dmamem.NewHugepageHeap(d.cfg.DmaMemSize); e != nil {
		return e
	}

	bus := mdio.New(d.fe, d.cfg.Mdio)
	phys, probeErr := bus.Probe()
	if probeErr != nil {
		logger.Warn("MDIO probe failed", zap.Error(probeErr))
	}
	for _, phy := range phys {
		logger.Info("PHY found", zap.Stringer("phy", phy))
	}

	gdma.Configure(d.fe)
	if d.cfg.MAC != "" {
		mac, _ := net.ParseMAC(d.cfg.MAC)
		if e = gdma.SetMAC(d.fe, mac); e != nil {
			return e
		}
	}

	if d.eng, e = qdma.New(d.cfg.Qdma, mmio.Sub(d.fe, csr.FrameEngineOffset), d.heap, &d.sw); e != nil {
		return e
	}
	qdma.GqlEngine = d.eng

	for _, pc := range d.cfg.Ports {
		port, e := d.eng.AddPort(pc.Port)
		if e != nil {
			return e
		}
		tap, e := netif.New(pc, port)
		if e != nil {
			return e
		}
		d.taps = append(d.taps, tap)
		if drv, e := tap.DriverName(); e == nil {
			logger.Info("TAP created", zap.String("ifname", tap.Name()), zap.String("driver", drv))
		}
		if pc.Port == 0 {
			d.sw.Attach(tap)
		}
		if e = port.Open(); e != nil {
			return e
		}
	}
	return nil
}

func (d *bridge) serve(listen string, h http.Handler, name string) error {
	listener, e := net.Listen("tcp", listen)
	if e != nil {
		return e
	}
	srv := &http.Server{Handler: h}
	d.http = append(d.http, srv)
	logger.Info("HTTP server starting", zap.String("server", name), zap.Stringer("listen", listener.Addr()))
	go func() {
		if e := srv.Serve(listener); !errors.Is(e, http.ErrServerClosed) {
			logger.Error("HTTP server error", zap.String("server", name), zap.Error(e))
		}
	}()
	return nil
}

func (d *bridge) close() (e error) {
	for _, srv := range d.http {
		e = multierr.Append(e, srv.Close())
	}
	d.sw.Attach(nil)
	for _, tap := range d.taps {
		e = multierr.Append(e, tap.Close())
	}
	if d.eng != nil {
		qdma.GqlEngine = nil
		e = multierr.Append(e, d.eng.Close())
	}
	if d.heap != nil {
		e = multierr.Append(e, d.heap.Close())
	}
	if d.fe != nil {
		e = multierr.Append(e, d.fe.Close())
	}
	if d.dev != nil {
		e = multierr.Append(e, d.dev.Close())
	}
	return e
}

func runDaemon(ctx context.Context, cfg Config) (e error) {
	ctx, cancel := signal.NotifyContext(ctx, unix.SIGINT, unix.SIGTERM)
	defer cancel()

	d := &bridge{cfg: cfg}
	defer func() { e = multierr.Append(e, d.close()) }()
	if e = d.open(); e != nil {
		return e
	}

	h, e := gqlserver.NewHandler()
	if e != nil {
		return e
	}
	if e = d.serve(cfg.GqlListen, h, "graphql"); e != nil {
		return e
	}
	if cfg.MetricsListen != "" {
		collector := metrics.NewCollector(d.eng)
		for _, tap := range d.taps {
			collector.AddTap(tap)
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler(metrics.NewRegistry(collector)))
		if e = d.serve(cfg.MetricsListen, mux, "metrics"); e != nil {
			return e
		}
	}

	errs := make(chan error, len(d.taps)+1)
	for _, tap := range d.taps {
		go func(tap *netif.Tap) {
			if e := tap.Run(ctx); e != nil {
				errs <- e
			}
		}(tap)
	}
	engineDone := make(chan struct{})
	go func() {
		defer close(engineDone)
		if e := d.eng.Run(ctx, d.dev); e != nil {
			errs <- e
		}
	}()

	go systemdNotify()
	logger.Info("bridge running", zap.Int("ports", len(d.taps)))

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested by signal")
	case e = <-errs:
		logger.Error("bridge failed", zap.Error(e))
	}
	cancel()
	<-engineDone
	return e
}
