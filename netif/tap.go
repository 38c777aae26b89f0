// Package netif bridges QDMA ports to Linux TAP interfaces.
//
// Frames written to the TAP interface by the kernel are transmitted on a QDMA port.
// Frames received by the engine are written to the TAP interface.
package netif

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync/atomic"

	"github.com/en751221/qdma/core/logging"
	"github.com/en751221/qdma/qdma"
	"github.com/safchain/ethtool"
	"github.com/songgao/water"
	"github.com/vishvananda/netlink"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go4.org/must"
)

var logger = logging.New("netif")

// Counters contains TAP bridge counters.
type Counters struct {
	RxFrames uint64 `json:"rxFrames"` // frames written to the interface
	RxErrors uint64 `json:"rxErrors"` // frames that could not be written
	TxFrames uint64 `json:"txFrames"` // frames submitted to the port
	TxErrors uint64 `json:"txErrors"` // frames rejected by the port
}

// Tap is a TAP interface attached to a QDMA port.
type Tap struct {
	cfg    Config
	intf   *water.Interface
	link   netlink.Link
	port   *qdma.Port
	mtu    int
	logger *zap.Logger

	rxFrames, rxErrors atomic.Uint64
	txFrames, txErrors atomic.Uint64
	closing            atomic.Bool
}

var _ qdma.Receiver = (*Tap)(nil)

// New creates a TAP interface and configures it with netlink.
func New(cfg Config, port *qdma.Port) (t *Tap, e error) {
	p, e := cfg.parse()
	if e != nil {
		return nil, e
	}

	wcfg := water.Config{DeviceType: water.TAP}
	wcfg.Name = cfg.Name
	intf, e := water.New(wcfg)
	if e != nil {
		return nil, fmt.Errorf("water.New: %w", e)
	}
	defer func() {
		if e != nil {
			must.Close(intf)
		}
	}()

	t = &Tap{
		cfg:    cfg,
		intf:   intf,
		port:   port,
		mtu:    p.mtu,
		logger: logger.With(zap.String("ifname", intf.Name()), zap.Int("port", port.ID())),
	}
	if e = t.setup(p); e != nil {
		return nil, e
	}
	return t, nil
}

func (t *Tap) setup(p parsedConfig) (e error) {
	name := t.intf.Name()
	if t.link, e = netlink.LinkByName(name); e != nil {
		return fmt.Errorf("netlink.LinkByName(%s): %w", name, e)
	}
	if e = netlink.LinkSetMTU(t.link, p.mtu); e != nil {
		return fmt.Errorf("netlink.LinkSetMTU(%s,%d): %w", name, p.mtu, e)
	}
	if p.mac != nil {
		if e = netlink.LinkSetHardwareAddr(t.link, p.mac); e != nil {
			return fmt.Errorf("netlink.LinkSetHardwareAddr(%s,%s): %w", name, p.mac, e)
		}
	}
	if !p.prefix.IsZero() {
		if e = netlink.AddrAdd(t.link, &netlink.Addr{IPNet: p.prefix.IPNet()}); e != nil {
			return fmt.Errorf("netlink.AddrAdd(%s,%s): %w", name, p.prefix, e)
		}
	}
	if e = netlink.LinkSetUp(t.link); e != nil {
		return fmt.Errorf("netlink.LinkSetUp(%s): %w", name, e)
	}
	t.logger.Info("TAP interface up", zap.Int("mtu", p.mtu), zap.Stringer("mac", p.mac), zap.Stringer("address", p.prefix))

	if len(p.hook) > 0 {
		cmd := exec.Command(p.hook[0], p.hook[1:]...)
		cmd.Env = append(os.Environ(), "IFNAME="+name)
		if out, e := cmd.CombinedOutput(); e != nil {
			t.logger.Error("up hook failed", zap.Strings("hook", p.hook), zap.ByteString("output", out), zap.Error(e))
			return fmt.Errorf("up hook: %w", e)
		}
	}
	return nil
}

// Name returns the interface name.
func (t *Tap) Name() string {
	return t.intf.Name()
}

// DriverName queries the kernel driver of the interface.
func (t *Tap) DriverName() (string, error) {
	etht, e := ethtool.NewEthtool()
	if e != nil {
		return "", fmt.Errorf("ethtool.NewEthtool: %w", e)
	}
	defer etht.Close()
	return etht.DriverName(t.Name())
}

// Counters returns bridge counters.
func (t *Tap) Counters() Counters {
	return Counters{
		RxFrames: t.rxFrames.Load(),
		RxErrors: t.rxErrors.Load(),
		TxFrames: t.txFrames.Load(),
		TxErrors: t.txErrors.Load(),
	}
}

// DeliverFrame implements qdma.Receiver.
// It writes the frame to the interface and releases it.
func (t *Tap) DeliverFrame(f *qdma.RxFrame) {
	defer f.Release()
	if ce := t.logger.Check(zap.DebugLevel, "RX"); ce != nil {
		ce.Write(zap.Int("slot", f.Slot), zap.String("frame", Summary(f.Data)))
	}
	if _, e := t.intf.Write(f.Data); e != nil {
		t.rxErrors.Add(1)
		if !t.closing.Load() {
			t.logger.Warn("TAP write error", zap.Error(e))
		}
		return
	}
	t.rxFrames.Add(1)
}

// Run reads frames from the interface and transmits them on the port until ctx is cancelled or the Tap is closed.
func (t *Tap) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		t.Close()
	}()

	buf := make([]byte, t.mtu+EthHeaderLen)
	for {
		n, e := t.intf.Read(buf)
		if e != nil {
			if t.closing.Load() {
				return nil
			}
			return fmt.Errorf("TAP read: %w", e)
		}
		if ce := t.logger.Check(zap.DebugLevel, "TX"); ce != nil {
			ce.Write(zap.String("frame", Summary(buf[:n])))
		}
		switch e := t.port.Transmit(buf[:n], nil); {
		case e == nil:
			t.txFrames.Add(1)
		case errors.Is(e, qdma.ErrClosed):
			t.txErrors.Add(1)
			t.logger.Debug("port closed, frame dropped")
		default:
			t.txErrors.Add(1)
			t.logger.Warn("port transmit error", zap.Error(e))
		}
	}
}

// Close removes the interface.
func (t *Tap) Close() error {
	if !t.closing.CompareAndSwap(false, true) {
		return nil
	}
	var e error
	if t.link != nil {
		e = multierr.Append(e, netlink.LinkSetDown(t.link))
	}
	return multierr.Append(e, t.intf.Close())
}

// Switch is a qdma.Receiver that forwards frames to an attached Tap.
// Frames are released when no Tap is attached.
type Switch struct {
	tap atomic.Pointer[Tap]
}

var _ qdma.Receiver = (*Switch)(nil)

// Attach sets the Tap that receives frames; nil detaches.
func (s *Switch) Attach(t *Tap) {
	s.tap.Store(t)
}

// DeliverFrame implements qdma.Receiver.
func (s *Switch) DeliverFrame(f *qdma.RxFrame) {
	if t := s.tap.Load(); t != nil {
		t.DeliverFrame(f)
		return
	}
	f.Release()
}
