package netif

import (
	"errors"
	"fmt"
	"net"

	"github.com/kballard/go-shellquote"
	"inet.af/netaddr"
)

// DefaultMTU is the TAP MTU when Config.MTU is zero.
const DefaultMTU = 1500

// ErrConfig indicates an invalid TAP configuration.
var ErrConfig = errors.New("invalid netif config")

// Config contains TAP interface settings.
type Config struct {
	// Name is the interface name. Empty lets the kernel choose.
	Name string `json:"name,omitempty"`
	// Port is the QDMA port that transmits frames written to the interface.
	Port int `json:"port"`
	// MTU is the interface MTU.
	MTU int `json:"mtu,omitempty"`
	// MAC is the interface MAC address.
	MAC string `json:"mac,omitempty"`
	// Address is an IP prefix assigned to the interface, such as 192.168.1.1/24.
	Address string `json:"address,omitempty"`
	// UpHook is a shell-quoted command executed after the interface is up.
	// The interface name is passed in the IFNAME environment variable.
	UpHook string `json:"upHook,omitempty"`
}

type parsedConfig struct {
	mtu    int
	mac    net.HardwareAddr
	prefix netaddr.IPPrefix
	hook   []string
}

func (cfg Config) parse() (p parsedConfig, e error) {
	p.mtu = cfg.MTU
	if p.mtu == 0 {
		p.mtu = DefaultMTU
	}
	if p.mtu < 68 || p.mtu > 65535-EthHeaderLen {
		return p, fmt.Errorf("%w: MTU %d", ErrConfig, cfg.MTU)
	}

	if cfg.MAC != "" {
		if p.mac, e = net.ParseMAC(cfg.MAC); e != nil || len(p.mac) != 6 {
			return p, fmt.Errorf("%w: MAC %q", ErrConfig, cfg.MAC)
		}
		if p.mac[0]&0x01 != 0 {
			return p, fmt.Errorf("%w: MAC %s is not unicast", ErrConfig, p.mac)
		}
	}

	if cfg.Address != "" {
		if p.prefix, e = netaddr.ParseIPPrefix(cfg.Address); e != nil {
			return p, fmt.Errorf("%w: address %v", ErrConfig, e)
		}
	}

	if cfg.UpHook != "" {
		if p.hook, e = shellquote.Split(cfg.UpHook); e != nil {
			return p, fmt.Errorf("%w: up hook %v", ErrConfig, e)
		}
	}
	return p, nil
}

// Validate checks the configuration without creating the interface.
func (cfg Config) Validate() error {
	_, e := cfg.parse()
	return e
}
