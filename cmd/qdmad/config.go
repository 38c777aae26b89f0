package main

import (
	_ "embed"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/en751221/qdma/core/jsonhelper"
	"github.com/en751221/qdma/core/yamlflag"
	"github.com/en751221/qdma/hw/dmamem"
	"github.com/en751221/qdma/hw/mmio"
	"github.com/en751221/qdma/netif"
	"github.com/en751221/qdma/qdma"
	"github.com/urfave/cli/v2"
	"github.com/xeipuuv/gojsonschema"
)

//go:embed qdmad.schema.json
var configSchema string

// Config contains daemon configuration.
type Config struct {
	// Uio is the minor number of the /dev/uioN device that exposes the frame engine.
	Uio int `json:"uio"`
	// FrameEngineMap is the UIO memory map index of the frame engine registers.
	FrameEngineMap int `json:"frameEngineMap"`
	// RegSwap selects byte-swapped register access.
	RegSwap bool `json:"regSwap,omitempty"`
	// DmaMemSize is the size of the hugepage DMA heap.
	DmaMemSize int `json:"dmaMemSize,omitempty"`
	// MAC is programmed into the GDMA1 and switch MAC registers.
	// The default is the MAC of the port 0 interface, if set.
	MAC string `json:"mac,omitempty"`

	Qdma  qdma.Config     `json:"qdma"`
	Mdio  mmio.PollConfig `json:"mdio,omitempty"`
	Ports []netif.Config  `json:"ports"`

	// GqlListen is the GraphQL server listen address.
	GqlListen string `json:"gqlListen,omitempty"`
	// MetricsListen is the Prometheus exporter listen address. Empty disables the exporter.
	MetricsListen string `json:"metricsListen,omitempty"`
}

// DefaultGqlListen is the default GraphQL listen address.
const DefaultGqlListen = "127.0.0.1:3030"

func (cfg *Config) applyDefaults() {
	if cfg.DmaMemSize <= 0 {
		cfg.DmaMemSize = 4 * dmamem.HugepageSize
	}
	if cfg.GqlListen == "" {
		cfg.GqlListen = DefaultGqlListen
	}
	if cfg.MAC == "" {
		for _, p := range cfg.Ports {
			if p.Port == 0 {
				cfg.MAC = p.MAC
			}
		}
	}
	cfg.Qdma.ApplyDefaults()
}

func (cfg Config) validate() (e error) {
	if cfg.DmaMemSize%dmamem.HugepageSize != 0 {
		return fmt.Errorf("dmaMemSize %d is not a multiple of %d", cfg.DmaMemSize, dmamem.HugepageSize)
	}
	if cfg.MAC != "" {
		if _, e := net.ParseMAC(cfg.MAC); e != nil {
			return fmt.Errorf("mac: %w", e)
		}
	}
	if e = cfg.Qdma.Validate(); e != nil {
		return fmt.Errorf("qdma: %w", e)
	}

	if len(cfg.Ports) == 0 {
		return errors.New("no ports configured")
	}
	var seen [qdma.MaxPorts]bool
	for i, p := range cfg.Ports {
		if p.Port < 0 || p.Port >= qdma.MaxPorts {
			return fmt.Errorf("ports[%d]: port %d out of range", i, p.Port)
		}
		if seen[p.Port] {
			return fmt.Errorf("ports[%d]: duplicate port %d", i, p.Port)
		}
		seen[p.Port] = true
		if e = p.Validate(); e != nil {
			return fmt.Errorf("ports[%d]: %w", i, e)
		}
	}
	return nil
}

type schemaError struct {
	*gojsonschema.Result
}

func (e schemaError) Error() string {
	var b strings.Builder
	fmt.Fprintln(&b, "configuration failed schema validation:")
	for _, desc := range e.Result.Errors() {
		fmt.Fprintln(&b, "-", desc)
	}
	return b.String()
}

// parseConfig validates a generic document against the schema, then converts it to Config.
func parseConfig(doc map[string]any) (cfg Config, e error) {
	result, e := gojsonschema.Validate(gojsonschema.NewStringLoader(configSchema), gojsonschema.NewGoLoader(doc))
	if e != nil {
		return cfg, fmt.Errorf("JSON schema validator: %w", e)
	}
	if !result.Valid() {
		return cfg, schemaError{result}
	}

	if e = jsonhelper.Roundtrip(doc, &cfg, jsonhelper.DisallowUnknownFields); e != nil {
		return cfg, e
	}
	cfg.applyDefaults()
	return cfg, cfg.validate()
}

// configFlag returns a flag that reads a YAML configuration document into doc.
func configFlag(doc *map[string]any) cli.Flag {
	return &cli.GenericFlag{
		Name:     "config",
		Aliases:  []string{"c"},
		Usage:    "YAML configuration, or @filename",
		Value:    yamlflag.New(doc),
		Required: true,
	}
}
