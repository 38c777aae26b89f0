package main

import (
	"testing"

	"github.com/en751221/qdma/core/testenv"
	"github.com/en751221/qdma/core/yamlflag"
	"github.com/en751221/qdma/hw/dmamem"
)

var makeAR = testenv.MakeAR

func parseYAML(t *testing.T, text string) (Config, error) {
	var doc map[string]any
	if e := yamlflag.New(&doc).Set(text); e != nil {
		t.Fatal(e)
	}
	return parseConfig(doc)
}

func TestConfig(t *testing.T) {
	assert, require := makeAR(t)

	cfg, e := parseYAML(t, `
uio: 1
frameEngineMap: 0
qdma:
  txRingLen: 64
  rxRingLen: 32
  stopPoll:
    iterations: 5
    interval: 1ms
ports:
  - port: 0
    name: qdma0
    mac: "02:00:00:00:00:01"
    address: 192.168.1.1/24
  - port: 1
    mtu: 1400
metricsListen: 127.0.0.1:9100
`)
	require.NoError(e)
	assert.Equal(1, cfg.Uio)
	assert.Equal(4*dmamem.HugepageSize, cfg.DmaMemSize)
	assert.Equal(DefaultGqlListen, cfg.GqlListen)
	assert.Equal("127.0.0.1:9100", cfg.MetricsListen)
	assert.Equal("02:00:00:00:00:01", cfg.MAC)
	assert.Equal(64, cfg.Qdma.TxRingLen)
	assert.Equal(32, cfg.Qdma.RxRingLen)
	assert.Equal(128, cfg.Qdma.BurstSize)
	assert.Equal(5, cfg.Qdma.StopPoll.Iterations)
	assert.EqualValues(1000, cfg.Qdma.StopPoll.Interval)
	require.Len(cfg.Ports, 2)
	assert.Equal("qdma0", cfg.Ports[0].Name)
	assert.Equal(1400, cfg.Ports[1].MTU)
}

func TestConfigErrors(t *testing.T) {
	assert, _ := makeAR(t)

	_, e := parseYAML(t, `uio: 0`)
	assert.ErrorAs(e, &schemaError{})

	_, e = parseYAML(t, `
ports: [{ port: 0 }]
unknown: 1
`)
	assert.ErrorAs(e, &schemaError{})

	_, e = parseYAML(t, `
ports: [{ port: 2 }]
`)
	assert.ErrorAs(e, &schemaError{})

	_, e = parseYAML(t, `
qdma: { burstSize: 48 }
ports: [{ port: 0 }]
`)
	assert.ErrorAs(e, &schemaError{})

	_, e = parseYAML(t, `
ports: [{ port: 0 }, { port: 0 }]
`)
	assert.ErrorContains(e, "duplicate port")

	_, e = parseYAML(t, `
qdma: { txRingLen: 1 }
ports: [{ port: 0 }]
`)
	assert.ErrorContains(e, "TxRingLen")

	_, e = parseYAML(t, `
dmaMemSize: 1000
ports: [{ port: 0 }]
`)
	assert.ErrorContains(e, "dmaMemSize")

	_, e = parseYAML(t, `
mac: "not-a-mac"
ports: [{ port: 0 }]
`)
	assert.ErrorContains(e, "mac")

	_, e = parseYAML(t, `
ports: [{ port: 0, mtu: 20 }]
`)
	assert.Error(e)
}
