package main

import (
	"context"
	"strings"
	"testing"

	"github.com/en751221/qdma/core/gqlserver"
	"github.com/en751221/qdma/core/jsonhelper"
	"github.com/en751221/qdma/netif"
	"github.com/en751221/qdma/qdma"
	"github.com/en751221/qdma/qdma/qdmasim"
	"github.com/graphql-go/graphql"
)

func TestSelftestFrame(t *testing.T) {
	assert, _ := makeAR(t)
	f := selftestFrame(1, 7)
	assert.True(strings.HasPrefix(netif.Summary(f), "02:00:00:00:00:02>02:00:00:00:00:ff 0800 IPv4 UDP"))
	assert.NotEqual(f, selftestFrame(1, 8))
}

func TestSelftest(t *testing.T) {
	assert, require := makeAR(t)

	cnt, e := runSelftest(context.Background(), qdma.Config{}, 24)
	require.NoError(e)
	assert.EqualValues(24, cnt.TxFrames)
	assert.EqualValues(24, cnt.RxFrames)
	assert.Zero(cnt.RxDropped)
	assert.Zero(cnt.TxDropped)

	cnt, e = runSelftest(context.Background(), qdma.Config{DescLittleEndian: true, TxRingLen: 8, RxRingLen: 8}, 10)
	require.NoError(e)
	assert.EqualValues(10, cnt.RxFrames)
}

func TestRemoteSnapshot(t *testing.T) {
	assert, require := makeAR(t)

	dev := qdmasim.New(qdmasim.Config{})
	eng, e := qdma.New(qdma.Config{}, dev.Regs, dev.Mem, nil)
	require.NoError(e)
	defer eng.Close()
	p, e := eng.AddPort(0)
	require.NoError(e)
	require.NoError(p.Open())
	require.NoError(p.Transmit(selftestFrame(0, 0), nil))

	qdma.GqlEngine = eng
	defer func() { qdma.GqlEngine = nil }()
	schema, e := gqlserver.NewSchema()
	require.NoError(e)
	res := graphql.Do(graphql.Params{Schema: *schema, RequestString: snapshotQuery})
	require.Empty(res.Errors)

	var s remoteSnapshot
	require.NoError(jsonhelper.Roundtrip(res.Data.(map[string]any)["qdma"], &s))
	assert.True(s.Running)
	assert.Equal(1, s.TxBound)
	assert.Len(s.IrqQueue, 20)

	var local, remote strings.Builder
	eng.Snapshot().WriteTo(&local)
	s.writeRings(&remote)
	assert.Equal(local.String(), remote.String())

	var regs strings.Builder
	s.writeRegisters(&regs)
	assert.Contains(regs.String(), "GLB_CFG          0x004 0x1c080075")
	var irq strings.Builder
	s.writeIrqQueue(&irq)
	assert.Equal("IRQ queue depth=20 pending=[0:0x00000000]\n", irq.String())
}
