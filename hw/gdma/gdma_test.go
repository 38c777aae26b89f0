package gdma_test

import (
	"net"
	"testing"

	"github.com/en751221/qdma/core/testenv"
	"github.com/en751221/qdma/hw/gdma"
	"github.com/en751221/qdma/hw/mmio"
)

var makeAR = testenv.MakeAR

func TestSetMAC(t *testing.T) {
	assert, require := makeAR(t)
	fe := mmio.NewSim()

	mac, _ := net.ParseMAC("02:11:22:33:44:55")
	require.NoError(gdma.SetMAC(fe, mac))
	assert.EqualValues(0x22334455, fe.Peek(gdma.Gdma1MacAdrL))
	assert.EqualValues(0x0211, fe.Peek(gdma.Gdma1MacAdrH))
	assert.EqualValues(0x22334455, fe.Peek(gdma.GswSmacCr0))
	assert.EqualValues(0x0211, fe.Peek(gdma.GswSmacCr1))
	assert.Equal(mac, gdma.MAC(fe))

	assert.Error(gdma.SetMAC(fe, net.HardwareAddr{1, 2, 3}))
}

func TestConfigure(t *testing.T) {
	assert, _ := makeAR(t)
	fe := mmio.NewSim()

	gdma.Configure(fe)
	assert.EqualValues(0xC0000000, fe.Peek(0x0500))
	assert.EqualValues(0x0009E30B, fe.Peek(0xB500))
	assert.EqualValues(0x0009E30B, fe.Peek(0xB600))
	assert.EqualValues(0xFFFFFFE0, fe.Peek(0x8010))
	assert.Zero(fe.Peek(gdma.Gdma1MacAdrL))
}
