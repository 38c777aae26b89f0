package logging_test

import (
	"testing"

	"github.com/en751221/qdma/core/logging"
	"github.com/en751221/qdma/core/testenv"
	"go.uber.org/zap/zapcore"
)

var makeAR = testenv.MakeAR

func TestGetLevel(t *testing.T) {
	assert, _ := makeAR(t)

	t.Setenv("QDMA_LOG", "W")
	t.Setenv("QDMA_LOG_MDIO", "DEBUG")
	assert.Equal('W', logging.GetLevel("qdma"))
	assert.Equal('D', logging.GetLevel("mdio"))

	assert.Equal(zapcore.DebugLevel, logging.ParseLevel('V'))
	assert.Equal(zapcore.ErrorLevel, logging.ParseLevel('E'))
	assert.Equal(zapcore.InfoLevel, logging.ParseLevel('?'))
	assert.Equal(zapcore.InfoLevel, logging.ParseLevel(0))
}

func TestHex(t *testing.T) {
	assert, _ := makeAR(t)

	assert.Equal("0x00000203", logging.Hex(0x0203).String())
	assert.Equal("0xffffffff", logging.Hex(0xFFFFFFFF).String())

	f := logging.Hex32("status", 0x80000000)
	assert.Equal("status", f.Key)
	assert.Equal(logging.Hex(0x80000000), f.Interface)
}
