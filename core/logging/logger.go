// Package logging is a thin wrapper of zap logging library.
package logging

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var root = func() *zap.Logger {
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		os.Stderr,
		zap.DebugLevel,
	)
	return zap.New(core)
}()

// New creates a logger.
// By convention, this should appear in the same .go file as the package docstring:
//
//	var logger = logging.New("Foo")
func New(pkg string) *zap.Logger {
	return root.Named(pkg).
		WithOptions(zap.IncreaseLevel(zap.NewAtomicLevelAt(ParseLevel(GetLevel(pkg)))))
}

// GetLevel returns configured log level of a package as a letter.
// It reads QDMA_LOG_<PKG> environment variable, falling back to QDMA_LOG.
func GetLevel(pkg string) rune {
	lvl, ok := os.LookupEnv("QDMA_LOG_" + strings.ToUpper(pkg))
	if !ok {
		lvl, ok = os.LookupEnv("QDMA_LOG")
	}
	if !ok || len(lvl) == 0 {
		return 0
	}
	return rune(lvl[0])
}

// ParseLevel converts a level letter to zapcore.Level.
// Unknown letters map to InfoLevel.
func ParseLevel(lvl rune) zapcore.Level {
	switch lvl {
	case 'V', 'D':
		return zapcore.DebugLevel
	case 'I':
		return zapcore.InfoLevel
	case 'W':
		return zapcore.WarnLevel
	case 'E':
		return zapcore.ErrorLevel
	case 'F', 'N':
		return zapcore.DPanicLevel
	}
	return zapcore.InfoLevel
}

// Hex32 constructs a field that renders a 32-bit register value in hexadecimal.
func Hex32(key string, v uint32) zap.Field {
	return zap.Stringer(key, Hex(v))
}

// Hex is a 32-bit value printed as 0x%08x.
type Hex uint32

func (v Hex) String() string {
	const digits = "0123456789abcdef"
	b := []byte("0x00000000")
	for i := 9; i >= 2; i-- {
		b[i] = digits[v&0xF]
		v >>= 4
	}
	return string(b)
}
