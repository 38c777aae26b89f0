// Package testenv provides general test utilities.
package testenv

import (
	"encoding/hex"
	"fmt"
	"math/rand"
	"strings"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MakeAR creates testify assert and require objects.
func MakeAR(t require.TestingT) (*assert.Assertions, *require.Assertions) {
	return assert.New(t), require.New(t)
}

// BytesFromHex converts a hexadecimal string to a byte slice.
// The octets must be written as upper case.
// All characters other than [0-9A-F] are considered comments and stripped.
func BytesFromHex(input string) []byte {
	s := strings.Map(func(ch rune) rune {
		if strings.ContainsRune("0123456789ABCDEF", ch) {
			return ch
		}
		return -1
	}, input)
	decoded, e := hex.DecodeString(s)
	if e != nil {
		panic(fmt.Errorf("hex.DecodeString error %w", e))
	}
	return decoded
}

// RandFrame returns a frame of n octets with a random payload.
// The first 12 octets are a unicast destination and source address, so the frame is accepted by Ethernet decoders.
func RandFrame(n int) []byte {
	b := make([]byte, n)
	rand.Read(b)
	if n >= 12 {
		copy(b[0:12], []byte{0x02, 0, 0, 0, 0, 0x01, 0x02, 0, 0, 0, 0, 0x02})
	}
	if n >= 14 {
		b[12], b[13] = 0x88, 0xB5 // local experimental EtherType
	}
	return b
}
