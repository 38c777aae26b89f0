// Package desc encodes and decodes QDMA ring descriptors.
//
// A descriptor is 32 octets: eight 32-bit words, each stored in device byte order.
// Words 0 to 3 are common to both ring kinds; words 4 to 7 hold a payload whose interpretation is selected by the ring kind, never by descriptor contents.
package desc

import (
	"encoding/binary"
)

// Size is the encoded size of a descriptor.
const Size = 32

// Words is the number of 32-bit words in a descriptor.
const Words = Size / 4

// Minimum frame length accepted by the MAC, excluding FCS.
const MinFrameLen = 60

// Desc is a decoded descriptor.
type Desc [Words]uint32

// Codec converts descriptors of one ring kind to and from device memory.
//
// Most words are stored as one 32-bit value in Order. Words that the device defines as a pair of 16-bit fields
// (word 1 of both kinds, TX word 5, RX word 7) are stored as two 16-bit values in Order, bits 31..16 first.
// The two layouts coincide in big endian.
type Codec struct {
	Kind  Kind
	Order binary.ByteOrder
}

// pairWords returns a bitmap of words stored as two 16-bit halves.
func (c Codec) pairWords() uint8 {
	m := uint8(1 << 1)
	switch c.Kind {
	case KindTx:
		m |= 1 << 5
	case KindRx:
		m |= 1 << 7
	}
	return m
}

// Load decodes a descriptor from b.
func (c Codec) Load(b []byte) (d Desc) {
	_ = b[Size-1]
	pairs := c.pairWords()
	for i := range d {
		w := b[i*4:]
		if pairs&(1<<i) != 0 {
			d[i] = uint32(c.Order.Uint16(w))<<16 | uint32(c.Order.Uint16(w[2:]))
		} else {
			d[i] = c.Order.Uint32(w)
		}
	}
	return
}

// Store encodes d into b.
func (c Codec) Store(b []byte, d *Desc) {
	_ = b[Size-1]
	pairs := c.pairWords()
	for i, v := range d {
		w := b[i*4:]
		if pairs&(1<<i) != 0 {
			c.Order.PutUint16(w, uint16(v>>16))
			c.Order.PutUint16(w[2:], uint16(v))
		} else {
			c.Order.PutUint32(w, v)
		}
	}
}

// Done reports whether the device has completed the descriptor.
func (d *Desc) Done() bool {
	return Done.GetBool(d)
}

// SetDone sets or clears the done flag.
func (d *Desc) SetDone(v bool) {
	Done.SetBool(d, v)
}

// Dropped reports whether the device dropped the frame.
func (d *Desc) Dropped() bool {
	return Dropped.GetBool(d)
}

// SetDropped sets or clears the dropped flag.
func (d *Desc) SetDropped(v bool) {
	Dropped.SetBool(d, v)
}

// Nls returns the nls flag.
func (d *Desc) Nls() bool {
	return Nls.GetBool(d)
}

// SetNls sets or clears the nls flag.
func (d *Desc) SetNls(v bool) {
	Nls.SetBool(d, v)
}

// PktLen returns the frame length.
func (d *Desc) PktLen() uint16 {
	return uint16(PktLen.Get(d))
}

// SetPktLen sets the frame length.
func (d *Desc) SetPktLen(v uint16) {
	PktLen.Set(d, uint32(v))
}

// PktAddr returns the buffer bus address.
func (d *Desc) PktAddr() uint32 {
	return d[PktAddr.Word]
}

// SetPktAddr sets the buffer bus address.
func (d *Desc) SetPktAddr(v uint32) {
	d[PktAddr.Word] = v
}

// NextIdx returns the index of the next descriptor in the ring.
func (d *Desc) NextIdx() uint16 {
	return uint16(NextIdx.Get(d))
}

// SetNextIdx sets the index of the next descriptor in the ring.
func (d *Desc) SetNextIdx(v uint16) {
	NextIdx.Set(d, uint32(v))
}

// Tx returns the TX payload view.
func (d *Desc) Tx() TxView {
	return TxView{d}
}

// Rx returns the RX payload view.
func (d *Desc) Rx() RxView {
	return RxView{d}
}

// ClearPayload zeroes words 4 to 7.
func (d *Desc) ClearPayload() {
	for i := 4; i < Words; i++ {
		d[i] = 0
	}
}
