package qdma

import (
	"encoding/binary"
	"fmt"

	"github.com/en751221/qdma/hw/mmio"
	"github.com/en751221/qdma/qdma/csr"
	"github.com/en751221/qdma/qdma/desc"
)

// Config contains Engine configuration.
// Zero values are replaced with defaults by ApplyDefaults.
type Config struct {
	// TxRingLen is the number of TX descriptors.
	TxRingLen int `json:"txRingLen,omitempty"`
	// RxRingLen is the number of RX descriptors.
	RxRingLen int `json:"rxRingLen,omitempty"`

	// RxBufferSize is the size of each RX buffer.
	RxBufferSize int `json:"rxBufferSize,omitempty"`
	// RxExpectedLen is the expected payload length written into a posted RX descriptor.
	RxExpectedLen int `json:"rxExpectedLen,omitempty"`

	// RxSpares is the number of pre-mapped replacement RX buffers.
	RxSpares int `json:"rxSpares,omitempty"`
	// RxInlineAlloc allocates replacement RX buffers inside Dispatch instead of using spares.
	RxInlineAlloc bool `json:"rxInlineAlloc,omitempty"`

	// HwfwdDescs is the number of hardware-forwarding scratch descriptors.
	HwfwdDescs int `json:"hwfwdDescs,omitempty"`
	// HwfwdBufferSize is the size of the hardware-forwarding buffer.
	HwfwdBufferSize int `json:"hwfwdBufferSize,omitempty"`
	// LmgrInitValue is the initial line manager configuration.
	LmgrInitValue uint32 `json:"lmgrInitValue,omitempty"`
	// LmgrPoll bounds the wait for the line manager start bit.
	LmgrPoll mmio.PollConfig `json:"lmgrPoll,omitempty"`

	// IrqQueueDepth is the number of TX completion queue entries.
	IrqQueueDepth int `json:"irqQueueDepth,omitempty"`

	// StopPoll bounds the wait for DMA busy bits during teardown.
	StopPoll mmio.PollConfig `json:"stopPoll,omitempty"`

	// DescLittleEndian selects little endian descriptors; the default is big endian.
	DescLittleEndian bool `json:"descLittleEndian,omitempty"`
	// BurstSize is the DMA burst size in octets: 16, 32, 64, or 128.
	BurstSize int `json:"burstSize,omitempty"`
	// GlbCfgExtra contains additional GLB_CFG bits, such as loopback modes.
	GlbCfgExtra uint32 `json:"glbCfgExtra,omitempty"`
	// IntMask is the set of enabled interrupt conditions.
	IntMask uint32 `json:"intMask,omitempty"`
}

// ApplyDefaults applies defaults to zero values.
func (cfg *Config) ApplyDefaults() {
	setDefault(&cfg.TxRingLen, csr.DefaultTxRingLen)
	setDefault(&cfg.RxRingLen, csr.DefaultRxRingLen)
	setDefault(&cfg.RxBufferSize, 2000)
	setDefault(&cfg.RxExpectedLen, 1518)
	setDefault(&cfg.RxSpares, 4)
	setDefault(&cfg.HwfwdDescs, csr.DefaultHwfwdDescs)
	setDefault(&cfg.HwfwdBufferSize, csr.DefaultHwfwdBufSize)
	setDefault(&cfg.IrqQueueDepth, csr.DefaultIrqQueueDepth)
	setDefault(&cfg.BurstSize, 128)
	if cfg.LmgrInitValue == 0 {
		cfg.LmgrInitValue = csr.LmgrDefaultValue
	}
	if cfg.LmgrPoll == (mmio.PollConfig{}) {
		cfg.LmgrPoll.Iterations = 100
	}
	if cfg.StopPoll == (mmio.PollConfig{}) {
		cfg.StopPoll.Iterations = 10
		cfg.StopPoll.Interval = 20000
	}
	if cfg.IntMask == 0 {
		cfg.IntMask = csr.IntDefaultMask
	}
}

func setDefault(p *int, v int) {
	if *p <= 0 {
		*p = v
	}
}

// Validate checks that the configuration can be programmed into hardware.
func (cfg Config) Validate() error {
	maxRing := int(desc.NextIdx.Max()) + 1
	switch {
	case cfg.TxRingLen < 2 || cfg.TxRingLen > maxRing:
		return fmt.Errorf("%w: TxRingLen %d out of range [2,%d]", ErrInvalidConfig, cfg.TxRingLen, maxRing)
	case cfg.RxRingLen < 2 || cfg.RxRingLen > maxRing:
		return fmt.Errorf("%w: RxRingLen %d out of range [2,%d]", ErrInvalidConfig, cfg.RxRingLen, maxRing)
	case cfg.RxExpectedLen < desc.MinFrameLen || cfg.RxExpectedLen > int(desc.PktLen.Max()):
		return fmt.Errorf("%w: RxExpectedLen %d out of range", ErrInvalidConfig, cfg.RxExpectedLen)
	case cfg.RxBufferSize < cfg.RxExpectedLen:
		return fmt.Errorf("%w: RxBufferSize %d smaller than RxExpectedLen %d", ErrInvalidConfig, cfg.RxBufferSize, cfg.RxExpectedLen)
	case cfg.IrqQueueDepth < 1 || cfg.IrqQueueDepth > csr.IrqHeadMask:
		return fmt.Errorf("%w: IrqQueueDepth %d out of range", ErrInvalidConfig, cfg.IrqQueueDepth)
	case cfg.HwfwdDescs < 1:
		return fmt.Errorf("%w: HwfwdDescs %d out of range", ErrInvalidConfig, cfg.HwfwdDescs)
	}
	if _, ok := burstCodes[cfg.BurstSize]; !ok {
		return fmt.Errorf("%w: BurstSize %d", ErrInvalidConfig, cfg.BurstSize)
	}
	return nil
}

var burstCodes = map[int]uint32{
	16:  csr.Burst16,
	32:  csr.Burst32,
	64:  csr.Burst64,
	128: csr.Burst128,
}

func (cfg Config) byteOrder() binary.ByteOrder {
	if cfg.DescLittleEndian {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// glbCfg returns the GLB_CFG value written at the end of bring-up.
func (cfg Config) glbCfg() uint32 {
	v := uint32(csr.GlbMsgWordSwap | csr.GlbDscpByteSwap | csr.GlbPayloadByteSwap |
		csr.GlbTxWbDone | csr.GlbIrqEn | csr.GlbTxDmaEn | csr.GlbRxDmaEn)
	v |= burstCodes[cfg.BurstSize] << csr.GlbBurstShift
	return v | cfg.GlbCfgExtra
}
