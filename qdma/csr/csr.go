// Package csr defines QDMA control and status registers.
// Offsets are relative to the QDMA block, which sits at FrameEngineOffset within the frame engine.
package csr

// FrameEngineOffset is the offset of the QDMA block within the frame engine register space.
const FrameEngineOffset = 0x4000

// BlockSize is the size of the QDMA register block.
const BlockSize = 0x200

// Register offsets.
const (
	Version       = 0x000
	GlbCfg        = 0x004
	TxDscpBase    = 0x008
	RxDscpBase    = 0x00C
	TxCpuIdx      = 0x010
	TxDmaIdx      = 0x014
	RxCpuIdx      = 0x018
	RxDmaIdx      = 0x01C
	HwfwdDscpBase = 0x020
	HwfwdBuffBase = 0x024
	HwfwdDscpCfg  = 0x028
	LmgrInitCfg   = 0x030
	IntStatus     = 0x050
	IntMask       = 0x054
	TxDelayIntCfg = 0x058
	RxDelayIntCfg = 0x05C
	IrqBase       = 0x060
	IrqCfg        = 0x064
	IrqClearLen   = 0x068
	IrqStatus     = 0x06C
	RxRingCfg     = 0x100
	RxRingThr     = 0x104
)

// GlbCfg bits.
const (
	GlbRx2BOffset      = 1 << 31
	GlbDmaPrefShift    = 29
	GlbDmaPrefMask     = 3 << GlbDmaPrefShift
	GlbMsgWordSwap     = 1 << 28
	GlbDscpByteSwap    = 1 << 27
	GlbPayloadByteSwap = 1 << 26
	GlbVchnlMapEn      = 1 << 25
	GlbVchnlMapMode    = 1 << 24
	GlbLpbkRxqSel      = 1 << 22
	GlbSlmReleaseEn    = 1 << 21
	GlbTxImmediateDone = 1 << 20
	GlbIrqEn           = 1 << 19
	GlbGdmLoopback     = 1 << 17
	GlbQdmaLoopback    = 1 << 16
	GlbCheckDone       = 1 << 7
	GlbTxWbDone        = 1 << 6
	GlbBurstShift      = 4
	GlbBurstMask       = 3 << GlbBurstShift
	GlbRxDmaBusy       = 1 << 3
	GlbRxDmaEn         = 1 << 2
	GlbTxDmaBusy       = 1 << 1
	GlbTxDmaEn         = 1 << 0
)

// Burst size encodings for GlbCfg.
const (
	Burst16 = iota
	Burst32
	Burst64
	Burst128
)

// IntStatus and IntMask bits.
const (
	IntHwfwdDscpLow   = 1 << 10
	IntIrqFull        = 1 << 9
	IntHwfwdDscpEmpty = 1 << 8
	IntNoRx0CpuDscp   = 1 << 3
	IntNoTx0CpuDscp   = 1 << 2
	IntRx0Done        = 1 << 1
	IntTx0Done        = 1 << 0

	// IntDefaultMask enables every condition except TX completion, which is drained through the completion queue.
	IntDefaultMask = IntHwfwdDscpLow | IntIrqFull | IntHwfwdDscpEmpty | IntNoRx0CpuDscp | IntNoTx0CpuDscp | IntRx0Done
)

// IntNames maps IntStatus bits to names.
var IntNames = map[uint32]string{
	IntHwfwdDscpLow:   "HWFWD_DSCP_LOW",
	IntIrqFull:        "IRQ_FULL",
	IntHwfwdDscpEmpty: "HWFWD_DSCP_EMPTY",
	IntNoRx0CpuDscp:   "NO_RX0_CPU_DSCP",
	IntNoTx0CpuDscp:   "NO_TX0_CPU_DSCP",
	IntRx0Done:        "RX0_DONE",
	IntTx0Done:        "TX0_DONE",
}

// LmgrInitCfg fields.
const (
	LmgrStart        = 1 << 31
	LmgrDefaultValue = 0x14 << 16
)

// IrqStatus fields.
const (
	IrqHeadMask  = 0xFFF
	IrqLenShift  = 16
	IrqLenMask   = 0xFFF
	IrqClearMask = 0x7F

	// IrqEntryEmpty marks a completion queue entry as consumed.
	IrqEntryEmpty = 0xFFFFFFFF
)

// IrqHead extracts the head index from an IrqStatus value.
func IrqHead(v uint32) uint32 {
	return v & IrqHeadMask
}

// IrqLen extracts the entry count from an IrqStatus value.
func IrqLen(v uint32) uint32 {
	return (v >> IrqLenShift) & IrqLenMask
}

// Default geometry.
const (
	DefaultTxRingLen     = 4
	DefaultRxRingLen     = 4
	DefaultIrqQueueDepth = 20
	DefaultHwfwdDescs    = 8
	HwfwdDescSize        = 16
	DefaultHwfwdBufSize  = 2048
)

// PhyIac is the MDIO indirect access register, relative to the frame engine.
const PhyIac = 0xF01C

// PhyIac fields.
const (
	PhyIacAccess    = 1 << 31
	PhyIacRegShift  = 25
	PhyIacAddrShift = 20
	PhyIacRead      = 1 << 19
	PhyIacWrite     = 1 << 18
	PhyIacStart     = 1 << 16
	PhyIacDataMask  = 0xFFFF
)
