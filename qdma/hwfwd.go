package qdma

import (
	"fmt"

	"github.com/en751221/qdma/core/logging"
	"github.com/en751221/qdma/hw/dmamem"
	"github.com/en751221/qdma/hw/mmio"
	"github.com/en751221/qdma/qdma/csr"
	"go.uber.org/zap"
)

// hwfwdPool is the scratch descriptor array and buffer used by hardware-only forwarding.
// Software never reads it after initialization.
type hwfwdPool struct {
	descs *dmamem.Block
	buf   *dmamem.Block
}

func (pool *hwfwdPool) init(regs mmio.Registers, mem dmamem.Allocator, cfg Config) (e error) {
	regs.Write32(csr.LmgrInitCfg, cfg.LmgrInitValue)

	var descPhys, bufPhys dmamem.PhysAddr
	if pool.descs, descPhys, e = mem.AllocCoherent(cfg.HwfwdDescs * csr.HwfwdDescSize); e != nil {
		return fmt.Errorf("%w: hwfwd descriptors %v", ErrBufferAlloc, e)
	}
	clear(pool.descs.Bytes)
	regs.Write32(csr.HwfwdDscpBase, uint32(descPhys))

	if pool.buf, bufPhys, e = mem.AllocCoherent(cfg.HwfwdBufferSize); e != nil {
		return fmt.Errorf("%w: hwfwd buffer %v", ErrBufferAlloc, e)
	}
	clear(pool.buf.Bytes)
	regs.Write32(csr.HwfwdBuffBase, uint32(bufPhys))

	mmio.Set(regs, csr.LmgrInitCfg, uint32(cfg.HwfwdDescs))
	regs.Write32(csr.HwfwdDscpCfg, 0<<28) // payload size
	regs.Write32(csr.HwfwdDscpCfg, 1)     // threshold

	mmio.Set(regs, csr.LmgrInitCfg, csr.LmgrStart)
	v, e := mmio.Poll(regs, "LMGR_INIT_CFG", csr.LmgrInitCfg, csr.LmgrStart, 0, cfg.LmgrPoll)
	if e != nil {
		logger.Error("hwfwd pool start timeout", logging.Hex32("lmgr", v), zap.Error(e))
		return e
	}
	logger.Debug("hwfwd pool ready",
		logging.Hex32("lmgr", v),
		logging.Hex32("dscp-base", uint32(descPhys)),
		logging.Hex32("buff-base", uint32(bufPhys)),
	)
	return nil
}

func (pool *hwfwdPool) free(mem dmamem.Allocator) {
	if pool.descs != nil {
		mem.FreeCoherent(pool.descs)
	}
	if pool.buf != nil {
		mem.FreeCoherent(pool.buf)
	}
	*pool = hwfwdPool{}
}
