// Package qdma drives the QDMA descriptor-ring engine of an EcoNet EN751221 frame engine.
//
// One Engine owns a TX ring and an RX ring in DMA-coherent memory, the hardware-forwarding scratch pool, and the TX completion queue.
// Up to MaxPorts logical ports share the ring pair.
// Frames are submitted with Port.Transmit, and received frames are passed to a Receiver from Engine.Dispatch.
package qdma

import (
	"errors"

	"github.com/en751221/qdma/core/logging"
	"github.com/en751221/qdma/hw/mmio"
)

var logger = logging.New("qdma")

// MaxPorts is the number of logical ports sharing one ring pair.
const MaxPorts = 2

// Error conditions.
var (
	// ErrHardwareTimeout indicates a bounded register poll failed.
	// Errors of this kind are *mmio.TimeoutError.
	ErrHardwareTimeout = mmio.ErrTimeout

	// ErrBufferAlloc indicates DMA buffer allocation or mapping failed.
	ErrBufferAlloc = errors.New("DMA buffer allocation failed")

	// ErrInvalidConfig indicates a configuration or port ID was rejected.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrClosed indicates the engine is not running.
	ErrClosed = errors.New("engine is not running")
)
