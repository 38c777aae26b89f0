package qdma

import (
	"go.uber.org/zap"
)

// Port is a logical port sharing the engine's ring pair.
type Port struct {
	e    *Engine
	id   int
	open bool
	opts TxOptions
}

// ID returns the port number.
func (p *Port) ID() int {
	return p.id
}

// IsOpen reports whether the port is open.
func (p *Port) IsOpen() bool {
	p.e.mu.Lock()
	defer p.e.mu.Unlock()
	return p.open
}

// SetTxOptions changes the options used by Transmit when none are given.
func (p *Port) SetTxOptions(opts TxOptions) {
	p.e.mu.Lock()
	defer p.e.mu.Unlock()
	p.opts = opts
}

// Open opens the port.
// The first open port brings the rings up; a bring-up failure is returned and the port stays closed.
func (p *Port) Open() error {
	p.e.mu.Lock()
	defer p.e.mu.Unlock()
	if p.open {
		return nil
	}
	if e := p.e.acquire(); e != nil {
		return e
	}
	p.open = true
	p.e.logger.Debug("port open", zap.Int("port", p.id), zap.Int("refs", p.e.refs))
	return nil
}

// Close closes the port.
// The last open port tears the rings down.
func (p *Port) Close() error {
	p.e.mu.Lock()
	defer p.e.mu.Unlock()
	if !p.open {
		return nil
	}
	p.open = false
	p.e.logger.Debug("port close", zap.Int("port", p.id), zap.Int("refs", p.e.refs-1))
	return p.e.release()
}

// Transmit submits a frame to hardware.
// frame is copied, so the caller may reuse it immediately.
// If opts is nil, the port's TX options are used.
func (p *Port) Transmit(frame []byte, opts *TxOptions) error {
	p.e.mu.Lock()
	defer p.e.mu.Unlock()
	if !p.open {
		p.e.cnt.txDropped.Add(1)
		return ErrClosed
	}
	if opts == nil {
		opts = &p.opts
	}
	return p.e.transmit(frame, *opts)
}
