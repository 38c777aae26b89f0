package mmio

import (
	"errors"
	"fmt"
	"time"

	"github.com/en751221/qdma/core/nnduration"
	"github.com/jpillora/backoff"
)

// ErrTimeout indicates a register did not reach the expected state in time.
var ErrTimeout = errors.New("register poll timeout")

// PollConfig bounds a busy-wait on a register.
// At least one of Iterations and Timeout should be set; if neither is set, DefaultPollIterations applies.
type PollConfig struct {
	// Iterations is the maximum number of register reads.
	Iterations int `json:"iterations,omitempty"`

	// Timeout is the maximum elapsed time.
	Timeout nnduration.Milliseconds `json:"timeout,omitempty"`

	// Interval is the initial sleep between reads.
	// Zero means back-to-back reads.
	Interval nnduration.Microseconds `json:"interval,omitempty"`

	// MaxInterval caps the sleep between reads as it doubles.
	// Zero means the interval stays constant.
	MaxInterval nnduration.Microseconds `json:"maxInterval,omitempty"`
}

// DefaultPollIterations is the iteration limit when PollConfig sets no bound.
const DefaultPollIterations = 100

func (cfg PollConfig) newBackoff() *backoff.Backoff {
	if cfg.Interval == 0 {
		return nil
	}
	b := &backoff.Backoff{
		Min:    cfg.Interval.Duration(),
		Max:    cfg.MaxInterval.Duration(),
		Factor: 2,
	}
	if b.Max < b.Min {
		b.Max = b.Min
	}
	return b
}

// TimeoutError describes a failed register poll.
type TimeoutError struct {
	Name  string
	Off   uint32
	Mask  uint32
	Want  uint32
	Last  uint32
	Tries int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: register 0x%04x mask 0x%08x want 0x%08x last 0x%08x after %d reads: %v",
		e.Name, e.Off, e.Mask, e.Want, e.Last, e.Tries, ErrTimeout)
}

func (e *TimeoutError) Unwrap() error {
	return ErrTimeout
}

// Until calls read until it reports done or cfg bounds are exhausted.
// It returns the last value returned by read and the number of calls.
func Until(cfg PollConfig, read func() (v uint32, done bool)) (last uint32, tries int, ok bool) {
	if cfg.Iterations <= 0 && cfg.Timeout == 0 {
		cfg.Iterations = DefaultPollIterations
	}
	b := cfg.newBackoff()
	t0 := time.Now()
	for {
		var done bool
		last, done = read()
		tries++
		if done {
			return last, tries, true
		}
		if cfg.Iterations > 0 && tries >= cfg.Iterations {
			return last, tries, false
		}
		if cfg.Timeout > 0 && time.Since(t0) >= cfg.Timeout.Duration() {
			return last, tries, false
		}
		if b != nil {
			time.Sleep(b.Duration())
		}
	}
}

// Poll waits until (register & mask) == want.
// It returns the last register value, or a *TimeoutError that wraps ErrTimeout.
func Poll(r Registers, name string, off, mask, want uint32, cfg PollConfig) (uint32, error) {
	last, tries, ok := Until(cfg, func() (uint32, bool) {
		v := r.Read32(off)
		return v, v&mask == want
	})
	if !ok {
		return last, &TimeoutError{
			Name:  name,
			Off:   off,
			Mask:  mask,
			Want:  want,
			Last:  last,
			Tries: tries,
		}
	}
	return last, nil
}
