// Package nnduration provides JSON-friendly non-negative duration types.
// A value is written either as an integer in the type's unit, or as a string recognized by time.ParseDuration.
package nnduration

import (
	"reflect"
	"strconv"
	"strings"
	"time"
)

func parse(input string, unit time.Duration) (value uint64, e error) {
	if d, e := time.ParseDuration(input); e == nil {
		if d < 0 {
			return 0, strconv.ErrRange
		}
		return uint64(d / unit), nil
	}
	return strconv.ParseUint(input, 10, 64)
}

func parseJSON(ptr any, p []byte, unit time.Duration) error {
	value, e := parse(strings.Trim(string(p), `"`), unit)
	reflect.ValueOf(ptr).Elem().SetUint(value)
	return e
}

// Milliseconds is a duration in milliseconds.
type Milliseconds uint64

// UnmarshalJSON implements json.Unmarshaler.
func (d *Milliseconds) UnmarshalJSON(p []byte) (e error) {
	return parseJSON(d, p, time.Millisecond)
}

// Duration converts to time.Duration.
func (d Milliseconds) Duration() time.Duration {
	return time.Duration(d) * time.Millisecond
}

// DurationOr converts to time.Duration, substituting dflt for zero.
func (d Milliseconds) DurationOr(dflt Milliseconds) time.Duration {
	if d == 0 {
		return dflt.Duration()
	}
	return d.Duration()
}

// Microseconds is a duration in microseconds.
type Microseconds uint64

// UnmarshalJSON implements json.Unmarshaler.
func (d *Microseconds) UnmarshalJSON(p []byte) (e error) {
	return parseJSON(d, p, time.Microsecond)
}

// Duration converts to time.Duration.
func (d Microseconds) Duration() time.Duration {
	return time.Duration(d) * time.Microsecond
}

// DurationOr converts to time.Duration, substituting dflt for zero.
func (d Microseconds) DurationOr(dflt Microseconds) time.Duration {
	if d == 0 {
		return dflt.Duration()
	}
	return d.Duration()
}
