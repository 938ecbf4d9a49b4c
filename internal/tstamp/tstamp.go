// Package tstamp normalizes the heterogeneous timestamp representations
// found in session event JSON (ISO-8601 strings, Unix seconds, Unix
// milliseconds, native dates) into a single ISO-8601 UTC form with
// millisecond precision.
package tstamp

import (
	"math"
	"time"
)

// secondsMillisBoundary is the threshold below which a numeric timestamp is
// assumed to be seconds-since-epoch rather than milliseconds. Seconds
// values for any plausible epoch fall well below it; millisecond values for
// the current era sit near 1.7e12.
const secondsMillisBoundary = 1e12

// layout is the canonical output format: ISO-8601 UTC, millisecond precision.
const layout = "2006-01-02T15:04:05.000Z"

// Now returns the current wall-clock time in the canonical form. It is the
// fallback used whenever an input cannot be normalized.
func Now() string {
	return time.Now().UTC().Format(layout)
}

// FromTime normalizes a native time.Time value.
func FromTime(t time.Time) string {
	if t.IsZero() {
		return Now()
	}
	return t.UTC().Format(layout)
}

// FromString normalizes an already-ISO-8601 string, returning it unchanged
// if it parses as a valid instant (precision is preserved), or falling back
// to now if it does not parse.
func FromString(s string) string {
	if s == "" {
		return Now()
	}
	if _, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return s
	}
	if _, err := time.Parse(time.RFC3339, s); err == nil {
		return s
	}
	return Now()
}

// FromNumber normalizes a numeric epoch value. Values with absolute value
// at or below secondsMillisBoundary are treated as seconds since the Unix
// epoch; larger values are treated as milliseconds. NaN and +/-Inf fall
// back to now.
func FromNumber(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Now()
	}
	var ms int64
	if math.Abs(v) <= secondsMillisBoundary {
		ms = int64(v * 1000)
	} else {
		ms = int64(v)
	}
	sec := ms / 1000
	remMs := ms % 1000
	if remMs < 0 {
		remMs += 1000
		sec--
	}
	t := time.Unix(sec, remMs*int64(time.Millisecond)).UTC()
	return t.Format(layout)
}

// FromAny normalizes an arbitrary decoded-JSON value (string, float64, nil,
// or anything else), in order of preference: ISO-8601 string, numeric
// seconds/milliseconds, then fallback to now.
func FromAny(v any) string {
	switch x := v.(type) {
	case string:
		return FromString(x)
	case float64:
		return FromNumber(x)
	case int64:
		return FromNumber(float64(x))
	case int:
		return FromNumber(float64(x))
	case time.Time:
		return FromTime(x)
	default:
		return Now()
	}
}
