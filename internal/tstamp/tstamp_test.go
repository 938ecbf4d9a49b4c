package tstamp

import (
	"testing"
	"time"
)

func TestFromNumber_SecondsMillisBoundary(t *testing.T) {
	secs := FromNumber(1769558400)
	ms := FromNumber(1769558400000)
	want := "2026-01-28T00:00:00.000Z"
	if secs != want {
		t.Errorf("seconds form: got %q want %q", secs, want)
	}
	if ms != want {
		t.Errorf("millis form: got %q want %q", ms, want)
	}
	if secs != ms {
		t.Errorf("seconds and millis forms diverged: %q vs %q", secs, ms)
	}
}

func TestFromString_PreservesValidISO(t *testing.T) {
	in := "2024-05-01T10:20:30.123Z"
	if got := FromString(in); got != in {
		t.Errorf("got %q, want unchanged %q", got, in)
	}
}

func TestFromString_Invalid(t *testing.T) {
	got := FromString("not a timestamp")
	if _, err := time.Parse(time.RFC3339Nano, got); err != nil {
		t.Errorf("fallback output not parseable: %v", err)
	}
}

func TestIdempotence(t *testing.T) {
	inputs := []any{
		"2024-05-01T10:20:30.123Z",
		float64(1769558400),
		float64(1769558400000),
		nil,
	}
	for _, in := range inputs {
		once := FromAny(in)
		twice := FromAny(once)
		if once != twice {
			t.Errorf("not idempotent for %v: %q vs %q", in, once, twice)
		}
	}
}

func TestFromAny_Fallback(t *testing.T) {
	got := FromAny(nil)
	if _, err := time.Parse(time.RFC3339Nano, got); err != nil {
		t.Errorf("fallback not parseable: %v", err)
	}
}
