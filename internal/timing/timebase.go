// Package timing holds the time-base disciplines, drift policies and clock
// helpers shared by every simulated device.
package timing

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// TimeBase selects how a tick's timestamp is derived.
type TimeBase string

const (
	// Metronome advances timestamps by exactly one interval per tick from a
	// fixed origin, independent of the wall clock.
	Metronome TimeBase = "metronome"
	// Realtime reads the wall clock on every tick and applies drift.
	Realtime TimeBase = "realtime"
)

// ParseTimeBase accepts the textual discipline names, case-insensitively.
func ParseTimeBase(s string) (TimeBase, error) {
	switch TimeBase(strings.ToLower(strings.TrimSpace(s))) {
	case Metronome:
		return Metronome, nil
	case Realtime:
		return Realtime, nil
	default:
		return "", fmt.Errorf("unknown time base %q", s)
	}
}

func (t TimeBase) String() string { return string(t) }

// Valid reports whether t is one of the known disciplines.
func (t TimeBase) Valid() bool {
	return t == Metronome || t == Realtime
}

// UnmarshalText lets TimeBase be read straight from YAML.
func (t *TimeBase) UnmarshalText(text []byte) error {
	tb, err := ParseTimeBase(string(text))
	if err != nil {
		return err
	}
	*t = tb
	return nil
}

// SystemClock reads the host wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// ToUnixMs converts t to milliseconds since the Unix epoch. The zero time maps to 0.
func ToUnixMs(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

// FromUnixMs is the inverse of ToUnixMs.
func FromUnixMs(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

// Interval converts a millisecond sample period to a time.Duration,
// saturating instead of wrapping for periods beyond the Duration range.
func Interval(msPerSample int64) time.Duration {
	if msPerSample > math.MaxInt64/int64(time.Millisecond) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(msPerSample) * time.Millisecond
}

// MetronomeTimestamp returns origin + tick*msPerSample. The product and the
// sum saturate at MaxInt64; the boolean reports whether that happened.
func MetronomeTimestamp(origin int64, tick uint64, msPerSample int64) (int64, bool) {
	if msPerSample <= 0 || tick == 0 {
		return ApplyOffset(origin, 0)
	}
	if tick > uint64(math.MaxInt64/msPerSample) {
		return math.MaxInt64, true
	}
	return ApplyOffset(origin, int64(tick)*msPerSample)
}
