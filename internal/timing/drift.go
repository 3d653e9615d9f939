package timing

import (
	"fmt"
	"math"
	"strings"
)

// DriftMode selects the per-tick offset function applied under Realtime.
type DriftMode string

const (
	// DriftSawtooth ramps linearly from -M to +M one step per tick, then wraps.
	DriftSawtooth DriftMode = "sawtooth"
	// DriftConstant skews every tick by +M.
	DriftConstant DriftMode = "constant"
	// DriftJitter draws a reproducible pseudo-random offset in [-M, +M].
	DriftJitter DriftMode = "jitter"
)

// ParseDriftMode accepts the textual mode names; empty selects DriftSawtooth.
func ParseDriftMode(s string) (DriftMode, error) {
	switch DriftMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", DriftSawtooth:
		return DriftSawtooth, nil
	case DriftConstant:
		return DriftConstant, nil
	case DriftJitter:
		return DriftJitter, nil
	default:
		return "", fmt.Errorf("unknown drift mode %q", s)
	}
}

func (m *DriftMode) UnmarshalText(text []byte) error {
	dm, err := ParseDriftMode(string(text))
	if err != nil {
		return err
	}
	*m = dm
	return nil
}

// DriftPolicy perturbs realtime timestamps to simulate clock skew between the
// simulated device and the receiving system. Magnitude is in milliseconds and
// bounds every offset: |Offset(k)| <= Magnitude for all k. Timestamps are whole
// milliseconds and offsets truncate toward zero, so a Magnitude below 1 never
// moves a timestamp and the policy counts as disabled.
type DriftPolicy struct {
	Magnitude float64   `yaml:"magnitude_ms"`
	Mode      DriftMode `yaml:"mode"`
}

// NoDrift is the zero-magnitude policy.
var NoDrift = DriftPolicy{}

func (p DriftPolicy) Validate() error {
	if math.IsNaN(p.Magnitude) || math.IsInf(p.Magnitude, 0) || p.Magnitude < 0 {
		return fmt.Errorf("drift magnitude must be a finite value >= 0, got %v", p.Magnitude)
	}
	if _, err := ParseDriftMode(string(p.Mode)); err != nil {
		return err
	}
	return nil
}

// Enabled reports whether the policy can change timestamps at all.
func (p DriftPolicy) Enabled() bool { return p.Magnitude >= 1 }

// Offset returns the skew in whole milliseconds for the given tick. Fractional
// offsets are truncated toward zero so the bound holds after rounding.
func (p DriftPolicy) Offset(tick uint64) int64 {
	if !p.Enabled() {
		return 0
	}
	m := p.Magnitude
	var off float64
	switch p.Mode {
	case DriftConstant:
		off = m
	case DriftJitter:
		off = -m + 2*m*unitFloat(tick)
	default:
		steps := uint64(2 * math.Ceil(m))
		pos := tick % (steps + 1)
		off = -m + float64(pos)*(2*m/float64(steps))
	}
	if off > m {
		off = m
	} else if off < -m {
		off = -m
	}
	return int64(math.Trunc(off))
}

// unitFloat maps a tick to [0, 1) with a splitmix64 finaliser.
func unitFloat(tick uint64) float64 {
	z := tick + 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	z ^= z >> 31
	return float64(z>>11) / float64(1<<53)
}

// ApplyOffset adds off to base, clamping the result into [0, MaxInt64].
// The boolean reports whether clamping was needed.
func ApplyOffset(base, off int64) (int64, bool) {
	if off > 0 && base > math.MaxInt64-off {
		return math.MaxInt64, true
	}
	ts := base + off
	if ts < 0 {
		return 0, true
	}
	return ts, false
}
