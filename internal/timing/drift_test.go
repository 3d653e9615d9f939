package timing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDriftOffsetStaysWithinMagnitude(t *testing.T) {
	for _, mode := range []DriftMode{DriftSawtooth, DriftConstant, DriftJitter} {
		for _, mag := range []float64{0.4, 1, 2.5, 10, 250} {
			p := DriftPolicy{Magnitude: mag, Mode: mode}
			for tick := uint64(0); tick < 2000; tick++ {
				off := p.Offset(tick)
				require.LessOrEqualf(t, math.Abs(float64(off)), mag,
					"mode=%s magnitude=%v tick=%d offset=%d", mode, mag, tick, off)
			}
		}
	}
}

func TestDriftZeroMagnitudeIsIdentity(t *testing.T) {
	for _, mode := range []DriftMode{DriftSawtooth, DriftConstant, DriftJitter} {
		p := DriftPolicy{Mode: mode}
		assert.False(t, p.Enabled())
		for tick := uint64(0); tick < 50; tick++ {
			assert.Zero(t, p.Offset(tick))
		}
	}
}

func TestDriftBelowOneMillisecondIsDisabled(t *testing.T) {
	for _, mode := range []DriftMode{DriftSawtooth, DriftConstant, DriftJitter} {
		p := DriftPolicy{Magnitude: 0.9, Mode: mode}
		require.NoError(t, p.Validate())
		assert.False(t, p.Enabled(), mode)
		for k := uint64(0); k < 50; k++ {
			assert.Zero(t, p.Offset(k), "mode %s tick %d", mode, k)
		}
	}
	assert.True(t, DriftPolicy{Magnitude: 1, Mode: DriftConstant}.Enabled())
	assert.Equal(t, int64(1), DriftPolicy{Magnitude: 1, Mode: DriftConstant}.Offset(0))
}

func TestDriftSawtoothRampsAndWraps(t *testing.T) {
	p := DriftPolicy{Magnitude: 10, Mode: DriftSawtooth}

	for tick := uint64(0); tick <= 20; tick++ {
		assert.Equal(t, int64(tick)-10, p.Offset(tick))
	}
	// wraps back to -M after the +M step
	assert.Equal(t, int64(-10), p.Offset(21))
}

func TestDriftConstant(t *testing.T) {
	p := DriftPolicy{Magnitude: 7.9, Mode: DriftConstant}
	assert.Equal(t, int64(7), p.Offset(0))
	assert.Equal(t, int64(7), p.Offset(12345))
}

func TestDriftJitterIsReproducible(t *testing.T) {
	p := DriftPolicy{Magnitude: 50, Mode: DriftJitter}
	distinct := map[int64]struct{}{}
	for tick := uint64(0); tick < 100; tick++ {
		assert.Equal(t, p.Offset(tick), p.Offset(tick))
		distinct[p.Offset(tick)] = struct{}{}
	}
	assert.Greater(t, len(distinct), 10)
}

func TestDriftPolicyValidate(t *testing.T) {
	assert.NoError(t, DriftPolicy{Magnitude: 3}.Validate())
	assert.Error(t, DriftPolicy{Magnitude: -1}.Validate())
	assert.Error(t, DriftPolicy{Magnitude: math.Inf(1)}.Validate())
	assert.Error(t, DriftPolicy{Magnitude: 1, Mode: "wobble"}.Validate())
}

func TestApplyOffsetClamps(t *testing.T) {
	ts, clamped := ApplyOffset(100, -5)
	assert.Equal(t, int64(95), ts)
	assert.False(t, clamped)

	ts, clamped = ApplyOffset(3, -10)
	assert.Equal(t, int64(0), ts)
	assert.True(t, clamped)

	ts, clamped = ApplyOffset(math.MaxInt64-1, 10)
	assert.Equal(t, int64(math.MaxInt64), ts)
	assert.True(t, clamped)
}
