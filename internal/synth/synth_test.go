package synth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waehniger/mdpnp/internal/domain"
	"github.com/waehniger/mdpnp/internal/timing"
)

func testConfig(t *testing.T, heartRate float64, ms int64) domain.GeneratorConfig {
	t.Helper()
	cfg, err := domain.NewGeneratorConfig(heartRate, ms, timing.Metronome, 0)
	require.NoError(t, err)
	cfg.DeviceID = "sim-1"
	return cfg
}

func TestPointRangeTilesWithoutGaps(t *testing.T) {
	for _, ms := range []int64{1, 3, 5, 15, 40} {
		for _, freq := range []int{25, 100, 500} {
			var next uint64
			for tick := uint64(0); tick < 200; tick++ {
				start, end := PointRange(tick, ms, freq)
				require.Equalf(t, next, start, "ms=%d freq=%d tick=%d", ms, freq, tick)
				require.GreaterOrEqual(t, end, start)
				next = end
			}
			assert.Equal(t, ceilDiv(200*uint64(ms)*uint64(freq), 1000), next)
		}
	}
}

func TestPointRangeECGFiveMs(t *testing.T) {
	var lengths []uint64
	for tick := uint64(0); tick < 4; tick++ {
		start, end := PointRange(tick, 5, ecgFrequency)
		lengths = append(lengths, end-start)
	}
	assert.Equal(t, []uint64{3, 2, 3, 2}, lengths)
}

func TestBatchesConcatenateIndependentOfInterval(t *testing.T) {
	for _, s := range []Synthesizer{ECG{}, PulseOximeter{}, Capnograph{}, NIBP{}} {
		t.Run(s.Kind(), func(t *testing.T) {
			fine := testConfig(t, 1000, 5)
			coarse := testConfig(t, 1000, 1200)

			whole := s.Synthesize(coarse, 0, 0)
			var stitched [][]float64
			for tick := uint64(0); tick < 240; tick++ {
				b := s.Synthesize(fine, tick, int64(tick)*5)
				if stitched == nil {
					stitched = make([][]float64, len(b.Channels))
				}
				for c := range b.Channels {
					stitched[c] = append(stitched[c], b.Channels[c].Values...)
				}
			}

			require.Len(t, stitched, len(whole.Channels))
			for c := range whole.Channels {
				assert.InDeltaSlice(t, whole.Channels[c].Values, stitched[c], 1e-9)
			}
		})
	}
}

func TestECGLeadsFollowEinthoven(t *testing.T) {
	cfg := testConfig(t, 72, 40)
	b := ECG{}.Synthesize(cfg, 7, 1234)

	require.Len(t, b.Channels, 3)
	assert.Equal(t, 20, b.Len())
	i, ii, iii := b.Channel(LeadI), b.Channel(LeadII), b.Channel(LeadIII)
	for k := range ii {
		assert.InDelta(t, ii[k]-i[k], iii[k], 1e-12)
	}

	assert.Equal(t, "sim-1", b.DeviceID)
	assert.Equal(t, KindECG, b.Kind)
	assert.Equal(t, uint64(7), b.Tick)
	assert.Equal(t, int64(1234), b.Timestamp)
	assert.Equal(t, ecgFrequency, b.Frequency)
	assert.Equal(t, 72.0, b.Vitals[domain.VitalHeartRate])
	assert.Equal(t, domain.DefaultRespiratoryRate, b.Vitals[domain.VitalRespiratoryRate])
}

func TestECGHasOneRPeakPerBeat(t *testing.T) {
	// 60 bpm over 3 seconds: three R waves on lead II.
	cfg := testConfig(t, 60, 3000)
	cfg.RespiratoryRate = 1
	ii := ECG{}.Synthesize(cfg, 0, 0).Channel(LeadII)

	peaks := 0
	for k := 1; k < len(ii)-1; k++ {
		if ii[k] > 0.6 && ii[k] >= ii[k-1] && ii[k] > ii[k+1] {
			peaks++
		}
	}
	assert.Equal(t, 3, peaks)
}

func TestSynthesizeIsPure(t *testing.T) {
	cfg := testConfig(t, 90, 15)
	for _, s := range []Synthesizer{ECG{}, PulseOximeter{}, Capnograph{}, NIBP{}} {
		a := s.Synthesize(cfg, 42, -5)
		b := s.Synthesize(cfg, 42, 99999)
		assert.Equal(t, a.Channels, b.Channels, s.Kind())
		assert.Equal(t, a.Vitals, b.Vitals, s.Kind())
	}
}

func TestPulseOxAndCapnoVitals(t *testing.T) {
	cfg := testConfig(t, 80, 1000)
	cfg.SpO2 = 95
	cfg.EtCO2 = domain.Ptr(40.0)
	cfg.RespiratoryRate = 15

	po := PulseOximeter{}.Synthesize(cfg, 0, 0)
	assert.Equal(t, 95.0, po.Vitals[domain.VitalSpO2])
	assert.Equal(t, 80.0, po.Vitals[domain.VitalPulseRate])
	assert.Equal(t, 100, po.Len())

	co := Capnograph{}.Synthesize(cfg, 0, 0)
	assert.Equal(t, 40.0, co.Vitals[domain.VitalEtCO2])
	assert.Equal(t, 25, co.Len())
	for _, v := range co.Channel(ChannelCO2) {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 40.0+1e-9)
	}
}

func TestCapnoApneaIsFlat(t *testing.T) {
	cfg := testConfig(t, 80, 1000)
	cfg.EtCO2 = domain.Ptr(0.0)

	co := Capnograph{}.Synthesize(cfg, 3, 0)
	assert.Equal(t, 0.0, co.Vitals[domain.VitalEtCO2])
	for _, v := range co.Channel(ChannelCO2) {
		assert.Equal(t, 0.0, v)
	}
}

func TestNIBPVitals(t *testing.T) {
	cfg := testConfig(t, 70, 30_000)
	cfg.Systolic = 130
	cfg.Diastolic = 85

	b := NIBP{}.Synthesize(cfg, 0, 0)
	assert.Equal(t, 130.0, b.Vitals[domain.VitalSystolic])
	assert.Equal(t, 85.0, b.Vitals[domain.VitalDiastolic])
	assert.Equal(t, 100.0, b.Vitals[domain.VitalMean])
	assert.Equal(t, 70.0, b.Vitals[domain.VitalPulseRate])

	cuff := b.Channel(ChannelCuff)
	require.Len(t, cuff, 300) // one full measurement cycle at 10 Hz

	peak := 0.0
	for _, v := range cuff {
		assert.GreaterOrEqual(t, v, 0.0)
		if v > peak {
			peak = v
		}
	}
	assert.GreaterOrEqual(t, peak, 130.0+nibpOvershoot)
	assert.LessOrEqual(t, peak, 130.0+nibpOvershoot+3)
	assert.Equal(t, 0.0, cuff[0])
	for _, v := range cuff[230:] {
		assert.Equal(t, 0.0, v, "cuff rests after the dump")
	}
}

func TestLookup(t *testing.T) {
	s, err := Lookup(KindPulseOx)
	require.NoError(t, err)
	assert.Equal(t, KindPulseOx, s.Kind())

	s, err = Lookup(KindNIBP)
	require.NoError(t, err)
	assert.Equal(t, KindNIBP, s.Kind())

	_, err = Lookup("eeg")
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)

	assert.Equal(t, []string{KindCapno, KindECG, KindNIBP, KindPulseOx}, Kinds())
}
