package synth

import "github.com/waehniger/mdpnp/internal/domain"

const (
	KindNIBP = "nibp"

	nibpFrequency = 10

	ChannelCuff = "cuff"

	// nibpCyclesPerMin gives one oscillometric measurement every 30 s.
	nibpCyclesPerMin = 2
	// nibpOvershoot is how far above systolic the cuff inflates, in mmHg.
	nibpOvershoot = 30
)

// NIBP synthesizes the cuff pressure of a non-invasive blood pressure monitor
// in mmHg. Each measurement cycle inflates past systolic, deflates linearly
// while arterial pulses ride on the cuff with the largest swing near the mean
// arterial pressure, then dumps to zero and rests.
type NIBP struct{}

func (NIBP) Kind() string   { return KindNIBP }
func (NIBP) Frequency() int { return nibpFrequency }

func (c NIBP) Synthesize(cfg domain.GeneratorConfig, tick uint64, timestamp int64) *domain.SampleBatch {
	mean := cfg.MeanArterial()
	b := build(c, cfg, tick, timestamp, []string{ChannelCuff}, func(n uint64, out []float64) {
		p := cuffPressure(cyclePhase(n, nibpCyclesPerMin, nibpFrequency), cfg.Systolic, cfg.Diastolic)
		if p > 0 {
			pulse := gauss(cyclePhase(n, cfg.HeartRate, nibpFrequency), 0.2, 0.1)
			p += 3 * pulse * gauss(p, mean, (cfg.Systolic-cfg.Diastolic)/2.5)
		}
		out[0] = p
	})
	b.Vitals = map[string]float64{
		domain.VitalSystolic:  cfg.Systolic,
		domain.VitalDiastolic: cfg.Diastolic,
		domain.VitalMean:      mean,
		domain.VitalPulseRate: cfg.HeartRate,
	}
	return b
}

// cuffPressure is the pressure envelope at phase t of a measurement cycle.
func cuffPressure(t, systolic, diastolic float64) float64 {
	peak := systolic + nibpOvershoot
	floor := diastolic - 10
	if floor < 0 {
		floor = 0
	}
	switch {
	case t < 0.1:
		return peak * smoothstep(0, 0.1, t)
	case t < 0.7:
		return peak + (floor-peak)*(t-0.1)/0.6
	case t < 0.75:
		return floor * (1 - smoothstep(0.7, 0.75, t))
	default:
		return 0
	}
}
