package synth

import "github.com/waehniger/mdpnp/internal/domain"

const (
	KindPulseOx = "pulseox"

	pulseOxFrequency = 100

	ChannelPleth = "pleth"
)

// PulseOximeter synthesizes a normalised plethysmogram with a systolic peak
// and dicrotic notch, plus SpO2 and pulse rate.
type PulseOximeter struct{}

func (PulseOximeter) Kind() string   { return KindPulseOx }
func (PulseOximeter) Frequency() int { return pulseOxFrequency }

func (p PulseOximeter) Synthesize(cfg domain.GeneratorConfig, tick uint64, timestamp int64) *domain.SampleBatch {
	b := build(p, cfg, tick, timestamp, []string{ChannelPleth}, func(n uint64, out []float64) {
		t := cyclePhase(n, cfg.HeartRate, pulseOxFrequency)
		wave := gauss(t, 0.20, 0.08) + 0.35*gauss(t, 0.48, 0.06)
		// respiratory-induced amplitude variation
		out[0] = wave * (1 + 0.04*respiration(n, cfg.RespiratoryRate, pulseOxFrequency))
	})
	b.Vitals = map[string]float64{
		domain.VitalSpO2:      cfg.SpO2,
		domain.VitalPulseRate: cfg.HeartRate,
	}
	return b
}
