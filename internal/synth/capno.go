package synth

import "github.com/waehniger/mdpnp/internal/domain"

const (
	KindCapno = "capno"

	capnoFrequency = 25

	ChannelCO2 = "co2"
)

// Capnograph synthesizes an expired CO2 waveform in mmHg. Each breath has an
// expiratory upstroke, an alveolar plateau that peaks at the configured
// end-tidal value, a sharp inspiratory downstroke and a zero baseline.
type Capnograph struct{}

func (Capnograph) Kind() string   { return KindCapno }
func (Capnograph) Frequency() int { return capnoFrequency }

func (c Capnograph) Synthesize(cfg domain.GeneratorConfig, tick uint64, timestamp int64) *domain.SampleBatch {
	b := build(c, cfg, tick, timestamp, []string{ChannelCO2}, func(n uint64, out []float64) {
		out[0] = cfg.EndTidalCO2() * co2Shape(cyclePhase(n, cfg.RespiratoryRate, capnoFrequency))
	})
	b.Vitals = map[string]float64{
		domain.VitalEtCO2:           cfg.EndTidalCO2(),
		domain.VitalRespiratoryRate: cfg.RespiratoryRate,
	}
	return b
}

func co2Shape(t float64) float64 {
	switch {
	case t < 0.45:
		// upstroke, then a plateau climbing gently to 1.0 at the end of expiration
		return smoothstep(0, 0.08, t) * (0.92 + 0.08*t/0.45)
	case t < 0.50:
		return 1 - smoothstep(0.45, 0.50, t)
	default:
		return 0
	}
}
