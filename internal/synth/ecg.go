package synth

import "github.com/waehniger/mdpnp/internal/domain"

const (
	KindECG = "ecg"

	ecgFrequency = 500

	LeadI   = "I"
	LeadII  = "II"
	LeadIII = "III"
)

var ecgLeads = []string{LeadI, LeadII, LeadIII}

// ECG synthesizes a three-lead electrocardiogram in millivolts. Lead II
// carries the full P-QRS-T complex, lead I a scaled projection of it, and
// lead III follows Einthoven's law (III = II - I).
type ECG struct{}

func (ECG) Kind() string   { return KindECG }
func (ECG) Frequency() int { return ecgFrequency }

func (e ECG) Synthesize(cfg domain.GeneratorConfig, tick uint64, timestamp int64) *domain.SampleBatch {
	b := build(e, cfg, tick, timestamp, ecgLeads, func(n uint64, out []float64) {
		beat := pqrst(cyclePhase(n, cfg.HeartRate, ecgFrequency))
		wander := 0.05 * respiration(n, cfg.RespiratoryRate, ecgFrequency)

		leadII := beat + wander
		leadI := 0.55*beat + 0.5*wander
		out[0] = leadI
		out[1] = leadII
		out[2] = leadII - leadI
	})
	b.Vitals = map[string]float64{
		domain.VitalHeartRate:       cfg.HeartRate,
		domain.VitalRespiratoryRate: cfg.RespiratoryRate,
	}
	return b
}

// pqrst models one beat as gaussian P, Q, R, S and T lobes over phase [0, 1).
func pqrst(t float64) float64 {
	p := 0.08 * gauss(t, 0.18, 0.03)
	q := -0.12 * gauss(t, 0.30, 0.01)
	r := 1.00 * gauss(t, 0.32, 0.008)
	s := -0.25 * gauss(t, 0.35, 0.012)
	tw := 0.25 * gauss(t, 0.60, 0.06)
	return p + q + r + s + tw
}
