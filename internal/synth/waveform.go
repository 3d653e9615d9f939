package synth

import "math"

// cyclePhase returns the position in [0, 1) of point n within a cycle of
// ratePerMin cycles per minute sampled at freq Hz.
func cyclePhase(n uint64, ratePerMin float64, freq int) float64 {
	cycles := float64(n) * ratePerMin / (60 * float64(freq))
	return cycles - math.Floor(cycles)
}

func gauss(x, mu, sigma float64) float64 {
	z := (x - mu) / sigma
	return math.Exp(-0.5 * z * z)
}

// smoothstep eases from 0 at edge0 to 1 at edge1.
func smoothstep(edge0, edge1, x float64) float64 {
	if x <= edge0 {
		return 0
	}
	if x >= edge1 {
		return 1
	}
	t := (x - edge0) / (edge1 - edge0)
	return t * t * (3 - 2*t)
}

// respiration is the slow baseline wander every waveform rides on.
func respiration(n uint64, respRate float64, freq int) float64 {
	return math.Sin(2 * math.Pi * cyclePhase(n, respRate, freq))
}
