// Package synth produces the sample batches of the simulated devices.
//
// Every synthesizer is pure: the batch for a tick depends only on the
// generator configuration, the tick index and the timestamp handed in by the
// scheduler. Batch k covers the device-time window [k*ms, (k+1)*ms) and holds
// exactly the global waveform points whose sample instants fall in that
// window, so consecutive batches tile the waveform without gaps, repeats or
// phase jumps regardless of how the interval divides the sampling period.
package synth

import (
	"fmt"
	"sort"

	"github.com/waehniger/mdpnp/internal/domain"
)

// Synthesizer builds the batch for one tick.
type Synthesizer interface {
	Kind() string
	Frequency() int
	Synthesize(cfg domain.GeneratorConfig, tick uint64, timestamp int64) *domain.SampleBatch
}

var registry = map[string]Synthesizer{
	KindECG:     ECG{},
	KindPulseOx: PulseOximeter{},
	KindCapno:   Capnograph{},
	KindNIBP:    NIBP{},
}

// Lookup resolves a synthesizer by device kind.
func Lookup(kind string) (Synthesizer, error) {
	s, ok := registry[kind]
	if !ok {
		return nil, fmt.Errorf("%w: unknown device kind %q", domain.ErrInvalidConfig, kind)
	}
	return s, nil
}

// Kinds lists the registered device kinds in lexical order.
func Kinds() []string {
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// PointRange returns the half-open range [start, end) of global waveform
// point indices that belong to the given tick.
func PointRange(tick uint64, msPerSample int64, freq int) (uint64, uint64) {
	if msPerSample <= 0 || freq <= 0 {
		return 0, 0
	}
	perTick := uint64(msPerSample) * uint64(freq)
	return ceilDiv(tick*perTick, 1000), ceilDiv((tick+1)*perTick, 1000)
}

func ceilDiv(a, b uint64) uint64 {
	return (a + b - 1) / b
}

// build fills a batch with len(names) channels, evaluating fn for every
// global point index in the tick's range.
func build(s Synthesizer, cfg domain.GeneratorConfig, tick uint64, timestamp int64, names []string, fn func(n uint64, out []float64)) *domain.SampleBatch {
	start, end := PointRange(tick, cfg.MsPerSample, s.Frequency())
	count := int(end - start)

	channels := make([]domain.Channel, len(names))
	for i, name := range names {
		channels[i] = domain.Channel{Name: name, Values: make([]float64, count)}
	}

	point := make([]float64, len(names))
	for i := 0; i < count; i++ {
		fn(start+uint64(i), point)
		for c := range channels {
			channels[c].Values[i] = point[c]
		}
	}

	return &domain.SampleBatch{
		DeviceID:  cfg.DeviceID,
		Kind:      s.Kind(),
		Tick:      tick,
		Timestamp: timestamp,
		Channels:  channels,
		Frequency: s.Frequency(),
	}
}
