package pipeline

import (
	"github.com/waehniger/mdpnp/internal/domain"
	"github.com/waehniger/mdpnp/internal/ports"
)

// SelectChannels keeps only the named waveforms. Batches without any of
// them still pass through with their vitals. An empty list keeps everything.
func SelectChannels(names ...string) ports.Transformer {
	keep := make(map[string]struct{}, len(names))
	for _, n := range names {
		keep[n] = struct{}{}
	}
	return ports.TransformFunc(func(b *domain.SampleBatch) (*domain.SampleBatch, error) {
		if len(keep) == 0 {
			return b, nil
		}
		out := *b
		out.Channels = make([]domain.Channel, 0, len(b.Channels))
		for _, ch := range b.Channels {
			if _, ok := keep[ch.Name]; ok {
				out.Channels = append(out.Channels, ch)
			}
		}
		return &out, nil
	})
}
