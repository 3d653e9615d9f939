package ports

import "github.com/waehniger/mdpnp/internal/domain"

// Transformer adjusts batches (gain, offset, channel selection) before they
// reach a sink.
type Transformer interface {
	Transform(*domain.SampleBatch) (*domain.SampleBatch, error)
}

// TransformFunc adapts a plain function to Transformer.
type TransformFunc func(*domain.SampleBatch) (*domain.SampleBatch, error)

func (f TransformFunc) Transform(b *domain.SampleBatch) (*domain.SampleBatch, error) { return f(b) }
