package ports

import "github.com/waehniger/mdpnp/internal/domain"

// Sink accepts batches drained from a buffered consumer.
type Sink interface {
	WriteBatch(batches []*domain.SampleBatch) error
	Name() string
}
