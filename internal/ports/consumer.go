package ports

import "github.com/waehniger/mdpnp/internal/domain"

// Consumer receives every batch a generator produces, synchronously and in
// tick order. Ownership of the batch passes to the consumer.
type Consumer interface {
	Consume(batch *domain.SampleBatch) error
}

// ConsumerFunc adapts a plain function to Consumer.
type ConsumerFunc func(batch *domain.SampleBatch) error

func (f ConsumerFunc) Consume(batch *domain.SampleBatch) error { return f(batch) }
