package ports

import "github.com/waehniger/mdpnp/internal/domain"

// QueuedBatch is a batch waiting between a generator and the sink. Seq is
// assigned by the buffered consumer in arrival order.
type QueuedBatch struct {
	Seq   uint64
	Batch *domain.SampleBatch
}

type BatchQueue interface {
	Enqueue(seq uint64, b *domain.SampleBatch) bool
	DequeueBatch(max int) []QueuedBatch
	// DropOldest evicts the head entry to make room.
	DropOldest() (QueuedBatch, bool)
	Len() int
}
