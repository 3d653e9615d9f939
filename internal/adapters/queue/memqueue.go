package queue

import (
	"sync"

	"github.com/waehniger/mdpnp/internal/domain"
	"github.com/waehniger/mdpnp/internal/ports"
)

// MemQueue is a bounded FIFO of sample batches backed by a ring buffer.
type MemQueue struct {
	mu   sync.Mutex
	buf  []ports.QueuedBatch
	head int
	size int
}

// NewMemQueue returns a queue holding at most capacity batches. A
// non-positive capacity is treated as 1.
func NewMemQueue(capacity int) *MemQueue {
	if capacity <= 0 {
		capacity = 1
	}
	return &MemQueue{buf: make([]ports.QueuedBatch, capacity)}
}

func (q *MemQueue) Enqueue(seq uint64, b *domain.SampleBatch) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.size == len(q.buf) {
		return false
	}
	q.buf[(q.head+q.size)%len(q.buf)] = ports.QueuedBatch{Seq: seq, Batch: b}
	q.size++
	return true
}

// DequeueBatch removes up to max entries from the head. max <= 0 takes
// everything queued.
func (q *MemQueue) DequeueBatch(max int) []ports.QueuedBatch {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.size == 0 {
		return nil
	}
	if max <= 0 || max > q.size {
		max = q.size
	}
	out := make([]ports.QueuedBatch, max)
	for i := range out {
		out[i] = q.popLocked()
	}
	return out
}

func (q *MemQueue) DropOldest() (ports.QueuedBatch, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.size == 0 {
		return ports.QueuedBatch{}, false
	}
	return q.popLocked(), true
}

func (q *MemQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}

func (q *MemQueue) Cap() int { return len(q.buf) }

func (q *MemQueue) popLocked() ports.QueuedBatch {
	item := q.buf[q.head]
	q.buf[q.head] = ports.QueuedBatch{}
	q.head = (q.head + 1) % len(q.buf)
	q.size--
	return item
}

var _ ports.BatchQueue = (*MemQueue)(nil)
