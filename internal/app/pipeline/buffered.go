package pipeline

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/waehniger/mdpnp/internal/domain"
	"github.com/waehniger/mdpnp/internal/ports"
)

const (
	PolicyBlock  = "block"
	PolicyDrop   = "drop"
	PolicyReject = "reject"

	defaultIdleSleep = 5 * time.Millisecond
)

var (
	// ErrQueueFull is returned to the generator when the reject policy refuses
	// a batch.
	ErrQueueFull = errors.New("pipeline: queue full")
	ErrClosed    = errors.New("pipeline: consumer closed")
)

// BufferedConsumer decouples generators from a slow sink. Consume only
// enqueues; a Drain writes the queue out. What happens on a full queue is
// decided by Policy.OnQueueFull:
//
//	block   wait for room, delaying the generator's next tick
//	drop    evict the oldest queued batch and accept the new one
//	reject  refuse the batch with ErrQueueFull
type BufferedConsumer struct {
	q   ports.BatchQueue
	pol ports.Policy
	obs ports.Observability

	seq       atomic.Uint64
	closeOnce sync.Once
	done      chan struct{}
}

func NewBufferedConsumer(q ports.BatchQueue, pol ports.Policy, obs ports.Observability) (*BufferedConsumer, error) {
	if q == nil {
		return nil, fmt.Errorf("%w: queue is required", domain.ErrInvalidConfig)
	}
	if err := ValidatePolicy(pol); err != nil {
		return nil, err
	}
	if obs == nil {
		obs = nopObs{}
	}
	return &BufferedConsumer{q: q, pol: pol, obs: obs, done: make(chan struct{})}, nil
}

// ValidatePolicy checks the queue-full policy name.
func ValidatePolicy(pol ports.Policy) error {
	switch pol.OnQueueFull {
	case PolicyBlock, PolicyDrop, PolicyReject:
		return nil
	default:
		return fmt.Errorf("%w: on_queue_full %q", domain.ErrInvalidConfig, pol.OnQueueFull)
	}
}

func (c *BufferedConsumer) Consume(b *domain.SampleBatch) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	return enqueueWithPolicy(c.q, c.seq.Add(1), b, c.pol, c.obs, c.done)
}

// Close releases producers blocked on a full queue and rejects further
// batches. Already queued batches stay for the drain.
func (c *BufferedConsumer) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

func enqueueWithPolicy(q ports.BatchQueue, seq uint64, b *domain.SampleBatch, pol ports.Policy, obs ports.Observability, done <-chan struct{}) error {
	sleep := pol.IdleSleep
	if sleep <= 0 {
		sleep = defaultIdleSleep
	}

	for {
		if ok := q.Enqueue(seq, b); ok {
			return nil
		}

		switch pol.OnQueueFull {
		case PolicyBlock:
			select {
			case <-done:
				return ErrClosed
			case <-time.After(sleep):
			}
		case PolicyDrop:
			if old, ok := q.DropOldest(); ok && old.Batch != nil {
				obs.IncCounter(ports.MetricBatchesDropped, old.Batch.DeviceID, 1)
			}
		case PolicyReject:
			obs.IncCounter(ports.MetricBatchesDropped, b.DeviceID, 1)
			return fmt.Errorf("%w: capacity %d", ErrQueueFull, pol.MaxQueueLen)
		default:
			obs.LogError("queue_policy_invalid", fmt.Errorf("policy=%s", pol.OnQueueFull))
			return fmt.Errorf("%w: on_queue_full %q", domain.ErrInvalidConfig, pol.OnQueueFull)
		}
	}
}

type nopObs struct{}

func (nopObs) LogInfo(string, ...ports.Field)            {}
func (nopObs) LogError(string, error, ...ports.Field)    {}
func (nopObs) IncCounter(string, string, float64)        {}
func (nopObs) ObserveLatency(string, string, float64)    {}
func (nopObs) SetGauge(string, string, float64)          {}
func (nopObs) RecordConsumerError(*domain.ConsumerError) {}

var _ ports.Consumer = (*BufferedConsumer)(nil)
