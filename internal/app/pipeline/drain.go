package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/waehniger/mdpnp/internal/domain"
	"github.com/waehniger/mdpnp/internal/ports"
)

// QueueLabel is the device label value used for queue-wide metrics.
const QueueLabel = "all"

// Drain moves batches from a queue to a sink, optionally through a
// Transformer.
type Drain struct {
	q    ports.BatchQueue
	tr   ports.Transformer
	sink ports.Sink
	pol  ports.Policy
	obs  ports.Observability
}

// NewDrain wires a drain. tr may be nil.
func NewDrain(q ports.BatchQueue, tr ports.Transformer, sink ports.Sink, pol ports.Policy, obs ports.Observability) (*Drain, error) {
	if q == nil || sink == nil {
		return nil, fmt.Errorf("%w: drain needs a queue and a sink", domain.ErrInvalidConfig)
	}
	if obs == nil {
		obs = nopObs{}
	}
	if pol.IdleSleep <= 0 {
		pol.IdleSleep = defaultIdleSleep
	}
	return &Drain{q: q, tr: tr, sink: sink, pol: pol, obs: obs}, nil
}

// Run drains until ctx is done, then flushes whatever is still queued and
// returns nil.
func (d *Drain) Run(ctx context.Context) error {
	for {
		if d.Flush() == 0 {
			select {
			case <-ctx.Done():
				for d.Flush() > 0 {
				}
				return nil
			case <-time.After(d.pol.IdleSleep):
			}
		}
	}
}

// Flush writes at most one batch group of MaxBatchSize and reports how many
// queue entries it consumed.
func (d *Drain) Flush() int {
	items := d.q.DequeueBatch(d.pol.MaxBatchSize)
	d.obs.SetGauge(ports.MetricQueueLength, QueueLabel, float64(d.q.Len()))
	if len(items) == 0 {
		return 0
	}

	out := make([]*domain.SampleBatch, 0, len(items))
	for _, item := range items {
		b := item.Batch
		if d.tr != nil {
			t, err := d.tr.Transform(b)
			if err != nil {
				d.obs.LogError("transform_failed", err,
					ports.Field{Key: "device", Value: b.DeviceID},
					ports.Field{Key: "tick", Value: b.Tick})
				d.obs.IncCounter(ports.MetricBatchesDropped, b.DeviceID, 1)
				continue
			}
			if t == nil {
				continue
			}
			b = t
		}
		out = append(out, b)
	}
	if len(out) == 0 {
		return len(items)
	}

	start := time.Now()
	if err := d.sink.WriteBatch(out); err != nil {
		d.obs.LogError("sink_write_failed", err,
			ports.Field{Key: "sink", Value: d.sink.Name()},
			ports.Field{Key: "batches", Value: len(out)})
		for _, b := range out {
			d.obs.IncCounter(ports.MetricBatchesDropped, b.DeviceID, 1)
		}
		return len(items)
	}
	d.obs.ObserveLatency(ports.MetricSinkLatency, QueueLabel, time.Since(start).Seconds())
	for _, b := range out {
		d.obs.IncCounter(ports.MetricSinkWritten, b.DeviceID, 1)
	}
	return len(items)
}
