package ports

import "github.com/waehniger/mdpnp/internal/domain"

type Observability interface {
	LogInfo(msg string, fields ...Field)
	LogError(msg string, err error, fields ...Field)

	IncCounter(name, device string, v float64)
	ObserveLatency(name, device string, seconds float64)
	SetGauge(name, device string, v float64)

	RecordConsumerError(err *domain.ConsumerError)
}

type Field struct {
	Key   string
	Value any
}

// Metric names shared by the scheduler, pipeline and observability adapters.
const (
	MetricBatchesDelivered = "mdpnp_batches_delivered_total"
	MetricConsumerErrors   = "mdpnp_consumer_errors_total"
	MetricDriftClamped     = "mdpnp_drift_clamped_total"
	MetricBatchesDropped   = "mdpnp_batches_dropped_total"
	MetricSinkWritten      = "mdpnp_sink_batches_written_total"
	MetricConnected        = "mdpnp_generator_connected"
	MetricDriftOffset      = "mdpnp_drift_offset_ms"
	MetricQueueLength      = "mdpnp_queue_length"
	MetricTickDuration     = "mdpnp_tick_duration_seconds"
	MetricSinkLatency      = "mdpnp_sink_latency_seconds"
)
