package observability

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/waehniger/mdpnp/internal/domain"
	"github.com/waehniger/mdpnp/internal/ports"
)

const deviceLabel = "device"

// PromObs implements ports.Observability with Prometheus vectors labelled by
// device and a structured slog logger.
type PromObs struct {
	logger   *slog.Logger
	counters map[string]*prometheus.CounterVec
	gauges   map[string]*prometheus.GaugeVec
	histos   map[string]*prometheus.HistogramVec
}

// NewPromObs registers the simulator metrics on reg. A nil reg uses
// prometheus.DefaultRegisterer, a nil logger uses slog.Default().
func NewPromObs(reg prometheus.Registerer, logger *slog.Logger) (*PromObs, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if logger == nil {
		logger = slog.Default()
	}

	labels := []string{deviceLabel}
	delivered := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: ports.MetricBatchesDelivered,
		Help: "Sample batches accepted by the consumer.",
	}, labels)
	consumerErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: ports.MetricConsumerErrors,
		Help: "Consumer failures or panics isolated by the scheduler.",
	}, labels)
	clamped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: ports.MetricDriftClamped,
		Help: "Realtime timestamps clamped after drift was applied.",
	}, labels)
	dropped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: ports.MetricBatchesDropped,
		Help: "Batches lost to queue backpressure policies.",
	}, labels)
	written := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: ports.MetricSinkWritten,
		Help: "Batches committed to the sink.",
	}, labels)

	connected := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: ports.MetricConnected,
		Help: "1 while the generator is connected, 0 otherwise.",
	}, labels)
	driftOffset := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: ports.MetricDriftOffset,
		Help: "Drift offset applied to the last realtime timestamp.",
	}, labels)
	queueLen := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: ports.MetricQueueLength,
		Help: "Batches buffered between generators and the sink.",
	}, labels)

	tickDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    ports.MetricTickDuration,
		Help:    "Time spent synthesizing and delivering one tick.",
		Buckets: prometheus.ExponentialBuckets(0.00001, 2, 14),
	}, labels)
	sinkLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    ports.MetricSinkLatency,
		Help:    "Latency from dequeue to sink commit.",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14),
	}, labels)

	collectors := []prometheus.Collector{
		delivered, consumerErrors, clamped, dropped, written,
		connected, driftOffset, queueLen,
		tickDuration, sinkLatency,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return &PromObs{
		logger: logger,
		counters: map[string]*prometheus.CounterVec{
			ports.MetricBatchesDelivered: delivered,
			ports.MetricConsumerErrors:   consumerErrors,
			ports.MetricDriftClamped:     clamped,
			ports.MetricBatchesDropped:   dropped,
			ports.MetricSinkWritten:      written,
		},
		gauges: map[string]*prometheus.GaugeVec{
			ports.MetricConnected:   connected,
			ports.MetricDriftOffset: driftOffset,
			ports.MetricQueueLength: queueLen,
		},
		histos: map[string]*prometheus.HistogramVec{
			ports.MetricTickDuration: tickDuration,
			ports.MetricSinkLatency:  sinkLatency,
		},
	}, nil
}

func (p *PromObs) LogInfo(msg string, fields ...ports.Field) {
	p.logger.Info(msg, attrs(fields)...)
}

func (p *PromObs) LogError(msg string, err error, fields ...ports.Field) {
	args := attrs(fields)
	if err != nil {
		args = append(args, slog.Any("error", err))
	}
	p.logger.Error(msg, args...)
}

func (p *PromObs) IncCounter(name, device string, v float64) {
	if c, ok := p.counters[name]; ok {
		c.WithLabelValues(device).Add(v)
	}
}

func (p *PromObs) ObserveLatency(name, device string, seconds float64) {
	if h, ok := p.histos[name]; ok {
		h.WithLabelValues(device).Observe(seconds)
	}
}

func (p *PromObs) SetGauge(name, device string, v float64) {
	if g, ok := p.gauges[name]; ok {
		g.WithLabelValues(device).Set(v)
	}
}

func (p *PromObs) RecordConsumerError(err *domain.ConsumerError) {
	if err == nil {
		return
	}
	p.IncCounter(ports.MetricConsumerErrors, err.DeviceID, 1)
	p.logger.Warn("consumer_error",
		slog.String("device", err.DeviceID),
		slog.Uint64("tick", err.Tick),
		slog.Any("error", err.Err))
}

func attrs(fields []ports.Field) []any {
	out := make([]any, 0, len(fields))
	for _, f := range fields {
		out = append(out, slog.Any(f.Key, f.Value))
	}
	return out
}

var _ ports.Observability = (*PromObs)(nil)
