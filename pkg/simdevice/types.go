package simdevice

import (
	"time"

	"github.com/waehniger/mdpnp/internal/adapters/executor"
	"github.com/waehniger/mdpnp/internal/domain"
	"github.com/waehniger/mdpnp/internal/ports"
	"github.com/waehniger/mdpnp/internal/scheduler"
	"github.com/waehniger/mdpnp/internal/synth"
	"github.com/waehniger/mdpnp/internal/timing"
)

// SampleBatch is what a simulated device emits on every tick.
type SampleBatch = domain.SampleBatch

// Channel is one named waveform inside a SampleBatch.
type Channel = domain.Channel

// GeneratorConfig holds the per-device generator settings.
type GeneratorConfig = domain.GeneratorConfig

// ConsumerError wraps a failure or panic returned by a consumer for one tick.
type ConsumerError = domain.ConsumerError

type (
	TimeBase    = timing.TimeBase
	DriftPolicy = timing.DriftPolicy
	DriftMode   = timing.DriftMode
)

const (
	Metronome = timing.Metronome
	Realtime  = timing.Realtime

	DriftSawtooth = timing.DriftSawtooth
	DriftConstant = timing.DriftConstant
	DriftJitter   = timing.DriftJitter

	KindECG     = synth.KindECG
	KindPulseOx = synth.KindPulseOx
	KindCapno   = synth.KindCapno
	KindNIBP    = synth.KindNIBP

	MaxMsPerSample = domain.MaxMsPerSample
)

// Ptr returns a pointer to v, for the optional GeneratorConfig fields such as
// OriginMs and EtCO2.
func Ptr[T any](v T) *T { return domain.Ptr(v) }

var (
	ErrInvalidConfig    = domain.ErrInvalidConfig
	ErrAlreadyConnected = domain.ErrAlreadyConnected
)

// Consumer receives every batch synchronously on the generator's tick.
type Consumer = ports.Consumer

// ConsumerFunc adapts a function to Consumer.
type ConsumerFunc = ports.ConsumerFunc

// Sink receives batches drained from the runtime's buffered queue.
type Sink = ports.Sink

// Transformer rewrites batches before they reach the sink.
type Transformer = ports.Transformer

// TransformFunc adapts a function to Transformer.
type TransformFunc = ports.TransformFunc

// BatchQueue is the bounded queue between generators and the sink.
type BatchQueue = ports.BatchQueue

// Observability emits logs and metrics about ticks, drift and delivery.
type Observability = ports.Observability

// Field is a structured log field used by Observability implementations.
type Field = ports.Field

// Executor runs periodic tasks on a fixed-rate grid.
type Executor = ports.Executor

// Cancelable stops a scheduled task.
type Cancelable = ports.Cancelable

// Clock supplies wall-clock time to the realtime discipline.
type Clock = ports.Clock

// Publisher is the scheduler of a single simulated device.
type Publisher = scheduler.Publisher

// PublisherOption customizes a Publisher.
type PublisherOption = scheduler.Option

// ManualExecutor runs tasks in virtual time; handy in tests.
type ManualExecutor = executor.Manual

var (
	WithClock                  = scheduler.WithClock
	WithPublisherObservability = scheduler.WithObservability
)

// NewPublisher builds an idle generator of the given device kind.
func NewPublisher(kind string, cfg GeneratorConfig, consumer Consumer, opts ...PublisherOption) (*Publisher, error) {
	s, err := synth.Lookup(kind)
	if err != nil {
		return nil, err
	}
	return scheduler.New(cfg, s, consumer, opts...)
}

// NewGeneratorConfig validates the four required generator settings.
func NewGeneratorConfig(heartRate float64, msPerSample int64, tb TimeBase, driftMs float64) (GeneratorConfig, error) {
	return domain.NewGeneratorConfig(heartRate, msPerSample, tb, driftMs)
}

func NewManualExecutor(start time.Time) *ManualExecutor { return executor.NewManual(start) }
func NewSerialExecutor() *executor.Serial               { return executor.NewSerial() }
func NewTickerExecutor() *executor.Ticker               { return executor.NewTicker() }

// Kinds lists the supported device kinds.
func Kinds() []string { return synth.Kinds() }
