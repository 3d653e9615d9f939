package mdpnp

import (
	"context"
	"time"

	base "github.com/waehniger/mdpnp/pkg/simdevice"
)

// Re-exported errors for convenience.
var (
	ErrInvalidConfig     = base.ErrInvalidConfig
	ErrAlreadyConnected  = base.ErrAlreadyConnected
	ErrQueueFull         = base.ErrQueueFull
	ErrChannelSinkClosed = base.ErrChannelSinkClosed
)

// Type aliases so consumers can import github.com/waehniger/mdpnp directly.
type (
	Config          = base.Config
	Policy          = base.Policy
	DeviceConfig    = base.DeviceConfig
	MetricsConfig   = base.MetricsConfig
	OutputConfig    = base.OutputConfig
	GeneratorConfig = base.GeneratorConfig
	TimeBase        = base.TimeBase
	DriftPolicy     = base.DriftPolicy
	DriftMode       = base.DriftMode
	SampleBatch     = base.SampleBatch
	Channel         = base.Channel
	ConsumerError   = base.ConsumerError
	Consumer        = base.Consumer
	ConsumerFunc    = base.ConsumerFunc
	Sink            = base.Sink
	BatchHandler    = base.BatchHandler
	Transformer     = base.Transformer
	TransformFunc   = base.TransformFunc
	BatchQueue      = base.BatchQueue
	Observability   = base.Observability
	Executor        = base.Executor
	Clock           = base.Clock
	Publisher       = base.Publisher
	PublisherOption = base.PublisherOption
	Generator       = base.Generator
	ManualExecutor  = base.ManualExecutor
	Flow            = base.Flow
	FlowOption      = base.FlowOption
	OutputOption    = base.OutputOption
	Runtime         = base.Runtime
	RuntimeOption   = base.RuntimeOption
)

const (
	Metronome = base.Metronome
	Realtime  = base.Realtime

	KindECG     = base.KindECG
	KindPulseOx = base.KindPulseOx
	KindCapno   = base.KindCapno
	KindNIBP    = base.KindNIBP
)

// Ptr returns a pointer to v, for optional GeneratorConfig fields.
func Ptr[T any](v T) *T { return base.Ptr(v) }

// Config helpers.
func LoadConfig(path string) (*Config, error) {
	return base.LoadConfig(path)
}

func NewGeneratorConfig(heartRate float64, msPerSample int64, tb TimeBase, driftMs float64) (GeneratorConfig, error) {
	return base.NewGeneratorConfig(heartRate, msPerSample, tb, driftMs)
}

// Single-device helpers.
func NewPublisher(kind string, cfg GeneratorConfig, consumer Consumer, opts ...PublisherOption) (*Publisher, error) {
	return base.NewPublisher(kind, cfg, consumer, opts...)
}

func NewGenerator(kind string, cfg GeneratorConfig, consumer Consumer, opts ...PublisherOption) (*Generator, error) {
	return base.NewGenerator(kind, cfg, consumer, opts...)
}

func NewManualExecutor(start time.Time) *ManualExecutor {
	return base.NewManualExecutor(start)
}

// Flow builder helpers.
func Conf(path string, opts ...FlowOption) (*Flow, error) {
	return base.Conf(path, opts...)
}

func ConfFromConfig(cfg *Config, opts ...FlowOption) (*Flow, error) {
	return base.ConfFromConfig(cfg, opts...)
}

func WithFlowOptions(opts ...RuntimeOption) FlowOption {
	return base.WithFlowOptions(opts...)
}

func OutputSink(s Sink) OutputOption {
	return base.OutputSink(s)
}

func OutputCallback(name string, fn BatchHandler) OutputOption {
	return base.OutputCallback(name, fn)
}

func OutputTransformer(tr Transformer) OutputOption {
	return base.OutputTransformer(tr)
}

func OutputChannels(names ...string) OutputOption {
	return base.OutputChannels(names...)
}

// Runtime and options.
func NewRuntime(cfg *Config, opts ...RuntimeOption) (*Runtime, error) {
	return base.NewRuntime(cfg, opts...)
}

func Run(ctx context.Context, path string) error {
	flow, err := base.Conf(path)
	if err != nil {
		return err
	}
	return flow.Run(ctx)
}

func WithSink(s Sink) RuntimeOption {
	return base.WithSink(s)
}

func WithTransformer(tr Transformer) RuntimeOption {
	return base.WithTransformer(tr)
}

func WithExecutor(exec Executor) RuntimeOption {
	return base.WithExecutor(exec)
}

func WithObservability(obs Observability) RuntimeOption {
	return base.WithObservability(obs)
}

// Sink adapters.
func NewCallbackSink(name string, fn BatchHandler) Sink {
	return base.NewCallbackSink(name, fn)
}

func NewChannelSink(name string, buffer int) (Sink, <-chan []*SampleBatch, func()) {
	return base.NewChannelSink(name, buffer)
}
