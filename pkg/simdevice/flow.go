package simdevice

import (
	"context"
	"fmt"
)

// Flow is a convenience builder that lets callers say Conf → Devices → Output
// without touching the underlying wiring.
type Flow struct {
	cfg  *Config
	opts []RuntimeOption
}

// FlowOption mutates the Flow after configuration is loaded.
type FlowOption func(*Flow)

// OutputOption configures the sink side of the runtime.
type OutputOption func(*Flow)

// Conf loads YAML from disk, applies FlowOption values, and returns a Flow builder.
func Conf(path string, opts ...FlowOption) (*Flow, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return ConfFromConfig(cfg, opts...)
}

// ConfFromConfig bootstraps a Flow from an in-memory Config.
func ConfFromConfig(cfg *Config, opts ...FlowOption) (*Flow, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	f := &Flow{cfg: cfg}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f, nil
}

// Config returns the underlying configuration so callers can tweak it before building a runtime.
func (f *Flow) Config() *Config {
	if f == nil {
		return nil
	}
	return f.cfg
}

// Options appends raw RuntimeOption values to the builder for advanced scenarios.
func (f *Flow) Options(opts ...RuntimeOption) *Flow {
	if f == nil {
		return nil
	}
	f.appendOptions(opts...)
	return f
}

// Devices adds simulated devices on top of those loaded from YAML. A device
// without an id takes its name.
func (f *Flow) Devices(devices ...DeviceConfig) *Flow {
	if f == nil {
		return nil
	}
	for _, d := range devices {
		if d.DeviceID == "" {
			d.DeviceID = d.Name
		}
		f.cfg.Devices = append(f.cfg.Devices, d)
	}
	return f
}

// Output records sink-side overrides and builds a Runtime ready to run.
func (f *Flow) Output(opts ...OutputOption) (*Runtime, error) {
	if f == nil {
		return nil, fmt.Errorf("flow is nil")
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return NewRuntime(f.cfg, f.opts...)
}

// Run is a shortcut for Output + runtime.Run.
func (f *Flow) Run(ctx context.Context, opts ...OutputOption) error {
	rt, err := f.Output(opts...)
	if err != nil {
		return err
	}
	return rt.Run(ctx)
}

// WithFlowOptions appends RuntimeOption values during Conf.
func WithFlowOptions(opts ...RuntimeOption) FlowOption {
	return func(f *Flow) {
		if f != nil {
			f.appendOptions(opts...)
		}
	}
}

// OutputSink injects a custom Sink implementation.
func OutputSink(s Sink) OutputOption {
	return func(f *Flow) {
		if f != nil && s != nil {
			f.appendOptions(WithSink(s))
		}
	}
}

// OutputCallback installs a sink built from a simple callback function.
func OutputCallback(name string, fn BatchHandler) OutputOption {
	return func(f *Flow) {
		if f != nil {
			f.appendOptions(WithSink(NewCallbackSink(name, fn)))
		}
	}
}

// OutputTransformer rewrites batches before they hit the sink.
func OutputTransformer(tr Transformer) OutputOption {
	return func(f *Flow) {
		if f != nil && tr != nil {
			f.appendOptions(WithTransformer(tr))
		}
	}
}

// OutputChannels keeps only the named waveforms.
func OutputChannels(names ...string) OutputOption {
	return func(f *Flow) {
		if f != nil {
			f.cfg.Output.Channels = append([]string(nil), names...)
		}
	}
}

// OutputObservability replaces the default observability backend.
func OutputObservability(obs Observability) OutputOption {
	return func(f *Flow) {
		if f != nil && obs != nil {
			f.appendOptions(WithObservability(obs))
		}
	}
}

func (f *Flow) appendOptions(opts ...RuntimeOption) {
	for _, opt := range opts {
		if opt != nil {
			f.opts = append(f.opts, opt)
		}
	}
}
