// Package scheduler drives simulated devices: it owns the periodic tick, the
// time-base discipline, drift injection and the Idle/Connected lifecycle, and
// hands every synthesized batch to exactly one consumer.
package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/waehniger/mdpnp/internal/domain"
	"github.com/waehniger/mdpnp/internal/ports"
	"github.com/waehniger/mdpnp/internal/synth"
	"github.com/waehniger/mdpnp/internal/timing"
)

// Publisher is the publication scheduler of one simulated device.
//
// Lifecycle is Idle -> Connected -> Idle. Connect schedules the tick at a
// fixed rate of MsPerSample on the supplied executor, first run immediately.
// Disconnect cancels it; once Disconnect returns no further tick begins, and
// it may be called from inside the consumer.
//
// The tick index counts up from 0 for the lifetime of the Publisher and is not
// reset by reconnecting, so metronome timestamps stay on a single grid.
type Publisher struct {
	cfg      domain.GeneratorConfig
	synth    synth.Synthesizer
	consumer ports.Consumer
	clock    ports.Clock
	obs      ports.Observability
	origin   int64

	// tickMu keeps ticks strictly sequential even on executors that would
	// overlap runs. It is never held while taking mu for lifecycle changes
	// from outside a tick, so Disconnect from a consumer cannot deadlock.
	tickMu sync.Mutex

	mu        sync.Mutex
	connected bool
	gen       uint64
	handle    ports.Cancelable
	next      uint64
	lastTS    int64
	haveLast  bool
}

type Option func(*Publisher)

// WithClock sets the wall clock read by the realtime discipline.
func WithClock(c ports.Clock) Option {
	return func(p *Publisher) {
		if c != nil {
			p.clock = c
		}
	}
}

func WithObservability(obs ports.Observability) Option {
	return func(p *Publisher) {
		if obs != nil {
			p.obs = obs
		}
	}
}

// New validates cfg and builds an idle Publisher.
func New(cfg domain.GeneratorConfig, s synth.Synthesizer, consumer ports.Consumer, opts ...Option) (*Publisher, error) {
	cfg = cfg.Clone()
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if s == nil {
		return nil, fmt.Errorf("%w: synthesizer is required", domain.ErrInvalidConfig)
	}
	if consumer == nil {
		return nil, fmt.Errorf("%w: consumer is required", domain.ErrInvalidConfig)
	}

	p := &Publisher{
		cfg:      cfg,
		synth:    s,
		consumer: consumer,
		clock:    timing.SystemClock{},
		obs:      nopObservability{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}

	if cfg.OriginMs != nil {
		p.origin = *cfg.OriginMs
	} else {
		p.origin = timing.ToUnixMs(p.clock.Now())
	}
	return p, nil
}

func (p *Publisher) DeviceID() string               { return p.cfg.DeviceID }
func (p *Publisher) Kind() string                   { return p.synth.Kind() }
func (p *Publisher) Config() domain.GeneratorConfig { return p.cfg.Clone() }

// Origin is the metronome timestamp of tick 0.
func (p *Publisher) Origin() int64 { return p.origin }

func (p *Publisher) Connected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected
}

// Ticks returns the index the next tick will carry.
func (p *Publisher) Ticks() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.next
}

// Connect starts periodic publication on exec. It fails with
// domain.ErrAlreadyConnected, leaving the running schedule untouched, when
// the Publisher is already connected.
//
// A Disconnect that runs while Connect is still scheduling wins: Connect then
// cancels the schedule it just obtained and returns nil with the Publisher
// left Idle. Callers that need to know should check Connected afterwards.
func (p *Publisher) Connect(exec ports.Executor) error {
	if exec == nil {
		return fmt.Errorf("connect %s: executor is required", p.cfg.DeviceID)
	}

	p.mu.Lock()
	if p.connected {
		p.mu.Unlock()
		return fmt.Errorf("connect %s: %w", p.cfg.DeviceID, domain.ErrAlreadyConnected)
	}
	p.connected = true
	p.gen++
	gen := p.gen
	p.mu.Unlock()

	handle, err := exec.ScheduleAtFixedRate(func() { p.tick(gen) }, 0, timing.Interval(p.cfg.MsPerSample))

	p.mu.Lock()
	if err != nil {
		if p.gen == gen {
			p.connected = false
		}
		p.mu.Unlock()
		return fmt.Errorf("connect %s: %w", p.cfg.DeviceID, err)
	}
	if !p.connected || p.gen != gen {
		// Disconnected while the schedule was being registered.
		p.mu.Unlock()
		handle.Cancel()
		return nil
	}
	p.handle = handle
	p.mu.Unlock()

	p.obs.SetGauge(ports.MetricConnected, p.cfg.DeviceID, 1)
	p.obs.LogInfo("generator_connected",
		ports.Field{Key: "device", Value: p.cfg.DeviceID},
		ports.Field{Key: "kind", Value: p.synth.Kind()},
		ports.Field{Key: "time_base", Value: p.cfg.TimeBase.String()},
		ports.Field{Key: "ms_per_sample", Value: p.cfg.MsPerSample})
	return nil
}

// Disconnect cancels future ticks. It is a no-op when idle.
func (p *Publisher) Disconnect() {
	p.mu.Lock()
	if !p.connected {
		p.mu.Unlock()
		return
	}
	p.connected = false
	handle := p.handle
	p.handle = nil
	next := p.next
	p.mu.Unlock()

	if handle != nil {
		handle.Cancel()
	}

	p.obs.SetGauge(ports.MetricConnected, p.cfg.DeviceID, 0)
	p.obs.LogInfo("generator_disconnected",
		ports.Field{Key: "device", Value: p.cfg.DeviceID},
		ports.Field{Key: "ticks", Value: next})
}

func (p *Publisher) tick(gen uint64) {
	p.tickMu.Lock()
	defer p.tickMu.Unlock()

	started := time.Now()

	p.mu.Lock()
	if !p.connected || p.gen != gen {
		p.mu.Unlock()
		return
	}
	idx := p.next
	p.next++
	ts, offset, clamped := p.timestampLocked(idx)
	p.mu.Unlock()

	batch := p.synth.Synthesize(p.cfg, idx, ts)

	if err := p.deliver(batch); err != nil {
		p.obs.RecordConsumerError(&domain.ConsumerError{DeviceID: p.cfg.DeviceID, Tick: idx, Err: err})
	} else {
		p.obs.IncCounter(ports.MetricBatchesDelivered, p.cfg.DeviceID, 1)
	}

	if p.cfg.TimeBase == timing.Realtime && p.cfg.Drift.Enabled() {
		p.obs.SetGauge(ports.MetricDriftOffset, p.cfg.DeviceID, float64(offset))
	}
	if clamped {
		p.obs.IncCounter(ports.MetricDriftClamped, p.cfg.DeviceID, 1)
	}
	p.obs.ObserveLatency(ports.MetricTickDuration, p.cfg.DeviceID, time.Since(started).Seconds())
}

// timestampLocked derives the timestamp of tick idx. Metronome:
// origin + idx*ms, saturating at MaxInt64. Realtime: wall clock + drift offset, clamped into
// [0, MaxInt64] and, with Monotonic set, to no earlier than the previous tick.
func (p *Publisher) timestampLocked(idx uint64) (ts, offset int64, clamped bool) {
	switch p.cfg.TimeBase {
	case timing.Realtime:
		offset = p.cfg.Drift.Offset(idx)
		ts, clamped = timing.ApplyOffset(timing.ToUnixMs(p.clock.Now()), offset)
		if p.cfg.Monotonic && p.haveLast && ts < p.lastTS {
			ts = p.lastTS
			clamped = true
		}
	default:
		ts, clamped = timing.MetronomeTimestamp(p.origin, idx, p.cfg.MsPerSample)
	}
	p.lastTS = ts
	p.haveLast = true
	return ts, offset, clamped
}

func (p *Publisher) deliver(batch *domain.SampleBatch) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("consumer panic: %v", r)
		}
	}()
	return p.consumer.Consume(batch)
}

type nopObservability struct{}

func (nopObservability) LogInfo(string, ...ports.Field)            {}
func (nopObservability) LogError(string, error, ...ports.Field)    {}
func (nopObservability) IncCounter(string, string, float64)        {}
func (nopObservability) ObserveLatency(string, string, float64)    {}
func (nopObservability) SetGauge(string, string, float64)          {}
func (nopObservability) RecordConsumerError(*domain.ConsumerError) {}
