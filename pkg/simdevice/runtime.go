package simdevice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/waehniger/mdpnp/internal/adapters/executor"
	"github.com/waehniger/mdpnp/internal/adapters/observability"
	"github.com/waehniger/mdpnp/internal/adapters/queue"
	"github.com/waehniger/mdpnp/internal/app/pipeline"
	"github.com/waehniger/mdpnp/internal/ports"
	"github.com/waehniger/mdpnp/internal/scheduler"
	"github.com/waehniger/mdpnp/internal/synth"
)

// ErrQueueFull is what a generator's consumer reports when the reject policy
// refuses a batch.
var ErrQueueFull = pipeline.ErrQueueFull

// RuntimeOption customizes the dependencies used by Runtime.
type RuntimeOption func(*runtimeOverrides)

type runtimeOverrides struct {
	sink          Sink
	transformer   Transformer
	queue         BatchQueue
	observability Observability
	executor      Executor
	clock         Clock
	registry      *prometheus.Registry
	logger        *slog.Logger
}

// WithSink replaces the default JSON-lines output.
func WithSink(s Sink) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.sink = s
	}
}

// WithTransformer overrides the channel selection configured under output.
func WithTransformer(t Transformer) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.transformer = t
	}
}

// WithQueue injects a custom bounded queue.
func WithQueue(q BatchQueue) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.queue = q
	}
}

// WithObservability plugs in a custom observability backend. The metrics
// endpoint then only serves the runtime's own (empty) registry.
func WithObservability(obs Observability) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.observability = obs
	}
}

// WithExecutor shares a caller-owned executor. The runtime will not shut it
// down.
func WithExecutor(exec Executor) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.executor = exec
	}
}

// WithRuntimeClock sets the clock read by realtime generators.
func WithRuntimeClock(c Clock) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.clock = c
	}
}

// WithRegistry registers the runtime metrics on reg instead of a private registry.
func WithRegistry(reg *prometheus.Registry) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.registry = reg
	}
}

func WithLogger(l *slog.Logger) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.logger = l
	}
}

type shutdowner interface {
	Shutdown(ctx context.Context) error
}

// Runtime builds one generator per configured device, shares a single
// executor between them and funnels every batch through a bounded queue into
// a sink.
type Runtime struct {
	cfg        *Config
	obs        ports.Observability
	registry   *prometheus.Registry
	exec       ports.Executor
	ownedExec  shutdowner
	queue      ports.BatchQueue
	consumer   *pipeline.BufferedConsumer
	drain      *pipeline.Drain
	sink       ports.Sink
	output     io.Closer
	publishers []*scheduler.Publisher

	mu          sync.Mutex
	started     bool
	stopped     bool
	metricsSrv  *http.Server
	metricsAddr string
	drainCancel context.CancelFunc
	drainDone   chan struct{}
}

// NewRuntime bootstraps the default adapters (executor from cfg.Executor,
// in-memory queue, JSON-lines sink, Prometheus observability). Options
// override any of them.
func NewRuntime(cfg *Config, opts ...RuntimeOption) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var o runtimeOverrides
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}
	reg := o.registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	obs := o.observability
	if obs == nil {
		prom, err := observability.NewPromObs(reg, logger)
		if err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
		obs = prom
	}

	rt := &Runtime{cfg: cfg, obs: obs, registry: reg}

	rt.exec = o.executor
	if rt.exec == nil {
		switch cfg.Executor {
		case ExecutorTicker:
			t := executor.NewTicker()
			rt.exec, rt.ownedExec = t, t
		default:
			s := executor.NewSerial()
			rt.exec, rt.ownedExec = s, s
		}
	}

	rt.queue = o.queue
	if rt.queue == nil {
		rt.queue = queue.NewMemQueue(cfg.Policy.MaxQueueLen)
	}

	var err error
	rt.sink = o.sink
	if rt.sink == nil {
		rt.sink, rt.output, err = openOutput(cfg.Output)
		if err != nil {
			rt.abort()
			return nil, err
		}
	}

	tr := o.transformer
	if tr == nil && len(cfg.Output.Channels) > 0 {
		tr = pipeline.SelectChannels(cfg.Output.Channels...)
	}

	rt.consumer, err = pipeline.NewBufferedConsumer(rt.queue, cfg.Policy, obs)
	if err != nil {
		rt.abort()
		return nil, err
	}
	rt.drain, err = pipeline.NewDrain(rt.queue, tr, rt.sink, cfg.Policy, obs)
	if err != nil {
		rt.abort()
		return nil, err
	}

	pubOpts := []scheduler.Option{scheduler.WithObservability(obs)}
	if o.clock != nil {
		pubOpts = append(pubOpts, scheduler.WithClock(o.clock))
	}
	for i, d := range cfg.Devices {
		s, err := synth.Lookup(d.Kind)
		if err != nil {
			rt.abort()
			return nil, fmt.Errorf("devices[%d]: %w", i, err)
		}
		p, err := scheduler.New(d.GeneratorConfig, s, rt.consumer, pubOpts...)
		if err != nil {
			rt.abort()
			return nil, fmt.Errorf("devices[%d] %s: %w", i, d.Name, err)
		}
		rt.publishers = append(rt.publishers, p)
	}
	return rt, nil
}

func openOutput(out OutputConfig) (Sink, io.Closer, error) {
	if out.Path == "" || out.Path == "-" {
		return NewJSONLinesSink("stdout", os.Stdout), nil, nil
	}
	f, err := os.Create(out.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open output: %w", err)
	}
	return NewJSONLinesSink(out.Path, f), f, nil
}

// abort releases what NewRuntime acquired before failing.
func (r *Runtime) abort() {
	if r.ownedExec != nil {
		_ = r.ownedExec.Shutdown(context.Background())
	}
	if r.output != nil {
		_ = r.output.Close()
	}
}

// Publishers returns the generators in configuration order.
func (r *Runtime) Publishers() []*Publisher {
	out := make([]*Publisher, len(r.publishers))
	copy(out, r.publishers)
	return out
}

// Registry is where the default observability backend registers its metrics.
func (r *Runtime) Registry() *prometheus.Registry { return r.registry }

// MetricsAddr reports the bound address of the metrics server, empty when it
// is not running.
func (r *Runtime) MetricsAddr() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.metricsAddr
}

// Start launches the drain, the metrics server and connects every
// generator. It returns immediately; call Run to block on a context instead.
func (r *Runtime) Start() error {
	if r == nil {
		return fmt.Errorf("runtime is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return fmt.Errorf("runtime already started")
	}
	if r.stopped {
		return fmt.Errorf("runtime already shut down")
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.drainCancel = cancel
	r.drainDone = make(chan struct{})
	go func() {
		defer close(r.drainDone)
		_ = r.drain.Run(ctx)
	}()

	if err := r.startMetricsLocked(); err != nil {
		cancel()
		<-r.drainDone
		return err
	}

	for i, p := range r.publishers {
		if err := p.Connect(r.exec); err != nil {
			for _, connected := range r.publishers[:i] {
				connected.Disconnect()
			}
			cancel()
			<-r.drainDone
			r.closeMetricsLocked()
			return err
		}
	}

	r.started = true
	r.obs.LogInfo("runtime_started",
		ports.Field{Key: "devices", Value: len(r.publishers)},
		ports.Field{Key: "executor", Value: r.cfg.Executor},
		ports.Field{Key: "sink", Value: r.sink.Name()})
	return nil
}

// Run starts the runtime and blocks until the provided context is cancelled.
// Upon cancellation it attempts a graceful shutdown.
func (r *Runtime) Run(ctx context.Context) error {
	if err := r.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.Shutdown(shutdownCtx)
}

// Shutdown disconnects the generators, flushes the queue into the sink and
// stops the executor and the metrics server. Calling it twice is a no-op.
func (r *Runtime) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return nil
	}
	r.stopped = true
	r.mu.Unlock()

	var errs []error

	for _, p := range r.publishers {
		p.Disconnect()
	}
	r.consumer.Close()

	if r.ownedExec != nil {
		if err := r.ownedExec.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("executor: %w", err))
		}
	}

	if r.drainCancel != nil {
		r.drainCancel()
		select {
		case <-r.drainDone:
		case <-ctx.Done():
			errs = append(errs, fmt.Errorf("drain: %w", ctx.Err()))
		}
	}

	if err := r.stopMetrics(ctx); err != nil {
		errs = append(errs, err)
	}

	if r.output != nil {
		if err := r.output.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	r.obs.LogInfo("runtime_stopped")
	return errors.Join(errs...)
}

func (r *Runtime) startMetricsLocked() error {
	if r.cfg.Metrics.Addr == "" {
		return nil
	}
	ln, err := net.Listen("tcp", r.cfg.Metrics.Addr)
	if err != nil {
		return fmt.Errorf("metrics listen: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	r.metricsSrv = srv
	r.metricsAddr = ln.Addr().String()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.obs.LogError("metrics_server_exited", err)
		}
	}()
	return nil
}

func (r *Runtime) closeMetricsLocked() {
	if r.metricsSrv != nil {
		_ = r.metricsSrv.Close()
	}
	r.metricsSrv = nil
	r.metricsAddr = ""
}

func (r *Runtime) stopMetrics(ctx context.Context) error {
	r.mu.Lock()
	srv := r.metricsSrv
	r.metricsSrv = nil
	r.metricsAddr = ""
	r.mu.Unlock()
	if srv == nil {
		return nil
	}
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
