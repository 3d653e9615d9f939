package simdevice

import (
	"context"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testOrigin = int64(1_700_000_000_000)

func testConfig() *Config {
	gen := GeneratorConfig{HeartRate: 60, MsPerSample: 5, TimeBase: Metronome, OriginMs: Ptr(testOrigin)}
	return &Config{
		Policy: Policy{MaxQueueLen: 64, MaxBatchSize: 8, IdleSleep: time.Millisecond},
		Devices: []DeviceConfig{
			{Name: "ecg-1", Kind: KindECG, GeneratorConfig: gen},
			{Name: "capno-1", Kind: KindCapno, GeneratorConfig: gen},
		},
	}
}

type collectingSink struct {
	mu  sync.Mutex
	got []*SampleBatch
}

func (c *collectingSink) WriteBatch(b []*SampleBatch) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.got = append(c.got, b...)
	return nil
}

func (c *collectingSink) Name() string { return "collect" }

func (c *collectingSink) byDevice() map[string][]*SampleBatch {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := map[string][]*SampleBatch{}
	for _, b := range c.got {
		out[b.DeviceID] = append(out[b.DeviceID], b)
	}
	return out
}

func TestNewRuntimeWithCustomAdapters(t *testing.T) {
	sink := &collectingSink{}
	manual := NewManualExecutor(time.UnixMilli(testOrigin))
	reg := prometheus.NewRegistry()

	rt, err := NewRuntime(testConfig(),
		WithSink(sink),
		WithExecutor(manual),
		WithRuntimeClock(manual),
		WithRegistry(reg),
	)
	require.NoError(t, err)

	assert.Same(t, sink, rt.sink)
	assert.Equal(t, Executor(manual), rt.exec)
	assert.Nil(t, rt.ownedExec, "caller-owned executor must not be shut down by the runtime")
	assert.Nil(t, rt.output)
	assert.Same(t, reg, rt.Registry())
	require.Len(t, rt.Publishers(), 2)
	assert.Equal(t, "ecg-1", rt.Publishers()[0].DeviceID())
	assert.Equal(t, KindCapno, rt.Publishers()[1].Kind())
}

func TestNewRuntimeRejectsInvalidConfig(t *testing.T) {
	_, err := NewRuntime(nil)
	assert.Error(t, err)

	cfg := testConfig()
	cfg.Devices[0].Kind = "eeg"
	_, err = NewRuntime(cfg, WithSink(&collectingSink{}))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	cfg = testConfig()
	cfg.Policy.OnQueueFull = "spill"
	_, err = NewRuntime(cfg, WithSink(&collectingSink{}))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestRuntimeDeliversEveryDeviceInOrder(t *testing.T) {
	sink := &collectingSink{}
	manual := NewManualExecutor(time.UnixMilli(testOrigin))
	rt, err := NewRuntime(testConfig(), WithSink(sink), WithExecutor(manual), WithRuntimeClock(manual))
	require.NoError(t, err)

	require.NoError(t, rt.Start())
	for _, p := range rt.Publishers() {
		assert.True(t, p.Connected())
	}
	manual.Advance(45 * time.Millisecond)
	require.NoError(t, rt.Shutdown(context.Background()))

	for _, p := range rt.Publishers() {
		assert.False(t, p.Connected())
	}
	got := sink.byDevice()
	require.Len(t, got, 2)
	for device, batches := range got {
		require.Len(t, batches, 10, device)
		for i, b := range batches {
			assert.Equal(t, uint64(i), b.Tick, device)
			assert.Equal(t, testOrigin+int64(i)*5, b.Timestamp, device)
		}
	}

	delivered, err := testutil.GatherAndCount(rt.Registry(), "mdpnp_batches_delivered_total")
	require.NoError(t, err)
	assert.Equal(t, 2, delivered)
	assert.Equal(t, 0, manual.Pending())
}

func TestRuntimeStartTwiceAndShutdownTwice(t *testing.T) {
	manual := NewManualExecutor(time.UnixMilli(testOrigin))
	rt, err := NewRuntime(testConfig(), WithSink(&collectingSink{}), WithExecutor(manual))
	require.NoError(t, err)

	require.NoError(t, rt.Start())
	err = rt.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already started")

	require.NoError(t, rt.Shutdown(context.Background()))
	require.NoError(t, rt.Shutdown(context.Background()))
	assert.Error(t, rt.Start())
}

func TestRuntimeChannelSelection(t *testing.T) {
	sink := &collectingSink{}
	manual := NewManualExecutor(time.UnixMilli(testOrigin))
	cfg := testConfig()
	cfg.Devices = cfg.Devices[:1]
	cfg.Output.Channels = []string{"II"}

	rt, err := NewRuntime(cfg, WithSink(sink), WithExecutor(manual), WithRuntimeClock(manual))
	require.NoError(t, err)
	require.NoError(t, rt.Start())
	manual.Advance(10 * time.Millisecond)
	require.NoError(t, rt.Shutdown(context.Background()))

	batches := sink.byDevice()["ecg-1"]
	require.Len(t, batches, 3)
	for _, b := range batches {
		require.Len(t, b.Channels, 1)
		assert.Equal(t, "II", b.Channels[0].Name)
	}
}

func TestRuntimeServesMetricsAndHealth(t *testing.T) {
	cfg := testConfig()
	cfg.Metrics.Addr = "127.0.0.1:0"
	sink := &collectingSink{}

	rt, err := NewRuntime(cfg, WithSink(sink))
	require.NoError(t, err)
	require.NoError(t, rt.Start())
	defer func() { assert.NoError(t, rt.Shutdown(context.Background())) }()

	addr := rt.MetricsAddr()
	require.NotEmpty(t, addr)

	resp, err := http.Get("http://" + addr + "/healthz")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))

	resp, err = http.Get("http://" + addr + "/metrics")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), `mdpnp_generator_connected{device="ecg-1"} 1`)
}
