package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/waehniger/mdpnp/internal/app/pipeline"
	"github.com/waehniger/mdpnp/internal/domain"
	"github.com/waehniger/mdpnp/internal/ports"
	"github.com/waehniger/mdpnp/internal/synth"
)

const (
	ExecutorSerial = "serial"
	ExecutorTicker = "ticker"
)

type Config struct {
	Executor string         `yaml:"executor"`
	Policy   ports.Policy   `yaml:"policy"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Output   OutputConfig   `yaml:"output"`
	Devices  []DeviceConfig `yaml:"devices"`
}

// DeviceConfig describes one simulated device. The generator settings are
// inlined so a device reads as a flat YAML mapping.
type DeviceConfig struct {
	Name                   string `yaml:"name"`
	Kind                   string `yaml:"kind"`
	domain.GeneratorConfig `yaml:",inline"`
}

type MetricsConfig struct {
	// Addr is the listen address of /metrics and /healthz. Empty disables
	// the endpoint.
	Addr string `yaml:"addr"`
}

type OutputConfig struct {
	// Path of the JSON-lines output, "-" for stdout.
	Path     string   `yaml:"path"`
	Channels []string `yaml:"channels"`
}

func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(raw)
}

// Parse decodes, defaults and validates a YAML document.
func Parse(raw []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ApplyDefaults fills unset policy, executor, output and device fields.
func (c *Config) ApplyDefaults() {
	if c.Executor == "" {
		c.Executor = ExecutorSerial
	}
	if c.Policy.MaxQueueLen == 0 {
		c.Policy.MaxQueueLen = 10_000
	}
	if c.Policy.MaxBatchSize == 0 {
		c.Policy.MaxBatchSize = 256
	}
	if c.Policy.IdleSleep == 0 {
		c.Policy.IdleSleep = 5 * time.Millisecond
	}
	if c.Policy.OnQueueFull == "" {
		c.Policy.OnQueueFull = "block"
	}
	if c.Output.Path == "" {
		c.Output.Path = "-"
	}

	for i := range c.Devices {
		d := &c.Devices[i]
		if d.DeviceID == "" {
			d.DeviceID = d.Name
		}
		d.ApplyDefaults()
		if d.Name == "" {
			d.Name = d.DeviceID
		}
	}
}

// Validate reports the first invalid setting, wrapped in domain.ErrInvalidConfig.
func (c *Config) Validate() error {
	switch c.Executor {
	case ExecutorSerial, ExecutorTicker:
	default:
		return fmt.Errorf("%w: executor %q (want %s or %s)", domain.ErrInvalidConfig, c.Executor, ExecutorSerial, ExecutorTicker)
	}
	if c.Policy.MaxQueueLen < 0 || c.Policy.MaxBatchSize < 0 {
		return fmt.Errorf("%w: policy sizes must be >= 0", domain.ErrInvalidConfig)
	}
	if err := pipeline.ValidatePolicy(c.Policy); err != nil {
		return err
	}
	if len(c.Devices) == 0 {
		return fmt.Errorf("%w: at least one device is required", domain.ErrInvalidConfig)
	}

	seen := make(map[string]struct{}, len(c.Devices))
	for i, d := range c.Devices {
		if _, err := synth.Lookup(d.Kind); err != nil {
			return fmt.Errorf("devices[%d]: %w", i, err)
		}
		if err := d.Validate(); err != nil {
			return fmt.Errorf("devices[%d] %s: %w", i, d.Name, err)
		}
		if _, dup := seen[d.DeviceID]; dup {
			return fmt.Errorf("%w: duplicate device id %q", domain.ErrInvalidConfig, d.DeviceID)
		}
		seen[d.DeviceID] = struct{}{}
	}
	return nil
}
