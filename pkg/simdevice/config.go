package simdevice

import (
	"github.com/waehniger/mdpnp/internal/app/config"
	"github.com/waehniger/mdpnp/internal/ports"
)

// Config re-exports the root configuration struct so downstream projects can
// construct or modify it programmatically.
type Config = config.Config

type (
	// Policy controls queue capacity, batch size and the queue-full behavior.
	Policy = ports.Policy
	// DeviceConfig describes one simulated device.
	DeviceConfig = config.DeviceConfig
	// MetricsConfig configures the metrics HTTP server.
	MetricsConfig = config.MetricsConfig
	// OutputConfig configures the default JSON-lines sink.
	OutputConfig = config.OutputConfig
)

const (
	ExecutorSerial = config.ExecutorSerial
	ExecutorTicker = config.ExecutorTicker
)

// LoadConfig loads YAML from disk using the internal config reader.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}

// ParseConfig decodes, defaults and validates an in-memory YAML document.
func ParseConfig(raw []byte) (*Config, error) {
	return config.Parse(raw)
}
