package domain

import (
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/waehniger/mdpnp/internal/timing"
)

const (
	DefaultRespiratoryRate = 12.0
	DefaultSpO2            = 98.0
	DefaultEtCO2           = 38.0
	DefaultSystolic        = 120.0
	DefaultDiastolic       = 80.0

	// MaxMsPerSample caps the publication interval at one minute.
	MaxMsPerSample = 60_000
	// MaxSystolic is the upper end of the cuff range.
	MaxSystolic = 300.0
)

// Ptr returns a pointer to v, for the optional fields of GeneratorConfig.
func Ptr[T any](v T) *T { return &v }

// GeneratorConfig is fixed at construction and never mutated by a running
// generator. HeartRate, MsPerSample, TimeBase and Drift are required; the rest
// fall back to resting-adult defaults.
type GeneratorConfig struct {
	DeviceID        string             `yaml:"device_id"`
	HeartRate       float64            `yaml:"heart_rate"`
	MsPerSample     int64              `yaml:"ms_per_sample"`
	TimeBase        timing.TimeBase    `yaml:"time_base"`
	Drift           timing.DriftPolicy `yaml:"drift"`
	RespiratoryRate float64            `yaml:"respiratory_rate"`
	SpO2            float64            `yaml:"spo2"`
	Systolic        float64            `yaml:"systolic"`
	Diastolic       float64            `yaml:"diastolic"`
	// EtCO2 is optional so that an explicit 0 (apnea) survives defaulting.
	EtCO2 *float64 `yaml:"etco2"`
	// OriginMs anchors metronome timestamps. Nil means "the clock reading at
	// construction"; an explicit 0 anchors at the epoch.
	OriginMs *int64 `yaml:"origin_ms"`
	// Monotonic clamps realtime timestamps so they never go backwards.
	Monotonic bool `yaml:"monotonic"`
}

// NewGeneratorConfig builds a config from the four required values and
// validates it.
func NewGeneratorConfig(heartRate float64, msPerSample int64, tb timing.TimeBase, driftMs float64) (GeneratorConfig, error) {
	cfg := GeneratorConfig{
		HeartRate:   heartRate,
		MsPerSample: msPerSample,
		TimeBase:    tb,
		Drift:       timing.DriftPolicy{Magnitude: driftMs, Mode: timing.DriftSawtooth},
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return GeneratorConfig{}, err
	}
	return cfg, nil
}

func (c *GeneratorConfig) ApplyDefaults() {
	if c.DeviceID == "" {
		c.DeviceID = uuid.NewString()
	}
	if c.RespiratoryRate == 0 {
		c.RespiratoryRate = DefaultRespiratoryRate
	}
	if c.SpO2 == 0 {
		c.SpO2 = DefaultSpO2
	}
	if c.EtCO2 == nil {
		c.EtCO2 = Ptr(DefaultEtCO2)
	}
	if c.Systolic == 0 {
		c.Systolic = DefaultSystolic
	}
	if c.Diastolic == 0 {
		c.Diastolic = DefaultDiastolic
	}
	if c.Drift.Mode == "" {
		c.Drift.Mode = timing.DriftSawtooth
	}
}

func (c GeneratorConfig) Validate() error {
	if !(c.HeartRate > 0) || math.IsInf(c.HeartRate, 0) {
		return fmt.Errorf("%w: heart_rate must be > 0, got %v", ErrInvalidConfig, c.HeartRate)
	}
	if c.MsPerSample <= 0 || c.MsPerSample > MaxMsPerSample {
		return fmt.Errorf("%w: ms_per_sample must be in [1, %d], got %d", ErrInvalidConfig, MaxMsPerSample, c.MsPerSample)
	}
	if !c.TimeBase.Valid() {
		return fmt.Errorf("%w: unknown time_base %q", ErrInvalidConfig, c.TimeBase)
	}
	if err := c.Drift.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if !(c.RespiratoryRate > 0) || math.IsInf(c.RespiratoryRate, 0) {
		return fmt.Errorf("%w: respiratory_rate must be > 0, got %v", ErrInvalidConfig, c.RespiratoryRate)
	}
	if !(c.SpO2 > 0) || c.SpO2 > 100 {
		return fmt.Errorf("%w: spo2 must be in (0, 100], got %v", ErrInvalidConfig, c.SpO2)
	}
	if v := c.EndTidalCO2(); v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: etco2 must be >= 0, got %v", ErrInvalidConfig, v)
	}
	if !(c.Diastolic > 0) || !(c.Systolic > c.Diastolic) || c.Systolic > MaxSystolic {
		return fmt.Errorf("%w: blood pressure must satisfy 0 < diastolic < systolic <= %v, got %v/%v",
			ErrInvalidConfig, MaxSystolic, c.Systolic, c.Diastolic)
	}
	if c.OriginMs != nil && *c.OriginMs < 0 {
		return fmt.Errorf("%w: origin_ms must be >= 0, got %d", ErrInvalidConfig, *c.OriginMs)
	}
	return nil
}

// EndTidalCO2 returns EtCO2, or DefaultEtCO2 when it is unset.
func (c GeneratorConfig) EndTidalCO2() float64 {
	if c.EtCO2 == nil {
		return DefaultEtCO2
	}
	return *c.EtCO2
}

// MeanArterial estimates MAP as diastolic plus a third of the pulse pressure.
func (c GeneratorConfig) MeanArterial() float64 {
	return c.Diastolic + (c.Systolic-c.Diastolic)/3
}

// Clone returns a copy that shares no pointers with c.
func (c GeneratorConfig) Clone() GeneratorConfig {
	if c.EtCO2 != nil {
		c.EtCO2 = Ptr(*c.EtCO2)
	}
	if c.OriginMs != nil {
		c.OriginMs = Ptr(*c.OriginMs)
	}
	return c
}
