package domain

// Vital keys carried in SampleBatch.Vitals.
const (
	VitalHeartRate       = "heart_rate"
	VitalRespiratoryRate = "respiratory_rate"
	VitalSpO2            = "spo2"
	VitalPulseRate       = "pulse_rate"
	VitalEtCO2           = "etco2"
	VitalSystolic        = "systolic"
	VitalDiastolic       = "diastolic"
	VitalMean            = "mean_arterial"
)

// Channel is one physiological waveform (e.g. ECG lead II) inside a batch.
type Channel struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

// SampleBatch is the unit a simulated device emits on every tick.
// All channels hold the same number of points. Once delivered the batch is
// owned by the consumer; the generator keeps no reference to it.
type SampleBatch struct {
	DeviceID  string             `json:"device_id"`
	Kind      string             `json:"kind"`
	Tick      uint64             `json:"tick"`
	Timestamp int64              `json:"ts_ms"`
	Channels  []Channel          `json:"channels"`
	Vitals    map[string]float64 `json:"vitals"`
	Frequency int                `json:"frequency_hz"`
}

// Channel returns the waveform with the given name, or nil.
func (b *SampleBatch) Channel(name string) []float64 {
	if b == nil {
		return nil
	}
	for _, ch := range b.Channels {
		if ch.Name == name {
			return ch.Values
		}
	}
	return nil
}

// Len reports the number of points per channel.
func (b *SampleBatch) Len() int {
	if b == nil || len(b.Channels) == 0 {
		return 0
	}
	return len(b.Channels[0].Values)
}

// Clone returns a deep copy so callers that fan a batch out can hand each
// receiver its own instance.
func (b *SampleBatch) Clone() *SampleBatch {
	if b == nil {
		return nil
	}
	out := *b
	out.Channels = make([]Channel, len(b.Channels))
	for i, ch := range b.Channels {
		vals := make([]float64, len(ch.Values))
		copy(vals, ch.Values)
		out.Channels[i] = Channel{Name: ch.Name, Values: vals}
	}
	if b.Vitals != nil {
		out.Vitals = make(map[string]float64, len(b.Vitals))
		for k, v := range b.Vitals {
			out.Vitals[k] = v
		}
	}
	return &out
}
