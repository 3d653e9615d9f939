package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig is returned when a generator is constructed with
	// parameters that can never produce a valid schedule.
	ErrInvalidConfig = errors.New("mdpnp: invalid generator configuration")

	// ErrAlreadyConnected is returned by Connect while a schedule is active.
	ErrAlreadyConnected = errors.New("mdpnp: generator already connected")
)

// ConsumerError records a failed delivery of one batch. It is reported to
// observability and never escapes the tick.
type ConsumerError struct {
	DeviceID string
	Tick     uint64
	Err      error
}

func (e *ConsumerError) Error() string {
	return fmt.Sprintf("consumer failed device=%s tick=%d: %v", e.DeviceID, e.Tick, e.Err)
}

func (e *ConsumerError) Unwrap() error { return e.Err }
