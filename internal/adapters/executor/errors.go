// Package executor provides the periodic-execution facilities generators are
// connected to: a goroutine-per-task Ticker, a single-goroutine Serial
// executor, and a virtual-time Manual executor for deterministic tests.
package executor

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrClosed is returned when scheduling on an executor that was shut down.
	ErrClosed = errors.New("executor: closed")
	// ErrInvalidSchedule is returned for a nil task or non-positive period.
	ErrInvalidSchedule = errors.New("executor: invalid schedule")
)

func validate(task func(), initialDelay, period time.Duration) error {
	if task == nil {
		return fmt.Errorf("%w: nil task", ErrInvalidSchedule)
	}
	if period <= 0 {
		return fmt.Errorf("%w: period must be > 0, got %s", ErrInvalidSchedule, period)
	}
	if initialDelay < 0 {
		return fmt.Errorf("%w: initial delay must be >= 0, got %s", ErrInvalidSchedule, initialDelay)
	}
	return nil
}
