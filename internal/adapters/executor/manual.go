package executor

import (
	"sync"
	"time"

	"github.com/waehniger/mdpnp/internal/ports"
)

// Manual is a virtual-time executor driven by test code. Nothing runs until
// Advance is called; tasks then fire in deadline order, each seeing Now()
// equal to its scheduled time. Manual also serves as the Clock of the
// generators under test so the realtime discipline becomes deterministic.
//
// Advance must not be called concurrently with itself.
type Manual struct {
	mu    sync.Mutex
	now   time.Time
	seq   uint64
	tasks []*manualTask
}

type manualTask struct {
	owner    *Manual
	fn       func()
	due      time.Time
	period   time.Duration
	seq      uint64
	canceled bool
}

func (t *manualTask) Cancel() {
	t.owner.mu.Lock()
	t.canceled = true
	t.owner.mu.Unlock()
}

func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) ScheduleAtFixedRate(task func(), initialDelay, period time.Duration) (ports.Cancelable, error) {
	if err := validate(task, initialDelay, period); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	t := &manualTask{owner: m, fn: task, due: m.now.Add(initialDelay), period: period, seq: m.seq}
	m.tasks = append(m.tasks, t)
	return t, nil
}

// Advance moves virtual time forward by d, running every run that falls due
// up to and including the new time. It returns the number of runs.
func (m *Manual) Advance(d time.Duration) int {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()

	runs := 0
	for {
		m.mu.Lock()
		next := m.nextDueLocked(target)
		if next == nil {
			m.now = target
			m.mu.Unlock()
			return runs
		}
		m.now = next.due
		next.due = next.due.Add(next.period)
		fn := next.fn
		m.mu.Unlock()

		fn()
		runs++
	}
}

// RunDue runs whatever is due at the current virtual time.
func (m *Manual) RunDue() int { return m.Advance(0) }

// Pending reports the number of live scheduled tasks.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.tasks {
		if !t.canceled {
			n++
		}
	}
	return n
}

func (m *Manual) nextDueLocked(target time.Time) *manualTask {
	var best *manualTask
	live := m.tasks[:0]
	for _, t := range m.tasks {
		if t.canceled {
			continue
		}
		live = append(live, t)
		if t.due.After(target) {
			continue
		}
		if best == nil || t.due.Before(best.due) || (t.due.Equal(best.due) && t.seq < best.seq) {
			best = t
		}
	}
	for i := len(live); i < len(m.tasks); i++ {
		m.tasks[i] = nil
	}
	m.tasks = live
	return best
}

var (
	_ ports.Executor = (*Manual)(nil)
	_ ports.Clock    = (*Manual)(nil)
)
