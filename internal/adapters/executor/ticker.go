package executor

import (
	"context"
	"sync"
	"time"

	"github.com/waehniger/mdpnp/internal/ports"
)

// Ticker runs every scheduled task on its own goroutine. Runs of one task are
// sequential and follow a fixed deadline grid: when a run overruns, the
// following runs start late and back-to-back until the grid is caught up.
type Ticker struct {
	mu     sync.Mutex
	tasks  map[*tickerTask]struct{}
	closed bool
	wg     sync.WaitGroup
}

func NewTicker() *Ticker {
	return &Ticker{tasks: make(map[*tickerTask]struct{})}
}

type tickerTask struct {
	owner *Ticker
	stop  chan struct{}
	once  sync.Once
}

func (t *tickerTask) Cancel() {
	t.once.Do(func() {
		close(t.stop)
		t.owner.mu.Lock()
		delete(t.owner.tasks, t)
		t.owner.mu.Unlock()
	})
}

func (t *Ticker) ScheduleAtFixedRate(task func(), initialDelay, period time.Duration) (ports.Cancelable, error) {
	if err := validate(task, initialDelay, period); err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil, ErrClosed
	}

	tt := &tickerTask{owner: t, stop: make(chan struct{})}
	t.tasks[tt] = struct{}{}
	t.wg.Add(1)
	go t.run(tt, task, initialDelay, period)
	return tt, nil
}

func (t *Ticker) run(tt *tickerTask, task func(), initialDelay, period time.Duration) {
	defer t.wg.Done()

	next := time.Now().Add(initialDelay)
	timer := time.NewTimer(initialDelay)
	defer timer.Stop()

	for {
		select {
		case <-tt.stop:
			return
		case <-timer.C:
		}

		select {
		case <-tt.stop:
			return
		default:
		}

		task()

		next = next.Add(period)
		timer.Reset(time.Until(next))
	}
}

// Shutdown cancels every task and waits for in-flight runs to return.
func (t *Ticker) Shutdown(ctx context.Context) error {
	t.mu.Lock()
	t.closed = true
	tasks := make([]*tickerTask, 0, len(t.tasks))
	for tt := range t.tasks {
		tasks = append(tasks, tt)
	}
	t.mu.Unlock()

	for _, tt := range tasks {
		tt.Cancel()
	}
	return waitGroup(ctx, &t.wg)
}

func waitGroup(ctx context.Context, wg *sync.WaitGroup) error {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

var _ ports.Executor = (*Ticker)(nil)
