package executor

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"github.com/waehniger/mdpnp/internal/ports"
)

// Serial runs every scheduled task on one goroutine, earliest deadline first.
// No two runs ever overlap, across tasks as well as within one, which makes it
// the natural choice when several simulated devices must share one timeline.
type Serial struct {
	mu     sync.Mutex
	queue  taskHeap
	seq    uint64
	closed bool

	wake chan struct{}
	quit chan struct{}
	done chan struct{}
}

func NewSerial() *Serial {
	s := &Serial{
		wake: make(chan struct{}, 1),
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
	go s.loop()
	return s
}

type serialTask struct {
	owner    *Serial
	fn       func()
	due      time.Time
	period   time.Duration
	seq      uint64
	index    int
	canceled bool
}

func (t *serialTask) Cancel() {
	s := t.owner
	s.mu.Lock()
	if !t.canceled {
		t.canceled = true
		if t.index >= 0 {
			heap.Remove(&s.queue, t.index)
		}
	}
	s.mu.Unlock()
	s.signal()
}

func (s *Serial) ScheduleAtFixedRate(task func(), initialDelay, period time.Duration) (ports.Cancelable, error) {
	if err := validate(task, initialDelay, period); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	s.seq++
	t := &serialTask{
		owner:  s,
		fn:     task,
		due:    time.Now().Add(initialDelay),
		period: period,
		seq:    s.seq,
	}
	heap.Push(&s.queue, t)
	s.mu.Unlock()

	s.signal()
	return t, nil
}

func (s *Serial) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Serial) loop() {
	defer close(s.done)

	for {
		var (
			run  func()
			wait time.Duration = -1
		)

		s.mu.Lock()
		if len(s.queue) > 0 {
			head := s.queue[0]
			if now := time.Now(); !head.due.After(now) {
				run = head.fn
				head.due = head.due.Add(head.period)
				heap.Fix(&s.queue, 0)
			} else {
				wait = head.due.Sub(now)
			}
		}
		s.mu.Unlock()

		if run != nil {
			run()
			continue
		}

		var (
			timer  *time.Timer
			timerC <-chan time.Time
		)
		if wait >= 0 {
			timer = time.NewTimer(wait)
			timerC = timer.C
		}

		select {
		case <-s.quit:
		case <-s.wake:
		case <-timerC:
		}
		if timer != nil {
			timer.Stop()
		}

		select {
		case <-s.quit:
			return
		default:
		}
	}
}

// Shutdown stops the loop after the in-flight run, if any, returns.
func (s *Serial) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		for _, t := range s.queue {
			t.canceled = true
			t.index = -1
		}
		s.queue = nil
		close(s.quit)
	}
	s.mu.Unlock()

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type taskHeap []*serialTask

func (h taskHeap) Len() int { return len(h) }

func (h taskHeap) Less(i, j int) bool {
	if h[i].due.Equal(h[j].due) {
		return h[i].seq < h[j].seq
	}
	return h[i].due.Before(h[j].due)
}

func (h taskHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *taskHeap) Push(x any) {
	t := x.(*serialTask)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}

var _ ports.Executor = (*Serial)(nil)
