package ports

import "time"

// Executor is the periodic-execution facility a generator is handed on
// Connect. Implementations must never run two invocations of the same task
// concurrently, and should anchor each run to the previous scheduled time
// rather than to the previous completion time.
type Executor interface {
	ScheduleAtFixedRate(task func(), initialDelay, period time.Duration) (Cancelable, error)
}

// Cancelable stops future runs of a scheduled task. Cancel must not wait for
// a run that is already executing, so it is safe to call from inside the task.
type Cancelable interface {
	Cancel()
}

// Clock is the wall-clock source used by the realtime discipline.
type Clock interface {
	Now() time.Time
}
