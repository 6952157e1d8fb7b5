package engine

import (
	"time"

	"github.com/benbjohnson/clock"
)

// Task is a scheduled callback owned by a Timers set.
type Task struct {
	fn        func()
	period    time.Duration
	next      time.Time
	repeat    bool
	cancelled bool
}

// Cancel stops the task. A cancelled task never runs again, even if it is
// already due in the current Advance.
func (t *Task) Cancel() {
	if t == nil {
		return
	}
	t.cancelled = true
}

// Active reports whether the task can still run.
func (t *Task) Active() bool {
	return t != nil && !t.cancelled
}

// Timers is a single-goroutine timer set. Nothing runs on its own: the owner
// calls Advance once per frame and due tasks run inline, to completion, in the
// order they were scheduled.
type Timers struct {
	clock clock.Clock
	tasks []*Task
}

func NewTimers(clk clock.Clock) *Timers {
	return &Timers{clock: clk}
}

// EveryFrame schedules fn to run on every Advance.
func (ts *Timers) EveryFrame(fn func()) *Task {
	return ts.add(&Task{fn: fn, repeat: true, next: ts.clock.Now()})
}

// Every schedules fn to run once per period, first after one period.
func (ts *Timers) Every(period time.Duration, fn func()) *Task {
	return ts.add(&Task{fn: fn, period: period, repeat: true, next: ts.clock.Now().Add(period)})
}

// After schedules fn to run once after d.
func (ts *Timers) After(d time.Duration, fn func()) *Task {
	return ts.add(&Task{fn: fn, period: d, next: ts.clock.Now().Add(d)})
}

func (ts *Timers) add(t *Task) *Task {
	ts.tasks = append(ts.tasks, t)
	return t
}

// Advance runs every due task. Periodic tasks that fell behind catch up one
// period at a time. Tasks scheduled during Advance first run on the next call.
func (ts *Timers) Advance() {
	now := ts.clock.Now()
	pending := append([]*Task(nil), ts.tasks...)
	for _, t := range pending {
		switch {
		case t.cancelled:
		case t.repeat && t.period == 0:
			t.fn()
		case t.repeat:
			for !t.cancelled && !t.next.After(now) {
				t.next = t.next.Add(t.period)
				t.fn()
			}
		case !t.next.After(now):
			t.cancelled = true
			t.fn()
		}
	}

	live := ts.tasks[:0]
	for _, t := range ts.tasks {
		if !t.cancelled {
			live = append(live, t)
		}
	}
	for i := len(live); i < len(ts.tasks); i++ {
		ts.tasks[i] = nil
	}
	ts.tasks = live
}

// CancelAll cancels every scheduled task.
func (ts *Timers) CancelAll() {
	for _, t := range ts.tasks {
		t.cancelled = true
	}
	ts.tasks = nil
}

// Len returns the number of scheduled tasks that have not been compacted away.
func (ts *Timers) Len() int {
	n := 0
	for _, t := range ts.tasks {
		if !t.cancelled {
			n++
		}
	}
	return n
}
