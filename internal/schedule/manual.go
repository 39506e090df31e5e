package schedule

import (
	"sync"
	"time"
)

// Manual is a Scheduler whose clock only moves when Advance is called.
// Callbacks run on the goroutine calling Advance, outside the internal lock,
// so they may schedule or stop other timers.
type Manual struct {
	mu    sync.Mutex
	now   time.Time
	seq   uint64
	tasks map[uint64]*manualTask
}

type manualTask struct {
	id       uint64
	due      time.Time
	interval time.Duration
	fn       func()
	owner    *Manual
}

// NewManual creates a manual scheduler starting at the given instant.
func NewManual(start time.Time) *Manual {
	return &Manual{
		now:   start,
		tasks: make(map[uint64]*manualTask),
	}
}

// Every schedules fn at each multiple of interval from now.
func (m *Manual) Every(interval time.Duration, fn func()) Timer {
	if interval <= 0 {
		interval = time.Millisecond
	}
	return m.add(interval, interval, fn)
}

// After schedules fn once after delay.
func (m *Manual) After(delay time.Duration, fn func()) Timer {
	if delay < 0 {
		delay = 0
	}
	return m.add(delay, 0, fn)
}

func (m *Manual) add(delay, interval time.Duration, fn func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	task := &manualTask{
		id:       m.seq,
		due:      m.now.Add(delay),
		interval: interval,
		fn:       fn,
		owner:    m,
	}
	m.tasks[task.id] = task
	return task
}

func (t *manualTask) Stop() {
	t.owner.mu.Lock()
	delete(t.owner.tasks, t.id)
	t.owner.mu.Unlock()
}

// Now reports the scheduler's current instant.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Pending reports how many timers are still scheduled.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

// Advance moves the clock forward by d, firing every callback that falls due
// in order of due time and then creation order.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)

	for {
		next := m.nextDue(target)
		if next == nil {
			break
		}

		m.now = next.due
		fn := next.fn
		if next.interval > 0 {
			next.due = next.due.Add(next.interval)
		} else {
			delete(m.tasks, next.id)
		}

		m.mu.Unlock()
		fn()
		m.mu.Lock()
	}

	m.now = target
	m.mu.Unlock()
}

func (m *Manual) nextDue(target time.Time) *manualTask {
	var next *manualTask
	for _, task := range m.tasks {
		if task.due.After(target) {
			continue
		}
		if next == nil || task.due.Before(next.due) || (task.due.Equal(next.due) && task.id < next.id) {
			next = task
		}
	}
	return next
}
