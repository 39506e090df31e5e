// Package schedule provides the interval and one-shot timers used by the page
// controllers, plus a manually advanced scheduler for deterministic tests.
package schedule

import (
	"sync"
	"time"
)

// Timer is a handle to a scheduled callback.
type Timer interface {
	Stop()
}

// Scheduler creates repeating and one-shot timers.
type Scheduler interface {
	Every(interval time.Duration, fn func()) Timer
	After(delay time.Duration, fn func()) Timer
}

// Real returns a scheduler backed by the runtime clock.
func Real() Scheduler {
	return realScheduler{}
}

type realScheduler struct{}

type tickerTimer struct {
	ticker *time.Ticker
	done   chan struct{}
	once   sync.Once
}

func (realScheduler) Every(interval time.Duration, fn func()) Timer {
	if interval <= 0 {
		interval = time.Millisecond
	}

	t := &tickerTimer{
		ticker: time.NewTicker(interval),
		done:   make(chan struct{}),
	}

	go func() {
		for {
			select {
			case <-t.ticker.C:
				select {
				case <-t.done:
					return
				default:
				}
				fn()
			case <-t.done:
				return
			}
		}
	}()

	return t
}

func (t *tickerTimer) Stop() {
	t.once.Do(func() {
		t.ticker.Stop()
		close(t.done)
	})
}

type afterTimer struct {
	timer *time.Timer
}

func (realScheduler) After(delay time.Duration, fn func()) Timer {
	return &afterTimer{timer: time.AfterFunc(delay, fn)}
}

func (t *afterTimer) Stop() {
	t.timer.Stop()
}

// Stop stops every non-nil timer.
func Stop(timers ...Timer) {
	for _, t := range timers {
		if t != nil {
			t.Stop()
		}
	}
}
