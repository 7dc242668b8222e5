package clock

import (
	"sync"
	"time"
)

// Timer is a handle to a repeating task.
type Timer interface {
	// Stop cancels the task. It is safe to call more than once and from
	// inside the task itself.
	Stop()
}

// Clock schedules repeating tasks.
type Clock interface {
	Now() time.Time
	Every(d time.Duration, fn func()) Timer
}

// Real is a Clock backed by time.Ticker.
type Real struct{}

func (Real) Now() time.Time {
	return time.Now()
}

// Every runs fn every d on its own goroutine until stopped. A run is never
// started while the previous one is still executing.
func (Real) Every(d time.Duration, fn func()) Timer {
	t := &realTimer{stop: make(chan struct{})}
	ticker := time.NewTicker(d)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-t.stop:
				return
			case <-ticker.C:
				select {
				case <-t.stop:
					return
				default:
				}
				fn()
			}
		}
	}()
	return t
}

type realTimer struct {
	once sync.Once
	stop chan struct{}
}

func (t *realTimer) Stop() {
	t.once.Do(func() { close(t.stop) })
}
