package engine

import (
	"sync"
	"time"
)

// Scheduler provides cancellable periodic triggers. Every calls fn once per
// interval until the returned stop function is called. stop must not block
// waiting for an in-flight fn, and calling it more than once is allowed.
type Scheduler interface {
	Every(interval time.Duration, fn func()) (stop func())
}

// TickerScheduler drives ticks from a time.Ticker goroutine per registration
type TickerScheduler struct{}

// Every implements Scheduler
func (TickerScheduler) Every(interval time.Duration, fn func()) func() {
	// time.NewTicker panics on a non-positive interval
	if interval <= 0 {
		interval = MinInterval * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				fn()
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() { close(done) })
	}
}

// ManualScheduler fires ticks only when told to. It lets tests step an
// engine deterministically.
type ManualScheduler struct {
	mu            sync.Mutex
	timers        []*manualTimer
	registrations int
}

type manualTimer struct {
	interval time.Duration
	fn       func()
}

// NewManualScheduler creates a scheduler with no active timers
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

// Every implements Scheduler
func (m *ManualScheduler) Every(interval time.Duration, fn func()) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := &manualTimer{interval: interval, fn: fn}
	m.timers = append(m.timers, t)
	m.registrations++

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, active := range m.timers {
			if active == t {
				m.timers = append(m.timers[:i], m.timers[i+1:]...)
				return
			}
		}
	}
}

// Fire delivers one tick to every active timer and returns how many fired
func (m *ManualScheduler) Fire() int {
	m.mu.Lock()
	timers := append([]*manualTimer(nil), m.timers...)
	m.mu.Unlock()

	for _, t := range timers {
		t.fn()
	}
	return len(timers)
}

// FireN calls Fire n times and returns the total number of ticks delivered
func (m *ManualScheduler) FireN(n int) int {
	total := 0
	for i := 0; i < n; i++ {
		total += m.Fire()
	}
	return total
}

// Active returns the number of timers that have not been stopped
func (m *ManualScheduler) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timers)
}

// Interval returns the interval of the newest active timer, or 0 when none is active
func (m *ManualScheduler) Interval() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.timers) == 0 {
		return 0
	}
	return m.timers[len(m.timers)-1].interval
}

// Registrations returns how many times Every has been called
func (m *ManualScheduler) Registrations() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.registrations
}
