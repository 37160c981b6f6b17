package nav4d

import (
	"sync"
	"time"
)

// Clock schedules a periodic callback. The returned stop function cancels it
// and may be called more than once.
type Clock interface {
	Every(d time.Duration, fn func()) (stop func())
}

// RealClock runs fn on a ticker goroutine.
type RealClock struct{}

// Every implements Clock.
func (RealClock) Every(d time.Duration, fn func()) func() {
	ticker := time.NewTicker(d)
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
	return func() { once.Do(func() { close(done) }) }
}

// FakeClock fires callbacks only when Advance is called.
type FakeClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*fakeTimer
}

type fakeTimer struct {
	every   time.Duration
	next    time.Duration
	fn      func()
	stopped bool
}

// Every implements Clock.
func (c *FakeClock) Every(d time.Duration, fn func()) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{every: d, next: c.now + d, fn: fn}
	c.timers = append(c.timers, t)
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		t.stopped = true
	}
}

// Active returns the number of timers that have not been stopped.
func (c *FakeClock) Active() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped {
			n++
		}
	}
	return n
}

// Advance moves time forward by d, firing due callbacks in order on the
// calling goroutine.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now + d
	c.mu.Unlock()

	for {
		c.mu.Lock()
		var due *fakeTimer
		for _, t := range c.timers {
			if !t.stopped && t.next <= target && (due == nil || t.next < due.next) {
				due = t
			}
		}
		if due == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		c.now = due.next
		due.next += due.every
		fn := due.fn
		c.mu.Unlock()

		fn()
	}
}
