package stream

import (
	"context"
	"runtime"
	"sync"
	"time"
)

// DefaultSpinThreshold is how far ahead of a deadline SystemClock stops
// sleeping and starts spinning. The runtime rounds sub-millisecond timer
// waits up to the netpoller's millisecond resolution.
const DefaultSpinThreshold = 2 * time.Millisecond

// Clock supplies the time base for consumer pacing.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
	// SleepUntil blocks until deadline has passed or ctx is done, in which
	// case it returns ctx.Err().
	SleepUntil(ctx context.Context, deadline time.Time) error
}

// SystemClock paces against the monotonic wall clock.
//
// Deadlines further away than SpinThreshold are approached with a timer;
// the final stretch is spent yielding in a loop so that 125 µs deadlines
// are met with microsecond accuracy.
type SystemClock struct {
	SpinThreshold time.Duration
}

// Now returns time.Now().
func (SystemClock) Now() time.Time {
	return time.Now()
}

// SleepUntil blocks until the absolute deadline.
func (c SystemClock) SleepUntil(ctx context.Context, deadline time.Time) error {
	spin := c.SpinThreshold
	if spin <= 0 {
		spin = DefaultSpinThreshold
	}

	if d := time.Until(deadline) - spin; d > 0 {
		timer := time.NewTimer(d)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	done := ctx.Done()
	for time.Now().Before(deadline) {
		select {
		case <-done:
			return ctx.Err()
		default:
		}
		runtime.Gosched()
	}
	return nil
}

// ManualClock is a Clock that only moves when told to. Sleepers wake when
// Advance or Set moves the time to or past their deadline.
type ManualClock struct {
	mutex sync.Mutex
	now   time.Time
	wake  chan struct{} // closed and replaced on every time change
}

// NewManualClock creates a ManualClock reading start.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start, wake: make(chan struct{})}
}

// Now returns the clock's current time.
func (c *ManualClock) Now() time.Time {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.setLocked(c.now.Add(d))
}

// Set moves the clock to t. Moving backwards is allowed but wakes nobody
// whose deadline is still ahead.
func (c *ManualClock) Set(t time.Time) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.setLocked(t)
}

func (c *ManualClock) setLocked(t time.Time) {
	c.now = t
	close(c.wake)
	c.wake = make(chan struct{})
}

// SleepUntil blocks until the clock reaches deadline or ctx is done.
func (c *ManualClock) SleepUntil(ctx context.Context, deadline time.Time) error {
	for {
		c.mutex.Lock()
		if !c.now.Before(deadline) {
			c.mutex.Unlock()
			return nil
		}
		wake := c.wake
		c.mutex.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-wake:
		}
	}
}
