package loop

import (
	"runtime"
	"sync"
	"time"
)

// Clock is the monotonic time source driving a scheduler.
type Clock interface {
	// Now returns monotonic nanoseconds since an arbitrary origin.
	Now() int64

	// Sleep blocks for d.
	Sleep(d time.Duration)

	// Yield gives other goroutines a chance to run during a pacing wait.
	Yield()
}

// SystemClock reads the monotonic wall clock.
type SystemClock struct {
	origin time.Time
}

// NewSystemClock creates a clock whose origin is the current instant.
func NewSystemClock() *SystemClock {
	return &SystemClock{origin: time.Now()}
}

// Now returns nanoseconds elapsed since the clock was created.
func (c *SystemClock) Now() int64 {
	return int64(time.Since(c.origin))
}

// Sleep blocks for d.
func (c *SystemClock) Sleep(d time.Duration) {
	time.Sleep(d)
}

// Yield calls runtime.Gosched.
func (c *SystemClock) Yield() {
	runtime.Gosched()
}

// ManualClock is a controllable clock for tests. Time only moves when
// Advance, Sleep or Yield is called.
type ManualClock struct {
	mu        sync.Mutex
	now       int64
	yieldStep time.Duration
	yields    int
	sleeps    int
}

// NewManualClock creates a clock starting at zero. Each Yield advances time
// by yieldStep so pacing waits terminate.
func NewManualClock(yieldStep time.Duration) *ManualClock {
	return &ManualClock{yieldStep: yieldStep}
}

// Now returns the current manual time.
func (c *ManualClock) Now() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves time forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += int64(d)
}

// Sleep advances time by d.
func (c *ManualClock) Sleep(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += int64(d)
	c.sleeps++
}

// Yield advances time by the configured yield step.
func (c *ManualClock) Yield() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += int64(c.yieldStep)
	c.yields++
}

// Yields returns how many times Yield was called.
func (c *ManualClock) Yields() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.yields
}

// Sleeps returns how many times Sleep was called.
func (c *ManualClock) Sleeps() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sleeps
}
