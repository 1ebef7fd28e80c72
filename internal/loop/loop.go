// Package loop drives a Frame against wall-clock time.
//
// A single Scheduler owns the iteration scaffolding: screen readiness,
// the idle hook, update/render ordering and pacing. What differs between
// scheduling modes is expressed by a Policy that turns the measured elapsed
// time into a number of updates and an extrapolation factor. Five policies
// are provided: Locked, Unlocked, FrameSkipping, Extrapolated and Hybrid.
package loop

import (
	"sync/atomic"
	"time"

	"github.com/vovakirdan/rastercade/internal/core"
)

// Screen is the part of the display surface a loop needs.
type Screen interface {
	IsReady() bool
	PreUpdate()
	Update()
	Config() core.Config
}

// Frame is the unit of work a loop drives each iteration.
type Frame interface {
	// Update advances the simulation. extrp is the number of nominal
	// simulation steps this call represents and is always > 0.
	Update(extrp float64)

	// Render draws the current state.
	Render()

	// Check is called instead of update/render while the screen is not ready.
	Check()

	// ComputeFrameRate receives the start and end of the iteration, in
	// monotonic nanoseconds.
	ComputeFrameRate(lastTime, currentTime int64)
}

// Loop is the control surface of a scheduler.
type Loop interface {
	// Start blocks, driving frame until Stop is called.
	Start(screen Screen, frame Frame)

	// Stop makes Start return after the current iteration.
	Stop()

	// NotifyRateChanged retargets pacing without restarting the loop.
	NotifyRateChanged(rate int)
}

// Policy decides, from the wall time elapsed since the previous iteration
// started, how many updates to run and with which extrapolation factor.
type Policy interface {
	Step(elapsed int64) (updates int, extrp float64)
	NotifyRateChanged(rate int)
	Name() string
}

// pacer is implemented by policies that hold each iteration to a minimum duration.
type pacer interface {
	Pace(cfg core.Config) int64
}

// resetter is implemented by policies carrying state across iterations.
type resetter interface {
	Reset()
}

// State of a scheduler.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateStopped
)

// String returns a human-readable name for the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateRunning:
		return "Running"
	case StateStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// DefaultIdleDelay is how long the scheduler sleeps while the screen is not ready.
const DefaultIdleDelay = 50 * time.Millisecond

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock replaces the system clock.
func WithClock(c Clock) Option {
	return func(s *Scheduler) {
		s.clock = c
	}
}

// WithIdleDelay sets the sleep used while the screen is not ready.
func WithIdleDelay(d time.Duration) Option {
	return func(s *Scheduler) {
		s.idleDelay = d
	}
}

// Scheduler is the Loop implementation shared by every policy.
type Scheduler struct {
	policy    Policy
	clock     Clock
	idleDelay time.Duration

	running    atomic.Bool
	state      atomic.Int32
	iterations atomic.Int64
}

// New creates a scheduler driven by policy.
func New(policy Policy, opts ...Option) *Scheduler {
	core.Require(policy != nil, "loop.New", "nil policy")
	s := &Scheduler{
		policy:    policy,
		clock:     NewSystemClock(),
		idleDelay: DefaultIdleDelay,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Policy returns the scheduling policy.
func (s *Scheduler) Policy() Policy {
	return s.policy
}

// State returns the current lifecycle state.
func (s *Scheduler) State() State {
	return State(s.state.Load())
}

// Iterations returns how many rendered iterations ran since creation.
func (s *Scheduler) Iterations() int64 {
	return s.iterations.Load()
}

// Start runs the loop on the calling goroutine until Stop is called.
// Panics raised by the frame propagate to the caller; the scheduler is left
// in the stopped state and may be started again.
func (s *Scheduler) Start(screen Screen, frame Frame) {
	core.Require(screen != nil, "loop.Start", "nil screen")
	core.Require(frame != nil, "loop.Start", "nil frame")
	if !s.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) &&
		!s.state.CompareAndSwap(int32(StateStopped), int32(StateRunning)) {
		panic(&core.PreconditionError{Op: "loop.Start", Msg: "loop already running"})
	}
	defer s.state.Store(int32(StateStopped))

	if r, ok := s.policy.(resetter); ok {
		r.Reset()
	}
	pace, _ := s.policy.(pacer)

	s.running.Store(true)
	last := s.clock.Now()
	for s.running.Load() {
		if !screen.IsReady() {
			frame.Check()
			s.clock.Sleep(s.idleDelay)
			last = s.clock.Now()
			continue
		}

		start := s.clock.Now()
		updates, extrp := s.policy.Step(start - last)
		last = start

		for i := 0; i < updates; i++ {
			frame.Update(extrp)
		}
		screen.PreUpdate()
		frame.Render()
		screen.Update()
		s.iterations.Add(1)

		if pace != nil {
			s.sync(start, pace.Pace(screen.Config()))
		}
		frame.ComputeFrameRate(start, s.clock.Now())
	}
}

// sync yields until target nanoseconds have elapsed since start.
func (s *Scheduler) sync(start, target int64) {
	if target <= 0 {
		return
	}
	for s.clock.Now()-start < target {
		s.clock.Yield()
	}
}

// Stop requests the loop to exit after the current iteration.
func (s *Scheduler) Stop() {
	s.running.Store(false)
}

// NotifyRateChanged forwards a new simulation rate to the policy.
func (s *Scheduler) NotifyRateChanged(rate int) {
	core.Require(rate >= 0, "loop.NotifyRateChanged", "negative rate %d", rate)
	s.policy.NotifyRateChanged(rate)
}
