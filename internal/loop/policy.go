package loop

import (
	"fmt"
	"strings"
	"time"

	"github.com/vovakirdan/rastercade/internal/core"
)

// Policy names accepted by NewPolicy.
const (
	PolicyLocked        = "locked"
	PolicyUnlocked      = "unlocked"
	PolicyFrameSkipping = "frameskipping"
	PolicyExtrapolated  = "extrapolated"
	PolicyHybrid        = "hybrid"
)

// PolicyNames lists every policy name in a stable order.
func PolicyNames() []string {
	return []string{PolicyLocked, PolicyUnlocked, PolicyFrameSkipping, PolicyExtrapolated, PolicyHybrid}
}

// NewPolicy creates a policy by name for a simulation running at rate.
// margin is only used by the hybrid policy; zero selects DefaultHybridMargin.
func NewPolicy(name string, rate int, margin time.Duration) (Policy, error) {
	switch strings.ToLower(name) {
	case PolicyLocked:
		return NewLocked(rate), nil
	case PolicyUnlocked:
		return NewUnlocked(rate), nil
	case PolicyFrameSkipping, "":
		return NewFrameSkipping(rate), nil
	case PolicyExtrapolated:
		return NewExtrapolated(rate), nil
	case PolicyHybrid:
		if margin == 0 {
			margin = DefaultHybridMargin
		}
		return NewHybrid(rate, margin), nil
	default:
		return nil, fmt.Errorf("loop: unknown policy %q", name)
	}
}

// Locked runs one update and one render per iteration and, on windowed
// surfaces with a known refresh rate, yields until the frame time has
// elapsed. Slow machines run slower; there is no catch-up.
type Locked struct {
	maxFrameTime int64
}

// NewLocked creates a locked policy paced at rate.
func NewLocked(rate int) *Locked {
	return &Locked{maxFrameTime: ComputeFrameTime(rate)}
}

func (p *Locked) Name() string { return PolicyLocked }

// Step always runs a single nominal update.
func (p *Locked) Step(int64) (int, float64) {
	return 1, 1.0
}

// Pace returns the minimum iteration duration for cfg.
func (p *Locked) Pace(cfg core.Config) int64 {
	if cfg.Windowed && cfg.Output.Rate > 0 {
		return p.maxFrameTime
	}
	return 0
}

func (p *Locked) NotifyRateChanged(rate int) {
	p.maxFrameTime = ComputeFrameTime(rate)
}

// Unlocked updates and renders as fast as possible. The extrapolation factor
// is the ratio of the desired rate to the original rate.
type Unlocked struct {
	original int
	desired  int
}

// NewUnlocked creates an unlocked policy for a simulation designed for rate.
func NewUnlocked(rate int) *Unlocked {
	return &Unlocked{original: rate, desired: rate}
}

func (p *Unlocked) Name() string { return PolicyUnlocked }

func (p *Unlocked) Step(int64) (int, float64) {
	if p.original <= 0 || p.desired <= 0 {
		return 1, 1.0
	}
	return 1, float64(p.desired) / float64(p.original)
}

func (p *Unlocked) NotifyRateChanged(rate int) {
	p.desired = rate
}

// FrameSkipping accumulates wall time and drains it in fixed steps, running
// as many updates as needed to catch up and rendering once per iteration.
// Under load frames are dropped, never simulation steps.
type FrameSkipping struct {
	maxFrameTime int64
	acc          int64
}

// NewFrameSkipping creates a frame skipping policy stepping at rate.
func NewFrameSkipping(rate int) *FrameSkipping {
	return &FrameSkipping{maxFrameTime: ComputeFrameTime(rate)}
}

func (p *FrameSkipping) Name() string { return PolicyFrameSkipping }

func (p *FrameSkipping) Step(elapsed int64) (int, float64) {
	return drain(&p.acc, elapsed, p.maxFrameTime), 1.0
}

func (p *FrameSkipping) NotifyRateChanged(rate int) {
	p.maxFrameTime = ComputeFrameTime(rate)
}

// Reset drops any surplus time left from a previous run.
func (p *FrameSkipping) Reset() {
	p.acc = 0
}

// Extrapolated runs one update per iteration, scaled by the time the
// previous iteration took.
type Extrapolated struct {
	rate int
}

// NewExtrapolated creates an extrapolating policy for rate.
func NewExtrapolated(rate int) *Extrapolated {
	return &Extrapolated{rate: rate}
}

func (p *Extrapolated) Name() string { return PolicyExtrapolated }

func (p *Extrapolated) Step(elapsed int64) (int, float64) {
	if elapsed <= 0 {
		return 1, 1.0
	}
	return 1, extrapolation(p.rate, elapsed)
}

func (p *Extrapolated) NotifyRateChanged(rate int) {
	p.rate = rate
}

// Hybrid extrapolates while iterations are slower than the original frame
// time minus a margin, and drains fixed steps like FrameSkipping when they
// are faster.
type Hybrid struct {
	desired      int
	minFrameTime int64
	maxFrameTime int64
	acc          int64
}

// NewHybrid creates a hybrid policy for a simulation designed for rate.
func NewHybrid(rate int, margin time.Duration) *Hybrid {
	return &Hybrid{
		desired:      rate,
		minFrameTime: ComputeFrameTime(rate) - int64(margin),
		maxFrameTime: ComputeFrameTime(rate),
	}
}

func (p *Hybrid) Name() string { return PolicyHybrid }

// Threshold returns the elapsed time above which the policy extrapolates.
func (p *Hybrid) Threshold() int64 {
	return p.minFrameTime
}

func (p *Hybrid) Step(elapsed int64) (int, float64) {
	if elapsed > 0 && elapsed > p.minFrameTime {
		p.acc = 0
		return 1, extrapolation(p.desired, elapsed)
	}
	return drain(&p.acc, elapsed, p.maxFrameTime), 1.0
}

// NotifyRateChanged changes the fixed step. The switch threshold stays tied
// to the original rate.
func (p *Hybrid) NotifyRateChanged(rate int) {
	p.desired = rate
	p.maxFrameTime = ComputeFrameTime(rate)
}

func (p *Hybrid) Reset() {
	p.acc = 0
}

// drain adds elapsed (bounded by MaxCatchUp) to acc and removes as many
// whole steps as it holds.
func drain(acc *int64, elapsed, step int64) int {
	*acc += min(max(elapsed, 0), int64(MaxCatchUp))
	n := *acc / step
	*acc -= n * step
	return int(n)
}
