package loop

import (
	"math"
	"testing"
	"time"

	"github.com/vovakirdan/rastercade/internal/core"
)

// stubScreen counts present calls and reports readiness from a script.
type stubScreen struct {
	cfg        core.Config
	notReady   int // number of IsReady calls answering false before becoming ready
	preUpdates int
	updates    int
}

func (s *stubScreen) IsReady() bool {
	if s.notReady > 0 {
		s.notReady--
		return false
	}
	return true
}
func (s *stubScreen) PreUpdate()          { s.preUpdates++ }
func (s *stubScreen) Update()             { s.updates++ }
func (s *stubScreen) Config() core.Config { return s.cfg }

// stubFrame records calls and stops the loop after a number of renders.
// Each render advances the manual clock by the next entry of costs.
type stubFrame struct {
	loop      Loop
	clock     *ManualClock
	costs     []time.Duration
	stopAfter int

	extrps   []float64
	renders  int
	checks   int
	order    []string
	rates    []int64
	onUpdate func()
}

func (f *stubFrame) Update(extrp float64) {
	f.extrps = append(f.extrps, extrp)
	f.order = append(f.order, "update")
	if f.onUpdate != nil {
		f.onUpdate()
	}
}

func (f *stubFrame) Render() {
	f.order = append(f.order, "render")
	if len(f.costs) > 0 {
		f.clock.Advance(f.costs[f.renders%len(f.costs)])
	}
	f.renders++
	if f.renders >= f.stopAfter {
		f.loop.Stop()
	}
}

func (f *stubFrame) Check() { f.checks++ }

func (f *stubFrame) ComputeFrameRate(last, current int64) {
	f.rates = append(f.rates, current-last)
}

func fullscreen(rate int) core.Config {
	return core.Config{Output: core.Resolution{Width: 640, Height: 480, Rate: rate}, Depth: 32}
}

func windowed(rate int) core.Config {
	cfg := fullscreen(rate)
	cfg.Windowed = true
	return cfg
}

func TestComputeFrameTime(t *testing.T) {
	tests := []struct {
		rate int
		want int64
	}{
		{60, 16666666},
		{50, 20000000},
		{1, 1000000000},
		{1000, 1000000},
		{0, 1000000}, // capped at MaxAssumedRate
		{1_000_000_000, 1},
		{2_000_000_000, 1},
	}

	for _, tc := range tests {
		got := ComputeFrameTime(tc.rate)
		if got != tc.want {
			t.Errorf("ComputeFrameTime(%d) = %d, expected %d", tc.rate, got, tc.want)
		}
	}

	for rate := 1; rate <= 240; rate++ {
		exact := 1e9 / float64(rate)
		if diff := math.Abs(float64(ComputeFrameTime(rate)) - exact); diff >= 1 {
			t.Fatalf("ComputeFrameTime(%d) off by %v", rate, diff)
		}
	}
}

func TestSkippingPoliciesSurviveExtremeRates(t *testing.T) {
	const rate = 2_000_000_000
	tests := []struct {
		name    string
		policy  Policy
		elapsed int64
		want    int
	}{
		{"frameskipping", NewFrameSkipping(rate), 1000, 1000},
		{"frameskipping idle", NewFrameSkipping(rate), 0, 0},
		{"hybrid extrapolates", NewHybrid(rate, DefaultHybridMargin), 1000, 1},
		{"hybrid idle", NewHybrid(rate, DefaultHybridMargin), 0, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if n, _ := tc.policy.Step(tc.elapsed); n != tc.want {
				t.Errorf("Step(%d) = %d updates, expected %d", tc.elapsed, n, tc.want)
			}
		})
	}
}

func TestLockedEndToEndFullscreen(t *testing.T) {
	clock := NewManualClock(time.Millisecond)
	l := New(NewLocked(60), WithClock(clock))
	screen := &stubScreen{cfg: fullscreen(60)}
	frame := &stubFrame{loop: l, clock: clock, stopAfter: 1}

	l.Start(screen, frame)

	if len(frame.extrps) != 1 || frame.extrps[0] != 1.0 {
		t.Errorf("expected exactly one update(1.0), got %v", frame.extrps)
	}
	if frame.renders != 1 {
		t.Errorf("expected one render, got %d", frame.renders)
	}
	if clock.Yields() != 0 {
		t.Errorf("fullscreen locked loop should not pace, yielded %d times", clock.Yields())
	}
	want := []string{"update", "render"}
	for i := range want {
		if frame.order[i] != want[i] {
			t.Errorf("call order = %v, expected %v", frame.order, want)
		}
	}
	if screen.preUpdates != 1 || screen.updates != 1 {
		t.Errorf("screen preUpdate/update = %d/%d, expected 1/1", screen.preUpdates, screen.updates)
	}
	if l.State() != StateStopped {
		t.Errorf("State() = %v, expected Stopped", l.State())
	}
}

func TestLockedPacesWindowed(t *testing.T) {
	clock := NewManualClock(time.Millisecond)
	l := New(NewLocked(60), WithClock(clock))
	screen := &stubScreen{cfg: windowed(60)}
	frame := &stubFrame{loop: l, clock: clock, stopAfter: 5, costs: []time.Duration{2 * time.Millisecond}}

	l.Start(screen, frame)

	if clock.Yields() == 0 {
		t.Fatal("windowed locked loop should yield while ahead of schedule")
	}
	for i, d := range frame.rates {
		if d < ComputeFrameTime(60) {
			t.Errorf("iteration %d lasted %d ns, shorter than the frame time", i, d)
		}
	}
	if len(frame.extrps) != 5 {
		t.Errorf("expected 5 updates, got %d", len(frame.extrps))
	}
}

func TestLockedSlowMachineHasNoCatchUp(t *testing.T) {
	clock := NewManualClock(time.Millisecond)
	l := New(NewLocked(60), WithClock(clock))
	frame := &stubFrame{loop: l, clock: clock, stopAfter: 4, costs: []time.Duration{50 * time.Millisecond}}

	l.Start(&stubScreen{cfg: windowed(60)}, frame)

	if len(frame.extrps) != 4 {
		t.Errorf("locked loop should run exactly one update per iteration, got %d", len(frame.extrps))
	}
	if clock.Yields() != 0 {
		t.Errorf("no pacing expected when behind schedule, got %d yields", clock.Yields())
	}
}

func TestUnlockedExtrapolationRatio(t *testing.T) {
	p := NewUnlocked(60)
	if _, extrp := p.Step(0); extrp != 1.0 {
		t.Errorf("extrp = %v, expected 1.0", extrp)
	}
	p.NotifyRateChanged(120)
	if n, extrp := p.Step(12345); n != 1 || extrp != 2.0 {
		t.Errorf("Step() = %d, %v; expected 1, 2.0", n, extrp)
	}
	p.NotifyRateChanged(0)
	if _, extrp := p.Step(1); extrp != 1.0 {
		t.Errorf("rate 0 should fall back to 1.0, got %v", extrp)
	}
}

func TestFrameSkippingUpdateCount(t *testing.T) {
	costs := []time.Duration{
		5 * time.Millisecond,
		40 * time.Millisecond,
		16 * time.Millisecond,
		1 * time.Millisecond,
		70 * time.Millisecond,
		17 * time.Millisecond,
	}
	const iterations = 30

	clock := NewManualClock(time.Millisecond)
	l := New(NewFrameSkipping(60), WithClock(clock))
	frame := &stubFrame{loop: l, clock: clock, costs: costs, stopAfter: iterations}

	l.Start(&stubScreen{cfg: fullscreen(60)}, frame)

	if frame.renders != iterations {
		t.Errorf("render called %d times, expected once per iteration (%d)", frame.renders, iterations)
	}

	// The last render's cost is never observed by a following Step.
	var total time.Duration
	for i := 0; i < iterations-1; i++ {
		total += costs[i%len(costs)]
	}
	want := int64(total) / ComputeFrameTime(60)
	got := int64(len(frame.extrps))
	if got < want-1 || got > want+1 {
		t.Errorf("update called %d times, expected %d +/- 1", got, want)
	}
	for _, e := range frame.extrps {
		if e != 1.0 {
			t.Fatalf("frame skipping must use fixed steps, got extrp %v", e)
		}
	}
}

func TestFrameSkippingClampsCatchUp(t *testing.T) {
	p := NewFrameSkipping(60)
	n, _ := p.Step(int64(10 * time.Second))
	max := int(int64(MaxCatchUp) / ComputeFrameTime(60))
	if n != max {
		t.Errorf("Step(10s) = %d updates, expected clamp to %d", n, max)
	}
	if n, _ := p.Step(-5); n != 0 {
		t.Errorf("negative elapsed should not produce updates, got %d", n)
	}
}

func TestExtrapolatedFactor(t *testing.T) {
	p := NewExtrapolated(60)

	if n, extrp := p.Step(0); n != 1 || extrp != 1.0 {
		t.Errorf("zero elapsed: Step() = %d, %v; expected 1, 1.0", n, extrp)
	}

	_, extrp := p.Step(2 * ComputeFrameTime(60))
	if math.Abs(extrp-2.0) > 1e-6 {
		t.Errorf("double frame time: extrp = %v, expected 2.0", extrp)
	}

	p.NotifyRateChanged(30)
	_, extrp = p.Step(ComputeFrameTime(60))
	if math.Abs(extrp-0.5) > 1e-6 {
		t.Errorf("after rate change: extrp = %v, expected 0.5", extrp)
	}
}

func TestHybridBranches(t *testing.T) {
	p := NewHybrid(60, DefaultHybridMargin)
	threshold := p.Threshold()
	if threshold != ComputeFrameTime(60)-int64(DefaultHybridMargin) {
		t.Fatalf("Threshold() = %d", threshold)
	}

	// Slow iteration: single extrapolated step.
	n, extrp := p.Step(3 * ComputeFrameTime(60))
	if n != 1 || math.Abs(extrp-3.0) > 1e-6 {
		t.Errorf("slow branch: Step() = %d, %v; expected 1, 3.0", n, extrp)
	}

	// Fast iterations: accumulate and drain fixed steps.
	fast := threshold / 4
	total := 0
	for i := 0; i < 8; i++ {
		n, extrp := p.Step(fast)
		if extrp != 1.0 {
			t.Fatalf("fast branch must use fixed steps, got %v", extrp)
		}
		total += n
	}
	want := int(8 * fast / ComputeFrameTime(60))
	if total != want {
		t.Errorf("fast branch ran %d updates, expected %d", total, want)
	}
}

func TestHybridThresholdUsesOriginalRate(t *testing.T) {
	p := NewHybrid(60, DefaultHybridMargin)
	before := p.Threshold()
	p.NotifyRateChanged(120)
	if p.Threshold() != before {
		t.Errorf("threshold moved with the desired rate: %d -> %d", before, p.Threshold())
	}
	_, extrp := p.Step(2 * ComputeFrameTime(60))
	if math.Abs(extrp-4.0) > 1e-6 {
		t.Errorf("slow branch at doubled rate: extrp = %v, expected 4.0", extrp)
	}
}

func TestNotReadyCallsCheck(t *testing.T) {
	clock := NewManualClock(time.Millisecond)
	l := New(NewFrameSkipping(60), WithClock(clock), WithIdleDelay(10*time.Millisecond))
	screen := &stubScreen{cfg: fullscreen(60), notReady: 3}
	frame := &stubFrame{loop: l, clock: clock, stopAfter: 1}

	l.Start(screen, frame)

	if frame.checks != 3 {
		t.Errorf("Check() called %d times, expected 3", frame.checks)
	}
	if clock.Sleeps() != 3 {
		t.Errorf("Sleep() called %d times, expected 3", clock.Sleeps())
	}
	if frame.renders != 1 {
		t.Errorf("expected one render once ready, got %d", frame.renders)
	}
}

func TestStartRequiresCollaborators(t *testing.T) {
	l := New(NewLocked(60))

	assertPanics(t, "nil screen", func() { l.Start(nil, &stubFrame{}) })
	assertPanics(t, "nil frame", func() { l.Start(&stubScreen{}, nil) })
}

func TestRestartAfterStop(t *testing.T) {
	clock := NewManualClock(time.Millisecond)
	l := New(NewLocked(60), WithClock(clock))
	screen := &stubScreen{cfg: fullscreen(60)}

	f1 := &stubFrame{loop: l, clock: clock, stopAfter: 2}
	l.Start(screen, f1)
	f2 := &stubFrame{loop: l, clock: clock, stopAfter: 3}
	l.Start(screen, f2)

	if f1.renders != 2 || f2.renders != 3 {
		t.Errorf("renders = %d, %d; expected 2, 3", f1.renders, f2.renders)
	}
	if l.Iterations() != 5 {
		t.Errorf("Iterations() = %d, expected 5", l.Iterations())
	}
}

func TestFramePanicPropagates(t *testing.T) {
	clock := NewManualClock(time.Millisecond)
	l := New(NewLocked(60), WithClock(clock))
	frame := &stubFrame{loop: l, clock: clock, stopAfter: 10, onUpdate: func() { panic("corrupt frame") }}

	assertPanics(t, "update panic", func() { l.Start(&stubScreen{cfg: fullscreen(60)}, frame) })

	if l.State() != StateStopped {
		t.Errorf("State() after panic = %v, expected Stopped", l.State())
	}
}

func TestNewPolicy(t *testing.T) {
	for _, name := range PolicyNames() {
		p, err := NewPolicy(name, 60, 0)
		if err != nil {
			t.Fatalf("NewPolicy(%q) failed: %v", name, err)
		}
		if p.Name() != name {
			t.Errorf("NewPolicy(%q).Name() = %q", name, p.Name())
		}
	}
	if _, err := NewPolicy("vsync", 60, 0); err == nil {
		t.Error("unknown policy should fail")
	}
}

func assertPanics(t *testing.T, name string, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Errorf("%s: expected panic", name)
		}
	}()
	fn()
}
