package loader

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vovakirdan/rastercade/internal/core"
	"github.com/vovakirdan/rastercade/internal/loop"
	"github.com/vovakirdan/rastercade/internal/platform/headless"
	"github.com/vovakirdan/rastercade/internal/registry"
	"github.com/vovakirdan/rastercade/internal/sequence"
	"github.com/vovakirdan/rastercade/internal/storage"
)

type memRecorder struct {
	runs []storage.Run
}

func (m *memRecorder) SaveRun(run storage.Run) (int64, error) {
	m.runs = append(m.runs, run)
	return int64(len(m.runs)), nil
}

// scriptedScene ends its sequence after a number of updates, optionally
// handing over to a successor.
type scriptedScene struct {
	seq        *sequence.Sequence
	name       string
	log        *[]string
	endAfter   int
	next       func() sequence.Sequencable
	panicAt    int
	onUpdate   func(n int)
	updates    int
	terminated []bool
}

func (s *scriptedScene) Load() error {
	*s.log = append(*s.log, "load "+s.name)
	return nil
}

func (s *scriptedScene) Update(float64) {
	s.updates++
	if s.onUpdate != nil {
		s.onUpdate(s.updates)
	}
	if s.panicAt > 0 && s.updates == s.panicAt {
		panic("corrupt frame")
	}
	if s.endAfter > 0 && s.updates >= s.endAfter {
		if s.next != nil {
			s.seq.EndTo(s.next())
		} else {
			s.seq.End()
		}
	}
}

func (s *scriptedScene) Render(g *core.Graphic) {}

func (s *scriptedScene) OnTerminated(hasNext bool) {
	*s.log = append(*s.log, "terminated "+s.name)
	s.terminated = append(s.terminated, hasNext)
}

func engine() *sequence.Context {
	return &sequence.Context{
		Config: core.NewConfig(core.NewResolution(64, 48, 60), 32, true),
		Policy: loop.PolicyLocked,
		Clock:  loop.NewManualClock(100 * time.Microsecond),
	}
}

func build(t *testing.T, ctx *sequence.Context, scene *scriptedScene) *sequence.Sequence {
	t.Helper()
	seq, err := sequence.New(ctx, scene, sequence.WithID(scene.name))
	if err != nil {
		t.Fatalf("sequence.New: %v", err)
	}
	scene.seq = seq
	return seq
}

func TestRunChainsSequences(t *testing.T) {
	ctx := engine()
	var events []string
	second := &scriptedScene{name: "second", log: &events, endAfter: 2}
	first := &scriptedScene{name: "first", log: &events, endAfter: 3}
	first.next = func() sequence.Sequencable { return build(t, ctx, second) }

	rec := &memRecorder{}
	screen := headless.New(ctx.Config)
	l := New(ctx, screen, WithRecorder(rec))
	if err := l.Run(context.Background(), build(t, ctx, first)); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []string{"load first", "terminated first", "load second", "terminated second"}
	if len(events) != len(want) {
		t.Fatalf("events = %v, want %v", events, want)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("events = %v, want %v", events, want)
		}
	}
	if !first.terminated[0] || second.terminated[0] {
		t.Fatalf("hasNext flags = %v/%v, want true/false", first.terminated, second.terminated)
	}
	if screen.Frames() != 5 {
		t.Fatalf("frames = %d, want 5", screen.Frames())
	}
	if len(rec.runs) != 2 || rec.runs[0].Sequence != "first" || rec.runs[1].Renders != 2 {
		t.Fatalf("runs = %+v", rec.runs)
	}
	if rec.runs[0].Policy != loop.PolicyLocked || rec.runs[0].Source != "64x48@60" {
		t.Fatalf("run metadata = %+v", rec.runs[0])
	}
	if l.Active() != nil {
		t.Fatal("no sequence should be active after Run")
	}
}

func TestRunRecoversPanics(t *testing.T) {
	ctx := engine()
	var events []string
	scene := &scriptedScene{name: "crash", log: &events, panicAt: 2}
	rec := &memRecorder{}

	err := New(ctx, headless.New(ctx.Config), WithRecorder(rec)).Run(context.Background(), build(t, ctx, scene))
	if !IsPanic(err) {
		t.Fatalf("err = %v, want PanicError", err)
	}
	var pe *PanicError
	errors.As(err, &pe)
	if pe.Sequence != "crash" || pe.Value != "corrupt frame" || len(pe.Stack) == 0 {
		t.Fatalf("panic error = %+v", pe)
	}
	if len(rec.runs) != 1 || !rec.runs[0].Failed {
		t.Fatalf("failed run not recorded: %+v", rec.runs)
	}
	if scene.terminated[0] {
		t.Fatal("failed sequence must not report a successor")
	}
}

func TestPanicUnwrapsPreconditions(t *testing.T) {
	err := &PanicError{Value: &core.PreconditionError{Op: "x", Msg: "y"}}
	var pre *core.PreconditionError
	if !errors.As(err, &pre) {
		t.Fatal("PreconditionError should be reachable through PanicError")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx := engine()
	var events []string
	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scene := &scriptedScene{name: "endless", log: &events}
	scene.onUpdate = func(n int) {
		if n == 3 {
			cancel()
		}
	}
	scene.next = func() sequence.Sequencable { t.Error("successor must not be built"); return nil }

	done := make(chan error, 1)
	go func() {
		done <- New(ctx, headless.New(ctx.Config)).Run(runCtx, build(t, ctx, scene))
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
	if scene.terminated[0] {
		t.Fatal("cancelled run must not continue")
	}
}

func TestRunSkipsWhenAlreadyCancelled(t *testing.T) {
	ctx := engine()
	var events []string
	runCtx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := New(ctx, headless.New(ctx.Config)).Run(runCtx, build(t, ctx, &scriptedScene{name: "x", log: &events})); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("cancelled run started a sequence: %v", events)
	}
}

func TestStartResolvesFromRegistry(t *testing.T) {
	ctx := engine()
	var events []string
	reg := registry.New()
	reg.Register(registry.Info{ID: "only"}, func(c *sequence.Context, args sequence.Args) (sequence.Sequencable, error) {
		scene := &scriptedScene{name: "only", log: &events, endAfter: args.Level}
		seq, err := sequence.New(c, scene, sequence.WithID("only"))
		if err != nil {
			return nil, err
		}
		scene.seq = seq
		return seq, nil
	})
	ctx.Registry = reg

	screen := headless.New(ctx.Config)
	if err := New(ctx, screen).Start(context.Background(), "only", sequence.Args{Level: 4}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if screen.Frames() != 4 {
		t.Fatalf("frames = %d, want 4", screen.Frames())
	}
	if err := New(ctx, screen).Start(context.Background(), "missing", sequence.Args{}); !errors.Is(err, registry.ErrUnknownSequence) {
		t.Fatalf("err = %v, want ErrUnknownSequence", err)
	}
}

func TestRunStartsPreloadedSuccessorAfterEnd(t *testing.T) {
	ctx := engine()
	var events []string
	reg := registry.New()
	reg.Register(registry.Info{ID: "second"}, func(c *sequence.Context, args sequence.Args) (sequence.Sequencable, error) {
		return build(t, c, &scriptedScene{name: "second", log: &events, endAfter: 1}), nil
	})
	ctx.Registry = reg

	first := &scriptedScene{name: "first", log: &events, endAfter: 3}
	first.onUpdate = func(n int) {
		if n == 1 {
			if err := first.seq.LoadNext("second", sequence.Args{}); err != nil {
				t.Errorf("LoadNext: %v", err)
			}
		}
	}

	screen := headless.New(ctx.Config)
	if err := New(ctx, screen).Run(context.Background(), build(t, ctx, first)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []string{"load first", "load second", "terminated first", "terminated second"}
	if len(events) != len(want) {
		t.Fatalf("events = %v, want %v", events, want)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("events = %v, want %v", events, want)
		}
	}
	if !first.terminated[0] {
		t.Fatal("first sequence should report its preloaded successor")
	}
}
