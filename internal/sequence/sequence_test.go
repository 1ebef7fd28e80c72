package sequence

import (
	"errors"
	"image"
	"math"
	"testing"
	"time"

	"github.com/vovakirdan/rastercade/internal/core"
	"github.com/vovakirdan/rastercade/internal/loop"
	"github.com/vovakirdan/rastercade/internal/platform/headless"
)

type stubScene struct {
	seq        *Sequence
	color      core.Color
	endAfter   int
	rasterbar  bool
	loadErr    error
	onUpdate   func(n int)
	onRender   func(g *core.Graphic)
	loads      int
	updates    int
	renders    int
	terminated []bool
}

func (s *stubScene) Load() error {
	s.loads++
	return s.loadErr
}

func (s *stubScene) Update(float64) {
	s.updates++
	if s.onUpdate != nil {
		s.onUpdate(s.updates)
	}
	if s.endAfter > 0 && s.updates >= s.endAfter {
		s.seq.End()
	}
}

func (s *stubScene) Render(g *core.Graphic) {
	s.renders++
	g.Clear(s.color)
	if s.onRender != nil {
		s.onRender(g)
	}
	if s.rasterbar {
		s.seq.RenderRasterbar()
	}
}

func (s *stubScene) OnTerminated(hasNext bool) {
	s.terminated = append(s.terminated, hasNext)
}

type stubResolver struct {
	calls []Args
}

func (r *stubResolver) Create(id string, ctx *Context, args Args) (Sequencable, error) {
	if id != "next" {
		return nil, errors.New("unknown sequence")
	}
	r.calls = append(r.calls, args)
	return New(ctx, &stubScene{}, WithID(id))
}

var (
	qvga = core.NewResolution(320, 240, 60)
	vga  = core.NewResolution(640, 480, 60)
	wide = core.NewResolution(640, 240, 60)
)

func testContext(out core.Resolution, policy string) *Context {
	return &Context{
		Config: core.NewConfig(out, 32, true),
		Source: qvga,
		Policy: policy,
		Clock:  loop.NewManualClock(10 * time.Microsecond),
	}
}

func newStub(t *testing.T, ctx *Context, scene *stubScene, opts ...Option) *Sequence {
	t.Helper()
	seq, err := New(ctx, scene, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	scene.seq = seq
	return seq
}

func TestSequenceEndToEndLocked(t *testing.T) {
	ctx := testContext(vga, loop.PolicyLocked)
	scene := &stubScene{color: core.ColorRed, endAfter: 40}
	seq := newStub(t, ctx, scene, WithID("e2e"))
	screen := headless.New(ctx.Config)

	if err := seq.Start(screen); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if scene.loads != 1 || scene.updates != 40 || scene.renders != 40 {
		t.Fatalf("loads/updates/renders = %d/%d/%d, want 1/40/40", scene.loads, scene.updates, scene.renders)
	}
	if got := screen.Frames(); got != 40 {
		t.Fatalf("frames = %d, want 40", got)
	}
	if got := screen.Source(); got != qvga {
		t.Fatalf("screen source = %v, want %v", got, qvga)
	}
	if tr := seq.Renderers()[0].Transform(); tr.ScaleX != 2 || tr.ScaleY != 2 {
		t.Fatalf("transform = %+v, want 2x", tr)
	}
	if got := screen.PixelAt(639, 479); got != core.ColorRed {
		t.Fatalf("bottom-right pixel = %#x, want red", uint32(got))
	}
	if got := seq.Fps(); got != 60 {
		t.Fatalf("fps = %d, want 60", got)
	}

	stats := seq.Stats()
	if stats.Policy != loop.PolicyLocked || stats.Renders != 40 || stats.Updates != 40 {
		t.Fatalf("stats = %+v", stats)
	}
	if stats.Duration < 600*time.Millisecond {
		t.Fatalf("duration = %v, want about 40 frames at 60Hz", stats.Duration)
	}

	assertPanics(t, "restart", func() { _ = seq.Start(screen) })
}

func TestEndBeforeStartSkipsLoop(t *testing.T) {
	ctx := testContext(vga, "")
	scene := &stubScene{}
	seq := newStub(t, ctx, scene)
	screen := headless.New(ctx.Config)

	seq.End()
	if err := seq.Start(screen); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if scene.loads != 1 {
		t.Fatalf("loads = %d, want 1", scene.loads)
	}
	if scene.renders != 0 || screen.Frames() != 0 {
		t.Fatalf("ended sequence rendered %d frames", screen.Frames())
	}
	if seq.NextSequence() != nil {
		t.Fatal("plain End must not set a successor")
	}
}

func TestStartReportsLoadError(t *testing.T) {
	ctx := testContext(vga, "")
	boom := errors.New("boom")
	seq := newStub(t, ctx, &stubScene{loadErr: boom})

	err := seq.Start(headless.New(ctx.Config))
	if !errors.Is(err, boom) {
		t.Fatalf("Start error = %v, want wrapped boom", err)
	}
}

func TestZoomClamped(t *testing.T) {
	tests := []struct {
		factor float64
		zoom   float64
		res    core.Resolution
	}{
		{10, 5, core.NewResolution(1600, 1200, 60)},
		{0, 0.1, core.NewResolution(32, 24, 60)},
		{-3, 0.1, core.NewResolution(32, 24, 60)},
		{2, 2, vga},
		{1, 1, qvga},
	}
	for _, tt := range tests {
		seq := newStub(t, testContext(vga, ""), &stubScene{})
		seq.SetZoom(tt.factor)
		if seq.Zoom() != tt.zoom {
			t.Errorf("SetZoom(%v): zoom = %v, want %v", tt.factor, seq.Zoom(), tt.zoom)
		}
		if seq.Resolution() != tt.res {
			t.Errorf("SetZoom(%v): resolution = %v, want %v", tt.factor, seq.Resolution(), tt.res)
		}
	}

	seq := newStub(t, testContext(vga, ""), &stubScene{})
	assertPanics(t, "NaN zoom", func() { seq.SetZoom(math.NaN()) })
}

func TestZoomWhileRunningNotifiesScreen(t *testing.T) {
	ctx := testContext(vga, loop.PolicyLocked)
	scene := &stubScene{endAfter: 2}
	seq := newStub(t, ctx, scene)
	scene.onUpdate = func(n int) {
		if n == 1 {
			seq.SetZoom(2)
		}
	}
	screen := headless.New(ctx.Config)
	if err := seq.Start(screen); err != nil {
		t.Fatal(err)
	}
	if got := screen.Source(); got != vga {
		t.Fatalf("screen source = %v, want %v", got, vga)
	}
	if tr := seq.Renderers()[0].Transform(); !tr.IsIdentity() {
		t.Fatalf("transform = %+v, want identity", tr)
	}
}

func TestTimeFactor(t *testing.T) {
	tests := []struct {
		factor float64
		time   float64
		rate   int
	}{
		{2, 2, 120},
		{10, 5, 300},
		{0.01, 0.1, 6},
		{0.5, 0.5, 30},
	}
	for _, tt := range tests {
		seq := newStub(t, testContext(vga, loop.PolicyHybrid), &stubScene{})
		seq.SetTime(tt.factor)
		if seq.Time() != tt.time || seq.Rate() != tt.rate {
			t.Errorf("SetTime(%v): time/rate = %v/%d, want %v/%d", tt.factor, seq.Time(), seq.Rate(), tt.time, tt.rate)
		}
	}

	seq := newStub(t, testContext(vga, ""), &stubScene{})
	assertPanics(t, "NaN time", func() { seq.SetTime(math.NaN()) })
}

func fillWith(c core.Color) Renderable {
	return func(g *core.Graphic) { g.Clear(c) }
}

func TestSplitSideBySide(t *testing.T) {
	ctx := testContext(wide, loop.PolicyLocked)
	scene := &stubScene{endAfter: 1}
	seq := newStub(t, ctx, scene)
	if err := seq.SetSplit(SplitTwoHorizontal, fillWith(core.ColorRed), fillWith(core.ColorBlue)); err != nil {
		t.Fatal(err)
	}
	screen := headless.New(ctx.Config)
	if err := seq.Start(screen); err != nil {
		t.Fatal(err)
	}

	if got := screen.PixelAt(10, 10); got != core.ColorRed {
		t.Errorf("left viewport = %#x, want red", uint32(got))
	}
	if got := screen.PixelAt(630, 230); got != core.ColorBlue {
		t.Errorf("right viewport = %#x, want blue", uint32(got))
	}
	if tr := seq.Renderers()[1].Transform(); !tr.IsIdentity() {
		t.Errorf("transform = %+v, want identity", tr)
	}
	if seq.Split() != SplitTwoHorizontal {
		t.Errorf("split = %v", seq.Split())
	}
	if scene.renders != 0 {
		t.Errorf("scene render called %d times after split", scene.renders)
	}
}

func TestSplitForcesUniformScale(t *testing.T) {
	ctx := testContext(wide, loop.PolicyLocked)
	scene := &stubScene{endAfter: 1}
	seq := newStub(t, ctx, scene)
	if err := seq.SetSplit(SplitTwoVertical, fillWith(core.ColorRed), fillWith(core.ColorBlue)); err != nil {
		t.Fatal(err)
	}
	screen := headless.New(ctx.Config)
	if err := seq.Start(screen); err != nil {
		t.Fatal(err)
	}

	tr := seq.Renderers()[0].Transform()
	if tr.ScaleX != 0.5 || tr.ScaleY != 0.5 {
		t.Fatalf("transform = %+v, want uniform 0.5", tr)
	}
	// 160x120 image centered in a 640x120 viewport.
	if got := screen.PixelAt(250, 10); got != core.ColorRed {
		t.Errorf("top viewport center = %#x, want red", uint32(got))
	}
	if got := screen.PixelAt(10, 10); got != core.ColorBlack {
		t.Errorf("top viewport border = %#x, want black", uint32(got))
	}
	if got := screen.PixelAt(250, 130); got != core.ColorBlue {
		t.Errorf("bottom viewport center = %#x, want blue", uint32(got))
	}
}

func TestSplitNeedsOneRenderablePerViewport(t *testing.T) {
	seq := newStub(t, testContext(vga, ""), &stubScene{})
	assertPanics(t, "split count", func() { _ = seq.SetSplit(SplitFour, fillWith(core.ColorRed)) })
}

func TestSplitRejectsDirectRendering(t *testing.T) {
	tests := []struct {
		name  string
		split Split
		want  error
	}{
		{"single viewport", SplitNone, nil},
		{"two viewports", SplitTwoHorizontal, ErrDirectSplit},
		{"four viewports", SplitFour, ErrDirectSplit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := testContext(vga, "")
			ctx.Direct = true
			seq := newStub(t, ctx, &stubScene{})
			fns := make([]Renderable, tt.split.Count())
			for i := range fns {
				fns[i] = fillWith(core.ColorRed)
			}
			if err := seq.SetSplit(tt.split, fns...); !errors.Is(err, tt.want) {
				t.Fatalf("SetSplit = %v, want %v", err, tt.want)
			}
			if tt.want != nil && seq.Split() != SplitNone {
				t.Fatalf("rejected split applied: %v", seq.Split())
			}
		})
	}

	seq := newStub(t, testContext(vga, ""), &stubScene{})
	if err := seq.SetSplit(SplitFour, fillWith(core.ColorRed), fillWith(core.ColorRed),
		fillWith(core.ColorRed), fillWith(core.ColorRed)); err != nil {
		t.Fatal(err)
	}
	assertPanics(t, "direct on split", func() { seq.SetDirect(true) })
	seq.SetDirect(false)
}

func TestSplitCopiesRasterbarsPerViewport(t *testing.T) {
	seq := newStub(t, testContext(wide, ""), &stubScene{})
	palette := image.NewRGBA(image.Rect(0, 0, 1, 4))
	seq.AddRasterbarColor(palette)
	seq.SetRasterbarOffset(2, 3)
	if err := seq.SetSplit(SplitTwoHorizontal, fillWith(core.ColorRed), fillWith(core.ColorBlue)); err != nil {
		t.Fatal(err)
	}
	rs := seq.Renderers()
	if rs[0].raster == rs[1].raster {
		t.Fatal("viewports share raster bar state")
	}
	for i, r := range rs {
		if r.raster.colors.Len() != 1 || r.raster.offsetY != 2 || r.raster.factorY != 3 {
			t.Fatalf("viewport %d raster = %d colors, offset %d/%d", i, r.raster.colors.Len(), r.raster.offsetY, r.raster.factorY)
		}
	}
}

func TestDirectRendering(t *testing.T) {
	ctx := testContext(vga, loop.PolicyLocked)
	ctx.Direct = true
	ctx.Filter = "scale2x"
	var width int
	scene := &stubScene{color: core.ColorGreen, endAfter: 1}
	scene.onRender = func(g *core.Graphic) { width = g.Width() }
	seq := newStub(t, ctx, scene)
	screen := headless.New(ctx.Config)
	if err := seq.Start(screen); err != nil {
		t.Fatal(err)
	}

	if !seq.Renderers()[0].Direct() {
		t.Fatal("renderer should be direct")
	}
	if width != 640 {
		t.Fatalf("direct render width = %d, want screen width 640", width)
	}
	if got := screen.PixelAt(639, 479); got != core.ColorGreen {
		t.Fatalf("pixel = %#x, want green", uint32(got))
	}
}

func TestFilterPipeline(t *testing.T) {
	ctx := testContext(vga, loop.PolicyLocked)
	ctx.Filter = "scale2x"
	scene := &stubScene{color: core.ColorRed, endAfter: 1}
	seq := newStub(t, ctx, scene)
	screen := headless.New(ctx.Config)
	if err := seq.Start(screen); err != nil {
		t.Fatal(err)
	}
	if tr := seq.Renderers()[0].Transform(); !tr.IsIdentity() {
		t.Fatalf("scale2x on 2x output should blit 1:1, got %+v", tr)
	}
	if got := screen.PixelAt(639, 479); got != core.ColorRed {
		t.Fatalf("pixel = %#x, want red", uint32(got))
	}

	bad := testContext(vga, "")
	bad.Filter = "sepia"
	if _, err := New(bad, &stubScene{}); err == nil {
		t.Fatal("unknown filter should fail")
	}
	bad = testContext(vga, "warp")
	if _, err := New(bad, &stubScene{}); err == nil {
		t.Fatal("unknown policy should fail")
	}
}

func TestEndWithResolvesSuccessor(t *testing.T) {
	ctx := testContext(vga, "")
	resolver := &stubResolver{}
	ctx.Registry = resolver
	seq := newStub(t, ctx, &stubScene{})

	if err := seq.EndWith("next", Args{Level: 2}); err != nil {
		t.Fatalf("EndWith: %v", err)
	}
	next := seq.NextSequence()
	if next == nil || next.ID() != "next" {
		t.Fatalf("next = %v, want sequence \"next\"", next)
	}
	if len(resolver.calls) != 1 || resolver.calls[0].Level != 2 {
		t.Fatalf("resolver calls = %+v", resolver.calls)
	}
	if err := seq.EndWith("missing", Args{}); err == nil {
		t.Fatal("unknown successor should fail")
	}

	orphan := newStub(t, testContext(vga, ""), &stubScene{})
	if err := orphan.EndWith("next", Args{}); !errors.Is(err, ErrNoRegistry) {
		t.Fatalf("err = %v, want ErrNoRegistry", err)
	}
}

func TestLoadNextPreloads(t *testing.T) {
	ctx := testContext(vga, "")
	ctx.Registry = &stubResolver{}
	seq := newStub(t, ctx, &stubScene{})

	if err := seq.LoadNext("next", Args{}); err != nil {
		t.Fatalf("LoadNext: %v", err)
	}
	if seq.NextSequence() == nil {
		t.Fatal("LoadNext should set the successor")
	}
	if seq.stopping.Load() {
		t.Fatal("LoadNext must not end the sequence")
	}
}

func TestOnTerminatedForwardsToScene(t *testing.T) {
	scene := &stubScene{}
	seq := newStub(t, testContext(vga, ""), scene)
	seq.OnTerminated(true)
	if len(scene.terminated) != 1 || !scene.terminated[0] {
		t.Fatalf("terminated = %v", scene.terminated)
	}
}

func TestKeyListenersAttachOnStart(t *testing.T) {
	ctx := testContext(vga, "")
	screen := headless.New(ctx.Config)
	keys := core.NewKeys()
	scene := &stubScene{endAfter: 1}
	scene.onUpdate = func(int) { screen.Press(core.KeyEnter) }
	seq := newStub(t, ctx, scene)
	seq.AddKeyListener(keys)

	if err := seq.Start(screen); err != nil {
		t.Fatal(err)
	}
	if !keys.JustPressed(core.KeyEnter) {
		t.Fatal("listener registered before Start was not attached")
	}
}

func TestKeyListenersDetachOnEnd(t *testing.T) {
	ctx := testContext(vga, "")
	screen := headless.New(ctx.Config)

	tests := []struct {
		name  string
		early bool
	}{
		{"added before start", true},
		{"added while running", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keys := core.NewKeys()
			scene := &stubScene{endAfter: 2}
			seq := newStub(t, ctx, scene)
			if tt.early {
				seq.AddKeyListener(keys)
			} else {
				scene.onUpdate = func(n int) {
					if n == 1 {
						seq.AddKeyListener(keys)
					}
				}
			}
			if err := seq.Start(screen); err != nil {
				t.Fatal(err)
			}

			successor := newStub(t, ctx, &stubScene{endAfter: 1})
			if err := successor.Start(screen); err != nil {
				t.Fatal(err)
			}
			screen.Press(core.KeyEnter)
			if keys.JustPressed(core.KeyEnter) {
				t.Fatal("ended sequence still receives keys")
			}
			seq.AddKeyListener(keys)
			screen.Press(core.KeySpace)
			if keys.JustPressed(core.KeySpace) {
				t.Fatal("listener added after end was attached")
			}
		})
	}
}

func TestEndKeepsPreloadedSuccessor(t *testing.T) {
	ctx := testContext(vga, "")
	ctx.Registry = &stubResolver{}

	tests := []struct {
		name    string
		preload bool
	}{
		{"preloaded", true},
		{"none", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seq := newStub(t, ctx, &stubScene{})
			if tt.preload {
				if err := seq.LoadNext("next", Args{}); err != nil {
					t.Fatalf("LoadNext: %v", err)
				}
			}
			want := seq.NextSequence()
			seq.End()
			if err := seq.Start(headless.New(ctx.Config)); err != nil {
				t.Fatal(err)
			}
			if got := seq.NextSequence(); got != want {
				t.Fatalf("successor after End = %v, want %v", got, want)
			}
		})
	}
}

func TestSystemCursorVisibility(t *testing.T) {
	ctx := testContext(vga, "")
	seq := newStub(t, ctx, &stubScene{})
	seq.SetSystemCursorVisible(false)
	seq.End()

	screen := headless.New(ctx.Config)
	if err := seq.Start(screen); err != nil {
		t.Fatal(err)
	}
	if screen.CursorVisible() {
		t.Fatal("cursor hidden before Start is still visible")
	}

	scene := &stubScene{}
	running := newStub(t, ctx, scene)
	scene.onUpdate = func(int) {
		running.SetSystemCursorVisible(true)
		running.End()
	}
	if err := running.Start(screen); err != nil {
		t.Fatal(err)
	}
	if !screen.CursorVisible() {
		t.Fatal("cursor shown while running is not visible")
	}
}

func assertPanics(t *testing.T, name string, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("%s: expected panic", name)
		}
		if _, ok := r.(*core.PreconditionError); !ok {
			t.Fatalf("%s: panic %v is not a PreconditionError", name, r)
		}
	}()
	fn()
}
