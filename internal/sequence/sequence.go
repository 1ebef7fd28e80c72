package sequence

import (
	"errors"
	"fmt"
	"image"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/rastercade/internal/core"
	"github.com/vovakirdan/rastercade/internal/filter"
	"github.com/vovakirdan/rastercade/internal/loop"
)

// Scene is the game-facing part of a sequence.
type Scene interface {
	// Load prepares resources. It runs once, before the first update.
	Load() error

	// Update advances the scene. extrp is the extrapolation factor of the loop.
	Update(extrp float64)

	// Render draws the scene at source resolution.
	Render(g *core.Graphic)
}

// Checker is implemented by scenes that want to run while the screen is not ready.
type Checker interface {
	Check()
}

// Terminator is implemented by scenes that want to know when they stopped.
type Terminator interface {
	OnTerminated(hasNext bool)
}

// Zoom and time factor bounds.
const (
	MinZoom = 0.1
	MaxZoom = 5.0
	MinTime = 0.1
	MaxTime = 5.0
)

// FpsPeriod is the simulated time between two frame rate measurements.
const FpsPeriod = 500 * time.Millisecond

// ErrNoRegistry is returned when a successor is requested by id without a registry.
var ErrNoRegistry = errors.New("sequence: context has no registry")

// ErrDirectSplit is returned when a split layout is requested while rendering direct.
var ErrDirectSplit = errors.New("sequence: split layouts need buffered rendering")

type state int32

const (
	stateCreated state = iota
	stateLoaded
	stateRunning
	stateEnded
)

// Option configures a Sequence.
type Option func(*Sequence)

// WithID sets the sequence identifier.
func WithID(id string) Option {
	return func(s *Sequence) {
		s.id = id
	}
}

// WithSource overrides the source resolution of the context.
func WithSource(source core.Resolution) Option {
	return func(s *Sequence) {
		s.source = source
	}
}

// WithLoop replaces the loop built from the context policy.
func WithLoop(l loop.Loop) Option {
	return func(s *Sequence) {
		s.loop = l
	}
}

// Sequence drives a Scene with a loop and renders it through one renderer
// per split screen viewport. A sequence runs once; restarting it panics.
type Sequence struct {
	ctx    *Context
	logger *log.Logger
	clock  loop.Clock
	scene  Scene
	id     string
	loop   loop.Loop
	policy string

	source     core.Resolution
	resolution core.Resolution
	zoom       float64
	time       float64
	rate       int

	split        Split
	renderers    []*Renderer
	current      *Renderer
	filterName   string
	scanlineName string
	direct       bool
	palettes     []*image.RGBA
	rasterOffset [2]int
	rasterY      [2]int

	screen    core.Screen
	listeners []core.KeyListener
	cursor    *bool

	mu   sync.Mutex
	next Sequencable

	state    atomic.Int32
	stopping atomic.Bool
	loaded   bool

	tick      Tick
	fps       atomic.Int64
	updates   atomic.Int64
	renders   atomic.Int64
	startedAt int64
	duration  atomic.Int64
}

// New creates a sequence for scene. The context policy, filter and scanline
// names are resolved here; unknown names are reported as errors.
func New(ctx *Context, scene Scene, opts ...Option) (*Sequence, error) {
	core.Require(ctx != nil, "sequence.New", "nil context")
	core.Require(scene != nil, "sequence.New", "nil scene")

	s := &Sequence{
		ctx:          ctx,
		scene:        scene,
		zoom:         1,
		time:         1,
		source:       ctx.source(),
		filterName:   ctx.Filter,
		scanlineName: ctx.Scanline,
		direct:       ctx.Direct,
		rasterOffset: [2]int{0, 1},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.source.Rate == 0 {
		s.source.Rate = ctx.Config.Output.Rate
	}
	if err := s.source.Validate(); err != nil {
		return nil, fmt.Errorf("sequence: source: %w", err)
	}
	s.resolution = s.source
	s.rate = s.source.Rate
	s.logger = ctx.logger().With("sequence", s.id)

	s.clock = ctx.Clock
	if s.clock == nil {
		s.clock = loop.NewSystemClock()
	}
	if s.loop == nil {
		p, err := loop.NewPolicy(ctx.Policy, s.rate, ctx.HybridMargin)
		if err != nil {
			return nil, fmt.Errorf("sequence: %w", err)
		}
		s.loop = loop.New(p, loop.WithClock(s.clock))
	}
	if lp, ok := s.loop.(interface{ Policy() loop.Policy }); ok {
		s.policy = lp.Policy().Name()
	}

	r, err := s.newRenderer(scene.Render)
	if err != nil {
		return nil, err
	}
	s.renderers = []*Renderer{r}
	return s, nil
}

func (s *Sequence) newRenderer(fn Renderable) (*Renderer, error) {
	f, err := filter.New(s.filterName)
	if err != nil {
		return nil, fmt.Errorf("sequence: %w", err)
	}
	sc, err := filter.NewScanline(s.scanlineName)
	if err != nil {
		return nil, fmt.Errorf("sequence: %w", err)
	}
	r := NewRenderer(s.ctx.Config, s.logger, fn)
	r.SetFilter(f)
	r.SetScanline(sc)
	r.SetDirect(s.direct)
	for _, p := range s.palettes {
		r.AddRasterbarColor(p)
	}
	r.SetRasterbarOffset(s.rasterOffset[0], s.rasterOffset[1])
	r.SetRasterbarY(s.rasterY[0], s.rasterY[1])
	return r, nil
}

// ID returns the sequence identifier.
func (s *Sequence) ID() string { return s.id }

// Config returns the display configuration.
func (s *Sequence) Config() core.Config { return s.ctx.Config }

// Context returns the engine context the sequence was created with.
func (s *Sequence) Context() *Context { return s.ctx }

// Logger returns the sequence logger.
func (s *Sequence) Logger() *log.Logger { return s.logger }

// Screen returns the screen while the sequence runs, nil otherwise.
func (s *Sequence) Screen() core.Screen { return s.screen }

// Load runs the scene Load once.
func (s *Sequence) Load() error {
	if s.loaded {
		return nil
	}
	if err := s.scene.Load(); err != nil {
		return err
	}
	s.loaded = true
	s.state.CompareAndSwap(int32(stateCreated), int32(stateLoaded))
	return nil
}

// Start runs the sequence on screen until it ends.
func (s *Sequence) Start(screen core.Screen) error {
	core.Require(screen != nil, "sequence.Start", "nil screen")
	if !s.state.CompareAndSwap(int32(stateCreated), int32(stateRunning)) &&
		!s.state.CompareAndSwap(int32(stateLoaded), int32(stateRunning)) {
		panic(&core.PreconditionError{Op: "sequence.Start", Msg: fmt.Sprintf("sequence %q cannot be restarted", s.id)})
	}
	s.startedAt = s.clock.Now()
	defer s.finish()

	s.screen = screen
	for _, l := range s.listeners {
		screen.AddKeyListener(l)
	}
	if err := s.Load(); err != nil {
		return fmt.Errorf("sequence: load %q: %w", s.id, err)
	}

	for _, r := range s.renderers {
		r.SetScreen(screen)
		r.InitResolution(s.resolution)
	}
	screen.OnSourceChanged(s.resolution)
	if s.cursor != nil {
		s.applyCursor()
	}
	s.tick.Start()

	s.logger.Debug("Sequence started", "source", s.resolution, "policy", s.policy)
	if !s.stopping.Load() {
		s.loop.Start(screen, s)
	}
	return nil
}

func (s *Sequence) finish() {
	s.state.Store(int32(stateEnded))
	s.duration.Store(s.clock.Now() - s.startedAt)
	s.tick.Stop()
	s.closeRenderers()
	if s.screen != nil {
		for _, l := range s.listeners {
			s.screen.RemoveKeyListener(l)
		}
	}
	s.logger.Debug("Sequence ended", "fps", s.Fps(), "renders", s.renders.Load())
}

func (s *Sequence) closeRenderers() {
	for _, r := range s.renderers {
		if err := r.Close(); err != nil {
			s.logger.Warn("Failed to close renderer", "error", err)
		}
	}
}

// Update is called by the loop for each simulation step.
func (s *Sequence) Update(extrp float64) {
	s.tick.Update(extrp, s.rate)
	s.scene.Update(extrp)
	s.updates.Add(1)
}

// Render is called by the loop once per iteration.
func (s *Sequence) Render() {
	if s.stopping.Load() {
		s.loop.Stop()
	}
	for _, r := range s.renderers {
		s.current = r
		r.Render()
	}
	s.current = nil
	s.renders.Add(1)
}

// Check is called by the loop while the screen is not ready.
func (s *Sequence) Check() {
	if s.stopping.Load() {
		s.loop.Stop()
	}
	if c, ok := s.scene.(Checker); ok {
		c.Check()
	}
}

// ComputeFrameRate refreshes the measured frame rate every FpsPeriod of
// simulated time.
func (s *Sequence) ComputeFrameRate(last, current int64) {
	if !s.tick.ElapsedTime(FpsPeriod) || current <= last {
		return
	}
	s.fps.Store(int64(math.Round(float64(time.Second) / float64(current-last))))
	s.tick.Restart()
}

// Fps returns the last measured frame rate, 0 before the first measurement.
func (s *Sequence) Fps() int {
	return int(s.fps.Load())
}

// Stats summarises the run so far.
func (s *Sequence) Stats() Stats {
	d := s.duration.Load()
	if state(s.state.Load()) == stateRunning {
		d = s.clock.Now() - s.startedAt
	}
	return Stats{
		Policy:   s.policy,
		Updates:  s.updates.Load(),
		Renders:  s.renders.Load(),
		Fps:      s.Fps(),
		Duration: time.Duration(d),
	}
}

// SetZoom scales the source resolution by factor, clamped to [MinZoom, MaxZoom].
func (s *Sequence) SetZoom(factor float64) {
	core.Require(!math.IsNaN(factor), "sequence.SetZoom", "zoom is NaN")
	s.zoom = core.Clamp(factor, MinZoom, MaxZoom)
	s.resolution = s.source.Scaled(s.zoom)
	if s.screen == nil {
		return
	}
	for _, r := range s.renderers {
		r.InitResolution(s.resolution)
	}
	s.screen.OnSourceChanged(s.resolution)
}

// Zoom returns the current zoom factor.
func (s *Sequence) Zoom() float64 { return s.zoom }

// Resolution returns the current (zoomed) source resolution.
func (s *Sequence) Resolution() core.Resolution { return s.resolution }

// SetTime scales the simulation rate by factor, clamped to [MinTime, MaxTime].
func (s *Sequence) SetTime(factor float64) {
	core.Require(!math.IsNaN(factor), "sequence.SetTime", "time factor is NaN")
	s.time = core.Clamp(factor, MinTime, MaxTime)
	s.rate = int(math.Round(float64(s.source.Rate) * s.time))
	s.loop.NotifyRateChanged(s.rate)
}

// Time returns the current time factor.
func (s *Sequence) Time() float64 { return s.time }

// Rate returns the desired simulation rate.
func (s *Sequence) Rate() int { return s.rate }

// SetSplit replaces the renderers with one per viewport of split. It
// requires exactly one renderable per viewport and returns ErrDirectSplit
// for a multi-viewport layout while rendering direct.
//
// Every new renderer receives its own copy of the raster bar palettes,
// offset and origin set on the sequence. Raster bars are therefore applied
// per viewport, relative to the surface each renderer draws.
func (s *Sequence) SetSplit(split Split, renderables ...Renderable) error {
	core.Require(len(renderables) == split.Count(), "sequence.SetSplit",
		"%s needs %d renderables, got %d", split, split.Count(), len(renderables))
	if s.direct && split != SplitNone {
		return ErrDirectSplit
	}

	renderers := make([]*Renderer, 0, len(renderables))
	for i, fn := range renderables {
		r, err := s.newRenderer(fn)
		if err != nil {
			return err
		}
		r.SetLocation(split, i)
		if s.screen != nil {
			r.SetScreen(s.screen)
			r.InitResolution(s.resolution)
		}
		renderers = append(renderers, r)
	}
	s.closeRenderers()
	s.split = split
	s.renderers = renderers
	return nil
}

// Split returns the current split layout.
func (s *Sequence) Split() Split { return s.split }

// Renderers returns the renderers, one per viewport.
func (s *Sequence) Renderers() []*Renderer { return s.renderers }

// SetFilter switches every renderer to the named filter.
func (s *Sequence) SetFilter(name string) error {
	fs := make([]filter.Filter, len(s.renderers))
	for i := range s.renderers {
		f, err := filter.New(name)
		if err != nil {
			return fmt.Errorf("sequence: %w", err)
		}
		fs[i] = f
	}
	s.filterName = name
	for i, r := range s.renderers {
		r.SetFilter(fs[i])
	}
	return nil
}

// SetScanline switches every renderer to the named scanline pass.
func (s *Sequence) SetScanline(name string) error {
	for _, r := range s.renderers {
		sc, err := filter.NewScanline(name)
		if err != nil {
			return fmt.Errorf("sequence: %w", err)
		}
		r.SetScanline(sc)
	}
	s.scanlineName = name
	return nil
}

// SetDirect switches every renderer between direct and buffered rendering.
// Direct rendering requires SplitNone.
func (s *Sequence) SetDirect(direct bool) {
	core.Require(!direct || s.split == SplitNone, "sequence.SetDirect",
		"direct rendering with %s layout", s.split)
	s.direct = direct
	if direct {
		s.filterName = filter.NameNone
	}
	for _, r := range s.renderers {
		r.SetDirect(direct)
	}
}

// AddRasterbarColor registers palette columns as raster bars on every renderer.
func (s *Sequence) AddRasterbarColor(palette *image.RGBA) {
	for _, r := range s.renderers {
		r.AddRasterbarColor(palette)
	}
	s.palettes = append(s.palettes, palette)
}

// ClearRasterbarColor removes every raster bar.
func (s *Sequence) ClearRasterbarColor() {
	for _, r := range s.renderers {
		r.ClearRasterbarColor()
	}
	s.palettes = nil
}

// SetRasterbarOffset sets the raster bar row offset and divisor.
func (s *Sequence) SetRasterbarOffset(offsetY, factorY int) {
	for _, r := range s.renderers {
		r.SetRasterbarOffset(offsetY, factorY)
	}
	s.rasterOffset = [2]int{offsetY, factorY}
}

// SetRasterbarY sets the raster bar row origin and bottom margin.
func (s *Sequence) SetRasterbarY(y1, y2 int) {
	for _, r := range s.renderers {
		r.SetRasterbarY(y1, y2)
	}
	s.rasterY = [2]int{y1, y2}
}

// RenderRasterbar applies the raster bars to the surface being rendered.
// Scenes call it from Render after drawing.
func (s *Sequence) RenderRasterbar() {
	if s.current != nil {
		s.current.RenderRasterbar()
	}
}

// SetSystemCursorVisible shows or hides the system cursor, now or when the
// sequence starts. The screen cursor is left alone unless this is called.
func (s *Sequence) SetSystemCursorVisible(visible bool) {
	s.cursor = &visible
	if s.screen != nil {
		s.applyCursor()
	}
}

func (s *Sequence) applyCursor() {
	if *s.cursor {
		s.screen.ShowCursor()
	} else {
		s.screen.HideCursor()
	}
}

// AddKeyListener registers l on the screen, now or when the sequence starts.
// Listeners are removed from the screen when the sequence ends.
func (s *Sequence) AddKeyListener(l core.KeyListener) {
	s.listeners = append(s.listeners, l)
	if s.screen != nil && state(s.state.Load()) != stateEnded {
		s.screen.AddKeyListener(l)
	}
}

// End stops the sequence. A successor preloaded with LoadNext is kept and
// started by the loader. It is safe to call from any goroutine and before Start.
func (s *Sequence) End() {
	s.stop()
}

// EndWith resolves the successor id and stops the sequence.
func (s *Sequence) EndWith(id string, args Args) error {
	next, err := s.resolve(id, args)
	if err != nil {
		return err
	}
	s.EndTo(next)
	return nil
}

// EndTo stops the sequence with next as successor.
func (s *Sequence) EndTo(next Sequencable) {
	s.mu.Lock()
	s.next = next
	s.mu.Unlock()
	s.stop()
}

// LoadNext resolves and preloads the successor without ending the sequence.
func (s *Sequence) LoadNext(id string, args Args) error {
	next, err := s.resolve(id, args)
	if err != nil {
		return err
	}
	if err := next.Load(); err != nil {
		return fmt.Errorf("sequence: preload %q: %w", id, err)
	}
	s.mu.Lock()
	s.next = next
	s.mu.Unlock()
	return nil
}

func (s *Sequence) resolve(id string, args Args) (Sequencable, error) {
	if s.ctx.Registry == nil {
		return nil, ErrNoRegistry
	}
	next, err := s.ctx.Registry.Create(id, s.ctx, args)
	if err != nil {
		return nil, fmt.Errorf("sequence: resolve %q: %w", id, err)
	}
	return next, nil
}

func (s *Sequence) stop() {
	s.stopping.Store(true)
	s.loop.Stop()
}

// NextSequence returns the successor, nil when the sequence ended plainly.
func (s *Sequence) NextSequence() Sequencable {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}

// OnTerminated forwards to the scene when it implements Terminator.
func (s *Sequence) OnTerminated(hasNext bool) {
	if t, ok := s.scene.(Terminator); ok {
		t.OnTerminated(hasNext)
	}
}
