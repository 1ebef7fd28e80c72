// Package headless provides an off-screen core.Screen used by tests and the
// bench command. Frames are rendered into memory and optionally handed to a
// present callback.
package headless

import (
	"image"
	"sync"
	"sync/atomic"

	"github.com/vovakirdan/rastercade/internal/core"
)

// Option configures a Screen.
type Option func(*Screen)

// WithPresent calls fn with the output surface after every frame.
func WithPresent(fn func(img *image.RGBA)) Option {
	return func(s *Screen) {
		s.present = fn
	}
}

// WithBackground sets the color the surface is cleared to before each frame.
func WithBackground(c core.Color) Option {
	return func(s *Screen) {
		s.background = c
	}
}

// NotReady creates the screen in the not-ready state.
func NotReady() Option {
	return func(s *Screen) {
		s.ready.Store(false)
	}
}

// Screen renders into an in-memory RGBA surface.
type Screen struct {
	cfg        core.Config
	img        *image.RGBA
	graphic    *core.Graphic
	background core.Color
	present    func(img *image.RGBA)

	ready  atomic.Bool
	frames atomic.Int64

	mu        sync.Mutex
	source    core.Resolution
	cursor    bool
	listeners []core.KeyListener
}

// New creates a ready screen for cfg.
func New(cfg core.Config, opts ...Option) *Screen {
	img := core.NewImage(cfg.Output)
	s := &Screen{
		cfg:        cfg,
		img:        img,
		graphic:    core.NewGraphic(img),
		background: core.ColorBlack,
		cursor:     true,
	}
	s.ready.Store(true)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Screen) IsReady() bool { return s.ready.Load() }

// SetReady changes readiness, emulating a window being realized or hidden.
func (s *Screen) SetReady(ready bool) { s.ready.Store(ready) }

func (s *Screen) PreUpdate() {
	s.graphic.Clear(s.background)
}

func (s *Screen) Update() {
	s.frames.Add(1)
	if s.present != nil {
		s.present(s.img)
	}
}

func (s *Screen) Graphic() *core.Graphic { return s.graphic }
func (s *Screen) Config() core.Config    { return s.cfg }

func (s *Screen) OnSourceChanged(source core.Resolution) {
	s.mu.Lock()
	s.source = source
	s.mu.Unlock()
}

// Source returns the last source resolution reported by the engine.
func (s *Screen) Source() core.Resolution {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.source
}

func (s *Screen) ShowCursor() { s.setCursor(true) }
func (s *Screen) HideCursor() { s.setCursor(false) }

func (s *Screen) setCursor(visible bool) {
	s.mu.Lock()
	s.cursor = visible
	s.mu.Unlock()
}

// CursorVisible reports the cursor state.
func (s *Screen) CursorVisible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

func (s *Screen) AddKeyListener(l core.KeyListener) {
	s.mu.Lock()
	s.listeners = append(s.listeners, l)
	s.mu.Unlock()
}

func (s *Screen) RemoveKeyListener(l core.KeyListener) {
	s.mu.Lock()
	s.listeners = core.RemoveListener(s.listeners, l)
	s.mu.Unlock()
}

// Press dispatches a key press to every listener.
func (s *Screen) Press(k core.Key) {
	for _, l := range s.snapshotListeners() {
		l.KeyPressed(k)
	}
}

// Release dispatches a key release to every listener.
func (s *Screen) Release(k core.Key) {
	for _, l := range s.snapshotListeners() {
		l.KeyReleased(k)
	}
}

func (s *Screen) snapshotListeners() []core.KeyListener {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.KeyListener(nil), s.listeners...)
}

// Frames returns how many frames were presented.
func (s *Screen) Frames() int64 { return s.frames.Load() }

// PixelAt returns the color of an output pixel.
func (s *Screen) PixelAt(x, y int) core.Color {
	return core.PixelAt(s.img, x, y)
}

// Snapshot returns a copy of the output surface.
func (s *Screen) Snapshot() *image.RGBA {
	cp := image.NewRGBA(s.img.Bounds())
	copy(cp.Pix, s.img.Pix)
	return cp
}
