package tui

import (
	"image"
	"sync"
	"sync/atomic"

	xdraw "golang.org/x/image/draw"

	"github.com/vovakirdan/rastercade/internal/core"
)

// Screen is a core.Screen presenting frames in a terminal. The engine
// renders at the configured output resolution; each presented frame is
// resampled to the terminal cell grid (two pixel rows per cell).
//
// The screen is not ready until the terminal size is known.
type Screen struct {
	cfg     core.Config
	img     *image.RGBA
	graphic *core.Graphic
	frames  atomic.Int64

	mu        sync.Mutex
	cols      int
	rows      int
	present   *image.RGBA
	styles    styleCache
	frame     string
	source    core.Resolution
	cursor    bool
	listeners []core.KeyListener
}

// NewScreen creates a terminal screen for cfg.
func NewScreen(cfg core.Config) *Screen {
	img := core.NewImage(cfg.Output)
	return &Screen{
		cfg:     cfg,
		img:     img,
		graphic: core.NewGraphic(img),
		styles:  make(styleCache),
	}
}

// Resize sets the terminal area available to frames, in cells.
func (s *Screen) Resize(cols, rows int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cols, s.rows = max(0, cols), max(0, rows)
	s.present = nil
}

func (s *Screen) IsReady() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cols > 0 && s.rows > 0
}

func (s *Screen) PreUpdate() {
	s.graphic.Clear(core.ColorBlack)
}

// Update resamples the frame to the terminal grid and stores it for View.
func (s *Screen) Update() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cols == 0 || s.rows == 0 {
		return
	}
	if s.present == nil {
		s.present = image.NewRGBA(image.Rect(0, 0, s.cols, s.rows*2))
	}
	xdraw.ApproxBiLinear.Scale(s.present, s.present.Bounds(), s.img, s.img.Bounds(), xdraw.Src, nil)
	s.frame = renderHalfBlocks(s.present, s.styles)
	s.frames.Add(1)
}

// View returns the last presented frame.
func (s *Screen) View() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame
}

// Frames returns how many frames were presented.
func (s *Screen) Frames() int64 { return s.frames.Load() }

func (s *Screen) Graphic() *core.Graphic { return s.graphic }
func (s *Screen) Config() core.Config    { return s.cfg }

func (s *Screen) OnSourceChanged(source core.Resolution) {
	s.mu.Lock()
	s.source = source
	s.mu.Unlock()
}

// Source returns the source resolution currently feeding the screen.
func (s *Screen) Source() core.Resolution {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.source
}

func (s *Screen) ShowCursor() { s.setCursor(true) }
func (s *Screen) HideCursor() { s.setCursor(false) }

func (s *Screen) setCursor(v bool) {
	s.mu.Lock()
	s.cursor = v
	s.mu.Unlock()
}

// CursorVisible reports whether the engine asked for a visible cursor.
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

// Dispatch delivers a key to every listener. Terminals report no key
// releases, so each key is pressed and released immediately.
func (s *Screen) Dispatch(k core.Key) {
	s.mu.Lock()
	ls := append([]core.KeyListener(nil), s.listeners...)
	s.mu.Unlock()
	for _, l := range ls {
		l.KeyPressed(k)
		l.KeyReleased(k)
	}
}
