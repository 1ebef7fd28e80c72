//go:build !headless

package window

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/vovakirdan/rastercade/internal/core"
)

// Available reports whether this build carries the window backend.
const Available = true

// Screen is a core.Screen shown in an ebiten window. It implements
// ebiten.Game.
type Screen struct {
	cfg     core.Config
	title   string
	img     *image.RGBA
	graphic *core.Graphic
	frames  atomic.Int64
	ready   atomic.Bool
	closed  atomic.Bool

	mu        sync.Mutex
	front     []byte
	dirty     bool
	source    core.Resolution
	cursor    bool
	listeners []core.KeyListener

	window *ebiten.Image
}

// NewScreen creates a window screen for cfg. It is not ready until the
// window drew its first frame.
func NewScreen(cfg core.Config, title string) *Screen {
	img := core.NewImage(cfg.Output)
	return &Screen{
		cfg:     cfg,
		title:   title,
		img:     img,
		graphic: core.NewGraphic(img),
		front:   make([]byte, len(img.Pix)),
		cursor:  true,
	}
}

func (s *Screen) IsReady() bool { return s.ready.Load() }

func (s *Screen) PreUpdate() {
	s.graphic.Clear(core.ColorBlack)
}

// Update hands the rendered frame to the window.
func (s *Screen) Update() {
	s.mu.Lock()
	copy(s.front, s.img.Pix)
	s.dirty = true
	s.mu.Unlock()
	s.frames.Add(1)
}

// Frames returns how many frames the engine presented.
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

// The cursor mode is applied by the ebiten goroutine on its next Update.
func (s *Screen) ShowCursor() { s.setCursor(true) }
func (s *Screen) HideCursor() { s.setCursor(false) }

func (s *Screen) setCursor(visible bool) {
	s.mu.Lock()
	s.cursor = visible
	s.mu.Unlock()
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

// Close makes the window terminate on its next update.
func (s *Screen) Close() { s.closed.Store(true) }

// keyTable maps polled ebiten keys to engine keys.
var keyTable = map[ebiten.Key]core.Key{
	ebiten.KeyArrowUp:    core.KeyUp,
	ebiten.KeyArrowDown:  core.KeyDown,
	ebiten.KeyArrowLeft:  core.KeyLeft,
	ebiten.KeyArrowRight: core.KeyRight,
	ebiten.KeySpace:      core.KeySpace,
	ebiten.KeyEnter:      core.KeyEnter,
	ebiten.KeyEscape:     core.KeyEsc,
	ebiten.KeyW:          "w",
	ebiten.KeyA:          "a",
	ebiten.KeyS:          "s",
	ebiten.KeyD:          "d",
	ebiten.KeyZ:          "z",
	ebiten.KeyX:          "x",
	ebiten.KeyP:          "p",
	ebiten.KeyQ:          "q",
}

// dispatch delivers a key transition to every listener.
func (s *Screen) dispatch(k core.Key, pressed bool) {
	s.mu.Lock()
	ls := append([]core.KeyListener(nil), s.listeners...)
	s.mu.Unlock()
	for _, l := range ls {
		if pressed {
			l.KeyPressed(k)
		} else {
			l.KeyReleased(k)
		}
	}
}

// ebitenGame adapts Screen to ebiten.Game. Screen keeps its engine-side
// Update and the adapter carries ebiten's.
type ebitenGame struct{ s *Screen }

func (g ebitenGame) Update() error {
	s := g.s
	if s.closed.Load() || ebiten.IsWindowBeingClosed() {
		return ebiten.Termination
	}
	for ek, k := range keyTable {
		if inpututil.IsKeyJustPressed(ek) {
			s.dispatch(k, true)
		}
		if inpututil.IsKeyJustReleased(ek) {
			s.dispatch(k, false)
		}
	}

	s.mu.Lock()
	visible := s.cursor
	s.mu.Unlock()
	if visible {
		ebiten.SetCursorMode(ebiten.CursorModeVisible)
	} else {
		ebiten.SetCursorMode(ebiten.CursorModeHidden)
	}
	return nil
}

func (g ebitenGame) Draw(screen *ebiten.Image) {
	s := g.s
	if s.window == nil {
		s.window = ebiten.NewImage(s.cfg.Output.Width, s.cfg.Output.Height)
	}
	s.mu.Lock()
	if s.dirty {
		s.window.WritePixels(s.front)
		s.dirty = false
	}
	s.mu.Unlock()
	screen.DrawImage(s.window, nil)
	s.ready.Store(true)
}

func (g ebitenGame) Layout(_, _ int) (int, int) {
	return g.s.cfg.Output.Width, g.s.cfg.Output.Height
}

// PlayFunc runs the engine on screen until ctx is cancelled.
type PlayFunc func(ctx context.Context, screen core.Screen) error

// Run opens a window and runs play on it. It must be called from the main
// goroutine. Closing the window cancels play; Run returns after play has
// returned.
func Run(ctx context.Context, cfg core.Config, title string, play PlayFunc) error {
	s := NewScreen(cfg, title)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		err := play(ctx, s)
		s.Close()
		done <- err
	}()

	w, h := cfg.Output.Width, cfg.Output.Height
	if !cfg.Windowed {
		ebiten.SetFullscreen(true)
	}
	ebiten.SetWindowSize(w, h)
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowResizable(true)
	ebiten.SetRunnableOnUnfocused(true)
	ebiten.SetVsyncEnabled(true)

	runErr := ebiten.RunGame(ebitenGame{s: s})
	cancel()
	playErr := <-done

	if runErr != nil && !errors.Is(runErr, ebiten.Termination) {
		return fmt.Errorf("window: %w", runErr)
	}
	return playErr
}
