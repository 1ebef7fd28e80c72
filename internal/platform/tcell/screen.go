// Package tcell is a core.Screen backend drawing frames on a terminal
// through tcell, two pixel rows per character cell.
package tcell

import (
	"context"
	"fmt"
	"image"
	"strings"
	"sync"
	"sync/atomic"

	gtcell "github.com/gdamore/tcell/v2"
	xdraw "golang.org/x/image/draw"

	"github.com/vovakirdan/rastercade/internal/core"
)

const halfBlock = '▀'

// Screen presents the engine output on a tcell terminal. The frame is
// resampled to the terminal size on every Update.
type Screen struct {
	cfg     core.Config
	term    gtcell.Screen
	img     *image.RGBA
	graphic *core.Graphic
	frames  atomic.Int64

	mu        sync.Mutex
	cols      int
	rows      int
	present   *image.RGBA
	row       [2][]core.Color
	source    core.Resolution
	listeners []core.KeyListener
}

// New wraps an initialized tcell screen. The terminal size is read at once;
// a zero size keeps the screen not ready until a resize event arrives.
func New(cfg core.Config, term gtcell.Screen) *Screen {
	img := core.NewImage(cfg.Output)
	s := &Screen{
		cfg:     cfg,
		term:    term,
		img:     img,
		graphic: core.NewGraphic(img),
	}
	s.resize(term.Size())
	return s
}

// Open initializes the controlling terminal and wraps it.
func Open(cfg core.Config) (*Screen, error) {
	term, err := gtcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("tcell: create screen: %w", err)
	}
	if err := term.Init(); err != nil {
		return nil, fmt.Errorf("tcell: init screen: %w", err)
	}
	term.HideCursor()
	term.Clear()
	return New(cfg, term), nil
}

// Close restores the terminal.
func (s *Screen) Close() {
	s.term.Fini()
}

func (s *Screen) resize(cols, rows int) {
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

// Update resamples the frame to the terminal and shows it.
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

	for y := 0; y < s.rows; y++ {
		s.row[0] = core.ReadRow(s.present, y*2, s.row[0])
		s.row[1] = core.ReadRow(s.present, y*2+1, s.row[1])
		for x := 0; x < s.cols; x++ {
			st := gtcell.StyleDefault.
				Foreground(toColor(s.row[0][x])).
				Background(toColor(s.row[1][x]))
			s.term.SetContent(x, y, halfBlock, nil, st)
		}
	}
	s.term.Show()
	s.frames.Add(1)
}

func toColor(c core.Color) gtcell.Color {
	return gtcell.NewRGBColor(int32(c>>16&0xFF), int32(c>>8&0xFF), int32(c&0xFF))
}

// Frames returns how many frames were shown.
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

func (s *Screen) ShowCursor() { s.term.ShowCursor(0, 0) }
func (s *Screen) HideCursor() { s.term.HideCursor() }

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

// HandleEvent applies one terminal event. It returns false when the user
// asked to quit.
func (s *Screen) HandleEvent(ev gtcell.Event) bool {
	switch ev := ev.(type) {
	case *gtcell.EventResize:
		s.resize(ev.Size())
		s.term.Sync()
	case *gtcell.EventKey:
		if ev.Key() == gtcell.KeyCtrlC || (ev.Key() == gtcell.KeyRune && ev.Rune() == 'q') {
			return false
		}
		s.dispatch(keyName(ev))
	}
	return true
}

// dispatch delivers k to every listener. Terminals report no releases,
// so the key is released right after it is pressed.
func (s *Screen) dispatch(k core.Key) {
	s.mu.Lock()
	ls := append([]core.KeyListener(nil), s.listeners...)
	s.mu.Unlock()
	for _, l := range ls {
		l.KeyPressed(k)
		l.KeyReleased(k)
	}
}

func keyName(ev *gtcell.EventKey) core.Key {
	switch ev.Key() {
	case gtcell.KeyUp:
		return core.KeyUp
	case gtcell.KeyDown:
		return core.KeyDown
	case gtcell.KeyLeft:
		return core.KeyLeft
	case gtcell.KeyRight:
		return core.KeyRight
	case gtcell.KeyEnter:
		return core.KeyEnter
	case gtcell.KeyEscape:
		return core.KeyEsc
	case gtcell.KeyRune:
		if ev.Rune() == ' ' {
			return core.KeySpace
		}
		return core.Key(strings.ToLower(string(ev.Rune())))
	}
	if name, ok := gtcell.KeyNames[ev.Key()]; ok {
		return core.Key(strings.ToLower(name))
	}
	return core.Key(strings.ToLower(ev.Name()))
}

// Listen polls terminal events until ctx is done, the terminal is closed
// or the user quits. onQuit is called for a quit request.
func (s *Screen) Listen(ctx context.Context, onQuit func()) {
	stop := context.AfterFunc(ctx, func() {
		_ = s.term.PostEvent(gtcell.NewEventInterrupt(nil))
	})
	defer stop()

	for {
		ev := s.term.PollEvent()
		if ev == nil {
			return
		}
		if _, ok := ev.(*gtcell.EventInterrupt); ok && ctx.Err() != nil {
			return
		}
		if !s.HandleEvent(ev) {
			if onQuit != nil {
				onQuit()
			}
			return
		}
	}
}

// PlayFunc runs the engine on screen until ctx is cancelled.
type PlayFunc func(ctx context.Context, screen core.Screen) error

// Run presents play on the controlling terminal. Pressing q or ctrl+c
// cancels play; Run returns once play has returned.
func Run(ctx context.Context, cfg core.Config, play PlayFunc) error {
	s, err := Open(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go s.Listen(ctx, cancel)

	return play(ctx, s)
}
