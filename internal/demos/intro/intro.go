// Package intro is a short title sequence chaining to the next demo. The
// successor is preloaded halfway through so the switch does not stall.
package intro

import (
	"maps"

	"github.com/vovakirdan/rastercade/internal/core"
	"github.com/vovakirdan/rastercade/internal/demos/demo"
	"github.com/vovakirdan/rastercade/internal/registry"
	"github.com/vovakirdan/rastercade/internal/sequence"
)

// ID is the registry identifier.
const ID = "intro"

// DefaultNext is the sequence the intro continues with.
const DefaultNext = "bars"

// DefaultDuration is the intro length in updates.
const DefaultDuration = 90

var (
	Source = core.NewResolution(320, 240, 60)
	fadeTo = core.RGB(24, 32, 96)
)

// Scene fades in and draws a progress bar.
type Scene struct {
	demo.Base
	duration int
	elapsed  int
}

// New creates the intro sequence. The duration parameter sets its length
// in updates, next its successor (empty string to stop after the intro).
func New(ctx *sequence.Context, args sequence.Args) (sequence.Sequencable, error) {
	params := maps.Clone(args.Params)
	if params == nil {
		params = make(map[string]string)
	}
	if _, ok := params["next"]; !ok {
		params["next"] = DefaultNext
	}
	args.Params = params

	s := &Scene{}
	seq, err := demo.Create(ctx, ID, Source, s, args)
	if err != nil {
		return nil, err
	}
	s.duration = max(2, s.Param("duration", DefaultDuration))
	return seq, nil
}

func (s *Scene) Load() error { return nil }

func (s *Scene) Update(float64) {
	defer s.Keys.Clear()
	if s.Tick() || s.Keys.JustPressed(core.KeyEnter) || s.Keys.JustPressed(core.KeySpace) {
		s.finish()
		return
	}

	s.elapsed++
	if s.elapsed == s.duration/2 {
		s.preload()
	}
	if s.elapsed >= s.duration {
		s.finish()
	}
}

func (s *Scene) preload() {
	next := s.Args.Param("next", "")
	if next == "" {
		return
	}
	args := sequence.Args{Seed: s.Args.Seed, Level: s.Args.Level}
	if err := s.Seq.LoadNext(next, args); err != nil {
		s.Seq.Logger().Warn("preload failed", "next", next, "error", err)
	}
}

func (s *Scene) finish() {
	if next := s.Seq.NextSequence(); next != nil {
		s.Seq.EndTo(next)
		return
	}
	s.Finish()
}

// Progress returns how far the intro is, from 0 to 1.
func (s *Scene) Progress() float64 {
	return core.Clamp(float64(s.elapsed)/float64(s.duration), 0, 1)
}

func (s *Scene) Render(g *core.Graphic) {
	p := s.Progress()
	g.Clear(fadeTo.Scale(p))

	w, h := g.Width(), g.Height()
	barW := w * 3 / 4
	x, y := (w-barW)/2, h*3/4
	g.SetColor(core.RGB(64, 64, 64))
	g.FillRect(x, y, barW, 4)
	g.SetColor(core.ColorWhite)
	g.FillRect(x, y, int(float64(barW)*p), 4)
}

func init() {
	registry.Register(registry.Info{
		ID:          ID,
		Title:       "Intro",
		Description: "Title fade chaining to the raster bars",
	}, New)
}
