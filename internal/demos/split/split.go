// Package split is the split screen demo: one scene rendered into several
// viewports, each with its own renderer.
package split

import (
	"fmt"
	"strings"

	"github.com/vovakirdan/rastercade/internal/core"
	"github.com/vovakirdan/rastercade/internal/demos/demo"
	"github.com/vovakirdan/rastercade/internal/registry"
	"github.com/vovakirdan/rastercade/internal/sequence"
)

// ID is the registry identifier.
const ID = "split"

// Source is the resolution of every viewport.
var Source = core.NewResolution(160, 120, 60)

// Backgrounds of the viewports, in viewport order.
var Backgrounds = []core.Color{
	core.RGB(96, 16, 16),
	core.RGB(16, 96, 16),
	core.RGB(16, 16, 96),
	core.RGB(96, 96, 16),
}

const boxSize = 16

// Layouts maps the layout parameter to split layouts.
var Layouts = map[string]sequence.Split{
	"horizontal": sequence.SplitTwoHorizontal,
	"vertical":   sequence.SplitTwoVertical,
	"four":       sequence.SplitFour,
}

// cycle is the order space switches layouts in.
var cycle = []sequence.Split{sequence.SplitFour, sequence.SplitTwoHorizontal, sequence.SplitTwoVertical}

type box struct {
	x, y   float64
	vx, vy float64
}

func (b *box) move(w, h, extrp float64) {
	b.x += b.vx * extrp
	b.y += b.vy * extrp
	if b.x < 0 || b.x > w-boxSize {
		b.vx = -b.vx
		b.x = core.Clamp(b.x, 0, w-boxSize)
	}
	if b.y < 0 || b.y > h-boxSize {
		b.vy = -b.vy
		b.y = core.Clamp(b.y, 0, h-boxSize)
	}
}

// Scene animates one box per viewport.
type Scene struct {
	demo.Base
	layout sequence.Split
	boxes  [4]box
}

// New creates the split sequence. The layout parameter picks the initial
// layout (four, horizontal, vertical).
func New(ctx *sequence.Context, args sequence.Args) (sequence.Sequencable, error) {
	name := strings.ToLower(args.Param("layout", "four"))
	layout, ok := Layouts[name]
	if !ok {
		return nil, fmt.Errorf("split: unknown layout %q", name)
	}
	s := &Scene{layout: layout}
	for i := range s.boxes {
		s.boxes[i] = box{
			x: float64(10 + i*20), y: float64(10 + i*15),
			vx: 1 + float64(i)*0.5, vy: 1.5 - float64(i)*0.25,
		}
	}
	return demo.Create(ctx, ID, Source, s, args)
}

// viewport returns the renderable of viewport i.
func (s *Scene) viewport(i int) sequence.Renderable {
	return func(g *core.Graphic) {
		g.Clear(Backgrounds[i])
		g.SetColor(core.ColorWhite)
		b := s.boxes[i]
		g.FillRect(int(b.x), int(b.y), boxSize, boxSize)
	}
}

func (s *Scene) apply(layout sequence.Split) error {
	fns := make([]sequence.Renderable, layout.Count())
	for i := range fns {
		fns[i] = s.viewport(i)
	}
	if layout != sequence.SplitNone {
		s.Seq.SetDirect(false)
	}
	if err := s.Seq.SetSplit(layout, fns...); err != nil {
		return err
	}
	s.layout = layout
	return nil
}

func (s *Scene) Load() error {
	return s.apply(s.layout)
}

func (s *Scene) Update(extrp float64) {
	defer s.Keys.Clear()
	if s.Tick() {
		s.Finish()
		return
	}
	if s.Keys.JustPressed(core.KeySpace) {
		next := cycle[0]
		for i, l := range cycle {
			if l == s.layout {
				next = cycle[(i+1)%len(cycle)]
			}
		}
		if err := s.apply(next); err != nil {
			s.Seq.Logger().Error("cannot switch layout", "error", err)
		}
	}
	res := s.Seq.Resolution()
	for i := range s.boxes {
		s.boxes[i].move(float64(res.Width), float64(res.Height), extrp)
	}
}

// Render is unused: every viewport has its own renderable.
func (s *Scene) Render(*core.Graphic) {}

func init() {
	registry.Register(registry.Info{
		ID:          ID,
		Title:       "Split screen",
		Description: "Four viewports, space switches layouts",
	}, New)
}
