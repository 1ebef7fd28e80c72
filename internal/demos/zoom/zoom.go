// Package zoom is the zoom and time demo. The source resolution breathes
// between a low and a high zoom while the arrow keys change the time
// factor of the loop.
package zoom

import (
	"math"

	"github.com/vovakirdan/rastercade/internal/core"
	"github.com/vovakirdan/rastercade/internal/demos/demo"
	"github.com/vovakirdan/rastercade/internal/registry"
	"github.com/vovakirdan/rastercade/internal/sequence"
)

// ID is the registry identifier.
const ID = "zoom"

// Source is the resolution at zoom 1.
var Source = core.NewResolution(160, 120, 60)

const (
	tile = 8
	// updates between two zoom changes
	zoomPeriod = 30
	timeStep   = 0.25
)

// Zooms is the sequence of zoom factors the demo steps through.
var Zooms = []float64{1, 1.5, 2, 1.5, 1, 0.5}

var (
	light = core.RGB(220, 220, 200)
	dark  = core.RGB(40, 40, 60)
)

// Scene draws a checkerboard at the current source resolution.
type Scene struct {
	demo.Base
	step   int
	scroll float64
}

// New creates the zoom sequence.
func New(ctx *sequence.Context, args sequence.Args) (sequence.Sequencable, error) {
	return demo.Create(ctx, ID, Source, &Scene{}, args)
}

func (s *Scene) Load() error { return nil }

func (s *Scene) Update(extrp float64) {
	defer s.Keys.Clear()
	if s.Tick() {
		s.Finish()
		return
	}

	switch {
	case s.Keys.JustPressed(core.KeyUp):
		s.Seq.SetTime(s.Seq.Time() + timeStep)
	case s.Keys.JustPressed(core.KeyDown):
		s.Seq.SetTime(s.Seq.Time() - timeStep)
	}

	if s.Updates()%zoomPeriod == 0 {
		s.step = (s.step + 1) % len(Zooms)
		s.Seq.SetZoom(Zooms[s.step])
	}
	s.scroll = math.Mod(s.scroll+0.5*extrp, 2*tile)
}

func (s *Scene) Render(g *core.Graphic) {
	off := int(s.scroll)
	for y := -2 * tile; y < g.Height(); y += tile {
		for x := -2 * tile; x < g.Width(); x += tile {
			if ((x+y)/tile)%2 == 0 {
				g.SetColor(light)
			} else {
				g.SetColor(dark)
			}
			g.FillRect(x+off, y+off, tile, tile)
		}
	}
}

func init() {
	registry.Register(registry.Info{
		ID:          ID,
		Title:       "Zoom",
		Description: "Source zoom steps, up/down change the time factor",
	}, New)
}
