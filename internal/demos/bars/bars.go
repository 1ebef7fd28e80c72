// Package bars is the raster bar demo: three bands drawn in key colors are
// repainted row by row with scrolling copper gradients.
package bars

import (
	"image"
	"math"

	"github.com/vovakirdan/rastercade/internal/core"
	"github.com/vovakirdan/rastercade/internal/demos/demo"
	"github.com/vovakirdan/rastercade/internal/registry"
	"github.com/vovakirdan/rastercade/internal/sequence"
)

// ID is the registry identifier.
const ID = "bars"

// Source is the resolution the bars are drawn at.
var Source = core.NewResolution(320, 240, 60)

// Key colors of the bands. They never appear in the gradients.
var Keys = []core.Color{
	core.RGB(1, 0, 0),
	core.RGB(0, 1, 0),
	core.RGB(0, 0, 1),
}

const (
	bandHeight = 24
	// scroll speed in rows per update at 60Hz
	scrollSpeed = 1.5
)

// Scene draws the bands and scrolls the raster bar offset.
type Scene struct {
	demo.Base
	phase  float64
	scroll float64
}

// New creates the bars sequence.
func New(ctx *sequence.Context, args sequence.Args) (sequence.Sequencable, error) {
	return demo.Create(ctx, ID, Source, &Scene{}, args)
}

// Palette builds a gradient palette for key. It has one row per screen row
// twice over, so any offset below the height stays inside the gradient.
func Palette(key core.Color, height int, hue float64) *image.RGBA {
	p := image.NewRGBA(image.Rect(0, 0, 1, 2*height+1))
	core.SetPixel(p, 0, 0, key)
	for y := 1; y <= 2*height; y++ {
		t := float64(y) / 32 * math.Pi
		v := 0.5 + 0.5*math.Sin(t)
		core.SetPixel(p, 0, y, gradient(hue, v))
	}
	return p
}

// gradient returns a copper-like color of brightness v for hue in [0, 3).
func gradient(hue, v float64) core.Color {
	ch := func(phase float64) uint8 {
		c := 0.5 + 0.5*math.Cos((hue+phase)*2*math.Pi/3)
		// keep clear of the key colors
		return uint8(16 + core.Clamp(c*v*239, 0, 239))
	}
	return core.RGB(ch(0), ch(1), ch(2))
}

func (s *Scene) Load() error {
	h := s.Seq.Resolution().Height
	for i, k := range Keys {
		s.Seq.AddRasterbarColor(Palette(k, h, float64(i)))
	}
	return nil
}

func (s *Scene) Update(extrp float64) {
	defer s.Keys.Clear()
	if s.Tick() {
		s.Finish()
		return
	}
	s.phase += 0.03 * extrp
	h := float64(s.Seq.Resolution().Height)
	s.scroll = math.Mod(s.scroll+scrollSpeed*extrp, h)
	s.Seq.SetRasterbarOffset(int(s.scroll), 1)
}

// BandY returns the top row of band i.
func (s *Scene) BandY(i, height int) int {
	center := float64(height-bandHeight) / 2
	amp := center * 0.8
	return int(center + amp*math.Sin(s.phase+float64(i)*2*math.Pi/float64(len(Keys))))
}

func (s *Scene) Render(g *core.Graphic) {
	g.Clear(core.ColorBlack)
	for i, k := range Keys {
		g.SetColor(k)
		g.FillRect(0, s.BandY(i, g.Height()), g.Width(), bandHeight)
	}
	s.Seq.RenderRasterbar()
}

func init() {
	registry.Register(registry.Info{
		ID:          ID,
		Title:       "Raster bars",
		Description: "Copper bars recolored per scanline",
	}, New)
}
