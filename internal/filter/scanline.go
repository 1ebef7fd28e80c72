package filter

import (
	"fmt"
	"strings"

	"github.com/vovakirdan/rastercade/internal/core"
)

// Scanline is a post-process pass over the output surface emulating a CRT.
type Scanline interface {
	// Prepare is called whenever the display configuration is (re)applied.
	Prepare(cfg core.Config)

	// Render darkens or tints g in place.
	Render(g *core.Graphic)
}

// Scanline names accepted by NewScanline.
const (
	ScanlineNone       = "none"
	ScanlineHorizontal = "horizontal"
	ScanlineRGB        = "rgb"
)

// ScanlineNames lists every scanline name.
func ScanlineNames() []string {
	return []string{ScanlineNone, ScanlineHorizontal, ScanlineRGB}
}

// NewScanline creates a scanline pass by name. An empty name disables it.
func NewScanline(name string) (Scanline, error) {
	switch strings.ToLower(name) {
	case ScanlineNone, "":
		return NoScanline{}, nil
	case ScanlineHorizontal:
		return NewHorizontal(0.6), nil
	case ScanlineRGB:
		return &RGBMask{}, nil
	default:
		return nil, fmt.Errorf("filter: unknown scanline %q", name)
	}
}

// NoScanline does nothing.
type NoScanline struct{}

func (NoScanline) Prepare(core.Config)  {}
func (NoScanline) Render(*core.Graphic) {}

// Horizontal darkens every other row of the output.
type Horizontal struct {
	intensity float64
	period    int
}

// NewHorizontal creates a horizontal scanline pass keeping intensity of the
// brightness on darkened rows.
func NewHorizontal(intensity float64) *Horizontal {
	return &Horizontal{intensity: core.Clamp(intensity, 0, 1), period: 2}
}

// Prepare widens the line period on tall outputs so lines stay visible.
func (s *Horizontal) Prepare(cfg core.Config) {
	s.period = 2
	if cfg.Output.Height >= 960 {
		s.period = 3
	}
}

func (s *Horizontal) Render(g *core.Graphic) {
	img := g.Image()
	b := img.Bounds()
	for y := b.Min.Y + s.period - 1; y < b.Max.Y; y += s.period {
		for x := b.Min.X; x < b.Max.X; x++ {
			core.SetPixel(img, x, y, core.PixelAt(img, x, y).Scale(s.intensity))
		}
	}
}

// RGBMask emulates an aperture grille by attenuating two of the three
// channels on each column in turn.
type RGBMask struct {
	attenuation float64
}

func (s *RGBMask) Prepare(cfg core.Config) {
	s.attenuation = 0.7
	if cfg.Output.Width < 640 {
		s.attenuation = 0.85
	}
}

func (s *RGBMask) Render(g *core.Graphic) {
	img := g.Image()
	b := img.Bounds()
	a := s.attenuation
	if a == 0 {
		a = 0.7
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, gr, bl, al := core.PixelAt(img, x, y).Components()
			switch (x - b.Min.X) % 3 {
			case 0:
				gr, bl = attenuate(gr, a), attenuate(bl, a)
			case 1:
				r, bl = attenuate(r, a), attenuate(bl, a)
			default:
				r, gr = attenuate(r, a), attenuate(gr, a)
			}
			core.SetPixel(img, x, y, core.Color(al)<<24|core.Color(r)<<16|core.Color(gr)<<8|core.Color(bl))
		}
	}
}

func attenuate(v uint8, f float64) uint8 {
	return uint8(float64(v) * f)
}
