// Package filter provides the screen-space stages of the render pipeline:
// filters applied to the rendered source image before it is blitted, and
// scanline passes applied to the output surface afterwards.
package filter

import (
	"fmt"
	"image"
	"strings"

	"github.com/vovakirdan/rastercade/internal/core"
)

// Filter transforms a rendered source image before it reaches the screen.
type Filter interface {
	// Filter processes src. Filters with Scale() > 1 write into dst, which
	// the caller allocates at the scaled size, and return it. Other filters
	// may ignore dst and return src.
	Filter(dst, src *image.RGBA) *image.RGBA

	// Scale is the internal upscale factor of the filter (1 for none).
	Scale() int

	// Transform returns the output transform for the given scale factors.
	Transform(scaleX, scaleY float64) core.Transform

	// Close releases resources held by the filter.
	Close() error
}

// Filter names accepted by New.
const (
	NameNone     = "none"
	NameBilinear = "bilinear"
	NameScale2x  = "scale2x"
	NameScale3x  = "scale3x"
)

// Names lists every filter name.
func Names() []string {
	return []string{NameNone, NameBilinear, NameScale2x, NameScale3x}
}

// New creates a filter by name. An empty name selects the identity filter.
func New(name string) (Filter, error) {
	switch strings.ToLower(name) {
	case NameNone, "":
		return None{}, nil
	case NameBilinear:
		return Bilinear{}, nil
	case NameScale2x:
		return NewScaleX(2), nil
	case NameScale3x:
		return NewScaleX(3), nil
	default:
		return nil, fmt.Errorf("filter: unknown filter %q", name)
	}
}

// None passes the image through and blits it with nearest neighbour sampling.
type None struct{}

func (None) Filter(_, src *image.RGBA) *image.RGBA { return src }
func (None) Scale() int                            { return 1 }
func (None) Close() error                          { return nil }

func (None) Transform(scaleX, scaleY float64) core.Transform {
	return core.Transform{ScaleX: scaleX, ScaleY: scaleY}
}

// Bilinear passes the image through and asks for interpolated blits.
type Bilinear struct{}

func (Bilinear) Filter(_, src *image.RGBA) *image.RGBA { return src }
func (Bilinear) Scale() int                            { return 1 }
func (Bilinear) Close() error                          { return nil }

func (Bilinear) Transform(scaleX, scaleY float64) core.Transform {
	return core.Transform{ScaleX: scaleX, ScaleY: scaleY, Interpolation: true}
}
