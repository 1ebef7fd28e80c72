package filter

import (
	"image"

	"github.com/vovakirdan/rastercade/internal/core"
)

// ScaleX is the EPX/AdvMAME pixel-art upscaler family (Scale2x, Scale3x).
// It enlarges by an integer factor while keeping diagonal edges sharp.
type ScaleX struct {
	factor int
	row    [3][]core.Color
}

// NewScaleX creates a 2x or 3x upscaler.
func NewScaleX(factor int) *ScaleX {
	core.Require(factor == 2 || factor == 3, "filter.NewScaleX", "unsupported factor %d", factor)
	return &ScaleX{factor: factor}
}

func (f *ScaleX) Scale() int { return f.factor }

func (f *ScaleX) Transform(scaleX, scaleY float64) core.Transform {
	return core.Transform{ScaleX: scaleX, ScaleY: scaleY}
}

// Close drops the row cache.
func (f *ScaleX) Close() error {
	f.row = [3][]core.Color{}
	return nil
}

// Filter upscales src into dst, which must be factor times larger.
func (f *ScaleX) Filter(dst, src *image.RGBA) *image.RGBA {
	sb := src.Bounds()
	w, h := sb.Dx(), sb.Dy()
	core.Require(dst != nil && dst.Bounds().Dx() == w*f.factor && dst.Bounds().Dy() == h*f.factor,
		"filter.ScaleX.Filter", "destination must be %dx%d", w*f.factor, h*f.factor)

	for y := 0; y < h; y++ {
		up := f.read(0, src, sb.Min.Y+max(y-1, 0))
		mid := f.read(1, src, sb.Min.Y+y)
		down := f.read(2, src, sb.Min.Y+min(y+1, h-1))
		for x := 0; x < w; x++ {
			l, r := max(x-1, 0), min(x+1, w-1)
			if f.factor == 2 {
				scale2x(dst, x, y, up[x], mid[l], mid[x], mid[r], down[x])
			} else {
				scale3x(dst, x, y,
					up[l], up[x], up[r],
					mid[l], mid[x], mid[r],
					down[l], down[x], down[r])
			}
		}
	}
	return dst
}

func (f *ScaleX) read(slot int, src *image.RGBA, y int) []core.Color {
	f.row[slot] = core.ReadRow(src, y, f.row[slot])
	return f.row[slot]
}

// scale2x expands pixel e with neighbours b (up), d (left), f (right), h (down).
func scale2x(dst *image.RGBA, x, y int, b, d, e, f, h core.Color) {
	e0, e1, e2, e3 := e, e, e, e
	if b != h && d != f {
		if d == b {
			e0 = d
		}
		if b == f {
			e1 = f
		}
		if d == h {
			e2 = d
		}
		if h == f {
			e3 = f
		}
	}
	dx, dy := x*2, y*2
	core.SetPixel(dst, dx, dy, e0)
	core.SetPixel(dst, dx+1, dy, e1)
	core.SetPixel(dst, dx, dy+1, e2)
	core.SetPixel(dst, dx+1, dy+1, e3)
}

// scale3x expands pixel e using its full 3x3 neighbourhood.
func scale3x(dst *image.RGBA, x, y int, a, b, c, d, e, f, g, h, i core.Color) {
	out := [9]core.Color{e, e, e, e, e, e, e, e, e}
	if b != h && d != f {
		if d == b {
			out[0] = d
		}
		if (d == b && e != c) || (b == f && e != a) {
			out[1] = b
		}
		if b == f {
			out[2] = f
		}
		if (d == b && e != g) || (d == h && e != a) {
			out[3] = d
		}
		if (b == f && e != i) || (h == f && e != c) {
			out[5] = f
		}
		if d == h {
			out[6] = d
		}
		if (d == h && e != i) || (h == f && e != g) {
			out[7] = h
		}
		if h == f {
			out[8] = f
		}
	}
	dx, dy := x*3, y*3
	for k, px := range out {
		core.SetPixel(dst, dx+k%3, dy+k/3, px)
	}
}
