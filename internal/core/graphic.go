package core

import (
	"image"

	xdraw "golang.org/x/image/draw"
)

// Graphic is the drawing context handed to render callbacks.
// It wraps an RGBA surface and keeps a current fill color.
type Graphic struct {
	dst   *image.RGBA
	color Color
}

// NewGraphic creates a drawing context over dst.
func NewGraphic(dst *image.RGBA) *Graphic {
	Require(dst != nil, "core.NewGraphic", "nil surface")
	return &Graphic{dst: dst, color: ColorWhite}
}

// NewImage allocates an RGBA surface for the given resolution.
func NewImage(r Resolution) *image.RGBA {
	r.mustBeValid("core.NewImage")
	return image.NewRGBA(image.Rect(0, 0, r.Width, r.Height))
}

// Image returns the underlying surface.
func (g *Graphic) Image() *image.RGBA {
	return g.dst
}

// Width returns the surface width in pixels.
func (g *Graphic) Width() int {
	return g.dst.Bounds().Dx()
}

// Height returns the surface height in pixels.
func (g *Graphic) Height() int {
	return g.dst.Bounds().Dy()
}

// SetColor sets the color used by fill operations.
func (g *Graphic) SetColor(c Color) {
	g.color = c
}

// Color returns the current fill color.
func (g *Graphic) Color() Color {
	return g.color
}

// Clear fills the whole surface with c.
func (g *Graphic) Clear(c Color) {
	fill(g.dst, g.dst.Bounds(), c)
}

// FillRect fills a rectangle with the current color. The rectangle is clipped.
func (g *Graphic) FillRect(x, y, w, h int) {
	r := image.Rect(x, y, x+w, y+h).Intersect(g.dst.Bounds())
	fill(g.dst, r, g.color)
}

// SetPixel sets a single pixel to the current color. Out-of-bounds writes are ignored.
func (g *Graphic) SetPixel(x, y int) {
	if !(image.Point{X: x, Y: y}).In(g.dst.Bounds()) {
		return
	}
	SetPixel(g.dst, x, y, g.color)
}

// DrawImage copies src with its top-left corner at (x, y).
func (g *Graphic) DrawImage(src image.Image, x, y int) {
	sb := src.Bounds()
	xdraw.Copy(g.dst, image.Pt(x, y), src, sb, xdraw.Over, nil)
}

// DrawTransformed blits src at (x, y) through the transform, using bilinear
// sampling when the transform asks for interpolation.
func (g *Graphic) DrawTransformed(src image.Image, t Transform, x, y int) {
	sb := src.Bounds()
	if t.IsIdentity() {
		xdraw.Copy(g.dst, image.Pt(x, y), src, sb, xdraw.Src, nil)
		return
	}
	w, h := t.Apply(sb.Dx(), sb.Dy())
	dr := image.Rect(x, y, x+w, y+h)

	var scaler xdraw.Scaler = xdraw.NearestNeighbor
	if t.Interpolation {
		scaler = xdraw.ApproxBiLinear
	}
	scaler.Scale(g.dst, dr, src, sb, xdraw.Src, nil)
}

func fill(dst *image.RGBA, r image.Rectangle, c Color) {
	if r.Empty() {
		return
	}
	cr, cg, cb, ca := c.Components()
	for y := r.Min.Y; y < r.Max.Y; y++ {
		i := dst.PixOffset(r.Min.X, y)
		row := dst.Pix[i : i+4*r.Dx()]
		for j := 0; j < len(row); j += 4 {
			row[j], row[j+1], row[j+2], row[j+3] = cr, cg, cb, ca
		}
	}
}

// Sub returns a drawing context restricted to r, sharing pixels with g.
func (g *Graphic) Sub(r Rect) *Graphic {
	rect := r.Image().Intersect(g.dst.Bounds())
	return &Graphic{dst: g.dst.SubImage(rect).(*image.RGBA), color: g.color}
}
