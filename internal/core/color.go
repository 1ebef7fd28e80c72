package core

import (
	"image"
	"image/color"
)

// Color is a packed 0xAARRGGBB pixel value.
type Color uint32

// RGBMask strips the alpha channel from a packed color.
const RGBMask = 0x00FFFFFF

// Predefined colors used by scenes and tests.
const (
	ColorBlack Color = 0xFF000000
	ColorWhite Color = 0xFFFFFFFF
	ColorRed   Color = 0xFFFF0000
	ColorGreen Color = 0xFF00FF00
	ColorBlue  Color = 0xFF0000FF
)

// RGB returns an opaque color from its components.
func RGB(r, g, b uint8) Color {
	return 0xFF000000 | Color(r)<<16 | Color(g)<<8 | Color(b)
}

// Key returns the 24-bit color with alpha removed. Raster lookups key on it.
func (c Color) Key() int {
	return int(c & RGBMask)
}

// Components returns the red, green, blue and alpha channels.
func (c Color) Components() (r, g, b, a uint8) {
	return uint8(c >> 16), uint8(c >> 8), uint8(c), uint8(c >> 24)
}

// ToRGBA converts the packed color to an image/color value.
func (c Color) ToRGBA() color.RGBA {
	r, g, b, a := c.Components()
	return color.RGBA{R: r, G: g, B: b, A: a}
}

// Scale multiplies the color channels by f (alpha untouched).
func (c Color) Scale(f float64) Color {
	r, g, b, a := c.Components()
	return Color(a)<<24 | Color(scaleChannel(r, f))<<16 | Color(scaleChannel(g, f))<<8 | Color(scaleChannel(b, f))
}

func scaleChannel(v uint8, f float64) uint8 {
	return uint8(Clamp(float64(v)*f, 0, 255))
}

// PixelAt reads the packed color at (x, y) of an RGBA image.
func PixelAt(img *image.RGBA, x, y int) Color {
	i := img.PixOffset(x, y)
	p := img.Pix[i : i+4 : i+4]
	return Color(p[3])<<24 | Color(p[0])<<16 | Color(p[1])<<8 | Color(p[2])
}

// SetPixel writes a packed color at (x, y) of an RGBA image.
func SetPixel(img *image.RGBA, x, y int, c Color) {
	i := img.PixOffset(x, y)
	p := img.Pix[i : i+4 : i+4]
	p[0], p[1], p[2], p[3] = uint8(c>>16), uint8(c>>8), uint8(c), uint8(c>>24)
}

// ReadRow copies row y of img into dst, growing it when needed, and returns it.
func ReadRow(img *image.RGBA, y int, dst []Color) []Color {
	b := img.Bounds()
	w := b.Dx()
	if cap(dst) < w {
		dst = make([]Color, w)
	}
	dst = dst[:w]
	for x := 0; x < w; x++ {
		dst[x] = PixelAt(img, b.Min.X+x, y)
	}
	return dst
}

// WriteRow copies src back into row y of img.
func WriteRow(img *image.RGBA, y int, src []Color) {
	minX := img.Bounds().Min.X
	for x, c := range src {
		SetPixel(img, minX+x, y, c)
	}
}
