package tui

import (
	"fmt"
	"image"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/rastercade/internal/core"
)

// halfBlock draws the upper pixel with the foreground color and the lower
// one with the background color.
const halfBlock = "▀"

type cellColors struct {
	upper, lower core.Color
}

// styleCache maps color pairs to lipgloss styles. Frames rarely use more
// than a few hundred distinct pairs.
type styleCache map[cellColors]lipgloss.Style

func (c styleCache) get(cc cellColors) lipgloss.Style {
	if st, ok := c[cc]; ok {
		return st
	}
	st := lipgloss.NewStyle().
		Foreground(lipgloss.Color(hex(cc.upper))).
		Background(lipgloss.Color(hex(cc.lower)))
	c[cc] = st
	return st
}

func hex(c core.Color) string {
	return fmt.Sprintf("#%06x", uint32(c)&core.RGBMask)
}

// renderHalfBlocks converts an image to terminal lines, two pixel rows per
// line. Groups adjacent cells with the same colors to minimize ANSI escape
// sequences. An odd last row is paired with black.
func renderHalfBlocks(img *image.RGBA, styles styleCache) string {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	var sb strings.Builder
	sb.Grow(w*h + h)

	var upper, lower []core.Color
	for y := 0; y < h; y += 2 {
		if y > 0 {
			sb.WriteRune('\n')
		}
		upper = core.ReadRow(img, b.Min.Y+y, upper)
		if y+1 < h {
			lower = core.ReadRow(img, b.Min.Y+y+1, lower)
		} else {
			lower = lower[:0]
			for range upper {
				lower = append(lower, core.ColorBlack)
			}
		}

		x := 0
		for x < w {
			start := cellColors{upper[x] & core.RGBMask, lower[x] & core.RGBMask}
			n := 0
			for x < w && (cellColors{upper[x] & core.RGBMask, lower[x] & core.RGBMask}) == start {
				n++
				x++
			}
			sb.WriteString(styles.get(start).Render(strings.Repeat(halfBlock, n)))
		}
	}
	return sb.String()
}
