package sequence

import (
	"image"

	"github.com/vovakirdan/rastercade/internal/core"
	"github.com/vovakirdan/rastercade/internal/cuckoo"
)

// rasterbar recolors pixels whose color is a registered key with a color
// chosen by screen row, producing horizontal color gradients.
type rasterbar struct {
	colors  *cuckoo.IntMap[[]core.Color]
	offsetY int
	factorY int
	y1      int
	marginY int
	row     []core.Color
}

func newRasterbar() *rasterbar {
	return &rasterbar{
		colors:  cuckoo.New[[]core.Color](),
		factorY: 1,
	}
}

// add registers every column of palette. The first pixel of a column is the
// key color, the column itself the per-row replacement table.
func (r *rasterbar) add(palette *image.RGBA) {
	core.Require(palette != nil, "sequence.AddRasterbarColor", "nil palette")
	b := palette.Bounds()
	core.Require(b.Dy() > 0 && b.Dx() > 0, "sequence.AddRasterbarColor", "empty palette")

	for x := b.Min.X; x < b.Max.X; x++ {
		table := make([]core.Color, b.Dy())
		for y := range table {
			table[y] = core.PixelAt(palette, x, b.Min.Y+y)
		}
		r.colors.Put(table[0].Key(), table)
	}
}

func (r *rasterbar) clear() {
	r.colors.Clear()
}

func (r *rasterbar) setOffset(offsetY, factorY int) {
	core.Require(factorY > 0, "sequence.SetRasterbarOffset", "factor must be positive, got %d", factorY)
	r.offsetY = offsetY
	r.factorY = factorY
}

func (r *rasterbar) setY(y1, y2 int) {
	r.y1 = y1
	r.marginY = y2
}

// index returns the table entry used on the row rowFromBottom rows above the
// bottom edge of the surface.
func (r *rasterbar) index(rowFromBottom, size int) int {
	if size == 1 || rowFromBottom < r.marginY {
		return 0
	}
	return core.Clamp((r.y1+rowFromBottom+r.offsetY)/r.factorY, 1, size-1)
}

// render recolors img in place.
func (r *rasterbar) render(img *image.RGBA) {
	if r.colors.Len() == 0 {
		return
	}
	b := img.Bounds()
	h := b.Dy()
	for y := 0; y < h; y++ {
		r.row = core.ReadRow(img, b.Min.Y+y, r.row)
		rowFromBottom := h - 1 - y
		changed := false
		for x, c := range r.row {
			table, ok := r.colors.Get(c.Key())
			if !ok {
				continue
			}
			r.row[x] = table[r.index(rowFromBottom, len(table))]
			changed = true
		}
		if changed {
			core.WriteRow(img, b.Min.Y+y, r.row)
		}
	}
}
