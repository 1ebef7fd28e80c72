package sequence

import "github.com/vovakirdan/rastercade/internal/core"

// Split is a split screen layout.
type Split int

const (
	// SplitNone renders a single full screen viewport.
	SplitNone Split = iota
	// SplitTwoHorizontal places two viewports side by side.
	SplitTwoHorizontal
	// SplitTwoVertical stacks two viewports.
	SplitTwoVertical
	// SplitFour uses the four screen quadrants.
	SplitFour
)

// String returns a human-readable name for the layout.
func (s Split) String() string {
	switch s {
	case SplitNone:
		return "None"
	case SplitTwoHorizontal:
		return "TwoHorizontal"
	case SplitTwoVertical:
		return "TwoVertical"
	case SplitFour:
		return "Four"
	default:
		return "Unknown"
	}
}

// Count returns how many viewports the layout has.
func (s Split) Count() int {
	switch s {
	case SplitTwoHorizontal, SplitTwoVertical:
		return 2
	case SplitFour:
		return 4
	default:
		return 1
	}
}

// Divisors returns the horizontal and vertical split factors.
func (s Split) Divisors() (dx, dy int) {
	switch s {
	case SplitTwoHorizontal:
		return 2, 1
	case SplitTwoVertical:
		return 1, 2
	case SplitFour:
		return 2, 2
	default:
		return 1, 1
	}
}

// Viewport returns the screen area of viewport index for an output resolution.
// Viewports are numbered left to right, then top to bottom.
func (s Split) Viewport(output core.Resolution, index int) core.Rect {
	dx, dy := s.Divisors()
	w, h := output.Width/dx, output.Height/dy
	col, row := index%dx, index/dx
	return core.NewRect(col*w, row*h, w, h)
}
