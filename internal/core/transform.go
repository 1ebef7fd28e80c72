package core

// Transform describes how a rendered image is placed on the output surface.
type Transform struct {
	ScaleX        float64
	ScaleY        float64
	Interpolation bool // Bilinear sampling when true, nearest neighbour otherwise
}

// Identity returns the transform that blits pixels one to one.
func Identity() Transform {
	return Transform{ScaleX: 1, ScaleY: 1}
}

// IsIdentity reports whether the transform leaves pixel sizes unchanged.
func (t Transform) IsIdentity() bool {
	return t.ScaleX == 1 && t.ScaleY == 1
}

// Apply returns the size of a w x h image once the transform is applied.
func (t Transform) Apply(w, h int) (int, int) {
	return roundPositive(float64(w) * t.ScaleX), roundPositive(float64(h) * t.ScaleY)
}

func roundPositive(v float64) int {
	n := int(v + 0.5)
	if n < 1 {
		return 1
	}
	return n
}
