package core

import (
	"fmt"
	"math"
)

// MaxRate is the highest refresh rate a Resolution accepts.
const MaxRate = 10000

// Resolution describes a surface size and its refresh rate.
// A Rate of zero means uncapped or unknown; scheduling code treats it as a
// sentinel rather than dividing by it.
//
// Resolution is a value type: scaling and rate changes return a new value.
type Resolution struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	Rate   int `yaml:"rate"`
}

// NewResolution creates a resolution, panicking on non-positive dimensions
// or a rate outside 0..MaxRate.
func NewResolution(width, height, rate int) Resolution {
	r := Resolution{Width: width, Height: height, Rate: rate}
	r.mustBeValid("core.NewResolution")
	return r
}

// Validate returns an error when the resolution cannot be used as a surface size.
func (r Resolution) Validate() error {
	if r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("core: invalid resolution size %dx%d", r.Width, r.Height)
	}
	if r.Rate < 0 || r.Rate > MaxRate {
		return fmt.Errorf("core: invalid resolution rate %d", r.Rate)
	}
	return nil
}

func (r Resolution) mustBeValid(op string) {
	if err := r.Validate(); err != nil {
		panic(&PreconditionError{Op: op, Msg: err.Error()})
	}
}

// Scaled returns the resolution with both dimensions multiplied by factor.
// Dimensions never drop below one pixel. The rate is kept.
func (r Resolution) Scaled(factor float64) Resolution {
	return r.ScaledXY(factor, factor)
}

// ScaledXY returns the resolution with independent horizontal and vertical factors.
func (r Resolution) ScaledXY(fx, fy float64) Resolution {
	Require(fx > 0 && fy > 0 && !math.IsInf(fx, 0) && !math.IsInf(fy, 0),
		"core.Resolution.Scaled", "invalid factors %v, %v", fx, fy)
	return Resolution{
		Width:  max(1, int(math.Round(float64(r.Width)*fx))),
		Height: max(1, int(math.Round(float64(r.Height)*fy))),
		Rate:   r.Rate,
	}
}

// WithRate returns a copy of the resolution running at another rate.
func (r Resolution) WithRate(rate int) Resolution {
	Require(rate >= 0, "core.Resolution.WithRate", "negative rate %d", rate)
	r.Rate = rate
	return r
}

// Ratio returns width divided by height.
func (r Resolution) Ratio() float64 {
	return float64(r.Width) / float64(r.Height)
}

// Pixels returns the number of pixels on the surface.
func (r Resolution) Pixels() int {
	return r.Width * r.Height
}

func (r Resolution) String() string {
	if r.Rate == 0 {
		return fmt.Sprintf("%dx%d", r.Width, r.Height)
	}
	return fmt.Sprintf("%dx%d@%d", r.Width, r.Height, r.Rate)
}
