package sequence

import (
	"image"
	"io"
	"math"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/rastercade/internal/core"
	"github.com/vovakirdan/rastercade/internal/filter"
)

// Renderable draws one frame of a scene at source resolution.
type Renderable func(g *core.Graphic)

type pipeline int

const (
	pipelineDirect pipeline = iota
	pipelineBuffered
	pipelineScaled
)

// ratioTolerance is how close two aspect ratios must be to count as equal.
const ratioTolerance = 1e-3

// Renderer renders a scene into an intermediate buffer at source resolution,
// runs it through a filter and blits it to its viewport of the screen.
type Renderer struct {
	cfg    core.Config
	logger *log.Logger
	render Renderable
	screen core.Screen

	split    Split
	index    int
	viewport core.Rect

	source      core.Resolution
	initialized bool
	pipeline    pipeline
	direct      bool
	filter      filter.Filter
	scanline    filter.Scanline

	buf       *image.RGBA
	graphic   *core.Graphic
	scaled    *image.RGBA
	transform core.Transform
	area      core.Rect // where the transformed buffer lands

	target *core.Graphic
	raster *rasterbar
}

// NewRenderer creates a full screen renderer for a display configuration.
func NewRenderer(cfg core.Config, logger *log.Logger, render Renderable) *Renderer {
	core.Require(render != nil, "sequence.NewRenderer", "nil renderable")
	if logger == nil {
		logger = log.New(io.Discard)
	}
	r := &Renderer{
		cfg:      cfg,
		logger:   logger,
		render:   render,
		filter:   filter.None{},
		scanline: filter.NoScanline{},
		raster:   newRasterbar(),
	}
	r.viewport = r.split.Viewport(cfg.Output, 0)
	return r
}

// SetScreen attaches the output screen. Render requires one.
func (r *Renderer) SetScreen(screen core.Screen) {
	r.screen = screen
}

// SetLocation places the renderer on viewport index of a split layout.
func (r *Renderer) SetLocation(split Split, index int) {
	core.Require(index >= 0 && index < split.Count(), "sequence.SetLocation",
		"viewport %d out of range for %s", index, split)
	r.split = split
	r.index = index
	r.viewport = split.Viewport(r.cfg.Output, index)
	if r.initialized {
		r.InitResolution(r.source)
	}
}

// InitResolution sizes the intermediate buffers for source and computes the
// transform mapping them onto the viewport.
func (r *Renderer) InitResolution(source core.Resolution) {
	if err := source.Validate(); err != nil {
		panic(&core.PreconditionError{Op: "sequence.InitResolution", Msg: err.Error()})
	}
	r.source = source
	r.initialized = true
	r.viewport = r.split.Viewport(r.cfg.Output, r.index)
	r.area = r.viewport

	if r.direct {
		r.pipeline = pipelineDirect
		r.buf, r.graphic, r.scaled = nil, nil, nil
		r.transform = core.Identity()
		return
	}

	r.buf = core.NewImage(source)
	r.graphic = core.NewGraphic(r.buf)

	factor := r.filter.Scale()
	w, h := source.Width*factor, source.Height*factor
	if factor > 1 {
		r.scaled = image.NewRGBA(image.Rect(0, 0, w, h))
		r.pipeline = pipelineScaled
	} else {
		r.scaled = nil
		r.pipeline = pipelineBuffered
	}

	sx := float64(r.viewport.W) / float64(w)
	sy := float64(r.viewport.H) / float64(h)
	if r.split != SplitNone && math.Abs(source.Ratio()*2-r.cfg.Output.Ratio()) < ratioTolerance {
		u := math.Min(sx, sy)
		sx, sy = u, u
	}
	r.transform = r.filter.Transform(sx, sy)

	r.area = r.viewport.Center(r.transform.Apply(w, h))
}

// Render draws one frame through the active pipeline.
func (r *Renderer) Render() {
	core.Require(r.screen != nil, "sequence.Render", "renderer has no screen")
	core.Require(r.initialized, "sequence.Render", "resolution not initialized")

	out := r.screen.Graphic().Sub(r.viewport)
	switch r.pipeline {
	case pipelineDirect:
		r.target = out
		r.render(out)
	default:
		r.target = r.graphic
		r.render(r.graphic)
		img := r.filter.Filter(r.scaled, r.buf)
		out.DrawTransformed(img, r.transform, r.area.X, r.area.Y)
	}
	r.target = nil
	r.scanline.Render(out)
}

// SetFilter replaces the filter, closing the previous one. Nil selects no filter.
func (r *Renderer) SetFilter(f filter.Filter) {
	if f == nil {
		f = filter.None{}
	}
	if r.filter != f {
		r.closeFilter()
	}
	r.filter = f
	if r.initialized {
		r.InitResolution(r.source)
	}
}

// SetScanline replaces the scanline pass. Nil disables scanlines.
func (r *Renderer) SetScanline(s filter.Scanline) {
	if s == nil {
		s = filter.NoScanline{}
	}
	s.Prepare(r.cfg)
	r.scanline = s
}

// SetDirect switches between direct rendering to the screen and the
// buffered pipeline. Going direct releases the active filter.
func (r *Renderer) SetDirect(direct bool) {
	if direct && !r.direct {
		r.closeFilter()
		r.filter = filter.None{}
	}
	r.direct = direct
	if r.initialized {
		r.InitResolution(r.source)
	}
}

func (r *Renderer) closeFilter() {
	if r.filter == nil {
		return
	}
	if err := r.filter.Close(); err != nil {
		r.logger.Warn("Failed to close filter", "error", err)
	}
}

// Close releases the filter.
func (r *Renderer) Close() error {
	err := r.filter.Close()
	r.filter = filter.None{}
	return err
}

// Source returns the current source resolution.
func (r *Renderer) Source() core.Resolution { return r.source }

// Transform returns the transform applied when blitting to the screen.
func (r *Renderer) Transform() core.Transform { return r.transform }

// Viewport returns the screen area the renderer draws to.
func (r *Renderer) Viewport() core.Rect { return r.viewport }

// Direct reports whether the renderer bypasses the buffered pipeline.
func (r *Renderer) Direct() bool { return r.direct }

// AddRasterbarColor registers every column of palette as a raster bar.
func (r *Renderer) AddRasterbarColor(palette *image.RGBA) {
	r.raster.add(palette)
}

// ClearRasterbarColor removes every raster bar.
func (r *Renderer) ClearRasterbarColor() {
	r.raster.clear()
}

// SetRasterbarOffset sets the vertical offset and divisor used to pick a row color.
func (r *Renderer) SetRasterbarOffset(offsetY, factorY int) {
	r.raster.setOffset(offsetY, factorY)
}

// SetRasterbarY sets the row origin and the bottom margin left uncolored.
func (r *Renderer) SetRasterbarY(y1, y2 int) {
	r.raster.setY(y1, y2)
}

// RenderRasterbar recolors the surface currently being rendered. It is a
// no-op outside a render callback.
func (r *Renderer) RenderRasterbar() {
	if r.target == nil {
		return
	}
	r.raster.render(r.target.Image())
}
