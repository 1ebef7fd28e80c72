// Package script runs sequences written in Lua.
//
// A script defines global functions called by the engine:
//
//	function load() end          -- optional, once before the first update
//	function update(extrp) end   -- every simulation step
//	function render() end        -- every frame, at source resolution
//
// and drives the engine through the global table rc:
//
//	rc.width(), rc.height()           size of the render target
//	rc.clear(r, g, b)                 fill the target
//	rc.color(r, g, b)                 set the fill color
//	rc.fill(x, y, w, h), rc.pixel(x, y)
//	rc.bar(kr, kg, kb, r, g, b, ...)  raster bar: pixels of the key color are
//	                                  repainted with the following colors by row
//	rc.rasterbar()                    apply raster bars after drawing
//	rc.rasterbar_offset(offset, factor)
//	rc.zoom(f), rc.time(f)            zoom and time factors, returning the current value
//	rc.fps(), rc.frames()
//	rc.down(key), rc.pressed(key)     key state ("up", "space", "z", ...)
//	rc.finish()                       end the sequence
//	rc.next(id [, params])            end and continue with sequence id
//	rc.log(msg)
//
// The arguments of the sequence are exposed as the global table args
// (seed, level and every string parameter).
package script

import (
	"errors"
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/vovakirdan/rastercade/internal/core"
	"github.com/vovakirdan/rastercade/internal/sequence"
)

// ErrNoRender is returned by Load when a script defines no render function.
var ErrNoRender = errors.New("script: render function not defined")

// Scene is a sequence.Scene driven by a Lua script. All calls into the
// script happen on the loop goroutine.
type Scene struct {
	name string
	code string
	args sequence.Args

	seq    *sequence.Sequence
	keys   *core.Keys
	state  *lua.LState
	update *lua.LFunction
	render *lua.LFunction

	target *core.Graphic
	frames int
}

// NewScene creates a scene for code. name appears in errors and logs.
func NewScene(name, code string, args sequence.Args) *Scene {
	return &Scene{name: name, code: code, args: args, keys: core.NewKeys()}
}

// New creates a sequence running code.
func New(ctx *sequence.Context, name, code string, args sequence.Args, opts ...sequence.Option) (*sequence.Sequence, error) {
	scene := NewScene(name, code, args)
	opts = append([]sequence.Option{sequence.WithID(name)}, opts...)
	seq, err := sequence.New(ctx, scene, opts...)
	if err != nil {
		return nil, err
	}
	scene.Bind(seq)
	return seq, nil
}

// Open creates a sequence from a script file. The sequence ID is the file
// name without extension.
func Open(ctx *sequence.Context, path string, args sequence.Args) (*sequence.Sequence, error) {
	code, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("script: %w", err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return New(ctx, name, string(code), args)
}

// Bind attaches the scene to the sequence running it.
func (s *Scene) Bind(seq *sequence.Sequence) {
	s.seq = seq
	seq.AddKeyListener(s.keys)
}

// Load compiles the script and runs its load function.
func (s *Scene) Load() error {
	core.Require(s.seq != nil, "script.Load", "scene not bound to a sequence")

	L := lua.NewState()
	s.state = L
	s.installAPI()

	if err := L.DoString(s.code); err != nil {
		return fmt.Errorf("script %s: %w", s.name, err)
	}
	s.update, _ = L.GetGlobal("update").(*lua.LFunction)
	s.render, _ = L.GetGlobal("render").(*lua.LFunction)
	if s.render == nil {
		return fmt.Errorf("script %s: %w", s.name, ErrNoRender)
	}
	if fn, ok := L.GetGlobal("load").(*lua.LFunction); ok {
		if err := s.call(fn); err != nil {
			return fmt.Errorf("script %s: load: %w", s.name, err)
		}
	}
	return nil
}

// Update calls the script update function. Script errors panic; the
// loader turns them into a failed run.
func (s *Scene) Update(extrp float64) {
	if s.update != nil {
		if err := s.call(s.update, lua.LNumber(extrp)); err != nil {
			panic(fmt.Errorf("script %s: update: %w", s.name, err))
		}
	}
	s.keys.Clear()
}

// Render calls the script render function with g as drawing target.
func (s *Scene) Render(g *core.Graphic) {
	s.target = g
	defer func() { s.target = nil }()
	if err := s.call(s.render); err != nil {
		panic(fmt.Errorf("script %s: render: %w", s.name, err))
	}
	s.frames++
}

// OnTerminated releases the Lua state.
func (s *Scene) OnTerminated(bool) {
	if s.state != nil {
		s.state.Close()
		s.state = nil
	}
}

func (s *Scene) call(fn *lua.LFunction, args ...lua.LValue) error {
	return s.state.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, args...)
}

func (s *Scene) installAPI() {
	L := s.state

	args := L.NewTable()
	args.RawSetString("seed", lua.LNumber(s.args.Seed))
	args.RawSetString("level", lua.LNumber(s.args.Level))
	for k, v := range s.args.Params {
		args.RawSetString(k, lua.LString(v))
	}
	L.SetGlobal("args", args)

	rc := L.NewTable()
	L.SetFuncs(rc, map[string]lua.LGFunction{
		"width":            s.luaWidth,
		"height":           s.luaHeight,
		"clear":            s.luaClear,
		"color":            s.luaColor,
		"fill":             s.luaFill,
		"pixel":            s.luaPixel,
		"bar":              s.luaBar,
		"rasterbar":        s.luaRasterbar,
		"rasterbar_offset": s.luaRasterbarOffset,
		"zoom":             s.luaZoom,
		"time":             s.luaTime,
		"fps":              s.luaFps,
		"frames":           s.luaFrames,
		"down":             s.luaDown,
		"pressed":          s.luaPressed,
		"finish":           s.luaFinish,
		"next":             s.luaNext,
		"log":              s.luaLog,
	})
	L.SetGlobal("rc", rc)
}

// graphic returns the render target, raising a Lua error outside render.
func (s *Scene) graphic(L *lua.LState) *core.Graphic {
	if s.target == nil {
		L.RaiseError("drawing is only allowed in render")
	}
	return s.target
}

func checkColor(L *lua.LState, first int) core.Color {
	ch := func(n int) uint8 {
		return uint8(core.Clamp(L.CheckInt(n), 0, 255))
	}
	return core.RGB(ch(first), ch(first+1), ch(first+2))
}

func (s *Scene) luaWidth(L *lua.LState) int {
	if s.target != nil {
		L.Push(lua.LNumber(s.target.Width()))
	} else {
		L.Push(lua.LNumber(s.seq.Resolution().Width))
	}
	return 1
}

func (s *Scene) luaHeight(L *lua.LState) int {
	if s.target != nil {
		L.Push(lua.LNumber(s.target.Height()))
	} else {
		L.Push(lua.LNumber(s.seq.Resolution().Height))
	}
	return 1
}

func (s *Scene) luaClear(L *lua.LState) int {
	s.graphic(L).Clear(checkColor(L, 1))
	return 0
}

func (s *Scene) luaColor(L *lua.LState) int {
	s.graphic(L).SetColor(checkColor(L, 1))
	return 0
}

func (s *Scene) luaFill(L *lua.LState) int {
	s.graphic(L).FillRect(L.CheckInt(1), L.CheckInt(2), L.CheckInt(3), L.CheckInt(4))
	return 0
}

func (s *Scene) luaPixel(L *lua.LState) int {
	s.graphic(L).SetPixel(L.CheckInt(1), L.CheckInt(2))
	return 0
}

// luaBar registers a raster bar palette. The first color is the key found
// in the frame, every following color is one palette row.
func (s *Scene) luaBar(L *lua.LState) int {
	n := L.GetTop()
	if n < 6 || n%3 != 0 {
		L.RaiseError("bar needs a key color and at least one bar color")
	}
	p := image.NewRGBA(image.Rect(0, 0, 1, n/3))
	for row := 0; row < n/3; row++ {
		core.SetPixel(p, 0, row, checkColor(L, row*3+1))
	}
	s.seq.AddRasterbarColor(p)
	return 0
}

func (s *Scene) luaRasterbar(*lua.LState) int {
	s.seq.RenderRasterbar()
	return 0
}

func (s *Scene) luaRasterbarOffset(L *lua.LState) int {
	factor := L.OptInt(2, 1)
	if factor <= 0 {
		L.ArgError(2, "factor must be positive")
	}
	s.seq.SetRasterbarOffset(L.CheckInt(1), factor)
	return 0
}

func (s *Scene) luaZoom(L *lua.LState) int {
	if L.GetTop() > 0 {
		f := float64(L.CheckNumber(1))
		if math.IsNaN(f) {
			L.ArgError(1, "zoom is NaN")
		}
		s.seq.SetZoom(f)
	}
	L.Push(lua.LNumber(s.seq.Zoom()))
	return 1
}

func (s *Scene) luaTime(L *lua.LState) int {
	if L.GetTop() > 0 {
		f := float64(L.CheckNumber(1))
		if math.IsNaN(f) {
			L.ArgError(1, "time is NaN")
		}
		s.seq.SetTime(f)
	}
	L.Push(lua.LNumber(s.seq.Time()))
	return 1
}

func (s *Scene) luaFps(L *lua.LState) int {
	L.Push(lua.LNumber(s.seq.Fps()))
	return 1
}

func (s *Scene) luaFrames(L *lua.LState) int {
	L.Push(lua.LNumber(s.frames))
	return 1
}

func (s *Scene) luaDown(L *lua.LState) int {
	L.Push(lua.LBool(s.keys.IsDown(core.Key(L.CheckString(1)))))
	return 1
}

func (s *Scene) luaPressed(L *lua.LState) int {
	L.Push(lua.LBool(s.keys.JustPressed(core.Key(L.CheckString(1)))))
	return 1
}

func (s *Scene) luaFinish(*lua.LState) int {
	s.seq.End()
	return 0
}

func (s *Scene) luaNext(L *lua.LState) int {
	args := sequence.Args{Seed: s.args.Seed, Level: s.args.Level, Params: map[string]string{}}
	if tbl, ok := L.Get(2).(*lua.LTable); ok {
		tbl.ForEach(func(k, v lua.LValue) {
			args.Params[k.String()] = v.String()
		})
	}
	if err := s.seq.EndWith(L.CheckString(1), args); err != nil {
		L.RaiseError("%v", err)
	}
	return 0
}

func (s *Scene) luaLog(L *lua.LState) int {
	s.seq.Logger().Info(L.CheckString(1), "script", s.name)
	return 0
}
