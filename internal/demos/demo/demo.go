// Package demo holds what the built-in sequences share: binding a scene to
// its sequence, key polling and the common arguments.
//
// Every demo understands two parameters:
//
//	frames  end after this many updates (0 runs until a key ends it)
//	next    sequence to continue with instead of stopping
package demo

import (
	"strconv"

	"github.com/vovakirdan/rastercade/internal/core"
	"github.com/vovakirdan/rastercade/internal/sequence"
)

// Scene is a sequence.Scene embedding Base.
type Scene interface {
	sequence.Scene
	Demo() *Base
}

// Base is embedded by demo scenes.
type Base struct {
	Seq  *sequence.Sequence
	Keys *core.Keys
	Args sequence.Args

	limit   int
	updates int
}

// Demo returns the embedded base.
func (b *Base) Demo() *Base { return b }

// Create builds the sequence running scene. A zero source uses the context default.
func Create(ctx *sequence.Context, id string, source core.Resolution, scene Scene, args sequence.Args) (*sequence.Sequence, error) {
	opts := []sequence.Option{sequence.WithID(id)}
	if source.Width > 0 && source.Height > 0 {
		opts = append(opts, sequence.WithSource(source))
	}
	seq, err := sequence.New(ctx, scene, opts...)
	if err != nil {
		return nil, err
	}

	b := scene.Demo()
	b.Seq = seq
	b.Keys = core.NewKeys()
	b.Args = args
	b.limit, _ = strconv.Atoi(args.Param("frames", "0"))
	seq.AddKeyListener(b.Keys)
	return seq, nil
}

// Tick counts an update and reports whether the demo should finish: the
// frame limit is reached or esc was pressed.
func (b *Base) Tick() bool {
	b.updates++
	if b.limit > 0 && b.updates >= b.limit {
		return true
	}
	return b.Keys.JustPressed(core.KeyEsc)
}

// Updates returns how many updates ran.
func (b *Base) Updates() int { return b.updates }

// Finish ends the sequence, continuing with the next parameter when set.
// A successor that cannot be resolved is logged and the run stops.
func (b *Base) Finish() {
	next := b.Args.Param("next", "")
	if next == "" {
		b.Seq.End()
		return
	}
	args := sequence.Args{Seed: b.Args.Seed, Level: b.Args.Level}
	if err := b.Seq.EndWith(next, args); err != nil {
		b.Seq.Logger().Error("cannot continue", "next", next, "error", err)
		b.Seq.End()
	}
}

// Param returns an integer parameter or def when absent or malformed.
func (b *Base) Param(key string, def int) int {
	v, err := strconv.Atoi(b.Args.Param(key, ""))
	if err != nil {
		return def
	}
	return v
}
