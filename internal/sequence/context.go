package sequence

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/rastercade/internal/core"
	"github.com/vovakirdan/rastercade/internal/loop"
)

// Context carries everything one engine run shares between its sequences.
// The loader constructs it once and passes it explicitly; there is no
// package-level engine state.
type Context struct {
	// Config is the display configuration of the screen sequences render to.
	Config core.Config

	// Source is the default source resolution. Zero means the output resolution.
	Source core.Resolution

	// Policy names the loop policy of new sequences (see loop.NewPolicy).
	Policy string

	// HybridMargin tunes the hybrid policy switch threshold.
	HybridMargin time.Duration

	// Filter and Scanline name the default pipeline stages.
	Filter   string
	Scanline string

	// Direct renders straight to the screen, bypassing the intermediate buffer and filters.
	Direct bool

	// Clock drives loops. Nil means the system clock.
	Clock loop.Clock

	// Logger receives engine diagnostics. Nil means discard.
	Logger *log.Logger

	// Registry resolves successor sequences by ID.
	Registry Resolver
}

// logger returns the context logger or a discarding one.
func (c *Context) logger() *log.Logger {
	if c.Logger == nil {
		c.Logger = log.New(io.Discard)
	}
	return c.Logger
}

// source returns the default source resolution.
func (c *Context) source() core.Resolution {
	if c.Source.Width > 0 && c.Source.Height > 0 {
		return c.Source
	}
	return c.Config.Output
}

// Args is the statically typed argument bundle passed to sequence factories.
type Args struct {
	Seed   int64
	Level  int
	Params map[string]string
}

// Param returns a named parameter or def when absent.
func (a Args) Param(key, def string) string {
	if v, ok := a.Params[key]; ok {
		return v
	}
	return def
}

// Resolver constructs sequences by identifier.
type Resolver interface {
	Create(id string, ctx *Context, args Args) (Sequencable, error)
}

// Sequencable is the unit the loader runs: a scene driven by a loop plus its
// transition to a successor.
type Sequencable interface {
	// ID returns the identifier the sequence was registered under.
	ID() string

	// Load prepares resources before the sequence owns the screen. It is
	// idempotent; Start calls it when the sequence was not preloaded.
	Load() error

	// Start runs the sequence on screen and blocks until it ends.
	Start(screen core.Screen) error

	// End stops the sequence, keeping a successor preloaded with LoadNext.
	End()

	AddKeyListener(l core.KeyListener)

	// NextSequence returns the successor chosen when the sequence ended, or nil.
	NextSequence() Sequencable

	// OnTerminated is called by the loader once the sequence has stopped.
	OnTerminated(hasNext bool)

	// Fps returns the last measured frame rate.
	Fps() int

	Config() core.Config
}

// Stats summarises one run of a sequence.
type Stats struct {
	Policy   string
	Updates  int64
	Renders  int64
	Fps      int
	Duration time.Duration
}
