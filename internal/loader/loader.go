// Package loader runs sequences back-to-back on one screen until none remain.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime/debug"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/rastercade/internal/core"
	"github.com/vovakirdan/rastercade/internal/sequence"
	"github.com/vovakirdan/rastercade/internal/storage"
)

// Recorder persists run statistics. *storage.Store implements it.
type Recorder interface {
	SaveRun(run storage.Run) (int64, error)
}

// PanicError carries a panic raised while a sequence was running.
type PanicError struct {
	Sequence string
	Value    any
	Stack    []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("loader: sequence %q panicked: %v", e.Sequence, e.Value)
}

// Unwrap exposes panic values that are errors, such as *core.PreconditionError.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// Option configures a Loader.
type Option func(*Loader)

// WithRecorder stores a run record for every finished sequence.
func WithRecorder(r Recorder) Option {
	return func(l *Loader) {
		l.recorder = r
	}
}

// Loader owns the engine context of one run and drives its sequences.
type Loader struct {
	engine   *sequence.Context
	screen   core.Screen
	recorder Recorder
	logger   *log.Logger

	mu     sync.Mutex
	active sequence.Sequencable
}

// New creates a loader rendering to screen.
func New(engine *sequence.Context, screen core.Screen, opts ...Option) *Loader {
	core.Require(engine != nil, "loader.New", "nil context")
	core.Require(screen != nil, "loader.New", "nil screen")

	l := &Loader{engine: engine, screen: screen, logger: engine.Logger}
	if l.logger == nil {
		l.logger = log.New(io.Discard)
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Active returns the running sequence, nil between sequences.
func (l *Loader) Active() sequence.Sequencable {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}

func (l *Loader) setActive(s sequence.Sequencable) {
	l.mu.Lock()
	l.active = s
	l.mu.Unlock()
}

// Start resolves id through the context registry and runs it.
func (l *Loader) Start(ctx context.Context, id string, args sequence.Args) error {
	if l.engine.Registry == nil {
		return sequence.ErrNoRegistry
	}
	first, err := l.engine.Registry.Create(id, l.engine, args)
	if err != nil {
		return fmt.Errorf("loader: %w", err)
	}
	return l.Run(ctx, first)
}

// Run starts first and each successor it designates, blocking until the
// chain ends, ctx is cancelled or a sequence fails. Cancelling ctx ends the
// active sequence cooperatively and is not an error. Panics raised while a
// sequence runs are returned as *PanicError.
func (l *Loader) Run(ctx context.Context, first sequence.Sequencable) error {
	core.Require(first != nil, "loader.Run", "nil sequence")

	for current := first; current != nil; {
		if ctx.Err() != nil {
			return nil
		}

		l.logger.Info("Starting sequence", "id", current.ID())
		l.setActive(current)
		stop := context.AfterFunc(ctx, current.End)
		err := l.runOne(current)
		stop()
		l.setActive(nil)

		next := current.NextSequence()
		if err != nil || ctx.Err() != nil {
			next = nil
		}
		current.OnTerminated(next != nil)
		l.record(current, err)

		if err != nil {
			l.logger.Error("Sequence failed", "id", current.ID(), "error", err)
			return err
		}
		if next != nil {
			l.logger.Debug("Sequence transition", "from", current.ID(), "to", next.ID())
		}
		current = next
	}
	l.logger.Info("No sequence left")
	return nil
}

func (l *Loader) runOne(seq sequence.Sequencable) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Sequence: seq.ID(), Value: r, Stack: debug.Stack()}
		}
	}()
	return seq.Start(l.screen)
}

type statsReporter interface {
	Stats() sequence.Stats
}

func (l *Loader) record(seq sequence.Sequencable, runErr error) {
	if l.recorder == nil {
		return
	}
	run := storage.Run{
		Sequence: seq.ID(),
		Fps:      seq.Fps(),
		Failed:   runErr != nil,
	}
	if runErr != nil {
		run.Error = runErr.Error()
	}
	if sr, ok := seq.(statsReporter); ok {
		st := sr.Stats()
		run.Policy = st.Policy
		run.Updates = st.Updates
		run.Renders = st.Renders
		run.Duration = st.Duration
	}
	if src, ok := seq.(interface{ Resolution() core.Resolution }); ok {
		run.Source = src.Resolution().String()
	}
	if _, err := l.recorder.SaveRun(run); err != nil {
		l.logger.Warn("Failed to record run", "id", seq.ID(), "error", err)
	}
}

// IsPanic reports whether err was raised by a panicking sequence.
func IsPanic(err error) bool {
	var pe *PanicError
	return errors.As(err, &pe)
}
