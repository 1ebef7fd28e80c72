package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/rastercade/internal/config"
	"github.com/vovakirdan/rastercade/internal/core"
	"github.com/vovakirdan/rastercade/internal/loader"
	"github.com/vovakirdan/rastercade/internal/platform/headless"
	"github.com/vovakirdan/rastercade/internal/platform/tcell"
	"github.com/vovakirdan/rastercade/internal/platform/tui"
	"github.com/vovakirdan/rastercade/internal/platform/window"
	"github.com/vovakirdan/rastercade/internal/registry"
	"github.com/vovakirdan/rastercade/internal/script"
	"github.com/vovakirdan/rastercade/internal/sequence"
	"github.com/vovakirdan/rastercade/internal/storage"
)

// engine bundles the resolved configuration, logger and run store of one
// command invocation.
type engine struct {
	cfg     config.Engine
	logger  *log.Logger
	logFile *os.File
	store   *storage.Store

	active atomic.Pointer[loader.Loader]
}

// setup loads the config, applies the preset and flag overrides, and opens
// the logger. The run store is opened when withStore is set and --no-db is not.
// local marks commands that draw on this process's terminal.
func setup(withStore, local bool) (*engine, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	if err := config.ApplyPreset(&cfg, config.Preset(strings.ToLower(flagPreset))); err != nil {
		return nil, err
	}
	applyFlags(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &engine{cfg: cfg}
	if err := e.openLog(local && e.terminalBackend()); err != nil {
		return nil, err
	}

	if withStore && !flagNoDB {
		store, err := storage.Open(cfg.Storage.Path)
		if err != nil {
			// Runs still work without statistics.
			e.logger.Warn("run statistics disabled", "err", err)
		} else {
			e.store = store
		}
	}
	return e, nil
}

// applyFlags overlays the global flags that were set on cfg.
func applyFlags(cfg *config.Engine) {
	if flagLoop != "" {
		cfg.Loop.Policy = strings.ToLower(flagLoop)
	}
	if flagFPS > 0 {
		cfg.Output = cfg.Output.WithRate(flagFPS)
		if cfg.Source != (core.Resolution{}) {
			cfg.Source = cfg.Source.WithRate(flagFPS)
		}
	}
	if flagBackend != "" {
		cfg.Backend = strings.ToLower(flagBackend)
	}
	if flagFilter != "" {
		cfg.Render.Filter = strings.ToLower(flagFilter)
		cfg.Render.Direct = false
	}
	if flagScanline != "" {
		cfg.Render.Scanline = strings.ToLower(flagScanline)
		cfg.Render.Direct = false
	}
	if flagDBPath != "" {
		cfg.Storage.Path = flagDBPath
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}
}

// openLog routes logs to --log-file, or to ~/.rastercade/rastercade.log when
// the terminal is taken, otherwise to stderr.
func (e *engine) openLog(terminalTaken bool) error {
	level, err := log.ParseLevel(e.cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("config: log.level: %w", err)
	}

	var out io.Writer = os.Stderr
	path := flagLogFile
	if path == "" && terminalTaken {
		if home, homeErr := os.UserHomeDir(); homeErr == nil {
			path = filepath.Join(home, ".rastercade", "rastercade.log")
		}
	}
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("cannot create log directory: %w", err)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("cannot open log file: %w", err)
		}
		e.logFile = f
		out = f
	}

	e.logger = log.NewWithOptions(out, log.Options{
		ReportTimestamp: true,
		Prefix:          "rastercade",
		Level:           level,
	})
	return nil
}

func (e *engine) terminalBackend() bool {
	return e.cfg.Backend == config.BackendTUI || e.cfg.Backend == config.BackendTcell
}

// Close releases the store and log file.
func (e *engine) Close() {
	if e.store != nil {
		if err := e.store.Close(); err != nil {
			e.logger.Warn("closing run store", "err", err)
		}
	}
	if e.logFile != nil {
		e.logFile.Close()
	}
}

// context builds the sequence context shared by the sequences of one run.
func (e *engine) context() *sequence.Context {
	ctx := e.cfg.Context()
	ctx.Logger = e.logger
	ctx.Registry = registry.Default
	return ctx
}

// newLoader creates a loader for screen, recording into the store when open.
func (e *engine) newLoader(screen core.Screen) *loader.Loader {
	var opts []loader.Option
	if e.store != nil {
		opts = append(opts, loader.WithRecorder(e.store))
	}
	l := loader.New(e.context(), screen, opts...)
	e.active.Store(l)
	return l
}

// startFunc runs the registered sequence id and its successors.
func (e *engine) startFunc(id string, args sequence.Args) func(context.Context, core.Screen) error {
	return func(ctx context.Context, screen core.Screen) error {
		return e.newLoader(screen).Start(ctx, id, args)
	}
}

// scriptFunc runs a Lua scene file and its successors.
func (e *engine) scriptFunc(path string, args sequence.Args) func(context.Context, core.Screen) error {
	return func(ctx context.Context, screen core.Screen) error {
		l := e.newLoader(screen)
		first, err := script.Open(e.context(), path, args)
		if err != nil {
			return err
		}
		return l.Run(ctx, first)
	}
}

// status describes the active sequence for the terminal status line.
func (e *engine) status() string {
	l := e.active.Load()
	if l == nil {
		return "loading..."
	}
	seq := l.Active()
	if seq == nil {
		return "loading..."
	}
	return fmt.Sprintf("%s | %s | %d fps | q to quit", seq.ID(), e.cfg.Loop.Policy, seq.Fps())
}

// present runs play on the configured backend until it returns.
func (e *engine) present(ctx context.Context, title string, play func(context.Context, core.Screen) error) error {
	display := e.cfg.Display()
	e.logger.Info("starting", "backend", e.cfg.Backend, "output", display.Output, "policy", e.cfg.Loop.Policy)

	switch e.cfg.Backend {
	case config.BackendTcell:
		return tcell.Run(ctx, display, play)
	case config.BackendWindow:
		if !window.Available {
			return errors.New("window backend not built into this binary (use --backend tui or tcell)")
		}
		return window.Run(ctx, display, title, play)
	case config.BackendHeadless:
		return play(ctx, headless.New(display))
	default:
		return tui.Run(ctx, display, play, tui.WithStatus(e.status))
	}
}
