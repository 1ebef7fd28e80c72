// Package config provides YAML-based engine configuration loading and
// presets for the rastercade engine.
package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/vovakirdan/rastercade/internal/core"
	"github.com/vovakirdan/rastercade/internal/filter"
	"github.com/vovakirdan/rastercade/internal/loop"
	"github.com/vovakirdan/rastercade/internal/sequence"
)

// Engine contains all configuration for one engine run.
type Engine struct {
	Output   core.Resolution `yaml:"output"`
	Source   core.Resolution `yaml:"source"` // zero means same as output
	Depth    int             `yaml:"depth"`
	Windowed bool            `yaml:"windowed"`
	Backend  string          `yaml:"backend"` // "tui", "tcell", "window" or "headless"
	Loop     LoopConfig      `yaml:"loop"`
	Render   RenderConfig    `yaml:"render"`
	Storage  StorageConfig   `yaml:"storage"`
	Server   ServerConfig    `yaml:"server"`
	Log      LogConfig       `yaml:"log"`
}

// LoopConfig selects the frame pacing policy.
type LoopConfig struct {
	Policy       string        `yaml:"policy"`
	HybridMargin time.Duration `yaml:"hybrid_margin"`
}

// RenderConfig selects the render pipeline stages.
type RenderConfig struct {
	Filter   string `yaml:"filter"`
	Scanline string `yaml:"scanline"`
	Direct   bool   `yaml:"direct"`
}

// StorageConfig locates the run statistics database.
type StorageConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig configures the SSH server.
type ServerConfig struct {
	Address     string        `yaml:"address"`
	HostKeyPath string        `yaml:"host_key_path"`
	IdleTimeout time.Duration `yaml:"idle_timeout"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level"` // "debug", "info", "warn" or "error"
}

// Backend names.
const (
	BackendTUI      = "tui"
	BackendTcell    = "tcell"
	BackendWindow   = "window"
	BackendHeadless = "headless"
)

// Backends lists every backend name.
func Backends() []string {
	return []string{BackendTUI, BackendTcell, BackendWindow, BackendHeadless}
}

// Validate checks resolutions and that every named component exists.
func (e Engine) Validate() error {
	if err := e.Output.Validate(); err != nil {
		return fmt.Errorf("config: output: %w", err)
	}
	if e.Source != (core.Resolution{}) {
		if err := e.Source.Validate(); err != nil {
			return fmt.Errorf("config: source: %w", err)
		}
	}
	checks := []struct {
		field string
		value string
		names []string
	}{
		{"loop.policy", e.Loop.Policy, loop.PolicyNames()},
		{"render.filter", e.Render.Filter, filter.Names()},
		{"render.scanline", e.Render.Scanline, filter.ScanlineNames()},
		{"backend", e.Backend, Backends()},
	}
	for _, c := range checks {
		if c.value == "" {
			continue
		}
		if !slices.Contains(c.names, strings.ToLower(c.value)) {
			return fmt.Errorf("config: %s: unknown value %q (want one of %s)", c.field, c.value, strings.Join(c.names, ", "))
		}
	}
	if e.Loop.HybridMargin < 0 {
		return fmt.Errorf("config: loop.hybrid_margin: negative duration %v", e.Loop.HybridMargin)
	}
	return nil
}

// Display returns the display configuration seen by screens.
func (e Engine) Display() core.Config {
	return core.NewConfig(e.Output, e.Depth, e.Windowed)
}

// Context builds the sequence context of a run. Logger, clock and registry
// are left for the caller to set.
func (e Engine) Context() *sequence.Context {
	return &sequence.Context{
		Config:       e.Display(),
		Source:       e.Source,
		Policy:       e.Loop.Policy,
		HybridMargin: e.Loop.HybridMargin,
		Filter:       e.Render.Filter,
		Scanline:     e.Render.Scanline,
		Direct:       e.Render.Direct,
	}
}
