package config

import (
	"fmt"

	"github.com/vovakirdan/rastercade/internal/filter"
	"github.com/vovakirdan/rastercade/internal/loop"
)

// Preset represents a named combination of loop policy and render stages.
type Preset string

const (
	PresetFast     Preset = "fast"     // unlocked loop, no filtering
	PresetSmooth   Preset = "smooth"   // hybrid loop, bilinear blit
	PresetRetro    Preset = "retro"    // locked loop, Scale2x and scanlines
	PresetAccurate Preset = "accurate" // fixed-step frame skipping
)

// Presets lists every preset name.
func Presets() []Preset {
	return []Preset{PresetFast, PresetSmooth, PresetRetro, PresetAccurate}
}

// ApplyPreset modifies the config based on a preset.
func ApplyPreset(cfg *Engine, preset Preset) error {
	switch preset {
	case PresetFast:
		cfg.Loop.Policy = loop.PolicyUnlocked
		cfg.Render.Filter = filter.NameNone
		cfg.Render.Scanline = filter.ScanlineNone
	case PresetSmooth:
		cfg.Loop.Policy = loop.PolicyHybrid
		cfg.Render.Filter = filter.NameBilinear
		cfg.Render.Scanline = filter.ScanlineNone
	case PresetRetro:
		cfg.Loop.Policy = loop.PolicyLocked
		cfg.Render.Filter = filter.NameScale2x
		cfg.Render.Scanline = filter.ScanlineHorizontal
	case PresetAccurate:
		cfg.Loop.Policy = loop.PolicyFrameSkipping
		cfg.Render.Filter = filter.NameNone
		cfg.Render.Scanline = filter.ScanlineNone
	case "":
		return nil
	default:
		return fmt.Errorf("config: unknown preset %q", preset)
	}
	// Filters only run on the buffered pipeline.
	cfg.Render.Direct = false
	return nil
}
