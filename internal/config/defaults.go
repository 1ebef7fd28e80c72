package config

import (
	_ "embed"
	"time"

	"github.com/vovakirdan/rastercade/internal/core"
	"github.com/vovakirdan/rastercade/internal/filter"
	"github.com/vovakirdan/rastercade/internal/loop"
)

//go:embed defaults/engine.yaml
var defaultEngineYAML []byte

// DefaultEngine returns the default engine configuration.
func DefaultEngine() Engine {
	return Engine{
		Output:   core.NewResolution(640, 480, 60),
		Source:   core.NewResolution(320, 240, 60),
		Depth:    32,
		Windowed: true,
		Backend:  BackendTUI,
		Loop: LoopConfig{
			Policy:       loop.PolicyFrameSkipping,
			HybridMargin: loop.DefaultHybridMargin,
		},
		Render: RenderConfig{
			Filter:   filter.NameNone,
			Scanline: filter.ScanlineNone,
		},
		Storage: StorageConfig{
			Path: "~/.rastercade/runs.db",
		},
		Server: ServerConfig{
			Address:     ":2323",
			HostKeyPath: ".ssh/rastercade_ed25519",
			IdleTimeout: 30 * time.Minute,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
