// rastercade runs pixel demo sequences in the terminal, in a window or over SSH.
//
// Usage:
//
//	rastercade list              - List available sequences
//	rastercade run <id>          - Run a sequence and its successors
//	rastercade menu              - Pick a sequence interactively
//	rastercade bench <id>        - Run a sequence once per loop policy
//	rastercade stats [id]        - Show recorded run statistics
//	rastercade serve             - Start SSH server for remote viewing
//
// Global flags:
//
//	--config <path>   - Engine config YAML (default: search order)
//	--preset <name>   - fast, smooth, retro or accurate
//	--loop <policy>   - Override the loop policy
//	--fps <rate>      - Override the output refresh rate
//	--backend <name>  - tui, tcell, window or headless
//	--db <path>       - Run statistics database
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	// Import demos to register them
	_ "github.com/vovakirdan/rastercade/internal/demos/bars"
	_ "github.com/vovakirdan/rastercade/internal/demos/intro"
	_ "github.com/vovakirdan/rastercade/internal/demos/pong"
	_ "github.com/vovakirdan/rastercade/internal/demos/split"
	_ "github.com/vovakirdan/rastercade/internal/demos/zoom"
)

var (
	// Global flags
	flagConfig   string
	flagPreset   string
	flagLoop     string
	flagFPS      int
	flagBackend  string
	flagFilter   string
	flagScanline string
	flagDBPath   string
	flagNoDB     bool
	flagLogLevel string
	flagLogFile  string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "rastercade",
	Short: "Rastercade - pixel demo sequences with raster bars",
	Long: `Rastercade runs frame-paced pixel sequences: raster bars, split
screens, zooms and small games. Sequences chain into each other and every
run is recorded with its measured frame rate.

Available commands:
  list     - Show all registered sequences
  run      - Run a sequence directly
  menu     - Interactive sequence picker
  bench    - Compare loop policies on one sequence
  stats    - View recorded runs
  serve    - Start SSH server for remote viewing

Examples:
  rastercade list
  rastercade run intro
  rastercade run bars --preset retro --backend window
  rastercade run --script ./plasma.lua
  rastercade bench zoom --frames 240
  rastercade serve --ssh :2323`,
	SilenceUsage: true,
}

func init() {
	// Global persistent flags
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "Path to engine config YAML")
	pf.StringVar(&flagPreset, "preset", "", "Preset: fast, smooth, retro, accurate")
	pf.StringVar(&flagLoop, "loop", "", "Loop policy: locked, unlocked, frameskipping, extrapolated, hybrid")
	pf.IntVar(&flagFPS, "fps", 0, "Output refresh rate (0 = config value)")
	pf.StringVar(&flagBackend, "backend", "", "Backend: tui, tcell, window, headless")
	pf.StringVar(&flagFilter, "filter", "", "Blit filter: none, bilinear, scale2x, scale3x")
	pf.StringVar(&flagScanline, "scanline", "", "Scanline pass: none, horizontal, rgb")
	pf.StringVar(&flagDBPath, "db", "", "Path to run statistics database (default: config value)")
	pf.BoolVar(&flagNoDB, "no-db", false, "Do not record runs")
	pf.StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&flagLogFile, "log-file", "", "Write logs to this file instead of stderr")

	// Add subcommands
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(menuCmd)
	rootCmd.AddCommand(benchCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(serveCmd)
}
