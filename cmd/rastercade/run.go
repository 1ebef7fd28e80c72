package main

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/rastercade/internal/registry"
	"github.com/vovakirdan/rastercade/internal/sequence"
)

var (
	flagSeed   int64
	flagLevel  int
	flagParams map[string]string
	flagScript string
	flagFrames int
)

var runCmd = &cobra.Command{
	Use:   "run [id]",
	Short: "Run a sequence",
	Long: `Run the specified sequence and every successor it hands over to.

Controls (terminal backends):
  Arrows/Space/Enter  - Sequence input
  Esc                 - End the current sequence
  Q/Ctrl+C            - Quit

Sequence parameters are passed with --param and read by the sequence:
  frames=<n>   - End after n updates (all demos)
  next=<id>    - Successor to start when the sequence ends
  attract=1    - Pong: both paddles are CPU controlled

Examples:
  rastercade run intro
  rastercade run bars --param next=zoom
  rastercade run pong --seed 42 --backend window
  rastercade run zoom --loop hybrid --fps 30
  rastercade run --script ./plasma.lua --backend tcell`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().Int64Var(&flagSeed, "seed", 0, "RNG seed (0 = random based on time)")
	runCmd.Flags().IntVar(&flagLevel, "level", 0, "Level passed to the sequence")
	runCmd.Flags().StringToStringVar(&flagParams, "param", nil, "Sequence parameter key=value (repeatable)")
	runCmd.Flags().StringVar(&flagScript, "script", "", "Run a Lua scene file instead of a registered sequence")
	runCmd.Flags().IntVar(&flagFrames, "frames", 0, "End each sequence after this many updates (0 = no limit)")
}

// sequenceArgs builds the factory arguments from the run flags.
func sequenceArgs() sequence.Args {
	seed := flagSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	params := maps.Clone(flagParams)
	if params == nil {
		params = map[string]string{}
	}
	if flagFrames > 0 {
		params["frames"] = strconv.Itoa(flagFrames)
	}
	return sequence.Args{Seed: seed, Level: flagLevel, Params: params}
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runRun(_ *cobra.Command, args []string) error {
	if flagScript == "" && len(args) == 0 {
		return errors.New("run: a sequence id or --script is required")
	}

	var id string
	if len(args) == 1 {
		id = strings.ToLower(args[0])
		if !registry.Exists(id) {
			return fmt.Errorf("unknown sequence %q, run 'rastercade list' to see available sequences", id)
		}
	}

	e, err := setup(true, true)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, stop := signalContext()
	defer stop()

	seqArgs := sequenceArgs()
	if flagScript != "" {
		title := strings.TrimSuffix(filepath.Base(flagScript), filepath.Ext(flagScript))
		return e.present(ctx, "rastercade - "+title, e.scriptFunc(flagScript, seqArgs))
	}
	return e.present(ctx, "rastercade - "+id, e.startFunc(id, seqArgs))
}
