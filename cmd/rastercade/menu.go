package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/rastercade/internal/config"
	"github.com/vovakirdan/rastercade/internal/platform/tui"
	"github.com/vovakirdan/rastercade/internal/registry"
)

var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Start rastercade with a sequence picker menu",
	Long: `Start rastercade in interactive menu mode.

Use arrow keys or j/k to navigate, Enter to select a sequence.
After the sequence chain ends, you return to the menu.

Controls:
  Up/Down/j/k  - Navigate menu
  /            - Filter
  Enter        - Select sequence
  Q            - Quit

Examples:
  rastercade menu
  rastercade menu --preset retro
  rastercade menu --backend tcell`,
	RunE: runMenu,
}

func init() {
	menuCmd.Flags().Int64Var(&flagSeed, "seed", 0, "RNG seed (0 = random based on time)")
}

func runMenu(_ *cobra.Command, _ []string) error {
	e, err := setup(true, true)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, stop := signalContext()
	defer stop()

	// Menu loop
	for ctx.Err() == nil {
		id, err := tui.RunMenu(registry.List())
		if err != nil {
			return err
		}
		if id == "" {
			return nil
		}

		if err := e.present(ctx, "rastercade - "+id, e.startFunc(id, sequenceArgs())); err != nil {
			fmt.Fprintf(os.Stderr, "Error running %s: %v\n", id, err)
		}

		// The window backend can only be opened once per process.
		if e.cfg.Backend == config.BackendWindow {
			return nil
		}
	}
	return nil
}
