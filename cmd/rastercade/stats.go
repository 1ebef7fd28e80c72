package main

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/rastercade/internal/platform/tui"
	"github.com/vovakirdan/rastercade/internal/storage"
)

var (
	flagStatsPlain bool
	flagStatsLimit int
	flagStatsClear bool
)

var statsCmd = &cobra.Command{
	Use:   "stats [id]",
	Short: "Show recorded run statistics",
	Long: `Show the runs recorded in the statistics database.

Without arguments on a terminal an interactive browser is started; Tab and
Shift+Tab switch between sequences. With an id, or with --plain, the recent
runs are printed.

Examples:
  rastercade stats
  rastercade stats bars
  rastercade stats --plain
  rastercade stats zoom --clear`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStats,
}

func init() {
	statsCmd.Flags().BoolVar(&flagStatsPlain, "plain", false, "Print instead of starting the browser")
	statsCmd.Flags().IntVar(&flagStatsLimit, "limit", 10, "Recent runs to print per sequence")
	statsCmd.Flags().BoolVar(&flagStatsClear, "clear", false, "Delete the recorded runs of the sequence")
}

func runStats(_ *cobra.Command, args []string) error {
	if flagNoDB {
		return errors.New("stats: --no-db leaves nothing to show")
	}
	e, err := setup(false, true)
	if err != nil {
		return err
	}
	defer e.Close()

	store, err := storage.Open(e.cfg.Storage.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	if flagStatsClear {
		if len(args) == 0 {
			return errors.New("stats: --clear needs a sequence id")
		}
		if err := store.ClearRuns(args[0]); err != nil {
			return err
		}
		fmt.Printf("Cleared runs of %s.\n", args[0])
		return nil
	}

	fd := int(os.Stdout.Fd())
	if len(args) == 0 && !flagStatsPlain && term.IsTerminal(fd) {
		width, height := 80, 24
		if w, h, sizeErr := term.GetSize(fd); sizeErr == nil {
			width, height = w, h
		}
		return tui.RunStats(store, width, height)
	}

	if len(args) == 1 {
		return printRuns(store, args[0])
	}

	all, err := store.GetAllSequenceStats()
	if err != nil {
		return err
	}
	if len(all) == 0 {
		fmt.Println("No runs recorded yet.")
		fmt.Println()
		fmt.Println("Run 'rastercade run <id>' to record the first run.")
		return nil
	}

	ids := make([]string, 0, len(all))
	for id := range all {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	t := newTable("Sequence", "Runs", "Failed", "Best FPS", "Avg FPS", "Frames", "Last run")
	for _, id := range ids {
		st := all[id]
		t.Row(id,
			strconv.Itoa(st.Runs),
			strconv.Itoa(st.Failures),
			strconv.Itoa(st.BestFps),
			strconv.FormatFloat(st.AvgFps, 'f', 1, 64),
			strconv.FormatInt(st.TotalFrames, 10),
			formatDate(st.LastRun),
		)
	}
	fmt.Println(t)
	return nil
}

// printRuns prints the recent runs of one sequence.
func printRuns(store *storage.Store, id string) error {
	runs, err := store.RecentRuns(id, flagStatsLimit)
	if err != nil {
		return err
	}

	fmt.Printf("Recent runs - %s\n", id)
	if len(runs) == 0 {
		fmt.Println()
		fmt.Println("No runs recorded yet.")
		fmt.Println()
		fmt.Printf("Run 'rastercade run %s' to record the first run.\n", id)
		return nil
	}

	t := newTable("Policy", "Source", "FPS", "Updates", "Renders", "Time", "Date", "Error")
	for _, r := range runs {
		t.Row(r.Policy,
			r.Source,
			strconv.Itoa(r.Fps),
			strconv.FormatInt(r.Updates, 10),
			strconv.FormatInt(r.Renders, 10),
			r.Duration.Round(time.Millisecond).String(),
			formatDate(r.CreatedAt),
			r.Error,
		)
	}
	fmt.Println(t)

	best, err := store.BestFps(id)
	if err == nil && best > 0 {
		fmt.Printf("Best: %d fps\n", best)
	}
	return nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}
