package main

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/rastercade/internal/loader"
	"github.com/vovakirdan/rastercade/internal/loop"
	"github.com/vovakirdan/rastercade/internal/platform/headless"
	"github.com/vovakirdan/rastercade/internal/registry"
	"github.com/vovakirdan/rastercade/internal/sequence"
	"github.com/vovakirdan/rastercade/internal/storage"
)

var (
	flagBenchFrames   int
	flagBenchPolicies []string
	flagBenchRecord   bool
)

var benchCmd = &cobra.Command{
	Use:   "bench <id>",
	Short: "Run a sequence once per loop policy",
	Long: `Run the sequence headless once for each loop policy and compare the
measured frame rates. Each run ends after --frames updates; successors are
not started.

Locked runs are paced to the output refresh rate, the other policies run as
fast as their pacing allows.

Examples:
  rastercade bench zoom
  rastercade bench bars --frames 600 --fps 30
  rastercade bench split --policies locked,hybrid --record`,
	Args: cobra.ExactArgs(1),
	RunE: runBench,
}

func init() {
	benchCmd.Flags().IntVar(&flagBenchFrames, "frames", 240, "Updates per run")
	benchCmd.Flags().StringSliceVar(&flagBenchPolicies, "policies", nil, "Policies to run (default: all)")
	benchCmd.Flags().BoolVar(&flagBenchRecord, "record", false, "Store the runs in the statistics database")
}

// benchRecorder keeps the run records of one bench run and forwards them to
// the store when set.
type benchRecorder struct {
	mu    sync.Mutex
	runs  []storage.Run
	store loader.Recorder
}

func (r *benchRecorder) SaveRun(run storage.Run) (int64, error) {
	r.mu.Lock()
	r.runs = append(r.runs, run)
	r.mu.Unlock()
	if r.store != nil {
		return r.store.SaveRun(run)
	}
	return 0, nil
}

func (r *benchRecorder) last() (storage.Run, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.runs) == 0 {
		return storage.Run{}, false
	}
	return r.runs[len(r.runs)-1], true
}

func runBench(_ *cobra.Command, args []string) error {
	id := strings.ToLower(args[0])
	if !registry.Exists(id) {
		return fmt.Errorf("unknown sequence %q, run 'rastercade list' to see available sequences", id)
	}
	if flagBenchFrames <= 0 {
		return fmt.Errorf("bench: --frames must be positive, got %d", flagBenchFrames)
	}

	policies := flagBenchPolicies
	if len(policies) == 0 {
		policies = loop.PolicyNames()
	}
	for i, p := range policies {
		policies[i] = strings.ToLower(p)
		if !slices.Contains(loop.PolicyNames(), policies[i]) {
			return fmt.Errorf("bench: unknown policy %q (want one of %s)", p, strings.Join(loop.PolicyNames(), ", "))
		}
	}

	e, err := setup(flagBenchRecord, false)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, stop := signalContext()
	defer stop()

	params := map[string]string{
		"frames": strconv.Itoa(flagBenchFrames),
		"next":   "",
	}

	t := newTable("Policy", "FPS", "Updates", "Renders", "Time", "Result")
	for _, policy := range policies {
		if ctx.Err() != nil {
			break
		}

		rec := &benchRecorder{}
		if e.store != nil {
			rec.store = e.store
		}

		seqCtx := e.context()
		seqCtx.Policy = policy
		screen := headless.New(seqCtx.Config)
		l := loader.New(seqCtx, screen, loader.WithRecorder(rec))

		e.logger.Info("bench", "sequence", id, "policy", policy, "frames", flagBenchFrames)
		runErr := l.Start(ctx, id, sequence.Args{Seed: 1, Params: params})

		run, ok := rec.last()
		result := "ok"
		if runErr != nil {
			result = "failed: " + runErr.Error()
		}
		if !ok {
			t.Row(policy, "-", "-", "-", "-", result)
			continue
		}
		t.Row(policy,
			strconv.Itoa(run.Fps),
			strconv.FormatInt(run.Updates, 10),
			strconv.FormatInt(run.Renders, 10),
			run.Duration.Round(time.Millisecond).String(),
			result,
		)
	}

	fmt.Printf("Bench - %s (%d updates, output %s)\n", id, flagBenchFrames, e.cfg.Output)
	fmt.Println(t)
	return nil
}
