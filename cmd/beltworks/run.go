package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/beltworks/internal/factory"
	"github.com/vovakirdan/beltworks/internal/factory/clock"
	"github.com/vovakirdan/beltworks/internal/storage"
	"github.com/vovakirdan/beltworks/internal/transport/ws"
)

var (
	flagScenario string
	flagLayout   string
	flagResume   string
	flagBeats    uint64
	flagFast     bool
	flagWSAddr   string
	flagSave     string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a factory headless",
	Long: `Run a factory without a UI. Events are logged to stderr and can be
streamed to websocket clients at /events.

By default the simulation runs in real time until interrupted. With
--beats it stops after that many beats; add --fast to simulate those
beats as quickly as possible.

Examples:
  beltworks run --scenario smelter
  beltworks run --scenario workshop --beats 200 --fast --save bench
  beltworks run --layout ./line.yaml --ws :8080
  beltworks run --resume bench --beats 50`,
	Run: runRun,
}

func init() {
	addSourceFlags(runCmd)
	runCmd.Flags().Uint64Var(&flagBeats, "beats", 0, "Stop after this many beats (0 = run until interrupted)")
	runCmd.Flags().BoolVar(&flagFast, "fast", false, "Simulate as fast as possible (requires --beats)")
	runCmd.Flags().StringVar(&flagWSAddr, "ws", "", "Serve the event feed on this address (e.g. :8080)")
	runCmd.Flags().StringVar(&flagSave, "save", "", "Save the factory under this name when stopping")
}

func addSourceFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagScenario, "scenario", "", "Built-in scenario ID (default: smelter)")
	cmd.Flags().StringVar(&flagLayout, "layout", "", "Path to a layout YAML file")
	cmd.Flags().StringVar(&flagResume, "resume", "", "Resume a saved factory by name")
	cmd.MarkFlagsMutuallyExclusive("scenario", "layout", "resume")
}

// beatLimit stops a real-time run after a number of beats.
type beatLimit struct {
	f      *factory.Factory
	limit  uint64
	cancel context.CancelFunc
}

func (b beatLimit) Step(dt float64) {
	b.f.Step(dt)
	if b.limit > 0 && b.f.Clock().Ticks() >= b.limit {
		b.cancel()
	}
}

// simulate steps f without waiting on the wall clock until it has
// dispatched beats ticks or ctx is done.
func simulate(ctx context.Context, f *factory.Factory, beats uint64, stepsPerSecond int) {
	if stepsPerSecond < 1 {
		stepsPerSecond = 30
	}
	dt := 1 / float64(stepsPerSecond)
	for f.Clock().Ticks() < beats && ctx.Err() == nil {
		f.Step(dt)
	}
}

func runRun(cmd *cobra.Command, args []string) {
	logger := newLogger("beltworks")

	if flagFast && flagBeats == 0 {
		exitf("--fast requires --beats")
	}

	cfg, err := loadConfig()
	if err != nil {
		exitf("%v", err)
	}
	settings, err := cfg.Settings()
	if err != nil {
		exitf("%v", err)
	}

	var store *storage.Store
	if flagSave != "" || flagResume != "" {
		store, err = storage.Open(flagDBPath)
		if err != nil {
			exitf("cannot open saves database: %v", err)
		}
		defer store.Close()
	}

	f, scenario, err := buildFactory(source{scenario: flagScenario, layout: flagLayout, resume: flagResume}, settings, store, logger)
	if err != nil {
		exitf("%v", err)
	}
	f.Subscribe(eventLogger(logger))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if flagWSAddr != "" {
		hub := ws.NewHub(logger.WithPrefix("ws"))
		f.Subscribe(hub)
		go func() {
			if err := hub.Serve(ctx, flagWSAddr); err != nil {
				logger.Error("event feed stopped", "err", err)
			}
		}()
	}

	target := uint64(0)
	if flagBeats > 0 {
		target = f.Clock().Ticks() + flagBeats
	}
	logger.Info("factory running", "scenario", scenario, "bpm", f.Clock().BPM(), "beats", flagBeats)

	if flagFast {
		simulate(ctx, f, target, cfg.Clock.StepsPerSecond)
	} else {
		runCtx, cancel := context.WithCancel(ctx)
		err := clock.Run(runCtx, cfg.Clock.StepsPerSecond, beatLimit{f: f, limit: target, cancel: cancel})
		cancel()
		if err != nil && !errors.Is(err, context.Canceled) {
			exitf("%v", err)
		}
	}

	st := f.Stats()
	fmt.Printf("Beat %d (%d ticks): %d machines, %d broken, %d belts, %d items on belts, %d in inventory\n",
		st.Beat, st.Ticks, st.Machines, st.Broken, st.Belts, st.OnBelts, st.Stored)
	for _, s := range f.Inventory().Stacks() {
		fmt.Printf("  %s\n", s)
	}

	if flagSave != "" {
		if _, err := store.SaveSnapshot(flagSave, scenario, f.Snapshot()); err != nil {
			exitf("cannot save: %v", err)
		}
		logger.Info("factory saved", "slot", flagSave)
	}
}
