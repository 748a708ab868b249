package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/beltworks/internal/platform/tui"
	"github.com/vovakirdan/beltworks/internal/storage"
)

var flagSlot string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Step a factory in the terminal",
	Long: `Run a factory in an interactive terminal view.

Controls:
  P/Space    - Pause
  N          - Dispatch a single beat
  +/-        - Change tempo
  R          - Repair every broken machine
  S          - Save to the --slot name
  Up/Down    - Scroll the machine table
  Q/Ctrl+C   - Quit

Examples:
  beltworks watch
  beltworks watch --scenario workshop --wear hard
  beltworks watch --layout ./line.yaml --slot line
  beltworks watch --resume line`,
	Run: runWatch,
}

func init() {
	addSourceFlags(watchCmd)
	watchCmd.Flags().StringVar(&flagSlot, "slot", "", "Save slot for the save key (default: the scenario ID)")
}

func runWatch(cmd *cobra.Command, args []string) {
	// The alternate screen owns the terminal, so diagnostics are dropped
	// unless debugging.
	logger := log.New(io.Discard)
	if flagLogLevel == "debug" {
		logger = newLogger("beltworks")
	}

	cfg, err := loadConfig()
	if err != nil {
		exitf("%v", err)
	}
	settings, err := cfg.Settings()
	if err != nil {
		exitf("%v", err)
	}

	store, err := storage.Open(flagDBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not open saves database: %v\n", err)
		// Continue without storage
		store = nil
	}

	f, scenario, err := buildFactory(source{scenario: flagScenario, layout: flagLayout, resume: flagResume}, settings, store, logger)
	if err != nil {
		if store != nil {
			store.Close()
		}
		exitf("%v", err)
	}

	slot := flagSlot
	if slot == "" {
		slot = flagResume
	}
	if slot == "" {
		slot = scenario
	}

	runErr := tui.Run(f, tui.Options{
		Scenario:       scenario,
		StepsPerSecond: cfg.Clock.StepsPerSecond,
		Store:          store,
		SaveName:       slot,
		Logger:         logger,
	})

	if store != nil {
		store.Close()
	}
	if runErr != nil {
		exitf("running stepper: %v", runErr)
	}
}
