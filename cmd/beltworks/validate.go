package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/beltworks/internal/config"
	"github.com/vovakirdan/beltworks/internal/factory"
	"github.com/vovakirdan/beltworks/internal/layout"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check config and layout files",
	Long: `Check a factory config or a layout file without running it.

A layout is also applied to an empty factory built from the current
config, so placement conflicts are reported too.

Examples:
  beltworks validate config ./factory.yaml
  beltworks validate layout ./line.yaml
  beltworks validate layout ./line.yaml --config ./factory.yaml`,
}

var validateConfigCmd = &cobra.Command{
	Use:   "config <file>",
	Short: "Check a factory config",
	Args:  cobra.ExactArgs(1),
	Run:   runValidateConfig,
}

var validateLayoutCmd = &cobra.Command{
	Use:   "layout <file>",
	Short: "Check a layout file",
	Args:  cobra.ExactArgs(1),
	Run:   runValidateLayout,
}

func init() {
	validateCmd.AddCommand(validateConfigCmd, validateLayoutCmd)
}

func runValidateConfig(cmd *cobra.Command, args []string) {
	data, err := os.ReadFile(args[0])
	if err != nil {
		exitf("%v", err)
	}
	cfg, err := config.Parse(data)
	if err != nil {
		exitf("%v", err)
	}
	if _, err := cfg.Settings(); err != nil {
		exitf("%v", err)
	}
	fmt.Printf("%s: ok (%d machine kinds, %dx%d grid, %.0f bpm)\n",
		args[0], len(cfg.Machines.Catalog), cfg.Grid.Cols, cfg.Grid.Rows, cfg.Clock.BPM)
}

func runValidateLayout(cmd *cobra.Command, args []string) {
	l, err := layout.LoadFile(args[0])
	if err != nil {
		exitf("%v", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		exitf("%v", err)
	}
	settings, err := cfg.Settings()
	if err != nil {
		exitf("%v", err)
	}
	if _, err := l.Apply(factory.New(settings, nil)); err != nil {
		exitf("%s: %v", args[0], err)
	}
	fmt.Printf("%s: ok (%d machines, %d belts)\n", args[0], len(l.Machines), l.BeltCount())
}
