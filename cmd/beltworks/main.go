// beltworks simulates a beat-driven factory floor: machines on a grid,
// conveyor belts between them, and a clock that moves everything in step.
//
// Usage:
//
//	beltworks list                    - List built-in scenarios
//	beltworks run --scenario <id>     - Run a factory headless
//	beltworks watch --scenario <id>   - Step a factory in the terminal
//	beltworks serve                   - Start SSH server for remote watching
//	beltworks saves                   - List, inspect and delete saves
//	beltworks validate <file>         - Check a config or layout file
//
// Global flags:
//
//	--config <path>     - Factory config YAML
//	--seed <value>      - Override the config's RNG seed
//	--wear <preset>     - Machine wear: easy, normal, hard, fixed
//	--db <path>         - Save database (default: ~/.beltworks/saves.db)
//	--log-level <level> - debug, info, warn, error
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	// Import scenarios to register them
	_ "github.com/vovakirdan/beltworks/internal/scenarios"
)

var (
	// Global flags
	flagConfig   string
	flagSeed     int64
	flagWear     string
	flagDBPath   string
	flagLogLevel string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "beltworks",
	Short: "Beltworks - a beat-driven factory simulation",
	Long: `Beltworks simulates a factory floor where machines produce materials
and conveyor belts carry them, all moving on the beat of a shared clock.

Available commands:
  list      - Show built-in scenarios
  run       - Run a factory headless, optionally streaming events
  watch     - Step a factory interactively in the terminal
  serve     - Start SSH server for remote watching
  saves     - Manage saved factories
  validate  - Check config and layout files

Examples:
  beltworks list
  beltworks run --scenario smelter --beats 64
  beltworks run --scenario workshop --ws :8080
  beltworks watch --layout ./my-line.yaml --wear easy
  beltworks saves list`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to factory config YAML")
	rootCmd.PersistentFlags().Int64Var(&flagSeed, "seed", 0, "RNG seed (0 = use the config's)")
	rootCmd.PersistentFlags().StringVar(&flagWear, "wear", "", "Wear preset: easy, normal, hard, fixed")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "~/.beltworks/saves.db", "Path to saves database")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(savesCmd)
	rootCmd.AddCommand(validateCmd)
}

// exitf prints an error and exits.
func exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
