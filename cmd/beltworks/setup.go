package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"golang.org/x/term"

	"github.com/vovakirdan/beltworks/internal/config"
	"github.com/vovakirdan/beltworks/internal/factory"
	"github.com/vovakirdan/beltworks/internal/factory/event"
	"github.com/vovakirdan/beltworks/internal/layout"
	"github.com/vovakirdan/beltworks/internal/registry"
	"github.com/vovakirdan/beltworks/internal/scenarios"
	"github.com/vovakirdan/beltworks/internal/storage"
)

// source selects what a factory is built from.
type source struct {
	scenario string
	layout   string
	resume   string
}

// newLogger builds the process logger. Non-terminal stderr gets JSON lines.
func newLogger(prefix string) *log.Logger {
	level, err := log.ParseLevel(flagLogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	opts := log.Options{
		Level:           level,
		ReportTimestamp: true,
		Prefix:          prefix,
	}
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		opts.Formatter = log.JSONFormatter
	}
	return log.NewWithOptions(os.Stderr, opts)
}

// loadConfig loads the config and applies the global overrides.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return cfg, err
	}
	preset, err := config.ParseWearPreset(flagWear)
	if err != nil {
		return cfg, err
	}
	config.ApplyWearPreset(&cfg, preset)
	if flagSeed != 0 {
		cfg.Seed = flagSeed
	}
	return cfg, nil
}

// buildFactory creates a factory from a scenario, a layout file or a save.
// It returns the ID recorded with later saves.
func buildFactory(src source, settings factory.Settings, store *storage.Store, logger *log.Logger) (*factory.Factory, string, error) {
	switch {
	case src.resume != "":
		if store == nil {
			return nil, "", fmt.Errorf("cannot resume %q without a save database", src.resume)
		}
		snap, info, err := store.LoadSnapshot(src.resume)
		if err != nil {
			return nil, "", err
		}
		f, err := factory.Load(settings, snap, logger)
		if err != nil {
			return nil, "", err
		}
		logger.Info("save restored", "slot", info.Name, "beat", info.Beat, "machines", info.Machines)
		return f, info.Scenario, nil

	case src.layout != "":
		l, err := layout.LoadFile(src.layout)
		if err != nil {
			return nil, "", err
		}
		f := factory.New(settings, logger)
		if err := scenarios.FromLayout("layout", l).Build(f); err != nil {
			return nil, "", fmt.Errorf("layout %s: %w", src.layout, err)
		}
		return f, l.Name, nil

	default:
		id := src.scenario
		if id == "" {
			id = "smelter"
		}
		sc, err := registry.Create(id)
		if err != nil {
			return nil, "", err
		}
		f := factory.New(settings, logger)
		if err := sc.Build(f); err != nil {
			return nil, "", fmt.Errorf("scenario %s: %w", id, err)
		}
		return f, id, nil
	}
}

// eventLogger logs notable notifications.
func eventLogger(logger *log.Logger) event.Sink {
	return event.SinkFunc(func(e event.Event) {
		switch e := e.(type) {
		case event.MachineBroken:
			logger.Warn("machine broke", "machine", e.MachineID, "kind", e.Kind, "at", e.Position)
		case event.MachineRepaired:
			logger.Info("machine repaired", "machine", e.MachineID, "kind", e.Kind)
		case event.MaterialProduced:
			logger.Debug("material produced", "machine", e.MachineID, "material", e.Material, "delivered", e.Delivered)
		case event.ChainLengthReached:
			logger.Info("belt chain milestone", "length", e.Length)
		}
	})
}
