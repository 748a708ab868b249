package config

import (
	"fmt"

	"github.com/vovakirdan/beltworks/internal/factory"
	"github.com/vovakirdan/beltworks/internal/factory/grid"
	"github.com/vovakirdan/beltworks/internal/factory/item"
	"github.com/vovakirdan/beltworks/internal/factory/machine"
	"github.com/vovakirdan/beltworks/internal/factory/port"
)

// Settings validates the configuration and converts it to factory settings.
func (c Config) Settings() (factory.Settings, error) {
	if err := c.Validate(); err != nil {
		return factory.Settings{}, err
	}

	s := factory.Settings{
		Cols:            c.Grid.Cols,
		Rows:            c.Grid.Rows,
		CellSize:        c.Grid.CellSize,
		Origin:          grid.V3(c.Grid.Origin.X, c.Grid.Origin.Y, c.Grid.Origin.Z),
		BPM:             c.Clock.BPM,
		BeatsPerMeasure: c.Clock.BeatsPerMeasure,
		ChainMilestones: append([]int(nil), c.Belts.ChainMilestones...),
		GeneratorRetry:  c.Machines.GeneratorRetry,
		Seed:            c.Seed,
		Catalog:         make(map[string]machine.Definition, len(c.Machines.Catalog)),
	}
	for _, m := range c.Machines.Catalog {
		def, err := m.Definition()
		if err != nil {
			return factory.Settings{}, err
		}
		s.Catalog[m.Kind] = def
	}
	return s, nil
}

// Definition converts the catalog entry to a machine definition.
func (m MachineConfig) Definition() (machine.Definition, error) {
	def := machine.Definition{
		Kind:           m.Kind,
		Size:           grid.S(m.Size.W, m.Size.H),
		InputMaterial:  item.Material(m.Input),
		OutputMaterial: item.Material(m.Output),
		Duration:       m.Duration,
		BreakIncrement: m.BreakIncrement,
		MinBreakChance: m.MinBreakChance,
	}
	for _, r := range m.Recipes {
		def.Recipes = append(def.Recipes, machine.Recipe{
			Name:     r.Name,
			Duration: r.Duration,
			Inputs:   stacks(r.Inputs),
			Outputs:  stacks(r.Outputs),
		})
	}
	for _, p := range m.Ports {
		kind, err := port.ParseKind(p.Kind)
		if err != nil {
			return machine.Definition{}, fmt.Errorf("%s: %w", m.Kind, err)
		}
		side, ok := grid.ParseOrientation(p.Side)
		if !ok {
			return machine.Definition{}, fmt.Errorf("%s: unknown port side %q", m.Kind, p.Side)
		}
		offset := port.Centered
		if p.Offset != nil {
			offset = *p.Offset
		}
		def.Ports = append(def.Ports, port.Def{Kind: kind, Side: side, Offset: offset})
	}
	return def, nil
}

func stacks(in []StackConfig) []item.Stack {
	out := make([]item.Stack, 0, len(in))
	for _, s := range in {
		out = append(out, item.Stack{Material: item.Material(s.Material), Amount: s.Amount})
	}
	return out
}
