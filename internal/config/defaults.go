package config

import (
	_ "embed"
)

//go:embed defaults/factory.yaml
var defaultFactoryYAML []byte

// DefaultYAML returns the embedded default configuration file.
func DefaultYAML() []byte {
	return append([]byte(nil), defaultFactoryYAML...)
}

// Default returns the hard-coded default configuration. It mirrors the
// embedded defaults/factory.yaml and is used when that file cannot be parsed.
func Default() Config {
	zero, one := 0, 1
	return Config{
		Seed: 1,
		Clock: ClockConfig{
			BPM:             120,
			BeatsPerMeasure: 4,
			StepsPerSecond:  30,
		},
		Grid: GridConfig{
			Cols:     24,
			Rows:     16,
			CellSize: 1,
		},
		Belts: BeltConfig{
			ChainMilestones: []int{5, 10, 20},
		},
		Machines: MachinesConfig{
			GeneratorRetry: 0.5,
			Catalog: []MachineConfig{
				{
					Kind:           "mine",
					Size:           SizeConfig{W: 1, H: 1},
					Duration:       2,
					Output:         "ore",
					BreakIncrement: 0.5,
				},
				{
					Kind:           "furnace",
					Size:           SizeConfig{W: 1, H: 1},
					Duration:       3,
					Input:          "ore",
					Output:         "ingot",
					BreakIncrement: 1.5,
					MinBreakChance: 5,
					Ports: []PortConfig{
						{Kind: "input", Side: "south"},
						{Kind: "output", Side: "north"},
					},
				},
				{
					Kind:           "crusher",
					Size:           SizeConfig{W: 1, H: 1},
					Duration:       1.5,
					BreakIncrement: 1,
					Recipes: []RecipeConfig{
						{
							Name:    "dust",
							Inputs:  []StackConfig{{Material: "ore", Amount: 1}},
							Outputs: []StackConfig{{Material: "dust", Amount: 2}},
						},
					},
				},
				{
					Kind:           "assembler",
					Size:           SizeConfig{W: 2, H: 1},
					Duration:       4,
					BreakIncrement: 2,
					MinBreakChance: 10,
					Recipes: []RecipeConfig{
						{
							Name:    "gear",
							Inputs:  []StackConfig{{Material: "ingot", Amount: 2}},
							Outputs: []StackConfig{{Material: "gear", Amount: 1}},
						},
						{
							Name:     "plate",
							Duration: 2,
							Inputs:   []StackConfig{{Material: "ingot", Amount: 1}},
							Outputs:  []StackConfig{{Material: "plate", Amount: 1}},
						},
					},
					Ports: []PortConfig{
						{Kind: "input", Side: "south", Offset: &zero},
						{Kind: "input", Side: "west"},
						{Kind: "output", Side: "north", Offset: &one},
					},
				},
			},
		},
	}
}
