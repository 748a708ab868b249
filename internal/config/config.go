// Package config provides YAML-based factory configuration loading and
// machine wear presets.
package config

// Config contains all configuration for a factory.
type Config struct {
	Seed     int64          `yaml:"seed"`
	Clock    ClockConfig    `yaml:"clock"`
	Grid     GridConfig     `yaml:"grid"`
	Belts    BeltConfig     `yaml:"belts"`
	Machines MachinesConfig `yaml:"machines"`
}

// ClockConfig defines the beat cadence and the real-time step rate.
type ClockConfig struct {
	BPM             float64 `yaml:"bpm"`
	BeatsPerMeasure int     `yaml:"beats_per_measure"`
	StepsPerSecond  int     `yaml:"steps_per_second"` // simulation steps when running in real time
}

// GridConfig defines the factory floor.
type GridConfig struct {
	Cols     int        `yaml:"cols"`
	Rows     int        `yaml:"rows"`
	CellSize float64    `yaml:"cell_size"`
	Origin   Vec3Config `yaml:"origin"` // world position of cell (0,0)'s corner
}

// Vec3Config is a world-space point.
type Vec3Config struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

// BeltConfig defines belt network parameters.
type BeltConfig struct {
	ChainMilestones []int `yaml:"chain_milestones"`
}

// MachinesConfig holds the machine catalog.
type MachinesConfig struct {
	GeneratorRetry float64         `yaml:"generator_retry"` // seconds between generator start attempts
	Catalog        []MachineConfig `yaml:"catalog"`
}

// MachineConfig defines one machine kind.
type MachineConfig struct {
	Kind           string         `yaml:"kind"`
	Size           SizeConfig     `yaml:"size"`
	Duration       float64        `yaml:"duration"`
	Input          string         `yaml:"input,omitempty"`
	Output         string         `yaml:"output,omitempty"`
	BreakIncrement float64        `yaml:"break_increment"`
	MinBreakChance float64        `yaml:"min_break_chance"`
	Recipes        []RecipeConfig `yaml:"recipes,omitempty"`
	Ports          []PortConfig   `yaml:"ports,omitempty"`
}

// SizeConfig is a footprint in cells.
type SizeConfig struct {
	W int `yaml:"w"`
	H int `yaml:"h"`
}

// RecipeConfig defines a recipe. A zero duration uses the machine's.
type RecipeConfig struct {
	Name     string        `yaml:"name"`
	Duration float64       `yaml:"duration,omitempty"`
	Inputs   []StackConfig `yaml:"inputs"`
	Outputs  []StackConfig `yaml:"outputs"`
}

// StackConfig is an amount of one material.
type StackConfig struct {
	Material string `yaml:"material"`
	Amount   int    `yaml:"amount"`
}

// PortConfig defines a port on the machine's unrotated footprint.
type PortConfig struct {
	Kind   string `yaml:"kind"`             // "input" or "output"
	Side   string `yaml:"side"`             // north, east, south, west
	Offset *int   `yaml:"offset,omitempty"` // cell along the side; centered when omitted
}

// Kind returns the catalog entry for kind.
func (c Config) Kind(kind string) (MachineConfig, bool) {
	for _, m := range c.Machines.Catalog {
		if m.Kind == kind {
			return m, true
		}
	}
	return MachineConfig{}, false
}
