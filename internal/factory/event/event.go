// Package event defines the notifications raised by the factory kernel and
// the sinks that deliver them to observers.
package event

import (
	"github.com/vovakirdan/beltworks/internal/factory/grid"
	"github.com/vovakirdan/beltworks/internal/factory/item"
)

// Event is a notification raised by the kernel.
type Event interface {
	// EventType returns a stable name used on the wire.
	EventType() string
	factoryEvent()
}

// MachineBroken is raised when a machine breaks after releasing an output.
type MachineBroken struct {
	MachineID int       `json:"machine_id"`
	Kind      string    `json:"kind"`
	Position  grid.Cell `json:"position"`
}

func (MachineBroken) EventType() string { return "machine_broken" }
func (MachineBroken) factoryEvent()     {}

// MachineRepaired is raised when a broken machine is repaired.
type MachineRepaired struct {
	MachineID int    `json:"machine_id"`
	Kind      string `json:"kind"`
}

func (MachineRepaired) EventType() string { return "machine_repaired" }
func (MachineRepaired) factoryEvent()     {}

// MaterialProduced is raised for every output a machine releases.
type MaterialProduced struct {
	MachineID int           `json:"machine_id"`
	Material  item.Material `json:"material"`
	Position  grid.Cell     `json:"position"`
	Recipe    string        `json:"recipe,omitempty"` // empty in legacy mode
	Delivered bool          `json:"delivered"`        // false when it went to inventory
}

func (MaterialProduced) EventType() string { return "material_produced" }
func (MaterialProduced) factoryEvent()     {}

// ProductionProgress reports the progress of the active cycle (0..1).
type ProductionProgress struct {
	MachineID int     `json:"machine_id"`
	Progress  float64 `json:"progress"`
}

func (ProductionProgress) EventType() string { return "production_progress" }
func (ProductionProgress) factoryEvent()     {}

// Beat is raised between the machine and belt phases of every tick.
type Beat struct {
	Index int `json:"index"`
}

func (Beat) EventType() string { return "beat" }
func (Beat) factoryEvent()     {}

// ChainLengthReached is raised once per configured belt chain milestone.
type ChainLengthReached struct {
	Length int `json:"length"`
}

func (ChainLengthReached) EventType() string { return "chain_length_reached" }
func (ChainLengthReached) factoryEvent()     {}
