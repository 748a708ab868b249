package config

import (
	"fmt"

	"github.com/vovakirdan/beltworks/internal/factory/grid"
	"github.com/vovakirdan/beltworks/internal/factory/port"
)

// ValidationError contains details about validation failure.
type ValidationError struct {
	Code    string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Validate performs comprehensive validation of the configuration.
// Checks:
//   - Clock tempo and measure are positive
//   - Grid dimensions are positive
//   - Machine kinds are unique with valid sizes, ports and recipes
func (c Config) Validate() error {
	// Check 1: Clock
	if c.Clock.BPM <= 0 {
		return ValidationError{
			Code:    "INVALID_CLOCK",
			Message: fmt.Sprintf("bpm must be positive, got %v", c.Clock.BPM),
		}
	}
	if c.Clock.BeatsPerMeasure < 1 {
		return ValidationError{
			Code:    "INVALID_CLOCK",
			Message: fmt.Sprintf("beats_per_measure must be at least 1, got %d", c.Clock.BeatsPerMeasure),
		}
	}
	if c.Clock.StepsPerSecond < 0 {
		return ValidationError{
			Code:    "INVALID_CLOCK",
			Message: fmt.Sprintf("steps_per_second must not be negative, got %d", c.Clock.StepsPerSecond),
		}
	}

	// Check 2: Grid
	if c.Grid.Cols <= 0 || c.Grid.Rows <= 0 {
		return ValidationError{
			Code:    "INVALID_GRID",
			Message: fmt.Sprintf("grid must be at least 1x1, got %dx%d", c.Grid.Cols, c.Grid.Rows),
		}
	}
	if c.Grid.CellSize <= 0 {
		return ValidationError{
			Code:    "INVALID_GRID",
			Message: fmt.Sprintf("cell_size must be positive, got %v", c.Grid.CellSize),
		}
	}

	// Check 3: Catalog
	if len(c.Machines.Catalog) == 0 {
		return ValidationError{Code: "EMPTY_CATALOG", Message: "no machine kinds configured"}
	}
	seen := make(map[string]bool)
	for _, m := range c.Machines.Catalog {
		if err := validateMachine(m); err != nil {
			return err
		}
		if seen[m.Kind] {
			return ValidationError{
				Code:    "DUPLICATE_KIND",
				Message: fmt.Sprintf("machine kind %q defined twice", m.Kind),
			}
		}
		seen[m.Kind] = true
	}

	return nil
}

// validateMachine checks one catalog entry.
func validateMachine(m MachineConfig) error {
	if m.Kind == "" {
		return ValidationError{Code: "INVALID_KIND", Message: "machine kind must not be empty"}
	}
	if m.Size.W <= 0 || m.Size.H <= 0 {
		return ValidationError{
			Code:    "INVALID_SIZE",
			Message: fmt.Sprintf("%s: size must be at least 1x1, got %dx%d", m.Kind, m.Size.W, m.Size.H),
		}
	}
	if m.Duration <= 0 {
		return ValidationError{
			Code:    "INVALID_DURATION",
			Message: fmt.Sprintf("%s: duration must be positive, got %v", m.Kind, m.Duration),
		}
	}
	if m.MinBreakChance < 0 || m.MinBreakChance >= 100 {
		return ValidationError{
			Code:    "INVALID_WEAR",
			Message: fmt.Sprintf("%s: min_break_chance must be in [0, 100), got %v", m.Kind, m.MinBreakChance),
		}
	}
	if m.BreakIncrement < 0 {
		return ValidationError{
			Code:    "INVALID_WEAR",
			Message: fmt.Sprintf("%s: break_increment must not be negative, got %v", m.Kind, m.BreakIncrement),
		}
	}
	if len(m.Recipes) > 0 && (m.Input != "" || m.Output != "") {
		return ValidationError{
			Code:    "MIXED_MODE",
			Message: fmt.Sprintf("%s: recipes cannot be combined with input/output materials", m.Kind),
		}
	}

	names := make(map[string]bool)
	for _, r := range m.Recipes {
		if r.Name == "" || names[r.Name] {
			return ValidationError{
				Code:    "INVALID_RECIPE",
				Message: fmt.Sprintf("%s: recipe names must be unique and non-empty, got %q", m.Kind, r.Name),
			}
		}
		names[r.Name] = true
		if len(r.Inputs) == 0 {
			return ValidationError{
				Code:    "INVALID_RECIPE",
				Message: fmt.Sprintf("%s/%s: recipe needs at least one input", m.Kind, r.Name),
			}
		}
		for _, s := range append(append([]StackConfig(nil), r.Inputs...), r.Outputs...) {
			if s.Material == "" || s.Amount <= 0 {
				return ValidationError{
					Code:    "INVALID_RECIPE",
					Message: fmt.Sprintf("%s/%s: invalid stack %q x%d", m.Kind, r.Name, s.Material, s.Amount),
				}
			}
		}
		if r.Duration < 0 {
			return ValidationError{
				Code:    "INVALID_RECIPE",
				Message: fmt.Sprintf("%s/%s: duration must not be negative", m.Kind, r.Name),
			}
		}
	}

	for _, p := range m.Ports {
		if _, err := port.ParseKind(p.Kind); err != nil {
			return ValidationError{
				Code:    "INVALID_PORT",
				Message: fmt.Sprintf("%s: %v", m.Kind, err),
			}
		}
		side, ok := grid.ParseOrientation(p.Side)
		if !ok {
			return ValidationError{
				Code:    "INVALID_PORT",
				Message: fmt.Sprintf("%s: unknown port side %q", m.Kind, p.Side),
			}
		}
		if p.Offset != nil {
			length := m.Size.W
			if side == grid.East || side == grid.West {
				length = m.Size.H
			}
			if *p.Offset < 0 || *p.Offset >= length {
				return ValidationError{
					Code:    "INVALID_PORT",
					Message: fmt.Sprintf("%s: port offset %d outside %s side of length %d", m.Kind, *p.Offset, side, length),
				}
			}
		}
	}

	return nil
}
