package config

import (
	"fmt"
	"math"
)

// WearPreset represents a named machine wear level.
type WearPreset string

const (
	WearEasy   WearPreset = "easy"
	WearNormal WearPreset = "normal"
	WearHard   WearPreset = "hard"
	WearFixed  WearPreset = "fixed" // machines never break
)

// ParseWearPreset parses a preset name. An empty name is normal wear.
func ParseWearPreset(s string) (WearPreset, error) {
	switch WearPreset(s) {
	case "", WearNormal:
		return WearNormal, nil
	case WearEasy, WearHard, WearFixed:
		return WearPreset(s), nil
	default:
		return "", fmt.Errorf("unknown wear preset %q (want easy, normal, hard or fixed)", s)
	}
}

// WearMultiplierForPreset returns the factor applied to break increments.
func WearMultiplierForPreset(preset WearPreset) float64 {
	switch preset {
	case WearEasy:
		return 0.5
	case WearHard:
		return 2.0
	case WearFixed:
		return 0.0
	default:
		return 1.0
	}
}

// ApplyWearPreset scales every machine's breakage parameters.
func ApplyWearPreset(cfg *Config, preset WearPreset) {
	mult := WearMultiplierForPreset(preset)
	for i := range cfg.Machines.Catalog {
		m := &cfg.Machines.Catalog[i]
		m.BreakIncrement *= mult

		// Adjust the draw floor based on wear
		switch preset {
		case WearEasy:
			m.MinBreakChance = clampF(m.MinBreakChance+10, 0, 99)
		case WearHard:
			m.MinBreakChance = clampF(m.MinBreakChance-5, 0, 99)
		}
	}
}

// clampF restricts a float64 to [min, max].
func clampF(val, min, max float64) float64 {
	return math.Max(min, math.Min(max, val))
}
