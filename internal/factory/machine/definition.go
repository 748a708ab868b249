// Package machine implements the per-machine production state machine:
// recipe selection, timed production cycles, pending outputs released on
// the clock's machine phase, and probabilistic breakage.
package machine

import (
	"github.com/vovakirdan/beltworks/internal/factory/grid"
	"github.com/vovakirdan/beltworks/internal/factory/item"
	"github.com/vovakirdan/beltworks/internal/factory/port"
)

// Definition is the static data of a machine kind.
type Definition struct {
	Kind string
	Size grid.Size

	// Recipes are tried in declaration order. When empty the machine runs
	// in legacy mode using InputMaterial and OutputMaterial.
	Recipes        []Recipe
	InputMaterial  item.Material
	OutputMaterial item.Material

	Duration       float64 // default cycle length in seconds
	BreakIncrement float64 // breakage chance added per released output
	MinBreakChance float64 // floor of the break draw, in [0, 100)

	Ports []port.Def
}

// RecipeMode reports whether the machine selects from a recipe list.
func (d Definition) RecipeMode() bool {
	return len(d.Recipes) > 0
}

// IsGenerator reports whether the machine produces from nothing.
func (d Definition) IsGenerator() bool {
	return !d.RecipeMode() && d.InputMaterial == "" && d.OutputMaterial != ""
}

// Accepts reports whether the machine takes material as input.
// Recipe machines take anything some recipe consumes; legacy machines take
// their input material, or anything when none is configured. Generators
// take nothing.
func (d Definition) Accepts(m item.Material) bool {
	if d.RecipeMode() {
		for _, r := range d.Recipes {
			if r.Consumes(m) {
				return true
			}
		}
		return false
	}
	if d.IsGenerator() {
		return false
	}
	return d.InputMaterial == "" || d.InputMaterial == m
}

// Recipe finds a recipe by name.
func (d Definition) Recipe(name string) (Recipe, bool) {
	for _, r := range d.Recipes {
		if r.Name == name {
			return r, true
		}
	}
	return Recipe{}, false
}

// CycleDuration returns how long r takes on this machine.
func (d Definition) CycleDuration(r *Recipe) float64 {
	if r != nil && r.Duration > 0 {
		return r.Duration
	}
	return d.Duration
}
