package machine

import "github.com/vovakirdan/beltworks/internal/factory/item"

// Recipe is an immutable input to output transformation.
type Recipe struct {
	Name     string
	Inputs   []item.Stack
	Outputs  []item.Stack
	Duration float64 // overrides the machine default when > 0
}

// Consumes reports whether m appears among the recipe inputs.
func (r Recipe) Consumes(m item.Material) bool {
	for _, in := range r.Inputs {
		if in.Material == m {
			return true
		}
	}
	return false
}

// Ready reports whether buffer satisfies every input requirement.
func (r Recipe) Ready(buffer map[item.Material]int) bool {
	for _, in := range r.Inputs {
		if buffer[in.Material] < in.Amount {
			return false
		}
	}
	return true
}

// FindReadyRecipe returns the index of the first recipe, in declaration
// order, whose inputs are all present in buffer.
func FindReadyRecipe(recipes []Recipe, buffer map[item.Material]int) (int, bool) {
	for i := range recipes {
		if recipes[i].Ready(buffer) {
			return i, true
		}
	}
	return -1, false
}
