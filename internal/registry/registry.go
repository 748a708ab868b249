// Package registry provides a global registry for factory scenarios.
// Scenarios register themselves in init() functions, allowing the CLI and
// the interactive stepper to discover them without hardcoded dependencies.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/vovakirdan/beltworks/internal/factory"
)

// Scenario is a named starting layout for a factory.
type Scenario interface {
	// ID returns a unique identifier for this scenario (e.g., "smelter").
	// Used for CLI commands and save slots.
	ID() string

	// Title returns a human-readable name for display.
	Title() string

	// Description returns a one-line summary.
	Description() string

	// Build lays the scenario out on an empty factory.
	Build(f *factory.Factory) error
}

// ScenarioInfo contains metadata about a registered scenario.
type ScenarioInfo struct {
	ID          string
	Title       string
	Description string
}

// Constructor is a function that creates a new instance of a scenario.
type Constructor func() Scenario

var (
	constructors = make(map[string]Constructor)
	infos        = make(map[string]ScenarioInfo)
	mu           sync.RWMutex
)

// Register adds a scenario to the registry.
// Typically called from an init() function.
// Panics if a scenario with the same ID is already registered.
func Register(id string, c Constructor) {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := constructors[id]; exists {
		panic(fmt.Sprintf("registry: scenario %q already registered", id))
	}

	constructors[id] = c

	// Get metadata by creating a temporary instance
	s := c()
	infos[id] = ScenarioInfo{
		ID:          id,
		Title:       s.Title(),
		Description: s.Description(),
	}
}

// List returns information about all registered scenarios, sorted by ID.
func List() []ScenarioInfo {
	mu.RLock()
	defer mu.RUnlock()

	result := make([]ScenarioInfo, 0, len(infos))
	for _, info := range infos {
		result = append(result, info)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	return result
}

// Create instantiates a new scenario by its ID.
// Returns an error if the scenario ID is not registered.
func Create(id string) (Scenario, error) {
	mu.RLock()
	defer mu.RUnlock()

	c, ok := constructors[id]
	if !ok {
		return nil, fmt.Errorf("registry: unknown scenario %q", id)
	}

	return c(), nil
}

// Exists checks if a scenario with the given ID is registered.
func Exists(id string) bool {
	mu.RLock()
	defer mu.RUnlock()

	_, ok := constructors[id]
	return ok
}
