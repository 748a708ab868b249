// Package scenarios registers the built-in factory layouts. Importing it
// for side effects makes them available through the registry.
package scenarios

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/vovakirdan/beltworks/internal/factory"
	"github.com/vovakirdan/beltworks/internal/layout"
	"github.com/vovakirdan/beltworks/internal/registry"
)

//go:embed layouts/*.yaml
var layouts embed.FS

// LayoutScenario is a scenario backed by a layout file.
type LayoutScenario struct {
	id     string
	layout *layout.Layout
}

// ID implements registry.Scenario.
func (s *LayoutScenario) ID() string { return s.id }

// Title implements registry.Scenario.
func (s *LayoutScenario) Title() string { return s.layout.Name }

// Description implements registry.Scenario.
func (s *LayoutScenario) Description() string { return s.layout.Description }

// Layout returns the underlying layout.
func (s *LayoutScenario) Layout() *layout.Layout { return s.layout }

// Build implements registry.Scenario.
func (s *LayoutScenario) Build(f *factory.Factory) error {
	_, err := s.layout.Apply(f)
	return err
}

// FromLayout wraps a parsed layout as a scenario.
func FromLayout(id string, l *layout.Layout) *LayoutScenario {
	return &LayoutScenario{id: id, layout: l}
}

// Builtin returns the embedded layouts by scenario ID.
func Builtin() (map[string]*layout.Layout, error) {
	entries, err := fs.ReadDir(layouts, "layouts")
	if err != nil {
		return nil, err
	}
	out := make(map[string]*layout.Layout, len(entries))
	for _, e := range entries {
		data, err := layouts.ReadFile(path.Join("layouts", e.Name()))
		if err != nil {
			return nil, err
		}
		l, err := layout.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", e.Name(), err)
		}
		out[strings.TrimSuffix(e.Name(), path.Ext(e.Name()))] = l
	}
	return out, nil
}

func init() {
	builtin, err := Builtin()
	if err != nil {
		panic(err)
	}
	for id, l := range builtin {
		registry.Register(id, func() registry.Scenario { return FromLayout(id, l) })
	}
}
