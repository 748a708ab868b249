// Package layout loads factory layouts from YAML files and applies them to
// a Factory. Layout files are checked against an embedded JSON schema
// before they are decoded.
package layout

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/vovakirdan/beltworks/internal/factory"
	"github.com/vovakirdan/beltworks/internal/factory/grid"
	"github.com/vovakirdan/beltworks/internal/factory/item"
	"github.com/vovakirdan/beltworks/internal/factory/machine"
)

// Layout is a parsed layout file.
type Layout struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description,omitempty"`
	Machines    []MachineSpec  `yaml:"machines,omitempty"`
	Belts       []BeltSpec     `yaml:"belts,omitempty"`
	Inventory   map[string]int `yaml:"inventory,omitempty"`
	Feed        []FeedSpec     `yaml:"feed,omitempty"`
}

// Cell is a grid cell in a layout file.
type Cell struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

// MachineSpec places one machine.
type MachineSpec struct {
	Label  string `yaml:"label,omitempty"`
	Kind   string `yaml:"kind"`
	At     Cell   `yaml:"at"`
	Facing string `yaml:"facing,omitempty"` // north when omitted
	Near   bool   `yaml:"near,omitempty"`   // place at the nearest free area instead of failing
}

// BeltSpec lays a belt line. The first belt sits at From facing Facing;
// each Path entry extends the line one cell in that direction.
type BeltSpec struct {
	From   Cell     `yaml:"from"`
	Facing string   `yaml:"facing"`
	Path   []string `yaml:"path,omitempty"`
}

// FeedSpec queues material directly into a labelled machine.
type FeedSpec struct {
	Machine  string `yaml:"machine"`
	Material string `yaml:"material"`
	Amount   int    `yaml:"amount,omitempty"` // 1 when omitted
}

// Parse validates data against the layout schema and decodes it.
func Parse(data []byte) (*Layout, error) {
	if err := Validate(data); err != nil {
		return nil, err
	}
	var l Layout
	if err := yaml.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("yaml unmarshal: %w", err)
	}
	labels := make(map[string]bool)
	for _, m := range l.Machines {
		if m.Label == "" {
			continue
		}
		if labels[m.Label] {
			return nil, fmt.Errorf("layout %s: duplicate machine label %q", l.Name, m.Label)
		}
		labels[m.Label] = true
	}
	for _, f := range l.Feed {
		if !labels[f.Machine] {
			return nil, fmt.Errorf("layout %s: feed targets unknown machine %q", l.Name, f.Machine)
		}
	}
	return &l, nil
}

// LoadFile reads and parses a layout file.
func LoadFile(path string) (*Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", path, err)
	}
	l, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing file %s: %w", path, err)
	}
	return l, nil
}

// Apply builds the layout on f: belts first so generators see their
// output belts, then machines, inventory and feeds. It returns the placed
// machines by label.
func (l *Layout) Apply(f *factory.Factory) (map[string]*machine.Machine, error) {
	for i, b := range l.Belts {
		if err := l.layBelt(f, b); err != nil {
			return nil, fmt.Errorf("layout %s: belt %d: %w", l.Name, i, err)
		}
	}

	placed := make(map[string]*machine.Machine)
	for _, spec := range l.Machines {
		o := orientation(spec.Facing)
		at := grid.C(spec.At.X, spec.At.Y)
		var (
			m   *machine.Machine
			err error
		)
		if spec.Near {
			m, err = f.PlaceMachineNear(spec.Kind, at, o)
		} else {
			m, err = f.PlaceMachine(spec.Kind, at, o)
		}
		if err != nil {
			return nil, fmt.Errorf("layout %s: machine %q: %w", l.Name, spec.label(), err)
		}
		if spec.Label != "" {
			placed[spec.Label] = m
		}
	}

	materials := make([]string, 0, len(l.Inventory))
	for mat := range l.Inventory {
		materials = append(materials, mat)
	}
	sort.Strings(materials)
	for _, mat := range materials {
		f.Inventory().Deposit(item.Material(mat), l.Inventory[mat])
	}

	for _, fd := range l.Feed {
		m := placed[fd.Machine]
		amount := fd.Amount
		if amount <= 0 {
			amount = 1
		}
		for n := 0; n < amount; n++ {
			if !m.TryQueueInventoryItem(item.Material(fd.Material)) {
				return nil, fmt.Errorf("layout %s: machine %q does not accept %s", l.Name, fd.Machine, fd.Material)
			}
		}
	}
	return placed, nil
}

func (l *Layout) layBelt(f *factory.Factory, spec BeltSpec) error {
	cur, err := f.PlaceBelt(grid.C(spec.From.X, spec.From.Y), orientation(spec.Facing))
	if err != nil {
		return err
	}
	for _, step := range spec.Path {
		next, err := f.ExtendBelt(cur, cur.Cell().Step(orientation(step)))
		if err != nil {
			return err
		}
		cur = next
	}
	return nil
}

// Kinds returns the machine kinds the layout uses, sorted.
func (l *Layout) Kinds() []string {
	seen := make(map[string]bool)
	var kinds []string
	for _, m := range l.Machines {
		if !seen[m.Kind] {
			seen[m.Kind] = true
			kinds = append(kinds, m.Kind)
		}
	}
	sort.Strings(kinds)
	return kinds
}

// BeltCount returns how many belts the layout lays.
func (l *Layout) BeltCount() int {
	n := 0
	for _, b := range l.Belts {
		n += 1 + len(b.Path)
	}
	return n
}

func (s MachineSpec) label() string {
	if s.Label != "" {
		return s.Label
	}
	return fmt.Sprintf("%s@%d,%d", s.Kind, s.At.X, s.At.Y)
}

// orientation parses a schema-checked facing. Empty means north.
func orientation(s string) grid.Orientation {
	o, _ := grid.ParseOrientation(s)
	return o
}
