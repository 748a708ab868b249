// Package port resolves machine port definitions to world cells and sides.
// Everything here is a pure function of a definition, a footprint and the
// occupant's current placement; nothing is cached.
package port

import (
	"fmt"

	"github.com/vovakirdan/beltworks/internal/factory/grid"
)

// Kind distinguishes input ports from output ports.
type Kind uint8

const (
	Input Kind = iota
	Output
)

// String returns the string representation of a port kind.
func (k Kind) String() string {
	switch k {
	case Input:
		return "input"
	case Output:
		return "output"
	default:
		return "unknown"
	}
}

// ParseKind parses "input" or "output".
func ParseKind(s string) (Kind, error) {
	switch s {
	case "input", "in":
		return Input, nil
	case "output", "out":
		return Output, nil
	default:
		return Input, fmt.Errorf("port: unknown kind %q", s)
	}
}

// Centered is the offset that places a port in the middle of its side.
const Centered = -1

// Def is a port declared in the machine's unrotated frame.
type Def struct {
	Kind   Kind
	Side   grid.Orientation // local side, North = the machine's facing side
	Offset int              // cells along the side, Centered for the middle
}

// Port is a resolved port: the cell just outside the footprint and the
// world side it faces.
type Port struct {
	Cell grid.Cell
	Side grid.Orientation
}

// DefaultOutput is used when a machine declares no output ports: a single
// output centred on the facing side.
func DefaultOutput() Def {
	return Def{Kind: Output, Side: grid.North, Offset: Centered}
}

// WorldSide rotates a local side by the occupant's orientation.
func WorldSide(local, o grid.Orientation) grid.Orientation {
	return local.Add(o)
}

// localCell returns the perimeter cell for d in the unrotated frame of a
// w×h footprint whose bottom-left cell is (0,0).
func localCell(d Def, base grid.Size) grid.Cell {
	length := base.W
	if d.Side == grid.East || d.Side == grid.West {
		length = base.H
	}
	i := d.Offset
	if i < 0 {
		i = (length - 1) / 2
	}
	i = grid.Clamp(i, 0, length-1)

	switch d.Side {
	case grid.North:
		return grid.C(i, base.H)
	case grid.South:
		return grid.C(i, -1)
	case grid.East:
		return grid.C(base.W, i)
	default:
		return grid.C(-1, i)
	}
}

// rotateCW turns a local cell one quarter clockwise inside a w×h frame.
// The frame becomes h×w.
func rotateCW(c grid.Cell, size grid.Size) (grid.Cell, grid.Size) {
	return grid.C(c.Y, size.W-1-c.X), grid.S(size.H, size.W)
}

// Resolve returns the world cell and side of d for an occupant with the
// given base footprint and placement.
func Resolve(d Def, base grid.Size, p grid.Placement) Port {
	c := localCell(d, base)
	size := base
	for k := 0; k < int(p.Orientation%4); k++ {
		c, size = rotateCW(c, size)
	}
	return Port{
		Cell: p.Anchor.AddCell(c),
		Side: WorldSide(d.Side, p.Orientation),
	}
}

// Filter returns the definitions of the requested kind, in declaration
// order. When no outputs are declared the default output is returned.
func Filter(defs []Def, kind Kind) []Def {
	var out []Def
	for _, d := range defs {
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	if len(out) == 0 && kind == Output {
		out = append(out, DefaultOutput())
	}
	return out
}

// ResolveAll resolves every port of the given kind in declaration order.
func ResolveAll(defs []Def, kind Kind, base grid.Size, p grid.Placement) []Port {
	filtered := Filter(defs, kind)
	ports := make([]Port, len(filtered))
	for i, d := range filtered {
		ports[i] = Resolve(d, base, p)
	}
	return ports
}

// Cells returns the world cells of every port of the given kind.
func Cells(defs []Def, kind Kind, base grid.Size, p grid.Placement) []grid.Cell {
	ports := ResolveAll(defs, kind, base, p)
	cells := make([]grid.Cell, len(ports))
	for i, pt := range ports {
		cells[i] = pt.Cell
	}
	return cells
}
