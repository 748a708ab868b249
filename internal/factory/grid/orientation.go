// Package grid provides the occupancy index for the factory floor.
// It is pure bookkeeping: it knows which occupant covers which cell and
// how cells map to world space, but nothing about production.
package grid

import "strings"

// Orientation is one of the four compass rotations applied to footprints,
// ports and belt travel. Values are stored as 0-3 in clockwise order.
type Orientation uint8

const (
	North Orientation = iota
	East
	South
	West
)

// Orientations lists all rotations in clockwise order.
var Orientations = [4]Orientation{North, East, South, West}

// String returns the string representation of an orientation.
func (o Orientation) String() string {
	switch o {
	case North:
		return "North"
	case East:
		return "East"
	case South:
		return "South"
	case West:
		return "West"
	default:
		return "Unknown"
	}
}

// Valid reports whether o is one of the four rotations.
func (o Orientation) Valid() bool {
	return o <= West
}

// Delta returns the (dx, dy) offset for moving one cell in this direction.
// North increases Y (the anchor is the bottom-left cell).
func (o Orientation) Delta() (dx, dy int) {
	switch o {
	case North:
		return 0, 1
	case East:
		return 1, 0
	case South:
		return 0, -1
	case West:
		return -1, 0
	default:
		return 0, 0
	}
}

// Opposite returns the opposite direction.
func (o Orientation) Opposite() Orientation {
	return (o + 2) % 4
}

// CW returns o rotated 90 degrees clockwise.
func (o Orientation) CW() Orientation {
	return (o + 1) % 4
}

// CCW returns o rotated 90 degrees counter-clockwise.
func (o Orientation) CCW() Orientation {
	return (o + 3) % 4
}

// Rotate returns o turned one step in the requested direction.
func (o Orientation) Rotate(clockwise bool) Orientation {
	if clockwise {
		return o.CW()
	}
	return o.CCW()
}

// Add composes two rotations (North is the identity).
func (o Orientation) Add(other Orientation) Orientation {
	return (o + other) % 4
}

// Degrees returns the rotation in degrees clockwise from North.
func (o Orientation) Degrees() int {
	return int(o%4) * 90
}

// Swaps reports whether the rotation swaps footprint width and height.
func (o Orientation) Swaps() bool {
	return o == East || o == West
}

// ParseOrientation accepts compass names ("north", "N") and degree values
// ("0", "90", "180", "270").
func ParseOrientation(s string) (Orientation, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "north", "n", "up", "0":
		return North, true
	case "east", "e", "right", "90":
		return East, true
	case "south", "s", "down", "180":
		return South, true
	case "west", "w", "left", "270":
		return West, true
	default:
		return North, false
	}
}

// Between returns the direction of the single step leading from a to b.
// ok is false when the cells are not orthogonal neighbours.
func Between(a, b Cell) (dir Orientation, ok bool) {
	for _, o := range Orientations {
		if a.Step(o) == b {
			return o, true
		}
	}
	return North, false
}
