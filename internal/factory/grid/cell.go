package grid

import "fmt"

// Cell is an integer grid coordinate.
// X increases to the East, Y increases to the North.
type Cell struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// C is a convenience constructor for Cell.
func C(x, y int) Cell {
	return Cell{X: x, Y: y}
}

// String returns a string representation of the cell.
func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// Add returns a new Cell offset by (dx, dy).
func (c Cell) Add(dx, dy int) Cell {
	return Cell{X: c.X + dx, Y: c.Y + dy}
}

// AddCell returns the sum of two cells.
func (c Cell) AddCell(other Cell) Cell {
	return Cell{X: c.X + other.X, Y: c.Y + other.Y}
}

// Step returns the neighbouring cell in the given direction.
func (c Cell) Step(o Orientation) Cell {
	dx, dy := o.Delta()
	return c.Add(dx, dy)
}

// Manhattan returns the Manhattan distance to another cell.
func (c Cell) Manhattan(other Cell) int {
	return Abs(c.X-other.X) + Abs(c.Y-other.Y)
}

// Size is a footprint in cells.
type Size struct {
	W int `json:"w" yaml:"w"`
	H int `json:"h" yaml:"h"`
}

// S is a convenience constructor for Size.
func S(w, h int) Size {
	return Size{W: w, H: h}
}

// Oriented returns the footprint after applying o: East and West swap
// width and height.
func (s Size) Oriented(o Orientation) Size {
	if o.Swaps() {
		return Size{W: s.H, H: s.W}
	}
	return s
}

// Area returns the number of cells covered.
func (s Size) Area() int {
	return s.W * s.H
}

// Valid reports whether both dimensions are positive.
func (s Size) Valid() bool {
	return s.W > 0 && s.H > 0
}

// Vec3 is a world-space position. The grid lies on the X/Z plane and Y is
// height.
type Vec3 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// V3 is a convenience constructor for Vec3.
func V3(x, y, z float64) Vec3 {
	return Vec3{X: x, Y: y, Z: z}
}
