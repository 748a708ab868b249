package grid

// Rect is an axis-aligned block of cells anchored at its bottom-left cell.
type Rect struct {
	X, Y int // Anchor (bottom-left cell)
	W, H int // Width and height in cells
}

// RectOf returns the rectangle covered by a footprint of size at anchor.
func RectOf(anchor Cell, size Size) Rect {
	return Rect{X: anchor.X, Y: anchor.Y, W: size.W, H: size.H}
}

// Right returns the x-coordinate one past the east edge.
func (r Rect) Right() int {
	return r.X + r.W
}

// Top returns the y-coordinate one past the north edge.
func (r Rect) Top() int {
	return r.Y + r.H
}

// Intersects returns true if this rectangle shares at least one cell with
// another.
func (r Rect) Intersects(other Rect) bool {
	if r.X >= other.Right() || other.X >= r.Right() {
		return false
	}
	if r.Y >= other.Top() || other.Y >= r.Top() {
		return false
	}
	return true
}

// Contains returns true if the cell is inside this rectangle.
func (r Rect) Contains(c Cell) bool {
	return c.X >= r.X && c.X < r.Right() && c.Y >= r.Y && c.Y < r.Top()
}

// Cells returns every covered cell in row-major order (bottom row first).
func (r Rect) Cells() []Cell {
	if r.W <= 0 || r.H <= 0 {
		return nil
	}
	cells := make([]Cell, 0, r.W*r.H)
	for y := r.Y; y < r.Top(); y++ {
		for x := r.X; x < r.Right(); x++ {
			cells = append(cells, C(x, y))
		}
	}
	return cells
}

// Clamp restricts a value to be within [min, max].
func Clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// Abs returns the absolute value of an integer.
func Abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
