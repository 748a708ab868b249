package grid

import (
	"errors"
	"math"
	"sort"
)

var (
	// ErrOutOfBounds is returned when a footprint leaves the grid.
	ErrOutOfBounds = errors.New("grid: area out of bounds")
	// ErrOccupied is returned when a footprint overlaps another occupant.
	ErrOccupied = errors.New("grid: area occupied")
	// ErrNoFreeArea is returned when no free area of the requested size exists.
	ErrNoFreeArea = errors.New("grid: no free area")
	// ErrNotPlaced is returned for occupants the grid does not know.
	ErrNotPlaced = errors.New("grid: occupant not placed")
)

// Occupant is anything that can be placed on the grid.
type Occupant interface {
	// BaseSize is the unrotated footprint.
	BaseSize() Size
}

// Placement is the authoritative anchor and orientation of an occupant.
type Placement struct {
	Anchor      Cell        `json:"anchor"`
	Orientation Orientation `json:"orientation"`
}

// Size returns the oriented footprint of occ under this placement.
func (p Placement) Size(occ Occupant) Size {
	return occ.BaseSize().Oriented(p.Orientation)
}

type entry struct {
	occ       Occupant
	placement Placement
	seq       uint64
}

// Grid maps cells to occupants.
// Cells are stored in row-major order: index = y*Cols + x.
type Grid struct {
	Cols     int
	Rows     int
	CellSize float64
	Origin   Vec3

	cells   []Occupant
	entries map[Occupant]*entry
	seq     uint64
}

// New creates an empty grid. cellSize must be positive.
func New(cols, rows int, cellSize float64, origin Vec3) *Grid {
	if cols < 0 {
		cols = 0
	}
	if rows < 0 {
		rows = 0
	}
	if cellSize <= 0 {
		cellSize = 1
	}
	return &Grid{
		Cols:     cols,
		Rows:     rows,
		CellSize: cellSize,
		Origin:   origin,
		cells:    make([]Occupant, cols*rows),
		entries:  make(map[Occupant]*entry),
	}
}

func (g *Grid) index(c Cell) int {
	return c.Y*g.Cols + c.X
}

// IsInside returns true if the cell is within the grid boundaries.
func (g *Grid) IsInside(c Cell) bool {
	return c.X >= 0 && c.X < g.Cols && c.Y >= 0 && c.Y < g.Rows
}

// IsAreaInside returns true if every cell of the footprint is inside.
func (g *Grid) IsAreaInside(anchor Cell, size Size) bool {
	if !size.Valid() {
		return false
	}
	return g.IsInside(anchor) && g.IsInside(anchor.Add(size.W-1, size.H-1))
}

// IsAreaFree reports whether every cell of the footprint is unoccupied or
// occupied by excluding. Cells outside the grid are never free.
func (g *Grid) IsAreaFree(anchor Cell, size Size, excluding Occupant) bool {
	if !g.IsAreaInside(anchor, size) {
		return false
	}
	for y := anchor.Y; y < anchor.Y+size.H; y++ {
		for x := anchor.X; x < anchor.X+size.W; x++ {
			occ := g.cells[g.index(C(x, y))]
			if occ != nil && (excluding == nil || occ != excluding) {
				return false
			}
		}
	}
	return true
}

// SetAreaOccupant writes occ into every in-bounds cell of the footprint.
// A nil occ clears the area. It does not check for overlap.
func (g *Grid) SetAreaOccupant(anchor Cell, size Size, occ Occupant) {
	for y := anchor.Y; y < anchor.Y+size.H; y++ {
		for x := anchor.X; x < anchor.X+size.W; x++ {
			c := C(x, y)
			if g.IsInside(c) {
				g.cells[g.index(c)] = occ
			}
		}
	}
}

// At returns the occupant covering the cell, or nil.
func (g *Grid) At(c Cell) Occupant {
	if !g.IsInside(c) {
		return nil
	}
	return g.cells[g.index(c)]
}

// WorldToCell converts a world position to the cell containing it.
func (g *Grid) WorldToCell(p Vec3) Cell {
	x := math.Floor((p.X - g.Origin.X) / g.CellSize)
	y := math.Floor((p.Z - g.Origin.Z) / g.CellSize)
	return C(int(x), int(y))
}

// CellToWorldCenter returns the world-space center of a cell at height y.
func (g *Grid) CellToWorldCenter(c Cell, y float64) Vec3 {
	return Vec3{
		X: g.Origin.X + (float64(c.X)+0.5)*g.CellSize,
		Y: g.Origin.Y + y,
		Z: g.Origin.Z + (float64(c.Y)+0.5)*g.CellSize,
	}
}

// AnchorToWorldCenter returns the world-space center of a footprint.
func (g *Grid) AnchorToWorldCenter(anchor Cell, size Size, height float64) Vec3 {
	return Vec3{
		X: g.Origin.X + (float64(anchor.X)+float64(size.W)/2)*g.CellSize,
		Y: g.Origin.Y + height,
		Z: g.Origin.Z + (float64(anchor.Y)+float64(size.H)/2)*g.CellSize,
	}
}

// ClampAnchor moves desired so the footprint stays inside the grid.
// Footprints larger than the grid are pinned to the origin cell.
func (g *Grid) ClampAnchor(desired Cell, size Size) Cell {
	maxX := g.Cols - size.W
	maxY := g.Rows - size.H
	if maxX < 0 {
		maxX = 0
	}
	if maxY < 0 {
		maxY = 0
	}
	return C(Clamp(desired.X, 0, maxX), Clamp(desired.Y, 0, maxY))
}

// FindNearestFreeArea returns desired if the footprint fits there, otherwise
// the first free anchor found on square rings of growing radius around it.
// Each ring scans its top and bottom rows (x ascending, top before bottom),
// then its left and right columns (y ascending, left before right).
func (g *Grid) FindNearestFreeArea(desired Cell, size Size, excluding Occupant) (Cell, bool) {
	if g.IsAreaFree(desired, size, excluding) {
		return desired, true
	}
	maxRadius := g.Cols
	if g.Rows > maxRadius {
		maxRadius = g.Rows
	}
	try := func(c Cell) bool {
		return g.IsAreaFree(c, size, excluding)
	}
	for r := 1; r <= maxRadius; r++ {
		for dx := -r; dx <= r; dx++ {
			if c := desired.Add(dx, r); try(c) {
				return c, true
			}
			if c := desired.Add(dx, -r); try(c) {
				return c, true
			}
		}
		for dy := -r + 1; dy <= r-1; dy++ {
			if c := desired.Add(-r, dy); try(c) {
				return c, true
			}
			if c := desired.Add(r, dy); try(c) {
				return c, true
			}
		}
	}
	return Cell{}, false
}

// Place validates and records occ at anchor with orientation o. Placing an
// occupant that is already on the grid moves it; its own cells count as
// free. On error the grid is unchanged.
func (g *Grid) Place(occ Occupant, anchor Cell, o Orientation) error {
	size := occ.BaseSize().Oriented(o)
	if !g.IsAreaInside(anchor, size) {
		return ErrOutOfBounds
	}
	if !g.IsAreaFree(anchor, size, occ) {
		return ErrOccupied
	}
	e, ok := g.entries[occ]
	if ok {
		g.SetAreaOccupant(e.placement.Anchor, e.placement.Size(occ), nil)
	} else {
		g.seq++
		e = &entry{occ: occ, seq: g.seq}
		g.entries[occ] = e
	}
	e.placement = Placement{Anchor: anchor, Orientation: o}
	g.SetAreaOccupant(anchor, size, occ)
	return nil
}

// Reorient changes the orientation of a placed occupant in place.
func (g *Grid) Reorient(occ Occupant, o Orientation) error {
	e, ok := g.entries[occ]
	if !ok {
		return ErrNotPlaced
	}
	return g.Place(occ, e.placement.Anchor, o)
}

// Remove clears occ from the grid. It reports whether occ was placed.
func (g *Grid) Remove(occ Occupant) bool {
	e, ok := g.entries[occ]
	if !ok {
		return false
	}
	g.SetAreaOccupant(e.placement.Anchor, e.placement.Size(occ), nil)
	delete(g.entries, occ)
	return true
}

// PlacementOf returns the placement of occ.
func (g *Grid) PlacementOf(occ Occupant) (Placement, bool) {
	e, ok := g.entries[occ]
	if !ok {
		return Placement{}, false
	}
	return e.placement, true
}

// Footprint returns the rectangle covered by a placed occupant.
func (g *Grid) Footprint(occ Occupant) (Rect, bool) {
	e, ok := g.entries[occ]
	if !ok {
		return Rect{}, false
	}
	return RectOf(e.placement.Anchor, e.placement.Size(occ)), true
}

// Occupants returns all placed occupants in placement order.
func (g *Grid) Occupants() []Occupant {
	list := make([]*entry, 0, len(g.entries))
	for _, e := range g.entries {
		list = append(list, e)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].seq < list[j].seq })
	out := make([]Occupant, len(list))
	for i, e := range list {
		out[i] = e.occ
	}
	return out
}

// Len returns the number of placed occupants.
func (g *Grid) Len() int {
	return len(g.entries)
}
