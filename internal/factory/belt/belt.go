// Package belt implements conveyor belts: single-slot 1x1 occupants that
// link into chains, promote to corners when a line turns, and hand items
// forward during the clock's belt phase.
package belt

import (
	"github.com/vovakirdan/beltworks/internal/factory/grid"
	"github.com/vovakirdan/beltworks/internal/factory/item"
)

// Turn is the corner kind of a belt.
type Turn uint8

const (
	Straight Turn = iota
	Left
	Right
)

// String returns the string representation of a turn.
func (t Turn) String() string {
	switch t {
	case Straight:
		return "straight"
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return "unknown"
	}
}

// ParseTurn parses the output of Turn.String.
func ParseTurn(s string) (Turn, bool) {
	switch s {
	case "", "straight", "none":
		return Straight, true
	case "left":
		return Left, true
	case "right":
		return Right, true
	default:
		return Straight, false
	}
}

// Belt is one conveyor segment. Its orientation is the direction items
// enter it; a corner sends them out along its turn.
type Belt struct {
	ID int

	net     *Network
	slot    item.Item
	full    bool
	arrived uint64

	prev, next *Belt

	turn   Turn
	locked bool
}

// BaseSize implements grid.Occupant.
func (b *Belt) BaseSize() grid.Size {
	return grid.S(1, 1)
}

// Orientation returns the belt's travel orientation.
func (b *Belt) Orientation() grid.Orientation {
	p, _ := b.net.grid.PlacementOf(b)
	return p.Orientation
}

// Cell returns the belt's cell.
func (b *Belt) Cell() grid.Cell {
	p, _ := b.net.grid.PlacementOf(b)
	return p.Anchor
}

// Placed reports whether the belt is on the grid.
func (b *Belt) Placed() bool {
	_, ok := b.net.grid.PlacementOf(b)
	return ok
}

// Turn returns the corner kind.
func (b *Belt) Turn() Turn { return b.turn }

// IsCorner reports whether the belt turns.
func (b *Belt) IsCorner() bool { return b.turn != Straight }

// Locked reports whether the corner kind is fixed.
func (b *Belt) Locked() bool { return b.locked }

// Prev returns the belt feeding this one, if linked.
func (b *Belt) Prev() *Belt { return b.prev }

// Next returns the belt this one feeds, if linked.
func (b *Belt) Next() *Belt { return b.next }

// ForwardDir returns the direction items leave the belt.
func (b *Belt) ForwardDir() grid.Orientation {
	o := b.Orientation()
	switch b.turn {
	case Right:
		return o.CW()
	case Left:
		return o.CCW()
	default:
		return o
	}
}

// ForwardCell returns the cell items are pushed into.
func (b *Belt) ForwardCell() grid.Cell {
	return b.Cell().Step(b.ForwardDir())
}

// CanEnter reports whether an item travelling in direction travel may
// enter. Straight belts take items travelling their own way; corners also
// take items along either turn direction.
func (b *Belt) CanEnter(travel grid.Orientation) bool {
	o := b.Orientation()
	if travel == o {
		return true
	}
	return b.IsCorner() && (travel == o.CW() || travel == o.CCW())
}

// AcceptsFrom reports whether an output port facing side may deliver here.
func (b *Belt) AcceptsFrom(side grid.Orientation) bool {
	return b.CanEnter(side)
}

// HasItem reports whether the slot is occupied.
func (b *Belt) HasItem() bool { return b.full }

// Item returns the item in the slot.
func (b *Belt) Item() (item.Item, bool) {
	return b.slot, b.full
}

// TryReceive puts it in the empty slot. An item received during a beat
// does not move until the next belt phase.
func (b *Belt) TryReceive(it item.Item) bool {
	if b.full {
		return false
	}
	b.slot = it
	b.full = true
	b.arrived = b.net.serial
	return true
}

// Take empties the slot.
func (b *Belt) Take() (item.Item, bool) {
	if !b.full {
		return item.Item{}, false
	}
	it := b.slot
	b.slot = item.Item{}
	b.full = false
	return it, true
}

// LockCorner fixes the belt as a corner of kind t.
func (b *Belt) LockCorner(t Turn) {
	b.turn = t
	b.locked = true
}
