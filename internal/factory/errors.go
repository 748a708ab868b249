package factory

import (
	"errors"

	"github.com/vovakirdan/beltworks/internal/factory/belt"
	"github.com/vovakirdan/beltworks/internal/factory/grid"
)

var (
	// ErrNoFreeArea is returned when no free area of the required size can
	// be found. The grid is left untouched.
	ErrNoFreeArea = grid.ErrNoFreeArea
	// ErrOutOfBounds is returned when a footprint leaves the grid.
	ErrOutOfBounds = grid.ErrOutOfBounds
	// ErrOccupied is returned when a footprint overlaps another occupant.
	ErrOccupied = grid.ErrOccupied
	// ErrNotPlaced is returned for occupants this factory does not own.
	ErrNotPlaced = grid.ErrNotPlaced
	// ErrNotAdjacent is returned when a belt extension does not touch its
	// parent.
	ErrNotAdjacent = belt.ErrNotAdjacent
	// ErrUnknownKind is returned for machine kinds missing from the catalog.
	ErrUnknownKind = errors.New("factory: unknown machine kind")
	// ErrNotEmpty is returned when restoring into a factory that has
	// occupants.
	ErrNotEmpty = errors.New("factory: not empty")
)
