package machine

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/beltworks/internal/factory/event"
	"github.com/vovakirdan/beltworks/internal/factory/grid"
	"github.com/vovakirdan/beltworks/internal/factory/item"
)

// Locator reports where an occupant sits. *grid.Grid implements it.
type Locator interface {
	PlacementOf(occ grid.Occupant) (grid.Placement, bool)
}

// Receiver is something at a port cell that can take one item.
type Receiver interface {
	// AcceptsFrom reports whether an item leaving a port that faces side
	// may enter.
	AcceptsFrom(side grid.Orientation) bool
	HasItem() bool
	TryReceive(it item.Item) bool
}

// Network finds receivers by cell.
type Network interface {
	ReceiverAt(c grid.Cell) (Receiver, bool)
}

// Economy is the fallback sink for outputs no belt accepted.
type Economy interface {
	Deposit(m item.Material, amount int)
}

// Random is the breakage draw source. *rand.Rand implements it.
type Random interface {
	Float64() float64
}

// Env holds the collaborators a machine needs once placed.
type Env struct {
	Grid    Locator
	Network Network
	Economy Economy
	Events  event.Sink
	Rand    Random
	Items   *item.Sequence
	Logger  *log.Logger

	// GeneratorRetry is the delay in seconds before a generator with no
	// free output belt tries again.
	GeneratorRetry float64
}

// DefaultGeneratorRetry is used when Env.GeneratorRetry is not positive.
const DefaultGeneratorRetry = 0.5

func (e Env) withDefaults() Env {
	if e.Network == nil {
		e.Network = nullNetwork{}
	}
	if e.Events == nil {
		e.Events = event.Discard
	}
	if e.Items == nil {
		e.Items = &item.Sequence{}
	}
	if e.Logger == nil {
		e.Logger = log.New(io.Discard)
	}
	if e.GeneratorRetry <= 0 {
		e.GeneratorRetry = DefaultGeneratorRetry
	}
	return e
}

type nullNetwork struct{}

func (nullNetwork) ReceiverAt(grid.Cell) (Receiver, bool) { return nil, false }
