package belt

import (
	"errors"
	"io"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/beltworks/internal/factory/event"
	"github.com/vovakirdan/beltworks/internal/factory/grid"
	"github.com/vovakirdan/beltworks/internal/factory/item"
	"github.com/vovakirdan/beltworks/internal/factory/machine"
)

var (
	// ErrNotAdjacent is returned when a belt is not straight ahead of or
	// beside its parent.
	ErrNotAdjacent = errors.New("belt: not adjacent to parent")
	// ErrAlreadyLinked is returned when the parent already feeds a belt.
	ErrAlreadyLinked = errors.New("belt: parent already linked")
	// ErrCornerLocked is returned when extending a locked corner the
	// other way.
	ErrCornerLocked = errors.New("belt: corner locked")
)

// Acceptor is a non-belt occupant that belts can push items into.
// *machine.Machine implements it.
type Acceptor interface {
	AcceptFrom(from grid.Cell, travel grid.Orientation, it item.Item) bool
}

// Options configures a Network.
type Options struct {
	// Milestones are chain lengths that raise ChainLengthReached once each.
	Milestones []int
	Events     event.Sink
	Logger     *log.Logger
}

// Network tracks every belt on a grid.
type Network struct {
	grid   *grid.Grid
	events event.Sink
	logger *log.Logger

	belts  []*Belt
	nextID int
	serial uint64

	milestones []int
	fired      map[int]bool
}

// NewNetwork creates an empty network over g.
func NewNetwork(g *grid.Grid, opts Options) *Network {
	if opts.Events == nil {
		opts.Events = event.Discard
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	ms := append([]int(nil), opts.Milestones...)
	sort.Ints(ms)
	return &Network{
		grid:       g,
		events:     opts.Events,
		logger:     opts.Logger,
		serial:     1,
		milestones: ms,
		fired:      make(map[int]bool),
	}
}

// NewBelt creates an unplaced belt owned by the network.
func (n *Network) NewBelt() *Belt {
	n.nextID++
	return &Belt{ID: n.nextID, net: n}
}

// NewBeltWithID creates an unplaced belt with a fixed ID, for restores.
func (n *Network) NewBeltWithID(id int) *Belt {
	if id > n.nextID {
		n.nextID = id
	}
	return &Belt{ID: id, net: n}
}

// Belts returns the belts in placement order.
func (n *Network) Belts() []*Belt {
	return append([]*Belt(nil), n.belts...)
}

// Len returns the number of belts.
func (n *Network) Len() int {
	return len(n.belts)
}

// ReceiverAt implements machine.Network.
func (n *Network) ReceiverAt(c grid.Cell) (machine.Receiver, bool) {
	b, ok := n.BeltAt(c)
	if !ok {
		return nil, false
	}
	return b, true
}

// BeltAt returns the belt covering c.
func (n *Network) BeltAt(c grid.Cell) (*Belt, bool) {
	b, ok := n.grid.At(c).(*Belt)
	return b, ok
}

// Add registers a belt that has just been placed on the grid and links it
// to an unlinked belt in its forward cell.
func (n *Network) Add(b *Belt) {
	n.belts = append(n.belts, b)

	if b.next == nil {
		dir := b.ForwardDir()
		if fwd, ok := n.BeltAt(b.Cell().Step(dir)); ok && fwd != b && fwd.prev == nil && fwd.CanEnter(dir) {
			n.link(b, fwd)
		}
	}
	n.checkMilestones(b)
}

// Insert registers a placed belt without linking it. Used when restoring
// snapshots, where links are set explicitly.
func (n *Network) Insert(b *Belt) {
	n.belts = append(n.belts, b)
}

// Extension describes how a belt at a cell would extend a parent.
type Extension struct {
	Orientation grid.Orientation // orientation of the new belt
	Turn        Turn             // corner kind the parent becomes
}

// CheckExtend validates extending parent with a belt at c without changing
// anything.
func (n *Network) CheckExtend(parent *Belt, c grid.Cell) (Extension, error) {
	dir, ok := grid.Between(parent.Cell(), c)
	if !ok {
		return Extension{}, ErrNotAdjacent
	}
	if parent.next != nil {
		return Extension{}, ErrAlreadyLinked
	}
	o := parent.Orientation()
	var turn Turn
	switch dir {
	case o:
		turn = Straight
	case o.CW():
		turn = Right
	case o.CCW():
		turn = Left
	default:
		return Extension{}, ErrNotAdjacent
	}
	if parent.locked && parent.turn != turn {
		return Extension{}, ErrCornerLocked
	}
	return Extension{Orientation: dir, Turn: turn}, nil
}

// Attach links a placed child to parent, promoting the parent to a locked
// corner when the child sits at one of its turn cells. The child must
// already be on the grid with the orientation CheckExtend returned.
func (n *Network) Attach(parent, child *Belt) error {
	ext, err := n.CheckExtend(parent, child.Cell())
	if err != nil {
		return err
	}
	if ext.Turn != Straight && !parent.locked {
		parent.LockCorner(ext.Turn)
		n.logger.Debug("belt promoted to corner", "belt", parent.ID, "turn", ext.Turn)
	}
	if child.prev != nil && child.prev != parent {
		child.prev.next = nil
	}
	n.link(parent, child)
	n.checkMilestones(child)
	return nil
}

func (n *Network) link(prev, next *Belt) {
	prev.next = next
	next.prev = prev
}

// Link connects two belts directly. Used when restoring snapshots.
func (n *Network) Link(prev, next *Belt) {
	if prev.next != nil && prev.next != next {
		prev.next.prev = nil
	}
	if next.prev != nil && next.prev != prev {
		next.prev.next = nil
	}
	n.link(prev, next)
}

// Configure sets the corner state directly. Used when restoring snapshots.
func (n *Network) Configure(b *Belt, t Turn, locked bool) {
	b.turn = t
	b.locked = locked
}

// Load puts it on b as if it had been there before the current beat.
// Used when restoring snapshots.
func (n *Network) Load(b *Belt, it item.Item) bool {
	if b.full {
		return false
	}
	b.slot = it
	b.full = true
	b.arrived = 0
	return true
}

// Remove unlinks b and forgets it. The caller removes it from the grid.
// The item it carried, if any, is returned.
func (n *Network) Remove(b *Belt) (item.Item, bool) {
	if b.prev != nil && b.prev.next == b {
		b.prev.next = nil
	}
	if b.next != nil && b.next.prev == b {
		b.next.prev = nil
	}
	b.prev, b.next = nil, nil
	for i, other := range n.belts {
		if other == b {
			n.belts = append(n.belts[:i], n.belts[i+1:]...)
			break
		}
	}
	return b.Take()
}

// ChainLength counts the belts reachable from b through prev and next
// links. Cycles are counted once.
func (n *Network) ChainLength(b *Belt) int {
	if b == nil {
		return 0
	}
	seen := map[*Belt]bool{b: true}
	for cur := b.prev; cur != nil && !seen[cur]; cur = cur.prev {
		seen[cur] = true
	}
	for cur := b.next; cur != nil && !seen[cur]; cur = cur.next {
		seen[cur] = true
	}
	return len(seen)
}

func (n *Network) checkMilestones(b *Belt) {
	if len(n.milestones) == 0 {
		return
	}
	length := n.ChainLength(b)
	for _, m := range n.milestones {
		if m > length {
			break
		}
		if n.fired[m] {
			continue
		}
		n.fired[m] = true
		n.logger.Info("belt chain milestone", "length", m)
		n.events.Publish(event.ChainLengthReached{Length: m})
	}
}

// Advance runs the belt phase: every item that did not arrive during this
// beat moves one cell forward if the occupant there accepts it. Passes
// repeat in placement order until nothing moves, so a packed line advances
// as a whole.
func (n *Network) Advance(beat int) int {
	moved := 0
	for {
		progress := false
		for _, b := range n.belts {
			if !b.full || b.arrived == n.serial {
				continue
			}
			if n.push(b) {
				progress = true
				moved++
			}
		}
		if !progress {
			break
		}
	}
	n.serial++
	return moved
}

func (n *Network) push(b *Belt) bool {
	dir := b.ForwardDir()
	from := b.Cell()
	switch dst := n.grid.At(from.Step(dir)).(type) {
	case *Belt:
		if dst.full || !dst.CanEnter(dir) {
			return false
		}
		it, _ := b.Take()
		dst.TryReceive(it)
		return true
	case Acceptor:
		if !dst.AcceptFrom(from, dir, b.slot) {
			return false
		}
		b.Take()
		return true
	default:
		return false
	}
}

// Items returns the number of items riding belts.
func (n *Network) Items() int {
	count := 0
	for _, b := range n.belts {
		if b.full {
			count++
		}
	}
	return count
}
