// Package factory wires the production network kernel together: the
// occupancy grid, machines, the belt network and the beat clock. It exposes
// the placement contract used by interactive layers and the simulation
// step used by runners.
//
// A Factory is single-threaded. Placement calls and Step must come from the
// same goroutine.
package factory

import (
	"fmt"
	"io"
	"math/rand"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/beltworks/internal/factory/belt"
	"github.com/vovakirdan/beltworks/internal/factory/clock"
	"github.com/vovakirdan/beltworks/internal/factory/event"
	"github.com/vovakirdan/beltworks/internal/factory/grid"
	"github.com/vovakirdan/beltworks/internal/factory/item"
	"github.com/vovakirdan/beltworks/internal/factory/machine"
	"github.com/vovakirdan/beltworks/internal/factory/port"
)

// Settings configures a Factory.
type Settings struct {
	Cols     int
	Rows     int
	CellSize float64
	Origin   grid.Vec3

	BPM             float64
	BeatsPerMeasure int

	ChainMilestones []int
	GeneratorRetry  float64
	Seed            int64

	// Catalog maps machine kinds to their definitions.
	Catalog map[string]machine.Definition
}

type placedMachine struct {
	m      *machine.Machine
	cancel func()
}

// Factory is one simulated factory floor.
type Factory struct {
	settings Settings
	logger   *log.Logger

	grid      *grid.Grid
	belts     *belt.Network
	clock     *clock.Clock
	bus       *event.Bus
	inventory *Inventory
	rng       *rand.Rand
	items     item.Sequence

	machines      []*placedMachine
	nextMachineID int
}

// New creates an empty factory. A nil logger discards diagnostics.
func New(s Settings, logger *log.Logger) *Factory {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if s.Catalog == nil {
		s.Catalog = map[string]machine.Definition{}
	}
	f := &Factory{
		settings:  s,
		logger:    logger,
		grid:      grid.New(s.Cols, s.Rows, s.CellSize, s.Origin),
		clock:     clock.New(s.BPM, s.BeatsPerMeasure),
		bus:       event.NewBus(),
		inventory: NewInventory(),
		rng:       rand.New(rand.NewSource(s.Seed)),
	}
	f.belts = belt.NewNetwork(f.grid, belt.Options{
		Milestones: s.ChainMilestones,
		Events:     f.bus,
		Logger:     logger,
	})
	f.clock.OnBeat(func(beat int) {
		f.bus.Publish(event.Beat{Index: beat})
	})
	f.clock.OnBelts(func(beat int) {
		f.belts.Advance(beat)
	})
	return f
}

// Subscribe registers a notification sink.
func (f *Factory) Subscribe(s event.Sink) {
	f.bus.Subscribe(s)
}

// Grid returns the occupancy grid. Callers must not mutate it directly.
func (f *Factory) Grid() *grid.Grid { return f.grid }

// Clock returns the beat clock.
func (f *Factory) Clock() *clock.Clock { return f.clock }

// Belts returns the belt network.
func (f *Factory) Belts() *belt.Network { return f.belts }

// Inventory returns the fallback inventory.
func (f *Factory) Inventory() *Inventory { return f.inventory }

// Settings returns the settings the factory was built with.
func (f *Factory) Settings() Settings { return f.settings }

// Kinds returns the catalog's machine kinds, sorted.
func (f *Factory) Kinds() []string {
	kinds := make([]string, 0, len(f.settings.Catalog))
	for k := range f.settings.Catalog {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Machines returns the placed machines in placement order.
func (f *Factory) Machines() []*machine.Machine {
	out := make([]*machine.Machine, len(f.machines))
	for i, pm := range f.machines {
		out[i] = pm.m
	}
	return out
}

// Machine returns the placed machine with the given ID.
func (f *Factory) Machine(id int) (*machine.Machine, bool) {
	for _, pm := range f.machines {
		if pm.m.ID == id {
			return pm.m, true
		}
	}
	return nil, false
}

// NewMachine creates an unplaced machine of the given kind.
func (f *Factory) NewMachine(kind string) (*machine.Machine, error) {
	def, ok := f.settings.Catalog[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	f.nextMachineID++
	return machine.New(f.nextMachineID, def), nil
}

// NewBelt creates an unplaced belt.
func (f *Factory) NewBelt() *belt.Belt {
	return f.belts.NewBelt()
}

// IsAreaInside reports whether the footprint lies inside the grid.
func (f *Factory) IsAreaInside(anchor grid.Cell, size grid.Size) bool {
	return f.grid.IsAreaInside(anchor, size)
}

// IsAreaFree reports whether the footprint is inside the grid and free,
// ignoring excluding.
func (f *Factory) IsAreaFree(anchor grid.Cell, size grid.Size, excluding grid.Occupant) bool {
	return f.grid.IsAreaFree(anchor, size, excluding)
}

// FindNearestFreeArea returns the closest anchor at which size fits.
func (f *Factory) FindNearestFreeArea(anchor grid.Cell, size grid.Size) (grid.Cell, bool) {
	return f.grid.FindNearestFreeArea(anchor, size, nil)
}

// TryPlace places or moves occ. It reports false, leaving everything
// untouched, when the footprint is outside the grid or not free.
func (f *Factory) TryPlace(occ grid.Occupant, anchor grid.Cell, o grid.Orientation) bool {
	return f.Place(occ, anchor, o) == nil
}

// Place places or moves occ, registering new machines and belts with the
// simulation.
func (f *Factory) Place(occ grid.Occupant, anchor grid.Cell, o grid.Orientation) error {
	_, known := f.grid.PlacementOf(occ)
	if err := f.grid.Place(occ, anchor, o); err != nil {
		return err
	}
	if known {
		if b, ok := occ.(*belt.Belt); ok {
			f.relink(b)
		}
		return nil
	}
	switch v := occ.(type) {
	case *machine.Machine:
		f.register(v)
	case *belt.Belt:
		f.belts.Add(v)
	}
	return nil
}

func (f *Factory) register(m *machine.Machine) {
	pm := &placedMachine{m: m}
	pm.cancel = f.clock.OnMachines(m.OnMachinePhase)
	f.machines = append(f.machines, pm)
	if m.ID > f.nextMachineID {
		f.nextMachineID = m.ID
	}
	m.Initialize(machine.Env{
		Grid:           f.grid,
		Network:        f.belts,
		Economy:        f.inventory,
		Events:         f.bus,
		Rand:           f.rng,
		Items:          &f.items,
		Logger:         f.logger,
		GeneratorRetry: f.settings.GeneratorRetry,
	})
	f.logger.Debug("machine placed", "machine", m.ID, "kind", m.Kind())
}

// relink drops a moved belt's links and corner state, then lets it find a
// new forward belt.
func (f *Factory) relink(b *belt.Belt) {
	it, had := f.belts.Remove(b)
	f.belts.Configure(b, belt.Straight, false)
	f.belts.Add(b)
	if had {
		b.TryReceive(it)
	}
}

// PlaceMachine creates a machine of kind and places it at anchor.
func (f *Factory) PlaceMachine(kind string, anchor grid.Cell, o grid.Orientation) (*machine.Machine, error) {
	m, err := f.NewMachine(kind)
	if err != nil {
		return nil, err
	}
	if err := f.Place(m, anchor, o); err != nil {
		return nil, fmt.Errorf("place %s at %v: %w", kind, anchor, err)
	}
	return m, nil
}

// PlaceMachineNear places a machine at the nearest free area around
// desired.
func (f *Factory) PlaceMachineNear(kind string, desired grid.Cell, o grid.Orientation) (*machine.Machine, error) {
	def, ok := f.settings.Catalog[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	size := def.Size
	if !size.Valid() {
		size = grid.S(1, 1)
	}
	anchor, ok := f.grid.FindNearestFreeArea(f.grid.ClampAnchor(desired, size.Oriented(o)), size.Oriented(o), nil)
	if !ok {
		return nil, fmt.Errorf("place %s near %v: %w", kind, desired, ErrNoFreeArea)
	}
	return f.PlaceMachine(kind, anchor, o)
}

// PlaceBelt places a new belt at c travelling in direction o.
func (f *Factory) PlaceBelt(c grid.Cell, o grid.Orientation) (*belt.Belt, error) {
	b := f.belts.NewBelt()
	if err := f.Place(b, c, o); err != nil {
		return nil, fmt.Errorf("place belt at %v: %w", c, err)
	}
	return b, nil
}

// ExtendBelt places a belt at c fed by parent. The new belt faces away from
// the parent; the parent becomes a locked corner when c is beside it.
// Nothing changes on error.
func (f *Factory) ExtendBelt(parent *belt.Belt, c grid.Cell) (*belt.Belt, error) {
	if !parent.Placed() {
		return nil, ErrNotPlaced
	}
	ext, err := f.belts.CheckExtend(parent, c)
	if err != nil {
		return nil, fmt.Errorf("extend belt %d to %v: %w", parent.ID, c, err)
	}
	child := f.belts.NewBelt()
	if err := f.grid.Place(child, c, ext.Orientation); err != nil {
		return nil, fmt.Errorf("extend belt %d to %v: %w", parent.ID, c, err)
	}
	f.belts.Add(child)
	if err := f.belts.Attach(parent, child); err != nil {
		// CheckExtend passed, so only a programmer error lands here
		f.logger.Error("belt attach failed", "parent", parent.ID, "child", child.ID, "err", err)
	}
	return child, nil
}

// Remove takes occ off the grid. Buffered items, pending outputs and belt
// contents go to the inventory. While a tick is being dispatched the
// removal is applied once the tick finishes.
func (f *Factory) Remove(occ grid.Occupant) error {
	if _, ok := f.grid.PlacementOf(occ); !ok {
		return ErrNotPlaced
	}
	f.clock.AfterTick(func() { f.remove(occ) })
	return nil
}

func (f *Factory) remove(occ grid.Occupant) {
	if _, ok := f.grid.PlacementOf(occ); !ok {
		return
	}
	switch v := occ.(type) {
	case *machine.Machine:
		for i, pm := range f.machines {
			if pm.m == v {
				pm.cancel()
				f.machines = append(f.machines[:i], f.machines[i+1:]...)
				break
			}
		}
		for _, mat := range v.Shutdown() {
			f.inventory.Deposit(mat, 1)
		}
	case *belt.Belt:
		if it, ok := f.belts.Remove(v); ok {
			f.inventory.Deposit(it.Material, 1)
		}
	}
	f.grid.Remove(occ)
}

// Rotate returns o turned a quarter in the requested direction.
func Rotate(o grid.Orientation, clockwise bool) grid.Orientation {
	return o.Rotate(clockwise)
}

// RotateOccupant turns a placed occupant in place. The footprint swaps
// width and height on quarter turns; it fails when the new footprint does
// not fit.
func (f *Factory) RotateOccupant(occ grid.Occupant, clockwise bool) (grid.Orientation, error) {
	p, ok := f.grid.PlacementOf(occ)
	if !ok {
		return 0, ErrNotPlaced
	}
	next := Rotate(p.Orientation, clockwise)
	if err := f.grid.Reorient(occ, next); err != nil {
		return p.Orientation, err
	}
	if b, ok := occ.(*belt.Belt); ok {
		f.relink(b)
	}
	return next, nil
}

// PortCells returns the cells of occ's ports of the given kind. A belt's
// input is the cell behind it and its output the cell it feeds.
func (f *Factory) PortCells(occ grid.Occupant, kind port.Kind) []grid.Cell {
	switch v := occ.(type) {
	case *machine.Machine:
		return v.PortCells(kind)
	case *belt.Belt:
		if !v.Placed() {
			return nil
		}
		if kind == port.Output {
			return []grid.Cell{v.ForwardCell()}
		}
		return []grid.Cell{v.Cell().Step(v.Orientation().Opposite())}
	default:
		return nil
	}
}

// Step advances the simulation by dt seconds: machine timers first, then
// the clock, which fires any beats that became due.
func (f *Factory) Step(dt float64) {
	if dt <= 0 {
		return
	}
	for _, pm := range f.Machines() {
		pm.Update(dt)
	}
	f.clock.Advance(dt)
}

// Tick dispatches one beat immediately.
func (f *Factory) Tick() bool {
	return f.clock.Tick()
}

// Repair repairs a broken machine.
func (f *Factory) Repair(m *machine.Machine) {
	m.Repair()
}

// RepairAll repairs every broken machine and returns how many there were.
func (f *Factory) RepairAll() int {
	n := 0
	for _, m := range f.Machines() {
		if m.Broken() {
			m.Repair()
			n++
		}
	}
	return n
}

// Feed moves one unit of material from the inventory into m.
func (f *Factory) Feed(m *machine.Machine, material item.Material) bool {
	if !m.Accepts(material) || !f.inventory.Take(material, 1) {
		return false
	}
	if !m.TryQueueInventoryItem(material) {
		f.inventory.Deposit(material, 1)
		return false
	}
	return true
}

// Stats summarises the factory.
type Stats struct {
	Machines int
	Broken   int
	Belts    int
	OnBelts  int
	Stored   int
	Beat     int
	Ticks    uint64
}

// Stats returns a summary of the current state.
func (f *Factory) Stats() Stats {
	s := Stats{
		Machines: len(f.machines),
		Belts:    f.belts.Len(),
		OnBelts:  f.belts.Items(),
		Stored:   f.inventory.Total(),
		Beat:     f.clock.Beat(),
		Ticks:    f.clock.Ticks(),
	}
	for _, pm := range f.machines {
		if pm.m.Broken() {
			s.Broken++
		}
	}
	return s
}
