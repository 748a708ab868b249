package machine

import (
	"github.com/vovakirdan/beltworks/internal/factory/event"
	"github.com/vovakirdan/beltworks/internal/factory/grid"
	"github.com/vovakirdan/beltworks/internal/factory/item"
	"github.com/vovakirdan/beltworks/internal/factory/port"
)

// Status is the externally visible production state.
type Status uint8

const (
	Idle Status = iota
	Producing
	OutputsPending
	Broken
)

// String returns the string representation of a status.
func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Producing:
		return "producing"
	case OutputsPending:
		return "pending"
	case Broken:
		return "broken"
	default:
		return "unknown"
	}
}

// progressStep quantises progress notifications.
const progressStep = 0.05

type output struct {
	material item.Material
	recipe   string
}

// Machine is a placed production unit.
//
// Lifecycle: New, then Initialize once placed. Update advances the active
// cycle every simulation step; OnMachinePhase runs on every clock beat.
type Machine struct {
	ID  int
	def Definition
	env Env

	initialized bool

	buffer map[item.Material]int // recipe mode
	queue  []item.Item           // legacy mode

	producing bool
	active    int           // recipe index, -1 in legacy mode
	consumed  item.Material // legacy input taken by the active cycle
	elapsed   float64
	target    float64
	progress  float64
	reported  int

	pending []output

	breakChance float64
	broken      bool

	retryIn float64
}

// New creates an unplaced machine.
func New(id int, def Definition) *Machine {
	if !def.Size.Valid() {
		def.Size = grid.S(1, 1)
	}
	return &Machine{
		ID:     id,
		def:    def,
		env:    Env{}.withDefaults(),
		buffer: make(map[item.Material]int),
		active: -1,
	}
}

// BaseSize implements grid.Occupant.
func (m *Machine) BaseSize() grid.Size {
	return m.def.Size
}

// Definition returns the static machine data.
func (m *Machine) Definition() Definition {
	return m.def
}

// Kind returns the machine kind.
func (m *Machine) Kind() string {
	return m.def.Kind
}

// Initialize wires the machine to its collaborators and tries to start.
func (m *Machine) Initialize(env Env) {
	m.env = env.withDefaults()
	m.initialized = true
	m.TryStartIfIdle()
}

// Shutdown detaches the machine from its collaborators. Buffered and
// pending materials, and the inputs of an unfinished cycle, are returned
// so the caller can refund them.
func (m *Machine) Shutdown() []item.Material {
	var refund []item.Material
	if m.producing {
		refund = append(refund, m.cycleInputs()...)
	}
	for _, r := range m.def.Recipes {
		for _, in := range r.Inputs {
			for m.buffer[in.Material] > 0 {
				refund = append(refund, in.Material)
				m.buffer[in.Material]--
			}
		}
	}
	for _, it := range m.queue {
		refund = append(refund, it.Material)
	}
	for _, out := range m.pending {
		refund = append(refund, out.material)
	}
	m.buffer = make(map[item.Material]int)
	m.queue = nil
	m.pending = nil
	m.producing = false
	m.active = -1
	m.consumed = ""
	m.initialized = false
	return refund
}

// cycleInputs lists the materials the active cycle took when it started.
func (m *Machine) cycleInputs() []item.Material {
	if m.active < 0 {
		if m.consumed == "" {
			return nil
		}
		return []item.Material{m.consumed}
	}
	var in []item.Material
	for _, st := range m.def.Recipes[m.active].Inputs {
		for n := 0; n < st.Amount; n++ {
			in = append(in, st.Material)
		}
	}
	return in
}

// Initialized reports whether Initialize has been called.
func (m *Machine) Initialized() bool {
	return m.initialized
}

// Status returns the current production state.
func (m *Machine) Status() Status {
	switch {
	case m.broken:
		return Broken
	case m.producing:
		return Producing
	case len(m.pending) > 0:
		return OutputsPending
	default:
		return Idle
	}
}

// Broken reports whether the machine is broken.
func (m *Machine) Broken() bool { return m.broken }

// BreakChance returns the accumulated breakage chance.
func (m *Machine) BreakChance() float64 { return m.breakChance }

// Progress returns the active cycle progress in [0, 1].
func (m *Machine) Progress() float64 { return m.progress }

// ActiveRecipe returns the name of the recipe being produced.
func (m *Machine) ActiveRecipe() (string, bool) {
	if !m.producing || m.active < 0 {
		return "", false
	}
	return m.def.Recipes[m.active].Name, true
}

// Pending returns the materials awaiting release.
func (m *Machine) Pending() []item.Material {
	out := make([]item.Material, len(m.pending))
	for i, p := range m.pending {
		out[i] = p.material
	}
	return out
}

// Buffer returns a copy of the recipe input buffer.
func (m *Machine) Buffer() map[item.Material]int {
	out := make(map[item.Material]int, len(m.buffer))
	for k, v := range m.buffer {
		if v > 0 {
			out[k] = v
		}
	}
	return out
}

// QueueLen returns the number of items in the legacy input queue.
func (m *Machine) QueueLen() int {
	return len(m.queue)
}

// Placement returns the machine's current placement.
func (m *Machine) Placement() (grid.Placement, bool) {
	if m.env.Grid == nil {
		return grid.Placement{}, false
	}
	return m.env.Grid.PlacementOf(m)
}

func (m *Machine) position() grid.Cell {
	p, _ := m.Placement()
	return p.Anchor
}

// PortCells returns the world cells of the machine's ports of kind k.
func (m *Machine) PortCells(k port.Kind) []grid.Cell {
	p, ok := m.Placement()
	if !ok {
		return nil
	}
	return port.Cells(m.def.Ports, k, m.def.Size, p)
}

// TryStartIfIdle starts production when the machine is initialized, not
// broken and not busy.
func (m *Machine) TryStartIfIdle() {
	if !m.initialized || m.broken || m.producing || len(m.pending) > 0 {
		return
	}
	m.StartProduction()
}

// StartProduction begins the next cycle if its inputs are available.
// It is a no-op when nothing can be produced.
func (m *Machine) StartProduction() {
	if !m.initialized {
		m.env.Logger.Error("start production before initialize", "machine", m.ID, "kind", m.def.Kind)
		return
	}
	if m.broken || m.producing || len(m.pending) > 0 {
		return
	}

	if m.def.RecipeMode() {
		i, ok := FindReadyRecipe(m.def.Recipes, m.buffer)
		if !ok {
			return
		}
		r := &m.def.Recipes[i]
		for _, in := range r.Inputs {
			m.buffer[in.Material] -= in.Amount
			if m.buffer[in.Material] <= 0 {
				delete(m.buffer, in.Material)
			}
		}
		m.begin(i, m.def.CycleDuration(r))
		return
	}

	if len(m.queue) > 0 {
		taken := m.queue[0].Material
		m.queue = m.queue[1:]
		m.begin(-1, m.def.Duration)
		m.consumed = taken
		return
	}

	if m.def.IsGenerator() {
		if !m.hasFreeOutputBelt() {
			if m.retryIn <= 0 {
				m.retryIn = m.env.GeneratorRetry
			}
			return
		}
		m.begin(-1, m.def.Duration)
	}
}

func (m *Machine) begin(recipe int, duration float64) {
	m.producing = true
	m.active = recipe
	m.consumed = ""
	m.elapsed = 0
	m.target = duration
	m.retryIn = 0
	m.setProgress(0)
}

func (m *Machine) hasFreeOutputBelt() bool {
	p, ok := m.Placement()
	if !ok {
		return false
	}
	for _, pt := range port.ResolveAll(m.def.Ports, port.Output, m.def.Size, p) {
		r, ok := m.env.Network.ReceiverAt(pt.Cell)
		if ok && !r.HasItem() && r.AcceptsFrom(pt.Side) {
			return true
		}
	}
	return false
}

// Update advances timers by dt seconds of simulation time.
func (m *Machine) Update(dt float64) {
	if !m.initialized || m.broken {
		return
	}
	if m.retryIn > 0 {
		m.retryIn -= dt
		if m.retryIn <= 0 {
			m.retryIn = 0
			m.TryStartIfIdle()
		}
	}
	if !m.producing {
		return
	}
	m.elapsed += dt
	if m.elapsed < m.target {
		m.setProgress(m.elapsed / m.target)
		return
	}
	m.complete()
}

// complete moves the cycle's outputs to pending. They are released on the
// next machine phase.
func (m *Machine) complete() {
	recipeName := ""
	if m.active >= 0 {
		r := m.def.Recipes[m.active]
		recipeName = r.Name
		for _, out := range r.Outputs {
			if !out.Valid() {
				m.env.Logger.Warn("recipe output skipped", "machine", m.ID, "recipe", r.Name, "output", out)
				continue
			}
			for n := 0; n < out.Amount; n++ {
				m.pending = append(m.pending, output{material: out.Material, recipe: r.Name})
			}
		}
	} else if m.def.OutputMaterial == "" {
		m.env.Logger.Warn("machine has no output material", "machine", m.ID, "kind", m.def.Kind)
	} else {
		m.pending = append(m.pending, output{material: m.def.OutputMaterial})
	}

	m.producing = false
	m.active = -1
	m.consumed = ""
	m.elapsed = 0
	m.target = 0
	m.setProgress(0)
	m.env.Logger.Debug("cycle complete", "machine", m.ID, "recipe", recipeName, "pending", len(m.pending))
}

// OnMachinePhase releases pending outputs one at a time and then starts the
// next cycle. Breaking mid-release discards the rest.
func (m *Machine) OnMachinePhase(beat int) {
	if !m.initialized {
		return
	}
	if len(m.pending) == 0 {
		m.TryStartIfIdle()
		return
	}
	for len(m.pending) > 0 && !m.broken {
		next := m.pending[0]
		m.pending = m.pending[1:]
		m.ProduceOneOutput(next.material, next.recipe)
	}
	m.StartProduction()
}

// ProduceOneOutput delivers one unit of material to the first output belt
// that accepts it, or to the economy, then rolls for breakage.
func (m *Machine) ProduceOneOutput(material item.Material, recipe string) {
	if !m.initialized {
		m.env.Logger.Error("produce output before initialize", "machine", m.ID, "kind", m.def.Kind)
		return
	}
	it := m.env.Items.New(material)
	delivered := false

	if p, ok := m.Placement(); ok {
		for _, pt := range port.ResolveAll(m.def.Ports, port.Output, m.def.Size, p) {
			r, ok := m.env.Network.ReceiverAt(pt.Cell)
			if !ok || r.HasItem() || !r.AcceptsFrom(pt.Side) {
				continue
			}
			if r.TryReceive(it) {
				delivered = true
				break
			}
		}
	}
	if !delivered {
		if m.env.Economy != nil {
			m.env.Economy.Deposit(material, 1)
		} else {
			m.env.Logger.Warn("output has nowhere to go", "machine", m.ID, "material", material)
		}
	}

	m.env.Events.Publish(event.MaterialProduced{
		MachineID: m.ID,
		Material:  material,
		Position:  m.position(),
		Recipe:    recipe,
		Delivered: delivered,
	})

	m.breakChance += m.def.BreakIncrement
	m.rollBreak()
}

// rollBreak draws uniformly in [MinBreakChance, 100) and breaks when the
// draw falls below the accumulated chance. The chance is not clamped.
func (m *Machine) rollBreak() {
	if m.env.Rand == nil || m.breakChance <= 0 {
		return
	}
	lo := m.def.MinBreakChance
	draw := lo + m.env.Rand.Float64()*(100-lo)
	if draw < m.breakChance {
		m.Break()
	}
}

// Break stops the active cycle, discards progress and pending outputs and
// notifies observers.
func (m *Machine) Break() {
	if m.broken {
		return
	}
	m.broken = true
	m.producing = false
	m.active = -1
	m.consumed = ""
	m.elapsed = 0
	m.target = 0
	m.pending = nil
	m.retryIn = 0
	m.setProgress(0)
	m.env.Logger.Info("machine broken", "machine", m.ID, "kind", m.def.Kind, "chance", m.breakChance)
	m.env.Events.Publish(event.MachineBroken{
		MachineID: m.ID,
		Kind:      m.def.Kind,
		Position:  m.position(),
	})
}

// Repair clears the broken flag and the accumulated chance, then resumes.
func (m *Machine) Repair() {
	if !m.broken {
		return
	}
	m.broken = false
	m.breakChance = 0
	m.env.Logger.Info("machine repaired", "machine", m.ID, "kind", m.def.Kind)
	m.env.Events.Publish(event.MachineRepaired{MachineID: m.ID, Kind: m.def.Kind})
	if m.initialized {
		m.StartProduction()
	}
}

// OnConveyorItemArrived buffers an item delivered by a belt.
func (m *Machine) OnConveyorItemArrived(it item.Item) bool {
	return m.accept(it)
}

// TryQueueInventoryItem buffers one unit of material taken from inventory.
func (m *Machine) TryQueueInventoryItem(material item.Material) bool {
	if !m.def.Accepts(material) {
		return false
	}
	return m.accept(m.env.Items.New(material))
}

// Accepts reports whether the machine takes material as input.
func (m *Machine) Accepts(material item.Material) bool {
	return m.def.Accepts(material)
}

// AcceptFrom takes an item travelling in direction travel out of cell from.
// With declared input ports the item must enter through one of them.
func (m *Machine) AcceptFrom(from grid.Cell, travel grid.Orientation, it item.Item) bool {
	if !m.initialized || !m.def.Accepts(it.Material) {
		return false
	}
	inputs := port.Filter(m.def.Ports, port.Input)
	if len(inputs) > 0 {
		p, ok := m.Placement()
		if !ok {
			return false
		}
		matched := false
		for _, d := range inputs {
			pt := port.Resolve(d, m.def.Size, p)
			if pt.Cell == from && pt.Side == travel.Opposite() {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return m.accept(it)
}

func (m *Machine) accept(it item.Item) bool {
	if !m.def.Accepts(it.Material) {
		return false
	}
	if m.def.RecipeMode() {
		m.buffer[it.Material]++
	} else {
		m.queue = append(m.queue, it)
	}
	if m.initialized {
		m.StartProduction()
	}
	return true
}

func (m *Machine) setProgress(p float64) {
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	m.progress = p
	step := int(p / progressStep)
	if step == m.reported {
		return
	}
	m.reported = step
	m.env.Events.Publish(event.ProductionProgress{MachineID: m.ID, Progress: p})
}
