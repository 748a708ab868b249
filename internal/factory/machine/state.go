package machine

import "github.com/vovakirdan/beltworks/internal/factory/item"

// PendingOutput is an output waiting for the next machine phase.
type PendingOutput struct {
	Material item.Material `json:"material"`
	Recipe   string        `json:"recipe,omitempty"`
}

// State is the persisted production state of a machine. Placement is held
// by the grid and saved alongside it.
type State struct {
	Broken      bool                  `json:"broken"`
	BreakChance float64               `json:"break_chance"`
	Buffer      map[item.Material]int `json:"buffer,omitempty"`
	Queue       []item.Material       `json:"queue,omitempty"`
	Pending     []PendingOutput       `json:"pending,omitempty"`

	Producing   bool          `json:"producing,omitempty"`
	Recipe      string        `json:"recipe,omitempty"`
	RecipeIndex int           `json:"recipe_index,omitempty"`
	Consumed    item.Material `json:"consumed,omitempty"`
	Elapsed     float64       `json:"elapsed,omitempty"`
	Target      float64       `json:"target,omitempty"`
}

// Export captures the machine's production state.
func (m *Machine) Export() State {
	s := State{
		Broken:      m.broken,
		BreakChance: m.breakChance,
		Producing:   m.producing,
		Elapsed:     m.elapsed,
		Target:      m.target,
	}
	if buf := m.Buffer(); len(buf) > 0 {
		s.Buffer = buf
	}
	for _, it := range m.queue {
		s.Queue = append(s.Queue, it.Material)
	}
	for _, p := range m.pending {
		s.Pending = append(s.Pending, PendingOutput{Material: p.material, Recipe: p.recipe})
	}
	if name, ok := m.ActiveRecipe(); ok {
		s.Recipe = name
		s.RecipeIndex = m.active
	}
	if m.producing {
		s.Consumed = m.consumed
	}
	return s
}

// Restore replaces the production state. It does not start a new cycle and
// raises no notifications. The active recipe is found by name, or by index
// when it has none. Unknown recipes drop the active cycle.
func (m *Machine) Restore(s State) {
	m.broken = s.Broken
	m.breakChance = s.BreakChance
	m.buffer = make(map[item.Material]int, len(s.Buffer))
	for k, v := range s.Buffer {
		if v > 0 {
			m.buffer[k] = v
		}
	}
	m.queue = m.queue[:0]
	for _, mat := range s.Queue {
		m.queue = append(m.queue, m.env.Items.New(mat))
	}
	m.pending = m.pending[:0]
	for _, p := range s.Pending {
		m.pending = append(m.pending, output{material: p.Material, recipe: p.Recipe})
	}

	m.producing = false
	m.active = -1
	m.elapsed = 0
	m.target = 0
	m.retryIn = 0
	m.consumed = ""
	if s.Producing && !s.Broken {
		active, ok := m.resolveRecipe(s.Recipe, s.RecipeIndex)
		if ok {
			m.producing = true
			m.active = active
			m.elapsed = s.Elapsed
			m.target = s.Target
			if active < 0 {
				m.consumed = s.Consumed
			}
		} else {
			m.env.Logger.Warn("restored cycle has unknown recipe", "machine", m.ID, "recipe", s.Recipe)
		}
	}
	m.progress = 0
	if m.producing && m.target > 0 {
		m.progress = m.elapsed / m.target
	}
	m.reported = int(m.progress / progressStep)
}

// resolveRecipe maps a saved cycle onto the definition's recipes. Legacy
// machines always resolve to -1.
func (m *Machine) resolveRecipe(name string, index int) (int, bool) {
	if !m.def.RecipeMode() {
		return -1, name == ""
	}
	if name == "" {
		if index >= 0 && index < len(m.def.Recipes) && m.def.Recipes[index].Name == "" {
			return index, true
		}
		return -1, false
	}
	for i := range m.def.Recipes {
		if m.def.Recipes[i].Name == name {
			return i, true
		}
	}
	return -1, false
}
