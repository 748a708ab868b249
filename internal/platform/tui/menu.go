package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/beltworks/internal/registry"
)

// MenuItem is a selectable scenario.
type MenuItem struct {
	ScenarioID  string
	Title       string
	Description string
}

// MenuKeyMap defines the scenario picker key bindings.
type MenuKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Choose key.Binding
	Quit   key.Binding
}

// ShortHelp returns key bindings for the short help view.
func (k MenuKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Choose, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k MenuKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

// DefaultMenuKeyMap returns default picker bindings.
func DefaultMenuKeyMap() MenuKeyMap {
	return MenuKeyMap{
		Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("up/k", "previous")),
		Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("down/j", "next")),
		Choose: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "start")),
		Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// MenuModel is the Bubble Tea model for the scenario picker.
type MenuModel struct {
	items    []MenuItem
	cursor   int
	keys     MenuKeyMap
	help     help.Model
	width    int
	quitting bool
	selected *MenuItem
}

// NewMenuModel lists the registered scenarios.
func NewMenuModel(width, height int) MenuModel {
	infos := registry.List()
	items := make([]MenuItem, 0, len(infos))
	for _, s := range infos {
		items = append(items, MenuItem{ScenarioID: s.ID, Title: s.Title, Description: s.Description})
	}
	return MenuModel{items: items, keys: DefaultMenuKeyMap(), help: help.New(), width: width}
}

// Init implements tea.Model.
func (m MenuModel) Init() tea.Cmd {
	return nil
}

// Update moves the cursor and records the chosen scenario.
func (m MenuModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Up):
			m.cursor = max(m.cursor-1, 0)
		case key.Matches(msg, m.keys.Down):
			m.cursor = min(m.cursor+1, len(m.items)-1)
		case key.Matches(msg, m.keys.Choose):
			if len(m.items) > 0 {
				chosen := m.items[m.cursor]
				m.selected = &chosen
			}
		}
	}
	return m, nil
}

// View renders the scenario list.
func (m MenuModel) View() string {
	if m.quitting {
		return ""
	}

	title := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229")).MarginBottom(1)
	active := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57")).Padding(0, 1)
	normal := lipgloss.NewStyle().Padding(0, 1)
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	lines := []string{title.Render("B E L T W O R K S")}
	for i, it := range m.items {
		if i == m.cursor {
			lines = append(lines, active.Render(it.Title))
		} else {
			lines = append(lines, normal.Render(it.Title))
		}
	}
	if len(m.items) == 0 {
		lines = append(lines, dim.Render("no scenarios registered"))
	} else if d := m.items[m.cursor].Description; d != "" {
		lines = append(lines, "", dim.Render(d))
	}
	lines = append(lines, "", dim.Render(m.help.View(m.keys)))

	body := strings.Join(lines, "\n")
	return lipgloss.PlaceHorizontal(max(m.width, lipgloss.Width(body)), lipgloss.Center, body)
}

// Selected returns the chosen item, or nil.
func (m MenuModel) Selected() *MenuItem {
	return m.selected
}

// IsQuitting returns true if the user requested to quit.
func (m MenuModel) IsQuitting() bool {
	return m.quitting
}
