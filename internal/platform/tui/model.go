package tui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/vovakirdan/beltworks/internal/factory"
	"github.com/vovakirdan/beltworks/internal/factory/event"
	"github.com/vovakirdan/beltworks/internal/storage"
)

// Stepper limits.
const (
	bpmStep    = 10
	minBPM     = 10
	maxBPM     = 600
	maxStepDt  = 0.25 // seconds; longer stalls are not replayed
	maxJournal = 6
)

// Options configures a stepper session.
type Options struct {
	// Scenario is the ID recorded with saves.
	Scenario string
	// Title is shown in the header.
	Title string
	// StepsPerSecond is the simulation step rate.
	StepsPerSecond int
	// Store receives saves. Saving is disabled when nil.
	Store *storage.Store
	// SaveName is the slot written by the save key.
	SaveName string
	Logger   *log.Logger
}

// Model is the Bubble Tea model that steps a factory and draws it.
type Model struct {
	factory *factory.Factory
	opts    Options
	logger  *log.Logger

	keys  KeyMap
	help  help.Model
	table table.Model

	events  *event.ChannelSink
	journal []string
	status  string

	paused   bool
	last     time.Time
	width    int
	height   int
	quitting bool
}

// NewModel creates a stepper for f.
func NewModel(f *factory.Factory, opts Options) Model {
	if opts.SaveName == "" {
		opts.SaveName = "autosave"
	}
	if opts.Title == "" {
		opts.Title = opts.Scenario
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	events := event.NewChannelSink(64)
	f.Subscribe(event.SinkFunc(func(e event.Event) {
		switch e.(type) {
		case event.Beat, event.ProductionProgress:
			return
		}
		events.Publish(e)
	}))

	m := Model{
		factory: f,
		opts:    opts,
		logger:  logger,
		keys:    DefaultKeyMap(),
		help:    help.New(),
		events:  events,
		width:   80,
		height:  24,
	}
	m.table = newMachineTable(m.height)
	m.refreshTable()
	return m
}

func newMachineTable(height int) table.Model {
	columns := []table.Column{
		{Title: "ID", Width: 4},
		{Title: "Kind", Width: 10},
		{Title: "At", Width: 8},
		{Title: "Status", Width: 10},
		{Title: "Prog", Width: 5},
		{Title: "Wear", Width: 6},
		{Title: "Out", Width: 4},
	}
	rows := height - 10
	if rows < 3 {
		rows = 3
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(rows),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)
	return t
}

// Factory returns the factory being stepped.
func (m Model) Factory() *factory.Factory { return m.factory }

// Paused reports whether automatic stepping is paused.
func (m Model) Paused() bool { return m.paused }

// Status returns the last status line.
func (m Model) Status() string { return m.status }

// Journal returns the most recent notable events, oldest first.
func (m Model) Journal() []string { return m.journal }

// Init starts the tick loop.
func (m Model) Init() tea.Cmd {
	return tickCmd(m.opts.StepsPerSecond)
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.table = newMachineTable(m.height)
		m.refreshTable()
		return m, nil

	case TickMsg:
		return m.handleTick(time.Time(msg))
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		m.events.Close()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Pause):
		m.paused = !m.paused
		m.last = time.Time{}
		if m.paused {
			m.status = "paused"
		} else {
			m.status = "running"
		}

	case key.Matches(msg, m.keys.Tick):
		if m.factory.Tick() {
			m.status = fmt.Sprintf("beat %d", m.factory.Clock().Beat())
		}
		m.drain()
		m.refreshTable()

	case key.Matches(msg, m.keys.Faster), key.Matches(msg, m.keys.Slower):
		bpm := m.factory.Clock().BPM()
		if key.Matches(msg, m.keys.Faster) {
			bpm += bpmStep
		} else {
			bpm -= bpmStep
		}
		bpm = min(max(bpm, minBPM), maxBPM)
		m.factory.Clock().SetBPM(bpm)
		m.status = fmt.Sprintf("%.0f bpm", bpm)

	case key.Matches(msg, m.keys.Repair):
		n := m.factory.RepairAll()
		m.status = fmt.Sprintf("repaired %d machine(s)", n)
		m.drain()
		m.refreshTable()

	case key.Matches(msg, m.keys.Save):
		m.save()

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.Down):
		m.table, cmd = m.table.Update(msg)
	}

	return m, cmd
}

func (m *Model) save() {
	if m.opts.Store == nil {
		m.status = "saving disabled"
		return
	}
	if _, err := m.opts.Store.SaveSnapshot(m.opts.SaveName, m.opts.Scenario, m.factory.Snapshot()); err != nil {
		m.logger.Error("save failed", "slot", m.opts.SaveName, "err", err)
		m.status = "save failed: " + err.Error()
		return
	}
	m.logger.Info("factory saved", "slot", m.opts.SaveName, "beat", m.factory.Clock().Beat())
	m.status = "saved to " + m.opts.SaveName
}

func (m Model) handleTick(now time.Time) (tea.Model, tea.Cmd) {
	if !m.paused {
		if !m.last.IsZero() {
			dt := now.Sub(m.last).Seconds()
			m.factory.Step(min(dt, maxStepDt))
		}
		m.last = now
	}
	m.drain()
	m.refreshTable()
	return m, tickCmd(m.opts.StepsPerSecond)
}

// drain moves pending notifications into the journal.
func (m *Model) drain() {
	for {
		select {
		case e := <-m.events.Events():
			m.journal = append(m.journal, describe(e))
			if len(m.journal) > maxJournal {
				m.journal = m.journal[len(m.journal)-maxJournal:]
			}
		default:
			return
		}
	}
}

func (m *Model) refreshTable() {
	machines := m.factory.Machines()
	rows := make([]table.Row, 0, len(machines))
	for _, mc := range machines {
		at := "-"
		if p, ok := mc.Placement(); ok {
			at = p.Anchor.String()
		}
		rows = append(rows, table.Row{
			fmt.Sprintf("%d", mc.ID),
			mc.Kind(),
			at,
			mc.Status().String(),
			fmt.Sprintf("%3.0f%%", mc.Progress()*100),
			fmt.Sprintf("%5.1f", mc.BreakChance()),
			fmt.Sprintf("%d", len(mc.Pending())),
		})
	}
	m.table.SetRows(rows)
}

func describe(e event.Event) string {
	switch e := e.(type) {
	case event.MachineBroken:
		return fmt.Sprintf("%s #%d broke at %s", e.Kind, e.MachineID, e.Position)
	case event.MachineRepaired:
		return fmt.Sprintf("%s #%d repaired", e.Kind, e.MachineID)
	case event.MaterialProduced:
		where := "belt"
		if !e.Delivered {
			where = "inventory"
		}
		return fmt.Sprintf("#%d produced %s to %s", e.MachineID, e.Material, where)
	case event.ChainLengthReached:
		return fmt.Sprintf("belt chain reached %d", e.Length)
	default:
		return e.EventType()
	}
}

// View renders the floor, the machine table and the journal.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	var b strings.Builder

	st := m.factory.Stats()
	state := "running"
	if m.paused {
		state = "paused"
	}
	b.WriteString(titleStyle.Render(strings.ToUpper(m.opts.Title)))
	b.WriteString(dimStyle.Render(fmt.Sprintf("  beat %d  %.0f bpm  %s", st.Beat, m.factory.Clock().BPM(), state)))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("machines %d (broken %d)  belts %d  on belts %d  stored %d",
		st.Machines, st.Broken, st.Belts, st.OnBelts, st.Stored)))
	b.WriteString("\n\n")

	floor := RenderCanvas(DrawFloor(m.factory))
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, floor, "  ", boxStyle.Render(m.table.View())))
	b.WriteString("\n")

	for _, line := range m.journal {
		b.WriteString(dimStyle.Render("  " + line))
		b.WriteString("\n")
	}
	if m.status != "" {
		b.WriteString(m.status)
		b.WriteString("\n")
	}

	b.WriteString(dimStyle.Render(m.help.View(m.keys)))
	return b.String()
}

// Run starts the Bubble Tea program for f.
func Run(f *factory.Factory, opts Options) error {
	p := tea.NewProgram(
		NewModel(f, opts),
		tea.WithAltScreen(),
	)
	_, err := p.Run()
	return err
}
