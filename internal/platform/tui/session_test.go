package tui

import (
	"errors"
	"io"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/vovakirdan/beltworks/internal/config"
	"github.com/vovakirdan/beltworks/internal/factory"
	"github.com/vovakirdan/beltworks/internal/registry"
	_ "github.com/vovakirdan/beltworks/internal/scenarios"
)

func buildScenario(id string) (*factory.Factory, error) {
	s, err := config.Default().Settings()
	if err != nil {
		return nil, err
	}
	sc, err := registry.Create(id)
	if err != nil {
		return nil, err
	}
	f := factory.New(s, nil)
	if err := sc.Build(f); err != nil {
		return nil, err
	}
	return f, nil
}

func TestSessionStartsSelectedScenario(t *testing.T) {
	var built []string
	cfg := DefaultSSHServerConfig()
	cfg.Build = func(id string) (*factory.Factory, error) {
		built = append(built, id)
		return buildScenario(id)
	}
	m := NewSessionModel(cfg, log.New(io.Discard), "ada", 100, 40)

	if !strings.Contains(m.View(), "B E L T W O R K S") {
		t.Fatal("session should open on the menu")
	}

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(SessionModel)
	if cmd == nil || m.stepper == nil {
		t.Fatal("enter should start the stepper")
	}
	first := registry.List()[0].ID
	if len(built) != 1 || built[0] != first {
		t.Errorf("expected %s to be built, got %v", first, built)
	}
	if m.stepper.opts.SaveName != "ada-"+first {
		t.Errorf("unexpected save slot %q", m.stepper.opts.SaveName)
	}

	next, _ = m.Update(keyMsg("p"))
	m = next.(SessionModel)
	if !m.stepper.Paused() {
		t.Error("keys should reach the stepper")
	}
}

func TestSessionShowsBuildErrors(t *testing.T) {
	cfg := DefaultSSHServerConfig()
	cfg.Build = func(string) (*factory.Factory, error) { return nil, errors.New("no floor") }
	m := NewSessionModel(cfg, log.New(io.Discard), "ada", 100, 40)

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(SessionModel)
	if m.stepper != nil {
		t.Fatal("stepper should not start")
	}
	if !strings.Contains(m.View(), "no floor") {
		t.Error("view should show the build error")
	}
}

func TestNewSSHServerRequiresBuilder(t *testing.T) {
	if _, err := NewSSHServer(DefaultSSHServerConfig()); err == nil {
		t.Error("expected an error without a builder")
	}
}
