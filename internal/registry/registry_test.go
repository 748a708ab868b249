package registry

import (
	"testing"

	"github.com/vovakirdan/beltworks/internal/factory"
)

type stubScenario struct{ id string }

func (s stubScenario) ID() string                     { return s.id }
func (s stubScenario) Title() string                  { return "Stub " + s.id }
func (s stubScenario) Description() string            { return "does nothing" }
func (s stubScenario) Build(f *factory.Factory) error { return nil }

func TestRegisterAndCreate(t *testing.T) {
	Register("zz-stub", func() Scenario { return stubScenario{id: "zz-stub"} })
	Register("aa-stub", func() Scenario { return stubScenario{id: "aa-stub"} })

	if !Exists("zz-stub") || Exists("missing") {
		t.Error("Exists reports wrong membership")
	}

	s, err := Create("aa-stub")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if s.ID() != "aa-stub" {
		t.Errorf("expected aa-stub, got %s", s.ID())
	}
	if _, err := Create("missing"); err == nil {
		t.Error("unknown scenario should fail")
	}

	list := List()
	for i := 1; i < len(list); i++ {
		if list[i-1].ID >= list[i].ID {
			t.Errorf("list not sorted: %s >= %s", list[i-1].ID, list[i].ID)
		}
	}
	var found bool
	for _, info := range list {
		if info.ID == "zz-stub" {
			found = info.Title == "Stub zz-stub" && info.Description == "does nothing"
		}
	}
	if !found {
		t.Error("registered scenario metadata missing from List")
	}
}

func TestRegisterDuplicatePanics(t *testing.T) {
	Register("dup-stub", func() Scenario { return stubScenario{id: "dup-stub"} })
	defer func() {
		if recover() == nil {
			t.Error("duplicate registration should panic")
		}
	}()
	Register("dup-stub", func() Scenario { return stubScenario{id: "dup-stub"} })
}
