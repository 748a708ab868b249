package scenarios_test

import (
	"testing"

	"github.com/vovakirdan/beltworks/internal/config"
	"github.com/vovakirdan/beltworks/internal/factory"
	"github.com/vovakirdan/beltworks/internal/registry"
	"github.com/vovakirdan/beltworks/internal/scenarios"
)

func newFactory(t *testing.T) *factory.Factory {
	t.Helper()
	cfg := config.Default()
	config.ApplyWearPreset(&cfg, config.WearFixed)
	s, err := cfg.Settings()
	if err != nil {
		t.Fatalf("settings: %v", err)
	}
	return factory.New(s, nil)
}

func TestBuiltinScenariosBuild(t *testing.T) {
	builtin, err := scenarios.Builtin()
	if err != nil {
		t.Fatalf("Builtin failed: %v", err)
	}
	for _, id := range []string{"generator", "smelter", "workshop"} {
		if builtin[id] == nil {
			t.Errorf("missing builtin %s", id)
		}
	}

	for _, info := range registry.List() {
		t.Run(info.ID, func(t *testing.T) {
			if info.Title == "" || info.Description == "" {
				t.Errorf("scenario %s needs a title and description", info.ID)
			}
			s, err := registry.Create(info.ID)
			if err != nil {
				t.Fatalf("Create failed: %v", err)
			}
			f := newFactory(t)
			if err := s.Build(f); err != nil {
				t.Fatalf("Build failed: %v", err)
			}
			for i := 0; i < 300; i++ {
				f.Step(0.05)
			}
			stats := f.Stats()
			if stats.OnBelts+stats.Stored == 0 {
				t.Errorf("scenario %s produced nothing: %+v", info.ID, stats)
			}
		})
	}
}

func TestGeneratorBacksUp(t *testing.T) {
	s, err := registry.Create("generator")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	f := newFactory(t)
	if err := s.Build(f); err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	for i := 0; i < 1200; i++ {
		f.Step(0.05)
	}
	// the dead-end line fills and the mine waits instead of spilling
	if got := f.Belts().Items(); got != 3 {
		t.Errorf("expected a full line of 3 items, got %d", got)
	}
	if f.Inventory().Total() > 1 {
		t.Errorf("generator should wait for a free belt, inventory %v", f.Inventory().Map())
	}
}

func TestWorkshopAssemblesGear(t *testing.T) {
	s, _ := registry.Create("workshop")
	f := newFactory(t)
	if err := s.Build(f); err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if f.Inventory().Count("ingot") != 4 {
		t.Errorf("expected starting ingots, got %v", f.Inventory().Map())
	}
	for i := 0; i < 200; i++ {
		f.Step(0.05)
	}
	if f.Inventory().Count("gear") < 1 {
		t.Errorf("fed assembler should make a gear, inventory %v", f.Inventory().Map())
	}
}
