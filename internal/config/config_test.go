package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/vovakirdan/beltworks/internal/factory/grid"
	"github.com/vovakirdan/beltworks/internal/factory/port"
)

func TestEmbeddedDefaultsMatchHardcoded(t *testing.T) {
	cfg, err := Parse(defaultFactoryYAML)
	if err != nil {
		t.Fatalf("embedded defaults do not parse: %v", err)
	}
	if !reflect.DeepEqual(cfg, Default()) {
		t.Errorf("embedded defaults drifted from Default():\n%+v\n%+v", cfg, Default())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadCustomPathKeepsMissingSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "factory.yaml")
	data := []byte("clock:\n  bpm: 90\n  beats_per_measure: 3\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Clock.BPM != 90 || cfg.Clock.BeatsPerMeasure != 3 {
		t.Errorf("clock not loaded: %+v", cfg.Clock)
	}
	if cfg.Grid.Cols != Default().Grid.Cols {
		t.Errorf("grid should keep defaults, got %+v", cfg.Grid)
	}
	if len(cfg.Machines.Catalog) != len(Default().Machines.Catalog) {
		t.Errorf("catalog should keep defaults, got %d kinds", len(cfg.Machines.Catalog))
	}
}

func TestLoadCatalogReplacesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "factory.yaml")
	data := []byte(`
machines:
  catalog:
    - kind: pump
      size: {w: 1, h: 1}
      duration: 1
      output: water
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(cfg.Machines.Catalog) != 1 || cfg.Machines.Catalog[0].Kind != "pump" {
		t.Errorf("expected only pump, got %+v", cfg.Machines.Catalog)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing custom path should fail")
	}

	path := filepath.Join(t.TempDir(), "broken.yaml")
	os.WriteFile(path, []byte("clock: [1, 2"), 0o644)
	if _, err := Load(path); err == nil {
		t.Error("malformed YAML should fail")
	}
}

func TestLoadUserConfigDirectory(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	dir := filepath.Join(home, ".beltworks", "configs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte("seed: 42\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Seed != 42 {
		t.Errorf("expected seed from user config, got %d", cfg.Seed)
	}
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*Config)
		code   string
	}{
		{"defaults", func(*Config) {}, ""},
		{"zero bpm", func(c *Config) { c.Clock.BPM = 0 }, "INVALID_CLOCK"},
		{"empty measure", func(c *Config) { c.Clock.BeatsPerMeasure = 0 }, "INVALID_CLOCK"},
		{"empty grid", func(c *Config) { c.Grid.Rows = 0 }, "INVALID_GRID"},
		{"zero cell size", func(c *Config) { c.Grid.CellSize = 0 }, "INVALID_GRID"},
		{"no machines", func(c *Config) { c.Machines.Catalog = nil }, "EMPTY_CATALOG"},
		{"duplicate kind", func(c *Config) {
			c.Machines.Catalog = append(c.Machines.Catalog, c.Machines.Catalog[0])
		}, "DUPLICATE_KIND"},
		{"bad size", func(c *Config) { c.Machines.Catalog[0].Size.W = 0 }, "INVALID_SIZE"},
		{"bad duration", func(c *Config) { c.Machines.Catalog[0].Duration = 0 }, "INVALID_DURATION"},
		{"break floor too high", func(c *Config) { c.Machines.Catalog[0].MinBreakChance = 100 }, "INVALID_WEAR"},
		{"mixed mode", func(c *Config) { c.Machines.Catalog[2].Output = "gravel" }, "MIXED_MODE"},
		{"recipe without inputs", func(c *Config) {
			c.Machines.Catalog[2].Recipes[0].Inputs = nil
		}, "INVALID_RECIPE"},
		{"zero amount", func(c *Config) {
			c.Machines.Catalog[2].Recipes[0].Outputs[0].Amount = 0
		}, "INVALID_RECIPE"},
		{"bad port kind", func(c *Config) { c.Machines.Catalog[1].Ports[0].Kind = "sideways" }, "INVALID_PORT"},
		{"bad port side", func(c *Config) { c.Machines.Catalog[1].Ports[0].Side = "up-left" }, "INVALID_PORT"},
		{"port offset outside side", func(c *Config) {
			off := 2
			c.Machines.Catalog[3].Ports[0].Offset = &off
		}, "INVALID_PORT"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.code == "" {
				if err != nil {
					t.Fatalf("expected valid config, got %v", err)
				}
				return
			}
			var verr ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Code != tc.code {
				t.Errorf("expected code %s, got %s (%s)", tc.code, verr.Code, verr.Message)
			}
		})
	}
}

func TestSettingsConversion(t *testing.T) {
	cfg := Default()
	cfg.Grid.Origin = Vec3Config{X: 10, Y: 1, Z: -5}

	s, err := cfg.Settings()
	if err != nil {
		t.Fatalf("Settings failed: %v", err)
	}
	if s.Cols != 24 || s.Rows != 16 || s.BPM != 120 || s.BeatsPerMeasure != 4 {
		t.Errorf("unexpected settings %+v", s)
	}
	if s.Origin != grid.V3(10, 1, -5) {
		t.Errorf("origin not converted: %+v", s.Origin)
	}

	furnace, ok := s.Catalog["furnace"]
	if !ok {
		t.Fatal("furnace missing from catalog")
	}
	if furnace.InputMaterial != "ore" || furnace.OutputMaterial != "ingot" || furnace.RecipeMode() {
		t.Errorf("furnace should be a legacy ore->ingot machine: %+v", furnace)
	}
	wantPorts := []port.Def{
		{Kind: port.Input, Side: grid.South, Offset: port.Centered},
		{Kind: port.Output, Side: grid.North, Offset: port.Centered},
	}
	if !reflect.DeepEqual(furnace.Ports, wantPorts) {
		t.Errorf("expected ports %+v, got %+v", wantPorts, furnace.Ports)
	}

	asm := s.Catalog["assembler"]
	if len(asm.Recipes) != 2 || asm.Recipes[0].Name != "gear" || asm.Recipes[1].Duration != 2 {
		t.Errorf("assembler recipes not converted: %+v", asm.Recipes)
	}
	if asm.Ports[2].Offset != 1 || asm.Size != grid.S(2, 1) {
		t.Errorf("assembler geometry not converted: %+v", asm)
	}
	if !s.Catalog["mine"].IsGenerator() {
		t.Error("mine should be a generator")
	}

	cfg.Clock.BPM = -1
	if _, err := cfg.Settings(); err == nil {
		t.Error("invalid config should not convert")
	}
}

func TestWearPresets(t *testing.T) {
	testCases := []struct {
		preset       WearPreset
		increment    float64
		minBreakDraw float64
	}{
		{WearEasy, 0.75, 15},
		{WearNormal, 1.5, 5},
		{WearHard, 3, 0},
		{WearFixed, 0, 5},
	}

	for _, tc := range testCases {
		t.Run(string(tc.preset), func(t *testing.T) {
			cfg := Default()
			ApplyWearPreset(&cfg, tc.preset)
			furnace, _ := cfg.Kind("furnace")
			if furnace.BreakIncrement != tc.increment {
				t.Errorf("expected increment %v, got %v", tc.increment, furnace.BreakIncrement)
			}
			if furnace.MinBreakChance != tc.minBreakDraw {
				t.Errorf("expected floor %v, got %v", tc.minBreakDraw, furnace.MinBreakChance)
			}
		})
	}
}

func TestParseWearPreset(t *testing.T) {
	if p, err := ParseWearPreset(""); err != nil || p != WearNormal {
		t.Errorf("empty preset should be normal, got %q %v", p, err)
	}
	if p, err := ParseWearPreset("hard"); err != nil || p != WearHard {
		t.Errorf("expected hard, got %q %v", p, err)
	}
	if _, err := ParseWearPreset("brutal"); err == nil {
		t.Error("unknown preset should fail")
	}
}
