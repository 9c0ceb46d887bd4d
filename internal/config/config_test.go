package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/talgya/contagion/internal/model"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config does not validate: %v", err)
	}
	m, err := cfg.BuildModel()
	if err != nil {
		t.Fatal(err)
	}
	if m.Name() != "seir" {
		t.Errorf("default model = %q, want seir", m.Name())
	}
	events, err := cfg.BuildEvents()
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Fatalf("default events = %d, want 2", len(events))
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "contagion.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
seed: 99
days: 30
town:
  locations: 80
  span: 2000
  neighbors: 4
population:
  size: 200
  spreaders: 5
model:
  name: seiqrdv
  seiqrdv:
    max_energy: 5
    lam_cap: 0.01
    beta: 0.4
    alpha: 0.2
    gamma: 4
    delta: 5
    lam: 7
    rho: 7
    kappa: 0.2
    mu: 0.01
    hospital_capacity: 10
events:
  - name: errands
    kind: disperse
    max_distance: 1500
    place_kinds: [commercial, healthcare]
    mobility:
      kind: energy_exponential
      scale: 500
  - name: curfew
    kind: send_home
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Seed != 99 || cfg.Days != 30 {
		t.Errorf("seed/days = %d/%d, want 99/30", cfg.Seed, cfg.Days)
	}
	m, err := cfg.BuildModel()
	if err != nil {
		t.Fatal(err)
	}
	if m.Name() != "seiqrdv" {
		t.Errorf("model = %q, want seiqrdv", m.Name())
	}
	events, err := cfg.BuildEvents()
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}
	if events[1].Kind != model.SendHome {
		t.Errorf("second event kind = %s, want send-home", events[1].Kind)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for a missing config file")
	}
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero days", func(c *Config) { c.Days = 0 }},
		{"zero population", func(c *Config) { c.Population.Size = 0 }},
		{"zero spreaders", func(c *Config) { c.Population.Spreaders = 0 }},
		{"no events", func(c *Config) { c.Events = nil }},
		{"unknown model", func(c *Config) { c.Model.Name = "sir" }},
		{"model without params", func(c *Config) { c.Model.SEIR = nil }},
		{"bad model params", func(c *Config) { c.Model.SEIR.Beta = 3 }},
		{"unknown event kind", func(c *Config) { c.Events[0].Kind = "wander" }},
		{"unknown place kind", func(c *Config) { c.Events[0].PlaceKinds = []string{"castle"} }},
		{"disperse without kinds", func(c *Config) { c.Events[0].PlaceKinds = nil }},
		{"unknown mobility", func(c *Config) { c.Events[1].Mobility.Kind = "teleport" }},
		{"log_normal without sigma", func(c *Config) { c.Events[1].Mobility.Sigma = 0 }},
		{"send_home with mobility", func(c *Config) {
			c.Events[1].Kind = "send_home"
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestTownGenSeedFallsBackToRunSeed(t *testing.T) {
	cfg := Default()
	cfg.Seed = 123
	cfg.Town.Seed = 0
	if got := cfg.TownGen().Seed; got != 123 {
		t.Errorf("town seed = %d, want the run seed 123", got)
	}
	cfg.Town.Seed = 456
	if got := cfg.TownGen().Seed; got != 456 {
		t.Errorf("town seed = %d, want the explicit 456", got)
	}
}

func TestPopulationParams(t *testing.T) {
	cfg := Default()
	cfg.Population.SpreaderNodes = []int{3, 7}
	p := cfg.PopulationParams()
	if p.Population != cfg.Population.Size || p.InitialSpreaders != cfg.Population.Spreaders {
		t.Errorf("params = %+v, want sizes from the population block", p)
	}
	if len(p.SpreaderNodes) != 2 {
		t.Errorf("spreader nodes = %v, want [3 7]", p.SpreaderNodes)
	}
}
