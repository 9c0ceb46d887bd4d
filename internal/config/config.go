// Package config loads a full simulation run description from YAML: the
// synthetic town, the population, the model and its parameters, and the daily
// step events. Everything is validated once at load time.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/talgya/contagion/internal/model"
	"github.com/talgya/contagion/internal/town"
	"github.com/talgya/contagion/internal/towngen"
)

// Config describes one simulation run.
type Config struct {
	// Seed fixes the whole run; equal seeds give identical runs.
	Seed int64 `yaml:"seed"`
	// Days caps the run length.
	Days int `yaml:"days"`

	Output     OutputConfig     `yaml:"output"`
	Town       TownConfig       `yaml:"town"`
	Population PopulationConfig `yaml:"population"`
	Model      ModelConfig      `yaml:"model"`
	Events     []EventConfig    `yaml:"events"`
}

// OutputConfig controls run recording.
type OutputConfig struct {
	// Path of the SQLite database; empty disables recording.
	Path string `yaml:"path,omitempty"`
	// LogFolks additionally records one row per agent per event.
	LogFolks bool `yaml:"log_folks,omitempty"`
}

// TownConfig parameterizes synthetic town generation.
type TownConfig struct {
	Locations int     `yaml:"locations"`
	Span      float64 `yaml:"span"`
	Seed      int64   `yaml:"seed,omitempty"` // 0 means reuse the run seed
	Neighbors int     `yaml:"neighbors"`
}

// PopulationConfig sizes and places the initial population.
type PopulationConfig struct {
	Size          int   `yaml:"size"`
	Spreaders     int   `yaml:"spreaders"`
	SpreaderNodes []int `yaml:"spreader_nodes,omitempty"`
}

// ModelConfig selects one model; exactly one parameter block must be set.
type ModelConfig struct {
	Name    string         `yaml:"name"`
	SEIR    *SEIRConfig    `yaml:"seir,omitempty"`
	SEIQRDV *SEIQRDVConfig `yaml:"seiqrdv,omitempty"`
	Rumor   *RumorConfig   `yaml:"rumor,omitempty"`
}

// SEIRConfig mirrors model.SEIRParams in YAML.
type SEIRConfig struct {
	MaxEnergy int     `yaml:"max_energy"`
	Beta      float64 `yaml:"beta"`
	Sigma     int     `yaml:"sigma"`
	Gamma     int     `yaml:"gamma"`
	Xi        int     `yaml:"xi"`
}

// SEIQRDVConfig mirrors model.SEIQRDVParams in YAML.
type SEIQRDVConfig struct {
	MaxEnergy        int     `yaml:"max_energy"`
	LamCap           float64 `yaml:"lam_cap"`
	Beta             float64 `yaml:"beta"`
	Alpha            float64 `yaml:"alpha"`
	Gamma            int     `yaml:"gamma"`
	Delta            int     `yaml:"delta"`
	Lam              int     `yaml:"lam"`
	Rho              int     `yaml:"rho"`
	Kappa            float64 `yaml:"kappa"`
	Mu               float64 `yaml:"mu"`
	HospitalCapacity int     `yaml:"hospital_capacity"`
}

// RumorConfig mirrors model.SEIsIrRParams in YAML.
type RumorConfig struct {
	MaxEnergy int     `yaml:"max_energy"`
	Literacy  float64 `yaml:"literacy"`
	Gamma     float64 `yaml:"gamma"`
	Alpha     float64 `yaml:"alpha"`
	Lam       float64 `yaml:"lam"`
	Phi       float64 `yaml:"phi"`
	Theta     float64 `yaml:"theta"`
	Mu        float64 `yaml:"mu"`
	Eta1      float64 `yaml:"eta1"`
	Eta2      float64 `yaml:"eta2"`
	MemSpan   int     `yaml:"mem_span"`
}

// EventConfig describes one daily step event.
type EventConfig struct {
	Name        string          `yaml:"name"`
	Kind        string          `yaml:"kind"` // "disperse" or "send_home"
	MaxDistance float64         `yaml:"max_distance,omitempty"`
	PlaceKinds  []string        `yaml:"place_kinds,omitempty"`
	Mobility    *MobilityConfig `yaml:"mobility,omitempty"`
}

// MobilityConfig selects a destination-probability kernel.
type MobilityConfig struct {
	Kind   string  `yaml:"kind"` // "log_normal" or "energy_exponential"
	Median float64 `yaml:"median,omitempty"`
	Sigma  float64 `yaml:"sigma,omitempty"`
	Scale  float64 `yaml:"scale,omitempty"`
}

// Default returns a runnable SEIR configuration on a small synthetic town.
func Default() Config {
	return Config{
		Seed: 5710,
		Days: 100,
		Town: TownConfig{
			Locations: 400,
			Span:      4000,
			Neighbors: 6,
		},
		Population: PopulationConfig{
			Size:      1000,
			Spreaders: 10,
		},
		Model: ModelConfig{
			Name: "seir",
			SEIR: &SEIRConfig{MaxEnergy: 5, Beta: 0.4, Sigma: 6, Gamma: 5, Xi: 200},
		},
		Events: []EventConfig{
			{
				Name:        "greet_neighbors",
				Kind:        "disperse",
				MaxDistance: 1000,
				PlaceKinds:  []string{"accommodation"},
			},
			{
				Name:        "chore",
				Kind:        "disperse",
				MaxDistance: 4000,
				PlaceKinds:  []string{"commercial", "workplace", "education", "religious"},
				Mobility:    &MobilityConfig{Kind: "log_normal", Median: 2000, Sigma: 1.0},
			},
		},
	}
}

// Load reads and validates a config file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the run-level fields; model parameters are validated by the
// model constructors and event fields by the event constructors.
func (c Config) Validate() error {
	if c.Days <= 0 {
		return fmt.Errorf("days must be positive, got %d", c.Days)
	}
	if c.Population.Size <= 0 {
		return fmt.Errorf("population size must be positive, got %d", c.Population.Size)
	}
	if c.Population.Spreaders <= 0 {
		return fmt.Errorf("spreader count must be positive, got %d", c.Population.Spreaders)
	}
	if len(c.Events) == 0 {
		return fmt.Errorf("at least one step event is required")
	}
	if _, err := c.BuildModel(); err != nil {
		return err
	}
	if _, err := c.BuildEvents(); err != nil {
		return err
	}
	return nil
}

// TownGen returns the generation config, defaulting the town seed to the run
// seed so a config file without a town seed still reproduces.
func (c Config) TownGen() towngen.GenConfig {
	seed := c.Town.Seed
	if seed == 0 {
		seed = c.Seed
	}
	return towngen.GenConfig{
		Locations: c.Town.Locations,
		Span:      c.Town.Span,
		Seed:      seed,
		Neighbors: c.Town.Neighbors,
	}
}

// PopulationParams converts the population block.
func (c Config) PopulationParams() town.Params {
	return town.Params{
		Population:       c.Population.Size,
		InitialSpreaders: c.Population.Spreaders,
		SpreaderNodes:    c.Population.SpreaderNodes,
	}
}

// BuildModel constructs and validates the selected model.
func (c Config) BuildModel() (model.Model, error) {
	switch c.Model.Name {
	case "seir":
		if c.Model.SEIR == nil {
			return nil, fmt.Errorf("model %q selected but no seir parameter block given", c.Model.Name)
		}
		p := c.Model.SEIR
		return model.NewSEIR(model.SEIRParams{
			MaxEnergy: p.MaxEnergy, Beta: p.Beta, Sigma: p.Sigma, Gamma: p.Gamma, Xi: p.Xi,
		})
	case "seiqrdv":
		if c.Model.SEIQRDV == nil {
			return nil, fmt.Errorf("model %q selected but no seiqrdv parameter block given", c.Model.Name)
		}
		p := c.Model.SEIQRDV
		return model.NewSEIQRDV(model.SEIQRDVParams{
			MaxEnergy: p.MaxEnergy, LamCap: p.LamCap, Beta: p.Beta, Alpha: p.Alpha,
			Gamma: p.Gamma, Delta: p.Delta, Lam: p.Lam, Rho: p.Rho,
			Kappa: p.Kappa, Mu: p.Mu, HospitalCapacity: p.HospitalCapacity,
		})
	case "seisirr":
		if c.Model.Rumor == nil {
			return nil, fmt.Errorf("model %q selected but no rumor parameter block given", c.Model.Name)
		}
		p := c.Model.Rumor
		return model.NewSEIsIrR(model.SEIsIrRParams{
			MaxEnergy: p.MaxEnergy, Literacy: p.Literacy, Gamma: p.Gamma, Alpha: p.Alpha,
			Lam: p.Lam, Phi: p.Phi, Theta: p.Theta, Mu: p.Mu,
			Eta1: p.Eta1, Eta2: p.Eta2, MemSpan: p.MemSpan,
		})
	default:
		return nil, fmt.Errorf("unknown model %q (want seir, seiqrdv, or seisirr)", c.Model.Name)
	}
}

// BuildEvents constructs the step event list in config order.
func (c Config) BuildEvents() ([]model.StepEvent, error) {
	events := make([]model.StepEvent, 0, len(c.Events))
	for _, ec := range c.Events {
		switch ec.Kind {
		case "send_home":
			if ec.Mobility != nil {
				return nil, fmt.Errorf("event %q: send-home events cannot carry a mobility function", ec.Name)
			}
			events = append(events, model.NewSendHome(ec.Name))
		case "disperse":
			kinds := make([]town.PlaceKind, 0, len(ec.PlaceKinds))
			for _, name := range ec.PlaceKinds {
				k, err := town.ParsePlaceKind(name)
				if err != nil {
					return nil, fmt.Errorf("event %q: %w", ec.Name, err)
				}
				kinds = append(kinds, k)
			}
			mobility, err := buildMobility(ec)
			if err != nil {
				return nil, err
			}
			ev, err := model.NewDisperse(ec.Name, ec.MaxDistance, town.NewKindSet(kinds...), mobility)
			if err != nil {
				return nil, err
			}
			events = append(events, ev)
		default:
			return nil, fmt.Errorf("event %q: unknown kind %q (want disperse or send_home)", ec.Name, ec.Kind)
		}
	}
	return events, nil
}

func buildMobility(ec EventConfig) (model.Mobility, error) {
	if ec.Mobility == nil {
		return nil, nil
	}
	mc := ec.Mobility
	switch mc.Kind {
	case "log_normal":
		if mc.Median <= 0 || mc.Sigma <= 0 {
			return nil, fmt.Errorf("event %q: log_normal mobility needs positive median and sigma", ec.Name)
		}
		return model.LogNormalMobility(mc.Median, mc.Sigma), nil
	case "energy_exponential":
		if mc.Scale <= 0 {
			return nil, fmt.Errorf("event %q: energy_exponential mobility needs a positive scale", ec.Name)
		}
		return model.EnergyExponentialMobility(mc.Scale), nil
	default:
		return nil, fmt.Errorf("event %q: unknown mobility kind %q", ec.Name, mc.Kind)
	}
}
