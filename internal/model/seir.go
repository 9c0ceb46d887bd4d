package model

import (
	"fmt"
	"math/rand"

	"github.com/talgya/contagion/internal/town"
)

// SEIRParams configures the SEIR model. Durations are in days.
type SEIRParams struct {
	MaxEnergy int
	Beta      float64 // transmission probability per contact
	Sigma     int     // incubation duration (E -> I)
	Gamma     int     // symptom duration (I -> R)
	Xi        int     // immunity duration (R -> S)
}

// Validate checks every field against its documented domain. This is the only
// validation point; nothing is rechecked per step.
func (p SEIRParams) Validate() error {
	if p.MaxEnergy <= 0 {
		return fmt.Errorf("max energy must be positive, got %d", p.MaxEnergy)
	}
	if p.Beta <= 0 || p.Beta >= 1 {
		return fmt.Errorf("beta must be strictly between 0 and 1, got %f", p.Beta)
	}
	if err := positiveDuration("sigma", p.Sigma); err != nil {
		return err
	}
	if err := positiveDuration("gamma", p.Gamma); err != nil {
		return err
	}
	return positiveDuration("xi", p.Xi)
}

// SEIR is the classic susceptible-exposed-infectious-recovered model with
// waning immunity.
type SEIR struct {
	params SEIRParams
}

// NewSEIR validates the parameters and builds the model.
func NewSEIR(p SEIRParams) (*SEIR, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("SEIR parameters: %w", err)
	}
	return &SEIR{params: p}, nil
}

func (m *SEIR) Name() string { return "seir" }

func (m *SEIR) Statuses() []Status {
	return []Status{StatusSusceptible, StatusExposed, StatusInfectious, StatusRecovered}
}

func (m *SEIR) Infectious() []Status {
	return []Status{StatusExposed, StatusInfectious}
}

func (m *SEIR) RequiredPlaceKinds() []town.PlaceKind {
	return []town.PlaceKind{town.KindAccommodation}
}

func (m *SEIR) MaxEnergy() int { return m.params.MaxEnergy }

func (m *SEIR) SeedPopulation(t *town.Town, p town.Params, rng *rand.Rand) ([]*Folk, Ledger, error) {
	if err := requireKinds(t, m.RequiredPlaceKinds()); err != nil {
		return nil, nil, err
	}
	plan, err := seedAssignments(t, p, rng, StatusInfectious, func(int) Status { return StatusSusceptible })
	if err != nil {
		return nil, nil, err
	}
	folks := make([]*Folk, 0, len(plan))
	ledger := NewLedger(m.Statuses())
	for i, a := range plan {
		folks = append(folks, NewFolk(i, a.node, m.params.MaxEnergy, a.status, rng))
		ledger[a.status]++
	}
	return folks, ledger, nil
}

// Interact converts a susceptible agent to exposed when the inverse-Bernoulli
// contact probability beats the dice: per-contact probability beta/n with n
// the occupant count, aggregated over the infectious occupants present.
func (m *SEIR) Interact(f *Folk, occupants []*Folk, _ town.PlaceKind, ledger Ledger, dice float64) {
	if f.Status != StatusSusceptible {
		return
	}
	p := m.params.Beta / float64(len(occupants))
	if f.InverseBernoulli(occupants, p, StatusInfectious) > dice {
		f.Convert(StatusExposed, ledger)
	}
}

// Sleep advances the agent along E -> I -> R -> S when its streak hits the
// exact configured duration for its current status.
func (m *SEIR) Sleep(f *Folk, ledger Ledger, _ float64) {
	switch {
	case f.Status == StatusExposed && f.Streak == m.params.Sigma:
		f.Convert(StatusInfectious, ledger)
	case f.Status == StatusInfectious && f.Streak == m.params.Gamma:
		f.Convert(StatusRecovered, ledger)
	case f.Status == StatusRecovered && f.Streak == m.params.Xi:
		f.Convert(StatusSusceptible, ledger)
	}
}
