package model

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/talgya/contagion/internal/town"
)

// SEIQRDVParams configures the SEIQRDV model: SEIR extended with quarantine,
// disease and natural mortality, vaccination, and population growth.
type SEIQRDVParams struct {
	MaxEnergy int
	LamCap    float64 // daily population growth rate (births/migration)
	Beta      float64 // transmission probability per contact
	Alpha     float64 // daily probability a susceptible decides to seek vaccination
	Gamma     int     // latent duration (E -> I)
	Delta     int     // days until an infectious case is confirmed and quarantined
	Lam       int     // quarantine days until recovery
	Rho       int     // quarantine days until death
	Kappa     float64 // disease mortality rate among quarantined
	Mu        float64 // natural background death rate per day
	// HospitalCapacity caps vaccinations per healthcare facility per event.
	// Zero means uncapped.
	HospitalCapacity int
}

// Validate checks every field against its documented domain.
func (p SEIQRDVParams) Validate() error {
	if p.MaxEnergy <= 0 {
		return fmt.Errorf("max energy must be positive, got %d", p.MaxEnergy)
	}
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"lam_cap", p.LamCap},
		{"beta", p.Beta},
		{"alpha", p.Alpha},
		{"kappa", p.Kappa},
		{"mu", p.Mu},
	} {
		if err := probabilityInRange(f.name, f.v); err != nil {
			return err
		}
	}
	for _, d := range []struct {
		name string
		v    int
	}{
		{"gamma", p.Gamma},
		{"delta", p.Delta},
		{"lam", p.Lam},
		{"rho", p.Rho},
	} {
		if err := positiveDuration(d.name, d.v); err != nil {
			return err
		}
	}
	if p.HospitalCapacity < 0 {
		return fmt.Errorf("hospital capacity must be non-negative, got %d", p.HospitalCapacity)
	}
	return nil
}

// SEIQRDV models an outbreak with confirmation-triggered quarantine, a
// capacity-constrained vaccination queue at healthcare facilities, and
// background births and deaths.
type SEIQRDV struct {
	params SEIQRDVParams
}

// NewSEIQRDV validates the parameters and builds the model.
func NewSEIQRDV(p SEIQRDVParams) (*SEIQRDV, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("SEIQRDV parameters: %w", err)
	}
	return &SEIQRDV{params: p}, nil
}

func (m *SEIQRDV) Name() string { return "seiqrdv" }

func (m *SEIQRDV) Statuses() []Status {
	return []Status{
		StatusSusceptible, StatusExposed, StatusInfectious, StatusQuarantined,
		StatusRecovered, StatusDead, StatusVaccinated,
	}
}

func (m *SEIQRDV) Infectious() []Status {
	return []Status{StatusExposed, StatusInfectious, StatusQuarantined}
}

func (m *SEIQRDV) RequiredPlaceKinds() []town.PlaceKind {
	return []town.PlaceKind{town.KindAccommodation, town.KindHealthcare}
}

func (m *SEIQRDV) MaxEnergy() int { return m.params.MaxEnergy }

func (m *SEIQRDV) SeedPopulation(t *town.Town, p town.Params, rng *rand.Rand) ([]*Folk, Ledger, error) {
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
		f := NewFolk(i, a.node, m.params.MaxEnergy, a.status, rng)
		if a.status == StatusSusceptible && rng.Float64() < m.params.Alpha {
			f.WantsVaccine = true
			f.Priority = append(f.Priority, town.KindHealthcare)
		}
		folks = append(folks, f)
		ledger[a.status]++
	}
	return folks, ledger, nil
}

// Interact applies the contact rule and the vaccination queue. At a healthcare
// facility the occupants wanting a vaccine form a first-come-first-served
// queue in occupant-list order; the first HospitalCapacity susceptibles
// convert to vaccinated. The desire flag is deliberately left set until the
// end-of-day sleep so the queue stays stable across the whole event.
func (m *SEIQRDV) Interact(f *Folk, occupants []*Folk, kind town.PlaceKind, ledger Ledger, dice float64) {
	if f.Status == StatusSusceptible {
		p := m.params.Beta / float64(len(occupants))
		if f.InverseBernoulli(occupants, p, StatusInfectious) > dice {
			f.Convert(StatusExposed, ledger)
			return
		}
	}

	if kind != town.KindHealthcare || !f.WantsVaccine || f.Status != StatusSusceptible {
		return
	}
	pos := 0
	for _, other := range occupants {
		if other == f {
			break
		}
		if other.WantsVaccine {
			pos++
		}
	}
	if m.params.HospitalCapacity == 0 || pos < m.params.HospitalCapacity {
		f.Convert(StatusVaccinated, ledger)
	}
}

// Sleep runs the time-based transitions: latency, confirmation into
// quarantine, and the quarantine outcome decided when the agent entered it.
func (m *SEIQRDV) Sleep(f *Folk, ledger Ledger, dice float64) {
	switch {
	case f.Status == StatusQuarantined && f.WillDie && f.Streak == m.params.Rho:
		f.Convert(StatusDead, ledger)
		f.Alive = false
		f.WantsVaccine = false
	case f.Status == StatusQuarantined && !f.WillDie && f.Streak == m.params.Lam:
		f.Convert(StatusRecovered, ledger)
		f.Restricted = false
	case f.Status == StatusExposed && f.Streak == m.params.Gamma:
		f.Convert(StatusInfectious, ledger)
	case f.Status == StatusInfectious && f.Streak == m.params.Delta:
		f.Convert(StatusQuarantined, ledger)
		f.Restricted = true
		f.WantsVaccine = false
		if dice < m.params.Kappa {
			f.WillDie = true
		}
	case f.Status == StatusSusceptible:
		if dice < m.params.Alpha {
			f.WantsVaccine = true
		}
	case f.Status == StatusVaccinated:
		// Cleared here rather than at the moment of vaccination so the
		// facility queue order holds for the full event.
		f.WantsVaccine = false
	}

	if f.WantsVaccine && !f.SeeksKind(town.KindHealthcare) {
		f.Priority = append(f.Priority, town.KindHealthcare)
	}
}

// UpdatePopulation applies natural mortality to every alive agent and then
// population growth: round(alive * lam_cap) newcomers spawn at random
// accommodations with a uniform random status excluding dead and quarantined,
// with strictly increasing IDs.
func (m *SEIQRDV) UpdatePopulation(folks []*Folk, t *town.Town, ledger Ledger, rng *rand.Rand) []*Folk {
	alive := 0
	for _, f := range folks {
		if f.Alive {
			alive++
		}
	}
	for _, f := range folks {
		if !f.Alive {
			continue
		}
		if rng.Float64() < m.params.Mu {
			f.Convert(StatusDead, ledger)
			f.Alive = false
		}
	}

	expected := float64(alive) * m.params.LamCap
	if expected < 1 {
		return folks
	}
	spawnable := make([]Status, 0, len(m.Statuses()))
	for _, s := range m.Statuses() {
		if s != StatusDead && s != StatusQuarantined {
			spawnable = append(spawnable, s)
		}
	}
	births := int(math.Round(expected))
	nextID := len(folks)
	for i := 0; i < births; i++ {
		node := t.Accommodations[rng.Intn(len(t.Accommodations))]
		status := spawnable[rng.Intn(len(spawnable))]
		f := NewFolk(nextID+i, node, m.params.MaxEnergy, status, rng)
		ledger[status]++
		folks = append(folks, f)
	}
	return folks
}
