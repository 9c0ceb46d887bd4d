package model

import (
	"fmt"
	"math/rand"

	"github.com/talgya/contagion/internal/town"
)

// SEIsIrRParams configures the rumor spreading model. The transition
// probabilities are derived once from the rumor's credibility (gamma),
// relevance (alpha), and base spreading probability (lam); literacy splits
// the non-spreading population into ignorant and intelligent crowd classes.
type SEIsIrRParams struct {
	MaxEnergy int
	Literacy  float64 // fraction of the population in the ignorant class Is
	Gamma     float64 // rumor credibility
	Alpha     float64 // rumor relevance
	Lam       float64 // base spreading probability
	Phi       float64 // E -> R stifling probability
	Theta     float64 // E -> S probability
	Mu        float64 // spreading desire ratio of Is to Ir
	Eta1      float64 // S -> R probability on contact
	Eta2      float64 // nightly forgetting probability
	MemSpan   int     // days a spreader holds on to the rumor at most

	// Derived per-contact rates, filled in by Validate.
	is2E, is2S, ir2S float64
}

// Validate checks ranges and derives the composite transition rates.
func (p *SEIsIrRParams) Validate() error {
	if p.MaxEnergy <= 0 {
		return fmt.Errorf("max energy must be positive, got %d", p.MaxEnergy)
	}
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"literacy", p.Literacy},
		{"gamma", p.Gamma},
		{"alpha", p.Alpha},
		{"lam", p.Lam},
		{"phi", p.Phi},
		{"theta", p.Theta},
		{"mu", p.Mu},
		{"eta1", p.Eta1},
		{"eta2", p.Eta2},
	} {
		if err := probabilityInRange(f.name, f.v); err != nil {
			return err
		}
	}
	if p.MemSpan < 1 {
		return fmt.Errorf("mem span must be at least 1 day, got %d", p.MemSpan)
	}
	gal := p.Gamma * p.Alpha * p.Lam
	p.is2E = (1 - p.Gamma) * gal
	p.is2S = gal * p.Mu
	p.ir2S = gal
	return nil
}

// SEIsIrR models rumor spreading with credibility, relevance, and a
// personality split of the crowd: in this model the spreaders are the S
// compartment, and Is/Ir are the untouched classes the rumor converts.
type SEIsIrR struct {
	params SEIsIrRParams
}

// NewSEIsIrR validates the parameters and builds the model.
func NewSEIsIrR(p SEIsIrRParams) (*SEIsIrR, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("SEIsIrR parameters: %w", err)
	}
	return &SEIsIrR{params: p}, nil
}

func (m *SEIsIrR) Name() string { return "seisirr" }

func (m *SEIsIrR) Statuses() []Status {
	return []Status{StatusSusceptible, StatusExposed, StatusIgnorant, StatusIntelligent, StatusRecovered}
}

// Infectious: the rumor dies out when nobody is left spreading it.
func (m *SEIsIrR) Infectious() []Status {
	return []Status{StatusSusceptible}
}

func (m *SEIsIrR) RequiredPlaceKinds() []town.PlaceKind {
	return []town.PlaceKind{town.KindAccommodation}
}

func (m *SEIsIrR) MaxEnergy() int { return m.params.MaxEnergy }

func (m *SEIsIrR) SeedPopulation(t *town.Town, p town.Params, rng *rand.Rand) ([]*Folk, Ledger, error) {
	if err := requireKinds(t, m.RequiredPlaceKinds()); err != nil {
		return nil, nil, err
	}
	rest := p.Population - p.InitialSpreaders
	numIgnorant := int(float64(rest)*m.params.Literacy + 0.5)
	plan, err := seedAssignments(t, p, rng, StatusSusceptible, func(i int) Status {
		if i < numIgnorant {
			return StatusIgnorant
		}
		return StatusIntelligent
	})
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

// contact scales the per-contact rate by the agent's remaining energy before
// the shared inverse-Bernoulli aggregation: a tired agent persuades less.
func (m *SEIsIrR) contact(f *Folk, occupants []*Folk, rate float64, statuses ...Status) float64 {
	scaled := rate * float64(f.Energy) / float64(f.MaxEnergy)
	return f.InverseBernoulli(occupants, scaled, statuses...)
}

// Interact applies the rumor transition rules. Where a status has two
// possible exits, the likelier one is evaluated second so a single dice draw
// resolves both without bias toward either.
func (m *SEIsIrR) Interact(f *Folk, occupants []*Folk, _ town.PlaceKind, ledger Ledger, dice float64) {
	p := m.params
	switch f.Status {
	case StatusIntelligent:
		if m.contact(f, occupants, p.ir2S, StatusSusceptible) > dice {
			f.Convert(StatusSusceptible, ledger)
		}
	case StatusIgnorant:
		toS := m.contact(f, occupants, p.is2S, StatusSusceptible)
		toE := m.contact(f, occupants, p.is2E, StatusSusceptible)
		if toS > toE {
			if toE > dice {
				f.Convert(StatusExposed, ledger)
			} else if toS > dice {
				f.Convert(StatusSusceptible, ledger)
			}
		} else {
			if toS > dice {
				f.Convert(StatusSusceptible, ledger)
			} else if toE > dice {
				f.Convert(StatusExposed, ledger)
			}
		}
	case StatusExposed:
		toS := m.contact(f, occupants, p.Theta, StatusSusceptible)
		toR := m.contact(f, occupants, p.Phi, StatusRecovered)
		if toS > toR {
			if toR > dice {
				f.Convert(StatusRecovered, ledger)
			} else if toS > dice {
				f.Convert(StatusSusceptible, ledger)
			}
		} else {
			if toR > dice {
				f.Convert(StatusRecovered, ledger)
			} else if toS > dice {
				f.Convert(StatusSusceptible, ledger)
			}
		}
	case StatusSusceptible:
		if m.contact(f, occupants, p.Eta1, StatusSusceptible, StatusExposed, StatusRecovered) > dice {
			f.Convert(StatusRecovered, ledger)
		}
	}
}

// Sleep applies the forgetting rule: a spreader stifles once the rumor has
// been held past the memory span, or stochastically each night.
func (m *SEIsIrR) Sleep(f *Folk, ledger Ledger, dice float64) {
	if f.Status != StatusSusceptible {
		return
	}
	if f.Streak >= m.params.MemSpan || dice < m.params.Eta2 {
		f.Convert(StatusRecovered, ledger)
	}
}
