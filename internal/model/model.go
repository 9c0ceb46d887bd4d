package model

import (
	"fmt"
	"math/rand"

	"github.com/talgya/contagion/internal/town"
)

// Model is the contract a concrete spread model fulfills. The orchestrator
// owns movement and phasing; the model owns the status set and the two
// stochastic decision points, contact interaction and end-of-day progression.
type Model interface {
	Name() string
	// Statuses lists every compartment, in ledger/report order.
	Statuses() []Status
	// Infectious lists the subset whose extinction terminates the run.
	Infectious() []Status
	// RequiredPlaceKinds lists kinds the town must contain for this model.
	RequiredPlaceKinds() []town.PlaceKind
	MaxEnergy() int

	// SeedPopulation creates the initial agents and the matching ledger.
	SeedPopulation(t *town.Town, p town.Params, rng *rand.Rand) ([]*Folk, Ledger, error)

	// Interact may convert f's status based on the other occupants of the
	// location. dice is a fresh uniform draw in [0,1).
	Interact(f *Folk, occupants []*Folk, kind town.PlaceKind, ledger Ledger, dice float64)

	// Sleep applies time-based transitions after the shared Rest bookkeeping
	// (streak increment, energy reset) has run. Called once per alive agent
	// per day, movement-restricted agents included.
	Sleep(f *Folk, ledger Ledger, dice float64)
}

// PopulationDynamics is implemented by models whose populations change over
// time (natural mortality, births, migration). The orchestrator discovers it
// by type assertion after the end-of-day event.
type PopulationDynamics interface {
	// UpdatePopulation applies daily deaths and growth and returns the agent
	// slice, possibly extended. Agents are never removed, only marked not
	// alive; new agents get strictly increasing IDs.
	UpdatePopulation(folks []*Folk, t *town.Town, ledger Ledger, rng *rand.Rand) []*Folk
}

// assignment pairs a home location with an initial status during seeding.
type assignment struct {
	node   int
	status Status
}

// seedAssignments lays out the shared placement plan: the unpinned spreaders
// at random accommodations first, then the rest of the population via fill,
// then the pinned spreader nodes. Agent IDs follow this order.
func seedAssignments(t *town.Town, p town.Params, rng *rand.Rand, spreader Status, fill func(i int) Status) ([]assignment, error) {
	if err := p.Validate(t); err != nil {
		return nil, fmt.Errorf("population parameters: %w", err)
	}
	out := make([]assignment, 0, p.Population)
	for i := 0; i < p.RandomSpreaders(); i++ {
		node := t.Accommodations[rng.Intn(len(t.Accommodations))]
		out = append(out, assignment{node, spreader})
	}
	rest := p.Population - p.InitialSpreaders
	for i := 0; i < rest; i++ {
		node := t.Accommodations[rng.Intn(len(t.Accommodations))]
		out = append(out, assignment{node, fill(i)})
	}
	for _, node := range p.SpreaderNodes {
		out = append(out, assignment{node, spreader})
	}
	return out, nil
}

// requireKinds verifies the town contains every place kind the model needs.
func requireKinds(t *town.Town, kinds []town.PlaceKind) error {
	for _, k := range kinds {
		if !t.HasKind(k) {
			return fmt.Errorf("town has no %s locations, required by the model", k)
		}
	}
	return nil
}

func probabilityInRange(name string, v float64) error {
	if v < 0 || v > 1 {
		return fmt.Errorf("%s must be between 0 and 1, got %f", name, v)
	}
	return nil
}

func positiveDuration(name string, v int) error {
	if v <= 0 {
		return fmt.Errorf("%s must be a positive number of days, got %d", name, v)
	}
	return nil
}
