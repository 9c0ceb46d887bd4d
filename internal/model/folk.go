// Package model provides the agent state machine: the Folk agent, the status
// ledger, step events, and the concrete spread models. The mechanics shared by
// every model (ledger bookkeeping, streak reset, inverse-Bernoulli contact)
// live here once; models supply only their status sets and transition rules.
package model

import (
	"math"
	"math/rand"

	"github.com/talgya/contagion/internal/town"
)

// Status is a compartment label describing an agent's progression.
type Status string

// Compartments used by the bundled models.
const (
	StatusSusceptible Status = "S"
	StatusExposed     Status = "E"
	StatusInfectious  Status = "I"
	StatusRecovered   Status = "R"
	StatusQuarantined Status = "Q"
	StatusDead        Status = "D"
	StatusVaccinated  Status = "V"

	// Rumor model spreader split: ignorant vs intelligent crowd classes.
	StatusIgnorant    Status = "Is"
	StatusIntelligent Status = "Ir"
)

// Ledger maps each status to its current count. It is updated only through
// Folk.Convert so that the sum over all statuses always equals the population
// size, the dead compartment included.
type Ledger map[Status]int

// NewLedger returns a zeroed ledger covering the given statuses.
func NewLedger(statuses []Status) Ledger {
	l := make(Ledger, len(statuses))
	for _, s := range statuses {
		l[s] = 0
	}
	return l
}

// Total sums the counts across all statuses.
func (l Ledger) Total() int {
	n := 0
	for _, c := range l {
		n += c
	}
	return n
}

// Count sums the counts of the given statuses.
func (l Ledger) Count(statuses ...Status) int {
	n := 0
	for _, s := range statuses {
		n += l[s]
	}
	return n
}

// Clone returns an independent copy.
func (l Ledger) Clone() Ledger {
	out := make(Ledger, len(l))
	for s, c := range l {
		out[s] = c
	}
	return out
}

// Folk is one agent. Agents are created at initialization (and, for models
// with population growth, during the daily update) and never removed from the
// collection; death only flips Alive so that indices and logs stay stable.
type Folk struct {
	ID   int
	Home int // home location
	Loc  int // current location

	MaxEnergy int
	Energy    int // reset each morning to a random value in [0, MaxEnergy]

	Status Status
	Streak int // consecutive days in the current status

	Alive      bool
	Restricted bool // movement restriction (quarantine)

	// Priority holds place kinds the agent actively seeks, overriding the
	// normal distance-bounded destination search until visited.
	Priority []town.PlaceKind

	// Used by quarantine-capable models only.
	WantsVaccine bool
	WillDie      bool
}

// NewFolk creates an agent at home with a random initial energy.
func NewFolk(id, home, maxEnergy int, status Status, rng *rand.Rand) *Folk {
	return &Folk{
		ID:        id,
		Home:      home,
		Loc:       home,
		MaxEnergy: maxEnergy,
		Energy:    rng.Intn(maxEnergy + 1),
		Status:    status,
		Alive:     true,
	}
}

// Convert moves the agent to a new status and keeps the ledger in step. This
// is the only sanctioned status mutation: every transition rule must route
// through it, or the ledger invariant breaks.
func (f *Folk) Convert(newStatus Status, ledger Ledger) {
	ledger[f.Status]--
	ledger[newStatus]++
	f.Status = newStatus
	f.Streak = 0
}

// Rest applies the start-of-sleep bookkeeping every model shares: the status
// streak grows by one and energy resets for the next morning.
func (f *Folk) Rest(rng *rand.Rand) {
	f.Streak++
	f.Energy = rng.Intn(f.MaxEnergy + 1)
}

// SpendEnergy charges one energy for an interaction, never going below zero.
func (f *Folk) SpendEnergy() {
	if f.Energy > 0 {
		f.Energy--
	}
}

// InverseBernoulli converts a per-contact conversion probability into the
// probability of at least one successful conversion: 1 - (1-p)^k, where k is
// the number of co-located agents (other than f) whose status is in statuses.
// Callers scale p first; the canonical contact rule passes p = rate/n with n
// the occupant count.
func (f *Folk) InverseBernoulli(occupants []*Folk, p float64, statuses ...Status) float64 {
	k := 0
	for _, other := range occupants {
		if other == f {
			continue
		}
		for _, s := range statuses {
			if other.Status == s {
				k++
				break
			}
		}
	}
	if k == 0 {
		return 0
	}
	return 1 - math.Pow(1-p, float64(k))
}

// SeeksKind reports whether the kind is already on the priority list.
func (f *Folk) SeeksKind(k town.PlaceKind) bool {
	for _, p := range f.Priority {
		if p == k {
			return true
		}
	}
	return false
}

// DropPriority removes one occurrence of the kind from the priority list.
func (f *Folk) DropPriority(k town.PlaceKind) {
	for i, p := range f.Priority {
		if p == k {
			f.Priority = append(f.Priority[:i], f.Priority[i+1:]...)
			return
		}
	}
}
