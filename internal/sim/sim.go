// Package sim ties the town, the step events, and the model into one
// reproducible daily loop: movement, interaction, end-of-day sleep, and
// population dynamics, in that order, all drawing from a single seeded
// random stream.
package sim

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/talgya/contagion/internal/model"
	"github.com/talgya/contagion/internal/town"
)

// State names where the run currently stands.
type State uint8

const (
	Running State = iota
	// TerminatedExhausted: the infectious subset reached zero.
	TerminatedExhausted
	// TerminatedMaxSteps: the configured day cap was reached.
	TerminatedMaxSteps
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case TerminatedExhausted:
		return "terminated-exhausted"
	case TerminatedMaxSteps:
		return "terminated-max-steps"
	}
	return fmt.Sprintf("state(%d)", uint8(s))
}

// Recorder receives the structured run output at day boundaries. Serialization
// is the recorder's concern, not the simulation's.
type Recorder interface {
	// Summary records one per-status count row per event.
	Summary(day int, event string, ledger model.Ledger) error
	// FolkRow records one agent's state after an event.
	FolkRow(day int, event string, f *model.Folk) error
}

// Simulation owns the daily loop. It reads the town graph, mutates only
// occupant lists and agent state, and delegates every status decision to the
// model.
type Simulation struct {
	Town   *town.Town
	Model  model.Model
	Events []model.StepEvent // user-defined; the end_day sentinel is appended at run time

	Folks  []*model.Folk
	Ledger model.Ledger

	Day     int
	MaxDays int
	State   State

	rng      *rand.Rand
	rec      Recorder
	logFolks bool
	endDay   model.StepEvent
}

// New seeds the population and validates that the town can host the model and
// its events. The seed fixes the whole run: equal seeds give equal runs.
func New(t *town.Town, m model.Model, pop town.Params, events []model.StepEvent, maxDays int, seed int64) (*Simulation, error) {
	if maxDays <= 0 {
		return nil, fmt.Errorf("max days must be positive, got %d", maxDays)
	}
	for _, ev := range events {
		if ev.Kind == model.SendHome && ev.Mobility != nil {
			return nil, fmt.Errorf("event %q: send-home events cannot carry a mobility function", ev.Name)
		}
	}
	rng := rand.New(rand.NewSource(seed))
	folks, ledger, err := m.SeedPopulation(t, pop, rng)
	if err != nil {
		return nil, err
	}
	return &Simulation{
		Town:    t,
		Model:   m,
		Events:  events,
		Folks:   folks,
		Ledger:  ledger,
		MaxDays: maxDays,
		rng:     rng,
		endDay:  model.NewSendHome(model.EndDayEvent),
	}, nil
}

// SetRecorder wires the output collaborator. logFolks additionally emits one
// row per agent per event.
func (s *Simulation) SetRecorder(r Recorder, logFolks bool) {
	s.rec = r
	s.logFolks = logFolks
}

// InfectiousCount returns the current size of the model's infectious subset.
func (s *Simulation) InfectiousCount() int {
	return s.Ledger.Count(s.Model.Infectious()...)
}

// AliveCount returns the number of alive agents.
func (s *Simulation) AliveCount() int {
	n := 0
	for _, f := range s.Folks {
		if f.Alive {
			n++
		}
	}
	return n
}

// Run executes days until a terminal state is reached. A run that starts with
// no infectious agents terminates at day 0 without stepping.
func (s *Simulation) Run() error {
	if s.rec != nil {
		if err := s.rec.Summary(0, "", s.Ledger); err != nil {
			return fmt.Errorf("record initial summary: %w", err)
		}
		if s.logFolks {
			if err := s.recordFolks(0, ""); err != nil {
				return err
			}
		}
	}
	for s.State == Running {
		if s.InfectiousCount() == 0 {
			s.State = TerminatedExhausted
			break
		}
		if s.Day >= s.MaxDays {
			s.State = TerminatedMaxSteps
			break
		}
		if err := s.Step(); err != nil {
			return err
		}
	}
	slog.Info("simulation finished",
		"state", s.State.String(),
		"days", s.Day,
		"alive", s.AliveCount(),
	)
	return nil
}

// Step advances exactly one day: every configured event in order, then the
// end-of-day sentinel with sleep and population dynamics.
func (s *Simulation) Step() error {
	day := s.Day + 1
	for _, ev := range s.Events {
		if err := s.executeEvent(day, ev); err != nil {
			return err
		}
	}
	if err := s.executeEvent(day, s.endDay); err != nil {
		return err
	}
	s.sleepAll()
	if pd, ok := s.Model.(model.PopulationDynamics); ok {
		s.Folks = pd.UpdatePopulation(s.Folks, s.Town, s.Ledger, s.rng)
	}
	s.Day = day

	if s.rec != nil {
		if err := s.rec.Summary(day, model.EndDayEvent, s.Ledger); err != nil {
			return fmt.Errorf("record day %d: %w", day, err)
		}
		if s.logFolks {
			if err := s.recordFolks(day, model.EndDayEvent); err != nil {
				return err
			}
		}
	}
	args := []any{"day", day, "alive", s.AliveCount(), "infectious", s.InfectiousCount()}
	for _, st := range s.Model.Statuses() {
		args = append(args, string(st), s.Ledger[st])
	}
	slog.Info("daily report", args...)
	return nil
}

// executeEvent runs one step event: occupant lists are rebuilt from scratch,
// all movement resolves, and only then does anyone interact. Interacting with
// agents that have not moved yet this event would read stale occupancy.
func (s *Simulation) executeEvent(day int, ev model.StepEvent) error {
	s.Town.ClearOccupants()

	// Movement phase, in stable creation order.
	for idx, f := range s.Folks {
		if !f.Alive || f.Restricted || f.Energy <= 0 {
			continue
		}
		switch ev.Kind {
		case model.SendHome:
			f.Loc = f.Home
		case model.Disperse:
			if err := s.disperse(f, ev); err != nil {
				return err
			}
		}
		s.Town.Place(idx, f.Loc)
	}

	// Interaction phase: one call per occupant per node, each with a fresh
	// draw, in location then arrival order.
	for _, loc := range s.Town.Locations {
		if len(loc.Occupants) == 0 {
			continue
		}
		occupants := make([]*model.Folk, len(loc.Occupants))
		for i, idx := range loc.Occupants {
			occupants[i] = s.Folks[idx]
		}
		for _, f := range occupants {
			s.Model.Interact(f, occupants, loc.Kind, s.Ledger, s.rng.Float64())
			f.SpendEnergy()
		}
	}

	// The end-of-day rows are emitted by Step once sleep and population
	// dynamics have settled.
	if s.rec != nil && ev.Name != model.EndDayEvent {
		if err := s.rec.Summary(day, ev.Name, s.Ledger); err != nil {
			return fmt.Errorf("record event %q: %w", ev.Name, err)
		}
		if s.logFolks {
			if err := s.recordFolks(day, ev.Name); err != nil {
				return err
			}
		}
	}
	return nil
}

// disperse resolves one agent's destination for a disperse event. Priority
// place seeking runs first and ignores the distance cap; it falls back to the
// standard bounded search when no priority destination is reachable.
func (s *Simulation) disperse(f *model.Folk, ev model.StepEvent) error {
	if len(f.Priority) > 0 {
		kinds := town.NewKindSet(f.Priority...)
		if node, ok := s.Town.Nearest(f.Loc, kinds); ok {
			f.Loc = node
			f.DropPriority(s.Town.Locations[node].Kind)
			return nil
		}
	}

	candidates := s.Town.Reachable(f.Loc, ev.MaxDistance, ev.PlaceKinds)
	if len(candidates) == 0 {
		// Nowhere to go is not an error; the agent stays put.
		return nil
	}
	if ev.Mobility == nil {
		f.Loc = candidates[s.rng.Intn(len(candidates))]
		return nil
	}

	distances := make([]float64, len(candidates))
	for i, c := range candidates {
		d, _ := s.Town.Distance(f.Loc, c)
		distances[i] = d
	}
	choice, err := weightedChoice(candidates, ev.Mobility(distances, f), s.rng)
	if err != nil {
		return fmt.Errorf("event %q: %w", ev.Name, err)
	}
	f.Loc = choice
	return nil
}

// weightedChoice draws one candidate from a weight vector. Degenerate weights
// are a caller contract violation and fail loudly; the framework does not
// repair them.
func weightedChoice(candidates []int, weights []float64, rng *rand.Rand) (int, error) {
	if len(weights) != len(candidates) {
		return 0, fmt.Errorf("mobility function returned %d weights for %d candidates", len(weights), len(candidates))
	}
	total := 0.0
	for _, w := range weights {
		if w < 0 {
			return 0, fmt.Errorf("mobility function returned negative weight %f", w)
		}
		total += w
	}
	if total <= 0 {
		return 0, fmt.Errorf("mobility function returned a non-positive total weight over %d candidates", len(candidates))
	}
	draw := rng.Float64() * total
	acc := 0.0
	for i, w := range weights {
		acc += w
		if draw < acc {
			return candidates[i], nil
		}
	}
	return candidates[len(candidates)-1], nil
}

// sleepAll closes the day for every alive agent, movement-restricted ones
// included: shared rest bookkeeping first, then the model's time-based
// transitions.
func (s *Simulation) sleepAll() {
	for _, f := range s.Folks {
		if !f.Alive {
			continue
		}
		f.Rest(s.rng)
		s.Model.Sleep(f, s.Ledger, s.rng.Float64())
	}
}

func (s *Simulation) recordFolks(day int, event string) error {
	for _, f := range s.Folks {
		if err := s.rec.FolkRow(day, event, f); err != nil {
			return fmt.Errorf("record agent %d: %w", f.ID, err)
		}
	}
	return nil
}
