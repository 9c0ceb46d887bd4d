package model

import (
	"fmt"
	"math"

	"github.com/talgya/contagion/internal/town"
)

// EventKind classifies a step event's movement behavior.
type EventKind uint8

const (
	// SendHome returns every eligible agent straight to its home location.
	SendHome EventKind = iota
	// Disperse sends eligible agents to candidate locations within a
	// distance bound and lets them interact at the destination.
	Disperse
)

func (k EventKind) String() string {
	switch k {
	case SendHome:
		return "send_home"
	case Disperse:
		return "disperse"
	}
	return fmt.Sprintf("eventkind(%d)", uint8(k))
}

// EndDayEvent names the sentinel the orchestrator appends after all
// user-defined events: everyone goes home, sleeps, and the day closes.
const EndDayEvent = "end_day"

// Mobility maps the distances of a disperse event's candidate locations to
// destination weights for the acting agent. Weights must be non-negative with
// a positive total; they need not sum to one. A degenerate result aborts the
// run rather than being silently repaired.
type Mobility func(distances []float64, f *Folk) []float64

// StepEvent is a declarative descriptor of one daily activity.
type StepEvent struct {
	Name        string // for logging only
	Kind        EventKind
	MaxDistance float64
	PlaceKinds  town.KindSet
	Mobility    Mobility // nil means a uniform draw over candidates
}

// NewSendHome builds a homing event.
func NewSendHome(name string) StepEvent {
	return StepEvent{Name: name, Kind: SendHome}
}

// NewDisperse builds a movement event with a distance bound and eligible
// destination kinds. mobility may be nil for a uniform destination draw.
func NewDisperse(name string, maxDistance float64, kinds town.KindSet, mobility Mobility) (StepEvent, error) {
	if maxDistance <= 0 {
		return StepEvent{}, fmt.Errorf("event %q: max distance must be positive, got %f", name, maxDistance)
	}
	if len(kinds) == 0 {
		return StepEvent{}, fmt.Errorf("event %q: disperse events need at least one place kind", name)
	}
	if kinds.Has(town.KindUnclassified) {
		return StepEvent{}, fmt.Errorf("event %q: unclassified locations cannot host agents", name)
	}
	return StepEvent{
		Name:        name,
		Kind:        Disperse,
		MaxDistance: maxDistance,
		PlaceKinds:  kinds,
		Mobility:    mobility,
	}, nil
}

// LogNormalMobility weights candidates by a log-normal distance kernel, the
// shape observed in daily human travel studies. medianDistance is where the
// kernel peaks; sigma controls the spread around it.
func LogNormalMobility(medianDistance, sigma float64) Mobility {
	mu := math.Log(medianDistance)
	return func(distances []float64, _ *Folk) []float64 {
		weights := make([]float64, len(distances))
		for i, d := range distances {
			if d < 1e-6 {
				d = 1e-6
			}
			ld := math.Log(d)
			w := 1 / (d * sigma * math.Sqrt(2*math.Pi)) *
				math.Exp(-(ld-mu)*(ld-mu)/(2*sigma*sigma))
			if math.IsNaN(w) || math.IsInf(w, 0) {
				w = 0
			}
			weights[i] = w
		}
		return weights
	}
}

// EnergyExponentialMobility weights candidates by an exponential decay whose
// rate follows the agent's remaining energy: a rested agent ranges farther, a
// tired one stays nearby. distanceScale rescales distances before the
// decay is applied (1000 treats distances as kilometers).
func EnergyExponentialMobility(distanceScale float64) Mobility {
	return func(distances []float64, f *Folk) []float64 {
		ratio := 0.0
		if f.MaxEnergy > 0 {
			ratio = float64(f.Energy) / float64(f.MaxEnergy)
		}
		lam := 2.0 - ratio
		weights := make([]float64, len(distances))
		for i, d := range distances {
			weights[i] = lam * math.Exp(-lam*d/distanceScale)
		}
		return weights
	}
}
