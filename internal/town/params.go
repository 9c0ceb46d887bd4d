package town

import "fmt"

// Params describes the population a simulation seeds into a town: how many
// agents in total, how many start as spreaders, and optionally explicit
// locations for some of those spreaders.
type Params struct {
	Population       int
	InitialSpreaders int
	// SpreaderNodes pins spreaders to specific accommodation locations.
	// The remaining InitialSpreaders - len(SpreaderNodes) are placed at
	// random accommodations.
	SpreaderNodes []int
}

// Validate checks the parameters against the town they will seed.
func (p Params) Validate(t *Town) error {
	if p.Population <= 0 {
		return fmt.Errorf("population must be positive, got %d", p.Population)
	}
	if p.InitialSpreaders <= 0 {
		return fmt.Errorf("initial spreader count must be positive, got %d", p.InitialSpreaders)
	}
	if p.InitialSpreaders > p.Population {
		return fmt.Errorf("initial spreaders (%d) exceed population (%d)", p.InitialSpreaders, p.Population)
	}
	if len(p.SpreaderNodes) > p.InitialSpreaders {
		return fmt.Errorf("%d pinned spreader nodes but only %d initial spreaders", len(p.SpreaderNodes), p.InitialSpreaders)
	}
	if len(t.Accommodations) == 0 {
		return fmt.Errorf("town has no accommodation locations to place agents at")
	}
	for _, n := range p.SpreaderNodes {
		if n < 0 || n >= t.Len() {
			return fmt.Errorf("spreader node %d out of range (%d locations)", n, t.Len())
		}
		if t.Locations[n].Kind == KindUnclassified {
			return fmt.Errorf("spreader node %d is unclassified and cannot host agents", n)
		}
	}
	return nil
}

// RandomSpreaders returns how many spreaders are placed at random
// accommodations rather than pinned nodes.
func (p Params) RandomSpreaders() int {
	return p.InitialSpreaders - len(p.SpreaderNodes)
}
