// Package towngen builds synthetic towns using layered simplex noise: a
// density field decides where people live, an activity field decides what the
// busier locations are used for. It fills the graph-ingestion role for runs
// that do not come with an externally built town.
package towngen

import (
	"fmt"
	"math/rand"
	"sort"

	opensimplex "github.com/ojrac/opensimplex-go"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/talgya/contagion/internal/town"
)

// GenConfig holds town generation parameters.
type GenConfig struct {
	Locations int     // number of graph nodes
	Span      float64 // side length in meters of the square the town occupies
	Seed      int64   // random seed (0 = random)
	Neighbors int     // nearest-neighbor edges per location
}

// DefaultGenConfig returns a medium town suitable for full runs.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Locations: 400,
		Span:      4000,
		Seed:      0,
		Neighbors: 6,
	}
}

// SmallTestConfig returns a tiny town for rapid iteration.
func SmallTestConfig() GenConfig {
	return GenConfig{
		Locations: 60,
		Span:      1500,
		Seed:      42,
		Neighbors: 4,
	}
}

// Generate creates a complete town: placed locations, noise-derived place
// kinds, and nearest-neighbor edges weighted by planar distance. Equal seeds
// produce equal towns.
func Generate(cfg GenConfig) (*town.Town, error) {
	if cfg.Locations < 2 {
		return nil, fmt.Errorf("need at least 2 locations, got %d", cfg.Locations)
	}
	if cfg.Span <= 0 {
		return nil, fmt.Errorf("span must be positive, got %f", cfg.Span)
	}
	if cfg.Neighbors < 1 || cfg.Neighbors >= cfg.Locations {
		return nil, fmt.Errorf("neighbors must be in [1, %d), got %d", cfg.Locations, cfg.Neighbors)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}
	rng := rand.New(rand.NewSource(seed))

	// Two noise layers: settlement density and commercial activity.
	densityNoise := opensimplex.NewNormalized(seed)
	activityNoise := opensimplex.NewNormalized(seed + 1)

	locations := make([]*town.Location, cfg.Locations)
	for i := range locations {
		pt := orb.Point{rng.Float64() * cfg.Span, rng.Float64() * cfg.Span}
		// Sample noise in unit space so the field shape is independent of
		// the town's physical size.
		nx, ny := pt[0]/cfg.Span*3, pt[1]/cfg.Span*3
		density := densityNoise.Eval2(nx, ny)
		activity := activityNoise.Eval2(nx, ny)
		locations[i] = &town.Location{
			ID:    i,
			Kind:  deriveKind(density, activity),
			Coord: pt,
		}
	}
	ensureKind(locations, town.KindAccommodation, densityNoise, cfg.Span)
	ensureKind(locations, town.KindHealthcare, activityNoise, cfg.Span)

	t, err := town.New(locations)
	if err != nil {
		return nil, err
	}

	// Connect each location to its nearest neighbors; edge weights are the
	// planar distances and stand in for shortest travel costs.
	type neighbor struct {
		id   int
		dist float64
	}
	for i, loc := range locations {
		neighbors := make([]neighbor, 0, len(locations)-1)
		for j, other := range locations {
			if i == j {
				continue
			}
			neighbors = append(neighbors, neighbor{j, planar.Distance(loc.Coord, other.Coord)})
		}
		sort.Slice(neighbors, func(a, b int) bool {
			if neighbors[a].dist != neighbors[b].dist {
				return neighbors[a].dist < neighbors[b].dist
			}
			return neighbors[a].id < neighbors[b].id
		})
		for _, n := range neighbors[:cfg.Neighbors] {
			if err := t.AddEdge(i, n.id, n.dist); err != nil {
				return nil, err
			}
		}
	}
	return t, nil
}

// deriveKind maps the two noise fields to a place kind. Low-density fringes
// stay unclassified; dense areas are mostly homes with activity deciding the
// rest.
func deriveKind(density, activity float64) town.PlaceKind {
	switch {
	case density < 0.18:
		return town.KindUnclassified
	case density > 0.52:
		return town.KindAccommodation
	case activity > 0.62:
		return town.KindWorkplace
	case activity > 0.45:
		return town.KindCommercial
	case activity > 0.30:
		return town.KindEducation
	case activity > 0.16:
		return town.KindReligious
	default:
		return town.KindHealthcare
	}
}

// ensureKind guarantees at least one location of the kind exists by
// reassigning the location where the given noise field peaks.
func ensureKind(locations []*town.Location, kind town.PlaceKind, noise opensimplex.Noise, span float64) {
	for _, loc := range locations {
		if loc.Kind == kind {
			return
		}
	}
	best, bestVal := 0, -1.0
	for i, loc := range locations {
		v := noise.Eval2(loc.Coord[0]/span*3, loc.Coord[1]/span*3)
		if v > bestVal {
			best, bestVal = i, v
		}
	}
	locations[best].Kind = kind
}
