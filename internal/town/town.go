// Package town provides the spatial graph the simulation runs on: locations
// with place kinds and 2D coordinates, undirected weighted edges, and the
// reachability queries agents use to pick destinations.
package town

import (
	"fmt"
	"sort"

	"github.com/paulmach/orb"
)

// PlaceKind tags what a location is used for. Unclassified locations never
// host agents and are excluded from every query.
type PlaceKind uint8

const (
	KindUnclassified PlaceKind = iota
	KindAccommodation
	KindWorkplace
	KindCommercial
	KindEducation
	KindReligious
	KindHealthcare
)

var kindNames = map[PlaceKind]string{
	KindUnclassified:  "unclassified",
	KindAccommodation: "accommodation",
	KindWorkplace:     "workplace",
	KindCommercial:    "commercial",
	KindEducation:     "education",
	KindReligious:     "religious",
	KindHealthcare:    "healthcare",
}

func (k PlaceKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("placekind(%d)", uint8(k))
}

// ParsePlaceKind converts a config string into a PlaceKind.
func ParsePlaceKind(s string) (PlaceKind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return KindUnclassified, fmt.Errorf("unknown place kind %q", s)
}

// KindSet is a set of place kinds used to filter destination queries.
type KindSet map[PlaceKind]struct{}

// NewKindSet builds a KindSet from the given kinds.
func NewKindSet(kinds ...PlaceKind) KindSet {
	s := make(KindSet, len(kinds))
	for _, k := range kinds {
		s[k] = struct{}{}
	}
	return s
}

// Has reports whether k is in the set.
func (s KindSet) Has(k PlaceKind) bool {
	_, ok := s[k]
	return ok
}

// Kinds returns the members in stable order.
func (s KindSet) Kinds() []PlaceKind {
	out := make([]PlaceKind, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Location is one node of the town graph. Occupants holds the indices of the
// agents present during the current step event; it is cleared and rebuilt for
// every event, never carried across events.
type Location struct {
	ID        int
	Kind      PlaceKind
	Coord     orb.Point
	Occupants []int
}

// Town owns the location graph. Edge weights are shortest travel costs
// precomputed by whoever built the graph; the simulation never recomputes
// paths, it only reads weights. Apart from occupant lists a Town is immutable
// once a run starts.
type Town struct {
	Locations      []*Location
	Accommodations []int // IDs of accommodation locations, for homing and spawning

	edges      []map[int]float64
	kindCounts map[PlaceKind]int
}

// New builds a Town over the given locations. Location IDs must equal their
// slice index so occupant bookkeeping can use flat indices.
func New(locations []*Location) (*Town, error) {
	t := &Town{
		Locations:  locations,
		edges:      make([]map[int]float64, len(locations)),
		kindCounts: make(map[PlaceKind]int),
	}
	for i, loc := range locations {
		if loc.ID != i {
			return nil, fmt.Errorf("location ID %d at index %d: IDs must be dense slice indices", loc.ID, i)
		}
		t.edges[i] = make(map[int]float64)
		t.kindCounts[loc.Kind]++
		if loc.Kind == KindAccommodation {
			t.Accommodations = append(t.Accommodations, i)
		}
	}
	return t, nil
}

// AddEdge records an undirected edge with a non-negative travel weight.
func (t *Town) AddEdge(a, b int, weight float64) error {
	if a == b {
		return fmt.Errorf("self edge at location %d", a)
	}
	if a < 0 || a >= len(t.Locations) || b < 0 || b >= len(t.Locations) {
		return fmt.Errorf("edge %d-%d out of range (%d locations)", a, b, len(t.Locations))
	}
	if weight < 0 {
		return fmt.Errorf("edge %d-%d has negative weight %f", a, b, weight)
	}
	t.edges[a][b] = weight
	t.edges[b][a] = weight
	return nil
}

// Distance returns the edge weight between a and b, and whether the edge
// exists. No edge means the pair is not directly reachable.
func (t *Town) Distance(a, b int) (float64, bool) {
	w, ok := t.edges[a][b]
	return w, ok
}

// Reachable returns every location within maxDistance of node whose kind is in
// kinds, sorted by ID. Unclassified locations and the node itself are never
// returned. Absence of an edge excludes a location regardless of coordinates.
func (t *Town) Reachable(node int, maxDistance float64, kinds KindSet) []int {
	var out []int
	for neighbor, w := range t.edges[node] {
		loc := t.Locations[neighbor]
		if loc.Kind == KindUnclassified {
			continue
		}
		if w <= maxDistance && kinds.Has(loc.Kind) {
			out = append(out, neighbor)
		}
	}
	// Map iteration order is random; candidate order feeds the random
	// destination draw and therefore the reproducibility contract.
	sort.Ints(out)
	return out
}

// Nearest returns the minimum-weight direct neighbor of node whose kind is in
// kinds, ignoring any distance cap. Ties break toward the lower ID. The second
// return is false when no such neighbor exists.
func (t *Town) Nearest(node int, kinds KindSet) (int, bool) {
	best := -1
	bestDist := 0.0
	for neighbor, w := range t.edges[node] {
		loc := t.Locations[neighbor]
		if loc.Kind == KindUnclassified || !kinds.Has(loc.Kind) {
			continue
		}
		if best == -1 || w < bestDist || (w == bestDist && neighbor < best) {
			best = neighbor
			bestDist = w
		}
	}
	if best == -1 {
		return 0, false
	}
	return best, true
}

// ClearOccupants empties every occupant list. Called before each step event.
func (t *Town) ClearOccupants() {
	for _, loc := range t.Locations {
		loc.Occupants = loc.Occupants[:0]
	}
}

// Place appends an agent index to a location's occupant list.
func (t *Town) Place(folk, node int) {
	loc := t.Locations[node]
	loc.Occupants = append(loc.Occupants, folk)
}

// HasKind reports whether at least one location of the kind exists.
func (t *Town) HasKind(k PlaceKind) bool {
	return t.kindCounts[k] > 0
}

// KindCounts returns a copy of the per-kind location counts.
func (t *Town) KindCounts() map[PlaceKind]int {
	out := make(map[PlaceKind]int, len(t.kindCounts))
	for k, n := range t.kindCounts {
		out[k] = n
	}
	return out
}

// Len returns the number of locations, including unclassified ones.
func (t *Town) Len() int {
	return len(t.Locations)
}

// EdgeCount returns the number of undirected edges.
func (t *Town) EdgeCount() int {
	n := 0
	for _, adj := range t.edges {
		n += len(adj)
	}
	return n / 2
}

func (t *Town) String() string {
	return fmt.Sprintf("Town(locations=%d, edges=%d, accommodations=%d)",
		t.Len(), t.EdgeCount(), len(t.Accommodations))
}
