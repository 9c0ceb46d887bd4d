package town

import (
	"testing"

	"github.com/paulmach/orb"
)

// testTown builds a small star-shaped town:
//
//	0 accommodation — hub
//	1 workplace     (dist 100)
//	2 commercial    (dist 250)
//	3 healthcare    (dist 900)
//	4 unclassified  (dist 50)
//	5 accommodation (no edge to 0)
func testTown(t *testing.T) *Town {
	t.Helper()
	locs := []*Location{
		{ID: 0, Kind: KindAccommodation, Coord: orb.Point{0, 0}},
		{ID: 1, Kind: KindWorkplace, Coord: orb.Point{100, 0}},
		{ID: 2, Kind: KindCommercial, Coord: orb.Point{0, 250}},
		{ID: 3, Kind: KindHealthcare, Coord: orb.Point{900, 0}},
		{ID: 4, Kind: KindUnclassified, Coord: orb.Point{50, 0}},
		{ID: 5, Kind: KindAccommodation, Coord: orb.Point{0, 999}},
	}
	tw, err := New(locs)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	edges := []struct {
		a, b int
		w    float64
	}{
		{0, 1, 100},
		{0, 2, 250},
		{0, 3, 900},
		{0, 4, 50},
		{1, 5, 120},
	}
	for _, e := range edges {
		if err := tw.AddEdge(e.a, e.b, e.w); err != nil {
			t.Fatalf("AddEdge(%d,%d): %v", e.a, e.b, err)
		}
	}
	return tw
}

func TestNewRejectsSparseIDs(t *testing.T) {
	_, err := New([]*Location{{ID: 3, Kind: KindAccommodation}})
	if err == nil {
		t.Fatal("expected error for non-dense location IDs")
	}
}

func TestAddEdgeValidation(t *testing.T) {
	tw := testTown(t)
	if err := tw.AddEdge(0, 0, 10); err == nil {
		t.Error("expected error for self edge")
	}
	if err := tw.AddEdge(0, 99, 10); err == nil {
		t.Error("expected error for out-of-range node")
	}
	if err := tw.AddEdge(0, 1, -5); err == nil {
		t.Error("expected error for negative weight")
	}
}

func TestReachableFiltersDistanceAndKind(t *testing.T) {
	tw := testTown(t)

	got := tw.Reachable(0, 300, NewKindSet(KindWorkplace, KindCommercial))
	want := []int{1, 2}
	if len(got) != len(want) {
		t.Fatalf("Reachable = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Reachable = %v, want %v", got, want)
		}
	}

	// Healthcare is beyond the cap.
	if got := tw.Reachable(0, 300, NewKindSet(KindHealthcare)); len(got) != 0 {
		t.Errorf("expected no healthcare within 300, got %v", got)
	}
	// Raising the cap brings it in.
	if got := tw.Reachable(0, 1000, NewKindSet(KindHealthcare)); len(got) != 1 || got[0] != 3 {
		t.Errorf("Reachable healthcare = %v, want [3]", got)
	}
}

func TestReachableExcludesUnclassified(t *testing.T) {
	tw := testTown(t)
	got := tw.Reachable(0, 1000, NewKindSet(KindUnclassified, KindWorkplace))
	for _, id := range got {
		if id == 4 {
			t.Fatal("unclassified location returned from Reachable")
		}
	}
}

func TestReachableExcludesNonNeighbors(t *testing.T) {
	tw := testTown(t)
	// Location 5 is an accommodation but shares no edge with 0.
	got := tw.Reachable(0, 1e9, NewKindSet(KindAccommodation))
	for _, id := range got {
		if id == 5 {
			t.Fatal("location without an edge returned from Reachable")
		}
	}
}

func TestNearestIgnoresDistanceCap(t *testing.T) {
	tw := testTown(t)
	node, ok := tw.Nearest(0, NewKindSet(KindHealthcare))
	if !ok || node != 3 {
		t.Fatalf("Nearest healthcare = %d,%v, want 3,true", node, ok)
	}
}

func TestNearestPicksMinimumWeight(t *testing.T) {
	tw := testTown(t)
	node, ok := tw.Nearest(0, NewKindSet(KindWorkplace, KindCommercial, KindHealthcare))
	if !ok || node != 1 {
		t.Fatalf("Nearest = %d,%v, want 1,true", node, ok)
	}
}

func TestNearestMissing(t *testing.T) {
	tw := testTown(t)
	if _, ok := tw.Nearest(5, NewKindSet(KindHealthcare)); ok {
		t.Fatal("expected no healthcare neighbor from isolated node 5's edges")
	}
}

func TestOccupantLifecycle(t *testing.T) {
	tw := testTown(t)
	tw.Place(7, 0)
	tw.Place(9, 0)
	tw.Place(1, 2)
	if got := tw.Locations[0].Occupants; len(got) != 2 || got[0] != 7 || got[1] != 9 {
		t.Fatalf("occupants at 0 = %v, want [7 9]", got)
	}
	tw.ClearOccupants()
	for _, loc := range tw.Locations {
		if len(loc.Occupants) != 0 {
			t.Fatalf("occupants at %d not cleared", loc.ID)
		}
	}
}

func TestKindBookkeeping(t *testing.T) {
	tw := testTown(t)
	if !tw.HasKind(KindHealthcare) {
		t.Error("HasKind(healthcare) = false")
	}
	if tw.HasKind(KindEducation) {
		t.Error("HasKind(education) = true for a town without schools")
	}
	if got := len(tw.Accommodations); got != 2 {
		t.Errorf("accommodations = %d, want 2", got)
	}
	if got := tw.EdgeCount(); got != 5 {
		t.Errorf("EdgeCount = %d, want 5", got)
	}
}

func TestParamsValidate(t *testing.T) {
	tw := testTown(t)
	cases := []struct {
		name    string
		p       Params
		wantErr bool
	}{
		{"ok", Params{Population: 10, InitialSpreaders: 2}, false},
		{"pinned ok", Params{Population: 10, InitialSpreaders: 2, SpreaderNodes: []int{0, 5}}, false},
		{"zero population", Params{Population: 0, InitialSpreaders: 1}, true},
		{"zero spreaders", Params{Population: 10, InitialSpreaders: 0}, true},
		{"spreaders exceed population", Params{Population: 3, InitialSpreaders: 5}, true},
		{"too many pinned", Params{Population: 10, InitialSpreaders: 1, SpreaderNodes: []int{0, 1}}, true},
		{"pinned out of range", Params{Population: 10, InitialSpreaders: 1, SpreaderNodes: []int{42}}, true},
		{"pinned unclassified", Params{Population: 10, InitialSpreaders: 1, SpreaderNodes: []int{4}}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.p.Validate(tw)
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestParsePlaceKind(t *testing.T) {
	k, err := ParsePlaceKind("healthcare")
	if err != nil || k != KindHealthcare {
		t.Errorf("ParsePlaceKind(healthcare) = %v, %v", k, err)
	}
	if _, err := ParsePlaceKind("spaceport"); err == nil {
		t.Error("expected error for unknown kind")
	}
}
