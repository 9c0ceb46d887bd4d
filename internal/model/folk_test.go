package model

import (
	"math"
	"math/rand"
	"testing"

	"github.com/talgya/contagion/internal/town"
)

func testRand() *rand.Rand {
	return rand.New(rand.NewSource(1))
}

func TestNewFolkEnergyRange(t *testing.T) {
	rng := testRand()
	for i := 0; i < 50; i++ {
		f := NewFolk(i, 0, 5, StatusSusceptible, rng)
		if f.Energy < 0 || f.Energy > 5 {
			t.Fatalf("energy %d outside [0,5]", f.Energy)
		}
		if !f.Alive {
			t.Fatal("new folk not alive")
		}
		if f.Loc != f.Home {
			t.Fatal("new folk not at home")
		}
	}
}

func TestConvertKeepsLedgerInStep(t *testing.T) {
	rng := testRand()
	ledger := Ledger{StatusSusceptible: 1, StatusExposed: 0}
	f := NewFolk(0, 0, 5, StatusSusceptible, rng)
	f.Streak = 4

	f.Convert(StatusExposed, ledger)

	if f.Status != StatusExposed {
		t.Errorf("status = %s, want E", f.Status)
	}
	if f.Streak != 0 {
		t.Errorf("streak after convert = %d, want 0", f.Streak)
	}
	if ledger[StatusSusceptible] != 0 || ledger[StatusExposed] != 1 {
		t.Errorf("ledger = %v, want S:0 E:1", ledger)
	}
	if ledger.Total() != 1 {
		t.Errorf("ledger total = %d, want 1", ledger.Total())
	}
}

func TestRestIncrementsStreakAndResetsEnergy(t *testing.T) {
	rng := testRand()
	f := NewFolk(0, 0, 5, StatusInfectious, rng)
	f.Streak = 2
	for day := 0; day < 20; day++ {
		before := f.Streak
		f.Rest(rng)
		if f.Streak != before+1 {
			t.Fatalf("streak = %d, want %d", f.Streak, before+1)
		}
		if f.Energy < 0 || f.Energy > f.MaxEnergy {
			t.Fatalf("energy %d outside [0,%d]", f.Energy, f.MaxEnergy)
		}
	}
}

func TestSpendEnergyFloorsAtZero(t *testing.T) {
	rng := testRand()
	f := NewFolk(0, 0, 3, StatusSusceptible, rng)
	f.Energy = 1
	f.SpendEnergy()
	f.SpendEnergy()
	f.SpendEnergy()
	if f.Energy != 0 {
		t.Errorf("energy = %d, want 0", f.Energy)
	}
}

func TestInverseBernoulliSingleContact(t *testing.T) {
	rng := testRand()
	f := NewFolk(0, 0, 5, StatusSusceptible, rng)
	inf := NewFolk(1, 0, 5, StatusInfectious, rng)
	other := NewFolk(2, 0, 5, StatusSusceptible, rng)
	occupants := []*Folk{f, inf, other}

	// One infectious contact among n occupants: probability is exactly p/n.
	p := 0.3
	n := float64(len(occupants))
	got := f.InverseBernoulli(occupants, p/n, StatusInfectious)
	if math.Abs(got-p/n) > 1e-12 {
		t.Errorf("probability = %f, want %f", got, p/n)
	}
}

func TestInverseBernoulliNoContacts(t *testing.T) {
	rng := testRand()
	f := NewFolk(0, 0, 5, StatusSusceptible, rng)
	occupants := []*Folk{f, NewFolk(1, 0, 5, StatusRecovered, rng)}
	if got := f.InverseBernoulli(occupants, 0.9, StatusInfectious); got != 0 {
		t.Errorf("probability with k=0 = %f, want 0", got)
	}
}

func TestInverseBernoulliExcludesSelf(t *testing.T) {
	rng := testRand()
	f := NewFolk(0, 0, 5, StatusInfectious, rng)
	// Self is infectious but must not count as its own contact.
	if got := f.InverseBernoulli([]*Folk{f}, 0.5, StatusInfectious); got != 0 {
		t.Errorf("probability = %f, want 0", got)
	}
}

func TestInverseBernoulliAggregates(t *testing.T) {
	rng := testRand()
	f := NewFolk(0, 0, 5, StatusSusceptible, rng)
	occupants := []*Folk{f}
	for i := 1; i <= 3; i++ {
		occupants = append(occupants, NewFolk(i, 0, 5, StatusInfectious, rng))
	}
	p := 0.25
	want := 1 - math.Pow(1-p, 3)
	if got := f.InverseBernoulli(occupants, p, StatusInfectious); math.Abs(got-want) > 1e-12 {
		t.Errorf("probability = %f, want %f", got, want)
	}
}

func TestPriorityListHelpers(t *testing.T) {
	rng := testRand()
	f := NewFolk(0, 0, 5, StatusSusceptible, rng)
	f.Priority = []town.PlaceKind{town.KindHealthcare, town.KindCommercial}

	if !f.SeeksKind(town.KindHealthcare) {
		t.Error("SeeksKind(healthcare) = false")
	}
	f.DropPriority(town.KindHealthcare)
	if f.SeeksKind(town.KindHealthcare) {
		t.Error("healthcare still on priority list after drop")
	}
	if !f.SeeksKind(town.KindCommercial) {
		t.Error("commercial dropped unexpectedly")
	}
	// Dropping a kind that is not present is a no-op.
	f.DropPriority(town.KindEducation)
	if len(f.Priority) != 1 {
		t.Errorf("priority length = %d, want 1", len(f.Priority))
	}
}

func TestLedgerHelpers(t *testing.T) {
	l := NewLedger([]Status{StatusSusceptible, StatusInfectious, StatusRecovered})
	l[StatusSusceptible] = 7
	l[StatusInfectious] = 2

	if got := l.Total(); got != 9 {
		t.Errorf("Total = %d, want 9", got)
	}
	if got := l.Count(StatusInfectious, StatusRecovered); got != 2 {
		t.Errorf("Count = %d, want 2", got)
	}
	c := l.Clone()
	c[StatusSusceptible] = 0
	if l[StatusSusceptible] != 7 {
		t.Error("Clone is not independent")
	}
}
