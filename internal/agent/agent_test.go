package agent

import (
	"errors"
	"math/rand"
	"testing"

	"coptrack/internal/grid"
)

func wall() grid.Cell { return grid.WallCell() }

func holding(occ ...grid.Occupant) grid.Cell { return grid.Cell{Occupants: occ} }

func TestBaseLogStartsWithSentinel(t *testing.T) {
	b := NewBase("a", "robber")
	if got := b.Log(); len(got) != 1 || got[0] != Start {
		t.Fatalf("log = %v", got)
	}
	b.Record(grid.North)
	b.Record(grid.Stay)
	log := b.Log()
	log[0] = "mutated"
	if b.Log()[0] != Start || b.LastMove() != string(grid.Stay) {
		t.Fatalf("log = %v", b.Log())
	}
	if b.SightRadius != 1 || b.MoveRadius != 1 {
		t.Fatalf("radii = %d/%d", b.SightRadius, b.MoveRadius)
	}
}

func TestNewOrderedRejectsBadPermutations(t *testing.T) {
	tests := []struct {
		name  string
		order []grid.Dir
	}{
		{"short", []grid.Dir{grid.North, grid.South}},
		{"duplicate", []grid.Dir{grid.North, grid.North, grid.East, grid.West}},
		{"stay", []grid.Dir{grid.North, grid.Stay, grid.East, grid.West}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewOrdered("a", "robber", tt.order); err == nil {
				t.Errorf("NewOrdered(%v) accepted", tt.order)
			}
		})
	}
}

func TestOrderedTakesFirstOpenDirection(t *testing.T) {
	a, err := NewOrdered("a", "robber", []grid.Dir{grid.North, grid.East, grid.South, grid.West})
	if err != nil {
		t.Fatal(err)
	}
	p := grid.NewPing(grid.Pos{R: 1, C: 1}, map[grid.Dir]grid.Cell{grid.North: wall()})
	d, err := a.Propose(p)
	if err != nil || d != grid.East {
		t.Fatalf("Propose = %v, %v; want E", d, err)
	}
}

func TestOrderedAvoidsReversal(t *testing.T) {
	a, _ := NewOrdered("a", "robber", []grid.Dir{grid.North, grid.East, grid.South, grid.West})
	a.Record(grid.South)
	d, _ := a.Propose(grid.NewPing(grid.Pos{}, nil))
	if d != grid.East {
		t.Fatalf("after moving S the agent should not go N, got %v", d)
	}
}

func TestOrderedNoLegalMoveStays(t *testing.T) {
	a, _ := NewOrdered("a", "robber", []grid.Dir{grid.North, grid.East, grid.South, grid.West})
	a.Record(grid.North)
	// Dead end: only the way back (S) is open.
	dead := grid.NewPing(grid.Pos{}, map[grid.Dir]grid.Cell{
		grid.North: wall(), grid.East: wall(), grid.West: wall(),
	})
	d, err := a.Propose(dead)
	if !errors.Is(err, ErrNoLegalMove) || d != grid.Stay {
		t.Fatalf("Propose = %v, %v; want stay + ErrNoLegalMove", d, err)
	}
	a.Record(d)
	d, err = a.Propose(dead)
	if err != nil || d != grid.South {
		t.Fatalf("after staying the agent should back out, got %v, %v", d, err)
	}
}

func TestShuffledIsPermutation(t *testing.T) {
	a := NewShuffled("a", "robber", rand.New(rand.NewSource(3)))
	if _, err := NewOrdered("b", "robber", a.Order); err != nil {
		t.Fatalf("shuffled order is not a permutation: %v", a.Order)
	}
}

func TestStalkerLocksAndFollows(t *testing.T) {
	s := NewStalker("cop", "cop", "robber")
	r1 := NewBase("r1", "robber")
	r2 := NewBase("r2", "robber")

	d, _ := s.Propose(grid.NewPing(grid.Pos{}, nil))
	if d != grid.Stay {
		t.Fatalf("nothing in view, got %v", d)
	}
	if _, ok := s.Locked(); ok {
		t.Fatalf("locked without a sighting")
	}

	// Both robbers visible: N precedes E in scan order.
	d, _ = s.Propose(grid.NewPing(grid.Pos{}, map[grid.Dir]grid.Cell{
		grid.East: holding(&r2), grid.North: holding(&r1),
	}))
	if id, _ := s.Locked(); id != "r1" || d != grid.North {
		t.Fatalf("locked %q moving %v; want r1 / N", id, d)
	}

	// Only r2 in view: the lock holds, so the stalker waits.
	d, _ = s.Propose(grid.NewPing(grid.Pos{}, map[grid.Dir]grid.Cell{grid.West: holding(&r2)}))
	if d != grid.Stay {
		t.Fatalf("followed the wrong robber: %v", d)
	}

	// Target on the own cell.
	d, _ = s.Propose(grid.NewPing(grid.Pos{}, map[grid.Dir]grid.Cell{grid.Self: holding(&r1)}))
	if d != grid.Stay {
		t.Fatalf("target on own cell, got %v", d)
	}
	d, _ = s.Propose(grid.NewPing(grid.Pos{}, map[grid.Dir]grid.Cell{grid.South: holding(&r1)}))
	if d != grid.South {
		t.Fatalf("lock lost, got %v", d)
	}
}

func TestTableSize(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	a := NewTable("r", "robber", []grid.Kind{grid.KindEmpty, "cop", grid.KindWall}, rng)
	if a.Len() != 81 {
		t.Fatalf("table size = %d, want 81", a.Len())
	}
}

func TestTableNeverPicksWalls(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		a := NewTable("r", "robber", []grid.Kind{grid.KindEmpty, "robber", grid.KindWall}, rand.New(rand.NewSource(seed)))
		if a.Len() != 81 {
			t.Fatalf("table size = %d", a.Len())
		}
		d, ok := a.Lookup([]grid.Kind{grid.KindEmpty, grid.KindEmpty, "robber", grid.KindWall})
		if !ok || d == grid.West || d == grid.Stay {
			t.Fatalf("seed %d: entry = %v, %v", seed, d, ok)
		}
		d, _ = a.Lookup([]grid.Kind{grid.KindWall, grid.KindWall, grid.KindWall, grid.KindWall})
		if d != grid.Stay {
			t.Fatalf("fully walled entry = %v", d)
		}
		for key, d := range a.Table() {
			if d == grid.Stay && key != "wall,wall,wall,wall" {
				t.Fatalf("stay for open tuple %s", key)
			}
		}
	}
}

func TestTableProposeIsLookup(t *testing.T) {
	a := NewTable("r", "robber", []grid.Kind{"cop"}, rand.New(rand.NewSource(9)))
	cop := NewBase("c", "cop")
	p := grid.NewPing(grid.Pos{}, map[grid.Dir]grid.Cell{grid.North: wall(), grid.West: holding(&cop)})
	want, _ := a.Lookup([]grid.Kind{grid.KindWall, grid.KindEmpty, grid.KindEmpty, "cop"})
	for i := 0; i < 5; i++ {
		if got, _ := a.Propose(p); got != want {
			t.Fatalf("Propose = %v, want %v", got, want)
		}
	}
}

func TestTrackerTableChasesTarget(t *testing.T) {
	tr := NewTracker("cop", "cop", "robber", nil, rand.New(rand.NewSource(5)))
	if tr.Len() != 243 {
		t.Fatalf("table size = %d, want 3^5", tr.Len())
	}
	e, w := grid.KindEmpty, grid.KindWall
	tests := []struct {
		name  string
		key   []grid.Kind
		allow []grid.Dir
	}{
		{"robber east", []grid.Kind{e, e, "robber", w, e}, []grid.Dir{grid.East}},
		{"robber north and south", []grid.Kind{"robber", "robber", e, e, e}, []grid.Dir{grid.North, grid.South}},
		{"robber on own cell", []grid.Kind{e, e, e, e, "robber"}, []grid.Dir{grid.Stay}},
		{"boxed in", []grid.Kind{w, w, w, w, e}, []grid.Dir{grid.Stay}},
		{"wander", []grid.Kind{w, e, w, w, e}, []grid.Dir{grid.South}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tr.Lookup(tt.key)
			if !ok {
				t.Fatalf("missing entry")
			}
			for _, d := range tt.allow {
				if got == d {
					return
				}
			}
			t.Errorf("Lookup = %v, want one of %v", got, tt.allow)
		})
	}
}

func TestTrackerObserve(t *testing.T) {
	tr := NewTracker("cop", "cop", "robber", nil, rand.New(rand.NewSource(1)))
	robber := NewBase("r", "robber")
	at := grid.Pos{R: 2, C: 2}

	tr.Observe(grid.NewPing(at, map[grid.Dir]grid.Cell{grid.North: holding(&robber)}))
	tr.Observe(grid.NewPing(at, map[grid.Dir]grid.Cell{grid.Self: holding(tr, &robber)}))
	tr.Observe(grid.NewPing(at, map[grid.Dir]grid.Cell{grid.Self: holding(tr)}))
	// Seen twice: N outranks W.
	tr.Observe(grid.NewPing(at, map[grid.Dir]grid.Cell{grid.West: holding(&robber), grid.North: holding(&robber)}))

	want := []Observation{
		{Pos: grid.Pos{R: 1, C: 2}, Seen: true},
		{Pos: grid.Pos{R: 2, C: 2}, Seen: true},
		{},
		{Pos: grid.Pos{R: 1, C: 2}, Seen: true},
	}
	got := tr.Observations()
	if len(got) != len(want) {
		t.Fatalf("observations = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("observation %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestDeduce(t *testing.T) {
	seen := func(r, c int) Observation { return Observation{Pos: grid.Pos{R: r, C: c}, Seen: true} }
	tests := []struct {
		name       string
		obs        []Observation
		want       []string
		impossible int
	}{
		{"empty", nil, nil, 0},
		{"single", []Observation{seen(1, 1)}, nil, 0},
		{"north then lost", []Observation{seen(2, 2), seen(1, 2), {}}, []string{"N", Unknown}, 0},
		{"gap", []Observation{seen(1, 2), {}, seen(0, 2)}, []string{Unknown, Unknown}, 0},
		{"stay and east", []Observation{seen(3, 3), seen(3, 3), seen(3, 4)}, []string{"stay", "E"}, 0},
		{"jump", []Observation{seen(0, 0), seen(0, 2), seen(1, 2)}, []string{Unknown, "S"}, 1},
		{"diagonal", []Observation{seen(0, 0), seen(1, 1)}, []string{Unknown}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Deduce(tt.obs)
			if len(got) != len(tt.want) {
				t.Fatalf("Deduce = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("Deduce = %v, want %v", got, tt.want)
				}
			}
			n := 0
			if err != nil {
				for _, e := range err.(interface{ Unwrap() []error }).Unwrap() {
					var it *ImpossibleTransitionError
					if errors.As(e, &it) {
						n++
					}
				}
			}
			if n != tt.impossible {
				t.Fatalf("impossible transitions = %d, want %d (err %v)", n, tt.impossible, err)
			}
		})
	}
}

func TestDeduceNoSightingsIsAllUnknown(t *testing.T) {
	got, err := Deduce(make([]Observation, 10))
	if err != nil || len(got) != 9 {
		t.Fatalf("Deduce = %v, %v", got, err)
	}
	for _, a := range got {
		if a != Unknown {
			t.Fatalf("got %v", got)
		}
	}
}

func TestAgreement(t *testing.T) {
	agree, known := Agreement([]string{"N", Unknown, "E", "S"}, []string{"N", "W", "W", "S"})
	if agree != 2 || known != 3 {
		t.Fatalf("Agreement = %d/%d", agree, known)
	}
}
