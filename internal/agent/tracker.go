package agent

import (
	"errors"
	"fmt"
	"math/rand"

	"coptrack/internal/grid"
)

// Observation is one tick of the tracker's sighting log: where the target
// was sensed, or Seen=false when it was not.
type Observation struct {
	Pos  grid.Pos `json:"pos"`
	Seen bool     `json:"seen"`
}

// ImpossibleTransitionError marks a pair of consecutive sightings further
// apart than one step. Index is the position in the deduced action log.
type ImpossibleTransitionError struct {
	Index    int
	From, To grid.Pos
}

func (e *ImpossibleTransitionError) Error() string {
	return fmt.Sprintf("impossible transition at %d: %v -> %v", e.Index, e.From, e.To)
}

// Tracker chases Target with a table that prefers sensed target cells and
// keeps a sighting log it can turn into the target's action sequence.
type Tracker struct {
	Base
	Target   grid.Kind
	Alphabet []grid.Kind

	table        map[string]grid.Dir
	observations []Observation
}

// NewTracker builds an alphabet^5 table keyed on (N, S, E, W, Self). When
// the target shows in one or more neighbours the entry is drawn from those
// directions; a target on the own cell maps to Stay; otherwise the entry is
// a uniform pick among open neighbours.
func NewTracker(id string, kind, target grid.Kind, alphabet []grid.Kind, rng *rand.Rand) *Tracker {
	t := &Tracker{
		Base:     NewBase(id, kind),
		Target:   target,
		Alphabet: withBaseKinds(alphabet, target),
		table:    map[string]grid.Dir{},
	}
	for _, tup := range tuples(t.Alphabet, len(grid.Sensed)) {
		var seen, open []grid.Dir
		for i, d := range grid.Cardinals {
			switch tup[i] {
			case target:
				seen = append(seen, d)
			case grid.KindWall:
			default:
				open = append(open, d)
			}
		}
		move := grid.Stay
		switch {
		case len(seen) > 0:
			move = seen[rng.Intn(len(seen))]
		case tup[len(tup)-1] == target:
		case len(open) > 0:
			move = open[rng.Intn(len(open))]
		}
		t.table[tableKey(tup)] = move
	}
	return t
}

func (t *Tracker) Len() int { return len(t.table) }

// Lookup returns the entry for contents given in N, S, E, W, Self order.
func (t *Tracker) Lookup(contents []grid.Kind) (grid.Dir, bool) {
	d, ok := t.table[tableKey(contents)]
	return d, ok
}

// Propose logs the sighting for this tick, then looks the reading up.
func (t *Tracker) Propose(p grid.Ping) (grid.Dir, error) {
	t.Observe(p)
	key := make([]grid.Kind, len(grid.Sensed))
	for i, d := range grid.Sensed {
		key[i] = t.classify(p.Cell(d))
	}
	if d, ok := t.Lookup(key); ok {
		return d, nil
	}
	return grid.Stay, nil
}

// classify reads a cell like Cell.Classify but ignores the tracker itself,
// so its own cell only reads as Target when the target shares it. The
// target outranks any other kind sharing the cell.
func (t *Tracker) classify(c grid.Cell) grid.Kind {
	if c.Wall {
		return grid.KindWall
	}
	if _, ok := occupantOf(c, t.Target, t.ID()); ok {
		return t.Target
	}
	for _, k := range t.Alphabet {
		if k == grid.KindEmpty || k == grid.KindWall {
			continue
		}
		if _, ok := occupantOf(c, k, t.ID()); ok {
			return k
		}
	}
	return grid.KindEmpty
}

// Observe appends one entry to the sighting log. Cells are checked in
// grid.Sensed order and the first one holding the target wins.
func (t *Tracker) Observe(p grid.Ping) {
	for _, d := range grid.Sensed {
		if _, ok := occupantOf(p.Cell(d), t.Target, t.ID()); ok {
			t.observations = append(t.observations, Observation{Pos: p.Target(d), Seen: true})
			return
		}
	}
	t.observations = append(t.observations, Observation{})
}

func (t *Tracker) Observations() []Observation {
	return append([]Observation(nil), t.observations...)
}

// DeduceActions converts the sighting log into the target's actions.
func (t *Tracker) DeduceActions() ([]string, error) {
	return Deduce(t.observations)
}

// Deduce turns consecutive sightings into move symbols. A pair with a
// missing sighting yields Unknown. A pair more than one step apart also
// yields Unknown, and is reported as an *ImpossibleTransitionError in the
// joined error; the action log is complete either way.
func Deduce(obs []Observation) ([]string, error) {
	if len(obs) < 2 {
		return nil, nil
	}
	actions := make([]string, 0, len(obs)-1)
	var errs []error
	for i := 1; i < len(obs); i++ {
		prev, cur := obs[i-1], obs[i]
		if !prev.Seen || !cur.Seen {
			actions = append(actions, Unknown)
			continue
		}
		d, ok := grid.DirOf(cur.Pos.Sub(prev.Pos))
		if !ok {
			actions = append(actions, Unknown)
			errs = append(errs, &ImpossibleTransitionError{Index: i - 1, From: prev.Pos, To: cur.Pos})
			continue
		}
		actions = append(actions, string(d))
	}
	return actions, errors.Join(errs...)
}

// Agreement compares deduced actions with the moves the target actually
// logged over the same ticks (its log without the leading Start). Unknown
// slots are skipped.
func Agreement(deduced, actual []string) (agree, known int) {
	for i, d := range deduced {
		if d == Unknown || i >= len(actual) {
			continue
		}
		known++
		if actual[i] == d {
			agree++
		}
	}
	return agree, known
}
