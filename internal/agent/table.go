package agent

import (
	"math/rand"

	"coptrack/internal/grid"
)

// TableAgent answers every (N, S, E, W) content tuple from a table drawn
// once at construction. Lookups are deterministic.
type TableAgent struct {
	Base
	Alphabet []grid.Kind
	table    map[string]grid.Dir
}

// NewTable builds the full alphabet^4 table. Each tuple maps to a direction
// drawn uniformly from its non-wall neighbours, or Stay when all four are
// walls. KindEmpty and KindWall are added to alphabet if missing.
func NewTable(id string, kind grid.Kind, alphabet []grid.Kind, rng *rand.Rand) *TableAgent {
	a := &TableAgent{
		Base:     NewBase(id, kind),
		Alphabet: withBaseKinds(alphabet),
		table:    map[string]grid.Dir{},
	}
	for _, t := range tuples(a.Alphabet, len(grid.Cardinals)) {
		var open []grid.Dir
		for i, d := range grid.Cardinals {
			if t[i] != grid.KindWall {
				open = append(open, d)
			}
		}
		move := grid.Stay
		if len(open) > 0 {
			move = open[rng.Intn(len(open))]
		}
		a.table[tableKey(t)] = move
	}
	return a
}

func (a *TableAgent) Len() int { return len(a.table) }

// Lookup returns the entry for contents given in N, S, E, W order.
func (a *TableAgent) Lookup(contents []grid.Kind) (grid.Dir, bool) {
	d, ok := a.table[tableKey(contents)]
	return d, ok
}

// Table returns a copy of the movement table keyed by "n,s,e,w".
func (a *TableAgent) Table() map[string]grid.Dir {
	out := make(map[string]grid.Dir, len(a.table))
	for k, v := range a.table {
		out[k] = v
	}
	return out
}

func (a *TableAgent) Propose(p grid.Ping) (grid.Dir, error) {
	key := make([]grid.Kind, len(grid.Cardinals))
	for i, d := range grid.Cardinals {
		key[i] = p.Cell(d).Classify(a.Alphabet)
	}
	if d, ok := a.Lookup(key); ok {
		return d, nil
	}
	return grid.Stay, nil
}
