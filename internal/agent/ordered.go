package agent

import (
	"fmt"
	"math/rand"

	"coptrack/internal/grid"
)

// OrderedAgent walks a fixed permutation of the cardinals and takes the
// first open direction that does not undo its previous move.
type OrderedAgent struct {
	Base
	Order []grid.Dir
}

func NewOrdered(id string, kind grid.Kind, order []grid.Dir) (*OrderedAgent, error) {
	if len(order) != len(grid.Cardinals) {
		return nil, fmt.Errorf("order %v: want a permutation of N,S,E,W", order)
	}
	seen := map[grid.Dir]bool{}
	for _, d := range order {
		if d == grid.Stay || !d.Valid() || seen[d] {
			return nil, fmt.Errorf("order %v: want a permutation of N,S,E,W", order)
		}
		seen[d] = true
	}
	return &OrderedAgent{Base: NewBase(id, kind), Order: append([]grid.Dir(nil), order...)}, nil
}

// NewShuffled draws the permutation from rng.
func NewShuffled(id string, kind grid.Kind, rng *rand.Rand) *OrderedAgent {
	order := append([]grid.Dir(nil), grid.Cardinals...)
	rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	return &OrderedAgent{Base: NewBase(id, kind), Order: order}
}

// Propose stays put with ErrNoLegalMove when every direction is walled or
// would reverse the last move. Having stayed, the reverse is allowed again
// on the next tick, so dead ends do not trap the agent.
func (a *OrderedAgent) Propose(p grid.Ping) (grid.Dir, error) {
	back := grid.Dir(a.LastMove()).Opposite()
	for _, d := range a.Order {
		if p.Cell(d).Wall || d == back {
			continue
		}
		return d, nil
	}
	return grid.Stay, ErrNoLegalMove
}
