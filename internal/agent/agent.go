// Package agent holds the movement policies that act on a grid. Every
// policy only sees a grid.Ping and answers with a direction; the simulation
// decides whether the move happens and records the outcome in the agent's log.
package agent

import (
	"errors"
	"strings"

	"coptrack/internal/grid"
)

// Log sentinels.
const (
	Start   = "start"
	Unknown = "unknown"
)

// ErrNoLegalMove is returned alongside grid.Stay when a policy finds every
// candidate direction blocked or forbidden.
var ErrNoLegalMove = errors.New("no legal move")

type Agent interface {
	ID() string
	Kind() grid.Kind
	// Propose picks a move from a sensor reading. A non-nil error is a
	// diagnostic; the returned direction is still the move to attempt.
	Propose(p grid.Ping) (grid.Dir, error)
	// Record appends the move actually taken this tick.
	Record(d grid.Dir)
	Log() []string
}

// Base carries the identity and move log shared by all policies.
type Base struct {
	id          string
	kind        grid.Kind
	SightRadius int
	MoveRadius  int
	log         []string
}

func NewBase(id string, kind grid.Kind) Base {
	return Base{id: id, kind: kind, SightRadius: 1, MoveRadius: 1, log: []string{Start}}
}

func (b *Base) ID() string        { return b.id }
func (b *Base) Kind() grid.Kind   { return b.kind }
func (b *Base) Record(d grid.Dir) { b.log = append(b.log, string(d)) }
func (b *Base) LastMove() string  { return b.log[len(b.log)-1] }

func (b *Base) Log() []string {
	return append([]string(nil), b.log...)
}

// occupantOf returns the first occupant of kind k in c other than self.
func occupantOf(c grid.Cell, k grid.Kind, self string) (grid.Occupant, bool) {
	for _, o := range c.Occupants {
		if o.Kind() == k && o.ID() != self {
			return o, true
		}
	}
	return nil, false
}

// withBaseKinds makes sure an alphabet can describe empty and walled cells.
func withBaseKinds(alphabet []grid.Kind, extra ...grid.Kind) []grid.Kind {
	out := append([]grid.Kind(nil), alphabet...)
	need := append([]grid.Kind{grid.KindEmpty}, extra...)
	need = append(need, grid.KindWall)
	for _, k := range need {
		found := false
		for _, have := range out {
			if have == k {
				found = true
				break
			}
		}
		if !found {
			out = append(out, k)
		}
	}
	return out
}

// tuples enumerates the cartesian product alphabet^k in lexicographic
// order of alphabet indices.
func tuples(alphabet []grid.Kind, k int) [][]grid.Kind {
	out := [][]grid.Kind{{}}
	for i := 0; i < k; i++ {
		next := make([][]grid.Kind, 0, len(out)*len(alphabet))
		for _, prefix := range out {
			for _, a := range alphabet {
				t := make([]grid.Kind, len(prefix), len(prefix)+1)
				copy(t, prefix)
				next = append(next, append(t, a))
			}
		}
		out = next
	}
	return out
}

func tableKey(kinds []grid.Kind) string {
	parts := make([]string, len(kinds))
	for i, k := range kinds {
		parts[i] = string(k)
	}
	return strings.Join(parts, ",")
}
