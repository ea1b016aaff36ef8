package agent

import "coptrack/internal/grid"

// StalkerAgent locks onto the first sensed entity of Target kind and steps
// toward it whenever it is in view. The lock survives losing sight of it.
type StalkerAgent struct {
	Base
	Target grid.Kind
	locked string
}

func NewStalker(id string, kind, target grid.Kind) *StalkerAgent {
	return &StalkerAgent{Base: NewBase(id, kind), Target: target}
}

// Locked returns the id of the acquired target, if any.
func (a *StalkerAgent) Locked() (string, bool) { return a.locked, a.locked != "" }

func (a *StalkerAgent) Propose(p grid.Ping) (grid.Dir, error) {
	if a.locked == "" {
		for _, d := range grid.Sensed {
			if o, ok := occupantOf(p.Cell(d), a.Target, a.ID()); ok {
				a.locked = o.ID()
				break
			}
		}
	}
	if a.locked == "" {
		return grid.Stay, nil
	}
	for _, d := range grid.Sensed {
		if p.Cell(d).Contains(a.locked) {
			return d, nil
		}
	}
	return grid.Stay, nil
}
