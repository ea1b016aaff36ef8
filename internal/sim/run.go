package sim

import (
	"errors"

	"coptrack/internal/agent"
	"coptrack/internal/ngram"
)

// Run steps the simulation ticks times and summarizes it. With record set,
// every emitted event is also kept in Result.Events; an installed emitter
// still sees them all.
func (s *Simulation) Run(ticks int, record bool) Result {
	var events []Event
	if record {
		prev := s.emit
		s.emit = func(ev Event) {
			events = append(events, ev)
			if prev != nil {
				prev(ev)
			}
		}
		defer func() { s.emit = prev }()
	}
	s.log.Info("run start", "ticks", ticks, "agents", len(s.agents))
	for i := 0; i < ticks; i++ {
		s.Step()
	}
	res := s.Summarize()
	res.Events = events
	s.log.Info("run done", "ticks", res.Ticks, "diagnostics", res.Diagnostics)
	return res
}

// Summarize reports logs, positions and tracker deductions as of now.
func (s *Simulation) Summarize() Result {
	res := Result{
		Ticks:       s.Env.Tick,
		Logs:        map[string][]string{},
		Positions:   s.Grid().Positions(),
		Diagnostics: s.Diagnostics(),
	}
	for _, a := range s.agents {
		res.Logs[a.ID()] = a.Log()
	}
	for _, a := range s.agents {
		t, ok := a.(*agent.Tracker)
		if !ok {
			continue
		}
		if res.Trackers == nil {
			res.Trackers = map[string]TrackerReport{}
		}
		res.Trackers[t.ID()] = s.trackerReport(t)
	}
	return res
}

func (s *Simulation) trackerReport(t *agent.Tracker) TrackerReport {
	deduced, err := t.DeduceActions()
	rep := TrackerReport{
		Target:       t.Target,
		Observations: t.Observations(),
		Deduced:      deduced,
	}
	var imp *agent.ImpossibleTransitionError
	if err != nil {
		if joined, ok := err.(interface{ Unwrap() []error }); ok {
			for _, e := range joined.Unwrap() {
				if errors.As(e, &imp) {
					rep.Impossible++
				}
			}
		} else if errors.As(err, &imp) {
			rep.Impossible++
		}
	}

	if s.modelOrder > 0 {
		if segs := knownRuns(deduced); len(segs) > 0 {
			m, err := ngram.ConditionalModel(segs, s.modelOrder)
			if err != nil {
				s.log.Warn("tracker model", "tracker", t.ID(), "err", err)
			} else {
				rep.ModelN, rep.Model = m.N, m.Rows()
			}
		}
	}

	target := s.targetOf(t)
	if target == nil {
		return rep
	}
	rep.TargetID = target.ID()
	// Deduced action i covers the tick the tracker joined plus i; the
	// target's log is offset by its own join tick and the Start entry.
	offset := 1 + s.joined[t.ID()] - s.joined[target.ID()]
	if log := target.Log(); offset >= 1 && offset <= len(log) {
		rep.Agree, rep.Known = agent.Agreement(deduced, log[offset:])
	}
	return rep
}

// knownRuns splits deduced actions at Unknown; no window may span a gap in
// the sightings.
func knownRuns(deduced []string) [][]string {
	var out [][]string
	var cur []string
	for _, d := range deduced {
		if d == agent.Unknown {
			if len(cur) > 0 {
				out = append(out, cur)
			}
			cur = nil
			continue
		}
		cur = append(cur, d)
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}

// targetOf returns the first registered agent of the tracker's target kind.
func (s *Simulation) targetOf(t *agent.Tracker) agent.Agent {
	for _, a := range s.agents {
		if a.ID() != t.ID() && a.Kind() == t.Target {
			return a
		}
	}
	return nil
}
