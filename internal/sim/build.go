package sim

import (
	"fmt"
	"math/rand"

	"coptrack/internal/agent"
	"coptrack/internal/config"
	"coptrack/internal/grid"
	"coptrack/internal/util"
)

// Build lays out a scenario: grid, walls, then agents in declaration order.
// Randomized policies and sensor noise share one rng seeded from sc.Seed.
func Build(sc *config.Scenario, opts ...Option) (*Simulation, error) {
	rng := util.New(sc.Seed)
	base := []Option{WithRand(rng), WithSensorNoise(sc.SensorNoise), WithModelOrder(sc.Model.N)}
	s, err := New(sc.Grid.Rows, sc.Grid.Cols, append(base, opts...)...)
	if err != nil {
		return nil, err
	}
	for _, w := range sc.Grid.Walls {
		if err := s.SetWall(w.Pos()); err != nil {
			return nil, fmt.Errorf("wall %v: %w", w, err)
		}
	}
	for _, def := range sc.Agents {
		a, err := NewAgent(def, s.Env.Rng)
		if err != nil {
			return nil, err
		}
		if err := s.Add(a, def.Start.Pos()); err != nil {
			return nil, fmt.Errorf("agent %s: %w", def.ID, err)
		}
	}
	return s, nil
}

// NewAgent constructs the policy named by def.Policy.
func NewAgent(def config.AgentDef, rng *rand.Rand) (agent.Agent, error) {
	kind := grid.Kind(def.Kind)
	switch def.Policy {
	case config.PolicyOrdered:
		order, err := def.Directions()
		if err != nil {
			return nil, fmt.Errorf("agent %s: %w", def.ID, err)
		}
		return agent.NewOrdered(def.ID, kind, order)
	case config.PolicyShuffled:
		return agent.NewShuffled(def.ID, kind, rng), nil
	case config.PolicyStalker:
		return agent.NewStalker(def.ID, kind, grid.Kind(def.Target)), nil
	case config.PolicyTable:
		return agent.NewTable(def.ID, kind, def.Kinds(), rng), nil
	case config.PolicyTracker:
		return agent.NewTracker(def.ID, kind, grid.Kind(def.Target), def.Kinds(), rng), nil
	}
	return nil, fmt.Errorf("agent %s: unknown policy %q", def.ID, def.Policy)
}
