// Package sim drives agents over a grid in simultaneous ticks. Every agent
// senses the same pre-tick grid; accepted moves land in a second buffer that
// replaces the first once the whole tick is resolved.
package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"

	"coptrack/internal/agent"
	"coptrack/internal/grid"
	"coptrack/internal/logging"
	"coptrack/internal/util"
)

type Simulation struct {
	Env *Env

	buffers [2]*grid.Grid
	active  int

	agents []agent.Agent
	joined map[string]int
	diags  map[string]int

	emit func(Event)
	log  *slog.Logger

	modelOrder int
}

type Option func(*Simulation)

func WithLogger(l *slog.Logger) Option { return func(s *Simulation) { s.log = l } }

// WithEmitter installs the reporting hook; nil disables reporting.
func WithEmitter(fn func(Event)) Option { return func(s *Simulation) { s.emit = fn } }

func WithRand(rng *rand.Rand) Option { return func(s *Simulation) { s.Env.Rng = rng } }

// WithSensorNoise makes every agent sense through FuzzyPing with error
// probability p.
func WithSensorNoise(p float64) Option { return func(s *Simulation) { s.Env.SensorNoise = p } }

// WithModelOrder makes Summarize fit an n-gram model of order n to every
// tracker's deduced actions. Zero disables it.
func WithModelOrder(n int) Option { return func(s *Simulation) { s.modelOrder = n } }

func New(rows, cols int, opts ...Option) (*Simulation, error) {
	front, err := grid.New(rows, cols)
	if err != nil {
		return nil, err
	}
	back, _ := grid.New(rows, cols)
	s := &Simulation{
		Env:     &Env{Rng: util.New(1)},
		buffers: [2]*grid.Grid{front, back},
		joined:  map[string]int{},
		diags:   map[string]int{},
		log:     logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logging.Discard()
	}
	return s, nil
}

// Grid returns the active buffer. It is only stable between ticks.
func (s *Simulation) Grid() *grid.Grid { return s.buffers[s.active] }

func (s *Simulation) SetWall(p grid.Pos) error { return s.Grid().SetWall(p) }

// Add registers a and places it at p. Agents are polled in the order they
// were added.
func (s *Simulation) Add(a agent.Agent, p grid.Pos) error {
	if _, dup := s.joined[a.ID()]; dup {
		return fmt.Errorf("agent %q already registered", a.ID())
	}
	if err := s.Grid().Place(a, p); err != nil {
		return err
	}
	s.agents = append(s.agents, a)
	s.joined[a.ID()] = s.Env.Tick
	s.emitEvent(EventSpawn, map[string]any{"id": a.ID(), "kind": string(a.Kind()), "r": p.R, "c": p.C})
	s.log.Debug("agent added", "id", a.ID(), "kind", a.Kind(), "pos", p)
	return nil
}

func (s *Simulation) Agents() []agent.Agent { return append([]agent.Agent(nil), s.agents...) }

// Diagnostics returns how many times each diagnostic kind has occurred.
func (s *Simulation) Diagnostics() map[string]int {
	out := make(map[string]int, len(s.diags))
	for k, v := range s.diags {
		out[k] = v
	}
	return out
}

type proposal struct {
	a        agent.Agent
	from, to grid.Pos
	proposed grid.Dir
	dir      grid.Dir
}

// Step runs one tick.
func (s *Simulation) Step() TickReport {
	read := s.buffers[s.active]
	write := s.buffers[1-s.active]
	rep := TickReport{Tick: s.Env.Tick}

	props := make([]proposal, 0, len(s.agents))
	for _, a := range s.agents {
		from, err := read.Locate(a.ID())
		if err != nil {
			s.diagnose(&rep, a.ID(), DiagAgentNotFound, err)
			a.Record(grid.Stay)
			continue
		}
		ping, err := s.sense(read, from)
		if err != nil {
			s.diagnose(&rep, a.ID(), DiagOutOfBounds, err)
			a.Record(grid.Stay)
			continue
		}
		dir, err := a.Propose(ping)
		s.log.Log(context.Background(), logging.LevelTrace, "proposal",
			"tick", s.Env.Tick, "agent", a.ID(), "at", from, "dir", dir)
		p := proposal{a: a, from: from, to: from, proposed: dir, dir: grid.Stay}
		switch {
		case errors.Is(err, agent.ErrNoLegalMove):
			s.diagnose(&rep, a.ID(), DiagNoLegalMove, err)
		case err != nil:
			s.diagnose(&rep, a.ID(), DiagBadProposal, err)
		case !dir.Valid():
			s.diagnose(&rep, a.ID(), DiagBadProposal, fmt.Errorf("invalid direction %q", dir))
		case dir != grid.Stay:
			to := from.Add(dir.Delta())
			switch err := read.CheckMove(to); {
			case errors.Is(err, grid.ErrOutOfBounds):
				s.diagnose(&rep, a.ID(), DiagOutOfBounds, fmt.Errorf("move %s to %v: %w", dir, to, err))
			case errors.Is(err, grid.ErrBlockedByWall):
				s.diagnose(&rep, a.ID(), DiagBlockedByWall, fmt.Errorf("move %s to %v: %w", dir, to, err))
			default:
				p.to, p.dir = to, dir
			}
		}
		props = append(props, p)
	}

	write.CopyFrom(read)
	for _, p := range props {
		if p.to != p.from {
			// Validated against read, which shares write's walls and bounds.
			_ = write.Place(p.a, p.to)
			s.emitEvent(EventMove, map[string]any{
				"id": p.a.ID(), "dir": string(p.dir),
				"from": []int{p.from.R, p.from.C}, "to": []int{p.to.R, p.to.C},
			})
		}
		p.a.Record(p.dir)
		rep.Moves = append(rep.Moves, Move{Agent: p.a.ID(), From: p.from, To: p.to, Proposed: p.proposed, Dir: p.dir})
	}
	s.active = 1 - s.active
	s.Env.Tick++
	rep.Occupancy = s.Grid().Positions()
	return rep
}

func (s *Simulation) sense(g *grid.Grid, at grid.Pos) (grid.Ping, error) {
	if s.Env.SensorNoise > 0 {
		return g.FuzzyPing(at, s.Env.SensorNoise, s.Env.Rng)
	}
	return g.Ping(at)
}

func (s *Simulation) diagnose(rep *TickReport, id, kind string, err error) {
	s.diags[kind]++
	rep.Diagnostics = append(rep.Diagnostics, Diagnostic{Agent: id, Kind: kind, Message: err.Error(), Err: err})
	s.emitEvent(kind, map[string]any{"id": id, "error": err.Error()})
	s.log.Debug("move held", "tick", s.Env.Tick, "agent", id, "kind", kind, "err", err)
}

func (s *Simulation) emitEvent(typ string, payload map[string]any) {
	if s.emit == nil {
		return
	}
	s.emit(Event{Tick: s.Env.Tick, Type: typ, Payload: payload})
}
