package config

import (
	"errors"
	"fmt"

	"coptrack/internal/grid"
)

// Policy names accepted in AgentDef.Policy.
const (
	PolicyOrdered  = "ordered"
	PolicyShuffled = "shuffled"
	PolicyStalker  = "stalker"
	PolicyTable    = "table"
	PolicyTracker  = "tracker"
)

type Scenario struct {
	Name        string     `yaml:"name"`
	Grid        GridDef    `yaml:"grid"`
	Ticks       int        `yaml:"ticks"`
	Seed        int64      `yaml:"seed"`
	SensorNoise float64    `yaml:"sensor_noise"`
	Agents      []AgentDef `yaml:"agents"`
	Model       ModelDef   `yaml:"model"`
	Corpus      CorpusDef  `yaml:"corpus"`
	Logging     LoggingDef `yaml:"logging"`
}

type GridDef struct {
	Rows  int     `yaml:"rows"`
	Cols  int     `yaml:"cols"`
	Walls []Point `yaml:"walls"`
}

// Point is a [row, col] pair.
type Point [2]int

func (p Point) Pos() grid.Pos { return grid.Pos{R: p[0], C: p[1]} }

type AgentDef struct {
	ID       string   `yaml:"id"`
	Kind     string   `yaml:"kind"`
	Policy   string   `yaml:"policy"`
	Start    Point    `yaml:"start"`
	Order    []string `yaml:"order"`
	Target   string   `yaml:"target"`
	Alphabet []string `yaml:"alphabet"`
	Note     string   `yaml:"note"`
}

// ModelDef is the n-gram order used when reporting a model.
type ModelDef struct {
	N int `yaml:"n"`
}

// CorpusDef drives multi-start corpus generation: Agent names the scenario
// agent replayed alone from every open cell for Ticks ticks.
type CorpusDef struct {
	Agent   string `yaml:"agent"`
	Ticks   int    `yaml:"ticks"`
	Workers int    `yaml:"workers"`
	Out     string `yaml:"out"`
	DB      string `yaml:"db"`
}

type LoggingDef struct {
	Level string `yaml:"level"`
}

// Default returns a scenario with every tunable set; agents are left empty.
func Default() *Scenario {
	return &Scenario{
		Name:  "default",
		Grid:  GridDef{Rows: 5, Cols: 5},
		Ticks: 100,
		Seed:  12345,
		Model: ModelDef{N: 3},
		Corpus: CorpusDef{
			Ticks:   100,
			Workers: 8,
			Out:     "corpus.jsonl.zst",
		},
		Logging: LoggingDef{Level: "info"},
	}
}

// Validate checks what the schema cannot: geometry and cross references.
func (s *Scenario) Validate() error {
	var errs []error
	if s.Grid.Rows <= 0 || s.Grid.Cols <= 0 {
		errs = append(errs, fmt.Errorf("grid: %dx%d must be positive", s.Grid.Rows, s.Grid.Cols))
	}
	inBounds := func(p Point) bool {
		return p[0] >= 0 && p[0] < s.Grid.Rows && p[1] >= 0 && p[1] < s.Grid.Cols
	}
	walls := map[Point]bool{}
	for _, w := range s.Grid.Walls {
		if !inBounds(w) {
			errs = append(errs, fmt.Errorf("grid: wall %v out of bounds", w))
		}
		walls[w] = true
	}
	if s.Ticks < 0 {
		errs = append(errs, fmt.Errorf("ticks: %d is negative", s.Ticks))
	}
	if s.SensorNoise < 0 || s.SensorNoise > 1 {
		errs = append(errs, fmt.Errorf("sensor_noise: %v not in [0,1]", s.SensorNoise))
	}
	if s.Model.N < 1 {
		errs = append(errs, fmt.Errorf("model.n: %d must be at least 1", s.Model.N))
	}
	if s.Corpus.Workers < 1 {
		errs = append(errs, fmt.Errorf("corpus.workers: %d must be at least 1", s.Corpus.Workers))
	}

	ids := map[string]bool{}
	for i, a := range s.Agents {
		where := fmt.Sprintf("agents[%d]", i)
		if a.ID == "" {
			errs = append(errs, fmt.Errorf("%s: missing id", where))
		} else if ids[a.ID] {
			errs = append(errs, fmt.Errorf("%s: duplicate id %q", where, a.ID))
		}
		ids[a.ID] = true
		if a.Kind == "" || a.Kind == string(grid.KindEmpty) || a.Kind == string(grid.KindWall) {
			errs = append(errs, fmt.Errorf("%s: invalid kind %q", where, a.Kind))
		}
		if !inBounds(a.Start) {
			errs = append(errs, fmt.Errorf("%s: start %v out of bounds", where, a.Start))
		} else if walls[a.Start] {
			errs = append(errs, fmt.Errorf("%s: start %v is a wall", where, a.Start))
		}
		switch a.Policy {
		case PolicyOrdered:
			if _, err := a.Directions(); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", where, err))
			}
		case PolicyShuffled, PolicyTable:
		case PolicyStalker, PolicyTracker:
			if a.Target == "" {
				errs = append(errs, fmt.Errorf("%s: policy %s needs a target", where, a.Policy))
			}
		default:
			errs = append(errs, fmt.Errorf("%s: unknown policy %q", where, a.Policy))
		}
	}
	if s.Corpus.Agent != "" && !ids[s.Corpus.Agent] {
		errs = append(errs, fmt.Errorf("corpus.agent: no agent %q", s.Corpus.Agent))
	}
	return errors.Join(errs...)
}

// Directions parses Order for the ordered policy.
func (a AgentDef) Directions() ([]grid.Dir, error) {
	if len(a.Order) != len(grid.Cardinals) {
		return nil, fmt.Errorf("order %v: want a permutation of N,S,E,W", a.Order)
	}
	out := make([]grid.Dir, len(a.Order))
	for i, s := range a.Order {
		d, err := grid.ParseDir(s)
		if err != nil {
			return nil, fmt.Errorf("order: %w", err)
		}
		out[i] = d
	}
	return out, nil
}

// Kinds converts Alphabet to grid kinds.
func (a AgentDef) Kinds() []grid.Kind {
	out := make([]grid.Kind, len(a.Alphabet))
	for i, k := range a.Alphabet {
		out[i] = grid.Kind(k)
	}
	return out
}

// Agent returns the definition with the given id.
func (s *Scenario) Agent(id string) (AgentDef, bool) {
	for _, a := range s.Agents {
		if a.ID == id {
			return a, true
		}
	}
	return AgentDef{}, false
}
