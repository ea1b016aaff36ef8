package sim

import (
	"encoding/json"
	"math/rand"

	"coptrack/internal/agent"
	"coptrack/internal/grid"
	"coptrack/internal/ngram"
)

// Event is the reporting record handed to the injected emit hook.
type Event struct {
	Tick    int            `json:"tick"`
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload,omitempty"`
}

// Event and diagnostic types.
const (
	EventSpawn = "Spawn"
	EventMove  = "Move"

	DiagOutOfBounds   = "OutOfBounds"
	DiagBlockedByWall = "BlockedByWall"
	DiagNoLegalMove   = "NoLegalMove"
	DiagAgentNotFound = "AgentNotFound"
	DiagBadProposal   = "BadProposal"
)

type Env struct {
	Tick        int
	SensorNoise float64
	Rng         *rand.Rand
}

type Move struct {
	Agent    string   `json:"agent"`
	From     grid.Pos `json:"from"`
	To       grid.Pos `json:"to"`
	Proposed grid.Dir `json:"proposed"`
	Dir      grid.Dir `json:"dir"`
}

// Diagnostic records a recovered problem: the agent was held in place.
type Diagnostic struct {
	Agent   string `json:"agent"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

type TickReport struct {
	Tick        int                 `json:"tick"`
	Moves       []Move              `json:"moves"`
	Diagnostics []Diagnostic        `json:"diagnostics,omitempty"`
	Occupancy   map[string]grid.Pos `json:"occupancy"`
}

type TrackerReport struct {
	Target       grid.Kind           `json:"target"`
	TargetID     string              `json:"target_id,omitempty"`
	Observations []agent.Observation `json:"observations"`
	Deduced      []string            `json:"deduced"`
	Impossible   int                 `json:"impossible"`
	Agree        int                 `json:"agree"`
	Known        int                 `json:"known"`
	ModelN       int                 `json:"model_n,omitempty"`
	Model        []ngram.Row         `json:"model,omitempty"`
}

type Result struct {
	Ticks       int                      `json:"ticks"`
	Logs        map[string][]string      `json:"logs"`
	Positions   map[string]grid.Pos      `json:"positions"`
	Trackers    map[string]TrackerReport `json:"trackers,omitempty"`
	Diagnostics map[string]int           `json:"diagnostics"`
	Events      []Event                  `json:"events,omitempty"`
}

func MarshalPretty(v any) []byte {
	b, _ := json.MarshalIndent(v, "", "  ")
	return b
}
