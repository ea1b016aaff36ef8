package grid

import "fmt"

// Pos is a 0-indexed (row, column) cell coordinate.
type Pos struct {
	R int `json:"r"`
	C int `json:"c"`
}

// Vec is a displacement between two cells.
type Vec struct{ DR, DC int }

func (p Pos) Add(v Vec) Pos  { return Pos{p.R + v.DR, p.C + v.DC} }
func (p Pos) Sub(q Pos) Vec  { return Vec{p.R - q.R, p.C - q.C} }
func (p Pos) String() string { return fmt.Sprintf("(%d,%d)", p.R, p.C) }
func (v Vec) Manhattan() int { return abs(v.DR) + abs(v.DC) }
func (v Vec) IsZero() bool   { return v.DR == 0 && v.DC == 0 }
func (v Vec) String() string { return fmt.Sprintf("<%d,%d>", v.DR, v.DC) }

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Dir is a move symbol: one of the four cardinal directions or Stay.
type Dir string

const (
	North Dir = "N"
	South Dir = "S"
	East  Dir = "E"
	West  Dir = "W"
	Stay  Dir = "stay"

	// Self addresses an agent's own cell in a Ping.
	Self = Stay
)

// Cardinals lists the four moving directions in N, S, E, W order.
var Cardinals = []Dir{North, South, East, West}

// Sensed is the fixed order in which the five cells of a Ping are scanned.
// It doubles as the tie-break priority wherever more than one cell matches.
var Sensed = []Dir{North, South, East, West, Self}

// Delta returns the unit displacement of d. Unknown symbols map to zero.
func (d Dir) Delta() Vec {
	switch d {
	case North:
		return Vec{-1, 0}
	case South:
		return Vec{1, 0}
	case East:
		return Vec{0, 1}
	case West:
		return Vec{0, -1}
	}
	return Vec{}
}

// Valid reports whether d is a cardinal direction or Stay.
func (d Dir) Valid() bool {
	switch d {
	case North, South, East, West, Stay:
		return true
	}
	return false
}

// Opposite returns the reverse of d; Stay is its own opposite.
func (d Dir) Opposite() Dir {
	switch d {
	case North:
		return South
	case South:
		return North
	case East:
		return West
	case West:
		return East
	}
	return d
}

// DirOf converts a displacement of at most one orthogonal step back to its
// symbol. ok is false for diagonal or multi-cell displacements.
func DirOf(v Vec) (Dir, bool) {
	switch v {
	case Vec{}:
		return Stay, true
	case Vec{-1, 0}:
		return North, true
	case Vec{1, 0}:
		return South, true
	case Vec{0, 1}:
		return East, true
	case Vec{0, -1}:
		return West, true
	}
	return "", false
}

// ParseDir accepts "N", "S", "E", "W", "stay" (case-sensitive for the
// cardinals, like the logs they come from).
func ParseDir(s string) (Dir, error) {
	d := Dir(s)
	if !d.Valid() {
		return "", fmt.Errorf("unknown direction %q", s)
	}
	return d, nil
}
