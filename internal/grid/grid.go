// Package grid is the bounded cell world agents move on: occupancy,
// sensing and move validation. It keeps no index of agent positions;
// the cells are the only record of where things are.
package grid

import (
	"errors"
	"fmt"
	"math/rand"
)

var (
	ErrOutOfBounds   = errors.New("out of bounds")
	ErrBlockedByWall = errors.New("blocked by wall")
	ErrAgentNotFound = errors.New("agent not found")
	ErrOccupied      = errors.New("cell occupied")
)

type Grid struct {
	rows, cols int
	cells      [][]Cell
}

func New(rows, cols int) (*Grid, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("grid size %dx%d: dimensions must be positive", rows, cols)
	}
	g := &Grid{rows: rows, cols: cols, cells: make([][]Cell, rows)}
	for r := range g.cells {
		g.cells[r] = make([]Cell, cols)
	}
	return g, nil
}

func (g *Grid) Rows() int { return g.rows }
func (g *Grid) Cols() int { return g.cols }

func (g *Grid) InBounds(p Pos) bool {
	return p.R >= 0 && p.R < g.rows && p.C >= 0 && p.C < g.cols
}

// Cell returns a copy of the contents at p; off-grid positions read as a wall.
func (g *Grid) Cell(p Pos) Cell {
	if !g.InBounds(p) {
		return WallCell()
	}
	return g.cells[p.R][p.C].clone()
}

// Ping reads the cell at p and its four orthogonal neighbours.
func (g *Grid) Ping(p Pos) (Ping, error) {
	if !g.InBounds(p) {
		return Ping{}, fmt.Errorf("ping %v: %w", p, ErrOutOfBounds)
	}
	out := Ping{At: p}
	for _, d := range Sensed {
		out.set(d, g.Cell(p.Add(d.Delta())))
	}
	return out, nil
}

// FuzzyPing is Ping with independent per-direction corruption: with
// probability errProb a direction's true contents are replaced by an empty
// or a wall-only cell, each equally likely.
func (g *Grid) FuzzyPing(p Pos, errProb float64, rng *rand.Rand) (Ping, error) {
	out, err := g.Ping(p)
	if err != nil || errProb <= 0 {
		return out, err
	}
	for _, d := range Sensed {
		if rng.Float64() >= errProb {
			continue
		}
		if rng.Intn(2) == 0 {
			out.set(d, Cell{})
		} else {
			out.set(d, WallCell())
		}
	}
	return out, nil
}

// CheckMove returns ErrOutOfBounds or ErrBlockedByWall if p cannot be
// entered. Cells have no occupant limit.
func (g *Grid) CheckMove(p Pos) error {
	if !g.InBounds(p) {
		return ErrOutOfBounds
	}
	if g.cells[p.R][p.C].Wall {
		return ErrBlockedByWall
	}
	return nil
}

func (g *Grid) ValidMove(p Pos) bool { return g.CheckMove(p) == nil }

// Locate scans row-major for the occupant with the given id.
func (g *Grid) Locate(id string) (Pos, error) {
	for r := range g.cells {
		for c := range g.cells[r] {
			if g.cells[r][c].Contains(id) {
				return Pos{r, c}, nil
			}
		}
	}
	return Pos{}, fmt.Errorf("locate %q: %w", id, ErrAgentNotFound)
}

// Place moves o to p, first removing it from wherever it currently is.
func (g *Grid) Place(o Occupant, p Pos) error {
	if err := g.CheckMove(p); err != nil {
		return fmt.Errorf("place %q at %v: %w", o.ID(), p, err)
	}
	g.Remove(o.ID())
	cell := &g.cells[p.R][p.C]
	cell.Occupants = append(cell.Occupants, o)
	return nil
}

// Remove takes the occupant off every cell holding it.
func (g *Grid) Remove(id string) {
	for r := range g.cells {
		for c := range g.cells[r] {
			for g.cells[r][c].remove(id) {
			}
		}
	}
}

// Clear empties the cell at p of walls and occupants.
func (g *Grid) Clear(p Pos) error {
	if !g.InBounds(p) {
		return fmt.Errorf("clear %v: %w", p, ErrOutOfBounds)
	}
	g.cells[p.R][p.C] = Cell{}
	return nil
}

// SetWall turns an unoccupied cell into a wall.
func (g *Grid) SetWall(p Pos) error {
	if !g.InBounds(p) {
		return fmt.Errorf("wall %v: %w", p, ErrOutOfBounds)
	}
	if len(g.cells[p.R][p.C].Occupants) > 0 {
		return fmt.Errorf("wall %v: %w", p, ErrOccupied)
	}
	g.cells[p.R][p.C] = WallCell()
	return nil
}

// CopyFrom overwrites g with the contents of src, reusing g's storage when
// the dimensions match.
func (g *Grid) CopyFrom(src *Grid) {
	if g.rows != src.rows || g.cols != src.cols {
		g.rows, g.cols = src.rows, src.cols
		g.cells = make([][]Cell, src.rows)
		for r := range g.cells {
			g.cells[r] = make([]Cell, src.cols)
		}
	}
	for r := range src.cells {
		for c := range src.cells[r] {
			dst := &g.cells[r][c]
			dst.Wall = src.cells[r][c].Wall
			dst.Occupants = append(dst.Occupants[:0], src.cells[r][c].Occupants...)
		}
	}
}

func (g *Grid) Clone() *Grid {
	out := &Grid{}
	out.CopyFrom(g)
	return out
}

// Positions reports where every occupant stands, keyed by id.
func (g *Grid) Positions() map[string]Pos {
	out := map[string]Pos{}
	for r := range g.cells {
		for c := range g.cells[r] {
			for _, o := range g.cells[r][c].Occupants {
				if _, seen := out[o.ID()]; !seen {
					out[o.ID()] = Pos{r, c}
				}
			}
		}
	}
	return out
}

// Open lists every non-wall cell in row-major order.
func (g *Grid) Open() []Pos {
	var out []Pos
	for r := range g.cells {
		for c := range g.cells[r] {
			if !g.cells[r][c].Wall {
				out = append(out, Pos{r, c})
			}
		}
	}
	return out
}

// Walls lists every wall cell in row-major order.
func (g *Grid) Walls() []Pos {
	var out []Pos
	for r := range g.cells {
		for c := range g.cells[r] {
			if g.cells[r][c].Wall {
				out = append(out, Pos{r, c})
			}
		}
	}
	return out
}
