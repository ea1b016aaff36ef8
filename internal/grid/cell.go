package grid

// Kind names what sort of entity an occupant is ("cop", "robber", ...).
// KindEmpty and KindWall complete the cell-content alphabet used by
// table-driven policies.
type Kind string

const (
	KindEmpty Kind = "empty"
	KindWall  Kind = "wall"
)

// Occupant is anything that can stand on a cell. Identity is by ID.
type Occupant interface {
	ID() string
	Kind() Kind
}

// Cell holds either a wall or any number of occupants, never both.
type Cell struct {
	Wall      bool
	Occupants []Occupant
}

// WallCell is the synthetic cell reported for off-grid neighbours.
func WallCell() Cell { return Cell{Wall: true} }

func (c Cell) Empty() bool { return !c.Wall && len(c.Occupants) == 0 }

func (c Cell) Has(k Kind) bool {
	_, ok := c.Find(k)
	return ok
}

// Find returns the first occupant of kind k.
func (c Cell) Find(k Kind) (Occupant, bool) {
	for _, o := range c.Occupants {
		if o.Kind() == k {
			return o, true
		}
	}
	return nil, false
}

func (c Cell) Contains(id string) bool {
	for _, o := range c.Occupants {
		if o.ID() == id {
			return true
		}
	}
	return false
}

// Classify maps the cell onto one symbol of alphabet. A wall is KindWall;
// otherwise the first alphabet kind present wins, and a cell with none of
// them reads as KindEmpty.
func (c Cell) Classify(alphabet []Kind) Kind {
	if c.Wall {
		return KindWall
	}
	for _, k := range alphabet {
		if k == KindEmpty || k == KindWall {
			continue
		}
		if c.Has(k) {
			return k
		}
	}
	return KindEmpty
}

func (c Cell) clone() Cell {
	out := Cell{Wall: c.Wall}
	if len(c.Occupants) > 0 {
		out.Occupants = append([]Occupant(nil), c.Occupants...)
	}
	return out
}

func (c *Cell) remove(id string) bool {
	for i, o := range c.Occupants {
		if o.ID() == id {
			c.Occupants = append(c.Occupants[:i], c.Occupants[i+1:]...)
			return true
		}
	}
	return false
}

// Ping is a sensor reading: the four orthogonal neighbours of At plus At
// itself (addressed as Self).
type Ping struct {
	At    Pos
	cells [5]Cell
}

// NewPing builds a reading from explicit cells; directions missing from
// cells read as empty.
func NewPing(at Pos, cells map[Dir]Cell) Ping {
	p := Ping{At: at}
	for d, c := range cells {
		if i := sensedIndex(d); i >= 0 {
			p.cells[i] = c.clone()
		}
	}
	return p
}

// Cell returns the sensed contents in direction d (Self for the own cell).
func (p Ping) Cell(d Dir) Cell {
	i := sensedIndex(d)
	if i < 0 {
		return Cell{}
	}
	return p.cells[i]
}

// Target returns the absolute position the reading for d describes.
func (p Ping) Target(d Dir) Pos { return p.At.Add(d.Delta()) }

func (p *Ping) set(d Dir, c Cell) { p.cells[sensedIndex(d)] = c }

func sensedIndex(d Dir) int {
	for i, s := range Sensed {
		if s == d {
			return i
		}
	}
	return -1
}
