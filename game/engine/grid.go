package engine

// trigger rotates gates[gate] by times when an agent leaves a tile forward through exit
type trigger struct {
	exit  Direction
	gate  int
	times int
}

type tile struct {
	walkable bool
	goal     bool
	gate     int
	triggers []trigger
}

// Grid is the immutable board of a level: which cells are tiles, where the goal is,
// which tile owns which gate and which exits fire which rotations.
// Gate state lives on the Level, so one Grid is shared by every clone of a level.
type Grid struct {
	rows  int
	cols  int
	tiles []tile
}

func newGrid(rows, cols int) *Grid {
	g := &Grid{rows: rows, cols: cols, tiles: make([]tile, rows*cols)}
	for i := range g.tiles {
		g.tiles[i].gate = -1
	}
	return g
}

// Rows returns the number of rows
func (g *Grid) Rows() int { return g.rows }

// Cols returns the number of columns
func (g *Grid) Cols() int { return g.cols }

// InBounds reports whether p lies inside the matrix
func (g *Grid) InBounds(p Pos) bool {
	return p.Row >= 0 && p.Row < g.rows && p.Col >= 0 && p.Col < g.cols
}

func (g *Grid) at(p Pos) *tile {
	return &g.tiles[p.Row*g.cols+p.Col]
}

// IsTile reports whether p is a floor or goal cell
func (g *Grid) IsTile(p Pos) bool {
	return g.InBounds(p) && g.at(p).walkable
}

// IsGoal reports whether p is the goal
func (g *Grid) IsGoal(p Pos) bool {
	return g.IsTile(p) && g.at(p).goal
}

// Neighbor returns the tile one step from p in direction d, if there is one
func (g *Grid) Neighbor(p Pos, d Direction) (Pos, bool) {
	dr, dc := d.Delta()
	n := Pos{Row: p.Row + dr, Col: p.Col + dc}
	if !g.IsTile(n) {
		return Pos{}, false
	}
	return n, true
}

// gateIndex returns the index of the gate on p, or -1
func (g *Grid) gateIndex(p Pos) int {
	if !g.IsTile(p) {
		return -1
	}
	return g.at(p).gate
}

// rotationsFor returns the gate rotations bound to leaving p through exit
func (g *Grid) rotationsFor(p Pos, exit Direction) []trigger {
	var out []trigger
	for _, t := range g.at(p).triggers {
		if t.exit == exit {
			out = append(out, t)
		}
	}
	return out
}

// Kind names the cell at p for renderers and local views
func (g *Grid) Kind(p Pos) string {
	switch {
	case !g.IsTile(p):
		return "wall"
	case g.at(p).goal:
		return "goal"
	case g.at(p).gate >= 0:
		return "gate"
	}
	return "floor"
}
