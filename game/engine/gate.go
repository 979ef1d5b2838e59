package engine

// GateShape distinguishes gates that block two adjacent sides from gates that block two opposite sides
type GateShape int

const (
	CornerGate GateShape = iota
	StraightGate
)

// Gate is a rotating blocker owned by one tile.
//
// A corner gate at orientation o blocks {o, o+1}; a straight gate blocks {o, o+2}.
// Orientation is kept modulo 4, so a straight gate has four nominal orientations
// but only two distinct physical states.
type Gate struct {
	Pos         Pos
	Shape       GateShape
	Orientation int
}

// BlockedDirections returns the two directions in which an agent may not leave the gate's tile
func (g Gate) BlockedDirections() [2]Direction {
	o := Direction(g.Orientation)
	if g.Shape == StraightGate {
		return [2]Direction{o, o.Opposite()}
	}
	return [2]Direction{o, o.Right()}
}

// EnteringBlockedDirections returns the travel directions in which an agent may not enter the gate's tile
func (g Gate) EnteringBlockedDirections() [2]Direction {
	b := g.BlockedDirections()
	return [2]Direction{b[0].Opposite(), b[1].Opposite()}
}

// Rotate turns the gate clockwise by times quarter turns
func (g *Gate) Rotate(times int) {
	g.Orientation = int(Direction(g.Orientation).Turn(times))
}

// BlocksExit reports whether leaving the tile in direction d is blocked
func (g Gate) BlocksExit(d Direction) bool {
	b := g.BlockedDirections()
	return b[0] == d || b[1] == d
}

// BlocksEntry reports whether arriving on the tile while travelling in direction d is blocked
func (g Gate) BlocksEntry(d Direction) bool {
	e := g.EnteringBlockedDirections()
	return e[0] == d || e[1] == d
}

func (g Gate) view() GateView {
	return GateView{
		Row:         g.Pos.Row,
		Col:         g.Pos.Col,
		Blocked:     g.BlockedDirections(),
		Orientation: g.Orientation,
		Straight:    g.Shape == StraightGate,
	}
}
