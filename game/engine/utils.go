package engine

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnknownAction is returned by ParseAction for input that names no action
var ErrUnknownAction = errors.New("unknown action")

var actionNames = map[string]Action{
	"east":   MoveEast,
	"right":  MoveEast,
	"e":      MoveEast,
	"south":  MoveSouth,
	"down":   MoveSouth,
	"s":      MoveSouth,
	"west":   MoveWest,
	"left":   MoveWest,
	"w":      MoveWest,
	"north":  MoveNorth,
	"up":     MoveNorth,
	"n":      MoveNorth,
	"cw":     RotateClockwise,
	"rotate": RotateClockwise,
	"wait":   Wait,
	"ccw":    RotateCounterClockwise,
}

// ParseAction accepts an action code ("0" to "6") or a name such as "east", "up", "cw" or "wait"
func ParseAction(s string) (Action, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 || n >= NumActions {
			return 0, fmt.Errorf("%w: code %d", ErrUnknownAction, n)
		}
		return Action(n), nil
	}
	if a, ok := actionNames[s]; ok {
		return a, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAction, s)
}

// ManhattanDistance calculates the Manhattan distance between two positions
func ManhattanDistance(from, to Pos) int {
	dr := from.Row - to.Row
	if dr < 0 {
		dr = -dr
	}
	dc := from.Col - to.Col
	if dc < 0 {
		dc = -dc
	}
	return dr + dc
}

// GoalPositions lists the goal tiles in row-major order
func (g *Grid) GoalPositions() []Pos {
	var goals []Pos
	for r := 0; r < g.rows; r++ {
		for c := 0; c < g.cols; c++ {
			if g.IsGoal(Pos{Row: r, Col: c}) {
				goals = append(goals, Pos{Row: r, Col: c})
			}
		}
	}
	return goals
}

var (
	cornerGlyphs   = [4]rune{'┘', '└', '┌', '┐'}
	straightGlyphs = [2]rune{'║', '═'}
	facingGlyphs   = [4]rune{'>', 'v', '<', '^'}
)

// BoardRows draws the grid with the state in s, one string per row.
//
//	# wall   . floor   G goal   P player   > v < ^ enemy by facing
//	┘ └ ┌ ┐ corner gate (drawn on its blocked sides)   ║ ═ straight gate
func BoardRows(g *Grid, s Snapshot) []string {
	cells := make([][]rune, g.rows)
	for r := range cells {
		cells[r] = make([]rune, g.cols)
		for c := range cells[r] {
			p := Pos{Row: r, Col: c}
			switch {
			case !g.IsTile(p):
				cells[r][c] = '#'
			case g.IsGoal(p):
				cells[r][c] = 'G'
			default:
				cells[r][c] = '.'
			}
		}
	}

	put := func(row, col int, ch rune) {
		if row >= 0 && row < g.rows && col >= 0 && col < g.cols {
			cells[row][col] = ch
		}
	}
	for _, gate := range s.Gates {
		o := Direction(gate.Orientation).Turn(0)
		if gate.Straight {
			put(gate.Row, gate.Col, straightGlyphs[int(o)%2])
		} else {
			put(gate.Row, gate.Col, cornerGlyphs[o])
		}
	}
	for _, e := range s.Enemies {
		put(e.Row, e.Col, facingGlyphs[e.Facing.Turn(0)])
	}
	put(s.Player.Row, s.Player.Col, 'P')

	rows := make([]string, len(cells))
	for i, r := range cells {
		rows[i] = string(r)
	}
	return rows
}

// RenderBoard draws the level's current state as text
func RenderBoard(l *Level) string {
	return strings.Join(BoardRows(l.grid, l.Snapshot()), "\n")
}
