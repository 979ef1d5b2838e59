package engine

// exitBlocked reports whether an agent standing on p cannot travel in direction d.
// Travel is blocked when there is no tile that way, when the gate on p blocks the
// exit, or when the gate on the neighbouring tile blocks entry from this side.
func (l *Level) exitBlocked(p Pos, d Direction) bool {
	next, ok := l.grid.Neighbor(p, d)
	if !ok {
		return true
	}
	if gi := l.grid.gateIndex(p); gi >= 0 && l.gates[gi].BlocksExit(d) {
		return true
	}
	if gi := l.grid.gateIndex(next); gi >= 0 && l.gates[gi].BlocksEntry(d) {
		return true
	}
	return false
}

// moveAgent resolves one movement for an agent and returns the triggers its move fired.
//
// Players travel in the requested direction. The move fires the exit triggers of the
// tile being left only when the player was already facing that way; otherwise the
// player turns while moving and nothing fires. Callers validate player moves first.
//
// Enemies ignore requested and try forward, left, right, then backward, taking the
// first unblocked direction. Only a forward move fires triggers. A boxed-in enemy
// stays put.
func (l *Level) moveAgent(a *Agent, requested Direction) []trigger {
	if a.Policy == PlayerPolicy {
		next, ok := l.grid.Neighbor(a.Pos, requested)
		if !ok {
			return nil
		}
		forward := a.Facing == requested
		from := a.Pos
		a.Facing = requested
		a.Pos = next
		if !forward {
			return nil
		}
		return l.grid.rotationsFor(from, requested)
	}

	f := a.Facing
	for i, d := range [4]Direction{f, f.Left(), f.Right(), f.Opposite()} {
		if l.exitBlocked(a.Pos, d) {
			continue
		}
		next, _ := l.grid.Neighbor(a.Pos, d)
		from := a.Pos
		a.Facing = d
		a.Pos = next
		if i != 0 {
			return nil
		}
		return l.grid.rotationsFor(from, d)
	}
	return nil
}

// moveEnemies runs the resolver once over every enemy in order, appending fired triggers to pending
func (l *Level) moveEnemies(enemies []Agent, pending []trigger) []trigger {
	for i := range enemies {
		pending = append(pending, l.moveAgent(&enemies[i], enemies[i].Facing)...)
	}
	return pending
}

// applyTriggers rotates every gate bound by the given triggers
func (l *Level) applyTriggers(pending []trigger) {
	for _, t := range pending {
		l.gates[t.gate].Rotate(t.times)
	}
}

// playerCaught reports whether any enemy shares the player's tile
func (l *Level) playerCaught() bool {
	return l.enemyAt(l.player.Pos)
}

// LocalView returns the eight cells surrounding the player, clockwise from North
func (l *Level) LocalView() []SurroundingCell {
	offsets := []struct{ dr, dc int }{
		{-1, 0},  // North
		{-1, 1},  // North-East
		{0, 1},   // East
		{1, 1},   // South-East
		{1, 0},   // South
		{1, -1},  // South-West
		{0, -1},  // West
		{-1, -1}, // North-West
	}

	p := l.player.Pos
	view := make([]SurroundingCell, len(offsets))
	for i, o := range offsets {
		c := Pos{Row: p.Row + o.dr, Col: p.Col + o.dc}
		kind := l.grid.Kind(c)
		if l.enemyAt(c) {
			kind = "enemy"
		}
		view[i] = SurroundingCell{Row: c.Row, Col: c.Col, Kind: kind}
	}
	return view
}

func (l *Level) enemyAt(p Pos) bool {
	for _, group := range [3][]Agent{l.fast, l.normal, l.slow} {
		for _, e := range group {
			if e.Pos == p {
				return true
			}
		}
	}
	return false
}
