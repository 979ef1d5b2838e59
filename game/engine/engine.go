package engine

// Engine is the contract consumers of a level depend on
type Engine interface {
	Reset() Snapshot
	ValidActions() []Action
	TakeAction(action Action) Status
	Snapshot() Snapshot
	Status() Status
	Tick() int
	Config() *LevelConfig
}

// Level is the aggregate root of one running puzzle: the board, the current gate
// orientations, the player, the three enemy groups and the tick counter.
//
// A Level is not safe for concurrent use. Callers that need parallel rollouts
// create one Level per rollout, or Clone an existing one.
type Level struct {
	config *LevelConfig
	grid   *Grid
	gates  []Gate

	player Agent
	fast   []Agent
	normal []Agent
	slow   []Agent

	tick   int
	status Status
}

var _ Engine = (*Level)(nil)

// NewLevel validates cfg and builds a level in its initial state
func NewLevel(cfg *LevelConfig) (*Level, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg.build(), nil
}

// Reset rebuilds the level from its configuration, reverting gates, agents and tick
func (l *Level) Reset() Snapshot {
	*l = *l.config.build()
	return l.Snapshot()
}

// Config returns the configuration the level was built from
func (l *Level) Config() *LevelConfig {
	return l.config
}

// Grid returns the immutable board
func (l *Level) Grid() *Grid {
	return l.grid
}

// Status returns the outcome of the last turn
func (l *Level) Status() Status {
	return l.status
}

// Tick returns the number of move and wait turns taken since the last reset
func (l *Level) Tick() int {
	return l.tick
}

// Player returns the player's position and facing
func (l *Level) Player() PlayerView {
	return PlayerView{Row: l.player.Pos.Row, Col: l.player.Pos.Col, Facing: l.player.Facing}
}

// Legal reports whether action is currently available to the player.
// Terminal levels have no legal actions.
func (l *Level) Legal(action Action) bool {
	if l.status.Terminal() {
		return false
	}
	switch {
	case action.IsMove():
		return !l.exitBlocked(l.player.Pos, action.Direction())
	case action.IsRotate():
		return l.grid.gateIndex(l.player.Pos) >= 0
	case action == Wait:
		return true
	}
	return false
}

// ValidActions returns the legal action codes in ascending order. Wait is
// always included while the level is Playing; a won or lost level returns none.
func (l *Level) ValidActions() []Action {
	actions := make([]Action, 0, NumActions)
	for a := Action(0); a < NumActions; a++ {
		if l.Legal(a) {
			actions = append(actions, a)
		}
	}
	return actions
}

// TakeAction resolves exactly one turn and returns its outcome.
//
// Any action that is not currently legal, including unknown codes, is played as Wait.
// Once the level is Won or Lost every call returns that status unchanged until Reset.
func (l *Level) TakeAction(action Action) Status {
	if l.status.Terminal() {
		return l.status
	}
	if !l.Legal(action) {
		action = Wait
	}

	switch action {
	case RotateClockwise:
		l.rotatePlayerGate(1)
	case RotateCounterClockwise:
		l.rotatePlayerGate(3)
	case Wait:
		l.status = l.waitTurn()
	default:
		l.status = l.moveTurn(action.Direction())
	}
	return l.status
}

// moveTurn runs fast enemies, the player, fast and normal enemies, then slow
// enemies on even ticks. Triggers from the player and the later enemy phases are
// applied together at the end; any capture aborts before they are applied.
func (l *Level) moveTurn(d Direction) Status {
	l.tick++

	pending := l.moveEnemies(l.fast, nil)
	if l.playerCaught() {
		return Lost
	}
	l.applyTriggers(pending)

	pending = l.moveAgent(&l.player, d)
	if l.playerCaught() {
		return Lost
	}
	if l.grid.IsGoal(l.player.Pos) {
		return Won
	}

	pending = l.moveEnemies(l.fast, pending)
	pending = l.moveEnemies(l.normal, pending)
	if l.playerCaught() {
		return Lost
	}

	if l.tick%2 == 0 {
		pending = l.moveEnemies(l.slow, pending)
		if l.playerCaught() {
			return Lost
		}
	}

	l.applyTriggers(pending)
	return Playing
}

// waitTurn is moveTurn without the player, applying each phase's triggers before the next phase
func (l *Level) waitTurn() Status {
	l.tick++

	pending := l.moveEnemies(l.fast, nil)
	if l.playerCaught() {
		return Lost
	}
	l.applyTriggers(pending)

	pending = l.moveEnemies(l.fast, nil)
	pending = l.moveEnemies(l.normal, pending)
	if l.playerCaught() {
		return Lost
	}
	l.applyTriggers(pending)

	if l.tick%2 == 0 {
		pending = l.moveEnemies(l.slow, nil)
		if l.playerCaught() {
			return Lost
		}
		l.applyTriggers(pending)
	}
	return Playing
}

func (l *Level) rotatePlayerGate(times int) {
	if gi := l.grid.gateIndex(l.player.Pos); gi >= 0 {
		l.gates[gi].Rotate(times)
	}
}

// Snapshot returns a copy of the observable state
func (l *Level) Snapshot() Snapshot {
	s := Snapshot{
		Player:  l.Player(),
		Gates:   make([]GateView, len(l.gates)),
		Enemies: make([]EnemyView, 0, len(l.fast)+len(l.normal)+len(l.slow)),
		Tick:    l.tick,
		Status:  l.status,
	}
	for i, g := range l.gates {
		s.Gates[i] = g.view()
	}
	for _, group := range [3][]Agent{l.fast, l.normal, l.slow} {
		for _, e := range group {
			s.Enemies = append(s.Enemies, EnemyView{
				Row:    e.Pos.Row,
				Col:    e.Pos.Col,
				Facing: e.Facing,
				Speed:  e.Speed.String(),
			})
		}
	}
	return s
}

// Clone returns an independent copy of the level sharing the immutable grid and configuration
func (l *Level) Clone() *Level {
	c := *l
	c.gates = append([]Gate(nil), l.gates...)
	c.fast = append([]Agent(nil), l.fast...)
	c.normal = append([]Agent(nil), l.normal...)
	c.slow = append([]Agent(nil), l.slow...)
	return &c
}
