package engine

// CellCode is the integer used for a cell in a level's level_setup matrix
type CellCode int

const (
	WallCell  CellCode = 0
	FloorCell CellCode = 1
	GoalCell  CellCode = 9

	// Validation constants
	MinGridSize         = 1
	MaxGridSize         = 64
	MaxBulkActions      = 50
	WebSocketBufferSize = 256
)

// Direction is one of the four compass directions, numbered clockwise from East.
type Direction int

const (
	East Direction = iota
	South
	West
	North
)

// AllDirections lists directions in action-code order
var AllDirections = [4]Direction{East, South, West, North}

// Valid reports whether d is one of the four directions
func (d Direction) Valid() bool {
	return d >= East && d <= North
}

// Turn rotates d clockwise by times quarter turns; negative values turn counter-clockwise.
func (d Direction) Turn(times int) Direction {
	return Direction(((int(d)+times)%4 + 4) % 4)
}

// Opposite returns the direction pointing the other way
func (d Direction) Opposite() Direction { return d.Turn(2) }

// Left returns the direction a quarter turn counter-clockwise from d
func (d Direction) Left() Direction { return d.Turn(3) }

// Right returns the direction a quarter turn clockwise from d
func (d Direction) Right() Direction { return d.Turn(1) }

// Delta returns the row and column offsets of one step in direction d
func (d Direction) Delta() (rowDelta, colDelta int) {
	switch d {
	case East:
		return 0, 1
	case South:
		return 1, 0
	case West:
		return 0, -1
	case North:
		return -1, 0
	}
	return 0, 0
}

func (d Direction) String() string {
	switch d {
	case East:
		return "east"
	case South:
		return "south"
	case West:
		return "west"
	case North:
		return "north"
	}
	return "unknown"
}

// Action is a numeric action code accepted by Level.TakeAction
type Action int

const (
	MoveEast Action = iota
	MoveSouth
	MoveWest
	MoveNorth
	RotateClockwise
	Wait
	RotateCounterClockwise

	NumActions = 7
)

// MoveAction returns the move action travelling in direction d
func MoveAction(d Direction) Action { return Action(d) }

// IsMove reports whether a is one of the four move actions
func (a Action) IsMove() bool { return a >= MoveEast && a <= MoveNorth }

// IsRotate reports whether a rotates the gate under the player
func (a Action) IsRotate() bool { return a == RotateClockwise || a == RotateCounterClockwise }

// Direction returns the travel direction of a move action
func (a Action) Direction() Direction { return Direction(a) }

func (a Action) String() string {
	switch {
	case a.IsMove():
		return a.Direction().String()
	case a == RotateClockwise:
		return "cw"
	case a == RotateCounterClockwise:
		return "ccw"
	case a == Wait:
		return "wait"
	}
	return "unknown"
}

// Status is the outcome of a turn. The numeric values are part of the external contract.
type Status int

const (
	Lost    Status = -1
	Playing Status = 0
	Won     Status = 1
)

// Terminal reports whether no further turn can change the level
func (s Status) Terminal() bool { return s != Playing }

func (s Status) String() string {
	switch s {
	case Won:
		return "won"
	case Lost:
		return "lost"
	}
	return "playing"
}

// Speed selects which phases of a turn move an enemy
type Speed int

const (
	Slow Speed = iota
	Normal
	Fast
)

func (s Speed) String() string {
	switch s {
	case Slow:
		return "slow"
	case Fast:
		return "fast"
	}
	return "normal"
}

// Pos is a (row, col) grid coordinate
type Pos struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Policy selects how the movement resolver picks a direction for an agent
type Policy int

const (
	PlayerPolicy Policy = iota
	EnemyPolicy
)

// Agent is a positioned, facing entity. Speed is only meaningful for EnemyPolicy.
type Agent struct {
	Pos    Pos
	Facing Direction
	Policy Policy
	Speed  Speed
}

// PlayerView is the player part of a Snapshot
type PlayerView struct {
	Row    int       `json:"row"`
	Col    int       `json:"col"`
	Facing Direction `json:"facing"`
}

// GateView is the externally visible state of one gate
type GateView struct {
	Row         int          `json:"row"`
	Col         int          `json:"col"`
	Blocked     [2]Direction `json:"blocked"`
	Orientation int          `json:"orientation"`
	Straight    bool         `json:"straight"`
}

// EnemyView is the externally visible state of one enemy
type EnemyView struct {
	Row    int       `json:"row"`
	Col    int       `json:"col"`
	Facing Direction `json:"facing"`
	Speed  string    `json:"speed"`
}

// Snapshot is a read-only copy of everything a consumer may observe about a level.
// Enemies are listed fast first, then normal, then slow, each in configuration order.
type Snapshot struct {
	Player  PlayerView  `json:"player"`
	Gates   []GateView  `json:"gates"`
	Enemies []EnemyView `json:"enemies"`
	Tick    int         `json:"tick"`
	Status  Status      `json:"status"`
}

// SurroundingCell is one of the eight cells around the player
type SurroundingCell struct {
	Row  int    `json:"row"`
	Col  int    `json:"col"`
	Kind string `json:"kind"`
}
