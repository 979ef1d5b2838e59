package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// ErrInvalidLevel is wrapped by every ConfigError
var ErrInvalidLevel = errors.New("invalid level")

// ConfigError reports a malformed or inconsistent level configuration.
// Field is a path such as "gates[2]" or "/level_setup/0"; it may be empty.
type ConfigError struct {
	Field string
	Msg   string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return "level config: " + e.Msg
	}
	return fmt.Sprintf("level config: %s: %s", e.Field, e.Msg)
}

func (e *ConfigError) Unwrap() error { return ErrInvalidLevel }

func configErrorf(field, format string, args ...any) error {
	return &ConfigError{Field: field, Msg: fmt.Sprintf(format, args...)}
}

// LevelConfig is the static description of a level as found in a level file
type LevelConfig struct {
	Name          string  `json:"name,omitempty"`
	Description   string  `json:"description,omitempty"`
	LevelSetup    [][]int `json:"level_setup"`
	Gates         [][]int `json:"gates,omitempty"`
	StraightGates [][]int `json:"straight_gates,omitempty"`
	Triggers      [][]int `json:"triggers,omitempty"`
	SlowEnemies   [][]int `json:"slow_enemies,omitempty"`
	NormalEnemies [][]int `json:"normal_enemies,omitempty"`
	FastEnemies   [][]int `json:"fast_enemies,omitempty"`
	Player        []int   `json:"player"`
}

const levelSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["level_setup", "player"],
  "properties": {
    "name": {"type": "string"},
    "description": {"type": "string"},
    "level_setup": {
      "type": "array",
      "minItems": 1,
      "items": {"type": "array", "minItems": 1, "items": {"type": "integer"}}
    },
    "gates": {"$ref": "#/definitions/triples"},
    "straight_gates": {"$ref": "#/definitions/triples"},
    "slow_enemies": {"$ref": "#/definitions/triples"},
    "normal_enemies": {"$ref": "#/definitions/triples"},
    "fast_enemies": {"$ref": "#/definitions/triples"},
    "triggers": {
      "type": "array",
      "items": {"type": "array", "minItems": 5, "maxItems": 5, "items": {"type": "integer"}}
    },
    "player": {"type": "array", "minItems": 2, "maxItems": 3, "items": {"type": "integer"}}
  },
  "definitions": {
    "triples": {
      "type": "array",
      "items": {"type": "array", "minItems": 3, "maxItems": 3, "items": {"type": "integer"}}
    }
  }
}`

var levelSchema = jsonschema.MustCompileString("level.schema.json", levelSchemaJSON)

// FormatForPath returns "yaml" for .yaml/.yml files and "json" otherwise
func FormatForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	}
	return "json"
}

// DecodeLevelConfig parses a JSON or YAML level document, checks it against the
// level schema and validates it. Any failure is returned as a *ConfigError.
func DecodeLevelConfig(data []byte, format string) (*LevelConfig, error) {
	if format == "yaml" {
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, configErrorf("", "parse yaml: %v", err)
		}
		normalized, err := json.Marshal(doc)
		if err != nil {
			return nil, configErrorf("", "normalize yaml: %v", err)
		}
		data = normalized
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, configErrorf("", "parse json: %v", err)
	}
	if err := levelSchema.Validate(doc); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			leaf := ve
			for len(leaf.Causes) > 0 {
				leaf = leaf.Causes[0]
			}
			return nil, configErrorf(leaf.InstanceLocation, "%s", leaf.Message)
		}
		return nil, configErrorf("", "schema: %v", err)
	}

	var cfg LevelConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, configErrorf("", "decode: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadLevelFile reads and decodes a level file. Levels without a name are named after the file.
func LoadLevelFile(path string) (*LevelConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := DecodeLevelConfig(data, FormatForPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	if cfg.Name == "" {
		cfg.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return cfg, nil
}

// Validate checks that the configuration describes a consistent level
func (c *LevelConfig) Validate() error {
	if c == nil {
		return configErrorf("", "config is nil")
	}
	rows := len(c.LevelSetup)
	if rows < MinGridSize {
		return configErrorf("level_setup", "must have at least one row")
	}
	cols := len(c.LevelSetup[0])
	if cols < MinGridSize {
		return configErrorf("level_setup", "must have at least one column")
	}
	if rows > MaxGridSize || cols > MaxGridSize {
		return configErrorf("level_setup", "grid %dx%d exceeds the %dx%d limit", rows, cols, MaxGridSize, MaxGridSize)
	}
	for r, row := range c.LevelSetup {
		if len(row) != cols {
			return configErrorf(fmt.Sprintf("level_setup[%d]", r), "has %d cells, expected %d", len(row), cols)
		}
		for col, code := range row {
			switch CellCode(code) {
			case WallCell, FloorCell, GoalCell:
			default:
				return configErrorf(fmt.Sprintf("level_setup[%d][%d]", r, col), "unknown cell code %d", code)
			}
		}
	}

	walkable := func(r, col int) bool {
		return r >= 0 && r < rows && col >= 0 && col < cols && CellCode(c.LevelSetup[r][col]) != WallCell
	}
	checkPlaced := func(field string, entry []int, want int) error {
		if len(entry) != want {
			return configErrorf(field, "expected %d values, got %d", want, len(entry))
		}
		if !walkable(entry[0], entry[1]) {
			return configErrorf(field, "(%d, %d) is not a floor cell", entry[0], entry[1])
		}
		return nil
	}
	checkDirection := func(field string, v int) error {
		if !Direction(v).Valid() {
			return configErrorf(field, "direction %d outside 0-3", v)
		}
		return nil
	}

	gated := make(map[Pos]bool)
	for _, list := range []struct {
		name    string
		entries [][]int
	}{{"gates", c.Gates}, {"straight_gates", c.StraightGates}} {
		for i, g := range list.entries {
			field := fmt.Sprintf("%s[%d]", list.name, i)
			if err := checkPlaced(field, g, 3); err != nil {
				return err
			}
			if err := checkDirection(field, g[2]); err != nil {
				return err
			}
			p := Pos{Row: g[0], Col: g[1]}
			if gated[p] {
				return configErrorf(field, "(%d, %d) already has a gate", p.Row, p.Col)
			}
			gated[p] = true
		}
	}

	for i, t := range c.Triggers {
		field := fmt.Sprintf("triggers[%d]", i)
		if err := checkPlaced(field, t, 5); err != nil {
			return err
		}
		if !gated[Pos{Row: t[2], Col: t[3]}] {
			return configErrorf(field, "target (%d, %d) has no gate", t[2], t[3])
		}
		if err := checkDirection(field, t[4]); err != nil {
			return err
		}
	}

	for _, list := range []struct {
		name    string
		entries [][]int
	}{{"slow_enemies", c.SlowEnemies}, {"normal_enemies", c.NormalEnemies}, {"fast_enemies", c.FastEnemies}} {
		for i, e := range list.entries {
			field := fmt.Sprintf("%s[%d]", list.name, i)
			if err := checkPlaced(field, e, 3); err != nil {
				return err
			}
			if err := checkDirection(field, e[2]); err != nil {
				return err
			}
		}
	}

	switch len(c.Player) {
	case 0:
		return configErrorf("player", "is required")
	case 2:
		if err := checkPlaced("player", c.Player, 2); err != nil {
			return err
		}
	case 3:
		if err := checkPlaced("player", c.Player, 3); err != nil {
			return err
		}
		if err := checkDirection("player", c.Player[2]); err != nil {
			return err
		}
	default:
		return configErrorf("player", "expected [row, col] or [row, col, direction]")
	}
	return nil
}

// build assembles a level in its initial state. c must have passed Validate.
func (c *LevelConfig) build() *Level {
	rows, cols := len(c.LevelSetup), len(c.LevelSetup[0])
	grid := newGrid(rows, cols)
	for r, row := range c.LevelSetup {
		for col, code := range row {
			t := grid.at(Pos{Row: r, Col: col})
			t.walkable = CellCode(code) != WallCell
			t.goal = CellCode(code) == GoalCell
		}
	}

	l := &Level{config: c, grid: grid, status: Playing}
	for _, g := range c.Gates {
		l.addGate(g, CornerGate)
	}
	for _, g := range c.StraightGates {
		l.addGate(g, StraightGate)
	}

	// Leaving forward through exit rotates clockwise; leaving the opposite way undoes it.
	for _, t := range c.Triggers {
		src := grid.at(Pos{Row: t[0], Col: t[1]})
		target := grid.gateIndex(Pos{Row: t[2], Col: t[3]})
		exit := Direction(t[4])
		src.triggers = append(src.triggers,
			trigger{exit: exit, gate: target, times: 1},
			trigger{exit: exit.Opposite(), gate: target, times: 3},
		)
	}

	l.fast = placeEnemies(c.FastEnemies, Fast)
	l.normal = placeEnemies(c.NormalEnemies, Normal)
	l.slow = placeEnemies(c.SlowEnemies, Slow)

	l.player = Agent{Pos: Pos{Row: c.Player[0], Col: c.Player[1]}, Facing: East, Policy: PlayerPolicy}
	if len(c.Player) == 3 {
		l.player.Facing = Direction(c.Player[2])
	}
	return l
}

func (l *Level) addGate(entry []int, shape GateShape) {
	p := Pos{Row: entry[0], Col: entry[1]}
	l.grid.at(p).gate = len(l.gates)
	l.gates = append(l.gates, Gate{Pos: p, Shape: shape, Orientation: entry[2]})
}

func placeEnemies(entries [][]int, speed Speed) []Agent {
	agents := make([]Agent, 0, len(entries))
	for _, e := range entries {
		agents = append(agents, Agent{
			Pos:    Pos{Row: e[0], Col: e[1]},
			Facing: Direction(e[2]),
			Policy: EnemyPolicy,
			Speed:  speed,
		})
	}
	return agents
}

// DefaultLevelConfig returns a small built-in level used when no level files are available
func DefaultLevelConfig() *LevelConfig {
	return &LevelConfig{
		Name:        "corridor",
		Description: "Walk east to the goal, turning the gate out of the way.",
		LevelSetup: [][]int{
			{0, 0, 0, 0, 0, 0},
			{0, 1, 1, 1, 9, 0},
			{0, 0, 0, 0, 0, 0},
		},
		Gates:  [][]int{{1, 2, 0}},
		Player: []int{1, 1},
	}
}
