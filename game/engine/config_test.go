package engine

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleLevelJSON = `{
  "name": "sample",
  "description": "Sample level",
  "level_setup": [
    [0, 0, 0, 0, 0],
    [0, 1, 1, 1, 0],
    [0, 1, 1, 9, 0],
    [0, 0, 0, 0, 0]
  ],
  "gates": [[1, 2, 0]],
  "straight_gates": [[2, 2, 1]],
  "triggers": [[1, 1, 1, 2, 1]],
  "slow_enemies": [[2, 1, 3]],
  "normal_enemies": [],
  "fast_enemies": [[1, 3, 2]],
  "player": [1, 1]
}`

const sampleLevelYAML = `
name: sample-yaml
level_setup:
  - [0, 0, 0, 0, 0]
  - [0, 1, 1, 1, 0]
  - [0, 1, 1, 9, 0]
  - [0, 0, 0, 0, 0]
gates:
  - [1, 2, 0]
straight_gates:
  - [2, 2, 1]
triggers:
  - [1, 1, 1, 2, 1]
slow_enemies:
  - [2, 1, 3]
fast_enemies:
  - [1, 3, 2]
player: [1, 1, 1]
`

func TestDecodeLevelConfig_JSON(t *testing.T) {
	cfg, err := DecodeLevelConfig([]byte(sampleLevelJSON), "json")
	if err != nil {
		t.Fatalf("Failed to decode level: %v", err)
	}

	if cfg.Name != "sample" {
		t.Errorf("Expected name 'sample', got '%s'", cfg.Name)
	}
	if len(cfg.LevelSetup) != 4 || len(cfg.LevelSetup[0]) != 5 {
		t.Errorf("Expected 4x5 grid, got %dx%d", len(cfg.LevelSetup), len(cfg.LevelSetup[0]))
	}
	if len(cfg.Gates) != 1 || len(cfg.StraightGates) != 1 || len(cfg.Triggers) != 1 {
		t.Errorf("Unexpected gate/trigger counts: %d/%d/%d", len(cfg.Gates), len(cfg.StraightGates), len(cfg.Triggers))
	}
}

func TestDecodeLevelConfig_YAML(t *testing.T) {
	cfg, err := DecodeLevelConfig([]byte(sampleLevelYAML), "yaml")
	if err != nil {
		t.Fatalf("Failed to decode yaml level: %v", err)
	}

	level, err := NewLevel(cfg)
	if err != nil {
		t.Fatalf("Failed to build level: %v", err)
	}
	snap := level.Snapshot()
	if snap.Player.Row != 1 || snap.Player.Col != 1 || snap.Player.Facing != South {
		t.Errorf("Expected player at (1,1) facing south, got %+v", snap.Player)
	}
	if len(snap.Gates) != 2 || !snap.Gates[1].Straight {
		t.Errorf("Expected a corner gate then a straight gate, got %+v", snap.Gates)
	}
	if len(snap.Enemies) != 2 || snap.Enemies[0].Speed != "fast" || snap.Enemies[1].Speed != "slow" {
		t.Errorf("Expected fast enemy listed before slow enemy, got %+v", snap.Enemies)
	}
}

func TestDecodeLevelConfig_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		field string
	}{
		{"not json", `{`, ""},
		{"missing player", `{"level_setup": [[1, 9]]}`, ""},
		{"empty grid", `{"level_setup": [], "player": [0, 0]}`, ""},
		{"player too long", `{"level_setup": [[1, 9]], "player": [0, 0, 0, 0]}`, ""},
		{"gate wrong arity", `{"level_setup": [[1, 9]], "gates": [[0, 0]], "player": [0, 0]}`, ""},
		{"non-rectangular", `{"level_setup": [[1, 9], [1]], "player": [0, 0]}`, "level_setup[1]"},
		{"unknown cell", `{"level_setup": [[1, 5]], "player": [0, 0]}`, "level_setup[0][1]"},
		{"player on wall", `{"level_setup": [[0, 9]], "player": [0, 0]}`, "player"},
		{"player off grid", `{"level_setup": [[1, 9]], "player": [3, 0]}`, "player"},
		{"player bad facing", `{"level_setup": [[1, 9]], "player": [0, 0, 4]}`, "player"},
		{"gate on wall", `{"level_setup": [[0, 1, 9]], "gates": [[0, 0, 0]], "player": [0, 1]}`, "gates[0]"},
		{"gate orientation", `{"level_setup": [[1, 9]], "gates": [[0, 0, 4]], "player": [0, 0]}`, "gates[0]"},
		{"duplicate gate", `{"level_setup": [[1, 9]], "gates": [[0, 0, 0]], "straight_gates": [[0, 0, 1]], "player": [0, 0]}`, "straight_gates[0]"},
		{"trigger without gate", `{"level_setup": [[1, 1, 9]], "triggers": [[0, 0, 0, 1, 0]], "player": [0, 0]}`, "triggers[0]"},
		{"trigger source wall", `{"level_setup": [[0, 1, 9]], "gates": [[0, 1, 0]], "triggers": [[0, 0, 0, 1, 0]], "player": [0, 1]}`, "triggers[0]"},
		{"trigger direction", `{"level_setup": [[1, 1, 9]], "gates": [[0, 1, 0]], "triggers": [[0, 0, 0, 1, 7]], "player": [0, 0]}`, "triggers[0]"},
		{"enemy on wall", `{"level_setup": [[0, 1, 9]], "normal_enemies": [[0, 0, 0]], "player": [0, 1]}`, "normal_enemies[0]"},
		{"enemy direction", `{"level_setup": [[1, 1, 9]], "fast_enemies": [[0, 1, -1]], "player": [0, 0]}`, "fast_enemies[0]"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg, err := DecodeLevelConfig([]byte(test.input), "json")
			if err == nil {
				t.Fatalf("Expected error, got config %+v", cfg)
			}
			if cfg != nil {
				t.Error("Expected no partial config on error")
			}
			if !errors.Is(err, ErrInvalidLevel) {
				t.Errorf("Expected error to wrap ErrInvalidLevel, got %v", err)
			}
			var ce *ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("Expected *ConfigError, got %T", err)
			}
			if test.field != "" && ce.Field != test.field {
				t.Errorf("Expected field %q, got %q (%v)", test.field, ce.Field, err)
			}
		})
	}
}

func TestNewLevel_RejectsInvalidConfig(t *testing.T) {
	_, err := NewLevel(&LevelConfig{LevelSetup: [][]int{{1, 9}}})
	var ce *ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("Expected *ConfigError, got %v", err)
	}
	if ce.Field != "player" {
		t.Errorf("Expected player field error, got %q", ce.Field)
	}
}

func TestLoadLevelFile(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "first.json")
	noName := strings.Replace(sampleLevelJSON, `"name": "sample",`, "", 1)
	if err := os.WriteFile(jsonPath, []byte(noName), 0644); err != nil {
		t.Fatalf("Failed to write level: %v", err)
	}
	yamlPath := filepath.Join(dir, "second.yml")
	if err := os.WriteFile(yamlPath, []byte(sampleLevelYAML), 0644); err != nil {
		t.Fatalf("Failed to write level: %v", err)
	}
	badPath := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(badPath, []byte(`{"level_setup": [[1]], "player": [5, 5]}`), 0644); err != nil {
		t.Fatalf("Failed to write level: %v", err)
	}

	cfg, err := LoadLevelFile(jsonPath)
	if err != nil {
		t.Fatalf("Failed to load json level: %v", err)
	}
	if cfg.Name != "first" {
		t.Errorf("Expected name from file 'first', got '%s'", cfg.Name)
	}

	cfg, err = LoadLevelFile(yamlPath)
	if err != nil {
		t.Fatalf("Failed to load yaml level: %v", err)
	}
	if cfg.Name != "sample-yaml" {
		t.Errorf("Expected name 'sample-yaml', got '%s'", cfg.Name)
	}

	_, err = LoadLevelFile(badPath)
	if !errors.Is(err, ErrInvalidLevel) {
		t.Errorf("Expected ErrInvalidLevel, got %v", err)
	}
	if err != nil && !strings.Contains(err.Error(), "bad.json") {
		t.Errorf("Expected error to name the file, got %v", err)
	}

	if _, err := LoadLevelFile(filepath.Join(dir, "missing.json")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected not-exist error, got %v", err)
	}
}

func TestFormatForPath(t *testing.T) {
	tests := map[string]string{
		"a.json":  "json",
		"a.yaml":  "yaml",
		"a.YML":   "yaml",
		"a":       "json",
		"dir/x.y": "json",
	}
	for path, expected := range tests {
		if got := FormatForPath(path); got != expected {
			t.Errorf("FormatForPath(%q): expected %s, got %s", path, expected, got)
		}
	}
}

func TestTriggerBindsBothDirections(t *testing.T) {
	cfg, err := DecodeLevelConfig([]byte(sampleLevelJSON), "json")
	if err != nil {
		t.Fatalf("Failed to decode level: %v", err)
	}
	level, err := NewLevel(cfg)
	if err != nil {
		t.Fatalf("Failed to build level: %v", err)
	}

	forward := level.grid.rotationsFor(Pos{Row: 1, Col: 1}, South)
	if len(forward) != 1 || forward[0].times != 1 {
		t.Errorf("Expected a clockwise rotation when leaving south, got %+v", forward)
	}
	reverse := level.grid.rotationsFor(Pos{Row: 1, Col: 1}, North)
	if len(reverse) != 1 || reverse[0].times != 3 {
		t.Errorf("Expected a counter-clockwise rotation when leaving north, got %+v", reverse)
	}
	if side := level.grid.rotationsFor(Pos{Row: 1, Col: 1}, East); len(side) != 0 {
		t.Errorf("Expected no rotation when leaving east, got %+v", side)
	}
}

func TestDefaultLevelConfigIsValid(t *testing.T) {
	if err := DefaultLevelConfig().Validate(); err != nil {
		t.Fatalf("Default level is invalid: %v", err)
	}
}
