package engine

import (
	"strings"
	"testing"
)

// triggerLevel has a trigger on (0,0) exiting east that turns the gate at (1,0)
func triggerLevel(enemies [][]int) *LevelConfig {
	return &LevelConfig{
		LevelSetup: [][]int{
			{1, 1, 1, 1},
			{1, 0, 0, 0},
		},
		Gates:         [][]int{{1, 0, 0}},
		Triggers:      [][]int{{0, 0, 1, 0, 0}},
		NormalEnemies: enemies,
		Player:        []int{0, 0},
	}
}

func TestPlayerTriggerAppliesAtEndOfTurn(t *testing.T) {
	level := newTestLevel(t, triggerLevel(nil))

	if status := level.TakeAction(MoveEast); status != Playing {
		t.Fatalf("Expected Playing, got %s", status)
	}
	if o := level.Snapshot().Gates[0].Orientation; o != 1 {
		t.Errorf("Expected the player's trigger to rotate the gate to 1, got %d", o)
	}
}

func TestLossCancelsPendingTriggers(t *testing.T) {
	// The normal enemy steps onto the player's new tile in the same turn the player fires the trigger.
	level := newTestLevel(t, triggerLevel([][]int{{0, 2, 2}}))

	if status := level.TakeAction(MoveEast); status != Lost {
		t.Fatalf("Expected Lost, got %s", status)
	}
	if o := level.Snapshot().Gates[0].Orientation; o != 0 {
		t.Errorf("Expected pending trigger to be discarded, gate orientation %d", o)
	}
}

func TestLossInFirstPhaseCancelsEnemyTrigger(t *testing.T) {
	cfg := &LevelConfig{
		LevelSetup: [][]int{
			{1, 1, 1, 1},
			{1, 0, 0, 0},
		},
		Gates:       [][]int{{1, 0, 0}},
		Triggers:    [][]int{{0, 1, 1, 0, 0}},
		FastEnemies: [][]int{{0, 1, 0}},
		Player:      []int{0, 2},
	}
	level := newTestLevel(t, cfg)

	if status := level.TakeAction(Wait); status != Lost {
		t.Fatalf("Expected Lost, got %s", status)
	}
	if o := level.Snapshot().Gates[0].Orientation; o != 0 {
		t.Errorf("Expected the fast enemy's trigger to be discarded, gate orientation %d", o)
	}
}

func TestWaitAppliesEachTriggerOnce(t *testing.T) {
	cfg := &LevelConfig{
		LevelSetup: [][]int{
			{1, 1, 1, 1},
			{1, 0, 0, 0},
		},
		Gates:       [][]int{{1, 0, 0}},
		Triggers:    [][]int{{0, 1, 1, 0, 0}},
		FastEnemies: [][]int{{0, 1, 0}},
		Player:      []int{1, 0},
	}
	level := newTestLevel(t, cfg)

	if status := level.TakeAction(Wait); status != Playing {
		t.Fatalf("Expected Playing, got %s", status)
	}
	snap := level.Snapshot()
	if snap.Gates[0].Orientation != 1 {
		t.Errorf("Expected one clockwise rotation, got orientation %d", snap.Gates[0].Orientation)
	}
	if snap.Enemies[0].Col != 3 {
		t.Errorf("Expected fast enemy at col 3, got %d", snap.Enemies[0].Col)
	}
}

func TestSlowEnemiesMoveOnEvenTicks(t *testing.T) {
	cfg := &LevelConfig{
		LevelSetup: [][]int{
			{1, 1, 1, 1, 1, 1},
			{1, 1, 0, 0, 0, 0},
		},
		SlowEnemies: [][]int{{0, 5, 2}},
		Player:      []int{1, 0},
	}
	level := newTestLevel(t, cfg)

	steps := []struct {
		action  Action
		wantCol int
	}{
		{MoveEast, 5},
		{MoveWest, 4},
		{MoveEast, 4},
		{MoveWest, 3},
		{Wait, 3},
		{Wait, 2},
	}

	for i, step := range steps {
		if status := level.TakeAction(step.action); status != Playing {
			t.Fatalf("step %d: expected Playing, got %s", i, status)
		}
		if col := level.Snapshot().Enemies[0].Col; col != step.wantCol {
			t.Errorf("step %d (tick %d): expected slow enemy at col %d, got %d", i, level.Tick(), step.wantCol, col)
		}
	}
}

func TestSlowEnemyCatchesOnEvenTick(t *testing.T) {
	cfg := &LevelConfig{
		LevelSetup:  [][]int{{1, 1, 1}},
		SlowEnemies: [][]int{{0, 2, 2}},
		Player:      []int{0, 0},
	}
	level := newTestLevel(t, cfg)

	if status := level.TakeAction(Wait); status != Playing {
		t.Fatalf("Expected Playing on tick 1, got %s", status)
	}
	if status := level.TakeAction(Wait); status != Playing {
		t.Fatalf("Expected Playing on tick 2, got %s", status)
	}
	level.TakeAction(Wait)
	if status := level.TakeAction(Wait); status != Lost {
		t.Fatalf("Expected Lost on tick 4, got %s", status)
	}
}

func TestWinSkipsEnemyPhases(t *testing.T) {
	cfg := &LevelConfig{
		LevelSetup:    [][]int{{1, 9, 1}},
		NormalEnemies: [][]int{{0, 2, 2}},
		Player:        []int{0, 0},
	}
	level := newTestLevel(t, cfg)

	if status := level.TakeAction(MoveEast); status != Won {
		t.Fatalf("Expected Won before the enemy could move, got %s", status)
	}
	if col := level.Snapshot().Enemies[0].Col; col != 2 {
		t.Errorf("Expected the enemy not to move after the win, got col %d", col)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	level := newTestLevel(t, triggerLevel([][]int{{0, 3, 2}}))
	clone := level.Clone()

	clone.TakeAction(MoveEast)
	clone.TakeAction(Wait)

	snap := level.Snapshot()
	if snap.Tick != 0 || snap.Player.Col != 0 || snap.Gates[0].Orientation != 0 || snap.Enemies[0].Col != 3 {
		t.Errorf("Expected original level untouched, got %+v", snap)
	}
	if clone.Tick() != 2 {
		t.Errorf("Expected clone at tick 2, got %d", clone.Tick())
	}
}

func TestRenderBoard(t *testing.T) {
	cfg := &LevelConfig{
		LevelSetup: [][]int{
			{0, 0, 0, 0, 0},
			{0, 1, 1, 9, 0},
			{0, 1, 1, 1, 0},
			{0, 0, 0, 0, 0},
		},
		Gates:         [][]int{{2, 1, 2}},
		StraightGates: [][]int{{2, 3, 1}},
		NormalEnemies: [][]int{{2, 2, 3}},
		Player:        []int{1, 1},
	}
	level := newTestLevel(t, cfg)

	expected := strings.Join([]string{
		"#####",
		"#P.G#",
		"#┌^═#",
		"#####",
	}, "\n")
	if got := RenderBoard(level); got != expected {
		t.Errorf("Expected board:\n%s\ngot:\n%s", expected, got)
	}
}

func TestGoalPositionsAndDistance(t *testing.T) {
	cfg := &LevelConfig{
		LevelSetup: [][]int{
			{1, 1, 9},
			{9, 1, 1},
		},
		Player: []int{0, 0},
	}
	level := newTestLevel(t, cfg)

	goals := level.Grid().GoalPositions()
	if len(goals) != 2 || goals[0] != (Pos{Row: 0, Col: 2}) || goals[1] != (Pos{Row: 1, Col: 0}) {
		t.Errorf("Unexpected goals %+v", goals)
	}
	if d := ManhattanDistance(Pos{Row: 0, Col: 0}, goals[0]); d != 2 {
		t.Errorf("Expected distance 2, got %d", d)
	}
}
