// Package engine provides the core simulation for the Direkt grid puzzle.
//
// A player walks a grid of floor tiles toward a goal while enemies patrol.
// Some tiles carry rotating gates that block two of their four sides, and
// leaving certain tiles in certain directions rotates a gate elsewhere.
//
// Core Types:
//
// LevelConfig is the static level description loaded from JSON or YAML.
// Level is the turn-based state machine built from it and implements Engine.
// Snapshot is the read-only view of a level that consumers may depend on.
//
// Usage:
//
//	cfg, err := engine.LoadLevelFile("levels/level1.json")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	level, err := engine.NewLevel(cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	status := level.TakeAction(engine.MoveEast)
//	snap := level.Snapshot()
//
// Turn Rules:
//
// A move or wait advances the tick. Fast enemies move first, then the player,
// then fast enemies again together with normal enemies, then slow enemies on
// even ticks. An enemy on the player's tile at any phase boundary loses the
// level immediately and cancels gate rotations still pending from that turn.
// Reaching the goal wins immediately. Rotating the gate under the player costs
// no tick and moves no enemy. Illegal actions are played as a wait.
package engine
