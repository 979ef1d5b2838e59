package main

import (
	"context"
	"fmt"
	"io"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/direkt/game/engine"
)

const maxListed = 5

func analyzeCommand() *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Usage:     "print quick heuristics about level files",
		ArgsUsage: "[files or directories]",
		Flags:     []cli.Flag{levelsDirFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			files, err := levelFiles(cmd.Args().Slice(), cmd.String("levels-dir"))
			if err != nil {
				return err
			}
			out := cmd.Root().Writer
			for _, file := range files {
				fmt.Fprintf(out, "\n=== Analyzing %s ===\n", file)
				analyzeLevel(out, file)
			}
			return nil
		},
	}
}

// analyzeLevel summarizes one level: its size, what is placed on it, how far
// the goals are and which tiles can never be reached.
func analyzeLevel(out io.Writer, path string) {
	cfg, err := engine.LoadLevelFile(path)
	if err != nil {
		fmt.Fprintf(out, "Error loading level: %v\n", err)
		return
	}
	level, err := engine.NewLevel(cfg)
	if err != nil {
		fmt.Fprintf(out, "Error building level: %v\n", err)
		return
	}

	grid := level.Grid()
	snap := level.Snapshot()
	start := engine.Pos{Row: snap.Player.Row, Col: snap.Player.Col}

	fmt.Fprintf(out, "Name: %s\n", cfg.Name)
	fmt.Fprintf(out, "Grid Size: %d x %d\n", grid.Rows(), grid.Cols())
	fmt.Fprintf(out, "Player Start: (%d, %d) facing %s\n", start.Row, start.Col, snap.Player.Facing)

	goals := grid.GoalPositions()
	nearest := -1
	for _, g := range goals {
		if d := engine.ManhattanDistance(start, g); nearest < 0 || d < nearest {
			nearest = d
		}
	}
	fmt.Fprintf(out, "Goals: %d\n", len(goals))
	if nearest >= 0 {
		fmt.Fprintf(out, "Nearest Goal Distance: %d\n", nearest)
	}

	fmt.Fprintf(out, "Gates: %d corner, %d straight\n", len(cfg.Gates), len(cfg.StraightGates))
	fmt.Fprintf(out, "Triggers: %d\n", len(cfg.Triggers))
	speeds := map[string]int{}
	for _, e := range snap.Enemies {
		speeds[e.Speed]++
	}
	fmt.Fprintf(out, "Enemies: %d fast, %d normal, %d slow\n",
		speeds[engine.Fast.String()], speeds[engine.Normal.String()], speeds[engine.Slow.String()])

	// gates without a trigger only turn while the player stands on them
	triggered := map[engine.Pos]bool{}
	for _, t := range cfg.Triggers {
		triggered[engine.Pos{Row: t[2], Col: t[3]}] = true
	}
	manual := 0
	for _, g := range snap.Gates {
		if !triggered[engine.Pos{Row: g.Row, Col: g.Col}] {
			manual++
		}
	}
	if manual > 0 {
		fmt.Fprintf(out, "Gates without triggers: %d\n", manual)
	}

	reachable := reachableTiles(grid, start)
	var unreachable []engine.Pos
	for r := 0; r < grid.Rows(); r++ {
		for c := 0; c < grid.Cols(); c++ {
			p := engine.Pos{Row: r, Col: c}
			if grid.IsTile(p) && !reachable.Has(p) {
				unreachable = append(unreachable, p)
			}
		}
	}

	if len(unreachable) > 0 {
		fmt.Fprintf(out, "⚠️  WARNING: %d tiles are unreachable from the player start!\n", len(unreachable))
		for i, p := range unreachable {
			if i == maxListed {
				fmt.Fprintf(out, "   ... and %d more\n", len(unreachable)-maxListed)
				break
			}
			fmt.Fprintf(out, "   Unreachable: (%d, %d) - %s\n", p.Row, p.Col, grid.Kind(p))
		}
	} else {
		fmt.Fprintf(out, "✅ All tiles are reachable from the player start\n")
	}

	lostGoals := 0
	for _, g := range goals {
		if !reachable.Has(g) {
			lostGoals++
		}
	}
	if len(goals) == 0 {
		fmt.Fprintf(out, "⚠️  CRITICAL: level has no goal\n")
	} else if lostGoals == len(goals) {
		fmt.Fprintf(out, "⚠️  CRITICAL: no goal is reachable from the player start\n")
	} else {
		fmt.Fprintf(out, "✅ At least one goal is reachable\n")
	}
}
