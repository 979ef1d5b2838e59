package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
	"github.com/zyedidia/generic/mapset"

	"github.com/wricardo/direkt/game/engine"
	"github.com/wricardo/direkt/game/solver"
)

// ValidationResult captures the outcome of validating a single level file.
// Errors make the level invalid; Info lines are printed for valid levels.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
	Info   []string
}

func (r *ValidationResult) fail(format string, args ...any) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) info(format string, args ...any) {
	r.Info = append(r.Info, fmt.Sprintf(format, args...))
}

type validateOptions struct {
	solve    bool
	maxDepth int
	maxNodes int
	timeout  time.Duration
}

func validateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "check level files for schema, consistency and reachability problems",
		ArgsUsage: "[files or directories]",
		Flags: []cli.Flag{
			levelsDirFlag(),
			&cli.BoolFlag{Name: "solve", Usage: "also search for a winning action sequence"},
			&cli.IntFlag{Name: "max-depth", Usage: "deepest search when --solve is set", Value: solver.DefaultMaxDepth},
			&cli.IntFlag{Name: "max-nodes", Usage: "state budget when --solve is set", Value: solver.DefaultMaxNodes},
			&cli.DurationFlag{Name: "timeout", Usage: "per-level search timeout", Value: 30 * time.Second},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			files, err := levelFiles(cmd.Args().Slice(), cmd.String("levels-dir"))
			if err != nil {
				return err
			}
			opts := validateOptions{
				solve:    cmd.Bool("solve"),
				maxDepth: cmd.Int("max-depth"),
				maxNodes: cmd.Int("max-nodes"),
				timeout:  cmd.Duration("timeout"),
			}

			out := cmd.Root().Writer
			allValid := true
			for _, file := range files {
				result := validateLevel(ctx, file, opts)
				fmt.Fprintf(out, "\n%s %s\n", strings.Repeat("=", 20), result.File)
				if result.Valid {
					fmt.Fprintln(out, "✅ VALID")
					for _, line := range result.Info {
						fmt.Fprintln(out, "  "+line)
					}
					continue
				}
				allValid = false
				fmt.Fprintln(out, "❌ INVALID")
				for _, line := range result.Errors {
					fmt.Fprintln(out, "  ❌ "+line)
				}
			}

			fmt.Fprintf(out, "\n%s\n", strings.Repeat("=", 40))
			if !allValid {
				fmt.Fprintln(out, "❌ Some levels have errors")
				return errors.New("validation failed")
			}
			fmt.Fprintln(out, "✅ All levels are valid!")
			return nil
		},
	}
}

// validateLevel loads a level file through the engine loader, then checks that
// a goal exists and is reachable from the player start. With opts.solve set
// it also runs the solver.
func validateLevel(ctx context.Context, path string, opts validateOptions) ValidationResult {
	result := ValidationResult{File: filepath.Base(path), Valid: true}

	cfg, err := engine.LoadLevelFile(path)
	if err != nil {
		result.fail("%v", err)
		return result
	}
	level, err := engine.NewLevel(cfg)
	if err != nil {
		result.fail("%v", err)
		return result
	}

	grid := level.Grid()
	goals := grid.GoalPositions()
	if len(goals) == 0 {
		result.fail("Must have at least 1 goal (9) cell")
		return result
	}

	conn := validateConnectivity(level)
	if !conn.Valid {
		result.Valid = false
		result.Errors = append(result.Errors, conn.Errors...)
		return result
	}
	result.Info = append(result.Info, conn.Info...)

	if opts.solve {
		checkSolvable(ctx, level, opts, &result)
		if !result.Valid {
			return result
		}
	}

	snap := level.Snapshot()
	result.info("✓ Name: %s", cfg.Name)
	result.info("✓ Grid: %dx%d", grid.Rows(), grid.Cols())
	result.info("✓ Goals: %d", len(goals))
	result.info("✓ Gates: %d corner, %d straight", len(cfg.Gates), len(cfg.StraightGates))
	result.info("✓ Triggers: %d", len(cfg.Triggers))
	result.info("✓ Enemies: %d", len(snap.Enemies))
	return result
}

// validateConnectivity flood-fills the tiles from the player start and
// reports goals that cannot be reached. Gates are ignored since any of them
// may be rotated out of the way.
func validateConnectivity(level *engine.Level) ValidationResult {
	result := ValidationResult{Valid: true}

	grid := level.Grid()
	player := level.Player()
	visited := reachableTiles(grid, engine.Pos{Row: player.Row, Col: player.Col})

	var unreachable []engine.Pos
	goals := grid.GoalPositions()
	for _, g := range goals {
		if !visited.Has(g) {
			unreachable = append(unreachable, g)
		}
	}
	if len(unreachable) > 0 {
		result.fail("Connectivity failure: %d/%d goals unreachable from the player", len(unreachable), len(goals))
		for _, p := range unreachable {
			result.fail("Unreachable: goal at (%d,%d)", p.Row, p.Col)
		}
		return result
	}
	result.info("✓ Connectivity: all %d goals reachable from the player", len(goals))
	return result
}

func checkSolvable(ctx context.Context, level *engine.Level, opts validateOptions, result *ValidationResult) {
	if opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}

	res, err := solver.Solve(ctx, level, solver.Options{MaxDepth: opts.maxDepth, MaxNodes: opts.maxNodes})
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		result.info("? Solver: timed out after %s", opts.timeout)
	case err != nil:
		result.fail("Solver: %v", err)
	case res.Found:
		result.info("✓ Solution: %d actions, %d states explored", len(res.Actions), res.Explored)
	case res.Exhausted:
		result.fail("No winning sequence: all %d reachable states explored", res.Explored)
	default:
		log.WithField("explored", res.Explored).Debug("solver budget exhausted")
		result.info("? Solver: no solution within %d actions or %d states", opts.maxDepth, opts.maxNodes)
	}
}

// reachableTiles returns every tile connected to start by 4-directional moves
func reachableTiles(grid *engine.Grid, start engine.Pos) mapset.Set[engine.Pos] {
	visited := mapset.New[engine.Pos]()
	if !grid.IsTile(start) {
		return visited
	}
	visited.Put(start)
	queue := []engine.Pos{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, d := range engine.AllDirections {
			next, ok := grid.Neighbor(cur, d)
			if !ok || visited.Has(next) {
				continue
			}
			visited.Put(next)
			queue = append(queue, next)
		}
	}
	return visited
}
