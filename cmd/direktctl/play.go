package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/direkt/game/engine"
	"github.com/wricardo/direkt/game/solver"
)

func renderCommand() *cli.Command {
	return &cli.Command{
		Name:      "render",
		Usage:     "draw a level, optionally after playing a sequence of actions",
		ArgsUsage: "<level file> [actions...]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "steps", Usage: "draw the board after every action"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() == 0 {
				return errors.New("render: level file required")
			}
			level, err := loadLevel(cmd.Args().First())
			if err != nil {
				return err
			}
			actions, err := parseActions(cmd.Args().Tail())
			if err != nil {
				return err
			}

			out := cmd.Root().Writer
			writeBoard(out, level)
			for i, a := range actions {
				if level.Status().Terminal() {
					fmt.Fprintf(out, "level over after %d actions, ignoring the rest\n", i)
					break
				}
				played := a
				if !level.Legal(a) {
					played = engine.Wait
				}
				level.TakeAction(a)
				if cmd.Bool("steps") {
					fmt.Fprintf(out, "\n#%d %s", i+1, a)
					if played != a {
						fmt.Fprintf(out, " (played %s)", played)
					}
					fmt.Fprintln(out)
					writeBoard(out, level)
				}
			}
			if !cmd.Bool("steps") && len(actions) > 0 {
				fmt.Fprintln(out)
				writeBoard(out, level)
			}
			return nil
		},
	}
}

func solveCommand() *cli.Command {
	return &cli.Command{
		Name:      "solve",
		Usage:     "search for the shortest winning action sequence",
		ArgsUsage: "<level file>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "max-depth", Usage: "deepest sequence considered", Value: solver.DefaultMaxDepth},
			&cli.IntFlag{Name: "max-nodes", Usage: "states explored before giving up", Value: solver.DefaultMaxNodes},
			&cli.DurationFlag{Name: "timeout", Usage: "search timeout", Value: time.Minute},
			&cli.BoolFlag{Name: "codes", Usage: "print action codes instead of names"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return errors.New("solve: exactly one level file required")
			}
			level, err := loadLevel(cmd.Args().First())
			if err != nil {
				return err
			}

			if d := cmd.Duration("timeout"); d > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, d)
				defer cancel()
			}
			started := time.Now()
			res, err := solver.Solve(ctx, level, solver.Options{
				MaxDepth: cmd.Int("max-depth"),
				MaxNodes: cmd.Int("max-nodes"),
			})
			if err != nil {
				return fmt.Errorf("solve: %w", err)
			}
			log.WithFields(log.Fields{
				"explored": res.Explored,
				"found":    res.Found,
				"elapsed":  time.Since(started),
			}).Debug("search finished")

			out := cmd.Root().Writer
			switch {
			case res.Found:
				fmt.Fprintf(out, "Solved in %d actions (%d states explored)\n", len(res.Actions), res.Explored)
				fmt.Fprintln(out, formatActionList(res.Actions, cmd.Bool("codes")))
			case res.Exhausted:
				fmt.Fprintf(out, "Unsolvable: all %d reachable states explored\n", res.Explored)
			default:
				fmt.Fprintf(out, "No solution found within the search limits (%d states explored)\n", res.Explored)
			}
			return nil
		},
	}
}

func loadLevel(path string) (*engine.Level, error) {
	cfg, err := engine.LoadLevelFile(path)
	if err != nil {
		return nil, err
	}
	return engine.NewLevel(cfg)
}

// parseActions accepts names or codes, either as separate args or comma separated
func parseActions(args []string) ([]engine.Action, error) {
	var actions []engine.Action
	for _, arg := range args {
		for _, part := range strings.Split(arg, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			a, err := engine.ParseAction(part)
			if err != nil {
				return nil, err
			}
			actions = append(actions, a)
		}
	}
	return actions, nil
}

func writeBoard(out io.Writer, level *engine.Level) {
	fmt.Fprintln(out, engine.RenderBoard(level))
	p := level.Player()
	fmt.Fprintf(out, "tick %d | player (%d,%d) facing %s | %s\n", level.Tick(), p.Row, p.Col, p.Facing, level.Status())
}

func formatActionList(actions []engine.Action, codes bool) string {
	parts := make([]string, len(actions))
	for i, a := range actions {
		if codes {
			parts[i] = fmt.Sprint(int(a))
		} else {
			parts[i] = a.String()
		}
	}
	return strings.Join(parts, ",")
}
