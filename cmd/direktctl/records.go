package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/direkt/game/engine"
	"github.com/wricardo/direkt/game/replay"
	"github.com/wricardo/direkt/game/results"
	"github.com/wricardo/direkt/game/service"
)

func replayCommand() *cli.Command {
	return &cli.Command{
		Name:      "replay",
		Usage:     "list recorded episodes and re-simulate them",
		ArgsUsage: "[episode dir]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "replay-dir",
				Usage:   "episode log directory used when no argument is given",
				Value:   "episodes",
				Sources: cli.EnvVars("REPLAY_DIR"),
			},
			&cli.StringFlag{Name: "level", Usage: "only episodes of this level"},
			&cli.BoolFlag{Name: "verify", Usage: "replay every episode and compare outcome and ticks"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			dir := cmd.String("replay-dir")
			if cmd.Args().Present() {
				dir = cmd.Args().First()
			}
			episodes, err := replay.ReadDir(dir)
			if err != nil {
				return fmt.Errorf("read episodes: %w", err)
			}
			if lvl := cmd.String("level"); lvl != "" {
				kept := episodes[:0]
				for _, ep := range episodes {
					if ep.Level == lvl {
						kept = append(kept, ep)
					}
				}
				episodes = kept
			}

			out := cmd.Root().Writer
			if len(episodes) == 0 {
				fmt.Fprintln(out, "No episodes recorded")
				return nil
			}
			mismatches := writeEpisodes(out, episodes, cmd.Bool("verify"))
			if mismatches > 0 {
				return fmt.Errorf("%d of %d episodes did not replay as recorded", mismatches, len(episodes))
			}
			return nil
		},
	}
}

// writeEpisodes prints one line per episode and returns how many failed verification
func writeEpisodes(out io.Writer, episodes []*replay.Episode, verify bool) int {
	mismatches := 0
	for _, ep := range episodes {
		fmt.Fprintf(out, "%s  %-16s attempt %-3d %-7s %3d turns %3d ticks  %s\n",
			ep.EndedAt.Format("2006-01-02 15:04:05"), ep.Level, ep.Attempt, ep.Outcome, ep.Turns(), ep.Ticks, ep.ID)
		if !verify {
			continue
		}
		if _, err := replay.Verify(ep); err != nil {
			mismatches++
			fmt.Fprintf(out, "    ❌ %v\n", err)
			if !errors.Is(err, replay.ErrMismatch) {
				log.WithError(err).WithField("episode", ep.ID).Warn("episode could not be replayed")
			}
		}
	}
	fmt.Fprintf(out, "\n%d episodes", len(episodes))
	if verify {
		fmt.Fprintf(out, ", %d verified, %d mismatched", len(episodes)-mismatches, mismatches)
	}
	fmt.Fprintln(out)
	return mismatches
}

func statsCommand() *cli.Command {
	return &cli.Command{
		Name:      "stats",
		Usage:     "summarize the results index",
		ArgsUsage: "[level]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "stats-db",
				Usage:   "SQLite results index",
				Value:   "episodes/index.db",
				Sources: cli.EnvVars("STATS_DB"),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			idx, err := results.OpenSQLite(cmd.String("stats-db"))
			if err != nil {
				return fmt.Errorf("open results index: %w", err)
			}
			defer idx.Close()

			var levels []*service.LevelStats
			if cmd.Args().Present() {
				st, err := idx.LevelStats(ctx, cmd.Args().First())
				if err != nil {
					return err
				}
				levels = append(levels, st)
			} else {
				levels, err = idx.Levels(ctx)
				if err != nil {
					return err
				}
			}

			out := cmd.Root().Writer
			if len(levels) == 0 {
				fmt.Fprintln(out, "No episodes recorded")
				return nil
			}
			for _, st := range levels {
				writeLevelStats(out, st)
			}
			return nil
		},
	}
}

func writeLevelStats(out io.Writer, st *service.LevelStats) {
	fmt.Fprintf(out, "%s: %d episodes, %d won, %d lost, %d abandoned\n",
		st.Level, st.Episodes, st.Wins, st.Losses, st.Abandoned)
	if st.Wins == 0 {
		return
	}
	names := make([]string, len(st.BestActions))
	for i, code := range st.BestActions {
		names[i] = engine.Action(code).String()
	}
	fmt.Fprintf(out, "  best win: %d turns (%s)\n", st.BestTurns, strings.Join(names, ", "))
}
