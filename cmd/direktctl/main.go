// Command direktctl is the offline companion to the Direkt puzzle server. It
// checks and inspects level files, solves levels, verifies recorded episodes
// and summarizes the results index.
//
// Usage:
//
//	direktctl validate [--solve] [level files or directories]
//	direktctl analyze [level files or directories]
//	direktctl render <level file> [actions...]
//	direktctl solve <level file>
//	direktctl replay [--verify] [episode dir]
//	direktctl stats [level]
//	direktctl play [--strategy hint|walk] [--config level]
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
)

// Version of the CLI
const Version = "1.0.0"

var levelExts = []string{".json", ".yaml", ".yml"}

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "direktctl",
		Usage:   "inspect Direkt levels and recorded episodes",
		Version: Version,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "debug", Usage: "enable debug logging"},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			log.SetOutput(cmd.Root().ErrWriter)
			log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
			if cmd.Bool("debug") {
				log.SetLevel(log.DebugLevel)
			}
			return ctx, nil
		},
		Commands: []*cli.Command{
			validateCommand(),
			analyzeCommand(),
			renderCommand(),
			solveCommand(),
			replayCommand(),
			statsCommand(),
			playCommand(),
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

// levelsDirFlag is shared by the commands that scan a levels directory
func levelsDirFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "levels-dir",
		Usage:   "directory scanned when no files are given",
		Value:   "levels",
		Sources: cli.EnvVars("LEVELS_DIR"),
	}
}

// levelFiles expands args into level files. Directories contribute every
// .json, .yaml and .yml file they hold; no args means the levels directory.
func levelFiles(args []string, levelsDir string) ([]string, error) {
	if len(args) == 0 {
		args = []string{levelsDir}
	}

	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		ents, err := os.ReadDir(arg)
		if err != nil {
			return nil, err
		}
		var found []string
		for _, e := range ents {
			if e.IsDir() || !isLevelFile(e.Name()) {
				continue
			}
			found = append(found, filepath.Join(arg, e.Name()))
		}
		sort.Strings(found)
		files = append(files, found...)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no level files found in %s", strings.Join(args, ", "))
	}
	return files, nil
}

func isLevelFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range levelExts {
		if ext == e {
			return true
		}
	}
	return false
}
