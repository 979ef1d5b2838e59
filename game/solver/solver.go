package solver

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/zyedidia/generic/mapset"

	"github.com/wricardo/direkt/game/engine"
)

const (
	DefaultMaxDepth = 60
	DefaultMaxNodes = 250000
)

// ErrTerminal is returned when asked to solve a level that has already ended
var ErrTerminal = errors.New("level is not in play")

// Options bounds a search. Zero values fall back to the defaults.
type Options struct {
	MaxDepth int
	MaxNodes int
}

// Result of a search. Exhausted reports that every state reachable within
// MaxDepth was explored, so a missing solution is definitive for that depth.
type Result struct {
	Found     bool
	Actions   []engine.Action
	Explored  int
	Exhausted bool
}

type node struct {
	level  *engine.Level
	parent *node
	action engine.Action
	depth  int
}

// Solve runs a breadth-first search from the current state of start and
// returns the shortest action sequence that wins. start is not modified.
func Solve(ctx context.Context, start *engine.Level, opts Options) (*Result, error) {
	if start.Status().Terminal() {
		return nil, ErrTerminal
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	if opts.MaxNodes <= 0 {
		opts.MaxNodes = DefaultMaxNodes
	}

	res := &Result{}
	visited := mapset.New[string]()
	root := &node{level: start.Clone()}
	visited.Put(stateKey(root.level))
	queue := []*node{root}
	truncated := false

	for len(queue) > 0 {
		if res.Explored%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return res, err
			}
		}
		if res.Explored >= opts.MaxNodes {
			truncated = true
			break
		}

		cur := queue[0]
		queue[0] = nil
		queue = queue[1:]
		res.Explored++

		if cur.depth >= opts.MaxDepth {
			truncated = true
			continue
		}

		for _, a := range cur.level.ValidActions() {
			next := cur.level.Clone()
			switch next.TakeAction(a) {
			case engine.Won:
				res.Found = true
				res.Actions = path(&node{parent: cur, action: a})
				return res, nil
			case engine.Lost:
				continue
			}
			key := stateKey(next)
			if visited.Has(key) {
				continue
			}
			visited.Put(key)
			queue = append(queue, &node{level: next, parent: cur, action: a, depth: cur.depth + 1})
		}
	}

	res.Exhausted = !truncated
	return res, nil
}

func path(n *node) []engine.Action {
	var out []engine.Action
	for ; n.parent != nil; n = n.parent {
		out = append(out, n.action)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// stateKey identifies everything that influences future turns. The tick only
// matters through its parity, which gates slow enemies.
func stateKey(l *engine.Level) string {
	s := l.Snapshot()
	var b strings.Builder
	writeInts(&b, s.Player.Row, s.Player.Col, int(s.Player.Facing), s.Tick%2)
	for _, g := range s.Gates {
		o := g.Orientation
		if g.Straight {
			o %= 2
		}
		writeInts(&b, o)
	}
	b.WriteByte('|')
	for _, e := range s.Enemies {
		writeInts(&b, e.Row, e.Col, int(e.Facing))
	}
	return b.String()
}

func writeInts(b *strings.Builder, vals ...int) {
	for _, v := range vals {
		b.WriteString(strconv.Itoa(v))
		b.WriteByte(',')
	}
}
