package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/direkt/game/engine"
	"github.com/wricardo/direkt/game/service"
)

// apiClient talks to a running Direkt server over its REST API
type apiClient struct {
	baseURL   string
	sessionID string
	client    *http.Client
}

func newAPIClient(baseURL string) *apiClient {
	return &apiClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *apiClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s: %s", method, path, apiErr.Error)
		}
		return fmt.Errorf("%s %s: %s", method, path, resp.Status)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse %s response: %w", path, err)
	}
	return nil
}

func (c *apiClient) sessionPath(suffix string) string {
	return "/api/sessions/" + url.PathEscape(c.sessionID) + suffix
}

func (c *apiClient) CreateSession(ctx context.Context, configID string) (*service.SessionInfo, error) {
	var info service.SessionInfo
	if err := c.do(ctx, http.MethodPost, "/api/sessions", map[string]string{"config_id": configID}, &info); err != nil {
		return nil, err
	}
	c.sessionID = info.ID
	return &info, nil
}

func (c *apiClient) State(ctx context.Context) (*service.GameState, error) {
	var state service.GameState
	if err := c.do(ctx, http.MethodGet, c.sessionPath("/state"), nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (c *apiClient) Reset(ctx context.Context) (*service.GameState, error) {
	var resp struct {
		State *service.GameState `json:"state"`
	}
	if err := c.do(ctx, http.MethodPost, c.sessionPath("/reset"), nil, &resp); err != nil {
		return nil, err
	}
	if resp.State == nil {
		return nil, errors.New("reset returned no state")
	}
	return resp.State, nil
}

// Play sends one action, or a bulk request when there are several
func (c *apiClient) Play(ctx context.Context, actions []string) (*service.GameState, int, error) {
	if len(actions) == 1 {
		var res service.ActionResult
		err := c.do(ctx, http.MethodPost, c.sessionPath("/action"), map[string]string{"action": actions[0]}, &res)
		if err != nil {
			return nil, 0, err
		}
		return res.GameState, 1, nil
	}
	var res service.BulkActionResult
	if err := c.do(ctx, http.MethodPost, c.sessionPath("/bulk-action"), map[string][]string{"actions": actions}, &res); err != nil {
		return nil, 0, err
	}
	return res.GameState, res.ActionsExecuted, nil
}

func (c *apiClient) Hint(ctx context.Context, maxDepth int) (*service.HintResult, error) {
	path := c.sessionPath("/hint")
	if maxDepth > 0 {
		path += "?max_depth=" + strconv.Itoa(maxDepth)
	}
	var hint service.HintResult
	if err := c.do(ctx, http.MethodGet, path, nil, &hint); err != nil {
		return nil, err
	}
	return &hint, nil
}

// strategy picks the next actions to send for a state. An empty reply ends the attempt.
type strategy interface {
	Next(ctx context.Context, c *apiClient, state *service.GameState) ([]string, error)
}

// hintStrategy plays whatever the server's solver suggests
type hintStrategy struct {
	maxDepth int
}

func (s hintStrategy) Next(ctx context.Context, c *apiClient, _ *service.GameState) ([]string, error) {
	hint, err := c.Hint(ctx, s.maxDepth)
	if err != nil {
		return nil, err
	}
	if !hint.Found {
		log.WithField("explored", hint.Explored).Info(hint.Message)
		return nil, nil
	}
	return hint.Actions, nil
}

// walkStrategy heads along the shortest tile path to the nearest goal,
// ignoring gates and enemies. When the next step is blocked it turns the gate
// under the player if there is one, otherwise it waits.
type walkStrategy struct{}

func (walkStrategy) Next(_ context.Context, _ *apiClient, state *service.GameState) ([]string, error) {
	valid := map[string]bool{}
	for _, a := range state.ValidActions {
		valid[a.Name] = true
	}
	if len(valid) == 0 {
		return nil, nil
	}

	start := engine.Pos{Row: state.Player.Row, Col: state.Player.Col}
	if d, ok := firstStep(state.Board, start, state.Goals); ok {
		if name := engine.MoveAction(d).String(); valid[name] {
			return []string{name}, nil
		}
	}
	for _, a := range []engine.Action{engine.RotateClockwise, engine.Wait} {
		if valid[a.String()] {
			return []string{a.String()}, nil
		}
	}
	return nil, nil
}

// firstStep runs a breadth-first search over the drawn board and returns the
// direction of the first move on a shortest path from start to any goal.
func firstStep(board []string, start engine.Pos, goals []engine.Pos) (engine.Direction, bool) {
	cells := make([][]rune, len(board))
	for i, row := range board {
		cells[i] = []rune(row)
	}
	open := func(p engine.Pos) bool {
		return p.Row >= 0 && p.Row < len(cells) && p.Col >= 0 && p.Col < len(cells[p.Row]) && cells[p.Row][p.Col] != '#'
	}
	isGoal := map[engine.Pos]bool{}
	for _, g := range goals {
		isGoal[g] = true
	}

	// first records the initial direction taken to reach each visited tile
	first := map[engine.Pos]engine.Direction{}
	queue := []engine.Pos{start}
	seen := map[engine.Pos]bool{start: true}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, d := range engine.AllDirections {
			dr, dc := d.Delta()
			next := engine.Pos{Row: cur.Row + dr, Col: cur.Col + dc}
			if seen[next] || !open(next) {
				continue
			}
			seen[next] = true
			if cur == start {
				first[next] = d
			} else {
				first[next] = first[cur]
			}
			if isGoal[next] {
				return first[next], true
			}
			queue = append(queue, next)
		}
	}
	return 0, false
}

type playOptions struct {
	config      string
	session     string
	maxMoves    int
	maxAttempts int
	delay       time.Duration
}

func playCommand() *cli.Command {
	return &cli.Command{
		Name:  "play",
		Usage: "play a level on a running server until it is won",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Usage: "server base URL", Value: "http://localhost:8080", Sources: cli.EnvVars("DIREKT_URL")},
			&cli.StringFlag{Name: "config", Usage: "level to play (server default when empty)"},
			&cli.StringFlag{Name: "session", Usage: "resume an existing session instead of creating one"},
			&cli.StringFlag{Name: "strategy", Usage: "hint or walk", Value: "hint"},
			&cli.IntFlag{Name: "max-depth", Usage: "hint search depth (server default when 0)"},
			&cli.IntFlag{Name: "max-moves", Usage: "actions per attempt", Value: 500},
			&cli.IntFlag{Name: "max-attempts", Usage: "attempts before giving up", Value: 10},
			&cli.DurationFlag{Name: "delay", Usage: "pause between requests"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			var strat strategy
			switch cmd.String("strategy") {
			case "hint":
				strat = hintStrategy{maxDepth: cmd.Int("max-depth")}
			case "walk":
				strat = walkStrategy{}
			default:
				return fmt.Errorf("unknown strategy %q", cmd.String("strategy"))
			}
			opts := playOptions{
				config:      cmd.String("config"),
				session:     cmd.String("session"),
				maxMoves:    cmd.Int("max-moves"),
				maxAttempts: cmd.Int("max-attempts"),
				delay:       cmd.Duration("delay"),
			}
			return play(ctx, cmd.Root().Writer, newAPIClient(cmd.String("url")), strat, opts)
		},
	}
}

// play resets the session and drives strat until the level is won or the
// attempt budget runs out.
func play(ctx context.Context, out io.Writer, c *apiClient, strat strategy, opts playOptions) error {
	if opts.session != "" {
		c.sessionID = opts.session
		if _, err := c.State(ctx); err != nil {
			return fmt.Errorf("resume session: %w", err)
		}
		fmt.Fprintf(out, "Resuming session %s\n", c.sessionID)
	} else {
		info, err := c.CreateSession(ctx, opts.config)
		if err != nil {
			return fmt.Errorf("create session: %w", err)
		}
		fmt.Fprintf(out, "Session %s created for %s\n", info.ID, info.ConfigName)
	}

	for attempt := 1; attempt <= opts.maxAttempts; attempt++ {
		state, err := c.Reset(ctx)
		if err != nil {
			return fmt.Errorf("reset: %w", err)
		}

		moves := 0
		for state.Status == engine.Playing && moves < opts.maxMoves {
			actions, err := strat.Next(ctx, c, state)
			if err != nil {
				return err
			}
			if len(actions) == 0 {
				break
			}
			next, n, err := c.Play(ctx, actions)
			if err != nil {
				return err
			}
			state = next
			moves += n
			log.WithFields(log.Fields{
				"attempt": attempt,
				"moves":   moves,
				"tick":    state.Tick,
			}).Debug("played")
			if opts.delay > 0 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(opts.delay):
				}
			}
		}

		fmt.Fprintf(out, "Attempt %d: %d actions, %s\n", attempt, moves, state.Status)
		if state.Status == engine.Won {
			fmt.Fprintf(out, "🎉 VICTORY in attempt %d with %d actions (session %s)\n", attempt, moves, c.sessionID)
			return nil
		}
	}
	return fmt.Errorf("failed to win after %d attempts (session %s)", opts.maxAttempts, c.sessionID)
}
