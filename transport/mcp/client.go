package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/direkt/game/engine"
	"github.com/wricardo/direkt/game/service"
)

// ServerName is reported to MCP clients during initialisation
const ServerName = "Direkt Puzzle Server"

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			// hints can search for a while
			Timeout: 15 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		ServerName,
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Direkt - MCP Interface

A turn-based grid puzzle. Steer the player (P) to a goal tile (G) without
being caught by an enemy. Rotating gates (corner and straight) block movement
and are turned by stepping through trigger tiles.

AVAILABLE TOOLS:
- create_session / list_sessions / get_session: manage play sessions
- game_state: board, player, gates, enemies and legal actions
- valid_actions: actions the player can take this turn
- take_action: play one turn (0-6 or east/south/west/north/cw/wait/ccw)
- bulk_action: play up to 50 turns, stopping at victory or defeat
- reset_game: restart the level
- action_history: past turns
- hint: shortest winning sequence from the current state
- list_configs / level_stats: available levels and recorded results
- game_instructions: full rules

Use the 'intent' parameter on take_action and bulk_action to explain your reasoning.`),
	)

	c.registerTools()
}

func sessionProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

func sessionTool(name, description string, extra map[string]interface{}, required ...string) mcp.Tool {
	props := map[string]interface{}{"session_id": sessionProperty()}
	for k, v := range extra {
		props[k] = v
	}
	return mcp.Tool{
		Name:        name,
		Description: description,
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: props,
			Required:   append([]string{"session_id"}, required...),
		},
	}
}

func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new game session, optionally on a specific level",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_id": map[string]interface{}{
					"type":        "string",
					"description": "Level to play (see list_configs). Defaults to the server's default level",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active game sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(sessionTool("get_session", "Get details of a specific session", nil), c.handleGetSession)

	// Game operations
	c.mcpServer.AddTool(sessionTool("game_state", "Get the current board and level state", nil), c.handleGameState)

	c.mcpServer.AddTool(sessionTool("valid_actions", "List the actions the player can take this turn", nil), c.handleValidActions)

	c.mcpServer.AddTool(sessionTool("take_action", "Play one turn", map[string]interface{}{
		"action": map[string]interface{}{
			"type":        "string",
			"description": "Action name (east, south, west, north, cw, wait, ccw) or code 0-6",
		},
		"intent": map[string]interface{}{
			"type":        "string",
			"description": "Brief explanation of why you are taking this action",
		},
		"reset": map[string]interface{}{
			"type":        "boolean",
			"description": "Reset the level before acting",
		},
	}, "action"), c.handleTakeAction)

	c.mcpServer.AddTool(sessionTool("bulk_action", "Play several turns in sequence (at most 50)", map[string]interface{}{
		"actions": map[string]interface{}{
			"type": "array",
			"items": map[string]interface{}{
				"type": "string",
			},
			"description": "Actions in order, by name or code",
		},
		"intent": map[string]interface{}{
			"type":        "string",
			"description": "Brief explanation of the plan behind this sequence",
		},
		"reset": map[string]interface{}{
			"type":        "boolean",
			"description": "Reset the level before acting",
		},
	}, "actions"), c.handleBulkAction)

	c.mcpServer.AddTool(sessionTool("reset_game", "Reset the level to its initial state", nil), c.handleReset)

	c.mcpServer.AddTool(sessionTool("action_history", "Get the turn history of a session", map[string]interface{}{
		"page": map[string]interface{}{
			"type":        "number",
			"description": "Page number (default 1)",
		},
		"limit": map[string]interface{}{
			"type":        "number",
			"description": "Turns per page (default 20, max 100)",
		},
		"order": map[string]interface{}{
			"type":        "string",
			"enum":        []string{"asc", "desc"},
			"description": "Sort order (default desc)",
		},
	}), c.handleActionHistory)

	c.mcpServer.AddTool(sessionTool("hint", "Search for the shortest winning sequence from the current state", map[string]interface{}{
		"max_depth": map[string]interface{}{
			"type":        "number",
			"description": "Maximum number of actions to search (default 60)",
		},
	}), c.handleHint)

	// Levels
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available levels",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListConfigs)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "level_stats",
		Description: "Recorded results for a level: plays, wins, losses and the best solution",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_id": map[string]interface{}{
					"type":        "string",
					"description": "Level ID",
				},
			},
			Required: []string{"config_id"},
		},
	}, c.handleLevelStats)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get the complete rules and board legend",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func sessionPath(sessionID, suffix string) string {
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix
}

func stringArg(args map[string]interface{}, key string) string {
	switch v := args[key].(type) {
	case string:
		return v
	case float64:
		return strconv.Itoa(int(v))
	}
	return ""
}

func intArg(args map[string]interface{}, key string) (int, bool) {
	switch v := args[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case string:
		n, err := strconv.Atoi(v)
		return n, err == nil
	}
	return 0, false
}

func requireSession(args map[string]interface{}) (string, *mcp.CallToolResult) {
	id := stringArg(args, "session_id")
	if id == "" {
		return "", mcp.NewToolResultError("session_id is required")
	}
	return id, nil
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	body := map[string]string{}
	if id := stringArg(args, "config_id"); id != "" {
		body["config_id"] = id
	}

	var info service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Created session: %s\nLevel: %s\n\n%s",
		info.ID, info.ConfigName, formatGameState(info.GameState))), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		status := "playing"
		if s.GameState != nil {
			status = s.GameState.StatusName
		}
		fmt.Fprintf(&b, "- %s (Level: %s, Attempt: %d, Status: %s, Created: %s)\n",
			s.ID, s.ConfigName, s.Attempt, status, s.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, errResult := requireSession(request.GetArguments())
	if errResult != nil {
		return errResult, nil
	}

	var info service.SessionInfo
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, ""), nil, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&info)), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, errResult := requireSession(request.GetArguments())
	if errResult != nil {
		return errResult, nil
	}

	var state service.GameState
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameState(&state)), nil
}

func (c *Client) handleValidActions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, errResult := requireSession(request.GetArguments())
	if errResult != nil {
		return errResult, nil
	}

	var response struct {
		Actions []service.ActionInfo `json:"actions"`
	}
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/actions"), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(response.Actions) == 0 {
		return mcp.NewToolResultText("No actions available: the level is over. Use reset_game to play again."), nil
	}
	return mcp.NewToolResultText("Valid actions: " + formatActions(response.Actions)), nil
}

func (c *Client) handleTakeAction(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID, errResult := requireSession(args)
	if errResult != nil {
		return errResult, nil
	}
	action := stringArg(args, "action")
	if action == "" {
		return mcp.NewToolResultError("action is required"), nil
	}
	reset, _ := args["reset"].(bool)

	body := map[string]interface{}{
		"action": action,
		"reset":  reset,
	}

	var result service.ActionResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/action"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatActionResult(&result)), nil
}

func (c *Client) handleBulkAction(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID, errResult := requireSession(args)
	if errResult != nil {
		return errResult, nil
	}
	raw, _ := args["actions"].([]interface{})
	reset, _ := args["reset"].(bool)

	actions := make([]string, 0, len(raw))
	for _, a := range raw {
		switch v := a.(type) {
		case string:
			actions = append(actions, v)
		case float64:
			actions = append(actions, strconv.Itoa(int(v)))
		}
	}
	if len(actions) == 0 {
		return mcp.NewToolResultError("actions must be a non-empty list"), nil
	}

	body := map[string]interface{}{
		"actions": actions,
		"reset":   reset,
	}

	var result service.BulkActionResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/bulk-action"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatBulkActionResult(&result)), nil
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, errResult := requireSession(request.GetArguments())
	if errResult != nil {
		return errResult, nil
	}

	var response struct {
		Message string             `json:"message"`
		State   *service.GameState `json:"state"`
	}
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/reset"), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("%s\n\n%s", response.Message, formatGameState(response.State))), nil
}

func (c *Client) handleActionHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID, errResult := requireSession(args)
	if errResult != nil {
		return errResult, nil
	}

	params := url.Values{}
	if page, ok := intArg(args, "page"); ok {
		params.Set("page", strconv.Itoa(page))
	}
	if limit, ok := intArg(args, "limit"); ok {
		params.Set("limit", strconv.Itoa(limit))
	}
	if order := stringArg(args, "order"); order != "" {
		params.Set("order", order)
	}

	path := sessionPath(sessionID, "/history")
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleHint(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID, errResult := requireSession(args)
	if errResult != nil {
		return errResult, nil
	}

	path := sessionPath(sessionID, "/hint")
	if depth, ok := intArg(args, "max_depth"); ok && depth > 0 {
		path += "?max_depth=" + strconv.Itoa(depth)
	}

	var hint service.HintResult
	if err := c.apiCall(ctx, "GET", path, nil, &hint); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatHint(&hint)), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Levels:\n\n")
	for _, cfg := range configs {
		fmt.Fprintf(&b, "• %s (%s)\n", cfg.ConfigID, cfg.Name)
		if cfg.Description != "" {
			fmt.Fprintf(&b, "  %s\n", cfg.Description)
		}
		fmt.Fprintf(&b, "  Grid: %dx%d, Gates: %d, Enemies: %d\n\n", cfg.Rows, cfg.Cols, cfg.Gates, cfg.Enemies)
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleLevelStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	configID := stringArg(request.GetArguments(), "config_id")
	if configID == "" {
		return mcp.NewToolResultError("config_id is required"), nil
	}

	var stats service.LevelStats
	if err := c.apiCall(ctx, "GET", "/api/configs/"+url.PathEscape(configID)+"/stats", nil, &stats); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatLevelStats(&stats)), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(instructions), nil
}

const instructions = `Direkt - Complete Instructions

OBJECTIVE:
Move the player onto any goal tile (G) without ever sharing a tile with an enemy.

TURN STRUCTURE:
Every move or wait is one turn. Fast enemies move, then the player, then fast
enemies again and normal enemies, then (on even turns) slow enemies. Rotating
the gate you stand on (cw, ccw) is free: the turn counter does not advance and
no enemy moves.

ACTIONS:
  0 east    1 south    2 west    3 north
  4 cw (rotate the gate under you clockwise)   5 wait
  6 ccw (rotate the gate under you counter-clockwise)
Names right/down/left/up are accepted as aliases. Rotations are only possible
on a gate tile. An action that is not legal this turn is played as a wait and
reported as not accepted.

GATES:
Gates sit on floor tiles and block two of the four sides of their tile.
  Corner gates (┘ └ ┌ ┐) block two adjacent sides.
  Straight gates (║ ═) block two opposite sides.
You cannot enter or leave a gate tile through a blocked side.

TRIGGERS:
Some tiles are bound to a gate elsewhere on the board. Leaving such a tile
straight ahead in its exit direction rotates the gate clockwise; leaving it
straight ahead the opposite way rotates it counter-clockwise. A move that
changes your facing never fires a trigger. Enemies fire triggers too.

ENEMIES (> v < ^ show their facing):
  slow enemies move only on even turns
  normal enemies move once per turn
  fast enemies move twice per turn
An enemy goes straight when it can, otherwise turns left, then right, then
back. Turning enemies never fire triggers. Sharing a tile with an enemy at any
point loses the level.

BOARD LEGEND:
  #  wall          .  floor         G  goal
  P  player        > v < ^  enemy (by facing)
  ┘ └ ┌ ┐  corner gate            ║ ═  straight gate

STRATEGY:
- Call valid_actions before committing to a plan.
- Use wait to let an enemy pass.
- Plan gate rotations: trace which triggers you and the enemies will cross.
- When stuck, hint returns the shortest winning sequence from the current state.
- bulk_action stops as soon as the level is won or lost.

Good luck!`

// Formatting helpers

func formatSessionInfo(info *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nLevel: %s\nAttempt: %d\nTotal turns: %d\nCreated: %s\n\n%s",
		info.ID, info.ConfigName, info.Attempt, info.TotalTurns,
		info.CreatedAt.Format("2006-01-02 15:04:05"),
		formatGameState(info.GameState))
}

func formatGameState(state *service.GameState) string {
	if state == nil {
		return "No game state available"
	}

	var b strings.Builder

	fmt.Fprintf(&b, "Player: (%d,%d) facing %s | Tick: %d | Attempt: %d | Turns this attempt: %d\n\n",
		state.Player.Row, state.Player.Col, state.Player.Facing,
		state.Tick, state.Attempt, state.EpisodeTurns)

	for _, row := range state.Board {
		b.WriteString(row)
		b.WriteString("\n")
	}

	if len(state.Enemies) > 0 {
		b.WriteString("\nEnemies:\n")
		for _, e := range state.Enemies {
			fmt.Fprintf(&b, "  (%d,%d) facing %s, %s\n", e.Row, e.Col, e.Facing, e.Speed)
		}
	}

	if len(state.Gates) > 0 {
		b.WriteString("\nGates:\n")
		for _, g := range state.Gates {
			shape := "corner"
			if g.Straight {
				shape = "straight"
			}
			fmt.Fprintf(&b, "  (%d,%d) %s, blocks %s and %s\n", g.Row, g.Col, shape, g.Blocked[0], g.Blocked[1])
		}
	}

	switch state.Status {
	case engine.Won:
		b.WriteString("\n🎉 VICTORY!")
	case engine.Lost:
		b.WriteString("\n💀 CAUGHT")
	default:
		if len(state.ValidActions) > 0 {
			fmt.Fprintf(&b, "\nValid actions: %s", formatActions(state.ValidActions))
		}
	}

	if state.Message != "" {
		fmt.Fprintf(&b, "\nMessage: %s", state.Message)
	}

	return b.String()
}

func formatActions(actions []service.ActionInfo) string {
	parts := make([]string, len(actions))
	for i, a := range actions {
		parts[i] = fmt.Sprintf("%s(%d)", a.Name, a.Code)
	}
	return strings.Join(parts, ", ")
}

func formatActionResult(result *service.ActionResult) string {
	var b strings.Builder

	switch {
	case result.Applied == "none":
		b.WriteString("✗ Level is over, nothing was played\n")
	case result.Accepted:
		fmt.Fprintf(&b, "✓ Played %s\n", result.Applied)
	default:
		fmt.Fprintf(&b, "✗ %s is not possible here, played %s instead\n", result.Requested, result.Applied)
	}

	if result.Message != "" {
		fmt.Fprintf(&b, "%s\n", result.Message)
	}
	for _, ev := range result.Events {
		if ev.Type == "gate_rotated" {
			fmt.Fprintf(&b, "• %s\n", ev.Message)
		}
	}

	b.WriteString("\n")
	b.WriteString(formatGameState(result.GameState))
	return b.String()
}

func formatBulkActionResult(result *service.BulkActionResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Executed %d of %d actions", result.ActionsExecuted, result.RequestedActions)
	if result.Truncated {
		fmt.Fprintf(&b, " (truncated to %d)", result.Limit)
	}
	b.WriteString("\n")
	if result.StoppedReason != "" {
		fmt.Fprintf(&b, "Stopped: %s", result.StoppedReason)
		if result.StoppedOnAction > 0 {
			fmt.Fprintf(&b, " (after action %d)", result.StoppedOnAction)
		}
		b.WriteString("\n")
	}

	if len(result.Steps) > 0 {
		b.WriteString("\nSteps:\n")
		for _, s := range result.Steps {
			b.WriteString(formatStepLine(s))
		}
	}

	b.WriteString("\n")
	b.WriteString(formatGameState(result.GameState))
	return b.String()
}

func formatStepLine(s service.StepInfo) string {
	mark := "✓"
	if !s.Accepted {
		mark = "✗"
	}
	applied := s.Applied
	if s.Applied != s.Action {
		applied = fmt.Sprintf("%s→%s", s.Action, s.Applied)
	}
	return fmt.Sprintf("  %2d %s %-12s (%d,%d)->(%d,%d) tick=%d\n",
		s.Idx, mark, applied, s.From.Row, s.From.Col, s.To.Row, s.To.Col, s.Tick)
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Turn History (page %d of %d, %d turns total):\n\n",
		history.Page, history.TotalPages, history.TotalTurns)

	for _, t := range history.Turns {
		fmt.Fprintf(&b, "#%d [attempt %d] %s", t.TurnNumber, t.Attempt, t.Action)
		if t.Applied != t.Action {
			fmt.Fprintf(&b, " (played %s)", t.Applied)
		}
		fmt.Fprintf(&b, " (%d,%d)->(%d,%d) tick=%d", t.From.Row, t.From.Col, t.To.Row, t.To.Col, t.Tick)
		switch engine.Status(t.Outcome) {
		case engine.Won:
			b.WriteString(" VICTORY")
		case engine.Lost:
			b.WriteString(" CAUGHT")
		}
		b.WriteString("\n")
	}

	if history.HasNext {
		fmt.Fprintf(&b, "\nMore turns on page %d.", history.Page+1)
	}
	return b.String()
}

func formatHint(hint *service.HintResult) string {
	var b strings.Builder
	b.WriteString(hint.Message)
	b.WriteString("\n")
	if hint.Found {
		fmt.Fprintf(&b, "Actions: %s\n", strings.Join(hint.Actions, ", "))
	}
	fmt.Fprintf(&b, "States explored: %d", hint.Explored)
	return b.String()
}

func formatLevelStats(stats *service.LevelStats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Level: %s\nEpisodes: %d (wins %d, losses %d, abandoned %d)\n",
		stats.Level, stats.Episodes, stats.Wins, stats.Losses, stats.Abandoned)
	if stats.BestTurns > 0 {
		names := make([]string, len(stats.BestActions))
		for i, code := range stats.BestActions {
			names[i] = engine.Action(code).String()
		}
		fmt.Fprintf(&b, "Best win: %d turns\n  %s\n", stats.BestTurns, strings.Join(names, ", "))
	}
	return b.String()
}
