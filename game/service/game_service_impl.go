package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/wricardo/direkt/game/engine"
	"github.com/wricardo/direkt/game/replay"
	"github.com/wricardo/direkt/game/solver"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidAction   = errors.New("invalid action")
	ErrStatsDisabled   = errors.New("episode statistics are not enabled")
	ErrConfigNotFound  = errors.New("configuration not found")
)

const hintTimeout = 10 * time.Second

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	sinks    []EpisodeSink
	stats    StatsSource
	mu       sync.RWMutex
}

// Option configures optional collaborators of the game service
type Option func(*gameServiceImpl)

// WithEpisodeSinks registers sinks that receive every finished or abandoned episode
func WithEpisodeSinks(sinks ...EpisodeSink) Option {
	return func(s *gameServiceImpl) {
		for _, sink := range sinks {
			if sink != nil {
				s.sinks = append(s.sinks, sink)
			}
		}
	}
}

// WithStats sets the source used by LevelStats
func WithStats(stats StatsSource) Option {
	return func(s *gameServiceImpl) { s.stats = stats }
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager, opts ...Option) GameService {
	s := &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// getConfigID returns the config_id for a level display name
func (s *gameServiceImpl) getConfigID(configName string) string {
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == configName {
				return cfg.ConfigID
			}
		}
	}
	if configName == "" {
		return "default"
	}
	return configName
}

func (s *gameServiceImpl) getSession(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	s.sessions.UpdateLastAccessed(sessionID)
	return sess, nil
}

// CreateSession creates a new game session
func (s *gameServiceImpl) CreateSession(ctx context.Context, configName string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var config *engine.LevelConfig
	var err error
	configID := configName
	if configName != "" {
		config, err = s.configs.LoadConfig(configName)
		if err != nil {
			// Provide helpful error message with available options
			if errors.Is(err, ErrConfigNotFound) {
				availableConfigs, listErr := s.configs.ListConfigs()
				if listErr == nil && len(availableConfigs) > 0 {
					var configIDs []string
					for _, cfg := range availableConfigs {
						configIDs = append(configIDs, cfg.ConfigID)
					}
					return nil, fmt.Errorf("config '%s' not found, available configs: %v: %w", configName, configIDs, err)
				}
				return nil, fmt.Errorf("config '%s' not found, use /api/configs to list available configurations: %w", configName, err)
			}
			return nil, fmt.Errorf("failed to load config %s: %w", configName, err)
		}
	} else {
		config = s.configs.GetDefault()
		configID = s.getConfigID(config.Name)
	}

	// Let session manager generate a proper 4-character ID
	sess, err := s.sessions.Create("", configID, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return s.sessionInfo(sess), nil
}

func (s *gameServiceImpl) sessionInfo(sess *Session) *SessionInfo {
	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     sess.ConfigID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		Attempt:        sess.Episode.Attempt,
		TotalTurns:     len(sess.History),
		GameState:      buildGameState(sess),
		LevelConfig:    sess.Config,
	}
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	return s.sessionInfo(sess), nil
}

// ListSessions returns all active sessions, oldest first
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})

	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.sessionInfo(sess))
	}
	return result, nil
}

// DeleteSession removes a session. An episode in progress is recorded as abandoned.
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	s.abandonLocked(sess)
	return s.sessions.Delete(sessionID)
}

// ExpireSessions removes sessions not accessed within maxAge, recording their
// unfinished episodes as abandoned. It returns the number removed.
func (s *gameServiceImpl) ExpireSessions(ctx context.Context, maxAge time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, sess := range s.sessions.List() {
		if !sess.LastAccessedAt.Before(cutoff) {
			continue
		}
		s.abandonLocked(sess)
		if err := s.sessions.Delete(sess.ID); err != nil {
			log.WithError(err).WithField("session", sess.ID).Warn("failed to expire session")
			continue
		}
		removed++
	}
	if removed > 0 {
		log.WithField("removed", removed).Info("expired sessions cleaned up")
	}
	return removed
}

// parseAction resolves an action string. Integers outside the action range are
// passed through so the engine plays them as Wait.
func parseAction(raw string) (engine.Action, error) {
	a, err := engine.ParseAction(raw)
	if err == nil {
		return a, nil
	}
	if n, convErr := strconv.Atoi(strings.TrimSpace(raw)); convErr == nil {
		return engine.Action(n), nil
	}
	return 0, fmt.Errorf("%w: %q (use 0-6, east/south/west/north, cw, ccw or wait)", ErrInvalidAction, raw)
}

// TakeAction plays one turn for a session
func (s *gameServiceImpl) TakeAction(ctx context.Context, sessionID, action string, reset bool) (*ActionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	a, err := parseAction(action)
	if err != nil {
		return nil, err
	}

	events := []GameEvent{}
	if reset {
		events = append(events, s.resetLocked(sess))
	}

	result := &ActionResult{Requested: action}

	if sess.Level.Status().Terminal() {
		result.Applied = "none"
		result.Outcome = int(sess.Level.Status())
		result.GameState = buildGameState(sess)
		result.Message = "The level is over. Reset to play again."
		result.Events = events
		return result, nil
	}

	step, turnEvents := s.playLocked(sess, action, a)
	result.Applied = step.Applied
	result.Accepted = step.Accepted
	result.Outcome = step.Outcome
	result.GameState = buildGameState(sess)
	result.Events = append(events, turnEvents...)
	result.Message = turnMessage(step, sess.Level.Status())
	return result, nil
}

// BulkAction plays up to engine.MaxBulkActions turns, stopping early at an
// unparseable action or a terminal outcome
func (s *gameServiceImpl) BulkAction(ctx context.Context, sessionID string, actions []string, reset bool) (*BulkActionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	result := &BulkActionResult{
		RequestedActions: len(actions),
		Events:           make([]GameEvent, 0),
	}

	if reset {
		result.Events = append(result.Events, s.resetLocked(sess))
	}

	// Limit actions to prevent abuse
	if len(actions) > engine.MaxBulkActions {
		result.Truncated = true
		result.Limit = engine.MaxBulkActions
		actions = actions[:engine.MaxBulkActions]
	}

	for i, raw := range actions {
		if sess.Level.Status().Terminal() {
			result.StoppedReason = "the level is over, reset to play again"
			result.StopReasonCode = "game_over"
			result.StoppedOnAction = i + 1
			break
		}

		a, err := parseAction(raw)
		if err != nil {
			result.StoppedReason = fmt.Sprintf("action %d: %v", i+1, err)
			result.StopReasonCode = "invalid_action"
			result.StoppedOnAction = i + 1
			break
		}

		step, events := s.playLocked(sess, raw, a)
		step.Idx = i + 1
		result.ActionsExecuted++
		result.Steps = append(result.Steps, step)
		result.Events = append(result.Events, events...)

		switch sess.Level.Status() {
		case engine.Won:
			result.StopReasonCode = "victory"
		case engine.Lost:
			result.StopReasonCode = "defeat"
		}
		if result.StopReasonCode != "" {
			if i < len(actions)-1 {
				result.StoppedReason = fmt.Sprintf("level ended on action %d", i+1)
				result.StoppedOnAction = i + 1
			}
			break
		}
	}

	status := sess.Level.Status()
	result.Outcome = int(status)
	result.GameState = buildGameState(sess)
	result.Message = result.GameState.Message

	return result, nil
}

// playLocked runs one turn on a level in play and records it. Caller holds mu.
func (s *gameServiceImpl) playLocked(sess *Session, requested string, a engine.Action) (StepInfo, []GameEvent) {
	level := sess.Level
	applied := a
	if !level.Legal(a) {
		applied = engine.Wait
	}

	before := level.Snapshot()
	outcome := level.TakeAction(a)
	after := level.Snapshot()

	from := engine.Pos{Row: before.Player.Row, Col: before.Player.Col}
	to := engine.Pos{Row: after.Player.Row, Col: after.Player.Col}
	now := time.Now()

	step := StepInfo{
		Idx:      1,
		Action:   requested,
		Applied:  applied.String(),
		Accepted: applied == a,
		From:     from,
		To:       to,
		Tick:     after.Tick,
		Outcome:  int(outcome),
	}

	events := turnEvents(before, after, a, applied, now)

	sess.Episode.Actions = append(sess.Episode.Actions, applied)
	sess.History = append(sess.History, TurnRecord{
		Action:     requested,
		Applied:    applied.String(),
		Code:       int(applied),
		From:       from,
		To:         to,
		Tick:       after.Tick,
		Outcome:    int(outcome),
		Attempt:    sess.Episode.Attempt,
		Timestamp:  now.Unix(),
		TurnNumber: len(sess.History) + 1,
	})

	fields := log.Fields{
		"session": sess.ID,
		"action":  applied.String(),
		"tick":    after.Tick,
		"outcome": outcome.String(),
	}
	log.WithFields(fields).Debug("turn")

	if outcome.Terminal() {
		log.WithFields(fields).WithField("turns", len(sess.Episode.Actions)).Info("episode finished")
		s.emitLocked(sess, outcome)
	}

	return step, events
}

// turnEvents describes what changed between two snapshots of one turn
func turnEvents(before, after engine.Snapshot, requested, applied engine.Action, now time.Time) []GameEvent {
	player := engine.Pos{Row: after.Player.Row, Col: after.Player.Col}
	var events []GameEvent

	if applied != requested {
		events = append(events, GameEvent{
			Type:      "invalid_action",
			Message:   fmt.Sprintf("Action %s is not available here; waited instead", requested),
			Timestamp: now,
			Position:  player,
		})
	}

	switch {
	case applied.IsRotate():
		events = append(events, GameEvent{
			Type:      "rotate",
			Message:   fmt.Sprintf("Rotated the gate under the player %s", rotationName(applied)),
			Timestamp: now,
			Position:  player,
		})
	case applied.IsMove():
		events = append(events, GameEvent{
			Type:      "turn",
			Message:   fmt.Sprintf("Moved %s to (%d,%d), tick %d", applied, player.Row, player.Col, after.Tick),
			Timestamp: now,
			Position:  player,
		})
	default:
		events = append(events, GameEvent{
			Type:      "turn",
			Message:   fmt.Sprintf("Waited, tick %d", after.Tick),
			Timestamp: now,
			Position:  player,
		})
	}

	for i := range after.Gates {
		if i >= len(before.Gates) || before.Gates[i].Orientation == after.Gates[i].Orientation {
			continue
		}
		g := after.Gates[i]
		events = append(events, GameEvent{
			Type:      "gate_rotated",
			Message:   fmt.Sprintf("Gate at (%d,%d) now blocks %s and %s", g.Row, g.Col, g.Blocked[0], g.Blocked[1]),
			Timestamp: now,
			Position:  engine.Pos{Row: g.Row, Col: g.Col},
		})
	}

	switch after.Status {
	case engine.Won:
		events = append(events, GameEvent{
			Type:      "victory",
			Message:   fmt.Sprintf("Goal reached on tick %d!", after.Tick),
			Timestamp: now,
			Position:  player,
		})
	case engine.Lost:
		events = append(events, GameEvent{
			Type:      "defeat",
			Message:   fmt.Sprintf("Caught by an enemy on tick %d", after.Tick),
			Timestamp: now,
			Position:  player,
		})
	}
	return events
}

func rotationName(a engine.Action) string {
	if a == engine.RotateCounterClockwise {
		return "counter-clockwise"
	}
	return "clockwise"
}

func turnMessage(step StepInfo, status engine.Status) string {
	switch status {
	case engine.Won:
		return "Victory! You reached the goal."
	case engine.Lost:
		return "Defeat! An enemy caught you. Reset to try again."
	}
	if !step.Accepted {
		return fmt.Sprintf("%s is not available here; waited instead.", step.Action)
	}
	return fmt.Sprintf("Played %s.", step.Applied)
}

// Reset resets a game session to its initial state
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (*GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	s.resetLocked(sess)
	return buildGameState(sess), nil
}

// resetLocked records an unfinished episode as abandoned, resets the level and
// starts the next attempt. Caller holds mu.
func (s *gameServiceImpl) resetLocked(sess *Session) GameEvent {
	s.abandonLocked(sess)
	sess.Level.Reset()
	sess.Episode = EpisodeProgress{
		ID:        replay.NewEpisodeID(),
		Attempt:   sess.Episode.Attempt + 1,
		StartedAt: time.Now(),
	}
	log.WithFields(log.Fields{"session": sess.ID, "attempt": sess.Episode.Attempt}).Debug("session reset")

	p := sess.Level.Player()
	return GameEvent{
		Type:      "reset",
		Message:   fmt.Sprintf("Level reset, attempt %d", sess.Episode.Attempt),
		Timestamp: time.Now(),
		Position:  engine.Pos{Row: p.Row, Col: p.Col},
	}
}

func (s *gameServiceImpl) abandonLocked(sess *Session) {
	if sess.Level.Status() == engine.Playing && len(sess.Episode.Actions) > 0 {
		s.emitLocked(sess, engine.Playing)
	}
}

// emitLocked hands the current episode to every sink. Sink failures are logged only.
func (s *gameServiceImpl) emitLocked(sess *Session, outcome engine.Status) {
	if len(s.sinks) == 0 {
		return
	}
	ep := &replay.Episode{
		ID:        sess.Episode.ID,
		SessionID: sess.ID,
		Level:     sess.ConfigID,
		Attempt:   sess.Episode.Attempt,
		Config:    sess.Config,
		Actions:   append([]engine.Action(nil), sess.Episode.Actions...),
		Outcome:   outcome,
		Ticks:     sess.Level.Tick(),
		StartedAt: sess.Episode.StartedAt,
		EndedAt:   time.Now(),
	}
	for _, sink := range s.sinks {
		if err := sink.RecordEpisode(ep); err != nil {
			log.WithError(err).WithField("episode", ep.ID).Warn("failed to record episode")
		}
	}
}

// GetGameState retrieves the current game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*GameState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	return buildGameState(sess), nil
}

// GetValidActions lists the actions legal in the current state
func (s *gameServiceImpl) GetValidActions(ctx context.Context, sessionID string) ([]ActionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	return actionInfos(sess.Level.ValidActions()), nil
}

// GetHistory returns paginated turn history across all attempts
func (s *gameServiceImpl) GetHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	history := sess.History
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	turns := []TurnRecord{}
	if opts.Order == "desc" {
		// most recent first
		for i := total - 1 - start; i >= 0 && i >= total-end; i-- {
			turns = append(turns, history[i])
		}
	} else if start < total {
		turns = append(turns, history[start:end]...)
	}

	return &HistoryResponse{
		Turns:       turns,
		TotalTurns:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}, nil
}

// Hint searches for the shortest winning sequence from the current state
func (s *gameServiceImpl) Hint(ctx context.Context, sessionID string, maxDepth int) (*HintResult, error) {
	s.mu.RLock()
	sess, err := s.getSession(sessionID)
	if err != nil {
		s.mu.RUnlock()
		return nil, err
	}
	if sess.Level.Status().Terminal() {
		s.mu.RUnlock()
		return &HintResult{Message: "The level is over. Reset to play again."}, nil
	}
	level := sess.Level.Clone()
	s.mu.RUnlock()

	if maxDepth <= 0 {
		maxDepth = solver.DefaultMaxDepth
	}

	ctx, cancel := context.WithTimeout(ctx, hintTimeout)
	defer cancel()

	res, err := solver.Solve(ctx, level, solver.Options{MaxDepth: maxDepth})
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return nil, err
	}

	hint := &HintResult{
		Found:     res.Found,
		Explored:  res.Explored,
		Exhausted: res.Exhausted,
	}
	for _, a := range res.Actions {
		hint.Actions = append(hint.Actions, a.String())
		hint.Codes = append(hint.Codes, int(a))
	}

	switch {
	case err != nil:
		hint.Message = fmt.Sprintf("Search timed out after %d states", res.Explored)
	case res.Found:
		hint.Message = fmt.Sprintf("Shortest solution from here takes %d actions", len(res.Actions))
	case res.Exhausted:
		hint.Message = fmt.Sprintf("No solution within %d actions", maxDepth)
	default:
		hint.Message = fmt.Sprintf("No solution found in the first %d states", res.Explored)
	}
	return hint, nil
}

// ListConfigs returns available level configurations
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific level configuration
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.LevelConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a level configuration to disk
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.LevelConfig) error {
	return s.configs.SaveConfig(configName, config)
}

// LevelStats returns aggregate results for a level
func (s *gameServiceImpl) LevelStats(ctx context.Context, configName string) (*LevelStats, error) {
	if s.stats == nil {
		return nil, ErrStatsDisabled
	}
	return s.stats.LevelStats(ctx, configName)
}

func actionInfos(actions []engine.Action) []ActionInfo {
	out := make([]ActionInfo, 0, len(actions))
	for _, a := range actions {
		out = append(out, ActionInfo{Code: int(a), Name: a.String()})
	}
	return out
}

// buildGameState enriches a snapshot with the board, goals and legal actions
func buildGameState(sess *Session) *GameState {
	level := sess.Level
	snap := level.Snapshot()

	state := &GameState{
		Snapshot:     snap,
		ConfigName:   sess.ConfigID,
		StatusName:   snap.Status.String(),
		Board:        engine.BoardRows(level.Grid(), snap),
		Goals:        level.Grid().GoalPositions(),
		ValidActions: actionInfos(level.ValidActions()),
		LocalView:    level.LocalView(),
		Attempt:      sess.Episode.Attempt,
		EpisodeTurns: len(sess.Episode.Actions),
	}

	switch snap.Status {
	case engine.Won:
		state.Message = "Victory! You reached the goal."
	case engine.Lost:
		state.Message = "Defeat! An enemy caught you. Reset to try again."
	default:
		state.Message = fmt.Sprintf("Tick %d, %d actions available.", snap.Tick, len(state.ValidActions))
	}
	return state
}
