package service

import (
	"time"

	"github.com/wricardo/direkt/game/engine"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string              `json:"id"`
	ConfigName     string              `json:"config_name"`
	CreatedAt      time.Time           `json:"created_at"`
	LastAccessedAt time.Time           `json:"last_accessed_at"`
	Attempt        int                 `json:"attempt"`
	TotalTurns     int                 `json:"total_turns"`
	GameState      *GameState          `json:"game_state"`
	LevelConfig    *engine.LevelConfig `json:"level_config"`
}

// GameState is the observable state of a session's level plus derived views
type GameState struct {
	engine.Snapshot
	ConfigName   string                   `json:"config_name"`
	StatusName   string                   `json:"status_name"`
	Board        []string                 `json:"board"`
	Goals        []engine.Pos             `json:"goals"`
	ValidActions []ActionInfo             `json:"valid_actions"`
	LocalView    []engine.SurroundingCell `json:"local_view,omitempty"`
	Attempt      int                      `json:"attempt"`
	EpisodeTurns int                      `json:"episode_turns"`
	Message      string                   `json:"message"`
}

// ActionInfo names one action code
type ActionInfo struct {
	Code int    `json:"code"`
	Name string `json:"name"`
}

// ActionResult contains the result of a single action
type ActionResult struct {
	Requested string      `json:"requested"`
	Applied   string      `json:"applied"`
	Accepted  bool        `json:"accepted"`
	Outcome   int         `json:"outcome"`
	GameState *GameState  `json:"game_state"`
	Message   string      `json:"message"`
	Events    []GameEvent `json:"events,omitempty"`
}

// BulkActionResult contains the result of several actions
type BulkActionResult struct {
	ActionsExecuted  int         `json:"actions_executed"`
	RequestedActions int         `json:"requested_actions"`
	Truncated        bool        `json:"truncated,omitempty"`
	Limit            int         `json:"limit,omitempty"`
	StoppedReason    string      `json:"stopped_reason,omitempty"`
	StopReasonCode   string      `json:"stop_reason_code,omitempty"` // invalid_action|victory|defeat|game_over
	StoppedOnAction  int         `json:"stopped_on_action,omitempty"`
	Steps            []StepInfo  `json:"steps,omitempty"`
	Outcome          int         `json:"outcome"`
	GameState        *GameState  `json:"game_state"`
	Events           []GameEvent `json:"events"`
	Message          string      `json:"message,omitempty"`
}

// StepInfo is a compact record of one executed action in a bulk call
type StepInfo struct {
	Idx      int        `json:"idx"`
	Action   string     `json:"action"`
	Applied  string     `json:"applied"`
	Accepted bool       `json:"accepted"`
	From     engine.Pos `json:"from"`
	To       engine.Pos `json:"to"`
	Tick     int        `json:"tick"`
	Outcome  int        `json:"outcome"`
}

// GameEvent represents an event that occurred during gameplay
type GameEvent struct {
	Type      string     `json:"type"` // "turn", "rotate", "gate_rotated", "invalid_action", "victory", "defeat", "reset"
	Message   string     `json:"message"`
	Timestamp time.Time  `json:"timestamp"`
	Position  engine.Pos `json:"position"`
}

// TurnRecord is one entry of a session's cumulative history
type TurnRecord struct {
	Action     string     `json:"action"`
	Applied    string     `json:"applied"`
	Code       int        `json:"code"`
	From       engine.Pos `json:"from"`
	To         engine.Pos `json:"to"`
	Tick       int        `json:"tick"`
	Outcome    int        `json:"outcome"`
	Attempt    int        `json:"attempt"`
	Timestamp  int64      `json:"timestamp"`
	TurnNumber int        `json:"turn_number"`
}

// HistoryOptions configures history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated turn history
type HistoryResponse struct {
	Turns       []TurnRecord `json:"turns"`
	TotalTurns  int          `json:"total_turns"`
	Page        int          `json:"page"`
	PageSize    int          `json:"page_size"`
	TotalPages  int          `json:"total_pages"`
	HasNext     bool         `json:"has_next"`
	HasPrevious bool         `json:"has_previous"`
}

// HintResult is the solver's answer for the current state of a session
type HintResult struct {
	Found     bool     `json:"found"`
	Actions   []string `json:"actions,omitempty"`
	Codes     []int    `json:"codes,omitempty"`
	Explored  int      `json:"explored"`
	Exhausted bool     `json:"exhausted"`
	Message   string   `json:"message"`
}

// ConfigInfo provides information about a level configuration
type ConfigInfo struct {
	Filename    string `json:"filename"`
	ConfigID    string `json:"config_id"` // The identifier to use for session creation
	Name        string `json:"name"`
	Description string `json:"description"`
	Rows        int    `json:"rows"`
	Cols        int    `json:"cols"`
	Gates       int    `json:"gates"`
	Enemies     int    `json:"enemies"`
}

// LevelStats aggregates recorded episodes of one level
type LevelStats struct {
	Level       string `json:"level"`
	Episodes    int    `json:"episodes"`
	Wins        int    `json:"wins"`
	Losses      int    `json:"losses"`
	Abandoned   int    `json:"abandoned"`
	BestTurns   int    `json:"best_turns,omitempty"`
	BestActions []int  `json:"best_actions,omitempty"`
}
