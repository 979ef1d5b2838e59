package service

import (
	"context"
	"time"

	"github.com/wricardo/direkt/game/engine"
	"github.com/wricardo/direkt/game/replay"
)

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, configName string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error
	ExpireSessions(ctx context.Context, maxAge time.Duration) int

	// Game Operations
	TakeAction(ctx context.Context, sessionID, action string, reset bool) (*ActionResult, error)
	BulkAction(ctx context.Context, sessionID string, actions []string, reset bool) (*BulkActionResult, error)
	Reset(ctx context.Context, sessionID string) (*GameState, error)

	// Game State
	GetGameState(ctx context.Context, sessionID string) (*GameState, error)
	GetValidActions(ctx context.Context, sessionID string) ([]ActionInfo, error)
	GetHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)
	Hint(ctx context.Context, sessionID string, maxDepth int) (*HintResult, error)

	// Configuration
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, configName string) (*engine.LevelConfig, error)
	SaveConfig(ctx context.Context, configName string, config *engine.LevelConfig) error
	LevelStats(ctx context.Context, configName string) (*LevelStats, error)
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id string, configID string, config *engine.LevelConfig) (*Session, error)
	Get(id string) (*Session, error)
	GetOrCreate(id string, configID string, config *engine.LevelConfig) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
}

// ConfigManager handles level configuration loading. LoadConfig reports unknown
// names with an error wrapping ErrConfigNotFound.
type ConfigManager interface {
	LoadConfig(name string) (*engine.LevelConfig, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *engine.LevelConfig
	SaveConfig(name string, config *engine.LevelConfig) error
}

// EpisodeSink receives every finished or abandoned episode
type EpisodeSink interface {
	RecordEpisode(ep *replay.Episode) error
}

// StatsSource answers aggregate questions about recorded episodes
type StatsSource interface {
	LevelStats(ctx context.Context, level string) (*LevelStats, error)
}

// Session represents an active game session.
//
// History is cumulative across resets; Episode holds only the actions
// taken since the last reset.
type Session struct {
	ID             string
	ConfigID       string
	Level          *engine.Level
	Config         *engine.LevelConfig
	History        []TurnRecord
	Episode        EpisodeProgress
	CreatedAt      time.Time
	LastAccessedAt time.Time
}

// EpisodeProgress tracks the attempt currently being played in a session
type EpisodeProgress struct {
	ID        string
	Attempt   int
	StartedAt time.Time
	Actions   []engine.Action
}
