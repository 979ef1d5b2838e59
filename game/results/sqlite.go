package results

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/wricardo/direkt/game/engine"
	"github.com/wricardo/direkt/game/replay"
	"github.com/wricardo/direkt/game/service"
)

// ErrClosed is returned by Sync after Close
var ErrClosed = errors.New("results index closed")

// SQLiteIndex keeps one row per recorded episode. Writes are queued to a single
// writer goroutine; reads go straight to the database.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	// mu orders sends on ch against Close closing it
	mu     sync.RWMutex
	closed bool
}

type req struct {
	ep   *replay.Episode
	done chan struct{}
}

// OpenSQLite opens or creates the index at path
func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan req, 4096),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS episodes (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			level TEXT NOT NULL,
			attempt INTEGER NOT NULL,
			outcome INTEGER NOT NULL,
			turns INTEGER NOT NULL,
			ticks INTEGER NOT NULL,
			actions_json TEXT NOT NULL,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_episodes_level_outcome ON episodes(level, outcome, turns);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Close drains queued writes and closes the database
func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.ch)
		s.mu.Unlock()
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// RecordEpisode queues an episode for indexing. Episodes are dropped if the
// writer falls behind; the replay log remains the source of truth.
func (s *SQLiteIndex) RecordEpisode(ep *replay.Episode) error {
	if s == nil || ep == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil
	}
	select {
	case s.ch <- req{ep: ep}:
	default:
		log.WithField("episode", ep.ID).Warn("results index queue full, dropping episode")
	}
	return nil
}

// Sync blocks until every episode queued before the call has been written
func (s *SQLiteIndex) Sync(ctx context.Context) error {
	done := make(chan struct{})
	if err := s.enqueue(ctx, req{done: done}); err != nil {
		return err
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *SQLiteIndex) enqueue(ctx context.Context, r req) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	select {
	case s.ch <- r:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *SQLiteIndex) loop() {
	for r := range s.ch {
		if r.done != nil {
			close(r.done)
			continue
		}
		if err := s.insert(r.ep); err != nil {
			log.WithError(err).WithField("episode", r.ep.ID).Warn("failed to index episode")
		}
	}
}

func (s *SQLiteIndex) insert(ep *replay.Episode) error {
	actions := make([]int, len(ep.Actions))
	for i, a := range ep.Actions {
		actions[i] = int(a)
	}
	actionsJSON, err := json.Marshal(actions)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO episodes(id, session_id, level, attempt, outcome, turns, ticks, actions_json, started_at, ended_at)
		 VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ep.ID, ep.SessionID, ep.Level, ep.Attempt, int(ep.Outcome), ep.Turns(), ep.Ticks, string(actionsJSON),
		ep.StartedAt.UTC().Format(time.RFC3339Nano), ep.EndedAt.UTC().Format(time.RFC3339Nano),
	)
	return err
}

// LevelStats aggregates the recorded episodes of one level
func (s *SQLiteIndex) LevelStats(ctx context.Context, level string) (*service.LevelStats, error) {
	stats := &service.LevelStats{Level: level}
	row := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END), 0)
		FROM episodes WHERE level = ?`,
		int(engine.Won), int(engine.Lost), int(engine.Playing), level)
	if err := row.Scan(&stats.Episodes, &stats.Wins, &stats.Losses, &stats.Abandoned); err != nil {
		return nil, err
	}
	if stats.Wins == 0 {
		return stats, nil
	}

	var actionsJSON string
	err := s.db.QueryRowContext(ctx, `
		SELECT turns, actions_json FROM episodes
		WHERE level = ? AND outcome = ?
		ORDER BY turns ASC, ended_at ASC LIMIT 1`,
		level, int(engine.Won)).Scan(&stats.BestTurns, &actionsJSON)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(actionsJSON), &stats.BestActions); err != nil {
		return nil, fmt.Errorf("decode best actions: %w", err)
	}
	return stats, nil
}

// Levels returns stats for every level with at least one recorded episode, by name
func (s *SQLiteIndex) Levels(ctx context.Context) ([]*service.LevelStats, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT level FROM episodes ORDER BY level`)
	if err != nil {
		return nil, err
	}
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return nil, err
		}
		names = append(names, name)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]*service.LevelStats, 0, len(names))
	for _, name := range names {
		st, err := s.LevelStats(ctx, name)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}
