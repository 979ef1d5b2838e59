// Package service provides the business logic layer for the Direkt puzzle server.
//
// GameService is the main interface used by every transport (REST, WebSocket,
// MCP). It owns turn processing on top of engine.Level: parsing action
// strings, treating unavailable actions as Wait, building events, keeping the
// per-session turn history and tracking the episode in progress.
//
// SessionManager and ConfigManager are implemented by the session and config
// packages. Optional collaborators are supplied as options:
//
//   - WithEpisodeSinks: receives a replay.Episode whenever an attempt ends in
//     victory or defeat, or is abandoned by a reset or delete
//   - WithStats: answers LevelStats from recorded episodes
//
// Usage:
//
//	sessions := session.NewManager()
//	configs, _ := config.NewManager("levels")
//	svc := service.NewGameService(sessions, configs,
//		service.WithEpisodeSinks(replayWriter, index),
//		service.WithStats(index))
//
//	info, err := svc.CreateSession(ctx, "level1")
//	res, err := svc.TakeAction(ctx, info.ID, "east", false)
//
// All operations on sessions are serialised by a single service lock. Hint
// searches run on a clone outside the lock.
package service
