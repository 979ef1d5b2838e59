// Package session provides in-memory session management for the Direkt puzzle server.
//
// A session owns one engine.Level, the turn history played on it and the
// episode currently in progress. Sessions are identified by short,
// case-insensitive IDs; an empty ID on Create yields a random 4-character
// hex ID.
//
// The Manager is safe for concurrent use. It guards the session map only;
// callers serialise turns on a single session themselves (the game service
// does this with its own lock).
//
// Usage:
//
//	manager := session.NewManager()
//
//	sess, err := manager.Create("", "level1", cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	sess, err = manager.Get(sess.ID)
//	sessions := manager.List()
//
// Expiring idle sessions is left to the game service, which records their
// unfinished episodes first.
package session
