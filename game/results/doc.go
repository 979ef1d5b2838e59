// Package results indexes finished episodes in SQLite so per-level statistics
// (wins, losses, best solution) can be queried without scanning the replay log.
package results
