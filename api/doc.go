// Package api provides the HTTP REST API for the Direkt puzzle server.
//
// Endpoints:
//
// Sessions:
//   - POST   /api/sessions                  create a session ({"config_id": "level1"})
//   - GET    /api/sessions                  list sessions (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET    /api/sessions/{id}             session info with current game state
//   - DELETE /api/sessions/{id}             delete a session
//
// Play:
//   - GET    /api/sessions/{id}/state       snapshot, board rows, goals and legal actions
//   - GET    /api/sessions/{id}/actions     legal actions for the current turn
//   - POST   /api/sessions/{id}/action      play one turn ({"action": "east", "reset": false})
//   - POST   /api/sessions/{id}/bulk-action play up to 50 turns ({"actions": ["cw", 0, "east"]})
//   - POST   /api/sessions/{id}/reset       restart the level
//   - GET    /api/sessions/{id}/history     turn history (?page&limit&order)
//   - GET    /api/sessions/{id}/hint        shortest solution from here (?max_depth)
//
// Levels:
//   - GET    /api/configs                   list level files
//   - POST   /api/configs                   save a level (LevelConfig JSON body)
//   - GET    /api/configs/{name}            level configuration
//   - GET    /api/configs/{name}/stats      recorded results for a level
//
// Other:
//   - GET    /health
//   - GET    /ws?session=ID                 live updates (see package websocket)
//
// Actions may be sent as a code (0-6) or a name: east, south, west, north,
// their aliases right, down, left, up, and cw, ccw, wait. An action the
// player cannot take right now is played as a wait and reported with
// "accepted": false.
//
// Errors are returned as {"error": "message"}. Unknown sessions and levels
// map to 404, malformed actions and invalid levels to 400, and stats requests
// without an episode index to 503.
package api
