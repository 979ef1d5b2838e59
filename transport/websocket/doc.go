// Package websocket pushes live game state to browser and agent clients.
//
// A single Hub goroutine owns the registry of clients, grouped by session ID.
// After every turn the API calls BroadcastToSession with the new GameState;
// the hub fans the JSON message out to each client of that session. Clients
// are receive-only: the connection is kept open with ping/pong and anything
// the client sends is ignored.
//
// Message format:
//
//	{"session_id": "ab12", "event": "state_update", "game_state": {...}}
//	{"session_id": "ab12", "event": "victory", "data": [...events]}
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run()
//	defer hub.Stop()
//
//	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, r.URL.Query().Get("session"))
//	})
//
// Clients too slow to drain their buffer are disconnected.
package websocket
