// Package mcp exposes the Direkt puzzle server to AI agents over the Model
// Context Protocol.
//
// Client is a thin adapter: every tool call is translated into a request
// against the REST API (see package api) and the JSON reply is rendered as
// text an agent can read, including the ASCII board.
//
// Tools:
//   - create_session, list_sessions, get_session
//   - game_state, valid_actions
//   - take_action, bulk_action, reset_game
//   - action_history, hint
//   - list_configs, level_stats
//   - game_instructions
//
// Transport Modes:
//   - Stdio: the main binary started with the "stdio-mcp" argument runs an
//     in-process REST server and serves MCP on stdin/stdout
//   - HTTP: the main HTTP server answers JSON-RPC messages on /mcp
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	if err := server.ServeStdio(client.GetMCPServer()); err != nil {
//		log.Fatal(err)
//	}
package mcp
