// Package mcp exposes the Snake Arcade to AI agents over the Model Context Protocol.
//
// The Client is a thin proxy: every tool call becomes a request to the REST
// API, so agents see exactly the same sessions as browsers and the terminal
// client.
//
// MCP Tools:
//   - guest_login: get a throwaway guest token
//   - create_session: create a session, optionally owned by a token
//   - get_session, list_sessions: inspect sessions
//   - game_state: render the board as text (@ head, o body, * food)
//   - start_game, toggle_pause, restart_game, set_direction: controls
//   - list_configs: list difficulty presets
//   - leaderboard: high score table
//   - game_instructions: rules and tips
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
