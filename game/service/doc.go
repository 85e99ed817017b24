// Package service provides the business logic layer for Snake Arcade.
//
// The service package implements:
//   - Multi-session game management
//   - Preset loading through a ConfigManager
//   - Direction and key input handling
//   - Accounts, login tokens and guest players
//   - Per-player high scores, history and the leaderboard
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// AccountService handles registration, login and score bookkeeping.
// SessionManager handles session creation, retrieval, and lifecycle.
// ConfigManager manages preset loading and validation.
// Notifier receives state snapshots and events as sessions tick.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP) and
// the game engine. Each session owns its own engine, which ticks on its own
// schedule; the service observes it, forwards every change to the Notifier and
// records the final score with the AccountService when a run ends.
//
// Usage:
//
//	sessions := session.NewManager()
//	configs, _ := config.NewManager("configs")
//	accounts := service.NewAccountService(store)
//	games := service.NewGameService(sessions, configs, accounts, hub)
//
//	info, err := games.CreateSession(ctx, "classic", token)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	games.Start(ctx, info.ID)
//	games.SetDirection(ctx, info.ID, "up")
//
// Session Management:
//
// Sessions are identified by short random IDs, matched case-insensitively.
// A session remembers its owner so finished games land on the right account.
// Anonymous sessions keep their high score in memory only.
package service
