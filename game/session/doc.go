// Package session keeps the live snake games of a server.
//
// Every session owns one engine plus the preset ID it was created from and
// the player who owns it. IDs are 4 hex characters by default and are
// matched case-insensitively.
//
// With a FilePersistence attached, sessions are written to
// <dir>/<id>.json on creation, on access and at the end of every run, and
// are loaded back lazily by Get or eagerly by LoadPersistedSessions. No
// timer survives a restart: a game that was running comes back paused.
//
// Usage:
//
//	persistence, err := session.NewFilePersistence("sessions", configManager)
//	if err != nil {
//		log.Fatal(err)
//	}
//	manager := session.NewManagerWithPersistence(persistence)
//	sess, err := manager.Create("", "classic", config, owner)
//
// Removing a session from memory (Delete, DeleteFromMemory or
// CleanupExpiredSessions) closes its engine.
package session
