package service

import (
	"time"

	"github.com/wricardo/snake-arcade/game/engine"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string             `json:"id"`
	ConfigName     string             `json:"config_name"`
	Owner          Owner              `json:"owner"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	GameState      *engine.GameState  `json:"game_state"`
	GameConfig     *engine.GameConfig `json:"game_config"`
}

// ControlResult contains the result of a control operation.
// A rejected transition is not an error: Accepted is false and the state is unchanged.
type ControlResult struct {
	Accepted  bool              `json:"accepted"`
	GameState *engine.GameState `json:"game_state"`
	Message   string            `json:"message"`
}

// ConfigInfo provides information about a game configuration
type ConfigInfo struct {
	Filename       string `json:"filename"`
	ConfigID       string `json:"config_id"` // The identifier to use for session creation
	Name           string `json:"name"`      // Display name
	Description    string `json:"description"`
	GridSize       int    `json:"grid_size"`
	BaseIntervalMs int    `json:"base_interval_ms"`
	MinIntervalMs  int    `json:"min_interval_ms"`
}

// User is a registered player or a guest
type User struct {
	Username    string    `json:"username"`
	Guest       bool      `json:"guest"`
	CreatedAt   time.Time `json:"created_at"`
	LastLoginAt time.Time `json:"last_login_at"`
}

// Owner returns the session owner for this user
func (u *User) Owner() Owner {
	return Owner{Username: u.Username, Guest: u.Guest}
}

// AuthResult is returned by register and login
type AuthResult struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// UserStats aggregates a player's results
type UserStats struct {
	Username    string    `json:"username"`
	Guest       bool      `json:"guest"`
	HighScore   int       `json:"high_score"`
	TotalScore  int       `json:"total_score"`
	GamesPlayed int       `json:"games_played"`
	LastLoginAt time.Time `json:"last_login_at"`
}

// LeaderboardEntry is one row of the high score table
type LeaderboardEntry struct {
	Rank        int    `json:"rank"`
	Username    string `json:"username"`
	HighScore   int    `json:"high_score"`
	GamesPlayed int    `json:"games_played"`
}

// GameRecord is one finished game of a registered user
type GameRecord struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	Score      int       `json:"score"`
	ConfigName string    `json:"config_name"`
	PlayedAt   time.Time `json:"played_at"`
}
