package service

import (
	"context"
	"sync"
	"time"

	"github.com/wricardo/snake-arcade/game/engine"
)

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, configName, token string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Game Control
	Start(ctx context.Context, sessionID string) (*ControlResult, error)
	TogglePause(ctx context.Context, sessionID string) (*ControlResult, error)
	Restart(ctx context.Context, sessionID string) (*ControlResult, error)
	SetDirection(ctx context.Context, sessionID, direction string) (*ControlResult, error)
	HandleKey(ctx context.Context, sessionID, code string) (*ControlResult, error)

	// Game State
	GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error)

	// Configuration
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error)
	SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error
}

// AccountService defines registration, login and stats operations
type AccountService interface {
	Register(ctx context.Context, username, password, confirmPassword string) (*AuthResult, error)
	Login(ctx context.Context, username, password string) (*AuthResult, error)
	GuestLogin(ctx context.Context) (*AuthResult, error)
	Logout(ctx context.Context, token string) error
	CurrentUser(ctx context.Context, token string) (*User, error)

	Stats(ctx context.Context, token string) (*UserStats, error)
	Leaderboard(ctx context.Context, limit int) ([]*LeaderboardEntry, error)
	History(ctx context.Context, token string, limit int) ([]*GameRecord, error)

	// Used by the game service when a run ends or a session starts
	RecordGame(ctx context.Context, owner Owner, score int, configName string) (*UserStats, error)
	HighScore(ctx context.Context, owner Owner) (int, error)

	// ExpireGuests drops guest logins idle for longer than maxAge
	ExpireGuests(maxAge time.Duration) int
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id, configID string, config *engine.GameConfig, owner Owner) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
	Save(id string) error
}

// ConfigManager handles game configuration loading
type ConfigManager interface {
	LoadConfig(name string) (*engine.GameConfig, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *engine.GameConfig
	SaveConfig(name string, config *engine.GameConfig) error
}

// AccountStore persists users, login tokens and game records
type AccountStore interface {
	CreateUser(ctx context.Context, username, passwordHash string, createdAt time.Time) (*User, error)
	GetCredentials(ctx context.Context, username string) (*User, string, error)
	TouchLogin(ctx context.Context, username string, at time.Time) error

	SaveToken(ctx context.Context, token, username string, createdAt time.Time) error
	LookupToken(ctx context.Context, token string) (string, error)
	DeleteToken(ctx context.Context, token string) error

	RecordGame(ctx context.Context, record *GameRecord) (*UserStats, error)
	GetStats(ctx context.Context, username string) (*UserStats, error)
	Leaderboard(ctx context.Context, limit int) ([]*LeaderboardEntry, error)
	RecentGames(ctx context.Context, username string, limit int) ([]*GameRecord, error)
}

// Notifier pushes session events to connected clients
type Notifier interface {
	BroadcastState(sessionID string, state *engine.GameState)
	BroadcastEvent(sessionID, event string, data interface{})
}

// Owner identifies who plays a session
type Owner struct {
	Username string `json:"username"`
	Guest    bool   `json:"guest"`
}

// Registered reports whether results for this owner are kept
func (o Owner) Registered() bool {
	return !o.Guest && o.Username != ""
}

// Session represents an active game session
type Session struct {
	ID        string
	Engine    *engine.GameEngine
	Config    *engine.GameConfig
	ConfigID  string
	Owner     Owner
	CreatedAt time.Time

	// LastAccessedAt is set when the session is built; after that it is
	// read and written through LastAccessed and Touch.
	LastAccessedAt time.Time

	mu     sync.Mutex
	attach sync.Once
}

// Touch records an access at t
func (s *Session) Touch(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LastAccessedAt = t
}

// LastAccessed returns the time of the latest access
func (s *Session) LastAccessed() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.LastAccessedAt
}
