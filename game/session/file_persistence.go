package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/wricardo/snake-arcade/game/engine"
	"github.com/wricardo/snake-arcade/game/service"
)

// FilePersistence implements SessionPersistence with one JSON file per session
type FilePersistence struct {
	sessionsDir   string
	configManager service.ConfigManager
	engineOpts    []engine.Option

	// Engines save from their tick goroutines
	mu sync.Mutex
}

// NewFilePersistence creates a new file-based session persistence layer.
// opts are passed to the engines of loaded sessions.
func NewFilePersistence(sessionsDir string, configManager service.ConfigManager, opts ...engine.Option) (*FilePersistence, error) {
	if err := os.MkdirAll(sessionsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create sessions directory: %w", err)
	}

	return &FilePersistence{
		sessionsDir:   sessionsDir,
		configManager: configManager,
		engineOpts:    opts,
	}, nil
}

// Save persists a session to a JSON file
func (fp *FilePersistence) Save(session *service.Session) error {
	if session == nil {
		return fmt.Errorf("session cannot be nil")
	}

	data := PersistedSessionData{
		ID:             session.ID,
		ConfigID:       session.ConfigID,
		Owner:          session.Owner,
		CreatedAt:      session.CreatedAt,
		LastAccessedAt: session.LastAccessed(),
		GameState:      session.Engine.GetState(),
	}

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session data: %w", err)
	}

	fp.mu.Lock()
	defer fp.mu.Unlock()

	// Write then rename so a crash never leaves half a file behind
	filePath := fp.getFilePath(session.ID)
	tmpPath := filePath + ".tmp"
	if err := os.WriteFile(tmpPath, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := os.Rename(tmpPath, filePath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write session file: %w", err)
	}

	return nil
}

// Load retrieves a session from a JSON file. A game that was running
// when it was saved is restored paused.
func (fp *FilePersistence) Load(id string) (*service.Session, error) {
	fp.mu.Lock()
	jsonData, err := os.ReadFile(fp.getFilePath(id))
	fp.mu.Unlock()
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var data PersistedSessionData
	if err := json.Unmarshal(jsonData, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session data: %w", err)
	}
	if data.GameState == nil {
		return nil, fmt.Errorf("session %s has no game state", id)
	}

	gameConfig, err := fp.loadConfig(data.ConfigID)
	if err != nil {
		return nil, fmt.Errorf("failed to load config '%s': %w", data.ConfigID, err)
	}

	gameEngine, err := engine.NewEngine(gameConfig, fp.engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create game engine: %w", err)
	}

	if err := gameEngine.SetState(data.GameState); err != nil {
		gameEngine.Close()
		return nil, fmt.Errorf("failed to set game state: %w", err)
	}

	if data.ID == "" {
		data.ID = id
	}

	return &service.Session{
		ID:             strings.ToLower(data.ID),
		Engine:         gameEngine,
		Config:         gameConfig,
		ConfigID:       data.ConfigID,
		Owner:          data.Owner,
		CreatedAt:      data.CreatedAt,
		LastAccessedAt: data.LastAccessedAt,
	}, nil
}

// loadConfig resolves the stored config ID, falling back to the default
// preset for sessions saved without one
func (fp *FilePersistence) loadConfig(configID string) (*engine.GameConfig, error) {
	if configID == "" {
		return fp.configManager.GetDefault(), nil
	}
	return fp.configManager.LoadConfig(configID)
}

// Delete removes a session file
func (fp *FilePersistence) Delete(id string) error {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	if err := os.Remove(fp.getFilePath(id)); err != nil {
		if os.IsNotExist(err) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("failed to remove session file: %w", err)
	}

	return nil
}

// ListAll returns all persisted session IDs
func (fp *FilePersistence) ListAll() ([]string, error) {
	entries, err := os.ReadDir(fp.sessionsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read sessions directory: %w", err)
	}

	var sessionIDs []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if strings.HasSuffix(name, ".json") {
			sessionIDs = append(sessionIDs, strings.TrimSuffix(name, ".json"))
		}
	}

	return sessionIDs, nil
}

// Exists checks if a session file exists
func (fp *FilePersistence) Exists(id string) bool {
	_, err := os.Stat(fp.getFilePath(id))
	return err == nil
}

func (fp *FilePersistence) getFilePath(id string) string {
	return filepath.Join(fp.sessionsDir, fmt.Sprintf("%s.json", strings.ToLower(id)))
}
