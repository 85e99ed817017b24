package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/wricardo/snake-arcade/game/engine"
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	accounts AccountService
	notifier Notifier
	mu       sync.RWMutex
}

// NewGameService creates a new game service instance.
// accounts and notifier may be nil: every session is then an anonymous guest
// and nothing is pushed to live clients.
func NewGameService(sessions SessionManager, configs ConfigManager, accounts AccountService, notifier Notifier) GameService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
		accounts: accounts,
		notifier: notifier,
	}
}

type noopNotifier struct{}

func (noopNotifier) BroadcastState(string, *engine.GameState)   {}
func (noopNotifier) BroadcastEvent(string, string, interface{}) {}

// getConfigID returns the config_id for a given config name, used for consistent API responses
func (s *gameServiceImpl) getConfigID(configName string) string {
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == configName {
				return cfg.ConfigID
			}
		}
	}
	if configName == "" {
		return "default"
	}
	return configName
}

// CreateSession creates a new game session owned by the token's user.
// An empty token creates an anonymous guest session.
func (s *gameServiceImpl) CreateSession(ctx context.Context, configName, token string) (*SessionInfo, error) {
	owner := Owner{Guest: true}
	if token != "" && s.accounts != nil {
		user, err := s.accounts.CurrentUser(ctx, token)
		if err != nil {
			return nil, err
		}
		owner = user.Owner()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var config *engine.GameConfig
	var err error
	if configName != "" {
		config, err = s.configs.LoadConfig(configName)
		if err != nil {
			return nil, s.configError(configName, err)
		}
	} else {
		config = s.configs.GetDefault()
	}

	configID := configName
	if configID == "" {
		configID = s.getConfigID(config.Name)
	}

	sess, err := s.sessions.Create("", configID, config, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.attach(ctx, sess)
	log.Printf("[GAME] session=%s created config=%s owner=%s", sess.ID, configID, owner.Username)

	return s.sessionInfo(sess), nil
}

// configError lists the available configs when the requested one is missing
func (s *gameServiceImpl) configError(configName string, err error) error {
	if !errors.Is(err, ErrConfigNotFound) {
		return fmt.Errorf("failed to load config %s: %w", configName, err)
	}

	availableConfigs, listErr := s.configs.ListConfigs()
	if listErr == nil && len(availableConfigs) > 0 {
		var configIDs []string
		for _, cfg := range availableConfigs {
			configIDs = append(configIDs, cfg.ConfigID)
		}
		return fmt.Errorf("%w: '%s'. Available configs: %v", ErrConfigNotFound, configName, configIDs)
	}
	return fmt.Errorf("%w: '%s'. Use /api/configs to list available configurations", ErrConfigNotFound, configName)
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.sessionInfo(sess), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.sessionInfo(sess))
	}
	return result, nil
}

// DeleteSession removes a session and stops its game
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Delete(sessionID); err != nil {
		return fmt.Errorf("session %s: %w", sessionID, err)
	}
	return nil
}

// Start begins an idle game
func (s *gameServiceImpl) Start(ctx context.Context, sessionID string) (*ControlResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	accepted := sess.Engine.Start()
	s.persistIf(accepted, sess)
	return controlResult(sess, accepted, "Game started", "Game is not idle; restart it first"), nil
}

// TogglePause pauses or resumes a game
func (s *gameServiceImpl) TogglePause(ctx context.Context, sessionID string) (*ControlResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	accepted := sess.Engine.TogglePause()
	s.persistIf(accepted, sess)
	return controlResult(sess, accepted, "", "Game is not running"), nil
}

// Restart resets the game to idle without starting it
func (s *gameServiceImpl) Restart(ctx context.Context, sessionID string) (*ControlResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	sess.Engine.Restart()
	s.persistIf(true, sess)
	return controlResult(sess, true, "", ""), nil
}

// SetDirection buffers a direction for the next tick
func (s *gameServiceImpl) SetDirection(ctx context.Context, sessionID, direction string) (*ControlResult, error) {
	d, ok := engine.ParseDirection(direction)
	if !ok {
		return nil, fmt.Errorf("%w: %q (use up, down, left or right)", ErrInvalidDirection, direction)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	accepted := sess.Engine.SetDirection(d)
	return controlResult(sess, accepted, fmt.Sprintf("Direction set to %s", d), "Cannot reverse into the snake"), nil
}

// HandleKey applies a browser key code the way the game page does: Space
// starts, restarts or pauses; arrows and WASD steer a running game.
func (s *gameServiceImpl) HandleKey(ctx context.Context, sessionID, code string) (*ControlResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if code == "Space" {
		var accepted bool
		message := ""
		switch sess.Engine.GetState().Phase {
		case engine.PhaseIdle:
			accepted, message = sess.Engine.Start(), "Game started"
		case engine.PhaseGameOver:
			sess.Engine.Restart()
			accepted, message = sess.Engine.Start(), "Game restarted"
		default:
			accepted = sess.Engine.TogglePause()
		}
		s.persistIf(accepted, sess)
		return controlResult(sess, accepted, message, ""), nil
	}

	d, ok := engine.DirectionFromKey(code)
	if !ok {
		return controlResult(sess, false, "", fmt.Sprintf("Unsupported key %q", code)), nil
	}
	if !sess.Engine.IsRunning() || sess.Engine.IsPaused() {
		return controlResult(sess, false, "", "Game is not running"), nil
	}

	accepted := sess.Engine.SetDirection(d)
	return controlResult(sess, accepted, fmt.Sprintf("Direction set to %s", d), "Cannot reverse into the snake"), nil
}

// GetGameState returns the current game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return sess.Engine.GetState(), nil
}

// ListConfigs returns all available configurations
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific game configuration
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a game configuration to disk
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	return s.configs.SaveConfig(configName, config)
}

// session looks up a session, marks it accessed and makes sure its observers are wired
func (s *gameServiceImpl) session(ctx context.Context, sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}

	s.sessions.UpdateLastAccessed(sessionID)
	s.attach(ctx, sess)
	return sess, nil
}

// attach seeds the high score baseline from the owner's stats and subscribes
// to the session's engine. Sessions restored from disk are attached on first use.
func (s *gameServiceImpl) attach(ctx context.Context, sess *Session) {
	sess.attach.Do(func() {
		if s.accounts != nil && sess.Owner.Registered() {
			high, err := s.accounts.HighScore(ctx, sess.Owner)
			if err != nil {
				log.Printf("Warning: failed to load high score for %s: %v", sess.Owner.Username, err)
			} else if high > sess.Engine.GetHighScore() {
				sess.Engine.SetHighScore(high)
			}
		}

		sess.Engine.AddObserver(engine.Observer{
			OnScoreUpdate: func(score, highScore int) {
				s.notifier.BroadcastEvent(sess.ID, "score_update", map[string]int{
					"score":      score,
					"high_score": highScore,
				})
			},
			OnGameOver: func(score, highScore int, victory bool) {
				s.finishRun(sess, score, highScore, victory)
			},
			OnStateChange: func(state *engine.GameState) {
				s.notifier.BroadcastState(sess.ID, state)
			},
		})
	})
}

// persistIf saves the session after an accepted phase change. Direction
// input is left to the periodic sync.
func (s *gameServiceImpl) persistIf(changed bool, sess *Session) {
	if !changed {
		return
	}
	if err := s.sessions.Save(sess.ID); err != nil {
		log.Printf("Warning: failed to persist session %s: %v", sess.ID, err)
	}
}

// finishRun runs on the tick goroutine once per finished game.
// It must not take s.mu: a control call holding it may be waiting on the engine.
func (s *gameServiceImpl) finishRun(sess *Session, score, highScore int, victory bool) {
	log.Printf("[GAME] session=%s over score=%d high=%d victory=%v", sess.ID, score, highScore, victory)

	if s.accounts != nil && sess.Owner.Registered() {
		if _, err := s.accounts.RecordGame(context.Background(), sess.Owner, score, sess.ConfigID); err != nil {
			log.Printf("Warning: failed to record game for %s: %v", sess.Owner.Username, err)
		}
	}

	if err := s.sessions.Save(sess.ID); err != nil {
		log.Printf("Warning: failed to persist session %s after game over: %v", sess.ID, err)
	}

	s.notifier.BroadcastEvent(sess.ID, "game_over", map[string]interface{}{
		"score":      score,
		"high_score": highScore,
		"victory":    victory,
	})
}

func (s *gameServiceImpl) sessionInfo(sess *Session) *SessionInfo {
	configID := sess.ConfigID
	if configID == "" {
		configID = s.getConfigID(sess.Config.Name)
	}

	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     configID,
		Owner:          sess.Owner,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessed(),
		GameState:      sess.Engine.GetState(),
		GameConfig:     sess.Config,
	}
}

func controlResult(sess *Session, accepted bool, acceptedMsg, rejectedMsg string) *ControlResult {
	state := sess.Engine.GetState()

	message := state.Message
	if accepted && acceptedMsg != "" && message == "" {
		message = acceptedMsg
	}
	if !accepted && rejectedMsg != "" {
		message = rejectedMsg
	}

	return &ControlResult{
		Accepted:  accepted,
		GameState: state,
		Message:   message,
	}
}
