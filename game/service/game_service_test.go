package service_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/wricardo/snake-arcade/game/engine"
	"github.com/wricardo/snake-arcade/game/service"
	"golang.org/x/crypto/bcrypt"
)

// MockSessionManager implements service.SessionManager with manually stepped engines
type MockSessionManager struct {
	mu         sync.Mutex
	sessions   map[string]*service.Session
	schedulers map[string]*engine.ManualScheduler
	saves      map[string]int
}

func NewMockSessionManager() *MockSessionManager {
	return &MockSessionManager{
		sessions:   make(map[string]*service.Session),
		schedulers: make(map[string]*engine.ManualScheduler),
		saves:      make(map[string]int),
	}
}

func (m *MockSessionManager) Create(id, configID string, config *engine.GameConfig, owner service.Owner) (*service.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Generate ID if empty (mimics real session manager behavior)
	if id == "" {
		id = fmt.Sprintf("test_%d", len(m.sessions)+1)
	}
	if _, exists := m.sessions[id]; exists {
		return nil, errors.New("session already exists")
	}

	scheduler := engine.NewManualScheduler()
	eng, err := engine.NewEngine(config, engine.WithScheduler(scheduler), engine.WithRand(rand.New(rand.NewSource(1))))
	if err != nil {
		return nil, err
	}

	session := &service.Session{
		ID:             id,
		Engine:         eng,
		Config:         config,
		ConfigID:       configID,
		Owner:          owner,
		CreatedAt:      time.Now(),
		LastAccessedAt: time.Now(),
	}

	m.sessions[id] = session
	m.schedulers[id] = scheduler
	return session, nil
}

func (m *MockSessionManager) Get(id string) (*service.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, exists := m.sessions[id]
	if !exists {
		return nil, service.ErrSessionNotFound
	}
	return session, nil
}

func (m *MockSessionManager) List() []*service.Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]*service.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}
	return result
}

func (m *MockSessionManager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, exists := m.sessions[id]
	if !exists {
		return service.ErrSessionNotFound
	}
	session.Engine.Close()
	delete(m.sessions, id)
	return nil
}

func (m *MockSessionManager) UpdateLastAccessed(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if session, exists := m.sessions[id]; exists {
		session.Touch(time.Now())
		return nil
	}
	return service.ErrSessionNotFound
}

func (m *MockSessionManager) Save(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[id]; !exists {
		return service.ErrSessionNotFound
	}
	m.saves[id]++
	return nil
}

func (m *MockSessionManager) scheduler(id string) *engine.ManualScheduler {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.schedulers[id]
}

// MockConfigManager implements service.ConfigManager for testing
type MockConfigManager struct {
	configs map[string]*engine.GameConfig
}

func NewMockConfigManager() *MockConfigManager {
	defaultConfig := engine.DefaultGameConfig()
	defaultConfig.Name = "test"
	defaultConfig.Description = "Test configuration"
	defaultConfig.GridSize = 5

	return &MockConfigManager{
		configs: map[string]*engine.GameConfig{
			"test": defaultConfig,
		},
	}
}

func (m *MockConfigManager) LoadConfig(name string) (*engine.GameConfig, error) {
	config, exists := m.configs[name]
	if !exists {
		return nil, service.ErrConfigNotFound
	}
	return config, nil
}

func (m *MockConfigManager) ListConfigs() ([]*service.ConfigInfo, error) {
	result := make([]*service.ConfigInfo, 0, len(m.configs))
	for name, config := range m.configs {
		result = append(result, &service.ConfigInfo{
			Filename:    name + ".json",
			ConfigID:    name,
			Name:        config.Name,
			Description: config.Description,
			GridSize:    config.GridSize,
		})
	}
	return result, nil
}

func (m *MockConfigManager) GetDefault() *engine.GameConfig {
	return m.configs["test"]
}

func (m *MockConfigManager) SaveConfig(name string, config *engine.GameConfig) error {
	m.configs[name] = config
	return nil
}

// MockNotifier records everything pushed to clients
type MockNotifier struct {
	mu     sync.Mutex
	states int
	events []string
	data   []interface{}
}

func (n *MockNotifier) BroadcastState(sessionID string, state *engine.GameState) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.states++
}

func (n *MockNotifier) BroadcastEvent(sessionID, event string, data interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	n.data = append(n.data, data)
}

func (n *MockNotifier) count(event string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	count := 0
	for _, e := range n.events {
		if e == event {
			count++
		}
	}
	return count
}

// MockAccountStore keeps accounts in memory
type MockAccountStore struct {
	mu      sync.Mutex
	users   map[string]*service.User
	hashes  map[string]string
	stats   map[string]*service.UserStats
	tokens  map[string]string
	records []*service.GameRecord
}

func NewMockAccountStore() *MockAccountStore {
	return &MockAccountStore{
		users:  make(map[string]*service.User),
		hashes: make(map[string]string),
		stats:  make(map[string]*service.UserStats),
		tokens: make(map[string]string),
	}
}

func (m *MockAccountStore) CreateUser(ctx context.Context, username, passwordHash string, createdAt time.Time) (*service.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.users[username]; exists {
		return nil, service.ErrUsernameTaken
	}
	user := &service.User{Username: username, CreatedAt: createdAt}
	m.users[username] = user
	m.hashes[username] = passwordHash
	m.stats[username] = &service.UserStats{Username: username}
	copied := *user
	return &copied, nil
}

func (m *MockAccountStore) GetCredentials(ctx context.Context, username string) (*service.User, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, exists := m.users[username]
	if !exists {
		return nil, "", service.ErrUserNotFound
	}
	copied := *user
	return &copied, m.hashes[username], nil
}

func (m *MockAccountStore) TouchLogin(ctx context.Context, username string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if user, exists := m.users[username]; exists {
		user.LastLoginAt = at
		m.stats[username].LastLoginAt = at
	}
	return nil
}

func (m *MockAccountStore) SaveToken(ctx context.Context, token, username string, createdAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[token] = username
	return nil
}

func (m *MockAccountStore) LookupToken(ctx context.Context, token string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	username, exists := m.tokens[token]
	if !exists {
		return "", service.ErrUnauthorized
	}
	return username, nil
}

func (m *MockAccountStore) DeleteToken(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, token)
	return nil
}

func (m *MockAccountStore) RecordGame(ctx context.Context, record *service.GameRecord) (*service.UserStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats, exists := m.stats[record.Username]
	if !exists {
		return nil, service.ErrUserNotFound
	}
	m.records = append(m.records, record)
	stats.GamesPlayed++
	stats.TotalScore += record.Score
	if record.Score > stats.HighScore {
		stats.HighScore = record.Score
	}
	copied := *stats
	return &copied, nil
}

func (m *MockAccountStore) GetStats(ctx context.Context, username string) (*service.UserStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats, exists := m.stats[username]
	if !exists {
		return nil, service.ErrUserNotFound
	}
	copied := *stats
	return &copied, nil
}

func (m *MockAccountStore) Leaderboard(ctx context.Context, limit int) ([]*service.LeaderboardEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := make([]*service.LeaderboardEntry, 0, len(m.stats))
	for _, stats := range m.stats {
		if stats.GamesPlayed == 0 {
			continue
		}
		entries = append(entries, &service.LeaderboardEntry{Username: stats.Username, HighScore: stats.HighScore, GamesPlayed: stats.GamesPlayed})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].HighScore != entries[j].HighScore {
			return entries[i].HighScore > entries[j].HighScore
		}
		return entries[i].Username < entries[j].Username
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	for i, e := range entries {
		e.Rank = i + 1
	}
	return entries, nil
}

func (m *MockAccountStore) RecentGames(ctx context.Context, username string, limit int) ([]*service.GameRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var records []*service.GameRecord
	for i := len(m.records) - 1; i >= 0 && len(records) < limit; i-- {
		if m.records[i].Username == username {
			records = append(records, m.records[i])
		}
	}
	return records, nil
}

func (m *MockAccountStore) recordCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

type testHarness struct {
	svc      service.GameService
	accounts service.AccountService
	sessions *MockSessionManager
	store    *MockAccountStore
	notifier *MockNotifier
}

func newTestHarness() *testHarness {
	sessions := NewMockSessionManager()
	store := NewMockAccountStore()
	accounts := service.NewAccountService(store, service.WithPasswordCost(bcrypt.MinCost))
	notifier := &MockNotifier{}

	return &testHarness{
		svc:      service.NewGameService(sessions, NewMockConfigManager(), accounts, notifier),
		accounts: accounts,
		sessions: sessions,
		store:    store,
		notifier: notifier,
	}
}

// playUntilOver steps the session until the snake leaves the 5x5 board
func (h *testHarness) playUntilOver(t *testing.T, sessionID string) *engine.GameState {
	t.Helper()
	scheduler := h.sessions.scheduler(sessionID)
	for i := 0; i < 20; i++ {
		scheduler.Fire()
		state, err := h.svc.GetGameState(context.Background(), sessionID)
		if err != nil {
			t.Fatalf("GetGameState failed: %v", err)
		}
		if state.GameOver {
			return state
		}
	}
	t.Fatal("Expected the game to end")
	return nil
}

// Test cases
func TestGameService_CreateSession(t *testing.T) {
	ctx := context.Background()
	h := newTestHarness()

	tests := []struct {
		name       string
		configName string
		wantErr    error
	}{
		{"create with default config", "", nil},
		{"create with named config", "test", nil},
		{"create with unknown config", "nonexistent", service.ErrConfigNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := h.svc.CreateSession(ctx, tt.configName, "")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("CreateSession failed: %v", err)
			}
			if info.ID == "" {
				t.Error("Expected a session ID")
			}
			if info.ConfigName != "test" {
				t.Errorf("Expected config id 'test', got %q", info.ConfigName)
			}
			if !info.Owner.Guest {
				t.Error("Expected an anonymous session to be a guest session")
			}
			if info.GameState == nil || info.GameState.Phase != engine.PhaseIdle {
				t.Error("Expected an idle game state")
			}
		})
	}
}

func TestGameService_CreateSessionWithToken(t *testing.T) {
	ctx := context.Background()
	h := newTestHarness()

	auth, err := h.accounts.Register(ctx, "alice", "secret1", "secret1")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	h.store.RecordGame(ctx, &service.GameRecord{Username: "alice", Score: 150})

	info, err := h.svc.CreateSession(ctx, "test", auth.Token)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	if info.Owner.Username != "alice" || info.Owner.Guest {
		t.Errorf("Expected alice to own the session, got %+v", info.Owner)
	}
	if info.GameState.HighScore != 150 {
		t.Errorf("Expected high score seeded to 150, got %d", info.GameState.HighScore)
	}

	if _, err := h.svc.CreateSession(ctx, "test", "bogus"); !errors.Is(err, service.ErrUnauthorized) {
		t.Errorf("Expected ErrUnauthorized for an unknown token, got %v", err)
	}
}

func TestGameService_SessionNotFound(t *testing.T) {
	ctx := context.Background()
	h := newTestHarness()

	if _, err := h.svc.GetSession(ctx, "nope"); !errors.Is(err, service.ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
	if _, err := h.svc.Start(ctx, "nope"); !errors.Is(err, service.ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
	if err := h.svc.DeleteSession(ctx, "nope"); !errors.Is(err, service.ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestGameService_ControlFlow(t *testing.T) {
	ctx := context.Background()
	h := newTestHarness()

	info, _ := h.svc.CreateSession(ctx, "", "")

	result, err := h.svc.TogglePause(ctx, info.ID)
	if err != nil {
		t.Fatalf("TogglePause failed: %v", err)
	}
	if result.Accepted {
		t.Error("Expected pause while idle to be rejected")
	}

	result, _ = h.svc.Start(ctx, info.ID)
	if !result.Accepted || !result.GameState.Running {
		t.Errorf("Expected start to be accepted, got %+v", result)
	}

	result, _ = h.svc.Start(ctx, info.ID)
	if result.Accepted {
		t.Error("Expected second start to be rejected")
	}

	result, _ = h.svc.TogglePause(ctx, info.ID)
	if !result.Accepted || !result.GameState.Paused {
		t.Error("Expected pause to be accepted")
	}

	result, _ = h.svc.Restart(ctx, info.ID)
	if !result.Accepted || result.GameState.Running {
		t.Error("Expected restart to return to idle")
	}
}

func TestGameService_SetDirection(t *testing.T) {
	ctx := context.Background()
	h := newTestHarness()
	info, _ := h.svc.CreateSession(ctx, "", "")

	if _, err := h.svc.SetDirection(ctx, info.ID, "diagonal"); !errors.Is(err, service.ErrInvalidDirection) {
		t.Errorf("Expected ErrInvalidDirection, got %v", err)
	}

	result, err := h.svc.SetDirection(ctx, info.ID, "left")
	if err != nil {
		t.Fatalf("SetDirection failed: %v", err)
	}
	if result.Accepted {
		t.Error("Expected reversal to be rejected")
	}

	result, _ = h.svc.SetDirection(ctx, info.ID, "UP")
	if !result.Accepted || result.GameState.PendingDirection != engine.Up {
		t.Errorf("Expected up to be pending, got %+v", result.GameState)
	}
}

func TestGameService_HandleKey(t *testing.T) {
	ctx := context.Background()
	h := newTestHarness()
	info, _ := h.svc.CreateSession(ctx, "", "")

	result, _ := h.svc.HandleKey(ctx, info.ID, "ArrowUp")
	if result.Accepted {
		t.Error("Expected direction keys to be ignored before the game starts")
	}

	result, _ = h.svc.HandleKey(ctx, info.ID, "Space")
	if !result.Accepted || result.GameState.Phase != engine.PhaseRunning {
		t.Fatalf("Expected space to start the game, got %+v", result)
	}

	result, _ = h.svc.HandleKey(ctx, info.ID, "KeyW")
	if !result.Accepted || result.GameState.PendingDirection != engine.Up {
		t.Error("Expected W to steer up")
	}

	result, _ = h.svc.HandleKey(ctx, info.ID, "Space")
	if !result.Accepted || !result.GameState.Paused {
		t.Error("Expected space to pause")
	}

	result, _ = h.svc.HandleKey(ctx, info.ID, "ArrowLeft")
	if result.Accepted {
		t.Error("Expected direction keys to be ignored while paused")
	}

	result, _ = h.svc.HandleKey(ctx, info.ID, "Escape")
	if result.Accepted {
		t.Error("Expected unsupported keys to be rejected")
	}
}

func TestGameService_SpaceRestartsFinishedGame(t *testing.T) {
	ctx := context.Background()
	h := newTestHarness()
	info, _ := h.svc.CreateSession(ctx, "", "")

	h.svc.Start(ctx, info.ID)
	h.playUntilOver(t, info.ID)

	result, err := h.svc.HandleKey(ctx, info.ID, "Space")
	if err != nil {
		t.Fatalf("HandleKey failed: %v", err)
	}
	if !result.Accepted || result.GameState.Phase != engine.PhaseRunning || result.GameState.Score != 0 {
		t.Errorf("Expected a fresh running game, got %+v", result.GameState)
	}
}

func TestGameService_GameOverRecordsRegisteredUser(t *testing.T) {
	ctx := context.Background()
	h := newTestHarness()

	auth, _ := h.accounts.Register(ctx, "bob_1", "hunter22", "hunter22")
	info, _ := h.svc.CreateSession(ctx, "test", auth.Token)

	h.svc.Start(ctx, info.ID)
	final := h.playUntilOver(t, info.ID)

	if h.store.recordCount() != 1 {
		t.Fatalf("Expected one game record, got %d", h.store.recordCount())
	}
	stats, err := h.accounts.Stats(ctx, auth.Token)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.GamesPlayed != 1 || stats.TotalScore != final.Score {
		t.Errorf("Expected 1 game totalling %d, got %+v", final.Score, stats)
	}
	if h.notifier.count("game_over") != 1 {
		t.Errorf("Expected one game_over broadcast, got %d", h.notifier.count("game_over"))
	}

	h.sessions.mu.Lock()
	saves := h.sessions.saves[info.ID]
	h.sessions.mu.Unlock()
	if saves != 2 {
		t.Errorf("Expected the session to be saved on start and on game over, got %d saves", saves)
	}
}

func TestGameService_GuestGamesNotRecorded(t *testing.T) {
	ctx := context.Background()
	h := newTestHarness()

	auth, _ := h.accounts.GuestLogin(ctx)
	info, err := h.svc.CreateSession(ctx, "test", auth.Token)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if !info.Owner.Guest {
		t.Error("Expected guest owner")
	}

	h.svc.Start(ctx, info.ID)
	h.playUntilOver(t, info.ID)

	if h.store.recordCount() != 0 {
		t.Errorf("Expected no records for a guest, got %d", h.store.recordCount())
	}
	if h.notifier.count("game_over") != 1 {
		t.Error("Expected guests to still get the game_over broadcast")
	}
}

func TestGameService_BroadcastsState(t *testing.T) {
	ctx := context.Background()
	h := newTestHarness()
	info, _ := h.svc.CreateSession(ctx, "", "")

	h.svc.Start(ctx, info.ID)
	h.sessions.scheduler(info.ID).Fire()

	h.notifier.mu.Lock()
	states := h.notifier.states
	h.notifier.mu.Unlock()
	if states < 2 {
		t.Errorf("Expected state broadcasts for start and tick, got %d", states)
	}
}

func TestGameService_DeleteSession(t *testing.T) {
	ctx := context.Background()
	h := newTestHarness()
	info, _ := h.svc.CreateSession(ctx, "", "")

	if err := h.svc.DeleteSession(ctx, info.ID); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}
	sessions, _ := h.svc.ListSessions(ctx)
	if len(sessions) != 0 {
		t.Errorf("Expected no sessions, got %d", len(sessions))
	}
}

func TestGameService_NilCollaborators(t *testing.T) {
	ctx := context.Background()
	svc := service.NewGameService(NewMockSessionManager(), NewMockConfigManager(), nil, nil)

	info, err := svc.CreateSession(ctx, "", "ignored-token")
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if _, err := svc.Start(ctx, info.ID); err != nil {
		t.Errorf("Start failed: %v", err)
	}
}

func TestGameService_VictoryReportedAfterImmediateRestart(t *testing.T) {
	ctx := context.Background()
	h := newTestHarness()

	config, _ := NewMockConfigManager().LoadConfig("test")
	sess, err := h.sessions.Create("full", "test", config, service.Owner{})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Fill the 5x5 board row by row, leaving only (4,4) for the food
	var path []engine.Cell
	for y := 0; y < 5; y++ {
		for i := 0; i < 5; i++ {
			x := i
			if y%2 == 1 {
				x = 4 - i
			}
			path = append(path, engine.Cell{X: x, Y: y})
		}
	}
	state := sess.Engine.GetState()
	state.Snake = nil
	for i := 23; i >= 0; i-- {
		state.Snake = append(state.Snake, path[i])
	}
	state.Direction = engine.Right
	state.PendingDirection = engine.Right
	state.Food = &engine.Food{Cell: engine.Cell{X: 4, Y: 4}, Type: engine.Apple}
	if err := sess.Engine.SetState(state); err != nil {
		t.Fatalf("SetState failed: %v", err)
	}

	// Another observer restarts the board before the service hears about the win
	sess.Engine.AddObserver(engine.Observer{
		OnGameOver: func(score, highScore int, victory bool) {
			sess.Engine.Restart()
		},
	})

	result, err := h.svc.Start(ctx, "full")
	if err != nil || !result.Accepted {
		t.Fatalf("Expected start to be accepted, got %+v (%v)", result, err)
	}
	h.sessions.scheduler("full").Fire()

	h.notifier.mu.Lock()
	defer h.notifier.mu.Unlock()
	found := false
	for i, event := range h.notifier.events {
		if event != "game_over" {
			continue
		}
		found = true
		data := h.notifier.data[i].(map[string]interface{})
		if data["victory"] != true {
			t.Errorf("Expected the game over event to report the victory, got %v", data)
		}
	}
	if !found {
		t.Fatal("Expected a game_over broadcast")
	}
}
