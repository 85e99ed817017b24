package engine

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// Engine provides the main interface for game operations
type Engine interface {
	// Lifecycle
	Reset()
	Restart()
	Start() bool
	TogglePause() bool
	Close()

	// Input
	SetDirection(d Direction) bool

	// State
	GetState() *GameState
	SetState(state *GameState) error
	SetHighScore(value int)
	GetConfig() *GameConfig
	GetScore() int
	GetHighScore() int
	IsRunning() bool
	IsPaused() bool
	IsGameOver() bool

	// Notifications
	AddObserver(observer Observer)
}

// Observer receives engine notifications. Any field may be nil.
// Callbacks run after the engine lock is released and may call back into the engine.
type Observer struct {
	OnScoreUpdate func(score, highScore int)
	OnGameOver    func(score, highScore int, victory bool)
	OnStateChange func(state *GameState)
}

// Option configures a GameEngine
type Option func(*GameEngine)

// WithScheduler sets the tick source. Defaults to TickerScheduler.
func WithScheduler(scheduler Scheduler) Option {
	return func(e *GameEngine) {
		e.scheduler = scheduler
	}
}

// WithRand sets the random source used for food placement
func WithRand(rng *rand.Rand) Option {
	return func(e *GameEngine) {
		e.rng = rng
	}
}

// GameEngine implements the Engine interface
type GameEngine struct {
	mu         sync.Mutex
	config     *GameConfig
	state      *GameState
	rng        *rand.Rand
	scheduler  Scheduler
	stopTimer  func()
	generation uint64
	observers  []Observer
	closed     bool
}

// NewEngine creates a new game engine with the provided configuration.
// A nil config selects DefaultGameConfig.
func NewEngine(config *GameConfig, opts ...Option) (*GameEngine, error) {
	if config == nil {
		config = DefaultGameConfig()
	}

	cfg := *config
	cfg.FoodTypes = append([]FoodType(nil), config.FoodTypes...)
	ApplyDefaults(&cfg)
	if err := ValidateGameConfig(&cfg); err != nil {
		return nil, err
	}

	e := &GameEngine{
		config:    &cfg,
		scheduler: TickerScheduler{},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	e.mu.Lock()
	e.resetLocked()
	e.mu.Unlock()

	return e, nil
}

// NewEngineWithDefaults creates a new game engine with the classic configuration
func NewEngineWithDefaults(opts ...Option) *GameEngine {
	e, err := NewEngine(DefaultGameConfig(), opts...)
	if err != nil {
		panic(fmt.Sprintf("default config is invalid: %v", err))
	}
	return e
}

// AddObserver registers an observer for score, game-over and state notifications
func (e *GameEngine) AddObserver(observer Observer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.observers = append(e.observers, observer)
}

// Reset returns the game to the idle state with a fresh snake and food.
// The high score baseline survives.
func (e *GameEngine) Reset() {
	e.mu.Lock()
	e.resetLocked()
	snapshot, observers := e.snapshotLocked()
	e.mu.Unlock()

	notifyStateChange(observers, snapshot)
}

// Restart resets the game and tells observers the score went back to zero.
// It does not start the new run.
func (e *GameEngine) Restart() {
	e.mu.Lock()
	e.resetLocked()
	snapshot, observers := e.snapshotLocked()
	e.mu.Unlock()

	for _, o := range observers {
		if o.OnScoreUpdate != nil {
			o.OnScoreUpdate(snapshot.Score, snapshot.HighScore)
		}
	}
	notifyStateChange(observers, snapshot)
}

func (e *GameEngine) resetLocked() {
	e.cancelLocked()

	highScore := 0
	if e.state != nil {
		highScore = e.state.HighScore
	}

	e.state = InitGameStateFromConfig(e.config)
	e.state.HighScore = highScore
	e.state.SpawnFood(e.config, e.rng)
}

// SetHighScore overwrites the high score baseline, typically from persisted stats.
// The current score is left alone and still bounds the high score from below.
func (e *GameEngine) SetHighScore(value int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if value < e.state.Score {
		value = e.state.Score
	}
	e.state.HighScore = value
}

// Start begins an idle game. It reports false when the game is already
// running, paused or over.
func (e *GameEngine) Start() bool {
	e.mu.Lock()
	if e.closed || e.state.Phase != PhaseIdle {
		e.mu.Unlock()
		return false
	}

	e.state.setPhase(PhaseRunning)
	e.state.Message = ""
	e.scheduleLocked()
	snapshot, observers := e.snapshotLocked()
	e.mu.Unlock()

	notifyStateChange(observers, snapshot)
	return true
}

// TogglePause pauses a running game or resumes a paused one.
// It reports false when there is nothing to toggle.
func (e *GameEngine) TogglePause() bool {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return false
	}

	switch e.state.Phase {
	case PhaseRunning:
		e.cancelLocked()
		e.state.setPhase(PhasePaused)
		e.state.Message = e.config.Messages.Paused
	case PhasePaused:
		e.state.setPhase(PhaseRunning)
		e.state.Message = ""
		e.scheduleLocked()
	default:
		e.mu.Unlock()
		return false
	}

	snapshot, observers := e.snapshotLocked()
	e.mu.Unlock()

	notifyStateChange(observers, snapshot)
	return true
}

// SetDirection buffers d for the next tick. Reversals of the committed
// direction are dropped and reported as false.
func (e *GameEngine) SetDirection(d Direction) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !d.Valid() || d == e.state.Direction.Opposite() {
		return false
	}
	e.state.PendingDirection = d
	return true
}

// tick is the timer callback. Ticks from a cancelled registration, or that
// arrive while the game is not running, are discarded.
func (e *GameEngine) tick(generation uint64) {
	e.mu.Lock()
	if e.closed || generation != e.generation || e.state.Phase != PhaseRunning {
		e.mu.Unlock()
		return
	}

	events := e.state.Advance(e.config, e.rng)
	for _, event := range events {
		switch event.Type {
		case EventSpeedChange:
			e.scheduleLocked()
		case EventGameOver, EventVictory:
			e.cancelLocked()
		}
	}

	snapshot, observers := e.snapshotLocked()
	e.mu.Unlock()

	for _, event := range events {
		for _, o := range observers {
			switch event.Type {
			case EventScoreUpdate:
				if o.OnScoreUpdate != nil {
					o.OnScoreUpdate(event.Score, event.HighScore)
				}
			case EventGameOver, EventVictory:
				if o.OnGameOver != nil {
					o.OnGameOver(event.Score, event.HighScore, event.Type == EventVictory)
				}
			}
		}
	}
	notifyStateChange(observers, snapshot)
}

// scheduleLocked replaces any active timer with one at the current interval
func (e *GameEngine) scheduleLocked() {
	e.cancelLocked()

	generation := e.generation
	interval := time.Duration(e.state.IntervalMs) * time.Millisecond
	e.stopTimer = e.scheduler.Every(interval, func() {
		e.tick(generation)
	})
}

// cancelLocked stops the active timer and invalidates ticks already in flight
func (e *GameEngine) cancelLocked() {
	if e.stopTimer != nil {
		e.stopTimer()
		e.stopTimer = nil
	}
	e.generation++
}

// Close stops the timer for good. Later Start and TogglePause calls are no-ops.
func (e *GameEngine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.cancelLocked()
	e.closed = true
}

// GetState returns a snapshot of the current game state
func (e *GameEngine) GetState() *GameState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

// SetState restores a persisted state. No timer survives a restore, so a
// running game comes back paused.
func (e *GameEngine) SetState(state *GameState) error {
	if state == nil {
		return fmt.Errorf("state cannot be nil")
	}
	if state.GridSize != e.config.GridSize {
		return fmt.Errorf("state grid size %d does not match config grid size %d", state.GridSize, e.config.GridSize)
	}
	if len(state.Snake) == 0 {
		return fmt.Errorf("state has an empty snake")
	}
	for _, c := range state.Snake {
		if !state.InBounds(c) {
			return fmt.Errorf("state snake cell (%d,%d) is outside the %dx%d board", c.X, c.Y, state.GridSize, state.GridSize)
		}
	}
	if state.Food != nil && !state.InBounds(state.Food.Cell) {
		return fmt.Errorf("state food (%d,%d) is outside the %dx%d board", state.Food.X, state.Food.Y, state.GridSize, state.GridSize)
	}

	restored := state.Clone()
	if restored.Phase == "" {
		restored.Phase = phaseFromFlags(restored)
	}
	if !restored.Direction.Valid() {
		restored.Direction = Right
	}
	if !restored.PendingDirection.Valid() {
		restored.PendingDirection = restored.Direction
	}
	if restored.Phase == PhaseRunning {
		restored.Phase = PhasePaused
		restored.Message = e.config.Messages.Paused
	}
	victory := restored.Victory
	restored.setPhase(restored.Phase)
	restored.Victory = victory && restored.Phase == PhaseGameOver
	if restored.HighScore < restored.Score {
		restored.HighScore = restored.Score
	}
	// The scheduler needs a positive interval
	if restored.IntervalMs < e.config.MinIntervalMs {
		restored.IntervalMs = e.config.MinIntervalMs
	}
	if restored.IntervalMs > e.config.BaseIntervalMs {
		restored.IntervalMs = e.config.BaseIntervalMs
	}

	e.mu.Lock()
	e.cancelLocked()
	e.state = restored
	if e.state.Food == nil && e.state.Phase != PhaseGameOver {
		e.state.SpawnFood(e.config, e.rng)
	}
	e.mu.Unlock()
	return nil
}

func phaseFromFlags(state *GameState) Phase {
	switch {
	case state.GameOver:
		return PhaseGameOver
	case state.Paused:
		return PhasePaused
	case state.Running:
		return PhaseRunning
	}
	return PhaseIdle
}

// GetConfig returns a copy of the engine configuration
func (e *GameEngine) GetConfig() *GameConfig {
	e.mu.Lock()
	defer e.mu.Unlock()

	cfg := *e.config
	cfg.FoodTypes = append([]FoodType(nil), e.config.FoodTypes...)
	return &cfg
}

// GetScore returns the current score
func (e *GameEngine) GetScore() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Score
}

// GetHighScore returns the current high score
func (e *GameEngine) GetHighScore() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.HighScore
}

// IsRunning reports whether a run is in progress, paused or not
func (e *GameEngine) IsRunning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Running
}

// IsPaused reports whether the game is paused
func (e *GameEngine) IsPaused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Paused
}

// IsGameOver reports whether the current run has ended
func (e *GameEngine) IsGameOver() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.GameOver
}

func (e *GameEngine) snapshotLocked() (*GameState, []Observer) {
	return e.state.Clone(), append([]Observer(nil), e.observers...)
}

func notifyStateChange(observers []Observer, snapshot *GameState) {
	for _, o := range observers {
		if o.OnStateChange != nil {
			o.OnStateChange(snapshot)
		}
	}
}
