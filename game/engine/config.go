package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultGameConfig returns the classic ruleset: a 20x20 board starting at
// 150ms per tick, 10ms faster every 50 points, never below 60ms.
func DefaultGameConfig() *GameConfig {
	config := &GameConfig{
		Name:           "classic",
		Description:    "The original 20x20 board",
		GridSize:       20,
		InitialLength:  3,
		BaseIntervalMs: 150,
		SpeedStepMs:    10,
		MinIntervalMs:  60,
		SpeedThreshold: 50,
		ScoreIncrement: 10,
		FoodTypes:      []FoodType{Apple, Mouse, Frog},
	}
	ApplyDefaults(config)
	return config
}

// ApplyDefaults fills optional fields left empty in a JSON preset
func ApplyDefaults(config *GameConfig) {
	if config.InitialLength == 0 {
		config.InitialLength = 3
	}
	if len(config.FoodTypes) == 0 {
		config.FoodTypes = []FoodType{Apple, Mouse, Frog}
	}
	if config.Messages.Ready == "" {
		config.Messages.Ready = "Press space or start to play"
	}
	if config.Messages.Paused == "" {
		config.Messages.Paused = "Paused - press space to continue"
	}
	if config.Messages.GameOver == "" {
		config.Messages.GameOver = "Game over! Score: %d | High score: %d"
	}
	if config.Messages.Victory == "" {
		config.Messages.Victory = "Board cleared! Score: %d | High score: %d"
	}
}

// ValidateGameConfig validates a game configuration for correctness and playability
func ValidateGameConfig(config *GameConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is required")
	}

	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}

	// Validate grid size
	if config.GridSize < MinGridSize || config.GridSize > MaxGridSize {
		return fmt.Errorf("config validation: grid_size must be between %d and %d, got %d", MinGridSize, MaxGridSize, config.GridSize)
	}

	// The starting snake extends left from the centre cell
	maxLength := config.GridSize/2 + 1
	if config.InitialLength < 1 || config.InitialLength > maxLength {
		return fmt.Errorf("config validation: initial_length must be between 1 and %d for grid_size %d, got %d",
			maxLength, config.GridSize, config.InitialLength)
	}

	// Validate speed settings
	if config.BaseIntervalMs < MinInterval || config.BaseIntervalMs > MaxInterval {
		return fmt.Errorf("config validation: base_interval_ms must be between %d and %d, got %d", MinInterval, MaxInterval, config.BaseIntervalMs)
	}
	if config.MinIntervalMs < MinInterval || config.MinIntervalMs > config.BaseIntervalMs {
		return fmt.Errorf("config validation: min_interval_ms must be between %d and base_interval_ms (%d), got %d",
			MinInterval, config.BaseIntervalMs, config.MinIntervalMs)
	}
	if config.SpeedStepMs < 0 {
		return fmt.Errorf("config validation: speed_step_ms cannot be negative, got %d", config.SpeedStepMs)
	}
	if config.SpeedThreshold <= 0 {
		return fmt.Errorf("config validation: speed_threshold must be positive, got %d", config.SpeedThreshold)
	}
	if config.ScoreIncrement <= 0 {
		return fmt.Errorf("config validation: score_increment must be positive, got %d", config.ScoreIncrement)
	}

	if len(config.FoodTypes) == 0 {
		return fmt.Errorf("config validation: food_types must not be empty")
	}
	for i, ft := range config.FoodTypes {
		if strings.TrimSpace(string(ft)) == "" {
			return fmt.Errorf("config validation: food_types[%d] is empty", i)
		}
	}

	// Validate format strings
	if config.Messages.GameOver != "" && strings.Count(config.Messages.GameOver, "%d") != 2 {
		return fmt.Errorf("config validation: messages.game_over must contain two %%d for score and high score")
	}
	if config.Messages.Victory != "" && strings.Count(config.Messages.Victory, "%d") != 2 {
		return fmt.Errorf("config validation: messages.victory must contain two %%d for score and high score")
	}

	return nil
}

// LoadGameConfig loads a game configuration from a JSON file
func LoadGameConfig(filename string) (*GameConfig, error) {
	// Support CONFIG_DIR environment variable for alternative config directory
	configPath := filename
	if configDir := os.Getenv("CONFIG_DIR"); configDir != "" {
		if strings.HasPrefix(filename, "configs/") {
			configPath = filepath.Join(configDir, strings.TrimPrefix(filename, "configs/"))
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	return ParseGameConfig(data)
}

// ParseGameConfig decodes, defaults and validates a JSON configuration
func ParseGameConfig(data []byte) (*GameConfig, error) {
	var config GameConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	ApplyDefaults(&config)

	if err := ValidateGameConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// InitGameStateFromConfig creates the initial state for a configuration.
// Food is not placed; the engine spawns it with its own random source.
func InitGameStateFromConfig(config *GameConfig) *GameState {
	if config == nil {
		config = DefaultGameConfig()
	}

	start := config.GridSize / 2
	snake := make([]Cell, config.InitialLength)
	for i := range snake {
		snake[i] = Cell{X: start - i, Y: start}
	}

	state := &GameState{
		GridSize:         config.GridSize,
		Snake:            snake,
		Direction:        Right,
		PendingDirection: Right,
		IntervalMs:       config.BaseIntervalMs,
		Message:          config.Messages.Ready,
		ConfigName:       config.Name,
	}
	state.setPhase(PhaseIdle)

	return state
}
