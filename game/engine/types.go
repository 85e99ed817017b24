package engine

// Direction is one of the four movement directions
type Direction string

const (
	Up    Direction = "up"
	Down  Direction = "down"
	Left  Direction = "left"
	Right Direction = "right"
)

// FoodType is the cosmetic kind of a food item
type FoodType string

const (
	Apple FoodType = "apple"
	Mouse FoodType = "mouse"
	Frog  FoodType = "frog"
)

// Phase is the lifecycle state of a game
type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhaseRunning  Phase = "running"
	PhasePaused   Phase = "paused"
	PhaseGameOver Phase = "game_over"
)

const (
	// Validation constants
	MinGridSize         = 5
	MaxGridSize         = 100
	MinInterval         = 10
	MaxInterval         = 2000
	WebSocketBufferSize = 256

	// Rejected samples before food placement falls back to enumerating free cells
	MaxFoodSamples = 64
)

// Cell represents x,y grid coordinates
type Cell struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Food is the single food item on the board
type Food struct {
	Cell
	Type FoodType `json:"type"`
}

// Messages holds the player-facing texts of a configuration
type Messages struct {
	Ready    string `json:"ready"`
	Paused   string `json:"paused"`
	GameOver string `json:"game_over"` // %d score, %d high score
	Victory  string `json:"victory"`   // %d score, %d high score
}

// GameConfig represents the game configuration from JSON
type GameConfig struct {
	Name           string     `json:"name"`
	Description    string     `json:"description"`
	GridSize       int        `json:"grid_size"`
	InitialLength  int        `json:"initial_length"`
	BaseIntervalMs int        `json:"base_interval_ms"`
	SpeedStepMs    int        `json:"speed_step_ms"`
	MinIntervalMs  int        `json:"min_interval_ms"`
	SpeedThreshold int        `json:"speed_threshold"`
	ScoreIncrement int        `json:"score_increment"`
	FoodTypes      []FoodType `json:"food_types"`
	Messages       Messages   `json:"messages"`
}

// GameState represents the complete game state
type GameState struct {
	GridSize         int       `json:"grid_size"`
	Snake            []Cell    `json:"snake"`
	Food             *Food     `json:"food"`
	Direction        Direction `json:"direction"`
	PendingDirection Direction `json:"pending_direction"`
	Score            int       `json:"score"`
	HighScore        int       `json:"high_score"`
	IntervalMs       int       `json:"interval_ms"`
	Phase            Phase     `json:"phase"`
	Running          bool      `json:"running"`
	Paused           bool      `json:"paused"`
	GameOver         bool      `json:"game_over"`
	Victory          bool      `json:"victory"`
	Message          string    `json:"message"`
	ConfigName       string    `json:"config_name"`
	Ticks            int       `json:"ticks"`
	FoodEaten        int       `json:"food_eaten"`
}

// EventType names something that happened during a tick
type EventType string

const (
	EventScoreUpdate EventType = "score_update"
	EventSpeedChange EventType = "speed_change"
	EventGameOver    EventType = "game_over"
	EventVictory     EventType = "victory"
)

// Event is emitted by Advance after the state has been mutated
type Event struct {
	Type       EventType `json:"type"`
	Score      int       `json:"score"`
	HighScore  int       `json:"high_score"`
	IntervalMs int       `json:"interval_ms,omitempty"`
	Head       Cell      `json:"head"`
}
