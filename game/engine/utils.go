package engine

import "strings"

// Directions lists the four directions in a stable order
var Directions = []Direction{Up, Down, Left, Right}

// Opposite returns the reverse direction
func (d Direction) Opposite() Direction {
	switch d {
	case Up:
		return Down
	case Down:
		return Up
	case Left:
		return Right
	case Right:
		return Left
	}
	return ""
}

// Valid reports whether d is one of the four directions
func (d Direction) Valid() bool {
	return d.Opposite() != ""
}

// ParseDirection converts a case-insensitive name into a Direction
func ParseDirection(s string) (Direction, bool) {
	d := Direction(strings.ToLower(strings.TrimSpace(s)))
	return d, d.Valid()
}

// keyDirections maps browser key codes to directions
var keyDirections = map[string]Direction{
	"ArrowUp":    Up,
	"KeyW":       Up,
	"ArrowDown":  Down,
	"KeyS":       Down,
	"ArrowLeft":  Left,
	"KeyA":       Left,
	"ArrowRight": Right,
	"KeyD":       Right,
}

// DirectionFromKey maps a KeyboardEvent.code value to a direction
func DirectionFromKey(code string) (Direction, bool) {
	d, ok := keyDirections[code]
	return d, ok
}

// Move returns the neighbouring cell in direction d
func (c Cell) Move(d Direction) Cell {
	switch d {
	case Up:
		c.Y--
	case Down:
		c.Y++
	case Left:
		c.X--
	case Right:
		c.X++
	}
	return c
}

// ManhattanDistance calculates the Manhattan distance between two cells
func ManhattanDistance(from, to Cell) int {
	dx := from.X - to.X
	if dx < 0 {
		dx = -dx
	}
	dy := from.Y - to.Y
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}

// FreeCells lists the cells of a gridSize board not covered by the snake, row by row
func FreeCells(gridSize int, snake []Cell) []Cell {
	occupied := make(map[Cell]bool, len(snake))
	for _, segment := range snake {
		occupied[segment] = true
	}

	free := make([]Cell, 0, gridSize*gridSize-len(occupied))
	for y := 0; y < gridSize; y++ {
		for x := 0; x < gridSize; x++ {
			c := Cell{X: x, Y: y}
			if !occupied[c] {
				free = append(free, c)
			}
		}
	}
	return free
}

// IntervalForScore returns the tick interval in effect once score has been
// reached by eating one item at a time from zero
func IntervalForScore(config *GameConfig, score int) int {
	interval := config.BaseIntervalMs
	if config.SpeedStepMs <= 0 {
		return interval
	}
	for s := config.ScoreIncrement; s <= score; s += config.ScoreIncrement {
		prev := s - config.ScoreIncrement
		crossed := s/config.SpeedThreshold - prev/config.SpeedThreshold
		if crossed > 0 && interval > config.MinIntervalMs {
			interval -= crossed * config.SpeedStepMs
			if interval < config.MinIntervalMs {
				interval = config.MinIntervalMs
			}
		}
	}
	return interval
}

// ScoreAtFloor returns the first score at which the interval reaches its
// floor, or -1 if the ramp never gets there
func ScoreAtFloor(config *GameConfig) int {
	if config.BaseIntervalMs <= config.MinIntervalMs {
		return 0
	}
	if config.SpeedStepMs <= 0 {
		return -1
	}
	// Board capacity bounds the reachable score
	maxFood := config.GridSize*config.GridSize - config.InitialLength
	for food := 1; food <= maxFood; food++ {
		score := food * config.ScoreIncrement
		if IntervalForScore(config, score) <= config.MinIntervalMs {
			return score
		}
	}
	return -1
}
