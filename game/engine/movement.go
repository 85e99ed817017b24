package engine

import (
	"fmt"
	"math/rand"
)

// Advance applies one tick to the state: it commits the pending direction,
// moves the head one cell, resolves collisions and food, and reports what
// happened. Advance does nothing unless the game is running.
func (gs *GameState) Advance(config *GameConfig, rng *rand.Rand) []Event {
	if gs.Phase != PhaseRunning || len(gs.Snake) == 0 {
		return nil
	}

	gs.Direction = gs.PendingDirection
	head := gs.Snake[0].Move(gs.Direction)
	gs.Ticks++

	// Collision is checked against the pre-move body, tail included
	if gs.Collides(head) {
		gs.endRun(config, false)
		return []Event{{Type: EventGameOver, Score: gs.Score, HighScore: gs.HighScore, IntervalMs: gs.IntervalMs, Head: head}}
	}

	gs.Snake = append([]Cell{head}, gs.Snake...)

	if gs.Food == nil || head != gs.Food.Cell {
		gs.Snake = gs.Snake[:len(gs.Snake)-1]
		return nil
	}

	events := gs.eat(config, head)

	if !gs.SpawnFood(config, rng) {
		gs.endRun(config, true)
		events = append(events, Event{Type: EventVictory, Score: gs.Score, HighScore: gs.HighScore, IntervalMs: gs.IntervalMs, Head: head})
	}

	return events
}

// Collides reports whether a head at c would hit a wall or the current body
func (gs *GameState) Collides(c Cell) bool {
	if !gs.InBounds(c) {
		return true
	}
	for _, segment := range gs.Snake[1:] {
		if segment == c {
			return true
		}
	}
	return false
}

// InBounds reports whether c lies on the board
func (gs *GameState) InBounds(c Cell) bool {
	return c.X >= 0 && c.X < gs.GridSize && c.Y >= 0 && c.Y < gs.GridSize
}

// SpawnFood places a new food item on a random free cell. It returns false,
// leaving Food nil, when the snake covers the whole board.
func (gs *GameState) SpawnFood(config *GameConfig, rng *rand.Rand) bool {
	occupied := make(map[Cell]bool, len(gs.Snake))
	for _, segment := range gs.Snake {
		occupied[segment] = true
	}

	if len(occupied) >= gs.GridSize*gs.GridSize {
		gs.Food = nil
		return false
	}

	foodType := config.FoodTypes[rng.Intn(len(config.FoodTypes))]

	for i := 0; i < MaxFoodSamples; i++ {
		c := Cell{X: rng.Intn(gs.GridSize), Y: rng.Intn(gs.GridSize)}
		if !occupied[c] {
			gs.Food = &Food{Cell: c, Type: foodType}
			return true
		}
	}

	// Crowded board: pick uniformly among the remaining cells
	free := FreeCells(gs.GridSize, gs.Snake)
	gs.Food = &Food{Cell: free[rng.Intn(len(free))], Type: foodType}
	return true
}

// eat applies scoring and the speed ramp for a food item eaten at head
func (gs *GameState) eat(config *GameConfig, head Cell) []Event {
	previous := gs.Score
	gs.Score += config.ScoreIncrement
	gs.FoodEaten++
	if gs.Score > gs.HighScore {
		gs.HighScore = gs.Score
	}

	events := []Event{{Type: EventScoreUpdate, Score: gs.Score, HighScore: gs.HighScore, IntervalMs: gs.IntervalMs, Head: head}}

	crossed := gs.Score/config.SpeedThreshold - previous/config.SpeedThreshold
	if crossed > 0 && gs.IntervalMs > config.MinIntervalMs && config.SpeedStepMs > 0 {
		interval := gs.IntervalMs - crossed*config.SpeedStepMs
		if interval < config.MinIntervalMs {
			interval = config.MinIntervalMs
		}
		gs.IntervalMs = interval
		events = append(events, Event{Type: EventSpeedChange, Score: gs.Score, HighScore: gs.HighScore, IntervalMs: gs.IntervalMs, Head: head})
	}

	return events
}

// endRun moves the state to game over
func (gs *GameState) endRun(config *GameConfig, victory bool) {
	gs.setPhase(PhaseGameOver)
	gs.Victory = victory
	if victory {
		gs.Food = nil
		gs.Message = fmt.Sprintf(config.Messages.Victory, gs.Score, gs.HighScore)
		return
	}
	gs.Message = fmt.Sprintf(config.Messages.GameOver, gs.Score, gs.HighScore)
}

// setPhase keeps the exported flags consistent with the phase.
// Running stays true while paused; it only drops when a run ends or resets.
func (gs *GameState) setPhase(phase Phase) {
	gs.Phase = phase
	gs.Running = phase == PhaseRunning || phase == PhasePaused
	gs.Paused = phase == PhasePaused
	gs.GameOver = phase == PhaseGameOver
	if phase != PhaseGameOver {
		gs.Victory = false
	}
}

// Clone returns a deep copy of the state
func (gs *GameState) Clone() *GameState {
	clone := *gs
	clone.Snake = append([]Cell(nil), gs.Snake...)
	if gs.Food != nil {
		food := *gs.Food
		clone.Food = &food
	}
	return &clone
}
