// Package engine provides the core game logic for the Snake Arcade.
//
// The engine package implements the game mechanics including:
//   - Grid-based snake movement and collision detection
//   - Food spawning on unoccupied cells
//   - Scoring, high score tracking and the speed ramp
//   - The Idle/Running/Paused/GameOver state machine
//   - Configuration loading and validation
//
// Core Types:
//
// GameEngine owns one game: its GameState, its GameConfig and the single
// tick source driving it. GameState.Advance is the pure per-tick transition;
// GameEngine wraps it with scheduling, locking and observer notification.
//
// Scheduling:
//
// The engine never sleeps or spawns timers on its own. It asks a Scheduler
// for a cancellable periodic trigger. TickerScheduler backs it with
// time.Ticker; ManualScheduler fires ticks on demand so tests can step the
// game deterministically.
//
// Usage:
//
//	config := engine.DefaultGameConfig()
//
//	gameEngine, err := engine.NewEngine(config)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameEngine.AddObserver(engine.Observer{
//		OnGameOver: func(score, highScore int, victory bool) {
//			log.Printf("game over: %d (best %d)", score, highScore)
//		},
//	})
//
//	gameEngine.Start()
//	gameEngine.SetDirection(engine.Up)
//
// Game Rules:
//
// The snake moves one cell per tick in its committed direction. Running into
// a wall or into its own body ends the game. Eating food grows the snake by
// one cell and adds to the score; every time the score crosses a multiple of
// the speed threshold the tick interval shrinks, down to a floor. Filling the
// whole board ends the game as a victory.
package engine
