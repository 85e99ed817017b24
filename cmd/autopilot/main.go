// Command autopilot plays Snake Arcade through the REST API. It steers with a
// breadth-first search towards the food and falls back to the move with the
// most open space when no path exists.
package main

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/urfave/cli/v3"
	"github.com/wricardo/snake-arcade/game/engine"
)

const sessionFile = ".session"

func main() {
	cmd := &cli.Command{
		Name:  "autopilot",
		Usage: "let a bot play Snake Arcade on a running server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:8080", Usage: "game server URL"},
			&cli.StringFlag{Name: "preset", Usage: "difficulty preset for a new session"},
			&cli.StringFlag{Name: "token", Usage: "login token; games are recorded for its account", Sources: cli.EnvVars("SNAKE_TOKEN")},
			&cli.BoolFlag{Name: "guest", Usage: "log in as a new guest first"},
			&cli.StringFlag{Name: "continue", Usage: "resume playing an existing session by ID"},
			&cli.IntFlag{Name: "games", Value: 1, Usage: "number of games to play"},
			&cli.DurationFlag{Name: "poll", Value: 0, Usage: "state polling interval (default: a third of the tick)"},
			&cli.BoolFlag{Name: "v", Usage: "verbose output"},
		},
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	log.Printf("Connecting to game server at %s", cmd.String("url"))
	client := NewClient(cmd.String("url"), cmd.String("token"))

	if cmd.Bool("guest") {
		user, err := client.GuestLogin(ctx)
		if err != nil {
			return fmt.Errorf("guest login: %w", err)
		}
		log.Printf("Playing as %s", user.Username)
	}

	sessionID := cmd.String("continue")
	if sessionID == "" {
		if data, err := os.ReadFile(sessionFile); err == nil && !cmd.IsSet("preset") {
			sessionID = string(bytes.TrimSpace(data))
		}
	}

	if sessionID != "" {
		client.sessionID = sessionID
		if _, err := client.GetState(ctx); err != nil {
			log.Printf("Failed to resume session %s (may be expired): %v", sessionID, err)
			sessionID = ""
		} else {
			log.Printf("Resuming session: %s", sessionID)
		}
	}

	if sessionID == "" {
		if _, err := client.CreateSession(ctx, cmd.String("preset")); err != nil {
			return fmt.Errorf("failed to create session: %w", err)
		}
		log.Printf("Session created: %s", client.sessionID)
		if err := os.WriteFile(sessionFile, []byte(client.sessionID), 0644); err != nil {
			log.Printf("Warning: Failed to save session ID: %v", err)
		}
	}

	pilot := &autopilot{
		client:   client,
		strategy: &Strategy{},
		poll:     cmd.Duration("poll"),
		verbose:  cmd.Bool("v"),
	}

	games := int(cmd.Int("games"))
	best := 0
	for game := 1; game <= games; game++ {
		if _, err := client.Restart(ctx); err != nil {
			return fmt.Errorf("restart: %w", err)
		}

		state, err := pilot.play(ctx)
		if err != nil {
			return err
		}

		log.Printf("Game %d/%d: score=%d length=%d ticks=%d victory=%v",
			game, games, state.Score, len(state.Snake), state.Ticks, state.Victory)
		if state.Score > best {
			best = state.Score
		}
	}

	log.Printf("Best score: %d (session %s)", best, client.sessionID)
	return nil
}

type autopilot struct {
	client   *Client
	strategy *Strategy
	poll     time.Duration
	verbose  bool
}

// play starts the session's game and steers until it is over
func (a *autopilot) play(ctx context.Context) (*engine.GameState, error) {
	result, err := a.client.Start(ctx)
	if err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}
	if !result.Accepted {
		return nil, fmt.Errorf("start rejected: %s", result.Message)
	}

	lastTick := -1
	for {
		state, err := a.client.GetState(ctx)
		if err != nil {
			return nil, err
		}
		if state.GameOver {
			return state, nil
		}

		if state.Ticks != lastTick && state.Phase == engine.PhaseRunning {
			lastTick = state.Ticks
			if err := a.steer(ctx, state); err != nil {
				return nil, err
			}
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(a.pollInterval(state)):
		}
	}
}

func (a *autopilot) steer(ctx context.Context, state *engine.GameState) error {
	dir := a.strategy.NextMove(state)
	if dir == "" || dir == state.PendingDirection {
		return nil
	}

	result, err := a.client.SetDirection(ctx, dir)
	if err != nil {
		return fmt.Errorf("set direction: %w", err)
	}
	if a.verbose {
		log.Printf("tick=%d score=%d turn %s accepted=%v", state.Ticks, state.Score, dir, result.Accepted)
	}
	return nil
}

func (a *autopilot) pollInterval(state *engine.GameState) time.Duration {
	if a.poll > 0 {
		return a.poll
	}
	interval := time.Duration(state.IntervalMs) * time.Millisecond / 3
	if interval < 5*time.Millisecond {
		interval = 5 * time.Millisecond
	}
	return interval
}
