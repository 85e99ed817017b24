// Command snaketui plays Snake Arcade in the terminal.
//
// It runs the same game service as the server against a local session, so
// presets, speed ramp and scoring are identical. With -user the finished games
// of that account are recorded in the shared SQLite database.
//
// Keys: arrows or WASD steer, space starts/pauses/restarts, r restarts, q quits.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/gdamore/tcell/v2"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/snake-arcade/game/account"
	"github.com/wricardo/snake-arcade/game/config"
	"github.com/wricardo/snake-arcade/game/engine"
	"github.com/wricardo/snake-arcade/game/service"
	"github.com/wricardo/snake-arcade/game/session"
)

func main() {
	cmd := &cli.Command{
		Name:  "snaketui",
		Usage: "play Snake Arcade in the terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "preset", Aliases: []string{"p"}, Value: config.DefaultConfigName, Usage: "difficulty preset"},
			&cli.StringFlag{Name: "config-dir", Value: "configs", Usage: "directory containing presets", Sources: cli.EnvVars("CONFIG_DIR")},
			&cli.StringFlag{Name: "db", Value: "snake.db", Usage: "account database (used with -user)", Sources: cli.EnvVars("SNAKE_DB")},
			&cli.StringFlag{Name: "user", Usage: "record games for this registered account"},
			&cli.StringFlag{Name: "password", Usage: "password for -user", Sources: cli.EnvVars("SNAKE_PASSWORD")},
			&cli.StringFlag{Name: "log-file", Usage: "write logs here instead of discarding them"},
			&cli.BoolFlag{Name: "mute", Usage: "disable sound"},
		},
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	// The screen owns the terminal, so log lines go elsewhere
	log.SetOutput(io.Discard)
	if path := cmd.String("log-file"); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer f.Close()
		log.SetOutput(f)
	}

	configs, err := config.NewManager(cmd.String("config-dir"))
	if err != nil {
		return err
	}

	var accounts service.AccountService
	token := ""
	if user := cmd.String("user"); user != "" {
		store, err := account.Open(cmd.String("db"))
		if err != nil {
			return fmt.Errorf("failed to open account store: %w", err)
		}
		defer store.Close()

		accounts = service.NewAccountService(store)
		auth, err := accounts.Login(ctx, user, cmd.String("password"))
		if err != nil {
			return fmt.Errorf("login as %s: %w", user, err)
		}
		token = auth.Token
		defer accounts.Logout(context.Background(), token)
	}

	notifier := newScreenNotifier()
	sessions := session.NewManager()
	defer sessions.Close()

	games := service.NewGameService(sessions, configs, accounts, notifier)
	info, err := games.CreateSession(ctx, cmd.String("preset"), token)
	if err != nil {
		return err
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("failed to create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("failed to initialize screen: %w", err)
	}
	defer screen.Fini()

	sounds := newSounds()
	if !cmd.Bool("mute") {
		if err := sounds.Initialize(); err != nil {
			log.Printf("Warning: audio disabled: %v", err)
		}
	}
	defer sounds.Cleanup()

	ui := &terminal{
		screen:   screen,
		games:    games,
		session:  info.ID,
		player:   info.Owner.Username,
		notifier: notifier,
		sounds:   sounds,
	}
	return ui.loop(ctx, info.GameState)
}

// terminal is the event loop tying the screen to one local session
type terminal struct {
	screen   tcell.Screen
	games    service.GameService
	session  string
	player   string
	notifier *screenNotifier
	sounds   *sounds
}

func (t *terminal) loop(ctx context.Context, state *engine.GameState) error {
	events := make(chan tcell.Event, 32)
	go func() {
		for {
			ev := t.screen.PollEvent()
			if ev == nil {
				return
			}
			events <- ev
		}
	}()

	draw(t.screen, state, t.player)

	for {
		select {
		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventResize:
				t.screen.Sync()
				draw(t.screen, state, t.player)
			case *tcell.EventKey:
				if isQuit(ev) {
					return nil
				}
				if next := t.handleKey(ctx, ev); next != nil {
					state = next
					draw(t.screen, state, t.player)
				}
			}

		case next := <-t.notifier.states:
			state = next
			draw(t.screen, state, t.player)

		case event := <-t.notifier.events:
			switch event {
			case "eat":
				t.sounds.PlayEat()
			case "game_over":
				t.sounds.PlayGameOver()
			}

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// handleKey forwards a key to the game service and returns the resulting state
func (t *terminal) handleKey(ctx context.Context, ev *tcell.EventKey) *engine.GameState {
	var (
		result *service.ControlResult
		err    error
	)

	if ev.Key() == tcell.KeyRune && (ev.Rune() == 'r' || ev.Rune() == 'R') {
		result, err = t.games.Restart(ctx, t.session)
	} else {
		code := keyCode(ev)
		if code == "" {
			return nil
		}
		result, err = t.games.HandleKey(ctx, t.session, code)
	}

	if err != nil {
		log.Printf("Warning: key handling failed: %v", err)
		return nil
	}
	return result.GameState
}
