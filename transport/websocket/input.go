package websocket

import (
	"context"
	"fmt"

	"github.com/wricardo/snake-arcade/game/service"
)

// NewGameInputHandler routes client control messages to the game service.
// Resulting state changes reach clients through the session's broadcasts.
func NewGameInputHandler(gameService service.GameService) InputHandler {
	return func(ctx context.Context, sessionID string, msg *InboundMessage) error {
		var err error
		switch msg.Action {
		case "key":
			_, err = gameService.HandleKey(ctx, sessionID, msg.Code)
		case "direction":
			_, err = gameService.SetDirection(ctx, sessionID, msg.Direction)
		case "start":
			_, err = gameService.Start(ctx, sessionID)
		case "pause":
			_, err = gameService.TogglePause(ctx, sessionID)
		case "restart":
			_, err = gameService.Restart(ctx, sessionID)
		default:
			err = fmt.Errorf("unknown action %q", msg.Action)
		}
		return err
	}
}
