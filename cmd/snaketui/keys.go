package main

import (
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/wricardo/snake-arcade/game/engine"
)

// keyCode translates a terminal key into the KeyboardEvent.code name the
// game service understands. Unknown keys map to "".
func keyCode(ev *tcell.EventKey) string {
	switch ev.Key() {
	case tcell.KeyUp:
		return "ArrowUp"
	case tcell.KeyDown:
		return "ArrowDown"
	case tcell.KeyLeft:
		return "ArrowLeft"
	case tcell.KeyRight:
		return "ArrowRight"
	case tcell.KeyRune:
	default:
		return ""
	}

	switch ev.Rune() {
	case ' ':
		return "Space"
	case 'w', 'W', 'k':
		return "KeyW"
	case 'a', 'A', 'h':
		return "KeyA"
	case 's', 'S', 'j':
		return "KeyS"
	case 'd', 'D', 'l':
		return "KeyD"
	}
	return ""
}

func isQuit(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyRune:
		return ev.Rune() == 'q' || ev.Rune() == 'Q'
	}
	return false
}

// screenNotifier hands engine updates from the tick goroutine to the event loop.
// Only the newest state matters, so an unread one is replaced.
type screenNotifier struct {
	states chan *engine.GameState
	events chan string

	mu    sync.Mutex
	score int
}

func newScreenNotifier() *screenNotifier {
	return &screenNotifier{
		states: make(chan *engine.GameState, 1),
		events: make(chan string, 8),
	}
}

func (n *screenNotifier) BroadcastState(sessionID string, state *engine.GameState) {
	for {
		select {
		case n.states <- state:
			return
		default:
		}
		select {
		case <-n.states:
		default:
		}
	}
}

// BroadcastEvent turns a score_update into "eat" only when the score went
// up; a restart also reports its score, reset to zero.
func (n *screenNotifier) BroadcastEvent(sessionID, event string, data interface{}) {
	if event == "score_update" {
		scores, _ := data.(map[string]int)
		n.mu.Lock()
		rose := scores["score"] > n.score
		n.score = scores["score"]
		n.mu.Unlock()
		if !rose {
			return
		}
		event = "eat"
	}

	select {
	case n.events <- event:
	default:
	}
}
