package main

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/wricardo/snake-arcade/game/engine"
)

// Each board cell is two columns wide so the board looks square
const cellWidth = 2

var (
	borderStyle = tcell.StyleDefault.Foreground(tcell.ColorGray)
	headStyle   = tcell.StyleDefault.Foreground(tcell.ColorLime).Bold(true)
	bodyStyle   = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	hudStyle    = tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true)
	textStyle   = tcell.StyleDefault.Foreground(tcell.ColorSilver)

	foodGlyphs = map[engine.FoodType]struct {
		r     rune
		style tcell.Style
	}{
		engine.Apple: {'●', tcell.StyleDefault.Foreground(tcell.ColorRed)},
		engine.Mouse: {'m', tcell.StyleDefault.Foreground(tcell.ColorSilver).Bold(true)},
		engine.Frog:  {'f', tcell.StyleDefault.Foreground(tcell.ColorYellowGreen).Bold(true)},
	}
)

func drawText(s tcell.Screen, x, y int, text string, style tcell.Style) {
	for _, r := range text {
		s.SetContent(x, y, r, nil, style)
		x++
	}
}

// draw renders the HUD, the board and the status line
func draw(s tcell.Screen, state *engine.GameState, player string) {
	s.Clear()
	defer s.Show()

	if state == nil {
		return
	}

	width, height := s.Size()
	boardW := state.GridSize*cellWidth + 2
	boardH := state.GridSize + 2
	if width < boardW || height < boardH+2 {
		drawText(s, 0, 0, fmt.Sprintf("Terminal too small: need %dx%d", boardW, boardH+2), hudStyle)
		return
	}

	ox := (width - boardW) / 2
	oy := (height - boardH - 2) / 2

	hud := fmt.Sprintf("Score %d   High %d   Tick %dms", state.Score, state.HighScore, state.IntervalMs)
	if player != "" {
		hud += "   " + player
	}
	drawText(s, ox, oy, hud, hudStyle)

	top := oy + 1
	for x := 0; x < boardW; x++ {
		s.SetContent(ox+x, top, '-', nil, borderStyle)
		s.SetContent(ox+x, top+boardH-1, '-', nil, borderStyle)
	}
	for y := 0; y < boardH; y++ {
		s.SetContent(ox, top+y, '|', nil, borderStyle)
		s.SetContent(ox+boardW-1, top+y, '|', nil, borderStyle)
	}
	for _, corner := range [][2]int{{0, 0}, {boardW - 1, 0}, {0, boardH - 1}, {boardW - 1, boardH - 1}} {
		s.SetContent(ox+corner[0], top+corner[1], '+', nil, borderStyle)
	}

	cell := func(c engine.Cell, r rune, style tcell.Style) {
		if !state.InBounds(c) {
			return
		}
		s.SetContent(ox+1+c.X*cellWidth, top+1+c.Y, r, nil, style)
	}

	if state.Food != nil {
		glyph, ok := foodGlyphs[state.Food.Type]
		if !ok {
			glyph = foodGlyphs[engine.Apple]
		}
		cell(state.Food.Cell, glyph.r, glyph.style)
	}
	for i := len(state.Snake) - 1; i >= 0; i-- {
		if i == 0 {
			cell(state.Snake[i], '@', headStyle)
		} else {
			cell(state.Snake[i], 'o', bodyStyle)
		}
	}

	drawText(s, ox, top+boardH, statusLine(state), textStyle)
}

// statusLine returns the message shown under the board
func statusLine(state *engine.GameState) string {
	switch state.Phase {
	case engine.PhaseIdle:
		return state.Message + "  (space to start, q to quit)"
	case engine.PhasePaused:
		return state.Message + "  (space to resume)"
	case engine.PhaseGameOver:
		return state.Message + "  (space or r to play again)"
	}
	return "arrows/WASD to steer, space to pause"
}
