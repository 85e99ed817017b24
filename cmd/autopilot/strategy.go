package main

import (
	"github.com/wricardo/snake-arcade/game/engine"
)

// Strategy picks the next heading for a snake
type Strategy struct{}

// NextMove returns the first step of a shortest path to the food. Without a
// path it falls back to the safe move with the most room. It returns "" when
// every move is fatal.
func (s *Strategy) NextMove(state *engine.GameState) engine.Direction {
	if len(state.Snake) == 0 {
		return ""
	}

	blocked := s.obstacles(state)
	head := state.Snake[0]

	if state.Food != nil {
		if path := s.BFS(head, state.Food.Cell, state, blocked); len(path) > 0 {
			// Only follow the path if the snake is not boxing itself in
			next := head.Move(path[0])
			if s.reachable(next, state, blocked) >= len(state.Snake) || len(path) == 1 {
				return path[0]
			}
		}
	}

	return s.roomiestMove(head, state, blocked)
}

// obstacles returns the cells the head may not enter on the next tick.
// A move is checked against the body before it shifts, so the tail counts.
func (s *Strategy) obstacles(state *engine.GameState) map[engine.Cell]bool {
	blocked := make(map[engine.Cell]bool, len(state.Snake))
	for _, c := range state.Snake {
		blocked[c] = true
	}
	return blocked
}

// BFS returns the directions of a shortest path from start to goal, or nil
func (s *Strategy) BFS(start, goal engine.Cell, state *engine.GameState, blocked map[engine.Cell]bool) []engine.Direction {
	if start == goal {
		return []engine.Direction{}
	}

	type queueItem struct {
		cell engine.Cell
		path []engine.Direction
	}

	queue := []queueItem{{cell: start, path: []engine.Direction{}}}
	visited := map[engine.Cell]bool{start: true}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, dir := range engine.Directions {
			next := current.cell.Move(dir)
			if visited[next] || !s.passable(next, state, blocked) {
				continue
			}

			newPath := append([]engine.Direction{}, current.path...)
			newPath = append(newPath, dir)

			if next == goal {
				return newPath
			}

			visited[next] = true
			queue = append(queue, queueItem{cell: next, path: newPath})
		}
	}

	return nil
}

func (s *Strategy) passable(c engine.Cell, state *engine.GameState, blocked map[engine.Cell]bool) bool {
	return state.InBounds(c) && !blocked[c]
}

// reachable counts the free cells connected to start
func (s *Strategy) reachable(start engine.Cell, state *engine.GameState, blocked map[engine.Cell]bool) int {
	if !s.passable(start, state, blocked) {
		return 0
	}

	seen := map[engine.Cell]bool{start: true}
	stack := []engine.Cell{start}
	for len(stack) > 0 {
		c := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, dir := range engine.Directions {
			next := c.Move(dir)
			if !seen[next] && s.passable(next, state, blocked) {
				seen[next] = true
				stack = append(stack, next)
			}
		}
	}
	return len(seen)
}

func (s *Strategy) roomiestMove(head engine.Cell, state *engine.GameState, blocked map[engine.Cell]bool) engine.Direction {
	var best engine.Direction
	bestRoom := 0
	for _, dir := range engine.Directions {
		if room := s.reachable(head.Move(dir), state, blocked); room > bestRoom {
			best, bestRoom = dir, room
		}
	}
	return best
}
