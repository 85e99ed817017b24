package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/snake-arcade/game/engine"
	"github.com/wricardo/snake-arcade/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Snake Arcade",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Snake Arcade - MCP Interface

This is a thin client that proxies all requests to the REST API server.

The snake moves on its own once a game is started. Each tool call only
changes the heading or the lifecycle; the board keeps advancing between
calls at the session's current tick interval.

AVAILABLE TOOLS:
- guest_login: Get a guest token
- create_session: Create a new game session (optionally owned by a token)
- get_session / list_sessions: Inspect sessions
- game_state: Get the current board
- start_game, toggle_pause, restart_game: Lifecycle controls
- set_direction: Turn the snake (up/down/left/right)
- list_configs: List difficulty presets
- leaderboard: Show the high score table
- game_instructions: Full rules`),
	)

	c.registerTools()
}

func (c *Client) registerTools() {
	sessionIDProp := map[string]interface{}{
		"type":        "string",
		"description": "Session ID returned by create_session",
	}

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "guest_login",
		Description: "Create a guest account and return its token. Guest results are not kept.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGuestLogin)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new game session. Pass a token so finished games count toward that player's stats.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_id": map[string]interface{}{
					"type":        "string",
					"description": "Preset to use (see list_configs). Defaults to classic.",
				},
				"token": map[string]interface{}{
					"type":        "string",
					"description": "Login token from guest_login or the REST login endpoint",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get session details including the current board",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionIDProp},
			Required:   []string{"session_id"},
		},
	}, c.handleGetSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List active game sessions, most recently used first",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"limit": map[string]interface{}{
					"type":        "number",
					"description": "Maximum number of sessions to list",
				},
			},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the current board. Legend: @ head, o body, * food, . empty.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionIDProp},
			Required:   []string{"session_id"},
		},
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "start_game",
		Description: "Start the game. Ignored while a game is already running.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionIDProp},
			Required:   []string{"session_id"},
		},
	}, c.handleStart)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "toggle_pause",
		Description: "Pause a running game or resume a paused one",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionIDProp},
			Required:   []string{"session_id"},
		},
	}, c.handleTogglePause)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "restart_game",
		Description: "Reset the board to a fresh idle game. Call start_game to play again.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionIDProp},
			Required:   []string{"session_id"},
		},
	}, c.handleRestart)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "set_direction",
		Description: "Turn the snake. Reversing straight into the body is ignored.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProp,
				"direction": map[string]interface{}{
					"type":        "string",
					"description": "New heading",
					"enum":        []string{"up", "down", "left", "right"},
				},
			},
			Required: []string{"session_id", "direction"},
		},
	}, c.handleSetDirection)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available difficulty presets",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListConfigs)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "leaderboard",
		Description: "Show the best registered players",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"limit": map[string]interface{}{
					"type":        "number",
					"description": "Number of entries (default 10)",
				},
			},
		},
	}, c.handleLeaderboard)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get the rules and controls of the game",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)
}

// GetMCPServer returns the underlying MCP server
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// apiCall performs a REST request. A non-empty token is sent as a Bearer header.
func (c *Client) apiCall(ctx context.Context, method, path, token string, body interface{}, result interface{}) error {
	url := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		return map[string]interface{}{}
	}
	return args
}

func stringArg(args map[string]interface{}, name string) string {
	s, _ := args[name].(string)
	return strings.TrimSpace(s)
}

func intArg(args map[string]interface{}, name string) int {
	switch v := args[name].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}

func (c *Client) handleGuestLogin(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var auth service.AuthResult
	if err := c.apiCall(ctx, "POST", "/api/auth/guest", "", nil, &auth); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Logged in as %s\nToken: %s\n", auth.User.Username, auth.Token)
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	body := map[string]string{}
	if configID := stringArg(args, "config_id"); configID != "" {
		body["config_id"] = configID
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", stringArg(args, "token"), body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nConfig: %s\nPlayer: %s\n",
		session.ID, session.ConfigName, ownerLabel(session.Owner))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := "/api/sessions"
	if limit := intArg(arguments(request), "limit"); limit > 0 {
		path += fmt.Sprintf("?limit=%d", limit)
	}

	var resp struct {
		Count    int                    `json:"count"`
		Total    int                    `json:"total"`
		Sessions []*service.SessionInfo `json:"sessions"`
	}
	if err := c.apiCall(ctx, "GET", path, "", nil, &resp); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result strings.Builder
	result.WriteString(fmt.Sprintf("Sessions (%d of %d):\n\n", resp.Count, resp.Total))
	for _, session := range resp.Sessions {
		score, phase := 0, engine.PhaseIdle
		if session.GameState != nil {
			score, phase = session.GameState.Score, session.GameState.Phase
		}
		result.WriteString(fmt.Sprintf("• %s [%s] %s, score %d, player %s\n",
			session.ID, session.ConfigName, phase, score, ownerLabel(session.Owner)))
	}

	return mcp.NewToolResultText(result.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := stringArg(arguments(request), "session_id")
	if sessionID == "" {
		return mcp.NewToolResultError("session_id is required"), nil
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", "/api/sessions/"+sessionID, "", nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := stringArg(arguments(request), "session_id")
	if sessionID == "" {
		return mcp.NewToolResultError("session_id is required"), nil
	}

	var state engine.GameState
	if err := c.apiCall(ctx, "GET", "/api/sessions/"+sessionID+"/state", "", nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameState(&state)), nil
}

// control posts to one of the session control endpoints and formats the outcome
func (c *Client) control(ctx context.Context, request mcp.CallToolRequest, action string, body interface{}) (*mcp.CallToolResult, error) {
	sessionID := stringArg(arguments(request), "session_id")
	if sessionID == "" {
		return mcp.NewToolResultError("session_id is required"), nil
	}

	var result service.ControlResult
	if err := c.apiCall(ctx, "POST", "/api/sessions/"+sessionID+"/"+action, "", body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatControlResult(action, &result)), nil
}

func (c *Client) handleStart(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.control(ctx, request, "start", nil)
}

func (c *Client) handleTogglePause(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.control(ctx, request, "pause", nil)
}

func (c *Client) handleRestart(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.control(ctx, request, "restart", nil)
}

func (c *Client) handleSetDirection(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	direction := stringArg(arguments(request), "direction")
	if _, ok := engine.ParseDirection(direction); !ok {
		return mcp.NewToolResultError(fmt.Sprintf("invalid direction %q: use up, down, left or right", direction)), nil
	}
	return c.control(ctx, request, "direction", map[string]string{"direction": direction})
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/configs", "", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := "Available Configurations:\n\n"
	for _, config := range configs {
		result += fmt.Sprintf("• %s (%s)\n  %s\n  Grid: %dx%d, Tick: %dms down to %dms\n\n",
			config.ConfigID, config.Name, config.Description,
			config.GridSize, config.GridSize, config.BaseIntervalMs, config.MinIntervalMs)
	}

	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleLeaderboard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := "/api/leaderboard"
	if limit := intArg(arguments(request), "limit"); limit > 0 {
		path += fmt.Sprintf("?limit=%d", limit)
	}

	var resp struct {
		Entries []*service.LeaderboardEntry `json:"entries"`
	}
	if err := c.apiCall(ctx, "GET", path, "", nil, &resp); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatLeaderboard(resp.Entries)), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := `🐍 Snake Arcade - Instructions

GAME OBJECTIVE:
Steer the snake to eat food. Every food grows the snake by one cell and adds
points. The game ends when the head leaves the board or runs into the body.
Filling every cell of the board is a victory.

BOARD LEGEND:
• @ - Snake head
• o - Snake body
• * - Food
• . - Empty cell

CONTROLS:
• start_game - Begin a run from the idle or game over screen
• set_direction - up, down, left or right. Only one turn counts per tick and
  turning straight back into the body is ignored.
• toggle_pause - Pause or resume
• restart_game - Reset to a fresh board, then start_game again

SPEED:
The snake advances one cell every tick. Each preset has a base tick interval
that shrinks as the score passes each threshold, down to a floor. Use
list_configs to compare presets.

TIPS:
• The board keeps moving between tool calls. Pause before planning a route.
• Moving into the cell the tail is leaving is safe unless you are eating.
• Hug the walls on large boards to keep open space in the middle.

SCORES:
Log in (guest_login gives a throwaway guest) and pass the token to
create_session. Registered players' finished games update their high score
and the leaderboard; guest results are not kept.

Good luck!`

	return mcp.NewToolResultText(instructions), nil
}

func ownerLabel(owner service.Owner) string {
	switch {
	case owner.Username == "":
		return "anonymous"
	case owner.Guest:
		return owner.Username + " (guest)"
	}
	return owner.Username
}

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nConfig: %s\nPlayer: %s\nCreated: %s\n\n%s",
		session.ID, session.ConfigName, ownerLabel(session.Owner),
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		formatGameState(session.GameState))
}

func formatControlResult(action string, result *service.ControlResult) string {
	var b strings.Builder
	if result.Accepted {
		b.WriteString(fmt.Sprintf("✅ %s accepted\n", action))
	} else {
		b.WriteString(fmt.Sprintf("❌ %s ignored\n", action))
	}
	if result.Message != "" {
		b.WriteString(result.Message + "\n")
	}
	b.WriteString("\n")
	b.WriteString(formatGameState(result.GameState))
	return b.String()
}

func formatGameState(state *engine.GameState) string {
	if state == nil {
		return "No game state available"
	}

	var result strings.Builder

	result.WriteString(fmt.Sprintf("Score: %d | High: %d | Length: %d | Tick: %dms | Phase: %s | Heading: %s\n\n",
		state.Score, state.HighScore, len(state.Snake), state.IntervalMs, state.Phase, state.Direction))

	size := state.GridSize
	board := make([][]byte, size)
	for y := range board {
		board[y] = bytes.Repeat([]byte{'.'}, size)
	}
	if state.Food != nil && state.InBounds(state.Food.Cell) {
		board[state.Food.Y][state.Food.X] = '*'
	}
	for i, c := range state.Snake {
		if !state.InBounds(c) {
			continue
		}
		if i == 0 {
			board[c.Y][c.X] = '@'
		} else {
			board[c.Y][c.X] = 'o'
		}
	}

	border := "+" + strings.Repeat("-", size) + "+\n"
	result.WriteString(border)
	for _, row := range board {
		result.WriteString("|")
		result.Write(row)
		result.WriteString("|\n")
	}
	result.WriteString(border)

	if state.GameOver {
		if state.Victory {
			result.WriteString("\n🎉 VICTORY!")
		} else {
			result.WriteString("\n💀 GAME OVER")
		}
	}

	if state.Message != "" {
		result.WriteString(fmt.Sprintf("\nMessage: %s", state.Message))
	}

	return result.String()
}

func formatLeaderboard(entries []*service.LeaderboardEntry) string {
	if len(entries) == 0 {
		return "No scores yet."
	}

	var b strings.Builder
	b.WriteString("🏆 Leaderboard\n\n")
	for _, e := range entries {
		b.WriteString(fmt.Sprintf("%2d. %-20s %6d  (%d games)\n", e.Rank, e.Username, e.HighScore, e.GamesPlayed))
	}
	return b.String()
}
