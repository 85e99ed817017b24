package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/wricardo/snake-arcade/game/engine"
	"github.com/wricardo/snake-arcade/game/service"
)

func callRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil {
		t.Fatal("Expected result, got nil")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatal("Expected text content in result")
	}
	return text.Text
}

func sampleState() *engine.GameState {
	return &engine.GameState{
		GridSize:   5,
		Snake:      []engine.Cell{{X: 2, Y: 2}, {X: 1, Y: 2}, {X: 0, Y: 2}},
		Food:       &engine.Food{Cell: engine.Cell{X: 4, Y: 0}, Type: engine.Apple},
		Direction:  engine.Right,
		Score:      20,
		HighScore:  50,
		IntervalMs: 150,
		Phase:      engine.PhaseRunning,
		Running:    true,
	}
}

func TestNewClient(t *testing.T) {
	client := NewClient("http://localhost:8080/")

	if client.baseURL != "http://localhost:8080" {
		t.Errorf("Expected trailing slash trimmed, got %s", client.baseURL)
	}
	if client.httpClient == nil {
		t.Error("HTTP client not initialized")
	}
	if client.GetMCPServer() == nil {
		t.Error("MCP server not initialized")
	}
}

func TestClient_apiCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			if got := r.Header.Get("Authorization"); got != "Bearer tok" {
				t.Errorf("Expected bearer token header, got %q", got)
			}
			json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
		case "/fail":
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": "session not found"})
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL)
	ctx := context.Background()

	var result map[string]string
	if err := client.apiCall(ctx, "GET", "/ok", "tok", nil, &result); err != nil {
		t.Fatalf("apiCall failed: %v", err)
	}
	if result["status"] != "ok" {
		t.Errorf("Expected decoded body, got %v", result)
	}

	err := client.apiCall(ctx, "GET", "/fail", "", nil, nil)
	if err == nil || err.Error() != "session not found" {
		t.Errorf("Expected API error message, got %v", err)
	}

	err = client.apiCall(ctx, "GET", "/other", "", nil, nil)
	if err == nil || !strings.Contains(err.Error(), "500") {
		t.Errorf("Expected status code in error, got %v", err)
	}
}

func TestClient_handleGuestLogin(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" || r.URL.Path != "/api/auth/guest" {
			t.Errorf("Expected POST /api/auth/guest, got %s %s", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode(service.AuthResult{
			Token: "guest-token",
			User:  &service.User{Username: "Guest_ab12", Guest: true},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.handleGuestLogin(context.Background(), callRequest("guest_login", nil))
	if err != nil {
		t.Fatalf("handleGuestLogin failed: %v", err)
	}

	text := resultText(t, result)
	if !strings.Contains(text, "Guest_ab12") || !strings.Contains(text, "guest-token") {
		t.Errorf("Expected username and token in result, got: %s", text)
	}
}

func TestClient_handleCreateSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" || r.URL.Path != "/api/sessions" {
			t.Errorf("Expected POST /api/sessions, got %s %s", r.Method, r.URL.Path)
		}

		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["config_id"] != "turbo" {
			t.Errorf("Expected config_id turbo, got %v", body)
		}
		if r.Header.Get("Authorization") != "Bearer abc" {
			t.Errorf("Expected token forwarded, got %q", r.Header.Get("Authorization"))
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(service.SessionInfo{
			ID:         "a1b2",
			ConfigName: "Turbo",
			Owner:      service.Owner{Username: "alice"},
			GameState:  sampleState(),
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.handleCreateSession(context.Background(), callRequest("create_session", map[string]interface{}{
		"config_id": "turbo",
		"token":     "abc",
	}))
	if err != nil {
		t.Fatalf("handleCreateSession failed: %v", err)
	}

	text := resultText(t, result)
	if !strings.Contains(text, "a1b2") || !strings.Contains(text, "alice") {
		t.Errorf("Expected session ID and player in result, got: %s", text)
	}
}

func TestClient_handleCreateSession_NilArguments(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(service.SessionInfo{ID: "ffff", ConfigName: "Classic"})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.handleCreateSession(context.Background(), callRequest("create_session", nil))
	if err != nil {
		t.Fatalf("handleCreateSession failed: %v", err)
	}
	if text := resultText(t, result); !strings.Contains(text, "anonymous") {
		t.Errorf("Expected anonymous player, got: %s", text)
	}
}

func TestClient_handleSetDirection(t *testing.T) {
	var gotPath, gotDirection string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		gotDirection = body["direction"]

		state := sampleState()
		state.PendingDirection = engine.Up
		json.NewEncoder(w).Encode(service.ControlResult{Accepted: true, GameState: state})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	ctx := context.Background()

	result, err := client.handleSetDirection(ctx, callRequest("set_direction", map[string]interface{}{
		"session_id": "a1b2",
		"direction":  "up",
	}))
	if err != nil {
		t.Fatalf("handleSetDirection failed: %v", err)
	}
	if gotPath != "/api/sessions/a1b2/direction" || gotDirection != "up" {
		t.Errorf("Unexpected request %s %q", gotPath, gotDirection)
	}
	if text := resultText(t, result); !strings.Contains(text, "direction accepted") {
		t.Errorf("Expected accepted message, got: %s", text)
	}

	result, _ = client.handleSetDirection(ctx, callRequest("set_direction", map[string]interface{}{
		"session_id": "a1b2",
		"direction":  "sideways",
	}))
	if !result.IsError {
		t.Error("Expected error result for invalid direction")
	}
}

func TestClient_controlRequiresSession(t *testing.T) {
	client := NewClient("http://localhost:8080")
	ctx := context.Background()

	for name, handler := range map[string]func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error){
		"start_game":   client.handleStart,
		"toggle_pause": client.handleTogglePause,
		"restart_game": client.handleRestart,
		"game_state":   client.handleGameState,
		"get_session":  client.handleGetSession,
	} {
		result, err := handler(ctx, callRequest(name, map[string]interface{}{}))
		if err != nil {
			t.Fatalf("%s returned error: %v", name, err)
		}
		if !result.IsError {
			t.Errorf("%s: expected error result without session_id", name)
		}
	}
}

func TestClient_handleStart_Rejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/sessions/a1b2/start" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(service.ControlResult{
			Accepted:  false,
			Message:   "Game is already running",
			GameState: sampleState(),
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.handleStart(context.Background(), callRequest("start_game", map[string]interface{}{"session_id": "a1b2"}))
	if err != nil {
		t.Fatalf("handleStart failed: %v", err)
	}

	text := resultText(t, result)
	if !strings.Contains(text, "start ignored") || !strings.Contains(text, "already running") {
		t.Errorf("Expected rejected start, got: %s", text)
	}
}

func TestClient_handleListSessions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("limit") != "5" {
			t.Errorf("Expected limit forwarded, got %q", r.URL.RawQuery)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"count": 1,
			"total": 3,
			"sessions": []*service.SessionInfo{
				{ID: "a1b2", ConfigName: "Classic", Owner: service.Owner{Username: "Guest_1", Guest: true}, GameState: sampleState()},
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.handleListSessions(context.Background(), callRequest("list_sessions", map[string]interface{}{"limit": float64(5)}))
	if err != nil {
		t.Fatalf("handleListSessions failed: %v", err)
	}

	text := resultText(t, result)
	for _, want := range []string{"1 of 3", "a1b2", "Guest_1 (guest)", "score 20"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in result, got: %s", want, text)
		}
	}
}

func TestClient_handleLeaderboard(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"count": 2,
			"entries": []*service.LeaderboardEntry{
				{Rank: 1, Username: "alice", HighScore: 300, GamesPlayed: 4},
				{Rank: 2, Username: "bob", HighScore: 120, GamesPlayed: 9},
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.handleLeaderboard(context.Background(), callRequest("leaderboard", nil))
	if err != nil {
		t.Fatalf("handleLeaderboard failed: %v", err)
	}

	text := resultText(t, result)
	if strings.Index(text, "alice") > strings.Index(text, "bob") {
		t.Errorf("Expected ranking order preserved, got: %s", text)
	}
}

func TestClient_handleListConfigs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]service.ConfigInfo{
			{ConfigID: "classic", Name: "Classic", GridSize: 20, BaseIntervalMs: 150, MinIntervalMs: 60},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, _ := client.handleListConfigs(context.Background(), callRequest("list_configs", nil))

	text := resultText(t, result)
	if !strings.Contains(text, "classic") || !strings.Contains(text, "20x20") || !strings.Contains(text, "150ms down to 60ms") {
		t.Errorf("Unexpected configs text: %s", text)
	}
}

func TestClient_serverErrorBecomesToolError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "session not found"})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.handleGameState(context.Background(), callRequest("game_state", map[string]interface{}{"session_id": "zzzz"}))
	if err != nil {
		t.Fatalf("Expected tool error, not Go error: %v", err)
	}
	if !result.IsError {
		t.Error("Expected IsError result")
	}
}

func TestFormatGameState(t *testing.T) {
	text := formatGameState(sampleState())

	expected := []string{
		"Score: 20 | High: 50 | Length: 3 | Tick: 150ms | Phase: running | Heading: right",
		"+-----+",
		"|....*|",
		"|oo@..|",
	}
	for _, want := range expected {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in output, got:\n%s", want, text)
		}
	}
}

func TestFormatGameState_GameOver(t *testing.T) {
	state := sampleState()
	state.GameOver = true
	state.Phase = engine.PhaseGameOver
	state.Message = "Game over! Score: 20"

	text := formatGameState(state)
	if !strings.Contains(text, "GAME OVER") || !strings.Contains(text, "Message: Game over! Score: 20") {
		t.Errorf("Expected game over banner, got:\n%s", text)
	}

	state.Victory = true
	if !strings.Contains(formatGameState(state), "VICTORY") {
		t.Error("Expected victory banner")
	}

	if formatGameState(nil) != "No game state available" {
		t.Error("Expected placeholder for nil state")
	}
}

func TestClient_handleGameInstructions(t *testing.T) {
	client := NewClient("http://localhost:8080")

	result, err := client.handleGameInstructions(context.Background(), callRequest("game_instructions", nil))
	if err != nil {
		t.Fatalf("handleGameInstructions failed: %v", err)
	}

	text := resultText(t, result)
	for _, content := range []string{"GAME OBJECTIVE:", "BOARD LEGEND:", "CONTROLS:", "SPEED:", "SCORES:"} {
		if !strings.Contains(text, content) {
			t.Errorf("Expected '%s' in instructions", content)
		}
	}
}
