package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/wricardo/snake-arcade/game/engine"
	"github.com/wricardo/snake-arcade/game/service"
)

// Client drives one session over the REST API
type Client struct {
	baseURL   string
	token     string
	sessionID string
	client    *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &errResp) == nil && errResp.Error != "" {
			return fmt.Errorf("%s %s failed: %s", method, path, errResp.Error)
		}
		return fmt.Errorf("%s %s failed: %s", method, path, resp.Status)
	}

	if result != nil {
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("parse %s response: %w", path, err)
		}
	}
	return nil
}

// GuestLogin obtains a guest token for this client
func (c *Client) GuestLogin(ctx context.Context) (*service.User, error) {
	var auth service.AuthResult
	if err := c.do(ctx, "POST", "/api/auth/guest", nil, &auth); err != nil {
		return nil, err
	}
	c.token = auth.Token
	return auth.User, nil
}

func (c *Client) CreateSession(ctx context.Context, configID string) (*engine.GameState, error) {
	body := map[string]string{}
	if configID != "" {
		body["config_id"] = configID
	}

	var session service.SessionInfo
	if err := c.do(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return nil, err
	}
	c.sessionID = session.ID
	return session.GameState, nil
}

func (c *Client) GetState(ctx context.Context) (*engine.GameState, error) {
	var state engine.GameState
	if err := c.do(ctx, "GET", "/api/sessions/"+c.sessionID+"/state", nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (c *Client) control(ctx context.Context, action string, body interface{}) (*service.ControlResult, error) {
	var result service.ControlResult
	if err := c.do(ctx, "POST", "/api/sessions/"+c.sessionID+"/"+action, body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) Start(ctx context.Context) (*service.ControlResult, error) {
	return c.control(ctx, "start", nil)
}

func (c *Client) Restart(ctx context.Context) (*service.ControlResult, error) {
	return c.control(ctx, "restart", nil)
}

func (c *Client) SetDirection(ctx context.Context, d engine.Direction) (*service.ControlResult, error) {
	return c.control(ctx, "direction", map[string]string{"direction": string(d)})
}
