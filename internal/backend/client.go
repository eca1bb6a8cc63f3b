// Package backend is the HTTP client for the lending platform's user-state
// API. The bot stores each user's conversational "estado" there so that web
// and bot surfaces see a consistent view; all calls from the bot are
// best-effort.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/prestamax/chatbot/internal/config"
	"github.com/prestamax/chatbot/pkg/logger"
)

// EstadoIdle is the state users return to when their session is cleared.
const EstadoIdle = "idle"

// Estado is the user-state record as the platform returns it.
type Estado struct {
	ChatID  int64             `json:"chatId"`
	State   string            `json:"state"`
	Context map[string]string `json:"context,omitempty"`
}

// Client talks to the platform's user-state endpoints.
type Client struct {
	baseURL string
	http    *http.Client
	logger  logger.Logger
}

// New creates a backend client from config.
func New(cfg config.BackendConfig, log logger.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("backend base URL is required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
		logger:  log,
	}, nil
}

// GetUserEstado fetches the user's current state. A missing user is returned
// as an idle Estado rather than an error.
func (c *Client) GetUserEstado(ctx context.Context, chatID int64) (*Estado, error) {
	url := fmt.Sprintf("%s/api/v1/users/%d/estado", c.baseURL, chatID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user state: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return &Estado{ChatID: chatID, State: EstadoIdle}, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("backend returned status %d: %s", resp.StatusCode, string(body))
	}

	var estado Estado
	if err := json.NewDecoder(resp.Body).Decode(&estado); err != nil {
		return nil, fmt.Errorf("failed to decode user state: %w", err)
	}
	return &estado, nil
}

// SetUserEstado replaces the user's state record.
func (c *Client) SetUserEstado(ctx context.Context, estado Estado) error {
	url := fmt.Sprintf("%s/api/v1/users/%d/estado", c.baseURL, estado.ChatID)

	body, err := json.Marshal(estado)
	if err != nil {
		return fmt.Errorf("failed to marshal user state: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to update user state: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("backend returned status %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// ResetEstado returns the user to the idle state. Called from session
// teardown; failures are reported but never block the rest of the cleanup.
func (c *Client) ResetEstado(ctx context.Context, chatID int64) error {
	err := c.SetUserEstado(ctx, Estado{ChatID: chatID, State: EstadoIdle})
	if err != nil {
		c.logger.Warn("Failed to reset user state on backend",
			logger.ChatIDField(chatID), logger.ErrorField(err))
	}
	return err
}
