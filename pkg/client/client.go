// Package client is a small HTTP client for the interview backend's session
// API. It implements the remote tier of the session state manager, letting
// an interview client run against a backend on another machine.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"ciit-backend/internal/domain"
)

// Client talks to the interview backend's JSON API.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the given base URL (e.g. "http://localhost:3001").
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// Create submits a new session via POST /api/sessions and returns the
// stored record.
func (c *Client) Create(ctx context.Context, session domain.Session) (*domain.Session, error) {
	var created domain.Session
	if err := c.do(ctx, http.MethodPost, "/api/sessions", session, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// Save issues a full overwrite via PUT /api/sessions/{id}.
func (c *Client) Save(ctx context.Context, session domain.Session) error {
	path := "/api/sessions/" + session.ID
	return c.do(ctx, http.MethodPut, path, session, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%s %s returned %d: %s", method, path, resp.StatusCode, msg)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response from %s: %w", path, err)
		}
	}
	return nil
}
