// Package emitter provides a client for posting lifecycle events to a
// running flightrec daemon and reading its status.
package emitter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/theirongolddev/flightrec/internal/daemon"
	"github.com/theirongolddev/flightrec/internal/hook"
)

const (
	requestTimeout = 10 * time.Second
	maxBodySize    = 1 << 20 // 1 MB
)

// ErrUnavailable indicates no daemon is listening at the configured address.
var ErrUnavailable = errors.New("emitter: daemon unavailable")

// Client posts events to a flightrec daemon over its HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the daemon at the given address.
// Returns nil if the address is empty.
func NewClient(addr string) *Client {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil
	}
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}
	return &Client{
		baseURL: strings.TrimRight(addr, "/"),
		http:    &http.Client{},
	}
}

// Emit posts one lifecycle event and returns the daemon's decisions.
func (c *Client) Emit(ctx context.Context, ev hook.Event) ([]hook.Result, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("emitter: encoding event: %w", err)
	}

	body, err := c.do(ctx, http.MethodPost, "/v1/events", payload)
	if err != nil {
		return nil, err
	}

	var decisions []hook.Result
	if err := json.Unmarshal(body, &decisions); err != nil {
		return nil, fmt.Errorf("emitter: parsing decisions: %w", err)
	}
	return decisions, nil
}

// Status fetches the daemon's current status.
func (c *Client) Status(ctx context.Context) (*daemon.Status, error) {
	body, err := c.do(ctx, http.MethodGet, "/v1/status", nil)
	if err != nil {
		return nil, err
	}

	var status daemon.Status
	if err := json.Unmarshal(body, &status); err != nil {
		return nil, fmt.Errorf("emitter: parsing status: %w", err)
	}
	return &status, nil
}

// Events fetches the daemon's buffered event backlog.
func (c *Client) Events(ctx context.Context) ([]daemon.Event, error) {
	body, err := c.do(ctx, http.MethodGet, "/v1/events", nil)
	if err != nil {
		return nil, err
	}

	var events []daemon.Event
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, fmt.Errorf("emitter: parsing events: %w", err)
	}
	return events, nil
}

// Healthy reports whether the daemon answers its health check.
func (c *Client) Healthy(ctx context.Context) bool {
	_, err := c.do(ctx, http.MethodGet, "/healthz", nil)
	return err == nil
}

// do performs one request and returns the response body.
func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("emitter: creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, ErrUnavailable
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("emitter: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("emitter: reading response: %w", err)
	}
	return body, nil
}
