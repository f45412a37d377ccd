package framework

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/etesdev/etes/pkg/events"
	"github.com/etesdev/etes/pkg/types"
)

// Data fetches the initial-state snapshot as the given caller.
func (c *Client) Data(caller string) (*types.InitialState, error) {
	resp, err := c.http.Get(fmt.Sprintf("http://%s/etes/api/v1/data/%s", c.management, caller))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("data endpoint returned %d", resp.StatusCode)
	}

	var state types.InitialState
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		return nil, fmt.Errorf("failed to decode initial state: %w", err)
	}
	return &state, nil
}

// Upload registers an artifact under the given commit pair and returns
// the HTTP status and whitespace-trimmed response body. An empty apiKey
// sends no Authorization header.
func (c *Client) Upload(triggerHash, buildHash, apiKey string, body io.Reader) (int, string, error) {
	url := fmt.Sprintf("http://%s/etes/api/v1/executable/%s/%s", c.management, triggerHash, buildHash)
	req, err := http.NewRequest(http.MethodPut, url, body)
	if err != nil {
		return 0, "", err
	}
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, "", err
	}
	return resp.StatusCode, strings.TrimSpace(string(data)), nil
}

// ProxyRequest issues a GET against the proxy listener under the given
// Host header. Redirects are returned to the caller, never followed.
func (c *Client) ProxyRequest(host, path string) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("http://%s%s", c.proxy, path), nil)
	if err != nil {
		return nil, err
	}
	req.Host = host
	return c.http.Do(req)
}

// Connect opens a websocket observer session as the given caller.
func (c *Client) Connect(caller string) (*Session, error) {
	url := fmt.Sprintf("ws://%s/etes/api/v1/ws/%s", c.management, caller)
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return nil, fmt.Errorf("failed to dial %s: %w", url, err)
	}
	return &Session{conn: conn}, nil
}

// Publish sends a client event over the session. The instance re-stamps
// it with the session principal before it reaches the bus.
func (s *Session) Publish(e events.Event) error {
	data, err := events.Marshal(e)
	if err != nil {
		return err
	}
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// Next returns the next event forwarded to the session.
func (s *Session) Next(timeout time.Duration) (events.Event, error) {
	if err := s.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return nil, err
	}
	_, data, err := s.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	return events.Unmarshal(data)
}

// Close ends the session.
func (s *Session) Close() error {
	return s.conn.Close()
}

// NextOf reads events from the session until one of the wanted variant
// arrives or the timeout passes. Events of other variants are discarded,
// so interleaved broadcasts (memory samples, metadata refreshes) do not
// disturb the caller.
func NextOf[T events.Event](s *Session, timeout time.Duration) (T, error) {
	var zero T
	deadline := time.Now().Add(timeout)

	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return zero, fmt.Errorf("timed out waiting for %T", zero)
		}

		event, err := s.Next(remaining)
		if err != nil {
			return zero, fmt.Errorf("waiting for %T: %w", zero, err)
		}
		if typed, ok := event.(T); ok {
			return typed, nil
		}
	}
}
