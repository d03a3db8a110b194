package glpi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"ticketferry/internal/services"
)

// InitSession acquires an authenticated session. The returned token must be
// released with KillSession on every exit path; leaked sessions are a
// resource leak on the GLPI side.
func (c *Client) InitSession(ctx context.Context) (*Session, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/initSession", nil)
	if err != nil {
		return nil, services.Wrap(services.ErrFatal, "glpi", "init session", "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("App-Token", c.appToken)
	req.Header.Set("Authorization", "user_token "+c.userToken)

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return nil, services.Wrap(services.ErrFatal, "glpi", "init session",
			fmt.Sprintf("latency=%v", latency), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, services.Wrap(services.ErrFatal, "glpi", "init session",
			fmt.Sprintf("status %d: %s", resp.StatusCode, snippet(resp.Body)), nil)
	}

	var payload struct {
		SessionToken string `json:"session_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, services.Wrap(services.ErrFatal, "glpi", "init session", "decode response", err)
	}
	if payload.SessionToken == "" {
		return nil, services.Wrap(services.ErrFatal, "glpi", "init session", "empty session token", nil)
	}
	return &Session{token: payload.SessionToken}, nil
}

// KillSession releases a session token. Safe to call with a nil session.
func (c *Client) KillSession(ctx context.Context, s *Session) error {
	if s == nil {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/killSession", nil)
	if err != nil {
		return fmt.Errorf("build kill session request: %w", err)
	}
	req.Header = c.sessionHeaders(s)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("kill session: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("kill session returned %d: %s", resp.StatusCode, snippet(resp.Body))
	}
	return nil
}

// Impersonate switches the session's attributed identity. Every subsequent
// ticket, followup, and watcher creation through this session is recorded as
// authored by accountID, so it must be called immediately before any
// authorship-sensitive operation.
func (c *Client) Impersonate(ctx context.Context, s *Session, accountID int64) error {
	payload := map[string]int64{"users_id": accountID}
	if _, err := c.postJSON(ctx, s, "/changeActiveEntities/", payload, nil); err != nil {
		return fmt.Errorf("impersonate account %d: %w", accountID, err)
	}
	s.activeUserID = accountID
	return nil
}
