package glpi

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

	"ticketferry/internal/services"
)

// ErrMissingID reports that a create call succeeded at the HTTP level but the
// response payload carried no id. Callers treat it the same way as a failed
// call for that operation's scope.
var ErrMissingID = fmt.Errorf("%w: glpi: response did not include an id", services.ErrValidation)

// Client provides access to the GLPI REST API. All session state lives in the
// Session values returned by InitSession; the client itself is immutable and
// safe to share.
type Client struct {
	baseURL    string
	appToken   string
	userToken  string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout bounds every API call.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// New creates a GLPI API client.
func New(baseURL, appToken, userToken string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("glpi base url required")
	}
	appToken = strings.TrimSpace(appToken)
	if appToken == "" {
		return nil, errors.New("glpi app token required")
	}
	userToken = strings.TrimSpace(userToken)
	if userToken == "" {
		return nil, errors.New("glpi user token required")
	}
	client := &Client{
		baseURL:    baseURL,
		appToken:   appToken,
		userToken:  userToken,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Session carries the authenticated session token plus the identity the
// session is currently attributed to. It is an explicit value passed into
// every replication call; concurrent workers must each hold their own.
type Session struct {
	token        string
	activeUserID int64
}

// ActiveUserID returns the account the session currently impersonates, or
// zero before the first Impersonate call.
func (s *Session) ActiveUserID() int64 {
	if s == nil {
		return 0
	}
	return s.activeUserID
}

func (c *Client) sessionHeaders(s *Session) http.Header {
	headers := http.Header{}
	headers.Set("Content-Type", "application/json")
	headers.Set("App-Token", c.appToken)
	if s != nil {
		headers.Set("Session-Token", s.token)
	}
	return headers
}

// postJSON issues a JSON POST and decodes the response body into out when the
// call succeeds. The returned status code is valid whenever err is nil or the
// failure happened after the response arrived.
func (c *Client) postJSON(ctx context.Context, s *Session, path string, payload any, out any) (int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header = c.sessionHeaders(s)

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return 0, fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return resp.StatusCode, fmt.Errorf("glpi %s returned %d (latency=%v): %s",
			path, resp.StatusCode, latency, snippet(resp.Body))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode %s response: %w", path, err)
		}
	}
	return resp.StatusCode, nil
}

// snippet reads a bounded prefix of an error response body for diagnostics.
func snippet(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 512))
	if err != nil || len(data) == 0 {
		return "<no body>"
	}
	return strings.TrimSpace(string(data))
}

// idPayload tolerates GLPI returning ids as JSON numbers or strings.
type idPayload struct {
	ID json.Number `json:"id"`
}

func (p idPayload) value() (int64, bool) {
	if p.ID.String() == "" {
		return 0, false
	}
	id, err := p.ID.Int64()
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// Timestamp renders a time in the format the GLPI API expects for date
// fields.
func Timestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}
