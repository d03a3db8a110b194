package glpi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// GLPI search engine field ids for the User itemtype.
const (
	searchFieldLogin = 1
	searchFieldID    = 2
	searchFieldEmail = 5
)

// Default attributes for accounts created during migration.
const (
	createdUserAuthID    = 1
	createdUserProfileID = 1
	createdUserEntityID  = 0
)

// UserSearchResult is one row of the GLPI search response, keyed by field id.
type userSearchResponse struct {
	TotalCount int                          `json:"totalcount"`
	Data       []map[string]json.RawMessage `json:"data"`
}

// SearchUserByEmail looks a user up through the dedicated email field.
// Returns (0, nil) when no user matches.
func (c *Client) SearchUserByEmail(ctx context.Context, s *Session, email string) (int64, error) {
	return c.searchUser(ctx, s, searchFieldEmail, email)
}

// SearchUserByLogin looks a user up through the login field. Some records use
// the email address as their login instead of carrying an email entry, which
// is why resolution runs this as a second pass.
func (c *Client) SearchUserByLogin(ctx context.Context, s *Session, email string) (int64, error) {
	return c.searchUser(ctx, s, searchFieldLogin, email)
}

func (c *Client) searchUser(ctx context.Context, s *Session, field int, value string) (int64, error) {
	params := url.Values{}
	params.Set("criteria[0][field]", strconv.Itoa(field))
	params.Set("criteria[0][searchtype]", "match")
	params.Set("criteria[0][value]", value)
	params.Set("forcedisplay[0]", strconv.Itoa(searchFieldID))

	endpoint := c.baseURL + "/search/User?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("build user search request: %w", err)
	}
	req.Header = c.sessionHeaders(s)

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return 0, fmt.Errorf("search user (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("user search returned %d (latency=%v): %s",
			resp.StatusCode, latency, snippet(resp.Body))
	}

	var payload userSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("decode user search response: %w", err)
	}
	if payload.TotalCount == 0 || len(payload.Data) == 0 {
		return 0, nil
	}

	raw, ok := payload.Data[0][strconv.Itoa(searchFieldID)]
	if !ok {
		return 0, fmt.Errorf("user search row missing id field")
	}
	return decodeFlexibleID(raw)
}

// decodeFlexibleID accepts ids encoded as JSON numbers or strings; the GLPI
// search engine uses both depending on version.
func decodeFlexibleID(raw json.RawMessage) (int64, error) {
	var asNumber json.Number
	if err := json.Unmarshal(raw, &asNumber); err == nil {
		if id, err := asNumber.Int64(); err == nil {
			return id, nil
		}
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		if id, err := strconv.ParseInt(asString, 10, 64); err == nil {
			return id, nil
		}
	}
	return 0, fmt.Errorf("unparseable user id %s", raw)
}

// UserInput describes an account to create. The email doubles as the login so
// reruns of the same migration resolve to the same account.
type UserInput struct {
	Email    string
	RealName string
}

// CreateUser creates a target account and returns its id. A success response
// without an id yields ErrMissingID.
func (c *Client) CreateUser(ctx context.Context, s *Session, input UserInput) (int64, error) {
	payload := map[string]any{
		"input": map[string]any{
			"name":              input.Email,
			"realname":          input.RealName,
			"firstname":         "",
			"usercategories_id": 0,
			"usertitles_id":     0,
			"email":             input.Email,
			"auths_id":          createdUserAuthID,
			"profiles_id":       createdUserProfileID,
			"entities_id":       createdUserEntityID,
		},
	}

	var response idPayload
	if _, err := c.postJSON(ctx, s, "/User", payload, &response); err != nil {
		return 0, fmt.Errorf("create user %q: %w", input.Email, err)
	}
	id, ok := response.value()
	if !ok {
		return 0, fmt.Errorf("create user %q: %w", input.Email, ErrMissingID)
	}
	return id, nil
}
