// internal/app/identity/httpclient.go
package identity

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gymovoo/gymovoo/internal/app/system/timeouts"
	"github.com/gymovoo/gymovoo/internal/domain/models"
	"go.uber.org/zap"
)

// HTTPClient talks to the hosted identity provider over its REST
// surface. Auth endpoints live under /auth/v1, the profile, preferences,
// and stats resources under /rest/v1 keyed by user id.
//
// The client holds the access token for one app instance; create one
// HTTPClient per device session.
type HTTPClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     *zap.Logger

	mu    sync.Mutex
	token string

	events    chan AuthEvent
	closeOnce sync.Once
	cancel    context.CancelFunc
}

// NewHTTPClient builds a client for the provider at baseURL. The event
// stream starts lazily on first sign-in.
func NewHTTPClient(baseURL, apiKey string, logger *zap.Logger) *HTTPClient {
	ctx, cancel := context.WithCancel(context.Background())
	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{},
		log:     logger,
		events:  make(chan AuthEvent, 8),
		cancel:  cancel,
	}
	go c.streamEvents(ctx)
	return c
}

/*─────────────────────────────────────────────────────────────────────────────*
| Auth endpoints                                                              |
*─────────────────────────────────────────────────────────────────────────────*/

// wireAccount is the provider's user payload.
type wireAccount struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Metadata struct {
		DisplayName string `json:"display_name"`
	} `json:"user_metadata"`
}

func (w wireAccount) account() *Account {
	role := w.Role
	if role == "" {
		role = models.RoleUser
	}
	return &Account{
		ID:          w.ID,
		Email:       w.Email,
		DisplayName: w.Metadata.DisplayName,
		Role:        role,
	}
}

type tokenResponse struct {
	AccessToken string      `json:"access_token"`
	User        wireAccount `json:"user"`
}

func (c *HTTPClient) SignIn(ctx context.Context, email, password string) (*Account, error) {
	body := map[string]string{"email": email, "password": password}

	var resp tokenResponse
	status, err := c.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", body, &resp)
	if err != nil {
		return nil, err
	}
	switch {
	case status == http.StatusOK:
		c.setToken(resp.AccessToken)
		return resp.User.account(), nil
	case status == http.StatusBadRequest || status == http.StatusUnauthorized:
		return nil, models.NewInvalidCredentialsError()
	default:
		return nil, models.NewNetworkError(fmt.Sprintf("sign-in failed with status %d", status))
	}
}

func (c *HTTPClient) SignUp(ctx context.Context, email, password, displayName string) (*Account, error) {
	body := map[string]any{
		"email":    email,
		"password": password,
		"data":     map[string]string{"display_name": displayName},
	}

	var resp tokenResponse
	status, err := c.do(ctx, http.MethodPost, "/auth/v1/signup", body, &resp)
	if err != nil {
		return nil, err
	}
	switch {
	case status == http.StatusOK:
		c.setToken(resp.AccessToken)
		return resp.User.account(), nil
	case status == http.StatusConflict || status == http.StatusUnprocessableEntity:
		return nil, models.NewRemoteValidationError("an account with this email already exists")
	case status == http.StatusBadRequest:
		return nil, models.NewRemoteValidationError("the sign-up details were rejected")
	default:
		return nil, models.NewNetworkError(fmt.Sprintf("sign-up failed with status %d", status))
	}
}

// SignOut revokes the remote session. The local token is dropped even if
// the remote call fails; the caller treats remote sign-out as
// best-effort.
func (c *HTTPClient) SignOut(ctx context.Context) error {
	defer c.setToken("")

	status, err := c.do(ctx, http.MethodPost, "/auth/v1/logout", nil, nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK && status != http.StatusNoContent {
		return models.NewNetworkError(fmt.Sprintf("sign-out failed with status %d", status))
	}
	return nil
}

// GetSession returns the account for the current token, or nil when no
// session is established.
func (c *HTTPClient) GetSession(ctx context.Context) (*Account, error) {
	if c.getToken() == "" {
		return nil, nil
	}

	var acct wireAccount
	status, err := c.do(ctx, http.MethodGet, "/auth/v1/user", nil, &acct)
	if err != nil {
		return nil, err
	}
	switch status {
	case http.StatusOK:
		return acct.account(), nil
	case http.StatusUnauthorized:
		return nil, nil
	default:
		return nil, models.NewNetworkError(fmt.Sprintf("session lookup failed with status %d", status))
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Profile / preferences / stats resources                                     |
*─────────────────────────────────────────────────────────────────────────────*/

func (c *HTTPClient) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	var rows []models.Profile
	if err := c.getRows(ctx, "profiles", userID, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, models.NewNotFoundError("profile")
	}
	return &rows[0], nil
}

func (c *HTTPClient) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (*models.Profile, error) {
	path := "/rest/v1/profiles?id=eq." + url.QueryEscape(userID)

	var rows []models.Profile
	status, err := c.do(ctx, http.MethodPatch, path, upd, &rows)
	if err != nil {
		return nil, err
	}
	switch {
	case status == http.StatusOK && len(rows) > 0:
		return &rows[0], nil
	case status == http.StatusOK || status == http.StatusNotFound:
		return nil, models.NewNotFoundError("profile")
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return nil, models.NewRemoteValidationError("the profile changes were rejected")
	default:
		return nil, models.NewNetworkError(fmt.Sprintf("profile update failed with status %d", status))
	}
}

func (c *HTTPClient) GetPreferences(ctx context.Context, userID string) (*models.Preferences, error) {
	var rows []models.Preferences
	if err := c.getRows(ctx, "preferences", userID, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, models.NewNotFoundError("preferences")
	}
	return &rows[0], nil
}

func (c *HTTPClient) GetStats(ctx context.Context, userID string) (*models.Stats, error) {
	var rows []models.Stats
	if err := c.getRows(ctx, "stats", userID, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, models.NewNotFoundError("stats")
	}
	return &rows[0], nil
}

// getRows fetches a per-user resource table filtered by user id.
func (c *HTTPClient) getRows(ctx context.Context, table, userID string, out any) error {
	path := "/rest/v1/" + table + "?id=eq." + url.QueryEscape(userID)
	status, err := c.do(ctx, http.MethodGet, path, nil, out)
	if err != nil {
		return err
	}
	switch status {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
		return models.NewNotFoundError(table)
	default:
		return models.NewNetworkError(fmt.Sprintf("%s fetch failed with status %d", table, status))
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Event stream                                                                |
*─────────────────────────────────────────────────────────────────────────────*/

func (c *HTTPClient) Events() <-chan AuthEvent {
	return c.events
}

// Close stops the event stream and closes the Events channel.
func (c *HTTPClient) Close() error {
	c.closeOnce.Do(func() {
		c.cancel()
		close(c.events)
	})
	return nil
}

// streamEvents maintains a long-lived SSE connection to the provider's
// auth event stream and forwards SIGNED_IN/SIGNED_OUT events. The
// connection is only held while a token is present; dropped connections
// are retried with a flat backoff.
func (c *HTTPClient) streamEvents(ctx context.Context) {
	const retryDelay = 5 * time.Second

	for {
		if ctx.Err() != nil {
			return
		}
		if c.getToken() == "" {
			select {
			case <-time.After(time.Second):
				continue
			case <-ctx.Done():
				return
			}
		}

		if err := c.readEventStream(ctx); err != nil && ctx.Err() == nil {
			c.log.Debug("auth event stream disconnected", zap.Error(err))
		}

		select {
		case <-time.After(retryDelay):
		case <-ctx.Done():
			return
		}
	}
}

func (c *HTTPClient) readEventStream(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/v1/stream", nil)
	if err != nil {
		return err
	}
	c.setHeaders(req)
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("event stream returned status %d", resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		var ev struct {
			Event  string `json:"event"`
			UserID string `json:"user_id"`
		}
		if err := json.Unmarshal([]byte(strings.TrimSpace(line[len("data:"):])), &ev); err != nil {
			continue
		}
		switch AuthEventType(ev.Event) {
		case EventSignedIn, EventSignedOut:
			select {
			case c.events <- AuthEvent{Type: AuthEventType(ev.Event), UserID: ev.UserID}:
			case <-ctx.Done():
				return nil
			}
		}
	}
	return scanner.Err()
}

/*─────────────────────────────────────────────────────────────────────────────*
| Plumbing                                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

func (c *HTTPClient) setToken(tok string) {
	c.mu.Lock()
	c.token = tok
	c.mu.Unlock()
}

func (c *HTTPClient) getToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

func (c *HTTPClient) setHeaders(req *http.Request) {
	req.Header.Set("apikey", c.apiKey)
	if tok := c.getToken(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
}

// do performs one provider call with the identity timeout applied,
// decodes a JSON response into out (when non-nil and the body is
// non-empty), and returns the HTTP status. Transport failures and
// timeouts come back as *models.SessionError with kind network.
func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Identity())
	defer cancel()

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	c.setHeaders(req)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method == http.MethodPatch {
		req.Header.Set("Prefer", "return=representation")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return 0, models.NewNetworkError("the request timed out")
		}
		return 0, models.NewNetworkError(err.Error())
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < http.StatusMultipleChoices {
		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return resp.StatusCode, models.NewNetworkError(err.Error())
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, out); err != nil {
				return resp.StatusCode, models.NewNetworkError("the server returned an unreadable response")
			}
		}
	}
	return resp.StatusCode, nil
}
