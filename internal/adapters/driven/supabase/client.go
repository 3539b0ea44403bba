// Package supabase is the identity-provider adapter. It speaks the
// provider's auth HTTP API directly, persists its session snapshot through
// the Credential Vault (the same way the mobile client plugs its secure
// store into the provider SDK) and emits auth change events for the
// session reconciler.
package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/itsunani-labs/itsunani-cli/internal/core/domain"
	"github.com/itsunani-labs/itsunani-cli/internal/core/ports/driven"
	"github.com/itsunani-labs/itsunani-cli/internal/logger"
)

// Ensure Client implements the interface.
var _ driven.IdentityClient = (*Client)(nil)

// sessionSnapshotKey is the vault key holding the persisted session.
// It belongs to this adapter; the core never reads it.
const sessionSnapshotKey = "supabase_session"

// calendarScope is the provider scope requested for calendar access, with
// offline access so a provider refresh token is issued.
const calendarScope = "https://www.googleapis.com/auth/calendar"

// Client is an HTTP client for the identity provider's auth API.
type Client struct {
	baseURL    string
	anonKey    string
	httpClient *http.Client
	vault      driven.CredentialVault

	mu        sync.RWMutex
	session   *domain.Session
	listeners map[int]func(domain.AuthEvent, *domain.Session)
	nextID    int
}

// NewClient creates an identity client for the given project URL and
// publishable key. The vault persists the session across restarts.
func NewClient(baseURL, anonKey string, vault driven.CredentialVault) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		anonKey:    anonKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		vault:      vault,
		listeners:  make(map[int]func(domain.AuthEvent, *domain.Session)),
	}
}

// AuthorizeURL builds the provider-auth browser URL. Offline access with a
// consent prompt is forced so the redirect fragment carries a provider
// refresh token alongside the provider token.
func (c *Client) AuthorizeURL(redirectTo string) string {
	params := url.Values{}
	params.Set("provider", "google")
	params.Set("redirect_to", redirectTo)
	params.Set("scopes", calendarScope)
	params.Set("access_type", "offline")
	params.Set("prompt", "consent")
	return c.baseURL + "/auth/v1/authorize?" + params.Encode()
}

// SetSession establishes a session from a redirect token pair. The access
// token is validated against the provider's user endpoint; a rejection
// returns ErrProviderAuth with the provider's reason.
func (c *Client) SetSession(ctx context.Context, accessToken, refreshToken string) (*domain.Session, error) {
	user, err := c.fetchUser(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	session := &domain.Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		UserID:       user.ID,
		Email:        user.Email,
	}

	c.persistSession(ctx, session)
	c.setSession(session)
	c.emit(domain.AuthEventSignedIn, session)
	return session, nil
}

// RestoreSession loads the persisted session snapshot and revalidates it,
// refreshing the token pair if the access token has expired. Returns
// (nil, nil) when no restorable session exists.
func (c *Client) RestoreSession(ctx context.Context) (*domain.Session, error) {
	raw, ok, err := c.vault.Get(ctx, sessionSnapshotKey)
	if err != nil {
		return nil, fmt.Errorf("read session snapshot: %w", err)
	}
	if !ok {
		return nil, nil
	}

	var session domain.Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		logger.Warn("Discarding undecodable session snapshot: %v", err)
		_ = c.vault.Delete(ctx, sessionSnapshotKey)
		return nil, nil
	}

	user, err := c.fetchUser(ctx, session.AccessToken)
	if err == nil {
		session.UserID = user.ID
		session.Email = user.Email
		c.setSession(&session)
		return &session, nil
	}

	// Access token rejected; try the refresh grant before giving up.
	logger.Debug("Persisted access token rejected, refreshing: %v", err)
	refreshed, err := c.refreshSession(ctx, session.RefreshToken)
	if err != nil {
		logger.Warn("Session refresh failed: %v", err)
		_ = c.vault.Delete(ctx, sessionSnapshotKey)
		return nil, nil
	}

	c.persistSession(ctx, refreshed)
	c.setSession(refreshed)
	c.emit(domain.AuthEventTokenRefreshed, refreshed)
	return refreshed, nil
}

// CurrentSession returns the established session, or nil.
func (c *Client) CurrentSession() *domain.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return nil
	}
	cp := *c.session
	return &cp
}

// SignOut revokes the session remotely (best-effort), drops the persisted
// snapshot and emits a signed-out event.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.RLock()
	session := c.session
	c.mu.RUnlock()

	if session != nil {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/v1/logout", http.NoBody)
		if err == nil {
			c.setAuthHeaders(req, session.AccessToken)
			if resp, err := c.httpClient.Do(req); err != nil {
				logger.Warn("Remote sign-out failed: %v", err)
			} else {
				resp.Body.Close()
			}
		}
	}

	if err := c.vault.Delete(ctx, sessionSnapshotKey); err != nil {
		return fmt.Errorf("drop session snapshot: %w", err)
	}

	c.setSession(nil)
	c.emit(domain.AuthEventSignedOut, nil)
	return nil
}

// OnAuthStateChange registers fn for every session state change. The
// returned function releases the registration.
func (c *Client) OnAuthStateChange(fn func(domain.AuthEvent, *domain.Session)) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

// userInfo is the provider's user endpoint response.
type userInfo struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// fetchUser validates an access token against the user endpoint.
func (c *Client) fetchUser(ctx context.Context, accessToken string) (*userInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/v1/user", http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.setAuthHeaders(req, accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch user: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s", domain.ErrProviderAuth, decodeAuthError(resp))
	}

	var user userInfo
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	return &user, nil
}

// refreshSession exchanges a refresh token for a new session token pair.
func (c *Client) refreshSession(ctx context.Context, refreshToken string) (*domain.Session, error) {
	body, err := json.Marshal(map[string]string{"refresh_token": refreshToken})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/auth/v1/token?grant_type=refresh_token", strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.setAuthHeaders(req, "")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("refresh request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s", domain.ErrProviderAuth, decodeAuthError(resp))
	}

	var tokenResp struct {
		AccessToken  string   `json:"access_token"`
		RefreshToken string   `json:"refresh_token"`
		User         userInfo `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}

	return &domain.Session{
		AccessToken:  tokenResp.AccessToken,
		RefreshToken: tokenResp.RefreshToken,
		UserID:       tokenResp.User.ID,
		Email:        tokenResp.User.Email,
	}, nil
}

// persistSession writes the session snapshot to the vault. Best-effort: a
// failed write never rolls back an established session.
func (c *Client) persistSession(ctx context.Context, session *domain.Session) {
	raw, err := json.Marshal(session)
	if err != nil {
		logger.Warn("Session snapshot not persisted: %v", err)
		return
	}
	if err := c.vault.Set(ctx, sessionSnapshotKey, string(raw)); err != nil {
		logger.Warn("Session snapshot not persisted: %v", err)
	}
}

func (c *Client) setSession(session *domain.Session) {
	c.mu.Lock()
	c.session = session
	c.mu.Unlock()
}

// emit delivers an auth change to every registered listener.
func (c *Client) emit(event domain.AuthEvent, session *domain.Session) {
	c.mu.RLock()
	fns := make([]func(domain.AuthEvent, *domain.Session), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.mu.RUnlock()

	for _, fn := range fns {
		fn(event, session)
	}
}

// setAuthHeaders attaches the project key and, when present, the bearer
// token to a request.
func (c *Client) setAuthHeaders(req *http.Request, accessToken string) {
	req.Header.Set("apikey", c.anonKey)
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	} else {
		req.Header.Set("Authorization", "Bearer "+c.anonKey)
	}
}

// decodeAuthError extracts the provider's rejection reason from an error
// response body, falling back to the HTTP status.
func decodeAuthError(resp *http.Response) string {
	var errResp struct {
		Msg         string `json:"msg"`
		Message     string `json:"message"`
		Description string `json:"error_description"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil {
		switch {
		case errResp.Msg != "":
			return errResp.Msg
		case errResp.Message != "":
			return errResp.Message
		case errResp.Description != "":
			return errResp.Description
		}
	}
	return fmt.Sprintf("request failed with status %d", resp.StatusCode)
}
