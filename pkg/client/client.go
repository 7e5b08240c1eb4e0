// Package client is the Go SDK for the admin directory API. It owns the
// session lifecycle (login, registration, logout, token refresh) and an
// HTTP access layer that transparently retries a request once after
// refreshing an expired bearer token.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Minister124/BlazorAuth-sub000/internal/authz"
)

const defaultTimeout = 15 * time.Second

type Options struct {
	// BaseURL is the API root, e.g. "http://localhost:8080/api".
	BaseURL string
	// TokenStore persists the session between runs. Defaults to an
	// in-memory store.
	TokenStore TokenStore
	// DeviceName labels sessions created by this client.
	DeviceName string
	// Timeout bounds every request including the refresh retry.
	Timeout time.Duration
	Logger  zerolog.Logger
}

type Client struct {
	baseURL    string
	http       *http.Client
	bare       *http.Client // no auth transport; used for auth endpoints
	store      TokenStore
	deviceName string
	log        zerolog.Logger

	mu        sync.RWMutex
	creds     Credentials
	user      *User
	roleName  string
	roleColor string
	perms     authz.Set

	refreshMu sync.Mutex
}

func New(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = "http://localhost:8080/api"
	}
	if opts.TokenStore == nil {
		opts.TokenStore = NewMemoryTokenStore()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}

	c := &Client{
		baseURL:    opts.BaseURL,
		store:      opts.TokenStore,
		deviceName: opts.DeviceName,
		log:        opts.Logger,
	}
	c.http = &http.Client{
		Timeout:   opts.Timeout,
		Transport: &authTransport{base: http.DefaultTransport, client: c},
	}
	c.bare = &http.Client{Timeout: opts.Timeout}

	creds, err := opts.TokenStore.Load()
	if err != nil {
		return nil, fmt.Errorf("load credentials: %w", err)
	}
	c.creds = creds

	return c, nil
}

// Session is a point-in-time snapshot of the client's authentication
// state. Authenticated mirrors the bearer token being present.
type Session struct {
	Authenticated bool
	User          *User
	RoleName      string
	RoleColor     string
	Permissions   authz.Set
}

func (c *Client) Session() Session {
	c.mu.RLock()
	defer c.mu.RUnlock()

	sess := Session{
		Authenticated: c.creds.AccessToken != "",
		RoleName:      c.roleName,
		RoleColor:     c.roleColor,
	}
	if c.user != nil {
		u := *c.user
		sess.User = &u
	}
	if c.perms != nil {
		sess.Permissions = authz.NewSetFromStrings(c.perms.Strings())
	}
	return sess
}

// Guard answers whether the current session may open a view gated on the
// given permissions. Callers translate DenyUnauthenticated into a redirect
// to login and DenyForbidden into a redirect to the landing view.
func (c *Client) Guard(required ...authz.Permission) authz.Decision {
	sess := c.Session()
	return authz.Decide(sess.Authenticated, sess.Permissions, required...)
}

func (c *Client) accessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.creds.AccessToken
}

// Login authenticates and replaces the session as a unit; on any failure
// the previous session state is left untouched.
func (c *Client) Login(ctx context.Context, email, password string) (Session, error) {
	c.mu.RLock()
	deviceID := c.creds.DeviceID
	c.mu.RUnlock()

	var resp authEnvelope
	err := c.doBare(ctx, http.MethodPost, "/v1/auth/login", map[string]any{
		"email":      email,
		"password":   password,
		"deviceId":   deviceID,
		"deviceName": c.deviceName,
	}, &resp)
	if err != nil {
		return Session{}, err
	}

	if err := c.adoptSession(resp); err != nil {
		return Session{}, err
	}
	return c.Session(), nil
}

type RegisterInput struct {
	Email       string
	Password    string
	DisplayName string
}

// Register creates an account. Whether it also signs the account in is the
// server's policy; when the response carries tokens the client adopts
// them, otherwise the caller must Login explicitly.
func (c *Client) Register(ctx context.Context, input RegisterInput) (Session, error) {
	var resp authEnvelope
	err := c.doBare(ctx, http.MethodPost, "/v1/auth/register", map[string]any{
		"email":       input.Email,
		"password":    input.Password,
		"displayName": input.DisplayName,
		"deviceName":  c.deviceName,
	}, &resp)
	if err != nil {
		return Session{}, err
	}

	if resp.AccessToken == "" {
		return Session{User: &resp.User}, nil
	}

	if err := c.adoptSession(resp); err != nil {
		return Session{}, err
	}
	return c.Session(), nil
}

// Logout revokes the server-side session (best-effort) and always clears
// local state, persisted tokens included.
func (c *Client) Logout(ctx context.Context) error {
	c.mu.RLock()
	creds := c.creds
	c.mu.RUnlock()

	if !creds.Empty() && creds.UserID != "" {
		err := c.doBare(ctx, http.MethodPost, "/v1/auth/logout", map[string]any{
			"userId":   creds.UserID,
			"deviceId": creds.DeviceID,
		}, nil)
		if err != nil {
			c.log.Warn().Err(err).Msg("server-side logout failed")
		}
	}

	return c.clearSession()
}

// Refresh exchanges the stored refresh token for a new bearer token. A
// failed refresh clears the session.
func (c *Client) Refresh(ctx context.Context) error {
	_, err := c.refreshAccess(ctx, c.accessToken())
	return err
}

// refreshAccess performs the single-flight token refresh behind the retry
// transport. staleToken is the token that just failed; if another request
// already refreshed past it, that newer token is reused instead of
// spending a second refresh.
func (c *Client) refreshAccess(ctx context.Context, staleToken string) (string, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	c.mu.RLock()
	creds := c.creds
	c.mu.RUnlock()

	if creds.AccessToken != "" && creds.AccessToken != staleToken {
		return creds.AccessToken, nil
	}
	if creds.RefreshToken == "" || creds.UserID == "" {
		_ = c.clearSession()
		return "", ErrNotAuthenticated
	}

	var resp authEnvelope
	err := c.doBare(ctx, http.MethodPost, "/v1/auth/refresh", map[string]any{
		"userId":       creds.UserID,
		"deviceId":     creds.DeviceID,
		"refreshToken": creds.RefreshToken,
	}, &resp)
	if err != nil {
		_ = c.clearSession()
		return "", fmt.Errorf("refresh session: %w", err)
	}

	if err := c.adoptSession(resp); err != nil {
		return "", err
	}
	return resp.AccessToken, nil
}

func (c *Client) adoptSession(resp authEnvelope) error {
	creds := Credentials{
		UserID:       resp.User.ID,
		DeviceID:     resp.DeviceID,
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
	}
	if err := c.store.Save(creds); err != nil {
		return fmt.Errorf("persist credentials: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.creds = creds
	user := resp.User
	c.user = &user
	c.roleName = resp.User.RoleName
	c.roleColor = resp.User.RoleColor
	c.perms = authz.NewSetFromStrings(resp.User.Permissions)
	return nil
}

func (c *Client) clearSession() error {
	c.mu.Lock()
	c.creds = Credentials{}
	c.user = nil
	c.roleName = ""
	c.roleColor = ""
	c.perms = nil
	c.mu.Unlock()

	return c.store.Clear()
}

// do sends an authenticated request through the retry transport.
func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	return c.send(ctx, c.http, method, path, body, out)
}

// doBare sends a request without the auth transport; used for the auth
// endpoints themselves so a refresh can never recurse.
func (c *Client) doBare(ctx context.Context, method, path string, body any, out any) error {
	return c.send(ctx, c.bare, method, path, body, out)
}

func (c *Client) send(ctx context.Context, hc *http.Client, method, path string, body any, out any) error {
	var reqBody *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
