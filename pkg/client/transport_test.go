package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend is a minimal in-process rendition of the API: one account, one
// device, bearer tokens that can be expired on demand. It counts refresh and
// protected-endpoint calls so tests can assert the retry discipline.
type fakeBackend struct {
	mu sync.Mutex

	validAccess  string
	refreshToken string
	tokenSeq     int

	refreshCalls       int
	protectedHits      int
	logoutCalls        int
	failRefresh        bool
	alwaysUnauthorized bool
}

func (b *fakeBackend) issueTokens() (string, string) {
	b.tokenSeq++
	b.validAccess = fmt.Sprintf("access-%d", b.tokenSeq)
	b.refreshToken = fmt.Sprintf("refresh-%d", b.tokenSeq)
	return b.validAccess, b.refreshToken
}

// expireAccess invalidates the current bearer token while leaving the
// refresh token usable, mimicking an access-token TTL running out.
func (b *fakeBackend) expireAccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.validAccess = ""
}

func (b *fakeBackend) envelope() authEnvelope {
	return authEnvelope{
		AccessToken:  b.validAccess,
		RefreshToken: b.refreshToken,
		DeviceID:     "dev-1",
		User: User{
			ID:          "user-1",
			Email:       "alice@example.com",
			DisplayName: "Alice",
			RoleID:      "role-employee",
			RoleName:    "Employee",
			Permissions: []string{"users.view", "departments.view", "profile.edit"},
			Status:      "active",
		},
	}
}

func (b *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.issueTokens()
		writeJSON(w, http.StatusOK, b.envelope())
	})

	mux.HandleFunc("POST /v1/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.refreshCalls++

		var req struct {
			RefreshToken string `json:"refreshToken"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)

		if b.failRefresh || req.RefreshToken != b.refreshToken {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid_credentials"})
			return
		}

		b.issueTokens()
		writeJSON(w, http.StatusOK, b.envelope())
	})

	mux.HandleFunc("POST /v1/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.logoutCalls++
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("GET /v1/users", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.protectedHits++

		token := r.Header.Get("Authorization")
		if b.alwaysUnauthorized || b.validAccess == "" || token != "Bearer "+b.validAccess {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication_required"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": []User{{ID: "user-1", Email: "alice@example.com"}}})
	})

	return mux
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func newTestClient(t *testing.T) (*fakeBackend, *Client) {
	t.Helper()

	backend := &fakeBackend{}
	srv := httptest.NewServer(backend.handler())
	t.Cleanup(srv.Close)

	c, err := New(Options{BaseURL: srv.URL, DeviceName: "unit test"})
	require.NoError(t, err)
	return backend, c
}

func login(t *testing.T, c *Client) Session {
	t.Helper()
	sess, err := c.Login(context.Background(), "alice@example.com", "pass-word-123")
	require.NoError(t, err)
	require.True(t, sess.Authenticated)
	return sess
}

func TestExpiredTokenIsRefreshedAndRetriedOnce(t *testing.T) {
	backend, c := newTestClient(t)
	login(t, c)

	backend.expireAccess()

	users, err := c.ListUsers(context.Background(), ListUsersOptions{})
	require.NoError(t, err)
	require.Len(t, users, 1)

	assert.Equal(t, 1, backend.refreshCalls, "exactly one refresh")
	assert.Equal(t, 2, backend.protectedHits, "original request plus one retry")
	assert.True(t, c.Session().Authenticated)
}

func TestFreshTokenIsNotRefreshed(t *testing.T) {
	backend, c := newTestClient(t)
	login(t, c)

	_, err := c.ListUsers(context.Background(), ListUsersOptions{})
	require.NoError(t, err)

	assert.Zero(t, backend.refreshCalls)
	assert.Equal(t, 1, backend.protectedHits)
}

func TestSecondUnauthorizedIsTerminal(t *testing.T) {
	backend, c := newTestClient(t)
	login(t, c)

	// The backend keeps answering 401 even with a fresh token, so the retry
	// fails too. The client must not refresh again or loop.
	backend.mu.Lock()
	backend.alwaysUnauthorized = true
	backend.mu.Unlock()

	_, err := c.ListUsers(context.Background(), ListUsersOptions{})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)

	assert.Equal(t, 1, backend.refreshCalls, "no second refresh after a failed retry")
	assert.Equal(t, 2, backend.protectedHits)
}

func TestRefreshFailureClearsSession(t *testing.T) {
	backend, c := newTestClient(t)
	login(t, c)

	backend.expireAccess()
	backend.mu.Lock()
	backend.failRefresh = true
	backend.mu.Unlock()

	_, err := c.ListUsers(context.Background(), ListUsersOptions{})
	require.Error(t, err)

	sess := c.Session()
	assert.False(t, sess.Authenticated)
	assert.Nil(t, sess.User)

	creds, err := c.store.Load()
	require.NoError(t, err)
	assert.True(t, creds.Empty(), "persisted tokens are gone")
}

func TestConcurrentRequestsShareOneRefresh(t *testing.T) {
	backend, c := newTestClient(t)
	login(t, c)

	backend.expireAccess()

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.ListUsers(context.Background(), ListUsersOptions{})
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoErrorf(t, err, "worker %d", i)
	}
	assert.Equal(t, 1, backend.refreshCalls, "one refresh serves every stalled request")
}

func TestLogoutClearsLocalSession(t *testing.T) {
	backend, c := newTestClient(t)
	login(t, c)

	require.NoError(t, c.Logout(context.Background()))

	assert.Equal(t, 1, backend.logoutCalls)
	sess := c.Session()
	assert.False(t, sess.Authenticated)
	assert.Nil(t, sess.User)

	creds, err := c.store.Load()
	require.NoError(t, err)
	assert.True(t, creds.Empty())

	// A protected call without a session fails without a refresh attempt.
	_, err = c.ListUsers(context.Background(), ListUsersOptions{})
	require.Error(t, err)
}
