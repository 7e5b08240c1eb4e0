package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Minister124/BlazorAuth-sub000/internal/authz"
)

func TestLoginEstablishesSession(t *testing.T) {
	_, c := newTestClient(t)

	sess := login(t, c)

	require.NotNil(t, sess.User)
	assert.Equal(t, "alice@example.com", sess.User.Email)
	assert.Equal(t, "Employee", sess.RoleName)
	assert.True(t, sess.Permissions.Has(authz.PermUsersView))
	assert.False(t, sess.Permissions.Has(authz.PermRolesManage))

	creds, err := c.store.Load()
	require.NoError(t, err)
	assert.Equal(t, "user-1", creds.UserID)
	assert.Equal(t, "dev-1", creds.DeviceID)
	assert.NotEmpty(t, creds.AccessToken)
	assert.NotEmpty(t, creds.RefreshToken)
}

func TestGuardDecisions(t *testing.T) {
	_, c := newTestClient(t)

	// No session yet: every gated view redirects to login.
	assert.Equal(t, authz.DenyUnauthenticated, c.Guard(authz.PermUsersView))
	assert.Equal(t, authz.DenyUnauthenticated, c.Guard())

	login(t, c)

	assert.Equal(t, authz.Allow, c.Guard())
	assert.Equal(t, authz.Allow, c.Guard(authz.PermUsersView))
	assert.Equal(t, authz.Allow, c.Guard(authz.PermUsersView, authz.PermDepartmentsView))
	// Missing permission: back to the landing view, not to login.
	assert.Equal(t, authz.DenyForbidden, c.Guard(authz.PermRolesManage))
	assert.Equal(t, authz.DenyForbidden, c.Guard(authz.PermUsersView, authz.PermRolesManage))

	require.NoError(t, c.Logout(context.Background()))
	assert.Equal(t, authz.DenyUnauthenticated, c.Guard(authz.PermUsersView))
}

func TestLoginFailureLeavesSessionUntouched(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid_credentials"})
	}))
	t.Cleanup(srv.Close)

	c, err := New(Options{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = c.Login(context.Background(), "alice@example.com", "wrong")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "invalid_credentials", apiErr.Code)
	assert.Equal(t, "Incorrect email or password.", apiErr.Message)

	assert.False(t, c.Session().Authenticated)
}

func TestRegisterWithoutTokensDoesNotAdoptSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Auto-login disabled server-side: the account comes back bare.
		writeJSON(w, http.StatusCreated, authEnvelope{
			User: User{ID: "user-2", Email: "bob@example.com", Status: "active"},
		})
	}))
	t.Cleanup(srv.Close)

	c, err := New(Options{BaseURL: srv.URL})
	require.NoError(t, err)

	sess, err := c.Register(context.Background(), RegisterInput{
		Email:       "bob@example.com",
		Password:    "pass-word-123",
		DisplayName: "Bob",
	})
	require.NoError(t, err)

	assert.False(t, sess.Authenticated)
	require.NotNil(t, sess.User)
	assert.Equal(t, "bob@example.com", sess.User.Email)
	assert.False(t, c.Session().Authenticated)
}

func TestRegisterWithTokensAdoptsSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, authEnvelope{
			AccessToken:  "access-1",
			RefreshToken: "refresh-1",
			DeviceID:     "dev-1",
			User:         User{ID: "user-1", Email: "alice@example.com", Status: "active"},
		})
	}))
	t.Cleanup(srv.Close)

	c, err := New(Options{BaseURL: srv.URL})
	require.NoError(t, err)

	sess, err := c.Register(context.Background(), RegisterInput{
		Email:       "alice@example.com",
		Password:    "pass-word-123",
		DisplayName: "Alice",
	})
	require.NoError(t, err)
	assert.True(t, sess.Authenticated)

	creds, err := c.store.Load()
	require.NoError(t, err)
	assert.Equal(t, "access-1", creds.AccessToken)
}

func TestExplicitRefresh(t *testing.T) {
	backend, c := newTestClient(t)
	login(t, c)

	before, err := c.store.Load()
	require.NoError(t, err)

	require.NoError(t, c.Refresh(context.Background()))

	after, err := c.store.Load()
	require.NoError(t, err)
	assert.NotEqual(t, before.AccessToken, after.AccessToken)
	assert.NotEqual(t, before.RefreshToken, after.RefreshToken)
	assert.Equal(t, 1, backend.refreshCalls)
}

func TestClientResumesPersistedSession(t *testing.T) {
	backend := &fakeBackend{}
	srv := httptest.NewServer(backend.handler())
	t.Cleanup(srv.Close)

	store := NewMemoryTokenStore()
	first, err := New(Options{BaseURL: srv.URL, TokenStore: store})
	require.NoError(t, err)
	login(t, first)

	// A second client over the same store starts out authenticated.
	second, err := New(Options{BaseURL: srv.URL, TokenStore: store})
	require.NoError(t, err)
	assert.True(t, second.Session().Authenticated)

	users, err := second.ListUsers(context.Background(), ListUsersOptions{})
	require.NoError(t, err)
	assert.Len(t, users, 1)
}
