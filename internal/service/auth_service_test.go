package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Minister124/BlazorAuth-sub000/internal/config"
	"github.com/Minister124/BlazorAuth-sub000/internal/models"
	"github.com/Minister124/BlazorAuth-sub000/internal/repository"
	"github.com/Minister124/BlazorAuth-sub000/internal/security"
)

type testEnv struct {
	repos repository.Set
	cfg   *config.AppConfig
	roles *RoleService
	auth  *AuthService
}

func newTestEnv(t *testing.T, autoLogin bool) *testEnv {
	t.Helper()

	repos := repository.NewMemorySet()
	log := zerolog.Nop()

	require.NoError(t, Seed(context.Background(), repos, "", "", log))

	cfg := &config.AppConfig{
		Security: config.SecurityConfig{
			JWTAccessSecret:     "test-secret",
			JWTAccessTTL:        time.Minute,
			JWTRefreshTTL:       time.Hour,
			MaxSessions:         5,
			AutoLoginOnRegister: autoLogin,
		},
	}

	roles := NewRoleService(repos.Roles, repos.Users, nil, nil, log)
	auth := NewAuthService(repos.Users, repos.Sessions, roles, nil, cfg, log)

	return &testEnv{repos: repos, cfg: cfg, roles: roles, auth: auth}
}

func (e *testEnv) register(t *testing.T, email string) AuthResult {
	t.Helper()
	result, err := e.auth.Register(context.Background(), RegisterInput{
		Email:       email,
		Password:    "pass-word-123",
		DisplayName: "Test User",
	})
	require.NoError(t, err)
	return result
}

func (e *testEnv) login(t *testing.T, email, deviceID string) AuthResult {
	t.Helper()
	result, err := e.auth.Login(context.Background(), LoginInput{
		Email:      email,
		Password:   "pass-word-123",
		DeviceID:   deviceID,
		DeviceName: "Test Device",
	})
	require.NoError(t, err)
	return result
}

func TestRegisterWithoutAutoLogin(t *testing.T) {
	env := newTestEnv(t, false)

	result := env.register(t, "alice@example.com")

	assert.Empty(t, result.AccessToken)
	assert.Empty(t, result.RefreshToken)
	assert.Equal(t, models.RoleNameEmployee, result.Role.Name)
	assert.Equal(t, models.UserStatusActive, result.User.Status)

	count, err := env.repos.Sessions.CountByUser(context.Background(), result.User.ID)
	require.NoError(t, err)
	assert.Zero(t, count, "no session until an explicit login")

	// The account works: an explicit login succeeds.
	env.login(t, "alice@example.com", "dev-1")
}

func TestRegisterWithAutoLogin(t *testing.T) {
	env := newTestEnv(t, true)

	result := env.register(t, "alice@example.com")

	require.NotEmpty(t, result.AccessToken)
	require.NotEmpty(t, result.RefreshToken)
	require.NotEmpty(t, result.DeviceID)

	claims, err := security.ParseAccessToken(result.AccessToken, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, claims.UserID)
	assert.Equal(t, models.RoleNameEmployee, claims.Role)
	assert.Contains(t, claims.Permissions, "users.view")
	assert.NotContains(t, claims.Permissions, "roles.manage")
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv(t, false)
	env.register(t, "alice@example.com")

	_, err := env.auth.Register(context.Background(), RegisterInput{
		Email:       "ALICE@example.com",
		Password:    "another-password",
		DisplayName: "Impostor",
	})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv(t, false)
	env.register(t, "alice@example.com")

	_, err := env.auth.Login(context.Background(), LoginInput{
		Email:    "alice@example.com",
		Password: "wrong",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUnknownEmail(t *testing.T) {
	env := newTestEnv(t, false)

	_, err := env.auth.Login(context.Background(), LoginInput{
		Email:    "ghost@example.com",
		Password: "whatever",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginInactiveUser(t *testing.T) {
	env := newTestEnv(t, false)
	result := env.register(t, "alice@example.com")

	user := result.User
	user.Status = models.UserStatusInactive
	require.NoError(t, env.repos.Users.Update(context.Background(), user))

	_, err := env.auth.Login(context.Background(), LoginInput{
		Email:    "alice@example.com",
		Password: "pass-word-123",
	})
	assert.ErrorIs(t, err, ErrUserInactive)
}

func TestRefreshRotatesToken(t *testing.T) {
	env := newTestEnv(t, false)
	env.register(t, "alice@example.com")
	login := env.login(t, "alice@example.com", "dev-1")

	refreshed, err := env.auth.Refresh(context.Background(), RefreshInput{
		UserID:       login.User.ID,
		DeviceID:     login.DeviceID,
		RefreshToken: login.RefreshToken,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	// The rotated-out token stops working immediately.
	_, err = env.auth.Refresh(context.Background(), RefreshInput{
		UserID:       login.User.ID,
		DeviceID:     login.DeviceID,
		RefreshToken: login.RefreshToken,
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// The new one works.
	_, err = env.auth.Refresh(context.Background(), RefreshInput{
		UserID:       login.User.ID,
		DeviceID:     login.DeviceID,
		RefreshToken: refreshed.RefreshToken,
	})
	assert.NoError(t, err)
}

func TestRefreshRejectsWrongDevice(t *testing.T) {
	env := newTestEnv(t, false)
	env.register(t, "alice@example.com")
	login := env.login(t, "alice@example.com", "dev-1")

	_, err := env.auth.Refresh(context.Background(), RefreshInput{
		UserID:       login.User.ID,
		DeviceID:     "dev-2",
		RefreshToken: login.RefreshToken,
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogoutRevokesSession(t *testing.T) {
	env := newTestEnv(t, false)
	env.register(t, "alice@example.com")
	login := env.login(t, "alice@example.com", "dev-1")

	require.NoError(t, env.auth.Logout(context.Background(), login.User.ID, login.DeviceID))

	_, err := env.auth.Refresh(context.Background(), RefreshInput{
		UserID:       login.User.ID,
		DeviceID:     login.DeviceID,
		RefreshToken: login.RefreshToken,
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginSameDeviceReplacesSession(t *testing.T) {
	env := newTestEnv(t, false)
	env.register(t, "alice@example.com")
	first := env.login(t, "alice@example.com", "dev-1")
	second := env.login(t, "alice@example.com", "dev-1")

	count, err := env.repos.Sessions.CountByUser(context.Background(), first.User.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// Only the most recent refresh token for the device survives.
	_, err = env.auth.Refresh(context.Background(), RefreshInput{
		UserID:       first.User.ID,
		DeviceID:     "dev-1",
		RefreshToken: first.RefreshToken,
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = env.auth.Refresh(context.Background(), RefreshInput{
		UserID:       second.User.ID,
		DeviceID:     "dev-1",
		RefreshToken: second.RefreshToken,
	})
	assert.NoError(t, err)
}

func TestSessionLimitEvictsOldest(t *testing.T) {
	env := newTestEnv(t, false)
	env.cfg.Security.MaxSessions = 2
	result := env.register(t, "alice@example.com")

	env.login(t, "alice@example.com", "dev-1")
	env.login(t, "alice@example.com", "dev-2")
	env.login(t, "alice@example.com", "dev-3")

	count, err := env.repos.Sessions.CountByUser(context.Background(), result.User.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
