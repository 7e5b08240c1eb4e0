package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Minister124/BlazorAuth-sub000/internal/models"
	"github.com/Minister124/BlazorAuth-sub000/internal/repository"
	"github.com/Minister124/BlazorAuth-sub000/internal/security"
)

func newUserService(env *testEnv) *UserService {
	return NewUserService(env.repos.Users, env.repos.Sessions, env.repos.Roles, env.repos.Departments, nil, zerolog.Nop())
}

func TestCreateUserDefaultsToPending(t *testing.T) {
	env := newTestEnv(t, false)
	svc := newUserService(env)
	employee, err := env.roles.GetByName(context.Background(), models.RoleNameEmployee)
	require.NoError(t, err)

	user, err := svc.Create(context.Background(), "actor", CreateUserInput{
		Email:       "Bob@Example.com",
		Password:    "pass-word-123",
		DisplayName: "Bob",
		RoleID:      employee.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", user.Email, "emails are normalized")
	assert.Equal(t, models.UserStatusPending, user.Status)
}

func TestCreateUserValidatesReferences(t *testing.T) {
	env := newTestEnv(t, false)
	svc := newUserService(env)

	_, err := svc.Create(context.Background(), "actor", CreateUserInput{
		Email:       "bob@example.com",
		Password:    "pass-word-123",
		DisplayName: "Bob",
		RoleID:      "no-such-role",
	})
	assert.ErrorIs(t, err, repository.ErrRoleNotFound)

	employee, err := env.roles.GetByName(context.Background(), models.RoleNameEmployee)
	require.NoError(t, err)
	ghostDept := "no-such-department"
	_, err = svc.Create(context.Background(), "actor", CreateUserInput{
		Email:        "bob@example.com",
		Password:     "pass-word-123",
		DisplayName:  "Bob",
		RoleID:       employee.ID,
		DepartmentID: &ghostDept,
	})
	assert.ErrorIs(t, err, repository.ErrDepartmentNotFound)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	env := newTestEnv(t, false)
	svc := newUserService(env)
	env.register(t, "bob@example.com")
	employee, err := env.roles.GetByName(context.Background(), models.RoleNameEmployee)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), "actor", CreateUserInput{
		Email:       "bob@example.com",
		Password:    "pass-word-123",
		DisplayName: "Bob Again",
		RoleID:      employee.ID,
	})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestDeactivationRevokesSessions(t *testing.T) {
	env := newTestEnv(t, false)
	svc := newUserService(env)
	env.register(t, "alice@example.com")
	login := env.login(t, "alice@example.com", "dev-1")

	inactive := models.UserStatusInactive
	_, err := svc.Update(context.Background(), "actor", login.User.ID, UpdateUserInput{Status: &inactive})
	require.NoError(t, err)

	count, err := env.repos.Sessions.CountByUser(context.Background(), login.User.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestUpdateUserClearDepartment(t *testing.T) {
	env := newTestEnv(t, false)
	svc := newUserService(env)
	deptSvc := NewDepartmentService(env.repos.Departments, env.repos.Users, nil, zerolog.Nop())

	dept, err := deptSvc.Create(context.Background(), "actor", DepartmentInput{Name: "Engineering"})
	require.NoError(t, err)

	result := env.register(t, "alice@example.com")
	updated, err := svc.Update(context.Background(), "actor", result.User.ID, UpdateUserInput{DepartmentID: &dept.ID})
	require.NoError(t, err)
	require.NotNil(t, updated.DepartmentID)

	updated, err = svc.Update(context.Background(), "actor", result.User.ID, UpdateUserInput{ClearDepartment: true})
	require.NoError(t, err)
	assert.Nil(t, updated.DepartmentID)
}

func TestDeleteUserRevokesSessions(t *testing.T) {
	env := newTestEnv(t, false)
	svc := newUserService(env)
	env.register(t, "alice@example.com")
	login := env.login(t, "alice@example.com", "dev-1")

	require.NoError(t, svc.Delete(context.Background(), "actor", login.User.ID))

	_, err := env.repos.Users.GetByID(context.Background(), login.User.ID)
	assert.ErrorIs(t, err, repository.ErrUserNotFound)

	count, err := env.repos.Sessions.CountByUser(context.Background(), login.User.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestChangePassword(t *testing.T) {
	env := newTestEnv(t, false)
	svc := newUserService(env)
	result := env.register(t, "alice@example.com")

	err := svc.ChangePassword(context.Background(), result.User.ID, "not-the-password", "new-password-456")
	assert.ErrorIs(t, err, ErrWrongPassword)

	require.NoError(t, svc.ChangePassword(context.Background(), result.User.ID, "pass-word-123", "new-password-456"))

	user, err := env.repos.Users.GetByID(context.Background(), result.User.ID)
	require.NoError(t, err)
	ok, err := security.VerifyPassword("new-password-456", user.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUpdateProfileTouchesOnlySelfServiceFields(t *testing.T) {
	env := newTestEnv(t, false)
	svc := newUserService(env)
	result := env.register(t, "alice@example.com")

	name := "Alice Prime"
	avatar := "https://cdn.example.com/a.png"
	updated, err := svc.UpdateProfile(context.Background(), result.User.ID, UpdateProfileInput{
		DisplayName: &name,
		AvatarURL:   &avatar,
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice Prime", updated.DisplayName)
	require.NotNil(t, updated.AvatarURL)
	assert.Equal(t, avatar, *updated.AvatarURL)
	assert.Equal(t, result.User.RoleID, updated.RoleID)
	assert.Equal(t, result.User.Status, updated.Status)
}
