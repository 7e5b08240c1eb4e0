package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Minister124/BlazorAuth-sub000/internal/authz"
	"github.com/Minister124/BlazorAuth-sub000/internal/models"
)

func TestCreateRole(t *testing.T) {
	env := newTestEnv(t, false)

	role, err := env.roles.Create(context.Background(), "actor", RoleInput{
		Name:        "Auditor",
		Description: "Read-only oversight",
		Color:       "#9c27b0",
		Permissions: []authz.Permission{authz.PermUsersView, authz.PermRolesView},
	})
	require.NoError(t, err)
	assert.False(t, role.IsSystem)
	assert.True(t, role.PermissionSet().Has(authz.PermUsersView))

	_, err = env.roles.Create(context.Background(), "actor", RoleInput{Name: "auditor"})
	assert.ErrorIs(t, err, ErrRoleNameTaken, "name uniqueness is case-insensitive")
}

func TestCreateRoleRejectsUnknownPermission(t *testing.T) {
	env := newTestEnv(t, false)

	_, err := env.roles.Create(context.Background(), "actor", RoleInput{
		Name:        "Auditor",
		Permissions: []authz.Permission{"users.superpower"},
	})
	assert.ErrorIs(t, err, ErrUnknownPermission)
}

func TestUpdateRolePermissions(t *testing.T) {
	env := newTestEnv(t, false)
	role, err := env.roles.Create(context.Background(), "actor", RoleInput{
		Name:        "Auditor",
		Permissions: []authz.Permission{authz.PermUsersView},
	})
	require.NoError(t, err)

	updated, err := env.roles.Update(context.Background(), "actor", role.ID, RoleInput{
		Permissions: []authz.Permission{authz.PermUsersView, authz.PermDepartmentsView},
	})
	require.NoError(t, err)
	assert.True(t, updated.PermissionSet().Has(authz.PermDepartmentsView))
}

func TestSystemRoleCannotBeRenamed(t *testing.T) {
	env := newTestEnv(t, false)
	admin, err := env.roles.GetByName(context.Background(), models.RoleNameAdministrator)
	require.NoError(t, err)

	_, err = env.roles.Update(context.Background(), "actor", admin.ID, RoleInput{Name: "Root"})
	assert.ErrorIs(t, err, ErrSystemRole)

	// Changing the permission set of a system role is allowed.
	_, err = env.roles.Update(context.Background(), "actor", admin.ID, RoleInput{
		Permissions: []authz.Permission{authz.PermUsersView},
	})
	assert.NoError(t, err)
}

func TestSystemRoleCannotBeDeleted(t *testing.T) {
	env := newTestEnv(t, false)
	admin, err := env.roles.GetByName(context.Background(), models.RoleNameAdministrator)
	require.NoError(t, err)

	err = env.roles.Delete(context.Background(), "actor", admin.ID)
	assert.ErrorIs(t, err, ErrSystemRole)
}

func TestDeleteRoleInUse(t *testing.T) {
	env := newTestEnv(t, false)
	role, err := env.roles.Create(context.Background(), "actor", RoleInput{Name: "Auditor"})
	require.NoError(t, err)

	result := env.register(t, "alice@example.com")
	user := result.User
	user.RoleID = role.ID
	require.NoError(t, env.repos.Users.Update(context.Background(), user))

	err = env.roles.Delete(context.Background(), "actor", role.ID)
	assert.ErrorIs(t, err, ErrRoleInUse)

	// Once nobody holds the role it can go.
	user.RoleID = result.Role.ID
	require.NoError(t, env.repos.Users.Update(context.Background(), user))
	assert.NoError(t, env.roles.Delete(context.Background(), "actor", role.ID))
}

func TestMatrixCoversEveryRoleAndPermission(t *testing.T) {
	env := newTestEnv(t, false)

	rows, err := env.roles.Matrix(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, len(models.SystemRoles()))

	for _, row := range rows {
		assert.Len(t, row.Granted, len(authz.All()))
		set := row.Role.PermissionSet()
		for p, granted := range row.Granted {
			assert.Equal(t, set.Has(p), granted, "%s / %s", row.Role.Name, p)
		}
	}
}

func TestPermissionsForFallsBackWithoutCache(t *testing.T) {
	env := newTestEnv(t, false)
	admin, err := env.roles.GetByName(context.Background(), models.RoleNameAdministrator)
	require.NoError(t, err)

	name, set, err := env.roles.PermissionsFor(context.Background(), admin.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleNameAdministrator, name)
	assert.True(t, set.HasAll(authz.All()...))
}
