package models

import (
	"time"

	"github.com/Minister124/BlazorAuth-sub000/internal/authz"
)

// Role is a named bundle of permission tags. System roles are seeded at
// startup and cannot be renamed or deleted.
type Role struct {
	ID          string
	Name        string
	Description string
	Color       string
	Permissions []authz.Permission
	IsSystem    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (r Role) PermissionSet() authz.Set {
	return authz.NewSet(r.Permissions...)
}

// Built-in role names. Seeding keys off the name, so renames of system
// roles are rejected.
const (
	RoleNameAdministrator = "Administrator"
	RoleNameManager       = "Manager"
	RoleNameEmployee      = "Employee"
)

// SystemRoles returns the built-in roles with their default permission
// sets. IDs are assigned at seed time.
func SystemRoles() []Role {
	return []Role{
		{
			Name:        RoleNameAdministrator,
			Description: "Full access to every administrative capability",
			Color:       "#d32f2f",
			Permissions: authz.All(),
			IsSystem:    true,
		},
		{
			Name:        RoleNameManager,
			Description: "Manages users and departments within their remit",
			Color:       "#1976d2",
			Permissions: []authz.Permission{
				authz.PermUsersView,
				authz.PermUsersCreate,
				authz.PermUsersEdit,
				authz.PermDepartmentsView,
				authz.PermAnalyticsView,
				authz.PermProfileEdit,
			},
			IsSystem: true,
		},
		{
			Name:        RoleNameEmployee,
			Description: "Directory browsing and self-service profile editing",
			Color:       "#388e3c",
			Permissions: []authz.Permission{
				authz.PermUsersView,
				authz.PermDepartmentsView,
				authz.PermProfileEdit,
			},
			IsSystem: true,
		},
	}
}
