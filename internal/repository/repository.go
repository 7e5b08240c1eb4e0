package repository

import (
	"context"
	"errors"

	"github.com/Minister124/BlazorAuth-sub000/internal/models"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrSessionNotFound    = errors.New("session not found")
	ErrRoleNotFound       = errors.New("role not found")
	ErrDepartmentNotFound = errors.New("department not found")
)

// UserFilter narrows List results. Zero values mean "no filter".
type UserFilter struct {
	Search       string
	DepartmentID string
	RoleID       string
	Status       models.UserStatus
	Limit        int
	Offset       int
}

type UserRepository interface {
	Create(ctx context.Context, user models.User) error
	GetByID(ctx context.Context, id string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	List(ctx context.Context, filter UserFilter) ([]models.User, error)
	Update(ctx context.Context, user models.User) error
	Delete(ctx context.Context, id string) error
	CountByRole(ctx context.Context, roleID string) (int, error)
	CountByDepartment(ctx context.Context, departmentID string) (int, error)
	ListStalePending(ctx context.Context, olderThanDays int) ([]models.User, error)
}

type SessionRepository interface {
	Create(ctx context.Context, session models.Session) error
	GetByID(ctx context.Context, id string) (models.Session, error)
	FindByRefreshHash(ctx context.Context, userID string, refreshHash []byte) (models.Session, error)
	ListByUser(ctx context.Context, userID string) ([]models.Session, error)
	CountByUser(ctx context.Context, userID string) (int, error)
	DeleteByID(ctx context.Context, id string) error
	DeleteByDevice(ctx context.Context, userID string, deviceID string) error
	DeleteByUser(ctx context.Context, userID string) error
	DeleteOldestSessions(ctx context.Context, userID string, keepLatest int) error
	DeleteExpired(ctx context.Context) (int, error)
	Touch(ctx context.Context, sessionID string, ip string, userAgent string) error
}

type RoleRepository interface {
	Create(ctx context.Context, role models.Role) error
	GetByID(ctx context.Context, id string) (models.Role, error)
	FindByName(ctx context.Context, name string) (models.Role, error)
	List(ctx context.Context) ([]models.Role, error)
	Update(ctx context.Context, role models.Role) error
	Delete(ctx context.Context, id string) error
}

type DepartmentRepository interface {
	Create(ctx context.Context, dept models.Department) error
	GetByID(ctx context.Context, id string) (models.Department, error)
	FindByName(ctx context.Context, name string) (models.Department, error)
	List(ctx context.Context) ([]models.Department, error)
	Update(ctx context.Context, dept models.Department) error
	Delete(ctx context.Context, id string) error
}

// Set bundles the four repositories so wiring can swap drivers as a unit.
type Set struct {
	Users       UserRepository
	Sessions    SessionRepository
	Roles       RoleRepository
	Departments DepartmentRepository
}
