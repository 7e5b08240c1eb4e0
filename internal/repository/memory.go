package repository

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Minister124/BlazorAuth-sub000/internal/models"
)

// Memory-backed repositories. This is the standalone driver: the server can
// run without Postgres (everything lives for the life of the process), and
// the test suite uses the same implementations.

type memoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]models.User
}

func NewMemoryUserRepository() UserRepository {
	return &memoryUserRepository{users: make(map[string]models.User)}
}

func (r *memoryUserRepository) Create(_ context.Context, user models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = user
	return nil
}

func (r *memoryUserRepository) GetByID(_ context.Context, id string) (models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[id]
	if !ok {
		return models.User{}, ErrUserNotFound
	}
	return user, nil
}

func (r *memoryUserRepository) FindByEmail(_ context.Context, email string) (models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, user := range r.users {
		if strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}
	return models.User{}, ErrUserNotFound
}

func (r *memoryUserRepository) List(_ context.Context, filter UserFilter) ([]models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var users []models.User
	for _, user := range r.users {
		if filter.Search != "" {
			needle := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(user.Email), needle) &&
				!strings.Contains(strings.ToLower(user.DisplayName), needle) {
				continue
			}
		}
		if filter.DepartmentID != "" {
			if user.DepartmentID == nil || *user.DepartmentID != filter.DepartmentID {
				continue
			}
		}
		if filter.RoleID != "" && user.RoleID != filter.RoleID {
			continue
		}
		if filter.Status != "" && user.Status != filter.Status {
			continue
		}
		users = append(users, user)
	}

	sort.Slice(users, func(i, j int) bool {
		return users[i].CreatedAt.After(users[j].CreatedAt)
	})

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	if filter.Offset >= len(users) {
		return nil, nil
	}
	users = users[filter.Offset:]
	if len(users) > limit {
		users = users[:limit]
	}
	return users, nil
}

func (r *memoryUserRepository) Update(_ context.Context, user models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.users[user.ID]
	if !ok {
		return ErrUserNotFound
	}
	user.CreatedAt = existing.CreatedAt
	user.UpdatedAt = time.Now()
	r.users[user.ID] = user
	return nil
}

func (r *memoryUserRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *memoryUserRepository) CountByRole(_ context.Context, roleID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, user := range r.users {
		if user.RoleID == roleID {
			count++
		}
	}
	return count, nil
}

func (r *memoryUserRepository) CountByDepartment(_ context.Context, departmentID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, user := range r.users {
		if user.DepartmentID != nil && *user.DepartmentID == departmentID {
			count++
		}
	}
	return count, nil
}

func (r *memoryUserRepository) ListStalePending(_ context.Context, olderThanDays int) ([]models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cutoff := time.Now().AddDate(0, 0, -olderThanDays)
	var users []models.User
	for _, user := range r.users {
		if user.Status == models.UserStatusPending && user.CreatedAt.Before(cutoff) {
			users = append(users, user)
		}
	}
	return users, nil
}

type memorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]models.Session
}

func NewMemorySessionRepository() SessionRepository {
	return &memorySessionRepository{sessions: make(map[string]models.Session)}
}

func (r *memorySessionRepository) Create(_ context.Context, session models.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()

	// Mirror the Postgres upsert: one session row per (user, device).
	for id, existing := range r.sessions {
		if existing.UserID == session.UserID && existing.DeviceID == session.DeviceID && id != session.ID {
			delete(r.sessions, id)
		}
	}

	if existing, ok := r.sessions[session.ID]; ok {
		session.CreatedAt = existing.CreatedAt
	} else {
		session.CreatedAt = now
	}
	session.LastSeenAt = now
	r.sessions[session.ID] = session
	return nil
}

func (r *memorySessionRepository) GetByID(_ context.Context, id string) (models.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[id]
	if !ok {
		return models.Session{}, ErrSessionNotFound
	}
	return session, nil
}

func (r *memorySessionRepository) FindByRefreshHash(_ context.Context, userID string, refreshHash []byte) (models.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, session := range r.sessions {
		if session.UserID == userID && bytes.Equal(session.RefreshTokenHash, refreshHash) {
			return session, nil
		}
	}
	return models.Session{}, ErrSessionNotFound
}

func (r *memorySessionRepository) ListByUser(_ context.Context, userID string) ([]models.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var sessions []models.Session
	for _, session := range r.sessions {
		if session.UserID == userID {
			sessions = append(sessions, session)
		}
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].LastSeenAt.After(sessions[j].LastSeenAt)
	})
	return sessions, nil
}

func (r *memorySessionRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	sessions, err := r.ListByUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	return len(sessions), nil
}

func (r *memorySessionRepository) DeleteByID(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(r.sessions, id)
	return nil
}

func (r *memorySessionRepository) DeleteByDevice(_ context.Context, userID string, deviceID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, session := range r.sessions {
		if session.UserID == userID && session.DeviceID == deviceID {
			delete(r.sessions, id)
		}
	}
	return nil
}

func (r *memorySessionRepository) DeleteByUser(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, session := range r.sessions {
		if session.UserID == userID {
			delete(r.sessions, id)
		}
	}
	return nil
}

func (r *memorySessionRepository) DeleteOldestSessions(ctx context.Context, userID string, keepLatest int) error {
	sessions, err := r.ListByUser(ctx, userID)
	if err != nil {
		return err
	}
	if len(sessions) <= keepLatest {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, session := range sessions[keepLatest:] {
		delete(r.sessions, session.ID)
	}
	return nil
}

func (r *memorySessionRepository) DeleteExpired(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	removed := 0
	for id, session := range r.sessions {
		if session.ExpiresAt.Before(now) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed, nil
}

func (r *memorySessionRepository) Touch(_ context.Context, sessionID string, ip string, userAgent string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[sessionID]
	if !ok {
		return nil
	}
	session.LastSeenAt = time.Now()
	if ip != "" {
		session.IPAddress = ip
	}
	if userAgent != "" {
		session.UserAgent = userAgent
	}
	r.sessions[sessionID] = session
	return nil
}

type memoryRoleRepository struct {
	mu    sync.RWMutex
	roles map[string]models.Role
}

func NewMemoryRoleRepository() RoleRepository {
	return &memoryRoleRepository{roles: make(map[string]models.Role)}
}

func (r *memoryRoleRepository) Create(_ context.Context, role models.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	role.CreatedAt = now
	role.UpdatedAt = now
	r.roles[role.ID] = role
	return nil
}

func (r *memoryRoleRepository) GetByID(_ context.Context, id string) (models.Role, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	role, ok := r.roles[id]
	if !ok {
		return models.Role{}, ErrRoleNotFound
	}
	return role, nil
}

func (r *memoryRoleRepository) FindByName(_ context.Context, name string) (models.Role, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, role := range r.roles {
		if strings.EqualFold(role.Name, name) {
			return role, nil
		}
	}
	return models.Role{}, ErrRoleNotFound
}

func (r *memoryRoleRepository) List(_ context.Context) ([]models.Role, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	roles := make([]models.Role, 0, len(r.roles))
	for _, role := range r.roles {
		roles = append(roles, role)
	}
	sort.Slice(roles, func(i, j int) bool {
		if roles[i].IsSystem != roles[j].IsSystem {
			return roles[i].IsSystem
		}
		return roles[i].Name < roles[j].Name
	})
	return roles, nil
}

func (r *memoryRoleRepository) Update(_ context.Context, role models.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.roles[role.ID]
	if !ok {
		return ErrRoleNotFound
	}
	role.CreatedAt = existing.CreatedAt
	role.UpdatedAt = time.Now()
	r.roles[role.ID] = role
	return nil
}

func (r *memoryRoleRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.roles[id]; !ok {
		return ErrRoleNotFound
	}
	delete(r.roles, id)
	return nil
}

type memoryDepartmentRepository struct {
	mu          sync.RWMutex
	departments map[string]models.Department
}

func NewMemoryDepartmentRepository() DepartmentRepository {
	return &memoryDepartmentRepository{departments: make(map[string]models.Department)}
}

func (r *memoryDepartmentRepository) Create(_ context.Context, dept models.Department) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	dept.CreatedAt = now
	dept.UpdatedAt = now
	r.departments[dept.ID] = dept
	return nil
}

func (r *memoryDepartmentRepository) GetByID(_ context.Context, id string) (models.Department, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	dept, ok := r.departments[id]
	if !ok {
		return models.Department{}, ErrDepartmentNotFound
	}
	return dept, nil
}

func (r *memoryDepartmentRepository) FindByName(_ context.Context, name string) (models.Department, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, dept := range r.departments {
		if strings.EqualFold(dept.Name, name) {
			return dept, nil
		}
	}
	return models.Department{}, ErrDepartmentNotFound
}

func (r *memoryDepartmentRepository) List(_ context.Context) ([]models.Department, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	depts := make([]models.Department, 0, len(r.departments))
	for _, dept := range r.departments {
		depts = append(depts, dept)
	}
	sort.Slice(depts, func(i, j int) bool {
		return depts[i].Name < depts[j].Name
	})
	return depts, nil
}

func (r *memoryDepartmentRepository) Update(_ context.Context, dept models.Department) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.departments[dept.ID]
	if !ok {
		return ErrDepartmentNotFound
	}
	dept.CreatedAt = existing.CreatedAt
	dept.UpdatedAt = time.Now()
	r.departments[dept.ID] = dept
	return nil
}

func (r *memoryDepartmentRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.departments[id]; !ok {
		return ErrDepartmentNotFound
	}
	delete(r.departments, id)
	return nil
}

// NewMemorySet wires the full in-memory driver.
func NewMemorySet() Set {
	return Set{
		Users:       NewMemoryUserRepository(),
		Sessions:    NewMemorySessionRepository(),
		Roles:       NewMemoryRoleRepository(),
		Departments: NewMemoryDepartmentRepository(),
	}
}
