package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Minister124/BlazorAuth-sub000/internal/audit"
	"github.com/Minister124/BlazorAuth-sub000/internal/authz"
	"github.com/Minister124/BlazorAuth-sub000/internal/ids"
	"github.com/Minister124/BlazorAuth-sub000/internal/models"
	"github.com/Minister124/BlazorAuth-sub000/internal/repository"
)

var (
	ErrRoleNameTaken     = errors.New("role name already exists")
	ErrSystemRole        = errors.New("system roles cannot be modified or deleted")
	ErrRoleInUse         = errors.New("role is assigned to users")
	ErrUnknownPermission = errors.New("unknown permission")
)

const roleCacheTTL = 5 * time.Minute

type RoleService struct {
	roles   repository.RoleRepository
	users   repository.UserRepository
	cache   *redis.Client
	auditor *audit.Publisher
	log     zerolog.Logger
}

func NewRoleService(
	roles repository.RoleRepository,
	users repository.UserRepository,
	cache *redis.Client,
	auditor *audit.Publisher,
	log zerolog.Logger,
) *RoleService {
	return &RoleService{
		roles:   roles,
		users:   users,
		cache:   cache,
		auditor: auditor,
		log:     log,
	}
}

type cachedRole struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

func roleCacheKey(id string) string {
	return "role:perms:" + id
}

// Get resolves a role by ID through a short-lived Redis cache so the auth
// middleware does not hit the role store on every request. The cached copy
// carries only what authorization needs; full reads fall through.
func (s *RoleService) Get(ctx context.Context, id string) (models.Role, error) {
	return s.roles.GetByID(ctx, id)
}

func (s *RoleService) GetByName(ctx context.Context, name string) (models.Role, error) {
	return s.roles.FindByName(ctx, name)
}

// PermissionsFor returns the permission set for a role, served from cache
// when possible.
func (s *RoleService) PermissionsFor(ctx context.Context, roleID string) (string, authz.Set, error) {
	if s.cache != nil {
		payload, err := s.cache.Get(ctx, roleCacheKey(roleID)).Bytes()
		if err == nil {
			var cached cachedRole
			if err := json.Unmarshal(payload, &cached); err == nil {
				return cached.Name, authz.NewSetFromStrings(cached.Permissions), nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.log.Warn().Err(err).Str("role_id", roleID).Msg("role cache read failed")
		}
	}

	role, err := s.roles.GetByID(ctx, roleID)
	if err != nil {
		return "", nil, err
	}

	s.storeInCache(ctx, role)
	return role.Name, role.PermissionSet(), nil
}

func (s *RoleService) storeInCache(ctx context.Context, role models.Role) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(cachedRole{
		ID:          role.ID,
		Name:        role.Name,
		Permissions: role.PermissionSet().Strings(),
	})
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, roleCacheKey(role.ID), payload, roleCacheTTL).Err(); err != nil {
		s.log.Warn().Err(err).Str("role_id", role.ID).Msg("role cache write failed")
	}
}

func (s *RoleService) invalidateCache(ctx context.Context, roleID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, roleCacheKey(roleID)).Err(); err != nil {
		s.log.Warn().Err(err).Str("role_id", roleID).Msg("role cache invalidate failed")
	}
}

func (s *RoleService) List(ctx context.Context) ([]models.Role, error) {
	return s.roles.List(ctx)
}

type RoleInput struct {
	Name        string
	Description string
	Color       string
	Permissions []authz.Permission
}

func validatePermissions(perms []authz.Permission) error {
	for _, p := range perms {
		if !authz.Valid(p) {
			return fmt.Errorf("%w: %s", ErrUnknownPermission, p)
		}
	}
	return nil
}

func (s *RoleService) Create(ctx context.Context, actorID string, input RoleInput) (models.Role, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return models.Role{}, fmt.Errorf("role name required")
	}
	if err := validatePermissions(input.Permissions); err != nil {
		return models.Role{}, err
	}

	if _, err := s.roles.FindByName(ctx, input.Name); err == nil {
		return models.Role{}, ErrRoleNameTaken
	} else if !errors.Is(err, repository.ErrRoleNotFound) {
		return models.Role{}, err
	}

	role := models.Role{
		ID:          ids.New(),
		Name:        input.Name,
		Description: input.Description,
		Color:       input.Color,
		Permissions: input.Permissions,
	}

	if err := s.roles.Create(ctx, role); err != nil {
		return models.Role{}, err
	}

	s.auditor.Publish(ctx, audit.Event{
		Action:   audit.ActionRoleCreated,
		ActorID:  actorID,
		EntityID: role.ID,
		Detail:   role.Name,
	})
	return role, nil
}

func (s *RoleService) Update(ctx context.Context, actorID string, id string, input RoleInput) (models.Role, error) {
	role, err := s.roles.GetByID(ctx, id)
	if err != nil {
		return models.Role{}, err
	}
	if err := validatePermissions(input.Permissions); err != nil {
		return models.Role{}, err
	}

	input.Name = strings.TrimSpace(input.Name)
	if role.IsSystem && input.Name != "" && !strings.EqualFold(input.Name, role.Name) {
		return models.Role{}, ErrSystemRole
	}

	if input.Name != "" && !strings.EqualFold(input.Name, role.Name) {
		if _, err := s.roles.FindByName(ctx, input.Name); err == nil {
			return models.Role{}, ErrRoleNameTaken
		} else if !errors.Is(err, repository.ErrRoleNotFound) {
			return models.Role{}, err
		}
		role.Name = input.Name
	}
	if input.Description != "" {
		role.Description = input.Description
	}
	if input.Color != "" {
		role.Color = input.Color
	}
	if input.Permissions != nil {
		role.Permissions = input.Permissions
	}

	if err := s.roles.Update(ctx, role); err != nil {
		return models.Role{}, err
	}

	s.invalidateCache(ctx, role.ID)
	s.auditor.Publish(ctx, audit.Event{
		Action:   audit.ActionRoleUpdated,
		ActorID:  actorID,
		EntityID: role.ID,
		Detail:   role.Name,
	})
	return role, nil
}

func (s *RoleService) Delete(ctx context.Context, actorID string, id string) error {
	role, err := s.roles.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if role.IsSystem {
		return ErrSystemRole
	}

	count, err := s.users.CountByRole(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrRoleInUse
	}

	if err := s.roles.Delete(ctx, id); err != nil {
		return err
	}

	s.invalidateCache(ctx, id)
	s.auditor.Publish(ctx, audit.Event{
		Action:   audit.ActionRoleDeleted,
		ActorID:  actorID,
		EntityID: id,
		Detail:   role.Name,
	})
	return nil
}

// MatrixRow is one role's row of the role-by-permission matrix.
type MatrixRow struct {
	Role    models.Role
	Granted map[authz.Permission]bool
}

// Matrix builds the full permission matrix across every role.
func (s *RoleService) Matrix(ctx context.Context) ([]MatrixRow, error) {
	roles, err := s.roles.List(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]MatrixRow, 0, len(roles))
	for _, role := range roles {
		set := role.PermissionSet()
		granted := make(map[authz.Permission]bool, len(authz.All()))
		for _, p := range authz.All() {
			granted[p] = set.Has(p)
		}
		rows = append(rows, MatrixRow{Role: role, Granted: granted})
	}
	return rows, nil
}
