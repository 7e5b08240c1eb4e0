package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Minister124/BlazorAuth-sub000/internal/audit"
	"github.com/Minister124/BlazorAuth-sub000/internal/ids"
	"github.com/Minister124/BlazorAuth-sub000/internal/models"
	"github.com/Minister124/BlazorAuth-sub000/internal/repository"
	"github.com/Minister124/BlazorAuth-sub000/internal/security"
)

var ErrWrongPassword = errors.New("current password does not match")

type UserService struct {
	users       repository.UserRepository
	sessions    repository.SessionRepository
	roles       repository.RoleRepository
	departments repository.DepartmentRepository
	auditor     *audit.Publisher
	log         zerolog.Logger
}

func NewUserService(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	roles repository.RoleRepository,
	departments repository.DepartmentRepository,
	auditor *audit.Publisher,
	log zerolog.Logger,
) *UserService {
	return &UserService{
		users:       users,
		sessions:    sessions,
		roles:       roles,
		departments: departments,
		auditor:     auditor,
		log:         log,
	}
}

func (s *UserService) Get(ctx context.Context, id string) (models.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *UserService) List(ctx context.Context, filter repository.UserFilter) ([]models.User, error) {
	return s.users.List(ctx, filter)
}

type CreateUserInput struct {
	Email        string
	Password     string
	DisplayName  string
	RoleID       string
	DepartmentID *string
	Status       models.UserStatus
}

func (s *UserService) Create(ctx context.Context, actorID string, input CreateUserInput) (models.User, error) {
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))
	if input.Email == "" || input.Password == "" {
		return models.User{}, fmt.Errorf("email and password required")
	}

	if _, err := s.users.FindByEmail(ctx, input.Email); err == nil {
		return models.User{}, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return models.User{}, err
	}

	if _, err := s.roles.GetByID(ctx, input.RoleID); err != nil {
		return models.User{}, fmt.Errorf("role: %w", err)
	}
	if input.DepartmentID != nil {
		if _, err := s.departments.GetByID(ctx, *input.DepartmentID); err != nil {
			return models.User{}, fmt.Errorf("department: %w", err)
		}
	}

	passwordHash, err := security.HashPassword(input.Password)
	if err != nil {
		return models.User{}, err
	}

	status := input.Status
	if status == "" {
		status = models.UserStatusPending
	}

	user := models.User{
		ID:           ids.New(),
		Email:        input.Email,
		PasswordHash: passwordHash,
		DisplayName:  input.DisplayName,
		RoleID:       input.RoleID,
		DepartmentID: input.DepartmentID,
		Status:       status,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return models.User{}, err
	}

	s.auditor.Publish(ctx, audit.Event{
		Action:   audit.ActionUserCreated,
		ActorID:  actorID,
		EntityID: user.ID,
		Detail:   user.Email,
	})
	return user, nil
}

type UpdateUserInput struct {
	DisplayName  *string
	RoleID       *string
	DepartmentID *string
	// ClearDepartment unassigns the user when true; DepartmentID wins if both set.
	ClearDepartment bool
	Status          *models.UserStatus
}

func (s *UserService) Update(ctx context.Context, actorID string, id string, input UpdateUserInput) (models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return models.User{}, err
	}

	if input.DisplayName != nil {
		user.DisplayName = *input.DisplayName
	}
	if input.RoleID != nil {
		if _, err := s.roles.GetByID(ctx, *input.RoleID); err != nil {
			return models.User{}, fmt.Errorf("role: %w", err)
		}
		user.RoleID = *input.RoleID
	}
	if input.DepartmentID != nil {
		if _, err := s.departments.GetByID(ctx, *input.DepartmentID); err != nil {
			return models.User{}, fmt.Errorf("department: %w", err)
		}
		user.DepartmentID = input.DepartmentID
	} else if input.ClearDepartment {
		user.DepartmentID = nil
	}
	if input.Status != nil {
		user.Status = *input.Status
	}

	if err := s.users.Update(ctx, user); err != nil {
		return models.User{}, err
	}

	// Deactivation kills the user's sessions so the next request 401s.
	if input.Status != nil && *input.Status != models.UserStatusActive {
		if err := s.sessions.DeleteByUser(ctx, user.ID); err != nil {
			s.log.Warn().Err(err).Str("user_id", user.ID).Msg("session revoke on deactivate failed")
		}
	}

	s.auditor.Publish(ctx, audit.Event{
		Action:   audit.ActionUserUpdated,
		ActorID:  actorID,
		EntityID: user.ID,
		Detail:   user.Email,
	})
	return user, nil
}

func (s *UserService) Delete(ctx context.Context, actorID string, id string) error {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.sessions.DeleteByUser(ctx, id); err != nil {
		s.log.Warn().Err(err).Str("user_id", id).Msg("session revoke on delete failed")
	}

	s.auditor.Publish(ctx, audit.Event{
		Action:   audit.ActionUserDeleted,
		ActorID:  actorID,
		EntityID: id,
		Detail:   user.Email,
	})
	return nil
}

type UpdateProfileInput struct {
	DisplayName *string
	AvatarURL   *string
}

// UpdateProfile is the self-service subset of Update: display name and
// avatar only, never role/department/status.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return models.User{}, err
	}

	if input.DisplayName != nil {
		user.DisplayName = *input.DisplayName
	}
	if input.AvatarURL != nil {
		user.AvatarURL = input.AvatarURL
	}

	if err := s.users.Update(ctx, user); err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (s *UserService) ChangePassword(ctx context.Context, userID string, currentPassword, newPassword string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	ok, err := security.VerifyPassword(currentPassword, user.PasswordHash)
	if err != nil || !ok {
		return ErrWrongPassword
	}

	newHash, err := security.HashPassword(newPassword)
	if err != nil {
		return err
	}

	user.PasswordHash = newHash
	return s.users.Update(ctx, user)
}
