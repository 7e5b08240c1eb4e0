package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Minister124/BlazorAuth-sub000/internal/ids"
	"github.com/Minister124/BlazorAuth-sub000/internal/models"
	"github.com/Minister124/BlazorAuth-sub000/internal/repository"
	"github.com/Minister124/BlazorAuth-sub000/internal/security"
)

// Seed ensures the built-in roles exist and, when the directory is empty,
// creates a bootstrap administrator account. Safe to run on every start.
func Seed(ctx context.Context, repos repository.Set, adminEmail, adminPassword string, log zerolog.Logger) error {
	for _, role := range models.SystemRoles() {
		existing, err := repos.Roles.FindByName(ctx, role.Name)
		if err == nil {
			// Permission sets of system roles follow the code, not the store.
			existing.Permissions = role.Permissions
			if err := repos.Roles.Update(ctx, existing); err != nil {
				return fmt.Errorf("refresh system role %s: %w", role.Name, err)
			}
			continue
		}
		if !errors.Is(err, repository.ErrRoleNotFound) {
			return err
		}

		role.ID = ids.New()
		if err := repos.Roles.Create(ctx, role); err != nil {
			return fmt.Errorf("seed role %s: %w", role.Name, err)
		}
		log.Info().Str("role", role.Name).Msg("seeded system role")
	}

	if adminEmail == "" || adminPassword == "" {
		return nil
	}

	if _, err := repos.Users.FindByEmail(ctx, adminEmail); err == nil {
		return nil
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return err
	}

	adminRole, err := repos.Roles.FindByName(ctx, models.RoleNameAdministrator)
	if err != nil {
		return err
	}

	passwordHash, err := security.HashPassword(adminPassword)
	if err != nil {
		return err
	}

	admin := models.User{
		ID:           ids.New(),
		Email:        adminEmail,
		PasswordHash: passwordHash,
		DisplayName:  "Administrator",
		RoleID:       adminRole.ID,
		Status:       models.UserStatusActive,
	}
	if err := repos.Users.Create(ctx, admin); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	log.Info().Str("email", adminEmail).Msg("seeded bootstrap administrator")
	return nil
}
