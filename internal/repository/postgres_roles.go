package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Minister124/BlazorAuth-sub000/internal/authz"
	"github.com/Minister124/BlazorAuth-sub000/internal/models"
)

type postgresRoleRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRoleRepository(pool *pgxpool.Pool) RoleRepository {
	return &postgresRoleRepository{pool: pool}
}

const roleColumns = `id, name, description, color, permissions, is_system, created_at, updated_at`

func scanRole(row pgx.Row) (models.Role, error) {
	var (
		role  models.Role
		perms []string
	)
	if err := row.Scan(
		&role.ID,
		&role.Name,
		&role.Description,
		&role.Color,
		&perms,
		&role.IsSystem,
		&role.CreatedAt,
		&role.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Role{}, ErrRoleNotFound
		}
		return models.Role{}, err
	}
	role.Permissions = make([]authz.Permission, 0, len(perms))
	for _, p := range perms {
		role.Permissions = append(role.Permissions, authz.Permission(p))
	}
	return role, nil
}

func permissionStrings(perms []authz.Permission) []string {
	out := make([]string, 0, len(perms))
	for _, p := range perms {
		out = append(out, string(p))
	}
	return out
}

func (r *postgresRoleRepository) Create(ctx context.Context, role models.Role) error {
	const query = `
		INSERT INTO roles (id, name, description, color, permissions, is_system, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
	`
	_, err := r.pool.Exec(ctx, query,
		role.ID,
		role.Name,
		role.Description,
		role.Color,
		permissionStrings(role.Permissions),
		role.IsSystem,
	)
	return err
}

func (r *postgresRoleRepository) GetByID(ctx context.Context, id string) (models.Role, error) {
	const query = `SELECT ` + roleColumns + ` FROM roles WHERE id = $1`
	return scanRole(r.pool.QueryRow(ctx, query, id))
}

func (r *postgresRoleRepository) FindByName(ctx context.Context, name string) (models.Role, error) {
	const query = `SELECT ` + roleColumns + ` FROM roles WHERE LOWER(name) = LOWER($1)`
	return scanRole(r.pool.QueryRow(ctx, query, name))
}

func (r *postgresRoleRepository) List(ctx context.Context) ([]models.Role, error) {
	const query = `SELECT ` + roleColumns + ` FROM roles ORDER BY is_system DESC, name ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []models.Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

func (r *postgresRoleRepository) Update(ctx context.Context, role models.Role) error {
	const query = `
		UPDATE roles SET
			name = $2,
			description = $3,
			color = $4,
			permissions = $5,
			updated_at = NOW()
		WHERE id = $1
	`
	cmd, err := r.pool.Exec(ctx, query,
		role.ID,
		role.Name,
		role.Description,
		role.Color,
		permissionStrings(role.Permissions),
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrRoleNotFound
	}
	return nil
}

func (r *postgresRoleRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM roles WHERE id = $1`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrRoleNotFound
	}
	return nil
}
