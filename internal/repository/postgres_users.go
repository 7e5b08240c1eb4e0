package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Minister124/BlazorAuth-sub000/internal/models"
)

// NewPostgresSet wires the full Postgres driver.
func NewPostgresSet(pool *pgxpool.Pool) Set {
	return Set{
		Users:       NewPostgresUserRepository(pool),
		Sessions:    NewPostgresSessionRepository(pool),
		Roles:       NewPostgresRoleRepository(pool),
		Departments: NewPostgresDepartmentRepository(pool),
	}
}

type postgresUserRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresUserRepository(pool *pgxpool.Pool) UserRepository {
	return &postgresUserRepository{pool: pool}
}

const userColumns = `id, email, password_hash, display_name, role_id, department_id, status, avatar_url, created_at, updated_at`

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.DisplayName,
		&user.RoleID,
		&user.DepartmentID,
		&user.Status,
		&user.AvatarURL,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

func (r *postgresUserRepository) Create(ctx context.Context, user models.User) error {
	const query = `
		INSERT INTO users (
			id, email, password_hash, display_name, role_id, department_id, status, avatar_url, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW()
		)
	`

	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.DisplayName,
		user.RoleID,
		user.DepartmentID,
		user.Status,
		user.AvatarURL,
	)
	return err
}

func (r *postgresUserRepository) GetByID(ctx context.Context, id string) (models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1 AND deleted_at IS NULL`, userColumns)
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

func (r *postgresUserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE email = $1 AND deleted_at IS NULL`, userColumns)
	return scanUser(r.pool.QueryRow(ctx, query, email))
}

func (r *postgresUserRepository) List(ctx context.Context, filter UserFilter) ([]models.User, error) {
	var (
		conditions = []string{"deleted_at IS NULL"}
		args       []any
	)

	if filter.Search != "" {
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		conditions = append(conditions, fmt.Sprintf("(LOWER(email) LIKE $%d OR LOWER(display_name) LIKE $%d)", len(args), len(args)))
	}
	if filter.DepartmentID != "" {
		args = append(args, filter.DepartmentID)
		conditions = append(conditions, fmt.Sprintf("department_id = $%d", len(args)))
	}
	if filter.RoleID != "" {
		args = append(args, filter.RoleID)
		conditions = append(conditions, fmt.Sprintf("role_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit)
	limitClause := fmt.Sprintf("LIMIT $%d", len(args))
	args = append(args, filter.Offset)
	offsetClause := fmt.Sprintf("OFFSET $%d", len(args))

	query := fmt.Sprintf(
		`SELECT %s FROM users WHERE %s ORDER BY created_at DESC %s %s`,
		userColumns, strings.Join(conditions, " AND "), limitClause, offsetClause,
	)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *postgresUserRepository) Update(ctx context.Context, user models.User) error {
	const query = `
		UPDATE users SET
			email = $2,
			password_hash = $3,
			display_name = $4,
			role_id = $5,
			department_id = $6,
			status = $7,
			avatar_url = $8,
			updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`
	cmd, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.DisplayName,
		user.RoleID,
		user.DepartmentID,
		user.Status,
		user.AvatarURL,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *postgresUserRepository) Delete(ctx context.Context, id string) error {
	const query = `
		UPDATE users SET status = $2, deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`
	cmd, err := r.pool.Exec(ctx, query, id, models.UserStatusInactive)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *postgresUserRepository) CountByRole(ctx context.Context, roleID string) (int, error) {
	const query = `SELECT COUNT(*) FROM users WHERE role_id = $1 AND deleted_at IS NULL`
	var count int
	if err := r.pool.QueryRow(ctx, query, roleID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *postgresUserRepository) CountByDepartment(ctx context.Context, departmentID string) (int, error) {
	const query = `SELECT COUNT(*) FROM users WHERE department_id = $1 AND deleted_at IS NULL`
	var count int
	if err := r.pool.QueryRow(ctx, query, departmentID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *postgresUserRepository) ListStalePending(ctx context.Context, olderThanDays int) ([]models.User, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM users WHERE status = $1 AND deleted_at IS NULL AND created_at < NOW() - $2 * INTERVAL '1 day'`,
		userColumns,
	)
	rows, err := r.pool.Query(ctx, query, models.UserStatusPending, olderThanDays)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}
