package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Minister124/BlazorAuth-sub000/internal/models"
)

type postgresDepartmentRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresDepartmentRepository(pool *pgxpool.Pool) DepartmentRepository {
	return &postgresDepartmentRepository{pool: pool}
}

const departmentColumns = `id, name, description, created_at, updated_at`

func scanDepartment(row pgx.Row) (models.Department, error) {
	var dept models.Department
	if err := row.Scan(
		&dept.ID,
		&dept.Name,
		&dept.Description,
		&dept.CreatedAt,
		&dept.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Department{}, ErrDepartmentNotFound
		}
		return models.Department{}, err
	}
	return dept, nil
}

func (r *postgresDepartmentRepository) Create(ctx context.Context, dept models.Department) error {
	const query = `
		INSERT INTO departments (id, name, description, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
	`
	_, err := r.pool.Exec(ctx, query, dept.ID, dept.Name, dept.Description)
	return err
}

func (r *postgresDepartmentRepository) GetByID(ctx context.Context, id string) (models.Department, error) {
	const query = `SELECT ` + departmentColumns + ` FROM departments WHERE id = $1`
	return scanDepartment(r.pool.QueryRow(ctx, query, id))
}

func (r *postgresDepartmentRepository) FindByName(ctx context.Context, name string) (models.Department, error) {
	const query = `SELECT ` + departmentColumns + ` FROM departments WHERE LOWER(name) = LOWER($1)`
	return scanDepartment(r.pool.QueryRow(ctx, query, name))
}

func (r *postgresDepartmentRepository) List(ctx context.Context) ([]models.Department, error) {
	const query = `SELECT ` + departmentColumns + ` FROM departments ORDER BY name ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var depts []models.Department
	for rows.Next() {
		dept, err := scanDepartment(rows)
		if err != nil {
			return nil, err
		}
		depts = append(depts, dept)
	}
	return depts, rows.Err()
}

func (r *postgresDepartmentRepository) Update(ctx context.Context, dept models.Department) error {
	const query = `
		UPDATE departments SET name = $2, description = $3, updated_at = NOW() WHERE id = $1
	`
	cmd, err := r.pool.Exec(ctx, query, dept.ID, dept.Name, dept.Description)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrDepartmentNotFound
	}
	return nil
}

func (r *postgresDepartmentRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM departments WHERE id = $1`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrDepartmentNotFound
	}
	return nil
}
