package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tessera-labs/tessera/internal/domain"
)

type RoleRepo struct {
	pool *pgxpool.Pool
}

func NewRoleRepo(pool *pgxpool.Pool) *RoleRepo {
	return &RoleRepo{pool: pool}
}

func (r *RoleRepo) Create(ctx context.Context, role *domain.Role) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO roles (id, name, priority, permissions, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		role.ID, role.Name, role.Priority, role.Permissions, role.CreatedAt, role.UpdatedAt,
	)
	if err != nil {
		return translateErr("roleRepo.Create", err)
	}

	return nil
}

func (r *RoleRepo) GetByName(ctx context.Context, name string) (*domain.Role, error) {
	var role domain.Role

	err := r.pool.QueryRow(ctx,
		`SELECT id, name, priority, permissions, created_at, updated_at
		 FROM roles WHERE name = $1`,
		name,
	).Scan(&role.ID, &role.Name, &role.Priority, &role.Permissions, &role.CreatedAt, &role.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("roleRepo.GetByName: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("roleRepo.GetByName: %w", err)
	}

	return &role, nil
}

func (r *RoleRepo) List(ctx context.Context) ([]*domain.Role, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, priority, permissions, created_at, updated_at
		 FROM roles ORDER BY priority DESC, name`,
	)
	if err != nil {
		return nil, fmt.Errorf("roleRepo.List: %w", err)
	}
	defer rows.Close()

	var roles []*domain.Role
	for rows.Next() {
		var role domain.Role

		err = rows.Scan(&role.ID, &role.Name, &role.Priority, &role.Permissions, &role.CreatedAt, &role.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("roleRepo.List: scan: %w", err)
		}

		roles = append(roles, &role)
	}
	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("roleRepo.List: rows: %w", err)
	}

	return roles, nil
}
