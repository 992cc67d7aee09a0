package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tessera-labs/tessera/internal/domain"
)

type TenantRepo struct {
	pool *pgxpool.Pool
}

func NewTenantRepo(pool *pgxpool.Pool) *TenantRepo {
	return &TenantRepo{pool: pool}
}

func (r *TenantRepo) Create(ctx context.Context, t *domain.Tenant) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO tenants (id, name, slug, type, primary_color, settings, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		t.ID, t.Name, t.Slug, t.Type, t.PrimaryColor, t.Settings, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return translateErr("tenantRepo.Create", err)
	}

	return nil
}

func (r *TenantRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	return r.get(ctx, "tenantRepo.GetByID", `WHERE id = $1`, id)
}

func (r *TenantRepo) GetBySlug(ctx context.Context, slug string) (*domain.Tenant, error) {
	return r.get(ctx, "tenantRepo.GetBySlug", `WHERE slug = $1`, slug)
}

func (r *TenantRepo) get(ctx context.Context, op, where string, arg any) (*domain.Tenant, error) {
	var t domain.Tenant

	err := r.pool.QueryRow(ctx,
		`SELECT id, name, slug, type, primary_color, settings, created_at, updated_at
		 FROM tenants `+where,
		arg,
	).Scan(&t.ID, &t.Name, &t.Slug, &t.Type, &t.PrimaryColor, &t.Settings, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &t, nil
}

func (r *TenantRepo) Update(ctx context.Context, t *domain.Tenant) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE tenants SET name = $1, slug = $2, type = $3, primary_color = $4, settings = $5, updated_at = now()
		 WHERE id = $6`,
		t.Name, t.Slug, t.Type, t.PrimaryColor, t.Settings, t.ID,
	)
	if err != nil {
		return translateErr("tenantRepo.Update", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("tenantRepo.Update: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *TenantRepo) List(ctx context.Context) ([]*domain.Tenant, error) {
	return r.list(ctx, "tenantRepo.List", `ORDER BY created_at LIMIT 500`)
}

func (r *TenantRepo) ListPaginated(ctx context.Context, limit, offset int) ([]*domain.Tenant, error) {
	return r.list(ctx, "tenantRepo.ListPaginated", `ORDER BY created_at LIMIT $1 OFFSET $2`, limit, offset)
}

func (r *TenantRepo) list(ctx context.Context, op, tail string, args ...any) ([]*domain.Tenant, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, slug, type, primary_color, settings, created_at, updated_at
		 FROM tenants `+tail,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var tenants []*domain.Tenant
	for rows.Next() {
		var t domain.Tenant

		err = rows.Scan(&t.ID, &t.Name, &t.Slug, &t.Type, &t.PrimaryColor, &t.Settings, &t.CreatedAt, &t.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}

		tenants = append(tenants, &t)
	}
	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, err)
	}

	return tenants, nil
}
