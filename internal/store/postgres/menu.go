package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tessera-labs/tessera/internal/domain"
)

type MenuRepo struct {
	pool *pgxpool.Pool
}

func NewMenuRepo(pool *pgxpool.Pool) *MenuRepo {
	return &MenuRepo{pool: pool}
}

const menuColumns = `id, tenant_id, parent_id, name, label, location, category, position,
	path, url, component, target, is_active, is_public,
	icon, css_class, css_style, attributes, metadata, permissions,
	created_at, updated_at`

func scanMenuEntry(row pgx.Row) (*domain.MenuEntry, error) {
	var e domain.MenuEntry
	err := row.Scan(
		&e.ID, &e.TenantID, &e.ParentID, &e.Name, &e.Label, &e.Location, &e.Category, &e.Position,
		&e.Path, &e.URL, &e.Component, &e.Target, &e.IsActive, &e.IsPublic,
		&e.Icon, &e.CSSClass, &e.CSSStyle, &e.Attributes, &e.Metadata, &e.Permissions,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// buildFilter translates a MenuFilter into a WHERE clause and ORDER BY. The
// ordering is always a deterministic total order: position, creation time,
// then id.
func buildFilter(filter domain.MenuFilter) (where string, orderBy string, args []any) {
	var conds []string

	if filter.TenantID != nil {
		args = append(args, *filter.TenantID)
		conds = append(conds, "tenant_id = $"+strconv.Itoa(len(args)))
	} else if filter.IncludePublic {
		conds = append(conds, "tenant_id IS NULL AND is_public")
	} else {
		conds = append(conds, "tenant_id IS NULL")
	}

	if filter.Location != nil {
		args = append(args, *filter.Location)
		conds = append(conds, "location = $"+strconv.Itoa(len(args)))
	}

	if filter.ActiveOnly {
		conds = append(conds, "is_active")
	}

	where = "WHERE " + strings.Join(conds, " AND ")

	orderBy = "ORDER BY position, created_at, id"
	if filter.OrderByLocation {
		orderBy = "ORDER BY location, position, created_at, id"
	}

	return where, orderBy, args
}

func (r *MenuRepo) FindMany(ctx context.Context, filter domain.MenuFilter) ([]*domain.MenuEntry, error) {
	where, orderBy, args := buildFilter(filter)

	rows, err := r.pool.Query(ctx,
		`SELECT `+menuColumns+` FROM menu_entries `+where+` `+orderBy,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("menuRepo.FindMany: %w", err)
	}
	defer rows.Close()

	var entries []*domain.MenuEntry
	for rows.Next() {
		e, scanErr := scanMenuEntry(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("menuRepo.FindMany: scan: %w", scanErr)
		}
		entries = append(entries, e)
	}
	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("menuRepo.FindMany: rows: %w", err)
	}

	return entries, nil
}

func (r *MenuRepo) Count(ctx context.Context, filter domain.MenuFilter) (int64, error) {
	where, _, args := buildFilter(filter)

	var count int64
	err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM menu_entries `+where,
		args...,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("menuRepo.Count: %w", err)
	}

	return count, nil
}

func (r *MenuRepo) Create(ctx context.Context, e *domain.MenuEntry) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO menu_entries (`+menuColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)`,
		e.ID, e.TenantID, e.ParentID, e.Name, e.Label, e.Location, e.Category, e.Position,
		e.Path, e.URL, e.Component, e.Target, e.IsActive, e.IsPublic,
		e.Icon, e.CSSClass, e.CSSStyle, e.Attributes, e.Metadata, e.Permissions,
		e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return translateErr("menuRepo.Create", err)
	}

	return nil
}

func (r *MenuRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.MenuEntry, error) {
	e, err := scanMenuEntry(r.pool.QueryRow(ctx,
		`SELECT `+menuColumns+` FROM menu_entries WHERE id = $1`,
		id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("menuRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("menuRepo.GetByID: %w", err)
	}

	return e, nil
}

func (r *MenuRepo) Update(ctx context.Context, e *domain.MenuEntry) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE menu_entries SET
			tenant_id = $1, parent_id = $2, name = $3, label = $4, location = $5,
			category = $6, position = $7, path = $8, url = $9, component = $10,
			target = $11, is_active = $12, is_public = $13, icon = $14,
			css_class = $15, css_style = $16, attributes = $17, metadata = $18,
			permissions = $19, updated_at = now()
		 WHERE id = $20`,
		e.TenantID, e.ParentID, e.Name, e.Label, e.Location,
		e.Category, e.Position, e.Path, e.URL, e.Component,
		e.Target, e.IsActive, e.IsPublic, e.Icon,
		e.CSSClass, e.CSSStyle, e.Attributes, e.Metadata,
		e.Permissions, e.ID,
	)
	if err != nil {
		return translateErr("menuRepo.Update", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("menuRepo.Update: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *MenuRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM menu_entries WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("menuRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("menuRepo.Delete: %w", domain.ErrNotFound)
	}

	return nil
}

// CreateMany inserts entries in bulk inside one transaction, skipping rows
// whose (tenant_id, name, location) key already exists.
func (r *MenuRepo) CreateMany(ctx context.Context, entries []*domain.MenuEntry) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("menuRepo.CreateMany: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var inserted int64
	for _, e := range entries {
		tag, execErr := tx.Exec(ctx,
			`INSERT INTO menu_entries (`+menuColumns+`)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
			 ON CONFLICT (tenant_id, name, location) DO NOTHING`,
			e.ID, e.TenantID, e.ParentID, e.Name, e.Label, e.Location, e.Category, e.Position,
			e.Path, e.URL, e.Component, e.Target, e.IsActive, e.IsPublic,
			e.Icon, e.CSSClass, e.CSSStyle, e.Attributes, e.Metadata, e.Permissions,
			e.CreatedAt, e.UpdatedAt,
		)
		if execErr != nil {
			return 0, fmt.Errorf("menuRepo.CreateMany: insert %q: %w", e.Name, execErr)
		}
		inserted += tag.RowsAffected()
	}

	if err = tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("menuRepo.CreateMany: commit: %w", err)
	}

	return inserted, nil
}

func (r *MenuRepo) DeleteByTenant(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM menu_entries WHERE tenant_id = $1`,
		tenantID,
	)
	if err != nil {
		return 0, fmt.Errorf("menuRepo.DeleteByTenant: %w", err)
	}

	return tag.RowsAffected(), nil
}
