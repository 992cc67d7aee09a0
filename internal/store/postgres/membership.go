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

type MembershipRepo struct {
	pool *pgxpool.Pool
}

func NewMembershipRepo(pool *pgxpool.Pool) *MembershipRepo {
	return &MembershipRepo{pool: pool}
}

func (r *MembershipRepo) Create(ctx context.Context, m *domain.Membership) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO memberships (id, user_id, tenant_id, role, priority, is_default, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		m.ID, m.UserID, m.TenantID, m.Role, m.Priority, m.IsDefault, m.CreatedAt,
	)
	if err != nil {
		return translateErr("membershipRepo.Create", err)
	}

	return nil
}

func (r *MembershipRepo) Get(ctx context.Context, userID, tenantID uuid.UUID) (*domain.Membership, error) {
	var m domain.Membership

	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, tenant_id, role, priority, is_default, created_at
		 FROM memberships WHERE user_id = $1 AND tenant_id = $2`,
		userID, tenantID,
	).Scan(&m.ID, &m.UserID, &m.TenantID, &m.Role, &m.Priority, &m.IsDefault, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("membershipRepo.Get: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("membershipRepo.Get: %w", err)
	}

	return &m, nil
}

func (r *MembershipRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Membership, error) {
	return r.list(ctx, "membershipRepo.ListByUser", `WHERE user_id = $1 ORDER BY priority DESC, created_at`, userID)
}

func (r *MembershipRepo) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*domain.Membership, error) {
	return r.list(ctx, "membershipRepo.ListByTenant", `WHERE tenant_id = $1 ORDER BY priority DESC, created_at`, tenantID)
}

func (r *MembershipRepo) list(ctx context.Context, op, tail string, arg any) ([]*domain.Membership, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, tenant_id, role, priority, is_default, created_at
		 FROM memberships `+tail,
		arg,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var memberships []*domain.Membership
	for rows.Next() {
		var m domain.Membership

		err = rows.Scan(&m.ID, &m.UserID, &m.TenantID, &m.Role, &m.Priority, &m.IsDefault, &m.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}

		memberships = append(memberships, &m)
	}
	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, err)
	}

	return memberships, nil
}

func (r *MembershipRepo) Delete(ctx context.Context, userID, tenantID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM memberships WHERE user_id = $1 AND tenant_id = $2`,
		userID, tenantID,
	)
	if err != nil {
		return fmt.Errorf("membershipRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("membershipRepo.Delete: %w", domain.ErrNotFound)
	}

	return nil
}

// BackfillPriorities rewrites every membership priority from the role
// priority mapping. Memberships with unknown roles get the standard user
// priority.
func (r *MembershipRepo) BackfillPriorities(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE memberships SET priority = CASE role
			WHEN 'super_admin' THEN 10
			WHEN 'admin'       THEN 8
			WHEN 'manager'     THEN 6
			WHEN 'user'        THEN 4
			WHEN 'guest'       THEN 2
			ELSE 4
		 END`,
	)
	if err != nil {
		return 0, fmt.Errorf("membershipRepo.BackfillPriorities: %w", err)
	}

	return tag.RowsAffected(), nil
}
