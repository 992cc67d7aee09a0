package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tessera-labs/tessera/internal/domain"
)

type AuditRepo struct {
	pool *pgxpool.Pool
}

func NewAuditRepo(pool *pgxpool.Pool) *AuditRepo {
	return &AuditRepo{pool: pool}
}

func (r *AuditRepo) Record(ctx context.Context, entry *domain.AuditEntry) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO audit_entries (id, tenant_id, actor_id, action, resource, resource_id, details, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		entry.ID, entry.TenantID, entry.ActorID, entry.Action, entry.Resource, entry.ResourceID, entry.Details, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("auditRepo.Record: %w", err)
	}

	return nil
}

func (r *AuditRepo) ListByTenant(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*domain.AuditEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, tenant_id, actor_id, action, resource, resource_id, details, created_at
		 FROM audit_entries WHERE tenant_id = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		tenantID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("auditRepo.ListByTenant: %w", err)
	}
	defer rows.Close()

	var entries []*domain.AuditEntry
	for rows.Next() {
		var e domain.AuditEntry

		err = rows.Scan(&e.ID, &e.TenantID, &e.ActorID, &e.Action, &e.Resource, &e.ResourceID, &e.Details, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("auditRepo.ListByTenant: scan: %w", err)
		}

		entries = append(entries, &e)
	}
	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("auditRepo.ListByTenant: rows: %w", err)
	}

	return entries, nil
}
