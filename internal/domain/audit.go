package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AuditEntry records an administrative mutation. Bulk menu operations and
// membership backfills always leave one.
type AuditEntry struct {
	ID         uuid.UUID      `json:"id"`
	TenantID   *uuid.UUID     `json:"tenant_id,omitempty"` // nil for platform-wide operations
	ActorID    uuid.UUID      `json:"actor_id"`
	Action     string         `json:"action"`   // "menu.import", "menu.clear", "membership.backfill", ...
	Resource   string         `json:"resource"` // "menu", "membership", "tenant"
	ResourceID *uuid.UUID     `json:"resource_id,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

type AuditRepository interface {
	Record(ctx context.Context, entry *AuditEntry) error
	ListByTenant(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*AuditEntry, error)
}
