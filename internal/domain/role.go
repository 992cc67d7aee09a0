package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Built-in role names.
const (
	RoleSuperAdmin = "super_admin"
	RoleAdmin      = "admin"
	RoleManager    = "manager"
	RoleUser       = "user"
	RoleGuest      = "guest"
)

// Role priority levels. Higher wins when a user holds several roles; the
// values are a wire contract shared with the membership backfill operation
// and must not be renumbered.
const (
	LevelSuperAdmin = 10
	LevelAdmin      = 8
	LevelManager    = 6
	LevelUser       = 4
	LevelGuest      = 2
)

// RolePriority maps a role name to its priority. Unknown roles get the
// standard user priority.
func RolePriority(role string) int {
	switch role {
	case RoleSuperAdmin:
		return LevelSuperAdmin
	case RoleAdmin:
		return LevelAdmin
	case RoleManager:
		return LevelManager
	case RoleUser:
		return LevelUser
	case RoleGuest:
		return LevelGuest
	default:
		return LevelUser
	}
}

// Permission is a single grant: what may be done (action) to which resource,
// within which scope ("own", "tenant", "all").
type Permission struct {
	Resource string `json:"resource"`
	Action   string `json:"action"`
	Scope    string `json:"scope,omitempty"`
}

// String renders the canonical "resource:action:scope" form used in logs and
// audit details.
func (p Permission) String() string {
	s := p.Resource + ":" + p.Action
	if p.Scope != "" {
		s += ":" + p.Scope
	}
	return s
}

// Role groups permissions under a name. The held-permission set for a user in
// a tenant is the permission list of their membership role.
type Role struct {
	ID          uuid.UUID    `json:"id"`
	Name        string       `json:"name"`
	Priority    int          `json:"priority"`
	Permissions []Permission `json:"permissions"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Membership links a user to a tenant with a role. Priority is denormalized
// from the role so authorization ordering survives role renames; the backfill
// operation re-derives it via RolePriority.
type Membership struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	TenantID  uuid.UUID `json:"tenant_id"`
	Role      string    `json:"role"`
	Priority  int       `json:"priority"`
	IsDefault bool      `json:"is_default"`
	CreatedAt time.Time `json:"created_at"`
}

type RoleRepository interface {
	Create(ctx context.Context, r *Role) error
	GetByName(ctx context.Context, name string) (*Role, error)
	List(ctx context.Context) ([]*Role, error)
}

type MembershipRepository interface {
	Create(ctx context.Context, m *Membership) error
	Get(ctx context.Context, userID, tenantID uuid.UUID) (*Membership, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Membership, error)
	ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*Membership, error)
	Delete(ctx context.Context, userID, tenantID uuid.UUID) error

	// BackfillPriorities rewrites every membership priority from the
	// RolePriority mapping. Returns the number of rows updated.
	BackfillPriorities(ctx context.Context) (int64, error)
}
