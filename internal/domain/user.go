package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// User is a platform account. Users are global; tenancy is expressed through
// memberships, so a single account can act in several tenants with different
// roles.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // argon2id
	Name         string    `json:"name"`
	RoleLevel    int       `json:"role_level"` // see RolePriority; >= LevelSuperAdmin bypasses tenant scoping
	AvatarURL    string    `json:"avatar_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsSuperAdmin reports whether the user may act across tenant boundaries.
func (u *User) IsSuperAdmin() bool {
	return u.RoleLevel >= LevelSuperAdmin
}

// Session is the authenticated identity consumed by the navigation core. It
// carries the platform-wide role level and the tenant memberships a switch UI
// may offer.
type Session struct {
	UserID      uuid.UUID     `json:"user_id"`
	RoleLevel   int           `json:"role_level"`
	Memberships []*Membership `json:"memberships,omitempty"`
}

type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, u *User) error
	List(ctx context.Context, limit, offset int) ([]*User, error)
}
