package v1

import (
	"context"

	"github.com/tessera-labs/tessera/internal/domain"
)

// DataStore abstracts the repository accessor pattern for handler testing.
// *postgres.Store satisfies this interface.
type DataStore interface {
	Tenants() domain.TenantRepository
	Users() domain.UserRepository
	Roles() domain.RoleRepository
	Memberships() domain.MembershipRepository
	Menus() domain.MenuRepository
	Audit() domain.AuditRepository
}

// AuthService abstracts authentication operations for handler testing.
// *auth.Service satisfies this interface.
type AuthService interface {
	Register(ctx context.Context, email, password, name string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (accessToken, refreshToken string, err error)
	RefreshToken(ctx context.Context, refreshToken string) (string, error)
}

// EventPublisher abstracts the pub/sub fan-out used to invalidate cached
// menus on other instances. *redis.PubSub satisfies this interface.
type EventPublisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}
