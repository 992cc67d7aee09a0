package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tessera-labs/tessera/internal/domain"
)

// Postgres unique_violation error code.
const codeUniqueViolation = "23505"

// translateErr wraps a driver error with the repo operation name and maps
// constraint violations to domain sentinels so callers can match them with
// errors.Is. A unique violation becomes domain.ErrConflict.
func translateErr(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation {
		return fmt.Errorf("%s: %w", op, domain.ErrConflict)
	}
	return fmt.Errorf("%s: %w", op, err)
}

type Store struct {
	pool        *pgxpool.Pool
	tenants     *TenantRepo
	users       *UserRepo
	roles       *RoleRepo
	memberships *MembershipRepo
	menus       *MenuRepo
	audit       *AuditRepo
}

func New(ctx context.Context, dsn string, maxConns int32) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: parse config: %w", err)
	}

	cfg.MaxConns = maxConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: connect: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.New: ping: %w", err)
	}

	return &Store{
		pool:        pool,
		tenants:     NewTenantRepo(pool),
		users:       NewUserRepo(pool),
		roles:       NewRoleRepo(pool),
		memberships: NewMembershipRepo(pool),
		menus:       NewMenuRepo(pool),
		audit:       NewAuditRepo(pool),
	}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) Tenants() domain.TenantRepository         { return s.tenants }
func (s *Store) Users() domain.UserRepository             { return s.users }
func (s *Store) Roles() domain.RoleRepository             { return s.roles }
func (s *Store) Memberships() domain.MembershipRepository { return s.memberships }
func (s *Store) Menus() domain.MenuRepository             { return s.menus }
func (s *Store) Audit() domain.AuditRepository            { return s.audit }
