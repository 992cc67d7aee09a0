package v1_test

import (
	"context"

	"github.com/google/uuid"

	"github.com/tessera-labs/tessera/internal/domain"
	"github.com/tessera-labs/tessera/internal/nav"
	"github.com/tessera-labs/tessera/internal/server/middleware"
)

// ---------------------------------------------------------------------------
// Context helpers — inject user identity into context for DoCtx
// ---------------------------------------------------------------------------

func userCtx(userID uuid.UUID, level int) context.Context {
	ctx := context.Background()
	ctx = context.WithValue(ctx, middleware.ContextKeyUserID, userID)
	ctx = context.WithValue(ctx, middleware.ContextKeyUserLevel, level)
	return ctx
}

func adminCtx(userID uuid.UUID) context.Context {
	return userCtx(userID, domain.LevelAdmin)
}

func superCtx(userID uuid.UUID) context.Context {
	return userCtx(userID, domain.LevelSuperAdmin)
}

// ---------------------------------------------------------------------------
// Mock DataStore
// ---------------------------------------------------------------------------

type mockDataStore struct {
	tenants     domain.TenantRepository
	users       domain.UserRepository
	roles       domain.RoleRepository
	memberships domain.MembershipRepository
	menus       domain.MenuRepository
	audit       domain.AuditRepository
}

func (m *mockDataStore) Tenants() domain.TenantRepository         { return m.tenants }
func (m *mockDataStore) Users() domain.UserRepository             { return m.users }
func (m *mockDataStore) Roles() domain.RoleRepository             { return m.roles }
func (m *mockDataStore) Memberships() domain.MembershipRepository { return m.memberships }
func (m *mockDataStore) Menus() domain.MenuRepository             { return m.menus }
func (m *mockDataStore) Audit() domain.AuditRepository            { return m.audit }

// ---------------------------------------------------------------------------
// Mock TenantRepository
// ---------------------------------------------------------------------------

type mockTenantRepo struct {
	createFunc        func(ctx context.Context, t *domain.Tenant) error
	getByIDFunc       func(ctx context.Context, id uuid.UUID) (*domain.Tenant, error)
	getBySlugFunc     func(ctx context.Context, slug string) (*domain.Tenant, error)
	updateFunc        func(ctx context.Context, t *domain.Tenant) error
	listFunc          func(ctx context.Context) ([]*domain.Tenant, error)
	listPaginatedFunc func(ctx context.Context, limit, offset int) ([]*domain.Tenant, error)
}

func (m *mockTenantRepo) Create(ctx context.Context, t *domain.Tenant) error {
	return m.createFunc(ctx, t)
}

func (m *mockTenantRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockTenantRepo) GetBySlug(ctx context.Context, slug string) (*domain.Tenant, error) {
	return m.getBySlugFunc(ctx, slug)
}

func (m *mockTenantRepo) Update(ctx context.Context, t *domain.Tenant) error {
	return m.updateFunc(ctx, t)
}

func (m *mockTenantRepo) List(ctx context.Context) ([]*domain.Tenant, error) {
	return m.listFunc(ctx)
}

func (m *mockTenantRepo) ListPaginated(ctx context.Context, limit, offset int) ([]*domain.Tenant, error) {
	return m.listPaginatedFunc(ctx, limit, offset)
}

// ---------------------------------------------------------------------------
// Mock UserRepository
// ---------------------------------------------------------------------------

type mockUserRepo struct {
	createFunc     func(ctx context.Context, u *domain.User) error
	getByIDFunc    func(ctx context.Context, id uuid.UUID) (*domain.User, error)
	getByEmailFunc func(ctx context.Context, email string) (*domain.User, error)
	updateFunc     func(ctx context.Context, u *domain.User) error
	listFunc       func(ctx context.Context, limit, offset int) ([]*domain.User, error)
}

func (m *mockUserRepo) Create(ctx context.Context, u *domain.User) error {
	return m.createFunc(ctx, u)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return m.getByEmailFunc(ctx, email)
}

func (m *mockUserRepo) Update(ctx context.Context, u *domain.User) error {
	return m.updateFunc(ctx, u)
}

func (m *mockUserRepo) List(ctx context.Context, limit, offset int) ([]*domain.User, error) {
	return m.listFunc(ctx, limit, offset)
}

// ---------------------------------------------------------------------------
// Mock RoleRepository
// ---------------------------------------------------------------------------

type mockRoleRepo struct {
	createFunc    func(ctx context.Context, r *domain.Role) error
	getByNameFunc func(ctx context.Context, name string) (*domain.Role, error)
	listFunc      func(ctx context.Context) ([]*domain.Role, error)
}

func (m *mockRoleRepo) Create(ctx context.Context, r *domain.Role) error {
	return m.createFunc(ctx, r)
}

func (m *mockRoleRepo) GetByName(ctx context.Context, name string) (*domain.Role, error) {
	return m.getByNameFunc(ctx, name)
}

func (m *mockRoleRepo) List(ctx context.Context) ([]*domain.Role, error) {
	return m.listFunc(ctx)
}

// ---------------------------------------------------------------------------
// Mock MembershipRepository
// ---------------------------------------------------------------------------

type mockMembershipRepo struct {
	createFunc             func(ctx context.Context, m *domain.Membership) error
	getFunc                func(ctx context.Context, userID, tenantID uuid.UUID) (*domain.Membership, error)
	listByUserFunc         func(ctx context.Context, userID uuid.UUID) ([]*domain.Membership, error)
	listByTenantFunc       func(ctx context.Context, tenantID uuid.UUID) ([]*domain.Membership, error)
	deleteFunc             func(ctx context.Context, userID, tenantID uuid.UUID) error
	backfillPrioritiesFunc func(ctx context.Context) (int64, error)
}

func (m *mockMembershipRepo) Create(ctx context.Context, mem *domain.Membership) error {
	return m.createFunc(ctx, mem)
}

func (m *mockMembershipRepo) Get(ctx context.Context, userID, tenantID uuid.UUID) (*domain.Membership, error) {
	return m.getFunc(ctx, userID, tenantID)
}

func (m *mockMembershipRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Membership, error) {
	return m.listByUserFunc(ctx, userID)
}

func (m *mockMembershipRepo) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*domain.Membership, error) {
	return m.listByTenantFunc(ctx, tenantID)
}

func (m *mockMembershipRepo) Delete(ctx context.Context, userID, tenantID uuid.UUID) error {
	return m.deleteFunc(ctx, userID, tenantID)
}

func (m *mockMembershipRepo) BackfillPriorities(ctx context.Context) (int64, error) {
	return m.backfillPrioritiesFunc(ctx)
}

// ---------------------------------------------------------------------------
// Mock MenuRepository
// ---------------------------------------------------------------------------

type mockMenuRepo struct {
	findManyFunc       func(ctx context.Context, filter domain.MenuFilter) ([]*domain.MenuEntry, error)
	countFunc          func(ctx context.Context, filter domain.MenuFilter) (int64, error)
	createFunc         func(ctx context.Context, e *domain.MenuEntry) error
	getByIDFunc        func(ctx context.Context, id uuid.UUID) (*domain.MenuEntry, error)
	updateFunc         func(ctx context.Context, e *domain.MenuEntry) error
	deleteFunc         func(ctx context.Context, id uuid.UUID) error
	createManyFunc     func(ctx context.Context, entries []*domain.MenuEntry) (int64, error)
	deleteByTenantFunc func(ctx context.Context, tenantID uuid.UUID) (int64, error)
}

func (m *mockMenuRepo) FindMany(ctx context.Context, filter domain.MenuFilter) ([]*domain.MenuEntry, error) {
	return m.findManyFunc(ctx, filter)
}

func (m *mockMenuRepo) Count(ctx context.Context, filter domain.MenuFilter) (int64, error) {
	return m.countFunc(ctx, filter)
}

func (m *mockMenuRepo) Create(ctx context.Context, e *domain.MenuEntry) error {
	return m.createFunc(ctx, e)
}

func (m *mockMenuRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.MenuEntry, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockMenuRepo) Update(ctx context.Context, e *domain.MenuEntry) error {
	return m.updateFunc(ctx, e)
}

func (m *mockMenuRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.deleteFunc(ctx, id)
}

func (m *mockMenuRepo) CreateMany(ctx context.Context, entries []*domain.MenuEntry) (int64, error) {
	return m.createManyFunc(ctx, entries)
}

func (m *mockMenuRepo) DeleteByTenant(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	return m.deleteByTenantFunc(ctx, tenantID)
}

// ---------------------------------------------------------------------------
// Mock AuditRepository
// ---------------------------------------------------------------------------

type mockAuditRepo struct {
	recordFunc       func(ctx context.Context, entry *domain.AuditEntry) error
	listByTenantFunc func(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*domain.AuditEntry, error)

	recorded []*domain.AuditEntry // captures entries when recordFunc is nil
}

func (m *mockAuditRepo) Record(ctx context.Context, entry *domain.AuditEntry) error {
	if m.recordFunc != nil {
		return m.recordFunc(ctx, entry)
	}
	m.recorded = append(m.recorded, entry)
	return nil
}

func (m *mockAuditRepo) ListByTenant(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*domain.AuditEntry, error) {
	return m.listByTenantFunc(ctx, tenantID, limit, offset)
}

// ---------------------------------------------------------------------------
// Mock AuthService
// ---------------------------------------------------------------------------

type mockAuthService struct {
	registerFunc     func(ctx context.Context, email, password, name string) (*domain.User, error)
	loginFunc        func(ctx context.Context, email, password string) (string, string, error)
	refreshTokenFunc func(ctx context.Context, refreshToken string) (string, error)
}

func (m *mockAuthService) Register(ctx context.Context, email, password, name string) (*domain.User, error) {
	return m.registerFunc(ctx, email, password, name)
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (accessToken, refreshToken string, err error) {
	return m.loginFunc(ctx, email, password)
}

func (m *mockAuthService) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	return m.refreshTokenFunc(ctx, refreshToken)
}

// ---------------------------------------------------------------------------
// Mock EventPublisher
// ---------------------------------------------------------------------------

type publishedEvent struct {
	channel string
	payload []byte
}

type mockPublisher struct {
	events []publishedEvent
}

func (m *mockPublisher) Publish(_ context.Context, channel string, payload []byte) error {
	m.events = append(m.events, publishedEvent{channel: channel, payload: payload})
	return nil
}

// ---------------------------------------------------------------------------
// Navigation session manager backed by in-memory state
// ---------------------------------------------------------------------------

func newTestSessions(menus domain.MenuRepository, tenants domain.TenantRepository) *nav.Manager {
	resolver := nav.NewResolver(menus, nav.MatchAny)
	states := func(uuid.UUID) nav.ClientState { return nav.NewMemoryState() }
	return nav.NewManager(resolver, tenants, states, nil, nav.ManagerConfig{})
}
