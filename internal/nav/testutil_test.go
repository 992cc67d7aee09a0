package nav_test

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tessera-labs/tessera/internal/domain"
)

// ---------------------------------------------------------------------------
// Mock MenuRepository
// ---------------------------------------------------------------------------

type mockMenuRepo struct {
	findManyFunc   func(ctx context.Context, filter domain.MenuFilter) ([]*domain.MenuEntry, error)
	countFunc      func(ctx context.Context, filter domain.MenuFilter) (int64, error)
	createFunc     func(ctx context.Context, e *domain.MenuEntry) error
	getByIDFunc    func(ctx context.Context, id uuid.UUID) (*domain.MenuEntry, error)
	updateFunc     func(ctx context.Context, e *domain.MenuEntry) error
	deleteFunc     func(ctx context.Context, id uuid.UUID) error
	createManyFunc func(ctx context.Context, entries []*domain.MenuEntry) (int64, error)
	deleteByTenant func(ctx context.Context, tenantID uuid.UUID) (int64, error)
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
	return m.deleteByTenant(ctx, tenantID)
}

// staticMenuRepo serves a fixed entry slice, applying the scope/location
// filter the way the SQL store would.
func staticMenuRepo(entries ...*domain.MenuEntry) *mockMenuRepo {
	return &mockMenuRepo{
		findManyFunc: func(_ context.Context, filter domain.MenuFilter) ([]*domain.MenuEntry, error) {
			var out []*domain.MenuEntry
			for _, e := range entries {
				if filter.ActiveOnly && !e.IsActive {
					continue
				}
				if filter.Location != nil && e.Location != *filter.Location {
					continue
				}
				if filter.TenantID != nil {
					if e.TenantID == nil || *e.TenantID != *filter.TenantID {
						continue
					}
				} else if filter.IncludePublic {
					if e.TenantID != nil || !e.IsPublic {
						continue
					}
				}
				out = append(out, e)
			}
			return out, nil
		},
	}
}

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
// Fixtures
// ---------------------------------------------------------------------------

func acmeTenant() *domain.Tenant {
	return &domain.Tenant{
		ID:   uuid.MustParse("aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee"),
		Name: "Acme Corp",
		Slug: "acme",
		Type: domain.TenantTypeBusiness,
	}
}

func globexTenant() *domain.Tenant {
	return &domain.Tenant{
		ID:   uuid.MustParse("11111111-2222-3333-4444-555555555555"),
		Name: "Globex",
		Slug: "globex",
		Type: domain.TenantTypeBusiness,
	}
}

// sidebarEntry builds an active sidebar entry for the tenant with the given
// name, path, and position. createdAt advances with position so ordering
// ties are controlled per test.
func sidebarEntry(tenant *domain.Tenant, name, path string, position int) *domain.MenuEntry {
	var tid *uuid.UUID
	if tenant != nil {
		id := tenant.ID
		tid = &id
	}
	return &domain.MenuEntry{
		ID:        uuid.New(),
		TenantID:  tid,
		Name:      name,
		Label:     name,
		Location:  domain.LocationSidebar,
		Position:  position,
		Path:      path,
		IsActive:  true,
		CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(position) * time.Minute),
	}
}
