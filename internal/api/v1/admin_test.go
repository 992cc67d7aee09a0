package v1_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/tessera-labs/tessera/internal/api/v1"
	"github.com/tessera-labs/tessera/internal/domain"
)

func TestListTenantMembers(t *testing.T) {
	t.Parallel()

	tenant := &domain.Tenant{ID: uuid.New(), Name: "Acme", Slug: "acme"}

	t.Run("members joined with user profiles", func(t *testing.T) {
		t.Parallel()

		alice := &domain.User{ID: uuid.New(), Email: "alice@example.com", Name: "Alice"}
		ghost := uuid.New() // membership whose user was deleted

		_, api := humatest.New(t)
		store := &mockDataStore{
			tenants: &mockTenantRepo{
				getBySlugFunc: func(_ context.Context, slug string) (*domain.Tenant, error) {
					assert.Equal(t, "acme", slug)
					return tenant, nil
				},
			},
			memberships: &mockMembershipRepo{
				listByTenantFunc: func(_ context.Context, tenantID uuid.UUID) ([]*domain.Membership, error) {
					assert.Equal(t, tenant.ID, tenantID)
					return []*domain.Membership{
						{UserID: alice.ID, TenantID: tenant.ID, Role: domain.RoleAdmin, Priority: domain.LevelAdmin, IsDefault: true},
						{UserID: ghost, TenantID: tenant.ID, Role: domain.RoleUser, Priority: domain.LevelUser},
					}, nil
				},
			},
			users: &mockUserRepo{
				getByIDFunc: func(_ context.Context, id uuid.UUID) (*domain.User, error) {
					if id == alice.ID {
						return alice, nil
					}
					return nil, fmt.Errorf("userRepo.GetByID: %w", domain.ErrNotFound)
				},
			},
		}

		v1.RegisterAdminRoutes(api, store)

		resp := api.Get("/tenants/acme/members")

		require.Equal(t, http.StatusOK, resp.Code)

		var members []*v1.TenantMemberView
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&members))
		require.Len(t, members, 2)

		assert.Equal(t, "alice@example.com", members[0].Email)
		assert.Equal(t, domain.RoleAdmin, members[0].Role)
		assert.True(t, members[0].IsDefault)

		// Deleted user: the membership is still listed, without a profile.
		assert.Equal(t, ghost, members[1].UserID)
		assert.Empty(t, members[1].Email)
	})

	t.Run("unknown tenant returns 404", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		store := &mockDataStore{
			tenants: &mockTenantRepo{
				getBySlugFunc: func(context.Context, string) (*domain.Tenant, error) {
					return nil, fmt.Errorf("tenantRepo.GetBySlug: %w", domain.ErrNotFound)
				},
			},
		}

		v1.RegisterAdminRoutes(api, store)

		resp := api.Get("/tenants/nope/members")

		assert.Equal(t, http.StatusNotFound, resp.Code)
	})
}

func TestListTenantAudit(t *testing.T) {
	t.Parallel()

	tenant := &domain.Tenant{ID: uuid.New(), Name: "Acme", Slug: "acme"}

	t.Run("pagination args reach the repository", func(t *testing.T) {
		t.Parallel()

		entry := &domain.AuditEntry{
			ID:        uuid.New(),
			TenantID:  &tenant.ID,
			ActorID:   uuid.New(),
			Action:    "menu.import",
			Resource:  "menu",
			CreatedAt: time.Now(),
		}

		_, api := humatest.New(t)
		store := &mockDataStore{
			tenants: &mockTenantRepo{
				getBySlugFunc: func(context.Context, string) (*domain.Tenant, error) {
					return tenant, nil
				},
			},
			audit: &mockAuditRepo{
				listByTenantFunc: func(_ context.Context, tenantID uuid.UUID, limit, offset int) ([]*domain.AuditEntry, error) {
					assert.Equal(t, tenant.ID, tenantID)
					assert.Equal(t, 20, limit)
					assert.Equal(t, 40, offset)
					return []*domain.AuditEntry{entry}, nil
				},
			},
		}

		v1.RegisterAdminRoutes(api, store)

		resp := api.Get("/tenants/acme/audit?limit=20&offset=40")

		require.Equal(t, http.StatusOK, resp.Code)

		var entries []*domain.AuditEntry
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&entries))
		require.Len(t, entries, 1)
		assert.Equal(t, "menu.import", entries[0].Action)
	})

	t.Run("limit above the cap rejected", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterAdminRoutes(api, &mockDataStore{})

		resp := api.Get("/tenants/acme/audit?limit=5000")

		assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	})
}

func TestRoles(t *testing.T) {
	t.Parallel()

	t.Run("list", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		store := &mockDataStore{
			roles: &mockRoleRepo{
				listFunc: func(context.Context) ([]*domain.Role, error) {
					return []*domain.Role{
						{ID: uuid.New(), Name: domain.RoleAdmin, Priority: domain.LevelAdmin},
						{ID: uuid.New(), Name: domain.RoleUser, Priority: domain.LevelUser},
					}, nil
				},
			},
		}

		v1.RegisterAdminRoutes(api, store)

		resp := api.Get("/roles")

		require.Equal(t, http.StatusOK, resp.Code)

		var roles []*domain.Role
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&roles))
		require.Len(t, roles, 2)
		assert.Equal(t, domain.RoleAdmin, roles[0].Name)
	})

	t.Run("create derives priority from the name", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		store := &mockDataStore{
			roles: &mockRoleRepo{
				createFunc: func(_ context.Context, role *domain.Role) error {
					assert.Equal(t, domain.RoleManager, role.Name)
					assert.Equal(t, domain.LevelManager, role.Priority)
					return nil
				},
			},
		}

		v1.RegisterSuperAdminRoutes(api, store)

		resp := api.Post("/roles", map[string]any{
			"name": "manager",
			"permissions": []map[string]string{
				{"resource": "menu", "action": "read", "scope": "tenant"},
			},
		})

		require.Equal(t, http.StatusOK, resp.Code)

		var role domain.Role
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&role))
		assert.Equal(t, domain.LevelManager, role.Priority)
		require.Len(t, role.Permissions, 1)
		assert.Equal(t, "menu:read:tenant", role.Permissions[0].String())
	})

	t.Run("explicit priority wins", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		store := &mockDataStore{
			roles: &mockRoleRepo{
				createFunc: func(_ context.Context, role *domain.Role) error {
					assert.Equal(t, 7, role.Priority)
					return nil
				},
			},
		}

		v1.RegisterSuperAdminRoutes(api, store)

		resp := api.Post("/roles", map[string]any{
			"name":     "auditor",
			"priority": 7,
		})

		assert.Equal(t, http.StatusOK, resp.Code)
	})

	t.Run("duplicate name returns 409", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		store := &mockDataStore{
			roles: &mockRoleRepo{
				createFunc: func(context.Context, *domain.Role) error {
					return fmt.Errorf("roleRepo.Create: %w", domain.ErrConflict)
				},
			},
		}

		v1.RegisterSuperAdminRoutes(api, store)

		resp := api.Post("/roles", map[string]any{"name": "admin"})

		assert.Equal(t, http.StatusConflict, resp.Code)
	})
}
