package nav_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessera-labs/tessera/internal/domain"
	"github.com/tessera-labs/tessera/internal/nav"
)

// guardHarness wires a guard over a memory-backed context resolver and the
// given menu repository.
type guardHarness struct {
	guard    *nav.Guard
	tenarctx *nav.ContextResolver
	state    *nav.MemoryState
	notifier *nav.Notifier
}

func newGuardHarness(repo domain.MenuRepository, tenants domain.TenantRepository) *guardHarness {
	state := nav.NewMemoryState()
	notifier := nav.NewNotifier()
	tcr := nav.NewContextResolver(state, notifier)
	resolver := nav.NewResolver(repo, nav.MatchAny)
	guard := nav.NewGuard(resolver, tcr, tenants, notifier, domain.LocationSidebar, "/login", "/dashboard")
	return &guardHarness{guard: guard, tenarctx: tcr, state: state, notifier: notifier}
}

func TestGuard_Check_Allowed(t *testing.T) {
	t.Parallel()

	acme := acmeTenant()
	repo := staticMenuRepo(sidebarEntry(acme, "dashboard", "/{tenant}/dashboard", 1))

	h := newGuardHarness(repo, nil)
	h.tenarctx.SetCurrent(acme)

	res := h.guard.Check(context.Background(), "/acme/dashboard", nil)

	assert.Equal(t, nav.StateAllowed, res.State)
	assert.Empty(t, res.RedirectTo)
	require.NotNil(t, res.Tenant)
	assert.Equal(t, "acme", res.Tenant.Slug)
}

func TestGuard_Check_PathMatching(t *testing.T) {
	t.Parallel()

	acme := acmeTenant()
	repo := staticMenuRepo(sidebarEntry(acme, "reports", "/{tenant}/reports", 1))

	tests := []struct {
		name string
		path string
		want nav.GuardState
	}{
		{"exact match", "/acme/reports", nav.StateAllowed},
		{"sub-path of menu path", "/acme/reports/2026/q1", nav.StateAllowed},
		{"prefix of menu path", "/acme", nav.StateAllowed},
		{"trailing slash tolerated", "/acme/reports/", nav.StateAllowed},
		{"unrelated path", "/acme/billing", nav.StateRedirecting},
		{"different tenant prefix", "/globex/reports", nav.StateRedirecting},
		{"shared prefix but not a segment", "/acme/reportsarchive", nav.StateRedirecting},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := newGuardHarness(repo, nil)
			h.tenarctx.SetCurrent(acme)

			res := h.guard.Check(context.Background(), tt.path, nil)
			assert.Equal(t, tt.want, res.State)
		})
	}
}

func TestGuard_Check_RedirectFallback(t *testing.T) {
	t.Parallel()

	acme := acmeTenant()
	repo := staticMenuRepo(sidebarEntry(acme, "dashboard", "/{tenant}/dashboard", 1))

	h := newGuardHarness(repo, nil)
	h.tenarctx.SetCurrent(acme)

	res := h.guard.Check(context.Background(), "/acme/billing", nil)

	assert.Equal(t, nav.StateRedirecting, res.State)
	assert.Equal(t, "/acme/dashboard", res.RedirectTo)
}

func TestGuard_Check_NoTenantShortCircuits(t *testing.T) {
	t.Parallel()

	queried := false
	repo := &mockMenuRepo{
		findManyFunc: func(context.Context, domain.MenuFilter) ([]*domain.MenuEntry, error) {
			queried = true
			return nil, nil
		},
	}

	h := newGuardHarness(repo, nil)

	res := h.guard.Check(context.Background(), "/acme/dashboard", nil)

	assert.Equal(t, nav.StateRedirecting, res.State)
	assert.Equal(t, "/login", res.RedirectTo)
	assert.False(t, queried, "menus must not be queried without a tenant context")
}

func TestGuard_Check_ResolutionErrorDegradesToRedirect(t *testing.T) {
	t.Parallel()

	repo := &mockMenuRepo{
		findManyFunc: func(context.Context, domain.MenuFilter) ([]*domain.MenuEntry, error) {
			return nil, errors.New("pg: connection refused")
		},
	}

	h := newGuardHarness(repo, nil)
	h.tenarctx.SetCurrent(acmeTenant())

	res := h.guard.Check(context.Background(), "/acme/anything", nil)

	assert.Equal(t, nav.StateRedirecting, res.State)
	assert.Equal(t, "/acme/dashboard", res.RedirectTo)
}

func TestGuard_Check_LiveTenantLookupFailure(t *testing.T) {
	t.Parallel()

	t.Run("durable slug used when live lookup fails", func(t *testing.T) {
		t.Parallel()

		acme := acmeTenant()
		tenants := &mockTenantRepo{
			getByIDFunc: func(context.Context, uuid.UUID) (*domain.Tenant, error) {
				return nil, errors.New("pg: connection refused")
			},
		}

		h := newGuardHarness(staticMenuRepo(), tenants)
		h.tenarctx.SetCurrent(acme)

		res := h.guard.Check(context.Background(), "/acme/billing", nil)

		assert.Equal(t, nav.StateRedirecting, res.State)
		assert.Equal(t, "/acme/dashboard", res.RedirectTo)
	})

	t.Run("renamed slug picked up from live lookup", func(t *testing.T) {
		t.Parallel()

		acme := acmeTenant()
		renamed := *acme
		renamed.Slug = "acme-inc"
		tenants := &mockTenantRepo{
			getByIDFunc: func(context.Context, uuid.UUID) (*domain.Tenant, error) {
				return &renamed, nil
			},
		}

		h := newGuardHarness(staticMenuRepo(), tenants)
		h.tenarctx.SetCurrent(acme)

		res := h.guard.Check(context.Background(), "/acme/billing", nil)

		assert.Equal(t, nav.StateRedirecting, res.State)
		assert.Equal(t, "/acme-inc/dashboard", res.RedirectTo)
	})
}

func TestGuard_Check_StaleResolutionDiscarded(t *testing.T) {
	t.Parallel()

	acme := acmeTenant()
	globex := globexTenant()

	var h *guardHarness
	calls := 0
	repo := &mockMenuRepo{
		findManyFunc: func(_ context.Context, filter domain.MenuFilter) ([]*domain.MenuEntry, error) {
			calls++
			if calls == 1 {
				// The user switches tenants while the first fetch is in
				// flight; its result must not be applied.
				h.tenarctx.SetCurrent(globex)
				return []*domain.MenuEntry{sidebarEntry(acme, "dashboard", "/{tenant}/dashboard", 1)}, nil
			}
			require.NotNil(t, filter.TenantID)
			assert.Equal(t, globex.ID, *filter.TenantID, "re-run must query the new tenant")
			return []*domain.MenuEntry{sidebarEntry(globex, "dashboard", "/{tenant}/dashboard", 1)}, nil
		},
	}

	h = newGuardHarness(repo, nil)
	h.tenarctx.SetCurrent(acme)

	res := h.guard.Check(context.Background(), "/acme/dashboard", nil)

	assert.Equal(t, 2, calls, "superseded check re-runs once")
	require.NotNil(t, res.Tenant)
	assert.Equal(t, "globex", res.Tenant.Slug)
	assert.Equal(t, nav.StateRedirecting, res.State, "acme path is not visible under globex")
	assert.Equal(t, "/globex/dashboard", res.RedirectTo)

	last, ok := h.guard.LastResult()
	require.True(t, ok)
	assert.Equal(t, "globex", last.Tenant.Slug, "the most recent check's result wins")
}

func TestGuard_Check_TenantSwitchEventRerunsCheck(t *testing.T) {
	t.Parallel()

	acme := acmeTenant()
	globex := globexTenant()
	repo := staticMenuRepo(
		sidebarEntry(acme, "dashboard", "/{tenant}/dashboard", 1),
		sidebarEntry(globex, "dashboard", "/{tenant}/dashboard", 1),
	)

	h := newGuardHarness(repo, nil)
	h.tenarctx.SetCurrent(acme)
	require.Equal(t, nav.StateAllowed, h.guard.Check(context.Background(), "/acme/dashboard", nil).State)

	h.tenarctx.SetCurrent(globex)
	res := h.guard.Check(context.Background(), "/globex/dashboard", nil)
	assert.Equal(t, nav.StateAllowed, res.State)
}
