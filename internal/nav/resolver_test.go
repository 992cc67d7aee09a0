package nav_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessera-labs/tessera/internal/domain"
	"github.com/tessera-labs/tessera/internal/nav"
)

func resolvedNames(nodes []*nav.Node) []string {
	names := make([]string, 0, len(nodes))
	for _, n := range nodes {
		names = append(names, n.Entry.Name)
	}
	return names
}

func TestResolver_Resolve_Idempotent(t *testing.T) {
	t.Parallel()

	acme := acmeTenant()
	repo := staticMenuRepo(
		sidebarEntry(acme, "reports", "/{tenant}/reports", 2),
		sidebarEntry(acme, "dashboard", "/{tenant}/dashboard", 1),
		sidebarEntry(acme, "settings", "/{tenant}/settings", 3),
	)
	r := nav.NewResolver(repo, nav.MatchAny)

	first, err := r.Resolve(context.Background(), acme, domain.LocationSidebar, nil)
	require.NoError(t, err)
	second, err := r.Resolve(context.Background(), acme, domain.LocationSidebar, nil)
	require.NoError(t, err)

	assert.Equal(t, resolvedNames(first), resolvedNames(second))
	assert.Equal(t, []string{"dashboard", "reports", "settings"}, resolvedNames(first))
}

func TestResolver_Resolve_Ordering(t *testing.T) {
	t.Parallel()

	acme := acmeTenant()

	t.Run("position ascending", func(t *testing.T) {
		t.Parallel()

		repo := staticMenuRepo(
			sidebarEntry(acme, "third", "/c", 30),
			sidebarEntry(acme, "first", "/a", 10),
			sidebarEntry(acme, "second", "/b", 20),
		)
		nodes, err := nav.NewResolver(repo, nav.MatchAny).Resolve(context.Background(), acme, domain.LocationSidebar, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"first", "second", "third"}, resolvedNames(nodes))
	})

	t.Run("equal positions keep creation order", func(t *testing.T) {
		t.Parallel()

		older := sidebarEntry(acme, "older", "/a", 5)
		newer := sidebarEntry(acme, "newer", "/b", 5)
		newer.CreatedAt = older.CreatedAt.Add(time.Hour)

		repo := staticMenuRepo(newer, older)
		nodes, err := nav.NewResolver(repo, nav.MatchAny).Resolve(context.Background(), acme, domain.LocationSidebar, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"older", "newer"}, resolvedNames(nodes))
	})
}

func TestResolver_Resolve_ScopeIsolation(t *testing.T) {
	t.Parallel()

	acme := acmeTenant()
	globex := globexTenant()
	repo := staticMenuRepo(
		sidebarEntry(acme, "acme-only", "/{tenant}/dashboard", 1),
		sidebarEntry(globex, "globex-only", "/{tenant}/dashboard", 1),
	)
	r := nav.NewResolver(repo, nav.MatchAny)

	nodes, err := r.Resolve(context.Background(), globex, domain.LocationSidebar, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"globex-only"}, resolvedNames(nodes))
}

func TestResolver_Resolve_PublicOnlyWithoutTenant(t *testing.T) {
	t.Parallel()

	acme := acmeTenant()
	public := sidebarEntry(nil, "docs", "/docs", 1)
	public.IsPublic = true
	private := sidebarEntry(nil, "internal", "/internal", 2)

	repo := staticMenuRepo(public, private, sidebarEntry(acme, "scoped", "/x", 3))
	nodes, err := nav.NewResolver(repo, nav.MatchAny).Resolve(context.Background(), nil, domain.LocationSidebar, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"docs"}, resolvedNames(nodes))
}

func TestResolver_Resolve_Hierarchy(t *testing.T) {
	t.Parallel()

	acme := acmeTenant()

	t.Run("children nest under parent", func(t *testing.T) {
		t.Parallel()

		parent := sidebarEntry(acme, "admin", "/{tenant}/admin", 1)
		child := sidebarEntry(acme, "users", "/{tenant}/admin/users", 2)
		child.ParentID = &parent.ID

		nodes, err := nav.NewResolver(staticMenuRepo(parent, child), nav.MatchAny).
			Resolve(context.Background(), acme, domain.LocationSidebar, nil)
		require.NoError(t, err)

		require.Len(t, nodes, 1)
		require.Len(t, nodes[0].Children, 1)
		assert.Equal(t, "users", nodes[0].Children[0].Entry.Name)
	})

	t.Run("orphan promoted when parent missing", func(t *testing.T) {
		t.Parallel()

		ghost := uuid.New()
		orphan := sidebarEntry(acme, "orphan", "/{tenant}/orphan", 1)
		orphan.ParentID = &ghost

		nodes, err := nav.NewResolver(staticMenuRepo(orphan), nav.MatchAny).
			Resolve(context.Background(), acme, domain.LocationSidebar, nil)
		require.NoError(t, err)

		assert.Equal(t, []string{"orphan"}, resolvedNames(nodes))
	})

	t.Run("orphan promoted when parent inactive", func(t *testing.T) {
		t.Parallel()

		parent := sidebarEntry(acme, "disabled", "/{tenant}/disabled", 1)
		parent.IsActive = false
		child := sidebarEntry(acme, "survivor", "/{tenant}/survivor", 2)
		child.ParentID = &parent.ID

		nodes, err := nav.NewResolver(staticMenuRepo(parent, child), nav.MatchAny).
			Resolve(context.Background(), acme, domain.LocationSidebar, nil)
		require.NoError(t, err)

		assert.Equal(t, []string{"survivor"}, resolvedNames(nodes))
	})

	t.Run("parent cycle surfaces instead of vanishing", func(t *testing.T) {
		t.Parallel()

		a := sidebarEntry(acme, "a", "/a", 1)
		b := sidebarEntry(acme, "b", "/b", 2)
		a.ParentID = &b.ID
		b.ParentID = &a.ID

		nodes, err := nav.NewResolver(staticMenuRepo(a, b), nav.MatchAny).
			Resolve(context.Background(), acme, domain.LocationSidebar, nil)
		require.NoError(t, err)

		require.Len(t, nodes, 1)
		assert.Equal(t, "a", nodes[0].Entry.Name)
		require.Len(t, nodes[0].Children, 1)
		assert.Equal(t, "b", nodes[0].Children[0].Entry.Name)
	})
}

func TestResolver_Resolve_PathTemplating(t *testing.T) {
	t.Parallel()

	acme := acmeTenant()

	t.Run("placeholder substituted with slug", func(t *testing.T) {
		t.Parallel()

		repo := staticMenuRepo(sidebarEntry(acme, "users", "/{tenant}/users", 1))
		nodes, err := nav.NewResolver(repo, nav.MatchAny).Resolve(context.Background(), acme, domain.LocationSidebar, nil)
		require.NoError(t, err)

		require.Len(t, nodes, 1)
		assert.Equal(t, "/acme/users", nodes[0].Path)
	})

	t.Run("literal template kept without tenant", func(t *testing.T) {
		t.Parallel()

		e := sidebarEntry(nil, "users", "/{tenant}/users", 1)
		e.IsPublic = true
		nodes, err := nav.NewResolver(staticMenuRepo(e), nav.MatchAny).Resolve(context.Background(), nil, domain.LocationSidebar, nil)
		require.NoError(t, err)

		require.Len(t, nodes, 1)
		assert.Equal(t, "/{tenant}/users", nodes[0].Path)
	})

	t.Run("external entries have no internal path", func(t *testing.T) {
		t.Parallel()

		e := sidebarEntry(acme, "status", "", 1)
		e.URL = "https://status.example.com"
		nodes, err := nav.NewResolver(staticMenuRepo(e), nav.MatchAny).Resolve(context.Background(), acme, domain.LocationSidebar, nil)
		require.NoError(t, err)

		require.Len(t, nodes, 1)
		assert.Empty(t, nodes[0].Path)
	})
}

func TestResolver_Resolve_PermissionPolicy(t *testing.T) {
	t.Parallel()

	acme := acmeTenant()
	readMenus := domain.Permission{Resource: "menus", Action: "read", Scope: "tenant"}
	writeMenus := domain.Permission{Resource: "menus", Action: "write", Scope: "tenant"}

	restricted := sidebarEntry(acme, "restricted", "/{tenant}/admin", 1)
	restricted.Permissions = []domain.Permission{readMenus, writeMenus}
	open := sidebarEntry(acme, "open", "/{tenant}/home", 2)

	t.Run("any policy admits partial holders", func(t *testing.T) {
		t.Parallel()

		r := nav.NewResolver(staticMenuRepo(restricted, open), nav.MatchAny)
		nodes, err := r.Resolve(context.Background(), acme, domain.LocationSidebar, []domain.Permission{readMenus})
		require.NoError(t, err)
		assert.Equal(t, []string{"restricted", "open"}, resolvedNames(nodes))
	})

	t.Run("all policy requires the full set", func(t *testing.T) {
		t.Parallel()

		r := nav.NewResolver(staticMenuRepo(restricted, open), nav.MatchAll)
		nodes, err := r.Resolve(context.Background(), acme, domain.LocationSidebar, []domain.Permission{readMenus})
		require.NoError(t, err)
		assert.Equal(t, []string{"open"}, resolvedNames(nodes))

		nodes, err = r.Resolve(context.Background(), acme, domain.LocationSidebar, []domain.Permission{readMenus, writeMenus})
		require.NoError(t, err)
		assert.Equal(t, []string{"restricted", "open"}, resolvedNames(nodes))
	})

	t.Run("empty required set never restricts", func(t *testing.T) {
		t.Parallel()

		r := nav.NewResolver(staticMenuRepo(open), nav.MatchAll)
		nodes, err := r.Resolve(context.Background(), acme, domain.LocationSidebar, []domain.Permission{})
		require.NoError(t, err)
		assert.Equal(t, []string{"open"}, resolvedNames(nodes))
	})

	t.Run("nil held skips filtering entirely", func(t *testing.T) {
		t.Parallel()

		r := nav.NewResolver(staticMenuRepo(restricted), nav.MatchAll)
		nodes, err := r.Resolve(context.Background(), acme, domain.LocationSidebar, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"restricted"}, resolvedNames(nodes))
	})
}

func TestResolver_Resolve_StoreError(t *testing.T) {
	t.Parallel()

	repo := &mockMenuRepo{
		findManyFunc: func(context.Context, domain.MenuFilter) ([]*domain.MenuEntry, error) {
			return nil, errors.New("pg: connection refused")
		},
	}
	r := nav.NewResolver(repo, nav.MatchAny)

	nodes, err := r.Resolve(context.Background(), acmeTenant(), domain.LocationSidebar, nil)
	require.Error(t, err)
	assert.Nil(t, nodes)
}

func TestNewResolver_UnknownPolicyFallsBackToAny(t *testing.T) {
	t.Parallel()

	r := nav.NewResolver(staticMenuRepo(), nav.PermissionPolicy("sometimes"))
	assert.Equal(t, nav.MatchAny, r.Policy())
}
