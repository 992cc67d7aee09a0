package nav

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/tessera-labs/tessera/internal/domain"
)

// PermissionPolicy controls how an entry's required permission set is matched
// against the acting user's held set.
type PermissionPolicy string

const (
	// MatchAny makes an entry visible when the user holds at least one of
	// its required permissions. This is the default.
	MatchAny PermissionPolicy = "any"
	// MatchAll requires the user to hold every required permission.
	MatchAll PermissionPolicy = "all"
)

// Valid reports whether p is a known policy.
func (p PermissionPolicy) Valid() bool {
	return p == MatchAny || p == MatchAll
}

// Node is a resolved menu entry with its children nested and its path
// template substituted.
type Node struct {
	Entry    *domain.MenuEntry `json:"entry"`
	Path     string            `json:"path,omitempty"` // resolved internal route, empty for external entries
	Children []*Node           `json:"children,omitempty"`
}

// Resolver is the menu resolution service. Each call re-queries the store;
// there is no caching and no side effect beyond the query.
type Resolver struct {
	menus  domain.MenuRepository
	policy PermissionPolicy
}

// NewResolver creates a Resolver with the given permission matching policy.
// An unknown policy falls back to MatchAny.
func NewResolver(menus domain.MenuRepository, policy PermissionPolicy) *Resolver {
	if !policy.Valid() {
		policy = MatchAny
	}
	return &Resolver{menus: menus, policy: policy}
}

// Policy returns the configured permission matching policy.
func (r *Resolver) Policy() PermissionPolicy { return r.policy }

// Resolve returns the ordered, filtered, hierarchical menu set visible for
// the given tenant context and location.
//
// A nil tenant selects global public entries only. held is the acting user's
// permission set: nil skips permission filtering entirely (elevated access),
// a non-nil slice filters entries per the configured policy.
func (r *Resolver) Resolve(ctx context.Context, tenant *domain.Tenant, location domain.MenuLocation, held []domain.Permission) ([]*Node, error) {
	filter := domain.MenuFilter{
		Location:   &location,
		ActiveOnly: true,
	}
	if tenant != nil {
		filter.TenantID = &tenant.ID
	} else {
		filter.IncludePublic = true
	}

	entries, err := r.menus.FindMany(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("nav.Resolve: %w", err)
	}

	eligible := entries[:0:0]
	for _, e := range entries {
		// The store already filters on activity and scope; re-check here so
		// in-memory repositories and stale reads cannot widen visibility.
		if !e.IsActive || e.Location != location {
			continue
		}
		if !scopeMatches(e, tenant) {
			continue
		}
		if held != nil && !permissionsMatch(e.Permissions, held, r.policy) {
			continue
		}
		eligible = append(eligible, e)
	}

	sortEntries(eligible)

	return buildTree(eligible, tenant), nil
}

// scopeMatches applies the tenant scoping predicate: the entry's tenant must
// equal the requested one, or, with no tenant requested, the entry must be
// public.
func scopeMatches(e *domain.MenuEntry, tenant *domain.Tenant) bool {
	if tenant == nil {
		return e.TenantID == nil && e.IsPublic
	}
	return e.TenantID != nil && *e.TenantID == tenant.ID
}

// permissionsMatch checks the entry's required set against the held set. An
// empty required set never restricts visibility.
func permissionsMatch(required, held []domain.Permission, policy PermissionPolicy) bool {
	if len(required) == 0 {
		return true
	}

	heldSet := make(map[domain.Permission]struct{}, len(held))
	for _, p := range held {
		heldSet[p] = struct{}{}
	}

	if policy == MatchAll {
		for _, p := range required {
			if _, ok := heldSet[p]; !ok {
				return false
			}
		}
		return true
	}

	for _, p := range required {
		if _, ok := heldSet[p]; ok {
			return true
		}
	}
	return false
}

// sortEntries orders by position ascending, with creation time then ID as
// stable tie-breakers so the output is a deterministic total order.
func sortEntries(entries []*domain.MenuEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Position != b.Position {
			return a.Position < b.Position
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID.String() < b.ID.String()
	})
}

// buildTree nests entries under their parents. The entry arena is indexed by
// ID and child lists are computed here rather than stored. An entry whose
// parent is missing from the eligible set (absent, inactive, filtered out,
// or part of a parent cycle) is promoted to top level, never dropped.
func buildTree(entries []*domain.MenuEntry, tenant *domain.Tenant) []*Node {
	arena := make(map[uuid.UUID]*Node, len(entries))
	for _, e := range entries {
		arena[e.ID] = &Node{Entry: e, Path: resolvePath(e, tenant)}
	}

	roots := make([]*Node, 0, len(entries))
	attached := make(map[uuid.UUID]bool, len(entries))
	for _, e := range entries {
		if e.ParentID == nil {
			roots = append(roots, arena[e.ID])
			continue
		}
		parent, ok := arena[*e.ParentID]
		if !ok || *e.ParentID == e.ID {
			roots = append(roots, arena[e.ID])
			continue
		}
		parent.Children = append(parent.Children, arena[e.ID])
		attached[e.ID] = true
	}

	// A parent cycle leaves its members attached to each other but reachable
	// from no root. Promote the first member in sort order and detach it
	// from its parent so the whole cycle surfaces.
	reachable := make(map[uuid.UUID]bool, len(entries))
	var walk func(n *Node)
	walk = func(n *Node) {
		if reachable[n.Entry.ID] {
			return
		}
		reachable[n.Entry.ID] = true
		for _, c := range n.Children {
			walk(c)
		}
	}
	for _, n := range roots {
		walk(n)
	}
	for _, e := range entries {
		if reachable[e.ID] || !attached[e.ID] {
			continue
		}
		n := arena[e.ID]
		parent := arena[*e.ParentID]
		parent.Children = removeChild(parent.Children, n)
		roots = append(roots, n)
		walk(n)
	}

	return roots
}

func removeChild(children []*Node, target *Node) []*Node {
	for i, c := range children {
		if c == target {
			return append(children[:i], children[i+1:]...)
		}
	}
	return children
}

// resolvePath substitutes the tenant placeholder in an internal route
// template. With no tenant context the literal template is kept. External
// entries have no internal path.
func resolvePath(e *domain.MenuEntry, tenant *domain.Tenant) string {
	if e.IsExternal() {
		return ""
	}
	if tenant == nil {
		return e.Path
	}
	return strings.ReplaceAll(e.Path, domain.TenantPlaceholder, tenant.Slug)
}
