package nav

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/tessera-labs/tessera/internal/domain"
)

// GuardState is the outcome of a route check. Checking is the transient
// state while tenant and menus resolve; every check terminates in Allowed or
// Redirecting.
type GuardState string

const (
	StateChecking    GuardState = "checking"
	StateAllowed     GuardState = "allowed"
	StateRedirecting GuardState = "redirecting"
)

// Result is a terminal guard decision for one requested path.
type Result struct {
	State      GuardState     `json:"state"`
	Path       string         `json:"path"`
	RedirectTo string         `json:"redirect_to,omitempty"`
	Tenant     *domain.Tenant `json:"tenant,omitempty"`
}

// Guard decides whether a requested path is reachable through the resolved
// menu set of the session's current tenant, and computes the fallback route
// when it is not.
type Guard struct {
	resolver  *Resolver
	tenantCtx *ContextResolver
	tenants   domain.TenantRepository // live tenant lookup; may be nil
	location  domain.MenuLocation
	loginPath string
	fallback  string // bare last-resort route, "/dashboard"

	mu         sync.Mutex
	generation uint64
	last       *Result
}

// NewGuard creates a Guard over the session's tenant context. It subscribes
// to the notifier so a tenant switch invalidates any check in flight.
// tenants may be nil; the guard then trusts the context resolver's copy of
// the tenant without refreshing it from the store.
func NewGuard(resolver *Resolver, tenantCtx *ContextResolver, tenants domain.TenantRepository, notifier *Notifier, location domain.MenuLocation, loginPath, fallback string) *Guard {
	g := &Guard{
		resolver:  resolver,
		tenantCtx: tenantCtx,
		tenants:   tenants,
		location:  location,
		loginPath: loginPath,
		fallback:  fallback,
	}
	notifier.Subscribe(func(*domain.Tenant) {
		g.mu.Lock()
		g.generation++
		g.mu.Unlock()
	})
	return g
}

// Check runs the guard state machine for the requested path. held is the
// acting user's permission set, passed through to menu resolution (nil skips
// permission filtering).
//
// A tenant switch during the check supersedes it: the stale resolution is
// discarded and the check re-runs against the new tenant, so the most recent
// check's result always wins. Checks are idempotent reads, so re-running is
// safe and no cancellation of the superseded fetch is attempted.
func (g *Guard) Check(ctx context.Context, path string, held []domain.Permission) Result {
	for {
		gen := g.currentGeneration()

		res := g.checkOnce(ctx, path, held)

		if g.applyIfCurrent(gen, res) {
			return res
		}
		log.Debug().Str("path", path).Msg("nav: guard check superseded by tenant switch, re-running")
	}
}

// LastResult returns the most recently applied decision, if any.
func (g *Guard) LastResult() (Result, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.last == nil {
		return Result{}, false
	}
	return *g.last, true
}

func (g *Guard) currentGeneration() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.generation
}

// applyIfCurrent stores res as the latest decision unless a tenant switch
// bumped the generation while the check ran.
func (g *Guard) applyIfCurrent(gen uint64, res Result) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if gen != g.generation {
		return false
	}
	g.last = &res
	return true
}

func (g *Guard) checkOnce(ctx context.Context, path string, held []domain.Permission) Result {
	tenant := g.tenantCtx.Resolve()
	if tenant == nil {
		// No tenant context at all: short-circuit to the login entry point
		// without querying menus.
		return Result{State: StateRedirecting, Path: path, RedirectTo: g.loginPath}
	}

	// Refresh the tenant from the store so the slug is live. On failure keep
	// the session's copy; the durable record is the final slug fallback.
	liveFailed := false
	if g.tenants != nil {
		live, err := g.tenants.GetByID(ctx, tenant.ID)
		if err != nil {
			liveFailed = true
			log.Debug().Err(err).Str("tenant", tenant.Slug).Msg("nav: live tenant lookup failed")
		} else {
			tenant = live
		}
	}

	nodes, err := g.resolver.Resolve(ctx, tenant, g.location, held)
	if err != nil {
		// Store unreachable degrades to "no eligible menus"; the user gets
		// the fallback redirect rather than an error.
		log.Warn().Err(err).Str("path", path).Msg("nav: menu resolution failed, treating as empty")
		nodes = nil
	}

	if matchPath(path, nodes) {
		return Result{State: StateAllowed, Path: path, Tenant: tenant}
	}

	return Result{
		State:      StateRedirecting,
		Path:       path,
		RedirectTo: g.fallbackRoute(tenant, liveFailed),
		Tenant:     tenant,
	}
}

// fallbackRoute computes the default landing route: the live tenant slug when
// known, the slug from the durable record when the live lookup failed, and
// the bare fallback as last resort.
func (g *Guard) fallbackRoute(tenant *domain.Tenant, liveFailed bool) string {
	slug := ""
	if tenant != nil {
		slug = tenant.Slug
	}
	if liveFailed {
		if durable := g.tenantCtx.durableSlug(); durable != "" {
			slug = durable
		}
	}
	if slug == "" {
		return g.fallback
	}
	return "/" + slug + g.fallback
}

// matchPath reports whether the requested path is reachable through any
// resolved entry: exact match, a sub-path of an entry's path, or a prefix of
// one. The prefix direction is deliberately permissive: it permits
// deep-linking into pages nested under a menu's declared path even when the
// menu points at a shallower path.
func matchPath(requested string, nodes []*Node) bool {
	requested = normalizePath(requested)
	if requested == "" {
		return false
	}
	for _, n := range nodes {
		if matchNode(requested, n) {
			return true
		}
	}
	return false
}

func matchNode(requested string, n *Node) bool {
	if p := normalizePath(n.Path); p != "" {
		if requested == p ||
			strings.HasPrefix(requested, p+"/") ||
			strings.HasPrefix(p, requested+"/") {
			return true
		}
	}
	for _, c := range n.Children {
		if matchNode(requested, c) {
			return true
		}
	}
	return false
}

func normalizePath(p string) string {
	if p == "" || p == "/" {
		return p
	}
	return strings.TrimSuffix(p, "/")
}
