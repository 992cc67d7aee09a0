package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/tessera-labs/tessera/internal/domain"
	"github.com/tessera-labs/tessera/internal/nav"
	"github.com/tessera-labs/tessera/internal/server/middleware"
)

type ResolveMenusInput struct {
	Location string `query:"location" enum:"header,sidebar,footer,custom" default:"sidebar" doc:"UI region to resolve"`
}

type ResolveMenusOutput struct {
	Body struct {
		Tenant *domain.Tenant `json:"tenant,omitempty" doc:"Tenant the menus were resolved for"`
		Menus  []*nav.Node    `json:"menus" doc:"Resolved menu tree"`
	}
}

type GuardInput struct {
	Path string `query:"path" minLength:"1" maxLength:"512" doc:"Requested route path"`
}

type GuardOutput struct {
	Body nav.Result
}

type SwitchTenantInput struct {
	Body struct {
		TenantSlug string `json:"tenant_slug" maxLength:"63" doc:"Tenant to switch to; empty clears the selection"`
	}
}

type SwitchTenantOutput struct {
	Body struct {
		Tenant *domain.Tenant `json:"tenant,omitempty" doc:"The now-current tenant; absent when cleared"`
	}
}

// identity pulls the authenticated user from the request context.
func identity(ctx context.Context) (uuid.UUID, int, error) {
	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		return uuid.Nil, 0, huma.Error401Unauthorized("authentication required")
	}
	level, _ := middleware.UserLevelFromContext(ctx)
	return userID, level, nil
}

// heldPermissions computes the acting user's permission set within the
// tenant. Super admins get nil, which disables permission filtering
// entirely. Non-members and members of unknown roles get an empty set,
// which hides every permission-restricted entry.
func heldPermissions(ctx context.Context, store DataStore, userID uuid.UUID, level int, tenant *domain.Tenant) ([]domain.Permission, error) {
	if level >= domain.LevelSuperAdmin {
		return nil, nil
	}
	if tenant == nil {
		return []domain.Permission{}, nil
	}

	m, err := store.Memberships().Get(ctx, userID, tenant.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return []domain.Permission{}, nil
		}
		return nil, err
	}

	role, err := store.Roles().GetByName(ctx, m.Role)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return []domain.Permission{}, nil
		}
		return nil, err
	}

	return role.Permissions, nil
}

func RegisterNavigationRoutes(api huma.API, store DataStore, sessions *nav.Manager) {
	huma.Register(api, huma.Operation{
		OperationID: "resolve-menus",
		Method:      http.MethodGet,
		Path:        "/navigation/menus",
		Summary:     "Resolve the caller's menu tree for a UI region",
		Description: "Menus are scoped to the caller's current tenant and filtered by held permissions. Without a current tenant only public global entries are returned.",
		Tags:        []string{"Navigation"},
	}, func(ctx context.Context, input *ResolveMenusInput) (*ResolveMenusOutput, error) {
		userID, level, err := identity(ctx)
		if err != nil {
			return nil, err
		}

		tenant := sessions.Session(userID).Context.Resolve()

		held, err := heldPermissions(ctx, store, userID, level, tenant)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to load permissions", err)
		}

		nodes, err := sessions.Resolver().Resolve(ctx, tenant, domain.MenuLocation(input.Location), held)
		if err != nil {
			return nil, huma.Error500InternalServerError("menu resolution failed", err)
		}

		out := &ResolveMenusOutput{}
		out.Body.Tenant = tenant
		out.Body.Menus = nodes
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "guard-route",
		Method:      http.MethodGet,
		Path:        "/navigation/guard",
		Summary:     "Check whether a route is reachable for the caller",
		Description: "Returns the terminal guard decision: allowed, or redirecting with the computed target.",
		Tags:        []string{"Navigation"},
	}, func(ctx context.Context, input *GuardInput) (*GuardOutput, error) {
		userID, level, err := identity(ctx)
		if err != nil {
			return nil, err
		}

		session := sessions.Session(userID)
		tenant := session.Context.Resolve()

		held, err := heldPermissions(ctx, store, userID, level, tenant)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to load permissions", err)
		}

		result := session.Guard.Check(ctx, input.Path, held)
		return &GuardOutput{Body: result}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "switch-tenant",
		Method:      http.MethodPost,
		Path:        "/navigation/switch",
		Summary:     "Switch the caller's current tenant",
		Description: "The caller must be a member of the target tenant; super admins may switch anywhere. An empty slug clears the selection.",
		Tags:        []string{"Navigation"},
	}, func(ctx context.Context, input *SwitchTenantInput) (*SwitchTenantOutput, error) {
		userID, level, err := identity(ctx)
		if err != nil {
			return nil, err
		}

		session := sessions.Session(userID)

		if input.Body.TenantSlug == "" {
			session.Context.Clear()
			return &SwitchTenantOutput{}, nil
		}

		tenant, err := store.Tenants().GetBySlug(ctx, input.Body.TenantSlug)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("tenant not found")
			}
			return nil, huma.Error500InternalServerError("failed to look up tenant", err)
		}

		if level < domain.LevelSuperAdmin {
			if _, err := store.Memberships().Get(ctx, userID, tenant.ID); err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					return nil, huma.Error403Forbidden("not a member of this tenant")
				}
				return nil, huma.Error500InternalServerError("failed to check membership", err)
			}
		}

		session.Context.SetCurrent(tenant)

		out := &SwitchTenantOutput{}
		out.Body.Tenant = tenant
		return out, nil
	})
}
