package v1

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/tessera-labs/tessera/internal/domain"
)

// TenantMemberView is a membership joined with its user for admin listings.
type TenantMemberView struct {
	UserID    uuid.UUID `json:"user_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Priority  int       `json:"priority"`
	IsDefault bool      `json:"is_default"`
}

type ListTenantMembersInput struct {
	TenantSlug string `path:"tenantSlug" maxLength:"63" doc:"Tenant slug"`
}

type ListTenantMembersOutput struct {
	Body []*TenantMemberView
}

type ListAuditInput struct {
	TenantSlug string `path:"tenantSlug" maxLength:"63" doc:"Tenant slug"`
	Limit      int    `query:"limit" default:"50" minimum:"1" maximum:"200" doc:"Page size"`
	Offset     int    `query:"offset" minimum:"0" doc:"Page offset"`
}

type ListAuditOutput struct {
	Body []*domain.AuditEntry
}

type ListRolesInput struct{}

type ListRolesOutput struct {
	Body []*domain.Role
}

type CreateRoleInput struct {
	Body struct {
		Name        string              `json:"name" minLength:"1" maxLength:"63" doc:"Role name"`
		Priority    int                 `json:"priority,omitempty" minimum:"0" maximum:"10" doc:"Priority; derived from the name when omitted"`
		Permissions []domain.Permission `json:"permissions,omitempty" doc:"Permission grants"`
	}
}

type CreateRoleOutput struct {
	Body *domain.Role
}

// RegisterAdminRoutes registers the admin read surface. The server mounts it
// behind the admin-level middleware, so the handlers do no level checks of
// their own.
func RegisterAdminRoutes(api huma.API, store DataStore) {
	lookupTenant := func(ctx context.Context, slug string) (*domain.Tenant, error) {
		tenant, err := store.Tenants().GetBySlug(ctx, slug)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("tenant not found")
			}
			return nil, huma.Error500InternalServerError("failed to look up tenant", err)
		}
		return tenant, nil
	}

	huma.Register(api, huma.Operation{
		OperationID: "list-tenant-members",
		Method:      http.MethodGet,
		Path:        "/tenants/{tenantSlug}/members",
		Summary:     "List a tenant's members",
		Tags:        []string{"Admin"},
	}, func(ctx context.Context, input *ListTenantMembersInput) (*ListTenantMembersOutput, error) {
		tenant, err := lookupTenant(ctx, input.TenantSlug)
		if err != nil {
			return nil, err
		}

		memberships, err := store.Memberships().ListByTenant(ctx, tenant.ID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list members", err)
		}

		views := make([]*TenantMemberView, 0, len(memberships))
		for _, m := range memberships {
			view := &TenantMemberView{
				UserID:    m.UserID,
				Role:      m.Role,
				Priority:  m.Priority,
				IsDefault: m.IsDefault,
			}
			// A membership pointing at a deleted user still shows up,
			// just without profile fields.
			if user, userErr := store.Users().GetByID(ctx, m.UserID); userErr == nil {
				view.Email = user.Email
				view.Name = user.Name
			}
			views = append(views, view)
		}

		return &ListTenantMembersOutput{Body: views}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-tenant-audit",
		Method:      http.MethodGet,
		Path:        "/tenants/{tenantSlug}/audit",
		Summary:     "List a tenant's audit trail",
		Tags:        []string{"Admin"},
	}, func(ctx context.Context, input *ListAuditInput) (*ListAuditOutput, error) {
		tenant, err := lookupTenant(ctx, input.TenantSlug)
		if err != nil {
			return nil, err
		}

		entries, err := store.Audit().ListByTenant(ctx, tenant.ID, input.Limit, input.Offset)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list audit entries", err)
		}

		return &ListAuditOutput{Body: entries}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-roles",
		Method:      http.MethodGet,
		Path:        "/roles",
		Summary:     "List all roles",
		Tags:        []string{"Admin"},
	}, func(ctx context.Context, _ *ListRolesInput) (*ListRolesOutput, error) {
		roles, err := store.Roles().List(ctx)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list roles", err)
		}

		return &ListRolesOutput{Body: roles}, nil
	})
}

// RegisterSuperAdminRoutes registers the mutating role surface. The server
// mounts it behind the super-admin middleware.
func RegisterSuperAdminRoutes(api huma.API, store DataStore) {
	huma.Register(api, huma.Operation{
		OperationID: "create-role",
		Method:      http.MethodPost,
		Path:        "/roles",
		Summary:     "Create a role",
		Tags:        []string{"Admin"},
	}, func(ctx context.Context, input *CreateRoleInput) (*CreateRoleOutput, error) {
		priority := input.Body.Priority
		if priority == 0 {
			priority = domain.RolePriority(input.Body.Name)
		}

		now := time.Now()
		role := &domain.Role{
			ID:          uuid.New(),
			Name:        input.Body.Name,
			Priority:    priority,
			Permissions: input.Body.Permissions,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		if err := store.Roles().Create(ctx, role); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				return nil, huma.Error409Conflict("role already exists")
			}
			return nil, huma.Error500InternalServerError("failed to create role", err)
		}

		return &CreateRoleOutput{Body: role}, nil
	})
}
