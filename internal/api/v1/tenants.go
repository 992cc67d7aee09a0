package v1

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/tessera-labs/tessera/internal/domain"
	"github.com/tessera-labs/tessera/internal/server/middleware"
)

type CreateTenantInput struct {
	Body struct {
		Name         string         `json:"name" minLength:"1" maxLength:"255" doc:"Tenant name"`
		Slug         string         `json:"slug" minLength:"1" maxLength:"63" pattern:"^[a-z0-9]+(?:-[a-z0-9]+)*$" doc:"URL-safe slug (lowercase alphanumeric with hyphens)"`
		Type         string         `json:"type,omitempty" enum:"core,business,trial" doc:"Tenant type (defaults to business)"`
		PrimaryColor string         `json:"primary_color,omitempty" maxLength:"32" doc:"Theme color"`
		Settings     map[string]any `json:"settings,omitempty" doc:"Free-form tenant settings"`
	}
}

type CreateTenantOutput struct {
	Body *domain.Tenant
}

type ListTenantsInput struct {
	Limit  int `query:"limit" minimum:"1" maximum:"200" default:"50" doc:"Max results"`
	Offset int `query:"offset" minimum:"0" default:"0" doc:"Offset for pagination"`
}

type ListTenantsOutput struct {
	Body []*domain.Tenant
}

type GetTenantInput struct {
	Slug string `path:"slug" maxLength:"63" doc:"Tenant slug"`
}

type GetTenantOutput struct {
	Body *domain.Tenant
}

type UpdateTenantInput struct {
	Slug string `path:"slug" maxLength:"63" doc:"Tenant slug"`
	Body struct {
		Name         *string        `json:"name,omitempty" maxLength:"255" doc:"New tenant name"`
		PrimaryColor *string        `json:"primary_color,omitempty" maxLength:"32" doc:"New theme color"`
		Settings     map[string]any `json:"settings,omitempty" doc:"Replacement settings"`
	}
}

type UpdateTenantOutput struct {
	Body *domain.Tenant
}

// requireLevel checks the authenticated user's role level from context.
func requireLevel(ctx context.Context, min int) error {
	level, ok := middleware.UserLevelFromContext(ctx)
	if !ok {
		return huma.Error401Unauthorized("authentication required")
	}
	if level < min {
		return huma.Error403Forbidden("insufficient role level")
	}
	return nil
}

func RegisterTenantRoutes(api huma.API, store DataStore) {
	huma.Register(api, huma.Operation{
		OperationID: "create-tenant",
		Method:      http.MethodPost,
		Path:        "/tenants",
		Summary:     "Create a new tenant",
		Tags:        []string{"Tenants"},
	}, func(ctx context.Context, input *CreateTenantInput) (*CreateTenantOutput, error) {
		if err := requireLevel(ctx, domain.LevelSuperAdmin); err != nil {
			return nil, err
		}

		t, err := domain.NewTenant(input.Body.Name, input.Body.Slug, domain.TenantType(input.Body.Type))
		if err != nil {
			return nil, huma.Error422UnprocessableEntity(err.Error())
		}
		t.PrimaryColor = input.Body.PrimaryColor
		t.Settings = input.Body.Settings

		if err := store.Tenants().Create(ctx, t); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				return nil, huma.Error409Conflict("tenant slug already taken")
			}
			return nil, huma.Error500InternalServerError("failed to create tenant", err)
		}

		return &CreateTenantOutput{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-tenants",
		Method:      http.MethodGet,
		Path:        "/tenants",
		Summary:     "List all tenants",
		Tags:        []string{"Tenants"},
	}, func(ctx context.Context, input *ListTenantsInput) (*ListTenantsOutput, error) {
		if err := requireLevel(ctx, domain.LevelAdmin); err != nil {
			return nil, err
		}

		tenants, err := store.Tenants().ListPaginated(ctx, input.Limit, input.Offset)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list tenants", err)
		}

		return &ListTenantsOutput{Body: tenants}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-tenant",
		Method:      http.MethodGet,
		Path:        "/tenants/{slug}",
		Summary:     "Get a tenant by slug",
		Tags:        []string{"Tenants"},
	}, func(ctx context.Context, input *GetTenantInput) (*GetTenantOutput, error) {
		tenant, err := store.Tenants().GetBySlug(ctx, input.Slug)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("tenant not found")
			}
			return nil, huma.Error500InternalServerError("failed to look up tenant", err)
		}

		return &GetTenantOutput{Body: tenant}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-tenant",
		Method:      http.MethodPatch,
		Path:        "/tenants/{slug}",
		Summary:     "Update tenant display fields",
		Tags:        []string{"Tenants"},
	}, func(ctx context.Context, input *UpdateTenantInput) (*UpdateTenantOutput, error) {
		if err := requireLevel(ctx, domain.LevelAdmin); err != nil {
			return nil, err
		}

		tenant, err := store.Tenants().GetBySlug(ctx, input.Slug)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("tenant not found")
			}
			return nil, huma.Error500InternalServerError("failed to look up tenant", err)
		}

		if input.Body.Name != nil {
			tenant.Name = *input.Body.Name
		}
		if input.Body.PrimaryColor != nil {
			tenant.PrimaryColor = *input.Body.PrimaryColor
		}
		if input.Body.Settings != nil {
			tenant.Settings = input.Body.Settings
		}
		tenant.UpdatedAt = time.Now()

		if err := store.Tenants().Update(ctx, tenant); err != nil {
			return nil, huma.Error500InternalServerError("failed to update tenant", err)
		}

		return &UpdateTenantOutput{Body: tenant}, nil
	})
}

// uuidFromPath parses a path UUID, translating parse failures into 422s.
func uuidFromPath(raw, what string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, huma.Error422UnprocessableEntity("invalid " + what)
	}
	return id, nil
}
