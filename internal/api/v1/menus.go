package v1

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/tessera-labs/tessera/internal/domain"
	"github.com/tessera-labs/tessera/internal/server/middleware"
	"github.com/tessera-labs/tessera/internal/store/redis"
)

// MenuEntryBody is the writable representation of a menu entry shared by the
// create and import operations.
type MenuEntryBody struct {
	ParentID string `json:"parent_id,omitempty" format:"uuid" doc:"Parent entry ID for nesting"`

	Name     string `json:"name" minLength:"1" maxLength:"255" doc:"Stable key, unique per (tenant, location)"`
	Label    string `json:"label" minLength:"1" maxLength:"255" doc:"Display text"`
	Location string `json:"location" enum:"header,sidebar,footer,custom" doc:"UI region"`
	Category string `json:"category,omitempty" maxLength:"64" doc:"Free-form grouping"`
	Position int    `json:"position,omitempty" doc:"Ascending sort key"`

	Path      string `json:"path,omitempty" maxLength:"512" doc:"Internal route template; may contain {tenant}"`
	URL       string `json:"url,omitempty" maxLength:"2048" doc:"External absolute URL"`
	Component string `json:"component,omitempty" maxLength:"255" doc:"Frontend component hint"`
	Target    string `json:"target,omitempty" maxLength:"16" doc:"Link target; defaults to _blank for external URLs"`

	IsActive *bool `json:"is_active,omitempty" doc:"Visibility toggle (defaults to true)"`
	IsPublic bool  `json:"is_public,omitempty" doc:"Visible without a tenant context"`

	Icon       string         `json:"icon,omitempty" maxLength:"64"`
	CSSClass   string         `json:"css_class,omitempty" maxLength:"255"`
	CSSStyle   string         `json:"css_style,omitempty" maxLength:"1024"`
	Attributes map[string]any `json:"attributes,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`

	Permissions []domain.Permission `json:"permissions,omitempty" doc:"Permissions required for visibility"`
}

// toEntry converts the body into a validated domain entry.
func (b *MenuEntryBody) toEntry(tenantID *uuid.UUID) (*domain.MenuEntry, error) {
	now := time.Now()
	e := &domain.MenuEntry{
		ID:          uuid.New(),
		TenantID:    tenantID,
		Name:        b.Name,
		Label:       b.Label,
		Location:    domain.MenuLocation(b.Location),
		Category:    b.Category,
		Position:    b.Position,
		Path:        b.Path,
		URL:         b.URL,
		Component:   b.Component,
		Target:      b.Target,
		IsActive:    true,
		IsPublic:    b.IsPublic,
		Icon:        b.Icon,
		CSSClass:    b.CSSClass,
		CSSStyle:    b.CSSStyle,
		Attributes:  b.Attributes,
		Metadata:    b.Metadata,
		Permissions: b.Permissions,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if b.IsActive != nil {
		e.IsActive = *b.IsActive
	}
	if b.ParentID != "" {
		pid, err := uuid.Parse(b.ParentID)
		if err != nil {
			return nil, domain.ErrInvalid
		}
		e.ParentID = &pid
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	e.ApplyDefaults()
	return e, nil
}

type CreateMenuInput struct {
	TenantSlug string `query:"tenant" maxLength:"63" doc:"Tenant slug; omit for a global entry"`
	Body       MenuEntryBody
}

type CreateMenuOutput struct {
	Body *domain.MenuEntry
}

type ListMenusInput struct {
	TenantSlug      string `query:"tenant" maxLength:"63" doc:"Tenant slug; omit for global entries"`
	Location        string `query:"location" doc:"Restrict to one UI region (header, sidebar, footer, custom)"`
	IncludeInactive bool   `query:"include_inactive" doc:"Include disabled entries"`
}

type ListMenusOutput struct {
	Body []*domain.MenuEntry
}

type GetMenuInput struct {
	ID string `path:"id" format:"uuid" doc:"Menu entry ID"`
}

type GetMenuOutput struct {
	Body *domain.MenuEntry
}

type UpdateMenuInput struct {
	ID   string `path:"id" format:"uuid" doc:"Menu entry ID"`
	Body struct {
		Label       *string             `json:"label,omitempty" maxLength:"255"`
		Category    *string             `json:"category,omitempty" maxLength:"64"`
		Position    *int                `json:"position,omitempty"`
		Path        *string             `json:"path,omitempty" maxLength:"512"`
		URL         *string             `json:"url,omitempty" maxLength:"2048"`
		Component   *string             `json:"component,omitempty" maxLength:"255"`
		Target      *string             `json:"target,omitempty" maxLength:"16"`
		IsActive    *bool               `json:"is_active,omitempty"`
		IsPublic    *bool               `json:"is_public,omitempty"`
		Icon        *string             `json:"icon,omitempty" maxLength:"64"`
		CSSClass    *string             `json:"css_class,omitempty" maxLength:"255"`
		CSSStyle    *string             `json:"css_style,omitempty" maxLength:"1024"`
		Attributes  map[string]any      `json:"attributes,omitempty"`
		Metadata    map[string]any      `json:"metadata,omitempty"`
		Permissions []domain.Permission `json:"permissions,omitempty"`
		ParentID    *string             `json:"parent_id,omitempty" doc:"Parent entry ID; empty string detaches"`
	}
}

type UpdateMenuOutput struct {
	Body *domain.MenuEntry
}

type DeleteMenuInput struct {
	ID string `path:"id" format:"uuid" doc:"Menu entry ID"`
}

type DeleteMenuOutput struct {
	Body struct {
		Deleted bool `json:"deleted"`
	}
}

type ImportMenusInput struct {
	TenantSlug string `query:"tenant" maxLength:"63" doc:"Tenant slug; omit for global entries"`
	Body       struct {
		Entries []MenuEntryBody `json:"entries" minItems:"1" doc:"Entries to import"`
	}
}

type ImportMenusOutput struct {
	Body struct {
		Imported int64 `json:"imported" doc:"Rows inserted"`
		Skipped  int64 `json:"skipped" doc:"Rows skipped as duplicates"`
	}
}

type ClearTenantMenusInput struct {
	TenantSlug string `path:"tenantSlug" maxLength:"63" doc:"Tenant slug"`
}

type ClearTenantMenusOutput struct {
	Body struct {
		Deleted int64 `json:"deleted" doc:"Rows removed"`
	}
}

func RegisterMenuRoutes(api huma.API, store DataStore, events EventPublisher) {
	// resolveTenant maps an optional slug query to a tenant ID pointer.
	resolveTenant := func(ctx context.Context, slug string) (*uuid.UUID, *domain.Tenant, error) {
		if slug == "" {
			return nil, nil, nil
		}
		tenant, err := store.Tenants().GetBySlug(ctx, slug)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, nil, huma.Error404NotFound("tenant not found")
			}
			return nil, nil, huma.Error500InternalServerError("failed to look up tenant", err)
		}
		return &tenant.ID, tenant, nil
	}

	// audit records an administrative mutation; failures are logged, not
	// surfaced, so bookkeeping never blocks the operation itself.
	audit := func(ctx context.Context, tenantID *uuid.UUID, action string, details map[string]any) {
		actorID, _ := middleware.UserIDFromContext(ctx)
		entry := &domain.AuditEntry{
			ID:        uuid.New(),
			TenantID:  tenantID,
			ActorID:   actorID,
			Action:    action,
			Resource:  "menu",
			Details:   details,
			CreatedAt: time.Now(),
		}
		if err := store.Audit().Record(ctx, entry); err != nil {
			log.Warn().Err(err).Str("action", action).Msg("api: failed to record audit entry")
		}
	}

	// notifyChanged tells other instances to refetch the tenant's menus.
	notifyChanged := func(ctx context.Context, tenantID *uuid.UUID) {
		if events == nil {
			return
		}
		id := uuid.Nil
		if tenantID != nil {
			id = *tenantID
		}
		if err := events.Publish(ctx, redis.MenuChangedChannel(id), []byte(`{"reason":"menus_changed"}`)); err != nil {
			log.Warn().Err(err).Str("tenant_id", id.String()).Msg("api: failed to publish menu change")
		}
	}

	huma.Register(api, huma.Operation{
		OperationID: "create-menu",
		Method:      http.MethodPost,
		Path:        "/menus",
		Summary:     "Create a menu entry",
		Tags:        []string{"Menus"},
	}, func(ctx context.Context, input *CreateMenuInput) (*CreateMenuOutput, error) {
		if err := requireLevel(ctx, domain.LevelAdmin); err != nil {
			return nil, err
		}

		tenantID, _, err := resolveTenant(ctx, input.TenantSlug)
		if err != nil {
			return nil, err
		}

		entry, err := input.Body.toEntry(tenantID)
		if err != nil {
			return nil, huma.Error422UnprocessableEntity(err.Error())
		}

		if err := store.Menus().Create(ctx, entry); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				return nil, huma.Error409Conflict("menu entry with this name already exists in that location")
			}
			return nil, huma.Error500InternalServerError("failed to create menu entry", err)
		}

		notifyChanged(ctx, tenantID)
		return &CreateMenuOutput{Body: entry}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-menus",
		Method:      http.MethodGet,
		Path:        "/menus",
		Summary:     "List menu entries for administration",
		Tags:        []string{"Menus"},
	}, func(ctx context.Context, input *ListMenusInput) (*ListMenusOutput, error) {
		if err := requireLevel(ctx, domain.LevelAdmin); err != nil {
			return nil, err
		}

		tenantID, _, err := resolveTenant(ctx, input.TenantSlug)
		if err != nil {
			return nil, err
		}

		filter := domain.MenuFilter{
			TenantID:        tenantID,
			ActiveOnly:      !input.IncludeInactive,
			OrderByLocation: true,
		}
		if input.Location != "" {
			loc := domain.MenuLocation(input.Location)
			if !loc.Valid() {
				return nil, huma.Error422UnprocessableEntity("unknown menu location")
			}
			filter.Location = &loc
		}

		entries, err := store.Menus().FindMany(ctx, filter)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list menu entries", err)
		}

		return &ListMenusOutput{Body: entries}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-menu",
		Method:      http.MethodGet,
		Path:        "/menus/{id}",
		Summary:     "Get a menu entry",
		Tags:        []string{"Menus"},
	}, func(ctx context.Context, input *GetMenuInput) (*GetMenuOutput, error) {
		if err := requireLevel(ctx, domain.LevelAdmin); err != nil {
			return nil, err
		}

		id, err := uuidFromPath(input.ID, "menu id")
		if err != nil {
			return nil, err
		}

		entry, err := store.Menus().GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("menu entry not found")
			}
			return nil, huma.Error500InternalServerError("failed to load menu entry", err)
		}

		return &GetMenuOutput{Body: entry}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-menu",
		Method:      http.MethodPatch,
		Path:        "/menus/{id}",
		Summary:     "Update a menu entry",
		Tags:        []string{"Menus"},
	}, func(ctx context.Context, input *UpdateMenuInput) (*UpdateMenuOutput, error) {
		if err := requireLevel(ctx, domain.LevelAdmin); err != nil {
			return nil, err
		}

		id, err := uuidFromPath(input.ID, "menu id")
		if err != nil {
			return nil, err
		}

		entry, err := store.Menus().GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("menu entry not found")
			}
			return nil, huma.Error500InternalServerError("failed to load menu entry", err)
		}

		b := input.Body
		if b.Label != nil {
			entry.Label = *b.Label
		}
		if b.Category != nil {
			entry.Category = *b.Category
		}
		if b.Position != nil {
			entry.Position = *b.Position
		}
		if b.Path != nil {
			entry.Path = *b.Path
		}
		if b.URL != nil {
			entry.URL = *b.URL
		}
		if b.Component != nil {
			entry.Component = *b.Component
		}
		if b.Target != nil {
			entry.Target = *b.Target
		}
		if b.IsActive != nil {
			entry.IsActive = *b.IsActive
		}
		if b.IsPublic != nil {
			entry.IsPublic = *b.IsPublic
		}
		if b.Icon != nil {
			entry.Icon = *b.Icon
		}
		if b.CSSClass != nil {
			entry.CSSClass = *b.CSSClass
		}
		if b.CSSStyle != nil {
			entry.CSSStyle = *b.CSSStyle
		}
		if b.Attributes != nil {
			entry.Attributes = b.Attributes
		}
		if b.Metadata != nil {
			entry.Metadata = b.Metadata
		}
		if b.Permissions != nil {
			entry.Permissions = b.Permissions
		}
		if b.ParentID != nil {
			if *b.ParentID == "" {
				entry.ParentID = nil
			} else {
				pid, perr := uuid.Parse(*b.ParentID)
				if perr != nil {
					return nil, huma.Error422UnprocessableEntity("invalid parent id")
				}
				entry.ParentID = &pid
			}
		}
		entry.UpdatedAt = time.Now()

		if err := entry.Validate(); err != nil {
			return nil, huma.Error422UnprocessableEntity(err.Error())
		}
		entry.ApplyDefaults()

		if err := store.Menus().Update(ctx, entry); err != nil {
			return nil, huma.Error500InternalServerError("failed to update menu entry", err)
		}

		notifyChanged(ctx, entry.TenantID)
		return &UpdateMenuOutput{Body: entry}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-menu",
		Method:      http.MethodDelete,
		Path:        "/menus/{id}",
		Summary:     "Delete a menu entry",
		Tags:        []string{"Menus"},
	}, func(ctx context.Context, input *DeleteMenuInput) (*DeleteMenuOutput, error) {
		if err := requireLevel(ctx, domain.LevelAdmin); err != nil {
			return nil, err
		}

		id, err := uuidFromPath(input.ID, "menu id")
		if err != nil {
			return nil, err
		}

		entry, err := store.Menus().GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("menu entry not found")
			}
			return nil, huma.Error500InternalServerError("failed to load menu entry", err)
		}

		if err := store.Menus().Delete(ctx, id); err != nil {
			return nil, huma.Error500InternalServerError("failed to delete menu entry", err)
		}

		notifyChanged(ctx, entry.TenantID)

		out := &DeleteMenuOutput{}
		out.Body.Deleted = true
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "import-menus",
		Method:      http.MethodPost,
		Path:        "/menus/import",
		Summary:     "Bulk-import menu entries, skipping duplicates",
		Description: "Entries whose (tenant, name, location) key already exists are skipped rather than overwritten, so imports are safe to re-run.",
		Tags:        []string{"Menus"},
	}, func(ctx context.Context, input *ImportMenusInput) (*ImportMenusOutput, error) {
		if err := requireLevel(ctx, domain.LevelAdmin); err != nil {
			return nil, err
		}

		tenantID, _, err := resolveTenant(ctx, input.TenantSlug)
		if err != nil {
			return nil, err
		}

		entries := make([]*domain.MenuEntry, 0, len(input.Body.Entries))
		for i := range input.Body.Entries {
			entry, err := input.Body.Entries[i].toEntry(tenantID)
			if err != nil {
				return nil, huma.Error422UnprocessableEntity(err.Error())
			}
			entries = append(entries, entry)
		}

		inserted, err := store.Menus().CreateMany(ctx, entries)
		if err != nil {
			return nil, huma.Error500InternalServerError("import failed", err)
		}

		audit(ctx, tenantID, "menu.import", map[string]any{
			"requested": len(entries),
			"imported":  inserted,
		})
		notifyChanged(ctx, tenantID)

		out := &ImportMenusOutput{}
		out.Body.Imported = inserted
		out.Body.Skipped = int64(len(entries)) - inserted
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "clear-tenant-menus",
		Method:      http.MethodDelete,
		Path:        "/menus/tenant/{tenantSlug}",
		Summary:     "Delete every menu entry scoped to a tenant",
		Tags:        []string{"Menus"},
	}, func(ctx context.Context, input *ClearTenantMenusInput) (*ClearTenantMenusOutput, error) {
		if err := requireLevel(ctx, domain.LevelSuperAdmin); err != nil {
			return nil, err
		}

		tenantID, _, err := resolveTenant(ctx, input.TenantSlug)
		if err != nil {
			return nil, err
		}
		if tenantID == nil {
			return nil, huma.Error422UnprocessableEntity("tenant slug is required")
		}

		deleted, err := store.Menus().DeleteByTenant(ctx, *tenantID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to clear tenant menus", err)
		}

		audit(ctx, tenantID, "menu.clear", map[string]any{"deleted": deleted})
		notifyChanged(ctx, tenantID)

		out := &ClearTenantMenusOutput{}
		out.Body.Deleted = deleted
		return out, nil
	})
}
