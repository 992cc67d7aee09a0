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
)

// MembershipView is a membership joined with its tenant for switcher UIs.
type MembershipView struct {
	Tenant    *domain.Tenant `json:"tenant"`
	Role      string         `json:"role"`
	Priority  int            `json:"priority"`
	IsDefault bool           `json:"is_default"`
}

type ListMyMembershipsInput struct{}

type ListMyMembershipsOutput struct {
	Body []*MembershipView
}

type GrantMembershipInput struct {
	Body struct {
		UserID     string `json:"user_id" format:"uuid" doc:"User to grant access to"`
		TenantSlug string `json:"tenant_slug" minLength:"1" maxLength:"63" doc:"Tenant slug"`
		Role       string `json:"role" enum:"super_admin,admin,manager,user,guest" doc:"Role within the tenant"`
		IsDefault  bool   `json:"is_default,omitempty" doc:"Make this the user's default tenant"`
	}
}

type GrantMembershipOutput struct {
	Body *domain.Membership
}

type RevokeMembershipInput struct {
	TenantSlug string `path:"tenantSlug" maxLength:"63" doc:"Tenant slug"`
	UserID     string `path:"userID" format:"uuid" doc:"User ID"`
}

type RevokeMembershipOutput struct {
	Body struct {
		Revoked bool `json:"revoked"`
	}
}

type BackfillPrioritiesInput struct{}

type BackfillPrioritiesOutput struct {
	Body struct {
		Updated int64 `json:"updated" doc:"Number of memberships rewritten"`
	}
}

func RegisterMembershipRoutes(api huma.API, store DataStore) {
	huma.Register(api, huma.Operation{
		OperationID: "list-my-memberships",
		Method:      http.MethodGet,
		Path:        "/memberships",
		Summary:     "List the caller's tenant memberships",
		Tags:        []string{"Memberships"},
	}, func(ctx context.Context, _ *ListMyMembershipsInput) (*ListMyMembershipsOutput, error) {
		userID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("authentication required")
		}

		memberships, err := store.Memberships().ListByUser(ctx, userID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list memberships", err)
		}

		views := make([]*MembershipView, 0, len(memberships))
		for _, m := range memberships {
			tenant, err := store.Tenants().GetByID(ctx, m.TenantID)
			if err != nil {
				// A membership pointing at a deleted tenant is skipped,
				// not an error for the whole listing.
				continue
			}
			views = append(views, &MembershipView{
				Tenant:    tenant,
				Role:      m.Role,
				Priority:  m.Priority,
				IsDefault: m.IsDefault,
			})
		}

		return &ListMyMembershipsOutput{Body: views}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "grant-membership",
		Method:      http.MethodPost,
		Path:        "/memberships",
		Summary:     "Grant a user access to a tenant",
		Tags:        []string{"Memberships"},
	}, func(ctx context.Context, input *GrantMembershipInput) (*GrantMembershipOutput, error) {
		if err := requireLevel(ctx, domain.LevelAdmin); err != nil {
			return nil, err
		}

		userID, err := uuidFromPath(input.Body.UserID, "user id")
		if err != nil {
			return nil, err
		}

		if _, err := store.Users().GetByID(ctx, userID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("user not found")
			}
			return nil, huma.Error500InternalServerError("failed to look up user", err)
		}

		tenant, err := store.Tenants().GetBySlug(ctx, input.Body.TenantSlug)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("tenant not found")
			}
			return nil, huma.Error500InternalServerError("failed to look up tenant", err)
		}

		m := &domain.Membership{
			ID:        uuid.New(),
			UserID:    userID,
			TenantID:  tenant.ID,
			Role:      input.Body.Role,
			Priority:  domain.RolePriority(input.Body.Role),
			IsDefault: input.Body.IsDefault,
			CreatedAt: time.Now(),
		}

		if err := store.Memberships().Create(ctx, m); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				return nil, huma.Error409Conflict("membership already exists")
			}
			return nil, huma.Error500InternalServerError("failed to grant membership", err)
		}

		return &GrantMembershipOutput{Body: m}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "revoke-membership",
		Method:      http.MethodDelete,
		Path:        "/memberships/{tenantSlug}/{userID}",
		Summary:     "Revoke a user's access to a tenant",
		Tags:        []string{"Memberships"},
	}, func(ctx context.Context, input *RevokeMembershipInput) (*RevokeMembershipOutput, error) {
		if err := requireLevel(ctx, domain.LevelAdmin); err != nil {
			return nil, err
		}

		userID, err := uuidFromPath(input.UserID, "user id")
		if err != nil {
			return nil, err
		}

		tenant, err := store.Tenants().GetBySlug(ctx, input.TenantSlug)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("tenant not found")
			}
			return nil, huma.Error500InternalServerError("failed to look up tenant", err)
		}

		if err := store.Memberships().Delete(ctx, userID, tenant.ID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("membership not found")
			}
			return nil, huma.Error500InternalServerError("failed to revoke membership", err)
		}

		out := &RevokeMembershipOutput{}
		out.Body.Revoked = true
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "backfill-membership-priorities",
		Method:      http.MethodPost,
		Path:        "/memberships/backfill-priorities",
		Summary:     "Rewrite all membership priorities from the role mapping",
		Description: "One-shot maintenance operation for memberships created before priorities were recorded.",
		Tags:        []string{"Memberships"},
	}, func(ctx context.Context, _ *BackfillPrioritiesInput) (*BackfillPrioritiesOutput, error) {
		if err := requireLevel(ctx, domain.LevelSuperAdmin); err != nil {
			return nil, err
		}

		updated, err := store.Memberships().BackfillPriorities(ctx)
		if err != nil {
			return nil, huma.Error500InternalServerError("backfill failed", err)
		}

		actorID, _ := middleware.UserIDFromContext(ctx)
		entry := &domain.AuditEntry{
			ID:        uuid.New(),
			ActorID:   actorID,
			Action:    "membership.backfill",
			Resource:  "membership",
			Details:   map[string]any{"updated": updated},
			CreatedAt: time.Now(),
		}
		if err := store.Audit().Record(ctx, entry); err != nil {
			log.Warn().Err(err).Msg("api: failed to record audit entry")
		}

		out := &BackfillPrioritiesOutput{}
		out.Body.Updated = updated
		return out, nil
	})
}
