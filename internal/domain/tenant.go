package domain

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// TenantType classifies a tenant for plan/feature gating.
type TenantType string

const (
	TenantTypeCore     TenantType = "core"
	TenantTypeBusiness TenantType = "business"
	TenantTypeTrial    TenantType = "trial"
)

// slugPattern mirrors the API-level slug constraint: lowercase alphanumeric
// segments separated by single hyphens.
var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Tenant is an isolated customer context. The slug is unique and is the sole
// key used to build tenant-prefixed paths ("/{slug}/...").
type Tenant struct {
	ID           uuid.UUID      `json:"id"`
	Name         string         `json:"name"`
	Slug         string         `json:"slug"`
	Type         TenantType     `json:"type"`
	PrimaryColor string         `json:"primary_color,omitempty"`
	Settings     map[string]any `json:"settings,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// NewTenant creates a Tenant with validated required fields and defaults.
func NewTenant(name, slug string, typ TenantType) (*Tenant, error) {
	if name == "" {
		return nil, errors.New("tenant: name is required")
	}
	if !slugPattern.MatchString(slug) {
		return nil, errors.New("tenant: slug must be lowercase alphanumeric with hyphens")
	}
	if typ == "" {
		typ = TenantTypeBusiness
	}
	now := time.Now()
	return &Tenant{
		ID:        uuid.New(),
		Name:      name,
		Slug:      slug,
		Type:      typ,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// PathPrefix returns the route prefix for this tenant ("/{slug}").
func (t *Tenant) PathPrefix() string {
	return "/" + t.Slug
}

type TenantRepository interface {
	Create(ctx context.Context, t *Tenant) error
	GetByID(ctx context.Context, id uuid.UUID) (*Tenant, error)
	GetBySlug(ctx context.Context, slug string) (*Tenant, error)
	Update(ctx context.Context, t *Tenant) error
	List(ctx context.Context) ([]*Tenant, error)
	ListPaginated(ctx context.Context, limit, offset int) ([]*Tenant, error)
}
