package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MenuLocation is the UI region a menu entry belongs to.
type MenuLocation string

const (
	LocationHeader  MenuLocation = "header"
	LocationSidebar MenuLocation = "sidebar"
	LocationFooter  MenuLocation = "footer"
	LocationCustom  MenuLocation = "custom"
)

// Valid reports whether the location is one of the known UI regions.
func (l MenuLocation) Valid() bool {
	switch l {
	case LocationHeader, LocationSidebar, LocationFooter, LocationCustom:
		return true
	}
	return false
}

// Common menu categories. Category is free-form grouping; these are the ones
// the seed data uses.
const (
	CategoryDashboard  = "dashboard"
	CategoryManagement = "management"
	CategoryNavigation = "navigation"
)

// TenantPlaceholder is substituted with the tenant slug when a menu path is
// resolved within a tenant context.
const TenantPlaceholder = "{tenant}"

// MenuEntry is a navigation item. Exactly one of Path (internal route
// template, may contain TenantPlaceholder) or URL (external absolute URL) is
// set. TenantID nil means the entry is global and shared across tenants;
// such entries surface in tenant-less contexts only when IsPublic.
type MenuEntry struct {
	ID       uuid.UUID  `json:"id"`
	TenantID *uuid.UUID `json:"tenant_id,omitempty"`
	ParentID *uuid.UUID `json:"parent_id,omitempty"`

	Name     string       `json:"name"`  // human-stable key, unique per (tenant, location)
	Label    string       `json:"label"` // display text
	Location MenuLocation `json:"location"`
	Category string       `json:"category,omitempty"`
	Position int          `json:"position"` // ascending sort key

	Path      string `json:"path,omitempty"`
	URL       string `json:"url,omitempty"`
	Component string `json:"component,omitempty"`
	Target    string `json:"target,omitempty"` // defaults to "_blank" for external URLs

	IsActive bool `json:"is_active"`
	IsPublic bool `json:"is_public"`

	Icon       string         `json:"icon,omitempty"`
	CSSClass   string         `json:"css_class,omitempty"`
	CSSStyle   string         `json:"css_style,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`

	// Permissions the acting user must hold for the entry to be visible.
	// Empty means unrestricted.
	Permissions []Permission `json:"permissions,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsExternal reports whether the entry targets an external URL rather than an
// internal route.
func (e *MenuEntry) IsExternal() bool {
	return e.URL != ""
}

// Validate checks the structural invariants of a menu entry.
func (e *MenuEntry) Validate() error {
	if e.Name == "" {
		return fmt.Errorf("%w: menu entry name is required", ErrInvalid)
	}
	if e.Label == "" {
		return fmt.Errorf("%w: menu entry label is required", ErrInvalid)
	}
	if !e.Location.Valid() {
		return fmt.Errorf("%w: unknown menu location %q", ErrInvalid, e.Location)
	}
	if (e.Path == "") == (e.URL == "") {
		return fmt.Errorf("%w: menu entry needs exactly one of path or url", ErrInvalid)
	}
	if e.ParentID != nil && *e.ParentID == e.ID {
		return fmt.Errorf("%w: menu entry cannot be its own parent", ErrInvalid)
	}
	return nil
}

// NewMenuEntry creates a validated entry with defaults applied.
func NewMenuEntry(tenantID *uuid.UUID, name, label string, location MenuLocation) (*MenuEntry, error) {
	now := time.Now()
	e := &MenuEntry{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Name:      name,
		Label:     label,
		Location:  location,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if name == "" || label == "" || !location.Valid() {
		return nil, e.Validate()
	}
	return e, nil
}

// ApplyDefaults fills derived fields: external URLs open in a new tab unless
// a target was set explicitly.
func (e *MenuEntry) ApplyDefaults() {
	if e.IsExternal() && e.Target == "" {
		e.Target = "_blank"
	}
}

// MenuFilter selects menu entries in the store. A nil TenantID with
// IncludePublic selects global public entries; a non-nil TenantID selects
// that tenant's entries only.
type MenuFilter struct {
	TenantID      *uuid.UUID
	Location      *MenuLocation
	IncludePublic bool
	ActiveOnly    bool

	// OrderByLocation prepends location to the (position, created_at, id)
	// ordering for cross-location listings.
	OrderByLocation bool
}

type MenuRepository interface {
	FindMany(ctx context.Context, filter MenuFilter) ([]*MenuEntry, error)
	Count(ctx context.Context, filter MenuFilter) (int64, error)

	Create(ctx context.Context, e *MenuEntry) error
	GetByID(ctx context.Context, id uuid.UUID) (*MenuEntry, error)
	Update(ctx context.Context, e *MenuEntry) error
	Delete(ctx context.Context, id uuid.UUID) error

	// CreateMany inserts entries in bulk, skipping rows whose
	// (tenant_id, name, location) key already exists. Returns the number of
	// rows actually inserted.
	CreateMany(ctx context.Context, entries []*MenuEntry) (int64, error)

	// DeleteByTenant removes every entry scoped to the tenant. Returns the
	// number of rows deleted.
	DeleteByTenant(ctx context.Context, tenantID uuid.UUID) (int64, error)
}
