package nav

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/tessera-labs/tessera/internal/domain"
)

// Session bundles the per-session navigation state: the tenant context
// resolver, its notifier, and a route guard bound to both.
type Session struct {
	UserID   uuid.UUID
	Context  *ContextResolver
	Notifier *Notifier
	Guard    *Guard
}

// StateFactory builds the durable client state for a session.
type StateFactory func(sessionID uuid.UUID) ClientState

// BroadcastFunc forwards a tenant-switch event beyond the process (Redis
// fan-out to WebSocket listeners). payload is the JSON-encoded tenant, or
// "null" on clear.
type BroadcastFunc func(ctx context.Context, sessionID uuid.UUID, payload []byte)

// ManagerConfig carries the guard and resolver settings shared by all
// sessions.
type ManagerConfig struct {
	GuardLocation domain.MenuLocation
	LoginPath     string
	FallbackPath  string
}

// Manager owns one navigation Session per user. Sessions are created lazily
// and shared by every request the user makes against this instance.
type Manager struct {
	resolver *Resolver
	tenants  domain.TenantRepository
	states   StateFactory
	bcast    BroadcastFunc
	cfg      ManagerConfig

	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
}

// NewManager creates a Manager. states must not be nil; bcast may be nil
// when no cross-process fan-out is configured.
func NewManager(resolver *Resolver, tenants domain.TenantRepository, states StateFactory, bcast BroadcastFunc, cfg ManagerConfig) *Manager {
	if cfg.GuardLocation == "" {
		cfg.GuardLocation = domain.LocationSidebar
	}
	if cfg.LoginPath == "" {
		cfg.LoginPath = "/login"
	}
	if cfg.FallbackPath == "" {
		cfg.FallbackPath = "/dashboard"
	}
	return &Manager{
		resolver: resolver,
		tenants:  tenants,
		states:   states,
		bcast:    bcast,
		cfg:      cfg,
		sessions: make(map[uuid.UUID]*Session),
	}
}

// Resolver returns the shared menu resolution service.
func (m *Manager) Resolver() *Resolver { return m.resolver }

// Session returns the navigation session for the user, creating it on first
// use.
func (m *Manager) Session(userID uuid.UUID) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[userID]; ok {
		return s
	}

	notifier := NewNotifier()
	tcr := NewContextResolver(m.states(userID), notifier)
	guard := NewGuard(m.resolver, tcr, m.tenants, notifier, m.cfg.GuardLocation, m.cfg.LoginPath, m.cfg.FallbackPath)

	if m.bcast != nil {
		notifier.Subscribe(func(t *domain.Tenant) {
			payload, err := json.Marshal(t)
			if err != nil {
				log.Warn().Err(err).Msg("nav: failed to encode tenant-switch event")
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			m.bcast(ctx, userID, payload)
		})
	}

	s := &Session{UserID: userID, Context: tcr, Notifier: notifier, Guard: guard}
	m.sessions[userID] = s
	return s
}

// Drop discards the user's session, releasing its subscriptions. Called on
// logout after the context is cleared.
func (m *Manager) Drop(userID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
}
