package nav

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/tessera-labs/tessera/internal/domain"
)

// Durable client record keys. The record is the server-side counterpart of
// the browser's persisted session state and survives reconnects.
const (
	StateKeyCurrentTenant = "currentTenant"
	StateKeyUser          = "user"
	StateKeyAccessToken   = "accessToken"
	StateKeyRefreshToken  = "refreshToken"
)

// ClientState is the durable per-session key/value record. Implementations
// are expected to fail soft: a Get that cannot reach the backing store
// reports the key as absent.
type ClientState interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
	Delete(key string)
}

// MemoryState is an in-process ClientState, used in tests and for sessions
// that opted out of durable storage.
type MemoryState struct {
	mu sync.RWMutex
	m  map[string][]byte
}

func NewMemoryState() *MemoryState {
	return &MemoryState{m: make(map[string][]byte)}
}

func (s *MemoryState) Get(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[key]
	return v, ok
}

func (s *MemoryState) Set(key string, value []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = value
}

func (s *MemoryState) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
}

// ContextResolver determines the current tenant for one session. It prefers
// the in-memory selection made during the session and falls back to the
// durable record. It is the single writer of both; everyone else only reads.
type ContextResolver struct {
	mu       sync.RWMutex
	current  *domain.Tenant
	state    ClientState
	notifier *Notifier
}

// NewContextResolver creates a resolver over the given durable state. The
// notifier receives every mutation; it must not be nil.
func NewContextResolver(state ClientState, notifier *Notifier) *ContextResolver {
	return &ContextResolver{state: state, notifier: notifier}
}

// Resolve returns the current tenant, or nil when no tenant is selected. A
// malformed durable record is discarded and treated as absent; Resolve never
// panics and never returns an error.
func (r *ContextResolver) Resolve() *domain.Tenant {
	r.mu.RLock()
	current := r.current
	r.mu.RUnlock()
	if current != nil {
		return current
	}

	raw, ok := r.state.Get(StateKeyCurrentTenant)
	if !ok {
		return nil
	}

	var t domain.Tenant
	if err := json.Unmarshal(raw, &t); err != nil {
		log.Debug().Err(err).Msg("nav: discarding malformed tenant record")
		r.state.Delete(StateKeyCurrentTenant)
		return nil
	}

	return &t
}

// SetCurrent selects t for this session, persists it durably, and notifies
// subscribers synchronously.
func (r *ContextResolver) SetCurrent(t *domain.Tenant) {
	r.mu.Lock()
	r.current = t
	r.mu.Unlock()

	raw, err := json.Marshal(t)
	if err != nil {
		log.Warn().Err(err).Str("tenant", t.Slug).Msg("nav: failed to persist tenant record")
	} else {
		r.state.Set(StateKeyCurrentTenant, raw)
	}

	r.notifier.Publish(t)
}

// Clear removes the in-memory selection and the whole durable session record
// (logout path), then notifies subscribers with a nil tenant.
func (r *ContextResolver) Clear() {
	r.mu.Lock()
	r.current = nil
	r.mu.Unlock()

	r.state.Delete(StateKeyCurrentTenant)
	r.state.Delete(StateKeyUser)
	r.state.Delete(StateKeyAccessToken)
	r.state.Delete(StateKeyRefreshToken)

	r.notifier.Publish(nil)
}

// durableSlug reads the tenant slug straight from the durable record,
// bypassing the in-memory slot. The route guard uses it as a fallback when a
// live tenant lookup fails mid-check.
func (r *ContextResolver) durableSlug() string {
	raw, ok := r.state.Get(StateKeyCurrentTenant)
	if !ok {
		return ""
	}
	var t domain.Tenant
	if err := json.Unmarshal(raw, &t); err != nil {
		return ""
	}
	return t.Slug
}
