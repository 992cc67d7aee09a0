// Package nav implements tenant-scoped menu resolution and route guarding:
// the tenant context resolver, the menu resolution service, the route guard,
// and the tenant-switch notifier that ties them together.
package nav

import (
	"sync"

	"github.com/tessera-labs/tessera/internal/domain"
)

// SwitchFunc receives the new tenant context on a switch. A nil tenant means
// the context was cleared (logout).
type SwitchFunc func(t *domain.Tenant)

// Notifier is an in-process tenant-switch channel. Delivery is synchronous,
// to all currently registered observers, in registration order. There is no
// persistence or replay: observers registered after an event never see it.
type Notifier struct {
	mu     sync.Mutex
	nextID int
	order  []int
	subs   map[int]SwitchFunc
}

func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[int]SwitchFunc)}
}

// Subscribe registers fn and returns a function that removes it again.
func (n *Notifier) Subscribe(fn SwitchFunc) (unsubscribe func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++
	n.order = append(n.order, id)
	n.subs[id] = fn

	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.subs, id)
	}
}

// Publish delivers t to every current subscriber. Subscribers run on the
// caller's goroutine; events are delivered in the order they were published.
func (n *Notifier) Publish(t *domain.Tenant) {
	n.mu.Lock()
	fns := make([]SwitchFunc, 0, len(n.subs))
	for _, id := range n.order {
		if fn, ok := n.subs[id]; ok {
			fns = append(fns, fn)
		}
	}
	n.mu.Unlock()

	for _, fn := range fns {
		fn(t)
	}
}
