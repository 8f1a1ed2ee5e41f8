// Package identity implements the session.IdentityProvider backends: local portal accounts and an
// OpenID Connect issuer.
package identity

import (
	"sync"

	"github.com/apoiopedagogico/portal/core/session"
)

// notifier tracks the signed-in identity of a provider and reports its transitions.
type notifier struct {
	emitMu sync.Mutex // orders deliveries

	mu      sync.Mutex
	current *session.Identity
	subs    map[int]func(*session.Identity)
	nextID  int
}

func copyIdentity(id *session.Identity) *session.Identity {
	if id == nil {
		return nil
	}
	cp := *id
	return &cp
}

func (n *notifier) identity() *session.Identity {
	n.mu.Lock()
	defer n.mu.Unlock()
	return copyIdentity(n.current)
}

func (n *notifier) subscribe(fn func(*session.Identity)) func() {
	n.emitMu.Lock()
	defer n.emitMu.Unlock()

	n.mu.Lock()
	if n.subs == nil {
		n.subs = make(map[int]func(*session.Identity))
	}
	id := n.nextID
	n.nextID++
	n.subs[id] = fn
	current := copyIdentity(n.current)
	n.mu.Unlock()

	fn(current)

	return func() {
		n.mu.Lock()
		delete(n.subs, id)
		n.mu.Unlock()
	}
}

// set records id as the current identity and reports it. Signing out twice reports once.
func (n *notifier) set(id *session.Identity) {
	n.emitMu.Lock()
	defer n.emitMu.Unlock()

	n.mu.Lock()
	if id == nil && n.current == nil {
		n.mu.Unlock()
		return
	}
	n.current = copyIdentity(id)
	subs := make([]func(*session.Identity), 0, len(n.subs))
	for _, fn := range n.subs {
		subs = append(subs, fn)
	}
	n.mu.Unlock()

	for _, fn := range subs {
		fn(copyIdentity(id))
	}
}
