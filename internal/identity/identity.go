// Package identity abstracts the authentication collaborator: something
// that knows the current account (or that there is none) and notifies
// listeners when it changes. Core logic takes a Provider instead of
// touching any process-wide auth state, so tests can substitute fakes.
package identity

import "sync"

// Listener receives the account id on every identity change; an empty
// string means "no identity".
type Listener func(accountID string)

// Provider is the read/subscribe surface handed to consumers.
type Provider interface {
	// Current returns the signed-in account id, or "" when signed out.
	Current() string
	// Subscribe registers a listener and returns its cancel func. The
	// listener is immediately called with the current identity so late
	// subscribers do not miss the initial state.
	Subscribe(l Listener) (cancel func())
}

// Broadcaster is the in-process Provider implementation. Set is called
// by the auth service on login/logout; listeners are only notified on an
// actual change, so a token refresh delivering the same account id does
// not re-trigger reconciliation.
//
// Deliveries are serialized: concurrent Set calls take turns, each
// listener sees identity changes in the order they happened, and within
// one change listeners run in subscription order. Listeners must not
// call back into the Broadcaster.
type Broadcaster struct {
	// notifyMu is held across a whole delivery so changes reach
	// listeners one at a time and in order. mu only guards the fields.
	notifyMu sync.Mutex

	mu        sync.Mutex
	current   string
	listeners []registration
	nextID    int
}

type registration struct {
	id int
	fn Listener
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{}
}

func (b *Broadcaster) Current() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

func (b *Broadcaster) Subscribe(l Listener) func() {
	b.notifyMu.Lock()
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.listeners = append(b.listeners, registration{id: id, fn: l})
	current := b.current
	b.mu.Unlock()

	l(current)
	b.notifyMu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, reg := range b.listeners {
			if reg.id == id {
				b.listeners = append(b.listeners[:i:i], b.listeners[i+1:]...)
				return
			}
		}
	}
}

// Set records the new identity and notifies listeners if it changed.
func (b *Broadcaster) Set(accountID string) {
	b.notifyMu.Lock()
	defer b.notifyMu.Unlock()

	b.mu.Lock()
	if b.current == accountID {
		b.mu.Unlock()
		return
	}
	b.current = accountID
	notify := make([]Listener, len(b.listeners))
	for i, reg := range b.listeners {
		notify[i] = reg.fn
	}
	b.mu.Unlock()

	for _, l := range notify {
		l(accountID)
	}
}
