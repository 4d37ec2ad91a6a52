package unread

import (
	"sync"

	"github.com/google/uuid"
)

// Registry keeps one Store per authenticated identity for the lifetime of the process.
type Registry struct {
	mu        sync.Mutex
	stores    map[uuid.UUID]*Store
	refresher Refresher
}

func NewRegistry(refresher Refresher) *Registry {
	return &Registry{
		stores:    make(map[uuid.UUID]*Store),
		refresher: refresher,
	}
}

// SetRefresher replaces the refresher used by stores created afterwards
// and by the ones already handed out.
func (r *Registry) SetRefresher(refresher Refresher) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.refresher = refresher
	for _, store := range r.stores {
		store.mu.Lock()
		store.refresher = refresher
		store.mu.Unlock()
	}
}

func (r *Registry) ForIdentity(identityID uuid.UUID) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()

	store, ok := r.stores[identityID]
	if !ok {
		store = NewStore(r.refresher)
		r.stores[identityID] = store
	}
	return store
}

// Drop resets the identity's counters and forgets its store.
func (r *Registry) Drop(identityID uuid.UUID) {
	r.mu.Lock()
	store, ok := r.stores[identityID]
	delete(r.stores, identityID)
	r.mu.Unlock()

	if ok {
		store.Reset()
	}
}
