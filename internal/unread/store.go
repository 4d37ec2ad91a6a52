package unread

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/Webizinnovation/serveEz-sub003/internal/models"
)

var ErrNoRefresher = errors.New("unread: no refresher configured")

// Refresher runs the role's chat list fetch once for identityID.
type Refresher interface {
	RefreshUnread(ctx context.Context, role models.ParticipantRole, identityID uuid.UUID) error
}

// Store holds the user-side and provider-side badge counters of one app session.
// Writes are absolute; the last writer wins.
type Store struct {
	mu        sync.Mutex
	counts    models.UnreadCounts
	watchers  map[int]func(models.UnreadCounts)
	nextWatch int
	refresher Refresher
}

func NewStore(refresher Refresher) *Store {
	return &Store{
		watchers:  make(map[int]func(models.UnreadCounts)),
		refresher: refresher,
	}
}

func (s *Store) SetUserUnreadCount(n int) {
	s.Set(models.RoleUser, n)
}

func (s *Store) SetProviderUnreadCount(n int) {
	s.Set(models.RoleProvider, n)
}

// Set overwrites the counter for role. Negative values are stored as zero.
func (s *Store) Set(role models.ParticipantRole, n int) {
	if n < 0 {
		n = 0
	}

	s.mu.Lock()
	switch role {
	case models.RoleUser:
		if s.counts.User == n {
			s.mu.Unlock()
			return
		}
		s.counts.User = n
	case models.RoleProvider:
		if s.counts.Provider == n {
			s.mu.Unlock()
			return
		}
		s.counts.Provider = n
	default:
		s.mu.Unlock()
		return
	}
	snapshot, watchers := s.counts, s.watcherList()
	s.mu.Unlock()

	notify(watchers, snapshot)
}

func (s *Store) Get(role models.ParticipantRole) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if role == models.RoleProvider {
		return s.counts.Provider
	}
	return s.counts.User
}

func (s *Store) Counts() models.UnreadCounts {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts
}

// Reset returns both counters to zero, as on logout.
func (s *Store) Reset() {
	s.mu.Lock()
	if s.counts == (models.UnreadCounts{}) {
		s.mu.Unlock()
		return
	}
	s.counts = models.UnreadCounts{}
	snapshot, watchers := s.counts, s.watcherList()
	s.mu.Unlock()

	notify(watchers, snapshot)
}

// Watch registers fn to receive every counter change. The returned func removes it.
func (s *Store) Watch(fn func(models.UnreadCounts)) func() {
	s.mu.Lock()
	id := s.nextWatch
	s.nextWatch++
	s.watchers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.watchers, id)
		s.mu.Unlock()
	}
}

// RefreshUnreadCounts forces one fetch for role so the badge is populated
// before any chat list view has completed its own first fetch.
func (s *Store) RefreshUnreadCounts(ctx context.Context, role models.ParticipantRole, identityID uuid.UUID) error {
	s.mu.Lock()
	refresher := s.refresher
	s.mu.Unlock()

	if refresher == nil {
		return ErrNoRefresher
	}
	if identityID == uuid.Nil {
		return nil
	}
	return refresher.RefreshUnread(ctx, role, identityID)
}

func (s *Store) watcherList() []func(models.UnreadCounts) {
	list := make([]func(models.UnreadCounts), 0, len(s.watchers))
	for _, fn := range s.watchers {
		list = append(list, fn)
	}
	return list
}

func notify(watchers []func(models.UnreadCounts), counts models.UnreadCounts) {
	for _, fn := range watchers {
		fn(counts)
	}
}
