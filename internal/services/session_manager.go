package services

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Webizinnovation/serveEz-sub003/internal/chatlist"
	"github.com/Webizinnovation/serveEz-sub003/internal/models"
	"github.com/Webizinnovation/serveEz-sub003/internal/unread"
)

// Pusher delivers synchronizer output to the identity's connected clients.
type Pusher interface {
	chatlist.Notifier
	chatlist.Navigator
	PushChatList(identityID uuid.UUID, snapshot chatlist.Snapshot)
	PushUnreadCounts(identityID uuid.UUID, counts models.UnreadCounts)
}

type sessionKey struct {
	identityID uuid.UUID
	role       models.ParticipantRole
}

type session struct {
	syncer   *chatlist.Synchronizer
	refs     int
	unlisten func()
}

// SessionManager owns the mounted chat list synchronizers, one per identity
// and role, and the identities' unread-count stores.
type SessionManager struct {
	gateway  chatlist.Gateway
	feed     chatlist.ChangeFeed
	registry *unread.Registry
	pusher   Pusher
	opts     chatlist.Options
	log      *zap.Logger

	mu       sync.Mutex
	sessions map[sessionKey]*session
	watchers map[uuid.UUID]func()
}

func NewSessionManager(
	gateway chatlist.Gateway,
	feed chatlist.ChangeFeed,
	registry *unread.Registry,
	pusher Pusher,
	opts chatlist.Options,
	log *zap.Logger,
) *SessionManager {
	if log == nil {
		log = zap.NewNop()
	}
	opts.Logger = log.Named("chatlist")
	if pusher != nil {
		opts.Notifier = pusher
		opts.Navigator = pusher
	}

	m := &SessionManager{
		gateway:  gateway,
		feed:     feed,
		registry: registry,
		pusher:   pusher,
		opts:     opts,
		log:      log,
		sessions: make(map[sessionKey]*session),
		watchers: make(map[uuid.UUID]func()),
	}
	registry.SetRefresher(m)
	return m
}

// Mount returns the identity's synchronizer for role, starting one when none
// is mounted. Every Mount must be paired with an Unmount.
func (m *SessionManager) Mount(ctx context.Context, identityID uuid.UUID, role models.ParticipantRole) (*chatlist.Synchronizer, error) {
	chatRole, ok := chatlist.RoleFor(role)
	if !ok || identityID == uuid.Nil {
		return nil, ErrInvalidInput
	}

	key := sessionKey{identityID: identityID, role: role}

	m.mu.Lock()
	if existing, ok := m.sessions[key]; ok {
		existing.refs++
		m.mu.Unlock()
		return existing.syncer, nil
	}

	store := m.storeLocked(identityID)
	syncer := chatlist.NewSynchronizer(context.Background(), chatRole, identityID, m.gateway, m.feed, store, m.opts)
	sess := &session{syncer: syncer, refs: 1}
	if m.pusher != nil {
		sess.unlisten = syncer.OnChange(func() {
			m.pusher.PushChatList(identityID, syncer.Snapshot(chatlist.TabAll))
		})
	}
	m.sessions[key] = sess
	m.mu.Unlock()

	m.log.Info("chat list mounted",
		zap.String("identity_id", identityID.String()),
		zap.String("role", string(role)),
	)
	syncer.Start(ctx)
	return syncer, nil
}

// Unmount releases one reference on the identity's current session for role
// and tears the synchronizer down on the last.
func (m *SessionManager) Unmount(identityID uuid.UUID, role models.ParticipantRole) {
	m.release(sessionKey{identityID: identityID, role: role}, nil)
}

// Release is Unmount for a caller holding the synchronizer its Mount
// returned. It is a no-op once that synchronizer has been replaced, so a
// connection outliving a logout cannot release a later session.
func (m *SessionManager) Release(identityID uuid.UUID, role models.ParticipantRole, syncer *chatlist.Synchronizer) {
	if syncer == nil {
		return
	}
	m.release(sessionKey{identityID: identityID, role: role}, syncer)
}

func (m *SessionManager) release(key sessionKey, owner *chatlist.Synchronizer) {
	m.mu.Lock()
	sess, ok := m.sessions[key]
	if !ok || (owner != nil && sess.syncer != owner) {
		m.mu.Unlock()
		return
	}
	sess.refs--
	if sess.refs > 0 {
		m.mu.Unlock()
		return
	}
	delete(m.sessions, key)
	m.mu.Unlock()

	m.closeSession(sess)
	m.log.Info("chat list unmounted",
		zap.String("identity_id", key.identityID.String()),
		zap.String("role", string(key.role)),
	)
}

func (m *SessionManager) Get(identityID uuid.UUID, role models.ParticipantRole) (*chatlist.Synchronizer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[sessionKey{identityID: identityID, role: role}]
	if !ok {
		return nil, ErrNotMounted
	}
	return sess.syncer, nil
}

// Store returns the identity's unread-count store.
func (m *SessionManager) Store(identityID uuid.UUID) *unread.Store {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.storeLocked(identityID)
}

// Logout tears down every synchronizer of the identity and resets its counts.
func (m *SessionManager) Logout(identityID uuid.UUID) {
	m.mu.Lock()
	var closing []*session
	for key, sess := range m.sessions {
		if key.identityID == identityID {
			closing = append(closing, sess)
			delete(m.sessions, key)
		}
	}
	unwatch := m.watchers[identityID]
	delete(m.watchers, identityID)
	m.mu.Unlock()

	for _, sess := range closing {
		m.closeSession(sess)
	}
	if unwatch != nil {
		unwatch()
	}
	m.registry.Drop(identityID)
	if m.pusher != nil {
		m.pusher.PushUnreadCounts(identityID, models.UnreadCounts{})
	}

	m.log.Info("session logged out",
		zap.String("identity_id", identityID.String()),
		zap.Int("closed", len(closing)),
	)
}

// RefreshUnread runs the role's fetch path once. A mounted synchronizer is
// reused; otherwise a short-lived one fetches into the identity's store.
func (m *SessionManager) RefreshUnread(ctx context.Context, role models.ParticipantRole, identityID uuid.UUID) error {
	if syncer, err := m.Get(identityID, role); err == nil {
		syncer.Fetch(ctx)
		return nil
	}

	chatRole, ok := chatlist.RoleFor(role)
	if !ok {
		return ErrInvalidInput
	}

	syncer := chatlist.NewSynchronizer(ctx, chatRole, identityID, m.gateway, m.feed, m.Store(identityID), m.opts)
	defer syncer.Close()
	syncer.FetchDetached(ctx)
	return nil
}

// Close tears down every mounted synchronizer.
func (m *SessionManager) Close() {
	m.mu.Lock()
	sessions := make([]*session, 0, len(m.sessions))
	for key, sess := range m.sessions {
		sessions = append(sessions, sess)
		delete(m.sessions, key)
	}
	watchers := make([]func(), 0, len(m.watchers))
	for id, unwatch := range m.watchers {
		watchers = append(watchers, unwatch)
		delete(m.watchers, id)
	}
	m.mu.Unlock()

	for _, sess := range sessions {
		m.closeSession(sess)
	}
	for _, unwatch := range watchers {
		unwatch()
	}
}

func (m *SessionManager) storeLocked(identityID uuid.UUID) *unread.Store {
	store := m.registry.ForIdentity(identityID)
	if _, ok := m.watchers[identityID]; !ok && m.pusher != nil {
		m.watchers[identityID] = store.Watch(func(counts models.UnreadCounts) {
			m.pusher.PushUnreadCounts(identityID, counts)
		})
	}
	return store
}

func (m *SessionManager) closeSession(sess *session) {
	if sess.unlisten != nil {
		sess.unlisten()
	}
	sess.syncer.Close()
}
