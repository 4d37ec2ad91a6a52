package chatlist

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Webizinnovation/serveEz-sub003/internal/models"
	"github.com/Webizinnovation/serveEz-sub003/internal/realtime"
	"github.com/Webizinnovation/serveEz-sub003/internal/unread"
)

const (
	DefaultDebounce             = 300 * time.Millisecond
	DefaultForegroundStaleAfter = 30 * time.Second
	DefaultMarkReadDelay        = 200 * time.Millisecond

	roomsTable    = "chat_rooms"
	messagesTable = "chat_messages"
)

const (
	toastTitle         = "Error"
	msgLoadRoomsFailed = "Failed to load chat rooms"
	msgMarkReadFailed  = "Failed to mark messages as read"
)

type Gateway interface {
	ListRooms(ctx context.Context, participantID uuid.UUID, role models.ParticipantRole) ([]models.Room, error)
	ListUnreadMessageIDs(ctx context.Context, roomID uuid.UUID, senderRole models.ParticipantRole) ([]uuid.UUID, error)
	MarkMessagesRead(ctx context.Context, messageIDs []uuid.UUID) error
}

type ChangeFeed interface {
	Subscribe(ctx context.Context, filters ...realtime.Filter) (*realtime.Subscription, error)
}

type Notification struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

type Notifier interface {
	Notify(identityID uuid.UUID, notification Notification)
}

type Navigator interface {
	NavigateToRoom(identityID uuid.UUID, role models.ParticipantRole, roomID uuid.UUID)
}

type AppState string

const (
	AppActive     AppState = "active"
	AppBackground AppState = "background"
	AppInactive   AppState = "inactive"
)

type Options struct {
	Debounce             time.Duration
	ForegroundStaleAfter time.Duration
	MarkReadDelay        time.Duration
	Location             *time.Location
	Now                  func() time.Time
	Logger               *zap.Logger
	Notifier             Notifier
	Navigator            Navigator
}

func (o Options) withDefaults() Options {
	if o.Debounce <= 0 {
		o.Debounce = DefaultDebounce
	}
	if o.ForegroundStaleAfter <= 0 {
		o.ForegroundStaleAfter = DefaultForegroundStaleAfter
	}
	if o.MarkReadDelay <= 0 {
		o.MarkReadDelay = DefaultMarkReadDelay
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

type subscriptionState int

const (
	subIdle subscriptionState = iota
	subSubscribed
	subResubscribing
)

func (s subscriptionState) String() string {
	switch s {
	case subSubscribed:
		return "subscribed"
	case subResubscribing:
		return "resubscribing"
	default:
		return "idle"
	}
}

// Snapshot is what a chat list view renders.
type Snapshot struct {
	Role        models.ParticipantRole `json:"role"`
	Entries     []models.ChatListEntry `json:"entries"`
	Loading     bool                   `json:"loading"`
	Refreshing  bool                   `json:"refreshing"`
	UnreadTotal int                    `json:"unread_total"`
}

// Synchronizer keeps one role's chat list for one identity consistent with
// the gateway. Remote failures never escape: they are logged, reported to
// the Notifier and leave the last good list in place.
type Synchronizer struct {
	role       Role
	identityID uuid.UUID
	gateway    Gateway
	feed       ChangeFeed
	store      *unread.Store
	opts       Options
	log        *zap.Logger

	// life scopes subscriptions; work runs fetches and mark-read calls,
	// which are allowed to finish after Close.
	life   context.Context
	cancel context.CancelFunc
	work   context.Context

	fetching atomic.Bool
	debounce *debouncer

	mu           sync.Mutex
	entries      []models.ChatListEntry
	aggregate    int
	loading      bool
	refreshing   bool
	lastFetch    time.Time
	appState     AppState
	closed       bool
	pendingReads map[uuid.UUID]*time.Timer
	listeners    map[int]func()
	nextListener int

	subMu    sync.Mutex
	subState subscriptionState
	subIDs   []string
	sub      *realtime.Subscription
}

func NewSynchronizer(
	parent context.Context,
	role Role,
	identityID uuid.UUID,
	gateway Gateway,
	feed ChangeFeed,
	store *unread.Store,
	opts Options,
) *Synchronizer {
	opts = opts.withDefaults()
	life, cancel := context.WithCancel(parent)

	return &Synchronizer{
		role:       role,
		identityID: identityID,
		gateway:    gateway,
		feed:       feed,
		store:      store,
		opts:       opts,
		log: opts.Logger.With(
			zap.String("role", string(role.Self)),
			zap.String("identity_id", identityID.String()),
		),
		life:         life,
		cancel:       cancel,
		work:         context.WithoutCancel(life),
		debounce:     newDebouncer(opts.Debounce),
		appState:     AppActive,
		pendingReads: make(map[uuid.UUID]*time.Timer),
		listeners:    make(map[int]func()),
	}
}

func (s *Synchronizer) Role() Role {
	return s.role
}

func (s *Synchronizer) IdentityID() uuid.UUID {
	return s.identityID
}

// Start performs the initial fetch and opens the change subscription.
func (s *Synchronizer) Start(ctx context.Context) {
	s.Fetch(ctx)

	s.subMu.Lock()
	idle := s.subState == subIdle
	s.subMu.Unlock()
	if idle {
		s.syncSubscription(s.roomIDs())
	}
}

// Fetch reloads the list. A call made while another fetch is in flight is dropped.
func (s *Synchronizer) Fetch(ctx context.Context) {
	s.fetch(ctx, false, true)
}

// FetchDetached reloads the list and the role's unread slot without opening
// the change subscription.
func (s *Synchronizer) FetchDetached(ctx context.Context) {
	s.fetch(ctx, false, false)
}

// Refresh is the pull-to-refresh path; change events are ignored while it runs.
func (s *Synchronizer) Refresh(ctx context.Context) {
	s.fetch(ctx, true, true)
}

// DebouncedFetch schedules a fetch after the quiescence delay, restarting
// the delay on every call.
func (s *Synchronizer) DebouncedFetch() {
	s.debounce.Trigger(func() {
		s.Fetch(s.work)
	})
}

func (s *Synchronizer) fetch(ctx context.Context, manual, subscribe bool) {
	if s.identityID == uuid.Nil {
		return
	}
	if !s.fetching.CompareAndSwap(false, true) {
		return
	}
	defer s.fetching.Store(false)

	s.setFlags(!manual, manual)
	defer s.setFlags(false, false)

	rooms, err := s.gateway.ListRooms(ctx, s.identityID, s.role.Self)
	if err != nil {
		s.fail(msgLoadRoomsFailed, err)
		return
	}

	now := s.opts.Now()
	entries, total := Derive(rooms, s.role, now, s.opts.Location)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.entries = entries
	s.aggregate = total
	s.lastFetch = now
	s.mu.Unlock()

	s.store.Set(s.role.Self, total)
	s.log.Debug("chat list fetched", zap.Int("rooms", len(entries)), zap.Int("unread", total))

	if subscribe {
		s.syncSubscription(entryIDs(entries))
	}
	s.emit()
}

func (s *Synchronizer) setFlags(loading, refreshing bool) {
	s.mu.Lock()
	changed := s.loading != loading || s.refreshing != refreshing
	s.loading = loading
	s.refreshing = refreshing
	closed := s.closed
	s.mu.Unlock()

	if changed && !closed {
		s.emit()
	}
}

// syncSubscription reopens the change subscription when the known room id
// set differs from the one the current subscription filters on.
func (s *Synchronizer) syncSubscription(ids []string) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	if s.life.Err() != nil {
		return
	}
	if s.subState == subSubscribed && slices.Equal(s.subIDs, ids) {
		return
	}

	s.subState = subResubscribing
	if s.sub != nil {
		_ = s.sub.Close()
		s.sub = nil
	}

	sub, err := s.feed.Subscribe(s.life,
		realtime.Eq(roomsTable, s.role.RoomColumn, s.identityID.String()),
		realtime.In(messagesTable, "room_id", ids),
	)
	if err != nil {
		s.subState = subIdle
		s.subIDs = nil
		s.log.Error("chat list subscribe failed", zap.Error(err))
		return
	}

	s.sub = sub
	s.subIDs = ids
	s.subState = subSubscribed
	s.log.Debug("chat list subscription", zap.Stringer("state", s.subState), zap.Int("rooms", len(ids)))
	go s.consume(sub)
}

func (s *Synchronizer) consume(sub *realtime.Subscription) {
	for event := range sub.Events() {
		if s.Refreshing() {
			continue
		}
		s.log.Debug("chat change received",
			zap.String("table", event.Table),
			zap.String("type", string(event.Type)),
		)
		s.DebouncedFetch()
	}
}

// OnAppStateChange refetches when the app returns to the foreground and the
// last successful fetch is older than the staleness threshold.
func (s *Synchronizer) OnAppStateChange(next AppState) {
	s.mu.Lock()
	prev := s.appState
	s.appState = next
	lastFetch := s.lastFetch
	s.mu.Unlock()

	if next != AppActive || prev == AppActive {
		return
	}
	if s.opts.Now().Sub(lastFetch) > s.opts.ForegroundStaleAfter {
		s.DebouncedFetch()
	}
}

// OpenRoom zeroes the room's badge before any network round-trip, navigates
// to the room and marks its messages read shortly after. A failed mark-read
// is not rolled back; the next fetch reconciles the count.
func (s *Synchronizer) OpenRoom(roomID uuid.UUID) {
	aggregate, changed := s.zeroRoom(roomID)
	if changed {
		s.store.Set(s.role.Self, aggregate)
		s.emit()
	}

	if s.opts.Navigator != nil {
		s.opts.Navigator.NavigateToRoom(s.identityID, s.role.Self, roomID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if pending, ok := s.pendingReads[roomID]; ok {
		pending.Stop()
	}
	var timer *time.Timer
	timer = time.AfterFunc(s.opts.MarkReadDelay, func() {
		s.mu.Lock()
		if s.pendingReads[roomID] == timer {
			delete(s.pendingReads, roomID)
		}
		s.mu.Unlock()

		s.MarkRead(s.work, roomID)
	})
	s.pendingReads[roomID] = timer
}

// MarkRead marks exactly the counterpart's currently unread messages of the
// room as read. Nothing is written when there are none.
func (s *Synchronizer) MarkRead(ctx context.Context, roomID uuid.UUID) {
	if s.identityID == uuid.Nil {
		return
	}

	ids, err := s.gateway.ListUnreadMessageIDs(ctx, roomID, s.role.Counterpart)
	if err != nil {
		s.fail(msgMarkReadFailed, err, zap.String("room_id", roomID.String()))
		return
	}
	if len(ids) == 0 {
		return
	}

	if err := s.gateway.MarkMessagesRead(ctx, ids); err != nil {
		s.fail(msgMarkReadFailed, err, zap.String("room_id", roomID.String()))
		return
	}

	aggregate, changed := s.zeroRoom(roomID)
	if changed {
		s.store.Set(s.role.Self, aggregate)
		s.emit()
	}
}

// zeroRoom sets the room's local count to zero and subtracts its previous
// count from the last known aggregate, clamped at zero.
func (s *Synchronizer) zeroRoom(roomID uuid.UUID) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return s.aggregate, false
	}

	prior := 0
	for i := range s.entries {
		if s.entries[i].RoomID == roomID {
			prior = s.entries[i].UnreadCount
			s.entries[i].UnreadCount = 0
			break
		}
	}
	if prior == 0 {
		return s.aggregate, false
	}

	s.aggregate = max(0, s.aggregate-prior)
	return s.aggregate, true
}

func (s *Synchronizer) Entries(tab Tab) []models.ChatListEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return FilterEntries(s.entries, tab)
}

func (s *Synchronizer) Snapshot(tab Tab) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Snapshot{
		Role:        s.role.Self,
		Entries:     FilterEntries(s.entries, tab),
		Loading:     s.loading,
		Refreshing:  s.refreshing,
		UnreadTotal: s.aggregate,
	}
}

func (s *Synchronizer) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

func (s *Synchronizer) Refreshing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshing
}

func (s *Synchronizer) LastFetch() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastFetch
}

// OnChange registers fn to run after the list or its flags change.
func (s *Synchronizer) OnChange(fn func()) func() {
	s.mu.Lock()
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Close cancels the pending debounce and mark-read timers and tears down the
// subscription. A fetch already in flight completes but its result is dropped.
func (s *Synchronizer) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	for roomID, timer := range s.pendingReads {
		timer.Stop()
		delete(s.pendingReads, roomID)
	}
	clear(s.listeners)
	s.mu.Unlock()

	s.debounce.Stop()
	s.cancel()

	s.subMu.Lock()
	if s.sub != nil {
		_ = s.sub.Close()
		s.sub = nil
	}
	s.subState = subIdle
	s.subIDs = nil
	s.subMu.Unlock()
}

func (s *Synchronizer) roomIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return entryIDs(s.entries)
}

func (s *Synchronizer) emit() {
	s.mu.Lock()
	listeners := make([]func(), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}

func (s *Synchronizer) fail(message string, err error, fields ...zap.Field) {
	s.log.Error(message, append(fields, zap.Error(err))...)
	if s.opts.Notifier != nil {
		s.opts.Notifier.Notify(s.identityID, Notification{Title: toastTitle, Message: message})
	}
}

func entryIDs(entries []models.ChatListEntry) []string {
	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		ids = append(ids, entry.RoomID.String())
	}
	slices.Sort(ids)
	return ids
}
