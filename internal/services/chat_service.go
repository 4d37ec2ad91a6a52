package services

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/Webizinnovation/serveEz-sub003/internal/chatlist"
	"github.com/Webizinnovation/serveEz-sub003/internal/models"
)

type roomMembership interface {
	IsParticipant(ctx context.Context, roomID, participantID uuid.UUID, role models.ParticipantRole) (bool, error)
}

// ChatService is the request-facing side of the mounted chat lists.
type ChatService struct {
	sessions *SessionManager
	rooms    roomMembership
}

func NewChatService(sessions *SessionManager, rooms roomMembership) *ChatService {
	return &ChatService{sessions: sessions, rooms: rooms}
}

func (s *ChatService) Mount(ctx context.Context, actorID uuid.UUID, role models.ParticipantRole) (chatlist.Snapshot, error) {
	syncer, err := s.sessions.Mount(ctx, actorID, role)
	if err != nil {
		return chatlist.Snapshot{}, err
	}
	return syncer.Snapshot(chatlist.TabAll), nil
}

// Attach mounts the chat list for a long-lived connection. The returned
// release func undoes exactly this mount and is safe to call after a logout.
func (s *ChatService) Attach(ctx context.Context, actorID uuid.UUID, role models.ParticipantRole) (chatlist.Snapshot, func(), error) {
	syncer, err := s.sessions.Mount(ctx, actorID, role)
	if err != nil {
		return chatlist.Snapshot{}, nil, err
	}
	var once sync.Once
	release := func() {
		once.Do(func() { s.sessions.Release(actorID, role, syncer) })
	}
	return syncer.Snapshot(chatlist.TabAll), release, nil
}

func (s *ChatService) Unmount(actorID uuid.UUID, role models.ParticipantRole) {
	s.sessions.Unmount(actorID, role)
}

func (s *ChatService) ListChats(actorID uuid.UUID, role models.ParticipantRole, tab chatlist.Tab) (chatlist.Snapshot, error) {
	syncer, err := s.sessions.Get(actorID, role)
	if err != nil {
		return chatlist.Snapshot{}, err
	}
	return syncer.Snapshot(tab), nil
}

func (s *ChatService) Refresh(ctx context.Context, actorID uuid.UUID, role models.ParticipantRole) (chatlist.Snapshot, error) {
	syncer, err := s.sessions.Get(actorID, role)
	if err != nil {
		return chatlist.Snapshot{}, err
	}
	syncer.Refresh(ctx)
	return syncer.Snapshot(chatlist.TabAll), nil
}

func (s *ChatService) OpenRoom(ctx context.Context, actorID uuid.UUID, role models.ParticipantRole, roomID uuid.UUID) error {
	syncer, err := s.authorizedSync(ctx, actorID, role, roomID)
	if err != nil {
		return err
	}
	syncer.OpenRoom(roomID)
	return nil
}

func (s *ChatService) MarkRead(ctx context.Context, actorID uuid.UUID, role models.ParticipantRole, roomID uuid.UUID) error {
	syncer, err := s.authorizedSync(ctx, actorID, role, roomID)
	if err != nil {
		return err
	}
	syncer.MarkRead(ctx, roomID)
	return nil
}

// SetAppState forwards a foreground/background transition to every mounted
// chat list of the identity.
func (s *ChatService) SetAppState(actorID uuid.UUID, state chatlist.AppState) error {
	switch state {
	case chatlist.AppActive, chatlist.AppBackground, chatlist.AppInactive:
	default:
		return ErrInvalidInput
	}

	mounted := false
	for _, role := range []models.ParticipantRole{models.RoleUser, models.RoleProvider} {
		syncer, err := s.sessions.Get(actorID, role)
		if errors.Is(err, ErrNotMounted) {
			continue
		}
		mounted = true
		syncer.OnAppStateChange(state)
	}
	if !mounted {
		return ErrNotMounted
	}
	return nil
}

func (s *ChatService) UnreadCounts(actorID uuid.UUID) models.UnreadCounts {
	return s.sessions.Store(actorID).Counts()
}

func (s *ChatService) RefreshUnreadCounts(ctx context.Context, actorID uuid.UUID, role models.ParticipantRole) (models.UnreadCounts, error) {
	if !role.Valid() {
		return models.UnreadCounts{}, ErrInvalidInput
	}
	store := s.sessions.Store(actorID)
	if err := store.RefreshUnreadCounts(ctx, role, actorID); err != nil {
		return models.UnreadCounts{}, err
	}
	return store.Counts(), nil
}

func (s *ChatService) Logout(actorID uuid.UUID) {
	s.sessions.Logout(actorID)
}

func (s *ChatService) authorizedSync(
	ctx context.Context,
	actorID uuid.UUID,
	role models.ParticipantRole,
	roomID uuid.UUID,
) (*chatlist.Synchronizer, error) {
	if roomID == uuid.Nil {
		return nil, ErrInvalidInput
	}
	syncer, err := s.sessions.Get(actorID, role)
	if err != nil {
		return nil, err
	}

	ok, err := s.rooms.IsParticipant(ctx, roomID, actorID, role)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrForbidden
	}
	return syncer, nil
}
