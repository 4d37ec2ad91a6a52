package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Webizinnovation/serveEz-sub003/internal/chatlist"
	"github.com/Webizinnovation/serveEz-sub003/internal/models"
)

type stubMembership struct {
	member bool
	err    error
}

func (m stubMembership) IsParticipant(context.Context, uuid.UUID, uuid.UUID, models.ParticipantRole) (bool, error) {
	return m.member, m.err
}

func TestChatServiceRequiresMount(t *testing.T) {
	manager, _ := newTestManager(t, &stubGateway{})
	service := NewChatService(manager, stubMembership{member: true})
	identity := uuid.New()

	_, err := service.ListChats(identity, models.RoleUser, chatlist.TabAll)
	assert.ErrorIs(t, err, ErrNotMounted)

	err = service.OpenRoom(context.Background(), identity, models.RoleUser, uuid.New())
	assert.ErrorIs(t, err, ErrNotMounted)

	err = service.SetAppState(identity, chatlist.AppActive)
	assert.ErrorIs(t, err, ErrNotMounted)
}

func TestChatServiceOpenRoomChecksMembership(t *testing.T) {
	room := unreadRoom(models.RoleProvider, 1)
	gateway := &stubGateway{rooms: map[models.ParticipantRole][]models.Room{models.RoleUser: {room}}}
	manager, _ := newTestManager(t, gateway)
	identity := uuid.New()
	_, err := manager.Mount(context.Background(), identity, models.RoleUser)
	require.NoError(t, err)

	outsider := NewChatService(manager, stubMembership{member: false})
	assert.ErrorIs(t, outsider.OpenRoom(context.Background(), identity, models.RoleUser, room.ID), ErrForbidden)
	assert.Equal(t, 1, manager.Store(identity).Get(models.RoleUser))

	failing := NewChatService(manager, stubMembership{err: errors.New("db down")})
	assert.Error(t, failing.MarkRead(context.Background(), identity, models.RoleUser, room.ID))

	member := NewChatService(manager, stubMembership{member: true})
	assert.ErrorIs(t, member.OpenRoom(context.Background(), identity, models.RoleUser, uuid.Nil), ErrInvalidInput)
	require.NoError(t, member.OpenRoom(context.Background(), identity, models.RoleUser, room.ID))
	assert.Equal(t, 0, member.UnreadCounts(identity).User)
}

func TestChatServiceListChatsFiltersTab(t *testing.T) {
	gateway := &stubGateway{rooms: map[models.ParticipantRole][]models.Room{
		models.RoleUser: {unreadRoom(models.RoleProvider, 1), unreadRoom(models.RoleProvider, 0)},
	}}
	manager, _ := newTestManager(t, gateway)
	service := NewChatService(manager, stubMembership{member: true})
	identity := uuid.New()

	snapshot, err := service.Mount(context.Background(), identity, models.RoleUser)
	require.NoError(t, err)
	assert.Len(t, snapshot.Entries, 2)
	assert.Equal(t, 1, snapshot.UnreadTotal)

	unreadOnly, err := service.ListChats(identity, models.RoleUser, chatlist.TabUnread)
	require.NoError(t, err)
	assert.Len(t, unreadOnly.Entries, 1)

	readOnly, err := service.ListChats(identity, models.RoleUser, chatlist.TabRead)
	require.NoError(t, err)
	assert.Len(t, readOnly.Entries, 1)
}

func TestChatServiceSetAppStateValidates(t *testing.T) {
	manager, _ := newTestManager(t, &stubGateway{})
	service := NewChatService(manager, stubMembership{member: true})
	identity := uuid.New()
	_, err := service.Mount(context.Background(), identity, models.RoleProvider)
	require.NoError(t, err)

	assert.ErrorIs(t, service.SetAppState(identity, chatlist.AppState("asleep")), ErrInvalidInput)
	assert.NoError(t, service.SetAppState(identity, chatlist.AppBackground))
	assert.NoError(t, service.SetAppState(identity, chatlist.AppActive))
}

func TestChatServiceRefreshUnreadCounts(t *testing.T) {
	gateway := &stubGateway{rooms: map[models.ParticipantRole][]models.Room{
		models.RoleUser: {unreadRoom(models.RoleProvider, 2)},
	}}
	manager, _ := newTestManager(t, gateway)
	service := NewChatService(manager, stubMembership{member: true})
	identity := uuid.New()

	counts, err := service.RefreshUnreadCounts(context.Background(), identity, models.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, models.UnreadCounts{User: 2}, counts)

	_, err = service.RefreshUnreadCounts(context.Background(), identity, models.ParticipantRole("x"))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestChatServiceAttachReleaseOnlyUndoesItsOwnMount(t *testing.T) {
	gateway := &stubGateway{rooms: map[models.ParticipantRole][]models.Room{
		models.RoleUser: {unreadRoom(models.RoleProvider, 1)},
	}}
	manager, _ := newTestManager(t, gateway)
	service := NewChatService(manager, stubMembership{member: true})
	identity := uuid.New()

	snapshot, release, err := service.Attach(context.Background(), identity, models.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, 1, snapshot.UnreadTotal)

	service.Logout(identity)
	_, err = service.Mount(context.Background(), identity, models.RoleUser)
	require.NoError(t, err)

	release()
	release()

	current, err := service.ListChats(identity, models.RoleUser, chatlist.TabAll)
	require.NoError(t, err)
	assert.Len(t, current.Entries, 1)
}
