package chatws

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Webizinnovation/serveEz-sub003/internal/chatlist"
	"github.com/Webizinnovation/serveEz-sub003/internal/models"
)

func runHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func receive(t *testing.T, client *Client) Message {
	t.Helper()
	select {
	case payload, ok := <-client.send:
		require.True(t, ok, "send channel closed")
		var msg Message
		require.NoError(t, json.Unmarshal(payload, &msg))
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message delivered")
		return Message{}
	}
}

func TestHubDeliversToEveryConnectionOfIdentity(t *testing.T) {
	hub := runHub(t)
	identity := uuid.New()
	phone := NewClient(hub, nil, identity, models.RoleUser)
	tablet := NewClient(hub, nil, identity, models.RoleUser)
	stranger := NewClient(hub, nil, uuid.New(), models.RoleUser)
	hub.Register(phone)
	hub.Register(tablet)
	hub.Register(stranger)

	hub.PushUnreadCounts(identity, models.UnreadCounts{User: 3})

	for _, client := range []*Client{phone, tablet} {
		msg := receive(t, client)
		assert.Equal(t, EventUnreadCounts, msg.Type)
		assert.Equal(t, map[string]any{"user": float64(3), "provider": float64(0)}, msg.Data)
	}
	select {
	case <-stranger.send:
		t.Fatal("stranger received another identity's event")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubTypedEvents(t *testing.T) {
	hub := runHub(t)
	identity := uuid.New()
	client := NewClient(hub, nil, identity, models.RoleProvider)
	hub.Register(client)

	roomID := uuid.New()
	hub.Notify(identity, chatlist.Notification{Title: "Error", Message: "Failed to load chat rooms"})
	hub.NavigateToRoom(identity, models.RoleProvider, roomID)
	hub.PushChatList(identity, chatlist.Snapshot{Role: models.RoleProvider, UnreadTotal: 2})

	toast := receive(t, client)
	assert.Equal(t, EventToast, toast.Type)
	assert.Equal(t, "Failed to load chat rooms", toast.Data.(map[string]any)["message"])

	navigate := receive(t, client)
	assert.Equal(t, EventNavigate, navigate.Type)
	assert.Equal(t, roomID.String(), navigate.Data.(map[string]any)["room_id"])

	list := receive(t, client)
	assert.Equal(t, EventChatList, list.Type)
	assert.Equal(t, float64(2), list.Data.(map[string]any)["unread_total"])
}

func TestHubUnregisterClosesSend(t *testing.T) {
	hub := runHub(t)
	client := NewClient(hub, nil, uuid.New(), models.RoleUser)
	hub.Register(client)
	hub.Unregister(client)

	select {
	case _, ok := <-client.send:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("send channel not closed")
	}
}

type recordingController struct {
	states   []chatlist.AppState
	opened   []uuid.UUID
	marked   []uuid.UUID
	refreshs int
}

func (r *recordingController) SetAppState(_ uuid.UUID, state chatlist.AppState) error {
	r.states = append(r.states, state)
	return nil
}

func (r *recordingController) OpenRoom(_ context.Context, _ uuid.UUID, _ models.ParticipantRole, roomID uuid.UUID) error {
	r.opened = append(r.opened, roomID)
	return nil
}

func (r *recordingController) MarkRead(_ context.Context, _ uuid.UUID, _ models.ParticipantRole, roomID uuid.UUID) error {
	r.marked = append(r.marked, roomID)
	return nil
}

func (r *recordingController) Refresh(context.Context, uuid.UUID, models.ParticipantRole) (chatlist.Snapshot, error) {
	r.refreshs++
	return chatlist.Snapshot{}, nil
}

func TestClientHandleInbound(t *testing.T) {
	client := NewClient(NewHub(nil), nil, uuid.New(), models.RoleUser)
	controller := &recordingController{}
	roomID := uuid.New()
	ctx := context.Background()

	require.NoError(t, client.handle(ctx, controller, inbound{Type: InboundAppState, State: "background"}))
	require.NoError(t, client.handle(ctx, controller, inbound{Type: InboundOpenRoom, RoomID: roomID.String()}))
	require.NoError(t, client.handle(ctx, controller, inbound{Type: InboundMarkRead, RoomID: roomID.String()}))
	require.NoError(t, client.handle(ctx, controller, inbound{Type: InboundRefresh}))

	assert.Equal(t, []chatlist.AppState{chatlist.AppBackground}, controller.states)
	assert.Equal(t, []uuid.UUID{roomID}, controller.opened)
	assert.Equal(t, []uuid.UUID{roomID}, controller.marked)
	assert.Equal(t, 1, controller.refreshs)

	assert.Error(t, client.handle(ctx, controller, inbound{Type: InboundOpenRoom, RoomID: "nope"}))
	assert.ErrorIs(t, client.handle(ctx, controller, inbound{Type: "message"}), errUnsupportedType)
}

func TestHubSendToTargetsOneConnection(t *testing.T) {
	hub := runHub(t)
	identity := uuid.New()
	phone := NewClient(hub, nil, identity, models.RoleUser)
	tablet := NewClient(hub, nil, identity, models.RoleUser)
	hub.Register(phone)
	hub.Register(tablet)

	hub.SendTo(tablet, EventError, errorPayload("invalid room id"))

	msg := receive(t, tablet)
	assert.Equal(t, EventError, msg.Type)
	assert.Equal(t, "invalid room id", msg.Data.(map[string]any)["error"])
	select {
	case <-phone.send:
		t.Fatal("error frame leaked to another connection")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubStoppedDoesNotBlock(t *testing.T) {
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	client := NewClient(hub, nil, uuid.New(), models.RoleUser)
	hub.Register(client)
	_, ok := <-client.send
	assert.False(t, ok)
	hub.Unregister(client)
}

func TestHubDisconnectsClientWithFullBuffer(t *testing.T) {
	hub := runHub(t)
	identity := uuid.New()
	slow := NewClient(hub, nil, identity, models.RoleUser)
	hub.Register(slow)

	for i := 0; i < cap(slow.send); i++ {
		hub.PushUnreadCounts(identity, models.UnreadCounts{User: i})
	}
	require.Eventually(t, func() bool { return len(slow.send) == cap(slow.send) }, time.Second, 5*time.Millisecond)
	hub.PushUnreadCounts(identity, models.UnreadCounts{User: cap(slow.send)})

	deadline := time.After(time.Second)
	received := 0
	for {
		select {
		case _, ok := <-slow.send:
			if !ok {
				assert.Equal(t, cap(slow.send), received)
				return
			}
			received++
		case <-deadline:
			t.Fatal("slow client was not disconnected")
		}
	}
}
