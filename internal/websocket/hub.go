package chatws

import (
	"context"
	"encoding/json"
	"time"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Webizinnovation/serveEz-sub003/internal/chatlist"
	"github.com/Webizinnovation/serveEz-sub003/internal/models"
)

const (
	EventChatList     = "chat_list"
	EventUnreadCounts = "unread_counts"
	EventToast        = "toast"
	EventNavigate     = "navigate"
	EventError        = "error"

	InboundAppState = "app_state"
	InboundOpenRoom = "open_room"
	InboundRefresh  = "refresh"
	InboundMarkRead = "mark_read"
)

// Hub fans typed events out to every connection of an identity.
type Hub struct {
	clients    map[uuid.UUID]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan *envelope
	done       chan struct{}
	log        *zap.Logger
}

type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	identityID uuid.UUID
	role       models.ParticipantRole
	send       chan []byte
}

type Message struct {
	Type      string `json:"type"`
	Data      any    `json:"data,omitempty"`
	Timestamp string `json:"timestamp"`
}

type envelope struct {
	identityID uuid.UUID
	// client narrows delivery to one connection of the identity.
	client  *Client
	message *Message
}

type NavigatePayload struct {
	Role   models.ParticipantRole `json:"role"`
	RoomID uuid.UUID              `json:"room_id"`
}

func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *envelope, 256),
		done:       make(chan struct{}),
		log:        log,
	}
}

func NewClient(hub *Hub, conn *websocket.Conn, identityID uuid.UUID, role models.ParticipantRole) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		identityID: identityID,
		role:       role,
		send:       make(chan []byte, 32),
	}
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			for identityID, set := range h.clients {
				for client := range set {
					close(client.send)
				}
				delete(h.clients, identityID)
			}
			return
		case client := <-h.register:
			set, ok := h.clients[client.identityID]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[client.identityID] = set
			}
			set[client] = struct{}{}
		case client := <-h.unregister:
			set, ok := h.clients[client.identityID]
			if !ok {
				continue
			}
			if _, exists := set[client]; exists {
				delete(set, client)
				close(client.send)
			}
			if len(set) == 0 {
				delete(h.clients, client.identityID)
			}
		case env := <-h.broadcast:
			h.deliver(env)
		}
	}
}

// Register adds client to the hub. After the hub has stopped the client's
// send channel is closed right away.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.send)
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Send queues a message for every connection of identityID. It never blocks;
// when the queue is full the message is dropped and logged.
func (h *Hub) Send(identityID uuid.UUID, eventType string, data any) {
	h.enqueue(&envelope{identityID: identityID, message: newMessage(eventType, data)})
}

// SendTo queues a message for a single connection.
func (h *Hub) SendTo(client *Client, eventType string, data any) {
	h.enqueue(&envelope{identityID: client.identityID, client: client, message: newMessage(eventType, data)})
}

func newMessage(eventType string, data any) *Message {
	return &Message{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

func (h *Hub) enqueue(env *envelope) {
	eventType := env.message.Type
	identityID := env.identityID
	select {
	case h.broadcast <- env:
	default:
		h.log.Warn("hub queue full, event dropped",
			zap.String("identity_id", identityID.String()),
			zap.String("type", eventType),
		)
	}
}

func (h *Hub) PushChatList(identityID uuid.UUID, snapshot chatlist.Snapshot) {
	h.Send(identityID, EventChatList, snapshot)
}

func (h *Hub) PushUnreadCounts(identityID uuid.UUID, counts models.UnreadCounts) {
	h.Send(identityID, EventUnreadCounts, counts)
}

func (h *Hub) Notify(identityID uuid.UUID, notification chatlist.Notification) {
	h.Send(identityID, EventToast, notification)
}

func (h *Hub) NavigateToRoom(identityID uuid.UUID, role models.ParticipantRole, roomID uuid.UUID) {
	h.Send(identityID, EventNavigate, NavigatePayload{Role: role, RoomID: roomID})
}

func (h *Hub) deliver(env *envelope) {
	encoded, err := json.Marshal(env.message)
	if err != nil {
		h.log.Error("hub encode message", zap.String("type", env.message.Type), zap.Error(err))
		return
	}
	h.sendToIdentity(env.identityID, env.client, encoded)
}

// sendToIdentity delivers to every connection of identityID, or only to
// target when it is set. A connection whose buffer is full is disconnected;
// it gets a fresh snapshot when it reconnects and mounts again.
func (h *Hub) sendToIdentity(identityID uuid.UUID, target *Client, payload []byte) {
	set, ok := h.clients[identityID]
	if !ok {
		return
	}

	for client := range set {
		if target != nil && client != target {
			continue
		}
		select {
		case client.send <- payload:
		default:
			delete(set, client)
			close(client.send)
			h.log.Warn("client send buffer full, disconnecting",
				zap.String("identity_id", identityID.String()),
			)
		}
	}
	if len(set) == 0 {
		delete(h.clients, identityID)
	}
}
