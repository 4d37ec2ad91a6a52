package chatws

import (
	"context"
	"encoding/json"
	"errors"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Webizinnovation/serveEz-sub003/internal/chatlist"
	"github.com/Webizinnovation/serveEz-sub003/internal/models"
)

// Controller applies client intents to the identity's mounted chat lists.
type Controller interface {
	SetAppState(actorID uuid.UUID, state chatlist.AppState) error
	OpenRoom(ctx context.Context, actorID uuid.UUID, role models.ParticipantRole, roomID uuid.UUID) error
	MarkRead(ctx context.Context, actorID uuid.UUID, role models.ParticipantRole, roomID uuid.UUID) error
	Refresh(ctx context.Context, actorID uuid.UUID, role models.ParticipantRole) (chatlist.Snapshot, error)
}

type inbound struct {
	Type   string `json:"type"`
	State  string `json:"state"`
	RoomID string `json:"room_id"`
}

var errUnsupportedType = errors.New("unsupported message type")

func (c *Client) ReadPump(ctx context.Context, controller Controller) {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var incoming inbound
		if err := json.Unmarshal(payload, &incoming); err != nil {
			c.hub.SendTo(c, EventError, errorPayload("invalid message payload"))
			continue
		}

		if err := c.handle(ctx, controller, incoming); err != nil {
			c.hub.log.Debug("websocket message rejected",
				zap.String("identity_id", c.identityID.String()),
				zap.String("type", incoming.Type),
				zap.Error(err),
			)
			c.hub.SendTo(c, EventError, errorPayload(err.Error()))
		}
	}
}

func (c *Client) handle(ctx context.Context, controller Controller, incoming inbound) error {
	switch incoming.Type {
	case InboundAppState:
		return controller.SetAppState(c.identityID, chatlist.AppState(incoming.State))
	case InboundRefresh:
		_, err := controller.Refresh(ctx, c.identityID, c.role)
		return err
	case InboundOpenRoom, InboundMarkRead:
		roomID, err := uuid.Parse(incoming.RoomID)
		if err != nil {
			return errors.New("invalid room id")
		}
		if incoming.Type == InboundOpenRoom {
			return controller.OpenRoom(ctx, c.identityID, c.role, roomID)
		}
		return controller.MarkRead(ctx, c.identityID, c.role, roomID)
	default:
		return errUnsupportedType
	}
}

func (c *Client) WritePump() {
	defer func() {
		_ = c.conn.Close()
	}()

	for payload := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}

func errorPayload(message string) map[string]string {
	return map[string]string{"error": message}
}
