package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/Webizinnovation/serveEz-sub003/internal/models"
)

// Gateway is the Postgres-backed data gateway of the chat list.
type Gateway struct {
	rooms    *RoomRepository
	messages *MessageRepository
}

func NewGateway(db DBTX) *Gateway {
	return &Gateway{
		rooms:    NewRoomRepository(db),
		messages: NewMessageRepository(db),
	}
}

func (g *Gateway) ListRooms(ctx context.Context, participantID uuid.UUID, role models.ParticipantRole) ([]models.Room, error) {
	return g.rooms.ListForParticipant(ctx, participantID, role)
}

func (g *Gateway) ListUnreadMessageIDs(ctx context.Context, roomID uuid.UUID, senderRole models.ParticipantRole) ([]uuid.UUID, error) {
	return g.messages.ListUnreadIDs(ctx, roomID, senderRole)
}

func (g *Gateway) MarkMessagesRead(ctx context.Context, messageIDs []uuid.UUID) error {
	return g.messages.MarkRead(ctx, messageIDs)
}

func (g *Gateway) IsParticipant(ctx context.Context, roomID, participantID uuid.UUID, role models.ParticipantRole) (bool, error) {
	return g.rooms.IsParticipant(ctx, roomID, participantID, role)
}
