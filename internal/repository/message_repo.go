package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/Webizinnovation/serveEz-sub003/internal/models"
)

type MessageRepository struct {
	db DBTX
}

func NewMessageRepository(db DBTX) *MessageRepository {
	return &MessageRepository{db: db}
}

// ListUnreadIDs returns the ids of the room's messages authored by senderRole
// whose read flag is not true. A NULL flag counts as unread.
func (r *MessageRepository) ListUnreadIDs(
	ctx context.Context,
	roomID uuid.UUID,
	senderRole models.ParticipantRole,
) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id
		FROM chat_messages
		WHERE room_id = $1
		  AND sender_role = $2
		  AND read IS DISTINCT FROM TRUE
		ORDER BY created_at, id
	`, roomID, senderRole)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return ids, nil
}

// MarkRead sets read = TRUE on exactly the given messages.
func (r *MessageRepository) MarkRead(ctx context.Context, messageIDs []uuid.UUID) error {
	if len(messageIDs) == 0 {
		return nil
	}
	_, err := r.db.Exec(ctx, `
		UPDATE chat_messages
		SET read = TRUE
		WHERE id = ANY($1)
		  AND read IS DISTINCT FROM TRUE
	`, messageIDs)
	return err
}
