package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Webizinnovation/serveEz-sub003/internal/models"
)

type RoomRepository struct {
	db DBTX
}

func NewRoomRepository(db DBTX) *RoomRepository {
	return &RoomRepository{db: db}
}

// ListForParticipant returns every room the participant belongs to in the
// given role, newest room first, with the counterpart's identity and all of
// the room's messages embedded.
func (r *RoomRepository) ListForParticipant(
	ctx context.Context,
	participantID uuid.UUID,
	role models.ParticipantRole,
) ([]models.Room, error) {
	selfColumn, err := roomColumn(role)
	if err != nil {
		return nil, err
	}
	counterpartColumn, _ := roomColumn(role.Counterpart())
	counterpartTable, _ := participantTable(role.Counterpart())

	query := fmt.Sprintf(`
		SELECT
			r.id,
			r.user_id,
			r.provider_id,
			r.created_at,
			cp.id,
			cp.display_name,
			cp.avatar_url,
			COALESCE(m.messages, '[]'::json)
		FROM chat_rooms r
		JOIN %[1]s cp ON cp.id = r.%[2]s
		LEFT JOIN LATERAL (
			SELECT json_agg(json_build_object(
				'id', id,
				'room_id', room_id,
				'sender_id', sender_id,
				'sender_role', sender_role,
				'type', type,
				'content', content,
				'read', read,
				'file_name', file_name,
				'duration', duration,
				'created_at', created_at
			) ORDER BY created_at DESC, id DESC) AS messages
			FROM chat_messages
			WHERE room_id = r.id
		) m ON TRUE
		WHERE r.%[3]s = $1
		ORDER BY r.created_at DESC, r.id DESC
	`, counterpartTable, counterpartColumn, selfColumn)

	rows, err := r.db.Query(ctx, query, participantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rooms := make([]models.Room, 0)
	for rows.Next() {
		room := models.Room{Counterpart: models.Participant{Role: role.Counterpart()}}
		if err := rows.Scan(
			&room.ID,
			&room.UserID,
			&room.ProviderID,
			&room.CreatedAt,
			&room.Counterpart.ID,
			&room.Counterpart.DisplayName,
			&room.Counterpart.AvatarURL,
			&room.Messages,
		); err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return rooms, nil
}

// IsParticipant reports whether the identity belongs to the room in the given role.
func (r *RoomRepository) IsParticipant(
	ctx context.Context,
	roomID uuid.UUID,
	participantID uuid.UUID,
	role models.ParticipantRole,
) (bool, error) {
	column, err := roomColumn(role)
	if err != nil {
		return false, err
	}

	var exists bool
	err = r.db.QueryRow(ctx, fmt.Sprintf(`
		SELECT EXISTS (
			SELECT 1 FROM chat_rooms WHERE id = $1 AND %s = $2
		)
	`, column), roomID, participantID).Scan(&exists)
	return exists, err
}
