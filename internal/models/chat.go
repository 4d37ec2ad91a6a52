package models

import (
	"time"

	"github.com/google/uuid"
)

type ParticipantRole string

const (
	RoleUser     ParticipantRole = "user"
	RoleProvider ParticipantRole = "provider"
)

func (r ParticipantRole) Valid() bool {
	return r == RoleUser || r == RoleProvider
}

// Counterpart returns the other side of a room relative to r.
func (r ParticipantRole) Counterpart() ParticipantRole {
	if r == RoleUser {
		return RoleProvider
	}
	return RoleUser
}

type MessageKind string

const (
	MessageText  MessageKind = "text"
	MessageImage MessageKind = "image"
	MessageVoice MessageKind = "voice"
	MessageFile  MessageKind = "file"
)

type Participant struct {
	ID          uuid.UUID       `json:"id"`
	Role        ParticipantRole `json:"role"`
	DisplayName string          `json:"display_name"`
	AvatarURL   *string         `json:"avatar_url"`
}

// Room is a conversation between exactly one user and one provider, with
// the counterpart identity and every message of the room embedded.
type Room struct {
	ID          uuid.UUID     `json:"id"`
	UserID      uuid.UUID     `json:"user_id"`
	ProviderID  uuid.UUID     `json:"provider_id"`
	CreatedAt   time.Time     `json:"created_at"`
	Counterpart Participant   `json:"counterpart"`
	Messages    []ChatMessage `json:"messages"`
}

type ChatMessage struct {
	ID         uuid.UUID       `json:"id"`
	RoomID     uuid.UUID       `json:"room_id"`
	SenderID   uuid.UUID       `json:"sender_id"`
	SenderRole ParticipantRole `json:"sender_role"`
	Kind       MessageKind     `json:"type"`
	Content    string          `json:"content"`
	// Read is tri-state; nil counts as unread.
	Read      *bool     `json:"read"`
	FileName  *string   `json:"file_name,omitempty"`
	Duration  *string   `json:"duration,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (m ChatMessage) IsRead() bool {
	return m.Read != nil && *m.Read
}

// ChatListEntry is the display-ready projection of a room. It is never persisted.
type ChatListEntry struct {
	RoomID            uuid.UUID  `json:"room_id"`
	CounterpartID     uuid.UUID  `json:"counterpart_id"`
	CounterpartName   string     `json:"counterpart_name"`
	CounterpartAvatar *string    `json:"counterpart_avatar"`
	UnreadCount       int        `json:"unread_count"`
	LastMessage       string     `json:"last_message"`
	LastMessageAt     *time.Time `json:"last_message_at"`
	FormattedDate     string     `json:"formatted_date"`
	RoomCreatedAt     time.Time  `json:"room_created_at"`
}

type UnreadCounts struct {
	User     int `json:"user"`
	Provider int `json:"provider"`
}
