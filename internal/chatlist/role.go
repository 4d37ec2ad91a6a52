package chatlist

import "github.com/Webizinnovation/serveEz-sub003/internal/models"

// Role describes one side of the marketplace for a Synchronizer: whose rooms
// are listed, whose messages count as unread, and which badge is written.
type Role struct {
	Self        models.ParticipantRole
	Counterpart models.ParticipantRole
	// RoomColumn is the chat_rooms column that holds Self's identity.
	RoomColumn string
}

var (
	UserRole = Role{
		Self:        models.RoleUser,
		Counterpart: models.RoleProvider,
		RoomColumn:  "user_id",
	}
	ProviderRole = Role{
		Self:        models.RoleProvider,
		Counterpart: models.RoleUser,
		RoomColumn:  "provider_id",
	}
)

func RoleFor(role models.ParticipantRole) (Role, bool) {
	switch role {
	case models.RoleUser:
		return UserRole, true
	case models.RoleProvider:
		return ProviderRole, true
	default:
		return Role{}, false
	}
}
