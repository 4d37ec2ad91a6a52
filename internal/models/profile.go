package models

import (
	"time"

	"github.com/google/uuid"
)

type Profile struct {
	ID          uuid.UUID       `json:"id"`
	Role        ParticipantRole `json:"role"`
	DisplayName string          `json:"display_name"`
	AvatarURL   *string         `json:"avatar_url"`
	// AvatarSignedURL is a short-lived download link for avatars kept in
	// private storage.
	AvatarSignedURL *string   `json:"avatar_signed_url,omitempty"`
	Bio             *string   `json:"bio"`
	Phone           *string   `json:"phone"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
