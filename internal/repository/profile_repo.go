package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Webizinnovation/serveEz-sub003/internal/models"
)

type UpdateProfileInput struct {
	DisplayName *string
	AvatarURL   *string
	Bio         *string
	Phone       *string
}

type ProfileRepository struct {
	db DBTX
}

func NewProfileRepository(db DBTX) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) GetByID(ctx context.Context, id uuid.UUID, role models.ParticipantRole) (*models.Profile, error) {
	table, err := participantTable(role)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT id, display_name, avatar_url, bio, phone, created_at, updated_at
		FROM %s
		WHERE id = $1
	`, table)

	profile := models.Profile{Role: role}
	err = r.db.QueryRow(ctx, query, id).Scan(
		&profile.ID,
		&profile.DisplayName,
		&profile.AvatarURL,
		&profile.Bio,
		&profile.Phone,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// UpdatePartial writes only the non-nil fields of req.
func (r *ProfileRepository) UpdatePartial(
	ctx context.Context,
	id uuid.UUID,
	role models.ParticipantRole,
	req UpdateProfileInput,
) (*models.Profile, error) {
	table, err := participantTable(role)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET display_name = COALESCE($1, display_name),
			avatar_url = COALESCE($2, avatar_url),
			bio = COALESCE($3, bio),
			phone = COALESCE($4, phone),
			updated_at = NOW()
		WHERE id = $5
		RETURNING id, display_name, avatar_url, bio, phone, created_at, updated_at
	`, table)

	profile := models.Profile{Role: role}
	err = r.db.QueryRow(ctx, query,
		req.DisplayName,
		req.AvatarURL,
		req.Bio,
		req.Phone,
		id,
	).Scan(
		&profile.ID,
		&profile.DisplayName,
		&profile.AvatarURL,
		&profile.Bio,
		&profile.Phone,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}
