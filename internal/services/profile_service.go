package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/Webizinnovation/serveEz-sub003/internal/models"
	"github.com/Webizinnovation/serveEz-sub003/internal/repository"
)

const maxDisplayNameLength = 80

type ProfileStore interface {
	GetByID(ctx context.Context, id uuid.UUID, role models.ParticipantRole) (*models.Profile, error)
	UpdatePartial(ctx context.Context, id uuid.UUID, role models.ParticipantRole, req repository.UpdateProfileInput) (*models.Profile, error)
}

type ProfileService struct {
	profiles ProfileStore
	storage  StorageService
	log      *zap.Logger
}

func NewProfileService(profiles ProfileStore, storage StorageService, log *zap.Logger) *ProfileService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ProfileService{profiles: profiles, storage: storage, log: log}
}

func (s *ProfileService) Get(ctx context.Context, id uuid.UUID, role models.ParticipantRole) (*models.Profile, error) {
	profile, err := s.load(ctx, id, role)
	if err != nil {
		return nil, err
	}
	return s.signAvatar(ctx, profile), nil
}

func (s *ProfileService) load(ctx context.Context, id uuid.UUID, role models.ParticipantRole) (*models.Profile, error) {
	profile, err := s.profiles.GetByID(ctx, id, role)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return profile, err
}

// signAvatar attaches a presigned link when the avatar lives in our bucket.
// Avatars hosted elsewhere keep only their plain URL.
func (s *ProfileService) signAvatar(ctx context.Context, profile *models.Profile) *models.Profile {
	if s.storage == nil || profile == nil || profile.AvatarURL == nil || *profile.AvatarURL == "" {
		return profile
	}
	signed, err := s.storage.GetSignedURL(ctx, *profile.AvatarURL)
	if err != nil {
		s.log.Debug("avatar not signed", zap.String("identity_id", profile.ID.String()), zap.Error(err))
		return profile
	}
	profile.AvatarSignedURL = &signed
	return profile
}

func (s *ProfileService) Update(
	ctx context.Context,
	id uuid.UUID,
	role models.ParticipantRole,
	req repository.UpdateProfileInput,
) (*models.Profile, error) {
	if req.DisplayName != nil {
		name := strings.TrimSpace(*req.DisplayName)
		if name == "" || len([]rune(name)) > maxDisplayNameLength {
			return nil, fmt.Errorf("%w: display_name must be 1-%d characters", ErrInvalidInput, maxDisplayNameLength)
		}
		req.DisplayName = &name
	}
	if req.Phone != nil {
		phone := strings.TrimSpace(*req.Phone)
		req.Phone = &phone
	}

	profile, err := s.profiles.UpdatePartial(ctx, id, role, req)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.signAvatar(ctx, profile), nil
}

// UploadAvatar stores the image and points the profile at it. The previous
// avatar is removed best-effort.
func (s *ProfileService) UploadAvatar(
	ctx context.Context,
	id uuid.UUID,
	role models.ParticipantRole,
	body io.Reader,
	filename string,
	contentType string,
) (*models.Profile, error) {
	if s.storage == nil {
		return nil, fmt.Errorf("%w: storage is not configured", ErrInvalidInput)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("%w: avatar must be an image", ErrInvalidInput)
	}

	current, err := s.load(ctx, id, role)
	if err != nil {
		return nil, err
	}

	objectName := uuid.NewString() + strings.ToLower(path.Ext(filename))
	folder := path.Join("avatars", string(role), id.String())
	avatarURL, err := s.storage.UploadFile(ctx, body, objectName, contentType, folder)
	if err != nil {
		return nil, err
	}

	profile, err := s.profiles.UpdatePartial(ctx, id, role, repository.UpdateProfileInput{AvatarURL: &avatarURL})
	if err != nil {
		return nil, err
	}

	if current.AvatarURL != nil && *current.AvatarURL != "" {
		if err := s.storage.DeleteFile(ctx, *current.AvatarURL); err != nil {
			s.log.Warn("old avatar not removed", zap.String("identity_id", id.String()), zap.Error(err))
		}
	}
	return s.signAvatar(ctx, profile), nil
}
