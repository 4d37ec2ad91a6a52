package handlers

import (
	"context"
	"errors"
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/Webizinnovation/serveEz-sub003/internal/middleware"
	"github.com/Webizinnovation/serveEz-sub003/internal/models"
	"github.com/Webizinnovation/serveEz-sub003/internal/repository"
	"github.com/Webizinnovation/serveEz-sub003/internal/services"
)

const maxAvatarSizeBytes = 5 * 1024 * 1024

type profileApplicationService interface {
	Get(ctx context.Context, id uuid.UUID, role models.ParticipantRole) (*models.Profile, error)
	Update(ctx context.Context, id uuid.UUID, role models.ParticipantRole, req repository.UpdateProfileInput) (*models.Profile, error)
	UploadAvatar(ctx context.Context, id uuid.UUID, role models.ParticipantRole, body io.Reader, filename, contentType string) (*models.Profile, error)
}

type ProfileHandler struct {
	service        profileApplicationService
	storageEnabled bool
}

func NewProfileHandler(service profileApplicationService, storageEnabled bool) *ProfileHandler {
	return &ProfileHandler{service: service, storageEnabled: storageEnabled}
}

type updateProfileRequest struct {
	DisplayName *string `json:"display_name"`
	Bio         *string `json:"bio"`
	Phone       *string `json:"phone"`
}

func (h *ProfileHandler) GetProfile(c *fiber.Ctx) error {
	actorID, role, ok := middleware.Identity(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	profile, err := h.service.Get(c.UserContext(), actorID, role)
	if err != nil {
		return mapProfileError(c, err)
	}
	return c.JSON(fiber.Map{"profile": profile})
}

func (h *ProfileHandler) UpdateProfile(c *fiber.Ctx) error {
	actorID, role, ok := middleware.Identity(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req updateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if msg := validateUpdateProfileRequest(req); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
	}

	profile, err := h.service.Update(c.UserContext(), actorID, role, repository.UpdateProfileInput{
		DisplayName: req.DisplayName,
		Bio:         req.Bio,
		Phone:       req.Phone,
	})
	if err != nil {
		return mapProfileError(c, err)
	}
	return c.JSON(fiber.Map{"profile": profile})
}

func (h *ProfileHandler) UploadAvatar(c *fiber.Ctx) error {
	actorID, role, ok := middleware.Identity(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	if !h.storageEnabled {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Storage service is not configured"})
	}

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "avatar file is required"})
	}
	if fileHeader.Size <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "avatar file is empty"})
	}
	if fileHeader.Size > maxAvatarSizeBytes {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "avatar file exceeds 5MB limit"})
	}

	contentType, ok := avatarContentType(fileHeader.Filename)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "avatar must be a jpg, jpeg, png, or webp file"})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to open avatar file"})
	}
	defer file.Close()

	profile, err := h.service.UploadAvatar(c.UserContext(), actorID, role, file, fileHeader.Filename, contentType)
	if err != nil {
		return mapProfileError(c, err)
	}

	return c.JSON(fiber.Map{
		"avatar_url": profile.AvatarURL,
		"profile":    profile,
	})
}

func mapProfileError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Profile not found"})
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process profile request"})
	}
}
