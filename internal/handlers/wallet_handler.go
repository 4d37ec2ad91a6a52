package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/Webizinnovation/serveEz-sub003/internal/middleware"
	"github.com/Webizinnovation/serveEz-sub003/internal/models"
	"github.com/Webizinnovation/serveEz-sub003/internal/services"
)

type walletReader interface {
	Summary(ctx context.Context, ownerID uuid.UUID, page, limit int) (*models.WalletSummary, int, error)
}

type WalletHandler struct {
	service walletReader
}

func NewWalletHandler(service walletReader) *WalletHandler {
	return &WalletHandler{service: service}
}

func (h *WalletHandler) GetWallet(c *fiber.Ctx) error {
	actorID, _, ok := middleware.Identity(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	page := parsePositiveInt(c.Query("page"), 1)
	limit := parsePositiveInt(c.Query("limit"), defaultPageLimit)
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	summary, total, err := h.service.Summary(c.UserContext(), actorID, page, limit)
	if err != nil {
		if errors.Is(err, services.ErrInvalidInput) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch wallet"})
	}

	return c.JSON(fiber.Map{
		"wallet":     summary,
		"pagination": buildPaginationMeta(page, limit, total),
	})
}
