package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/Webizinnovation/serveEz-sub003/internal/models"
	"github.com/Webizinnovation/serveEz-sub003/pkg/utils"
)

const (
	LocalIdentity = "identity_id"
	LocalRole     = "role"
)

// AuthRequired validates the bearer token and stores the caller's identity
// and role in the request locals. The WebSocket upgrade may pass the token
// as the token query parameter since browsers cannot set headers there.
func AuthRequired(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, ok := bearerToken(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing authorization header",
			})
		}
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid authorization header format",
			})
		}

		claims, err := utils.ValidateToken(tokenString, secret)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		identityID, err := uuid.Parse(claims.UserID)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token subject",
			})
		}
		role := models.ParticipantRole(claims.Role)
		if !role.Valid() {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Unsupported role",
			})
		}

		c.Locals(LocalIdentity, identityID)
		c.Locals(LocalRole, role)

		return c.Next()
	}
}

func bearerToken(c *fiber.Ctx) (string, bool) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		if token := c.Query("token"); token != "" {
			return token, true
		}
		return "", false
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", true
	}
	return parts[1], true
}

// Identity returns the caller set by AuthRequired.
func Identity(c *fiber.Ctx) (uuid.UUID, models.ParticipantRole, bool) {
	id, ok := c.Locals(LocalIdentity).(uuid.UUID)
	if !ok {
		return uuid.Nil, "", false
	}
	role, ok := c.Locals(LocalRole).(models.ParticipantRole)
	if !ok {
		return uuid.Nil, "", false
	}
	return id, role, true
}
