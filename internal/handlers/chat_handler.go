package handlers

import (
	"context"
	"errors"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Webizinnovation/serveEz-sub003/internal/chatlist"
	"github.com/Webizinnovation/serveEz-sub003/internal/middleware"
	"github.com/Webizinnovation/serveEz-sub003/internal/models"
	"github.com/Webizinnovation/serveEz-sub003/internal/services"
	chatws "github.com/Webizinnovation/serveEz-sub003/internal/websocket"
)

type chatApplicationService interface {
	chatws.Controller
	Mount(ctx context.Context, actorID uuid.UUID, role models.ParticipantRole) (chatlist.Snapshot, error)
	Unmount(actorID uuid.UUID, role models.ParticipantRole)
	Attach(ctx context.Context, actorID uuid.UUID, role models.ParticipantRole) (chatlist.Snapshot, func(), error)
	ListChats(actorID uuid.UUID, role models.ParticipantRole, tab chatlist.Tab) (chatlist.Snapshot, error)
	UnreadCounts(actorID uuid.UUID) models.UnreadCounts
	RefreshUnreadCounts(ctx context.Context, actorID uuid.UUID, role models.ParticipantRole) (models.UnreadCounts, error)
	Logout(actorID uuid.UUID)
}

type ChatHandler struct {
	service chatApplicationService
	hub     *chatws.Hub
	log     *zap.Logger
}

type appStateRequest struct {
	State string `json:"state"`
}

func NewChatHandler(service chatApplicationService, hub *chatws.Hub, log *zap.Logger) *ChatHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &ChatHandler{service: service, hub: hub, log: log}
}

func (h *ChatHandler) Mount(c *fiber.Ctx) error {
	actorID, role, ok := middleware.Identity(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	snapshot, err := h.service.Mount(c.UserContext(), actorID, role)
	if err != nil {
		return mapChatError(c, err)
	}
	return c.JSON(fiber.Map{"chats": snapshot})
}

func (h *ChatHandler) Unmount(c *fiber.Ctx) error {
	actorID, role, ok := middleware.Identity(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	h.service.Unmount(actorID, role)
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *ChatHandler) ListChats(c *fiber.Ctx) error {
	actorID, role, ok := middleware.Identity(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	tab, err := chatlist.ParseTab(c.Query("tab"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "tab must be one of all, unread, read"})
	}

	snapshot, err := h.service.ListChats(actorID, role, tab)
	if err != nil {
		return mapChatError(c, err)
	}
	return c.JSON(fiber.Map{"chats": snapshot})
}

func (h *ChatHandler) Refresh(c *fiber.Ctx) error {
	actorID, role, ok := middleware.Identity(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	snapshot, err := h.service.Refresh(c.UserContext(), actorID, role)
	if err != nil {
		return mapChatError(c, err)
	}
	return c.JSON(fiber.Map{"chats": snapshot})
}

func (h *ChatHandler) OpenRoom(c *fiber.Ctx) error {
	actorID, role, ok := middleware.Identity(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	roomID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid room id"})
	}

	if err := h.service.OpenRoom(c.UserContext(), actorID, role, roomID); err != nil {
		return mapChatError(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"room_id": roomID})
}

func (h *ChatHandler) MarkRead(c *fiber.Ctx) error {
	actorID, role, ok := middleware.Identity(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	roomID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid room id"})
	}

	if err := h.service.MarkRead(c.UserContext(), actorID, role, roomID); err != nil {
		return mapChatError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *ChatHandler) SetAppState(c *fiber.Ctx) error {
	actorID, _, ok := middleware.Identity(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req appStateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := h.service.SetAppState(actorID, chatlist.AppState(req.State)); err != nil {
		return mapChatError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *ChatHandler) UnreadCounts(c *fiber.Ctx) error {
	actorID, _, ok := middleware.Identity(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	return c.JSON(fiber.Map{"unread_counts": h.service.UnreadCounts(actorID)})
}

func (h *ChatHandler) RefreshUnreadCounts(c *fiber.Ctx) error {
	actorID, role, ok := middleware.Identity(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	counts, err := h.service.RefreshUnreadCounts(c.UserContext(), actorID, role)
	if err != nil {
		return mapChatError(c, err)
	}
	return c.JSON(fiber.Map{"unread_counts": counts})
}

func (h *ChatHandler) Logout(c *fiber.Ctx) error {
	actorID, _, ok := middleware.Identity(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	h.service.Logout(actorID)
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *ChatHandler) WebSocketUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return c.Status(fiber.StatusUpgradeRequired).JSON(fiber.Map{"error": "WebSocket upgrade required"})
	}
	return c.Next()
}

// HandleWebSocket mounts the caller's chat list for the lifetime of the
// connection. Updates reach the client through the hub.
func (h *ChatHandler) HandleWebSocket(conn *websocket.Conn) {
	actorID, _ := conn.Locals(middleware.LocalIdentity).(uuid.UUID)
	role, _ := conn.Locals(middleware.LocalRole).(models.ParticipantRole)

	client := chatws.NewClient(h.hub, conn, actorID, role)
	h.hub.Register(client)
	go client.WritePump()

	ctx := context.Background()
	snapshot, release, err := h.service.Attach(ctx, actorID, role)
	if err != nil {
		h.log.Error("websocket mount failed", zap.String("identity_id", actorID.String()), zap.Error(err))
		h.hub.Unregister(client)
		return
	}
	defer release()

	h.hub.PushChatList(actorID, snapshot)
	h.hub.PushUnreadCounts(actorID, h.service.UnreadCounts(actorID))

	client.ReadPump(ctx, h.service)
}

func mapChatError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	case errors.Is(err, services.ErrNotMounted):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Chat list is not mounted"})
	case errors.Is(err, services.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Room not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process chat request"})
	}
}
