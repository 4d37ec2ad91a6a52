package routes

import (
	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/Webizinnovation/serveEz-sub003/internal/handlers"
	"github.com/Webizinnovation/serveEz-sub003/internal/middleware"
)

type Handlers struct {
	Chat    *handlers.ChatHandler
	Profile *handlers.ProfileHandler
	Wallet  *handlers.WalletHandler
}

func RegisterRoutes(app *fiber.App, jwtSecret string, h Handlers) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
		})
	})

	api := app.Group("/api")
	authProtected := api.Group("/v1", middleware.AuthRequired(jwtSecret))

	authProtected.Post("/auth/logout", h.Chat.Logout)

	chats := authProtected.Group("/chats")
	chats.Get("", h.Chat.ListChats)
	chats.Post("/mount", h.Chat.Mount)
	chats.Post("/unmount", h.Chat.Unmount)
	chats.Post("/refresh", h.Chat.Refresh)
	chats.Post("/:id/open", h.Chat.OpenRoom)
	chats.Post("/:id/read", h.Chat.MarkRead)

	authProtected.Post("/app-state", h.Chat.SetAppState)
	authProtected.Get("/unread-counts", h.Chat.UnreadCounts)
	authProtected.Post("/unread-counts/refresh", h.Chat.RefreshUnreadCounts)

	authProtected.Get("/profile", h.Profile.GetProfile)
	authProtected.Patch("/profile", h.Profile.UpdateProfile)
	authProtected.Post("/profile/avatar", h.Profile.UploadAvatar)

	authProtected.Get("/wallet", h.Wallet.GetWallet)

	authProtected.Use("/ws", h.Chat.WebSocketUpgrade)
	authProtected.Get("/ws", websocket.New(h.Chat.HandleWebSocket))
}
