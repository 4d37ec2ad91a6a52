package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/Webizinnovation/serveEz-sub003/internal/chatlist"
	"github.com/Webizinnovation/serveEz-sub003/internal/handlers"
	"github.com/Webizinnovation/serveEz-sub003/internal/realtime"
	"github.com/Webizinnovation/serveEz-sub003/internal/services"
	"github.com/Webizinnovation/serveEz-sub003/internal/unread"
	chatws "github.com/Webizinnovation/serveEz-sub003/internal/websocket"
	"github.com/Webizinnovation/serveEz-sub003/pkg/utils"
)

const testSecret = "route-secret"

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	hub := chatws.NewHub(nil)
	manager := services.NewSessionManager(nil, realtime.NewMemoryFeed(nil), unread.NewRegistry(nil), hub, chatlist.Options{}, nil)
	t.Cleanup(manager.Close)

	app := fiber.New()
	RegisterRoutes(app, testSecret, Handlers{
		Chat:    handlers.NewChatHandler(services.NewChatService(manager, nil), hub, nil),
		Profile: handlers.NewProfileHandler(services.NewProfileService(nil, nil, nil), false),
		Wallet:  handlers.NewWalletHandler(services.NewWalletService(nil)),
	})
	return app
}

func TestHealth(t *testing.T) {
	resp, err := newTestApp(t).Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	app := newTestApp(t)

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/api/v1/chats"},
		{http.MethodPost, "/api/v1/chats/mount"},
		{http.MethodGet, "/api/v1/unread-counts"},
		{http.MethodGet, "/api/v1/profile"},
		{http.MethodGet, "/api/v1/wallet"},
		{http.MethodGet, "/api/v1/ws"},
	} {
		resp, err := app.Test(httptest.NewRequest(route.method, route.path, nil))
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401, got %d", route.method, route.path, resp.StatusCode)
		}
	}
}

func TestAuthenticatedUnmountedListIsConflict(t *testing.T) {
	app := newTestApp(t)
	token, err := utils.GenerateToken(uuid.NewString(), "user", testSecret)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/chats", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/unread-counts", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestWebSocketRequiresUpgrade(t *testing.T) {
	app := newTestApp(t)
	token, err := utils.GenerateToken(uuid.NewString(), "provider", testSecret)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/ws?token="+token, nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusUpgradeRequired {
		t.Fatalf("expected 426, got %d", resp.StatusCode)
	}
}
