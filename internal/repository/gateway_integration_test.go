package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/Webizinnovation/serveEz-sub003/internal/models"
)

var (
	testDBOnce sync.Once
	testDBPool *pgxpool.Pool
	testDBErr  error
)

func TestGatewayListRoomsDecodesEmbeddedMessages(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	gateway := NewGateway(pool)

	userID := createParticipant(t, ctx, pool, "users", "Ada")
	providerID := createParticipant(t, ctx, pool, "providers", "Grace")
	quietProviderID := createParticipant(t, ctx, pool, "providers", "Linus")
	t.Cleanup(func() { cleanupParticipants(t, ctx, pool, userID, providerID, quietProviderID) })

	base := time.Date(2030, 1, 10, 9, 0, 0, 0, time.UTC)
	busyRoom := createRoom(t, ctx, pool, userID, providerID, base)
	quietRoom := createRoom(t, ctx, pool, userID, quietProviderID, base.Add(time.Hour))

	nullRead := createMessage(t, ctx, pool, busyRoom, providerID, "provider", "text", "hello", nil, nil, base.Add(time.Minute))
	fileName := "scan.png"
	photo := createMessage(t, ctx, pool, busyRoom, providerID, "provider", "image", "https://cdn/scan.png", boolPtr(false), &fileName, base.Add(2*time.Minute))
	createMessage(t, ctx, pool, busyRoom, providerID, "provider", "text", "seen", boolPtr(true), nil, base.Add(3*time.Minute))
	// longer than a pg_notify payload; the change trigger must not reject it
	createMessage(t, ctx, pool, busyRoom, userID, "user", "text", strings.Repeat("x", 9000), nil, nil, base.Add(4*time.Minute))

	rooms, err := gateway.ListRooms(ctx, userID, models.RoleUser)
	if err != nil {
		t.Fatalf("ListRooms: %v", err)
	}
	if len(rooms) != 2 {
		t.Fatalf("expected 2 rooms, got %d", len(rooms))
	}

	quiet, busy := rooms[0], rooms[1]
	if quiet.ID != quietRoom || busy.ID != busyRoom {
		t.Fatalf("expected newest room first, got %s then %s", quiet.ID, busy.ID)
	}
	if quiet.Messages == nil || len(quiet.Messages) != 0 {
		t.Fatalf("expected empty message list for quiet room, got %+v", quiet.Messages)
	}
	if quiet.Counterpart.ID != quietProviderID || quiet.Counterpart.DisplayName != "Linus" {
		t.Fatalf("unexpected counterpart: %+v", quiet.Counterpart)
	}

	if len(busy.Messages) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(busy.Messages))
	}
	if busy.Messages[0].SenderRole != models.RoleUser || len(busy.Messages[0].Content) != 9000 {
		t.Fatalf("expected newest message first, got %+v", busy.Messages[0].SenderRole)
	}

	byID := make(map[uuid.UUID]models.ChatMessage, len(busy.Messages))
	for _, msg := range busy.Messages {
		byID[msg.ID] = msg
	}
	if msg := byID[nullRead]; msg.Read != nil || msg.RoomID != busyRoom || !msg.CreatedAt.Equal(base.Add(time.Minute)) {
		t.Fatalf("unexpected decode of unread text: %+v", msg)
	}
	if msg := byID[photo]; msg.Kind != models.MessageImage || msg.Read == nil || *msg.Read || msg.FileName == nil || *msg.FileName != fileName {
		t.Fatalf("unexpected decode of photo: %+v", msg)
	}
}

func TestGatewayMarkReadTouchesOnlyUnreadCounterpartMessages(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	gateway := NewGateway(pool)

	userID := createParticipant(t, ctx, pool, "users", "Ada")
	providerID := createParticipant(t, ctx, pool, "providers", "Grace")
	t.Cleanup(func() { cleanupParticipants(t, ctx, pool, userID, providerID) })

	base := time.Date(2030, 2, 1, 12, 0, 0, 0, time.UTC)
	roomID := createRoom(t, ctx, pool, userID, providerID, base)
	nullRead := createMessage(t, ctx, pool, roomID, providerID, "provider", "text", "a", nil, nil, base.Add(time.Minute))
	falseRead := createMessage(t, ctx, pool, roomID, providerID, "provider", "text", "b", boolPtr(false), nil, base.Add(2*time.Minute))
	createMessage(t, ctx, pool, roomID, providerID, "provider", "text", "c", boolPtr(true), nil, base.Add(3*time.Minute))
	own := createMessage(t, ctx, pool, roomID, userID, "user", "text", "d", nil, nil, base.Add(4*time.Minute))

	ids, err := gateway.ListUnreadMessageIDs(ctx, roomID, models.RoleProvider)
	if err != nil {
		t.Fatalf("ListUnreadMessageIDs: %v", err)
	}
	if len(ids) != 2 || ids[0] != nullRead || ids[1] != falseRead {
		t.Fatalf("expected [%s %s], got %v", nullRead, falseRead, ids)
	}

	if err := gateway.MarkMessagesRead(ctx, ids); err != nil {
		t.Fatalf("MarkMessagesRead: %v", err)
	}

	ids, err = gateway.ListUnreadMessageIDs(ctx, roomID, models.RoleProvider)
	if err != nil {
		t.Fatalf("ListUnreadMessageIDs after mark: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("expected no unread provider messages, got %v", ids)
	}

	var ownRead *bool
	if err := pool.QueryRow(ctx, "SELECT read FROM chat_messages WHERE id = $1", own).Scan(&ownRead); err != nil {
		t.Fatalf("read own message: %v", err)
	}
	if ownRead != nil {
		t.Fatalf("expected own message untouched, got read=%v", *ownRead)
	}

	member, err := gateway.IsParticipant(ctx, roomID, providerID, models.RoleProvider)
	if err != nil || !member {
		t.Fatalf("expected provider membership, got %v %v", member, err)
	}
	member, err = gateway.IsParticipant(ctx, roomID, providerID, models.RoleUser)
	if err != nil || member {
		t.Fatalf("expected no membership under the user column, got %v %v", member, err)
	}
}

func integrationTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	testDBOnce.Do(func() {
		_ = godotenv.Load(".env")
		_ = godotenv.Load(filepath.Join("..", "..", ".env"))

		dbURL := os.Getenv("DB_URL")
		if dbURL == "" {
			testDBErr = fmt.Errorf("DB_URL is not set")
			return
		}

		cfg, err := pgxpool.ParseConfig(dbURL)
		if err != nil {
			testDBErr = err
			return
		}

		testDBPool, testDBErr = pgxpool.NewWithConfig(context.Background(), cfg)
		if testDBErr != nil {
			return
		}
		testDBErr = testDBPool.Ping(context.Background())
	})

	if testDBErr != nil {
		t.Skipf("skipping integration test: %v", testDBErr)
	}
	return testDBPool
}

func boolPtr(v bool) *bool { return &v }

func createParticipant(t *testing.T, ctx context.Context, pool *pgxpool.Pool, table, name string) uuid.UUID {
	t.Helper()

	var id uuid.UUID
	query := fmt.Sprintf("INSERT INTO %s (display_name) VALUES ($1) RETURNING id", table)
	if err := pool.QueryRow(ctx, query, name).Scan(&id); err != nil {
		t.Fatalf("create %s: %v", table, err)
	}
	return id
}

func createRoom(t *testing.T, ctx context.Context, pool *pgxpool.Pool, userID, providerID uuid.UUID, createdAt time.Time) uuid.UUID {
	t.Helper()

	var id uuid.UUID
	err := pool.QueryRow(ctx, `
		INSERT INTO chat_rooms (user_id, provider_id, created_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`, userID, providerID, createdAt).Scan(&id)
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	return id
}

func createMessage(
	t *testing.T,
	ctx context.Context,
	pool *pgxpool.Pool,
	roomID, senderID uuid.UUID,
	senderRole, kind, content string,
	read *bool,
	fileName *string,
	createdAt time.Time,
) uuid.UUID {
	t.Helper()

	var id uuid.UUID
	err := pool.QueryRow(ctx, `
		INSERT INTO chat_messages (room_id, sender_id, sender_role, type, content, read, file_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, roomID, senderID, senderRole, kind, content, read, fileName, createdAt).Scan(&id)
	if err != nil {
		t.Fatalf("create message: %v", err)
	}
	return id
}

func cleanupParticipants(t *testing.T, ctx context.Context, pool *pgxpool.Pool, ids ...uuid.UUID) {
	t.Helper()

	if _, err := pool.Exec(ctx, "DELETE FROM users WHERE id = ANY($1)", ids); err != nil {
		t.Fatalf("cleanup users: %v", err)
	}
	if _, err := pool.Exec(ctx, "DELETE FROM providers WHERE id = ANY($1)", ids); err != nil {
		t.Fatalf("cleanup providers: %v", err)
	}
}
