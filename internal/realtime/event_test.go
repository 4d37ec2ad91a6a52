package realtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterMatch(t *testing.T) {
	roomID := "2b1d6c1e-7d0a-4b9e-9a53-0d8a3e2f1c11"
	insert := Event{
		Table:  "chat_messages",
		Type:   EventInsert,
		Record: map[string]any{"id": "m1", "room_id": roomID},
	}
	deleted := Event{
		Table:     "chat_messages",
		Type:      EventDelete,
		OldRecord: map[string]any{"id": "m2", "room_id": roomID},
	}

	tests := []struct {
		name   string
		filter Filter
		event  Event
		want   bool
	}{
		{"any matches everything", Any(), insert, true},
		{"table only", Filter{Table: "chat_messages"}, insert, true},
		{"other table", Eq("chat_rooms", "user_id", "u1"), insert, false},
		{"eq on record", Eq("chat_messages", "room_id", roomID), insert, true},
		{"eq mismatch", Eq("chat_messages", "room_id", "other"), insert, false},
		{"in list", In("chat_messages", "room_id", []string{"x", roomID}), insert, true},
		{"empty in list", In("chat_messages", "room_id", nil), insert, false},
		{"delete uses old record", Eq("chat_messages", "room_id", roomID), deleted, true},
		{"missing column", Eq("chat_messages", "sender_id", "u1"), insert, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Match(tt.event))
		})
	}
}

func TestInCopiesValues(t *testing.T) {
	values := []string{"a"}
	filter := In("chat_messages", "room_id", values)
	values[0] = "b"

	assert.Equal(t, []string{"a"}, filter.Values)
}
