package chatlist

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/Webizinnovation/serveEz-sub003/internal/models"
)

const (
	emptyRoomPreview = "Start a conversation"
	labelToday       = "Today"
	labelYesterday   = "Yesterday"
	dateLayout       = "Jan 2, 2006"
)

// Derive projects rooms into list entries ordered for display and returns
// them with the sum of their unread counts.
func Derive(rooms []models.Room, role Role, now time.Time, loc *time.Location) ([]models.ChatListEntry, int) {
	if loc == nil {
		loc = time.UTC
	}

	entries := make([]models.ChatListEntry, 0, len(rooms))
	total := 0
	for _, room := range rooms {
		entry := deriveEntry(room, role, now, loc)
		total += entry.UnreadCount
		entries = append(entries, entry)
	}

	SortEntries(entries)
	return entries, total
}

func deriveEntry(room models.Room, role Role, now time.Time, loc *time.Location) models.ChatListEntry {
	entry := models.ChatListEntry{
		RoomID:            room.ID,
		CounterpartID:     room.Counterpart.ID,
		CounterpartName:   room.Counterpart.DisplayName,
		CounterpartAvatar: room.Counterpart.AvatarURL,
		UnreadCount:       UnreadCount(room.Messages, role.Counterpart),
		LastMessage:       emptyRoomPreview,
		RoomCreatedAt:     room.CreatedAt,
	}

	if last, ok := LastMessage(room.Messages); ok {
		createdAt := last.CreatedAt
		entry.LastMessage = FormatPreview(last)
		entry.LastMessageAt = &createdAt
		entry.FormattedDate = DateLabel(createdAt, now, loc)
	}
	return entry
}

// LastMessage returns the newest message of a room.
func LastMessage(messages []models.ChatMessage) (models.ChatMessage, bool) {
	if len(messages) == 0 {
		return models.ChatMessage{}, false
	}
	sorted := slices.Clone(messages)
	slices.SortStableFunc(sorted, func(a, b models.ChatMessage) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return sorted[0], true
}

// UnreadCount counts messages sent by counterpart whose read flag is not true.
func UnreadCount(messages []models.ChatMessage, counterpart models.ParticipantRole) int {
	count := 0
	for _, message := range messages {
		if message.SenderRole == counterpart && !message.IsRead() {
			count++
		}
	}
	return count
}

func FormatPreview(message models.ChatMessage) string {
	switch message.Kind {
	case models.MessageImage:
		return "📷 " + nameOr(message.FileName, "Photo")
	case models.MessageFile:
		return "📎 " + nameOr(message.FileName, "File")
	case models.MessageVoice:
		return fmt.Sprintf("🎤 Voice note (%s)", FormatVoiceDuration(message.Duration))
	default:
		return message.Content
	}
}

// FormatVoiceDuration renders a millisecond duration as M:SS.
func FormatVoiceDuration(raw *string) string {
	ms := 0.0
	if raw != nil {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(*raw), 64); err == nil && parsed > 0 {
			ms = parsed
		}
	}
	seconds := int(ms / 1000)
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// DateLabel compares calendar dates in loc.
func DateLabel(t, now time.Time, loc *time.Location) string {
	local := t.In(loc)
	day := startOfDay(local)
	today := startOfDay(now.In(loc))

	switch {
	case day.Equal(today):
		return labelToday
	case day.Equal(today.AddDate(0, 0, -1)):
		return labelYesterday
	default:
		return local.Format(dateLayout)
	}
}

// SortEntries orders entries by last message time, newest first. Rooms
// without messages go last, newest room first.
func SortEntries(entries []models.ChatListEntry) {
	slices.SortStableFunc(entries, func(a, b models.ChatListEntry) int {
		switch {
		case a.LastMessageAt != nil && b.LastMessageAt != nil:
			return b.LastMessageAt.Compare(*a.LastMessageAt)
		case a.LastMessageAt != nil:
			return -1
		case b.LastMessageAt != nil:
			return 1
		default:
			return b.RoomCreatedAt.Compare(a.RoomCreatedAt)
		}
	})
}

func startOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

func nameOr(name *string, fallback string) string {
	if name == nil || strings.TrimSpace(*name) == "" {
		return fallback
	}
	return *name
}
