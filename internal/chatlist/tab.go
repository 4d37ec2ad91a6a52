package chatlist

import (
	"fmt"
	"strings"

	"github.com/Webizinnovation/serveEz-sub003/internal/models"
)

type Tab string

const (
	TabAll    Tab = "all"
	TabUnread Tab = "unread"
	TabRead   Tab = "read"
)

func ParseTab(raw string) (Tab, error) {
	switch Tab(strings.ToLower(strings.TrimSpace(raw))) {
	case "", TabAll:
		return TabAll, nil
	case TabUnread:
		return TabUnread, nil
	case TabRead:
		return TabRead, nil
	default:
		return "", fmt.Errorf("unknown tab %q", raw)
	}
}

// FilterEntries applies the tab over an in-memory list without refetching.
func FilterEntries(entries []models.ChatListEntry, tab Tab) []models.ChatListEntry {
	filtered := make([]models.ChatListEntry, 0, len(entries))
	for _, entry := range entries {
		switch tab {
		case TabUnread:
			if entry.UnreadCount == 0 {
				continue
			}
		case TabRead:
			if entry.UnreadCount > 0 {
				continue
			}
		}
		filtered = append(filtered, entry)
	}
	return filtered
}
