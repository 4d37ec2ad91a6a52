package realtime

import (
	"fmt"
	"slices"
)

type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"
)

// Event is one row change as emitted by the chat_changes notify triggers.
type Event struct {
	Table     string         `json:"table"`
	Type      EventType      `json:"type"`
	Record    map[string]any `json:"record,omitempty"`
	OldRecord map[string]any `json:"old_record,omitempty"`
}

// Filter selects events of one table. An empty Column matches every row of
// Table; an empty Table matches every event.
type Filter struct {
	Table  string
	Column string
	Values []string
}

func Any() Filter {
	return Filter{}
}

func Eq(table, column, value string) Filter {
	return Filter{Table: table, Column: column, Values: []string{value}}
}

func In(table, column string, values []string) Filter {
	return Filter{Table: table, Column: column, Values: slices.Clone(values)}
}

func (f Filter) Match(event Event) bool {
	if f.Table == "" {
		return true
	}
	if f.Table != event.Table {
		return false
	}
	if f.Column == "" {
		return true
	}
	return f.matchRecord(event.Record) || f.matchRecord(event.OldRecord)
}

func (f Filter) matchRecord(record map[string]any) bool {
	if record == nil {
		return false
	}
	value, ok := record[f.Column]
	if !ok || value == nil {
		return false
	}
	return slices.Contains(f.Values, fmt.Sprint(value))
}

func (f Filter) String() string {
	switch {
	case f.Table == "":
		return "*"
	case f.Column == "":
		return f.Table
	case len(f.Values) == 1:
		return fmt.Sprintf("%s:%s=eq.%s", f.Table, f.Column, f.Values[0])
	default:
		return fmt.Sprintf("%s:%s=in.(%d)", f.Table, f.Column, len(f.Values))
	}
}
