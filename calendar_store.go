package main

import (
	"context"
	"time"
)

// Event is the store-neutral view of a calendar event. The core never
// caches these; every list/delete re-queries the store.
type Event struct {
	ID      string
	Summary string
	Start   time.Time
	End     time.Time
	Link    string
}

// CalendarInfo identifies a calendar by opaque id plus display name.
type CalendarInfo struct {
	ID      string
	Summary string
}

// CalendarStore is the contract the dispatcher executes against.
// Network calls, auth refresh and pagination are the backend's
// concern. Implementations: GoogleCalendarStore, CalDAVStore.
type CalendarStore interface {
	// InsertEvent creates an event and returns it with the
	// store-assigned id and link filled in.
	InsertEvent(ctx context.Context, calendarID string, event *Event, tzName string) (*Event, error)
	// ListEvents returns up to max events starting at or after from,
	// ordered by start time ascending, recurring instances expanded.
	// query, when non-empty, is a free-text filter.
	ListEvents(ctx context.Context, calendarID string, from time.Time, max int64, query string) ([]*Event, error)
	DeleteEvent(ctx context.Context, calendarID, eventID string) error
	// PatchEvent applies the non-zero fields of patch to an event.
	PatchEvent(ctx context.Context, calendarID, eventID string, patch *Event, tzName string) (*Event, error)
	ListCalendars(ctx context.Context) ([]CalendarInfo, error)
	CreateCalendar(ctx context.Context, name, tzName string) (CalendarInfo, error)
	DeleteCalendar(ctx context.Context, calendarID string) error
	// FindCalendar resolves a calendar by display name or id. ok is
	// false when nothing matches.
	FindCalendar(ctx context.Context, name string) (CalendarInfo, bool, error)
}
