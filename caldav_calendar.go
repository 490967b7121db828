package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav"
	"github.com/emersion/go-webdav/caldav"
)

// CalDAVStore adapts a CalDAV server to the CalendarStore contract.
// Calendar ids are collection URLs; event ids are the VEVENT UIDs,
// which double as the .ics resource names.
type CalDAVStore struct {
	client    *caldav.Client
	serverURL string
}

func NewCalDAVStore(ctx context.Context, serverURL, username, password string) (*CalDAVStore, error) {
	baseURL, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid CalDAV server URL: %w", err)
	}

	var httpClient webdav.HTTPClient = http.DefaultClient
	if username != "" && password != "" {
		httpClient = webdav.HTTPClientWithBasicAuth(httpClient, username, password)
	}

	c, err := caldav.NewClient(httpClient, baseURL.String())
	if err != nil {
		return nil, fmt.Errorf("failed to create CalDAV client: %w", err)
	}

	// Test connection; empty path means server root.
	if _, err := c.FindCalendars(ctx, ""); err != nil {
		return nil, fmt.Errorf("failed to connect to CalDAV server: %w", err)
	}

	return &CalDAVStore{client: c, serverURL: serverURL}, nil
}

func (c *CalDAVStore) InsertEvent(ctx context.Context, calendarID string, event *Event, tzName string) (*Event, error) {
	calURL, err := url.Parse(calendarID)
	if err != nil {
		return nil, fmt.Errorf("invalid calendar URL: %w", err)
	}

	eventUID := "calbot-" + time.Now().UTC().Format("20060102T150405Z")

	icalEvent := ical.NewEvent()
	icalEvent.Component.Props.SetText("UID", eventUID)
	icalEvent.Component.Props.SetText("SUMMARY", event.Summary)
	icalEvent.Component.Props.SetDateTime("DTSTART", event.Start)
	icalEvent.Component.Props.SetDateTime("DTEND", event.End)
	icalEvent.Component.Props.SetText("STATUS", "CONFIRMED")

	cal := ical.NewCalendar()
	cal.Component.Children = append(cal.Component.Children, icalEvent.Component)

	path := calURL.Path + "/" + eventUID + ".ics"
	if _, err := c.client.PutCalendarObject(ctx, path, cal); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	return &Event{
		ID:      eventUID,
		Summary: event.Summary,
		Start:   event.Start,
		End:     event.End,
	}, nil
}

func (c *CalDAVStore) ListEvents(ctx context.Context, calendarID string, from time.Time, max int64, query string) ([]*Event, error) {
	calURL, err := url.Parse(calendarID)
	if err != nil {
		return nil, fmt.Errorf("invalid calendar URL: %w", err)
	}

	// CalDAV time-range filters need an upper bound; a year covers
	// every window the dispatcher asks for.
	davQuery := &caldav.CalendarQuery{
		CompFilter: caldav.CompFilter{
			Name: "VCALENDAR",
			Comps: []caldav.CompFilter{{
				Name:  "VEVENT",
				Start: from,
				End:   from.AddDate(1, 0, 0),
			}},
		},
	}

	objects, err := c.client.QueryCalendar(ctx, calURL.Path, davQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	var result []*Event
	for _, obj := range objects {
		for _, comp := range obj.Data.Component.Children {
			if comp.Name != "VEVENT" {
				continue
			}

			summary := getTextProp(comp.Props, "SUMMARY")
			if query != "" && !strings.Contains(strings.ToLower(summary), strings.ToLower(query)) {
				continue
			}

			start, _ := comp.Props.DateTime("DTSTART", time.UTC)
			end, _ := comp.Props.DateTime("DTEND", time.UTC)
			if start.Before(from) {
				continue
			}

			result = append(result, &Event{
				ID:      getTextProp(comp.Props, "UID"),
				Summary: summary,
				Start:   start,
				End:     end,
			})
		}
	}

	// Servers are not required to order query results.
	sort.Slice(result, func(i, j int) bool {
		return result[i].Start.Before(result[j].Start)
	})
	if max > 0 && int64(len(result)) > max {
		result = result[:max]
	}
	return result, nil
}

func (c *CalDAVStore) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	calURL, err := url.Parse(calendarID)
	if err != nil {
		return fmt.Errorf("invalid calendar URL: %w", err)
	}

	path := calURL.Path + "/" + eventID + ".ics"
	if err := c.client.Client.RemoveAll(ctx, path); err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	return nil
}

func (c *CalDAVStore) PatchEvent(ctx context.Context, calendarID, eventID string, patch *Event, tzName string) (*Event, error) {
	calURL, err := url.Parse(calendarID)
	if err != nil {
		return nil, fmt.Errorf("invalid calendar URL: %w", err)
	}

	path := calURL.Path + "/" + eventID + ".ics"
	object, err := c.client.GetCalendarObject(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	var eventComp *ical.Component
	for _, comp := range object.Data.Component.Children {
		if comp.Name == "VEVENT" {
			eventComp = comp
			break
		}
	}
	if eventComp == nil {
		return nil, fmt.Errorf("no VEVENT component found in calendar object")
	}

	if patch.Summary != "" {
		eventComp.Props.SetText("SUMMARY", patch.Summary)
	}
	if !patch.Start.IsZero() {
		eventComp.Props.SetDateTime("DTSTART", patch.Start)
	}
	if !patch.End.IsZero() {
		eventComp.Props.SetDateTime("DTEND", patch.End)
	}

	if _, err := c.client.PutCalendarObject(ctx, path, object.Data); err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}

	start, _ := eventComp.Props.DateTime("DTSTART", time.UTC)
	end, _ := eventComp.Props.DateTime("DTEND", time.UTC)
	return &Event{
		ID:      eventID,
		Summary: getTextProp(eventComp.Props, "SUMMARY"),
		Start:   start,
		End:     end,
	}, nil
}

func (c *CalDAVStore) ListCalendars(ctx context.Context) ([]CalendarInfo, error) {
	calendars, err := c.client.FindCalendars(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to find calendars: %w", err)
	}

	var result []CalendarInfo
	for _, cal := range calendars {
		result = append(result, CalendarInfo{ID: cal.Path, Summary: cal.Name})
	}
	return result, nil
}

// CreateCalendar is not supported over CalDAV: MKCALENDAR is not
// exposed by the client, and most hosted servers disallow it anyway.
func (c *CalDAVStore) CreateCalendar(ctx context.Context, name, tzName string) (CalendarInfo, error) {
	return CalendarInfo{}, fmt.Errorf("CalDAV backend cannot create calendars; create %q on the server first", name)
}

func (c *CalDAVStore) DeleteCalendar(ctx context.Context, calendarID string) error {
	calURL, err := url.Parse(calendarID)
	if err != nil {
		return fmt.Errorf("invalid calendar URL: %w", err)
	}
	if err := c.client.Client.RemoveAll(ctx, calURL.Path); err != nil {
		return fmt.Errorf("failed to delete calendar: %w", err)
	}
	return nil
}

func (c *CalDAVStore) FindCalendar(ctx context.Context, name string) (CalendarInfo, bool, error) {
	calendars, err := c.client.FindCalendars(ctx, "")
	if err != nil {
		return CalendarInfo{}, false, fmt.Errorf("failed to find calendars: %w", err)
	}

	for _, cal := range calendars {
		if cal.Path == name || strings.EqualFold(cal.Name, name) {
			return CalendarInfo{ID: cal.Path, Summary: cal.Name}, true, nil
		}
	}
	return CalendarInfo{}, false, nil
}

// Helper function to get text property safely
func getTextProp(props ical.Props, name string) string {
	prop := props.Get(name)
	if prop == nil {
		return ""
	}
	return prop.Value
}

var _ CalendarStore = (*CalDAVStore)(nil)
