package main

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
)

// Intent is the categorical operation the user wants performed.
type Intent string

const (
	IntentCreate          Intent = "create"
	IntentList            Intent = "list"
	IntentDelete          Intent = "delete"
	IntentModify          Intent = "modify"
	IntentListCalendars   Intent = "list_calendars"
	IntentCreateCalendar  Intent = "create_calendar"
	IntentDeleteCalendar  Intent = "delete_calendar"
)

var (
	// ErrUnsupportedIntent means the intent could not be determined
	// from the translation or the user text.
	ErrUnsupportedIntent = errors.New("unsupported intent")
	// ErrMissingSearchTerm guards delete/modify: without a summary to
	// search for we would be picking an event blind.
	ErrMissingSearchTerm = errors.New("missing search term")
)

const (
	defaultSummary     = "(untitled)"
	defaultStartHour   = 9
	defaultMaxResults  = 5
	maxListResults     = 50
	defaultEventLength = time.Hour
)

// CanonicalCommand is the validated, complete representation the
// dispatcher consumes. Every field the dispatcher reads for a given
// intent is present and well-typed once normalizeCommand returns; the
// dispatcher never re-validates.
type CanonicalCommand struct {
	Intent       Intent
	Summary      string
	Start        string // RFC3339 with explicit offset
	End          string // RFC3339 with explicit offset
	StartingFrom string // RFC3339 with explicit offset
	MaxResults   int64
	CalendarID   string
}

// normalizeCommand validates and completes a raw translation into a
// CanonicalCommand. raw may be missing fields or carry junk; userText
// is the original message, used for intent inference when the oracle
// dropped the intent entirely.
func normalizeCommand(raw RawTranslation, userText string, now time.Time, loc *time.Location, defaultCalendarID string) (*CanonicalCommand, error) {
	intent := Intent(rawString(raw, "intent"))
	if intent == "" {
		inferred, ok := inferIntent(userText)
		if !ok {
			return nil, fmt.Errorf("%w: no intent in translation and no lexical cue in %q", ErrUnsupportedIntent, userText)
		}
		intent = inferred
	}

	cmd := &CanonicalCommand{
		Intent:     intent,
		Summary:    stripEmoji(rawString(raw, "summary")),
		CalendarID: rawString(raw, "calendar_id"),
	}
	if cmd.CalendarID == "" {
		cmd.CalendarID = defaultCalendarID
	}

	switch intent {
	case IntentCreate:
		if cmd.Summary == "" {
			cmd.Summary = defaultSummary
		}
		start := rawString(raw, "start")
		if start == "" {
			start = time.Date(now.Year(), now.Month(), now.Day(), defaultStartHour, 0, 0, 0, loc).Format(time.RFC3339)
		}
		startISO, err := toAbsolute(start, loc)
		if err != nil {
			return nil, err
		}
		end := rawString(raw, "end")
		if end == "" {
			startT, _ := time.Parse(time.RFC3339, startISO)
			end = startT.Add(defaultEventLength).Format(time.RFC3339)
		}
		endISO, err := toAbsolute(end, loc)
		if err != nil {
			return nil, err
		}
		cmd.Start, cmd.End = startISO, endISO

	case IntentList:
		anchor, err := normalizeAnchor(raw, now, loc)
		if err != nil {
			return nil, err
		}
		cmd.StartingFrom = anchor
		cmd.MaxResults = rawInt(raw, "max_results", defaultMaxResults)
		if cmd.MaxResults < 1 {
			cmd.MaxResults = defaultMaxResults
		}
		if cmd.MaxResults > maxListResults {
			cmd.MaxResults = maxListResults
		}

	case IntentDelete, IntentModify:
		if cmd.Summary == "" {
			return nil, fmt.Errorf("%w: %s needs a summary to search for", ErrMissingSearchTerm, intent)
		}
		anchor, err := normalizeAnchor(raw, now, loc)
		if err != nil {
			return nil, err
		}
		cmd.StartingFrom = anchor
		if intent == IntentModify {
			// Optional replacement times; normalized when present.
			if s := rawString(raw, "start"); s != "" {
				iso, err := toAbsolute(s, loc)
				if err != nil {
					return nil, err
				}
				cmd.Start = iso
			}
			if e := rawString(raw, "end"); e != "" {
				iso, err := toAbsolute(e, loc)
				if err != nil {
					return nil, err
				}
				cmd.End = iso
			}
		}

	case IntentListCalendars:
		// Nothing to complete.

	case IntentCreateCalendar, IntentDeleteCalendar:
		// Summary carries the calendar name; identity resolution is the
		// dispatcher's job.
		if cmd.Summary == "" {
			return nil, fmt.Errorf("%w: %s needs a calendar name", ErrMissingSearchTerm, intent)
		}

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedIntent, intent)
	}

	return cmd, nil
}

// normalizeAnchor resolves starting_from, falling back to "start" (the
// oracle sometimes anchors a delete there) and finally to now.
func normalizeAnchor(raw RawTranslation, now time.Time, loc *time.Location) (string, error) {
	anchor := rawString(raw, "starting_from")
	if anchor == "" {
		anchor = rawString(raw, "start")
	}
	if anchor == "" {
		return now.In(loc).Format(time.RFC3339), nil
	}
	return toAbsolute(anchor, loc)
}

// Keyword families for inferring intent when the translation omits it.
// Matching is per lowercased word, so "reminder" does not trigger on
// the "remind" cue by substring accident.
var (
	deleteCues = wordSet("delete", "remove", "cancel", "drop", "scrap", "unschedule")
	listCues   = wordSet("list", "show", "view", "check", "upcoming", "agenda", "what", "whats")
	createCues = wordSet("remind", "reminder", "schedule", "add", "create", "book", "plan", "appointment", "meeting", "event")
)

func inferIntent(userText string) (Intent, bool) {
	normalized := strings.ReplaceAll(strings.ToLower(userText), "'", "")
	for _, word := range strings.Fields(normalized) {
		word = strings.TrimFunc(word, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r)
		})
		switch {
		case deleteCues[word]:
			return IntentDelete, true
		case listCues[word]:
			return IntentList, true
		case createCues[word]:
			return IntentCreate, true
		}
	}
	return "", false
}

func wordSet(words ...string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

// stripEmoji drops emoji and other pictographic decoration; calendar
// summaries are plain text.
func stripEmoji(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= 0x1F000 || r == 0xFE0F || r == 0x200D || unicode.Is(unicode.So, r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}

func rawString(raw RawTranslation, key string) string {
	if v, ok := raw[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func rawInt(raw RawTranslation, key string, def int64) int64 {
	switch v := raw[key].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case string:
		var n int64
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
			return n
		}
	}
	return def
}
