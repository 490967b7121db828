package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kolkataNow(t *testing.T) (time.Time, *time.Location) {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	now, err := time.ParseInLocation(time.RFC3339, "2025-01-10T08:00:00+05:30", loc)
	require.NoError(t, err)
	return now.In(loc), loc
}

func TestNormalizeCreateScenario(t *testing.T) {
	now, loc := kolkataNow(t)

	// "remind me to call mom tomorrow at 6pm" as translated by the
	// oracle.
	raw := RawTranslation{
		"intent":  "create",
		"summary": "call mom",
		"start":   "2025-01-11T18:00:00",
	}

	cmd, err := normalizeCommand(raw, "remind me to call mom tomorrow at 6pm", now, loc, "primary")
	require.NoError(t, err)

	assert.Equal(t, IntentCreate, cmd.Intent)
	assert.Equal(t, "call mom", cmd.Summary)
	assert.Equal(t, "2025-01-11T18:00:00+05:30", cmd.Start)
	assert.Equal(t, "2025-01-11T19:00:00+05:30", cmd.End)
	assert.Equal(t, "primary", cmd.CalendarID)
}

func TestNormalizeCreateDefaults(t *testing.T) {
	now, loc := kolkataNow(t)

	cmd, err := normalizeCommand(RawTranslation{"intent": "create"}, "add something", now, loc, "primary")
	require.NoError(t, err)

	assert.Equal(t, defaultSummary, cmd.Summary)
	assert.Equal(t, "2025-01-10T09:00:00+05:30", cmd.Start, "start defaults to today at 09:00 local")
	assert.Equal(t, "2025-01-10T10:00:00+05:30", cmd.End, "end defaults to start plus one hour")
}

func TestNormalizeCreateUnparsableStart(t *testing.T) {
	now, loc := kolkataNow(t)

	_, err := normalizeCommand(RawTranslation{"intent": "create", "start": "whenever"}, "add x", now, loc, "primary")
	assert.ErrorIs(t, err, ErrUnparsableTimestamp)
}

func TestNormalizeListDefaults(t *testing.T) {
	now, loc := kolkataNow(t)

	cmd, err := normalizeCommand(RawTranslation{"intent": "list"}, "show my events", now, loc, "primary")
	require.NoError(t, err)

	assert.Equal(t, int64(5), cmd.MaxResults)
	assert.Equal(t, "2025-01-10T08:00:00+05:30", cmd.StartingFrom, "starting_from defaults to now")
}

func TestNormalizeListClampsMaxResults(t *testing.T) {
	now, loc := kolkataNow(t)

	cmd, err := normalizeCommand(RawTranslation{"intent": "list", "max_results": float64(1000)}, "", now, loc, "primary")
	require.NoError(t, err)
	assert.Equal(t, int64(50), cmd.MaxResults)

	cmd, err = normalizeCommand(RawTranslation{"intent": "list", "max_results": float64(-3)}, "", now, loc, "primary")
	require.NoError(t, err)
	assert.Equal(t, int64(5), cmd.MaxResults)
}

func TestNormalizeDeleteRequiresSearchTerm(t *testing.T) {
	now, loc := kolkataNow(t)

	_, err := normalizeCommand(RawTranslation{"intent": "delete"}, "delete it", now, loc, "primary")
	assert.ErrorIs(t, err, ErrMissingSearchTerm)
}

func TestNormalizeDeleteAnchorDefaultsToNow(t *testing.T) {
	now, loc := kolkataNow(t)

	cmd, err := normalizeCommand(RawTranslation{"intent": "delete", "summary": "dentist"}, "", now, loc, "primary")
	require.NoError(t, err)
	assert.Equal(t, "2025-01-10T08:00:00+05:30", cmd.StartingFrom)
}

func TestNormalizeModifyNormalizesNewTimes(t *testing.T) {
	now, loc := kolkataNow(t)

	cmd, err := normalizeCommand(RawTranslation{
		"intent":  "modify",
		"summary": "standup",
		"start":   "2025-01-12T10:00:00",
	}, "", now, loc, "primary")
	require.NoError(t, err)

	assert.Equal(t, "2025-01-12T10:00:00+05:30", cmd.Start)
	assert.Empty(t, cmd.End)
}

func TestNormalizeInfersIntentFromText(t *testing.T) {
	now, loc := kolkataNow(t)

	tests := []struct {
		text string
		want Intent
	}{
		{"remind me to call mom tomorrow at 6pm", IntentCreate},
		{"schedule lunch with priya on friday", IntentCreate},
		{"book a dentist appointment", IntentCreate},
		{"cancel my dentist appointment", IntentDelete},
		{"remove the standup meeting", IntentDelete},
		{"show my events for next week", IntentList},
		{"what's on my agenda today", IntentList},
		{"list upcoming events", IntentList},
	}

	for _, tt := range tests {
		raw := RawTranslation{"summary": "x"}
		cmd, err := normalizeCommand(raw, tt.text, now, loc, "primary")
		require.NoError(t, err, "text: %s", tt.text)
		assert.Equal(t, tt.want, cmd.Intent, "text: %s", tt.text)
	}
}

func TestNormalizeFailsWithoutAnyCue(t *testing.T) {
	now, loc := kolkataNow(t)

	_, err := normalizeCommand(RawTranslation{}, "xyzzy", now, loc, "primary")
	assert.ErrorIs(t, err, ErrUnsupportedIntent)
}

func TestNormalizeRejectsUnknownIntent(t *testing.T) {
	now, loc := kolkataNow(t)

	_, err := normalizeCommand(RawTranslation{"intent": "teleport"}, "", now, loc, "primary")
	assert.ErrorIs(t, err, ErrUnsupportedIntent)
}

func TestNormalizeCalendarManagement(t *testing.T) {
	now, loc := kolkataNow(t)

	cmd, err := normalizeCommand(RawTranslation{"intent": "create_calendar", "summary": "Work"}, "", now, loc, "primary")
	require.NoError(t, err)
	assert.Equal(t, IntentCreateCalendar, cmd.Intent)
	assert.Equal(t, "Work", cmd.Summary)

	_, err = normalizeCommand(RawTranslation{"intent": "delete_calendar"}, "", now, loc, "primary")
	assert.ErrorIs(t, err, ErrMissingSearchTerm)

	cmd, err = normalizeCommand(RawTranslation{"intent": "list_calendars"}, "", now, loc, "primary")
	require.NoError(t, err)
	assert.Equal(t, IntentListCalendars, cmd.Intent)
}

func TestStripEmoji(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"call mom", "call mom"},
		{"call mom 📞", "call mom"},
		{"🎉 party 🎊", "party"},
		{"lunch ☕ with priya", "lunch  with priya"},
		{"thumbs 👍🏽 up", "thumbs  up"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, stripEmoji(tt.in), "input: %q", tt.in)
	}
}

func TestRawIntCoercions(t *testing.T) {
	assert.Equal(t, int64(7), rawInt(RawTranslation{"n": float64(7)}, "n", 5))
	assert.Equal(t, int64(7), rawInt(RawTranslation{"n": "7"}, "n", 5))
	assert.Equal(t, int64(5), rawInt(RawTranslation{"n": true}, "n", 5))
	assert.Equal(t, int64(5), rawInt(RawTranslation{}, "n", 5))
}
