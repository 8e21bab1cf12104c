package ics

import (
	"fmt"
	"net/url"

	"github.com/serma100000/Union-Beach-Library/internal/model"
)

// GoogleCalendarBase is the event-template endpoint of Google Calendar.
const GoogleCalendarBase = "https://calendar.google.com/calendar/render"

// GoogleCalendarURL builds a deep link that pre-fills a new Google Calendar
// event with the record's title, time range, description and location.
func GoogleCalendarURL(r model.EventRecord) (string, error) {
	if !r.DateKnown {
		return "", fmt.Errorf("%w: %s", ErrInvalidDate, r.ID)
	}

	q := url.Values{}
	q.Set("action", "TEMPLATE")
	q.Set("text", r.Title)
	q.Set("dates", FormatUTC(r.Date)+"/"+FormatUTC(r.EndDate()))
	q.Set("details", r.Description)
	q.Set("location", r.Location)

	return GoogleCalendarBase + "?" + q.Encode(), nil
}
