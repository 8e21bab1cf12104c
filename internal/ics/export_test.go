package ics

import (
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/serma100000/Union-Beach-Library/internal/model"
)

func newYork(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load zone: %v", err)
	}
	return loc
}

func fixedExporter() *Exporter {
	e := NewExporter("-//Test Library//Events//EN", "test.example", "")
	e.Now = func() time.Time { return time.Date(2025, 5, 20, 12, 0, 0, 0, time.UTC) }
	return e
}

func storyTime(t *testing.T) model.EventRecord {
	return model.EventRecord{
		ID:          "story-time",
		Title:       "Story Time",
		Type:        "children",
		Date:        time.Date(2025, 6, 1, 10, 0, 0, 0, newYork(t)),
		DateKnown:   true,
		Description: "Songs and\npicture books",
		Location:    "Main Hall",
	}
}

func TestCalendarSingleEvent(t *testing.T) {
	body, err := fixedExporter().Calendar([]model.EventRecord{storyTime(t)})
	if err != nil {
		t.Fatalf("Calendar: %v", err)
	}
	out := string(body)

	required := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//Test Library//Events//EN",
		"CALSCALE:GREGORIAN",
		"BEGIN:VEVENT",
		"SUMMARY:Story Time",
		"LOCATION:Main Hall",
		"DTSTART:20250601T140000Z",
		"DTEND:20250601T150000Z",
		"DTSTAMP:20250520T120000Z",
		"CREATED:20250520T120000Z",
		`DESCRIPTION:Songs and\npicture books`,
		"STATUS:CONFIRMED",
		"CATEGORIES:children",
		"END:VEVENT",
		"END:VCALENDAR",
	}
	for _, field := range required {
		if !strings.Contains(out, field) {
			t.Errorf("ICS output missing %q\n%s", field, out)
		}
	}
	if n := strings.Count(out, "BEGIN:VEVENT"); n != 1 {
		t.Errorf("VEVENT count = %d, want 1", n)
	}
	if !strings.Contains(out, "UID:") || !strings.Contains(out, "@test.example") {
		t.Errorf("UID missing domain:\n%s", out)
	}
}

func TestCalendarManyEventsKeepsOrder(t *testing.T) {
	a := storyTime(t)
	b := storyTime(t)
	b.Title = "Chess Club"
	b.Date = b.Date.Add(48 * time.Hour)

	body, err := fixedExporter().Calendar([]model.EventRecord{b, a})
	if err != nil {
		t.Fatalf("Calendar: %v", err)
	}
	out := string(body)
	if strings.Count(out, "BEGIN:VEVENT") != 2 {
		t.Fatalf("expected 2 VEVENTs:\n%s", out)
	}
	if strings.Index(out, "SUMMARY:Chess Club") > strings.Index(out, "SUMMARY:Story Time") {
		t.Error("VEVENTs should follow the given order")
	}
}

func TestCalendarRefusals(t *testing.T) {
	e := fixedExporter()
	if _, err := e.Calendar(nil); !errors.Is(err, ErrNoEvents) {
		t.Errorf("empty export err = %v, want ErrNoEvents", err)
	}
	bad := model.EventRecord{ID: "tbd", Title: "TBD"}
	if _, err := e.Calendar([]model.EventRecord{bad}); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("unknown date err = %v, want ErrInvalidDate", err)
	}
}

func TestUIDsAreUnique(t *testing.T) {
	e := NewExporter("", "test.example", "")
	seen := make(map[string]bool)
	for i := 0; i < 500; i++ {
		uid := e.UID()
		if seen[uid] {
			t.Fatalf("duplicate UID %q after %d exports", uid, i)
		}
		seen[uid] = true
	}
}

func TestFilename(t *testing.T) {
	cases := map[string]string{
		"Story Time":                "story-time.ics",
		"  Teen Gaming: Mario Kart!": "teen-gaming-mario-kart.ics",
		"Résumé 101":                "r-sum-101.ics",
		"!!!":                       "event.ics",
		"":                          "event.ics",
	}
	for in, want := range cases {
		if got := Filename(in); got != want {
			t.Errorf("Filename(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestGoogleCalendarURL(t *testing.T) {
	raw, err := GoogleCalendarURL(storyTime(t))
	if err != nil {
		t.Fatalf("GoogleCalendarURL: %v", err)
	}
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	if u.Host != "calendar.google.com" {
		t.Errorf("host = %q", u.Host)
	}
	q := u.Query()
	if q.Get("action") != "TEMPLATE" {
		t.Errorf("action = %q", q.Get("action"))
	}
	if q.Get("text") != "Story Time" || q.Get("location") != "Main Hall" {
		t.Errorf("text/location = %q/%q", q.Get("text"), q.Get("location"))
	}
	if q.Get("dates") != "20250601T140000Z/20250601T150000Z" {
		t.Errorf("dates = %q", q.Get("dates"))
	}
	if q.Get("details") != "Songs and\npicture books" {
		t.Errorf("details = %q", q.Get("details"))
	}

	if _, err := GoogleCalendarURL(model.EventRecord{ID: "x"}); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("unknown date err = %v", err)
	}
}
