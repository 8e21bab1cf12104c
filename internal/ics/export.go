package ics

import (
	"errors"
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"github.com/serma100000/Union-Beach-Library/internal/model"
)

var (
	// ErrNoEvents is returned when an export is asked to serialize nothing.
	ErrNoEvents = errors.New("ics: no events to export")
	// ErrInvalidDate is returned for records whose start date is unknown.
	ErrInvalidDate = errors.New("ics: event has no valid date")
)

// ContentType is the MIME type of generated calendar files.
const ContentType = "text/calendar; charset=utf-8"

// utcStamp is the iCalendar UTC date-time form.
const utcStamp = "20060102T150405Z"

// Exporter serializes event records into iCalendar payloads.
type Exporter struct {
	ProdID   string
	Domain   string
	CalName  string
	Now      func() time.Time
	newToken func() (uuid.UUID, error)
}

// NewExporter returns an Exporter stamping calendars with prodID and UIDs
// with domain.
func NewExporter(prodID, domain, calName string) *Exporter {
	return &Exporter{
		ProdID:   prodID,
		Domain:   domain,
		CalName:  calName,
		Now:      time.Now,
		newToken: uuid.NewV7,
	}
}

// UID returns a fresh VEVENT identifier. UUIDv7 combines a millisecond
// timestamp with random bits, so two exports never share a UID.
func (e *Exporter) UID() string {
	id, err := e.newToken()
	if err != nil {
		id = uuid.New()
	}
	domain := e.Domain
	if domain == "" {
		domain = "localhost"
	}
	return id.String() + "@" + domain
}

// Calendar builds one VCALENDAR holding a VEVENT per record, in the given
// order. Every record must have a known date.
func (e *Exporter) Calendar(records []model.EventRecord) ([]byte, error) {
	if len(records) == 0 {
		return nil, ErrNoEvents
	}
	for _, r := range records {
		if !r.DateKnown {
			return nil, fmt.Errorf("%w: %s", ErrInvalidDate, r.ID)
		}
	}

	now := e.Now().UTC()

	cal := ical.NewCalendar()
	cal.SetProductId(e.ProdID)
	cal.SetCalscale("GREGORIAN")
	cal.SetMethod(ical.MethodPublish)
	if e.CalName != "" {
		cal.SetXWRCalName(e.CalName)
	}

	for _, r := range records {
		ev := cal.AddEvent(e.UID())
		ev.SetCreatedTime(now)
		ev.SetDtStampTime(now)
		ev.SetStartAt(r.Date)
		ev.SetEndAt(r.EndDate())
		ev.SetSummary(r.Title)
		if r.Description != "" {
			ev.SetDescription(r.Description)
		}
		if r.Location != "" {
			ev.SetLocation(r.Location)
		}
		ev.SetStatus(ical.ObjectStatusConfirmed)
		if r.Type != "" {
			ev.AddProperty(ical.ComponentPropertyCategories, r.Type)
		}
	}

	return []byte(cal.Serialize()), nil
}

// Filename derives a download name from an event title: lowercased, every
// run of non-alphanumeric characters replaced by a single '-'.
func Filename(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	name := strings.TrimSuffix(b.String(), "-")
	if name == "" {
		name = "event"
	}
	return name + ".ics"
}

// FormatUTC renders t in the iCalendar UTC form (YYYYMMDDThhmmssZ).
func FormatUTC(t time.Time) string {
	return t.UTC().Format(utcStamp)
}
