package markup

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	appLog "github.com/serma100000/Union-Beach-Library/internal/log"
	"github.com/serma100000/Union-Beach-Library/internal/model"
)

// SourceMarkup tags records that came from the page markup.
const SourceMarkup = "markup"

var errUnparseableDate = errors.New("unparseable date")

// Options controls how raw markup events become records.
type Options struct {
	// Location is the site timezone used for zoneless dates. If nil,
	// time.Local is used.
	Location *time.Location

	// MaxOccurrences caps recurring program expansion. If zero,
	// defaultMaxOccurrences is used.
	MaxOccurrences int
}

// dateLayouts are tried in order; zoneless layouts are read in
// Options.Location.
var dateLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Load scans r and builds the record set in one step.
func Load(r io.Reader, opts Options) ([]model.EventRecord, error) {
	raws, err := Scan(r)
	if err != nil {
		return nil, err
	}
	return Build(raws, opts), nil
}

// Build turns raw markup events into records in markup order. It never
// fails as a whole: a bad date keeps the record with DateKnown=false and a
// bad recurrence rule keeps the single base record.
func Build(raws []RawEvent, opts Options) []model.EventRecord {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.MaxOccurrences <= 0 {
		opts.MaxOccurrences = defaultMaxOccurrences
	}

	out := make([]model.EventRecord, 0, len(raws))
	for i, raw := range raws {
		rec := model.EventRecord{
			ID:          raw.ID,
			Title:       raw.Title,
			Type:        normalizeType(raw.Type),
			Description: raw.Description,
			Location:    raw.Location,
			Source:      SourceMarkup,
		}
		if rec.ID == "" {
			rec.ID = "event-" + strconv.Itoa(i+1)
		}

		start, err := ParseDate(raw.DateText, opts.Location)
		if err != nil {
			appLog.Warn("markup: event date not parseable; excluded from date filters",
				"id", rec.ID,
				"title", rec.Title,
				"date", raw.DateText,
			)
		} else {
			rec.Date = start
			rec.DateKnown = true
		}

		if raw.RRule != "" && rec.DateKnown {
			occ, err := expandRecurring(rec, raw.RRule, opts.MaxOccurrences)
			if err == nil {
				out = append(out, occ...)
				continue
			}
			appLog.Error("markup: invalid recurrence rule; keeping base event", err,
				"id", rec.ID,
				"rrule", raw.RRule,
			)
		}
		out = append(out, rec)
	}

	return Finalize(out)
}

// ParseDate parses an ISO-8601 style date/time. Values with an offset keep
// it; zoneless values are interpreted in loc (time.Local if nil).
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errUnparseableDate
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.In(loc), nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", errUnparseableDate, s)
}

// Finalize assigns load positions and makes ids unique across the whole
// set. A repeated id gets a "-2", "-3", ... suffix in load order.
func Finalize(records []model.EventRecord) []model.EventRecord {
	used := make(map[string]bool, len(records))
	for i := range records {
		records[i].Position = i
		if records[i].ID == "" {
			records[i].ID = "event-" + strconv.Itoa(i+1)
		}
		id := records[i].ID
		for n := 2; used[id]; n++ {
			id = records[i].ID + "-" + strconv.Itoa(n)
		}
		used[id] = true
		records[i].ID = id
	}
	return records
}

func normalizeType(t string) string {
	t = strings.ToLower(strings.TrimSpace(t))
	if t == model.TypeAll {
		return ""
	}
	return t
}
