package ics

import (
	"errors"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	appLog "github.com/serma100000/Union-Beach-Library/internal/log"
	"github.com/serma100000/Union-Beach-Library/internal/model"
)

const defaultMaxOccurrencesPerEvent = 52

// ExpandConfig controls how feed events become records.
type ExpandConfig struct {
	// DisplayLocation is the site timezone records are converted to.
	// If nil, time.Local is used.
	DisplayLocation *time.Location

	// RangeStart / RangeEnd bound the occurrences of recurring events.
	RangeStart time.Time
	RangeEnd   time.Time

	// MaxOccurrencesPerEvent caps expansion of a single recurring event.
	MaxOccurrencesPerEvent int
}

// FeedRecords turns parsed feed events into site records, expanding RRULEs
// (minus EXDATEs) inside the configured range. Cancelled events are
// dropped. Record ids are "<source id>-<uid>" plus the occurrence date for
// recurring events; the caller makes them unique across the full set.
func FeedRecords(events []FeedEvent, cfg ExpandConfig) ([]model.EventRecord, error) {
	if cfg.RangeEnd.Before(cfg.RangeStart) {
		return nil, errors.New("ics: RangeEnd is before RangeStart")
	}
	if cfg.DisplayLocation == nil {
		cfg.DisplayLocation = time.Local
	}
	if cfg.MaxOccurrencesPerEvent <= 0 {
		cfg.MaxOccurrencesPerEvent = defaultMaxOccurrencesPerEvent
	}

	out := make([]model.EventRecord, 0, len(events))
	for _, ev := range events {
		if ev.Cancelled {
			continue
		}
		if ev.RawRRule == "" {
			out = append(out, feedRecord(ev, ev.Start, cfg.DisplayLocation, ""))
			continue
		}
		out = append(out, expandRecurringFeedEvent(ev, cfg)...)
	}
	return out, nil
}

func expandRecurringFeedEvent(ev FeedEvent, cfg ExpandConfig) []model.EventRecord {
	r, err := rrule.StrToRRule(ev.RawRRule)
	if err != nil {
		appLog.Error("ics: failed to parse RRULE; keeping first occurrence", err, "uid", ev.UID, "rrule", ev.RawRRule)
		return []model.EventRecord{feedRecord(ev, ev.Start, cfg.DisplayLocation, "")}
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	times := set.Between(cfg.RangeStart.In(ev.Start.Location()), cfg.RangeEnd.In(ev.Start.Location()), true)
	if len(times) > cfg.MaxOccurrencesPerEvent {
		appLog.Warn("ics: truncated recurring feed event", "uid", ev.UID, "cap", cfg.MaxOccurrencesPerEvent)
		times = times[:cfg.MaxOccurrencesPerEvent]
	}

	out := make([]model.EventRecord, 0, len(times))
	for _, t := range times {
		out = append(out, feedRecord(ev, t, cfg.DisplayLocation, t.In(cfg.DisplayLocation).Format("20060102")))
	}
	return out
}

func feedRecord(ev FeedEvent, start time.Time, loc *time.Location, suffix string) model.EventRecord {
	id := ev.Source.ID + "-" + ev.UID
	if suffix != "" {
		id += "-" + suffix
	}
	return model.EventRecord{
		ID:          id,
		Title:       ev.Summary,
		Type:        normalizeCategory(ev.Categories),
		Date:        start.In(loc),
		DateKnown:   !start.IsZero(),
		Description: ev.Description,
		Location:    ev.Location,
		Source:      ev.Source.ID,
	}
}

func normalizeCategory(c string) string {
	c = strings.ToLower(strings.TrimSpace(c))
	if c == model.TypeAll {
		return ""
	}
	return c
}
