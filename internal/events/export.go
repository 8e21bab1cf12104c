package events

import (
	"fmt"

	"github.com/serma100000/Union-Beach-Library/internal/ics"
	appLog "github.com/serma100000/Union-Beach-Library/internal/log"
	"github.com/serma100000/Union-Beach-Library/internal/model"
)

// BulkFilename is the download name of an all-visible export.
const BulkFilename = "library-events.ics"

// export runs one export against the recomputed state s. A panic inside
// serialization is contained and reported as a failed export.
func (c *Controller) export(s State, req ExportRequested) (out *Export, err error) {
	defer func() {
		if p := recover(); p != nil {
			appLog.Error("events: export panicked", fmt.Errorf("%v", p), "kind", req.Kind, "id", req.ID)
			out, err = nil, fmt.Errorf("events: export failed: %v", p)
		}
	}()

	switch req.Kind {
	case ExportICSOne:
		rec, ok := c.Lookup(req.ID)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrEventNotFound, req.ID)
		}
		body, err := c.exporter.Calendar([]model.EventRecord{rec})
		if err != nil {
			return nil, err
		}
		return &Export{
			Kind:        ExportICSOne,
			Title:       rec.Title,
			Filename:    ics.Filename(rec.Title),
			ContentType: ics.ContentType,
			Body:        body,
			Count:       1,
		}, nil

	case ExportICSAll:
		visible := c.VisibleRecords(s)
		dated := make([]model.EventRecord, 0, len(visible))
		for _, r := range visible {
			if !r.DateKnown {
				appLog.Warn("events: skipping undated event in bulk export", "id", r.ID)
				continue
			}
			dated = append(dated, r)
		}
		if len(dated) == 0 {
			return nil, ics.ErrNoEvents
		}
		body, err := c.exporter.Calendar(dated)
		if err != nil {
			return nil, err
		}
		return &Export{
			Kind:        ExportICSAll,
			Filename:    BulkFilename,
			ContentType: ics.ContentType,
			Body:        body,
			Count:       len(dated),
		}, nil

	case ExportLink:
		var rec model.EventRecord
		if req.ID != "" {
			r, ok := c.Lookup(req.ID)
			if !ok {
				return nil, fmt.Errorf("%w: %q", ErrEventNotFound, req.ID)
			}
			rec = r
		} else {
			visible := c.VisibleRecords(s)
			if len(visible) == 0 {
				return nil, ics.ErrNoEvents
			}
			rec = visible[0]
		}
		u, err := ics.GoogleCalendarURL(rec)
		if err != nil {
			return nil, err
		}
		return &Export{
			Kind:  ExportLink,
			Title: rec.Title,
			URL:   u,
			Count: 1,
		}, nil

	default:
		return nil, fmt.Errorf("events: unknown export kind %q", req.Kind)
	}
}
