package events

import (
	"errors"
	"fmt"

	"github.com/serma100000/Union-Beach-Library/internal/ics"
)

// Live-region messages.
const (
	MsgNoEvents     = "No events to export."
	MsgExportFailed = "Unable to export event"
)

func showingMessage(n int) string {
	if n == 1 {
		return "Showing 1 event"
	}
	return fmt.Sprintf("Showing %d events", n)
}

func clearedMessage(n int) string {
	return "Filters cleared. " + showingMessage(n)
}

var sortLabels = map[SortKey]string{
	SortDateAsc:  "date (earliest first)",
	SortDateDesc: "date (latest first)",
	SortTitle:    "title",
	SortType:     "event type",
}

// SortLabel is the human label of a sort key.
func SortLabel(k SortKey) string {
	if l, ok := sortLabels[k]; ok {
		return l
	}
	return string(k)
}

func sortedMessage(k SortKey, n int) string {
	return "Sorted by " + SortLabel(k) + ". " + showingMessage(n)
}

func exportMessage(e *Export, err error) string {
	if err != nil {
		if errors.Is(err, ics.ErrNoEvents) {
			return MsgNoEvents
		}
		return MsgExportFailed
	}
	switch e.Kind {
	case ExportICSAll:
		if e.Count == 1 {
			return "Exported 1 event to " + e.Filename
		}
		return fmt.Sprintf("Exported %d events to %s", e.Count, e.Filename)
	case ExportLink:
		return fmt.Sprintf("Opening %q in Google Calendar", e.Title)
	default:
		return "Exported event to " + e.Filename
	}
}
