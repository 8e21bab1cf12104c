package events

import (
	"time"

	"github.com/serma100000/Union-Beach-Library/internal/model"
)

func matchesType(r model.EventRecord, typeFilter string) bool {
	if typeFilter == "" || typeFilter == model.TypeAll {
		return true
	}
	return r.Type == typeFilter
}

// matchesDate evaluates a date filter against today (local midnight).
// Records with an unknown date only pass DateAll.
func matchesDate(r model.EventRecord, f DateFilter, today time.Time, loc *time.Location) bool {
	if f == DateAll {
		return true
	}
	if !r.DateKnown {
		return false
	}

	d := r.Date.In(loc)
	switch f {
	case DateUpcoming:
		return !d.Before(today)

	case DateThisWeek:
		return !d.Before(today) && !d.After(today.AddDate(0, 0, 7))

	case DateThisMonth:
		return !d.Before(today) && sameMonth(d, today)

	case DateNextMonth:
		// First of next month, so Jan 31 does not roll into March.
		next := time.Date(today.Year(), today.Month()+1, 1, 0, 0, 0, 0, loc)
		return sameMonth(d, next)

	default:
		return false
	}
}

func sameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}
