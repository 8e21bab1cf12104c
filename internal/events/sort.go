package events

import (
	"sort"

	"golang.org/x/text/collate"

	"github.com/serma100000/Union-Beach-Library/internal/model"
)

// sortOrder returns all record indexes in presentation order for key.
// The sort is stable over load order, and records with an unknown date go
// last in both date orders.
func (c *Controller) sortOrder(key SortKey) []int {
	order := make([]int, len(c.records))
	for i := range order {
		order[i] = i
	}

	var less func(a, b model.EventRecord) bool
	switch key {
	case SortDateDesc:
		less = func(a, b model.EventRecord) bool {
			if a.DateKnown != b.DateKnown {
				return a.DateKnown
			}
			return a.Date.After(b.Date)
		}
	case SortTitle:
		// Collators are not safe for concurrent use; one per sort.
		col := collate.New(c.locale)
		less = func(a, b model.EventRecord) bool {
			return col.CompareString(a.Title, b.Title) < 0
		}
	case SortType:
		col := collate.New(c.locale)
		less = func(a, b model.EventRecord) bool {
			return col.CompareString(a.Type, b.Type) < 0
		}
	default:
		less = func(a, b model.EventRecord) bool {
			if a.DateKnown != b.DateKnown {
				return a.DateKnown
			}
			return a.Date.Before(b.Date)
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return less(c.records[order[i]], c.records[order[j]])
	})
	return order
}
