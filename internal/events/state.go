// Package events is the calendar page's event list controller: a pure
// Reduce(state, action) over an immutable record set, covering filtering,
// sorting, clearing and export.
package events

import (
	"strings"

	"github.com/serma100000/Union-Beach-Library/internal/model"
)

// DateFilter selects records relative to today (local midnight).
type DateFilter string

const (
	DateAll       DateFilter = "all"
	DateUpcoming  DateFilter = "upcoming"
	DateThisWeek  DateFilter = "this-week"
	DateThisMonth DateFilter = "this-month"
	DateNextMonth DateFilter = "next-month"
)

// DateFilters lists the date filters in the order the page offers them.
var DateFilters = []DateFilter{DateAll, DateUpcoming, DateThisWeek, DateThisMonth, DateNextMonth}

// ParseDateFilter maps user input to a DateFilter; unknown input means
// DateUpcoming.
func ParseDateFilter(s string) DateFilter {
	d := DateFilter(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range DateFilters {
		if d == known {
			return d
		}
	}
	return DateUpcoming
}

// SortKey selects the presentation order.
type SortKey string

const (
	SortDateAsc  SortKey = "date-asc"
	SortDateDesc SortKey = "date-desc"
	SortTitle    SortKey = "title"
	SortType     SortKey = "type"
)

var SortKeys = []SortKey{SortDateAsc, SortDateDesc, SortTitle, SortType}

// ParseSortKey maps user input to a SortKey; unknown input means
// SortDateAsc.
func ParseSortKey(s string) SortKey {
	k := SortKey(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range SortKeys {
		if k == known {
			return k
		}
	}
	return SortDateAsc
}

// ParseTypeFilter normalizes a type filter; empty input means "all".
func ParseTypeFilter(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return model.TypeAll
	}
	return s
}

// ExportKind selects an export format.
type ExportKind string

const (
	ExportICSOne ExportKind = "ics-one"
	ExportICSAll ExportKind = "ics-all"
	ExportLink   ExportKind = "link"
)

// Action is one user intent dispatched to Reduce.
type Action interface {
	isAction()
}

// FilterChanged replaces both filters.
type FilterChanged struct {
	Type string
	Date DateFilter
}

// SortChanged replaces the sort key.
type SortChanged struct {
	Key SortKey
}

// Cleared restores the default filters and sort.
type Cleared struct{}

// ExportRequested serializes records. ID names a record for ExportICSOne
// and ExportLink; an empty ID on ExportLink means the first visible record.
type ExportRequested struct {
	Kind ExportKind
	ID   string
}

func (FilterChanged) isAction()   {}
func (SortChanged) isAction()     {}
func (Cleared) isAction()         {}
func (ExportRequested) isAction() {}

// Export is the payload produced by a successful ExportRequested: either a
// file (Body, Filename, ContentType) or a URL to open.
type Export struct {
	Kind        ExportKind
	Title       string
	Filename    string
	ContentType string
	Body        []byte
	URL         string
	Count       int
}

// State is everything the page renders. It is always recomputable from
// (records, TypeFilter, DateFilter, SortKey, today).
type State struct {
	TypeFilter string
	DateFilter DateFilter
	SortKey    SortKey

	// Order holds record indexes in presentation order, hidden ones
	// included.
	Order []int
	// Visible is indexed by record index.
	Visible      []bool
	VisibleCount int

	// Status is the live-region announcement for the last action.
	Status string

	// Export is set only by a successful ExportRequested; ExportErr only by
	// a failed one.
	Export    *Export
	ExportErr error
}

// Empty reports whether the empty-state indicator should show.
func (s State) Empty() bool {
	return s.VisibleCount == 0
}
