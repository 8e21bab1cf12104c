package events

import (
	"errors"
	"time"

	"golang.org/x/text/language"

	"github.com/serma100000/Union-Beach-Library/internal/ics"
	"github.com/serma100000/Union-Beach-Library/internal/model"
)

// ErrEventNotFound is reported when an export names an unknown record.
var ErrEventNotFound = errors.New("events: event not found")

// Options configures a Controller.
type Options struct {
	// Location defines "today". If nil, time.Local is used.
	Location *time.Location
	// Locale drives title/type collation. Zero value means English.
	Locale language.Tag
	// Now is the clock; nil means time.Now.
	Now func() time.Time
	// Exporter serializes exports; nil gets a default exporter.
	Exporter *ics.Exporter
}

// Controller owns the record set of one calendar page. Records never
// change after construction, so a Controller may be shared by concurrent
// requests; every method only reads it.
type Controller struct {
	records  []model.EventRecord
	byID     map[string]int
	loc      *time.Location
	locale   language.Tag
	now      func() time.Time
	exporter *ics.Exporter
}

// NewController takes ownership of records in load order.
func NewController(records []model.EventRecord, opts Options) *Controller {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Locale == language.Und {
		opts.Locale = language.English
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Exporter == nil {
		opts.Exporter = ics.NewExporter("-//Library//Events//EN", "localhost", "")
	}

	recs := make([]model.EventRecord, len(records))
	copy(recs, records)

	byID := make(map[string]int, len(recs))
	for i, r := range recs {
		if _, dup := byID[r.ID]; !dup {
			byID[r.ID] = i
		}
	}

	return &Controller{
		records:  recs,
		byID:     byID,
		loc:      opts.Location,
		locale:   opts.Locale,
		now:      opts.Now,
		exporter: opts.Exporter,
	}
}

// Len returns the total number of records.
func (c *Controller) Len() int {
	return len(c.records)
}

// Record returns the record at index i.
func (c *Controller) Record(i int) model.EventRecord {
	return c.records[i]
}

// Lookup finds a record by id.
func (c *Controller) Lookup(id string) (model.EventRecord, bool) {
	i, ok := c.byID[id]
	if !ok {
		return model.EventRecord{}, false
	}
	return c.records[i], true
}

// Types returns the distinct non-empty record types in first-seen order.
func (c *Controller) Types() []string {
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, r := range c.records {
		if r.Type == "" || seen[r.Type] {
			continue
		}
		seen[r.Type] = true
		out = append(out, r.Type)
	}
	return out
}

// Location returns the controller's timezone.
func (c *Controller) Location() *time.Location {
	return c.loc
}

// Initial returns the default page state (as after Cleared) without an
// announcement.
func (c *Controller) Initial() State {
	s := c.recompute(State{
		TypeFilter: model.TypeAll,
		DateFilter: DateUpcoming,
		SortKey:    SortDateAsc,
	})
	return s
}

// Reduce applies one action. The returned State shares nothing mutable
// with s.
func (c *Controller) Reduce(s State, a Action) State {
	next := State{
		TypeFilter: s.TypeFilter,
		DateFilter: s.DateFilter,
		SortKey:    s.SortKey,
	}
	if next.TypeFilter == "" {
		next.TypeFilter = model.TypeAll
	}
	if next.DateFilter == "" {
		next.DateFilter = DateUpcoming
	}
	if next.SortKey == "" {
		next.SortKey = SortDateAsc
	}

	switch act := a.(type) {
	case FilterChanged:
		next.TypeFilter = ParseTypeFilter(act.Type)
		next.DateFilter = ParseDateFilter(string(act.Date))
		next = c.recompute(next)
		next.Status = showingMessage(next.VisibleCount)

	case SortChanged:
		next.SortKey = ParseSortKey(string(act.Key))
		next = c.recompute(next)
		next.Status = sortedMessage(next.SortKey, next.VisibleCount)

	case Cleared:
		next.TypeFilter = model.TypeAll
		next.DateFilter = DateUpcoming
		next.SortKey = SortDateAsc
		next = c.recompute(next)
		next.Status = clearedMessage(next.VisibleCount)

	case ExportRequested:
		next = c.recompute(next)
		next.Export, next.ExportErr = c.export(next, act)
		next.Status = exportMessage(next.Export, next.ExportErr)

	default:
		next = c.recompute(next)
	}

	return next
}

// VisibleRecords returns the visible set in presentation order.
func (c *Controller) VisibleRecords(s State) []model.EventRecord {
	out := make([]model.EventRecord, 0, s.VisibleCount)
	for _, i := range s.Order {
		if i < len(s.Visible) && s.Visible[i] {
			out = append(out, c.records[i])
		}
	}
	return out
}

// recompute derives Order, Visible and VisibleCount from the selection.
func (c *Controller) recompute(s State) State {
	today := c.today()

	s.Visible = make([]bool, len(c.records))
	s.VisibleCount = 0
	for i, r := range c.records {
		if matchesType(r, s.TypeFilter) && matchesDate(r, s.DateFilter, today, c.loc) {
			s.Visible[i] = true
			s.VisibleCount++
		}
	}

	s.Order = c.sortOrder(s.SortKey)
	return s
}

// today is local midnight of the current day in the controller's zone.
func (c *Controller) today() time.Time {
	n := c.now().In(c.loc)
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, c.loc)
}
