package web

import (
	"fmt"
	"html/template"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/serma100000/Union-Beach-Library/internal/events"
	appLog "github.com/serma100000/Union-Beach-Library/internal/log"
	"github.com/serma100000/Union-Beach-Library/internal/model"
)

const (
	isoLocalLayout = "2006-01-02T15:04:05"
	whenLayout     = "Monday, January 2, 2006 at 3:04 PM"
)

var dateFilterLabels = map[events.DateFilter]string{
	events.DateAll:       "All dates",
	events.DateUpcoming:  "Upcoming",
	events.DateThisWeek:  "This week",
	events.DateThisMonth: "This month",
	events.DateNextMonth: "Next month",
}

var sortKeyLabels = map[events.SortKey]string{
	events.SortDateAsc:  "Date (earliest first)",
	events.SortDateDesc: "Date (latest first)",
	events.SortTitle:    "Title (A-Z)",
	events.SortType:     "Event type",
}

type option struct {
	Value    string
	Label    string
	Selected bool
}

// eventView is one record as the templates print it.
type eventView struct {
	ID          string
	Title       string
	Type        string
	Description string
	Lines       []string
	Location    string
	ISO         string
	When        string
}

func newEventView(rec model.EventRecord, loc *time.Location) eventView {
	v := eventView{
		ID:          rec.ID,
		Title:       rec.Title,
		Type:        rec.Type,
		Description: rec.Description,
		Location:    rec.Location,
	}
	if rec.Description != "" {
		v.Lines = strings.Split(rec.Description, "\n")
	}
	if rec.DateKnown {
		local := rec.Date.In(loc)
		v.ISO = local.Format(isoLocalLayout)
		v.When = local.Format(whenLayout)
	}
	return v
}

type calendarView struct {
	TypeFilter  string
	Types       []string
	DateOptions []option
	SortOptions []option
	Query       template.URL
	CountLabel  string
	Empty       bool
	Events      []eventView
}

func newCalendarView(ctrl *events.Controller, st events.State) calendarView {
	v := calendarView{
		TypeFilter: st.TypeFilter,
		Types:      ctrl.Types(),
		Query:      template.URL(selectionQuery(st).Encode()),
		CountLabel: fmt.Sprintf("%d of %d events", st.VisibleCount, ctrl.Len()),
		Empty:      st.Empty(),
	}
	for _, d := range events.DateFilters {
		v.DateOptions = append(v.DateOptions, option{Value: string(d), Label: dateFilterLabels[d], Selected: d == st.DateFilter})
	}
	for _, k := range events.SortKeys {
		v.SortOptions = append(v.SortOptions, option{Value: string(k), Label: sortKeyLabels[k], Selected: k == st.SortKey})
	}
	for _, rec := range ctrl.VisibleRecords(st) {
		v.Events = append(v.Events, newEventView(rec, ctrl.Location()))
	}
	return v
}

func selectionQuery(st events.State) url.Values {
	return url.Values{
		"type": {st.TypeFilter},
		"date": {string(st.DateFilter)},
		"sort": {string(st.SortKey)},
	}
}

// stateFromQuery replays the page's form controls as actions. A request
// without any selection parameter is the initial page load and carries no
// announcement.
func stateFromQuery(ctrl *events.Controller, q url.Values) events.State {
	st := ctrl.Initial()
	filtered := q.Has("type") || q.Has("date")
	if !filtered && !q.Has("sort") {
		return st
	}

	st = ctrl.Reduce(st, events.FilterChanged{
		Type: q.Get("type"),
		Date: events.DateFilter(q.Get("date")),
	})
	status := st.Status
	st = ctrl.Reduce(st, events.SortChanged{Key: events.SortKey(q.Get("sort"))})
	if filtered {
		st.Status = status
	}
	return st
}

func (s *Server) renderCalendar(w http.ResponseWriter, code int, ctrl *events.Controller, st events.State) {
	s.render(w, code, "calendar", s.page("calendar", "Events Calendar", st.Status, newCalendarView(ctrl, st)))
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	ctrl := s.controller()
	s.renderCalendar(w, http.StatusOK, ctrl, stateFromQuery(ctrl, r.URL.Query()))
}

func (s *Server) handleCalendarClear(w http.ResponseWriter, _ *http.Request) {
	ctrl := s.controller()
	s.renderCalendar(w, http.StatusOK, ctrl, ctrl.Reduce(ctrl.Initial(), events.Cleared{}))
}

func (s *Server) handleCalendarExport(w http.ResponseWriter, r *http.Request) {
	ctrl := s.controller()
	st := stateFromQuery(ctrl, r.URL.Query())
	s.finishExport(w, r, ctrl, ctrl.Reduce(st, events.ExportRequested{Kind: events.ExportICSAll}))
}

func (s *Server) handleCalendarLink(w http.ResponseWriter, r *http.Request) {
	ctrl := s.controller()
	st := stateFromQuery(ctrl, r.URL.Query())
	s.finishExport(w, r, ctrl, ctrl.Reduce(st, events.ExportRequested{Kind: events.ExportLink}))
}

func (s *Server) handleEventICS(w http.ResponseWriter, r *http.Request) {
	ctrl := s.controller()
	id := chi.URLParam(r, "id")
	s.finishExport(w, r, ctrl, ctrl.Reduce(ctrl.Initial(), events.ExportRequested{Kind: events.ExportICSOne, ID: id}))
}

func (s *Server) handleEventLink(w http.ResponseWriter, r *http.Request) {
	ctrl := s.controller()
	id := chi.URLParam(r, "id")
	s.finishExport(w, r, ctrl, ctrl.Reduce(ctrl.Initial(), events.ExportRequested{Kind: events.ExportLink, ID: id}))
}

// finishExport sends the export payload, or re-renders the calendar with
// the failure announced in the live region.
func (s *Server) finishExport(w http.ResponseWriter, r *http.Request, ctrl *events.Controller, st events.State) {
	if st.Export == nil {
		appLog.Warn("export refused", "path", r.URL.Path, "reason", errString(st.ExportErr))
		s.renderCalendar(w, exportStatusCode(st.ExportErr), ctrl, st)
		return
	}

	exp := st.Export
	if exp.Kind == events.ExportLink {
		http.Redirect(w, r, exp.URL, http.StatusFound)
		return
	}

	w.Header().Set("Content-Type", exp.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": exp.Filename}))
	w.Header().Set("X-Status-Message", st.Status)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(exp.Body)
}

type apiEvent struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Type        string `json:"type,omitempty"`
	Start       string `json:"start,omitempty"`
	End         string `json:"end,omitempty"`
	Description string `json:"description,omitempty"`
	Location    string `json:"location,omitempty"`
	Source      string `json:"source"`
}

type apiEventsResponse struct {
	Type    string     `json:"type"`
	Date    string     `json:"date"`
	Sort    string     `json:"sort"`
	Status  string     `json:"status,omitempty"`
	Total   int        `json:"total"`
	Visible int        `json:"visible"`
	Events  []apiEvent `json:"events"`
}

func (s *Server) handleAPIEvents(w http.ResponseWriter, r *http.Request) {
	ctrl := s.controller()
	q := r.URL.Query()
	st := stateFromQuery(ctrl, q)

	resp := apiEventsResponse{
		Type:    st.TypeFilter,
		Date:    string(st.DateFilter),
		Sort:    string(st.SortKey),
		Status:  st.Status,
		Total:   ctrl.Len(),
		Visible: st.VisibleCount,
		Events:  make([]apiEvent, 0, st.VisibleCount),
	}

	limit := parseIntDefault(q.Get("limit"), 0)
	if limit < 0 {
		writeError(w, http.StatusBadRequest, "limit must not be negative")
		return
	}

	for _, rec := range ctrl.VisibleRecords(st) {
		if limit > 0 && len(resp.Events) == limit {
			break
		}
		ev := apiEvent{
			ID:          rec.ID,
			Title:       rec.Title,
			Type:        rec.Type,
			Description: rec.Description,
			Location:    rec.Location,
			Source:      rec.Source,
		}
		if rec.DateKnown {
			ev.Start = rec.Date.Format(time.RFC3339)
			ev.End = rec.EndDate().Format(time.RFC3339)
		}
		resp.Events = append(resp.Events, ev)
	}

	writeJSON(w, http.StatusOK, resp)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
