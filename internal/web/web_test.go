package web_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/serma100000/Union-Beach-Library/internal/config"
	"github.com/serma100000/Union-Beach-Library/internal/events"
	"github.com/serma100000/Union-Beach-Library/internal/ics"
	"github.com/serma100000/Union-Beach-Library/internal/model"
	"github.com/serma100000/Union-Beach-Library/internal/web"
)

func newYork(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	return loc
}

func testController(t *testing.T, recs []model.EventRecord) *events.Controller {
	t.Helper()
	loc := newYork(t)
	return events.NewController(recs, events.Options{
		Location: loc,
		Now:      func() time.Time { return time.Date(2025, 5, 20, 12, 0, 0, 0, loc) },
		Exporter: ics.NewExporter("-//Test Library//Events//EN", "test.example", "Test Events"),
	})
}

func fixture(t *testing.T) []model.EventRecord {
	loc := newYork(t)
	return []model.EventRecord{
		{
			ID: "story-time", Title: "Story Time", Type: "children",
			Date: time.Date(2025, 6, 1, 10, 0, 0, 0, loc), DateKnown: true,
			Description: "Songs\nRhymes", Location: "Children's Room",
			Position: 0, Source: "markup",
		},
		{
			ID: "book-club", Title: "Book Club", Type: "adults",
			Date: time.Date(2025, 5, 25, 18, 0, 0, 0, loc), DateKnown: true,
			Position: 1, Source: "markup",
		},
		{
			ID: "old-lecture", Title: "Old Lecture", Type: "adults",
			Date: time.Date(2025, 4, 1, 19, 0, 0, 0, loc), DateKnown: true,
			Position: 2, Source: "markup",
		},
		{
			ID: "mystery", Title: "Mystery Program", Type: "teens",
			Position: 3, Source: "markup",
		},
	}
}

func newServer(t *testing.T) *web.Server {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.ContactDelayMS = 0
	srv, err := web.NewServer(cfg, testController(t, fixture(t)))
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return srv
}

func do(t *testing.T, srv *web.Server, method, target string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	srv := newServer(t)
	rec := do(t, srv, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}

	var body struct {
		Status  string `json:"status"`
		Records int    `json:"records"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "ok" || body.Records != 4 {
		t.Errorf("health = %+v", body)
	}
}

func TestPagesRender(t *testing.T) {
	srv := newServer(t)
	for _, path := range []string{"/", "/about", "/history", "/contact", "/calendar"} {
		rec := do(t, srv, http.MethodGet, path, nil)
		if rec.Code != http.StatusOK {
			t.Errorf("%s: status %d", path, rec.Code)
			continue
		}
		html := rec.Body.String()
		if !strings.Contains(html, `<main id="main"`) {
			t.Errorf("%s: missing main landmark", path)
		}
		if !strings.Contains(html, `aria-current="page"`) {
			t.Errorf("%s: no active nav item", path)
		}
	}

	if rec := do(t, srv, http.MethodGet, "/no-such-page", nil); rec.Code != http.StatusNotFound {
		t.Errorf("unknown page: status %d", rec.Code)
	}
}

func TestCalendarInitialLoad(t *testing.T) {
	srv := newServer(t)
	html := do(t, srv, http.MethodGet, "/calendar", nil).Body.String()

	if n := strings.Count(html, `class="event-card"`); n != 2 {
		t.Fatalf("rendered %d cards, want 2 upcoming", n)
	}
	if strings.Index(html, `data-id="book-club"`) > strings.Index(html, `data-id="story-time"`) {
		t.Error("upcoming events not in date order")
	}
	if !strings.Contains(html, `role="status" aria-live="polite"`) {
		t.Error("missing live region")
	}
	if strings.Contains(html, "Showing") {
		t.Error("initial load should not announce anything")
	}
	if !strings.Contains(html, `data-date="2025-06-01T10:00:00"`) {
		t.Error("card date not rendered in site time")
	}
}

func TestCalendarFilterAndSort(t *testing.T) {
	srv := newServer(t)

	html := do(t, srv, http.MethodGet, "/calendar?type=children&date=all", nil).Body.String()
	if n := strings.Count(html, `class="event-card"`); n != 1 {
		t.Errorf("children filter rendered %d cards", n)
	}
	if !strings.Contains(html, "Showing 1 event<") {
		t.Error("filter status not announced")
	}

	html = do(t, srv, http.MethodGet, "/calendar?sort=title", nil).Body.String()
	if !strings.Contains(html, "Sorted by title. Showing 2 events") {
		t.Error("sort status not announced")
	}
	if strings.Index(html, `data-id="book-club"`) > strings.Index(html, `data-id="story-time"`) {
		t.Error("title sort order wrong")
	}

	html = do(t, srv, http.MethodGet, "/calendar?type=nothing&date=all", nil).Body.String()
	if !strings.Contains(html, "No events match these filters") {
		t.Error("empty state not shown")
	}
	if !strings.Contains(html, "Showing 0 events") {
		t.Error("zero count not announced")
	}
}

func TestCalendarClear(t *testing.T) {
	srv := newServer(t)
	html := do(t, srv, http.MethodGet, "/calendar/clear", nil).Body.String()
	if !strings.Contains(html, "Filters cleared. Showing 2 events") {
		t.Error("clear status not announced")
	}
}

func TestBulkExport(t *testing.T) {
	srv := newServer(t)
	rec := do(t, srv, http.MethodGet, "/calendar/export.ics?date=all", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != ics.ContentType {
		t.Errorf("content type %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != "attachment; filename=library-events.ics" {
		t.Errorf("content disposition %q", cd)
	}

	body := rec.Body.String()
	if n := strings.Count(body, "BEGIN:VEVENT"); n != 3 {
		t.Errorf("exported %d events, want the 3 dated ones", n)
	}
	if got := rec.Header().Get("X-Status-Message"); got != "Exported 3 events to library-events.ics" {
		t.Errorf("status %q", got)
	}
}

func TestBulkExportRefusesEmptySet(t *testing.T) {
	srv := newServer(t)
	rec := do(t, srv, http.MethodGet, "/calendar/export.ics?type=teens&date=all", nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), events.MsgNoEvents) {
		t.Error("refusal not announced")
	}
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "text/calendar") {
		t.Error("refusal produced a calendar file")
	}
}

func TestSingleEventExport(t *testing.T) {
	srv := newServer(t)

	rec := do(t, srv, http.MethodGet, "/events/story-time/ics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != "attachment; filename=story-time.ics" {
		t.Errorf("content disposition %q", cd)
	}
	body := rec.Body.String()
	for _, want := range []string{"DTSTART:20250601T140000Z", "DTEND:20250601T150000Z", "SUMMARY:Story Time"} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}

	// Past events are still exportable by id.
	if rec := do(t, srv, http.MethodGet, "/events/old-lecture/ics", nil); rec.Code != http.StatusOK {
		t.Errorf("past event: status %d", rec.Code)
	}

	rec = do(t, srv, http.MethodGet, "/events/nope/ics", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown id: status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), events.MsgExportFailed) {
		t.Error("unknown id not announced")
	}

	rec = do(t, srv, http.MethodGet, "/events/mystery/ics", nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("undated event: status %d", rec.Code)
	}
}

func TestGoogleCalendarLinks(t *testing.T) {
	srv := newServer(t)

	rec := do(t, srv, http.MethodGet, "/events/story-time/link", nil)
	if rec.Code != http.StatusFound {
		t.Fatalf("status %d", rec.Code)
	}
	loc, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("parse location: %v", err)
	}
	if loc.Host != "calendar.google.com" {
		t.Errorf("redirect host %q", loc.Host)
	}
	q := loc.Query()
	if q.Get("action") != "TEMPLATE" || q.Get("text") != "Story Time" {
		t.Errorf("query = %v", q)
	}
	if q.Get("dates") != "20250601T140000Z/20250601T150000Z" {
		t.Errorf("dates = %q", q.Get("dates"))
	}

	// The bulk link uses the first visible record in presentation order.
	rec = do(t, srv, http.MethodGet, "/calendar/link?date=upcoming&sort=date-asc", nil)
	loc, _ = url.Parse(rec.Header().Get("Location"))
	if got := loc.Query().Get("text"); got != "Book Club" {
		t.Errorf("bulk link opened %q", got)
	}

	rec = do(t, srv, http.MethodGet, "/calendar/link?type=nothing", nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("empty bulk link: status %d", rec.Code)
	}
}

func TestAPIEvents(t *testing.T) {
	srv := newServer(t)
	rec := do(t, srv, http.MethodGet, "/api/events?date=all&sort=date-desc", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}

	var body struct {
		Total   int `json:"total"`
		Visible int `json:"visible"`
		Events  []struct {
			ID    string `json:"id"`
			Start string `json:"start"`
		} `json:"events"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Total != 4 || body.Visible != 4 {
		t.Errorf("total=%d visible=%d", body.Total, body.Visible)
	}

	var ids []string
	for _, e := range body.Events {
		ids = append(ids, e.ID)
	}
	want := "story-time,book-club,old-lecture,mystery"
	if got := strings.Join(ids, ","); got != want {
		t.Errorf("order %s, want %s", got, want)
	}
	if body.Events[3].Start != "" {
		t.Error("undated event reported a start")
	}

	if rec := do(t, srv, http.MethodGet, "/api/events?limit=-1", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("negative limit: status %d", rec.Code)
	}
	rec = do(t, srv, http.MethodGet, "/api/events?date=all&limit=1", nil)
	if strings.Count(rec.Body.String(), `"id"`) != 1 {
		t.Error("limit not applied")
	}
}

func TestContactSubmit(t *testing.T) {
	srv := newServer(t)

	bad := url.Values{"email": {"nope"}, "message": {"hi"}}
	rec := do(t, srv, http.MethodPost, "/contact", strings.NewReader(bad.Encode()))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("invalid form: status %d", rec.Code)
	}
	html := rec.Body.String()
	for _, want := range []string{"Name is required.", "Enter a valid email address.", `aria-invalid="true"`} {
		if !strings.Contains(html, want) {
			t.Errorf("invalid form missing %q", want)
		}
	}

	good := url.Values{
		"name":    {"Ada Reader"},
		"email":   {"ada@example.org"},
		"topic":   {"events"},
		"message": {"Is story time running over the summer?"},
	}
	rec = do(t, srv, http.MethodPost, "/contact", strings.NewReader(good.Encode()))
	if rec.Code != http.StatusOK {
		t.Fatalf("valid form: status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Thank you, Ada Reader.") {
		t.Error("confirmation not announced")
	}
}

func TestSetControllerSwapsEventSet(t *testing.T) {
	srv := newServer(t)
	srv.SetController(testController(t, fixture(t)[:1]), 2)

	var body struct {
		Records    int `json:"records"`
		FeedErrors int `json:"feed_errors"`
	}
	rec := do(t, srv, http.MethodGet, "/health", nil)
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Records != 1 || body.FeedErrors != 2 {
		t.Errorf("health after swap = %+v", body)
	}
}

func TestStaticAssets(t *testing.T) {
	srv := newServer(t)
	rec := do(t, srv, http.MethodGet, "/static/css/site.css", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/css") {
		t.Errorf("content type %q", rec.Header().Get("Content-Type"))
	}
}
