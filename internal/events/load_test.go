package events

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/serma100000/Union-Beach-Library/internal/ics"
)

const loadMarkup = `<section>
<article class="event-card" data-id="story-time" data-type="children" data-date="2025-06-01T10:00:00">
  <h3 class="event-title">Story Time</h3>
</article>
<article class="event-card" data-id="fair" data-type="community" data-date="2025-06-02T10:00:00">
  <h3 class="event-title">Our Own Fair</h3>
</article>
</section>`

const loadFeed = "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:-//County//EN\r\n" +
	"BEGIN:VEVENT\r\nUID:fair\r\nDTSTAMP:20250101T000000Z\r\n" +
	"DTSTART:20250610T160000Z\r\nDTEND:20250610T170000Z\r\nSUMMARY:County Fair\r\nEND:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func TestLoadRecordsMergesMarkupAndFeeds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/county.ics" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(loadFeed))
	}))
	defer srv.Close()

	recs, feedErrs, err := LoadRecords(context.Background(), LoadOptions{
		Markup:   []byte(loadMarkup),
		Location: time.UTC,
		Feeds: []ics.Source{
			{ID: "county", URL: srv.URL + "/county.ics"},
			{ID: "down", URL: srv.URL + "/missing.ics"},
		},
		Fetcher: ics.NewFetcher(t.TempDir()),
		Now:     func() time.Time { return time.Date(2025, 5, 20, 0, 0, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("LoadRecords: %v", err)
	}

	if len(recs) != 3 {
		t.Fatalf("got %d records, want 3", len(recs))
	}
	if len(feedErrs) != 1 {
		t.Errorf("got %d feed errors, want 1 for the missing feed", len(feedErrs))
	}
	if recs[0].ID != "story-time" || recs[1].ID != "fair" {
		t.Errorf("markup records first, got %q %q", recs[0].ID, recs[1].ID)
	}
	if recs[2].ID != "county-fair" || recs[2].Source != "county" || recs[2].Position != 2 {
		t.Errorf("feed record = %+v", recs[2])
	}
}

func TestLoadRecordsFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.html")
	if err := os.WriteFile(path, []byte(loadMarkup), 0o600); err != nil {
		t.Fatal(err)
	}

	recs, _, err := LoadRecords(context.Background(), LoadOptions{
		MarkupPath: path,
		Markup:     []byte("<p>ignored</p>"),
		Location:   time.UTC,
	})
	if err != nil {
		t.Fatalf("LoadRecords: %v", err)
	}
	if len(recs) != 2 {
		t.Errorf("got %d records, want 2", len(recs))
	}

	if _, _, err := LoadRecords(context.Background(), LoadOptions{MarkupPath: filepath.Join(t.TempDir(), "nope.html")}); err == nil {
		t.Error("expected error for missing markup file")
	}
}
