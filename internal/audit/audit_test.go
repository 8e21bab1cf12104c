package audit_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/serma100000/Union-Beach-Library/internal/audit"
	"github.com/serma100000/Union-Beach-Library/internal/config"
	"github.com/serma100000/Union-Beach-Library/internal/events"
	"github.com/serma100000/Union-Beach-Library/internal/model"
	"github.com/serma100000/Union-Beach-Library/internal/web"
)

const goodPage = `<!DOCTYPE html>
<html lang="en"><head><title>Calendar | Library</title></head>
<body>
<a class="skip-link" href="#main">Skip</a>
<main id="main">
<h1>Events</h1>
<label for="type">Type</label><select id="type" name="type"></select>
<label>Search <input name="q"></label>
<input type="hidden" name="token">
<input aria-label="Date" name="date">
<img src="a.png" alt="">
<div role="status" aria-live="polite"></div>
</main>
</body></html>`

const badPage = `<html><head></head>
<body>
<h1>One</h1><h1>Two</h1>
<img src="b.png">
<select id="sort" name="sort"></select>
<textarea name="message"></textarea>
</body></html>`

func rules(fs []audit.Finding) map[string]int {
	out := map[string]int{}
	for _, f := range fs {
		out[f.Rule]++
	}
	return out
}

func TestCheckPassesWellFormedPage(t *testing.T) {
	if fs := audit.Check("calendar", strings.NewReader(goodPage)); len(fs) != 0 {
		t.Fatalf("unexpected findings: %v", fs)
	}
}

func TestCheckReportsEveryProblem(t *testing.T) {
	got := rules(audit.Check("calendar", strings.NewReader(badPage)))
	want := map[string]int{
		audit.RuleLang:       1,
		audit.RuleTitle:      1,
		audit.RuleHeading:    1,
		audit.RuleMain:       1,
		audit.RuleSkipLink:   1,
		audit.RuleImageAlt:   1,
		audit.RuleLabel:      2,
		audit.RuleLiveRegion: 1,
	}
	for rule, n := range want {
		if got[rule] != n {
			t.Errorf("%s: %d findings, want %d", rule, got[rule], n)
		}
	}
}

func TestLiveRegionOnlyRequiredOnCalendar(t *testing.T) {
	page := strings.Replace(goodPage, `role="status"`, "", 1)
	if fs := audit.Check("about", strings.NewReader(page)); len(fs) != 0 {
		t.Errorf("about page: %v", fs)
	}
	if got := rules(audit.Check("calendar", strings.NewReader(page))); got[audit.RuleLiveRegion] != 1 {
		t.Errorf("calendar page without live region: %v", got)
	}
}

func TestRunAgainstSite(t *testing.T) {
	loc := time.UTC
	recs := []model.EventRecord{{
		ID: "story-time", Title: "Story Time", Type: "children",
		Date: time.Date(2030, 6, 1, 10, 0, 0, 0, loc), DateKnown: true,
		Source: "markup",
	}}
	ctrl := events.NewController(recs, events.Options{Location: loc})

	srv, err := web.NewServer(config.DefaultConfig(), ctrl)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	findings, err := audit.Run(context.Background(), ts.URL+"/", audit.HTTPFetcher(ts.Client()))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, f := range findings {
		t.Errorf("finding: %s", f)
	}
}

func TestRunReportsFetchErrors(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/history" {
			http.Error(w, "gone", http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(goodPage))
	}))
	defer ts.Close()

	findings, err := audit.Run(context.Background(), ts.URL, audit.HTTPFetcher(nil))
	if err == nil || !strings.Contains(err.Error(), "audit history") {
		t.Fatalf("err = %v", err)
	}
	if len(findings) != 0 {
		t.Errorf("findings from reachable pages: %v", findings)
	}

	fail := func(context.Context, string) (string, error) { return "", errors.New("boom") }
	if _, err := audit.Run(context.Background(), ts.URL, fail); err == nil {
		t.Error("expected error from failing fetcher")
	}
}
