package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"golang.org/x/text/language"

	"github.com/serma100000/Union-Beach-Library/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	conf := config.DefaultConfig()
	conf.CacheDir = t.TempDir()
	return conf
}

func TestNewAppFallsBackOnBadSettings(t *testing.T) {
	conf := testConfig(t)
	conf.Locale = "not a locale!"
	conf.Timezone = "Nowhere/Special"

	a := newApp(conf)
	if a.locale != language.English {
		t.Errorf("locale = %v", a.locale)
	}
	if a.loc == nil {
		t.Fatal("nil location")
	}
}

func TestLoadEmbeddedMarkupAndExport(t *testing.T) {
	conf := testConfig(t)
	conf.Feeds = []config.FeedConfig{{ID: "empty", Name: "no url"}}
	a := newApp(conf)

	ctrl, feedErrs, err := a.load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(feedErrs) != 0 {
		t.Errorf("feed errors: %v", feedErrs)
	}
	if ctrl.Len() == 0 {
		t.Fatal("embedded markup produced no records")
	}

	var buf bytes.Buffer
	if err := a.writeCalendar(&buf, ctrl); err != nil {
		t.Fatalf("writeCalendar: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "BEGIN:VCALENDAR") {
		t.Errorf("not a calendar: %.40q", out)
	}
	if !strings.Contains(out, "X-WR-CALNAME:"+conf.SiteName+" Events") {
		t.Error("calendar name missing")
	}
}
