package main

import (
	"context"
	"io"
	"time"

	"golang.org/x/text/language"

	"github.com/serma100000/Union-Beach-Library/internal/config"
	"github.com/serma100000/Union-Beach-Library/internal/events"
	"github.com/serma100000/Union-Beach-Library/internal/ics"
	appLog "github.com/serma100000/Union-Beach-Library/internal/log"
	"github.com/serma100000/Union-Beach-Library/internal/model"
	"github.com/serma100000/Union-Beach-Library/internal/site"
)

// app bundles what every (re)load of the event set needs.
type app struct {
	conf     *config.Config
	loc      *time.Location
	locale   language.Tag
	fetcher  *ics.Fetcher
	exporter *ics.Exporter
}

func newApp(conf *config.Config) *app {
	locale, err := language.Parse(conf.Locale)
	if err != nil {
		appLog.Warn("invalid locale; using English collation", "locale", conf.Locale, "err", err.Error())
		locale = language.English
	}

	return &app{
		conf:     conf,
		loc:      resolveLocationOrLocal(conf.Timezone),
		locale:   locale,
		fetcher:  ics.NewFetcher(conf.CacheDir),
		exporter: ics.NewExporter(conf.ProdID, conf.Domain, conf.SiteName+" Events"),
	}
}

func (a *app) feeds() []ics.Source {
	out := make([]ics.Source, 0, len(a.conf.Feeds))
	for _, f := range a.conf.Feeds {
		if f.URL == "" {
			appLog.Warn("skipping feed without url", "id", f.ID, "name", f.Name)
			continue
		}
		out = append(out, ics.Source{ID: f.ID, URL: f.URL})
	}
	return out
}

// load reads markup and feeds and builds a fresh controller.
func (a *app) load(ctx context.Context) (*events.Controller, []error, error) {
	recs, feedErrs, err := events.LoadRecords(ctx, events.LoadOptions{
		MarkupPath:     a.conf.ContentPath,
		Markup:         site.EventsMarkup,
		Location:       a.loc,
		MaxOccurrences: a.conf.MaxOccurrences,
		Feeds:          a.feeds(),
		Fetcher:        a.fetcher,
	})
	if err != nil {
		return nil, nil, err
	}

	ctrl := events.NewController(recs, events.Options{
		Location: a.loc,
		Locale:   a.locale,
		Exporter: a.exporter,
	})
	return ctrl, feedErrs, nil
}

// writeCalendar exports every dated record, in load order, to w.
func (a *app) writeCalendar(w io.Writer, ctrl *events.Controller) error {
	dated := make([]model.EventRecord, 0, ctrl.Len())
	for i := 0; i < ctrl.Len(); i++ {
		if r := ctrl.Record(i); r.DateKnown {
			dated = append(dated, r)
		}
	}
	body, err := a.exporter.Calendar(dated)
	if err != nil {
		return err
	}
	_, err = w.Write(body)
	return err
}

func resolveLocationOrLocal(name string) *time.Location {
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "name", name)
		return time.Local
	}
	return loc
}
