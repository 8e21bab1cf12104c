package events

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/serma100000/Union-Beach-Library/internal/ics"
	appLog "github.com/serma100000/Union-Beach-Library/internal/log"
	"github.com/serma100000/Union-Beach-Library/internal/markup"
	"github.com/serma100000/Union-Beach-Library/internal/model"
)

// LoadOptions describes where records come from.
type LoadOptions struct {
	// MarkupPath, if set, is read instead of Markup.
	MarkupPath string
	Markup     []byte

	Location       *time.Location
	MaxOccurrences int

	// Feeds are fetched with Fetcher; their records follow the markup's.
	Feeds   []ics.Source
	Fetcher *ics.Fetcher

	// Now anchors the feed expansion window; nil means time.Now.
	Now func() time.Time
	// FeedBackfill / FeedHorizon bound recurring feed events around Now.
	FeedBackfill time.Duration
	FeedHorizon  time.Duration
}

const (
	defaultFeedBackfill = 31 * 24 * time.Hour
	defaultFeedHorizon  = 180 * 24 * time.Hour
)

// LoadRecords builds the full record set: markup events in document order
// followed by feed events per feed. Only unreadable markup is an error;
// feeds that cannot be fetched, parsed or expanded are skipped and
// returned in feedErrs.
func LoadRecords(ctx context.Context, opts LoadOptions) (records []model.EventRecord, feedErrs []error, err error) {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.FeedBackfill <= 0 {
		opts.FeedBackfill = defaultFeedBackfill
	}
	if opts.FeedHorizon <= 0 {
		opts.FeedHorizon = defaultFeedHorizon
	}

	src := opts.Markup
	if opts.MarkupPath != "" {
		data, err := os.ReadFile(opts.MarkupPath)
		if err != nil {
			return nil, nil, fmt.Errorf("events: read markup: %w", err)
		}
		src = data
	}

	records, err = markup.Load(bytes.NewReader(src), markup.Options{
		Location:       opts.Location,
		MaxOccurrences: opts.MaxOccurrences,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("events: %w", err)
	}
	markupCount := len(records)

	if len(opts.Feeds) > 0 && opts.Fetcher != nil {
		now := opts.Now()
		cfg := ics.ExpandConfig{
			DisplayLocation:        opts.Location,
			RangeStart:             now.Add(-opts.FeedBackfill),
			RangeEnd:               now.Add(opts.FeedHorizon),
			MaxOccurrencesPerEvent: opts.MaxOccurrences,
		}

		results, errs := opts.Fetcher.FetchAll(ctx, opts.Feeds)
		if len(errs) > 0 {
			appLog.Warn("events: some feeds unavailable", "failed", len(errs))
			feedErrs = append(feedErrs, errs...)
		}
		for _, res := range results {
			parsed, err := ics.ParseFeed(res.Source, res.Body)
			if err != nil {
				appLog.Error("events: feed parse failed", err, "id", res.Source.ID)
				feedErrs = append(feedErrs, err)
				continue
			}
			feedRecs, err := ics.FeedRecords(parsed, cfg)
			if err != nil {
				appLog.Error("events: feed expansion failed", err, "id", res.Source.ID)
				feedErrs = append(feedErrs, err)
				continue
			}
			records = append(records, feedRecs...)
		}
	}

	records = markup.Finalize(records)
	appLog.Info("events loaded",
		"markup", markupCount,
		"feeds", len(records)-markupCount,
		"total", len(records),
	)
	return records, feedErrs, nil
}
