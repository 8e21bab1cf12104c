// Package capture renders site pages in headless Chromium so the
// accessibility audit sees the DOM after scripts have run.
package capture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/chromedp/chromedp"
)

// Default capture parameters. The width matches a typical laptop layout
// so the desktop navigation is what gets audited.
const (
	DefaultWidth      = 1280
	DefaultHeight     = 900
	DefaultTimeoutSec = 30
)

// ErrNoURL is returned when SnapshotOptions.URL is empty.
var ErrNoURL = errors.New("capture: URL is required")

// SnapshotOptions defines one page snapshot.
type SnapshotOptions struct {
	// URL to load, e.g. "http://127.0.0.1:8080/calendar".
	URL string

	// Width and Height are the viewport dimensions in pixels. If zero,
	// DefaultWidth / DefaultHeight are used.
	Width  int
	Height int

	// Timeout bounds the whole snapshot. If zero, DefaultTimeoutSec.
	Timeout time.Duration

	// ScreenshotPath, when set, also receives a full-page PNG.
	ScreenshotPath string
}

func (o SnapshotOptions) withDefaults() SnapshotOptions {
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.Timeout <= 0 {
		o.Timeout = time.Duration(DefaultTimeoutSec) * time.Second
	}
	return o
}

// SnapshotHTML navigates headless Chromium to opts.URL, waits until the
// main landmark is present and returns the serialized document.
func SnapshotHTML(parentCtx context.Context, opts SnapshotOptions) (string, error) {
	if opts.URL == "" {
		return "", ErrNoURL
	}
	opts = opts.withDefaults()

	ctx, cancel := chromedp.NewContext(parentCtx)
	defer cancel()

	ctx, timeoutCancel := context.WithTimeout(ctx, opts.Timeout)
	defer timeoutCancel()

	var (
		doc string
		png []byte
	)
	tasks := chromedp.Tasks{
		chromedp.EmulateViewport(int64(opts.Width), int64(opts.Height)),
		chromedp.Navigate(opts.URL),
		chromedp.WaitReady("main", chromedp.ByQuery),
		chromedp.OuterHTML("html", &doc, chromedp.ByQuery),
	}
	if opts.ScreenshotPath != "" {
		tasks = append(tasks, chromedp.FullScreenshot(&png, 90))
	}

	if err := chromedp.Run(ctx, tasks); err != nil {
		return "", fmt.Errorf("capture: chromedp run failed: %w", err)
	}

	if opts.ScreenshotPath != "" {
		if err := os.WriteFile(opts.ScreenshotPath, png, 0o644); err != nil {
			return "", fmt.Errorf("capture: failed to write PNG: %w", err)
		}
	}

	return doc, nil
}
