// Package audit checks rendered pages for the structure and accessibility
// features every page of the site is expected to carry.
package audit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/serma100000/Union-Beach-Library/internal/capture"
	appLog "github.com/serma100000/Union-Beach-Library/internal/log"
)

// Rule names reported in findings.
const (
	RuleLang       = "html-lang"
	RuleTitle      = "document-title"
	RuleHeading    = "single-h1"
	RuleMain       = "main-landmark"
	RuleSkipLink   = "skip-link"
	RuleImageAlt   = "image-alt"
	RuleLabel      = "form-label"
	RuleLiveRegion = "live-region"
	RuleParse      = "parse"
)

// Page is one site page to audit.
type Page struct {
	Name string
	Path string
}

// Pages lists every page of the site.
var Pages = []Page{
	{Name: "home", Path: "/"},
	{Name: "about", Path: "/about"},
	{Name: "history", Path: "/history"},
	{Name: "contact", Path: "/contact"},
	{Name: "calendar", Path: "/calendar"},
}

// Finding is one failed check.
type Finding struct {
	Page    string `json:"page"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

func (f Finding) String() string {
	return fmt.Sprintf("%s: [%s] %s", f.Page, f.Rule, f.Message)
}

// Check parses doc and returns every failed check for the named page.
func Check(page string, doc io.Reader) []Finding {
	root, err := html.Parse(doc)
	if err != nil {
		return []Finding{{Page: page, Rule: RuleParse, Message: err.Error()}}
	}

	c := &checker{page: page, labelFor: map[string]bool{}}
	c.walk(root, false)
	return c.finish()
}

type control struct {
	desc     string
	id       string
	labelled bool
}

type checker struct {
	page     string
	findings []Finding

	lang       bool
	title      string
	h1         int
	main       bool
	mainID     string
	skipLink   bool
	liveRegion bool

	labelFor map[string]bool
	controls []control
}

func (c *checker) add(rule, format string, args ...any) {
	c.findings = append(c.findings, Finding{Page: c.page, Rule: rule, Message: fmt.Sprintf(format, args...)})
}

func (c *checker) walk(n *html.Node, inLabel bool) {
	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.Html:
			c.lang = strings.TrimSpace(attr(n, "lang")) != ""
		case atom.Title:
			c.title = strings.TrimSpace(text(n))
		case atom.H1:
			c.h1++
		case atom.Main:
			c.main = true
			c.mainID = attr(n, "id")
		case atom.A:
			if attr(n, "href") == "#main" {
				c.skipLink = true
			}
		case atom.Img:
			if !hasAttr(n, "alt") {
				c.add(RuleImageAlt, "image %q has no alt attribute", attr(n, "src"))
			}
		case atom.Label:
			if f := attr(n, "for"); f != "" {
				c.labelFor[f] = true
			}
			inLabel = true
		case atom.Input, atom.Select, atom.Textarea:
			if ctl, ok := formControl(n, inLabel); ok {
				c.controls = append(c.controls, ctl)
			}
		}
		if attr(n, "role") == "status" && attr(n, "aria-live") == "polite" {
			c.liveRegion = true
		}
	}

	for child := n.FirstChild; child != nil; child = child.NextSibling {
		c.walk(child, inLabel)
	}
}

func (c *checker) finish() []Finding {
	if !c.lang {
		c.add(RuleLang, "<html> has no lang attribute")
	}
	if c.title == "" {
		c.add(RuleTitle, "document has no title")
	}
	if c.h1 != 1 {
		c.add(RuleHeading, "found %d <h1> elements, want exactly 1", c.h1)
	}
	if !c.main {
		c.add(RuleMain, "no <main> landmark")
	}
	if !c.skipLink || c.mainID != "main" {
		c.add(RuleSkipLink, "no skip link to #main")
	}
	for _, ctl := range c.controls {
		if ctl.labelled || (ctl.id != "" && c.labelFor[ctl.id]) {
			continue
		}
		c.add(RuleLabel, "%s has no label", ctl.desc)
	}
	if c.page == "calendar" && !c.liveRegion {
		c.add(RuleLiveRegion, `no role="status" aria-live="polite" region`)
	}
	return c.findings
}

// formControl reports whether n needs a label and what it currently has.
func formControl(n *html.Node, inLabel bool) (control, bool) {
	if n.DataAtom == atom.Input {
		switch strings.ToLower(attr(n, "type")) {
		case "hidden", "submit", "button", "reset", "image":
			return control{}, false
		}
	}
	ctl := control{
		desc:     fmt.Sprintf("<%s name=%q>", n.Data, attr(n, "name")),
		id:       attr(n, "id"),
		labelled: inLabel || attr(n, "aria-label") != "" || attr(n, "aria-labelledby") != "",
	}
	return ctl, true
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

func text(n *html.Node) string {
	var b strings.Builder
	var rec func(*html.Node)
	rec = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			rec(c)
		}
	}
	rec(n)
	return b.String()
}

// Fetcher returns the HTML of the page at url.
type Fetcher func(ctx context.Context, url string) (string, error)

// HTTPFetcher fetches the server-rendered markup with a plain GET.
func HTTPFetcher(client *http.Client) Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return func(ctx context.Context, url string) (string, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return "", err
		}
		resp, err := client.Do(req)
		if err != nil {
			return "", err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("GET %s: status %d", url, resp.StatusCode)
		}
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", err
		}
		return string(body), nil
	}
}

// ChromeFetcher snapshots the DOM after scripts have run.
func ChromeFetcher(opts capture.SnapshotOptions) Fetcher {
	return func(ctx context.Context, url string) (string, error) {
		o := opts
		o.URL = url
		return capture.SnapshotHTML(ctx, o)
	}
}

// Run audits every page under baseURL. Pages that cannot be fetched are
// reported through the returned error; the rest are still checked.
func Run(ctx context.Context, baseURL string, fetch Fetcher) ([]Finding, error) {
	base := strings.TrimRight(baseURL, "/")

	var (
		findings []Finding
		errs     []error
	)
	for _, p := range Pages {
		doc, err := fetch(ctx, base+p.Path)
		if err != nil {
			appLog.Error("audit: fetch failed", err, "page", p.Name)
			errs = append(errs, fmt.Errorf("audit %s: %w", p.Name, err))
			continue
		}
		found := Check(p.Name, strings.NewReader(doc))
		appLog.Debug("audit: page checked", "page", p.Name, "findings", len(found))
		findings = append(findings, found...)
	}
	return findings, errors.Join(errs...)
}
