// Package markup is the boundary adapter between the calendar page's HTML
// and the typed event model. Everything downstream works on
// model.EventRecord and never touches HTML.
package markup

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// Class and attribute names of the host markup contract.
const (
	ClassEventCard    = "event-card"
	ClassTitle        = "event-title"
	ClassDescription  = "event-description"
	ClassLocation     = "event-location"
	AttrEvent         = "data-event"
	AttrType          = "data-type"
	AttrDate          = "data-date"
	AttrID            = "data-id"
	AttrRecurrence    = "data-rrule"
	AttrLegacyEventID = "data-event-id"
)

// RawEvent is one event element exactly as found in the markup, before
// any date parsing or recurrence expansion.
type RawEvent struct {
	ID          string
	Type        string
	DateText    string
	RRule       string
	Title       string
	Description string
	Location    string
}

// Scan parses an HTML document (or fragment) and returns every event
// element in document order. Missing fields come back as empty strings.
func Scan(r io.Reader) ([]RawEvent, error) {
	if r == nil {
		return nil, errors.New("markup: nil reader")
	}
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("markup: parse html: %w", err)
	}

	out := make([]RawEvent, 0)
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && isEventElement(n) {
			out = append(out, readEvent(n))
			// Event cards do not nest.
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return out, nil
}

func isEventElement(n *html.Node) bool {
	if _, ok := attr(n, AttrEvent); ok {
		return true
	}
	return hasClass(n, ClassEventCard)
}

func readEvent(n *html.Node) RawEvent {
	ev := RawEvent{}
	ev.Type, _ = attr(n, AttrType)
	ev.DateText, _ = attr(n, AttrDate)
	ev.RRule, _ = attr(n, AttrRecurrence)
	if id, ok := attr(n, AttrID); ok {
		ev.ID = id
	} else if id, ok := attr(n, AttrLegacyEventID); ok {
		ev.ID = id
	}

	if t := findByClass(n, ClassTitle); t != nil {
		ev.Title = textContent(t)
	} else if h := findFirstHeading(n); h != nil {
		ev.Title = textContent(h)
	}
	if d := findByClass(n, ClassDescription); d != nil {
		ev.Description = textContent(d)
	}
	if l := findByClass(n, ClassLocation); l != nil {
		ev.Location = textContent(l)
	}

	ev.ID = strings.TrimSpace(ev.ID)
	ev.Type = strings.TrimSpace(ev.Type)
	ev.DateText = strings.TrimSpace(ev.DateText)
	ev.RRule = strings.TrimSpace(ev.RRule)
	return ev
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func hasClass(n *html.Node, class string) bool {
	v, ok := attr(n, "class")
	if !ok {
		return false
	}
	for _, c := range strings.Fields(v) {
		if c == class {
			return true
		}
	}
	return false
}

func findByClass(root *html.Node, class string) *html.Node {
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if hasClass(c, class) {
			return c
		}
		if found := findByClass(c, class); found != nil {
			return found
		}
	}
	return nil
}

func findFirstHeading(root *html.Node) *html.Node {
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.Data {
		case "h2", "h3", "h4":
			return c
		}
		if found := findFirstHeading(c); found != nil {
			return found
		}
	}
	return nil
}

// textContent returns the node's text with runs of whitespace collapsed.
// A <br> becomes a line break.
func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			b.WriteString(n.Data)
			b.WriteByte(' ')
		case n.Type == html.ElementNode && n.Data == "br":
			b.WriteByte('\n')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)

	lines := strings.Split(b.String(), "\n")
	kept := lines[:0]
	for _, l := range lines {
		if l = strings.Join(strings.Fields(l), " "); l != "" {
			kept = append(kept, l)
		}
	}
	return strings.Join(kept, "\n")
}
