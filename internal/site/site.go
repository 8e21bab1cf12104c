// Package site holds the library website's embedded templates, static
// assets and the default calendar event markup.
package site

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed all:static
var staticFS embed.FS

// EventsMarkup is the default calendar event list. Its elements follow
// the markup contract read by internal/markup.
//
//go:embed content/events.html
var EventsMarkup []byte

// Pages are the page templates rendered inside layout.html.
var Pages = []string{"home", "about", "history", "contact", "calendar"}

// Static returns the static asset tree rooted at static/.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		// The directory is embedded at build time.
		panic(err)
	}
	return sub
}

// Templates parses layout.html together with each page template. The map
// is keyed by page name and each template executes as "layout".
func Templates(funcs template.FuncMap) (map[string]*template.Template, error) {
	out := make(map[string]*template.Template, len(Pages))
	for _, page := range Pages {
		t, err := template.New(page).Funcs(funcs).ParseFS(templateFS,
			"templates/layout.html",
			"templates/"+page+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("site: parse %s: %w", page, err)
		}
		out[page] = t
	}
	return out, nil
}
