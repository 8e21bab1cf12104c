package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/serma100000/Union-Beach-Library/internal/config"
	"github.com/serma100000/Union-Beach-Library/internal/contact"
	"github.com/serma100000/Union-Beach-Library/internal/events"
	appLog "github.com/serma100000/Union-Beach-Library/internal/log"
	"github.com/serma100000/Union-Beach-Library/internal/site"
)

// Server hosts the library website: server-rendered pages, calendar
// exports and a small JSON API over the current event set.
type Server struct {
	cfg     *config.Config
	router  chi.Router
	tmpls   map[string]*template.Template
	contact *contact.Service

	// The controller is replaced wholesale on reload; handlers take a
	// reference under the read lock and use it for the whole request.
	ctrlMu     sync.RWMutex
	ctrl       *events.Controller
	loadedAt   time.Time
	loadErrors int
}

// NewServer constructs a Server around an initial controller.
func NewServer(cfg *config.Config, ctrl *events.Controller) (*Server, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	tmpls, err := site.Templates(template.FuncMap{})
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:      cfg,
		router:   chi.NewRouter(),
		tmpls:    tmpls,
		contact:  contact.NewService(time.Duration(cfg.ContactDelayMS) * time.Millisecond),
		ctrl:     ctrl,
		loadedAt: time.Now(),
	}
	s.registerRoutes()
	return s, nil
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// SetController swaps in a freshly loaded event set. feedErrors is the
// number of feeds that failed during the load, reported by /health.
func (s *Server) SetController(ctrl *events.Controller, feedErrors int) {
	s.ctrlMu.Lock()
	s.ctrl = ctrl
	s.loadedAt = time.Now()
	s.loadErrors = feedErrors
	s.ctrlMu.Unlock()
	appLog.Info("event set replaced", "records", ctrl.Len(), "feed_errors", feedErrors)
}

func (s *Server) controller() *events.Controller {
	s.ctrlMu.RLock()
	defer s.ctrlMu.RUnlock()
	return s.ctrl
}

// Run serves on cfg.Listen until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	appLog.Info("shutting down HTTP server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

func (s *Server) registerRoutes() {
	r := s.router
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger)
	r.Use(chimw.Recoverer)

	r.Get("/health", s.handleHealth)

	r.Get("/", s.handleHome)
	r.Get("/about", s.handleStaticPage("about", "About the Library"))
	r.Get("/history", s.handleStaticPage("history", "Our History"))
	r.Get("/contact", s.handleContactForm)
	r.Post("/contact", s.handleContactSubmit)

	r.Route("/calendar", func(r chi.Router) {
		r.Get("/", s.handleCalendar)
		r.Get("/clear", s.handleCalendarClear)
		r.Get("/export.ics", s.handleCalendarExport)
		r.Get("/link", s.handleCalendarLink)
	})
	r.Get("/events/{id}/ics", s.handleEventICS)
	r.Get("/events/{id}/link", s.handleEventLink)
	r.Get("/api/events", s.handleAPIEvents)

	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(site.Static()))))

	r.NotFound(s.handleNotFound)
}

// requestLogger logs one line per request once the response is written.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		appLog.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).String(),
			"request_id", chimw.GetReqID(r.Context()),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.ctrlMu.RLock()
	records := 0
	if s.ctrl != nil {
		records = s.ctrl.Len()
	}
	loadedAt := s.loadedAt
	feedErrors := s.loadErrors
	s.ctrlMu.RUnlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"records":     records,
		"loaded_at":   loadedAt.UTC().Format(time.RFC3339),
		"feed_errors": feedErrors,
	})
}

// pageData is what layout.html and every page template receive.
type pageData struct {
	SiteName           string
	Title              string
	Active             string
	Status             string
	StatusClearSeconds int
	View               any
}

func (s *Server) page(active, title, status string, view any) pageData {
	return pageData{
		SiteName:           s.cfg.SiteName,
		Title:              title,
		Active:             active,
		Status:             status,
		StatusClearSeconds: s.cfg.StatusClearSeconds,
		View:               view,
	}
}

// render executes a page into a buffer first so template errors never
// leave a half-written response.
func (s *Server) render(w http.ResponseWriter, status int, name string, data pageData) {
	tmpl, ok := s.tmpls[name]
	if !ok {
		appLog.Error("unknown template", errors.New("template not found"), "name", name)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		appLog.Error("failed to render page", err, "name", name)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	appLog.Debug("page not found", "path", r.URL.Path)
	http.Error(w, "page not found", http.StatusNotFound)
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
