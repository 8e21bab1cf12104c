package web

import (
	"errors"
	"net/http"

	"github.com/serma100000/Union-Beach-Library/internal/contact"
	"github.com/serma100000/Union-Beach-Library/internal/events"
	appLog "github.com/serma100000/Union-Beach-Library/internal/log"
)

// homeEventCount is how many upcoming events the home page teases.
const homeEventCount = 3

const (
	msgContactInvalid = "Please correct the highlighted fields."
	msgContactFailed  = "Your message could not be sent. Please try again."
)

func (s *Server) handleHome(w http.ResponseWriter, _ *http.Request) {
	ctrl := s.controller()
	st := ctrl.Initial()

	var upcoming []eventView
	for _, rec := range ctrl.VisibleRecords(st) {
		if len(upcoming) == homeEventCount {
			break
		}
		upcoming = append(upcoming, newEventView(rec, ctrl.Location()))
	}

	s.render(w, http.StatusOK, "home", s.page("home", "Home", "", upcoming))
}

func (s *Server) handleStaticPage(name, title string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		s.render(w, http.StatusOK, name, s.page(name, title, "", nil))
	}
}

type contactView struct {
	Form   contact.Message
	Errors contact.FieldErrors
	Topics []string
}

func (s *Server) handleContactForm(w http.ResponseWriter, _ *http.Request) {
	view := contactView{Topics: contact.Topics}
	s.render(w, http.StatusOK, "contact", s.page("contact", "Contact Us", "", view))
}

func (s *Server) handleContactSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	msg := contact.Message{
		Name:    r.PostFormValue("name"),
		Email:   r.PostFormValue("email"),
		Phone:   r.PostFormValue("phone"),
		Topic:   r.PostFormValue("topic"),
		Message: r.PostFormValue("message"),
	}

	err := s.contact.Submit(r.Context(), msg)
	switch {
	case err == nil:
		status := "Thank you, " + msg.Normalize().Name + ". We will reply within two business days."
		view := contactView{Topics: contact.Topics}
		s.render(w, http.StatusOK, "contact", s.page("contact", "Contact Us", status, view))

	case errors.Is(err, contact.ErrInvalid):
		var fields contact.FieldErrors
		errors.As(err, &fields)
		view := contactView{Form: msg.Normalize(), Errors: fields, Topics: contact.Topics}
		s.render(w, http.StatusUnprocessableEntity, "contact", s.page("contact", "Contact Us", msgContactInvalid, view))

	case r.Context().Err() != nil:
		appLog.Debug("contact request abandoned", "err", err.Error())

	default:
		appLog.Error("contact submission failed", err)
		view := contactView{Form: msg.Normalize(), Topics: contact.Topics}
		s.render(w, http.StatusInternalServerError, "contact", s.page("contact", "Contact Us", msgContactFailed, view))
	}
}

// exportStatusCode maps an export refusal to the HTTP status the
// re-rendered calendar page is sent with.
func exportStatusCode(err error) int {
	switch {
	case errors.Is(err, events.ErrEventNotFound):
		return http.StatusNotFound
	case err != nil:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusOK
	}
}
