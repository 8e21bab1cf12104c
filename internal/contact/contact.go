// Package contact validates Contact page submissions and simulates the
// delivery step that a mail or ticketing backend would perform.
package contact

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	appLog "github.com/serma100000/Union-Beach-Library/internal/log"
)

// Topics offered by the form's subject select.
var Topics = []string{"general", "events", "membership", "room-booking", "feedback"}

// Message is one contact form submission.
type Message struct {
	Name    string `validate:"required,max=100"`
	Email   string `validate:"required,email,max=254"`
	Phone   string `validate:"omitempty,max=30"`
	Topic   string `validate:"required,oneof=general events membership room-booking feedback"`
	Message string `validate:"required,min=10,max=2000"`
}

// FieldErrors maps form field names to user-facing messages.
type FieldErrors map[string]string

func (f FieldErrors) Error() string {
	return "contact: invalid submission"
}

// ErrInvalid matches any FieldErrors via errors.Is.
var ErrInvalid = errors.New("contact: invalid submission")

func (f FieldErrors) Is(target error) bool {
	return target == ErrInvalid
}

// Service validates and "sends" messages.
type Service struct {
	validate *validator.Validate
	delay    time.Duration
}

// NewService returns a Service whose Submit waits delay before reporting
// success.
func NewService(delay time.Duration) *Service {
	return &Service{
		validate: validator.New(),
		delay:    delay,
	}
}

// Normalize trims surrounding whitespace from every field.
func (m Message) Normalize() Message {
	return Message{
		Name:    strings.TrimSpace(m.Name),
		Email:   strings.TrimSpace(m.Email),
		Phone:   strings.TrimSpace(m.Phone),
		Topic:   strings.TrimSpace(m.Topic),
		Message: strings.TrimSpace(m.Message),
	}
}

// Validate returns FieldErrors describing every invalid field, or nil.
func (s *Service) Validate(m Message) error {
	err := s.validate.Struct(m)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := FieldErrors{}
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		if _, seen := out[field]; seen {
			continue
		}
		out[field] = fieldMessage(fe)
	}
	return out
}

// Submit validates m and then waits for the simulated delivery delay. It
// returns ctx.Err() if the request goes away first.
func (s *Service) Submit(ctx context.Context, m Message) error {
	m = m.Normalize()
	if err := s.Validate(m); err != nil {
		return err
	}

	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	appLog.Info("contact message accepted", "topic", m.Topic, "message_len", len(m.Message))
	return nil
}

func fieldMessage(fe validator.FieldError) string {
	label := fe.Field()
	switch fe.Tag() {
	case "required":
		return label + " is required."
	case "email":
		return "Enter a valid email address."
	case "min":
		return label + " must be at least " + fe.Param() + " characters."
	case "max":
		return label + " must be at most " + fe.Param() + " characters."
	case "oneof":
		return "Choose a topic from the list."
	default:
		return label + " is invalid."
	}
}
