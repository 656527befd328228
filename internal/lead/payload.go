// Package lead holds the submission payload shared by every lead-capture surface
// (contact form, chat widget, startup story) and the stateless steps that build it.
package lead

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Source identifies which surface produced a submission.
type Source string

const (
	SourceContact Source = "contact"
	SourceChat    Source = "chat"
	SourceStory   Source = "story"
)

var (
	ErrInvalidEmail  = errors.New("invalid email")
	ErrUnknownSource = errors.New("unknown source")
)

var validate = validator.New()

// ParseSource accepts only the three known surface tags.
func ParseSource(s string) (Source, error) {
	switch Source(s) {
	case SourceContact, SourceChat, SourceStory:
		return Source(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSource, s)
}

// Payload is built fresh for every submit event and dropped once transport resolves.
type Payload struct {
	Email    string `json:"email"`
	Message  string `json:"message"`
	Source   Source `json:"source"`
	Honeypot string `json:"confirm_email_address,omitempty"`
	Name     string `json:"name,omitempty"`
}

// ValidateEmail is the basic email-shape check run before any transport attempt.
func ValidateEmail(email string) error {
	if err := validate.Var(email, "required,email"); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidEmail, email)
	}
	return nil
}
