// Package transport delivers a lead payload to its destination. A deployment
// runs exactly one strategy: a mailto: handoff or a POST to the contact API.
package transport

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"classyai/internal/lead"
)

type Strategy string

const (
	StrategyHTTP Strategy = "http"
	StrategyMail Strategy = "mail"
)

type Outcome int

const (
	OutcomeFailed Outcome = iota
	OutcomeSucceeded
	// OutcomeHandedOff means the submission left for the visitor's mail client.
	// Delivery cannot be observed.
	OutcomeHandedOff
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeHandedOff:
		return "handed_off"
	default:
		return "failed"
	}
}

// Result is what the caller gets back from Submit. Err is kept for logs only;
// visitors always see one generic failure message.
type Result struct {
	Outcome    Outcome
	HandoffURL string
	Err        error
}

func (r Result) OK() bool {
	return r.Outcome != OutcomeFailed
}

// Transport never returns an error and never panics past the caller.
type Transport interface {
	Submit(ctx context.Context, p lead.Payload) Result
	Strategy() Strategy
}

type Config struct {
	Strategy     Strategy `yaml:"strategy"`
	BaseURL      string   `yaml:"base_url"`
	ContactEmail string   `yaml:"contact_email"`
}

const (
	DefaultBaseURL = "https://classy-contact-api.onrender.com"
	ContactPath    = "/api/contact"
)

// New builds the single configured strategy.
func New(cfg Config, logger *zap.Logger) (Transport, error) {
	switch Strategy(strings.ToLower(string(cfg.Strategy))) {
	case StrategyHTTP, "":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = DefaultBaseURL
		}
		return NewHTTPTransport(baseURL, nil, logger), nil
	case StrategyMail:
		if cfg.ContactEmail == "" {
			return nil, fmt.Errorf("mail strategy requires contact_email")
		}
		return NewMailTransport(cfg.ContactEmail), nil
	default:
		return nil, fmt.Errorf("unknown transport strategy %q", cfg.Strategy)
	}
}
