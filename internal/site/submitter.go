package site

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"classyai/internal/feedback"
	"classyai/internal/lead"
	"classyai/internal/transport"
	"classyai/pkg/logger"
	"classyai/pkg/metrics"
)

var (
	ErrMessageRequired = errors.New("message required")
	ErrSubmitInFlight  = errors.New("submission already in flight")
)

type SubmitResult struct {
	Outcome    transport.Outcome
	Toast      *feedback.Toast
	HandoffURL string
}

// Submitter runs the lead pipeline: collect, guard, deliver once, present.
type Submitter struct {
	transport transport.Transport
	story     transport.Transport
	guard     lead.SpamGuard
	page      PageConfig
	logger    *zap.Logger
}

func NewSubmitter(tr transport.Transport, guard lead.SpamGuard, page PageConfig, logger *zap.Logger) *Submitter {
	return &Submitter{
		transport: tr,
		story:     tr,
		guard:     guard,
		page:      page.WithDefaults(),
		logger:    logger,
	}
}

// WithStoryTransport sends startup stories through tr instead of the form
// transport. Stories always go to the contact API, even on mail deployments.
func (s *Submitter) WithStoryTransport(tr transport.Transport) *Submitter {
	s.story = tr
	return s
}

// Submit handles one submit event from a contact or chat form. Validation
// errors and a busy form return before transport is touched.
func (s *Submitter) Submit(ctx context.Context, v *View, source lead.Source, values url.Values) (SubmitResult, error) {
	form, panel, msgs, err := s.surface(v, source)
	if err != nil {
		return SubmitResult{}, err
	}

	if err := lead.ValidateEmail(strings.TrimSpace(values.Get(lead.EmailField(source)))); err != nil {
		metrics.IncrementSubmission(string(source), "invalid")
		return SubmitResult{}, err
	}
	if source == lead.SourceChat && strings.TrimSpace(values.Get(lead.FieldChatMessage)) == "" {
		metrics.IncrementSubmission(string(source), "invalid")
		return SubmitResult{}, ErrMessageRequired
	}

	if !form.Begin(values) {
		metrics.IncrementSubmission(string(source), "busy")
		return SubmitResult{}, ErrSubmitInFlight
	}

	payload := lead.Collect(source, values)
	s.guard.Apply(values, &payload)

	log := logger.WithTrace(ctx, s.logger)
	if lead.Flagged(payload) {
		log.Info("Honeypot filled, forwarding for server-side decision", zap.String("source", string(source)))
	}

	res := s.transport.Submit(ctx, payload)
	toast := feedback.NewPresenter(v.Notifier).Present(res, msgs, form, panel)
	metrics.IncrementSubmission(string(source), res.Outcome.String())

	log.Info("Lead submitted",
		zap.String("source", string(source)),
		zap.String("strategy", string(s.transport.Strategy())),
		zap.String("outcome", res.Outcome.String()),
	)

	return SubmitResult{Outcome: res.Outcome, Toast: toast, HandoffURL: res.HandoffURL}, nil
}

func (s *Submitter) surface(v *View, source lead.Source) (*feedback.Form, *feedback.Panel, feedback.Messages, error) {
	switch source {
	case lead.SourceContact:
		return &v.Contact, nil, s.page.ContactMessages, nil
	case lead.SourceChat:
		return &v.Chat, &v.ChatPanel, s.page.ChatMessages, nil
	}
	return nil, nil, feedback.Messages{}, fmt.Errorf("%w: %q is not a form surface", lead.ErrUnknownSource, source)
}

type StoryResult struct {
	Outcome    transport.Outcome
	Ack        string
	HandoffURL string
}

// SendStory submits the visitor's draft with the honeypot from values. The
// acknowledgment text is returned to the caller and also shown through the
// view's notifier.
func (s *Submitter) SendStory(ctx context.Context, v *View, values url.Values) (StoryResult, error) {
	var flagged bool
	res, err := v.Story.Send(ctx, s.story, func(p *lead.Payload) {
		s.guard.Apply(values, p)
		flagged = lead.Flagged(*p)
	})
	if err != nil {
		return StoryResult{}, err
	}
	metrics.IncrementSubmission(string(lead.SourceStory), res.Outcome.String())
	if flagged {
		logger.WithTrace(ctx, s.logger).Info("Honeypot filled, forwarding for server-side decision",
			zap.String("source", string(lead.SourceStory)))
	}

	switch res.Outcome {
	case transport.OutcomeSucceeded:
		ack := fmt.Sprintf("Story sent to %s ✨", s.page.Inbox)
		v.Notifier.Show(feedback.KindSuccess, ack)
		return StoryResult{Outcome: res.Outcome, Ack: ack}, nil
	case transport.OutcomeHandedOff:
		return StoryResult{Outcome: res.Outcome, HandoffURL: res.HandoffURL}, nil
	}

	ack := "Failed to send story. Please try again."
	v.Notifier.Show(feedback.KindError, ack)
	return StoryResult{Outcome: res.Outcome, Ack: ack}, nil
}
