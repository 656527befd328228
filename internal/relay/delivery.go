package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	mqcontracts "classyai/contracts/mq"
	"classyai/internal/lead"
	"classyai/pkg/circuitbreaker"
	"classyai/pkg/logger"
	"classyai/pkg/metrics"
	"classyai/pkg/mq"
	"classyai/pkg/trace"
	"classyai/pkg/util"
)

const (
	deliveryHandlerName = "mail"
	defaultMaxRetries   = 5
)

// openCircuitPause slows the requeue loop while SMTP is known to be down.
var openCircuitPause = time.Second

// LeadStatusStore is the slice of the lead repository delivery needs.
type LeadStatusStore interface {
	IsDelivered(ctx context.Context, id int64) (bool, error)
	MarkDelivered(ctx context.Context, id int64) error
}

// DeliveryHandler consumes lead.received and mails each lead to the inbox.
type DeliveryHandler struct {
	leads        LeadStatusStore
	mailer       Mailer
	breaker      *circuitbreaker.CircuitBreaker
	deduper      *util.Deduper
	retryCounter *util.RetryCounter
	inbox        string
	maxRetries   int64
	logger       *zap.Logger
}

func NewDeliveryHandler(
	leads LeadStatusStore,
	mailer Mailer,
	breaker *circuitbreaker.CircuitBreaker,
	deduper *util.Deduper,
	retryCounter *util.RetryCounter,
	inbox string,
	maxRetries int,
	logger *zap.Logger,
) *DeliveryHandler {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	return &DeliveryHandler{
		leads:        leads,
		mailer:       mailer,
		breaker:      breaker,
		deduper:      deduper,
		retryCounter: retryCounter,
		inbox:        inbox,
		maxRetries:   int64(maxRetries),
		logger:       logger,
	}
}

// Handle returns nil to ack, an error wrapping mq.ErrPoisonMessage to
// dead-letter, and any other error to requeue.
func (h *DeliveryHandler) Handle(ctx context.Context, raw json.RawMessage) error {
	var payload mqcontracts.LeadReceivedPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		h.logger.Error("Invalid LeadReceivedPayload, sending to DLQ",
			zap.String("raw", string(raw)),
			zap.Error(err),
		)
		metrics.IncrementMailDelivery("dead_letter")
		return fmt.Errorf("%w: bad_payload: %v", mq.ErrPoisonMessage, err)
	}
	if payload.LeadID == 0 {
		metrics.IncrementMailDelivery("dead_letter")
		return fmt.Errorf("%w: lead_id missing", mq.ErrPoisonMessage)
	}

	if payload.TraceID != "" {
		ctx = trace.WithContext(ctx, payload.TraceID)
	}
	log := logger.WithTrace(ctx, h.logger).With(zap.Int64("lead_id", payload.LeadID))

	delivered, err := h.leads.IsDelivered(ctx, payload.LeadID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			log.Warn("Lead not found, dropping event")
			metrics.IncrementMailDelivery("dropped")
			return nil
		}
		return err
	}
	if delivered {
		log.Info("Lead already delivered, skip")
		return nil
	}

	if !h.deduper.AcquireOnce(ctx, deliveryHandlerName, payload.LeadID) {
		return nil
	}

	retryKey := util.FormatRetryKey(deliveryHandlerName, payload.LeadID)
	retryCount, _ := h.retryCounter.Get(ctx, retryKey)

	msg := h.render(payload)
	err = h.breaker.Execute(func() error {
		// Only real attempts count toward the retry budget.
		retryCount, _ = h.retryCounter.IncrementAndGet(ctx, retryKey)
		return h.mailer.Send(ctx, msg)
	})
	if err != nil {
		return h.handleSendError(ctx, log, err, retryKey, retryCount, payload.LeadID)
	}

	if err := h.leads.MarkDelivered(ctx, payload.LeadID); err != nil {
		// The mail is out and the dedup key stays held, so a redelivery is
		// skipped rather than mailed twice.
		log.Error("Lead mailed but status update failed", zap.Error(err))
	}
	_ = h.retryCounter.Reset(ctx, retryKey)

	metrics.IncrementMailDelivery("sent")
	log.Info("Lead delivered", zap.String("source", payload.Source))
	return nil
}

func (h *DeliveryHandler) render(p mqcontracts.LeadReceivedPayload) Message {
	subject, body := lead.Compose(lead.Payload{
		Email:   p.Email,
		Name:    p.Name,
		Message: p.Message,
		Source:  lead.Source(p.Source),
	})
	msg := Message{
		To:      h.inbox,
		Subject: subject,
		Body:    body,
	}
	// Story leads carry the inbox itself as their address.
	if p.Email != h.inbox {
		msg.ReplyTo = p.Email
	}
	return msg
}

func (h *DeliveryHandler) handleSendError(ctx context.Context, log *zap.Logger, err error, retryKey string, retryCount, leadID int64) error {
	isRetryable, errType := util.IsRetryableError(err)
	log.Warn("Mail delivery failed",
		zap.String("error_type", errType),
		zap.Bool("retryable", isRetryable),
		zap.Int64("retry", retryCount),
		zap.Error(err),
	)

	// Let the requeued copy through the deduper.
	h.deduper.Release(ctx, deliveryHandlerName, leadID)

	if errors.Is(err, circuitbreaker.ErrCircuitBreakerOpen) {
		metrics.IncrementMailDelivery("retry")
		h.pause(ctx)
		return err
	}

	if !util.ShouldRetry(retryCount, h.maxRetries, isRetryable) {
		_ = h.retryCounter.Reset(ctx, retryKey)
		metrics.IncrementMailDelivery("dead_letter")
		return fmt.Errorf("%w: %s after %d attempts: %v", mq.ErrPoisonMessage, errType, retryCount, err)
	}

	metrics.IncrementMailDelivery("retry")
	return err
}

func (h *DeliveryHandler) pause(ctx context.Context) {
	t := time.NewTimer(openCircuitPause)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
