package relay

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	mqcontracts "classyai/contracts/mq"
	"classyai/internal/lead"
	"classyai/pkg/logger"
	"classyai/pkg/outbox"
	"classyai/pkg/trace"
)

// Acceptor persists an accepted lead and schedules its delivery.
type Acceptor interface {
	Accept(ctx context.Context, p lead.Payload) (int64, error)
}

type Service struct {
	db         *pgxpool.Pool
	leadRepo   *LeadRepository
	outboxRepo *outbox.Repository
	logger     *zap.Logger
}

func NewService(db *pgxpool.Pool, leadRepo *LeadRepository, logger *zap.Logger) *Service {
	return &Service{
		db:         db,
		leadRepo:   leadRepo,
		outboxRepo: outbox.NewRepository(db),
		logger:     logger,
	}
}

// Accept writes the lead row and its lead.received outbox event in one
// transaction, so a committed lead is always eventually delivered.
func (s *Service) Accept(ctx context.Context, p lead.Payload) (int64, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	l := newLead(ctx, p)
	if err := s.leadRepo.InsertTx(ctx, tx, l); err != nil {
		return 0, err
	}

	if err := outbox.InsertEventInTx(ctx, tx, s.outboxRepo, "lead", &l.ID, mqcontracts.RoutingKeyLeadReceived, receivedPayload(l)); err != nil {
		return 0, fmt.Errorf("failed to insert lead.received to outbox: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	logger.WithTrace(ctx, s.logger).Info("Lead queued",
		zap.Int64("lead_id", l.ID),
		zap.String("source", l.Source),
	)
	return l.ID, nil
}

func newLead(ctx context.Context, p lead.Payload) *Lead {
	return &Lead{
		Email:   p.Email,
		Name:    p.Name,
		Message: p.Message,
		Source:  string(p.Source),
		Status:  LeadStatusQueued,
		TraceID: trace.FromContext(ctx),
	}
}

func receivedPayload(l *Lead) mqcontracts.LeadReceivedPayload {
	receivedAt := l.CreatedAt
	if receivedAt.IsZero() {
		receivedAt = time.Now()
	}
	return mqcontracts.LeadReceivedPayload{
		LeadID:     l.ID,
		Email:      l.Email,
		Name:       l.Name,
		Message:    l.Message,
		Source:     l.Source,
		ReceivedAt: receivedAt,
		TraceID:    l.TraceID,
	}
}
