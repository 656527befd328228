package relay

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"classyai/pkg/otel"
)

type LeadRepository struct {
	db *pgxpool.Pool
}

func NewLeadRepository(db *pgxpool.Pool) *LeadRepository {
	return &LeadRepository{db: db}
}

// InsertTx inserts the lead inside tx and fills in ID and CreatedAt.
func (r *LeadRepository) InsertTx(ctx context.Context, tx pgx.Tx, l *Lead) error {
	query := `
		INSERT INTO leads (email, name, message, source, status, trace_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	err := otel.WithDBSpan(ctx, "insert_lead", func(ctx context.Context) error {
		return tx.QueryRow(ctx, query, l.Email, l.Name, l.Message, l.Source, l.Status, l.TraceID).
			Scan(&l.ID, &l.CreatedAt)
	})
	if err != nil {
		return fmt.Errorf("failed to insert lead: %w", err)
	}
	return nil
}

// IsDelivered returns pgx.ErrNoRows (wrapped) for an unknown lead.
func (r *LeadRepository) IsDelivered(ctx context.Context, id int64) (bool, error) {
	var status string
	err := otel.WithDBSpan(ctx, "select_lead_status", func(ctx context.Context) error {
		return r.db.QueryRow(ctx, `SELECT status FROM leads WHERE id = $1`, id).Scan(&status)
	})
	if err != nil {
		return false, fmt.Errorf("failed to load lead %d: %w", id, err)
	}
	return status == LeadStatusDelivered, nil
}

func (r *LeadRepository) MarkDelivered(ctx context.Context, id int64) error {
	err := otel.WithDBSpan(ctx, "mark_lead_delivered", func(ctx context.Context) error {
		_, err := r.db.Exec(ctx, `
			UPDATE leads
			SET status = $1, delivered_at = NOW()
			WHERE id = $2
		`, LeadStatusDelivered, id)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to mark lead delivered: %w", err)
	}
	return nil
}
