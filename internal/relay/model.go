package relay

import "time"

const (
	LeadStatusQueued    = "queued"
	LeadStatusDelivered = "delivered"
)

type Lead struct {
	ID          int64
	Email       string
	Name        string
	Message     string
	Source      string
	Status      string
	TraceID     string
	CreatedAt   time.Time
	DeliveredAt *time.Time
}
