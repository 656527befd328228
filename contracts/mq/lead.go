package mq

import "time"

const RoutingKeyLeadReceived = "lead.received"

// LeadReceivedPayload is published by the relay once a lead row is committed.
type LeadReceivedPayload struct {
	LeadID     int64     `json:"lead_id"`
	Email      string    `json:"email"`
	Name       string    `json:"name,omitempty"`
	Message    string    `json:"message"`
	Source     string    `json:"source"`
	ReceivedAt time.Time `json:"received_at"`
	TraceID    string    `json:"trace_id,omitempty"`
}
