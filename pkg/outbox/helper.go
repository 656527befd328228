package outbox

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"

	"classyai/pkg/trace"
)

// InsertEventInTx 在事务中插入事件到 outbox（辅助函数）
// payload 会带上 ctx 中的 trace_id，Dispatcher 发布时再取出来
func InsertEventInTx(
	ctx context.Context,
	tx pgx.Tx,
	repo *Repository,
	aggregateType string,
	aggregateID *int64,
	routingKey string,
	payload interface{},
) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	payloadJSON = withTraceID(ctx, payloadJSON)

	event := &Event{
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		RoutingKey:    routingKey,
		Payload:       payloadJSON,
		Status:        StatusPending,
	}

	return repo.InsertEvent(ctx, tx, event)
}

func withTraceID(ctx context.Context, payload json.RawMessage) json.RawMessage {
	traceID := trace.FromContext(ctx)
	if traceID == "" {
		return payload
	}

	var m map[string]interface{}
	if err := json.Unmarshal(payload, &m); err != nil || m == nil {
		return payload
	}
	if _, exists := m["trace_id"]; exists {
		return payload
	}
	m["trace_id"] = traceID

	out, err := json.Marshal(m)
	if err != nil {
		return payload
	}
	return out
}
