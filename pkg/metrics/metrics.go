package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP 请求延迟（秒）
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	// 表单提交计数
	SubmissionCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lead_submission_count",
			Help: "Total number of lead submissions by surface and outcome",
		},
		[]string{"source", "outcome"}, // outcome: succeeded, failed, handed_off, invalid, busy
	)

	// Transport 调用延迟（秒）
	TransportLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lead_transport_latency_seconds",
			Help:    "Lead transport call latency in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10), // 10ms to ~10s
		},
		[]string{"strategy", "status"},
	)

	// 草稿写入计数
	DraftWriteCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "story_draft_write_count",
			Help: "Total number of story draft writes",
		},
		[]string{"op", "status"}, // op: set, clear
	)

	// relay 收到的线索计数
	RelayLeadCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_lead_count",
			Help: "Total number of leads received by the relay",
		},
		[]string{"source", "decision"}, // decision: queued, discarded, failed
	)

	// 邮件投递计数
	MailDeliveryCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mail_delivery_count",
			Help: "Total number of lead emails delivered",
		},
		[]string{"status"}, // status: success, failed, duplicate, dead_lettered
	)

	// 慢查询计数
	SlowQueryCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_slow_query_count",
			Help: "Total number of queries slower than the pool threshold",
		},
		[]string{"pool"},
	)

	// MQ 消费延迟（毫秒）
	MQConsumeLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mq_consume_latency_ms",
			Help:    "MQ message consumption latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(10, 2, 10), // 10ms to ~10s
		},
		[]string{"routing_key", "queue"},
	)
)

// RecordHTTPRequestDuration 记录 HTTP 请求延迟
func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// IncrementSubmission 增加表单提交计数
func IncrementSubmission(source, outcome string) {
	SubmissionCount.WithLabelValues(source, outcome).Inc()
}

// RecordTransportLatency 记录 Transport 调用延迟
func RecordTransportLatency(strategy, status string, duration time.Duration) {
	TransportLatency.WithLabelValues(strategy, status).Observe(duration.Seconds())
}

// IncrementDraftWrite 增加草稿写入计数
func IncrementDraftWrite(op, status string) {
	DraftWriteCount.WithLabelValues(op, status).Inc()
}

// IncrementRelayLead 增加 relay 线索计数
func IncrementRelayLead(source, decision string) {
	RelayLeadCount.WithLabelValues(source, decision).Inc()
}

// IncrementMailDelivery 增加邮件投递计数
func IncrementMailDelivery(status string) {
	MailDeliveryCount.WithLabelValues(status).Inc()
}

// IncrementSlowQuery 增加慢查询计数
func IncrementSlowQuery(pool string) {
	SlowQueryCount.WithLabelValues(pool).Inc()
}

// RecordMQConsumeLatency 记录 MQ 消费延迟
func RecordMQConsumeLatency(routingKey, queue string, duration time.Duration) {
	MQConsumeLatency.WithLabelValues(routingKey, queue).Observe(float64(duration.Milliseconds()))
}

// GinMiddleware 记录每个请求的延迟，path 使用路由模板避免高基数
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		RecordHTTPRequestDuration(c.Request.Method, path, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
