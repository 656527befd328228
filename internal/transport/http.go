package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"classyai/internal/lead"
	"classyai/pkg/logger"
	"classyai/pkg/metrics"
	"classyai/pkg/otel"
	"classyai/pkg/trace"
)

// HTTPTransport POSTs the payload once to {baseURL}/api/contact. Any 2xx is
// success; the response body is never read for meaning.
type HTTPTransport struct {
	endpoint   string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewHTTPTransport uses a client without a timeout unless one is passed in.
func NewHTTPTransport(baseURL string, client *http.Client, logger *zap.Logger) *HTTPTransport {
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPTransport{
		endpoint:   strings.TrimRight(baseURL, "/") + ContactPath,
		httpClient: client,
		logger:     logger,
	}
}

func (t *HTTPTransport) Strategy() Strategy { return StrategyHTTP }

func (t *HTTPTransport) Submit(ctx context.Context, p lead.Payload) (res Result) {
	start := time.Now()
	status := "error"
	ctx, span := otel.HTTPClientSpan(ctx, http.MethodPost, t.endpoint)
	defer func() {
		if r := recover(); r != nil {
			res = Result{Outcome: OutcomeFailed, Err: fmt.Errorf("transport panic: %v", r)}
		}
		metrics.RecordTransportLatency(string(StrategyHTTP), status, time.Since(start))
		if res.Err != nil {
			logger.WithTrace(ctx, t.logger).Warn("Lead submission failed",
				zap.String("source", string(p.Source)),
				zap.String("endpoint", t.endpoint),
				zap.Error(res.Err),
			)
		}
		otel.EndSpan(span, res.Err)
	}()

	body, err := json.Marshal(p)
	if err != nil {
		return Result{Outcome: OutcomeFailed, Err: fmt.Errorf("encode payload: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return Result{Outcome: OutcomeFailed, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	otel.InjectHTTP(ctx, req.Header)
	if traceID := trace.FromContext(ctx); traceID != "" {
		req.Header.Set(trace.HeaderName(), traceID)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return Result{Outcome: OutcomeFailed, Err: fmt.Errorf("post %s: %w", t.endpoint, err)}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	status = strconv.Itoa(resp.StatusCode)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{Outcome: OutcomeFailed, Err: fmt.Errorf("contact api returned status %d", resp.StatusCode)}
	}

	return Result{Outcome: OutcomeSucceeded}
}
