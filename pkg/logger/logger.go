package logger

import (
	"context"

	"go.uber.org/zap"

	"classyai/pkg/trace"
)

// NewLogger 创建生产环境 logger，每条日志带 service 字段
func NewLogger(service string) *zap.Logger {
	l, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	if service != "" {
		l = l.With(zap.String("service", service))
	}
	return l
}

// WithTrace 从 context 中提取 trace_id 并添加到 logger
func WithTrace(ctx context.Context, logger *zap.Logger) *zap.Logger {
	traceID := trace.FromContext(ctx)
	if traceID != "" {
		return logger.With(zap.String("trace_id", traceID))
	}
	return logger
}
