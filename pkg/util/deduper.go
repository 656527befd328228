package util

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Deduper struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewDeduper(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *Deduper {
	return &Deduper{
		rdb:    rdb,
		ttl:    ttl,
		logger: logger,
	}
}

// AcquireOnce tries to acquire a dedup lock for a given handler + leadID.
// returns true if this is the FIRST time processing, false for a duplicate.
func (d *Deduper) AcquireOnce(ctx context.Context, handler string, leadID int64) bool {
	key := FormatDedupKey(handler, leadID)

	ok, err := d.rdb.SetNX(ctx, key, 1, d.ttl).Result()
	if err != nil {
		// Redis 不可用时不阻止处理，宁可重复投递也不丢线索
		d.logger.Warn("Redis dedup check failed, allowing processing",
			zap.String("handler", handler),
			zap.Int64("lead_id", leadID),
			zap.Error(err),
		)
		return true
	}

	if !ok {
		d.logger.Info("Skipped duplicated event",
			zap.String("handler", handler),
			zap.Int64("lead_id", leadID),
			zap.String("dedup_key", key),
		)
	}

	return ok
}

// Release 删除去重键；投递失败需要重试时调用，否则重新入队的消息会被当成重复
func (d *Deduper) Release(ctx context.Context, handler string, leadID int64) {
	if err := d.rdb.Del(ctx, FormatDedupKey(handler, leadID)).Err(); err != nil {
		d.logger.Warn("Failed to release dedup key",
			zap.String("handler", handler),
			zap.Int64("lead_id", leadID),
			zap.Error(err),
		)
	}
}

func FormatDedupKey(handler string, leadID int64) string {
	return fmt.Sprintf("dedup:%s:%d", handler, leadID)
}
