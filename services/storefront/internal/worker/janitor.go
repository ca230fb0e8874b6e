package worker

import (
	"context"
	"log/slog"
	"time"
)

type CacheCleaner interface {
	CleanupExpired(ctx context.Context) int
}

// CacheJanitor periodically sweeps the idempotency cache for entries that
// were written without a TTL and would otherwise never expire.
type CacheJanitor struct {
	cleaner CacheCleaner
	logger  *slog.Logger
	ticker  *time.Ticker
}

func NewCacheJanitor(cleaner CacheCleaner, logger *slog.Logger, interval time.Duration) *CacheJanitor {
	return &CacheJanitor{
		cleaner: cleaner,
		logger:  logger,
		ticker:  time.NewTicker(interval),
	}
}

func (j *CacheJanitor) Start(ctx context.Context) {
	j.logger.Info("Starting Cache Janitor")
	for {
		select {
		case <-ctx.Done():
			j.logger.Info("Stopping Cache Janitor")
			j.ticker.Stop()
			return
		case <-j.ticker.C:
			removed := j.cleaner.CleanupExpired(ctx)
			if removed > 0 {
				j.logger.Info("Cache janitor sweep removed entries", "count", removed)
			}
		}
	}
}
