package idempotency

import (
	"context"
	"log/slog"

	"github.com/kay-kewl/shop-platform/internal/cache"
	"github.com/kay-kewl/shop-platform/internal/metrics"
)

// Admin exposes the support-tooling operations on the idempotency cache.
// Failures are logged and reported as "nothing removed" rather than returned
// as errors, so batch tooling keeps running.
type Admin struct {
	store     cache.Store
	keyPrefix string
	logger    *slog.Logger
}

func NewAdmin(store cache.Store, keyPrefix string, logger *slog.Logger) *Admin {
	return &Admin{
		store:     store,
		keyPrefix: keyPrefix,
		logger:    logger.With(slog.String("component", "IdempotencyAdmin")),
	}
}

// Delete removes the cached entry for one idempotency key, force-allowing a
// retry. Reports whether an entry was actually removed.
func (a *Admin) Delete(ctx context.Context, key string) bool {
	const op = "Admin.Delete"
	log := a.logger.With(slog.String("op", op))

	removed, err := a.store.Delete(ctx, a.keyPrefix+key)
	if err != nil {
		metrics.IdempotencyCacheErrorsTotal.WithLabelValues("delete").Inc()
		log.Error("Failed to delete cached entry", "key", key, "error", err)
		return false
	}

	return removed > 0
}

// CleanupExpired scans all keys under the prefix and removes the ones that
// have no TTL set. Entries without an expiry should not exist; they are left
// behind by manual inserts or writer bugs and would otherwise live forever.
// Returns the number of keys removed.
func (a *Admin) CleanupExpired(ctx context.Context) int {
	const op = "Admin.CleanupExpired"
	log := a.logger.With(slog.String("op", op))

	keys, err := a.store.ScanKeys(ctx, a.keyPrefix)
	if err != nil {
		metrics.IdempotencyCacheErrorsTotal.WithLabelValues("scan").Inc()
		log.Error("Failed to scan idempotency keys", "error", err)
		return 0
	}

	removed := 0
	for _, key := range keys {
		ttl, err := a.store.TTL(ctx, key)
		if err != nil {
			metrics.IdempotencyCacheErrorsTotal.WithLabelValues("ttl").Inc()
			log.Error("Failed to check TTL, skipping key", "key", key, "error", err)
			continue
		}

		if ttl != cache.TTLNone {
			continue
		}

		count, err := a.store.Delete(ctx, key)
		if err != nil {
			metrics.IdempotencyCacheErrorsTotal.WithLabelValues("delete").Inc()
			log.Error("Failed to delete key without TTL", "key", key, "error", err)
			continue
		}

		removed += int(count)
	}

	if removed > 0 {
		log.Info("Removed idempotency entries without TTL", "count", removed)
	}

	return removed
}
