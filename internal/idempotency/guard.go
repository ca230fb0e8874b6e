package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/kay-kewl/shop-platform/internal/cache"
	"github.com/kay-kewl/shop-platform/internal/metrics"
)

const (
	// HeaderKey carries the client-supplied idempotency key. Incoming header
	// names are canonicalized by net/http, so the lookup is case-insensitive.
	HeaderKey = "X-Idempotency-Key"

	// HeaderReplayed marks a response served from the cache.
	HeaderReplayed = "X-Idempotency-Replayed"
)

const (
	CodeMissingKey = "MISSING_IDEMPOTENCY_KEY"
	CodeInvalidKey = "INVALID_IDEMPOTENCY_KEY"
)

type Config struct {
	TTL          time.Duration
	KeyPrefix    string
	PathPrefixes []string
	Methods      []string
	QueueSize    int
	Workers      int
}

// Guard deduplicates retried write requests: the first request with a given
// key executes the handler and caches the response, later requests with the
// same key replay it. Cache failures never fail the request (fail-open).
//
// Two requests with the same key that miss the cache concurrently both
// execute the handler; only sequential retries are reliably deduplicated.
type Guard struct {
	store   cache.Store
	logger  *slog.Logger
	cfg     Config
	methods map[string]bool
	jobs    chan writeJob
}

type writeJob struct {
	cacheKey string
	payload  string
}

func New(store cache.Store, logger *slog.Logger, cfg Config) *Guard {
	if cfg.TTL <= 0 {
		cfg.TTL = 60 * time.Second
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "shop:idempotency:"
	}
	if len(cfg.Methods) == 0 {
		cfg.Methods = []string{http.MethodPost, http.MethodPut, http.MethodPatch}
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}

	methods := make(map[string]bool, len(cfg.Methods))
	for _, m := range cfg.Methods {
		methods[strings.ToUpper(m)] = true
	}

	return &Guard{
		store:   store,
		logger:  logger.With(slog.String("component", "IdempotencyGuard")),
		cfg:     cfg,
		methods: methods,
		jobs:    make(chan writeJob, cfg.QueueSize),
	}
}

// Start runs the background cache writers until ctx is cancelled. Writes
// are decoupled from the request lifecycle: a response is already on the
// wire when its cache entry is stored.
func (g *Guard) Start(ctx context.Context) {
	g.logger.Info("Starting idempotency cache writers", "workers", g.cfg.Workers)

	var wg sync.WaitGroup
	for i := 0; i < g.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g.runWriter(ctx)
		}()
	}
	wg.Wait()

	g.logger.Info("Idempotency cache writers stopped")
}

func (g *Guard) runWriter(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-g.jobs:
			writeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			err := g.store.SetWithTTL(writeCtx, job.cacheKey, job.payload, g.cfg.TTL)
			cancel()

			if err != nil {
				metrics.IdempotencyCacheErrorsTotal.WithLabelValues("set").Inc()
				g.logger.Error("Failed to store idempotency entry", "key", job.cacheKey, "error", err)
			}
		}
	}
}

func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !g.applies(r) {
			next.ServeHTTP(w, r)
			return
		}

		key := r.Header.Get(HeaderKey)
		if key == "" {
			g.respondError(w, CodeMissingKey, "the "+HeaderKey+" header is required for this request")
			return
		}

		if !ValidateKey(key) {
			g.respondError(w, CodeInvalidKey, "the "+HeaderKey+" header value is invalid")
			return
		}

		cacheKey := g.cfg.KeyPrefix + key

		stored, err := g.store.Get(r.Context(), cacheKey)
		if err == nil {
			if entry, decodeErr := DecodeEntry(stored); decodeErr == nil {
				g.replay(w, entry)
				return
			} else {
				// corrupt entry: treat as a miss and let the handler run
				g.logger.Error("Failed to decode cached entry", "key", key, "error", decodeErr)
			}
		} else if !errors.Is(err, cache.ErrNotFound) {
			// fail-open: degraded to no deduplication, never a blocked write
			metrics.IdempotencyCacheErrorsTotal.WithLabelValues("get").Inc()
			g.logger.Error("Idempotency cache lookup failed, proceeding without deduplication",
				"key", key, "error", err)
		}

		recorder := newRecorder(w)
		next.ServeHTTP(recorder, r)

		g.cacheResponse(cacheKey, key, recorder)
	})
}

func (g *Guard) applies(r *http.Request) bool {
	if !g.methods[r.Method] {
		return false
	}

	for _, prefix := range g.cfg.PathPrefixes {
		if strings.HasPrefix(r.URL.Path, prefix) {
			return true
		}
	}

	return false
}

// cacheResponse hands a successful response to the background writers.
// Non-2xx responses are never cached so a failed attempt stays retryable.
func (g *Guard) cacheResponse(cacheKey, key string, recorder *responseRecorder) {
	if recorder.statusCode < 200 || recorder.statusCode >= 300 {
		return
	}

	headers := make(map[string]string, len(recorder.Header()))
	for name, values := range recorder.Header() {
		if len(values) > 0 {
			headers[name] = values[0]
		}
	}

	entry, err := NewEntry(recorder.statusCode, recorder.body.Bytes(), headers)
	if err != nil {
		g.logger.Error("Response not cacheable", "key", key, "error", err)
		return
	}

	payload, err := entry.Encode()
	if err != nil {
		g.logger.Error("Failed to encode idempotency entry", "key", key, "error", err)
		return
	}

	select {
	case g.jobs <- writeJob{cacheKey: cacheKey, payload: payload}:
	default:
		metrics.IdempotencyDroppedWritesTotal.Inc()
		g.logger.Warn("Idempotency write queue full, dropping cache write", "key", key)
	}
}

func (g *Guard) replay(w http.ResponseWriter, entry *Entry) {
	metrics.IdempotencyReplaysTotal.Inc()

	for name, value := range entry.Headers {
		w.Header().Set(name, value)
	}
	w.Header().Set(HeaderReplayed, "true")
	w.WriteHeader(entry.StatusCode)

	// an absent body round-trips through JSON as the literal "null"
	if len(entry.Body) == 0 || string(entry.Body) == "null" {
		return
	}

	if _, err := w.Write(entry.Body); err != nil {
		g.logger.Error("Failed to write replayed response", "error", err)
	}
}

func (g *Guard) respondError(w http.ResponseWriter, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)

	resp := map[string]any{
		"success": false,
		"error":   message,
		"code":    code,
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		g.logger.Error("Failed to encode error response", "error", err)
	}
}
