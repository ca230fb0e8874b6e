package idempotency

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kay-kewl/shop-platform/internal/cache"
)

const testKey = "abcdefghij12"

type countingHandler struct {
	called     int
	statusCode int
	body       string
}

func (h *countingHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	h.called++
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(h.statusCode)
	fmt.Fprint(w, h.body)
}

// brokenStore simulates an unreachable shared cache.
type brokenStore struct{}

func (brokenStore) Get(context.Context, string) (string, error) {
	return "", cache.ErrUnavailable
}
func (brokenStore) SetWithTTL(context.Context, string, string, time.Duration) error {
	return cache.ErrUnavailable
}
func (brokenStore) Delete(context.Context, string) (int64, error) {
	return 0, cache.ErrUnavailable
}
func (brokenStore) ScanKeys(context.Context, string) ([]string, error) {
	return nil, cache.ErrUnavailable
}
func (brokenStore) TTL(context.Context, string) (int64, error) {
	return 0, cache.ErrUnavailable
}

func newTestGuard(t *testing.T, store cache.Store) *Guard {
	t.Helper()

	guard := New(store, slog.New(slog.DiscardHandler), Config{
		TTL:          60 * time.Second,
		KeyPrefix:    "test:idempotency:",
		PathPrefixes: []string{"/api/v1/members", "/api/v1/products"},
	})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go guard.Start(ctx)

	return guard
}

func doRequest(handler http.Handler, method, path, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if key != "" {
		req.Header.Set(HeaderKey, key)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func waitForEntry(t *testing.T, store cache.Store, cacheKey string) {
	t.Helper()

	require.Eventually(t, func() bool {
		_, err := store.Get(context.Background(), cacheKey)
		return err == nil
	}, 2*time.Second, 10*time.Millisecond, "cache entry should appear after the response is sent")
}

func TestGuard_SequentialRetryReplays(t *testing.T) {
	store := cache.NewMemoryStore()
	guard := newTestGuard(t, store)

	next := &countingHandler{statusCode: http.StatusCreated, body: `{"id":1,"email":"a@b.c","name":"Ann"}`}
	handler := guard.Middleware(next)

	first := doRequest(handler, http.MethodPost, "/api/v1/members", testKey)
	require.Equal(t, http.StatusCreated, first.Code)
	require.Empty(t, first.Header().Get(HeaderReplayed))
	require.Equal(t, 1, next.called)

	waitForEntry(t, store, "test:idempotency:"+testKey)

	second := doRequest(handler, http.MethodPost, "/api/v1/members", testKey)
	require.Equal(t, http.StatusCreated, second.Code)
	require.Equal(t, "true", second.Header().Get(HeaderReplayed))
	require.JSONEq(t, first.Body.String(), second.Body.String())
	require.Equal(t, "application/json", second.Header().Get("Content-Type"))
	require.Equal(t, 1, next.called, "handler must not run on replay")
}

func TestGuard_MissingKey(t *testing.T) {
	store := cache.NewMemoryStore()
	guard := newTestGuard(t, store)

	next := &countingHandler{statusCode: http.StatusCreated, body: `{}`}
	handler := guard.Middleware(next)

	rec := doRequest(handler, http.MethodPost, "/api/v1/members", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Zero(t, next.called)

	var resp struct {
		Success bool   `json:"success"`
		Code    string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.False(t, resp.Success)
	require.Equal(t, CodeMissingKey, resp.Code)
}

func TestGuard_InvalidKey(t *testing.T) {
	store := cache.NewMemoryStore()
	guard := newTestGuard(t, store)

	next := &countingHandler{statusCode: http.StatusCreated, body: `{}`}
	handler := guard.Middleware(next)

	rec := doRequest(handler, http.MethodPost, "/api/v1/members", "short")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Zero(t, next.called)

	var resp struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, CodeInvalidKey, resp.Code)
}

func TestGuard_NotApplicableRequestsPassThrough(t *testing.T) {
	store := cache.NewMemoryStore()
	guard := newTestGuard(t, store)

	next := &countingHandler{statusCode: http.StatusOK, body: `[]`}
	handler := guard.Middleware(next)

	// read path: no key required
	rec := doRequest(handler, http.MethodGet, "/api/v1/products", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, next.called)

	// unprotected path: no key required even for POST
	rec = doRequest(handler, http.MethodPost, "/api/v1/login", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 2, next.called)
}

func TestGuard_HeaderNameIsCaseInsensitive(t *testing.T) {
	store := cache.NewMemoryStore()
	guard := newTestGuard(t, store)

	next := &countingHandler{statusCode: http.StatusCreated, body: `{"id":7}`}
	handler := guard.Middleware(next)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/members", nil)
	req.Header.Set("x-IDEMPOTENCY-key", testKey)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, 1, next.called)
}

func TestGuard_ErrorResponsesAreNotCached(t *testing.T) {
	store := cache.NewMemoryStore()
	guard := newTestGuard(t, store)

	next := &countingHandler{statusCode: http.StatusConflict, body: `{"error":"exists"}`}
	handler := guard.Middleware(next)

	first := doRequest(handler, http.MethodPost, "/api/v1/members", testKey)
	require.Equal(t, http.StatusConflict, first.Code)

	// give the background writers a moment; no entry must appear
	time.Sleep(100 * time.Millisecond)
	_, err := store.Get(context.Background(), "test:idempotency:"+testKey)
	require.ErrorIs(t, err, cache.ErrNotFound)

	second := doRequest(handler, http.MethodPost, "/api/v1/members", testKey)
	require.Equal(t, http.StatusConflict, second.Code)
	require.Empty(t, second.Header().Get(HeaderReplayed))
	require.Equal(t, 2, next.called, "failed attempts must stay retryable")
}

func TestGuard_ExpiredEntryReExecutes(t *testing.T) {
	store := cache.NewMemoryStore()
	guard := newTestGuard(t, store)

	next := &countingHandler{statusCode: http.StatusCreated, body: `{"id":1}`}
	handler := guard.Middleware(next)

	doRequest(handler, http.MethodPost, "/api/v1/members", testKey)
	waitForEntry(t, store, "test:idempotency:"+testKey)

	// jump past the TTL
	store.SetNow(func() time.Time { return time.Now().Add(61 * time.Second) })

	rec := doRequest(handler, http.MethodPost, "/api/v1/members", testKey)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Empty(t, rec.Header().Get(HeaderReplayed))
	require.Equal(t, 2, next.called)
}

func TestGuard_FailsOpenWhenStoreUnavailable(t *testing.T) {
	guard := newTestGuard(t, brokenStore{})

	next := &countingHandler{statusCode: http.StatusCreated, body: `{"id":1}`}
	handler := guard.Middleware(next)

	rec := doRequest(handler, http.MethodPost, "/api/v1/members", testKey)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, 1, next.called, "requests must complete when the cache is down")

	rec = doRequest(handler, http.MethodPost, "/api/v1/members", testKey)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, 2, next.called, "deduplication degrades to pass-through")
}

func TestGuard_CorruptEntryTreatedAsMiss(t *testing.T) {
	store := cache.NewMemoryStore()
	guard := newTestGuard(t, store)

	err := store.SetWithTTL(context.Background(), "test:idempotency:"+testKey, "{not json", 60*time.Second)
	require.NoError(t, err)

	next := &countingHandler{statusCode: http.StatusCreated, body: `{"id":1}`}
	handler := guard.Middleware(next)

	rec := doRequest(handler, http.MethodPost, "/api/v1/members", testKey)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, 1, next.called)
}

func TestGuard_BogusEntryTreatedAsMiss(t *testing.T) {
	store := cache.NewMemoryStore()
	guard := newTestGuard(t, store)

	// valid JSON, but not an entry: decodes to a zero status code, which
	// must never reach WriteHeader
	err := store.SetWithTTL(context.Background(), "test:idempotency:"+testKey, "{}", 60*time.Second)
	require.NoError(t, err)

	next := &countingHandler{statusCode: http.StatusCreated, body: `{"id":1}`}
	handler := guard.Middleware(next)

	rec := doRequest(handler, http.MethodPost, "/api/v1/members", testKey)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Empty(t, rec.Header().Get(HeaderReplayed))
	require.Equal(t, 1, next.called)
}

func TestEntry_DecodeRejectsOutOfRangeStatus(t *testing.T) {
	_, err := DecodeEntry(`{}`)
	require.ErrorIs(t, err, ErrNotSerializable)

	_, err = DecodeEntry(`{"statusCode":600,"body":null,"headers":{},"timestamp":1}`)
	require.ErrorIs(t, err, ErrNotSerializable)
}

func TestEntry_EncodeDecode(t *testing.T) {
	entry, err := NewEntry(201, []byte(`{"id":42}`), map[string]string{"Content-Type": "application/json"})
	require.NoError(t, err)

	payload, err := entry.Encode()
	require.NoError(t, err)

	decoded, err := DecodeEntry(payload)
	require.NoError(t, err)
	require.Equal(t, 201, decoded.StatusCode)
	require.JSONEq(t, `{"id":42}`, string(decoded.Body))
	require.Equal(t, "application/json", decoded.Headers["Content-Type"])
	require.NotZero(t, decoded.Timestamp)
}

func TestEntry_RejectsNonJSONBody(t *testing.T) {
	_, err := NewEntry(200, []byte("<html>"), nil)
	require.ErrorIs(t, err, ErrNotSerializable)
}
