package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time // zero = no expiry
}

// MemoryStore is an in-memory Store implementation with lazy expiry.
// It backs unit tests and local development without a Redis instance.
type MemoryStore struct {
	mutex   sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (s *MemoryStore) Get(ctx context.Context, key string) (string, error) {
	const op = "cache.Get"

	s.mutex.Lock()
	defer s.mutex.Unlock()

	entry, ok := s.entries[key]
	if !ok || s.expired(entry) {
		delete(s.entries, key)
		return "", fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	return entry.value, nil
}

func (s *MemoryStore) SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = s.now().Add(ttl)
	}
	s.entries[key] = entry

	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) (int64, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	entry, ok := s.entries[key]
	if !ok || s.expired(entry) {
		delete(s.entries, key)
		return 0, nil
	}

	delete(s.entries, key)
	return 1, nil
}

func (s *MemoryStore) ScanKeys(ctx context.Context, prefix string) ([]string, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	var keys []string
	for key, entry := range s.entries {
		if s.expired(entry) {
			delete(s.entries, key)
			continue
		}
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}

	return keys, nil
}

func (s *MemoryStore) TTL(ctx context.Context, key string) (int64, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	entry, ok := s.entries[key]
	if !ok || s.expired(entry) {
		delete(s.entries, key)
		return TTLMissing, nil
	}

	if entry.expiresAt.IsZero() {
		return TTLNone, nil
	}

	return int64(entry.expiresAt.Sub(s.now()) / time.Second), nil
}

// SetNow overrides the clock; used by tests to simulate expiry.
func (s *MemoryStore) SetNow(now func() time.Time) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.now = now
}

func (s *MemoryStore) expired(entry memoryEntry) bool {
	return !entry.expiresAt.IsZero() && s.now().After(entry.expiresAt)
}
