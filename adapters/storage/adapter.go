// Package storage provides the transient key-value stores the configurator reads its
// runtime catalog from and writes checkout payloads to.
// Supports multiple backends: memory, redis, and (in adapters/browser) the page's sessionStorage.
package storage

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"storformat/internal/config"
	"storformat/internal/errors"
)

// Backend is a storage backend type
type Backend string

const (
	BackendMemory  Backend = "memory"
	BackendRedis   Backend = "redis"
	BackendSession Backend = "session"
)

// Store is a same-origin transient key-value store
type Store interface {
	// Name identifies the store (or browsing context) in logs
	Name() string

	// Get returns the value under key; ok is false when the key is absent
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set stores value under key. A zero ttl keeps it until deleted.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Keys lists keys starting with prefix in lexical order
	Keys(ctx context.Context, prefix string) ([]string, error)

	// Delete removes a key
	Delete(ctx context.Context, key string) error

	// Close releases the store
	Close() error
}

// MemoryStore is an in-memory store (tests, single-process CLI runs)
type MemoryStore struct {
	name    string
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// NewMemoryStore creates a memory store
func NewMemoryStore(name string) *MemoryStore {
	if name == "" {
		name = string(BackendMemory)
	}
	return &MemoryStore{
		name:    name,
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Name implements Store
func (s *MemoryStore) Name() string { return s.name }

// Get implements Store
func (s *MemoryStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[key]
	if !ok || s.expired(e) {
		return "", false, nil
	}
	return e.value, true, nil
}

// Set implements Store
func (s *MemoryStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := memoryEntry{value: value}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	s.entries[key] = e
	return nil
}

// Keys implements Store
func (s *MemoryStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var keys []string
	for k, e := range s.entries {
		if strings.HasPrefix(k, prefix) && !s.expired(e) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Delete implements Store
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// Close implements Store
func (s *MemoryStore) Close() error {
	return nil
}

func (s *MemoryStore) expired(e memoryEntry) bool {
	return !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt)
}

// New creates the store selected by configuration
func New(cfg config.StoreConfig) (Store, error) {
	switch Backend(cfg.Backend) {
	case "", BackendMemory:
		return NewMemoryStore(""), nil
	case BackendRedis:
		return NewRedisStore(RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}), nil
	default:
		return nil, errors.Newf(errors.TypeConfig, "unsupported store backend: %s", cfg.Backend)
	}
}

// Ensure interfaces are implemented
var _ io.Closer = (*MemoryStore)(nil)
var _ Store = (*MemoryStore)(nil)
