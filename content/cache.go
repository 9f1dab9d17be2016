package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Backend stores encoded query results for a Cache.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Purge(ctx context.Context) error
}

// Cache is a read-through Querier that keeps results in a Backend.
// Not-found lookups are not cached.
type Cache struct {
	next    Querier
	backend Backend
}

var _ Querier = (*Cache)(nil)

// NewCache wraps next with backend.
func NewCache(next Querier, backend Backend) *Cache {
	return &Cache{next: next, backend: backend}
}

// Invalidate drops every cached result so the next read goes to the store.
func (c *Cache) Invalidate(ctx context.Context) error {
	return c.backend.Purge(ctx)
}

// Prune drops expired entries from backends that do not expire them on
// their own. Redis expires keys itself.
func (c *Cache) Prune() int {
	if p, ok := c.backend.(interface{ Prune() int }); ok {
		return p.Prune()
	}
	return 0
}

// QueryByType implements Querier.
func (c *Cache) QueryByType(ctx context.Context, docType string, q Query) (Response, error) {
	key := fmt.Sprintf("q:%s:%d:%d:%d:%s", docType, q.Ordering, q.PageSize, q.Page, strings.Join(normalizeTags(q.Tags), "|"))
	return cached(ctx, c.backend, key, func() (Response, error) {
		return c.next.QueryByType(ctx, docType, q)
	})
}

// GetByUID implements Querier.
func (c *Cache) GetByUID(ctx context.Context, docType, uid string) (Document, error) {
	return cached(ctx, c.backend, "uid:"+docType+":"+uid, func() (Document, error) {
		return c.next.GetByUID(ctx, docType, uid)
	})
}

// GetSingle implements Querier.
func (c *Cache) GetSingle(ctx context.Context, docType string) (Document, error) {
	return cached(ctx, c.backend, "single:"+docType, func() (Document, error) {
		return c.next.GetSingle(ctx, docType)
	})
}

// cached serves key from the backend or loads and stores it. A failing
// backend degrades to a direct load.
func cached[T any](ctx context.Context, b Backend, key string, load func() (T, error)) (T, error) {
	if raw, ok, err := b.Get(ctx, key); err == nil && ok {
		var v T
		if err := json.Unmarshal(raw, &v); err == nil {
			return v, nil
		}
	}
	v, err := load()
	if err != nil {
		return v, err
	}
	if raw, err := json.Marshal(v); err == nil {
		_ = b.Set(ctx, key, raw)
	}
	return v, nil
}

// MemoryBackend keeps entries in process memory for a fixed TTL.
type MemoryBackend struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

type memoryEntry struct {
	value   []byte
	fetched time.Time
}

// NewMemoryBackend creates a MemoryBackend whose entries expire after ttl.
func NewMemoryBackend(ttl time.Duration) *MemoryBackend {
	return &MemoryBackend{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (m *MemoryBackend) expired(e memoryEntry, now time.Time) bool {
	return now.Sub(e.fetched) >= m.ttl
}

// Get implements Backend. An expired entry is dropped.
func (m *MemoryBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if now := m.now(); m.expired(e, now) {
		m.mu.Lock()
		if cur, ok := m.entries[key]; ok && m.expired(cur, now) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return nil, false, nil
	}
	return e.value, true, nil
}

// Prune drops every expired entry and returns how many were removed.
func (m *MemoryBackend) Prune() int {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int
	for k, e := range m.entries {
		if m.expired(e, now) {
			delete(m.entries, k)
			n++
		}
	}
	return n
}

// Len returns the number of stored entries, expired or not.
func (m *MemoryBackend) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Set implements Backend.
func (m *MemoryBackend) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	m.entries[key] = memoryEntry{value: value, fetched: m.now()}
	m.mu.Unlock()
	return nil
}

// Purge implements Backend.
func (m *MemoryBackend) Purge(context.Context) error {
	m.mu.Lock()
	m.entries = make(map[string]memoryEntry)
	m.mu.Unlock()
	return nil
}

// IsNotFound reports whether err means the document does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
