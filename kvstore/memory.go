package kvstore

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// DefaultMemoryLimit bounds the fallback map so a degraded process cannot
// grow without limit while Redis is down.
const DefaultMemoryLimit = 65536

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// Memory is the in-process fallback [Store]. All access is serialized by a
// mutex so concurrent increments and consumes of the same key are never
// lost, matching the atomicity the primary backend provides natively.
type Memory struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	limit   int
	now     func() time.Time
}

// NewMemory creates a bounded in-process store. A limit <= 0 selects
// [DefaultMemoryLimit].
func NewMemory(limit int) *Memory {
	if limit <= 0 {
		limit = DefaultMemoryLimit
	}
	return &Memory{
		entries: make(map[string]memoryEntry),
		limit:   limit,
		now:     time.Now,
	}
}

func (m *Memory) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.evictLocked()
	m.entries[key] = memoryEntry{value: value, expiresAt: m.expiry(ttl)}
	return nil
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.liveLocked(key)
	if !ok {
		return "", false, nil
	}
	return entry.value, true, nil
}

func (m *Memory) GetDel(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.liveLocked(key)
	if !ok {
		return "", false, nil
	}
	delete(m.entries, key)
	return entry.value, true, nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, key)
	return nil
}

func (m *Memory) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.liveLocked(key)
	return ok, nil
}

func (m *Memory) Increment(_ context.Context, key string, window time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.liveLocked(key)
	if !ok {
		m.evictLocked()
		m.entries[key] = memoryEntry{value: "1", expiresAt: m.expiry(window)}
		return 1, nil
	}

	count, err := strconv.ParseInt(entry.value, 10, 64)
	if err != nil {
		count = 0
	}
	count++

	// The window TTL is fixed at the first increment; later hits keep it.
	entry.value = strconv.FormatInt(count, 10)
	m.entries[key] = entry
	return count, nil
}

// liveLocked returns the entry for key, dropping it first if expired.
func (m *Memory) liveLocked(key string) (memoryEntry, bool) {
	entry, ok := m.entries[key]
	if !ok {
		return memoryEntry{}, false
	}
	if entry.expired(m.now()) {
		delete(m.entries, key)
		return memoryEntry{}, false
	}
	return entry, true
}

// evictLocked keeps the map within its bound: expired entries go first,
// then arbitrary ones. Transient keys make arbitrary eviction acceptable.
func (m *Memory) evictLocked() {
	if len(m.entries) < m.limit {
		return
	}

	now := m.now()
	for key, entry := range m.entries {
		if entry.expired(now) {
			delete(m.entries, key)
		}
	}

	for key := range m.entries {
		if len(m.entries) < m.limit {
			break
		}
		delete(m.entries, key)
	}
}

func (m *Memory) expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return m.now().Add(ttl)
}
