package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"lifeos/internal/models"
)

// MemoryStore is the ephemeral KeyedStore used in tests and single-node
// dev mode. Entries expire on a short TTL; the durable backends carry no
// built-in expiry.
type MemoryStore struct {
	cache *gocache.Cache
}

// NewMemoryStore creates an in-memory store with the given entry TTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{cache: gocache.New(ttl, 2*ttl)}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	if v, found := s.cache.Get(key); found {
		return v.([]byte), nil
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	s.cache.SetDefault(key, value)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.cache.Delete(key)
	return nil
}

func (s *MemoryStore) DeletePrefix(_ context.Context, prefix string) error {
	for key := range s.cache.Items() {
		if strings.HasPrefix(key, prefix) {
			s.cache.Delete(key)
		}
	}
	return nil
}

// Reset drops every entry. Test hook.
func (s *MemoryStore) Reset() { s.cache.Flush() }

// MemoryUsageLog is the in-memory UsageLog for tests and dev mode.
type MemoryUsageLog struct {
	mu      sync.RWMutex
	records []models.UsageLogRecord
}

func NewMemoryUsageLog() *MemoryUsageLog {
	return &MemoryUsageLog{}
}

func (l *MemoryUsageLog) Append(_ context.Context, rec models.UsageLogRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, rec)
	return nil
}

func (l *MemoryUsageLog) CountSince(_ context.Context, userID, feature string, since time.Time) (int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	count := 0
	for _, r := range l.records {
		if r.UserID == userID && r.FeatureName == feature && !r.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (l *MemoryUsageLog) List(_ context.Context, userID string, limit int) ([]models.UsageLogRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []models.UsageLogRecord
	for _, r := range l.records {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (l *MemoryUsageLog) DeleteOlderThan(_ context.Context, cutoff time.Time) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.records[:0]
	deleted := 0
	for _, r := range l.records {
		if r.CreatedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, r)
	}
	l.records = kept
	return deleted, nil
}

// Reset drops every record. Test hook.
func (l *MemoryUsageLog) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = nil
}

// MemoryPreferences is a fixed preference map for tests.
type MemoryPreferences struct {
	mu        sync.RWMutex
	reducedAI map[string]bool
}

func NewMemoryPreferences() *MemoryPreferences {
	return &MemoryPreferences{reducedAI: make(map[string]bool)}
}

func (p *MemoryPreferences) SetReducedAI(userID string, on bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reducedAI[userID] = on
}

func (p *MemoryPreferences) ReducedAI(_ context.Context, userID string) (bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.reducedAI[userID], nil
}
