package session

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/Jawadyyy/healthmate-portal/internal/model"
)

// MemoryStore keeps sessions in process memory. Sessions are lost on restart.
type MemoryStore struct {
	cache *cache.Cache
	now   func() time.Time
}

func NewMemoryStore(cleanupInterval time.Duration) *MemoryStore {
	if cleanupInterval <= 0 {
		cleanupInterval = 10 * time.Minute
	}
	return &MemoryStore{
		cache: cache.New(cache.NoExpiration, cleanupInterval),
		now:   time.Now,
	}
}

func (m *MemoryStore) Name() string { return "memory" }

func (m *MemoryStore) Get(_ context.Context, id string) (*model.Session, error) {
	v, ok := m.cache.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	rec := v.(record)
	return rec.session(), nil
}

func (m *MemoryStore) Save(_ context.Context, s *model.Session) error {
	ttl := cache.NoExpiration
	if !s.ExpiresAt.IsZero() {
		ttl = ttlUntil(s.ExpiresAt, m.now())
	}
	m.cache.Set(s.ID, toRecord(s), ttl)
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.cache.Delete(id)
	return nil
}

func (m *MemoryStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	var n int64
	for id, item := range m.cache.Items() {
		rec, ok := item.Object.(record)
		if !ok {
			continue
		}
		if !rec.ExpiresAt.IsZero() && !now.Before(rec.ExpiresAt) {
			m.cache.Delete(id)
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) Ping(context.Context) error { return nil }
