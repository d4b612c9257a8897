package store

import (
	"context"
	"sync"
	"time"

	"tryon-client/internal/domain/tryon"
)

type memoryEntry struct {
	rec       tryon.Record
	expiresAt time.Time
}

type memoryStore struct {
	items    map[string]memoryEntry
	mutex    sync.RWMutex
	ttl      time.Duration
	stop     chan struct{}
	stopOnce sync.Once
}

// NewMemory builds an in-memory record store. With a TTL a background loop
// drops expired records.
func NewMemory(cfg Config) Store {
	s := &memoryStore{
		items: make(map[string]memoryEntry),
		ttl:   cfg.TTL,
		stop:  make(chan struct{}),
	}
	if s.ttl > 0 {
		gc := 5 * time.Minute
		if cfg.Memory != nil && cfg.Memory.GCInterval > 0 {
			gc = cfg.Memory.GCInterval
		}
		go s.gcLoop(gc)
	}
	return s
}

func (s *memoryStore) gcLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.cleanupExpired(time.Now())
		case <-s.stop:
			return
		}
	}
}

func (s *memoryStore) cleanupExpired(now time.Time) {
	s.mutex.Lock()
	for id, e := range s.items {
		if e.expired(now) {
			delete(s.items, id)
		}
	}
	s.mutex.Unlock()
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

func (s *memoryStore) Save(_ context.Context, rec tryon.Record) error {
	if err := requireID(rec); err != nil {
		return err
	}
	now := time.Now()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	entry := memoryEntry{rec: rec}
	if s.ttl > 0 {
		entry.expiresAt = now.Add(s.ttl)
	}

	s.mutex.Lock()
	s.items[rec.ID] = entry
	s.mutex.Unlock()
	return nil
}

func (s *memoryStore) Get(_ context.Context, id string) (tryon.Record, error) {
	s.mutex.RLock()
	e, ok := s.items[id]
	s.mutex.RUnlock()
	if !ok || e.expired(time.Now()) {
		return tryon.Record{}, ErrNotFound
	}
	return e.rec, nil
}

func (s *memoryStore) List(_ context.Context) ([]tryon.Record, error) {
	now := time.Now()
	s.mutex.RLock()
	out := make([]tryon.Record, 0, len(s.items))
	for _, e := range s.items {
		if !e.expired(now) {
			out = append(out, e.rec)
		}
	}
	s.mutex.RUnlock()
	newestFirst(out)
	return out, nil
}

func (s *memoryStore) Remove(_ context.Context, id string) error {
	s.mutex.Lock()
	delete(s.items, id)
	s.mutex.Unlock()
	return nil
}

func (s *memoryStore) Close(_ context.Context) error {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
	return nil
}
