package ratelimit

import (
	"context"
	"sync"
	"time"
)

// entry is one admitted request inside a client's window.
type entry struct {
	at     time.Time
	weight int
}

// MemoryStore is an in-process sliding-window store. One mutex guards the
// whole key map; contention is negligible at the traffic this service sees,
// and a single lock makes the per-key read-modify-write trivially atomic.
type MemoryStore struct {
	mu       sync.Mutex
	windows  map[string][]entry
	lastSeen map[string]time.Time

	limit  int
	period time.Duration
}

// NewMemoryStore returns a store admitting up to limit requests per key per
// period.
func NewMemoryStore(limit int, period time.Duration) *MemoryStore {
	return &MemoryStore{
		windows:  make(map[string][]entry),
		lastSeen: make(map[string]time.Time),
		limit:    limit,
		period:   period,
	}
}

// Admit implements Store. Entries as old as the period or older are purged
// before counting; a denied request is not appended.
func (s *MemoryStore) Admit(_ context.Context, key string, now time.Time) (Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastSeen[key] = now

	kept := s.windows[key][:0]
	for _, e := range s.windows[key] {
		if now.Sub(e.at) < s.period {
			kept = append(kept, e)
		}
	}
	s.windows[key] = kept

	total := 0
	for _, e := range kept {
		total += e.weight
	}

	if total >= s.limit {
		return Decision{Allowed: false, Limit: s.limit, Remaining: 0}, nil
	}

	s.windows[key] = append(kept, entry{at: now, weight: 1})
	return Decision{Allowed: true, Limit: s.limit, Remaining: s.limit - total - 1}, nil
}

// Cleanup removes keys that have not been seen for idleTTL. Without it the
// key map grows for every distinct client the process ever serves.
func (s *MemoryStore) Cleanup(now time.Time, idleTTL time.Duration) {
	cutoff := now.Add(-idleTTL)

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, seen := range s.lastSeen {
		if seen.Before(cutoff) {
			delete(s.windows, k)
			delete(s.lastSeen, k)
		}
	}
}

// StartJanitor runs Cleanup every interval until ctx is cancelled.
func (s *MemoryStore) StartJanitor(ctx context.Context, interval, idleTTL time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Cleanup(time.Now(), idleTTL)
			}
		}
	}()
}
