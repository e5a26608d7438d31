package collector

import (
	"sync"
	"time"
)

// Store holds the latest snapshot per ticker. Each refresh replaces the whole
// set; snapshots are read-only once published and nothing is persisted.
type Store struct {
	mu        sync.RWMutex
	snaps     map[string]*Snapshot
	order     []string
	updatedAt time.Time
}

func NewStore() *Store {
	return &Store{snaps: map[string]*Snapshot{}}
}

// Replace publishes a new refresh cycle.
func (s *Store) Replace(snaps []*Snapshot) {
	m := make(map[string]*Snapshot, len(snaps))
	order := make([]string, 0, len(snaps))
	for _, snap := range snaps {
		if snap == nil {
			continue
		}
		if _, dup := m[snap.Symbol]; !dup {
			order = append(order, snap.Symbol)
		}
		m[snap.Symbol] = snap
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.snaps = m
	s.order = order
	s.updatedAt = time.Now()
}

func (s *Store) Get(symbol string) (*Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snaps[symbol]
	return snap, ok
}

// All returns the snapshots in the order they were published.
func (s *Store) All() []*Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Snapshot, 0, len(s.order))
	for _, sym := range s.order {
		out = append(out, s.snaps[sym])
	}
	return out
}

func (s *Store) UpdatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updatedAt
}
