// Package result stores job records: pending and running markers, failure reasons
// and completed rankings. Records expire after a TTL.
package result

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/domain"
	"github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/domain/job"
)

// MemoryStore keeps records in process memory, bounded by TTL and entry count.
// When full, expired records go first, then the least recently updated
// finished job. Pending and running jobs are never evicted.
type MemoryStore struct {
	mu         sync.RWMutex
	records    map[string]entry
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

type entry struct {
	rec       job.Record
	expiresAt time.Time
}

// NewMemoryStore creates a store. Zero ttl or maxEntries disables that bound.
func NewMemoryStore(ttl time.Duration, maxEntries int) *MemoryStore {
	return &MemoryStore{
		records:    make(map[string]entry),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// Create registers a new pending job. An id still held by a live record is rejected.
func (s *MemoryStore) Create(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if e, ok := s.records[id]; ok && !s.expired(e, now) {
		return fmt.Errorf("job id %q already in use: %w", id, domain.ErrInvalidJob)
	}
	if !s.makeRoom(now) {
		return fmt.Errorf("%d jobs in flight: %w", len(s.records), domain.ErrCapacityExceeded)
	}
	s.putLocked(job.Record{ID: id, Status: job.StatusPending}, now)
	return nil
}

// Save overwrites the record of rec.ID. A job whose record expired while it
// was running is stored again even above maxEntries.
func (s *MemoryStore) Save(_ context.Context, rec job.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if _, ok := s.records[rec.ID]; !ok {
		_ = s.makeRoom(now)
	}
	s.putLocked(rec, now)
	return nil
}

// Get returns the record for id, or domain.ErrNotFound.
func (s *MemoryStore) Get(_ context.Context, id string) (job.Record, error) {
	s.mu.RLock()
	e, ok := s.records[id]
	s.mu.RUnlock()

	if !ok || s.expired(e, s.now()) {
		return job.Record{}, fmt.Errorf("job %q: %w", id, domain.ErrNotFound)
	}
	return e.rec, nil
}

// Len returns the number of held records, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *MemoryStore) putLocked(rec job.Record, now time.Time) {
	rec.UpdatedAt = now
	e := entry{rec: rec}
	if s.ttl > 0 {
		e.expiresAt = now.Add(s.ttl)
	}
	s.records[rec.ID] = e
}

func (s *MemoryStore) expired(e entry, now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// makeRoom frees one slot when the store is at capacity. It reports false
// when every held record belongs to a live, unfinished job.
func (s *MemoryStore) makeRoom(now time.Time) bool {
	if s.maxEntries <= 0 || len(s.records) < s.maxEntries {
		return true
	}
	for id, e := range s.records {
		if s.expired(e, now) {
			delete(s.records, id)
		}
	}
	for len(s.records) >= s.maxEntries {
		var (
			oldestID string
			oldest   time.Time
		)
		for id, e := range s.records {
			if !e.rec.Status.Done() {
				continue
			}
			if oldestID == "" || e.rec.UpdatedAt.Before(oldest) {
				oldestID, oldest = id, e.rec.UpdatedAt
			}
		}
		if oldestID == "" {
			return false
		}
		delete(s.records, oldestID)
	}
	return true
}
