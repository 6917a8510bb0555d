package result

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/db"
	"github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/domain"
	"github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/domain/job"
)

// store is the consumer interface for the KV-backed result store (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// KVStore keeps records as JSON under ats:job:{id}, so every replica can answer retrieval.
type KVStore struct {
	store store
	ttl   time.Duration
	now   func() time.Time
}

// NewKVStore creates a KV-backed result store.
func NewKVStore(s store, ttl time.Duration) *KVStore {
	return &KVStore{store: s, ttl: ttl, now: time.Now}
}

func recordKey(id string) string {
	return domain.KeyPrefix + "job:" + id
}

// Create registers a new pending job. The existence check and write are not atomic;
// ids are generated server-side unless the caller supplies one.
func (s *KVStore) Create(ctx context.Context, id string) error {
	_, err := s.store.Get(ctx, recordKey(id))
	switch {
	case err == nil:
		return fmt.Errorf("job id %q already in use: %w", id, domain.ErrInvalidJob)
	case !errors.Is(err, db.ErrKeyNotFound):
		return fmt.Errorf("check job %q: %w", id, err)
	}
	return s.Save(ctx, job.Record{ID: id, Status: job.StatusPending})
}

// Save overwrites the record of rec.ID and refreshes its TTL.
func (s *KVStore) Save(ctx context.Context, rec job.Record) error {
	rec.UpdatedAt = s.now()
	data, err := marshalRecord(rec)
	if err != nil {
		return err
	}
	if err := s.store.SetWithTTL(ctx, recordKey(rec.ID), data, s.ttl); err != nil {
		return fmt.Errorf("save job %q: %w", rec.ID, err)
	}
	return nil
}

// Get returns the record for id, or domain.ErrNotFound.
func (s *KVStore) Get(ctx context.Context, id string) (job.Record, error) {
	data, err := s.store.Get(ctx, recordKey(id))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return job.Record{}, fmt.Errorf("job %q: %w", id, domain.ErrNotFound)
		}
		return job.Record{}, fmt.Errorf("get job %q: %w", id, err)
	}
	return unmarshalRecord(data)
}
