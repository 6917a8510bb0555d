// Package budget keeps embedding token counters in the KV store, one counter
// per provider and calendar period. A counter lives until its period ends
// plus a grace window, so a restarted service still sees today's spend.
package budget

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/db"
	"github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/domain"
)

// store is the consumer interface for budget operations (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	IncrBy(ctx context.Context, key string, val int64) error
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}

// Store implements the embedding BudgetStore with INCRBY and EXPIRE NX.
type Store struct {
	kv    store
	grace time.Duration
	now   func() time.Time
}

// New creates a budget store. grace extends every counter past the end of
// its period.
func New(kv store, grace time.Duration) *Store {
	return &Store{kv: kv, grace: grace, now: time.Now}
}

// Key returns the counter key of provider for the period containing at,
// e.g. "ats:budget:openai:daily:2026-03-07".
func Key(provider string, period domain.BudgetPeriod, at time.Time) string {
	return domain.KeyPrefix + "budget:" + provider + ":" + string(period) + ":" + period.Label(at)
}

// Add increments the counter and starts its expiry on first write.
func (s *Store) Add(ctx context.Context, provider string, period domain.BudgetPeriod, at time.Time, tokens int64) error {
	key, err := counterKey(provider, period, at)
	if err != nil {
		return err
	}
	if err := s.kv.IncrBy(ctx, key, tokens); err != nil {
		return fmt.Errorf("budget INCRBY %s: %w", key, err)
	}
	// NX keeps the first expiry; repeated increments must not extend the window.
	if err := s.kv.Expire(ctx, key, s.ttl(period, at), true); err != nil {
		return fmt.Errorf("budget EXPIRE %s: %w", key, err)
	}
	return nil
}

// Used returns the tokens spent by provider in the period containing at.
// A missing counter is zero.
func (s *Store) Used(ctx context.Context, provider string, period domain.BudgetPeriod, at time.Time) (int64, error) {
	key, err := counterKey(provider, period, at)
	if err != nil {
		return 0, err
	}
	data, err := s.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("budget GET %s: %w", key, err)
	}

	val, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("budget GET %s parse: %w", key, err)
	}
	return val, nil
}

// ttl runs from now to the end of the period, plus grace.
func (s *Store) ttl(period domain.BudgetPeriod, at time.Time) time.Duration {
	left := period.End(at).Sub(s.now())
	if left < 0 {
		left = 0
	}
	return left + s.grace
}

func counterKey(provider string, period domain.BudgetPeriod, at time.Time) (string, error) {
	if provider == "" || strings.Contains(provider, ":") {
		return "", fmt.Errorf("budget provider %q: must be non-empty without ':'", provider)
	}
	if period != domain.BudgetDaily && period != domain.BudgetMonthly {
		return "", fmt.Errorf("budget period %q: unknown", period)
	}
	return Key(provider, period, at), nil
}
