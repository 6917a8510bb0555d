package embedding

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/domain"
)

func TestBudgetTracker_RejectWhenExceeded(t *testing.T) {
	bt := NewBudgetTracker("test", 100, 0, BudgetActionReject, zap.NewNop())

	bt.Record(100)

	err := bt.Check(context.Background())
	require.ErrorIs(t, err, domain.ErrEmbeddingQuotaExceeded)
}

func TestBudgetTracker_WarnWhenExceeded(t *testing.T) {
	bt := NewBudgetTracker("test", 100, 0, BudgetActionWarn, zap.NewNop())

	bt.Record(200)

	err := bt.Check(context.Background())
	require.NoError(t, err)
}

func TestBudgetTracker_MonthlyReject(t *testing.T) {
	bt := NewBudgetTracker("test", 0, 500, BudgetActionReject, zap.NewNop())

	bt.Record(500)

	err := bt.Check(context.Background())
	require.ErrorIs(t, err, domain.ErrEmbeddingQuotaExceeded)
}

func TestBudgetTracker_UnlimitedWhenZero(t *testing.T) {
	bt := NewBudgetTracker("test", 0, 0, BudgetActionReject, zap.NewNop())

	bt.Record(999999999)

	err := bt.Check(context.Background())
	require.NoError(t, err)
}

func TestBudgetTracker_Remaining(t *testing.T) {
	bt := NewBudgetTracker("test", 1000, 10000, BudgetActionWarn, zap.NewNop())

	bt.Record(300)

	assert.Equal(t, int64(700), bt.RemainingDaily())
	assert.Equal(t, int64(9700), bt.RemainingMonthly())
}

func TestBudgetTracker_RemainingUnlimited(t *testing.T) {
	bt := NewBudgetTracker("test", 0, 0, BudgetActionWarn, zap.NewNop())

	assert.Equal(t, int64(-1), bt.RemainingDaily())
	assert.Equal(t, int64(-1), bt.RemainingMonthly())
}

func TestBudgetTracker_BelowLimitAllows(t *testing.T) {
	bt := NewBudgetTracker("test", 1000, 10000, BudgetActionReject, zap.NewNop())

	bt.Record(500)

	err := bt.Check(context.Background())
	require.NoError(t, err)
}

// --- Mock BudgetStore ---

type counterKey struct {
	provider string
	period   domain.BudgetPeriod
	label    string
}

type mockBudgetStore struct {
	mu     sync.Mutex
	data   map[counterKey]int64
	getErr error
	setErr error
}

func newMockBudgetStore() *mockBudgetStore {
	return &mockBudgetStore{data: make(map[counterKey]int64)}
}

func keyOf(provider string, period domain.BudgetPeriod, at time.Time) counterKey {
	return counterKey{provider: provider, period: period, label: period.Label(at)}
}

func (m *mockBudgetStore) Add(_ context.Context, provider string, period domain.BudgetPeriod, at time.Time, tokens int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.data[keyOf(provider, period, at)] += tokens
	return nil
}

func (m *mockBudgetStore) Used(_ context.Context, provider string, period domain.BudgetPeriod, at time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return 0, m.getErr
	}
	return m.data[keyOf(provider, period, at)], nil
}

func (m *mockBudgetStore) get(provider string, period domain.BudgetPeriod, at time.Time) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[keyOf(provider, period, at)]
}

// --- Persistence tests ---

func TestBudgetTracker_WithStore_LoadsValues(t *testing.T) {
	store := newMockBudgetStore()

	// Pre-seed store with budget values
	bt := NewBudgetTracker("prov", 1000, 10000, BudgetActionReject, zap.NewNop())
	store.data[keyOf("prov", domain.BudgetDaily, bt.daily.start)] = 300
	store.data[keyOf("prov", domain.BudgetMonthly, bt.monthly.start)] = 5000

	bt.WithStore(context.Background(), store)

	assert.Equal(t, int64(300), bt.DailyUsed())
	assert.Equal(t, int64(5000), bt.MonthlyUsed())
}

func TestBudgetTracker_Record_PersistsToStore(t *testing.T) {
	store := newMockBudgetStore()
	bt := NewBudgetTracker("prov", 1000, 10000, BudgetActionWarn, zap.NewNop())
	bt.WithStore(context.Background(), store)

	bt.Record(42)

	// In-memory updated
	assert.Equal(t, int64(42), bt.DailyUsed())

	// Store updated via write-behind
	assert.Equal(t, int64(42), store.get("prov", domain.BudgetDaily, bt.daily.start))
}

func TestBudgetTracker_Record_MultipleIncrements(t *testing.T) {
	store := newMockBudgetStore()
	bt := NewBudgetTracker("prov", 10000, 100000, BudgetActionWarn, zap.NewNop())
	bt.WithStore(context.Background(), store)

	bt.Record(100)
	bt.Record(200)
	bt.Record(300)

	assert.Equal(t, int64(600), bt.DailyUsed())

	// Store should contain accumulated values
	assert.Equal(t, int64(600), store.get("prov", domain.BudgetMonthly, bt.monthly.start))
	assert.Equal(t, int64(600), store.get("prov", domain.BudgetDaily, bt.daily.start))
}

func TestBudgetTracker_WithStore_LoadError(t *testing.T) {
	store := newMockBudgetStore()
	store.getErr = errors.New("connection refused")

	bt := NewBudgetTracker("prov", 1000, 10000, BudgetActionReject, zap.NewNop())
	bt.WithStore(context.Background(), store)

	// Should fall back to 0 on load error
	assert.Equal(t, int64(0), bt.DailyUsed())
	assert.Equal(t, int64(0), bt.MonthlyUsed())
}

func TestBudgetTracker_Record_StoreWriteError(t *testing.T) {
	store := newMockBudgetStore()
	bt := NewBudgetTracker("prov", 1000, 10000, BudgetActionWarn, zap.NewNop())
	bt.WithStore(context.Background(), store)

	// Break store after initial load
	store.mu.Lock()
	store.setErr = errors.New("write timeout")
	store.mu.Unlock()

	// Record must not panic -- in-memory updates, store error is logged
	bt.Record(50)

	assert.Equal(t, int64(50), bt.DailyUsed())
}

func TestBudgetTracker_WithStore_CheckStillInMemory(t *testing.T) {
	store := newMockBudgetStore()
	bt := NewBudgetTracker("prov", 100, 0, BudgetActionReject, zap.NewNop())
	bt.WithStore(context.Background(), store)

	bt.Record(100)

	// Check is hot path, in-memory only
	err := bt.Check(context.Background())
	require.ErrorIs(t, err, domain.ErrEmbeddingQuotaExceeded)
}

func TestBudgetTracker_NoStore_RecordWorks(t *testing.T) {
	// Without store, Record works in-memory only without panicking
	bt := NewBudgetTracker("prov", 1000, 10000, BudgetActionWarn, zap.NewNop())

	bt.Record(42)

	assert.Equal(t, int64(42), bt.DailyUsed())
}

func TestBudgetWindow_RollResetsOnNewPeriod(t *testing.T) {
	w := budgetWindow{period: domain.BudgetDaily, limit: 10, used: 10,
		start: time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC)}
	require.True(t, w.exceeded(), "expected exceeded before roll")

	w.roll(time.Date(2026, 3, 7, 1, 0, 0, 0, time.UTC))
	assert.Zero(t, w.used)
	assert.False(t, w.exceeded())
	assert.Equal(t, int64(10), w.remaining())
}
