package embedding

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/domain"
)

// BudgetAction defines behavior when the token budget is exceeded.
type BudgetAction string

const (
	// BudgetActionWarn logs a warning and lets the request through.
	BudgetActionWarn BudgetAction = "warn"
	// BudgetActionReject fails the request with domain.ErrEmbeddingQuotaExceeded.
	BudgetActionReject BudgetAction = "reject"
)

// BudgetStore persists budget counters across restarts and replicas.
type BudgetStore interface {
	Add(ctx context.Context, provider string, period domain.BudgetPeriod, at time.Time, tokens int64) error
	Used(ctx context.Context, provider string, period domain.BudgetPeriod, at time.Time) (int64, error)
}

// budgetWindow is one calendar period (day or month) with its own cap.
type budgetWindow struct {
	period domain.BudgetPeriod
	limit  int64
	used   int64
	start  time.Time
}

func (w *budgetWindow) roll(now time.Time) {
	if cur := w.period.Start(now); cur.After(w.start) {
		w.used = 0
		w.start = cur
	}
}

func (w *budgetWindow) exceeded() bool { return w.limit > 0 && w.used >= w.limit }

func (w *budgetWindow) remaining() int64 {
	if w.limit == 0 {
		return -1
	}
	return max(w.limit-w.used, 0)
}

// BudgetTracker enforces daily and monthly token caps per provider.
// Check is in-memory; Record writes behind to the optional store.
type BudgetTracker struct {
	mu       sync.Mutex
	daily    budgetWindow
	monthly  budgetWindow
	action   BudgetAction
	provider string
	store    BudgetStore
	logger   *zap.Logger
}

// NewBudgetTracker creates a tracker. A zero limit means unlimited.
func NewBudgetTracker(
	provider string, dailyLimit, monthlyLimit int64,
	action BudgetAction, logger *zap.Logger,
) *BudgetTracker {
	now := time.Now().UTC()
	b := &BudgetTracker{
		daily:    budgetWindow{period: domain.BudgetDaily, limit: dailyLimit},
		monthly:  budgetWindow{period: domain.BudgetMonthly, limit: monthlyLimit},
		action:   action,
		provider: provider,
		logger:   logger,
	}
	b.daily.start = domain.BudgetDaily.Start(now)
	b.monthly.start = domain.BudgetMonthly.Start(now)
	return b
}

// WithStore attaches a store and loads the current counters from it.
func (b *BudgetTracker) WithStore(ctx context.Context, store BudgetStore) *BudgetTracker {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.store = store
	now := time.Now().UTC()
	for _, w := range []*budgetWindow{&b.daily, &b.monthly} {
		val, err := store.Used(ctx, b.provider, w.period, now)
		if err != nil {
			b.logger.Warn("Failed to load budget from store", zap.String("period", string(w.period)), zap.Error(err))
			continue
		}
		w.used = val
	}

	b.logger.Info("Budget loaded from store",
		zap.String("provider", b.provider),
		zap.Int64("daily_used", b.daily.used),
		zap.Int64("monthly_used", b.monthly.used),
	)
	return b
}

func (b *BudgetTracker) rollLocked() {
	now := time.Now().UTC()
	b.daily.roll(now)
	b.monthly.roll(now)
}

// Check reports whether a new request fits the budget.
func (b *BudgetTracker) Check(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.rollLocked()
	if !b.daily.exceeded() && !b.monthly.exceeded() {
		return nil
	}
	if b.action == BudgetActionReject {
		return domain.ErrEmbeddingQuotaExceeded
	}

	b.logger.Warn("Token budget exceeded",
		zap.String("provider", b.provider),
		zap.Int64("daily_used", b.daily.used),
		zap.Int64("daily_limit", b.daily.limit),
		zap.Int64("monthly_used", b.monthly.used),
		zap.Int64("monthly_limit", b.monthly.limit),
	)
	return nil
}

// Record adds consumed tokens and persists them when a store is attached.
func (b *BudgetTracker) Record(tokens int64) {
	b.mu.Lock()
	b.rollLocked()
	b.daily.used += tokens
	b.monthly.used += tokens
	store := b.store
	now := time.Now().UTC()
	b.mu.Unlock()

	if store == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for _, p := range []domain.BudgetPeriod{domain.BudgetDaily, domain.BudgetMonthly} {
		if err := store.Add(ctx, b.provider, p, now, tokens); err != nil {
			b.logger.Warn("Failed to persist budget",
				zap.String("provider", b.provider), zap.String("period", string(p)), zap.Error(err))
		}
	}
}

// RemainingDaily returns tokens left today (-1 if unlimited).
func (b *BudgetTracker) RemainingDaily() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rollLocked()
	return b.daily.remaining()
}

// RemainingMonthly returns tokens left this month (-1 if unlimited).
func (b *BudgetTracker) RemainingMonthly() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rollLocked()
	return b.monthly.remaining()
}

// DailyUsed returns tokens consumed today.
func (b *BudgetTracker) DailyUsed() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rollLocked()
	return b.daily.used
}

// MonthlyUsed returns tokens consumed this month.
func (b *BudgetTracker) MonthlyUsed() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rollLocked()
	return b.monthly.used
}
