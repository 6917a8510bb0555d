package domain

import "time"

// BudgetPeriod is the calendar window an embedding token cap applies to.
// Periods are aligned to UTC.
type BudgetPeriod string

// Budget periods.
const (
	BudgetDaily   BudgetPeriod = "daily"
	BudgetMonthly BudgetPeriod = "monthly"
)

// Start returns the beginning of the period containing t.
func (p BudgetPeriod) Start(t time.Time) time.Time {
	t = t.UTC()
	if p == BudgetMonthly {
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// End returns the beginning of the period after the one containing t.
func (p BudgetPeriod) End(t time.Time) time.Time {
	if p == BudgetMonthly {
		return p.Start(t).AddDate(0, 1, 0)
	}
	return p.Start(t).AddDate(0, 0, 1)
}

// Label names the period containing t: "2026-03-07" or "2026-03".
func (p BudgetPeriod) Label(t time.Time) string {
	if p == BudgetMonthly {
		return t.UTC().Format("2006-01")
	}
	return t.UTC().Format("2006-01-02")
}
