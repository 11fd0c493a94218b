// Package domain defines the core business entities for the pattern engine.
// These models are independent of external services and represent the
// canonical data structures used throughout the detection pipeline.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a single bank transaction as the detection engine sees it.
// Amount is signed: negative = expense, positive = income. Date carries no
// time-of-day component (truncated to midnight UTC by the store adapters).
type Transaction struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	AccountID string          `json:"account_id"`
	Amount    decimal.Decimal `json:"amount"`
	Date      time.Time       `json:"date"`
	Merchant  string          `json:"merchant"`
	Category  string          `json:"category,omitempty"`

	// Flags. IsTransfer and IsRecurring are mutated by the detectors;
	// RecurringDismissed and UserModified are input-only and never touched.
	IsTransfer         bool `json:"is_transfer"`
	IsRecurring        bool `json:"is_recurring"`
	RecurringDismissed bool `json:"recurring_dismissed"`
	UserModified       bool `json:"user_modified"`
}

// IsExpense reports whether the transaction is an outflow.
func (t *Transaction) IsExpense() bool {
	return t.Amount.IsNegative()
}

// IsIncome reports whether the transaction is an inflow.
func (t *Transaction) IsIncome() bool {
	return t.Amount.IsPositive()
}

// DaysBetween returns the whole number of calendar days between two dates.
// The result is always non-negative.
func DaysBetween(a, b time.Time) int {
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	days := int(db.Sub(da).Hours() / 24)
	if days < 0 {
		return -days
	}
	return days
}
