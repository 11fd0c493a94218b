package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cadence is a named recurring billing interval.
type Cadence string

const (
	CadenceWeekly   Cadence = "weekly"
	CadenceBiweekly Cadence = "biweekly"
	CadenceMonthly  Cadence = "monthly"
	CadenceYearly   Cadence = "yearly"
)

// Confidence tiers for a detected recurring group.
const (
	TierPossible  = "possible"
	TierConfirmed = "confirmed"
)

// RecurringGroup is one detected subscription-like stream. Groups are
// transient: they exist only in the response of a single detection run
// (for a review UI or audit log) and are never persisted by the engine.
type RecurringGroup struct {
	MerchantKey    string          `json:"merchant_key"`
	Merchant       string          `json:"merchant"`
	Amount         decimal.Decimal `json:"amount"` // absolute representative amount
	Cadence        Cadence         `json:"cadence"`
	AvgIntervalDays float64        `json:"avg_interval_days"`
	IntervalStdDev float64         `json:"interval_std_dev"`
	Occurrences    int             `json:"occurrences"`
	Tier           string          `json:"tier"`
	Confidence     float64         `json:"confidence"`
	CategoryWeight float64         `json:"category_weight"`
	TransactionIDs []string        `json:"transaction_ids"`
	FirstDate      time.Time       `json:"first_date"`
	LastDate       time.Time       `json:"last_date"`
	AccountID      string          `json:"account_id"`

	// IsRecurring reports whether the members were actually flagged.
	// A group can qualify structurally yet fall under the confidence
	// floor, in which case it is reported but not flagged.
	IsRecurring bool `json:"is_recurring"`
}

// TransferPair is one matched internal money movement: an expense on one
// account and an equal-magnitude income on another within a short window.
type TransferPair struct {
	OutgoingID    string          `json:"outgoing_id"`
	IncomingID    string          `json:"incoming_id"`
	Amount        decimal.Decimal `json:"amount"`
	DayGap        int             `json:"day_gap"`
	FromAccountID string          `json:"from_account_id"`
	ToAccountID   string          `json:"to_account_id"`
}

// DetectionReport summarizes one full detection run for a user.
type DetectionReport struct {
	RunID            string           `json:"run_id"`
	UserID           string           `json:"user_id"`
	Groups           []RecurringGroup `json:"groups"`
	Pairs            []TransferPair   `json:"pairs"`
	RecurringFlagged int              `json:"recurring_flagged"`
	RecurringCleared int              `json:"recurring_cleared"`
	TransfersFlagged int              `json:"transfers_flagged"`
	StartedAt        time.Time        `json:"started_at"`
	DurationMs       int64            `json:"duration_ms"`
}

// SweepReport summarizes a detection sweep across all users.
type SweepReport struct {
	RunID      string `json:"run_id"`
	Users      int    `json:"users"`
	Failed     int    `json:"failed"`
	Groups     int    `json:"groups"`
	Pairs      int    `json:"pairs"`
	DurationMs int64  `json:"duration_ms"`
}

// SuccessResponse is a generic success payload for mutation endpoints.
type SuccessResponse struct {
	Message string `json:"message"`
}
