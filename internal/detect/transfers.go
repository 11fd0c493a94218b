package detect

import (
	"sort"

	"github.com/ledgerly/pattern-engine-go/internal/domain"
	"github.com/shopspring/decimal"
)

// DefaultTransferTolerance is the absolute amount tolerance for pairing a
// withdrawal with a deposit. Transfers move exact amounts; the slack only
// covers per-side rounding, so the tolerance is absolute rather than
// relative.
var DefaultTransferTolerance = decimal.NewFromFloat(0.50)

// DefaultTransferMaxDayGap is how many days apart the two legs of a
// transfer may post.
const DefaultTransferMaxDayGap = 2

// TransferOptions tunes the transfer pair matcher. The zero value means
// defaults.
type TransferOptions struct {
	AmountTolerance decimal.Decimal
	MaxDayGap       int
}

// TransferOutcome is the result of one transfer matching run.
type TransferOutcome struct {
	Pairs []domain.TransferPair

	// Flagged holds IDs whose transfer flag was newly set. Transfer
	// flags are additive: flags set by earlier runs are never cleared.
	Flagged []string

	// Updated is the number of transfer flags set this run.
	Updated int
}

// Transfers pairs opposite-sign transactions across different accounts of
// the same user: equal magnitude within the tolerance, posted within the
// day-gap window. Matching is greedy first-fit in date order, not a
// globally optimal assignment; once a leg is matched it is out of play.
// Matched transactions get their transfer flag set in place.
func Transfers(txns []*domain.Transaction, opts TransferOptions) (TransferOutcome, error) {
	var out TransferOutcome

	if opts.AmountTolerance.IsZero() {
		opts.AmountTolerance = DefaultTransferTolerance
	}
	if opts.AmountTolerance.IsNegative() {
		return out, &domain.ErrValidation{Field: "amount_tolerance", Message: "must not be negative"}
	}
	if opts.MaxDayGap == 0 {
		opts.MaxDayGap = DefaultTransferMaxDayGap
	}
	if opts.MaxDayGap < 0 {
		return out, &domain.ErrValidation{Field: "max_day_gap", Message: "must not be negative"}
	}
	if err := requireSingleUser(txns); err != nil {
		return out, err
	}

	var expenses, income []*domain.Transaction
	for _, tx := range txns {
		switch {
		case tx.IsExpense():
			expenses = append(expenses, tx)
		case tx.IsIncome():
			income = append(income, tx)
		}
	}
	sort.SliceStable(expenses, func(i, j int) bool { return expenses[i].Date.Before(expenses[j].Date) })
	sort.SliceStable(income, func(i, j int) bool { return income[i].Date.Before(income[j].Date) })

	used := make(map[string]bool, len(income))
	for _, exp := range expenses {
		magnitude := exp.Amount.Abs()
		for _, inc := range income {
			if used[inc.ID] {
				continue
			}
			if inc.AccountID == exp.AccountID {
				continue
			}
			if inc.Amount.Sub(magnitude).Abs().Cmp(opts.AmountTolerance) > 0 {
				continue
			}
			gap := domain.DaysBetween(exp.Date, inc.Date)
			if gap > opts.MaxDayGap {
				continue
			}

			used[inc.ID] = true
			out.Pairs = append(out.Pairs, domain.TransferPair{
				OutgoingID:    exp.ID,
				IncomingID:    inc.ID,
				Amount:        magnitude,
				DayGap:        gap,
				FromAccountID: exp.AccountID,
				ToAccountID:   inc.AccountID,
			})
			for _, tx := range []*domain.Transaction{exp, inc} {
				if !tx.IsTransfer {
					tx.IsTransfer = true
					out.Flagged = append(out.Flagged, tx.ID)
					out.Updated++
				}
			}
			break
		}
	}
	return out, nil
}
