// Package detect implements the two batch heuristics of the pattern
// engine: recurring-subscription detection and internal-transfer pairing.
// Both are pure functions over one user's in-memory transaction slice
// with no I/O and no clock, so a run is deterministic and re-runnable
// by construction.
package detect

import (
	"math"
	"sort"

	"github.com/ledgerly/pattern-engine-go/internal/domain"
	"github.com/ledgerly/pattern-engine-go/internal/match"
)

// MinClusterSize is the structural floor: a merchant or amount cluster
// with fewer members can never qualify as a pattern. This is distinct
// from RecurringOptions.MinOccurrences, which gates flagging.
const MinClusterSize = 3

// DefaultMinOccurrences is the occurrence count at which a pattern is
// considered confirmed (and eligible for flagging).
const DefaultMinOccurrences = 4

const (
	confidenceConfirmed = 0.9
	confidencePossible  = 0.7

	// flagConfidenceFloor: groups whose category-adjusted confidence
	// falls below this are reported but their members are not flagged.
	flagConfidenceFloor = 0.5

	// maxIntervalJitter is the allowed interval standard deviation as a
	// fraction of the mean interval. Subscriptions bill on a tight
	// schedule; coincidental repeat purchases do not.
	maxIntervalJitter = 0.10
)

// RecurringOptions tunes the recurring detector.
type RecurringOptions struct {
	// MinOccurrences is the flagging threshold: groups with at least
	// this many members are tier "confirmed" and may be flagged.
	// Smaller groups (down to MinClusterSize) are reported as
	// "possible" but never flagged. Zero means DefaultMinOccurrences.
	MinOccurrences int
}

// RecurringOutcome is the result of one recurring detection run.
type RecurringOutcome struct {
	Groups []domain.RecurringGroup

	// Flagged holds IDs whose recurring flag was set this run; Cleared
	// holds IDs that carried the flag on entry and no longer qualify.
	// The caller persists both sides.
	Flagged []string
	Cleared []string

	// Updated is the number of recurring flags set this run.
	Updated int
}

// Recurring scans one user's transactions for subscription-like streams:
// per account, transactions are greedily clustered by fuzzy merchant
// match, sub-clustered by tolerant amount equality, and each sub-cluster
// is kept only if its billing cadence is consistent and its category
// plausibly subscription-like. Input flags are mutated in place; the
// outcome lists every flag change for the caller to persist.
//
// The run is idempotent: all recurring flags are cleared up front and
// re-derived, so a stream that stopped matching loses its flag.
func Recurring(txns []*domain.Transaction, opts RecurringOptions) (RecurringOutcome, error) {
	var out RecurringOutcome

	if opts.MinOccurrences == 0 {
		opts.MinOccurrences = DefaultMinOccurrences
	}
	if opts.MinOccurrences < MinClusterSize {
		return out, &domain.ErrValidation{Field: "min_occurrences", Message: "must be at least the minimum cluster size"}
	}
	if err := requireSingleUser(txns); err != nil {
		return out, err
	}

	prior := make(map[string]bool, len(txns))
	for _, tx := range txns {
		prior[tx.ID] = tx.IsRecurring
	}

	// Idempotency reset: the recurring flag is authoritative only for
	// the current window, so every flag is cleared and re-derived.
	for _, tx := range txns {
		tx.IsRecurring = false
	}

	eligible := make([]*domain.Transaction, 0, len(txns))
	for _, tx := range txns {
		if tx.IsTransfer || tx.RecurringDismissed || tx.AccountID == "" {
			continue
		}
		eligible = append(eligible, tx)
	}

	for _, acct := range partitionByAccount(eligible) {
		for _, cl := range clusterByMerchant(acct) {
			for _, sub := range clusterByAmount(cl.members) {
				group, ok := evaluateSubCluster(cl, sub, opts.MinOccurrences)
				if !ok {
					continue
				}
				if group.IsRecurring {
					for _, tx := range sub {
						if !tx.IsRecurring {
							tx.IsRecurring = true
							out.Flagged = append(out.Flagged, tx.ID)
							out.Updated++
						}
					}
				}
				out.Groups = append(out.Groups, group)
			}
		}
	}

	for _, tx := range txns {
		if prior[tx.ID] && !tx.IsRecurring {
			out.Cleared = append(out.Cleared, tx.ID)
		}
	}
	return out, nil
}

// partitionByAccount splits transactions per owning account, preserving
// first-seen account order so output ordering stays deterministic.
func partitionByAccount(txns []*domain.Transaction) [][]*domain.Transaction {
	byAccount := make(map[string][]*domain.Transaction)
	var order []string
	for _, tx := range txns {
		if _, seen := byAccount[tx.AccountID]; !seen {
			order = append(order, tx.AccountID)
		}
		byAccount[tx.AccountID] = append(byAccount[tx.AccountID], tx)
	}

	parts := make([][]*domain.Transaction, 0, len(order))
	for _, id := range order {
		parts = append(parts, byAccount[id])
	}
	return parts
}

type merchantCluster struct {
	key     string // normalized merchant key
	rep     string // representative raw merchant name
	members []*domain.Transaction
}

// clusterByMerchant greedily groups an account's transactions by fuzzy
// merchant similarity. Transactions are scanned in stable (merchant,
// date) order; each joins the first cluster whose representative matches,
// or starts its own. First-fit is deliberate: the grouping is order
// dependent but stable for identical input.
func clusterByMerchant(txns []*domain.Transaction) []*merchantCluster {
	sorted := make([]*domain.Transaction, len(txns))
	copy(sorted, txns)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Merchant != sorted[j].Merchant {
			return sorted[i].Merchant < sorted[j].Merchant
		}
		return sorted[i].Date.Before(sorted[j].Date)
	})

	var clusters []*merchantCluster
	for _, tx := range sorted {
		placed := false
		for _, c := range clusters {
			if match.MerchantsSimilar(c.rep, tx.Merchant) {
				c.members = append(c.members, tx)
				placed = true
				break
			}
		}
		if !placed {
			clusters = append(clusters, &merchantCluster{
				key:     match.NormalizeMerchant(tx.Merchant),
				rep:     tx.Merchant,
				members: []*domain.Transaction{tx},
			})
		}
	}

	kept := clusters[:0]
	for _, c := range clusters {
		if len(c.members) >= MinClusterSize {
			kept = append(kept, c)
		}
	}
	return kept
}

// clusterByAmount sub-clusters a merchant cluster by tolerant amount
// equality, using the same first-fit strategy keyed on each sub-cluster's
// first member.
func clusterByAmount(txns []*domain.Transaction) [][]*domain.Transaction {
	var subs [][]*domain.Transaction
	for _, tx := range txns {
		placed := false
		for i, sub := range subs {
			if match.AmountsSimilar(sub[0].Amount, tx.Amount) {
				subs[i] = append(sub, tx)
				placed = true
				break
			}
		}
		if !placed {
			subs = append(subs, []*domain.Transaction{tx})
		}
	}

	kept := subs[:0]
	for _, sub := range subs {
		if len(sub) >= MinClusterSize {
			kept = append(kept, sub)
		}
	}
	return kept
}

// evaluateSubCluster applies the cadence, jitter and category gates to an
// amount sub-cluster and builds its group record. ok is false when the
// sub-cluster does not qualify structurally.
func evaluateSubCluster(cl *merchantCluster, sub []*domain.Transaction, minOccurrences int) (domain.RecurringGroup, bool) {
	sort.SliceStable(sub, func(i, j int) bool { return sub[i].Date.Before(sub[j].Date) })

	gaps := make([]int, 0, len(sub)-1)
	for i := 1; i < len(sub); i++ {
		gaps = append(gaps, domain.DaysBetween(sub[i-1].Date, sub[i].Date))
	}

	cadence, ok := match.DominantCadence(gaps)
	if !ok {
		return domain.RecurringGroup{}, false
	}

	mean, stddev := intervalStats(gaps)
	if stddev > maxIntervalJitter*mean {
		return domain.RecurringGroup{}, false
	}

	weight := match.CategoryWeight(sub[0].Category)
	if weight <= match.WeightNone {
		return domain.RecurringGroup{}, false
	}

	occurrences := len(sub)
	tier := domain.TierPossible
	confidence := confidencePossible
	if occurrences >= minOccurrences {
		tier = domain.TierConfirmed
		confidence = confidenceConfirmed
	}
	confidence *= weight

	ids := make([]string, 0, occurrences)
	for _, tx := range sub {
		ids = append(ids, tx.ID)
	}

	return domain.RecurringGroup{
		MerchantKey:     cl.key,
		Merchant:        cl.rep,
		Amount:          sub[0].Amount.Abs(),
		Cadence:         cadence,
		AvgIntervalDays: mean,
		IntervalStdDev:  stddev,
		Occurrences:     occurrences,
		Tier:            tier,
		Confidence:      confidence,
		CategoryWeight:  weight,
		TransactionIDs:  ids,
		FirstDate:       sub[0].Date,
		LastDate:        sub[len(sub)-1].Date,
		AccountID:       sub[0].AccountID,
		IsRecurring:     confidence >= flagConfidenceFloor && occurrences >= minOccurrences,
	}, true
}

// intervalStats returns the mean and population standard deviation of the
// day gaps.
func intervalStats(gaps []int) (mean, stddev float64) {
	if len(gaps) == 0 {
		return 0, 0
	}
	sum := 0
	for _, g := range gaps {
		sum += g
	}
	mean = float64(sum) / float64(len(gaps))

	var sq float64
	for _, g := range gaps {
		d := float64(g) - mean
		sq += d * d
	}
	stddev = math.Sqrt(sq / float64(len(gaps)))
	return mean, stddev
}

// requireSingleUser rejects input spanning more than one user. Detection
// scoping mistakes would corrupt flags across users, so this fails loudly
// instead of guessing.
func requireSingleUser(txns []*domain.Transaction) error {
	var user string
	for _, tx := range txns {
		if tx.UserID == "" {
			continue
		}
		if user == "" {
			user = tx.UserID
			continue
		}
		if tx.UserID != user {
			return &domain.ErrValidation{Field: "transactions", Message: "input spans more than one user"}
		}
	}
	return nil
}
