package match

import "github.com/ledgerly/pattern-engine-go/internal/domain"

// cadenceBand maps a day-gap range to a named billing cadence. Bands carry
// a tolerance around the nominal interval: bank posting dates drift by a
// day or two around the billing date.
type cadenceBand struct {
	cadence  domain.Cadence
	min, max int
}

// bands are checked in order; they do not overlap.
var bands = []cadenceBand{
	{domain.CadenceWeekly, 6, 8},
	{domain.CadenceBiweekly, 12, 16},
	{domain.CadenceMonthly, 27, 33},
	{domain.CadenceYearly, 360, 370},
}

// ClassifyInterval maps a gap in days to a billing cadence. The second
// return is false when the gap falls outside every band.
func ClassifyInterval(days int) (domain.Cadence, bool) {
	for _, b := range bands {
		if days >= b.min && days <= b.max {
			return b.cadence, true
		}
	}
	return "", false
}

// DominantCadence returns the statistical mode of the cadence
// classifications of the given gaps, with ties broken by first-encountered
// order. The second return is false when no gap classifies at all.
func DominantCadence(gaps []int) (domain.Cadence, bool) {
	counts := make(map[domain.Cadence]int)
	var order []domain.Cadence

	for _, g := range gaps {
		c, ok := ClassifyInterval(g)
		if !ok {
			continue
		}
		if counts[c] == 0 {
			order = append(order, c)
		}
		counts[c]++
	}
	if len(order) == 0 {
		return "", false
	}

	best := order[0]
	for _, c := range order[1:] {
		if counts[c] > counts[best] {
			best = c
		}
	}
	return best, true
}
