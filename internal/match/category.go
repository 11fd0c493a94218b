package match

import "strings"

// Category weights returned by CategoryWeight. A weight is a coarse prior
// on how subscription-like a spending category is; the recurring detector
// multiplies it into the group confidence and drops anything at or below
// WeightNone.
const (
	WeightStrong  = 1.0 // clearly subscription categories
	WeightUtility = 0.7 // recurring household bills
	WeightNeutral = 0.4 // unknown category name
	WeightNone    = 0.3 // no category at all
	WeightAgainst = 0.1 // everyday spending, repeat purchases by habit
)

// categoryKeywords is checked in priority order; the first set containing
// a matching keyword wins.
var categoryKeywords = []struct {
	weight   float64
	keywords []string
}{
	{WeightStrong, []string{
		"subscription", "membership", "streaming", "software", "gym",
		"fitness", "music", "video", "app", "service", "cloud",
		"hosting", "saas", "platform", "premium",
	}},
	{WeightUtility, []string{
		"utilities", "internet", "phone", "cable",
	}},
	{WeightAgainst, []string{
		"restaurant", "food", "dining", "coffee", "cafe", "bar",
		"groceries", "grocery", "shopping", "retail", "store", "gas",
		"fuel", "transportation", "travel", "entertainment",
	}},
}

// CategoryWeight scores how subscription-like a category name is, in [0,1].
// An empty category returns WeightNone; an unrecognized one WeightNeutral.
func CategoryWeight(category string) float64 {
	if category == "" {
		return WeightNone
	}
	name := strings.ToLower(category)
	for _, set := range categoryKeywords {
		for _, kw := range set.keywords {
			if strings.Contains(name, kw) {
				return set.weight
			}
		}
	}
	return WeightNeutral
}
