package match

import "github.com/shopspring/decimal"

// AmountTolerance is the relative tolerance for two amounts to be treated
// as the same recurring charge. The tolerance is relative, not absolute,
// so detection scales correctly from a $5 app charge to a $500 insurance
// premium.
var AmountTolerance = decimal.NewFromFloat(0.01)

var two = decimal.NewFromInt(2)

// AmountsSimilar reports whether two amounts are within 1% of their mean
// magnitude. Zero amounts never match anything.
func AmountsSimilar(x, y decimal.Decimal) bool {
	if x.IsZero() || y.IsZero() {
		return false
	}
	ax := x.Abs()
	ay := y.Abs()
	mean := ax.Add(ay).Div(two)
	diff := ax.Sub(ay).Abs()
	return diff.Div(mean).Cmp(AmountTolerance) <= 0
}
