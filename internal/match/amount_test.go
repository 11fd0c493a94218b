package match_test

import (
	"testing"

	"github.com/ledgerly/pattern-engine-go/internal/match"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestAmountsSimilar_RelativeTolerance(t *testing.T) {
	// 0.99% apart: inside the 1% band.
	if !match.AmountsSimilar(dec("100.00"), dec("100.99")) {
		t.Error("100.00 vs 100.99 should be similar")
	}
	// 2% apart: outside.
	if match.AmountsSimilar(dec("100.00"), dec("102.00")) {
		t.Error("100.00 vs 102.00 should not be similar")
	}
}

func TestAmountsSimilar_ScalesWithMagnitude(t *testing.T) {
	// The tolerance is relative, so a small absolute difference on a
	// large amount still matches.
	if !match.AmountsSimilar(dec("1000.00"), dec("1009.00")) {
		t.Error("1000.00 vs 1009.00 should be similar")
	}
	if match.AmountsSimilar(dec("5.00"), dec("5.20")) {
		t.Error("5.00 vs 5.20 should not be similar")
	}
}

func TestAmountsSimilar_SignInsensitive(t *testing.T) {
	if !match.AmountsSimilar(dec("-15.99"), dec("15.99")) {
		t.Error("comparison should use magnitudes")
	}
}

func TestAmountsSimilar_ZeroNeverMatches(t *testing.T) {
	if match.AmountsSimilar(decimal.Zero, decimal.Zero) {
		t.Error("zero amounts must never match")
	}
	if match.AmountsSimilar(decimal.Zero, dec("10.00")) {
		t.Error("zero vs non-zero must never match")
	}
}
