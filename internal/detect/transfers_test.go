package detect_test

import (
	"testing"

	"github.com/ledgerly/pattern-engine-go/internal/detect"
	"github.com/ledgerly/pattern-engine-go/internal/domain"
)

func plain(id, account, amount, date string) *domain.Transaction {
	return tx(id, account, amount, date, "", "")
}

func TestTransfers_BasicPair(t *testing.T) {
	exp := plain("e1", "checking", "-500.00", "2024-01-10")
	inc := plain("i1", "savings", "500.00", "2024-01-11")

	out, err := detect.Transfers([]*domain.Transaction{exp, inc}, detect.TransferOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(out.Pairs) != 1 {
		t.Fatalf("expected 1 pair, got %d", len(out.Pairs))
	}
	p := out.Pairs[0]
	if p.OutgoingID != "e1" || p.IncomingID != "i1" {
		t.Errorf("pair = %s -> %s, want e1 -> i1", p.OutgoingID, p.IncomingID)
	}
	if p.DayGap != 1 {
		t.Errorf("day gap = %d, want 1", p.DayGap)
	}
	if p.FromAccountID != "checking" || p.ToAccountID != "savings" {
		t.Errorf("accounts = %s -> %s", p.FromAccountID, p.ToAccountID)
	}
	if !exp.IsTransfer || !inc.IsTransfer {
		t.Error("both legs should be flagged as transfers")
	}
	if out.Updated != 2 {
		t.Errorf("updated = %d, want 2", out.Updated)
	}
}

func TestTransfers_SameAccountNeverMatches(t *testing.T) {
	txns := []*domain.Transaction{
		plain("e1", "checking", "-250.00", "2024-03-01"),
		plain("i1", "checking", "250.00", "2024-03-02"),
	}

	out, _ := detect.Transfers(txns, detect.TransferOptions{})
	if len(out.Pairs) != 0 {
		t.Fatalf("same-account pair must not match, got %d", len(out.Pairs))
	}
}

func TestTransfers_ToleranceBoundary(t *testing.T) {
	out, _ := detect.Transfers([]*domain.Transaction{
		plain("e1", "a", "-100.00", "2024-01-01"),
		plain("i1", "b", "100.50", "2024-01-01"),
	}, detect.TransferOptions{})
	if len(out.Pairs) != 1 {
		t.Error("difference of exactly $0.50 should match")
	}

	out, _ = detect.Transfers([]*domain.Transaction{
		plain("e2", "a", "-100.00", "2024-01-01"),
		plain("i2", "b", "100.51", "2024-01-01"),
	}, detect.TransferOptions{})
	if len(out.Pairs) != 0 {
		t.Error("difference of $0.51 must not match")
	}
}

func TestTransfers_DateWindow(t *testing.T) {
	out, _ := detect.Transfers([]*domain.Transaction{
		plain("e1", "a", "-75.00", "2024-01-01"),
		plain("i1", "b", "75.00", "2024-01-03"),
	}, detect.TransferOptions{})
	if len(out.Pairs) != 1 {
		t.Error("2-day gap should match")
	}

	out, _ = detect.Transfers([]*domain.Transaction{
		plain("e2", "a", "-75.00", "2024-01-01"),
		plain("i2", "b", "75.00", "2024-01-04"),
	}, detect.TransferOptions{})
	if len(out.Pairs) != 0 {
		t.Error("3-day gap must not match")
	}
}

func TestTransfers_GreedyFirstFit(t *testing.T) {
	// Two deposits qualify; the earlier one in date order wins and the
	// second expense is left with the later one.
	txns := []*domain.Transaction{
		plain("e1", "checking", "-100.00", "2024-01-02"),
		plain("i2", "savings", "100.00", "2024-01-03"),
		plain("i1", "savings", "100.00", "2024-01-01"),
	}

	out, _ := detect.Transfers(txns, detect.TransferOptions{})
	if len(out.Pairs) != 1 {
		t.Fatalf("expected 1 pair, got %d", len(out.Pairs))
	}
	if out.Pairs[0].IncomingID != "i1" {
		t.Errorf("greedy match took %s, want i1 (first in date order)", out.Pairs[0].IncomingID)
	}
}

func TestTransfers_AdditiveAndRerunnable(t *testing.T) {
	txns := []*domain.Transaction{
		plain("e1", "checking", "-300.00", "2024-02-01"),
		plain("i1", "savings", "300.00", "2024-02-01"),
	}

	first, _ := detect.Transfers(txns, detect.TransferOptions{})
	if first.Updated != 2 {
		t.Fatalf("first run updated = %d, want 2", first.Updated)
	}

	second, _ := detect.Transfers(txns, detect.TransferOptions{})
	if len(second.Pairs) != 1 {
		t.Fatalf("second run pairs = %d, want 1", len(second.Pairs))
	}
	if second.Updated != 0 {
		t.Errorf("second run updated = %d, want 0 (flags already set)", second.Updated)
	}
}

func TestTransfers_NoMatchesIsNotAnError(t *testing.T) {
	out, err := detect.Transfers([]*domain.Transaction{
		plain("e1", "a", "-10.00", "2024-01-01"),
	}, detect.TransferOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Pairs) != 0 || out.Updated != 0 {
		t.Error("expected empty outcome")
	}
}
