package match_test

import (
	"testing"

	"github.com/ledgerly/pattern-engine-go/internal/match"
)

func TestNormalizeMerchant(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"NETFLIX.COM", "netflix com"},
		{"The Home Depot #1234", "home depot"},
		{"Spotify USA Inc", "spotify usa"},
		{"STARBUCKS STORE 98765", "starbucks store"},
		{"ACME Corp, Ltd.", "acme"},
		{"", ""},
		{"#99901", ""},
	}

	for _, c := range cases {
		if got := match.NormalizeMerchant(c.in); got != c.want {
			t.Errorf("NormalizeMerchant(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestSimilarityRatio(t *testing.T) {
	if got := match.SimilarityRatio("netflix", "netflix"); got != 1.0 {
		t.Errorf("identical strings: got %f, want 1.0", got)
	}
	if got := match.SimilarityRatio("", ""); got != 0 {
		t.Errorf("empty strings: got %f, want 0", got)
	}
	if got := match.SimilarityRatio("netflix", "spotify"); got >= 0.9 {
		t.Errorf("unrelated strings: got %f, want < 0.9", got)
	}
}

func TestMerchantsSimilar(t *testing.T) {
	cases := []struct {
		a, b string
		want bool
	}{
		{"NETFLIX.COM", "Netflix.com", true},
		{"NETFLIX.COM #55512", "NETFLIX.COM", true},
		{"Spotify USA Inc", "SPOTIFY USA", true},
		{"Netflix", "Spotify", false},
		{"", "", false},
		{"#1234", "#1234", false}, // both normalize to empty
	}

	for _, c := range cases {
		if got := match.MerchantsSimilar(c.a, c.b); got != c.want {
			t.Errorf("MerchantsSimilar(%q, %q) = %v, want %v", c.a, c.b, got, c.want)
		}
	}
}
