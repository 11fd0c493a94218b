// Package match provides the fuzzy-comparison primitives used by the
// detectors: merchant-name normalization, character-level similarity,
// tolerant amount comparison, billing-interval classification and the
// category subscription-likelihood heuristic.
package match

import (
	"regexp"
	"strings"
)

// MerchantSimilarityThreshold is the minimum similarity ratio for two
// normalized merchant names to be treated as the same merchant.
// Subscription billing descriptors are near-identical between charges, so
// the bar is deliberately high.
const MerchantSimilarityThreshold = 0.98

var (
	storeNumberRe = regexp.MustCompile(`#\d+`)
	longDigitsRe  = regexp.MustCompile(`\d{4,}`)
	nonWordRe     = regexp.MustCompile(`[^a-z0-9\s]`)
)

// noiseTokens are dropped from normalized merchant names: generic corporate
// suffixes and the article "the".
var noiseTokens = map[string]bool{
	"inc":  true,
	"llc":  true,
	"ltd":  true,
	"corp": true,
	"co":   true,
	"the":  true,
}

// NormalizeMerchant reduces a raw merchant descriptor to a stable key:
// lowercased, store numbers ("#1234") and long digit runs stripped,
// corporate suffixes and punctuation removed, whitespace collapsed.
// Deterministic and pure.
func NormalizeMerchant(name string) string {
	s := strings.ToLower(name)
	s = storeNumberRe.ReplaceAllString(s, " ")
	s = longDigitsRe.ReplaceAllString(s, " ")
	s = nonWordRe.ReplaceAllString(s, " ")

	fields := strings.Fields(s)
	kept := fields[:0]
	for _, f := range fields {
		if noiseTokens[f] {
			continue
		}
		kept = append(kept, f)
	}
	return strings.Join(kept, " ")
}

// SimilarityRatio returns a character-level similarity in [0,1] based on
// the longest common subsequence of the two strings:
//
//	ratio = 2*LCS(a,b) / (len(a)+len(b))
//
// Two empty strings are not similar (ratio 0).
func SimilarityRatio(a, b string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	lcs := lcsLength(a, b)
	return 2 * float64(lcs) / float64(len(a)+len(b))
}

// MerchantsSimilar reports whether two raw merchant names normalize to
// sufficiently similar keys. Empty normalized names never match.
func MerchantsSimilar(a, b string) bool {
	na := NormalizeMerchant(a)
	nb := NormalizeMerchant(b)
	if na == "" || nb == "" {
		return false
	}
	return SimilarityRatio(na, nb) >= MerchantSimilarityThreshold
}

// lcsLength computes the longest-common-subsequence length with a
// two-row dynamic program (O(len(a)*len(b)) time, O(len(b)) space).
func lcsLength(a, b string) int {
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				cur[j] = prev[j-1] + 1
			} else if prev[j] >= cur[j-1] {
				cur[j] = prev[j]
			} else {
				cur[j] = cur[j-1]
			}
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}
