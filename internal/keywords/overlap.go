// Package keywords holds the lexical scorers: a plain word-set overlap ratio
// and a TF-IDF top terms overlap.
package keywords

import (
	"regexp"
	"strings"
)

const (
	// BonusThreshold is the overlap ratio above which Bonus awards points.
	BonusThreshold = 0.2
	// BonusPoints is added to the semantic score for a good overlap.
	BonusPoints = 3.0
)

var word = regexp.MustCompile(`\b\w+\b`)

func wordSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range word.FindAllString(strings.ToLower(text), -1) {
		set[w] = struct{}{}
	}
	return set
}

// OverlapRatio returns the share of distinct JD words that also occur in the
// resume. An empty JD yields 0.
func OverlapRatio(resume, jd string) float64 {
	jdWords := wordSet(jd)
	if len(jdWords) == 0 {
		return 0
	}

	resumeWords := wordSet(resume)
	shared := 0
	for w := range jdWords {
		if _, ok := resumeWords[w]; ok {
			shared++
		}
	}

	return float64(shared) / float64(len(jdWords))
}

// Bonus converts an overlap ratio into the fixed keyword bonus and its reason.
func Bonus(ratio float64) (float64, string) {
	if ratio > BonusThreshold {
		return BonusPoints, "Good keyword match."
	}
	return 0, "Poor keyword match."
}
