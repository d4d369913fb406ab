package keywords

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/spigell/resume-matcher/internal/utils"
)

// DefaultTopN is the number of highest weighted terms compared per document.
const DefaultTopN = 20

// NoVocabularyReason is reported when either document has no usable terms.
const NoVocabularyReason = "TF-IDF found no matchable vocabulary."

var term = regexp.MustCompile(`\b\w\w+\b`)

// Match is the outcome of a TF-IDF comparison.
type Match struct {
	Score   float64
	Matched []string
	Reason  string
	// Empty is set when a document produced no vocabulary.
	Empty bool
}

// TFIDF compares the top weighted terms of a resume and a JD. Weights are
// fitted jointly over exactly those two documents.
type TFIDF struct {
	TopN      int
	StopWords map[string]struct{}
}

// NewTFIDF returns a scorer using the English stop word list.
func NewTFIDF(topN int) *TFIDF {
	if topN <= 0 {
		topN = DefaultTopN
	}
	return &TFIDF{TopN: topN, StopWords: EnglishStopWords}
}

// Score never fails: empty input degrades to a zero Match.
func (t *TFIDF) Score(resume, jd string) Match {
	docs := [2]map[string]int{t.counts(resume), t.counts(jd)}
	if len(docs[0]) == 0 || len(docs[1]) == 0 {
		return Match{Reason: NoVocabularyReason, Empty: true}
	}

	df := make(map[string]int)
	for _, doc := range docs {
		for w := range doc {
			df[w]++
		}
	}

	n := float64(len(docs))
	idf := make(map[string]float64, len(df))
	for w, d := range df {
		// smoothed idf: ln((1+n)/(1+df)) + 1
		idf[w] = math.Log((1+n)/(1+float64(d))) + 1
	}

	topResume := t.top(weights(docs[0], idf))
	topJD := t.top(weights(docs[1], idf))

	matched := make([]string, 0)
	for w := range topJD {
		if _, ok := topResume[w]; ok {
			matched = append(matched, w)
		}
	}
	sort.Strings(matched)

	denom := len(topJD)
	if denom < 1 {
		denom = 1
	}

	return Match{
		Score:   utils.Round2(float64(len(matched)) / float64(denom) * 100),
		Matched: matched,
		Reason:  fmt.Sprintf("TF-IDF matched %d keywords: %s", len(matched), strings.Join(matched, ", ")),
	}
}

func (t *TFIDF) counts(text string) map[string]int {
	counts := make(map[string]int)
	for _, w := range term.FindAllString(strings.ToLower(text), -1) {
		if _, stop := t.StopWords[w]; stop {
			continue
		}
		counts[w]++
	}
	return counts
}

// weights returns L2-normalized tf*idf weights of one document.
func weights(counts map[string]int, idf map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(counts))
	var norm float64
	for w, c := range counts {
		v := float64(c) * idf[w]
		out[w] = v
		norm += v * v
	}

	norm = math.Sqrt(norm)
	if norm == 0 {
		return out
	}
	for w := range out {
		out[w] /= norm
	}
	return out
}

type weighted struct {
	term   string
	weight float64
}

func (t *TFIDF) top(w map[string]float64) map[string]struct{} {
	ranked := make([]weighted, 0, len(w))
	for term, v := range w {
		if v > 0 {
			ranked = append(ranked, weighted{term: term, weight: v})
		}
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].weight != ranked[j].weight {
			return ranked[i].weight > ranked[j].weight
		}
		return ranked[i].term < ranked[j].term
	})

	if len(ranked) > t.TopN {
		ranked = ranked[:t.TopN]
	}

	out := make(map[string]struct{}, len(ranked))
	for _, r := range ranked {
		out[r.term] = struct{}{}
	}
	return out
}
