package scoring

import (
	"fmt"

	"github.com/spigell/resume-matcher/internal/experience"
	"github.com/spigell/resume-matcher/internal/keywords"
)

// KeywordScorer reports TF-IDF top-N overlap as a keyword sub-score.
type KeywordScorer struct {
	tfidf *keywords.TFIDF
}

func NewKeywordScorer(topN int) *KeywordScorer {
	return &KeywordScorer{tfidf: keywords.NewTFIDF(topN)}
}

// Score degrades to a vocabulary failure, never an error, when either text
// has no usable terms.
func (k *KeywordScorer) Score(resume, jd string) Outcome {
	m := k.tfidf.Score(resume, jd)
	if m.Empty {
		return Fail(KindKeyword, FailureVocabulary, m.Reason)
	}
	return Ok(SubScore{Kind: KindKeyword, Value: m.Score, Reason: m.Reason})
}

// ExperienceScore compares the largest years mention of both texts
// (max-of-all policy) and returns +5, -5 or 0 when the JD states none.
func ExperienceScore(resume, jd string) SubScore {
	ext := experience.MaxOfAll{}
	r, j := ext.Extract(resume).Value, ext.Extract(jd).Value

	switch {
	case j == 0:
		return SubScore{Kind: KindExperience, Reason: "JD does not specify experience requirement."}
	case r >= j:
		return SubScore{
			Kind:   KindExperience,
			Value:  experiencePoints,
			Reason: fmt.Sprintf("Resume meets experience requirement (%d vs %d).", r, j),
		}
	default:
		return SubScore{
			Kind:   KindExperience,
			Value:  -experiencePoints,
			Reason: fmt.Sprintf("Resume lacks required experience (%d vs %d).", r, j),
		}
	}
}
