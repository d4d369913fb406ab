// Package scoring produces named sub-scores for a resume/JD pair and blends
// them into one MatchResult under a named policy.
package scoring

import "fmt"

// Kind names a sub-score.
type Kind string

const (
	KindSemantic   Kind = "semantic"
	KindKeyword    Kind = "keyword"
	KindExperience Kind = "experience"
	KindLLM        Kind = "llm"
)

// SubScore is one scored component. Semantic, keyword and llm values live in
// [0,100]; experience is one of -5, 0 and +5.
type SubScore struct {
	Kind   Kind    `json:"kind" yaml:"kind"`
	Value  float64 `json:"value" yaml:"value"`
	Reason string  `json:"reason" yaml:"reason"`
}

// FailureKind classifies why a scorer could not produce a value.
type FailureKind string

const (
	FailureHTTP       FailureKind = "http"
	FailureRequest    FailureKind = "request"
	FailureJSON       FailureKind = "json"
	FailureFormat     FailureKind = "format"
	FailureVocabulary FailureKind = "vocabulary"
	FailureUnexpected FailureKind = "unexpected"
)

// Failure describes a degraded scorer call.
type Failure struct {
	Kind   FailureKind
	Detail string
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Kind, f.Detail)
}

// Outcome is either a SubScore or a Failure, never both.
type Outcome struct {
	kind  Kind
	score SubScore
	err   *Failure
}

// Ok wraps a successful sub-score.
func Ok(s SubScore) Outcome {
	return Outcome{kind: s.Kind, score: s}
}

// Fail records a failed scorer call of the given sub-score kind.
func Fail(kind Kind, failure FailureKind, detail string) Outcome {
	return Outcome{kind: kind, err: &Failure{Kind: failure, Detail: detail}}
}

// Err returns the failure, or nil for a successful outcome.
func (o Outcome) Err() *Failure { return o.err }

// SubScore returns the score, mapping any failure to a zero value whose
// reason is the failure detail.
func (o Outcome) SubScore() SubScore {
	if o.err != nil {
		return SubScore{Kind: o.kind, Value: 0, Reason: o.err.Detail}
	}
	return o.score
}
