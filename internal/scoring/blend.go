package scoring

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spigell/resume-matcher/internal/experience"
	"github.com/spigell/resume-matcher/internal/utils"
)

// Policy names a blending formula. The two policies disagree on the same
// inputs and are kept apart on purpose.
type Policy string

const (
	// PolicyWeightedAverage is 0.3 cosine + 0.3 llm + 0.2 experience +
	// 0.2 keyword, rounded and left unclamped.
	PolicyWeightedAverage Policy = "weighted-average"
	// PolicyWeightedAdjusted is 0.4 llm + 0.3 cosine + 0.3 keyword with a
	// flat experience adjustment, clamped to [0,100].
	PolicyWeightedAdjusted Policy = "weighted-adjusted"
)

// ParsePolicy resolves a policy by name.
func ParsePolicy(name string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(name))); p {
	case PolicyWeightedAverage, PolicyWeightedAdjusted:
		return p, nil
	default:
		return "", fmt.Errorf("unknown blending policy %q", name)
	}
}

// Inputs carries every sub-score a policy may consume. ResumeYears and
// JDYears feed the weighted-adjusted policy and are expected to come from the
// range-midpoint extractor.
type Inputs struct {
	LLM         SubScore
	Semantic    SubScore
	Experience  SubScore
	Keyword     SubScore
	ResumeYears experience.Years
	JDYears     experience.Years
}

// MatchResult is the blended score of one resume/JD pair.
type MatchResult struct {
	Score  float64 `json:"score" yaml:"score"`
	Reason string  `json:"reason" yaml:"reason"`
}

// Blend combines the inputs under the named policy. Reasons always list the
// sub-scores in the order llm, semantic, experience, keyword.
func Blend(in Inputs, policy Policy) (MatchResult, error) {
	switch policy {
	case PolicyWeightedAverage:
		return weightedAverage(in), nil
	case PolicyWeightedAdjusted:
		return weightedAdjusted(in), nil
	default:
		return MatchResult{}, fmt.Errorf("unknown blending policy %q", policy)
	}
}

func weightedAverage(in Inputs) MatchResult {
	score := utils.Round2(
		0.3*in.Semantic.Value +
			0.3*in.LLM.Value +
			0.2*in.Experience.Value +
			0.2*in.Keyword.Value,
	)

	reason := fmt.Sprintf(
		"Hybrid Scoring:\n- GPT Score: %s → %s\n- Cosine Score: %s → %s\n- Experience Score: %s → %s\n- Keyword Score: %s → %s",
		formatScore(in.LLM.Value), in.LLM.Reason,
		formatScore(in.Semantic.Value), in.Semantic.Reason,
		formatScore(in.Experience.Value), in.Experience.Reason,
		formatScore(in.Keyword.Value), in.Keyword.Reason,
	)

	return MatchResult{Score: score, Reason: reason}
}

func weightedAdjusted(in Inputs) MatchResult {
	score := 0.4*in.LLM.Value + 0.3*in.Semantic.Value + 0.3*in.Keyword.Value

	adjustment := 0.0
	expReason := "not compared"
	if in.ResumeYears.Valid && in.JDYears.Valid && in.JDYears.Value != 0 {
		if in.ResumeYears.Value >= in.JDYears.Value {
			adjustment = experiencePoints
			expReason = fmt.Sprintf("Resume meets the required experience (%d vs %d).", in.ResumeYears.Value, in.JDYears.Value)
		} else {
			adjustment = -experiencePoints
			expReason = fmt.Sprintf("Resume lacks required experience (%d vs %d).", in.ResumeYears.Value, in.JDYears.Value)
		}
	}

	score = utils.Round2(utils.Clamp(utils.Round2(score+adjustment), 0, 100))

	reason := fmt.Sprintf(
		"Hybrid score: GPT=%s (%s), Cosine=%s (%s), Experience=%s (%s), Keywords=%s (%s).",
		formatScore(in.LLM.Value), in.LLM.Reason,
		formatScore(in.Semantic.Value), in.Semantic.Reason,
		formatScore(adjustment), expReason,
		formatScore(in.Keyword.Value), in.Keyword.Reason,
	)

	return MatchResult{Score: score, Reason: reason}
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
