package scoring

import (
	"context"
	"errors"

	"github.com/spigell/resume-matcher/internal/ai"
	"github.com/spigell/resume-matcher/internal/logger"
	"go.uber.org/zap"
)

// Evaluator is implemented by *ai.Judge.
type Evaluator interface {
	Evaluate(ctx context.Context, resume, jd string) (*ai.Assessment, error)
}

// LLMScorer turns a judge assessment into an llm sub-score. Every failure is
// classified and degraded; nothing is retried.
type LLMScorer struct {
	judge  Evaluator
	logger *zap.Logger
}

func NewLLMScorer(judge Evaluator, log *zap.Logger) *LLMScorer {
	return &LLMScorer{judge: judge, logger: logger.WithScorer(log, string(KindLLM))}
}

func (l *LLMScorer) Score(ctx context.Context, resume, jd string) Outcome {
	if l == nil || l.judge == nil {
		return failFrom(KindLLM, errors.New("llm judge is not configured"))
	}

	assessment, err := l.judge.Evaluate(ctx, resume, jd)
	if err != nil {
		out := failFrom(KindLLM, err)
		l.logger.Warn("llm judge degraded",
			zap.String("failure", string(out.Err().Kind)),
			zap.Error(err),
		)
		return out
	}

	l.logger.Debug("llm score",
		zap.Float64("score", assessment.Score),
		zap.Float64("skills_match", assessment.SkillsMatch),
		zap.Float64("experience_match", assessment.ExperienceMatch),
		zap.Float64("education_match", assessment.EducationMatch),
		zap.Float64("keyword_match", assessment.KeywordMatch),
	)

	return Ok(SubScore{Kind: KindLLM, Value: assessment.Score, Reason: assessment.Reason})
}
