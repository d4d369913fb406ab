package scoring

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/spigell/resume-matcher/internal/ai"
	"github.com/spigell/resume-matcher/internal/experience"
	"github.com/spigell/resume-matcher/internal/keywords"
	"github.com/spigell/resume-matcher/internal/logger"
	"github.com/spigell/resume-matcher/internal/utils"
	"go.uber.org/zap"
)

const experiencePoints = 5

// SemanticScorer scores embedding similarity and folds in the experience
// adjustment and the keyword overlap bonus. Experience uses the max-of-all
// policy on both texts.
type SemanticScorer struct {
	embedder  ai.Embedder
	extractor experience.Extractor
	logger    *zap.Logger
}

func NewSemanticScorer(embedder ai.Embedder, log *zap.Logger) *SemanticScorer {
	return &SemanticScorer{
		embedder:  embedder,
		extractor: experience.MaxOfAll{},
		logger:    logger.WithScorer(log, string(KindSemantic)),
	}
}

func (s *SemanticScorer) Score(ctx context.Context, resume, jd string) Outcome {
	if s == nil || s.embedder == nil {
		return failFrom(KindSemantic, errors.New("embedding model is not configured"))
	}

	resumeVec, err := s.embedder.Embed(ctx, resume)
	if err != nil {
		s.logger.Warn("embedding resume failed", zap.Error(err))
		return failFrom(KindSemantic, err)
	}

	jdVec, err := s.embedder.Embed(ctx, jd)
	if err != nil {
		s.logger.Warn("embedding job description failed", zap.Error(err))
		return failFrom(KindSemantic, err)
	}

	semantic := utils.Round2(Cosine(resumeVec, jdVec) * 100)

	resumeYears := s.extractor.Extract(resume)
	jdYears := s.extractor.Extract(jd)

	var (
		expScore  float64
		expReason string
	)
	switch {
	case jdYears.Value <= 0:
		expReason = "No experience requirement specified in JD."
	case resumeYears.Value >= jdYears.Value:
		expScore = experiencePoints
		expReason = fmt.Sprintf("Meets experience requirement (%d vs %d).", resumeYears.Value, jdYears.Value)
	default:
		expScore = -experiencePoints
		expReason = fmt.Sprintf("Lacks experience (%d vs %d).", resumeYears.Value, jdYears.Value)
	}

	bonus, keywordReason := keywords.Bonus(keywords.OverlapRatio(resume, jd))

	value := utils.Round2(utils.Clamp(semantic+expScore+bonus, 0, 100))

	s.logger.Debug("semantic score",
		zap.Float64("cosine", semantic),
		zap.Float64("experience", expScore),
		zap.Float64("keyword_bonus", bonus),
		zap.Float64("score", value),
	)

	return Ok(SubScore{
		Kind:   KindSemantic,
		Value:  value,
		Reason: expReason + " | " + keywordReason,
	})
}

// Cosine returns the cosine similarity of two vectors, or 0 when they are
// empty, differ in length or either has zero magnitude.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
