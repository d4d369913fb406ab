// Package matching scores a batch of resumes against one job description.
package matching

import (
	"context"
	"fmt"

	"github.com/spigell/resume-matcher/internal/experience"
	"github.com/spigell/resume-matcher/internal/results"
	"github.com/spigell/resume-matcher/internal/scoring"
	"github.com/spigell/resume-matcher/internal/textnorm"
	"go.uber.org/zap"
)

// Scorer is implemented by the semantic and LLM scorers.
type Scorer interface {
	Score(ctx context.Context, resume, jd string) scoring.Outcome
}

// Document is one submitted resume. Err carries a failed text extraction;
// such documents are kept in the batch with a zero score.
type Document struct {
	Filename string
	Text     string
	Path     string
	Err      error
}

// Batch is the outcome of one Run.
type Batch struct {
	Method         string      `json:"scoring_method" yaml:"scoring_method"`
	JobDescription string      `json:"job_description" yaml:"job_description"`
	Results        results.Set `json:"results" yaml:"results"`
}

// Pipeline holds the scorers shared by every batch.
type Pipeline struct {
	LLM      Scorer
	Semantic Scorer
	Keyword  *scoring.KeywordScorer
	// Years feeds the experience adjustment of the hybrid method.
	Years  experience.Extractor
	Logger *zap.Logger
}

// New builds a pipeline with the range-midpoint extractor for hybrid scoring.
func New(llm, semantic Scorer, keyword *scoring.KeywordScorer, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{
		LLM:      llm,
		Semantic: semantic,
		Keyword:  keyword,
		Years:    experience.RangeMidpoint{},
		Logger:   log,
	}
}

// Run scores docs one after another against jd. A failing resume is degraded
// to a zero score with a reason and the batch continues. Only a cancelled
// context stops the batch early.
func (p *Pipeline) Run(ctx context.Context, jd string, docs []Document, methodName string) (*Batch, error) {
	if p.Logger == nil {
		p.Logger = zap.NewNop()
	}
	cleanJD := textnorm.Normalize(jd)

	method, methodErr := ParseMethod(methodName)
	label := string(method)
	if methodErr != nil {
		label = methodName
		p.Logger.Warn("unknown scoring method", zap.String("method", methodName))
	}

	items := make([]results.Result, 0, len(docs))
	for i, doc := range docs {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("batch interrupted after %d of %d resumes: %w", i, len(docs), err)
		}

		res := results.Result{Filename: doc.Filename, Index: i, Path: doc.Path}
		switch {
		case methodErr != nil:
			res.Reason = InvalidMethodReason
		case doc.Err != nil:
			res.Reason = fmt.Sprintf("Text extraction failed: %v", doc.Err)
		default:
			res.Score, res.Reason = p.scoreOne(ctx, method, textnorm.Normalize(doc.Text), cleanJD)
		}

		p.Logger.Info("resume scored",
			zap.String("filename", doc.Filename),
			zap.String("method", label),
			zap.Float64("score", res.Score),
		)
		items = append(items, res)
	}

	return &Batch{Method: label, JobDescription: cleanJD, Results: results.NewSet(items)}, nil
}

func (p *Pipeline) scoreOne(ctx context.Context, method Method, resume, jd string) (score float64, reason string) {
	defer func() {
		if r := recover(); r != nil {
			p.Logger.Error("scoring panicked", zap.Any("panic", r))
			score, reason = 0, fmt.Sprintf("Unexpected error: %v", r)
		}
	}()

	switch method {
	case MethodLLM:
		sub := p.score(ctx, p.LLM, scoring.KindLLM, resume, jd)
		return sub.Value, sub.Reason
	case MethodCosine:
		sub := p.score(ctx, p.Semantic, scoring.KindSemantic, resume, jd)
		return sub.Value, sub.Reason
	case MethodHybrid:
		m, err := scoring.Blend(scoring.Inputs{
			LLM:         p.score(ctx, p.LLM, scoring.KindLLM, resume, jd),
			Semantic:    p.score(ctx, p.Semantic, scoring.KindSemantic, resume, jd),
			Keyword:     p.keyword(resume, jd),
			ResumeYears: p.years().Extract(resume),
			JDYears:     p.years().Extract(jd),
		}, scoring.PolicyWeightedAdjusted)
		if err != nil {
			return 0, fmt.Sprintf("Unexpected error: %v", err)
		}
		return m.Score, m.Reason
	case MethodWeighted:
		m, err := scoring.Blend(scoring.Inputs{
			LLM:        p.score(ctx, p.LLM, scoring.KindLLM, resume, jd),
			Semantic:   p.score(ctx, p.Semantic, scoring.KindSemantic, resume, jd),
			Experience: scoring.ExperienceScore(resume, jd),
			Keyword:    p.keyword(resume, jd),
		}, scoring.PolicyWeightedAverage)
		if err != nil {
			return 0, fmt.Sprintf("Unexpected error: %v", err)
		}
		return m.Score, m.Reason
	default:
		return 0, InvalidMethodReason
	}
}

func (p *Pipeline) score(ctx context.Context, s Scorer, kind scoring.Kind, resume, jd string) scoring.SubScore {
	if s == nil {
		return scoring.Fail(kind, scoring.FailureUnexpected, fmt.Sprintf("Unexpected error: %s scorer is not configured", kind)).SubScore()
	}
	return s.Score(ctx, resume, jd).SubScore()
}

func (p *Pipeline) years() experience.Extractor {
	if p.Years == nil {
		return experience.RangeMidpoint{}
	}
	return p.Years
}

func (p *Pipeline) keyword(resume, jd string) scoring.SubScore {
	if p.Keyword == nil {
		return scoring.NewKeywordScorer(0).Score(resume, jd).SubScore()
	}
	return p.Keyword.Score(resume, jd).SubScore()
}
