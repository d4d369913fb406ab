package matching

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/resume-matcher/internal/scoring"
	"github.com/spigell/resume-matcher/internal/textnorm"
	"github.com/spigell/resume-matcher/internal/utils"
)

// scriptedScorer answers by the first marker found in the resume text.
type scriptedScorer struct {
	kind  scoring.Kind
	calls int
}

func (s *scriptedScorer) Score(_ context.Context, resume, _ string) scoring.Outcome {
	s.calls++
	switch {
	case strings.Contains(resume, "boom"):
		panic("boom")
	case strings.Contains(resume, "broken"):
		return scoring.Fail(s.kind, scoring.FailureHTTP, "HTTP Error: 500 Internal Server Error - down")
	case s.kind == scoring.KindSemantic:
		return scoring.Ok(scoring.SubScore{Kind: s.kind, Value: 90, Reason: "close"})
	default:
		return scoring.Ok(scoring.SubScore{Kind: s.kind, Value: 80, Reason: "good fit"})
	}
}

func newTestPipeline(log *zap.Logger) (*Pipeline, *scriptedScorer, *scriptedScorer) {
	llm := &scriptedScorer{kind: scoring.KindLLM}
	sem := &scriptedScorer{kind: scoring.KindSemantic}
	return New(llm, sem, scoring.NewKeywordScorer(0), log), llm, sem
}

func TestParseMethod(t *testing.T) {
	tests := map[string]Method{
		"llm":      MethodLLM,
		"GPT":      MethodLLM,
		" cosine ": MethodCosine,
		"hybrid":   MethodHybrid,
		"weighted": MethodWeighted,
	}
	for in, want := range tests {
		got, err := ParseMethod(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParseMethod("magic")
	require.ErrorIs(t, err, ErrInvalidMethod)
	assert.Len(t, Methods(), 4)
}

func TestRunContinuesAfterFailures(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	p, llm, _ := newTestPipeline(zap.New(core))

	docs := []Document{
		{Filename: "panics.pdf", Text: "boom"},
		{Filename: "down.pdf", Text: "broken"},
		{Filename: "unreadable.pdf", Err: errors.New("pdftotext: exit status 1")},
		{Filename: "good.pdf", Text: "Go engineer"},
	}

	batch, err := p.Run(context.Background(), "Go engineer wanted", docs, "gpt")
	require.NoError(t, err)
	require.Len(t, batch.Results, 4)
	assert.Equal(t, "llm", batch.Method)
	assert.Equal(t, 3, llm.calls)

	assert.Equal(t, "good.pdf", batch.Results[0].Filename)
	assert.Equal(t, 80.0, batch.Results[0].Score)
	assert.Equal(t, "good fit", batch.Results[0].Reason)

	assert.Equal(t, "panics.pdf", batch.Results[1].Filename)
	assert.Equal(t, "Unexpected error: boom", batch.Results[1].Reason)
	assert.Equal(t, "down.pdf", batch.Results[2].Filename)
	assert.Equal(t, "HTTP Error: 500 Internal Server Error - down", batch.Results[2].Reason)
	assert.Equal(t, "unreadable.pdf", batch.Results[3].Filename)
	assert.Equal(t, "Text extraction failed: pdftotext: exit status 1", batch.Results[3].Reason)
	for _, r := range batch.Results[1:] {
		assert.Zero(t, r.Score)
	}

	assert.Equal(t, 4, logs.FilterMessage("resume scored").Len())
	assert.Equal(t, 1, logs.FilterMessage("scoring panicked").Len())
}

func TestRunInvalidMethod(t *testing.T) {
	p, llm, sem := newTestPipeline(nil)

	batch, err := p.Run(context.Background(), "jd", []Document{
		{Filename: "a.pdf", Text: "a"},
		{Filename: "b.pdf", Text: "b"},
	}, "magic")
	require.NoError(t, err)

	assert.Equal(t, "magic", batch.Method)
	require.Len(t, batch.Results, 2)
	for i, r := range batch.Results {
		assert.Zero(t, r.Score)
		assert.Equal(t, InvalidMethodReason, r.Reason)
		assert.Equal(t, i, r.Index)
	}
	assert.Zero(t, llm.calls)
	assert.Zero(t, sem.calls)
}

func TestRunCosine(t *testing.T) {
	p, llm, sem := newTestPipeline(nil)

	batch, err := p.Run(context.Background(), "jd", []Document{{Filename: "a.pdf", Text: "resume"}}, "cosine")
	require.NoError(t, err)
	assert.Equal(t, 90.0, batch.Results[0].Score)
	assert.Equal(t, 1, sem.calls)
	assert.Zero(t, llm.calls)
}

func TestRunHybridAppliesExperience(t *testing.T) {
	p, _, _ := newTestPipeline(nil)

	resume := "Python developer with 5 years of Django and SQL"
	jd := "Looking for a Python developer, 3 years Django required"

	batch, err := p.Run(context.Background(), jd, []Document{{Filename: "a.pdf", Text: resume}}, "hybrid")
	require.NoError(t, err)

	kw := scoring.NewKeywordScorer(0).Score(textnorm.Normalize(resume), textnorm.Normalize(jd)).SubScore()
	want := utils.Round2(utils.Clamp(utils.Round2(0.4*80+0.3*90+0.3*kw.Value+5), 0, 100))

	assert.Equal(t, want, batch.Results[0].Score)
	assert.Contains(t, batch.Results[0].Reason, "Resume meets the required experience (5 vs 3).")
	assert.True(t, strings.HasPrefix(batch.Results[0].Reason, "Hybrid score: GPT=80 (good fit), Cosine=90 (close)"))
}

func TestRunWeighted(t *testing.T) {
	p, _, _ := newTestPipeline(nil)

	resume := "Python developer with 5 years of Django and SQL"
	jd := "Looking for a Python developer, 3 years Django required"

	batch, err := p.Run(context.Background(), jd, []Document{{Filename: "a.pdf", Text: resume}}, "weighted")
	require.NoError(t, err)

	kw := scoring.NewKeywordScorer(0).Score(textnorm.Normalize(resume), textnorm.Normalize(jd)).SubScore()
	want := utils.Round2(0.3*90 + 0.3*80 + 0.2*5 + 0.2*kw.Value)

	assert.Equal(t, want, batch.Results[0].Score)
	assert.Contains(t, batch.Results[0].Reason, "- Experience Score: 5 → Resume meets experience requirement (5 vs 3).")
}

func TestRunMissingScorerDegrades(t *testing.T) {
	p := New(nil, nil, nil, nil)

	batch, err := p.Run(context.Background(), "jd", []Document{{Filename: "a.pdf", Text: "resume"}}, "llm")
	require.NoError(t, err)
	assert.Zero(t, batch.Results[0].Score)
	assert.Equal(t, "Unexpected error: llm scorer is not configured", batch.Results[0].Reason)
}

func TestRunCancelled(t *testing.T) {
	p, _, _ := newTestPipeline(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Run(ctx, "jd", []Document{{Filename: "a.pdf", Text: "resume"}}, "llm")
	require.ErrorIs(t, err, context.Canceled)
}
