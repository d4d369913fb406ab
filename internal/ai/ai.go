// Package ai holds the contracts shared by the hosted model backends and the
// LLM judge that turns a chat completion into a structured match assessment.
package ai

import (
	"context"
	"errors"
	"fmt"
)

// Generator sends one system prompt and one user prompt to a hosted model and
// returns the raw textual answer.
type Generator interface {
	GenerateContent(ctx context.Context, system, user string) (string, error)
	Model() string
}

// Embedder turns text into a dense vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Model() string
}

// Assessment is the structured answer of the LLM judge.
type Assessment struct {
	Score           float64 `mapstructure:"score"`
	SkillsMatch     float64 `mapstructure:"skills_match"`
	ExperienceMatch float64 `mapstructure:"experience_match"`
	EducationMatch  float64 `mapstructure:"education_match"`
	KeywordMatch    float64 `mapstructure:"keyword_match"`
	Reason          string  `mapstructure:"reason"`
	Raw             string  `mapstructure:"-"`
}

var (
	// ErrMalformedJSON is returned when the model answer is not a JSON object.
	ErrMalformedJSON = errors.New("malformed json response")
	// ErrInvalidFormat is returned when the JSON lacks the required keys.
	ErrInvalidFormat = errors.New("invalid response format")
)

// HTTPError reports a non-2xx answer from a model endpoint.
type HTTPError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPError) Error() string {
	status := e.Status
	if status == "" {
		status = fmt.Sprintf("%d", e.StatusCode)
	}
	return fmt.Sprintf("%s - %s", status, e.Body)
}

// RequestError reports a failure to reach a model endpoint at all.
type RequestError struct {
	Err error
}

func (e *RequestError) Error() string { return e.Err.Error() }

func (e *RequestError) Unwrap() error { return e.Err }
