// Package gemini adapts the Google GenAI SDK to the ai.Generator and
// ai.Embedder contracts.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spigell/resume-matcher/internal/ai"
	"github.com/spigell/resume-matcher/internal/logger"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

const (
	defaultModel          = "gemini-2.5-flash"
	defaultEmbeddingModel = "text-embedding-004"
	defaultTemperature    = 0.2
)

var (
	_ ai.Generator = (*Generator)(nil)
	_ ai.Embedder  = (*Embedder)(nil)
)

// modelsAPI is the subset of *genai.Models used here.
type modelsAPI interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

// Generator sends one system instruction plus one user message per call.
type Generator struct {
	models      modelsAPI
	model       string
	temperature float32
	logger      *zap.Logger
}

func newModels(ctx context.Context, apiKey string) (modelsAPI, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return client.Models, nil
}

// NewGenerator creates a new Generator configured for the Gemini API backend.
func NewGenerator(ctx context.Context, apiKey, model string, temperature float64, log *zap.Logger) (*Generator, error) {
	models, err := newModels(ctx, apiKey)
	if err != nil {
		return nil, err
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}
	if temperature == 0 {
		temperature = defaultTemperature
	}

	return &Generator{
		models:      models,
		model:       model,
		temperature: float32(temperature),
		logger:      logger.WithCommonFields(log, "gemini", model),
	}, nil
}

// GenerateContent returns the concatenated text parts of the answer.
func (g *Generator) GenerateContent(ctx context.Context, system, user string) (string, error) {
	if g == nil || g.models == nil {
		return "", errors.New("gemini generator is not initialized")
	}

	user = strings.TrimSpace(user)
	if user == "" {
		return "", errors.New("prompt must not be empty")
	}

	temperature := g.temperature
	config := &genai.GenerateContentConfig{
		Temperature:      &temperature,
		ResponseMIMEType: "application/json",
	}
	if system = strings.TrimSpace(system); system != "" {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}}
	}

	resp, err := g.models.GenerateContent(ctx, g.model, userContent(user), config)
	if err != nil {
		g.logger.Debug("generate content failed", zap.Error(err))
		return "", classify(err)
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", errors.New("gemini api returned empty response")
	}

	return output, nil
}

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}

// Embedder produces embeddings with a Gemini embedding model.
type Embedder struct {
	models modelsAPI
	model  string
	logger *zap.Logger
}

// NewEmbedder creates a new Embedder configured for the Gemini API backend.
func NewEmbedder(ctx context.Context, apiKey, model string, log *zap.Logger) (*Embedder, error) {
	models, err := newModels(ctx, apiKey)
	if err != nil {
		return nil, err
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultEmbeddingModel
	}

	return &Embedder{
		models: models,
		model:  model,
		logger: logger.WithCommonFields(log, "gemini", model),
	}, nil
}

func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if e == nil || e.models == nil {
		return nil, errors.New("gemini embedder is not initialized")
	}

	resp, err := e.models.EmbedContent(ctx, e.model, userContent(text), nil)
	if err != nil {
		e.logger.Debug("embed content failed", zap.Error(err))
		return nil, classify(err)
	}

	if resp == nil || len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil {
		return nil, errors.New("gemini api returned no embedding")
	}

	return resp.Embeddings[0].Values, nil
}

func (e *Embedder) Model() string {
	if e == nil {
		return ""
	}
	return e.model
}

func userContent(text string) []*genai.Content {
	return []*genai.Content{{
		Role:  "user",
		Parts: []*genai.Part{{Text: text}},
	}}
}

// classify maps SDK errors onto the shared ai error types: API answers become
// *ai.HTTPError, everything else is a request failure.
func classify(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &ai.HTTPError{StatusCode: apiErr.Code, Status: apiErr.Status, Body: apiErr.Message}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return &ai.HTTPError{StatusCode: apiErrPtr.Code, Status: apiErrPtr.Status, Body: apiErrPtr.Message}
	}
	return &ai.RequestError{Err: err}
}
