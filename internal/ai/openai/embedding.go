package openai

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/spigell/resume-matcher/internal/ai"
	"github.com/spigell/resume-matcher/internal/logger"
	"go.uber.org/zap"
)

// Ensure Embedder implements the interface.
var _ ai.Embedder = (*Embedder)(nil)

const (
	DefaultEmbeddingBaseURL = "https://api.openai.com/v1"
	DefaultEmbeddingModel   = "text-embedding-3-small"
	DefaultEmbeddingTimeout = 60 * time.Second
)

// EmbeddingConfig holds configuration for the embeddings client.
type EmbeddingConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Embedder generates embeddings through the /embeddings endpoint.
type Embedder struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
	logger  *zap.Logger
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

// NewEmbedder creates an embeddings client.
func NewEmbedder(cfg EmbeddingConfig, log *zap.Logger) (*Embedder, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("openai: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultEmbeddingBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultEmbeddingModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultEmbeddingTimeout
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	return &Embedder{
		client:  client,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  strings.TrimSpace(cfg.APIKey),
		model:   cfg.Model,
		logger:  logger.WithCommonFields(log, "openai", cfg.Model),
	}, nil
}

// Embed generates a vector embedding for the given text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	var resp embeddingResponse
	err := postJSON(ctx, e.client, e.baseURL+"/embeddings", e.apiKey, embeddingRequest{
		Model: e.model,
		Input: []string{text},
	}, &resp)
	if err != nil {
		e.logger.Debug("embedding request failed", zap.Error(err))
		return nil, err
	}

	for _, data := range resp.Data {
		if data.Index != 0 {
			continue
		}
		embedding := make([]float32, len(data.Embedding))
		for i, v := range data.Embedding {
			embedding[i] = float32(v)
		}
		return embedding, nil
	}

	return nil, errors.New("openai: no embedding returned")
}

func (e *Embedder) Model() string {
	if e == nil {
		return ""
	}
	return e.model
}
