// Package openai talks to OpenAI-compatible /chat/completions and /embeddings
// endpoints (Groq, OpenAI, local gateways).
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spigell/resume-matcher/internal/ai"
	"github.com/spigell/resume-matcher/internal/logger"
	"go.uber.org/zap"
)

// Ensure Client implements the interface.
var _ ai.Generator = (*Client)(nil)

// Default configuration values.
const (
	DefaultBaseURL     = "https://api.groq.com/openai/v1"
	DefaultModel       = "llama-3.1-8b-instant"
	DefaultTemperature = 0.2
	DefaultTimeout     = 120 * time.Second
)

// Config holds configuration for the chat completions client.
type Config struct {
	// APIKey is sent as a bearer token (required).
	APIKey string
	// BaseURL is the API base URL (default: Groq's OpenAI-compatible endpoint).
	BaseURL string
	// Model is the chat model (default: llama-3.1-8b-instant).
	Model string
	// Temperature defaults to 0.2 when zero.
	Temperature float64
	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration
	// HTTPClient overrides the default client, mainly in tests.
	HTTPClient *http.Client
}

// Client sends one chat completion per call. It never retries.
type Client struct {
	client      *http.Client
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	logger      *zap.Logger
}

type chatCompletionRequest struct {
	Model       string              `json:"model"`
	Messages    []chatCompletionMsg `json:"messages"`
	Temperature float64             `json:"temperature"`
}

type chatCompletionMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// New creates a chat completions client.
func New(cfg Config, log *zap.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("openai: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = DefaultTemperature
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		client:      client,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      strings.TrimSpace(cfg.APIKey),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		logger:      logger.WithCommonFields(log, "openai", cfg.Model),
	}, nil
}

// GenerateContent returns the content of the first choice.
func (c *Client) GenerateContent(ctx context.Context, system, user string) (string, error) {
	reqBody := chatCompletionRequest{
		Model: c.model,
		Messages: []chatCompletionMsg{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: c.temperature,
	}

	var resp chatCompletionResponse
	if err := postJSON(ctx, c.client, c.baseURL+"/chat/completions", c.apiKey, reqBody, &resp); err != nil {
		c.logger.Debug("chat completion failed", zap.Error(err))
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("openai: no response choices returned")
	}

	return resp.Choices[0].Message.Content, nil
}

func (c *Client) Model() string {
	if c == nil {
		return ""
	}
	return c.model
}

// postJSON sends body and decodes a 2xx answer into out. Transport failures
// come back as *ai.RequestError and non-2xx answers as *ai.HTTPError.
func postJSON(ctx context.Context, client *http.Client, url, apiKey string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return &ai.RequestError{Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := client.Do(req)
	if err != nil {
		return &ai.RequestError{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &ai.RequestError{Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &ai.HTTPError{StatusCode: resp.StatusCode, Status: resp.Status, Body: string(data)}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: decode response envelope: %v", ai.ErrMalformedJSON, err)
	}

	return nil
}
