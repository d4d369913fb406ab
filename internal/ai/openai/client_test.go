package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spigell/resume-matcher/internal/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := New(Config{}, nil)
	require.Error(t, err)

	_, err = NewEmbedder(EmbeddingConfig{APIKey: "  "}, nil)
	require.Error(t, err)
}

func TestNewDefaults(t *testing.T) {
	c, err := New(Config{APIKey: "key"}, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, DefaultBaseURL, c.baseURL)
	assert.Equal(t, DefaultModel, c.Model())
	assert.Equal(t, DefaultTemperature, c.temperature)
}

func TestGenerateContent(t *testing.T) {
	var got chatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"score\": 70, \"reason\": \"ok\"}"}}]}`))
	}))
	defer srv.Close()

	c, err := New(Config{APIKey: "secret", BaseURL: srv.URL + "/"}, zap.NewNop())
	require.NoError(t, err)

	out, err := c.GenerateContent(context.Background(), "sys", "usr")
	require.NoError(t, err)

	assert.Equal(t, `{"score": 70, "reason": "ok"}`, out)
	assert.Equal(t, DefaultModel, got.Model)
	assert.Equal(t, 0.2, got.Temperature)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "usr", got.Messages[1].Content)
}

func TestGenerateContentHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream exploded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, err := New(Config{APIKey: "secret", BaseURL: srv.URL}, zap.NewNop())
	require.NoError(t, err)

	_, err = c.GenerateContent(context.Background(), "sys", "usr")

	var httpErr *ai.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusInternalServerError, httpErr.StatusCode)
	assert.Contains(t, httpErr.Body, "upstream exploded")
}

func TestGenerateContentRequestError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, err := New(Config{APIKey: "secret", BaseURL: url}, zap.NewNop())
	require.NoError(t, err)

	_, err = c.GenerateContent(context.Background(), "sys", "usr")

	var reqErr *ai.RequestError
	require.ErrorAs(t, err, &reqErr)
}

func TestGenerateContentBadEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>gateway</html>"))
	}))
	defer srv.Close()

	c, err := New(Config{APIKey: "secret", BaseURL: srv.URL}, zap.NewNop())
	require.NoError(t, err)

	_, err = c.GenerateContent(context.Background(), "sys", "usr")
	assert.True(t, errors.Is(err, ai.ErrMalformedJSON), "unexpected error: %v", err)
}

func TestEmbed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)

		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"go developer"}, req.Input)
		assert.Equal(t, DefaultEmbeddingModel, req.Model)

		_, _ = w.Write([]byte(`{"data":[{"embedding":[0.5,-0.25,1],"index":0}]}`))
	}))
	defer srv.Close()

	e, err := NewEmbedder(EmbeddingConfig{APIKey: "secret", BaseURL: srv.URL}, zap.NewNop())
	require.NoError(t, err)

	vec, err := e.Embed(context.Background(), "go developer")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, -0.25, 1}, vec)
}

func TestEmbedEmptyData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	e, err := NewEmbedder(EmbeddingConfig{APIKey: "secret", BaseURL: srv.URL}, zap.NewNop())
	require.NoError(t, err)

	_, err = e.Embed(context.Background(), "text")
	assert.EqualError(t, err, "openai: no embedding returned")
}
