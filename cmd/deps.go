package cmd

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/resume-matcher/internal/ai"
	"github.com/spigell/resume-matcher/internal/ai/gemini"
	"github.com/spigell/resume-matcher/internal/ai/openai"
	"github.com/spigell/resume-matcher/internal/experience"
	"github.com/spigell/resume-matcher/internal/matching"
	"github.com/spigell/resume-matcher/internal/scoring"
	"github.com/spigell/resume-matcher/internal/secrets"
)

const (
	providerOpenAI = "openai"
	providerGemini = "gemini"
)

// apiKeyEnv picks the conventional variable of the provider unless one is
// configured.
func apiKeyEnv(configured, provider, openaiDefault string) string {
	if env := strings.TrimSpace(configured); env != "" {
		return env
	}
	if provider == providerGemini {
		return "GEMINI_API_KEY"
	}
	return openaiDefault
}

func newGenerator(ctx context.Context, cfg *LLMConfig, log *zap.Logger) (ai.Generator, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	env := apiKeyEnv(cfg.APIKeyEnv, provider, "GROQ_API_KEY")

	apiKey, err := secrets.Load(secrets.Source{
		Name:        "llm api key",
		Value:       cfg.APIKey,
		File:        cfg.APIKeyFile,
		Env:         env,
		KeyringUser: cfg.KeyringUser,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set llm.api-key-file, %s or a keyring entry)", err, env)
	}

	switch provider {
	case providerOpenAI:
		return openai.New(openai.Config{
			APIKey:      apiKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
		}, log)
	case providerGemini:
		return gemini.NewGenerator(ctx, apiKey, cfg.Model, cfg.Temperature, log)
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.Provider)
	}
}

func newEmbedder(ctx context.Context, cfg *EmbeddingConfig, log *zap.Logger) (ai.Embedder, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	env := apiKeyEnv(cfg.APIKeyEnv, provider, "OPENAI_API_KEY")

	apiKey, err := secrets.Load(secrets.Source{
		Name:        "embedding api key",
		Value:       cfg.APIKey,
		File:        cfg.APIKeyFile,
		Env:         env,
		KeyringUser: cfg.KeyringUser,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set embedding.api-key-file, %s or a keyring entry)", err, env)
	}

	switch provider {
	case providerOpenAI:
		return openai.NewEmbedder(openai.EmbeddingConfig{
			APIKey:  apiKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		}, log)
	case providerGemini:
		return gemini.NewEmbedder(ctx, apiKey, cfg.Model, log)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
}

// newPipeline wires the scorers. A collaborator that cannot be built is
// skipped with a warning; its sub-score then degrades per resume.
func newPipeline(ctx context.Context, config *Config, log *zap.Logger) (*matching.Pipeline, error) {
	years, err := experience.ByName(config.Scoring.ExperiencePolicy)
	if err != nil {
		return nil, err
	}

	var llm matching.Scorer
	generator, err := newGenerator(ctx, config.LLM, log)
	if err != nil {
		log.Warn("skipping llm judge", zap.Error(err))
	} else {
		judge := ai.NewJudge(generator, log, config.LLM.MaxLogLength)
		llm = scoring.NewLLMScorer(judge, log)
	}

	var semantic matching.Scorer
	embedder, err := newEmbedder(ctx, config.Embedding, log)
	if err != nil {
		log.Warn("skipping semantic scorer", zap.Error(err))
	} else {
		semantic = scoring.NewSemanticScorer(embedder, log)
	}

	pipeline := matching.New(llm, semantic, scoring.NewKeywordScorer(config.Scoring.TopN), log)
	pipeline.Years = years
	return pipeline, nil
}

// sessionSecret loads the configured secret or makes a random one, which
// invalidates sessions on restart.
func sessionSecret(cfg *ServerConfig, log *zap.Logger) (string, error) {
	secret, err := secrets.Load(secrets.Source{
		Name:        "session secret",
		Value:       cfg.SessionSecret,
		File:        cfg.SessionSecretFile,
		Env:         envPrefix + "_SESSION_SECRET",
		KeyringUser: "session",
	})
	if err == nil {
		return secret, nil
	}
	if strings.TrimSpace(cfg.SessionSecretFile) != "" {
		return "", err
	}

	log.Warn("using a random session secret, sessions will not survive a restart", zap.Error(err))

	var b [32]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("generating session secret: %w", err)
	}
	return hex.EncodeToString(b[:]), nil
}
