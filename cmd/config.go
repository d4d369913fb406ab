package cmd

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	Server    *ServerConfig    `mapstructure:"server" validate:"required"`
	Store     *StoreConfig     `mapstructure:"store" validate:"required"`
	Scoring   *ScoringConfig   `mapstructure:"scoring" validate:"required"`
	LLM       *LLMConfig       `mapstructure:"llm" validate:"required"`
	Embedding *EmbeddingConfig `mapstructure:"embedding" validate:"required"`
}

type ServerConfig struct {
	Addr              string        `mapstructure:"addr" validate:"required"`
	UploadDir         string        `mapstructure:"upload-dir" validate:"required"`
	MaxUploadMB       int           `mapstructure:"max-upload-mb" validate:"gte=1,lte=1024"`
	RateLimit         float64       `mapstructure:"rate-limit" validate:"gte=0"`
	Burst             int           `mapstructure:"burst" validate:"gte=0"`
	AllowedOrigins    []string      `mapstructure:"allowed-origins"`
	SessionSecret     string        `mapstructure:"session-secret" json:"-"`
	SessionSecretFile string        `mapstructure:"session-secret-file"`
	SessionTTL        time.Duration `mapstructure:"session-ttl" validate:"gte=0"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown-timeout" validate:"gte=0"`
}

type StoreConfig struct {
	Driver string `mapstructure:"driver" validate:"oneof=memory sqlite postgres"`
	DSN    string `mapstructure:"dsn" json:"-"`
}

type ScoringConfig struct {
	DefaultMethod    string `mapstructure:"default-method" validate:"oneof=llm gpt cosine hybrid weighted"`
	TopN             int    `mapstructure:"top-n" validate:"gte=0"`
	ExperiencePolicy string `mapstructure:"experience-policy" validate:"oneof=max-of-all range-midpoint"`
}

type LLMConfig struct {
	Provider     string        `mapstructure:"provider" validate:"oneof=openai gemini"`
	BaseURL      string        `mapstructure:"base-url" validate:"omitempty,url"`
	Model        string        `mapstructure:"model"`
	Temperature  float64       `mapstructure:"temperature" validate:"gte=0,lte=2"`
	Timeout      time.Duration `mapstructure:"timeout" validate:"gte=0"`
	APIKey       string        `mapstructure:"api-key" json:"-"`
	APIKeyFile   string        `mapstructure:"api-key-file"`
	APIKeyEnv    string        `mapstructure:"api-key-env"`
	KeyringUser  string        `mapstructure:"keyring-user"`
	MaxLogLength int           `mapstructure:"max-log-length" validate:"gte=0"`
}

type EmbeddingConfig struct {
	Provider    string        `mapstructure:"provider" validate:"oneof=openai gemini"`
	BaseURL     string        `mapstructure:"base-url" validate:"omitempty,url"`
	Model       string        `mapstructure:"model"`
	Timeout     time.Duration `mapstructure:"timeout" validate:"gte=0"`
	APIKey      string        `mapstructure:"api-key" json:"-"`
	APIKeyFile  string        `mapstructure:"api-key-file"`
	APIKeyEnv   string        `mapstructure:"api-key-env"`
	KeyringUser string        `mapstructure:"keyring-user"`
}

// setDefaults registers every key so env overrides reach Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.upload-dir", "uploads")
	v.SetDefault("server.max-upload-mb", 32)
	v.SetDefault("server.rate-limit", 0.5)
	v.SetDefault("server.burst", 5)
	v.SetDefault("server.allowed-origins", []string{})
	v.SetDefault("server.session-secret", "")
	v.SetDefault("server.session-secret-file", "")
	v.SetDefault("server.session-ttl", "24h")
	v.SetDefault("server.shutdown-timeout", "30s")

	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.dsn", "")

	v.SetDefault("scoring.default-method", "llm")
	v.SetDefault("scoring.top-n", 20)
	v.SetDefault("scoring.experience-policy", "range-midpoint")

	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.base-url", "")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.temperature", 0.2)
	v.SetDefault("llm.timeout", "120s")
	v.SetDefault("llm.api-key", "")
	v.SetDefault("llm.api-key-file", "")
	v.SetDefault("llm.api-key-env", "")
	v.SetDefault("llm.keyring-user", "llm")
	v.SetDefault("llm.max-log-length", 2000)

	v.SetDefault("embedding.provider", "openai")
	v.SetDefault("embedding.base-url", "")
	v.SetDefault("embedding.model", "")
	v.SetDefault("embedding.timeout", "60s")
	v.SetDefault("embedding.api-key", "")
	v.SetDefault("embedding.api-key-file", "")
	v.SetDefault("embedding.api-key-env", "")
	v.SetDefault("embedding.keyring-user", "embedding")
}

func getConfig() (*Config, error) {
	return loadConfig(viper.GetViper())
}

func loadConfig(v *viper.Viper) (*Config, error) {
	var config *Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if config == nil {
		return nil, fmt.Errorf("config is empty")
	}

	if err := validator.New().Struct(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}
