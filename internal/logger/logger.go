package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Option tweaks the zap config before the logger is built.
type Option func(*zap.Config)

// WithOutput replaces the default stdout sink, e.g. with "stderr" when stdout
// carries command results.
func WithOutput(paths ...string) Option {
	return func(cfg *zap.Config) {
		if len(paths) > 0 {
			cfg.OutputPaths = paths
		}
	}
}

// WithService adds a constant service field to every entry.
func WithService(name string) Option {
	return func(cfg *zap.Config) {
		if name == "" {
			return
		}
		if cfg.InitialFields == nil {
			cfg.InitialFields = map[string]interface{}{}
		}
		cfg.InitialFields["service"] = name
	}
}

func New(json bool, debug bool, opts ...Option) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	encoding := "console"

	if json {
		encoding = "json"
	}

	if debug {
		level = zapcore.DebugLevel
	}

	cfg := zap.Config{
		Encoding:         encoding,
		Level:            zap.NewAtomicLevelAt(level),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
		EncoderConfig: zapcore.EncoderConfig{
			MessageKey: "step",

			LevelKey:    "level",
			EncodeLevel: zapcore.LowercaseLevelEncoder,

			TimeKey:    "time",
			EncodeTime: zapcore.RFC3339TimeEncoder,

			CallerKey:    "caller",
			EncodeCaller: zapcore.ShortCallerEncoder,

			StacktraceKey:  "stacktrace",
			EncodeDuration: zapcore.StringDurationEncoder,
		},
	}
	if !debug {
		cfg.Sampling = &zap.SamplingConfig{Initial: 100, Thereafter: 100}
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg.Build()
}
