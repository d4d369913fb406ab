package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestStringFieldsSkipsBlank(t *testing.T) {
	fields := StringFields(
		StringField{Key: " scorer ", Value: " semantic "},
		StringField{Key: FieldSession, Value: "\t"},
		StringField{Key: "", Value: "orphan"},
	)

	if len(fields) != 1 {
		t.Fatalf("expected 1 field, got %d", len(fields))
	}
	if fields[0].Key != FieldScorer || fields[0].String != "semantic" {
		t.Fatalf("unexpected field: %+v", fields[0])
	}
	if got := StringFields(); len(got) != 0 {
		t.Fatalf("expected no fields, got %d", len(got))
	}
}

func TestHelpersAttachFields(t *testing.T) {
	tests := []struct {
		name   string
		build  func(*zap.Logger) *zap.Logger
		expect map[string]string
		absent []string
	}{
		{
			name:   "provider and model",
			build:  func(l *zap.Logger) *zap.Logger { return WithCommonFields(l, " openai ", "llama-3.1-8b-instant") },
			expect: map[string]string{FieldProvider: "openai", FieldModel: "llama-3.1-8b-instant"},
		},
		{
			name:   "model missing",
			build:  func(l *zap.Logger) *zap.Logger { return WithCommonFields(l, "gemini", "") },
			expect: map[string]string{FieldProvider: "gemini"},
			absent: []string{FieldModel},
		},
		{
			name:   "scorer",
			build:  func(l *zap.Logger) *zap.Logger { return WithScorer(l, "llm") },
			expect: map[string]string{FieldScorer: "llm"},
		},
		{
			name:   "session without request id",
			build:  func(l *zap.Logger) *zap.Logger { return WithRequest(l, "0f8c", "") },
			expect: map[string]string{FieldSession: "0f8c"},
			absent: []string{FieldRequestID},
		},
		{
			name:   "raw zap fields",
			build:  func(l *zap.Logger) *zap.Logger { return WithFields(l, zap.String("batch_id", "b-1")) },
			expect: map[string]string{"batch_id": "b-1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, observed := observer.New(zapcore.InfoLevel)
			tt.build(zap.New(core)).Info("resume scored")

			entries := observed.All()
			if len(entries) != 1 {
				t.Fatalf("expected 1 entry, got %d", len(entries))
			}
			ctx := entries[0].ContextMap()
			for k, v := range tt.expect {
				if ctx[k] != v {
					t.Fatalf("field %s: expected %q, got %v", k, v, ctx[k])
				}
			}
			for _, k := range tt.absent {
				if _, ok := ctx[k]; ok {
					t.Fatalf("field %s must be omitted, got %v", k, ctx)
				}
			}
		})
	}
}

func TestHelpersAcceptNilLogger(t *testing.T) {
	for _, l := range []*zap.Logger{
		WithFields(nil),
		WithCommonFields(nil, "openai", "m"),
		WithScorer(nil, "keyword"),
		WithRequest(nil, "s", "r"),
	} {
		if l == nil {
			t.Fatal("expected a no-op logger for nil input")
		}
		l.Info("does not panic")
	}
}
