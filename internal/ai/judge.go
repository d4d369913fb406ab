package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	_ "embed"

	"github.com/mitchellh/mapstructure"
	"github.com/spigell/resume-matcher/internal/utils"
	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"
)

//go:embed prompts/system.md
var systemPrompt string

//go:embed prompts/user.md
var userPromptTemplate string

const defaultMaxLogLength = 200

// responseSchema lists the keys a judge answer must carry. Scores may come
// back as numbers or numeric strings and must lie in [0, 100].
const responseSchema = `{
  "type": "object",
  "required": ["score", "reason"],
  "properties": {
    "score": {"type": ["number", "string"], "minimum": 0, "maximum": 100},
    "skills_match": {"type": ["number", "string", "null"]},
    "experience_match": {"type": ["number", "string", "null"]},
    "education_match": {"type": ["number", "string", "null"]},
    "keyword_match": {"type": ["number", "string", "null"]},
    "reason": {"type": "string"}
  }
}`

var schemaLoader = gojsonschema.NewStringLoader(responseSchema)

// Judge asks a hosted model to rate a resume against a job description.
type Judge struct {
	generator Generator
	logger    *zap.Logger
	maxLogLen int
}

func NewJudge(generator Generator, logger *zap.Logger, maxLogLength int) *Judge {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Judge{
		generator: generator,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

// Evaluate performs exactly one model call. Transport errors are returned as
// produced by the generator; answer problems wrap ErrMalformedJSON or
// ErrInvalidFormat.
func (j *Judge) Evaluate(ctx context.Context, resume, jd string) (*Assessment, error) {
	if j == nil || j.generator == nil {
		return nil, errors.New("llm judge is not configured")
	}

	user := BuildUserPrompt(resume, jd)

	j.logger.Debug("judge request",
		zap.Int("prompt_length", utf8.RuneCountInString(user)),
		zap.String("prompt_preview", utils.TruncateForLog(user, j.maxLogLen)),
	)

	raw, err := j.generator.GenerateContent(ctx, systemPrompt, user)
	if err != nil {
		return nil, err
	}

	j.logger.Debug("judge response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, j.maxLogLen)),
	)

	assessment, err := ParseResponse(raw)
	if err != nil {
		return nil, err
	}

	assessment.Raw = raw
	return assessment, nil
}

// SystemPrompt returns the instructions sent with every judge request.
func SystemPrompt() string { return systemPrompt }

// BuildUserPrompt places the job description and resume into the user prompt.
func BuildUserPrompt(resume, jd string) string {
	prompt := strings.ReplaceAll(userPromptTemplate, "{{JOB_DESCRIPTION}}", jd)
	return strings.ReplaceAll(prompt, "{{RESUME}}", resume)
}

// ParseResponse decodes a judge answer, tolerating markdown code fences and
// numeric strings.
func ParseResponse(raw string) (*Assessment, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}

	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewGoLoader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			details = append(details, e.String())
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidFormat, strings.Join(details, "; "))
	}

	var assessment Assessment
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &assessment,
	})
	if err != nil {
		return nil, fmt.Errorf("build decoder: %w", err)
	}
	if err := decoder.Decode(data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	if math.IsNaN(assessment.Score) || math.IsInf(assessment.Score, 0) {
		return nil, fmt.Errorf("%w: score is not a finite number", ErrInvalidFormat)
	}
	// the schema bounds only apply to numbers, not numeric strings
	if assessment.Score < 0 || assessment.Score > 100 {
		return nil, fmt.Errorf("%w: score %g is outside [0, 100]", ErrInvalidFormat, assessment.Score)
	}

	assessment.Reason = strings.TrimSpace(assessment.Reason)
	return &assessment, nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}
