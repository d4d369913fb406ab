package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncateForLog(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		input  string
		limit  int
		expect string
	}{
		"non-positive limit":   {"a long prompt", 0, ""},
		"fits":                 {"prompt", 10, "prompt"},
		"cut with ellipsis":    {"resume text body", 6, "resume..."},
		"trimmed first":        {"\n  {\"score\": 80}  \n", 20, `{"score": 80}`},
		"counts runes":         {"résumé matcher", 6, "résumé..."},
		"exact length is kept": {"twelve chars", 12, "twelve chars"},
		"folds lines":          {"skills:\n\tgo\n  sql", 50, "skills: go sql"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expect, TruncateForLog(tt.input, tt.limit))
		})
	}
}
