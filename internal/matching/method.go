package matching

import (
	"errors"
	"strings"
)

// ErrInvalidMethod is returned by ParseMethod for unknown names.
var ErrInvalidMethod = errors.New("invalid scoring method")

// InvalidMethodReason is the reason given to every result of a batch run
// with an unknown method.
const InvalidMethodReason = "Invalid scoring method selected."

// Method selects how one resume is scored.
type Method string

const (
	// MethodLLM uses the LLM judge alone.
	MethodLLM Method = "llm"
	// MethodCosine uses the semantic scorer alone.
	MethodCosine Method = "cosine"
	// MethodHybrid blends with the weighted-adjusted policy.
	MethodHybrid Method = "hybrid"
	// MethodWeighted blends with the weighted-average policy.
	MethodWeighted Method = "weighted"
)

// Methods lists the accepted method names.
func Methods() []Method {
	return []Method{MethodLLM, MethodCosine, MethodHybrid, MethodWeighted}
}

// ParseMethod resolves a method name; "gpt" is an alias of "llm".
func ParseMethod(name string) (Method, error) {
	switch m := Method(strings.ToLower(strings.TrimSpace(name))); m {
	case "gpt":
		return MethodLLM, nil
	case MethodLLM, MethodCosine, MethodHybrid, MethodWeighted:
		return m, nil
	default:
		return "", ErrInvalidMethod
	}
}
