package scoring

import (
	"context"
	"errors"
	"fmt"

	"github.com/spigell/resume-matcher/internal/ai"
)

// Classify maps an error from an external collaborator onto a failure kind
// and the reason shown to users.
func Classify(err error) (FailureKind, string) {
	var (
		httpErr *ai.HTTPError
		reqErr  *ai.RequestError
	)

	switch {
	case errors.As(err, &httpErr):
		return FailureHTTP, fmt.Sprintf("HTTP Error: %s", httpErr.Error())
	case errors.As(err, &reqErr), errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return FailureRequest, fmt.Sprintf("Request Error: %v", err)
	case errors.Is(err, ai.ErrMalformedJSON):
		return FailureJSON, "Failed to parse JSON response from GPT."
	case errors.Is(err, ai.ErrInvalidFormat):
		return FailureFormat, "Invalid format returned by GPT."
	default:
		return FailureUnexpected, fmt.Sprintf("Unexpected error: %v", err)
	}
}

func failFrom(kind Kind, err error) Outcome {
	failure, reason := Classify(err)
	return Fail(kind, failure, reason)
}
