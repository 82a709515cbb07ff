package notify

import (
	"github.com/google/uuid"

	"github.com/quietloop/orchestrator/pkg/orcherr"
)

// mustParseUUID parses a channel ID read back from the database. Channel IDs
// always originate from a uuid primary key, so a parse failure indicates
// database corruption rather than a recoverable condition.
func mustParseUUID(s string) uuid.UUID {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil
	}
	return id
}

// classifyResultErr turns a failed Result back into an *orcherr.Error, using
// the category the sender already determined, so retry.WithRetry can
// inspect its Retryable() verdict.
func classifyResultErr(r Result) error {
	switch orcherr.Category(r.Category) {
	case orcherr.CategoryAuthentication:
		return orcherr.NewAuthenticationError(r.Error)
	case orcherr.CategoryRateLimit:
		return orcherr.NewRateLimitError(r.Error, 0)
	case orcherr.CategoryServer:
		return orcherr.NewServerError(r.Error, r.StatusCode)
	case orcherr.CategoryConfiguration:
		return orcherr.NewConfigurationError(r.Error)
	case orcherr.CategoryValidation:
		return orcherr.NewValidationError(r.Error)
	case orcherr.CategoryTimeout:
		return orcherr.NewTimeoutError(r.Error, nil)
	default:
		return orcherr.NewNetworkError(r.Error, nil)
	}
}
