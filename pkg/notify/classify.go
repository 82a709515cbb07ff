package notify

import (
	"fmt"
	"net/http"

	"github.com/quietloop/orchestrator/pkg/orcherr"
)

// classifyHTTPErr maps a transport-level error (timeout vs. plain network
// failure) from an http.Client.Do call to an orcherr category.
func classifyHTTPErr(err error) error {
	var timeoutErr interface{ Timeout() bool }
	if ok := asTimeout(err, &timeoutErr); ok && timeoutErr.Timeout() {
		return orcherr.NewTimeoutError("sender request timed out", err)
	}
	return orcherr.NewNetworkError("sender request failed", err)
}

func asTimeout(err error, target *interface{ Timeout() bool }) bool {
	type timeouter interface{ Timeout() bool }
	for err != nil {
		if t, ok := err.(timeouter); ok {
			*target = t
			return true
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = unwrapper.Unwrap()
	}
	return false
}

// classifyStatusErr maps an HTTP response status code to an orcherr category.
func classifyStatusErr(status int) error {
	switch {
	case status == http.StatusTooManyRequests:
		return orcherr.NewRateLimitError("sender received HTTP 429", 0)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return orcherr.NewAuthenticationError(fmt.Sprintf("sender received HTTP %d", status))
	case status >= 500:
		return orcherr.NewServerError(fmt.Sprintf("sender received HTTP %d", status), status)
	default:
		return orcherr.NewValidationError(fmt.Sprintf("sender received HTTP %d", status))
	}
}
