package press

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// SearchErrorKind describes coarse-grained upstream search failure classification.
type SearchErrorKind string

const (
	// SearchErrorKindInvalidRequest indicates the provider rejected the query shape.
	SearchErrorKindInvalidRequest SearchErrorKind = "invalid_request"
	// SearchErrorKindInvalidCredentials indicates a rejected API key.
	SearchErrorKindInvalidCredentials SearchErrorKind = "invalid_credentials"
	// SearchErrorKindForbidden indicates the credential lacks access to the endpoint.
	SearchErrorKindForbidden SearchErrorKind = "forbidden"
	// SearchErrorKindRateLimited indicates provider-side rate limiting.
	SearchErrorKindRateLimited SearchErrorKind = "rate_limited"
	// SearchErrorKindServerError indicates a provider-side 5xx failure.
	SearchErrorKindServerError SearchErrorKind = "server_error"
	// SearchErrorKindUnreachable indicates a transport failure or timeout
	// before any provider response arrived.
	SearchErrorKindUnreachable SearchErrorKind = "unreachable"
)

// HTTPStatus returns the passthrough response code callers surface for this kind.
func (k SearchErrorKind) HTTPStatus() int {
	switch k {
	case SearchErrorKindInvalidRequest:
		return http.StatusBadRequest
	case SearchErrorKindInvalidCredentials:
		return http.StatusUnauthorized
	case SearchErrorKindForbidden:
		return http.StatusForbidden
	case SearchErrorKindRateLimited:
		return http.StatusTooManyRequests
	case SearchErrorKindServerError:
		return http.StatusBadGateway
	case SearchErrorKindUnreachable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

// SearchError carries structured metadata for one upstream search failure.
type SearchError struct {
	// Kind classifies the failure.
	Kind SearchErrorKind
	// Query is the search query that failed.
	Query string
	// StatusCode carries the provider HTTP status when a response arrived.
	StatusCode int
	// RetryAfter carries the suggested retry delay for rate-limited failures
	// when known.
	RetryAfter time.Duration
	// Cause is the wrapped transport or decode error.
	Cause error
}

// Error returns one operator-readable failure summary.
func (e *SearchError) Error() string {
	if e == nil {
		return "<nil>"
	}

	fields := make([]string, 0, 4)
	if kind := strings.TrimSpace(string(e.Kind)); kind != "" {
		fields = append(fields, "kind="+kind)
	}
	if query := strings.TrimSpace(e.Query); query != "" {
		fields = append(fields, "query="+query)
	}
	if e.StatusCode != 0 {
		fields = append(fields, fmt.Sprintf("status=%d", e.StatusCode))
	}
	if e.RetryAfter > 0 {
		fields = append(fields, "retry_after="+e.RetryAfter.String())
	}

	if len(fields) == 0 {
		if e.Cause == nil {
			return "search error"
		}
		return fmt.Sprintf("search error: %v", e.Cause)
	}

	if e.Cause == nil {
		return "search error: " + strings.Join(fields, " ")
	}
	return "search error: " + strings.Join(fields, " ") + ": " + e.Cause.Error()
}

// Unwrap returns the wrapped root cause.
func (e *SearchError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.Cause
}

// Unavailable reports whether the failure means the provider could not be
// reached at all, as opposed to rejecting the request.
func (e *SearchError) Unavailable() bool {
	return e != nil && e.Kind == SearchErrorKindUnreachable
}

// AsSearchError extracts one SearchError from wrapped error chains.
func AsSearchError(err error) (*SearchError, bool) {
	if err == nil {
		return nil, false
	}

	var searchErr *SearchError
	if errors.As(err, &searchErr) {
		return searchErr, true
	}

	return nil, false
}

// AsSearchRateLimit extracts retry delay metadata from rate-limited search errors.
//
// It returns `(0, false)` if err is not classified as rate-limited.
// It returns `(0, true)` when rate-limited but no retry-after hint is known.
func AsSearchRateLimit(err error) (time.Duration, bool) {
	searchErr, ok := AsSearchError(err)
	if !ok || searchErr == nil || searchErr.Kind != SearchErrorKindRateLimited {
		return 0, false
	}

	return searchErr.RetryAfter, true
}
