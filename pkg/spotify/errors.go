package spotify

import (
	"fmt"
	"time"
)

// CallKind identifies which of the two outbound calls produced an error.
// The same status code means different things on each endpoint, so the
// call kind travels with the error.
type CallKind string

const (
	// CallTokenRefresh is the accounts-service token exchange.
	CallTokenRefresh CallKind = "token_refresh"

	// CallCurrentlyPlaying is the Web API playback read.
	CallCurrentlyPlaying CallKind = "currently_playing"
)

// StatusError represents a non-2xx response from the Spotify API.
//
// The StatusError type carries the raw status code and, when the
// upstream supplied one, the Retry-After hint. It implements error and
// provides additional methods for retry logic. Interpretation of the
// status code (auth vs permission vs transient) is left to the caller.
type StatusError struct {
	Call       CallKind      // Which endpoint failed
	StatusCode int           // Raw HTTP status code
	RetryAfter time.Duration // Retry-After header if present, zero otherwise
	Body       string        // Truncated response body, for diagnostics
}

// Error returns the error message.
func (e *StatusError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("spotify: %s failed with status %d (retry after %s)", e.Call, e.StatusCode, e.RetryAfter)
	}
	return fmt.Sprintf("spotify: %s failed with status %d", e.Call, e.StatusCode)
}

// Is checks if the target error is a Spotify status error.
//
// This allows errors.Is() to work with *StatusError types.
func (e *StatusError) Is(target error) bool {
	t, ok := target.(*StatusError)
	if !ok {
		return false
	}
	return e.Call == t.Call && e.StatusCode == t.StatusCode
}

// Temporary returns true if the error is temporary and the request
// should be retried.
//
// Rate limiting (429) and server errors (>= 500) are considered
// temporary. Network errors and timeouts should also be considered
// temporary but are not represented by this type.
func (e *StatusError) Temporary() bool {
	switch {
	case e.StatusCode == 429:
		return true
	case e.StatusCode >= 500:
		return true
	default:
		return false
	}
}
