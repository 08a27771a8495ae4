package engine

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/pjw57/nowspinning/pkg/spotify"
)

// Classification buckets an upstream failure for retry decisions.
type Classification int

const (
	Unexpected          Classification = iota // Anything not covered below; surfaced as-is, never retried
	AuthError                                 // Credential is dead (refresh rejected, or access token expired mid-flight)
	PermissionError                           // Credential pair mismatch or missing scope
	RateLimited                               // Upstream throttled the call
	UpstreamUnavailable                       // Upstream answered with a server error
	NetworkError                              // The call never completed at the transport level
)

// String returns a human-readable representation of the Classification
func (c Classification) String() string {
	switch c {
	case AuthError:
		return "auth_error"
	case PermissionError:
		return "permission_error"
	case RateLimited:
		return "rate_limited"
	case UpstreamUnavailable:
		return "upstream_unavailable"
	case NetworkError:
		return "network_error"
	default:
		return "unexpected"
	}
}

// Retryable reports whether failures of this classification may be
// retried. Auth and permission failures are terminal: retrying with
// the same credential cannot succeed.
func (c Classification) Retryable() bool {
	switch c {
	case RateLimited, UpstreamUnavailable, NetworkError:
		return true
	default:
		return false
	}
}

// DefaultRetryAfter is assumed when a rate-limited response carries no
// Retry-After hint.
const DefaultRetryAfter = time.Second

// Classify maps a raw upstream failure to exactly one Classification.
//
// The same status code means different things per call: a 400 from the
// token endpoint means the stored refresh token is dead, while a 401
// from the playback read means only the short-lived access token
// expired. The function is total: nil and unrecognized errors map to
// Unexpected rather than panicking.
func Classify(err error) Classification {
	if err == nil {
		return Unexpected
	}

	var statusErr *spotify.StatusError
	if errors.As(err, &statusErr) {
		return classifyStatus(statusErr)
	}

	if isNetworkError(err) {
		return NetworkError
	}

	return Unexpected
}

// classifyStatus interprets a non-2xx upstream response.
func classifyStatus(statusErr *spotify.StatusError) Classification {
	switch {
	case statusErr.StatusCode == 429:
		return RateLimited
	case statusErr.StatusCode >= 500:
		return UpstreamUnavailable
	}

	switch statusErr.Call {
	case spotify.CallTokenRefresh:
		switch statusErr.StatusCode {
		case 400:
			return AuthError
		case 401:
			return PermissionError
		}
	case spotify.CallCurrentlyPlaying:
		switch statusErr.StatusCode {
		case 401:
			return AuthError
		case 403:
			return PermissionError
		}
	}

	return Unexpected
}

// isNetworkError reports whether err is a transport-level failure,
// including per-call timeouts.
func isNetworkError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// RetryAfterHint extracts the upstream retry-after hint from a
// classified failure. Only rate-limited failures carry one; an absent
// hint defaults to DefaultRetryAfter.
func RetryAfterHint(err error, classification Classification) time.Duration {
	if classification != RateLimited {
		return 0
	}
	var statusErr *spotify.StatusError
	if errors.As(err, &statusErr) && statusErr.RetryAfter > 0 {
		return statusErr.RetryAfter
	}
	return DefaultRetryAfter
}

// FailureRecord is the terminal outcome of a failed fetch cycle. It
// carries everything the scheduler and the HTTP boundary need: the
// classification, the rate limit hint if any, and the zero-based index
// of the final try.
type FailureRecord struct {
	Classification Classification
	RetryAfter     time.Duration
	Attempt        int
	Err            error
}

// Error returns the failure summary.
func (f *FailureRecord) Error() string {
	return fmt.Sprintf("upstream fetch failed (%s, attempt %d): %v", f.Classification, f.Attempt, f.Err)
}

// Unwrap exposes the underlying error for errors.Is and errors.As.
func (f *FailureRecord) Unwrap() error {
	return f.Err
}
