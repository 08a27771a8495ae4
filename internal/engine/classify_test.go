package engine

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"testing"
	"time"

	"github.com/pjw57/nowspinning/pkg/spotify"
)

// timeoutError implements net.Error for transport failure tests.
type timeoutError struct{}

func (timeoutError) Error() string   { return "dial tcp: i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

// TestClassify_StatusCodes tests the per-call status code mapping.
func TestClassify_StatusCodes(t *testing.T) {
	tests := []struct {
		name   string
		call   spotify.CallKind
		status int
		want   Classification
	}{
		{name: "refresh 400 means dead refresh token", call: spotify.CallTokenRefresh, status: 400, want: AuthError},
		{name: "refresh 401 means credential pair mismatch", call: spotify.CallTokenRefresh, status: 401, want: PermissionError},
		{name: "playback 401 means expired access token", call: spotify.CallCurrentlyPlaying, status: 401, want: AuthError},
		{name: "playback 403 means missing scope", call: spotify.CallCurrentlyPlaying, status: 403, want: PermissionError},
		{name: "refresh 429 is rate limited", call: spotify.CallTokenRefresh, status: 429, want: RateLimited},
		{name: "playback 429 is rate limited", call: spotify.CallCurrentlyPlaying, status: 429, want: RateLimited},
		{name: "refresh 500 is upstream unavailable", call: spotify.CallTokenRefresh, status: 500, want: UpstreamUnavailable},
		{name: "playback 502 is upstream unavailable", call: spotify.CallCurrentlyPlaying, status: 502, want: UpstreamUnavailable},
		{name: "playback 503 is upstream unavailable", call: spotify.CallCurrentlyPlaying, status: 503, want: UpstreamUnavailable},
		{name: "playback 400 is unexpected", call: spotify.CallCurrentlyPlaying, status: 400, want: Unexpected},
		{name: "refresh 403 is unexpected", call: spotify.CallTokenRefresh, status: 403, want: Unexpected},
		{name: "playback 404 is unexpected", call: spotify.CallCurrentlyPlaying, status: 404, want: Unexpected},
		{name: "playback 418 is unexpected", call: spotify.CallCurrentlyPlaying, status: 418, want: Unexpected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := &spotify.StatusError{Call: tt.call, StatusCode: tt.status}
			if got := Classify(err); got != tt.want {
				t.Errorf("Classify(%s %d) = %s, want %s", tt.call, tt.status, got, tt.want)
			}
		})
	}
}

// TestClassify_WrappedStatusError tests that classification sees through
// fmt.Errorf wrapping.
func TestClassify_WrappedStatusError(t *testing.T) {
	inner := &spotify.StatusError{Call: spotify.CallCurrentlyPlaying, StatusCode: 429}
	err := fmt.Errorf("fetch failed: %w", inner)

	if got := Classify(err); got != RateLimited {
		t.Errorf("Classify(wrapped 429) = %s, want %s", got, RateLimited)
	}
}

// TestClassify_TransportErrors tests the network error bucket.
func TestClassify_TransportErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Classification
	}{
		{name: "net.Error timeout", err: timeoutError{}, want: NetworkError},
		{name: "wrapped net.Error", err: fmt.Errorf("request failed: %w", timeoutError{}), want: NetworkError},
		{name: "url.Error connection refused", err: &url.Error{Op: "Get", URL: "https://api.example", Err: errors.New("connection refused")}, want: NetworkError},
		{name: "net.OpError", err: &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("no route to host")}, want: NetworkError},
		{name: "context deadline exceeded", err: context.DeadlineExceeded, want: NetworkError},
		{name: "wrapped deadline", err: fmt.Errorf("call timed out: %w", context.DeadlineExceeded), want: NetworkError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify(%v) = %s, want %s", tt.err, got, tt.want)
			}
		})
	}
}

// TestClassify_Total tests that every input maps to a classification
// without panicking, including nil and arbitrary errors.
func TestClassify_Total(t *testing.T) {
	inputs := []error{
		nil,
		errors.New("something odd"),
		fmt.Errorf("decode: %w", errors.New("unexpected end of JSON input")),
		context.Canceled,
	}

	for _, err := range inputs {
		if got := Classify(err); got != Unexpected {
			t.Errorf("Classify(%v) = %s, want %s", err, got, Unexpected)
		}
	}
}

// TestClassification_Retryable tests the retryable partition over every
// classification value.
func TestClassification_Retryable(t *testing.T) {
	retryable := map[Classification]bool{
		Unexpected:          false,
		AuthError:           false,
		PermissionError:     false,
		RateLimited:         true,
		UpstreamUnavailable: true,
		NetworkError:        true,
	}

	for class, want := range retryable {
		if got := class.Retryable(); got != want {
			t.Errorf("%s.Retryable() = %v, want %v", class, got, want)
		}
	}
}

// TestRetryAfterHint tests extraction of the rate limit hint.
func TestRetryAfterHint(t *testing.T) {
	t.Run("hint carried on rate limited error", func(t *testing.T) {
		err := &spotify.StatusError{Call: spotify.CallCurrentlyPlaying, StatusCode: 429, RetryAfter: 7 * time.Second}
		if got := RetryAfterHint(err, RateLimited); got != 7*time.Second {
			t.Errorf("RetryAfterHint = %s, want 7s", got)
		}
	})

	t.Run("absent hint defaults to one second", func(t *testing.T) {
		err := &spotify.StatusError{Call: spotify.CallCurrentlyPlaying, StatusCode: 429}
		if got := RetryAfterHint(err, RateLimited); got != DefaultRetryAfter {
			t.Errorf("RetryAfterHint = %s, want %s", got, DefaultRetryAfter)
		}
	})

	t.Run("zero for other classifications", func(t *testing.T) {
		err := &spotify.StatusError{Call: spotify.CallCurrentlyPlaying, StatusCode: 503, RetryAfter: 9 * time.Second}
		if got := RetryAfterHint(err, UpstreamUnavailable); got != 0 {
			t.Errorf("RetryAfterHint = %s, want 0", got)
		}
	})
}

// TestFailureRecord_Error tests the failure summary and unwrapping.
func TestFailureRecord_Error(t *testing.T) {
	inner := &spotify.StatusError{Call: spotify.CallTokenRefresh, StatusCode: 400}
	rec := &FailureRecord{Classification: AuthError, Attempt: 0, Err: inner}

	msg := rec.Error()
	if msg == "" {
		t.Fatal("expected non-empty error message")
	}

	if !errors.Is(rec, inner) {
		t.Error("expected errors.Is to reach the wrapped status error")
	}

	var statusErr *spotify.StatusError
	if !errors.As(rec, &statusErr) {
		t.Error("expected errors.As to recover the wrapped status error")
	}
}

// TestClassification_String tests the label used in logs and metrics.
func TestClassification_String(t *testing.T) {
	tests := []struct {
		class Classification
		want  string
	}{
		{AuthError, "auth_error"},
		{PermissionError, "permission_error"},
		{RateLimited, "rate_limited"},
		{UpstreamUnavailable, "upstream_unavailable"},
		{NetworkError, "network_error"},
		{Unexpected, "unexpected"},
		{Classification(99), "unexpected"},
	}

	for _, tt := range tests {
		if got := tt.class.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
