package spotify

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

const (
	userAgent = "nowspinning/1.0"

	// maxErrorBody bounds how much of an error response body is kept
	// on a StatusError.
	maxErrorBody = 512
)

// doRequest executes an HTTP request and returns the response status
// and body.
//
// It handles:
// - Common headers
// - Reading and closing the response body
// - Converting non-2xx statuses into *StatusError
//
// Retry policy deliberately does not live here: callers layer their
// own bounded retry on top, using the status and Retry-After hint
// carried by the returned error.
func (c *Client) doRequest(req *http.Request, call CallKind) (int, []byte, error) {
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("http request failed: %w", err)
	}

	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return resp.StatusCode, nil, &StatusError{
			Call:       call,
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Body:       truncate(body, maxErrorBody),
		}
	}

	return resp.StatusCode, body, nil
}

// parseRetryAfter parses a Retry-After header value in seconds.
// Returns zero for absent or unparseable values; HTTP-date forms are
// not sent by this upstream.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(value)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// truncate limits a response body to n bytes for error reporting.
func truncate(body []byte, n int) string {
	if len(body) <= n {
		return string(body)
	}
	return string(body[:n])
}
