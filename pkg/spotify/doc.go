// Package spotify provides a client library for the Spotify Web API.
//
// # Overview
//
// This package implements the two calls needed to follow a single
// account's playback: exchanging a stored refresh token for a
// short-lived access token, and reading the currently-playing state.
// It provides a clean, type-safe API with context support and
// structured errors, leaving retry and caching policy to the caller.
//
// # Installation
//
//	go get github.com/pjw57/nowspinning/pkg/spotify
//
// # Quick Start
//
// First, create a client with your application credentials and the
// refresh token from the one-time authorization flow:
//
//	import "github.com/pjw57/nowspinning/pkg/spotify"
//
//	client, err := spotify.NewClient(spotify.Config{
//	    ClientID:     "your-client-id",
//	    ClientSecret: "your-client-secret",
//	    RefreshToken: "your-refresh-token",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Authentication
//
// Spotify access tokens are short-lived. The expected pattern is to
// refresh before reading:
//
//	token, err := client.Auth().RefreshAccessToken(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	playing, err := client.Player().CurrentlyPlaying(ctx, token.AccessToken)
//
// The refresh token itself never expires in normal operation; if the
// accounts service rejects it (400), the one-time authorization flow
// must be re-run by the operator.
//
// # Nothing Playing
//
// The currently-playing endpoint answers 204 with no body when the
// player is idle. The package treats this as success:
//
//	playing, err := client.Player().CurrentlyPlaying(ctx, token.AccessToken)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if playing == nil {
//	    fmt.Println("nothing playing")
//	}
//
// # Error Handling
//
// Non-2xx responses are returned as *StatusError carrying the call
// kind, raw status code and any Retry-After hint:
//
//	playing, err := client.Player().CurrentlyPlaying(ctx, token.AccessToken)
//	if err != nil {
//	    var statusErr *spotify.StatusError
//	    if errors.As(err, &statusErr) {
//	        if statusErr.Temporary() {
//	            // Retry the request after statusErr.RetryAfter
//	        }
//	    }
//	}
//
// The package performs no retries itself, so callers can apply a
// single retry policy across both calls.
//
// # Context Support
//
// All API methods accept a context.Context for cancellation and
// timeouts:
//
//	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
//	defer cancel()
//
//	token, err := client.Auth().RefreshAccessToken(ctx)
//
// # Configuration
//
// The client can be configured with custom HTTP clients, endpoint URLs
// (for testing), and optional loggers:
//
//	client, err := spotify.NewClient(spotify.Config{
//	    ClientID:     "your-client-id",
//	    ClientSecret: "your-client-secret",
//	    RefreshToken: "your-refresh-token",
//	    HTTPClient:   &http.Client{Timeout: 30 * time.Second},
//	    Logger:       myLogger, // Implements spotify.Logger interface
//	})
//
// # API Coverage
//
// Currently implemented:
//   - Token refresh (POST /api/token with grant_type=refresh_token)
//   - Currently playing (GET /v1/me/player/currently-playing)
//
// # Spotify Web API Documentation
//
// For more information about the Web API:
// https://developer.spotify.com/documentation/web-api
package spotify
