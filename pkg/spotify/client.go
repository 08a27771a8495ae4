// Package spotify provides a client for the Spotify Web API.
//
// This package implements the small slice of the Web API needed to
// track playback: refreshing an access token from a stored refresh
// token, and reading the player's currently-playing state. It is
// designed to be used as a standalone SDK.
//
// Example usage:
//
//	import "github.com/pjw57/nowspinning/pkg/spotify"
//
//	client, err := spotify.NewClient(spotify.Config{
//	    ClientID:     "your-client-id",
//	    ClientSecret: "your-client-secret",
//	    RefreshToken: "your-refresh-token",
//	})
//
//	token, err := client.Auth().RefreshAccessToken(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	playing, err := client.Player().CurrentlyPlaying(ctx, token.AccessToken)
package spotify

import (
	"fmt"
	"net/http"
	"time"
)

// Config holds client configuration.
type Config struct {
	ClientID     string       // Required: Spotify application client ID
	ClientSecret string       // Required: Spotify application client secret
	RefreshToken string       // Required: long-lived refresh token from the one-time authorization flow
	HTTPClient   *http.Client // Optional: HTTP client (defaults to a client with a 10s timeout)
	TokenURL     string       // Optional: token endpoint (defaults to the Spotify accounts service, used for testing)
	PlayerURL    string       // Optional: currently-playing endpoint (defaults to the Spotify Web API, used for testing)
	Logger       Logger       // Optional: Logger interface for debug logging
}

// Logger is an optional interface for logging.
type Logger interface {
	// Debugf logs a debug message with format and arguments.
	Debugf(format string, args ...interface{})
}

// Client is the main entry point for Spotify Web API operations.
type Client struct {
	clientID     string
	clientSecret string
	refreshToken string
	httpClient   *http.Client
	tokenURL     string
	playerURL    string
	logger       Logger

	auth   *AuthService
	player *PlayerService
}

const (
	// DefaultTokenURL is the Spotify accounts service token endpoint.
	DefaultTokenURL = "https://accounts.spotify.com/api/token"

	// DefaultPlayerURL is the Web API currently-playing endpoint.
	DefaultPlayerURL = "https://api.spotify.com/v1/me/player/currently-playing"

	// DefaultTimeout bounds each outbound call independently of any
	// retry policy layered on top of this client.
	DefaultTimeout = 10 * time.Second
)

// NewClient creates a new Spotify Web API client.
//
// Returns an error if required configuration (ClientID, ClientSecret,
// RefreshToken) is missing.
func NewClient(cfg Config) (*Client, error) {
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("spotify: ClientID is required")
	}
	if cfg.ClientSecret == "" {
		return nil, fmt.Errorf("spotify: ClientSecret is required")
	}
	if cfg.RefreshToken == "" {
		return nil, fmt.Errorf("spotify: RefreshToken is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}

	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}

	playerURL := cfg.PlayerURL
	if playerURL == "" {
		playerURL = DefaultPlayerURL
	}

	c := &Client{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		refreshToken: cfg.RefreshToken,
		httpClient:   httpClient,
		tokenURL:     tokenURL,
		playerURL:    playerURL,
		logger:       cfg.Logger,
	}

	c.auth = &AuthService{client: c}
	c.player = &PlayerService{client: c}

	return c, nil
}

// Auth returns the token refresh service.
func (c *Client) Auth() *AuthService {
	return c.auth
}

// Player returns the playback read service.
func (c *Client) Player() *PlayerService {
	return c.player
}

// logDebugf logs a debug message if a logger is configured.
func (c *Client) logDebugf(format string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Debugf(format, args...)
	}
}
