package spotify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/goccy/go-json"
)

// AuthService provides token operations against the Spotify accounts
// service.
type AuthService struct {
	client *Client
}

// RefreshAccessToken exchanges the configured refresh token for a
// short-lived access token.
//
// The refresh token is obtained once through the authorization-code
// flow and stored in configuration; this call is the only part of the
// flow the running service performs. Access tokens typically expire
// after an hour, so callers are expected to refresh liberally.
//
// Example:
//
//	token, err := client.Auth().RefreshAccessToken(ctx)
//	if err != nil {
//	    log.Printf("failed to refresh access token: %v", err)
//	}
func (s *AuthService) RefreshAccessToken(ctx context.Context) (*AccessToken, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", s.client.refreshToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.client.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(s.client.clientID, s.client.clientSecret)

	s.client.logDebugf("spotify: refreshing access token")

	_, body, err := s.client.doRequest(req, CallTokenRefresh)
	if err != nil {
		return nil, err
	}

	var token AccessToken
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("spotify: token response missing access_token")
	}

	s.client.logDebugf("spotify: access token refreshed, expires in %ds", token.ExpiresIn)
	return &token, nil
}
