package spotify

import (
	"context"
	"fmt"
	"net/http"

	"github.com/goccy/go-json"
)

// PlayerService provides playback read operations for the Web API.
type PlayerService struct {
	client *Client
}

// CurrentlyPlaying reads the player's currently-playing state using
// the supplied bearer token.
//
// A 204 response is a valid, successful result meaning nothing is
// playing; it is returned as (nil, nil), not as an error. Any status
// >= 400 is returned as a *StatusError carrying the raw status code.
//
// Example:
//
//	playing, err := client.Player().CurrentlyPlaying(ctx, token.AccessToken)
//	if err != nil {
//	    log.Printf("failed to read playback: %v", err)
//	} else if playing == nil {
//	    fmt.Println("nothing playing")
//	}
func (s *PlayerService) CurrentlyPlaying(ctx context.Context, accessToken string) (*CurrentlyPlaying, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.client.playerURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	s.client.logDebugf("spotify: fetching currently playing")

	status, body, err := s.client.doRequest(req, CallCurrentlyPlaying)
	if err != nil {
		return nil, err
	}

	if status == http.StatusNoContent {
		s.client.logDebugf("spotify: nothing playing (204)")
		return nil, nil
	}

	var playing CurrentlyPlaying
	if err := json.Unmarshal(body, &playing); err != nil {
		return nil, fmt.Errorf("failed to parse playback response: %w", err)
	}

	s.client.logDebugf("spotify: currently playing fetched (is_playing=%v, type=%s)", playing.IsPlaying, playing.CurrentlyPlayingType)
	return &playing, nil
}
