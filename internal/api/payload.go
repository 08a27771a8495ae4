package api

import (
	"time"

	"github.com/pjw57/nowspinning/internal/engine"
	"github.com/pjw57/nowspinning/internal/history"
)

// nowPlayingBody is the /now-playing response. When nothing is playing
// the body carries only the flag, so the idle payload stays a stable,
// cheap-to-cache constant.
type nowPlayingBody struct {
	IsPlaying  bool       `json:"is_playing"`
	ProgressMs *int       `json:"progress_ms,omitempty"`
	Item       *trackBody `json:"item,omitempty"`
}

type trackBody struct {
	Name         string           `json:"name"`
	Artists      []string         `json:"artists"`
	DurationMs   int              `json:"duration_ms"`
	Album        albumBody        `json:"album"`
	ExternalURLs externalURLsBody `json:"external_urls"`
}

type albumBody struct {
	Name   string      `json:"name"`
	Images []imageBody `json:"images"`
}

type imageBody struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type externalURLsBody struct {
	Spotify string `json:"spotify"`
}

type errorBody struct {
	Error string `json:"error"`
}

// degradedBody is the /now-playing failure response: a generic summary
// plus an explicit not-playing flag so consumers reading only the flag
// fail safe.
type degradedBody struct {
	Error     string `json:"error"`
	IsPlaying bool   `json:"is_playing"`
}

type recentBody struct {
	Items []playBody `json:"items"`
}

type playBody struct {
	Track       string     `json:"track"`
	Artists     []string   `json:"artists"`
	Album       string     `json:"album,omitempty"`
	DurationMs  int        `json:"duration_ms,omitempty"`
	ExternalURL string     `json:"external_url,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	EndedAt     *time.Time `json:"ended_at,omitempty"`
}

// newNowPlayingBody shapes a snapshot into the response payload.
func newNowPlayingBody(snapshot engine.PlaybackSnapshot) nowPlayingBody {
	if !snapshot.IsPlaying || snapshot.Track == nil {
		return nowPlayingBody{IsPlaying: false}
	}

	track := snapshot.Track
	images := make([]imageBody, 0, len(track.AlbumImages))
	for _, img := range track.AlbumImages {
		images = append(images, imageBody{URL: img.URL, Width: img.Width, Height: img.Height})
	}

	progress := snapshot.ProgressMs
	return nowPlayingBody{
		IsPlaying:  true,
		ProgressMs: &progress,
		Item: &trackBody{
			Name:         track.Name,
			Artists:      track.ArtistNames,
			DurationMs:   track.DurationMs,
			Album:        albumBody{Name: track.AlbumName, Images: images},
			ExternalURLs: externalURLsBody{Spotify: track.ExternalURL},
		},
	}
}

func newPlayBody(play history.Play) playBody {
	body := playBody{
		Track:       play.TrackName,
		Artists:     play.Artists,
		Album:       play.Album,
		DurationMs:  play.DurationMs,
		ExternalURL: play.ExternalURL,
		StartedAt:   play.StartedAt,
	}
	if !play.EndedAt.IsZero() {
		ended := play.EndedAt
		body.EndedAt = &ended
	}
	return body
}
