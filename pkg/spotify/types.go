package spotify

// AccessToken represents a short-lived bearer token from the accounts
// service token endpoint.
type AccessToken struct {
	AccessToken string `json:"access_token"` // Bearer token for Web API requests
	TokenType   string `json:"token_type"`   // Always "Bearer"
	ExpiresIn   int    `json:"expires_in"`   // Lifetime in seconds
	Scope       string `json:"scope"`        // Space-separated granted scopes
}

// CurrentlyPlaying represents the player's currently-playing state as
// returned by the Web API. A nil *CurrentlyPlaying from the player
// service means the endpoint returned 204: nothing is playing.
type CurrentlyPlaying struct {
	IsPlaying            bool   `json:"is_playing"`
	ProgressMs           int    `json:"progress_ms"`
	CurrentlyPlayingType string `json:"currently_playing_type"` // "track", "episode", "ad" or "unknown"
	Item                 *Item  `json:"item"`                   // Absent for some content types
}

// Item is the track or episode the player is currently on.
type Item struct {
	Name         string       `json:"name"`
	DurationMs   int          `json:"duration_ms"`
	Artists      []Artist     `json:"artists"`
	Album        Album        `json:"album"`
	ExternalURLs ExternalURLs `json:"external_urls"`
}

// Artist identifies a single contributing artist.
type Artist struct {
	Name string `json:"name"`
}

// Album carries the album metadata attached to a track item.
type Album struct {
	Name   string  `json:"name"`
	Images []Image `json:"images"`
}

// Image is one rendition of the album artwork.
type Image struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// ExternalURLs holds public links for an item.
type ExternalURLs struct {
	Spotify string `json:"spotify"`
}
