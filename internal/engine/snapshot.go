package engine

import (
	"github.com/pjw57/nowspinning/pkg/spotify"
)

// ContentType identifies what kind of media the player reported.
type ContentType int

const (
	ContentTypeUnknown ContentType = iota // Nothing playing, or an unrecognized type
	ContentTypeTrack                      // A music track
	ContentTypeEpisode                    // A podcast episode
	ContentTypeAd                         // An advertisement
)

// String returns a human-readable representation of the ContentType
func (c ContentType) String() string {
	switch c {
	case ContentTypeTrack:
		return "track"
	case ContentTypeEpisode:
		return "episode"
	case ContentTypeAd:
		return "ad"
	default:
		return "unknown"
	}
}

// parseContentType maps the wire value to a ContentType.
func parseContentType(s string) ContentType {
	switch s {
	case "track":
		return ContentTypeTrack
	case "episode":
		return ContentTypeEpisode
	case "ad":
		return ContentTypeAd
	default:
		return ContentTypeUnknown
	}
}

// AlbumImage is one rendition of the album artwork.
type AlbumImage struct {
	URL    string
	Width  int
	Height int
}

// TrackInfo describes the track attached to a playing snapshot.
type TrackInfo struct {
	Name        string       // Track name/title
	ArtistNames []string     // Contributing artists, in upstream order
	DurationMs  int          // Total track duration in milliseconds
	AlbumName   string       // Album name
	AlbumImages []AlbumImage // Artwork renditions, in upstream order
	ExternalURL string       // Public link to the track
}

// PlaybackSnapshot is an immutable point-in-time read of upstream
// playback state. Callers must never mutate a snapshot after it has
// been handed out; the cache returns the same value to every reader.
//
// Invariant: when IsPlaying is false, Track is nil and ProgressMs is
// zero. NormalizeSnapshot is the only constructor and enforces this.
type PlaybackSnapshot struct {
	IsPlaying   bool
	ProgressMs  int
	Track       *TrackInfo
	ContentType ContentType
}

// NormalizeSnapshot converts a raw upstream playback response into a
// PlaybackSnapshot.
//
// A nil raw response (the upstream answered 204) means nothing is
// playing. Playback of anything other than a music track (podcast
// episodes, ads) is normalized to "not playing": only tracks are
// interesting to the consumers of this engine, and the ContentType
// field records what was actually on so the decision stays visible.
func NormalizeSnapshot(raw *spotify.CurrentlyPlaying) PlaybackSnapshot {
	if raw == nil {
		return PlaybackSnapshot{ContentType: ContentTypeUnknown}
	}

	contentType := parseContentType(raw.CurrentlyPlayingType)

	if !raw.IsPlaying || contentType != ContentTypeTrack || raw.Item == nil {
		return PlaybackSnapshot{ContentType: contentType}
	}

	item := raw.Item
	track := &TrackInfo{
		Name:        item.Name,
		ArtistNames: make([]string, 0, len(item.Artists)),
		DurationMs:  item.DurationMs,
		AlbumName:   item.Album.Name,
		AlbumImages: make([]AlbumImage, 0, len(item.Album.Images)),
		ExternalURL: item.ExternalURLs.Spotify,
	}
	for _, artist := range item.Artists {
		track.ArtistNames = append(track.ArtistNames, artist.Name)
	}
	for _, img := range item.Album.Images {
		track.AlbumImages = append(track.AlbumImages, AlbumImage{
			URL:    img.URL,
			Width:  img.Width,
			Height: img.Height,
		})
	}

	progress := raw.ProgressMs
	if progress < 0 {
		progress = 0
	}

	return PlaybackSnapshot{
		IsPlaying:   true,
		ProgressMs:  progress,
		Track:       track,
		ContentType: ContentTypeTrack,
	}
}
