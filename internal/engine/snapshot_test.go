package engine

import (
	"testing"

	"github.com/pjw57/nowspinning/pkg/spotify"
)

// TestNormalizeSnapshot_NothingPlaying tests the 204 path: a nil raw
// response becomes the empty not-playing snapshot.
func TestNormalizeSnapshot_NothingPlaying(t *testing.T) {
	got := NormalizeSnapshot(nil)

	if got.IsPlaying {
		t.Error("expected not playing")
	}
	if got.Track != nil {
		t.Error("expected nil track")
	}
	if got.ProgressMs != 0 {
		t.Errorf("expected zero progress, got %d", got.ProgressMs)
	}
	if got.ContentType != ContentTypeUnknown {
		t.Errorf("expected unknown content type, got %s", got.ContentType)
	}
}

// TestNormalizeSnapshot_PlayingTrack tests the full mapping of a
// playing track.
func TestNormalizeSnapshot_PlayingTrack(t *testing.T) {
	raw := &spotify.CurrentlyPlaying{
		IsPlaying:            true,
		ProgressMs:           1000,
		CurrentlyPlayingType: "track",
		Item: &spotify.Item{
			Name:       "Song A",
			DurationMs: 200000,
			Artists:    []spotify.Artist{{Name: "Artist A"}, {Name: "Artist B"}},
			Album: spotify.Album{
				Name: "Album A",
				Images: []spotify.Image{
					{URL: "https://img.example/640.jpg", Width: 640, Height: 640},
					{URL: "https://img.example/300.jpg", Width: 300, Height: 300},
				},
			},
			ExternalURLs: spotify.ExternalURLs{Spotify: "https://open.spotify.com/track/abc"},
		},
	}

	got := NormalizeSnapshot(raw)

	if !got.IsPlaying {
		t.Fatal("expected playing")
	}
	if got.ProgressMs != 1000 {
		t.Errorf("progress = %d, want 1000", got.ProgressMs)
	}
	if got.ContentType != ContentTypeTrack {
		t.Errorf("content type = %s, want track", got.ContentType)
	}
	if got.Track == nil {
		t.Fatal("expected track info")
	}
	if got.Track.Name != "Song A" {
		t.Errorf("name = %q, want Song A", got.Track.Name)
	}
	if len(got.Track.ArtistNames) != 2 || got.Track.ArtistNames[0] != "Artist A" || got.Track.ArtistNames[1] != "Artist B" {
		t.Errorf("artists = %v, want upstream order preserved", got.Track.ArtistNames)
	}
	if got.Track.DurationMs != 200000 {
		t.Errorf("duration = %d, want 200000", got.Track.DurationMs)
	}
	if got.Track.AlbumName != "Album A" {
		t.Errorf("album = %q, want Album A", got.Track.AlbumName)
	}
	if len(got.Track.AlbumImages) != 2 {
		t.Fatalf("expected 2 album images, got %d", len(got.Track.AlbumImages))
	}
	if got.Track.AlbumImages[0].Width != 640 || got.Track.AlbumImages[0].URL != "https://img.example/640.jpg" {
		t.Errorf("first image = %+v", got.Track.AlbumImages[0])
	}
	if got.Track.ExternalURL != "https://open.spotify.com/track/abc" {
		t.Errorf("external url = %q", got.Track.ExternalURL)
	}
}

// TestNormalizeSnapshot_NonTrackContent tests that podcasts and ads
// normalize to not playing while keeping the content type visible.
func TestNormalizeSnapshot_NonTrackContent(t *testing.T) {
	tests := []struct {
		name     string
		rawType  string
		wantType ContentType
	}{
		{name: "podcast episode", rawType: "episode", wantType: ContentTypeEpisode},
		{name: "advertisement", rawType: "ad", wantType: ContentTypeAd},
		{name: "unrecognized type", rawType: "mystery", wantType: ContentTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := &spotify.CurrentlyPlaying{
				IsPlaying:            true,
				ProgressMs:           90000,
				CurrentlyPlayingType: tt.rawType,
			}

			got := NormalizeSnapshot(raw)

			if got.IsPlaying {
				t.Error("expected normalization to not playing")
			}
			if got.Track != nil {
				t.Error("expected nil track")
			}
			if got.ProgressMs != 0 {
				t.Errorf("expected zero progress, got %d", got.ProgressMs)
			}
			if got.ContentType != tt.wantType {
				t.Errorf("content type = %s, want %s", got.ContentType, tt.wantType)
			}
		})
	}
}

// TestNormalizeSnapshot_PausedTrack tests that a paused player with a
// track item still normalizes to not playing.
func TestNormalizeSnapshot_PausedTrack(t *testing.T) {
	raw := &spotify.CurrentlyPlaying{
		IsPlaying:            false,
		ProgressMs:           45000,
		CurrentlyPlayingType: "track",
		Item:                 &spotify.Item{Name: "Song B", DurationMs: 180000},
	}

	got := NormalizeSnapshot(raw)

	if got.IsPlaying {
		t.Error("expected not playing")
	}
	if got.Track != nil {
		t.Error("expected nil track when not playing")
	}
	if got.ProgressMs != 0 {
		t.Errorf("expected zero progress, got %d", got.ProgressMs)
	}
	if got.ContentType != ContentTypeTrack {
		t.Errorf("content type = %s, want track", got.ContentType)
	}
}

// TestNormalizeSnapshot_MissingItem tests a playing track report with
// no item attached; without track data there is nothing to show.
func TestNormalizeSnapshot_MissingItem(t *testing.T) {
	raw := &spotify.CurrentlyPlaying{
		IsPlaying:            true,
		ProgressMs:           100,
		CurrentlyPlayingType: "track",
	}

	got := NormalizeSnapshot(raw)

	if got.IsPlaying {
		t.Error("expected not playing when item is absent")
	}
	if got.Track != nil {
		t.Error("expected nil track")
	}
}

// TestNormalizeSnapshot_NegativeProgress tests clamping of a negative
// upstream progress value.
func TestNormalizeSnapshot_NegativeProgress(t *testing.T) {
	raw := &spotify.CurrentlyPlaying{
		IsPlaying:            true,
		ProgressMs:           -5,
		CurrentlyPlayingType: "track",
		Item:                 &spotify.Item{Name: "Song C"},
	}

	got := NormalizeSnapshot(raw)
	if got.ProgressMs != 0 {
		t.Errorf("progress = %d, want clamped to 0", got.ProgressMs)
	}
}

// TestContentType_String tests the wire labels.
func TestContentType_String(t *testing.T) {
	tests := []struct {
		ct   ContentType
		want string
	}{
		{ContentTypeTrack, "track"},
		{ContentTypeEpisode, "episode"},
		{ContentTypeAd, "ad"},
		{ContentTypeUnknown, "unknown"},
		{ContentType(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.ct.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

// TestParseContentType tests the inverse mapping from wire values.
func TestParseContentType(t *testing.T) {
	tests := []struct {
		in   string
		want ContentType
	}{
		{"track", ContentTypeTrack},
		{"episode", ContentTypeEpisode},
		{"ad", ContentTypeAd},
		{"", ContentTypeUnknown},
		{"something-new", ContentTypeUnknown},
	}
	for _, tt := range tests {
		if got := parseContentType(tt.in); got != tt.want {
			t.Errorf("parseContentType(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
