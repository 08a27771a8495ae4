package history

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pjw57/nowspinning/internal/engine"
)

// Recorder turns the engine's snapshot stream into play spans: a span
// opens when a track starts and closes when playback stops or moves to
// a different track. Snapshot observation is best-effort; a failed
// write is logged and never propagates into the fetch path.
type Recorder struct {
	store  *Store
	logger zerolog.Logger
	now    func() time.Time

	mu      sync.Mutex
	openID  int64
	current *engine.TrackInfo
}

// NewRecorder creates a Recorder writing to store.
func NewRecorder(store *Store, logger zerolog.Logger) *Recorder {
	return &Recorder{
		store:  store,
		logger: logger.With().Str("component", "history").Logger(),
		now:    time.Now,
	}
}

// Observe processes one snapshot. Intended to be wired as the engine's
// snapshot hook, so it runs inline with the fetch cycle and must stay
// cheap: one SQLite write at most per transition.
func (r *Recorder) Observe(snapshot engine.PlaybackSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ctx := context.Background()

	// Nothing playing: close any open span.
	if !snapshot.IsPlaying || snapshot.Track == nil {
		if r.current != nil {
			r.finishOpen(ctx)
		}
		return
	}

	// Same track still playing: nothing to record.
	if r.current != nil && isSameTrack(r.current, snapshot.Track) {
		return
	}

	// Track changed: close the previous span before opening the next.
	if r.current != nil {
		r.finishOpen(ctx)
	}

	id, err := r.store.StartPlay(ctx, Play{
		TrackName:   snapshot.Track.Name,
		Artists:     snapshot.Track.ArtistNames,
		Album:       snapshot.Track.AlbumName,
		DurationMs:  snapshot.Track.DurationMs,
		ExternalURL: snapshot.Track.ExternalURL,
		StartedAt:   r.now(),
	})
	if err != nil {
		r.logger.Error().Err(err).Str("track", snapshot.Track.Name).Msg("Failed to record play start")
		return
	}

	r.logger.Info().
		Str("track", snapshot.Track.Name).
		Strs("artists", snapshot.Track.ArtistNames).
		Msg("Play started")

	r.openID = id
	r.current = snapshot.Track
}

// finishOpen closes the currently open span. Caller holds the lock.
func (r *Recorder) finishOpen(ctx context.Context) {
	if err := r.store.FinishPlay(ctx, r.openID, r.now()); err != nil {
		r.logger.Error().Err(err).Int64("id", r.openID).Msg("Failed to record play end")
	} else {
		r.logger.Info().Str("track", r.current.Name).Msg("Play finished")
	}
	r.openID = 0
	r.current = nil
}

// Close finishes any open span. Called on shutdown so a track playing
// at exit is not left dangling.
func (r *Recorder) Close(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current != nil {
		r.finishOpen(ctx)
	}
}

// isSameTrack reports whether two track infos describe the same track.
func isSameTrack(t1, t2 *engine.TrackInfo) bool {
	if t1 == nil || t2 == nil {
		return false
	}
	if t1.Name != t2.Name || t1.AlbumName != t2.AlbumName {
		return false
	}
	if len(t1.ArtistNames) != len(t2.ArtistNames) {
		return false
	}
	for i := range t1.ArtistNames {
		if t1.ArtistNames[i] != t2.ArtistNames[i] {
			return false
		}
	}
	return true
}
