package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

// createTestStore creates an in-memory SQLite store for testing
func createTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return store
}

func TestNewStore(t *testing.T) {
	t.Run("in-memory database", func(t *testing.T) {
		store, err := NewStore(":memory:")
		if err != nil {
			t.Fatalf("failed to create in-memory store: %v", err)
		}
		defer func() { _ = store.Close() }()

		if store.db == nil {
			t.Error("store database is nil")
		}
	})

	t.Run("file-based database", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "history.db")

		store, err := NewStore(path)
		if err != nil {
			t.Fatalf("failed to create file-based store: %v", err)
		}
		defer func() { _ = store.Close() }()

		if store.db == nil {
			t.Error("store database is nil")
		}
	})
}

func TestStoreStartAndFinishPlay(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	started := time.Now().Add(-3 * time.Minute)
	id, err := store.StartPlay(ctx, Play{
		TrackName:   "Song A",
		Artists:     []string{"Artist A", "Artist B"},
		Album:       "Album A",
		DurationMs:  200000,
		ExternalURL: "https://open.spotify.com/track/abc",
		StartedAt:   started,
	})
	if err != nil {
		t.Fatalf("failed to start play: %v", err)
	}
	if id <= 0 {
		t.Errorf("expected positive id, got %d", id)
	}

	open, err := store.Count(ctx, true)
	if err != nil {
		t.Fatalf("failed to count open plays: %v", err)
	}
	if open != 1 {
		t.Errorf("expected 1 open play, got %d", open)
	}

	ended := time.Now()
	if err := store.FinishPlay(ctx, id, ended); err != nil {
		t.Fatalf("failed to finish play: %v", err)
	}

	open, err = store.Count(ctx, true)
	if err != nil {
		t.Fatalf("failed to count open plays: %v", err)
	}
	if open != 0 {
		t.Errorf("expected 0 open plays after finish, got %d", open)
	}

	recent, err := store.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("failed to get recent plays: %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("expected 1 play, got %d", len(recent))
	}

	play := recent[0]
	if play.TrackName != "Song A" {
		t.Errorf("unexpected track name: %q", play.TrackName)
	}
	if len(play.Artists) != 2 || play.Artists[0] != "Artist A" || play.Artists[1] != "Artist B" {
		t.Errorf("unexpected artists: %v", play.Artists)
	}
	if play.Album != "Album A" {
		t.Errorf("unexpected album: %q", play.Album)
	}
	if play.DurationMs != 200000 {
		t.Errorf("unexpected duration: %d", play.DurationMs)
	}
	if play.StartedAt.Unix() != started.Unix() {
		t.Errorf("unexpected start time: %v", play.StartedAt)
	}
	if play.EndedAt.IsZero() {
		t.Error("expected finished play to have an end time")
	}
}

func TestStoreFinishPlayTwice(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	id, err := store.StartPlay(ctx, Play{TrackName: "Song", Artists: []string{"Artist"}, StartedAt: time.Now()})
	if err != nil {
		t.Fatalf("failed to start play: %v", err)
	}

	if err := store.FinishPlay(ctx, id, time.Now()); err != nil {
		t.Fatalf("failed to finish play: %v", err)
	}

	// A second finish targets an already-closed span.
	if err := store.FinishPlay(ctx, id, time.Now()); err == nil {
		t.Error("expected error when finishing an already finished play")
	}
}

func TestStoreFinishUnknownPlay(t *testing.T) {
	store := createTestStore(t)

	if err := store.FinishPlay(context.Background(), 999, time.Now()); err == nil {
		t.Error("expected error when finishing non-existent play")
	}
}

func TestStoreRecentOrdering(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	names := []string{"First", "Second", "Third"}
	for i, name := range names {
		id, err := store.StartPlay(ctx, Play{
			TrackName: name,
			Artists:   []string{"Artist"},
			StartedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("failed to start play %d: %v", i, err)
		}
		if err := store.FinishPlay(ctx, id, base.Add(time.Duration(i)*time.Minute+30*time.Second)); err != nil {
			t.Fatalf("failed to finish play %d: %v", i, err)
		}
	}

	recent, err := store.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("failed to get recent plays: %v", err)
	}

	if len(recent) != 3 {
		t.Fatalf("expected 3 plays, got %d", len(recent))
	}

	// Newest first.
	want := []string{"Third", "Second", "First"}
	for i, name := range want {
		if recent[i].TrackName != name {
			t.Errorf("position %d: expected %q, got %q", i, name, recent[i].TrackName)
		}
	}
}

func TestStoreRecentLimit(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := store.StartPlay(ctx, Play{
			TrackName: "Track",
			Artists:   []string{"Artist"},
			StartedAt: time.Now().Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("failed to start play: %v", err)
		}
	}

	recent, err := store.Recent(ctx, 3)
	if err != nil {
		t.Fatalf("failed to get recent plays: %v", err)
	}

	if len(recent) != 3 {
		t.Errorf("expected 3 plays, got %d", len(recent))
	}
}

func TestStoreCleanup(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	// Old finished play: should be deleted.
	oldID, err := store.StartPlay(ctx, Play{
		TrackName: "Old Track",
		Artists:   []string{"Artist"},
		StartedAt: time.Now().Add(-10 * 24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("failed to start old play: %v", err)
	}
	if err := store.FinishPlay(ctx, oldID, time.Now().Add(-10*24*time.Hour+3*time.Minute)); err != nil {
		t.Fatalf("failed to finish old play: %v", err)
	}

	// Recent finished play: should survive.
	recentID, err := store.StartPlay(ctx, Play{
		TrackName: "Recent Track",
		Artists:   []string{"Artist"},
		StartedAt: time.Now().Add(-time.Hour),
	})
	if err != nil {
		t.Fatalf("failed to start recent play: %v", err)
	}
	if err := store.FinishPlay(ctx, recentID, time.Now()); err != nil {
		t.Fatalf("failed to finish recent play: %v", err)
	}

	// Old but still open span: always kept.
	_, err = store.StartPlay(ctx, Play{
		TrackName: "Open Track",
		Artists:   []string{"Artist"},
		StartedAt: time.Now().Add(-10 * 24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("failed to start open play: %v", err)
	}

	deleted, err := store.Cleanup(ctx, 7*24*time.Hour)
	if err != nil {
		t.Fatalf("failed to cleanup: %v", err)
	}

	if deleted != 1 {
		t.Errorf("expected 1 deleted play, got %d", deleted)
	}

	count, err := store.Count(ctx, false)
	if err != nil {
		t.Fatalf("failed to count: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 remaining plays, got %d", count)
	}
}

func TestStoreEmptyArtists(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	_, err := store.StartPlay(ctx, Play{TrackName: "Instrumental", StartedAt: time.Now()})
	if err != nil {
		t.Fatalf("failed to start play: %v", err)
	}

	recent, err := store.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("failed to get recent: %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("expected 1 play, got %d", len(recent))
	}
	if len(recent[0].Artists) != 0 {
		t.Errorf("expected no artists, got %v", recent[0].Artists)
	}
}
