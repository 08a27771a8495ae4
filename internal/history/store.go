// Package history records finished play spans in SQLite so the HTTP
// boundary can serve a recently-played list. It is observational only:
// the serving path for the live snapshot never reads from here.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Play is one span of a track being played.
type Play struct {
	ID          int64
	TrackName   string
	Artists     []string
	Album       string
	DurationMs  int
	ExternalURL string
	StartedAt   time.Time
	EndedAt     time.Time // Zero while the span is still open
}

// artistSeparator joins the ordered artist list into a single column.
// The upstream never puts a record separator in artist names.
const artistSeparator = "\x1f"

// Store manages the plays table.
type Store struct {
	db *sql.DB
}

// NewStore opens (creating if needed) the history database at dbPath.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single connection keeps in-memory databases consistent and is
	// plenty for this write rate.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA journal_mode = WAL",
		"PRAGMA temp_store = MEMORY",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	schema := `
		CREATE TABLE IF NOT EXISTS plays (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			track_name TEXT NOT NULL,
			artists TEXT NOT NULL,
			album TEXT,
			duration_ms INTEGER NOT NULL,
			external_url TEXT,
			started_at INTEGER NOT NULL,
			ended_at INTEGER,
			created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
		);

		CREATE INDEX IF NOT EXISTS idx_plays_started ON plays(started_at);
		CREATE INDEX IF NOT EXISTS idx_plays_open ON plays(ended_at) WHERE ended_at IS NULL;
	`

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// StartPlay records the beginning of a play span and returns its id.
func (s *Store) StartPlay(ctx context.Context, play Play) (int64, error) {
	query := `
		INSERT INTO plays (track_name, artists, album, duration_ms, external_url, started_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.ExecContext(ctx, query,
		play.TrackName,
		strings.Join(play.Artists, artistSeparator),
		play.Album,
		play.DurationMs,
		play.ExternalURL,
		play.StartedAt.Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert play: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get insert id: %w", err)
	}

	return id, nil
}

// FinishPlay closes an open play span.
func (s *Store) FinishPlay(ctx context.Context, id int64, endedAt time.Time) error {
	query := `
		UPDATE plays
		SET ended_at = ?
		WHERE id = ? AND ended_at IS NULL
	`

	result, err := s.db.ExecContext(ctx, query, endedAt.Unix(), id)
	if err != nil {
		return fmt.Errorf("failed to finish play: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("open play with id %d not found", id)
	}

	return nil
}

// Recent returns the most recently started plays, newest first. Open
// spans (still playing) are included with a zero EndedAt.
func (s *Store) Recent(ctx context.Context, limit int) ([]Play, error) {
	query := `
		SELECT id, track_name, artists, album, duration_ms, COALESCE(external_url, ''), started_at, COALESCE(ended_at, 0)
		FROM plays
		ORDER BY started_at DESC, id DESC
	`

	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent plays: %w", err)
	}
	defer rows.Close()

	var plays []Play
	for rows.Next() {
		var p Play
		var artists string
		var startedUnix, endedUnix int64

		err := rows.Scan(
			&p.ID,
			&p.TrackName,
			&artists,
			&p.Album,
			&p.DurationMs,
			&p.ExternalURL,
			&startedUnix,
			&endedUnix,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan play: %w", err)
		}

		if artists != "" {
			p.Artists = strings.Split(artists, artistSeparator)
		}
		p.StartedAt = time.Unix(startedUnix, 0)
		if endedUnix != 0 {
			p.EndedAt = time.Unix(endedUnix, 0)
		}

		plays = append(plays, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating plays: %w", err)
	}

	return plays, nil
}

// Cleanup removes finished plays older than maxAge to prevent
// unbounded growth. Open spans are always kept.
func (s *Store) Cleanup(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().Add(-maxAge).Unix()

	query := `
		DELETE FROM plays
		WHERE ended_at IS NOT NULL
		AND started_at < ?
	`

	result, err := s.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup old plays: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return deleted, nil
}

// Count returns the number of recorded plays
// If openOnly is true, only counts spans that have not finished
func (s *Store) Count(ctx context.Context, openOnly bool) (int, error) {
	query := "SELECT COUNT(*) FROM plays"
	if openOnly {
		query += " WHERE ended_at IS NULL"
	}

	var count int
	err := s.db.QueryRowContext(ctx, query).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count plays: %w", err)
	}

	return count, nil
}
