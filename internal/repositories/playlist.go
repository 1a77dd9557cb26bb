package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/beating-app/beating/internal/models"
	"github.com/beating-app/beating/internal/shared"
)

// PlaylistRepository persists user playlists and their ordered songs.
type PlaylistRepository struct {
	db *sql.DB
}

// NewPlaylistRepository creates a new PlaylistRepository with the given database connection
func NewPlaylistRepository(db *sql.DB) *PlaylistRepository {
	return &PlaylistRepository{db: db}
}

// Create inserts a playlist and its songs in one transaction. Song order
// follows the slice order.
func (r *PlaylistRepository) Create(ctx context.Context, playlist *models.Playlist) error {
	if err := playlist.Validate(); err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	playlist.ID = shared.GenerateID()
	playlist.CreatedAt = time.Now()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO playlists (id, user_id, name, created_at) VALUES (?, ?, ?, ?)",
		playlist.ID, playlist.UserID, playlist.Name, playlist.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert playlist: %w", err)
	}

	for position, songID := range playlist.SongIDs {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO playlist_songs (playlist_id, song_id, position) VALUES (?, ?, ?)",
			playlist.ID, songID, position)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: duplicate song in playlist", shared.ErrConflict)
			}
			return fmt.Errorf("failed to insert playlist song: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit playlist: %w", err)
	}

	return nil
}

// PlaylistSummary is a playlist row with its song count, for listings.
type PlaylistSummary struct {
	ID        string
	Name      string
	SongCount int
	CreatedAt time.Time
}

// ListByUser returns a user's playlists with song counts, newest first.
func (r *PlaylistRepository) ListByUser(ctx context.Context, userID string) ([]PlaylistSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT p.id, p.name, COUNT(ps.song_id), p.created_at
		FROM playlists p
		LEFT JOIN playlist_songs ps ON ps.playlist_id = p.id
		WHERE p.user_id = ?
		GROUP BY p.id, p.name, p.created_at
		ORDER BY p.created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list playlists: %w", err)
	}
	defer rows.Close()

	var summaries []PlaylistSummary
	for rows.Next() {
		var s PlaylistSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.SongCount, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan playlist: %w", err)
		}
		summaries = append(summaries, s)
	}

	return summaries, rows.Err()
}

// Get retrieves a playlist with its songs in position order.
func (r *PlaylistRepository) Get(ctx context.Context, id string) (*models.Playlist, error) {
	var playlist models.Playlist
	err := r.db.QueryRowContext(ctx,
		"SELECT id, user_id, name, created_at FROM playlists WHERE id = ?", id).
		Scan(&playlist.ID, &playlist.UserID, &playlist.Name, &playlist.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: playlist %s", shared.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan playlist: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT song_id FROM playlist_songs WHERE playlist_id = ? ORDER BY position ASC", id)
	if err != nil {
		return nil, fmt.Errorf("failed to list playlist songs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var songID string
		if err := rows.Scan(&songID); err != nil {
			return nil, fmt.Errorf("failed to scan playlist song: %w", err)
		}
		playlist.SongIDs = append(playlist.SongIDs, songID)
	}

	return &playlist, rows.Err()
}

// AddSong appends a song at the end of a playlist owned by the given user.
func (r *PlaylistRepository) AddSong(ctx context.Context, playlistID, userID, songID string) error {
	var ownerID string
	err := r.db.QueryRowContext(ctx,
		"SELECT user_id FROM playlists WHERE id = ?", playlistID).Scan(&ownerID)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%w: playlist %s", shared.ErrNotFound, playlistID)
	}
	if err != nil {
		return fmt.Errorf("failed to check playlist: %w", err)
	}
	if ownerID != userID {
		return fmt.Errorf("%w: playlist %s", shared.ErrNotFound, playlistID)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO playlist_songs (playlist_id, song_id, position)
		SELECT ?, ?, COALESCE(MAX(position) + 1, 0)
		FROM playlist_songs WHERE playlist_id = ?
	`, playlistID, songID, playlistID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: song already in playlist", shared.ErrConflict)
		}
		return fmt.Errorf("failed to add playlist song: %w", err)
	}

	return nil
}
