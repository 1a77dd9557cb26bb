package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/beating-app/beating/internal/models"
	"github.com/beating-app/beating/internal/services"
	"github.com/beating-app/beating/internal/shared"
)

// CatalogRepository stores songs and albums and implements the idempotent
// find-or-create resolver used by the ingestion pipeline.
type CatalogRepository struct {
	db     *sql.DB
	logger *log.Logger
}

// NewCatalogRepository creates a new CatalogRepository with the given database connection
func NewCatalogRepository(db *sql.DB, logger *log.Logger) *CatalogRepository {
	return &CatalogRepository{db: db, logger: logger}
}

// ResolveOrCreate returns the id of the catalog entity with the given
// case-insensitive (title, artist) pair, creating it when absent.
//
// The external catalog is consulted only to enrich: on a local hit, null
// enrichable fields are backfilled; on a miss, canonical metadata seeds the
// new row. Lookup failures degrade to creating the entity from the
// caller-supplied pair alone. Concurrent resolvers for the same pair race
// on the unique index — the loser re-reads the winner's row.
func (r *CatalogRepository) ResolveOrCreate(ctx context.Context, kind models.TargetKind, title, artist string, catalog services.Catalog) (string, error) {
	switch kind {
	case models.KindSong:
		return r.resolveSong(ctx, title, artist, catalog)
	case models.KindAlbum:
		return r.resolveAlbum(ctx, title, artist, catalog)
	}
	return "", fmt.Errorf("%w: unknown catalog kind %q", shared.ErrValidation, kind)
}

func (r *CatalogRepository) resolveSong(ctx context.Context, title, artist string, catalog services.Catalog) (string, error) {
	song, err := r.findSong(ctx, title, artist)
	if err != nil {
		return "", err
	}

	if song != nil {
		if catalog != nil && (song.SpotifyURI == nil || song.DurationSeconds == nil) {
			r.enrichSong(ctx, song, catalog)
		}
		return song.ID, nil
	}

	// Canonical metadata is best effort; any lookup failure leaves the
	// enrichable fields null.
	var found *services.CatalogTrack
	if catalog != nil {
		found, err = catalog.SearchTrack(ctx, title, artist)
		if err != nil {
			r.logger.Warn("catalog lookup degraded, creating song without enrichment",
				"title", title, "artist", artist, "err", err)
			found = nil
		}
	}

	song = &models.Song{Title: title, Artist: artist}
	if found != nil {
		song.Title = found.Title
		song.Artist = found.Artist
		song.SpotifyURI = &found.URI
		duration := found.DurationSeconds
		song.DurationSeconds = &duration
	}

	return r.insertSong(ctx, song)
}

func (r *CatalogRepository) resolveAlbum(ctx context.Context, title, artist string, catalog services.Catalog) (string, error) {
	album, err := r.findAlbum(ctx, title, artist)
	if err != nil {
		return "", err
	}

	if album != nil {
		if catalog != nil && (album.SpotifyURI == nil || album.ReleaseYear == nil) {
			r.enrichAlbum(ctx, album, catalog)
		}
		return album.ID, nil
	}

	var found *services.CatalogAlbum
	if catalog != nil {
		found, err = catalog.SearchAlbum(ctx, title, artist)
		if err != nil {
			r.logger.Warn("catalog lookup degraded, creating album without enrichment",
				"title", title, "artist", artist, "err", err)
			found = nil
		}
	}

	album = &models.Album{Title: title, Artist: artist}
	if found != nil {
		album.Title = found.Title
		album.Artist = found.Artist
		album.SpotifyURI = &found.URI
		if found.ReleaseYear > 0 {
			year := found.ReleaseYear
			album.ReleaseYear = &year
		}
	}

	return r.insertAlbum(ctx, album)
}

// insertSong inserts with ON CONFLICT DO NOTHING and re-selects, so a
// losing concurrent insert returns the winner's id instead of erroring.
func (r *CatalogRepository) insertSong(ctx context.Context, song *models.Song) (string, error) {
	if err := song.Validate(); err != nil {
		return "", err
	}

	song.ID = shared.GenerateID()
	now := time.Now()

	query := `
		INSERT INTO songs (id, title, artist, spotify_uri, duration_seconds, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (title, artist) DO NOTHING
	`

	_, err := r.db.ExecContext(ctx, query,
		song.ID, song.Title, song.Artist, song.SpotifyURI, song.DurationSeconds, now, now)
	if err != nil {
		return "", fmt.Errorf("failed to insert song: %w", err)
	}

	winner, err := r.findSong(ctx, song.Title, song.Artist)
	if err != nil {
		return "", err
	}
	if winner == nil {
		return "", fmt.Errorf("song vanished after insert: %s - %s", song.Title, song.Artist)
	}

	return winner.ID, nil
}

func (r *CatalogRepository) insertAlbum(ctx context.Context, album *models.Album) (string, error) {
	if err := album.Validate(); err != nil {
		return "", err
	}

	album.ID = shared.GenerateID()
	now := time.Now()

	query := `
		INSERT INTO albums (id, title, artist, spotify_uri, release_year, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (title, artist) DO NOTHING
	`

	_, err := r.db.ExecContext(ctx, query,
		album.ID, album.Title, album.Artist, album.SpotifyURI, album.ReleaseYear, now, now)
	if err != nil {
		return "", fmt.Errorf("failed to insert album: %w", err)
	}

	winner, err := r.findAlbum(ctx, album.Title, album.Artist)
	if err != nil {
		return "", err
	}
	if winner == nil {
		return "", fmt.Errorf("album vanished after insert: %s - %s", album.Title, album.Artist)
	}

	return winner.ID, nil
}

// enrichSong backfills null enrichable fields from the external catalog.
// Non-null fields are never overwritten. Failures are logged and ignored.
func (r *CatalogRepository) enrichSong(ctx context.Context, song *models.Song, catalog services.Catalog) {
	found, err := catalog.SearchTrack(ctx, song.Title, song.Artist)
	if err != nil || found == nil {
		if err != nil {
			r.logger.Warn("song enrichment skipped", "title", song.Title, "err", err)
		}
		return
	}

	if song.SpotifyURI == nil && found.URI != "" {
		song.SpotifyURI = &found.URI
	}
	if song.DurationSeconds == nil && found.DurationSeconds > 0 {
		duration := found.DurationSeconds
		song.DurationSeconds = &duration
	}

	_, err = r.db.ExecContext(ctx,
		"UPDATE songs SET spotify_uri = ?, duration_seconds = ?, updated_at = ? WHERE id = ?",
		song.SpotifyURI, song.DurationSeconds, time.Now(), song.ID)
	if err != nil {
		r.logger.Warn("song enrichment write failed", "id", song.ID, "err", err)
	}
}

func (r *CatalogRepository) enrichAlbum(ctx context.Context, album *models.Album, catalog services.Catalog) {
	found, err := catalog.SearchAlbum(ctx, album.Title, album.Artist)
	if err != nil || found == nil {
		if err != nil {
			r.logger.Warn("album enrichment skipped", "title", album.Title, "err", err)
		}
		return
	}

	if album.SpotifyURI == nil && found.URI != "" {
		album.SpotifyURI = &found.URI
	}
	if album.ReleaseYear == nil && found.ReleaseYear > 0 {
		year := found.ReleaseYear
		album.ReleaseYear = &year
	}

	_, err = r.db.ExecContext(ctx,
		"UPDATE albums SET spotify_uri = ?, release_year = ?, updated_at = ? WHERE id = ?",
		album.SpotifyURI, album.ReleaseYear, time.Now(), album.ID)
	if err != nil {
		r.logger.Warn("album enrichment write failed", "id", album.ID, "err", err)
	}
}

// findSong matches by (title, artist); the NOCASE collation on both columns
// makes the comparison case-insensitive.
func (r *CatalogRepository) findSong(ctx context.Context, title, artist string) (*models.Song, error) {
	query := `
		SELECT id, title, artist, spotify_uri, duration_seconds, created_at, updated_at
		FROM songs WHERE title = ? AND artist = ?
	`

	var song models.Song
	err := r.db.QueryRowContext(ctx, query, title, artist).Scan(
		&song.ID, &song.Title, &song.Artist, &song.SpotifyURI, &song.DurationSeconds,
		&song.CreatedAt, &song.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan song: %w", err)
	}

	return &song, nil
}

func (r *CatalogRepository) findAlbum(ctx context.Context, title, artist string) (*models.Album, error) {
	query := `
		SELECT id, title, artist, spotify_uri, release_year, created_at, updated_at
		FROM albums WHERE title = ? AND artist = ?
	`

	var album models.Album
	err := r.db.QueryRowContext(ctx, query, title, artist).Scan(
		&album.ID, &album.Title, &album.Artist, &album.SpotifyURI, &album.ReleaseYear,
		&album.CreatedAt, &album.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan album: %w", err)
	}

	return &album, nil
}

// GetSong retrieves a song by id.
func (r *CatalogRepository) GetSong(ctx context.Context, id string) (*models.Song, error) {
	query := `
		SELECT id, title, artist, spotify_uri, duration_seconds, created_at, updated_at
		FROM songs WHERE id = ?
	`

	var song models.Song
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&song.ID, &song.Title, &song.Artist, &song.SpotifyURI, &song.DurationSeconds,
		&song.CreatedAt, &song.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: song %s", shared.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan song: %w", err)
	}

	return &song, nil
}

// GetAlbum retrieves an album by id.
func (r *CatalogRepository) GetAlbum(ctx context.Context, id string) (*models.Album, error) {
	query := `
		SELECT id, title, artist, spotify_uri, release_year, created_at, updated_at
		FROM albums WHERE id = ?
	`

	var album models.Album
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&album.ID, &album.Title, &album.Artist, &album.SpotifyURI, &album.ReleaseYear,
		&album.CreatedAt, &album.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: album %s", shared.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan album: %w", err)
	}

	return &album, nil
}
