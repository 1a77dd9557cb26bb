package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/beating-app/beating/internal/models"
	"github.com/beating-app/beating/internal/shared"
)

// ReviewRepository persists reviews together with their sentiment rows.
type ReviewRepository struct {
	db *sql.DB
}

// NewReviewRepository creates a new ReviewRepository with the given database connection
func NewReviewRepository(db *sql.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// ReviewDetail is a review joined with its author, target and sentiment,
// shaped for the read path.
type ReviewDetail struct {
	ID          string
	UserID      string
	Username    string
	Target      models.Target
	TargetTitle string
	Artist      string
	Body        string
	Label       models.Label
	Score       float64
	CreatedAt   time.Time
}

// CreateWithSentiment inserts the review and its sentiment in one
// transaction. Either both rows land or neither does. A second review by the
// same user for the same target returns ErrConflict.
func (r *ReviewRepository) CreateWithSentiment(ctx context.Context, review *models.Review, sentiment *models.Sentiment) error {
	if err := review.Validate(); err != nil {
		return err
	}
	if err := sentiment.Validate(); err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	review.ID = shared.GenerateID()
	sentiment.ReviewID = review.ID
	songID, albumID := review.Target.Columns()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO reviews (id, user_id, song_id, album_id, body, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		review.ID, review.UserID, songID, albumID, review.Body, review.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: user already reviewed this %s", shared.ErrConflict, review.Target.Kind())
		}
		return fmt.Errorf("failed to insert review: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO sentiments (review_id, label, score) VALUES (?, ?, ?)",
		sentiment.ReviewID, sentiment.Label, sentiment.Score)
	if err != nil {
		return fmt.Errorf("failed to insert sentiment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit review: %w", err)
	}

	return nil
}

const reviewDetailColumns = `
	r.id, r.user_id, u.username, r.song_id, r.album_id,
	COALESCE(s.title, a.title), COALESCE(s.artist, a.artist),
	r.body, se.label, se.score, r.created_at
`

const reviewDetailJoins = `
	FROM reviews r
	JOIN users u ON u.id = r.user_id
	JOIN sentiments se ON se.review_id = r.id
	LEFT JOIN songs s ON s.id = r.song_id
	LEFT JOIN albums a ON a.id = r.album_id
`

// Get retrieves a single review with its joined detail.
func (r *ReviewRepository) Get(ctx context.Context, id string) (*ReviewDetail, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+reviewDetailColumns+reviewDetailJoins+" WHERE r.id = ?", id)

	detail, err := scanReviewDetail(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: review %s", shared.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	return detail, nil
}

// Delete removes a review owned by the given user. The sentiment row goes
// with it via the cascade.
func (r *ReviewRepository) Delete(ctx context.Context, id, userID string) error {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM reviews WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deletion: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: review %s for user %s", shared.ErrNotFound, id, userID)
	}

	return nil
}

// ListRecent returns the newest reviews across all users.
func (r *ReviewRepository) ListRecent(ctx context.Context, limit int) ([]ReviewDetail, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+reviewDetailColumns+reviewDetailJoins+" ORDER BY r.created_at DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	return collectReviewDetails(rows)
}

// ListByUser returns a user's reviews, newest first.
func (r *ReviewRepository) ListByUser(ctx context.Context, userID string) ([]ReviewDetail, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+reviewDetailColumns+reviewDetailJoins+" WHERE r.user_id = ? ORDER BY r.created_at DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user reviews: %w", err)
	}
	defer rows.Close()

	return collectReviewDetails(rows)
}

// ListByUsers returns the newest reviews authored by any of the given users.
// Used for the follow feed.
func (r *ReviewRepository) ListByUsers(ctx context.Context, userIDs []string, limit int) ([]ReviewDetail, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	query := "SELECT " + reviewDetailColumns + reviewDetailJoins + " WHERE r.user_id IN ("
	args := make([]any, 0, len(userIDs)+1)
	for i, id := range userIDs {
		if i > 0 {
			query += ", "
		}
		query += "?"
		args = append(args, id)
	}
	query += ") ORDER BY r.created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list feed reviews: %w", err)
	}
	defer rows.Close()

	return collectReviewDetails(rows)
}

// ListForTarget returns all reviews of one catalog entity, newest first.
func (r *ReviewRepository) ListForTarget(ctx context.Context, target models.Target) ([]ReviewDetail, error) {
	column := "r.song_id"
	if target.Kind() == models.KindAlbum {
		column = "r.album_id"
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT "+reviewDetailColumns+reviewDetailJoins+" WHERE "+column+" = ? ORDER BY r.created_at DESC",
		target.ID())
	if err != nil {
		return nil, fmt.Errorf("failed to list target reviews: %w", err)
	}
	defer rows.Close()

	return collectReviewDetails(rows)
}

// StoredReview pairs a review body with its current sentiment, as read back
// for re-scoring.
type StoredReview struct {
	ID    string
	Body  string
	Label models.Label
	Score float64
}

// ListForRescore streams every review with its current sentiment, oldest
// first so a rescoring pass is deterministic.
func (r *ReviewRepository) ListForRescore(ctx context.Context) ([]StoredReview, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT r.id, r.body, se.label, se.score
		FROM reviews r
		JOIN sentiments se ON se.review_id = r.id
		ORDER BY r.created_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews for rescore: %w", err)
	}
	defer rows.Close()

	var stored []StoredReview
	for rows.Next() {
		var sr StoredReview
		if err := rows.Scan(&sr.ID, &sr.Body, &sr.Label, &sr.Score); err != nil {
			return nil, fmt.Errorf("failed to scan stored review: %w", err)
		}
		stored = append(stored, sr)
	}

	return stored, rows.Err()
}

// UpdateSentiment replaces the sentiment attached to a review.
func (r *ReviewRepository) UpdateSentiment(ctx context.Context, sentiment *models.Sentiment) error {
	if err := sentiment.Validate(); err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx,
		"UPDATE sentiments SET label = ?, score = ? WHERE review_id = ?",
		sentiment.Label, sentiment.Score, sentiment.ReviewID)
	if err != nil {
		return fmt.Errorf("failed to update sentiment: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check sentiment update: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: sentiment for review %s", shared.ErrNotFound, sentiment.ReviewID)
	}

	return nil
}

// scanner abstracts *sql.Row and *sql.Rows for the shared detail scan.
type scanner interface {
	Scan(dest ...any) error
}

func scanReviewDetail(row scanner) (*ReviewDetail, error) {
	var detail ReviewDetail
	var songID, albumID *string

	err := row.Scan(&detail.ID, &detail.UserID, &detail.Username, &songID, &albumID,
		&detail.TargetTitle, &detail.Artist, &detail.Body, &detail.Label, &detail.Score,
		&detail.CreatedAt)
	if err != nil {
		return nil, err
	}

	detail.Target, err = models.TargetFromColumns(songID, albumID)
	if err != nil {
		return nil, err
	}

	return &detail, nil
}

func collectReviewDetails(rows *sql.Rows) ([]ReviewDetail, error) {
	var details []ReviewDetail
	for rows.Next() {
		detail, err := scanReviewDetail(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		details = append(details, *detail)
	}

	return details, rows.Err()
}
