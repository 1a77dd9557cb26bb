package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/beating-app/beating/internal/models"
	"github.com/beating-app/beating/internal/shared"
)

// FollowRepository persists the directed follow graph between users.
type FollowRepository struct {
	db *sql.DB
}

// NewFollowRepository creates a new FollowRepository with the given database connection
func NewFollowRepository(db *sql.DB) *FollowRepository {
	return &FollowRepository{db: db}
}

// Create adds a follow edge. Following someone twice returns ErrConflict;
// following a user that does not exist returns ErrNotFound.
func (r *FollowRepository) Create(ctx context.Context, follow *models.Follow) error {
	if err := follow.Validate(); err != nil {
		return err
	}

	var exists int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE id IN (?, ?)",
		follow.FollowerID, follow.FolloweeID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check follow users: %w", err)
	}
	if exists != 2 {
		return fmt.Errorf("%w: follower or followee does not exist", shared.ErrNotFound)
	}

	_, err = r.db.ExecContext(ctx,
		"INSERT INTO follows (follower_id, followee_id, created_at) VALUES (?, ?, ?)",
		follow.FollowerID, follow.FolloweeID, time.Now())
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: already following", shared.ErrConflict)
		}
		return fmt.Errorf("failed to insert follow: %w", err)
	}

	return nil
}

// Delete removes a follow edge, returning ErrNotFound when it never existed.
func (r *FollowRepository) Delete(ctx context.Context, followerID, followeeID string) error {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM follows WHERE follower_id = ? AND followee_id = ?",
		followerID, followeeID)
	if err != nil {
		return fmt.Errorf("failed to delete follow: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check unfollow: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: not following", shared.ErrNotFound)
	}

	return nil
}

// FollowedUser is one side of a follow edge with the account's display data.
type FollowedUser struct {
	ID       string
	Username string
	Since    time.Time
}

// Following lists the users the given user follows.
func (r *FollowRepository) Following(ctx context.Context, userID string) ([]FollowedUser, error) {
	return r.queryEdges(ctx, `
		SELECT u.id, u.username, f.created_at
		FROM follows f JOIN users u ON u.id = f.followee_id
		WHERE f.follower_id = ?
		ORDER BY f.created_at DESC
	`, userID)
}

// Followers lists the users following the given user.
func (r *FollowRepository) Followers(ctx context.Context, userID string) ([]FollowedUser, error) {
	return r.queryEdges(ctx, `
		SELECT u.id, u.username, f.created_at
		FROM follows f JOIN users u ON u.id = f.follower_id
		WHERE f.followee_id = ?
		ORDER BY f.created_at DESC
	`, userID)
}

// FollowingIDs returns just the followee ids, for feed queries.
func (r *FollowRepository) FollowingIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT followee_id FROM follows WHERE follower_id = ?", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list followee ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan followee id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

func (r *FollowRepository) queryEdges(ctx context.Context, query, userID string) ([]FollowedUser, error) {
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list follows: %w", err)
	}
	defer rows.Close()

	var users []FollowedUser
	for rows.Next() {
		var fu FollowedUser
		if err := rows.Scan(&fu.ID, &fu.Username, &fu.Since); err != nil {
			return nil, fmt.Errorf("failed to scan follow: %w", err)
		}
		users = append(users, fu)
	}

	return users, rows.Err()
}
