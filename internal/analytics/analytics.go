// package analytics derives leaderboards, stats and word clouds from the
// stored reviews and sentiments.
package analytics

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bbalet/stopwords"

	"github.com/beating-app/beating/internal/models"
	"github.com/beating-app/beating/internal/sentiment"
	"github.com/beating-app/beating/internal/shared"
)

// Engine runs the read-side aggregation queries.
type Engine struct {
	db *sql.DB
}

// NewEngine creates an analytics Engine over the given database connection
func NewEngine(db *sql.DB) *Engine {
	return &Engine{db: db}
}

// RankedItem is one leaderboard row: a catalog entity with its aggregate
// sentiment and a representative review excerpt.
type RankedItem struct {
	ID          string
	Kind        models.TargetKind
	Title       string
	Artist      string
	AvgScore    float64
	ReviewCount int
	Excerpt     string
}

// Criterion selects which review represents an item on a leaderboard.
type Criterion string

const (
	// MostRecent picks the newest review.
	MostRecent Criterion = "most_recent"
	// MostPositive picks the highest-scored review, newest on ties.
	MostPositive Criterion = "most_positive"
	// MostPolarized picks the review furthest from neutral, newest on ties.
	MostPolarized Criterion = "most_polarized"
)

// ParseCriterion normalizes a criterion string.
func ParseCriterion(s string) (Criterion, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(MostPositive):
		return MostPositive, nil
	case string(MostRecent):
		return MostRecent, nil
	case string(MostPolarized):
		return MostPolarized, nil
	}
	return "", fmt.Errorf("%w: unknown criterion %q", shared.ErrValidation, s)
}

// genericExcerpt fills a leaderboard slot when no review satisfies the
// requested criterion.
func genericExcerpt(title string) string {
	return fmt.Sprintf("No standout review yet for %s.", title)
}

// excerptLimit is the maximum excerpt length in runes, ellipsis included.
const excerptLimit = 150

// makeExcerpt masks profanity and truncates to the excerpt limit. The
// ellipsis counts against the limit so the result never exceeds it.
func makeExcerpt(body string) string {
	masked := sentiment.Mask(body)
	runes := []rune(masked)
	if len(runes) <= excerptLimit {
		return masked
	}
	return string(runes[:excerptLimit-3]) + "..."
}

// TopItems returns the leaderboard for one entity kind, ranked by average
// score descending with review count as the tiebreak. A non-empty label
// restricts the ranking to reviews with that sentiment. Each row carries
// the most positive review's excerpt, falling back to the most recent,
// then to a generic line.
func (e *Engine) TopItems(ctx context.Context, kind models.TargetKind, label models.Label, limit int) ([]RankedItem, error) {
	table, column := "songs", "song_id"
	if kind == models.KindAlbum {
		table, column = "albums", "album_id"
	}

	filter := ""
	args := []any{}
	if label != "" {
		filter = "WHERE se.label = ?"
		args = append(args, string(label))
	}
	args = append(args, limit)

	query := fmt.Sprintf(`
		SELECT t.id, t.title, t.artist, AVG(se.score), COUNT(r.id)
		FROM %s t
		JOIN reviews r ON r.%s = t.id
		JOIN sentiments se ON se.review_id = r.id
		%s
		GROUP BY t.id, t.title, t.artist
		HAVING COUNT(r.id) >= 1
		ORDER BY AVG(se.score) DESC, COUNT(r.id) DESC
		LIMIT ?
	`, table, column, filter)

	rows, err := e.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to rank %s: %w", table, err)
	}
	defer rows.Close()

	var items []RankedItem
	for rows.Next() {
		item := RankedItem{Kind: kind}
		if err := rows.Scan(&item.ID, &item.Title, &item.Artist, &item.AvgScore, &item.ReviewCount); err != nil {
			return nil, fmt.Errorf("failed to scan ranked item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range items {
		body, found, err := e.representativeBody(ctx, kind, items[i].ID, MostPositive)
		if err != nil {
			return nil, err
		}
		if found {
			items[i].Excerpt = makeExcerpt(body)
		} else {
			items[i].Excerpt = genericExcerpt(items[i].Title)
		}
	}

	return items, nil
}

// BestReview is a representative review for one catalog entity.
type BestReview struct {
	ReviewID  string
	Username  string
	Body      string
	Excerpt   string
	Label     models.Label
	Score     float64
	CreatedAt time.Time
}

// RepresentativeReview picks the review of one entity that best fits the
// criterion. MostPositive considers only positive-labeled reviews and
// falls back to the newest review when the entity has none. Returns
// ErrNotFound when the entity has no reviews at all.
func (e *Engine) RepresentativeReview(ctx context.Context, kind models.TargetKind, id string, criterion Criterion) (*BestReview, error) {
	column := "r.song_id"
	if kind == models.KindAlbum {
		column = "r.album_id"
	}

	order, filter := "", ""
	switch criterion {
	case MostRecent:
		order = "r.created_at DESC"
	case MostPositive:
		order = "se.score DESC, r.created_at DESC"
		filter = "AND se.label = 'positive'"
	case MostPolarized:
		order = "ABS(se.score - 0.5) DESC, r.created_at DESC"
	default:
		return nil, fmt.Errorf("%w: unknown criterion %q", shared.ErrValidation, criterion)
	}

	query := fmt.Sprintf(`
		SELECT r.id, u.username, r.body, se.label, se.score, r.created_at
		FROM reviews r
		JOIN users u ON u.id = r.user_id
		JOIN sentiments se ON se.review_id = r.id
		WHERE %s = ? %s
		ORDER BY %s
		LIMIT 1
	`, column, filter, order)

	var best BestReview
	err := e.db.QueryRowContext(ctx, query, id).Scan(
		&best.ReviewID, &best.Username, &best.Body, &best.Label, &best.Score, &best.CreatedAt)
	if err == sql.ErrNoRows && criterion == MostPositive {
		return e.RepresentativeReview(ctx, kind, id, MostRecent)
	}
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: no reviews for %s %s", shared.ErrNotFound, kind, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to pick representative review: %w", err)
	}

	best.Body = sentiment.Mask(best.Body)
	best.Excerpt = makeExcerpt(best.Body)

	return &best, nil
}

func (e *Engine) representativeBody(ctx context.Context, kind models.TargetKind, id string, criterion Criterion) (string, bool, error) {
	best, err := e.RepresentativeReview(ctx, kind, id, criterion)
	if errors.Is(err, shared.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return best.Body, true, nil
}

// LabelStat is the count and average score of one sentiment label.
type LabelStat struct {
	Count    int
	AvgScore float64
}

// Distribution maps each label with at least one review to its stats.
// Labels nobody has used are absent, not zero-valued.
type Distribution map[models.Label]LabelStat

// Total is the number of reviews counted.
func (d Distribution) Total() int {
	total := 0
	for _, stat := range d {
		total += stat.Count
	}
	return total
}

// LabelDistribution counts reviews per sentiment label. A zero-value target
// counts across all reviews.
func (e *Engine) LabelDistribution(ctx context.Context, target models.Target) (Distribution, error) {
	query := `
		SELECT se.label, COUNT(*), AVG(se.score)
		FROM reviews r
		JOIN sentiments se ON se.review_id = r.id
	`
	var args []any
	if target.ID() != "" {
		column := "r.song_id"
		if target.Kind() == models.KindAlbum {
			column = "r.album_id"
		}
		query += " WHERE " + column + " = ?"
		args = append(args, target.ID())
	}
	query += " GROUP BY se.label"

	rows, err := e.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count labels: %w", err)
	}
	defer rows.Close()

	dist := make(Distribution)
	for rows.Next() {
		var label models.Label
		var stat LabelStat
		if err := rows.Scan(&label, &stat.Count, &stat.AvgScore); err != nil {
			return nil, fmt.Errorf("failed to scan label count: %w", err)
		}
		dist[label] = stat
	}

	return dist, rows.Err()
}

// HomeStats is the landing-page summary.
type HomeStats struct {
	Users         int
	Songs         int
	Albums        int
	Reviews       int
	RecentReviews int
	AvgScore      float64
	PctPositive   float64
}

// HomeStats counts the catalog and reviews and averages all scores.
// RecentReviews covers the trailing 24 hours.
func (e *Engine) HomeStats(ctx context.Context) (*HomeStats, error) {
	var stats HomeStats
	err := e.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM songs),
			(SELECT COUNT(*) FROM albums),
			(SELECT COUNT(*) FROM reviews),
			(SELECT COUNT(*) FROM reviews WHERE created_at >= datetime('now', '-1 day')),
			(SELECT COALESCE(AVG(score), 0.5) FROM sentiments),
			(SELECT COALESCE(AVG(CASE WHEN label = 'positive' THEN 100.0 ELSE 0.0 END), 0) FROM sentiments)
	`).Scan(&stats.Users, &stats.Songs, &stats.Albums, &stats.Reviews,
		&stats.RecentReviews, &stats.AvgScore, &stats.PctPositive)
	if err != nil {
		return nil, fmt.Errorf("failed to load home stats: %w", err)
	}

	return &stats, nil
}

// CommunityLeader is one row of the most-active-reviewers board.
type CommunityLeader struct {
	UserID      string
	Username    string
	ReviewCount int
	AvgScore    float64
}

// CommunityLeaders ranks users by review count, higher average score as the
// tiebreak.
func (e *Engine) CommunityLeaders(ctx context.Context, limit int) ([]CommunityLeader, error) {
	rows, err := e.db.QueryContext(ctx, `
		SELECT u.id, u.username, COUNT(r.id), AVG(se.score)
		FROM users u
		JOIN reviews r ON r.user_id = u.id
		JOIN sentiments se ON se.review_id = r.id
		GROUP BY u.id, u.username
		ORDER BY COUNT(r.id) DESC, AVG(se.score) DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to rank reviewers: %w", err)
	}
	defer rows.Close()

	var leaders []CommunityLeader
	for rows.Next() {
		var l CommunityLeader
		if err := rows.Scan(&l.UserID, &l.Username, &l.ReviewCount, &l.AvgScore); err != nil {
			return nil, fmt.Errorf("failed to scan reviewer: %w", err)
		}
		leaders = append(leaders, l)
	}

	return leaders, rows.Err()
}

// WordCount is one word-cloud entry.
type WordCount struct {
	Word  string
	Count int
}

// WordCloud tallies the most frequent content words across review bodies,
// optionally restricted to one sentiment label. Stop words in both English
// and Spanish are removed before counting; profanity is masked first so it
// never surfaces.
func (e *Engine) WordCloud(ctx context.Context, label models.Label, limit int) ([]WordCount, error) {
	query := "SELECT body FROM reviews"
	var args []any
	if label != "" {
		query = `
			SELECT r.body FROM reviews r
			JOIN sentiments se ON se.review_id = r.id
			WHERE se.label = ?
		`
		args = append(args, string(label))
	}

	rows, err := e.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load review bodies: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("failed to scan review body: %w", err)
		}

		cleaned := stopwords.CleanString(sentiment.Mask(body), "en", true)
		cleaned = stopwords.CleanString(cleaned, "es", true)
		for _, word := range strings.Fields(cleaned) {
			if len([]rune(word)) < 3 || strings.ContainsRune(word, '*') {
				continue
			}
			counts[strings.ToLower(word)]++
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	cloud := make([]WordCount, 0, len(counts))
	for word, count := range counts {
		cloud = append(cloud, WordCount{Word: word, Count: count})
	}
	sort.Slice(cloud, func(i, j int) bool {
		if cloud[i].Count != cloud[j].Count {
			return cloud[i].Count > cloud[j].Count
		}
		return cloud[i].Word < cloud[j].Word
	})

	if limit > 0 && len(cloud) > limit {
		cloud = cloud[:limit]
	}

	return cloud, nil
}
