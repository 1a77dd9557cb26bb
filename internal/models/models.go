// package models defines the data model for the music review service
package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/beating-app/beating/internal/shared"
)

// Label is the three-way sentiment taxonomy assigned to every review.
type Label string

const (
	LabelPositive Label = "positive"
	LabelNeutral  Label = "neutral"
	LabelNegative Label = "negative"
)

// ParseLabel normalizes a sentiment label, accepting the Spanish aliases the
// first frontend shipped with.
func ParseLabel(s string) (Label, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "positive", "positivo":
		return LabelPositive, nil
	case "neutral":
		return LabelNeutral, nil
	case "negative", "negativo":
		return LabelNegative, nil
	}
	return "", fmt.Errorf("%w: unknown sentiment label %q", shared.ErrValidation, s)
}

// MinReviewLength is the minimum number of characters a review body must have.
const MinReviewLength = 10

// User is a registered account.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewUser creates a User with timestamps set; the ID is assigned on insert.
func NewUser(username, email, passwordHash string) *User {
	now := time.Now()
	return &User{
		Username:     strings.TrimSpace(username),
		Email:        strings.TrimSpace(email),
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Validate checks that required account fields are present.
func (u *User) Validate() error {
	if u.Username == "" {
		return fmt.Errorf("%w: username is required", shared.ErrValidation)
	}
	if u.Email == "" || !strings.Contains(u.Email, "@") {
		return fmt.Errorf("%w: a valid email is required", shared.ErrValidation)
	}
	if u.PasswordHash == "" {
		return fmt.Errorf("%w: password hash is required", shared.ErrValidation)
	}
	return nil
}

// TargetKind distinguishes the two reviewable catalog entity kinds.
type TargetKind string

const (
	KindSong  TargetKind = "song"
	KindAlbum TargetKind = "album"
)

// ParseTargetKind normalizes a kind string, accepting the Spanish aliases.
func ParseTargetKind(s string) (TargetKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "song", "cancion", "canción":
		return KindSong, nil
	case "album", "álbum":
		return KindAlbum, nil
	}
	return "", fmt.Errorf("%w: kind must be 'song' or 'album'", shared.ErrValidation)
}

// Target identifies the single catalog entity a review is about. The zero
// value is invalid; construct via SongTarget or AlbumTarget so a review can
// never point at both a song and an album. The split into two nullable
// columns happens only in the repositories.
type Target struct {
	kind TargetKind
	id   string
}

// SongTarget returns a Target pointing at a song.
func SongTarget(id string) Target { return Target{kind: KindSong, id: id} }

// AlbumTarget returns a Target pointing at an album.
func AlbumTarget(id string) Target { return Target{kind: KindAlbum, id: id} }

// NewTarget builds a Target for the given kind.
func NewTarget(kind TargetKind, id string) (Target, error) {
	switch kind {
	case KindSong:
		return SongTarget(id), nil
	case KindAlbum:
		return AlbumTarget(id), nil
	}
	return Target{}, fmt.Errorf("%w: unknown target kind %q", shared.ErrValidation, kind)
}

func (t Target) Kind() TargetKind { return t.kind }
func (t Target) ID() string       { return t.id }

// Columns projects the target onto the nullable song_id/album_id pair used
// by the reviews table.
func (t Target) Columns() (songID, albumID *string) {
	switch t.kind {
	case KindSong:
		return &t.id, nil
	case KindAlbum:
		return nil, &t.id
	}
	return nil, nil
}

// TargetFromColumns rebuilds a Target from the stored nullable pair.
func TargetFromColumns(songID, albumID *string) (Target, error) {
	switch {
	case songID != nil && albumID == nil:
		return SongTarget(*songID), nil
	case songID == nil && albumID != nil:
		return AlbumTarget(*albumID), nil
	}
	return Target{}, fmt.Errorf("%w: review must reference exactly one of song or album", shared.ErrStorage)
}

// Song is a reviewable track, lazily created on first review and optionally
// enriched from the external catalog.
type Song struct {
	ID              string
	Title           string
	Artist          string
	SpotifyURI      *string
	DurationSeconds *int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Validate checks that the song carries its identifying pair.
func (s *Song) Validate() error {
	if s.Title == "" || s.Artist == "" {
		return fmt.Errorf("%w: song title and artist are required", shared.ErrValidation)
	}
	return nil
}

// Album is a reviewable album.
type Album struct {
	ID          string
	Title       string
	Artist      string
	SpotifyURI  *string
	ReleaseYear *int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate checks that the album carries its identifying pair.
func (a *Album) Validate() error {
	if a.Title == "" || a.Artist == "" {
		return fmt.Errorf("%w: album title and artist are required", shared.ErrValidation)
	}
	return nil
}

// Review is a user's text opinion on exactly one catalog entity. The body is
// stored uncensored; profanity masking is a read-path transform.
type Review struct {
	ID        string
	UserID    string
	Target    Target
	Body      string
	CreatedAt time.Time
}

// NewReview creates a Review with its creation time set.
func NewReview(userID string, target Target, body string) *Review {
	return &Review{
		UserID:    userID,
		Target:    target,
		Body:      strings.TrimSpace(body),
		CreatedAt: time.Now(),
	}
}

// Validate enforces the minimum body length and the single-target invariant.
func (r *Review) Validate() error {
	if r.UserID == "" {
		return fmt.Errorf("%w: review author is required", shared.ErrValidation)
	}
	if r.Target.ID() == "" {
		return fmt.Errorf("%w: review target is required", shared.ErrValidation)
	}
	if utf8.RuneCountInString(r.Body) < MinReviewLength {
		return fmt.Errorf("%w: review body must be at least %d characters", shared.ErrValidation, MinReviewLength)
	}
	return nil
}

// Sentiment is the score attached 1:1 to a review.
// Score semantics: 0.0 most negative, 1.0 most positive, 0.5 neutral.
type Sentiment struct {
	ReviewID string
	Label    Label
	Score    float64
}

// Validate checks the score range and label.
func (s *Sentiment) Validate() error {
	if s.Score < 0.0 || s.Score > 1.0 {
		return fmt.Errorf("%w: sentiment score %f out of range", shared.ErrValidation, s.Score)
	}
	switch s.Label {
	case LabelPositive, LabelNeutral, LabelNegative:
		return nil
	}
	return fmt.Errorf("%w: unknown sentiment label %q", shared.ErrValidation, s.Label)
}

// Polarity is the distance of a score from the neutral midpoint.
func (s *Sentiment) Polarity() float64 {
	d := s.Score - 0.5
	if d < 0 {
		return -d
	}
	return d
}

// Follow is a directed edge between two users.
type Follow struct {
	FollowerID string
	FolloweeID string
	CreatedAt  time.Time
}

// Validate rejects self-follows and incomplete edges.
func (f *Follow) Validate() error {
	if f.FollowerID == "" || f.FolloweeID == "" {
		return fmt.Errorf("%w: follower and followee are required", shared.ErrValidation)
	}
	if f.FollowerID == f.FolloweeID {
		return fmt.Errorf("%w: cannot follow yourself", shared.ErrValidation)
	}
	return nil
}

// Playlist is a named ordered collection of songs owned by a user.
type Playlist struct {
	ID        string
	UserID    string
	Name      string
	CreatedAt time.Time
	SongIDs   []string
}

// Validate checks playlist ownership and name.
func (p *Playlist) Validate() error {
	if p.UserID == "" {
		return fmt.Errorf("%w: playlist owner is required", shared.ErrValidation)
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: playlist name is required", shared.ErrValidation)
	}
	return nil
}
