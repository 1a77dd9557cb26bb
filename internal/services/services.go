// package services defines clients for the external collaborators: the
// text-classification inference API and the Spotify catalog.
package services

import (
	"context"
)

// RawClassification is the unmapped output of a text classifier: whatever
// label space the underlying model uses, plus a confidence in [0,1].
type RawClassification struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// TextClassifier is the pluggable text-classification capability. It may
// need a slow one-time warm-up and may be entirely unavailable; callers are
// expected to degrade rather than fail.
type TextClassifier interface {
	// Warm performs any one-time model initialization. Safe to skip for
	// implementations that need none.
	Warm(ctx context.Context) error

	// Classify returns the raw label and confidence for the given text.
	Classify(ctx context.Context, text string) (RawClassification, error)
}

// CatalogTrack is the canonical song metadata returned by a catalog lookup.
type CatalogTrack struct {
	Title           string
	Artist          string
	URI             string
	DurationSeconds int
}

// CatalogAlbum is the canonical album metadata returned by a catalog lookup.
type CatalogAlbum struct {
	Title       string
	Artist      string
	URI         string
	ReleaseYear int
}

// Catalog looks up canonical metadata for songs and albums. Lookups fail
// soft: a "not found" or transient failure must never block a review.
type Catalog interface {
	SearchTrack(ctx context.Context, title, artist string) (*CatalogTrack, error)
	SearchAlbum(ctx context.Context, title, artist string) (*CatalogAlbum, error)
}
