// Spotify Web API implementation of [Catalog]
//
// Response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"

	"github.com/beating-app/beating/internal/shared"
)

const (
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"
)

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	DurationMS int             `json:"duration_ms"`
	URI        string          `json:"uri"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Artists     []SpotifyArtist `json:"artists"`
	ReleaseDate string          `json:"release_date"`
	URI         string          `json:"uri"`
}

type trackPage struct {
	Items []SpotifyTrack `json:"items"`
}

type albumPage struct {
	Items []SpotifyAlbum `json:"items"`
}

type searchResponse struct {
	Tracks trackPage `json:"tracks"`
	Albums albumPage `json:"albums"`
}

// apiError carries the HTTP status so the retry policy can distinguish
// transient server failures from everything else.
type apiError struct {
	status int
}

func (e *apiError) Error() string {
	return fmt.Sprintf("spotify API error: status %d", e.status)
}

// SpotifyCatalog implements [Catalog] using the client-credentials flow.
// Requests are rate limited and retried on server errors.
type SpotifyCatalog struct {
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewSpotifyCatalog creates a catalog client with the given credentials.
// The oauth2 transport handles token fetch and refresh.
func NewSpotifyCatalog(clientID, clientSecret string) (*SpotifyCatalog, error) {
	if clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("missing spotify client credentials")
	}

	conf := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     spotifyTokenURL,
	}

	return &SpotifyCatalog{
		httpClient: conf.Client(context.Background()),
		limiter:    rate.NewLimiter(rate.Every(1*time.Second), 1),
	}, nil
}

// SearchTrack finds the best track match for (title, artist).
// Returns nil when Spotify has no match.
func (s *SpotifyCatalog) SearchTrack(ctx context.Context, title, artist string) (*CatalogTrack, error) {
	var result searchResponse
	if err := s.search(ctx, title, artist, "track", &result); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrCatalogDegraded, err)
	}

	if len(result.Tracks.Items) == 0 {
		return nil, nil
	}

	track := result.Tracks.Items[0]
	found := &CatalogTrack{
		Title:           track.Name,
		URI:             track.URI,
		DurationSeconds: (track.DurationMS + 500) / 1000,
	}
	if len(track.Artists) > 0 {
		found.Artist = track.Artists[0].Name
	}

	return found, nil
}

// SearchAlbum finds the best album match for (title, artist).
// Returns nil when Spotify has no match.
func (s *SpotifyCatalog) SearchAlbum(ctx context.Context, title, artist string) (*CatalogAlbum, error) {
	var result searchResponse
	if err := s.search(ctx, title, artist, "album", &result); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrCatalogDegraded, err)
	}

	if len(result.Albums.Items) == 0 {
		return nil, nil
	}

	album := result.Albums.Items[0]
	found := &CatalogAlbum{
		Title: album.Name,
		URI:   album.URI,
	}
	if len(album.Artists) > 0 {
		found.Artist = album.Artists[0].Name
	}
	if year := releaseYear(album.ReleaseDate); year > 0 {
		found.ReleaseYear = year
	}

	return found, nil
}

// search performs a rate-limited search request, retrying on 5xx.
func (s *SpotifyCatalog) search(ctx context.Context, title, artist, kind string, result *searchResponse) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	query := url.Values{}
	query.Set("q", strings.TrimSpace(title+" "+artist))
	query.Set("type", kind)
	query.Set("limit", "1")
	endpoint := spotifyBaseURL + "/search?" + query.Encode()

	return retry.Do(
		func() error {
			return s.doRequest(ctx, endpoint, result)
		},
		retry.Attempts(3),
		retry.Context(ctx),
		retry.RetryIf(func(err error) bool {
			if aerr, ok := err.(*apiError); ok {
				return aerr.status/100 == 5
			}
			return false
		}),
	)
}

func (s *SpotifyCatalog) doRequest(ctx context.Context, endpoint string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &apiError{status: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// releaseYear parses the leading year from a Spotify release date, which may
// be "2006", "2006-01" or "2006-01-02".
func releaseYear(date string) int {
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return year
}
