package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/beating-app/beating/internal/analytics"
	"github.com/beating-app/beating/internal/models"
)

// ExploreHandler serves the leaderboards and representative-review lookups.
type ExploreHandler struct {
	mux    *http.ServeMux
	engine *analytics.Engine
}

// NewExploreHandler creates an ExploreHandler.
func NewExploreHandler(engine *analytics.Engine) *ExploreHandler {
	h := &ExploreHandler{mux: http.NewServeMux(), engine: engine}

	h.mux.HandleFunc("GET /api/explore/top-songs", h.topSongs)
	h.mux.HandleFunc("GET /api/explore/top-albums", h.topAlbums)
	h.mux.HandleFunc("GET /api/explore/items/{kind}/{id}/review", h.representativeReview)

	return h
}

// Routes returns the path patterns this handler serves.
func (h *ExploreHandler) Routes() []string {
	return []string{
		"GET /api/explore/top-songs",
		"GET /api/explore/top-albums",
		"GET /api/explore/items/{kind}/{id}/review",
	}
}

// ServeHTTP handles the HTTP request and writes the response.
func (h *ExploreHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

type rankedItemResponse struct {
	ID          string  `json:"id"`
	Kind        string  `json:"kind"`
	Title       string  `json:"title"`
	Artist      string  `json:"artist"`
	AvgScore    float64 `json:"avg_score"`
	Rating      float64 `json:"rating"`
	ReviewCount int     `json:"review_count"`
	Excerpt     string  `json:"excerpt"`
}

func (h *ExploreHandler) topSongs(w http.ResponseWriter, r *http.Request) {
	h.topItems(w, r, models.KindSong)
}

func (h *ExploreHandler) topAlbums(w http.ResponseWriter, r *http.Request) {
	h.topItems(w, r, models.KindAlbum)
}

// querySentiment reads the optional sentiment filter. Empty, "all" and
// "todos" mean no filter; anything else must parse as a label.
func querySentiment(r *http.Request) (models.Label, error) {
	raw := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("sentiment")))
	if raw == "" || raw == "all" || raw == "todos" {
		return "", nil
	}
	return models.ParseLabel(raw)
}

func (h *ExploreHandler) topItems(w http.ResponseWriter, r *http.Request, kind models.TargetKind) {
	label, err := querySentiment(r)
	if err != nil {
		respondError(w, err)
		return
	}

	items, err := h.engine.TopItems(r.Context(), kind, label, queryLimit(r, 10))
	if err != nil {
		respondError(w, err)
		return
	}

	out := make([]rankedItemResponse, len(items))
	for i, item := range items {
		out[i] = rankedItemResponse{
			ID:          item.ID,
			Kind:        string(item.Kind),
			Title:       item.Title,
			Artist:      item.Artist,
			AvgScore:    item.AvgScore,
			Rating:      displayRating(item.AvgScore),
			ReviewCount: item.ReviewCount,
			Excerpt:     item.Excerpt,
		}
	}

	respondJSON(w, http.StatusOK, out)
}

func (h *ExploreHandler) representativeReview(w http.ResponseWriter, r *http.Request) {
	kind, err := models.ParseTargetKind(r.PathValue("kind"))
	if err != nil {
		respondError(w, err)
		return
	}

	raw := r.URL.Query().Get("criterion")
	if raw == "" {
		raw = r.URL.Query().Get("criterio")
	}
	criterion, err := analytics.ParseCriterion(raw)
	if err != nil {
		respondError(w, err)
		return
	}

	best, err := h.engine.RepresentativeReview(r.Context(), kind, r.PathValue("id"), criterion)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, struct {
		ReviewID  string    `json:"review_id"`
		Username  string    `json:"username"`
		Body      string    `json:"body"`
		Excerpt   string    `json:"excerpt"`
		Label     string    `json:"label"`
		Score     float64   `json:"score"`
		Rating    float64   `json:"rating"`
		CreatedAt time.Time `json:"created_at"`
	}{
		ReviewID:  best.ReviewID,
		Username:  best.Username,
		Body:      best.Body,
		Excerpt:   best.Excerpt,
		Label:     string(best.Label),
		Score:     best.Score,
		Rating:    displayRating(best.Score),
		CreatedAt: best.CreatedAt,
	})
}
