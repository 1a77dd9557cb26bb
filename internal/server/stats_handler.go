package server

import (
	"net/http"

	"github.com/beating-app/beating/internal/analytics"
	"github.com/beating-app/beating/internal/models"
)

// StatsHandler serves the landing-page stats, sentiment distributions, the
// word cloud and the community leaderboard.
type StatsHandler struct {
	mux    *http.ServeMux
	engine *analytics.Engine
}

// NewStatsHandler creates a StatsHandler.
func NewStatsHandler(engine *analytics.Engine) *StatsHandler {
	h := &StatsHandler{mux: http.NewServeMux(), engine: engine}

	h.mux.HandleFunc("GET /api/stats/home", h.home)
	h.mux.HandleFunc("GET /api/stats/distribution", h.distribution)
	h.mux.HandleFunc("GET /api/stats/wordcloud", h.wordCloud)
	h.mux.HandleFunc("GET /api/community", h.community)

	return h
}

// Routes returns the path patterns this handler serves.
func (h *StatsHandler) Routes() []string {
	return []string{
		"GET /api/stats/home",
		"GET /api/stats/distribution",
		"GET /api/stats/wordcloud",
		"GET /api/community",
	}
}

// ServeHTTP handles the HTTP request and writes the response.
func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *StatsHandler) home(w http.ResponseWriter, r *http.Request) {
	stats, err := h.engine.HomeStats(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"users":        stats.Users,
		"songs":        stats.Songs,
		"albums":       stats.Albums,
		"reviews":      stats.Reviews,
		"reviews_24h":  stats.RecentReviews,
		"avg_score":    stats.AvgScore,
		"avg_rating":   displayRating(stats.AvgScore),
		"pct_positive": stats.PctPositive,
	})
}

// distribution counts labels globally, or for one entity when kind and id
// query parameters are given.
func (h *StatsHandler) distribution(w http.ResponseWriter, r *http.Request) {
	var target models.Target

	if rawKind := r.URL.Query().Get("kind"); rawKind != "" {
		kind, err := models.ParseTargetKind(rawKind)
		if err != nil {
			respondError(w, err)
			return
		}
		target, err = models.NewTarget(kind, r.URL.Query().Get("id"))
		if err != nil {
			respondError(w, err)
			return
		}
	}

	dist, err := h.engine.LabelDistribution(r.Context(), target)
	if err != nil {
		respondError(w, err)
		return
	}

	out := map[string]any{"total": dist.Total()}
	for label, stat := range dist {
		out[string(label)] = map[string]any{"count": stat.Count, "avg_score": stat.AvgScore}
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *StatsHandler) wordCloud(w http.ResponseWriter, r *http.Request) {
	label, err := querySentiment(r)
	if err != nil {
		respondError(w, err)
		return
	}

	cloud, err := h.engine.WordCloud(r.Context(), label, queryLimit(r, 50))
	if err != nil {
		respondError(w, err)
		return
	}

	out := make([]map[string]any, len(cloud))
	for i, wc := range cloud {
		out[i] = map[string]any{"word": wc.Word, "count": wc.Count}
	}

	respondJSON(w, http.StatusOK, out)
}

func (h *StatsHandler) community(w http.ResponseWriter, r *http.Request) {
	leaders, err := h.engine.CommunityLeaders(r.Context(), queryLimit(r, 10))
	if err != nil {
		respondError(w, err)
		return
	}

	out := make([]map[string]any, len(leaders))
	for i, l := range leaders {
		out[i] = map[string]any{
			"user_id":      l.UserID,
			"username":     l.Username,
			"review_count": l.ReviewCount,
			"avg_score":    l.AvgScore,
			"avg_rating":   displayRating(l.AvgScore),
		}
	}

	respondJSON(w, http.StatusOK, out)
}
