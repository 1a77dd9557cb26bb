package server

import (
	"net/http"
	"time"

	"github.com/beating-app/beating/internal/models"
	"github.com/beating-app/beating/internal/repositories"
	"github.com/beating-app/beating/internal/reviews"
	"github.com/beating-app/beating/internal/sentiment"
)

// ReviewHandler serves review submission, reading and the follow feed.
type ReviewHandler struct {
	mux     *http.ServeMux
	service *reviews.Service
	reviews *repositories.ReviewRepository
	follows *repositories.FollowRepository
}

// NewReviewHandler creates a ReviewHandler.
func NewReviewHandler(service *reviews.Service, reviewRepo *repositories.ReviewRepository, follows *repositories.FollowRepository) *ReviewHandler {
	h := &ReviewHandler{mux: http.NewServeMux(), service: service, reviews: reviewRepo, follows: follows}

	h.mux.HandleFunc("POST /api/reviews", h.create)
	h.mux.HandleFunc("GET /api/reviews", h.listRecent)
	h.mux.HandleFunc("GET /api/reviews/{id}", h.get)
	h.mux.HandleFunc("DELETE /api/reviews/{id}", h.delete)
	h.mux.HandleFunc("GET /api/users/{id}/reviews", h.listByUser)
	h.mux.HandleFunc("GET /api/feed", h.feed)

	return h
}

// Routes returns the path patterns this handler serves.
func (h *ReviewHandler) Routes() []string {
	return []string{
		"POST /api/reviews",
		"GET /api/reviews",
		"GET /api/reviews/{id}",
		"DELETE /api/reviews/{id}",
		"GET /api/users/{id}/reviews",
		"GET /api/feed",
	}
}

// ServeHTTP handles the HTTP request and writes the response.
func (h *ReviewHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

type reviewResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username,omitempty"`
	Kind      string    `json:"kind"`
	TargetID  string    `json:"target_id"`
	Title     string    `json:"title,omitempty"`
	Artist    string    `json:"artist,omitempty"`
	Body      string    `json:"body"`
	Label     string    `json:"label"`
	Score     float64   `json:"score"`
	Rating    float64   `json:"rating"`
	Censored  int       `json:"censored_words"`
	CreatedAt time.Time `json:"created_at"`
}

// toReviewResponse masks the body and rescales the score for display.
func toReviewResponse(d repositories.ReviewDetail) reviewResponse {
	return reviewResponse{
		ID:        d.ID,
		UserID:    d.UserID,
		Username:  d.Username,
		Kind:      string(d.Target.Kind()),
		TargetID:  d.Target.ID(),
		Title:     d.TargetTitle,
		Artist:    d.Artist,
		Body:      sentiment.Mask(d.Body),
		Label:     string(d.Label),
		Score:     d.Score,
		Rating:    displayRating(d.Score),
		Censored:  sentiment.CountMatches(d.Body),
		CreatedAt: d.CreatedAt,
	}
}

func toReviewResponses(details []repositories.ReviewDetail) []reviewResponse {
	out := make([]reviewResponse, len(details))
	for i, d := range details {
		out[i] = toReviewResponse(d)
	}
	return out
}

func (h *ReviewHandler) create(w http.ResponseWriter, r *http.Request) {
	userID, ok := RequireUser(w, r)
	if !ok {
		return
	}

	var body struct {
		Kind     string `json:"kind"`
		TargetID string `json:"target_id"`
		Title    string `json:"title"`
		Artist   string `json:"artist"`
		Body     string `json:"body"`
	}
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, err)
		return
	}

	kind, err := models.ParseTargetKind(body.Kind)
	if err != nil {
		respondError(w, err)
		return
	}

	review, sent, err := h.service.Submit(r.Context(), reviews.SubmitInput{
		UserID:   userID,
		Kind:     kind,
		TargetID: body.TargetID,
		Title:    body.Title,
		Artist:   body.Artist,
		Body:     body.Body,
	})
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, reviewResponse{
		ID:        review.ID,
		UserID:    review.UserID,
		Kind:      string(review.Target.Kind()),
		TargetID:  review.Target.ID(),
		Body:      sentiment.Mask(review.Body),
		Label:     string(sent.Label),
		Score:     sent.Score,
		Rating:    displayRating(sent.Score),
		Censored:  sentiment.CountMatches(review.Body),
		CreatedAt: review.CreatedAt,
	})
}

func (h *ReviewHandler) get(w http.ResponseWriter, r *http.Request) {
	detail, err := h.reviews.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toReviewResponse(*detail))
}

func (h *ReviewHandler) delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := RequireUser(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), r.PathValue("id"), userID); err != nil {
		respondError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ReviewHandler) listRecent(w http.ResponseWriter, r *http.Request) {
	details, err := h.reviews.ListRecent(r.Context(), queryLimit(r, 20))
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toReviewResponses(details))
}

func (h *ReviewHandler) listByUser(w http.ResponseWriter, r *http.Request) {
	details, err := h.reviews.ListByUser(r.Context(), r.PathValue("id"))
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toReviewResponses(details))
}

// feed returns the newest reviews by the users the caller follows.
func (h *ReviewHandler) feed(w http.ResponseWriter, r *http.Request) {
	userID, ok := RequireUser(w, r)
	if !ok {
		return
	}

	followees, err := h.follows.FollowingIDs(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}

	details, err := h.reviews.ListByUsers(r.Context(), followees, queryLimit(r, 50))
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toReviewResponses(details))
}
