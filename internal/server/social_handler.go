package server

import (
	"net/http"

	"github.com/beating-app/beating/internal/analytics"
	"github.com/beating-app/beating/internal/models"
	"github.com/beating-app/beating/internal/repositories"
)

// SocialHandler serves the follow graph and playlist endpoints.
type SocialHandler struct {
	mux       *http.ServeMux
	follows   *repositories.FollowRepository
	playlists *repositories.PlaylistRepository
	engine    *analytics.Engine
}

// NewSocialHandler creates a SocialHandler.
func NewSocialHandler(follows *repositories.FollowRepository, playlists *repositories.PlaylistRepository, engine *analytics.Engine) *SocialHandler {
	h := &SocialHandler{mux: http.NewServeMux(), follows: follows, playlists: playlists, engine: engine}

	h.mux.HandleFunc("POST /api/follows", h.follow)
	h.mux.HandleFunc("DELETE /api/follows/{id}", h.unfollow)
	h.mux.HandleFunc("GET /api/follows/following", h.following)
	h.mux.HandleFunc("GET /api/follows/followers", h.followers)
	h.mux.HandleFunc("POST /api/playlists", h.createPlaylist)
	h.mux.HandleFunc("GET /api/playlists", h.listPlaylists)
	h.mux.HandleFunc("GET /api/playlists/{id}", h.getPlaylist)
	h.mux.HandleFunc("POST /api/playlists/{id}/songs", h.addSong)

	return h
}

// Routes returns the path patterns this handler serves.
func (h *SocialHandler) Routes() []string {
	return []string{
		"POST /api/follows",
		"DELETE /api/follows/{id}",
		"GET /api/follows/following",
		"GET /api/follows/followers",
		"POST /api/playlists",
		"GET /api/playlists",
		"GET /api/playlists/{id}",
		"POST /api/playlists/{id}/songs",
	}
}

// ServeHTTP handles the HTTP request and writes the response.
func (h *SocialHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *SocialHandler) follow(w http.ResponseWriter, r *http.Request) {
	userID, ok := RequireUser(w, r)
	if !ok {
		return
	}

	var body struct {
		UserID string `json:"user_id"`
	}
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, err)
		return
	}

	follow := &models.Follow{FollowerID: userID, FolloweeID: body.UserID}
	if err := h.follows.Create(r.Context(), follow); err != nil {
		respondError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
}

func (h *SocialHandler) unfollow(w http.ResponseWriter, r *http.Request) {
	userID, ok := RequireUser(w, r)
	if !ok {
		return
	}

	if err := h.follows.Delete(r.Context(), userID, r.PathValue("id")); err != nil {
		respondError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *SocialHandler) following(w http.ResponseWriter, r *http.Request) {
	userID, ok := RequireUser(w, r)
	if !ok {
		return
	}

	users, err := h.follows.Following(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toFollowResponses(users))
}

func (h *SocialHandler) followers(w http.ResponseWriter, r *http.Request) {
	userID, ok := RequireUser(w, r)
	if !ok {
		return
	}

	users, err := h.follows.Followers(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toFollowResponses(users))
}

func toFollowResponses(users []repositories.FollowedUser) []map[string]any {
	out := make([]map[string]any, len(users))
	for i, u := range users {
		out[i] = map[string]any{"id": u.ID, "username": u.Username, "since": u.Since}
	}
	return out
}

func (h *SocialHandler) createPlaylist(w http.ResponseWriter, r *http.Request) {
	userID, ok := RequireUser(w, r)
	if !ok {
		return
	}

	var body struct {
		Name    string   `json:"name"`
		SongIDs []string `json:"song_ids"`
		FromTop int      `json:"from_top"`
	}
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, err)
		return
	}

	// from_top seeds the playlist with the current top-songs leaderboard.
	if len(body.SongIDs) == 0 && body.FromTop > 0 {
		items, err := h.engine.TopItems(r.Context(), models.KindSong, "", body.FromTop)
		if err != nil {
			respondError(w, err)
			return
		}
		for _, item := range items {
			body.SongIDs = append(body.SongIDs, item.ID)
		}
	}

	playlist := &models.Playlist{UserID: userID, Name: body.Name, SongIDs: body.SongIDs}
	if err := h.playlists.Create(r.Context(), playlist); err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"id":       playlist.ID,
		"name":     playlist.Name,
		"song_ids": playlist.SongIDs,
	})
}

func (h *SocialHandler) listPlaylists(w http.ResponseWriter, r *http.Request) {
	userID, ok := RequireUser(w, r)
	if !ok {
		return
	}

	summaries, err := h.playlists.ListByUser(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}

	out := make([]map[string]any, len(summaries))
	for i, s := range summaries {
		out[i] = map[string]any{
			"id":         s.ID,
			"name":       s.Name,
			"song_count": s.SongCount,
			"created_at": s.CreatedAt,
		}
	}

	respondJSON(w, http.StatusOK, out)
}

func (h *SocialHandler) getPlaylist(w http.ResponseWriter, r *http.Request) {
	playlist, err := h.playlists.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"id":         playlist.ID,
		"user_id":    playlist.UserID,
		"name":       playlist.Name,
		"song_ids":   playlist.SongIDs,
		"created_at": playlist.CreatedAt,
	})
}

func (h *SocialHandler) addSong(w http.ResponseWriter, r *http.Request) {
	userID, ok := RequireUser(w, r)
	if !ok {
		return
	}

	var body struct {
		SongID string `json:"song_id"`
	}
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, err)
		return
	}

	if err := h.playlists.AddSong(r.Context(), r.PathValue("id"), userID, body.SongID); err != nil {
		respondError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
}
