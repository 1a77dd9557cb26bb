package server

import (
	"net/http"

	"github.com/beating-app/beating/internal/auth"
	"github.com/beating-app/beating/internal/models"
	"github.com/beating-app/beating/internal/repositories"
)

// AuthHandler serves account registration, login and the current-user
// endpoint.
type AuthHandler struct {
	mux   *http.ServeMux
	auth  *auth.Service
	users *repositories.UserRepository
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(authService *auth.Service, users *repositories.UserRepository) *AuthHandler {
	h := &AuthHandler{mux: http.NewServeMux(), auth: authService, users: users}

	h.mux.HandleFunc("POST /api/auth/register", h.register)
	h.mux.HandleFunc("POST /api/auth/login", h.login)
	h.mux.HandleFunc("GET /api/auth/me", h.me)
	h.mux.HandleFunc("PUT /api/auth/me", h.updateProfile)

	return h
}

// Routes returns the path patterns this handler serves.
func (h *AuthHandler) Routes() []string {
	return []string{
		"POST /api/auth/register",
		"POST /api/auth/login",
		"GET /api/auth/me",
		"PUT /api/auth/me",
	}
}

// ServeHTTP handles the HTTP request and writes the response.
func (h *AuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

type userResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func toUserResponse(user *models.User) userResponse {
	return userResponse{ID: user.ID, Username: user.Username, Email: user.Email}
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, err)
		return
	}

	user, err := h.auth.Register(r.Context(), body.Username, body.Email, body.Password)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, toUserResponse(user))
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, err)
		return
	}

	token, user, err := h.auth.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  toUserResponse(user),
	})
}

func (h *AuthHandler) me(w http.ResponseWriter, r *http.Request) {
	userID, ok := RequireUser(w, r)
	if !ok {
		return
	}

	user, err := h.users.Get(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toUserResponse(user))
}

func (h *AuthHandler) updateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := RequireUser(w, r)
	if !ok {
		return
	}

	var body struct {
		Username string `json:"username"`
		Email    string `json:"email"`
	}
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, err)
		return
	}

	if err := h.users.UpdateProfile(r.Context(), userID, body.Username, body.Email); err != nil {
		respondError(w, err)
		return
	}

	user, err := h.users.Get(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toUserResponse(user))
}
