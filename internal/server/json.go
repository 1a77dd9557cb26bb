package server

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/beating-app/beating/internal/shared"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, err error) {
	status := shared.StatusCode(err)

	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal error"
	}

	respondJSON(w, status, map[string]string{"error": message})
}

func decodeJSON(r *http.Request, dest any) error {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		return fmt.Errorf("%w: malformed request body", shared.ErrValidation)
	}
	return nil
}

// queryLimit parses the limit query parameter, clamped to [1, 100].
func queryLimit(r *http.Request, fallback int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return fallback
	}
	if limit > 100 {
		return 100
	}

	return limit
}

// displayRating rescales a canonical [0, 1] score to the 0-5 scale shown to
// clients, rounded to one decimal.
func displayRating(score float64) float64 {
	return math.Round(score*50) / 10
}
