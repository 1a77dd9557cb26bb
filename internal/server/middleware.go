package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/beating-app/beating/internal/auth"
	"github.com/beating-app/beating/internal/shared"
)

type contextKey string

const userIDKey contextKey = "user_id"

// UserID returns the authenticated user id stored by the auth middleware,
// or "" for anonymous requests.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// RequestLogger logs method, path, status and duration for every request.
func RequestLogger(logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(recorder, r)

			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", recorder.status,
				"duration", time.Since(start))
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Authenticate verifies the bearer token when present and stores the user id
// in the request context. Requests without a token pass through anonymous;
// handlers that need an identity call [RequireUser].
func Authenticate(verifier *auth.Service) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				respondError(w, shared.ErrNotAuthenticated)
				return
			}

			userID, err := verifier.Verify(token)
			if err != nil {
				respondError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser returns the authenticated user id or writes a 401 and reports
// false.
func RequireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := UserID(r.Context())
	if id == "" {
		respondError(w, shared.ErrNotAuthenticated)
		return "", false
	}
	return id, true
}
