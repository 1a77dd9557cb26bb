package server

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/beating-app/beating/internal/shared"
)

// newTestApp builds an App over an in-memory database. No inference URL is
// configured, so every submission is scored neutral.
func newTestApp(t *testing.T) (*App, *sql.DB) {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	config := shared.DefaultConfig()
	config.Auth.Secret = "test-secret"

	return NewApp(config, db, shared.NewLogger(io.Discard)), db
}

// doJSON performs a request against the app router and decodes the response.
func doJSON(t *testing.T, app *App, method, path, token string, body any, out any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	recorder := httptest.NewRecorder()
	app.Router().ServeHTTP(recorder, req)

	if out != nil && recorder.Body.Len() > 0 {
		if err := json.Unmarshal(recorder.Body.Bytes(), out); err != nil {
			t.Fatalf("failed to decode response %q: %v", recorder.Body.String(), err)
		}
	}

	return recorder
}

// registerAndLogin creates an account and returns its token and user id.
func registerAndLogin(t *testing.T, app *App, username string) (token, userID string) {
	t.Helper()

	email := username + "@example.com"
	rec := doJSON(t, app, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": username,
		"email":    email,
		"password": "correct horse",
	}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register returned %d: %s", rec.Code, rec.Body.String())
	}

	var login struct {
		Token string `json:"token"`
		User  struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	rec = doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    email,
		"password": "correct horse",
	}, &login)
	if rec.Code != http.StatusOK {
		t.Fatalf("login returned %d: %s", rec.Code, rec.Body.String())
	}

	return login.Token, login.User.ID
}

func submitReview(t *testing.T, app *App, token, title, body string) map[string]any {
	t.Helper()

	var created map[string]any
	rec := doJSON(t, app, http.MethodPost, "/api/reviews", token, map[string]string{
		"kind":   "song",
		"title":  title,
		"artist": "Test Artist",
		"body":   body,
	}, &created)
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit returned %d: %s", rec.Code, rec.Body.String())
	}

	return created
}

func TestAuthEndpoints(t *testing.T) {
	t.Run("register login me", func(t *testing.T) {
		app, db := newTestApp(t)
		defer db.Close()

		token, userID := registerAndLogin(t, app, "ana")

		var me map[string]any
		rec := doJSON(t, app, http.MethodGet, "/api/auth/me", token, nil, &me)
		if rec.Code != http.StatusOK {
			t.Fatalf("me returned %d", rec.Code)
		}
		if me["id"] != userID || me["username"] != "ana" {
			t.Errorf("unexpected profile: %v", me)
		}
	})

	t.Run("me without token is unauthorized", func(t *testing.T) {
		app, db := newTestApp(t)
		defer db.Close()

		rec := doJSON(t, app, http.MethodGet, "/api/auth/me", "", nil, nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("bad credentials are unauthorized", func(t *testing.T) {
		app, db := newTestApp(t)
		defer db.Close()

		registerAndLogin(t, app, "ana")

		rec := doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
			"email":    "ana@example.com",
			"password": "wrong horse",
		}, nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
	})
}

func TestReviewEndpoints(t *testing.T) {
	t.Run("submission stores neutral when classifier is down", func(t *testing.T) {
		app, db := newTestApp(t)
		defer db.Close()

		token, _ := registerAndLogin(t, app, "ana")
		created := submitReview(t, app, token, "Yesterday", "an unforgettable melody")

		if created["label"] != "neutral" {
			t.Errorf("expected neutral label, got %v", created["label"])
		}
		if created["score"] != 0.5 {
			t.Errorf("expected score 0.5, got %v", created["score"])
		}
		if created["rating"] != 2.5 {
			t.Errorf("expected display rating 2.5, got %v", created["rating"])
		}
	})

	t.Run("short body is a bad request", func(t *testing.T) {
		app, db := newTestApp(t)
		defer db.Close()

		token, _ := registerAndLogin(t, app, "ana")

		rec := doJSON(t, app, http.MethodPost, "/api/reviews", token, map[string]string{
			"kind":   "song",
			"title":  "Yesterday",
			"artist": "Test Artist",
			"body":   "meh",
		}, nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("duplicate review conflicts", func(t *testing.T) {
		app, db := newTestApp(t)
		defer db.Close()

		token, _ := registerAndLogin(t, app, "ana")
		submitReview(t, app, token, "Yesterday", "an unforgettable melody")

		rec := doJSON(t, app, http.MethodPost, "/api/reviews", token, map[string]string{
			"kind":   "song",
			"title":  "Yesterday",
			"artist": "Test Artist",
			"body":   "changed my mind entirely",
		}, nil)
		if rec.Code != http.StatusConflict {
			t.Errorf("expected 409, got %d", rec.Code)
		}
	})

	t.Run("anonymous submission is unauthorized", func(t *testing.T) {
		app, db := newTestApp(t)
		defer db.Close()

		rec := doJSON(t, app, http.MethodPost, "/api/reviews", "", map[string]string{
			"kind":   "song",
			"title":  "Yesterday",
			"artist": "Test Artist",
			"body":   "an unforgettable melody",
		}, nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("read path masks profanity", func(t *testing.T) {
		app, db := newTestApp(t)
		defer db.Close()

		token, _ := registerAndLogin(t, app, "ana")
		created := submitReview(t, app, token, "Sweary", "this shit is honestly great")

		var fetched map[string]any
		rec := doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/reviews/%v", created["id"]), "", nil, &fetched)
		if rec.Code != http.StatusOK {
			t.Fatalf("get returned %d", rec.Code)
		}
		if fetched["body"] != "this **** is honestly great" {
			t.Errorf("expected masked body, got %v", fetched["body"])
		}
	})

	t.Run("delete own review", func(t *testing.T) {
		app, db := newTestApp(t)
		defer db.Close()

		token, _ := registerAndLogin(t, app, "ana")
		created := submitReview(t, app, token, "Yesterday", "an unforgettable melody")

		rec := doJSON(t, app, http.MethodDelete, fmt.Sprintf("/api/reviews/%v", created["id"]), token, nil, nil)
		if rec.Code != http.StatusNoContent {
			t.Errorf("expected 204, got %d", rec.Code)
		}

		rec = doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/reviews/%v", created["id"]), "", nil, nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404 after delete, got %d", rec.Code)
		}
	})
}

func TestExploreEndpoints(t *testing.T) {
	app, db := newTestApp(t)
	defer db.Close()

	tokenA, _ := registerAndLogin(t, app, "ana")
	tokenB, _ := registerAndLogin(t, app, "ben")

	submitReview(t, app, tokenA, "Shared Favorite", "an unforgettable melody")
	submitReview(t, app, tokenB, "Shared Favorite", "still holds up perfectly")
	submitReview(t, app, tokenA, "Other Song", "perfectly fine I suppose")

	t.Run("top songs ranked with excerpts", func(t *testing.T) {
		var items []map[string]any
		rec := doJSON(t, app, http.MethodGet, "/api/explore/top-songs", "", nil, &items)
		if rec.Code != http.StatusOK {
			t.Fatalf("top-songs returned %d", rec.Code)
		}
		if len(items) != 2 {
			t.Fatalf("expected 2 items, got %d", len(items))
		}
		// same average, review count breaks the tie
		if items[0]["title"] != "Shared Favorite" {
			t.Errorf("expected Shared Favorite first, got %v", items[0]["title"])
		}
		if items[0]["excerpt"] == "" {
			t.Error("expected a representative excerpt")
		}
		if items[0]["rating"] != 2.5 {
			t.Errorf("expected rating 2.5, got %v", items[0]["rating"])
		}
	})

	t.Run("representative review by criterion", func(t *testing.T) {
		var items []map[string]any
		doJSON(t, app, http.MethodGet, "/api/explore/top-songs", "", nil, &items)
		id := items[0]["id"]

		var best map[string]any
		rec := doJSON(t, app, http.MethodGet,
			fmt.Sprintf("/api/explore/items/song/%v/review?criterion=most_recent", id), "", nil, &best)
		if rec.Code != http.StatusOK {
			t.Fatalf("representative review returned %d", rec.Code)
		}
		if best["body"] != "still holds up perfectly" {
			t.Errorf("expected the newest review, got %v", best["body"])
		}
	})

	t.Run("unknown criterion is a bad request", func(t *testing.T) {
		var items []map[string]any
		doJSON(t, app, http.MethodGet, "/api/explore/top-songs", "", nil, &items)
		id := items[0]["id"]

		rec := doJSON(t, app, http.MethodGet,
			fmt.Sprintf("/api/explore/items/song/%v/review?criterion=best_vibes", id), "", nil, nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})
}

func TestSocialEndpoints(t *testing.T) {
	app, db := newTestApp(t)
	defer db.Close()

	tokenA, _ := registerAndLogin(t, app, "ana")
	tokenB, benID := registerAndLogin(t, app, "ben")

	t.Run("follow then feed", func(t *testing.T) {
		rec := doJSON(t, app, http.MethodPost, "/api/follows", tokenA, map[string]string{"user_id": benID}, nil)
		if rec.Code != http.StatusCreated {
			t.Fatalf("follow returned %d: %s", rec.Code, rec.Body.String())
		}

		submitReview(t, app, tokenB, "Feed Song", "had this on repeat all week")

		var feed []map[string]any
		rec = doJSON(t, app, http.MethodGet, "/api/feed", tokenA, nil, &feed)
		if rec.Code != http.StatusOK {
			t.Fatalf("feed returned %d", rec.Code)
		}
		if len(feed) != 1 || feed[0]["username"] != "ben" {
			t.Errorf("unexpected feed: %v", feed)
		}
	})

	t.Run("duplicate follow conflicts", func(t *testing.T) {
		rec := doJSON(t, app, http.MethodPost, "/api/follows", tokenA, map[string]string{"user_id": benID}, nil)
		if rec.Code != http.StatusConflict {
			t.Errorf("expected 409, got %d", rec.Code)
		}
	})

	t.Run("playlists", func(t *testing.T) {
		created := submitReview(t, app, tokenA, "Playlist Song", "an unforgettable melody")
		songID := created["target_id"]

		var playlist map[string]any
		rec := doJSON(t, app, http.MethodPost, "/api/playlists", tokenA, map[string]any{
			"name":     "favorites",
			"song_ids": []any{songID},
		}, &playlist)
		if rec.Code != http.StatusCreated {
			t.Fatalf("create playlist returned %d: %s", rec.Code, rec.Body.String())
		}

		var listed []map[string]any
		rec = doJSON(t, app, http.MethodGet, "/api/playlists", tokenA, nil, &listed)
		if rec.Code != http.StatusOK {
			t.Fatalf("list playlists returned %d", rec.Code)
		}
		if len(listed) != 1 || listed[0]["song_count"] != float64(1) {
			t.Errorf("unexpected playlists: %v", listed)
		}
	})

	t.Run("playlist from top songs", func(t *testing.T) {
		var playlist map[string]any
		rec := doJSON(t, app, http.MethodPost, "/api/playlists", tokenA, map[string]any{
			"name":     "chart toppers",
			"from_top": 5,
		}, &playlist)
		if rec.Code != http.StatusCreated {
			t.Fatalf("create playlist returned %d: %s", rec.Code, rec.Body.String())
		}
		songIDs, ok := playlist["song_ids"].([]any)
		if !ok || len(songIDs) == 0 {
			t.Errorf("expected seeded song_ids, got %v", playlist["song_ids"])
		}
	})
}

func TestStatsAndHealth(t *testing.T) {
	app, db := newTestApp(t)
	defer db.Close()

	token, _ := registerAndLogin(t, app, "ana")
	submitReview(t, app, token, "Yesterday", "an unforgettable melody")

	t.Run("home stats", func(t *testing.T) {
		var stats map[string]any
		rec := doJSON(t, app, http.MethodGet, "/api/stats/home", "", nil, &stats)
		if rec.Code != http.StatusOK {
			t.Fatalf("home returned %d", rec.Code)
		}
		if stats["reviews"] != float64(1) || stats["songs"] != float64(1) {
			t.Errorf("unexpected stats: %v", stats)
		}
	})

	t.Run("distribution", func(t *testing.T) {
		var dist map[string]any
		rec := doJSON(t, app, http.MethodGet, "/api/stats/distribution", "", nil, &dist)
		if rec.Code != http.StatusOK {
			t.Fatalf("distribution returned %d", rec.Code)
		}
		neutral, _ := dist["neutral"].(map[string]any)
		if neutral["count"] != float64(1) || dist["total"] != float64(1) {
			t.Errorf("unexpected distribution: %v", dist)
		}
		if _, ok := dist["positive"]; ok {
			t.Error("positive group should be absent when nobody used it")
		}
		if _, ok := dist["negative"]; ok {
			t.Error("negative group should be absent when nobody used it")
		}
	})

	t.Run("healthz", func(t *testing.T) {
		var health map[string]string
		rec := doJSON(t, app, http.MethodGet, "/api/healthz", "", nil, &health)
		if rec.Code != http.StatusOK {
			t.Fatalf("healthz returned %d", rec.Code)
		}
		if health["status"] != "ok" {
			t.Errorf("unexpected health payload: %v", health)
		}
	})
}
