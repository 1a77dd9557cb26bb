package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/beating-app/beating/internal/shared"
)

func TestInferenceService(t *testing.T) {
	t.Run("warm and classify against a healthy service", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/health":
				w.WriteHeader(http.StatusOK)
			case "/classify":
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`{"label": "positive", "confidence": 0.92}`))
			default:
				w.WriteHeader(http.StatusNotFound)
			}
		}))
		defer server.Close()

		svc := NewInferenceService(server.URL, nil)

		if err := svc.Warm(context.Background()); err != nil {
			t.Fatalf("warm failed: %v", err)
		}

		raw, err := svc.Classify(context.Background(), "me encanta este disco")
		if err != nil {
			t.Fatalf("classify failed: %v", err)
		}
		if raw.Label != "positive" || raw.Confidence != 0.92 {
			t.Errorf("unexpected classification: %+v", raw)
		}
	})

	t.Run("unhealthy service fails warm-up", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		svc := NewInferenceService(server.URL, nil)
		err := svc.Warm(context.Background())
		if err == nil {
			t.Fatal("expected warm-up to fail")
		}
		if !errors.Is(err, shared.ErrClassifierDegraded) {
			t.Errorf("expected a degraded-classifier error, got %v", err)
		}
	})

	t.Run("server errors surface from classify", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		svc := NewInferenceService(server.URL, nil)
		_, err := svc.Classify(context.Background(), "whatever")
		if err == nil {
			t.Fatal("expected classify to fail")
		}
		if !errors.Is(err, shared.ErrClassifierDegraded) {
			t.Errorf("expected a degraded-classifier error, got %v", err)
		}
	})

	t.Run("missing base URL errors", func(t *testing.T) {
		svc := NewInferenceService("", nil)

		if err := svc.Warm(context.Background()); err == nil {
			t.Error("expected warm-up to fail without a base URL")
		}
		if _, err := svc.Classify(context.Background(), "text"); err == nil {
			t.Error("expected classify to fail without a base URL")
		}
	})
}
