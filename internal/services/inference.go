// Inference service client implementing [TextClassifier] over HTTP
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/beating-app/beating/internal/shared"
)

// InferenceService calls a remote text-classification API.
// The API contract is POST /classify with {"text": ...} returning
// {"label": ..., "confidence": ...}, plus GET /health for warm-up.
type InferenceService struct {
	baseURL    string
	httpClient *http.Client
}

// NewInferenceService creates a classifier client for the given base URL.
// An empty baseURL yields a client whose calls always fail, which the
// sentiment layer absorbs as a degraded classifier.
func NewInferenceService(baseURL string, client *http.Client) *InferenceService {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}

	return &InferenceService{
		baseURL:    baseURL,
		httpClient: client,
	}
}

// Warm hits the health endpoint so the remote model loads before the first
// classification. Model warm-up can be slow; the request honors ctx.
func (s *InferenceService) Warm(ctx context.Context) error {
	if s.baseURL == "" {
		return fmt.Errorf("%w: inference base URL not configured", shared.ErrMissingConfig)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: warm-up request failed: %v", shared.ErrClassifierDegraded, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: unhealthy, status %d", shared.ErrClassifierDegraded, resp.StatusCode)
	}

	return nil
}

// Classify sends text to the inference API and returns the raw result.
func (s *InferenceService) Classify(ctx context.Context, text string) (RawClassification, error) {
	var result RawClassification

	if s.baseURL == "" {
		return result, fmt.Errorf("%w: inference base URL not configured", shared.ErrMissingConfig)
	}

	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return result, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/classify", bytes.NewReader(payload))
	if err != nil {
		return result, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return result, fmt.Errorf("%w: request failed: %v", shared.ErrClassifierDegraded, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return result, fmt.Errorf("%w: status %d", shared.ErrClassifierDegraded, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return result, fmt.Errorf("%w: undecodable response: %v", shared.ErrClassifierDegraded, err)
	}

	return result, nil
}
