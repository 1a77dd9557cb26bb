package sentiment

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/beating-app/beating/internal/models"
	"github.com/beating-app/beating/internal/services"
	"github.com/beating-app/beating/internal/shared"
)

// stubClassifier returns a fixed raw classification or error.
type stubClassifier struct {
	raw      services.RawClassification
	err      error
	lastText string
}

func (s *stubClassifier) Warm(ctx context.Context) error { return nil }

func (s *stubClassifier) Classify(ctx context.Context, text string) (services.RawClassification, error) {
	s.lastText = text
	return s.raw, s.err
}

func newTestClassifier(stub services.TextClassifier, providerErr error) *Classifier {
	return NewClassifier(func(ctx context.Context) (services.TextClassifier, error) {
		if providerErr != nil {
			return nil, providerErr
		}
		return stub, nil
	}, shared.NewLogger(io.Discard))
}

func TestClassifierScoreMapping(t *testing.T) {
	tests := []struct {
		name       string
		rawLabel   string
		confidence float64
		wantLabel  models.Label
		wantScore  float64
	}{
		{"certain positive", "positive", 1.0, models.LabelPositive, 1.0},
		{"confident positive", "positive", 0.8, models.LabelPositive, 0.9},
		{"weak positive", "pos", 0.2, models.LabelPositive, 0.6},
		{"certain negative", "negative", 1.0, models.LabelNegative, 0.5},
		{"confident negative", "negative", 0.8, models.LabelNegative, 0.4},
		{"weak negative", "neg", 0.2, models.LabelNegative, 0.1},
		{"neutral ignores confidence", "neutral", 0.9, models.LabelNeutral, 0.5},
		{"spanish positive alias", "POSITIVO", 0.6, models.LabelPositive, 0.8},
		{"spanish negative alias", "Negativo", 0.6, models.LabelNegative, 0.3},
		{"unknown label is neutral", "mixed", 0.7, models.LabelNeutral, 0.5},
		{"confidence clamped high", "positive", 1.7, models.LabelPositive, 1.0},
		{"confidence clamped low", "negative", -0.3, models.LabelNegative, 0.0},
		{"score rounded to two decimals", "positive", 0.333, models.LabelPositive, 0.67},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubClassifier{raw: services.RawClassification{Label: tt.rawLabel, Confidence: tt.confidence}}
			c := newTestClassifier(stub, nil)

			label, score := c.Classify(context.Background(), "a perfectly ordinary review body")

			if label != tt.wantLabel {
				t.Errorf("expected label %s, got %s", tt.wantLabel, label)
			}
			if score != tt.wantScore {
				t.Errorf("expected score %v, got %v", tt.wantScore, score)
			}
		})
	}
}

func TestClassifierDegradation(t *testing.T) {
	t.Run("provider failure degrades to neutral", func(t *testing.T) {
		c := newTestClassifier(nil, fmt.Errorf("model unavailable"))

		label, score := c.Classify(context.Background(), "this album is incredible")

		if label != models.LabelNeutral || score != 0.5 {
			t.Errorf("expected (neutral, 0.5), got (%s, %v)", label, score)
		}
	})

	t.Run("classification failure degrades to neutral", func(t *testing.T) {
		stub := &stubClassifier{err: fmt.Errorf("timeout")}
		c := newTestClassifier(stub, nil)

		label, score := c.Classify(context.Background(), "this album is incredible")

		if label != models.LabelNeutral || score != 0.5 {
			t.Errorf("expected (neutral, 0.5), got (%s, %v)", label, score)
		}
	})

	t.Run("provider runs at most once", func(t *testing.T) {
		calls := 0
		c := NewClassifier(func(ctx context.Context) (services.TextClassifier, error) {
			calls++
			return nil, fmt.Errorf("still down")
		}, shared.NewLogger(io.Discard))

		c.Classify(context.Background(), "first attempt goes to the provider")
		c.Classify(context.Background(), "second attempt must not retry init")

		if calls != 1 {
			t.Errorf("expected 1 provider call, got %d", calls)
		}
	})
}

func TestClassifierNormalizesInput(t *testing.T) {
	stub := &stubClassifier{raw: services.RawClassification{Label: "positive", Confidence: 0.9}}
	c := newTestClassifier(stub, nil)

	c.Classify(context.Background(), "esta canción 😍")

	if stub.lastText != "esta canción me encanta" {
		t.Errorf("expected emoji expanded before classification, got %q", stub.lastText)
	}
}
