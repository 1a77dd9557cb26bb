package sentiment

import (
	"context"
	"math"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/beating-app/beating/internal/models"
	"github.com/beating-app/beating/internal/services"
)

// Classifier maps the raw output of a pluggable text classifier onto the
// domain's three-way taxonomy and its unified [0,1] score.
//
// The underlying capability is initialized lazily, exactly once, on the
// first Classify call. A capability that cannot be initialized, or that
// fails on a given input, degrades that call to (neutral, 0.5): a broken
// model must never block review submission.
type Classifier struct {
	provider func(ctx context.Context) (services.TextClassifier, error)
	logger   *log.Logger

	once       sync.Once
	capability services.TextClassifier
}

// NewClassifier creates a Classifier around a capability provider. The
// provider runs at most once, on first use; it should perform any slow
// model warm-up.
func NewClassifier(provider func(ctx context.Context) (services.TextClassifier, error), logger *log.Logger) *Classifier {
	return &Classifier{provider: provider, logger: logger}
}

// init resolves the capability exactly once. Concurrent first calls block
// on the same sync.Once, so the provider can never run twice.
func (c *Classifier) init(ctx context.Context) services.TextClassifier {
	c.once.Do(func() {
		capability, err := c.provider(ctx)
		if err != nil {
			c.logger.Warn("classifier initialization failed, degrading to neutral", "err", err)
			return
		}
		c.capability = capability
	})
	return c.capability
}

// Classify scores text. The emoji expansion and whitespace normalization
// happen here, on the way into the model; callers persist the original text.
func (c *Classifier) Classify(ctx context.Context, text string) (models.Label, float64) {
	capability := c.init(ctx)
	if capability == nil {
		return models.LabelNeutral, 0.5
	}

	normalized := Normalize(text)

	raw, err := capability.Classify(ctx, normalized.Text)
	if err != nil {
		c.logger.Warn("classification failed, degrading to neutral", "err", err, "lang", normalized.LanguageHint)
		return models.LabelNeutral, 0.5
	}

	return mapScore(raw)
}

// mapScore collapses the raw label space into the three buckets and remaps
// confidence so that 0.5 always means neutral and higher is always more
// positive, regardless of the underlying model's label space:
//
//	positive -> 0.5 + 0.5*confidence
//	negative -> 0.5*confidence
//	neutral  -> 0.5
func mapScore(raw services.RawClassification) (models.Label, float64) {
	confidence := raw.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	switch strings.ToLower(strings.TrimSpace(raw.Label)) {
	case "pos", "positive", "positivo":
		return models.LabelPositive, round2(0.5 + confidence*0.5)
	case "neg", "negative", "negativo":
		return models.LabelNegative, round2(confidence * 0.5)
	default:
		return models.LabelNeutral, 0.5
	}
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
