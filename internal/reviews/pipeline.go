// package reviews wires submission through sentiment scoring and storage.
package reviews

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/charmbracelet/log"

	"github.com/beating-app/beating/internal/models"
	"github.com/beating-app/beating/internal/repositories"
	"github.com/beating-app/beating/internal/sentiment"
	"github.com/beating-app/beating/internal/services"
	"github.com/beating-app/beating/internal/shared"
)

// SubmitInput carries everything a review submission needs. The target is
// named either by id (TargetID set) or by its (Title, Artist) pair, in which
// case the catalog resolver finds or creates the entity.
type SubmitInput struct {
	UserID   string
	Kind     models.TargetKind
	TargetID string
	Title    string
	Artist   string
	Body     string
}

// Service runs the submission pipeline: validate, resolve the catalog
// entity, score the text, persist review and sentiment atomically.
type Service struct {
	reviews    *repositories.ReviewRepository
	catalog    *repositories.CatalogRepository
	classifier *sentiment.Classifier
	lookup     services.Catalog
	logger     *log.Logger
}

// NewService creates a review Service. lookup may be nil when no external
// catalog is configured; entities are then created from user input alone.
func NewService(
	reviews *repositories.ReviewRepository,
	catalog *repositories.CatalogRepository,
	classifier *sentiment.Classifier,
	lookup services.Catalog,
	logger *log.Logger,
) *Service {
	return &Service{
		reviews:    reviews,
		catalog:    catalog,
		classifier: classifier,
		lookup:     lookup,
		logger:     logger,
	}
}

// Submit runs the full pipeline and returns the stored review with its
// sentiment attached. The original body is what gets classified and stored;
// masking happens only when reviews are read back.
func (s *Service) Submit(ctx context.Context, input SubmitInput) (*models.Review, *models.Sentiment, error) {
	if utf8.RuneCountInString(input.Body) < models.MinReviewLength {
		return nil, nil, fmt.Errorf("%w: review body must be at least %d characters",
			shared.ErrValidation, models.MinReviewLength)
	}

	target, err := s.resolveTarget(ctx, input)
	if err != nil {
		return nil, nil, err
	}

	label, score := s.classifier.Classify(ctx, input.Body)

	review := models.NewReview(input.UserID, target, input.Body)
	sent := &models.Sentiment{Label: label, Score: score}

	if err := s.reviews.CreateWithSentiment(ctx, review, sent); err != nil {
		return nil, nil, err
	}

	s.logger.Info("review stored",
		"review", review.ID, "kind", target.Kind(), "label", label, "score", score)

	return review, sent, nil
}

// Delete removes a review owned by the given user.
func (s *Service) Delete(ctx context.Context, reviewID, userID string) error {
	return s.reviews.Delete(ctx, reviewID, userID)
}

func (s *Service) resolveTarget(ctx context.Context, input SubmitInput) (models.Target, error) {
	if input.TargetID != "" {
		if err := s.checkTarget(ctx, input.Kind, input.TargetID); err != nil {
			return models.Target{}, err
		}
		return models.NewTarget(input.Kind, input.TargetID)
	}

	if input.Title == "" || input.Artist == "" {
		return models.Target{}, fmt.Errorf("%w: title and artist are required", shared.ErrValidation)
	}

	id, err := s.catalog.ResolveOrCreate(ctx, input.Kind, input.Title, input.Artist, s.lookup)
	if err != nil {
		return models.Target{}, err
	}

	return models.NewTarget(input.Kind, id)
}

func (s *Service) checkTarget(ctx context.Context, kind models.TargetKind, id string) error {
	switch kind {
	case models.KindSong:
		_, err := s.catalog.GetSong(ctx, id)
		return err
	case models.KindAlbum:
		_, err := s.catalog.GetAlbum(ctx, id)
		return err
	}
	return fmt.Errorf("%w: unknown target kind %q", shared.ErrValidation, kind)
}

// RescoreReport summarizes one re-scoring pass.
type RescoreReport struct {
	Total   int
	Changed int
	Drifted int
}

// driftTolerance is the score delta below which a rescored review is not
// counted as drifted.
const driftTolerance = 0.05

// Rescore re-runs classification over every stored review and rewrites
// sentiments that changed. Reviews whose score moved more than the drift
// tolerance are counted and logged.
func (s *Service) Rescore(ctx context.Context) (*RescoreReport, error) {
	stored, err := s.reviews.ListForRescore(ctx)
	if err != nil {
		return nil, err
	}

	report := &RescoreReport{Total: len(stored)}
	for _, sr := range stored {
		label, score := s.classifier.Classify(ctx, sr.Body)
		if label == sr.Label && score == sr.Score {
			continue
		}

		delta := score - sr.Score
		if delta < 0 {
			delta = -delta
		}
		if delta > driftTolerance {
			report.Drifted++
			s.logger.Warn("sentiment drift",
				"review", sr.ID, "old", sr.Score, "new", score, "delta", delta)
		}

		sent := &models.Sentiment{ReviewID: sr.ID, Label: label, Score: score}
		if err := s.reviews.UpdateSentiment(ctx, sent); err != nil {
			return nil, err
		}
		report.Changed++
	}

	s.logger.Info("rescore complete",
		"total", report.Total, "changed", report.Changed, "drifted", report.Drifted)

	return report, nil
}
