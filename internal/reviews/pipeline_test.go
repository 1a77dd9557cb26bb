package reviews

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/beating-app/beating/internal/models"
	"github.com/beating-app/beating/internal/repositories"
	"github.com/beating-app/beating/internal/sentiment"
	"github.com/beating-app/beating/internal/services"
	"github.com/beating-app/beating/internal/shared"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

// fixedClassifier always returns the same raw classification.
type fixedClassifier struct {
	raw services.RawClassification
}

func (f *fixedClassifier) Warm(ctx context.Context) error { return nil }

func (f *fixedClassifier) Classify(ctx context.Context, text string) (services.RawClassification, error) {
	return f.raw, nil
}

func newTestService(t *testing.T, db *sql.DB, capability services.TextClassifier, initErr error) *Service {
	t.Helper()

	logger := shared.NewLogger(io.Discard)
	classifier := sentiment.NewClassifier(func(ctx context.Context) (services.TextClassifier, error) {
		if initErr != nil {
			return nil, initErr
		}
		return capability, nil
	}, logger)

	return NewService(
		repositories.NewReviewRepository(db),
		repositories.NewCatalogRepository(db, logger),
		classifier,
		nil,
		logger,
	)
}

func createUser(t *testing.T, db *sql.DB, username string) string {
	t.Helper()

	repo := repositories.NewUserRepository(db)
	user := models.NewUser(username, username+"@example.com", "hash")
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user.ID
}

func TestSubmit(t *testing.T) {
	ctx := context.Background()

	t.Run("full pipeline stores review with sentiment", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		svc := newTestService(t, db, &fixedClassifier{raw: services.RawClassification{Label: "positive", Confidence: 0.8}}, nil)
		userID := createUser(t, db, "ana")

		review, sent, err := svc.Submit(ctx, SubmitInput{
			UserID: userID,
			Kind:   models.KindSong,
			Title:  "Yesterday",
			Artist: "The Beatles",
			Body:   "an unforgettable melody",
		})
		if err != nil {
			t.Fatalf("submit failed: %v", err)
		}

		if sent.Label != models.LabelPositive || sent.Score != 0.9 {
			t.Errorf("unexpected sentiment: %s %v", sent.Label, sent.Score)
		}
		if review.Target.Kind() != models.KindSong || review.Target.ID() == "" {
			t.Errorf("unexpected target: %+v", review.Target)
		}
	})

	t.Run("short body is rejected before any side effect", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		svc := newTestService(t, db, &fixedClassifier{}, nil)
		userID := createUser(t, db, "ana")

		_, _, err := svc.Submit(ctx, SubmitInput{
			UserID: userID,
			Kind:   models.KindSong,
			Title:  "Yesterday",
			Artist: "The Beatles",
			Body:   "meh",
		})
		if !errors.Is(err, shared.ErrValidation) {
			t.Fatalf("expected ErrValidation, got %v", err)
		}

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM songs").Scan(&count); err != nil {
			t.Fatalf("count failed: %v", err)
		}
		if count != 0 {
			t.Errorf("expected no catalog entity for rejected review, got %d", count)
		}
	})

	t.Run("degraded classifier stores neutral", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		svc := newTestService(t, db, nil, fmt.Errorf("model unavailable"))
		userID := createUser(t, db, "ana")

		_, sent, err := svc.Submit(ctx, SubmitInput{
			UserID: userID,
			Kind:   models.KindSong,
			Title:  "Yesterday",
			Artist: "The Beatles",
			Body:   "an unforgettable melody",
		})
		if err != nil {
			t.Fatalf("submit must survive a degraded classifier: %v", err)
		}
		if sent.Label != models.LabelNeutral || sent.Score != 0.5 {
			t.Errorf("expected (neutral, 0.5), got (%s, %v)", sent.Label, sent.Score)
		}
	})

	t.Run("second review of same target conflicts", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		svc := newTestService(t, db, &fixedClassifier{raw: services.RawClassification{Label: "neutral"}}, nil)
		userID := createUser(t, db, "ana")

		input := SubmitInput{
			UserID: userID,
			Kind:   models.KindSong,
			Title:  "Yesterday",
			Artist: "The Beatles",
			Body:   "an unforgettable melody",
		}
		if _, _, err := svc.Submit(ctx, input); err != nil {
			t.Fatalf("first submit failed: %v", err)
		}

		_, _, err := svc.Submit(ctx, input)
		if !errors.Is(err, shared.ErrConflict) {
			t.Errorf("expected ErrConflict, got %v", err)
		}
	})

	t.Run("pre-resolved target id must exist", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		svc := newTestService(t, db, &fixedClassifier{raw: services.RawClassification{Label: "neutral"}}, nil)
		userID := createUser(t, db, "ana")

		_, _, err := svc.Submit(ctx, SubmitInput{
			UserID:   userID,
			Kind:     models.KindAlbum,
			TargetID: "ghost",
			Body:     "an unforgettable melody",
		})
		if !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestRescore(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	defer db.Close()

	// submissions scored neutral by a degraded classifier
	degraded := newTestService(t, db, nil, fmt.Errorf("down"))
	userID := createUser(t, db, "ana")

	if _, _, err := degraded.Submit(ctx, SubmitInput{
		UserID: userID,
		Kind:   models.KindSong,
		Title:  "Yesterday",
		Artist: "The Beatles",
		Body:   "an unforgettable melody",
	}); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	// rescoring with a healthy model moves the sentiment
	healthy := newTestService(t, db, &fixedClassifier{raw: services.RawClassification{Label: "positive", Confidence: 0.9}}, nil)

	report, err := healthy.Rescore(ctx)
	if err != nil {
		t.Fatalf("rescore failed: %v", err)
	}

	if report.Total != 1 || report.Changed != 1 {
		t.Errorf("unexpected report: %+v", report)
	}
	if report.Drifted != 1 {
		t.Errorf("a 0.5 -> 0.95 move should count as drift, got %+v", report)
	}

	stored, err := repositories.NewReviewRepository(db).ListForRescore(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if stored[0].Label != models.LabelPositive || stored[0].Score != 0.95 {
		t.Errorf("unexpected stored sentiment: %+v", stored[0])
	}
}
