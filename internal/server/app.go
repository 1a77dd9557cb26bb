package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/beating-app/beating/internal/analytics"
	"github.com/beating-app/beating/internal/auth"
	"github.com/beating-app/beating/internal/repositories"
	"github.com/beating-app/beating/internal/reviews"
	"github.com/beating-app/beating/internal/sentiment"
	"github.com/beating-app/beating/internal/services"
	"github.com/beating-app/beating/internal/shared"
)

// App wires repositories, services and handlers into one HTTP application.
type App struct {
	config *shared.Config
	db     *sql.DB
	logger *log.Logger
	router *BasicRouter

	Reviews *reviews.Service
	Engine  *analytics.Engine
}

// NewApp builds the application graph. The external catalog is only wired
// when Spotify credentials are configured; the classifier stays lazy until
// the first submission needs it.
func NewApp(config *shared.Config, db *sql.DB, logger *log.Logger) *App {
	userRepo := repositories.NewUserRepository(db)
	catalogRepo := repositories.NewCatalogRepository(db, logger)
	reviewRepo := repositories.NewReviewRepository(db)
	followRepo := repositories.NewFollowRepository(db)
	playlistRepo := repositories.NewPlaylistRepository(db)

	var lookup services.Catalog
	if config.Credentials.Spotify.ClientID != "" {
		catalog, err := services.NewSpotifyCatalog(
			config.Credentials.Spotify.ClientID, config.Credentials.Spotify.ClientSecret)
		if err != nil {
			logger.Warn("catalog client unavailable, entities will not be enriched", "err", err)
		} else {
			lookup = catalog
		}
	} else {
		logger.Warn("no catalog credentials, entities will not be enriched")
	}

	var inferenceClient *http.Client
	if config.Inference.TimeoutSeconds > 0 {
		inferenceClient = &http.Client{Timeout: time.Duration(config.Inference.TimeoutSeconds) * time.Second}
	}
	classifier := sentiment.NewClassifier(func(ctx context.Context) (services.TextClassifier, error) {
		svc := services.NewInferenceService(config.Inference.BaseURL, inferenceClient)
		if err := svc.Warm(ctx); err != nil {
			return nil, err
		}
		return svc, nil
	}, logger)

	reviewService := reviews.NewService(reviewRepo, catalogRepo, classifier, lookup, logger)
	authService := auth.NewService(userRepo, config.Auth)
	engine := analytics.NewEngine(db)

	router := NewBasicRouter()
	router.Use(RequestLogger(logger), Authenticate(authService))

	router.Handler(NewAuthHandler(authService, userRepo))
	router.Handler(NewReviewHandler(reviewService, reviewRepo, followRepo))
	router.Handler(NewExploreHandler(engine))
	router.Handler(NewStatsHandler(engine))
	router.Handler(NewSocialHandler(followRepo, playlistRepo, engine))

	router.Handle("GET /api/healthz", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			respondError(w, fmt.Errorf("database unreachable: %w", err))
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}))

	return &App{
		config:  config,
		db:      db,
		logger:  logger,
		router:  router,
		Reviews: reviewService,
		Engine:  engine,
	}
}

// Router returns the configured router, mainly for tests.
func (a *App) Router() http.Handler {
	return a.router
}

// ListenAndServe runs the HTTP server until the context is canceled, then
// shuts down gracefully.
func (a *App) ListenAndServe(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", a.config.Server.Host, a.config.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      a.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
