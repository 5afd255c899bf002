package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/sireview/config"
	"github.com/guttosm/sireview/internal/api"
	"github.com/guttosm/sireview/internal/metrics"
	"github.com/guttosm/sireview/internal/middleware"
	"github.com/guttosm/sireview/internal/storage"
)

// InitializeApp sets up all application dependencies and returns
// a fully configured Gin router, a cleanup function for graceful shutdown,
// and any error encountered during initialization.
//
// Responsibilities:
//   - Connects to PostgreSQL and builds the review repository.
//   - Builds the review service (exemption table, engine, optional S3 publisher).
//   - Applies the configured per-client rate limit.
//   - Configures the Gin router with review routes and /metrics.
//   - Registers health and readiness probes.
//
// Returns:
//   - *gin.Engine: the configured Gin HTTP router.
//   - func(): cleanup function to be executed on shutdown.
//   - error: any initialization error that occurred.
func InitializeApp() (*gin.Engine, func(), error) {
	cfg := config.AppConfig

	db, err := postgresOpener(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize postgres: %w", err)
	}

	repo := storage.NewReviewRepository(db)
	rec := metrics.New()

	svc, err := NewReviewService(context.Background(), cfg, repo, rec)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	middleware.SetRateLimit(cfg.RateLimit.RPS, cfg.RateLimit.Burst)

	handler := api.NewHandler(svc)
	router := api.NewRouter(handler, rec.Handler())

	api.NewHealthHandler(db.PingContext).Register(router)

	cleanup := func() {
		_ = db.Close()
	}

	return router, cleanup, nil
}
