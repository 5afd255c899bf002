package main

//
//  @title           sireview API
//  @version         1.0
//  @description     Systematic Internaliser quarterly review service.
//  @termsOfService  https://github.com/guttosm/sireview
//  @contact.name    API Support
//  @contact.url     https://github.com/guttosm/sireview
//  @contact.email   support@example.com
//  @license.name    MIT
//  @license.url     https://opensource.org/licenses/MIT
//  @host            localhost:8080
//  @BasePath        /
//  @schemes         http
//
//  @tag.name        reviews
//  @tag.description Run SI reviews and query the latest results
//
//  @tag.name        health
//  @tag.description Liveness and readiness probes

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/guttosm/sireview/config"
	_ "github.com/guttosm/sireview/docs" // swagger docs
	"github.com/guttosm/sireview/internal/app"
	"github.com/guttosm/sireview/internal/logger"
	"github.com/guttosm/sireview/internal/storage"
)

// startServer initializes and starts the HTTP server in a separate goroutine.
//
// Parameters:
//   - router (http.Handler): The HTTP router (Gin Engine) configured with all routes.
//   - port (string): The port where the server will listen for incoming requests.
//
// Returns:
//   - *http.Server: The initialized HTTP server instance.
func startServer(router http.Handler, port string) *http.Server {
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		// a review run may take minutes; the router bounds it
		WriteTimeout: 16 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.L().Info().Str("port", port).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L().Fatal().Err(err).Msg("server failed to start")
		}
	}()

	return server
}

// gracefulShutdown gracefully terminates the HTTP server and cleans up resources
// when an OS interrupt signal (SIGINT, SIGTERM) is received.
//
// Parameters:
//   - ctx (context.Context): A context with timeout for graceful shutdown.
//   - server (*http.Server): The HTTP server instance to shut down.
//   - cleanup (func()): Cleanup callback to release resources (e.g., DB connections).
func gracefulShutdown(ctx context.Context, server *http.Server, cleanup func()) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	logger.L().Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.L().Fatal().Err(err).Msg("server forced to shutdown")
	}

	cleanup()
	logger.L().Info().Msg("server exited gracefully")
}

// runReview executes one review from the command line.
//
// With persist set the run is stored in PostgreSQL; otherwise only the
// workbook and summary are written (and published when S3 is configured).
func runReview(ctx context.Context, cfg config.Config, persist bool) error {
	var repo storage.ReviewRepository
	if persist {
		db, err := app.InitPostgres(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()
		repo = storage.NewReviewRepository(db)
	}

	svc, err := app.NewReviewService(ctx, cfg, repo, nil)
	if err != nil {
		return err
	}

	run, err := svc.Run(ctx)
	if err != nil {
		return err
	}

	logger.L().Info().
		Str("run_id", run.ID).
		Int("si_instruments", run.Stats.SIInstruments).
		Strs("outputs", run.Outputs).
		Msg("review completed")
	return nil
}

// main is the entry point of the sireview application.
//
// Modes (selected via --mode flag):
//   - review: Loads the configured feeds, runs one review and writes the reports.
//   - api:    Starts the REST API to trigger runs and query the latest results.
//
// Flags:
//   - --mode:    Execution mode ("review" or "api"). Default: "review".
//   - --out:     Output directory for the workbook and summary. Defaults to OUTPUT_DIR.
//   - --persist: Store the run in PostgreSQL (review mode only).
//   - --port:    Port for the API server. Defaults to value from config (SERVER_PORT).
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration from environment or .env file
	config.LoadConfig()

	// Initialize JSON logger
	logger.Init()

	mode := flag.String("mode", "review", "Mode: review or api")
	out := flag.String("out", config.AppConfig.Review.OutputDir, "Output directory for the review reports")
	persist := flag.Bool("persist", false, "Store the run in PostgreSQL")
	port := flag.String("port", config.AppConfig.Server.Port, "Port for API mode")
	flag.Parse()

	cfg := config.AppConfig
	cfg.Review.OutputDir = *out

	switch *mode {
	case "review":
		logger.L().Info().Bool("persist", *persist).Msg("running review")
		if err := runReview(ctx, cfg, *persist); err != nil {
			logger.L().Fatal().Err(err).Msg("review failed")
		}

	case "api":
		logger.L().Info().Msg("starting API server")
		config.AppConfig = cfg

		router, cleanup, err := app.InitializeApp()
		if err != nil {
			logger.L().Fatal().Err(err).Msg("app init error")
		}

		server := startServer(router, *port)
		gracefulShutdown(context.Background(), server, cleanup)

	default:
		logger.L().Fatal().Str("mode", *mode).Msg("unknown mode")
	}
}
