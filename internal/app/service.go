package app

import (
	"context"
	"fmt"

	"github.com/guttosm/sireview/config"
	"github.com/guttosm/sireview/internal/exemption"
	"github.com/guttosm/sireview/internal/ingestion"
	"github.com/guttosm/sireview/internal/logger"
	"github.com/guttosm/sireview/internal/metrics"
	"github.com/guttosm/sireview/internal/publish"
	"github.com/guttosm/sireview/internal/review"
	"github.com/guttosm/sireview/internal/service"
	"github.com/guttosm/sireview/internal/storage"
)

// NewReviewService assembles the review pipeline from cfg.
//
// Parameters:
//   - ctx: used while resolving the AWS configuration.
//   - cfg: input paths, exemption file, output dir, worker count and S3 settings.
//   - repo: optional; nil keeps results in memory only.
//   - rec: optional metrics recorder.
//
// Returns:
//   - service.ReviewService ready to Run.
//   - error: exemption table or S3 client failures.
func NewReviewService(ctx context.Context, cfg config.Config, repo storage.ReviewRepository, rec *metrics.Recorder) (service.ReviewService, error) {
	table, err := exemption.Load(cfg.Review.ExemptionsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load exemption table: %w", err)
	}

	engine := review.NewEngine(table,
		review.WithWorkers(cfg.Review.Workers),
		review.WithLogger(logger.With("review")),
	)

	deps := service.Deps{
		Engine: engine,
		Sources: ingestion.Sources{
			Trades:       cfg.Review.TradesPath,
			IssuerMaster: cfg.Review.IssuerMasterPath,
			Reference:    cfg.Review.ReferencePath,
		},
		OutputDir:  cfg.Review.OutputDir,
		Repository: repo,
		Metrics:    rec,
	}

	uploader, err := publish.NewUploader(ctx, publish.Options{
		Bucket:          cfg.S3.Bucket,
		Region:          cfg.S3.Region,
		Prefix:          cfg.S3.Prefix,
		Endpoint:        cfg.S3.Endpoint,
		PathStyle:       cfg.S3.PathStyle,
		AccessKeyID:     cfg.S3.AccessKeyID,
		SecretAccessKey: cfg.S3.SecretAccessKey,
	})
	if err != nil {
		return nil, err
	}
	if uploader != nil {
		deps.Publisher = uploader
	}

	logger.L().Info().
		Str("exemption_version", table.Version()).
		Int("exemption_count", table.Len()).
		Strs("exemption_codes", table.Codes()).
		Bool("persist", repo != nil).
		Bool("publish", uploader != nil).
		Msg("review service ready")

	return service.NewReviewService(deps), nil
}
