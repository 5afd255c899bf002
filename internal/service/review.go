package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/guttosm/sireview/internal/domain/models"
	"github.com/guttosm/sireview/internal/ingestion"
	"github.com/guttosm/sireview/internal/logger"
	"github.com/guttosm/sireview/internal/metrics"
	"github.com/guttosm/sireview/internal/report"
	"github.com/guttosm/sireview/internal/review"
	"github.com/guttosm/sireview/internal/storage"
)

// ReviewService defines business logic for running and querying SI reviews.
type ReviewService interface {
	Run(ctx context.Context) (*models.ReviewRun, error)
	Latest(ctx context.Context) (*models.ReviewRun, error)
	Issuer(ctx context.Context, code string) ([]models.IssuerReview, error)
	Instrument(ctx context.Context, isin string) (*models.InstrumentResult, error)
}

// Publisher copies run outputs to durable storage and returns their locations.
type Publisher interface {
	Upload(ctx context.Context, runID string, files []string) ([]string, error)
}

// Deps wires the collaborators of a ReviewService. Repository, Publisher and
// Metrics are optional.
type Deps struct {
	Engine     *review.Engine
	Sources    ingestion.Sources
	OutputDir  string
	Repository storage.ReviewRepository
	Publisher  Publisher
	Metrics    *metrics.Recorder
}

type reviewService struct {
	deps Deps
	load func(context.Context, ingestion.Sources) (review.Input, error)
	now  func() time.Time
	log  zerolog.Logger

	runMu sync.Mutex

	mu         sync.RWMutex
	lastRun    *models.ReviewRun
	lastResult *models.ReviewResult
}

// NewReviewService creates a new ReviewService instance.
//
// Parameters:
//   - deps: engine, sources and output dir are required; Repository,
//     Publisher and Metrics may be nil.
//
// Returns:
//   - ReviewService: the interface for running and querying reviews.
func NewReviewService(deps Deps) ReviewService {
	return &reviewService{
		deps: deps,
		load: ingestion.Load,
		now:  time.Now,
		log:  logger.With("service"),
	}
}

// Run executes one review over the configured sources.
//
// Behavior:
//   - Runs are serialized; a second caller waits for the first to finish.
//   - Steps: load feeds, evaluate, stage workbook + summary, publish, persist,
//     then move the staged files over the previous ones.
//   - Any failing step fails the run, leaves the output dir untouched and is
//     counted in review_runs_total{status="failure"}.
//   - Published URIs are appended to the run outputs before persisting.
//
// Returns:
//   - *models.ReviewRun: the run record, also kept as the latest in-memory run.
//   - error: the first failing step, wrapped.
func (s *reviewService) Run(ctx context.Context) (*models.ReviewRun, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	started := s.now()
	run, res, err := s.run(ctx, started)
	elapsed := s.now().Sub(started)
	if err != nil {
		s.deps.Metrics.ObserveFailure(elapsed)
		s.log.Error().Err(err).Dur("elapsed", elapsed).Msg("review run failed")
		return nil, err
	}
	s.deps.Metrics.ObserveRun(elapsed, res)

	s.mu.Lock()
	s.lastRun, s.lastResult = run, res
	s.mu.Unlock()

	s.log.Info().
		Str("run_id", run.ID).
		Int("instruments", len(res.Instruments)).
		Int("issuers", len(res.Issuers)).
		Int("si_instruments", res.Stats.SIInstruments).
		Dur("elapsed", elapsed).
		Msg("review run completed")
	return run, nil
}

func (s *reviewService) run(ctx context.Context, started time.Time) (*models.ReviewRun, *models.ReviewResult, error) {
	runID := uuid.NewString()

	in, err := s.load(ctx, s.deps.Sources)
	if err != nil {
		return nil, nil, fmt.Errorf("load inputs: %w", err)
	}
	res, err := s.deps.Engine.Run(ctx, in)
	if err != nil {
		return nil, nil, fmt.Errorf("evaluate: %w", err)
	}
	staged, err := report.Stage(s.deps.OutputDir, res)
	if err != nil {
		return nil, nil, fmt.Errorf("write outputs: %w", err)
	}
	defer staged.Discard()

	outputs := append([]string(nil), staged.Outputs()...)
	if s.deps.Publisher != nil {
		uris, err := s.deps.Publisher.Upload(ctx, runID, staged.Files())
		if err != nil {
			return nil, nil, fmt.Errorf("publish outputs: %w", err)
		}
		outputs = append(outputs, uris...)
	}

	run := &models.ReviewRun{
		ID:               runID,
		StartedAt:        started.UTC(),
		FinishedAt:       s.now().UTC(),
		ExemptionVersion: s.deps.Engine.Table().Version(),
		Periods:          res.Periods,
		Stats:            res.Stats,
		Outputs:          outputs,
	}

	if s.deps.Repository != nil {
		if err := s.deps.Repository.SaveRun(ctx, *run, res); err != nil {
			return nil, nil, fmt.Errorf("persist run: %w", err)
		}
	}
	if err := staged.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit outputs: %w", err)
	}
	return run, res, nil
}

// Latest returns the most recent run, from the repository when one is wired.
func (s *reviewService) Latest(ctx context.Context) (*models.ReviewRun, error) {
	if s.deps.Repository != nil {
		return s.deps.Repository.LatestRun(ctx)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastRun == nil {
		return nil, storage.ErrNotFound
	}
	return s.lastRun, nil
}

// Issuer returns the latest run's reviews for an issuer code.
func (s *reviewService) Issuer(ctx context.Context, code string) ([]models.IssuerReview, error) {
	if s.deps.Repository != nil {
		run, err := s.deps.Repository.LatestRun(ctx)
		if err != nil {
			return nil, err
		}
		return s.deps.Repository.GetIssuerReview(ctx, run.ID, code)
	}

	res, err := s.latestResult()
	if err != nil {
		return nil, err
	}
	var out []models.IssuerReview
	for _, is := range res.Issuers {
		if is.IssuerCode == code {
			out = append(out, is)
		}
	}
	if len(out) == 0 {
		return nil, storage.ErrNotFound
	}
	return out, nil
}

// Instrument returns the latest run's result for an ISIN.
func (s *reviewService) Instrument(ctx context.Context, isin string) (*models.InstrumentResult, error) {
	isin = review.NormalizeInstrument(isin)
	if s.deps.Repository != nil {
		run, err := s.deps.Repository.LatestRun(ctx)
		if err != nil {
			return nil, err
		}
		return s.deps.Repository.GetInstrumentResult(ctx, run.ID, isin)
	}

	res, err := s.latestResult()
	if err != nil {
		return nil, err
	}
	for i := range res.Instruments {
		if res.Instruments[i].InstrumentID == isin {
			inst := res.Instruments[i]
			return &inst, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *reviewService) latestResult() (*models.ReviewResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastResult == nil {
		return nil, storage.ErrNotFound
	}
	return s.lastResult, nil
}

// IsNotFound reports whether err means the requested run or entity does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, storage.ErrNotFound)
}
