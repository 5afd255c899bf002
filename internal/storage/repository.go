package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	pq "github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/guttosm/sireview/internal/domain/models"
	"github.com/guttosm/sireview/internal/period"
)

// ErrNotFound is returned when a run, issuer or instrument has no stored rows.
var ErrNotFound = errors.New("not found")

// ReviewRepository defines contract for DB operations.
type ReviewRepository interface {
	SaveRun(ctx context.Context, run models.ReviewRun, res *models.ReviewResult) error
	LatestRun(ctx context.Context) (*models.ReviewRun, error)
	GetIssuerReview(ctx context.Context, runID, code string) ([]models.IssuerReview, error)
	GetInstrumentResult(ctx context.Context, runID, isin string) (*models.InstrumentResult, error)
}

type reviewRepository struct {
	db *sql.DB
}

// NewReviewRepository creates a new ReviewRepository backed by PostgreSQL.
//
// Parameters:
//   - db: an open *sql.DB using the lib/pq driver.
//
// Returns:
//   - ReviewRepository: the interface for storing and querying review runs.
func NewReviewRepository(db *sql.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

// SaveRun stores a run and its result in a single transaction.
//
// Behavior:
//   - review_runs gets one row (retained periods, stats as JSON, output paths).
//   - instrument_period_results gets one row per instrument and period of the run,
//     zero-filled where the instrument was not observed.
//   - issuer_reviews and issuer_period_scores get the rollup; scores only for retained periods.
//   - Bulk tables are written with COPY; any failure rolls the whole run back.
func (r *reviewRepository) SaveRun(ctx context.Context, run models.ReviewRun, res *models.ReviewResult) error {
	stats, err := json.Marshal(run.Stats)
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO review_runs (id, started_at, finished_at, exemption_version, periods, stats, outputs)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		run.ID, run.StartedAt, run.FinishedAt, run.ExemptionVersion,
		labelsToArray(run.Periods), stats, pq.Array(nonNil(run.Outputs)),
	); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("insert run: %w", err)
	}

	var instrumentRows [][]interface{}
	for _, inst := range res.Instruments {
		for _, p := range res.AllPeriods {
			m := inst.Metrics(p)
			instrumentRows = append(instrumentRows, []interface{}{
				run.ID, inst.InstrumentID, inst.IssuerCode, inst.IssuerFullName, int64(p),
				m.TradeCount, m.ScaledThreshold, m.AuctionCount, m.SIFlag,
			})
		}
	}
	if err := copyRows(ctx, tx, "instrument_period_results", []string{
		"run_id", "isin", "issuer", "issuer_fullname", "period",
		"trade_count", "scaled_threshold", "auction_count", "si_flag",
	}, instrumentRows); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("copy instrument results: %w", err)
	}

	var issuerRows, scoreRows [][]interface{}
	for _, is := range res.Issuers {
		issuerRows = append(issuerRows, []interface{}{
			run.ID, is.IssuerCode, is.IssuerFullName,
			is.InScope, is.MarketMakerExempt, is.ReviewInScope, is.RegulatorExempt, is.Total,
		})
		for _, p := range res.Periods {
			scoreRows = append(scoreRows, []interface{}{run.ID, is.IssuerCode, is.IssuerFullName, int64(p), is.Scores[p]})
		}
	}
	if err := copyRows(ctx, tx, "issuer_reviews", []string{
		"run_id", "issuer", "issuer_fullname",
		"in_scope", "mm_exempt", "review_in_scope", "regulator_exempt", "total",
	}, issuerRows); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("copy issuer reviews: %w", err)
	}
	if err := copyRows(ctx, tx, "issuer_period_scores", []string{
		"run_id", "issuer", "issuer_fullname", "period", "score",
	}, scoreRows); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("copy issuer scores: %w", err)
	}

	return tx.Commit()
}

// copyRows streams rows into table through COPY FROM STDIN.
// The caller owns the transaction and rolls it back on error.
func copyRows(ctx context.Context, tx *sql.Tx, table string, columns []string, rows [][]interface{}) error {
	if len(rows) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, pq.CopyIn(table, columns...))
	if err != nil {
		return err
	}
	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			_ = stmt.Close()
			return err
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		_ = stmt.Close()
		return err
	}
	return stmt.Close()
}

// LatestRun returns the most recently finished run, or ErrNotFound.
func (r *reviewRepository) LatestRun(ctx context.Context) (*models.ReviewRun, error) {
	var (
		run     models.ReviewRun
		periods pq.Int64Array
		stats   []byte
		outputs pq.StringArray
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, started_at, finished_at, exemption_version, periods, stats, outputs
		FROM review_runs
		ORDER BY finished_at DESC
		LIMIT 1`,
	).Scan(&run.ID, &run.StartedAt, &run.FinishedAt, &run.ExemptionVersion, &periods, &stats, &outputs)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(stats, &run.Stats); err != nil {
		return nil, fmt.Errorf("decode stats: %w", err)
	}
	run.Periods = make([]period.Label, len(periods))
	for i, p := range periods {
		run.Periods[i] = period.Label(p)
	}
	run.Outputs = []string(outputs)
	return &run, nil
}

// GetIssuerReview returns the reviews stored for an issuer code in a run.
// An issuer code may map to several full names, hence the slice.
func (r *reviewRepository) GetIssuerReview(ctx context.Context, runID, code string) ([]models.IssuerReview, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT issuer, issuer_fullname, in_scope, mm_exempt, review_in_scope, regulator_exempt, total
		FROM issuer_reviews
		WHERE run_id = $1 AND issuer = $2
		ORDER BY issuer_fullname`, runID, code)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.IssuerReview
	byName := make(map[string]int)
	for rows.Next() {
		is := models.IssuerReview{Scores: make(map[period.Label]int)}
		if err := rows.Scan(&is.IssuerCode, &is.IssuerFullName, &is.InScope, &is.MarketMakerExempt,
			&is.ReviewInScope, &is.RegulatorExempt, &is.Total); err != nil {
			return nil, err
		}
		byName[is.IssuerFullName] = len(out)
		out = append(out, is)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}

	scores, err := r.db.QueryContext(ctx, `
		SELECT issuer_fullname, period, score
		FROM issuer_period_scores
		WHERE run_id = $1 AND issuer = $2`, runID, code)
	if err != nil {
		return nil, err
	}
	defer func() { _ = scores.Close() }()
	for scores.Next() {
		var (
			name  string
			p     int64
			score int
		)
		if err := scores.Scan(&name, &p, &score); err != nil {
			return nil, err
		}
		if i, ok := byName[name]; ok {
			out[i].Scores[period.Label(p)] = score
		}
	}
	return out, scores.Err()
}

// GetInstrumentResult rebuilds one instrument's per-period metrics for a run.
func (r *reviewRepository) GetInstrumentResult(ctx context.Context, runID, isin string) (*models.InstrumentResult, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT issuer, issuer_fullname, period, trade_count, scaled_threshold, auction_count, si_flag
		FROM instrument_period_results
		WHERE run_id = $1 AND isin = $2
		ORDER BY period`, runID, isin)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	res := &models.InstrumentResult{InstrumentID: isin, Periods: make(map[period.Label]models.PeriodMetrics)}
	for rows.Next() {
		var (
			p   int64
			m   models.PeriodMetrics
			thr decimal.Decimal
		)
		if err := rows.Scan(&res.IssuerCode, &res.IssuerFullName, &p, &m.TradeCount, &thr, &m.AuctionCount, &m.SIFlag); err != nil {
			return nil, err
		}
		m.ScaledThreshold = thr
		res.Periods[period.Label(p)] = m
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(res.Periods) == 0 {
		return nil, ErrNotFound
	}
	return res, nil
}

func labelsToArray(labels []period.Label) pq.Int64Array {
	out := make(pq.Int64Array, len(labels))
	for i, l := range labels {
		out[i] = int64(l)
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
