package storage

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"

	"github.com/guttosm/sireview/internal/domain/models"
	"github.com/guttosm/sireview/internal/period"
)

type dummyErr struct{}

func (dummyErr) Error() string { return "dummy" }

func newMockRepo(t *testing.T) (*reviewRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	repo := &reviewRepository{db: db}
	cleanup := func() { _ = db.Close() }
	return repo, mock, cleanup
}

func sampleRun() (models.ReviewRun, *models.ReviewResult) {
	start := time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)
	run := models.ReviewRun{
		ID: "run-1", StartedAt: start, FinishedAt: start.Add(time.Minute),
		ExemptionVersion: "2024-09", Periods: []period.Label{5},
		Stats: models.ReviewStats{TradeRows: 27, ReviewedTrades: 27},
	}
	res := &models.ReviewResult{
		AllPeriods: []period.Label{4, 5},
		Periods:    []period.Label{5},
		Instruments: []models.InstrumentResult{{
			InstrumentID: "ISIN1", IssuerCode: "TRESORIT", IssuerFullName: "Tresor",
			Periods: map[period.Label]models.PeriodMetrics{5: {TradeCount: 27, ScaledThreshold: decimal.RequireFromString("26.9"), SIFlag: 1}},
		}},
		Issuers: []models.IssuerReview{{
			IssuerCode: "TRESORIT", IssuerFullName: "Tresor", InScope: true, ReviewInScope: true,
			Scores: map[period.Label]int{5: 1}, Total: 1,
		}},
	}
	return run, res
}

func TestSaveRun_SQLMock(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()
	run, res := sampleRun()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO review_runs")).
		WithArgs("run-1", run.StartedAt, run.FinishedAt, "2024-09", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	// instrument results: two periods (P4 zero-filled, P5) plus the final flush
	prep := mock.ExpectPrepare(".*instrument_period_results.*")
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 0))

	prep = mock.ExpectPrepare(".*issuer_reviews.*")
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 0))

	prep = mock.ExpectPrepare(".*issuer_period_scores.*")
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	if err := repo.SaveRun(context.Background(), run, res); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSaveRun_Errors(t *testing.T) {
	cases := []struct {
		name  string
		setup func(mock sqlmock.Sqlmock)
	}{
		{
			name: "begin",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin().WillReturnError(dummyErr{})
			},
		},
		{
			name: "insert run",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(regexp.QuoteMeta("INSERT INTO review_runs")).WillReturnError(dummyErr{})
				mock.ExpectRollback()
			},
		},
		{
			name: "row copy",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(regexp.QuoteMeta("INSERT INTO review_runs")).WillReturnResult(sqlmock.NewResult(1, 1))
				mock.ExpectPrepare(".*instrument_period_results.*").ExpectExec().WillReturnError(dummyErr{})
				mock.ExpectRollback()
			},
		},
		{
			name: "final flush",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(regexp.QuoteMeta("INSERT INTO review_runs")).WillReturnResult(sqlmock.NewResult(1, 1))
				prep := mock.ExpectPrepare(".*instrument_period_results.*")
				prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 1))
				prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 1))
				prep.ExpectExec().WillReturnError(dummyErr{})
				mock.ExpectRollback()
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo, mock, done := newMockRepo(t)
			defer done()
			tc.setup(mock)

			run, res := sampleRun()
			if err := repo.SaveRun(context.Background(), run, res); err == nil {
				t.Fatalf("expected error")
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Fatalf("unmet expectations: %v", err)
			}
		})
	}
}

func TestLatestRun_SQLMock(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()
	query := regexp.QuoteMeta("FROM review_runs")
	finished := time.Date(2024, 5, 2, 9, 1, 0, 0, time.UTC)

	mock.ExpectQuery(query).WillReturnRows(
		sqlmock.NewRows([]string{"id", "started_at", "finished_at", "exemption_version", "periods", "stats", "outputs"}).
			AddRow("run-1", finished.Add(-time.Minute), finished, "2024-09", "{4,5}", []byte(`{"trade_rows":27}`), "{/out/a.xlsx}"),
	)
	run, err := repo.LatestRun(context.Background())
	if err != nil {
		t.Fatalf("LatestRun: %v", err)
	}
	if run.ID != "run-1" || len(run.Periods) != 2 || run.Periods[1] != 5 || run.Stats.TradeRows != 27 || run.Outputs[0] != "/out/a.xlsx" {
		t.Fatalf("unexpected run %+v", run)
	}

	mock.ExpectQuery(query).WillReturnRows(sqlmock.NewRows([]string{"id"}))
	if _, err := repo.LatestRun(context.Background()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGetIssuerReview_SQLMock(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	mock.ExpectQuery(regexp.QuoteMeta("FROM issuer_reviews")).WithArgs("run-1", "TRESORIT").WillReturnRows(
		sqlmock.NewRows([]string{"issuer", "issuer_fullname", "in_scope", "mm_exempt", "review_in_scope", "regulator_exempt", "total"}).
			AddRow("TRESORIT", "Tresor", true, false, true, false, 1),
	)
	mock.ExpectQuery(regexp.QuoteMeta("FROM issuer_period_scores")).WithArgs("run-1", "TRESORIT").WillReturnRows(
		sqlmock.NewRows([]string{"issuer_fullname", "period", "score"}).AddRow("Tresor", int64(5), 1),
	)

	out, err := repo.GetIssuerReview(context.Background(), "run-1", "TRESORIT")
	if err != nil {
		t.Fatalf("GetIssuerReview: %v", err)
	}
	if len(out) != 1 || !out[0].ReviewInScope || out[0].Scores[5] != 1 || out[0].Total != 1 {
		t.Fatalf("unexpected issuer %+v", out)
	}

	mock.ExpectQuery(regexp.QuoteMeta("FROM issuer_reviews")).WithArgs("run-1", "NOPE").
		WillReturnRows(sqlmock.NewRows([]string{"issuer"}))
	if _, err := repo.GetIssuerReview(context.Background(), "run-1", "NOPE"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGetInstrumentResult_SQLMock(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	cols := []string{"issuer", "issuer_fullname", "period", "trade_count", "scaled_threshold", "auction_count", "si_flag"}
	mock.ExpectQuery(regexp.QuoteMeta("FROM instrument_period_results")).WithArgs("run-1", "ISIN1").WillReturnRows(
		sqlmock.NewRows(cols).
			AddRow("TRESORIT", "Tresor", int64(4), 0, "0", 0, 0).
			AddRow("TRESORIT", "Tresor", int64(5), 27, "26.9", 0, 1),
	)
	got, err := repo.GetInstrumentResult(context.Background(), "run-1", "ISIN1")
	if err != nil {
		t.Fatalf("GetInstrumentResult: %v", err)
	}
	m := got.Metrics(5)
	if got.IssuerCode != "TRESORIT" || m.TradeCount != 27 || m.SIFlag != 1 || !m.ScaledThreshold.Equal(decimal.RequireFromString("26.9")) {
		t.Fatalf("unexpected result %+v", got)
	}

	mock.ExpectQuery(regexp.QuoteMeta("FROM instrument_period_results")).WithArgs("run-1", "NOPE").
		WillReturnRows(sqlmock.NewRows(cols))
	if _, err := repo.GetInstrumentResult(context.Background(), "run-1", "NOPE"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}

	mock.ExpectQuery(regexp.QuoteMeta("FROM instrument_period_results")).WillReturnError(dummyErr{})
	if _, err := repo.GetInstrumentResult(context.Background(), "run-1", "X"); err == nil {
		t.Fatalf("expected query error")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestNewReviewRepository_Construct(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer func() { _ = db.Close() }()
	if r := NewReviewRepository(db); r == nil {
		t.Fatalf("expected non-nil repository")
	}
}
