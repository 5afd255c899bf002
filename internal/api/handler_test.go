package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/guttosm/sireview/internal/domain/dto"
	"github.com/guttosm/sireview/internal/domain/models"
	"github.com/guttosm/sireview/internal/ingestion"
	"github.com/guttosm/sireview/internal/period"
	"github.com/guttosm/sireview/internal/service"
	"github.com/guttosm/sireview/internal/storage"
)

type mockReviewService struct {
	run      *models.ReviewRun
	runErr   error
	issuers  []models.IssuerReview
	instr    *models.InstrumentResult
	queryErr error

	gotCode, gotISIN string
}

func (m *mockReviewService) Run(_ context.Context) (*models.ReviewRun, error) {
	return m.run, m.runErr
}
func (m *mockReviewService) Latest(_ context.Context) (*models.ReviewRun, error) {
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	return m.run, nil
}
func (m *mockReviewService) Issuer(_ context.Context, code string) ([]models.IssuerReview, error) {
	m.gotCode = code
	return m.issuers, m.queryErr
}
func (m *mockReviewService) Instrument(_ context.Context, isin string) (*models.InstrumentResult, error) {
	m.gotISIN = isin
	return m.instr, m.queryErr
}

var _ service.ReviewService = (*mockReviewService)(nil)

func setupRouterWithMock(s service.ReviewService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(s)
	r := gin.New()
	v1 := r.Group("/api/v1/reviews")
	v1.POST("", h.RunReview)
	v1.GET("/latest", h.GetLatest)
	v1.GET("/latest/issuers/:code", h.GetIssuer)
	v1.GET("/latest/instruments/:isin", h.GetInstrument)
	return r
}

func okService() *mockReviewService {
	return &mockReviewService{
		run: &models.ReviewRun{ID: "r1", ExemptionVersion: "2024-09", Periods: []period.Label{17}},
		issuers: []models.IssuerReview{{
			IssuerCode: "TRESORIT", IssuerFullName: "Republic of Italy", InScope: true,
			Scores: map[period.Label]int{17: 1}, Total: 1,
		}},
		instr: &models.InstrumentResult{
			InstrumentID: "IT0005090318", IssuerCode: "TRESORIT",
			Periods: map[period.Label]models.PeriodMetrics{17: {TradeCount: 31, ScaledThreshold: decimal.RequireFromString("12.5"), SIFlag: 1}},
		},
	}
}

func TestReviewHandlers_TableDriven(t *testing.T) {
	cases := []struct {
		name   string
		svc    *mockReviewService
		method string
		path   string
		status int
		assert func(t *testing.T, svc *mockReviewService, body []byte)
	}{
		{
			name: "run created", svc: okService(), method: http.MethodPost, path: "/api/v1/reviews", status: http.StatusCreated,
			assert: func(t *testing.T, _ *mockReviewService, body []byte) {
				var out dto.RunResponse
				if err := json.Unmarshal(body, &out); err != nil || out.ID != "r1" || out.Periods[0] != "P17" {
					t.Fatalf("body %s err=%v", body, err)
				}
			},
		},
		{
			name:   "run with missing inputs",
			svc:    &mockReviewService{runErr: fmt.Errorf("load inputs: %w", &ingestion.MissingFilesError{Paths: []string{"a.csv"}})},
			method: http.MethodPost, path: "/api/v1/reviews", status: http.StatusUnprocessableEntity,
		},
		{
			name:   "run with schema error",
			svc:    &mockReviewService{runErr: fmt.Errorf("load inputs: %w", &ingestion.SchemaError{Feed: "trades", Field: "ISIN"})},
			method: http.MethodPost, path: "/api/v1/reviews", status: http.StatusUnprocessableEntity,
		},
		{
			name:   "run failure",
			svc:    &mockReviewService{runErr: errors.New("disk full")},
			method: http.MethodPost, path: "/api/v1/reviews", status: http.StatusInternalServerError,
		},
		{name: "latest", svc: okService(), method: http.MethodGet, path: "/api/v1/reviews/latest", status: http.StatusOK},
		{
			name: "latest none", svc: &mockReviewService{queryErr: storage.ErrNotFound},
			method: http.MethodGet, path: "/api/v1/reviews/latest", status: http.StatusNotFound,
		},
		{
			name: "latest db error", svc: &mockReviewService{queryErr: errors.New("db down")},
			method: http.MethodGet, path: "/api/v1/reviews/latest", status: http.StatusInternalServerError,
		},
		{
			name: "issuer normalized", svc: okService(), method: http.MethodGet, path: "/api/v1/reviews/latest/issuers/tresorit", status: http.StatusOK,
			assert: func(t *testing.T, svc *mockReviewService, body []byte) {
				if svc.gotCode != "TRESORIT" {
					t.Fatalf("code %q", svc.gotCode)
				}
				var out []dto.IssuerResponse
				if err := json.Unmarshal(body, &out); err != nil || len(out) != 1 || out[0].Scores[0].Score != 1 {
					t.Fatalf("body %s err=%v", body, err)
				}
			},
		},
		{
			name: "issuer blank", svc: okService(), method: http.MethodGet, path: "/api/v1/reviews/latest/issuers/%20", status: http.StatusBadRequest,
		},
		{
			name: "issuer not found", svc: &mockReviewService{queryErr: storage.ErrNotFound},
			method: http.MethodGet, path: "/api/v1/reviews/latest/issuers/NOPE", status: http.StatusNotFound,
		},
		{
			name: "instrument", svc: okService(), method: http.MethodGet, path: "/api/v1/reviews/latest/instruments/it0005090318", status: http.StatusOK,
			assert: func(t *testing.T, svc *mockReviewService, body []byte) {
				if svc.gotISIN != "IT0005090318" {
					t.Fatalf("isin %q", svc.gotISIN)
				}
				var out dto.InstrumentResponse
				if err := json.Unmarshal(body, &out); err != nil || out.Periods[0].ScaledThreshold != "12.5" {
					t.Fatalf("body %s err=%v", body, err)
				}
			},
		},
		{
			name: "instrument not found", svc: &mockReviewService{queryErr: storage.ErrNotFound},
			method: http.MethodGet, path: "/api/v1/reviews/latest/instruments/X", status: http.StatusNotFound,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := setupRouterWithMock(tc.svc)
			req := httptest.NewRequest(tc.method, tc.path, nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tc.status {
				t.Fatalf("expected %d, got %d body=%s", tc.status, w.Code, w.Body.String())
			}
			if w.Code >= http.StatusBadRequest {
				var e dto.ErrorResponse
				if err := json.Unmarshal(w.Body.Bytes(), &e); err != nil || e.Message == "" {
					t.Fatalf("error body %s", w.Body.String())
				}
			}
			if tc.assert != nil {
				tc.assert(t, tc.svc, w.Body.Bytes())
			}
		})
	}
}
