package dto

import (
	"time"

	"github.com/guttosm/sireview/internal/domain/models"
	"github.com/guttosm/sireview/internal/period"
)

// RunResponse represents the JSON structure returned by POST /api/v1/reviews
// and GET /api/v1/reviews/latest.
type RunResponse struct {
	ID               string             `json:"id" example:"5b0c7f7e-3e0a-4a43-9d0c-8f5a3c2d9e11"`
	StartedAt        time.Time          `json:"started_at"`
	FinishedAt       time.Time          `json:"finished_at"`
	ExemptionVersion string             `json:"exemption_version" example:"2024-09"`
	Periods          []string           `json:"periods" example:"P16,P17"` // periods with a non-zero issuer score
	Stats            models.ReviewStats `json:"stats"`
	Outputs          []string           `json:"outputs,omitempty"`
}

// PeriodScore is one issuer SI score.
type PeriodScore struct {
	Period string `json:"period" example:"P17"`
	Score  int    `json:"score" example:"1"`
}

// IssuerResponse is one issuer entry of GET /api/v1/reviews/latest/issuers/{code}.
type IssuerResponse struct {
	Issuer            string        `json:"issuer" example:"TRESORIT"`
	IssuerFullName    string        `json:"issuer_fullname" example:"Republic of Italy"`
	InScope           bool          `json:"in_scope"`
	MarketMakerExempt bool          `json:"market_maker_exempt"`
	ReviewInScope     bool          `json:"review_in_scope"`
	RegulatorExempt   bool          `json:"regulator_exempt"`
	Scores            []PeriodScore `json:"scores"`
	Total             int           `json:"total" example:"2"`
}

// InstrumentPeriod carries the four review columns of one instrument and period.
type InstrumentPeriod struct {
	Period          string `json:"period" example:"P17"`
	TradeCount      int    `json:"trade_count" example:"31"`
	ScaledThreshold string `json:"scaled_threshold" example:"26.9"` // decimal, 2.5% of the regulator count
	AuctionCount    int    `json:"auction_count" example:"0"`
	SI              int    `json:"si" example:"1"`
}

// InstrumentResponse is the body of GET /api/v1/reviews/latest/instruments/{isin}.
type InstrumentResponse struct {
	ISIN           string             `json:"isin" example:"IT0005090318"`
	Issuer         string             `json:"issuer" example:"TRESORIT"`
	IssuerFullName string             `json:"issuer_fullname" example:"Republic of Italy"`
	Periods        []InstrumentPeriod `json:"periods"`
}

// NewRunResponse maps a run record to its JSON form.
func NewRunResponse(run *models.ReviewRun) RunResponse {
	return RunResponse{
		ID:               run.ID,
		StartedAt:        run.StartedAt,
		FinishedAt:       run.FinishedAt,
		ExemptionVersion: run.ExemptionVersion,
		Periods:          labels(run.Periods),
		Stats:            run.Stats,
		Outputs:          run.Outputs,
	}
}

// NewIssuerResponses maps issuer reviews to JSON, scores in ascending period order.
func NewIssuerResponses(reviews []models.IssuerReview) []IssuerResponse {
	out := make([]IssuerResponse, 0, len(reviews))
	for _, r := range reviews {
		keys := make([]period.Label, 0, len(r.Scores))
		for p := range r.Scores {
			keys = append(keys, p)
		}
		period.Sort(keys)
		scores := make([]PeriodScore, 0, len(keys))
		for _, p := range keys {
			scores = append(scores, PeriodScore{Period: p.String(), Score: r.Scores[p]})
		}
		out = append(out, IssuerResponse{
			Issuer:            r.IssuerCode,
			IssuerFullName:    r.IssuerFullName,
			InScope:           r.InScope,
			MarketMakerExempt: r.MarketMakerExempt,
			ReviewInScope:     r.ReviewInScope,
			RegulatorExempt:   r.RegulatorExempt,
			Scores:            scores,
			Total:             r.Total,
		})
	}
	return out
}

// NewInstrumentResponse maps an instrument result to JSON, periods ascending.
func NewInstrumentResponse(inst *models.InstrumentResult) InstrumentResponse {
	keys := make([]period.Label, 0, len(inst.Periods))
	for p := range inst.Periods {
		keys = append(keys, p)
	}
	period.Sort(keys)

	resp := InstrumentResponse{
		ISIN:           inst.InstrumentID,
		Issuer:         inst.IssuerCode,
		IssuerFullName: inst.IssuerFullName,
		Periods:        make([]InstrumentPeriod, 0, len(keys)),
	}
	for _, p := range keys {
		m := inst.Periods[p]
		resp.Periods = append(resp.Periods, InstrumentPeriod{
			Period:          p.String(),
			TradeCount:      m.TradeCount,
			ScaledThreshold: m.ScaledThreshold.String(),
			AuctionCount:    m.AuctionCount,
			SI:              m.SIFlag,
		})
	}
	return resp
}

func labels(ls []period.Label) []string {
	out := make([]string, len(ls))
	for i, l := range ls {
		out[i] = l.String()
	}
	return out
}
