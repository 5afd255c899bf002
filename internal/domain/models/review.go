package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/guttosm/sireview/internal/period"
)

// PeriodMetrics are the per-period figures of one instrument.
//
// Fields:
//   - TradeCount: in-review trades of the entity in the period.
//   - ScaledThreshold: 2.5% of the regulator's transaction count.
//   - AuctionCount: auction trades (any scope) in the period.
//   - SIFlag: 1 when the systematic internaliser criteria are met, else 0.
type PeriodMetrics struct {
	TradeCount      int             `json:"trade_count" example:"31"`
	ScaledThreshold decimal.Decimal `json:"scaled_threshold" swaggertype:"string" example:"12.5"`
	AuctionCount    int             `json:"auction_count" example:"0"`
	SIFlag          int             `json:"si_flag" example:"1"`
}

// InstrumentResult is the review outcome of one ISIN across every period of the run.
// Periods holds an entry for each period of the run, zero-filled when unobserved.
type InstrumentResult struct {
	InstrumentID   string                         `json:"isin" example:"FR0000000001"`
	IssuerCode     string                         `json:"issuer" example:"TRESORIT"`
	IssuerFullName string                         `json:"issuer_fullname" example:"Republic of Italy"`
	Periods        map[period.Label]PeriodMetrics `json:"periods"`
}

// Metrics returns the metrics for p, zero-valued when the period is absent.
func (r InstrumentResult) Metrics(p period.Label) PeriodMetrics {
	if m, ok := r.Periods[p]; ok {
		return m
	}
	return PeriodMetrics{ScaledThreshold: decimal.Zero}
}

// IssuerReview is the issuer-level rollup of instrument SI flags.
// Scores only carries the periods retained after compaction.
type IssuerReview struct {
	IssuerCode        string               `json:"issuer" example:"TRESORIT"`
	IssuerFullName    string               `json:"issuer_fullname" example:"Republic of Italy"`
	InScope           bool                 `json:"in_scope"`
	MarketMakerExempt bool                 `json:"market_maker_exempt"`
	ReviewInScope     bool                 `json:"review_in_scope"`
	RegulatorExempt   bool                 `json:"regulator_exempt"`
	Scores            map[period.Label]int `json:"scores"`
	Total             int                  `json:"total" example:"2"`
}

// ReviewStats counts what happened to input rows during a run.
type ReviewStats struct {
	TradeRows           int `json:"trade_rows"`
	IssuerMasterRows    int `json:"issuer_master_rows"`
	ExcludedSplit       int `json:"excluded_split"`
	UnresolvedPeriod    int `json:"unresolved_period"`
	ReviewedTrades      int `json:"reviewed_trades"`
	AuctionTrades       int `json:"auction_trades"`
	ReferenceRows       int `json:"reference_rows"`
	ReferenceExcluded   int `json:"reference_excluded"`
	ReferenceDuplicates int `json:"reference_duplicates"`
	SIInstruments       int `json:"si_instruments"`
}

// ReviewResult is the complete output of one engine invocation.
//
// AllPeriods is the ascending union of periods seen in the inputs; Periods is
// the subset retained by issuer compaction and drives both export tables.
type ReviewResult struct {
	AllPeriods  []period.Label     `json:"all_periods"`
	Periods     []period.Label     `json:"periods"`
	Instruments []InstrumentResult `json:"instruments"`
	Issuers     []IssuerReview     `json:"issuers"`
	Stats       ReviewStats        `json:"stats"`

	// Classified is the annotated main trade feed, exported but never serialized.
	Classified []ClassifiedTrade `json:"-"`
	// ClassifiedIssuerMaster is the annotated issuer master feed; nil when
	// the run had none.
	ClassifiedIssuerMaster []ClassifiedTrade `json:"-"`
}

// ReviewRun describes one persisted execution of the review.
type ReviewRun struct {
	ID               string         `json:"id" example:"5b0c7f7e-3e0a-4a43-9d0c-8f5a3c2d9e11"`
	StartedAt        time.Time      `json:"started_at"`
	FinishedAt       time.Time      `json:"finished_at"`
	ExemptionVersion string         `json:"exemption_version" example:"2024-09"`
	Periods          []period.Label `json:"periods"`
	Stats            ReviewStats    `json:"stats"`
	Outputs          []string       `json:"outputs,omitempty"`
}
