package review

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/guttosm/sireview/internal/domain/models"
	"github.com/guttosm/sireview/internal/exemption"
	"github.com/guttosm/sireview/internal/logger"
	"github.com/guttosm/sireview/internal/period"
)

// Input is the snapshot a review runs over.
//
// IssuerMaster is optional; when nil the issuer rollup is based on Trades.
type Input struct {
	Trades       []models.TradeRecord
	IssuerMaster []models.TradeRecord
	References   []models.ReferenceStatRecord
}

// Engine runs the full review pipeline:
// classify → aggregate → reference thresholds → SI evaluation → issuer rollup.
type Engine struct {
	table      *exemption.Table
	classifier *Classifier
	workers    int
	log        zerolog.Logger
}

// Option customizes an Engine.
type Option func(*Engine)

// WithWorkers bounds the number of instruments evaluated concurrently.
// Values < 1 fall back to runtime.NumCPU().
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithLogger overrides the engine logger.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// NewEngine builds an engine over a loaded exemption table.
func NewEngine(table *exemption.Table, opts ...Option) *Engine {
	e := &Engine{
		table:      table,
		classifier: NewClassifier(table),
		workers:    runtime.NumCPU(),
		log:        logger.With("review"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Table returns the exemption table the engine classifies with.
func (e *Engine) Table() *exemption.Table { return e.table }

// Run executes one review over in.
//
// Behavior:
//   - Instruments are evaluated concurrently on a bounded errgroup; each
//     worker writes its own pre-allocated slot, so the output order is the
//     ascending instrument order whatever the scheduling.
//   - The period universe is the union of periods of both trade feeds and of
//     the reference statistics; every instrument row carries all of them.
//   - Context cancellation aborts the run; no partial result is returned.
//
// Returns:
//   - *models.ReviewResult: the complete result.
//   - error: context cancellation.
func (e *Engine) Run(ctx context.Context, in Input) (*models.ReviewResult, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	trades, excluded := e.classifier.ClassifyAll(in.Trades)
	base := trades
	masterExcluded := 0
	if in.IssuerMaster != nil {
		base, masterExcluded = e.classifier.ClassifyAll(in.IssuerMaster)
	}

	agg := Aggregate(trades)
	refs := BuildReferences(in.References, e.log)

	universe := period.Set{}
	for p := range agg.Periods {
		universe.Add(p)
	}
	for p := range refs.Periods {
		universe.Add(p)
	}
	for _, t := range base {
		if t.HasPeriod {
			universe.Add(t.Period)
		}
	}
	allPeriods := universe.Sorted()

	ids := agg.Instruments()
	results := make([]models.InstrumentResult, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, id := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = evaluateInstrument(id, agg, refs, allPeriods)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("evaluate instruments: %w", err)
	}

	issuers, retained := Rollup(base, results, allPeriods, e.table)

	stats := models.ReviewStats{
		TradeRows:           len(in.Trades),
		IssuerMasterRows:    len(in.IssuerMaster),
		ExcludedSplit:       excluded + masterExcluded,
		UnresolvedPeriod:    agg.UnresolvedPeriod,
		ReviewedTrades:      agg.ReviewedTrades,
		AuctionTrades:       agg.AuctionTrades,
		ReferenceRows:       refs.Rows,
		ReferenceExcluded:   refs.Excluded,
		ReferenceDuplicates: refs.Duplicates,
	}
	for _, r := range results {
		for _, m := range r.Periods {
			if m.SIFlag == 1 {
				stats.SIInstruments++
				break
			}
		}
	}

	e.log.Info().
		Int("instruments", len(results)).
		Int("issuers", len(issuers)).
		Int("periods", len(allPeriods)).
		Int("retained_periods", len(retained)).
		Int("excluded_split", stats.ExcludedSplit).
		Int("unresolved_period", stats.UnresolvedPeriod).
		Dur("elapsed", time.Since(start)).
		Msg("review complete")

	res := &models.ReviewResult{
		AllPeriods:  allPeriods,
		Periods:     retained,
		Instruments: results,
		Issuers:     issuers,
		Stats:       stats,
		Classified:  trades,
	}
	if in.IssuerMaster != nil {
		res.ClassifiedIssuerMaster = base
	}
	return res, nil
}

func evaluateInstrument(id string, agg *Aggregation, refs *References, periods []period.Label) models.InstrumentResult {
	ident := agg.Identities[id]
	row := models.InstrumentResult{
		InstrumentID:   id,
		IssuerCode:     ident.IssuerCode,
		IssuerFullName: ident.IssuerFullName,
		Periods:        make(map[period.Label]models.PeriodMetrics, len(periods)),
	}
	for _, p := range periods {
		k := Key{InstrumentID: id, Period: p}
		m := models.PeriodMetrics{
			TradeCount:      agg.TradeCounts[k],
			ScaledThreshold: refs.Threshold(id, p),
			AuctionCount:    agg.AuctionCounts[k],
		}
		m.SIFlag = EvaluateSI(m.TradeCount, m.ScaledThreshold, m.AuctionCount)
		row.Periods[p] = m
	}
	return row
}
