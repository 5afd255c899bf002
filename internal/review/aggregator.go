package review

import (
	"sort"

	"github.com/guttosm/sireview/internal/domain/models"
	"github.com/guttosm/sireview/internal/period"
)

// Key addresses one (instrument, period) cell.
type Key struct {
	InstrumentID string
	Period       period.Label
}

// Identity is the issuer attribution of an instrument.
type Identity struct {
	IssuerCode     string
	IssuerFullName string
	source         models.RowRef
}

// Aggregation holds the per-(instrument, period) counts of the main trade feed.
type Aggregation struct {
	TradeCounts   map[Key]int
	AuctionCounts map[Key]int
	Identities    map[string]Identity
	Periods       period.Set

	ReviewedTrades   int
	AuctionTrades    int
	UnresolvedPeriod int
}

// Aggregate counts classified trades.
//
// Behavior:
//   - Trades without a resolved period are ignored (counted in UnresolvedPeriod).
//   - TradeCounts only include ReviewInScope trades; duplicates accumulate.
//   - AuctionCounts include every auction trade regardless of scope.
//   - An instrument's identity comes from its in-review trade with the smallest
//     source row reference, so the result does not depend on input order.
//   - Only instruments with at least one in-review trade get an identity.
func Aggregate(trades []models.ClassifiedTrade) *Aggregation {
	a := &Aggregation{
		TradeCounts:   make(map[Key]int),
		AuctionCounts: make(map[Key]int),
		Identities:    make(map[string]Identity),
		Periods:       period.Set{},
	}

	for _, t := range trades {
		if !t.HasPeriod {
			a.UnresolvedPeriod++
			continue
		}
		a.Periods.Add(t.Period)
		k := Key{InstrumentID: t.InstrumentID, Period: t.Period}

		if t.IsAuction {
			a.AuctionCounts[k]++
			a.AuctionTrades++
		}
		if !t.ReviewInScope {
			continue
		}
		a.TradeCounts[k]++
		a.ReviewedTrades++

		cur, seen := a.Identities[t.InstrumentID]
		if !seen || t.Source.Less(cur.source) {
			a.Identities[t.InstrumentID] = Identity{
				IssuerCode:     t.IssuerCode,
				IssuerFullName: t.IssuerFullName,
				source:         t.Source,
			}
		}
	}
	return a
}

// Instruments returns the reviewed instrument ids in ascending order.
func (a *Aggregation) Instruments() []string {
	ids := make([]string, 0, len(a.Identities))
	for id := range a.Identities {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
