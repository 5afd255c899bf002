package review

import (
	"math"
	"strconv"
	"strings"

	"github.com/guttosm/sireview/internal/domain/models"
	"github.com/guttosm/sireview/internal/exemption"
	"github.com/guttosm/sireview/internal/period"
)

// AuctionCounterparty is the counterparty code that marks an auction order.
const AuctionCounterparty = "70627"

// Classifier annotates trades with exemption scope, auction marker and period.
// It only reads the exemption table and is safe for concurrent use.
type Classifier struct {
	table *exemption.Table
}

// NewClassifier returns a Classifier backed by table.
func NewClassifier(table *exemption.Table) *Classifier {
	return &Classifier{table: table}
}

// Classify derives the scope flags of one trade.
//
// Behavior:
//   - A split indicator of exactly 0 excludes the row (returns false).
//   - InScope: the normalized issuer code is a key of the exemption table.
//   - MarketMakerExempt / RegulatorExempt: table flags, false when absent.
//   - ReviewInScope: InScope and not MarketMakerExempt.
//   - IsAuction: the counterparty code equals AuctionCounterparty.
//   - Period: resolved from TradeDate; HasPeriod is false when absent.
func (c *Classifier) Classify(tr models.TradeRecord) (models.ClassifiedTrade, bool) {
	if tr.SplitIndicator == 0 {
		return models.ClassifiedTrade{}, false
	}

	tr.InstrumentID = NormalizeInstrument(tr.InstrumentID)
	tr.IssuerCode = exemption.Normalize(tr.IssuerCode)
	tr.IssuerFullName = strings.TrimSpace(tr.IssuerFullName)

	flags, inScope := c.table.Lookup(tr.IssuerCode)
	ct := models.ClassifiedTrade{
		TradeRecord:       tr,
		InScope:           inScope,
		MarketMakerExempt: flags.MarketMakerExempt,
		RegulatorExempt:   flags.RegulatorExempt,
		ReviewInScope:     inScope && !flags.MarketMakerExempt,
		IsAuction:         normalizeCounterparty(tr.CounterpartyCode) == AuctionCounterparty,
	}
	ct.Period, ct.HasPeriod = period.Resolve(tr.TradeDate)
	return ct, true
}

// ClassifyAll classifies a feed and returns the kept trades with the number
// of rows excluded by the split indicator.
func (c *Classifier) ClassifyAll(trades []models.TradeRecord) ([]models.ClassifiedTrade, int) {
	out := make([]models.ClassifiedTrade, 0, len(trades))
	excluded := 0
	for _, tr := range trades {
		ct, ok := c.Classify(tr)
		if !ok {
			excluded++
			continue
		}
		out = append(out, ct)
	}
	return out, excluded
}

// NormalizeInstrument trims and upper-cases an ISIN.
func NormalizeInstrument(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// normalizeCounterparty trims the code and renders integral numbers without a
// fractional part, so a spreadsheet cell holding 70627.0 still matches.
func normalizeCounterparty(code string) string {
	code = strings.TrimSpace(code)
	if !strings.Contains(code, ".") {
		return code
	}
	f, err := strconv.ParseFloat(code, 64)
	if err != nil || f != math.Trunc(f) {
		return code
	}
	return strconv.FormatInt(int64(f), 10)
}
