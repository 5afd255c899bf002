package review

import (
	"math"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/guttosm/sireview/internal/domain/models"
	"github.com/guttosm/sireview/internal/period"
)

// ReferenceScale is the share of the regulator's transaction count an entity
// must exceed to qualify (2.5%).
var ReferenceScale = decimal.New(25, -3)

// References holds the scaled reference thresholds per (instrument, period).
type References struct {
	thresholds map[Key]decimal.Decimal
	Periods    period.Set

	Rows       int
	Excluded   int
	Duplicates int
}

// BuildReferences coerces, sums and scales the regulator statistics.
//
// Behavior:
//   - Counts are coerced to non-negative integers ("500.0" → 500, garbage → 0).
//   - Records whose start date has no period are excluded.
//   - Rows sharing an (instrument, period) key are summed, logged at warn level.
//   - The summed count is multiplied by ReferenceScale with exact decimal arithmetic.
func BuildReferences(records []models.ReferenceStatRecord, log zerolog.Logger) *References {
	raw := make(map[Key]decimal.Decimal)
	seen := make(map[Key]int)
	r := &References{Periods: period.Set{}, Rows: len(records)}

	for _, rec := range records {
		p, ok := period.Resolve(rec.PeriodStartDate)
		if !ok {
			r.Excluded++
			continue
		}
		k := Key{InstrumentID: NormalizeInstrument(rec.InstrumentID), Period: p}
		r.Periods.Add(p)

		seen[k]++
		if seen[k] == 2 {
			r.Duplicates++
			log.Warn().Str("isin", k.InstrumentID).Str("period", p.String()).Int("line", rec.Source.Line).Msg("duplicate reference statistics, summing")
		}
		raw[k] = raw[k].Add(coerceDecimal(rec.TransactionsExecuted))
	}

	r.thresholds = make(map[Key]decimal.Decimal, len(raw))
	for k, n := range raw {
		r.thresholds[k] = n.Mul(ReferenceScale)
	}
	return r
}

// Threshold returns the scaled threshold for (id, p), zero when unknown.
func (r *References) Threshold(id string, p period.Label) decimal.Decimal {
	if d, ok := r.thresholds[Key{InstrumentID: id, Period: p}]; ok {
		return d
	}
	return decimal.Zero
}

var maxCount = decimal.NewFromInt(math.MaxInt64)

// CoerceCount parses a transaction count cell. Fractions are truncated;
// empty, non-numeric and negative values become 0, values beyond int64
// saturate at math.MaxInt64.
func CoerceCount(s string) int64 {
	d := coerceDecimal(s)
	if d.GreaterThan(maxCount) {
		return math.MaxInt64
	}
	return d.IntPart()
}

// coerceDecimal is CoerceCount without the int64 bound; sums of counts are
// kept in this form so they cannot overflow.
func coerceDecimal(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return decimal.Zero
	}
	return d.Truncate(0)
}
