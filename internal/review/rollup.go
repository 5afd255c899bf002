package review

import (
	"sort"

	"github.com/guttosm/sireview/internal/domain/models"
	"github.com/guttosm/sireview/internal/exemption"
	"github.com/guttosm/sireview/internal/period"
)

type issuerKey struct {
	code, name string
}

// Rollup aggregates instrument SI flags to issuer level.
//
// Parameters:
//   - base: classified issuer population; one output row per distinct
//     (IssuerCode, IssuerFullName) among trades with a resolved period.
//   - instruments: evaluated instrument rows.
//   - periods: ascending period universe of the run.
//   - table: exemption table for the issuer flags.
//
// Returns:
//   - the issuer rows ordered by code then full name, scores restricted to the
//     retained periods.
//   - the retained periods: those whose score summed over every issuer is non-zero.
func Rollup(base []models.ClassifiedTrade, instruments []models.InstrumentResult, periods []period.Label, table *exemption.Table) ([]models.IssuerReview, []period.Label) {
	// SI sums per issuer code and period.
	scores := make(map[string]map[period.Label]int)
	for _, inst := range instruments {
		for p, m := range inst.Periods {
			if m.SIFlag == 0 {
				continue
			}
			if scores[inst.IssuerCode] == nil {
				scores[inst.IssuerCode] = make(map[period.Label]int)
			}
			scores[inst.IssuerCode][p] += m.SIFlag
		}
	}

	seen := make(map[issuerKey]struct{})
	var keys []issuerKey
	for _, t := range base {
		if !t.HasPeriod {
			continue
		}
		k := issuerKey{code: t.IssuerCode, name: t.IssuerFullName}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].code != keys[j].code {
			return keys[i].code < keys[j].code
		}
		return keys[i].name < keys[j].name
	})

	totals := make(map[period.Label]int)
	for _, k := range keys {
		for p, s := range scores[k.code] {
			totals[p] += s
		}
	}
	retained := []period.Label{}
	for _, p := range periods {
		if totals[p] != 0 {
			retained = append(retained, p)
		}
	}

	out := make([]models.IssuerReview, 0, len(keys))
	for _, k := range keys {
		flags, inScope := table.Lookup(k.code)
		row := models.IssuerReview{
			IssuerCode:        k.code,
			IssuerFullName:    k.name,
			InScope:           inScope,
			MarketMakerExempt: flags.MarketMakerExempt,
			ReviewInScope:     inScope && !flags.MarketMakerExempt,
			RegulatorExempt:   flags.RegulatorExempt,
			Scores:            make(map[period.Label]int, len(retained)),
		}
		for _, p := range retained {
			s := scores[k.code][p]
			row.Scores[p] = s
			row.Total += s
		}
		out = append(out, row)
	}
	return out, retained
}
