package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/guttosm/sireview/internal/domain/models"
	"github.com/guttosm/sireview/internal/period"
)

const criteriaText = `Systematic Internaliser Review Criteria:
Consistent with the calculation required for systematic internalisers, the entity reviews on a
quarterly basis whether it meets the following criteria:
(i) OTC transactions are executed on average more than once a week; and
(ii) on a frequency greater than 2.50% of the total number of transactions in the bond published
by ESMA for the systematic internaliser calculations at the end of M+1 following each calendar
quarter (i.e., 30/04, 31/07, 31/10, 31/01).
=> When the criteria are met for one ISIN, the exemption applies at the issuer level.
`

// Summary renders the plain-text run report: processed periods, input
// analysis, exemption counts, per-period totals and the output files.
func Summary(res *models.ReviewResult, outputs []string) string {
	var b strings.Builder
	b.WriteString("Data processing completed successfully.\n")
	fmt.Fprintf(&b, "Processed Periods: %s\n", joinLabels(res.AllPeriods))
	for _, p := range res.AllPeriods {
		start, end := p.Bounds()
		fmt.Fprintf(&b, "  %s: %s to %s\n", p, start.Format("2006-01-02"), end.AddDate(0, 0, -1).Format("2006-01-02"))
	}
	b.WriteString("\n")

	b.WriteString("=== Data Analysis ===\n\n")
	st := res.Stats
	fmt.Fprintf(&b, "Trade rows read: %d\n", st.TradeRows)
	fmt.Fprintf(&b, "Issuer master rows read: %d\n", st.IssuerMasterRows)
	fmt.Fprintf(&b, "Rows excluded (split indicator 0): %d\n", st.ExcludedSplit)
	fmt.Fprintf(&b, "Rows without period: %d\n", st.UnresolvedPeriod)
	fmt.Fprintf(&b, "Reviewed trades: %d\n", st.ReviewedTrades)
	fmt.Fprintf(&b, "Auction trades: %d\n", st.AuctionTrades)
	fmt.Fprintf(&b, "Reference records: %d (excluded %d, duplicate keys %d)\n",
		st.ReferenceRows, st.ReferenceExcluded, st.ReferenceDuplicates)
	if lo, hi, ok := dateRange(res.Classified); ok {
		fmt.Fprintf(&b, "Date range in trade data: %s to %s\n", lo.Format("2006-01-02"), hi.Format("2006-01-02"))
	} else {
		b.WriteString("No valid dates found in trade data.\n")
	}
	b.WriteString("\n")

	b.WriteString(criteriaText)

	b.WriteString("\nExemptions Summary:\n")
	var inScope, mm, reviewed, regulator int
	var mmCodes, regCodes []string
	for _, is := range res.Issuers {
		if is.InScope {
			inScope++
		}
		if is.MarketMakerExempt {
			mm++
			mmCodes = appendUnique(mmCodes, is.IssuerCode)
		}
		if is.ReviewInScope {
			reviewed++
		}
		if is.RegulatorExempt {
			regulator++
			regCodes = appendUnique(regCodes, is.IssuerCode)
		}
	}
	fmt.Fprintf(&b, "Total Issuers: %d\n", len(res.Issuers))
	fmt.Fprintf(&b, "Issuers in Scope: %d\n", inScope)
	fmt.Fprintf(&b, "Issuers with MM Exempt: %d\n", mm)
	fmt.Fprintf(&b, "Issuers with Review in Scope: %d\n", reviewed)
	fmt.Fprintf(&b, "Issuers with Regulator Exemption: %d\n", regulator)

	b.WriteString("\nIssuers Eligible for Exemptions:\n")
	fmt.Fprintf(&b, "Issuers with MM Exempt:\n%s\n\n", strings.Join(mmCodes, ", "))
	fmt.Fprintf(&b, "Issuers with Regulator Exemption:\n%s\n", strings.Join(regCodes, ", "))

	b.WriteString("\nSI Review Summary:\n")
	retained := make(map[period.Label]bool, len(res.Periods))
	for _, p := range res.Periods {
		retained[p] = true
	}
	for _, p := range res.AllPeriods {
		counts := make([]float64, 0, len(res.Instruments))
		thresholds := make([]float64, 0, len(res.Instruments))
		for _, inst := range res.Instruments {
			m := inst.Metrics(p)
			counts = append(counts, float64(m.TradeCount))
			thresholds = append(thresholds, m.ScaledThreshold.InexactFloat64())
		}
		if len(counts) == 0 {
			fmt.Fprintf(&b, "No trades data available for %s\n", p)
			continue
		}
		fmt.Fprintf(&b, "Total trades in %s: %.0f (mean per ISIN %.2f, max %.0f)\n",
			p, floats.Sum(counts), stat.Mean(counts, nil), floats.Max(counts))
		fmt.Fprintf(&b, "Total 2.50%% x ESMA nb of trades in %s: %s\n", p, formatFloat(floats.Sum(thresholds)))
		if retained[p] {
			total := 0
			for _, is := range res.Issuers {
				total += is.Scores[p]
			}
			fmt.Fprintf(&b, "Total SI Score for %s: %d\n", p, total)
		} else {
			fmt.Fprintf(&b, "No SI Score data available for %s\n", p)
		}
	}

	if len(outputs) > 0 {
		b.WriteString("\nOutput Files:\n")
		for _, o := range outputs {
			b.WriteString(o + "\n")
		}
	}
	return b.String()
}

func joinLabels(labels []period.Label) string {
	parts := make([]string, len(labels))
	for i, l := range labels {
		parts[i] = l.String()
	}
	return strings.Join(parts, ", ")
}

func dateRange(trades []models.ClassifiedTrade) (lo, hi time.Time, ok bool) {
	for _, t := range trades {
		if t.TradeDate.IsZero() {
			continue
		}
		if !ok || t.TradeDate.Before(lo) {
			lo = t.TradeDate
		}
		if !ok || t.TradeDate.After(hi) {
			hi = t.TradeDate
		}
		ok = true
	}
	return lo, hi, ok
}

func appendUnique(list []string, v string) []string {
	i := sort.SearchStrings(list, v)
	if i < len(list) && list[i] == v {
		return list
	}
	list = append(list, "")
	copy(list[i+1:], list[i:])
	list[i] = v
	return list
}

func formatFloat(f float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.3f", f), "0"), ".")
}
