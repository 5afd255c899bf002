package report

import (
	"fmt"
	"math"

	"github.com/guttosm/sireview/internal/domain/models"
	"github.com/guttosm/sireview/internal/period"
)

// Sheet names of the review workbook.
const (
	SheetByISIN       = "Review by ISIN"
	SheetByIssuer     = "Review by Issuer"
	SheetClassified   = "Classified trades"
	SheetClassifiedIM = "Classified issuer master"
	totalScoreHeading = "Total SI Score"
)

// Table is a rectangular export: one header row and data rows of equal width.
type Table struct {
	Name   string
	Header []string
	Rows   [][]interface{}
}

// BuildTables projects a review result onto the two export tables.
//
// Both tables use the same period columns: the periods retained by issuer
// compaction, ascending.
//
//	ISIN table:   ISIN, ISSUER, ISSUER_FULLNAME, then per period
//	              "<P> nb of trades", "<P> 2.50%xESMA nb of trades", "<P> Auction", "<P> SI"
//	Issuer table: ISSUER, ISSUER_FULLNAME, four Yes/No flags, "<P> SI Score" per period, Total SI Score
func BuildTables(res *models.ReviewResult) (byISIN, byIssuer Table) {
	byISIN = Table{Name: SheetByISIN, Header: []string{"ISIN", "ISSUER", "ISSUER_FULLNAME"}}
	for _, p := range res.Periods {
		byISIN.Header = append(byISIN.Header,
			fmt.Sprintf("%s nb of trades", p),
			fmt.Sprintf("%s 2.50%%xESMA nb of trades", p),
			fmt.Sprintf("%s Auction", p),
			fmt.Sprintf("%s SI", p),
		)
	}
	for _, inst := range res.Instruments {
		row := []interface{}{inst.InstrumentID, inst.IssuerCode, inst.IssuerFullName}
		for _, p := range res.Periods {
			m := inst.Metrics(p)
			row = append(row, m.TradeCount, m.ScaledThreshold.InexactFloat64(), m.AuctionCount, m.SIFlag)
		}
		byISIN.Rows = append(byISIN.Rows, row)
	}

	byIssuer = Table{Name: SheetByIssuer, Header: []string{
		"ISSUER", "ISSUER_FULLNAME", "In Scope", "MM Exempt", "Review In Scope", "Regulator Exempt",
	}}
	for _, p := range res.Periods {
		byIssuer.Header = append(byIssuer.Header, scoreHeading(p))
	}
	byIssuer.Header = append(byIssuer.Header, totalScoreHeading)
	for _, is := range res.Issuers {
		row := []interface{}{
			is.IssuerCode, is.IssuerFullName,
			yesNo(is.InScope), yesNo(is.MarketMakerExempt), yesNo(is.ReviewInScope), yesNo(is.RegulatorExempt),
		}
		for _, p := range res.Periods {
			row = append(row, is.Scores[p])
		}
		row = append(row, is.Total)
		byIssuer.Rows = append(byIssuer.Rows, row)
	}
	return byISIN, byIssuer
}

// ClassifiedTable lists every kept trade of the main feed with its annotations.
func ClassifiedTable(trades []models.ClassifiedTrade) Table {
	return classifiedTable(SheetClassified, trades)
}

// ClassifiedMasterTable is ClassifiedTable for the issuer master feed.
func ClassifiedMasterTable(trades []models.ClassifiedTrade) Table {
	return classifiedTable(SheetClassifiedIM, trades)
}

func classifiedTable(name string, trades []models.ClassifiedTrade) Table {
	t := Table{Name: name, Header: []string{
		"ISIN", "ISSUER", "ISSUER_FULLNAME", "COUNTERPART", "M_TRN_DATE", "M_SPLIT_INI", "Period",
		"In Scope", "MM Exempt", "Review In Scope", "Regulator Exempt", "Auction order", "Source line",
	}}
	for _, tr := range trades {
		var date interface{} = ""
		if !tr.TradeDate.IsZero() {
			date = tr.TradeDate.Format("2006-01-02")
		}
		var split interface{} = ""
		if !math.IsNaN(tr.SplitIndicator) {
			split = tr.SplitIndicator
		}
		label := ""
		if tr.HasPeriod {
			label = tr.Period.String()
		}
		auction := "-"
		if tr.IsAuction {
			auction = "Order"
		}
		t.Rows = append(t.Rows, []interface{}{
			tr.InstrumentID, tr.IssuerCode, tr.IssuerFullName, tr.CounterpartyCode, date, split, label,
			yesNo(tr.InScope), yesNo(tr.MarketMakerExempt), yesNo(tr.ReviewInScope), yesNo(tr.RegulatorExempt),
			auction, tr.Source.Line,
		})
	}
	return t
}

func scoreHeading(p period.Label) string {
	return fmt.Sprintf("%s SI Score", p)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
