package review

import (
	"testing"
	"time"

	"github.com/guttosm/sireview/internal/domain/models"
	"github.com/guttosm/sireview/internal/exemption"
)

const testTable = `version: test
entries:
  - {primary: TRESORIT, market_maker_exempt: false, regulator_exempt: false}
  - {primary: RBBX, market_maker_exempt: true}
  - {primary: RAVIN, regulator_exempt: true}
  - {primary: TREPUB, alternate: CADES}
`

func mustTable(t *testing.T) *exemption.Table {
	t.Helper()
	tbl, err := exemption.Parse([]byte(testTable))
	if err != nil {
		t.Fatalf("table: %v", err)
	}
	return tbl
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// trades builds n identical trade rows on consecutive lines starting at line.
func trades(n int, line int, isin, issuer, name, cpty string, d time.Time) []models.TradeRecord {
	out := make([]models.TradeRecord, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, models.TradeRecord{
			InstrumentID:     isin,
			IssuerCode:       issuer,
			IssuerFullName:   name,
			CounterpartyCode: cpty,
			TradeDate:        d,
			SplitIndicator:   1,
			Source:           models.RowRef{Feed: models.FeedTrades, Line: line + i},
		})
	}
	return out
}
